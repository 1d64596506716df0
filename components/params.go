// Package components defines the data records shared by the simulation stages.
package components

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
)

// ParamCount is the length of the flat parameter list.
const ParamCount = 7

// Params holds the per-run simulation tunables. They are fixed once the
// engine is initialised.
type Params struct {
	EvaporateSpeed   float32 // subtracted from every cell per tick
	DiffuseSpeed     float32 // 0..1 mixing toward the neighbourhood mean
	NumAgents        int
	Wobbling         float32 // full width of the random heading jitter (radians)
	PheromoneDeposit float32 // added per agent per tick
	MaxPheromone     float32 // clamp ceiling
	TwistingAngle    float32 // constant heading bias (radians)
}

// Flat returns the parameters in interop order:
// evaporateSpeed, diffuseSpeed, numAgents, wobbling, pheromoneDeposit,
// maxPheromone, twistingAngle.
func (p Params) Flat() [ParamCount]float32 {
	return [ParamCount]float32{
		p.EvaporateSpeed,
		p.DiffuseSpeed,
		float32(p.NumAgents),
		p.Wobbling,
		p.PheromoneDeposit,
		p.MaxPheromone,
		p.TwistingAngle,
	}
}

// ParamsFromFlat is the inverse of Flat.
func ParamsFromFlat(f [ParamCount]float32) Params {
	return Params{
		EvaporateSpeed:   f[0],
		DiffuseSpeed:     f[1],
		NumAgents:        int(f[2]),
		Wobbling:         f[3],
		PheromoneDeposit: f[4],
		MaxPheromone:     f[5],
		TwistingAngle:    f[6],
	}
}

// MaxAngle bounds |TwistingAngle| and Wobbling.
const MaxAngle = 2 * math32.Pi

// Validate reports every out-of-range or non-finite parameter.
func (p Params) Validate() error {
	var errs []error
	if p.NumAgents < 0 {
		errs = append(errs, fmt.Errorf("num_agents must be >= 0, got %d", p.NumAgents))
	}
	for _, f := range []struct {
		name string
		v    float32
	}{
		{"evaporate_speed", p.EvaporateSpeed},
		{"diffuse_speed", p.DiffuseSpeed},
		{"wobbling", p.Wobbling},
		{"pheromone_deposit", p.PheromoneDeposit},
		{"max_pheromone", p.MaxPheromone},
		{"twisting_angle", p.TwistingAngle},
	} {
		if !Finite(f.v) {
			errs = append(errs, fmt.Errorf("%s must be finite, got %g", f.name, f.v))
		}
	}
	if p.EvaporateSpeed < 0 {
		errs = append(errs, fmt.Errorf("evaporate_speed must be >= 0, got %g", p.EvaporateSpeed))
	}
	if p.DiffuseSpeed < 0 || p.DiffuseSpeed > 1 {
		errs = append(errs, fmt.Errorf("diffuse_speed must be in [0,1], got %g", p.DiffuseSpeed))
	}
	if p.Wobbling < 0 || p.Wobbling > MaxAngle {
		errs = append(errs, fmt.Errorf("wobbling must be in [0,2pi], got %g", p.Wobbling))
	}
	if p.PheromoneDeposit < 0 {
		errs = append(errs, fmt.Errorf("pheromone_deposit must be >= 0, got %g", p.PheromoneDeposit))
	}
	if p.MaxPheromone <= 0 {
		errs = append(errs, fmt.Errorf("max_pheromone must be > 0, got %g", p.MaxPheromone))
	}
	if math32.Abs(p.TwistingAngle) > MaxAngle {
		errs = append(errs, fmt.Errorf("twisting_angle must be in [-2pi,2pi], got %g", p.TwistingAngle))
	}
	return errors.Join(errs...)
}

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float32) bool {
	return !math32.IsNaN(v) && !math32.IsInf(v, 0)
}
