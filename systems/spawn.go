package systems

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/chewxy/math32"

	"github.com/pthm-cable/slime/components"
)

// AgentSpec is the sensing and movement geometry shared by every agent at
// spawn time.
type AgentSpec struct {
	Speed        float32
	SensorLength float32
	SensorSize   float32
	SensorAngle  float32 // side sensors sit at +/- this offset
	TurnAngle    float32 // side turns are +/- this delta

	// SpawnRadiusFrac scales min(W,H) to get the spawn disk radius.
	SpawnRadiusFrac float32
}

// Validate reports negative or non-finite geometry and angles beyond one
// full turn.
func (s AgentSpec) Validate() error {
	var errs []error
	for _, f := range []struct {
		name string
		v    float32
	}{
		{"speed", s.Speed},
		{"sensor_length", s.SensorLength},
		{"sensor_size", s.SensorSize},
		{"spawn_radius_frac", s.SpawnRadiusFrac},
	} {
		if !components.Finite(f.v) || f.v < 0 {
			errs = append(errs, fmt.Errorf("%s must be finite and >= 0, got %g", f.name, f.v))
		}
	}
	for _, f := range []struct {
		name string
		v    float32
	}{
		{"sensor_angle", s.SensorAngle},
		{"turn_angle", s.TurnAngle},
	} {
		if !components.Finite(f.v) || math32.Abs(f.v) > components.MaxAngle {
			errs = append(errs, fmt.Errorf("%s must be in [-2pi,2pi], got %g", f.name, f.v))
		}
	}
	return errors.Join(errs...)
}

// DefaultAgentSpec returns a spec that produces visible trails on a few
// hundred cells.
func DefaultAgentSpec() AgentSpec {
	return AgentSpec{
		Speed:           1,
		SensorLength:    9,
		SensorSize:      1,
		SensorAngle:     math32.Pi / 4,
		TurnAngle:       math32.Pi / 8,
		SpawnRadiusFrac: 1.0 / 3.0,
	}
}

// SpawnAgents places every agent of the table uniformly inside a disk
// centred on the field with a random heading. Sensor 0 looks straight ahead
// and pairs with no turn.
func SpawnAgents(t *components.AgentTable, w, h int, spec AgentSpec, rng *rand.Rand) {
	cx := float32(w) / 2
	cy := float32(h) / 2
	radius := float32(min(w, h)) * spec.SpawnRadiusFrac

	for i := 0; i < t.Len(); i++ {
		r := radius * math32.Sqrt(rng.Float32())
		theta := rng.Float32() * 2 * math32.Pi
		sin, cos := math32.Sincos(theta)

		a := t.At(i)
		a.PosX = clampCoord(cx+r*cos, float32(w))
		a.PosY = clampCoord(cy+r*sin, float32(h))
		a.Heading = NormalizeAngle(rng.Float32() * 2 * math32.Pi)
		a.Speed = spec.Speed
		a.SensorLength = spec.SensorLength
		a.SensorSize = spec.SensorSize
		a.SensorAngles = [3]float32{0, spec.SensorAngle, -spec.SensorAngle}
		a.TurnAngles = [3]float32{0, spec.TurnAngle, -spec.TurnAngle}
	}
}

// NewRand returns the deterministic generator used for spawning.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0x5eed))
}
