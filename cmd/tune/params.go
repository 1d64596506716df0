package main

import (
	"github.com/pthm-cable/slime/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of tunable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "evaporate_speed", Path: "simulation.evaporate_speed", Min: 0.001, Max: 0.05, Default: 0.005},
			{Name: "diffuse_speed", Path: "simulation.diffuse_speed", Min: 0.0, Max: 1.0, Default: 0.2},
			{Name: "wobbling", Path: "simulation.wobbling", Min: 0.0, Max: 1.0, Default: 0.3},
			{Name: "pheromone_deposit", Path: "simulation.pheromone_deposit", Min: 0.01, Max: 0.5, Default: 0.1},
			{Name: "sensor_angle", Path: "agents.sensor_angle", Min: 0.1, Max: 1.2, Default: 0.785},
			{Name: "turn_angle", Path: "agents.turn_angle", Min: 0.05, Max: 0.8, Default: 0.393},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped values into cfg and refreshes its derived
// block. Order must match Specs.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) error {
	c := pv.Clamp(values)
	cfg.Simulation.EvaporateSpeed = c[0]
	cfg.Simulation.DiffuseSpeed = c[1]
	cfg.Simulation.Wobbling = c[2]
	cfg.Simulation.PheromoneDeposit = c[3]
	cfg.Agents.SensorAngle = c[4]
	cfg.Agents.TurnAngle = c[5]
	return cfg.Refresh()
}

// ExtractFromConfig extracts current parameter values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Simulation.EvaporateSpeed,
		cfg.Simulation.DiffuseSpeed,
		cfg.Simulation.Wobbling,
		cfg.Simulation.PheromoneDeposit,
		cfg.Agents.SensorAngle,
		cfg.Agents.TurnAngle,
	}
}
