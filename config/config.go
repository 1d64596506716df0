// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/slime/components"
	"github.com/pthm-cable/slime/engine"
	"github.com/pthm-cable/slime/systems"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	Field      FieldConfig      `yaml:"field"`
	Agents     AgentsConfig     `yaml:"agents"`
	Simulation SimulationConfig `yaml:"simulation"`
	Parallel   ParallelConfig   `yaml:"parallel"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds window settings for graphics mode.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// FieldConfig holds the pheromone grid resolution and initial contents.
type FieldConfig struct {
	Width        int     `yaml:"width"`
	Height       int     `yaml:"height"`
	InitialFill  string  `yaml:"initial_fill"`  // empty, uniform or noise
	InitialValue float64 `yaml:"initial_value"` // uniform value or noise amplitude
	NoiseScale   float64 `yaml:"noise_scale"`   // noise frequency, cycles per cell
	NoiseSeed    int64   `yaml:"noise_seed"`
}

// AgentsConfig holds population size and per-agent geometry.
type AgentsConfig struct {
	Count           int     `yaml:"count"`
	Speed           float64 `yaml:"speed"`         // cells per tick
	SensorLength    float64 `yaml:"sensor_length"` // cells ahead
	SensorSize      float64 `yaml:"sensor_size"`   // sample box radius in cells
	SensorAngle     float64 `yaml:"sensor_angle"`  // radians
	TurnAngle       float64 `yaml:"turn_angle"`    // radians
	SpawnRadiusFrac float64 `yaml:"spawn_radius_frac"`
}

// SimulationConfig holds the global per-tick parameters.
type SimulationConfig struct {
	EvaporateSpeed   float64 `yaml:"evaporate_speed"`
	DiffuseSpeed     float64 `yaml:"diffuse_speed"`
	Wobbling         float64 `yaml:"wobbling"`
	PheromoneDeposit float64 `yaml:"pheromone_deposit"`
	MaxPheromone     float64 `yaml:"max_pheromone"`
	TwistingAngle    float64 `yaml:"twisting_angle"`
	Neighborhood     string  `yaml:"neighborhood"` // moore or von_neumann
	Boundary         string  `yaml:"boundary"`     // clamp, wrap or reflect
}

// ParallelConfig holds worker pool settings.
type ParallelConfig struct {
	Workers   int `yaml:"workers"`   // 0 = GOMAXPROCS
	Threshold int `yaml:"threshold"` // minimum items per parallel pass
}

// TelemetryConfig holds stats and perf window sizes.
type TelemetryConfig struct {
	StatsWindow         int `yaml:"stats_window"` // ticks per field stats row
	PerfCollectorWindow int `yaml:"perf_collector_window"`
}

// DerivedConfig holds values computed from the loaded config.
type DerivedConfig struct {
	Params       components.Params
	Neighborhood systems.Neighborhood
	Boundary     systems.Boundary
	Fill         systems.FillMode
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load reads the embedded defaults, overlays the file at path if any, and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only keys present in the file overwrite the defaults.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.computeDerived()
	return cfg, nil
}

// Validate reports every out-of-range or unknown value.
func (c *Config) Validate() error {
	var errs []error
	if c.Field.Width <= 0 || c.Field.Height <= 0 {
		errs = append(errs, fmt.Errorf("field: resolution must be positive, got %dx%d", c.Field.Width, c.Field.Height))
	}
	if _, err := systems.ParseFillMode(c.Field.InitialFill); err != nil {
		errs = append(errs, fmt.Errorf("field: %w", err))
	}
	if !(c.Field.InitialValue >= 0) || math.IsInf(c.Field.InitialValue, 0) {
		errs = append(errs, fmt.Errorf("field: initial_value must be finite and >= 0, got %g", c.Field.InitialValue))
	}
	if math.IsNaN(c.Field.NoiseScale) || math.IsInf(c.Field.NoiseScale, 0) {
		errs = append(errs, fmt.Errorf("field: noise_scale must be finite, got %g", c.Field.NoiseScale))
	}

	if err := c.agentSpec().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("agents: %w", err))
	}

	if err := c.params().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("simulation: %w", err))
	}
	if _, err := systems.ParseNeighborhood(c.Simulation.Neighborhood); err != nil {
		errs = append(errs, fmt.Errorf("simulation: %w", err))
	}
	if _, err := systems.ParseBoundary(c.Simulation.Boundary); err != nil {
		errs = append(errs, fmt.Errorf("simulation: %w", err))
	}

	if c.Parallel.Workers < 0 || c.Parallel.Threshold < 0 {
		errs = append(errs, errors.New("parallel: workers and threshold must be >= 0"))
	}
	return errors.Join(errs...)
}

func (c *Config) params() components.Params {
	s := c.Simulation
	return components.Params{
		EvaporateSpeed:   float32(s.EvaporateSpeed),
		DiffuseSpeed:     float32(s.DiffuseSpeed),
		NumAgents:        c.Agents.Count,
		Wobbling:         float32(s.Wobbling),
		PheromoneDeposit: float32(s.PheromoneDeposit),
		MaxPheromone:     float32(s.MaxPheromone),
		TwistingAngle:    float32(s.TwistingAngle),
	}
}

// computeDerived fills Derived. Names were checked by Validate.
func (c *Config) computeDerived() {
	c.Derived.Params = c.params()
	c.Derived.Neighborhood, _ = systems.ParseNeighborhood(c.Simulation.Neighborhood)
	c.Derived.Boundary, _ = systems.ParseBoundary(c.Simulation.Boundary)
	c.Derived.Fill, _ = systems.ParseFillMode(c.Field.InitialFill)
}

// Refresh recomputes Derived after fields were changed in code.
func (c *Config) Refresh() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

func (c *Config) agentSpec() systems.AgentSpec {
	a := c.Agents
	return systems.AgentSpec{
		Speed:           float32(a.Speed),
		SensorLength:    float32(a.SensorLength),
		SensorSize:      float32(a.SensorSize),
		SensorAngle:     float32(a.SensorAngle),
		TurnAngle:       float32(a.TurnAngle),
		SpawnRadiusFrac: float32(a.SpawnRadiusFrac),
	}
}

// EngineOptions converts the config into engine options.
func (c *Config) EngineOptions(seed uint64) engine.Options {
	return engine.Options{
		Width:        c.Field.Width,
		Height:       c.Field.Height,
		Params:       c.Derived.Params,
		Neighborhood: c.Derived.Neighborhood,
		Boundary:     c.Derived.Boundary,
		Agents:       c.agentSpec(),
		Fill: systems.FillSpec{
			Mode:  c.Derived.Fill,
			Value: float32(c.Field.InitialValue),
			Scale: c.Field.NoiseScale,
			Seed:  c.Field.NoiseSeed,
		},
		Seed:              seed,
		Workers:           c.Parallel.Workers,
		ParallelThreshold: c.Parallel.Threshold,
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
