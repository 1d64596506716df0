package telemetry

import "github.com/pthm-cable/slime/systems"

// Collector turns the tick stream into field stats windows.
type Collector struct {
	windowTicks uint64
	ceiling     float32

	windowStart uint64
	lastMass    float64
	flushed     bool
}

// NewCollector creates a collector that flushes every windowTicks ticks.
// ceiling is max_pheromone, used for coverage and saturation.
func NewCollector(windowTicks int, ceiling float32) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{
		windowTicks: uint64(windowTicks),
		ceiling:     ceiling,
	}
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(step uint64) bool {
	return step-c.windowStart >= c.windowTicks
}

// Flush measures the field at step and starts the next window.
func (c *Collector) Flush(step uint64, v systems.FieldView, agents int) FieldStats {
	s := ComputeFieldStats(v, c.ceiling)
	s.Step = step
	s.Agents = agents
	if c.flushed {
		s.MassDelta = s.Mass - c.lastMass
	}

	c.windowStart = step
	c.lastMass = s.Mass
	c.flushed = true
	return s
}

// Reset forgets the previous window, for use after an engine reset.
func (c *Collector) Reset() {
	c.windowStart = 0
	c.lastMass = 0
	c.flushed = false
}

// WindowTicks returns the number of ticks per window.
func (c *Collector) WindowTicks() uint64 {
	return c.windowTicks
}
