// Package engine drives the trail simulation: it owns the ping-pong field,
// the agent table and the frame scheduler, and runs each tick as a sequence
// of data-parallel passes separated by barriers.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pthm-cable/slime/components"
	"github.com/pthm-cable/slime/systems"
	"github.com/pthm-cable/slime/telemetry"
)

// maxCells bounds the field size a single engine will allocate.
const maxCells = 1 << 28

// PhaseRecorder receives tick and phase boundaries. telemetry.PerfCollector
// implements it.
type PhaseRecorder interface {
	StartTick()
	StartPhase(phase string)
	EndTick()
}

// Options configures an engine. Params.NumAgents sets the population.
type Options struct {
	Width, Height int
	Params        components.Params
	Agents        systems.AgentSpec
	Neighborhood  systems.Neighborhood
	Boundary      systems.Boundary
	Fill          systems.FillSpec

	// Seed drives spawning and, when Random is nil, the wobble source.
	Seed uint64
	// Random overrides the wobble source.
	Random systems.RandomSource

	// Workers is the worker goroutine count (0 = GOMAXPROCS).
	Workers int
	// ParallelThreshold is the minimum item count for a parallel pass
	// (0 = default).
	ParallelThreshold int

	// Perf, if set, is told about tick and phase boundaries.
	Perf PhaseRecorder
}

// DefaultOptions returns options for a w x h field with n agents.
func DefaultOptions(w, h, n int) Options {
	return Options{
		Width:  w,
		Height: h,
		Params: components.Params{
			EvaporateSpeed:   0.005,
			DiffuseSpeed:     0.2,
			NumAgents:        n,
			Wobbling:         0.3,
			PheromoneDeposit: 0.1,
			MaxPheromone:     1,
		},
		Agents: systems.DefaultAgentSpec(),
		Seed:   1,
	}
}

// Validate reports every problem that would stop Initialize.
func (o Options) Validate() error {
	var errs []error
	if o.Width <= 0 || o.Height <= 0 {
		errs = append(errs, fmt.Errorf("field resolution must be positive, got %dx%d", o.Width, o.Height))
	} else if o.Width*o.Height > maxCells {
		errs = append(errs, fmt.Errorf("field %dx%d exceeds %d cells", o.Width, o.Height, maxCells))
	}
	if err := o.Params.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := o.Agents.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("agents: %w", err))
	} else if o.Width > 0 && o.Height > 0 && o.Agents.SensorSize > float32(max(o.Width, o.Height)) {
		errs = append(errs, fmt.Errorf("agents: sensor_size %g exceeds the field", o.Agents.SensorSize))
	}
	if o.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must be >= 0, got %d", o.Workers))
	}
	return errors.Join(errs...)
}

// Engine is a running simulation. Its methods are not safe for concurrent
// use; the parallelism lives inside Tick.
type Engine struct {
	opts   Options
	field  *systems.FieldGrid
	agents *components.AgentTable
	sched  FrameScheduler
	pool   *workerPool
	relax  systems.RelaxKernel
	kernel systems.AgentKernel
	perf   PhaseRecorder
}

// Initialize allocates the field and agents and starts the worker pool.
// Every failure matches ErrInit.
func Initialize(opts Options) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, &InitError{Err: err}
	}

	e := &Engine{
		opts:   opts,
		field:  systems.NewFieldGrid(opts.Width, opts.Height),
		agents: components.NewAgentTable(opts.Params.NumAgents),
		pool:   newWorkerPool(opts.Workers, opts.ParallelThreshold),
		perf:   opts.Perf,
	}
	e.relax = systems.RelaxKernel{
		Field:        e.field,
		Params:       opts.Params,
		Neighborhood: opts.Neighborhood,
	}
	e.kernel = systems.AgentKernel{
		Field:    e.field,
		Agents:   e.agents,
		Params:   opts.Params,
		Boundary: opts.Boundary,
	}
	e.kernel.Reserve()
	e.seed(opts.Seed)
	e.pool.start()

	slog.Info("engine ready",
		"width", opts.Width,
		"height", opts.Height,
		"agents", opts.Params.NumAgents,
		"workers", e.pool.numWorkers,
		"boundary", opts.Boundary.String(),
		"neighborhood", opts.Neighborhood.String(),
	)
	return e, nil
}

// seed spawns the agents, fills the field and resets the scheduler.
func (e *Engine) seed(seed uint64) {
	systems.SpawnAgents(e.agents, e.opts.Width, e.opts.Height, e.opts.Agents, systems.NewRand(seed))
	systems.SeedField(e.field, systems.BufferA, e.opts.Fill, e.opts.Params.MaxPheromone)
	e.field.CopyBuffer(systems.BufferB, systems.BufferA)

	if e.opts.Random != nil {
		e.kernel.Random = e.opts.Random
	} else {
		e.kernel.Random = systems.NewHashSource(seed)
	}
	e.sched.reset()
}

// Tick runs one step: relax src into dst, move every agent against dst,
// deposit into dst, then commit so dst becomes the front buffer. A failed
// pass halts the engine and leaves the front buffer and agent table untouched.
func (e *Engine) Tick(elapsedMillis float32) (systems.FieldView, error) {
	if err := e.sched.begin(); err != nil {
		return systems.FieldView{}, err
	}

	start := time.Now()
	step := e.sched.Step()
	src, dst := e.sched.Roles()
	if e.perf != nil {
		e.perf.StartTick()
	}

	passes := []struct {
		phase string
		n     int
		fn    func(start, end int)
	}{
		{telemetry.PhaseRelax, e.opts.Height, func(y0, y1 int) { e.relax.Rows(src, dst, y0, y1) }},
		{telemetry.PhaseMove, e.agents.Len(), func(i0, i1 int) { e.kernel.Move(dst, step, i0, i1) }},
		{telemetry.PhaseDeposit, e.agents.Len(), func(i0, i1 int) { e.kernel.Deposit(dst, i0, i1) }},
	}
	for _, p := range passes {
		if e.perf != nil {
			e.perf.StartPhase(p.phase)
		}
		if err := e.pool.run(p.n, p.fn); err != nil {
			e.sched.halt()
			derr := &DispatchError{Phase: p.phase, Step: step, Err: err}
			slog.Error("tick failed", "phase", p.phase, "step", step, "error", err)
			return systems.FieldView{}, derr
		}
	}

	// Every pass succeeded: the agents take their new positions together
	// with the buffer swap.
	e.kernel.Apply(0, e.agents.Len())
	if e.perf != nil {
		e.perf.EndTick()
	}
	e.sched.commit(time.Since(start), elapsedMillis)
	return e.field.View(dst), nil
}

// Field returns a read-only view of the front buffer.
func (e *Engine) Field() systems.FieldView {
	return e.field.View(e.sched.Front())
}

// AgentSnapshot returns a copy of every agent record.
func (e *Engine) AgentSnapshot() []components.Agent {
	return e.agents.Snapshot()
}

// AppendAgents appends the agent table in the packed binary layout.
func (e *Engine) AppendAgents(b []byte) ([]byte, error) {
	return e.agents.AppendBinary(b)
}

// Params returns the run parameters.
func (e *Engine) Params() components.Params { return e.opts.Params }

// State returns the scheduler state.
func (e *Engine) State() State { return e.sched.State() }

// Stats summarises the scheduler.
type Stats struct {
	Step       uint64
	Elapsed    time.Duration
	LastTick   time.Duration
	HostMillis float32
	Agents     int
	Front      systems.BufferID
	State      State
}

// LogValue implements slog.LogValuer.
func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("step", s.Step),
		slog.Duration("elapsed", s.Elapsed),
		slog.Int64("last_tick_us", s.LastTick.Microseconds()),
		slog.Int("agents", s.Agents),
		slog.String("front", s.Front.String()),
		slog.String("state", s.State.String()),
	)
}

// Stats returns the current scheduler summary.
func (e *Engine) Stats() Stats {
	return Stats{
		Step:       e.sched.Step(),
		Elapsed:    e.sched.Elapsed(),
		LastTick:   e.sched.LastTick(),
		HostMillis: e.sched.HostMillis(),
		Agents:     e.agents.Len(),
		Front:      e.sched.Front(),
		State:      e.sched.State(),
	}
}

// Reset re-spawns agents and refills the field from seed, returning a
// ready or halted engine to Ready at step zero.
func (e *Engine) Reset(seed uint64) error {
	if e.sched.State() == StateUninitialized {
		return ErrNotReady
	}
	e.seed(seed)
	return nil
}

// Close stops the worker pool. Further ticks return ErrNotReady.
func (e *Engine) Close() {
	if e.sched.State() == StateUninitialized {
		return
	}
	e.pool.stop()
	e.sched.close()
	slog.Info("engine stopped", "step", e.sched.Step())
}
