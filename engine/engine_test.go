package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/pthm-cable/slime/components"
	"github.com/pthm-cable/slime/systems"
)

func newTestEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	e, err := Initialize(opts)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func mustTick(t *testing.T, e *Engine) systems.FieldView {
	t.Helper()
	v, err := e.Tick(16)
	if err != nil {
		t.Fatalf("tick %d: %v", e.Stats().Step, err)
	}
	return v
}

func TestBufferParity(t *testing.T) {
	e := newTestEngine(t, DefaultOptions(16, 16, 8))

	if e.State() != StateReady {
		t.Fatalf("expected ready, got %v", e.State())
	}
	if front := e.Field().Buffer; front != systems.BufferA {
		t.Fatalf("expected front A before first tick, got %v", front)
	}

	want := []systems.BufferID{systems.BufferB, systems.BufferA, systems.BufferB, systems.BufferA}
	for i, id := range want {
		v := mustTick(t, e)
		if v.Buffer != id {
			t.Errorf("tick %d: expected view of %v, got %v", i, id, v.Buffer)
		}
		if e.Field().Buffer != id {
			t.Errorf("tick %d: expected front %v, got %v", i, id, e.Field().Buffer)
		}
	}
	if e.Stats().Step != uint64(len(want)) {
		t.Errorf("expected step %d, got %d", len(want), e.Stats().Step)
	}
	if e.State() != StateRunning {
		t.Errorf("expected running, got %v", e.State())
	}
}

func TestPopulationAndBounds(t *testing.T) {
	for _, b := range []systems.Boundary{systems.Clamp, systems.Wrap, systems.Reflect} {
		t.Run(b.String(), func(t *testing.T) {
			opts := DefaultOptions(24, 12, 200)
			opts.Boundary = b
			opts.Agents.Speed = 3
			opts.Params.Wobbling = 2
			opts.Workers = 4
			opts.ParallelThreshold = 1
			e := newTestEngine(t, opts)

			for i := 0; i < 50; i++ {
				mustTick(t, e)
			}
			agents := e.AgentSnapshot()
			if len(agents) != 200 {
				t.Fatalf("expected 200 agents, got %d", len(agents))
			}
			for i, a := range agents {
				if a.PosX < 0 || a.PosX >= 24 || a.PosY < 0 || a.PosY >= 12 {
					t.Fatalf("agent %d out of bounds: (%v,%v)", i, a.PosX, a.PosY)
				}
			}
		})
	}
}

func TestFieldStaysClamped(t *testing.T) {
	opts := DefaultOptions(16, 16, 500)
	opts.Params.PheromoneDeposit = 0.7
	opts.Params.MaxPheromone = 2
	opts.Params.EvaporateSpeed = 0
	e := newTestEngine(t, opts)

	for i := 0; i < 30; i++ {
		v := mustTick(t, e)
		for j, c := range v.Values() {
			if c < 0 || c > 2 {
				t.Fatalf("tick %d cell %d: %v outside [0,2]", i, j, c)
			}
		}
	}
}

func TestZeroRatesPreserveField(t *testing.T) {
	opts := DefaultOptions(20, 20, 50)
	opts.Params.EvaporateSpeed = 0
	opts.Params.DiffuseSpeed = 0
	opts.Params.PheromoneDeposit = 0
	opts.Fill = systems.FillSpec{Mode: systems.FillNoise, Value: 1, Scale: 0.2, Seed: 3}
	e := newTestEngine(t, opts)

	before := e.Field().Clone()
	for i := 0; i < 5; i++ {
		v := mustTick(t, e)
		for j, c := range v.Values() {
			if c != before[j] {
				t.Fatalf("tick %d cell %d: expected %v, got %v", i, j, before[j], c)
			}
		}
	}
}

func TestNoAgentsStillRelaxes(t *testing.T) {
	opts := DefaultOptions(8, 8, 0)
	opts.Params.EvaporateSpeed = 0.25
	opts.Fill = systems.FillSpec{Mode: systems.FillUniform, Value: 1}
	e := newTestEngine(t, opts)

	for i, want := range []float32{0.75, 0.5, 0.25, 0, 0} {
		v := mustTick(t, e)
		for j, c := range v.Values() {
			if c != want {
				t.Fatalf("tick %d cell %d: expected %v, got %v", i, j, want, c)
			}
		}
	}
}

func TestSingleAgentDeposit(t *testing.T) {
	opts := DefaultOptions(4, 4, 1)
	opts.Params = components.Params{NumAgents: 1, PheromoneDeposit: 1, MaxPheromone: 3}
	e := newTestEngine(t, opts)

	*e.agents.At(0) = components.Agent{
		PosX: 2, PosY: 2, Heading: 0, Speed: 1, SensorLength: 1,
	}

	v := mustTick(t, e)
	a := e.AgentSnapshot()[0]
	cx, cy := systems.Clamp.Cell(a.PosX, a.PosY, 4, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := float32(0)
			if x == cx && y == cy {
				want = 1
			}
			if got := v.At(x, y); got != want {
				t.Errorf("cell (%d,%d): expected %v, got %v", x, y, want, got)
			}
		}
	}
}

func TestInitializeRejectsBadOptions(t *testing.T) {
	cases := map[string]func(*Options){
		"zero width":       func(o *Options) { o.Width = 0 },
		"negative height":  func(o *Options) { o.Height = -4 },
		"negative agents":  func(o *Options) { o.Params.NumAgents = -1 },
		"zero max":         func(o *Options) { o.Params.MaxPheromone = 0 },
		"diffuse above 1":  func(o *Options) { o.Params.DiffuseSpeed = 1.5 },
		"negative speed":   func(o *Options) { o.Agents.Speed = -1 },
		"negative workers": func(o *Options) { o.Workers = -2 },
		"too many cells":   func(o *Options) { o.Width, o.Height = 1<<15, 1<<15 },
		"infinite twist":   func(o *Options) { o.Params.TwistingAngle = float32(math.Inf(1)) },
		"huge twist":       func(o *Options) { o.Params.TwistingAngle = 1e9 },
		"wobble above 2pi": func(o *Options) { o.Params.Wobbling = 7 },
		"nan evaporate":    func(o *Options) { o.Params.EvaporateSpeed = float32(math.NaN()) },
		"nan diffuse":      func(o *Options) { o.Params.DiffuseSpeed = float32(math.NaN()) },
		"infinite deposit": func(o *Options) { o.Params.PheromoneDeposit = float32(math.Inf(1)) },
		"nan max":          func(o *Options) { o.Params.MaxPheromone = float32(math.NaN()) },
		"nan sensor size":  func(o *Options) { o.Agents.SensorSize = float32(math.NaN()) },
		"huge sensor size": func(o *Options) { o.Agents.SensorSize = 1e6 },
		"infinite speed":   func(o *Options) { o.Agents.Speed = float32(math.Inf(1)) },
		"nan turn angle":   func(o *Options) { o.Agents.TurnAngle = float32(math.NaN()) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			opts := DefaultOptions(8, 8, 4)
			mutate(&opts)
			e, err := Initialize(opts)
			if err == nil {
				e.Close()
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrInit) {
				t.Errorf("expected ErrInit, got %v", err)
			}
			var ie *InitError
			if !errors.As(err, &ie) {
				t.Errorf("expected *InitError, got %T", err)
			}
		})
	}
}

type panicSource struct{ after uint64 }

func (p panicSource) Float32(step uint64, _ uint32) float32 {
	if step >= p.after {
		panic("random source exhausted")
	}
	return 0.5
}

func TestDispatchFailureHalts(t *testing.T) {
	opts := DefaultOptions(16, 16, 100)
	opts.Random = panicSource{after: 2}
	opts.Workers = 4
	opts.ParallelThreshold = 1
	e := newTestEngine(t, opts)

	mustTick(t, e)
	mustTick(t, e)
	front := e.Field().Buffer
	before := e.Field().Clone()
	agentsBefore := e.AgentSnapshot()

	_, err := e.Tick(48)
	if !errors.Is(err, ErrDispatch) {
		t.Fatalf("expected ErrDispatch, got %v", err)
	}
	var de *DispatchError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DispatchError, got %T", err)
	}
	if de.Phase != "move" || de.Step != 2 {
		t.Errorf("expected move at step 2, got %s at %d", de.Phase, de.Step)
	}

	if e.State() != StateHalted {
		t.Errorf("expected halted, got %v", e.State())
	}
	for i, a := range e.AgentSnapshot() {
		if a != agentsBefore[i] {
			t.Fatalf("agent %d changed by failed tick: %+v -> %+v", i, agentsBefore[i], a)
		}
	}
	if e.Stats().Step != 2 || e.Field().Buffer != front {
		t.Errorf("failed tick must not commit: step %d front %v", e.Stats().Step, e.Field().Buffer)
	}
	for i, c := range e.Field().Values() {
		if c != before[i] {
			t.Fatalf("front cell %d changed: %v -> %v", i, before[i], c)
		}
	}

	if _, err := e.Tick(64); !errors.Is(err, ErrHalted) {
		t.Errorf("expected ErrHalted, got %v", err)
	}
}

// lastAgentPanics fails only for one agent at one step, so every other
// chunk of the move pass completes.
type lastAgentPanics struct {
	step  uint64
	agent uint32
}

func (p lastAgentPanics) Float32(step uint64, stream uint32) float32 {
	if step == p.step && stream == p.agent {
		panic("random source failed")
	}
	return 0.25
}

func TestFailedTickLeavesAgentsUnchanged(t *testing.T) {
	const n = 400
	opts := DefaultOptions(32, 32, n)
	opts.Random = lastAgentPanics{step: 1, agent: n - 1}
	opts.Workers = 4
	opts.ParallelThreshold = 1
	e := newTestEngine(t, opts)

	mustTick(t, e)
	before := e.AgentSnapshot()
	packed, err := e.AppendAgents(nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := e.Tick(32); !errors.Is(err, ErrDispatch) {
		t.Fatalf("expected ErrDispatch, got %v", err)
	}

	moved := 0
	for i, a := range e.AgentSnapshot() {
		if a != before[i] {
			moved++
		}
	}
	if moved != 0 {
		t.Errorf("agents mutated by failed tick: %d of %d", moved, n)
	}
	after, err := e.AppendAgents(nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(after) != string(packed) {
		t.Error("packed agent table changed after failed tick")
	}
}

func TestWorkerCountDoesNotChangeResult(t *testing.T) {
	run := func(workers int) ([]float32, []components.Agent) {
		opts := DefaultOptions(32, 32, 300)
		opts.Seed = 7
		opts.Workers = workers
		opts.ParallelThreshold = 1
		e := newTestEngine(t, opts)
		for i := 0; i < 20; i++ {
			mustTick(t, e)
		}
		return e.Field().Clone(), e.AgentSnapshot()
	}

	f1, a1 := run(1)
	f8, a8 := run(8)
	for i := range f1 {
		if f1[i] != f8[i] {
			t.Fatalf("cell %d differs: %v vs %v", i, f1[i], f8[i])
		}
	}
	for i := range a1 {
		if a1[i] != a8[i] {
			t.Fatalf("agent %d differs: %+v vs %+v", i, a1[i], a8[i])
		}
	}
}

func TestCloseAndReset(t *testing.T) {
	e := newTestEngine(t, DefaultOptions(8, 8, 10))
	for i := 0; i < 3; i++ {
		mustTick(t, e)
	}

	if err := e.Reset(9); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	s := e.Stats()
	if s.Step != 0 || s.State != StateReady || s.Front != systems.BufferA || s.Elapsed != 0 {
		t.Errorf("unexpected stats after reset: %+v", s)
	}
	mustTick(t, e)

	e.Close()
	if _, err := e.Tick(0); !errors.Is(err, ErrNotReady) {
		t.Errorf("expected ErrNotReady after close, got %v", err)
	}
	if err := e.Reset(1); !errors.Is(err, ErrNotReady) {
		t.Errorf("expected ErrNotReady from reset after close, got %v", err)
	}
	e.Close()
}

func TestStatsRecordsHostTime(t *testing.T) {
	e := newTestEngine(t, DefaultOptions(8, 8, 4))
	if _, err := e.Tick(123.5); err != nil {
		t.Fatal(err)
	}
	s := e.Stats()
	if s.HostMillis != 123.5 {
		t.Errorf("expected host millis 123.5, got %v", s.HostMillis)
	}
	if s.Elapsed <= 0 || s.LastTick != s.Elapsed {
		t.Errorf("expected elapsed == last tick > 0, got %v %v", s.Elapsed, s.LastTick)
	}
	if s.Agents != 4 {
		t.Errorf("expected 4 agents, got %d", s.Agents)
	}
}

type recorder struct {
	ticks  int
	phases []string
}

func (r *recorder) StartTick()          { r.ticks++ }
func (r *recorder) StartPhase(p string) { r.phases = append(r.phases, p) }
func (r *recorder) EndTick()            {}

func TestPhaseRecorder(t *testing.T) {
	rec := &recorder{}
	opts := DefaultOptions(8, 8, 4)
	opts.Perf = rec
	e := newTestEngine(t, opts)

	mustTick(t, e)
	mustTick(t, e)
	if rec.ticks != 2 {
		t.Errorf("expected 2 ticks, got %d", rec.ticks)
	}
	want := []string{"relax", "move", "deposit", "relax", "move", "deposit"}
	if len(rec.phases) != len(want) {
		t.Fatalf("expected phases %v, got %v", want, rec.phases)
	}
	for i := range want {
		if rec.phases[i] != want[i] {
			t.Errorf("phase %d: expected %s, got %s", i, want[i], rec.phases[i])
		}
	}
}

func TestAppendAgentsRoundTrip(t *testing.T) {
	e := newTestEngine(t, DefaultOptions(8, 8, 5))
	mustTick(t, e)

	b, err := e.AppendAgents(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 5*components.AgentBytes {
		t.Fatalf("expected %d bytes, got %d", 5*components.AgentBytes, len(b))
	}
	got, err := components.DecodeAgents(b)
	if err != nil {
		t.Fatal(err)
	}
	for i, a := range e.AgentSnapshot() {
		if got[i] != a {
			t.Errorf("agent %d: expected %+v, got %+v", i, a, got[i])
		}
	}
}
