// Package game hosts an engine: it drives ticks, feeds telemetry and, in
// graphics mode, renders the front buffer.
package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/slime/camera"
	"github.com/pthm-cable/slime/config"
	"github.com/pthm-cable/slime/engine"
	"github.com/pthm-cable/slime/renderer"
	"github.com/pthm-cable/slime/systems"
	"github.com/pthm-cable/slime/telemetry"
)

// Options configures a Game.
type Options struct {
	Seed           uint64
	LogStats       bool
	StatsWindow    int    // ticks per stats window (0 = config)
	SnapshotDir    string // bookmark snapshots (empty = off)
	OutputDir      string // CSV output (empty = off)
	Headless       bool
	StepsPerUpdate int

	// StatsCallback, if set, receives every flushed window.
	StatsCallback func(telemetry.FieldStats)
}

// Game owns one engine and everything that observes it.
type Game struct {
	cfg    *config.Config
	engine *engine.Engine
	seed   uint64

	perfCollector    *telemetry.PerfCollector
	collector        *telemetry.Collector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	statsCallback    func(telemetry.FieldStats)
	lastStats        telemetry.FieldStats

	logStats       bool
	snapshotDir    string
	stepsPerUpdate int
	paused         bool
	hostMillis     float32
	lastErr        error

	// Graphics mode only.
	headless      bool
	camera        *camera.Camera
	fieldRenderer *renderer.FieldRenderer
	hud           *renderer.HUD
	screenWidth   float32
	screenHeight  float32
}

// NewGameWithOptions builds a game from the global config.
func NewGameWithOptions(opts Options) (*Game, error) {
	return NewGameFromConfig(config.Cfg(), opts)
}

// NewGameFromConfig builds a game from cfg.
func NewGameFromConfig(cfg *config.Config, opts Options) (*Game, error) {
	window := opts.StatsWindow
	if window <= 0 {
		window = cfg.Telemetry.StatsWindow
	}
	steps := max(opts.StepsPerUpdate, 1)

	g := &Game{
		cfg:              cfg,
		seed:             opts.Seed,
		perfCollector:    telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		collector:        telemetry.NewCollector(window, cfg.Derived.Params.MaxPheromone),
		bookmarkDetector: telemetry.NewBookmarkDetector(10),
		statsCallback:    opts.StatsCallback,
		logStats:         opts.LogStats,
		snapshotDir:      opts.SnapshotDir,
		stepsPerUpdate:   steps,
		headless:         opts.Headless,
		screenWidth:      float32(cfg.Screen.Width),
		screenHeight:     float32(cfg.Screen.Height),
	}

	eopts := cfg.EngineOptions(opts.Seed)
	eopts.Perf = g.perfCollector
	e, err := engine.Initialize(eopts)
	if err != nil {
		return nil, err
	}
	g.engine = e

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("output: %w", err)
	}
	g.outputManager = om
	if om != nil {
		slog.Info("writing output", "dir", om.Dir())
	}
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	if !g.headless {
		g.camera = camera.New(g.screenWidth, g.screenHeight,
			float32(cfg.Field.Width), float32(cfg.Field.Height),
			cfg.Derived.Boundary == systems.Wrap)
		g.fieldRenderer = renderer.NewFieldRenderer(int32(g.screenWidth), int32(g.screenHeight), cfg.Derived.Params.MaxPheromone)
		g.hud = renderer.NewHUD()
	}
	return g, nil
}

// step runs one engine tick and the telemetry that follows it.
func (g *Game) step() error {
	if _, err := g.engine.Tick(g.hostMillis); err != nil {
		return err
	}
	g.flushTelemetry()
	return nil
}

// UpdateHeadless advances StepsPerUpdate ticks without touching raylib.
func (g *Game) UpdateHeadless() error {
	for i := 0; i < g.stepsPerUpdate; i++ {
		if err := g.step(); err != nil {
			return err
		}
	}
	return nil
}

// Reset restarts the engine from seed and clears the stats windows.
func (g *Game) Reset(seed uint64) error {
	if err := g.engine.Reset(seed); err != nil {
		return err
	}
	g.seed = seed
	g.lastErr = nil
	g.collector.Reset()
	g.bookmarkDetector.Reset()
	slog.Info("engine reset", "seed", seed)
	return nil
}

// Tick returns the number of committed ticks.
func (g *Game) Tick() uint64 { return g.engine.Stats().Step }

// Engine exposes the hosted engine.
func (g *Game) Engine() *engine.Engine { return g.engine }

// Field returns the front buffer.
func (g *Game) Field() systems.FieldView { return g.engine.Field() }

// Unload stops the engine and closes output files.
func (g *Game) Unload() {
	if g.fieldRenderer != nil {
		g.fieldRenderer.Unload()
	}
	g.engine.Close()
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}
