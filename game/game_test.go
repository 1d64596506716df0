package game

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/slime/config"
	"github.com/pthm-cable/slime/engine"
	"github.com/pthm-cable/slime/telemetry"
)

func smallConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("failed to load defaults: %v", err)
	}
	cfg.Field.Width = 32
	cfg.Field.Height = 24
	cfg.Agents.Count = 64
	cfg.Parallel.Workers = 2
	if err := cfg.Refresh(); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	return cfg
}

func TestHeadlessRunWritesOutput(t *testing.T) {
	cfg := smallConfig(t)
	dir := t.TempDir()

	var windows []telemetry.FieldStats
	g, err := NewGameFromConfig(cfg, Options{
		Seed:           7,
		Headless:       true,
		StatsWindow:    5,
		OutputDir:      dir,
		StepsPerUpdate: 5,
		StatsCallback:  func(s telemetry.FieldStats) { windows = append(windows, s) },
	})
	if err != nil {
		t.Fatalf("NewGameFromConfig: %v", err)
	}

	for i := 0; i < 4; i++ {
		if err := g.UpdateHeadless(); err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}
	if g.Tick() != 20 {
		t.Errorf("expected 20 ticks, got %d", g.Tick())
	}
	if g.Engine().State() != engine.StateRunning {
		t.Errorf("expected Running, got %v", g.Engine().State())
	}
	g.Unload()

	if len(windows) != 4 {
		t.Fatalf("expected 4 stats windows, got %d", len(windows))
	}
	for i, w := range windows {
		if want := uint64(5 * (i + 1)); w.Step != want {
			t.Errorf("window %d: expected step %d, got %d", i, want, w.Step)
		}
		if w.Agents != 64 {
			t.Errorf("window %d: expected 64 agents, got %d", i, w.Agents)
		}
		if w.Mass <= 0 {
			t.Errorf("window %d: expected deposits, mass %g", i, w.Mass)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "field_stats.csv"))
	if err != nil {
		t.Fatalf("reading field_stats.csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 5 {
		t.Errorf("expected header plus 4 rows, got %d lines", len(lines))
	}
	for _, name := range []string{"perf.csv", "bookmarks.csv", "config.yaml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}
}

func TestResetRestartsFromSeed(t *testing.T) {
	cfg := smallConfig(t)
	g, err := NewGameFromConfig(cfg, Options{Seed: 3, Headless: true, StepsPerUpdate: 3})
	if err != nil {
		t.Fatalf("NewGameFromConfig: %v", err)
	}
	defer g.Unload()

	if err := g.UpdateHeadless(); err != nil {
		t.Fatal(err)
	}
	first := g.Field().Clone()

	if err := g.Reset(3); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if g.Tick() != 0 {
		t.Errorf("expected tick 0 after reset, got %d", g.Tick())
	}
	if err := g.UpdateHeadless(); err != nil {
		t.Fatal(err)
	}
	again := g.Field().Values()
	for i, v := range first {
		if again[i] != v {
			t.Fatalf("cell %d differs after reset: %g vs %g", i, again[i], v)
		}
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	cfg := smallConfig(t)
	dir := t.TempDir()
	g, err := NewGameFromConfig(cfg, Options{Seed: 11, Headless: true, SnapshotDir: dir, StepsPerUpdate: 2})
	if err != nil {
		t.Fatalf("NewGameFromConfig: %v", err)
	}
	defer g.Unload()

	if err := g.UpdateHeadless(); err != nil {
		t.Fatal(err)
	}
	snap, err := g.createSnapshot(nil)
	if err != nil {
		t.Fatalf("createSnapshot: %v", err)
	}
	path, err := telemetry.SaveSnapshot(snap, dir)
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	loaded, err := telemetry.LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if loaded.Step != 2 || loaded.Seed != 11 {
		t.Errorf("unexpected header: step %d seed %d", loaded.Step, loaded.Seed)
	}
	agents, err := loaded.DecodeAgents()
	if err != nil {
		t.Fatalf("DecodeAgents: %v", err)
	}
	if len(agents) != 64 {
		t.Errorf("expected 64 agents, got %d", len(agents))
	}
}

func TestNewGameRejectsInvalidConfig(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Derived.Params.NumAgents = -1
	if _, err := NewGameFromConfig(cfg, Options{Headless: true}); err == nil {
		t.Error("expected an init error")
	}
}
