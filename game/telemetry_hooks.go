package game

import (
	"log/slog"

	"github.com/pthm-cable/slime/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	step := g.engine.Stats().Step
	if !g.collector.ShouldFlush(step) {
		return
	}

	stats := g.collector.Flush(step, g.engine.Field(), g.engine.Stats().Agents)
	perfStats := g.perfCollector.Stats()
	g.lastStats = stats

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		slog.Info("field", "stats", stats)
		slog.Info("perf", "stats", perfStats)
	}

	if err := g.outputManager.WriteFieldStats(stats); err != nil {
		slog.Error("failed to write field stats", "error", err)
	}
	if err := g.outputManager.WritePerf(perfStats, step); err != nil {
		slog.Error("failed to write perf", "error", err)
	}

	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if err := g.outputManager.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
		if g.snapshotsEnabled() {
			g.saveSnapshot(&bm)
		}
	}
}

// snapshotsEnabled reports whether snapshots have somewhere to go: the
// snapshot directory, or else the output directory.
func (g *Game) snapshotsEnabled() bool {
	return g.snapshotDir != "" || g.outputManager != nil
}

// saveSnapshot writes the current state, tagged with bookmark if not nil.
func (g *Game) saveSnapshot(bookmark *telemetry.Bookmark) {
	snapshot, err := g.createSnapshot(bookmark)
	if err != nil {
		slog.Error("failed to create snapshot", "error", err)
		return
	}
	var path string
	if g.snapshotDir != "" {
		path, err = telemetry.SaveSnapshot(snapshot, g.snapshotDir)
	} else {
		path, err = g.outputManager.WriteSnapshot(snapshot)
	}
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "step", snapshot.Step)
}

func (g *Game) createSnapshot(bookmark *telemetry.Bookmark) (*telemetry.Snapshot, error) {
	agents, err := g.engine.AppendAgents(nil)
	if err != nil {
		return nil, err
	}
	field := g.engine.Field()
	return &telemetry.Snapshot{
		Version:  telemetry.SnapshotVersion,
		Seed:     g.seed,
		Width:    field.W,
		Height:   field.H,
		Params:   g.engine.Params().Flat(),
		Step:     g.engine.Stats().Step,
		Field:    field.Clone(),
		Agents:   agents,
		Bookmark: bookmark,
	}, nil
}
