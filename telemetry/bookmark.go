package telemetry

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkTrailFormation BookmarkType = "trail_formation"
	BookmarkMassCollapse   BookmarkType = "mass_collapse"
	BookmarkSaturation     BookmarkType = "saturation"
	BookmarkStableNetwork  BookmarkType = "stable_network"
)

// Bookmark marks a window where the field did something worth a look.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Step        uint64       `csv:"step"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"step", b.Step,
		"description", b.Description,
	)
}

const (
	saturationLevel = 0.25 // saturated share that counts as saturated
	stableWindows   = 5    // consecutive quiet windows before stable_network
	stableCV2       = 0.0025
)

// BookmarkDetector watches field stats windows for notable transitions.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []FieldStats
	historySize int
	historyIdx  int
	historyFull bool

	recentMassPeak float64
	saturated      bool
	stableCount    int
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5
	}
	return &BookmarkDetector{
		history:     make([]FieldStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats FieldStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		if b := bd.checkTrailFormation(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkMassCollapse(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}
	if b := bd.checkSaturation(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)

	if b := bd.checkStableNetwork(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if stats.Mass > bd.recentMassPeak {
		bd.recentMassPeak = stats.Mass
	}
	return bookmarks
}

// Reset clears all history.
func (bd *BookmarkDetector) Reset() {
	*bd = *NewBookmarkDetector(bd.historySize)
}

func (bd *BookmarkDetector) addToHistory(stats FieldStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// recent returns up to n of the latest windows, oldest first.
func (bd *BookmarkDetector) recent(n int) []FieldStats {
	count := bd.historyIdx
	if bd.historyFull {
		count = bd.historySize
	}
	n = min(n, count)
	out := make([]FieldStats, n)
	for i := 0; i < n; i++ {
		idx := (bd.historyIdx - n + i + bd.historySize) % bd.historySize
		out[i] = bd.history[idx]
	}
	return out
}

func (bd *BookmarkDetector) checkTrailFormation(stats FieldStats) *Bookmark {
	history := bd.recent(bd.historySize)
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.Coverage
	}
	avg := total / float64(len(history))

	if stats.Coverage > 0.05 && stats.Coverage > avg*2 {
		return &Bookmark{
			Type:        BookmarkTrailFormation,
			Step:        stats.Step,
			Description: fmt.Sprintf("Coverage %.3f is %.1fx average (%.3f)", stats.Coverage, stats.Coverage/max(avg, 1e-9), avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkMassCollapse(stats FieldStats) *Bookmark {
	if bd.recentMassPeak == 0 {
		return nil
	}

	drop := 1 - stats.Mass/bd.recentMassPeak
	if drop > 0.5 {
		oldPeak := bd.recentMassPeak
		bd.recentMassPeak = stats.Mass
		return &Bookmark{
			Type:        BookmarkMassCollapse,
			Step:        stats.Step,
			Description: fmt.Sprintf("Field mass fell %.0f%% from peak %.1f to %.1f", drop*100, oldPeak, stats.Mass),
		}
	}
	return nil
}

// checkSaturation fires on the window the saturated share first crosses
// saturationLevel, and re-arms once it drops back below.
func (bd *BookmarkDetector) checkSaturation(stats FieldStats) *Bookmark {
	if stats.Saturated < saturationLevel {
		bd.saturated = false
		return nil
	}
	if bd.saturated {
		return nil
	}
	bd.saturated = true
	return &Bookmark{
		Type:        BookmarkSaturation,
		Step:        stats.Step,
		Description: fmt.Sprintf("%.0f%% of cells at max_pheromone", stats.Saturated*100),
	}
}

func (bd *BookmarkDetector) checkStableNetwork(stats FieldStats) *Bookmark {
	if stats.Coverage < 0.01 {
		bd.stableCount = 0
		return nil
	}

	history := bd.recent(4)
	if len(history) < 4 {
		return nil
	}
	xs := make([]float64, len(history))
	for i, h := range history {
		xs[i] = h.Coverage
	}
	mean, variance := stat.PopMeanVariance(xs, nil)

	if mean > 0 && variance/(mean*mean) < stableCV2 {
		bd.stableCount++
	} else {
		bd.stableCount = 0
	}

	if bd.stableCount == stableWindows {
		return &Bookmark{
			Type:        BookmarkStableNetwork,
			Step:        stats.Step,
			Description: fmt.Sprintf("Coverage steady near %.3f over %d windows", mean, stableWindows),
		}
	}
	return nil
}
