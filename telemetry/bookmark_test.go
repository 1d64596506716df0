package telemetry

import "testing"

func hasBookmark(bms []Bookmark, typ BookmarkType) bool {
	for _, bm := range bms {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_TrailFormation(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(FieldStats{Step: uint64(i * 60), Coverage: 0.02, Mass: 10})
	}

	bms := bd.Check(FieldStats{Step: 300, Coverage: 0.2, Mass: 12})
	if !hasBookmark(bms, BookmarkTrailFormation) {
		t.Errorf("expected trail_formation bookmark, got %v", bms)
	}
}

func TestBookmarkDetector_MassCollapse(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(FieldStats{Step: uint64(i * 60), Mass: 100})
	}

	bms := bd.Check(FieldStats{Step: 300, Mass: 30})
	if !hasBookmark(bms, BookmarkMassCollapse) {
		t.Errorf("expected mass_collapse bookmark, got %v", bms)
	}

	// The peak resets after triggering.
	bms = bd.Check(FieldStats{Step: 360, Mass: 25})
	if hasBookmark(bms, BookmarkMassCollapse) {
		t.Error("expected no repeat mass_collapse")
	}
}

func TestBookmarkDetector_SaturationEdge(t *testing.T) {
	bd := NewBookmarkDetector(5)

	steps := []struct {
		saturated float64
		want      bool
	}{
		{0.1, false},
		{0.3, true},
		{0.4, false}, // still saturated
		{0.1, false}, // re-arms
		{0.5, true},
	}
	for i, s := range steps {
		bms := bd.Check(FieldStats{Step: uint64(i), Saturated: s.saturated, Mass: 1})
		if got := hasBookmark(bms, BookmarkSaturation); got != s.want {
			t.Errorf("window %d: expected saturation=%v, got %v", i, s.want, got)
		}
	}
}

func TestBookmarkDetector_StableNetwork(t *testing.T) {
	bd := NewBookmarkDetector(10)

	var fired int
	for i := 0; i < 12; i++ {
		bms := bd.Check(FieldStats{Step: uint64(i * 60), Coverage: 0.3, Mass: 50})
		if hasBookmark(bms, BookmarkStableNetwork) {
			fired++
		}
	}
	if fired != 1 {
		t.Errorf("expected stable_network exactly once, got %d", fired)
	}
}

func TestBookmarkDetector_NoFalsePositives(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 4; i++ {
		bms := bd.Check(FieldStats{Step: uint64(i * 60), Coverage: 0.1 + float64(i%2)*0.02, Mass: 40})
		if hasBookmark(bms, BookmarkTrailFormation) || hasBookmark(bms, BookmarkMassCollapse) {
			t.Errorf("window %d: unexpected bookmarks %v", i, bms)
		}
	}
}
