package renderer

import (
	"strings"
	"testing"

	"github.com/pthm-cable/slime/systems"
)

func TestFieldPixels(t *testing.T) {
	f := systems.NewFieldGrid(3, 1)
	f.Write(systems.BufferA, 0, 0, 0)
	f.Write(systems.BufferA, 1, 0, 1)
	f.Write(systems.BufferA, 2, 0, 4) // above ceiling

	px := FieldPixels(f.View(systems.BufferA), 2, Grayscale, nil)
	if len(px) != 3 {
		t.Fatalf("expected 3 pixels, got %d", len(px))
	}
	if px[0].R != 0 || px[1].R != 127 || px[2].R != 255 {
		t.Errorf("unexpected intensities %d %d %d", px[0].R, px[1].R, px[2].R)
	}
	for i, p := range px {
		if p.A != 255 {
			t.Errorf("pixel %d not opaque", i)
		}
	}

	// Reuses the buffer when large enough.
	again := FieldPixels(f.View(systems.BufferA), 2, Grayscale, px)
	if &again[0] != &px[0] {
		t.Error("expected buffer reuse")
	}
}

func TestSlimePaletteMonotonic(t *testing.T) {
	prev := Slime(0)
	for i := 1; i <= 10; i++ {
		c := Slime(float32(i) / 10)
		if c.R < prev.R || c.G < prev.G {
			t.Fatalf("palette not monotonic at %d: %v after %v", i, c, prev)
		}
		prev = c
	}
}

func TestStatusText(t *testing.T) {
	s := StatusText(HUDState{Step: 12, Agents: 300, TickMS: 1.5, Coverage: 0.25, State: "running", Paused: true,
		HasCursor: true, CursorX: 3, CursorY: 4, CursorValue: 0.5})
	for _, want := range []string{"step 12", "agents 300", "coverage 25.0%", "running", "(3,4)=0.500", "[paused]"} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %q in %q", want, s)
		}
	}
}
