package renderer

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// HUDState is what the overlay shows.
type HUDState struct {
	Step     uint64
	Agents   int
	TickMS   float64
	FPS      float64
	Coverage float64
	State    string
	Paused   bool
	Speed    int // ticks per frame

	// Field value under the mouse, when it is over a cell.
	HasCursor        bool
	CursorX, CursorY int
	CursorValue      float32
}

// HUDAction reports what the user clicked this frame.
type HUDAction struct {
	TogglePause bool
	Reset       bool
	// Speed is the ticks-per-frame slider value.
	Speed int
}

// HUD draws a status bar and a few controls along the bottom edge.
type HUD struct {
	height float32
}

// MaxSpeed is the top of the ticks-per-frame slider.
const MaxSpeed = 8

// NewHUD creates a HUD.
func NewHUD() *HUD {
	return &HUD{height: 32}
}

// StatusText formats the status line.
func StatusText(s HUDState) string {
	text := fmt.Sprintf("step %d  agents %d  tick %.2fms  fps %.0f  coverage %.1f%%  %s",
		s.Step, s.Agents, s.TickMS, s.FPS, s.Coverage*100, s.State)
	if s.HasCursor {
		text += fmt.Sprintf("  (%d,%d)=%.3f", s.CursorX, s.CursorY, s.CursorValue)
	}
	if s.Paused {
		text += "  [paused]"
	}
	return text
}

// Draw renders the HUD at the bottom of a screenW x screenH window.
func (h *HUD) Draw(screenW, screenH float32, s HUDState) HUDAction {
	y := screenH - h.height
	rl.DrawRectangle(0, int32(y), int32(screenW), int32(h.height), rl.Fade(rl.Black, 0.7))
	rl.DrawText(StatusText(s), 10, int32(y+9), 14, rl.RayWhite)

	var act HUDAction
	bx := screenW - 330
	label := "Pause"
	if s.Paused {
		label = "Resume"
	}
	if gui.Button(rl.Rectangle{X: bx, Y: y + 4, Width: 70, Height: 24}, label) {
		act.TogglePause = true
	}
	if gui.Button(rl.Rectangle{X: bx + 76, Y: y + 4, Width: 70, Height: 24}, "Reset") {
		act.Reset = true
	}
	speed := gui.SliderBar(
		rl.Rectangle{X: bx + 190, Y: y + 8, Width: 120, Height: 16},
		"x1", fmt.Sprintf("x%d", MaxSpeed),
		float32(s.Speed), 1, MaxSpeed,
	)
	act.Speed = int(speed + 0.5)
	return act
}
