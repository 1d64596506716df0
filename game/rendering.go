package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/slime/renderer"
)

// Update handles input and, unless paused, advances the simulation.
// Errors stop ticking; the last one is shown in the HUD.
func (g *Game) Update() {
	g.handleInput()
	g.hostMillis = float32(rl.GetTime() * 1000)
	if g.paused || g.lastErr != nil {
		return
	}
	if err := g.UpdateHeadless(); err != nil {
		g.lastErr = err
	}
}

// Draw renders the front buffer and the HUD.
func (g *Game) Draw() {
	g.perfCollector.RecordFrame()

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	g.fieldRenderer.Update(g.engine.Field())
	g.fieldRenderer.Draw(g.camera.SourceRect())

	act := g.hud.Draw(g.screenWidth, g.screenHeight, g.hudState())
	if act.TogglePause {
		g.paused = !g.paused
	}
	if act.Reset {
		g.requestReset()
	}
	if act.Speed > 0 {
		g.stepsPerUpdate = act.Speed
	}

	rl.EndDrawing()
}

func (g *Game) hudState() renderer.HUDState {
	stats := g.engine.Stats()
	perf := g.perfCollector.Stats()
	s := renderer.HUDState{
		Step:     stats.Step,
		Agents:   stats.Agents,
		TickMS:   float64(perf.AvgTickDuration.Microseconds()) / 1000,
		FPS:      perf.FPS,
		Coverage: g.lastStats.Coverage,
		State:    stats.State.String(),
		Paused:   g.paused,
		Speed:    g.stepsPerUpdate,
	}
	if g.lastErr != nil {
		s.State = g.lastErr.Error()
	}

	mouse := rl.GetMousePosition()
	cx, cy := g.camera.ScreenToCell(mouse.X, mouse.Y)
	field := g.engine.Field()
	if x, y := int(cx), int(cy); cx >= 0 && cy >= 0 && x < field.W && y < field.H {
		s.HasCursor = true
		s.CursorX, s.CursorY = x, y
		s.CursorValue = field.At(x, y)
	}
	return s
}
