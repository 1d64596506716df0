// Package renderer draws engine output with raylib. It only reads field
// views; it never touches engine state.
package renderer

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/slime/systems"
)

// Palette maps a normalised intensity in [0,1] to a colour.
type Palette func(v float32) color.RGBA

// Grayscale is black at zero and white at max_pheromone.
func Grayscale(v float32) color.RGBA {
	c := uint8(v * 255)
	return color.RGBA{R: c, G: c, B: c, A: 255}
}

// Slime tints trails yellow-green on a dark background.
func Slime(v float32) color.RGBA {
	return color.RGBA{
		R: uint8(v * 230),
		G: uint8(40 + v*215),
		B: uint8(20 + v*40),
		A: 255,
	}
}

// FieldPixels converts v into dst, scaling by ceiling. dst is grown as
// needed and returned.
func FieldPixels(v systems.FieldView, ceiling float32, pal Palette, dst []color.RGBA) []color.RGBA {
	if cap(dst) < v.Len() {
		dst = make([]color.RGBA, v.Len())
	}
	dst = dst[:v.Len()]
	inv := float32(1)
	if ceiling > 0 {
		inv = 1 / ceiling
	}
	for i, c := range v.Values() {
		n := c * inv
		if n < 0 {
			n = 0
		}
		if n > 1 {
			n = 1
		}
		dst[i] = pal(n)
	}
	return dst
}

// FieldRenderer streams field views into a texture and stretches it over
// the screen.
type FieldRenderer struct {
	tex        rl.Texture2D
	texW, texH int
	pixels     []color.RGBA

	Palette Palette
	Ceiling float32

	screenW, screenH float32
	initialized      bool
}

// NewFieldRenderer creates a renderer for a screenW x screenH window.
func NewFieldRenderer(screenW, screenH int32, ceiling float32) *FieldRenderer {
	return &FieldRenderer{
		Palette: Slime,
		Ceiling: ceiling,
		screenW: float32(screenW),
		screenH: float32(screenH),
	}
}

// Init creates the texture (must be called after the raylib window is created).
func (r *FieldRenderer) Init(gridW, gridH int) {
	if r.initialized {
		return
	}
	r.texW = gridW
	r.texH = gridH

	img := rl.GenImageColor(gridW, gridH, rl.Black)
	r.tex = rl.LoadTextureFromImage(img)
	rl.SetTextureFilter(r.tex, rl.FilterPoint)
	rl.SetTextureWrap(r.tex, rl.WrapRepeat)
	rl.UnloadImage(img)

	r.initialized = true
}

// Resize updates the screen dimensions.
func (r *FieldRenderer) Resize(w, h float32) {
	r.screenW = w
	r.screenH = h
}

// Update uploads a field view to the texture.
func (r *FieldRenderer) Update(v systems.FieldView) {
	if !r.initialized {
		r.Init(v.W, v.H)
	}
	if v.W != r.texW || v.H != r.texH {
		return
	}
	r.pixels = FieldPixels(v, r.Ceiling, r.Palette, r.pixels)
	rl.UpdateTexture(r.tex, r.pixels)
}

// Draw stretches the source rectangle (in cells) over the whole screen.
// Regions outside the field repeat it.
func (r *FieldRenderer) Draw(srcX, srcY, srcW, srcH float32) {
	if !r.initialized {
		return
	}
	src := rl.Rectangle{X: srcX, Y: srcY, Width: srcW, Height: srcH}
	dst := rl.Rectangle{X: 0, Y: 0, Width: r.screenW, Height: r.screenH}
	rl.DrawTexturePro(r.tex, src, dst, rl.Vector2{}, 0, rl.White)
}

// Unload frees GPU resources.
func (r *FieldRenderer) Unload() {
	if !r.initialized {
		return
	}
	rl.UnloadTexture(r.tex)
	r.initialized = false
}
