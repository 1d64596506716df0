// Package camera maps between screen pixels and field cells for the
// windowed view.
package camera

import "math"

// Camera is a pan/zoom view onto the field. At zoom 1 the whole field is
// stretched over the viewport.
type Camera struct {
	// Position is the camera center in cell coordinates
	X, Y float32

	// Zoom level (1.0 = whole field, 2.0 = half the field each way)
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// Field dimensions in cells
	FieldW, FieldH float32

	// Wrap lets the view scroll past the edges, for toroidal fields.
	Wrap bool

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera showing the whole field.
func New(viewportW, viewportH, fieldW, fieldH float32, wrap bool) *Camera {
	return &Camera{
		X:         fieldW / 2,
		Y:         fieldH / 2,
		Zoom:      1.0,
		ViewportW: viewportW,
		ViewportH: viewportH,
		FieldW:    fieldW,
		FieldH:    fieldH,
		Wrap:      wrap,
		MinZoom:   1.0,
		MaxZoom:   16.0,
	}
}

// scale returns screen pixels per cell along each axis.
func (c *Camera) scale() (sx, sy float32) {
	return c.ViewportW / c.FieldW * c.Zoom, c.ViewportH / c.FieldH * c.Zoom
}

// CellToScreen converts cell coordinates to screen coordinates.
func (c *Camera) CellToScreen(cx, cy float32) (sx, sy float32) {
	kx, ky := c.scale()
	dx := cx - c.X
	dy := cy - c.Y
	if c.Wrap {
		dx = toroidalDelta(cx, c.X, c.FieldW)
		dy = toroidalDelta(cy, c.Y, c.FieldH)
	}
	return c.ViewportW/2 + dx*kx, c.ViewportH/2 + dy*ky
}

// ScreenToCell converts screen coordinates to cell coordinates. The result
// may lie outside the field when the field does not wrap.
func (c *Camera) ScreenToCell(sx, sy float32) (cx, cy float32) {
	kx, ky := c.scale()
	cx = c.X + (sx-c.ViewportW/2)/kx
	cy = c.Y + (sy-c.ViewportH/2)/ky
	if c.Wrap {
		cx = mod(cx, c.FieldW)
		cy = mod(cy, c.FieldH)
	}
	return cx, cy
}

// SourceRect returns the visible field region as x, y, width, height in
// cells, ready to use as a texture source rectangle.
func (c *Camera) SourceRect() (x, y, w, h float32) {
	w = c.FieldW / c.Zoom
	h = c.FieldH / c.Zoom
	return c.X - w/2, c.Y - h/2, w, h
}

// Resize updates viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float32) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// Pan moves the camera by the given delta in screen pixels.
func (c *Camera) Pan(dx, dy float32) {
	kx, ky := c.scale()
	c.X += dx / kx
	c.Y += dy / ky
	c.constrain()
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
	c.constrain()
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset returns the camera to the default position and zoom.
func (c *Camera) Reset() {
	c.X = c.FieldW / 2
	c.Y = c.FieldH / 2
	c.Zoom = 1.0
}

// constrain wraps the center on toroidal fields and otherwise keeps the
// visible region inside the field.
func (c *Camera) constrain() {
	if c.Wrap {
		c.X = mod(c.X, c.FieldW)
		c.Y = mod(c.Y, c.FieldH)
		return
	}
	halfW := c.FieldW / (2 * c.Zoom)
	halfH := c.FieldH / (2 * c.Zoom)
	c.X = clamp(c.X, halfW, c.FieldW-halfW)
	c.Y = clamp(c.Y, halfH, c.FieldH-halfH)
}

// toroidalDelta computes the shortest signed distance from 'from' to 'to'
// in a toroidal space of the given size.
func toroidalDelta(to, from, size float32) float32 {
	d := to - from
	if d > size/2 {
		d -= size
	} else if d < -size/2 {
		d += size
	}
	return d
}

// mod computes the positive modulo (Go's % can return negative).
func mod(x, m float32) float32 {
	r := float32(math.Mod(float64(x), float64(m)))
	if r < 0 {
		r += m
	}
	return r
}

func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
