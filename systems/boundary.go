package systems

import (
	"fmt"
	"math"

	"github.com/chewxy/math32"
)

// Boundary decides what happens to an agent that steps outside the field.
type Boundary uint8

const (
	// Clamp holds the agent at the edge it crossed; heading is unchanged.
	Clamp Boundary = iota
	// Wrap treats the field as a torus.
	Wrap
	// Reflect mirrors the position back inside and bounces the heading.
	Reflect
)

// ParseBoundary maps a config name to a Boundary.
func ParseBoundary(s string) (Boundary, error) {
	switch s {
	case "", "clamp":
		return Clamp, nil
	case "wrap":
		return Wrap, nil
	case "reflect":
		return Reflect, nil
	}
	return Clamp, fmt.Errorf("unknown boundary %q (want clamp, wrap or reflect)", s)
}

func (b Boundary) String() string {
	switch b {
	case Wrap:
		return "wrap"
	case Reflect:
		return "reflect"
	}
	return "clamp"
}

// Apply maps a candidate position into [0,w) x [0,h) and returns the
// possibly adjusted heading.
func (b Boundary) Apply(x, y, heading, w, h float32) (float32, float32, float32) {
	switch b {
	case Wrap:
		x = wrapCoord(x, w)
		y = wrapCoord(y, h)
	case Reflect:
		if x < 0 || x >= w {
			x = reflectCoord(x, w)
			heading = math32.Pi - heading
		}
		if y < 0 || y >= h {
			y = reflectCoord(y, h)
			heading = -heading
		}
		heading = NormalizeAngle(heading)
	default:
		x = clampCoord(x, w)
		y = clampCoord(y, h)
	}
	return x, y, heading
}

// Cell returns the integer cell nearest to (x, y) under this policy.
func (b Boundary) Cell(x, y float32, w, h int) (int, int) {
	ix := int(math32.Floor(x + 0.5))
	iy := int(math32.Floor(y + 0.5))
	if b == Wrap {
		return modInt(ix, w), modInt(iy, h)
	}
	return clampInt(ix, 0, w-1), clampInt(iy, 0, h-1)
}

// Locate maps an integer sample coordinate onto the grid. ok is false when
// the coordinate lies outside a non-wrapping field.
func (b Boundary) Locate(x, y, w, h int) (int, int, bool) {
	if b == Wrap {
		return modInt(x, w), modInt(y, h), true
	}
	return x, y, x >= 0 && x < w && y >= 0 && y < h
}

// upper returns the largest float32 strictly below limit.
func upper(limit float32) float32 {
	return math.Nextafter32(limit, 0)
}

func clampCoord(v, limit float32) float32 {
	if v < 0 {
		return 0
	}
	if v >= limit {
		return upper(limit)
	}
	return v
}

func wrapCoord(v, limit float32) float32 {
	v = math32.Mod(v, limit)
	if v < 0 {
		v += limit
	}
	if v >= limit {
		v = 0
	}
	return v
}

func reflectCoord(v, limit float32) float32 {
	if v < 0 {
		v = -v
	} else if v >= limit {
		v = 2*limit - v
	}
	// A step longer than the field can still land outside.
	return clampCoord(v, limit)
}

func modInt(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
