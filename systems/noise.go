package systems

import (
	"fmt"

	"github.com/ojrac/opensimplex-go"
)

// FillMode selects how the field starts out.
type FillMode uint8

const (
	FillEmpty FillMode = iota
	FillUniform
	FillNoise
)

// ParseFillMode maps a config name to a FillMode.
func ParseFillMode(s string) (FillMode, error) {
	switch s {
	case "", "empty":
		return FillEmpty, nil
	case "uniform":
		return FillUniform, nil
	case "noise":
		return FillNoise, nil
	}
	return FillEmpty, fmt.Errorf("unknown initial fill %q (want empty, uniform or noise)", s)
}

func (m FillMode) String() string {
	switch m {
	case FillUniform:
		return "uniform"
	case FillNoise:
		return "noise"
	}
	return "empty"
}

// FillSpec describes the initial field contents.
type FillSpec struct {
	Mode  FillMode
	Value float32 // uniform value, or noise amplitude
	Scale float64 // noise frequency in cycles per cell
	Seed  int64
}

// SeedField writes the initial contents into buffer id, clamped to ceiling.
func SeedField(f *FieldGrid, id BufferID, spec FillSpec, ceiling float32) {
	switch spec.Mode {
	case FillUniform:
		f.Fill(id, clampf(spec.Value, 0, ceiling))
	case FillNoise:
		noise := opensimplex.NewNormalized(spec.Seed)
		buf := f.buffers[id]
		for y := 0; y < f.H; y++ {
			for x := 0; x < f.W; x++ {
				n := noise.Eval2(float64(x)*spec.Scale, float64(y)*spec.Scale)
				buf[y*f.W+x] = clampf(float32(n)*spec.Value, 0, ceiling)
			}
		}
	default:
		f.Fill(id, 0)
	}
}
