package systems

import (
	"fmt"

	"github.com/pthm-cable/slime/components"
)

// Neighborhood selects the stencil used for the diffusion mean.
type Neighborhood uint8

const (
	// Moore averages the full 3x3 block including the centre.
	Moore Neighborhood = iota
	// VonNeumann averages the centre and its four edge neighbours.
	VonNeumann
)

// ParseNeighborhood maps a config name to a Neighborhood.
func ParseNeighborhood(s string) (Neighborhood, error) {
	switch s {
	case "", "moore":
		return Moore, nil
	case "von_neumann":
		return VonNeumann, nil
	}
	return Moore, fmt.Errorf("unknown neighborhood %q (want moore or von_neumann)", s)
}

func (n Neighborhood) String() string {
	if n == VonNeumann {
		return "von_neumann"
	}
	return "moore"
}

var (
	mooreOffsets = [...][2]int{
		{-1, -1}, {0, -1}, {1, -1},
		{-1, 0}, {0, 0}, {1, 0},
		{-1, 1}, {0, 1}, {1, 1},
	}
	vonNeumannOffsets = [...][2]int{
		{0, -1}, {-1, 0}, {0, 0}, {1, 0}, {0, 1},
	}
)

func (n Neighborhood) offsets() [][2]int {
	if n == VonNeumann {
		return vonNeumannOffsets[:]
	}
	return mooreOffsets[:]
}

// RelaxKernel applies diffusion and evaporation from one buffer into the
// other. Each destination cell depends only on the source buffer, so rows
// may be processed in any order and in parallel.
type RelaxKernel struct {
	Field        *FieldGrid
	Params       components.Params
	Neighborhood Neighborhood
}

// Rows relaxes every cell in rows [y0, y1) from src into dst.
func (k *RelaxKernel) Rows(src, dst BufferID, y0, y1 int) {
	f := k.Field
	in := f.buffers[src]
	out := f.buffers[dst]
	w, h := f.W, f.H
	diffuse := k.Params.DiffuseSpeed
	evaporate := k.Params.EvaporateSpeed
	ceiling := k.Params.MaxPheromone
	offs := k.Neighborhood.offsets()

	for y := y0; y < y1; y++ {
		row := y * w
		interior := y > 0 && y < h-1
		for x := 0; x < w; x++ {
			c := in[row+x]
			v := c
			if diffuse != 0 {
				var mean float32
				if interior && x > 0 && x < w-1 {
					mean = interiorMean(in, row+x, w, offs)
				} else {
					mean = edgeMean(in, x, y, w, h, offs)
				}
				v = c + diffuse*(mean-c)
			}
			v -= evaporate
			out[row+x] = clampf(v, 0, ceiling)
		}
	}
}

// Cell relaxes a single cell. It is the scalar form of Rows.
func (k *RelaxKernel) Cell(src BufferID, x, y int) float32 {
	f := k.Field
	in := f.buffers[src]
	c := in[y*f.W+x]
	v := c
	if k.Params.DiffuseSpeed != 0 {
		mean := edgeMean(in, x, y, f.W, f.H, k.Neighborhood.offsets())
		v = c + k.Params.DiffuseSpeed*(mean-c)
	}
	return clampf(v-k.Params.EvaporateSpeed, 0, k.Params.MaxPheromone)
}

func interiorMean(in []float32, i, w int, offs [][2]int) float32 {
	var sum float32
	for _, o := range offs {
		sum += in[i+o[1]*w+o[0]]
	}
	return sum / float32(len(offs))
}

// edgeMean averages only the neighbours that fall inside the grid.
func edgeMean(in []float32, x, y, w, h int, offs [][2]int) float32 {
	var sum float32
	n := 0
	for _, o := range offs {
		xx, yy := x+o[0], y+o[1]
		if xx < 0 || xx >= w || yy < 0 || yy >= h {
			continue
		}
		sum += in[yy*w+xx]
		n++
	}
	return sum / float32(n)
}

// clampf maps NaN to lo.
func clampf(v, lo, hi float32) float32 {
	if !(v >= lo) {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
