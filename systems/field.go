// Package systems implements the per-tick simulation kernels: the ping-pong
// trace field, its relaxation, and agent sensing, steering and deposit.
package systems

import (
	"math"
	"sync/atomic"
	"unsafe"
)

// BufferID names one of the two physical field buffers.
type BufferID uint8

const (
	BufferA BufferID = 0
	BufferB BufferID = 1
)

// Other returns the opposite buffer.
func (b BufferID) Other() BufferID { return 1 - b }

func (b BufferID) String() string {
	if b == BufferA {
		return "A"
	}
	return "B"
}

// FieldGrid holds two equally shaped scalar grids in row-major order.
// Which buffer is source and which is destination is decided by the caller
// for every tick; the grid itself has no notion of "front".
type FieldGrid struct {
	W, H    int
	buffers [2][]float32
}

// NewFieldGrid allocates both buffers, zero-filled.
func NewFieldGrid(w, h int) *FieldGrid {
	return &FieldGrid{
		W: w, H: h,
		buffers: [2][]float32{
			make([]float32, w*h),
			make([]float32, w*h),
		},
	}
}

// Index returns the linear index for (x, y).
func (f *FieldGrid) Index(x, y int) int { return y*f.W + x }

// InBounds reports whether (x, y) addresses a cell.
func (f *FieldGrid) InBounds(x, y int) bool {
	return x >= 0 && x < f.W && y >= 0 && y < f.H
}

// Read returns the value of cell (x, y) in buffer id.
func (f *FieldGrid) Read(id BufferID, x, y int) float32 {
	return f.buffers[id][y*f.W+x]
}

// Write sets cell (x, y) in buffer id.
func (f *FieldGrid) Write(id BufferID, x, y int, v float32) {
	f.buffers[id][y*f.W+x] = v
}

// Deposit atomically adds amount to cell (x, y), saturating at ceiling, and
// returns the new value. Safe for concurrent use on the same cell.
func (f *FieldGrid) Deposit(id BufferID, x, y int, amount, ceiling float32) float32 {
	return atomicAddClamped(&f.buffers[id][y*f.W+x], amount, ceiling)
}

// Buffer exposes the backing slice of buffer id.
func (f *FieldGrid) Buffer(id BufferID) []float32 { return f.buffers[id] }

// Fill sets every cell of buffer id to v.
func (f *FieldGrid) Fill(id BufferID, v float32) {
	buf := f.buffers[id]
	for i := range buf {
		buf[i] = v
	}
}

// CopyBuffer copies src into dst.
func (f *FieldGrid) CopyBuffer(dst, src BufferID) {
	copy(f.buffers[dst], f.buffers[src])
}

// View returns a read-only view of buffer id.
func (f *FieldGrid) View(id BufferID) FieldView {
	return FieldView{W: f.W, H: f.H, Buffer: id, data: f.buffers[id]}
}

// atomicAddClamped adds delta to *p with a CAS loop on the float bits.
// When every concurrent addend is the same value the final result does not
// depend on the order in which the adds land.
func atomicAddClamped(p *float32, delta, ceiling float32) float32 {
	addr := (*uint32)(unsafe.Pointer(p))
	for {
		old := atomic.LoadUint32(addr)
		nv := math.Float32frombits(old) + delta
		if nv > ceiling {
			nv = ceiling
		}
		if atomic.CompareAndSwapUint32(addr, old, math.Float32bits(nv)) {
			return nv
		}
	}
}

// FieldView is a read-only window onto one field buffer. It stays valid
// until the buffer is written again by the next tick.
type FieldView struct {
	W, H   int
	Buffer BufferID
	data   []float32
}

// At returns the value of cell (x, y).
func (v FieldView) At(x, y int) float32 { return v.data[y*v.W+x] }

// Len returns the number of cells.
func (v FieldView) Len() int { return len(v.data) }

// Values returns the backing slice. Callers must not modify it.
func (v FieldView) Values() []float32 { return v.data }

// CopyTo copies the view into dst and returns the number of cells copied.
func (v FieldView) CopyTo(dst []float32) int { return copy(dst, v.data) }

// Clone returns an independent copy of the cell values.
func (v FieldView) Clone() []float32 {
	out := make([]float32, len(v.data))
	copy(out, v.data)
	return out
}
