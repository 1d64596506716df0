package telemetry

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/slime/systems"
)

// CoverageFrac is the share of max_pheromone a cell must exceed to count as
// part of a trail.
const CoverageFrac = 0.1

// FieldStats summarises one field buffer.
type FieldStats struct {
	Step   uint64  `csv:"step"`
	Agents int     `csv:"agents"`
	Mass   float64 `csv:"mass"` // sum of all cells
	Mean   float64 `csv:"mean"`
	StdDev float64 `csv:"std_dev"`
	Peak   float64 `csv:"peak"`
	PeakX  int     `csv:"peak_x"`
	PeakY  int     `csv:"peak_y"`
	P50    float64 `csv:"p50"`
	P90    float64 `csv:"p90"`

	// Fraction of cells above CoverageFrac*max and at max.
	Coverage  float64 `csv:"coverage"`
	Saturated float64 `csv:"saturated"`

	// Change in mass since the previous window.
	MassDelta float64 `csv:"mass_delta"`
}

// ComputeFieldStats measures v. Cell values are never negative, so the
// absolute sum is the total mass and the largest magnitude is the peak.
func ComputeFieldStats(v systems.FieldView, ceiling float32) FieldStats {
	data := v.Values()
	var s FieldStats
	if len(data) == 0 {
		return s
	}

	vec := blas32.Vector{N: len(data), Inc: 1, Data: data}
	s.Mass = float64(blas32.Asum(vec))
	peak := blas32.Iamax(vec)
	s.Peak = float64(data[peak])
	s.PeakX, s.PeakY = peak%v.W, peak/v.W

	xs := make([]float64, len(data))
	threshold := ceiling * CoverageFrac
	var covered, saturated int
	for i, c := range data {
		xs[i] = float64(c)
		if c > threshold {
			covered++
		}
		if c >= ceiling {
			saturated++
		}
	}
	s.Mean, s.StdDev = stat.MeanStdDev(xs, nil)
	slices.Sort(xs)
	s.P50 = stat.Quantile(0.5, stat.Empirical, xs, nil)
	s.P90 = stat.Quantile(0.9, stat.Empirical, xs, nil)
	n := float64(len(data))
	s.Coverage = float64(covered) / n
	s.Saturated = float64(saturated) / n
	return s
}

// LogValue implements slog.LogValuer.
func (s FieldStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("step", s.Step),
		slog.Int("agents", s.Agents),
		slog.Float64("mass", s.Mass),
		slog.Float64("mean", s.Mean),
		slog.Float64("std_dev", s.StdDev),
		slog.Float64("peak", s.Peak),
		slog.Float64("coverage", s.Coverage),
		slog.Float64("saturated", s.Saturated),
	)
}
