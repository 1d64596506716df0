package main

import (
	"math"
	"testing"
	"time"

	"github.com/pthm-cable/slime/config"
)

func TestParamVectorNormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector()
	def := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(def))
	for i := range def {
		if math.Abs(back[i]-def[i]) > 1e-12 {
			t.Errorf("%s: expected %v, got %v", pv.Specs[i].Name, def[i], back[i])
		}
	}
	for i, n := range pv.Normalize(def) {
		if n < 0 || n > 1 {
			t.Errorf("%s: default normalizes outside [0,1]: %v", pv.Specs[i].Name, n)
		}
	}
}

func TestParamVectorClamp(t *testing.T) {
	pv := NewParamVector()
	v := make([]float64, pv.Dim())
	for i := range v {
		v[i] = 100
	}
	for i, c := range pv.Clamp(v) {
		if c != pv.Specs[i].Max {
			t.Errorf("%s: expected clamp to %v, got %v", pv.Specs[i].Name, pv.Specs[i].Max, c)
		}
	}
}

func TestApplyAndExtract(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	pv := NewParamVector()
	want := []float64{0.01, 0.5, 0.1, 0.2, 0.6, 0.3}
	if err := pv.ApplyToConfig(cfg, want); err != nil {
		t.Fatalf("ApplyToConfig: %v", err)
	}
	got := pv.ExtractFromConfig(cfg)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s: expected %v, got %v", pv.Specs[i].Name, want[i], got[i])
		}
	}
	if cfg.Derived.Params.DiffuseSpeed != 0.5 {
		t.Errorf("expected derived params refreshed, got %v", cfg.Derived.Params.DiffuseSpeed)
	}
}

func TestEvaluateSmallRun(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Field.Width, cfg.Field.Height = 32, 32
	cfg.Agents.Count = 100
	if err := cfg.Refresh(); err != nil {
		t.Fatal(err)
	}

	pv := NewParamVector()
	fe := NewFitnessEvaluator(pv, 20, []uint64{1, 2}, cfg, 0.2)
	f := fe.Evaluate(pv.DefaultVector())
	if math.IsInf(f, 0) || math.IsNaN(f) || f < 0 {
		t.Fatalf("expected finite non-negative fitness, got %v", f)
	}
	if q := fe.LastQuality(); q < 0 || q > 1 {
		t.Errorf("expected coverage in [0,1], got %v", q)
	}

	// Same inputs give the same score.
	if again := fe.Evaluate(pv.DefaultVector()); again != f {
		t.Errorf("expected deterministic fitness, got %v then %v", f, again)
	}
}

func TestFormatDuration(t *testing.T) {
	if got := formatDuration(90 * time.Second); got != "1m30s" {
		t.Errorf("expected 1m30s, got %s", got)
	}
	if got := formatDuration(time.Hour + 2*time.Minute + 3*time.Second); got != "1h02m03s" {
		t.Errorf("expected 1h02m03s, got %s", got)
	}
}
