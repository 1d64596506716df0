package main

import (
	"context"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/slime/config"
	"github.com/pthm-cable/slime/engine"
	"github.com/pthm-cable/slime/telemetry"
)

// FitnessEvaluator runs headless simulations and scores how close the
// settled field comes to a target trail coverage.
type FitnessEvaluator struct {
	params         *ParamVector
	maxTicks       int
	seeds          []uint64
	baseConfig     *config.Config
	targetCoverage float64
	workers        int

	mu          sync.Mutex
	lastQuality float64 // mean coverage from the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int, seeds []uint64, baseCfg *config.Config, target float64) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:         params,
		maxTicks:       maxTicks,
		seeds:          seeds,
		baseConfig:     baseCfg,
		targetCoverage: target,
		workers:        1,
	}
}

// LastQuality returns the mean coverage from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// saturationPenalty weighs the saturated share against the coverage error.
const saturationPenalty = 0.5

// Evaluate computes fitness for raw parameter values (lower = better).
// A config the engine rejects scores +Inf.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := *fe.baseConfig
	if err := fe.params.ApplyToConfig(&cfg, x); err != nil {
		return math.Inf(1)
	}

	results := make([]telemetry.FieldStats, len(fe.seeds))
	g, ctx := errgroup.WithContext(context.Background())
	for i, seed := range fe.seeds {
		g.Go(func() error {
			s, err := fe.run(ctx, &cfg, seed)
			results[i] = s
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return math.Inf(1)
	}

	coverage := make([]float64, len(results))
	saturated := make([]float64, len(results))
	for i, r := range results {
		coverage[i] = r.Coverage
		saturated[i] = r.Saturated
	}
	meanCov := stat.Mean(coverage, nil)

	fe.mu.Lock()
	fe.lastQuality = meanCov
	fe.mu.Unlock()

	miss := meanCov - fe.targetCoverage
	return miss*miss + saturationPenalty*stat.Mean(saturated, nil)
}

// run simulates one seed and measures the final field.
func (fe *FitnessEvaluator) run(ctx context.Context, cfg *config.Config, seed uint64) (telemetry.FieldStats, error) {
	opts := cfg.EngineOptions(seed)
	opts.Workers = fe.workers
	e, err := engine.Initialize(opts)
	if err != nil {
		return telemetry.FieldStats{}, err
	}
	defer e.Close()

	for i := 0; i < fe.maxTicks; i++ {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return telemetry.FieldStats{}, err
			}
		}
		if _, err := e.Tick(0); err != nil {
			return telemetry.FieldStats{}, err
		}
	}
	s := telemetry.ComputeFieldStats(e.Field(), opts.Params.MaxPheromone)
	s.Step = e.Stats().Step
	s.Agents = opts.Params.NumAgents
	return s, nil
}
