package calculation

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/rpgo/pricer/internal/domain"
	"gonum.org/v1/gonum/stat"
)

// SeedStudyConfig describes repeated Monte Carlo pricings of one option, each
// with an independent seed.
type SeedStudyConfig struct {
	Market       domain.MarketParameters
	Kind         domain.OptionKind
	Style        domain.ExerciseStyle
	Paths        int
	Degree       int
	Replications int
	// BaseSeed seeds replication r with BaseSeed+r. Zero draws a base seed.
	BaseSeed uint64
	// ReferenceSteps sizes the lattice used as reference price (default 500).
	ReferenceSteps int
	Concurrency    int
}

// SeedStudyResult summarizes the spread of the estimator across seeds.
type SeedStudyResult struct {
	Seeds       []uint64             `json:"seeds"`
	Estimates   []MonteCarloEstimate `json:"estimates"`
	Mean        float64              `json:"mean"`
	StdDev      float64              `json:"std_dev"`
	Percentiles PercentileRanges     `json:"percentiles"`
	Reference   float64              `json:"reference"`
	// MeanStdError is the average per-run standard error, which should be
	// close to StdDev when the error estimate is honest.
	MeanStdError float64 `json:"mean_std_error"`
}

// PercentileRanges are empirical quantiles of the price estimates
type PercentileRanges struct {
	P10 float64 `json:"p10"`
	P25 float64 `json:"p25"`
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
	P90 float64 `json:"p90"`
}

// RunSeedStudy prices the option Replications times in parallel and reports
// the distribution of the estimates next to a lattice reference price.
func (pe *PricingEngine) RunSeedStudy(ctx context.Context, cfg SeedStudyConfig) (*SeedStudyResult, error) {
	if cfg.Replications < 2 {
		return nil, fmt.Errorf("%w: need at least 2 replications, got %d", domain.ErrInvalidGridSize, cfg.Replications)
	}
	if cfg.Degree == 0 {
		cfg.Degree = DefaultRegressionDegree
	}
	if cfg.ReferenceSteps == 0 {
		cfg.ReferenceSteps = 500
	}
	if cfg.BaseSeed == 0 {
		cfg.BaseSeed = seedFunc()
	}
	if err := cfg.Market.Validate(); err != nil {
		return nil, err
	}

	reference, err := PriceBinomial(cfg.Market.WithSteps(cfg.ReferenceSteps), cfg.Kind, cfg.Style)
	if err != nil {
		return nil, fmt.Errorf("reference lattice: %w", err)
	}

	workers := cfg.Concurrency
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	pe.logger().Infof("seed study: %d replications of %d paths from seed %d", cfg.Replications, cfg.Paths, cfg.BaseSeed)

	seeds := make([]uint64, cfg.Replications)
	estimates := make([]MonteCarloEstimate, cfg.Replications)
	errs := make([]error, cfg.Replications)
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, workers)

	for r := range seeds {
		seeds[r] = cfg.BaseSeed + uint64(r)
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			semaphore <- struct{}{}        // Acquire semaphore
			defer func() { <-semaphore }() // Release semaphore

			if err := ctx.Err(); err != nil {
				errs[idx] = err
				return
			}
			estimates[idx], errs[idx] = runReplication(cfg, seeds[idx])
		}(r)
	}
	wg.Wait()

	for r, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("replication %d (seed %d): %w", r, seeds[r], err)
		}
	}

	prices := make([]float64, len(estimates))
	stdErrs := make([]float64, len(estimates))
	for r, e := range estimates {
		prices[r] = e.Price
		stdErrs[r] = e.StdError
	}
	mean, std := stat.MeanStdDev(prices, nil)

	return &SeedStudyResult{
		Seeds:        seeds,
		Estimates:    estimates,
		Mean:         mean,
		StdDev:       std,
		Percentiles:  calculatePercentileRanges(prices),
		Reference:    reference,
		MeanStdError: stat.Mean(stdErrs, nil),
	}, nil
}

func runReplication(cfg SeedStudyConfig, seed uint64) (MonteCarloEstimate, error) {
	paths, err := SimulatePaths(cfg.Market, domain.SimulationSettings{Paths: cfg.Paths, Seed: seed, Degree: cfg.Degree})
	if err != nil {
		return MonteCarloEstimate{}, err
	}
	if cfg.Style == domain.American {
		return AmericanEstimate(paths, cfg.Market.Strike, cfg.Kind, cfg.Market.StepDiscount(), cfg.Degree)
	}
	return EuropeanEstimate(paths, cfg.Market.Strike, cfg.Market.Rate, cfg.Market.Maturity, cfg.Kind)
}

func calculatePercentileRanges(values []float64) PercentileRanges {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	q := func(p float64) float64 { return stat.Quantile(p, stat.Empirical, sorted, nil) }
	return PercentileRanges{P10: q(0.10), P25: q(0.25), P50: q(0.50), P75: q(0.75), P90: q(0.90)}
}
