package calculation

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/rpgo/pricer/internal/domain"
)

// PricingEngine runs pricing jobs against the lattice and Monte Carlo engines
type PricingEngine struct {
	Logger      Logger
	Concurrency int // jobs priced in parallel by RunAll; <= 0 means GOMAXPROCS
}

// NewPricingEngine creates an engine with a no-op logger
func NewPricingEngine() *PricingEngine {
	return &PricingEngine{Logger: NopLogger{}}
}

// SetLogger sets the logger for the engine. If nil is provided, a no-op logger is used.
func (pe *PricingEngine) SetLogger(l Logger) {
	if l == nil {
		pe.Logger = NopLogger{}
		return
	}
	pe.Logger = l
}

func (pe *PricingEngine) logger() Logger {
	if pe.Logger == nil {
		return NopLogger{}
	}
	return pe.Logger
}

// Price values a single job on the shared market block.
func (pe *PricingEngine) Price(ctx context.Context, market domain.MarketParameters, defaults domain.SimulationSettings, job domain.PricingJob) (*domain.PricingResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	p := job.Market(market)
	kind, style := job.Kind, job.Style
	if kind == "" {
		kind = domain.Put
	}
	if style == "" {
		style = domain.European
	}
	name := job.Name
	if name == "" {
		name = fmt.Sprintf("%s-%s-%s", job.Method, style, kind)
	}

	result := &domain.PricingResult{
		Name:   name,
		Method: job.Method,
		Kind:   kind,
		Style:  style,
		Strike: p.Strike,
		Steps:  p.Steps,
	}

	bs, err := BlackScholesPrice(p, kind)
	if err != nil {
		return nil, err
	}
	result.BlackScholes = bs

	switch job.Method {
	case domain.MethodLattice:
		lattice, err := BuildLattice(p)
		if err != nil {
			return nil, err
		}
		grid, err := ValueLattice(lattice, p, kind, style)
		if err != nil {
			return nil, err
		}
		result.Price = grid.Price()
		if style == domain.American {
			result.ExerciseBoundary = boundaryPoints(grid.ExerciseBoundary(), p.StepLength())
		}

	case domain.MethodMonteCarlo:
		sim := job.Simulation(defaults)
		if sim.Degree == 0 {
			sim.Degree = DefaultRegressionDegree
		}
		paths, err := SimulatePaths(p, sim)
		if err != nil {
			return nil, err
		}
		var est MonteCarloEstimate
		if style == domain.American {
			est, err = AmericanEstimate(paths, p.Strike, kind, p.StepDiscount(), sim.Degree)
		} else {
			est, err = EuropeanEstimate(paths, p.Strike, p.Rate, p.Maturity, kind)
		}
		if err != nil {
			return nil, err
		}
		result.Price = est.Price
		result.StdError = est.StdError
		result.Paths = est.Paths
		result.Seed = sim.Seed

	default:
		return nil, fmt.Errorf("unknown pricing method %q", job.Method)
	}

	result.Elapsed = time.Since(start)
	pe.logger().Debugf("priced %s: %.6f (black-scholes %.6f) in %s", name, result.Price, result.BlackScholes, result.Elapsed)
	return result, nil
}

// RunAll prices every job of the configuration. Jobs are independent and run
// in parallel; results keep configuration order. The first failing job, in
// configuration order, aborts the run.
func (pe *PricingEngine) RunAll(ctx context.Context, cfg *domain.Configuration) (*domain.PricingReport, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil configuration")
	}
	pe.logger().Infof("pricing %d jobs", len(cfg.Jobs))

	results := make([]domain.PricingResult, len(cfg.Jobs))
	errs := make([]error, len(cfg.Jobs))

	workers := pe.Concurrency
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, workers)

	for i := range cfg.Jobs {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			semaphore <- struct{}{}        // Acquire semaphore
			defer func() { <-semaphore }() // Release semaphore

			job := cfg.Jobs[idx]
			res, err := pe.Price(ctx, cfg.Market, cfg.Defaults, job)
			if err != nil {
				errs[idx] = fmt.Errorf("job %d (%s): %w", idx, job.Name, err)
				return
			}
			results[idx] = *res
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			pe.logger().Errorf("%v", err)
			return nil, err
		}
	}

	return &domain.PricingReport{
		Market:      cfg.Market,
		Results:     results,
		GeneratedAt: nowFunc().UTC(),
	}, nil
}

func boundaryPoints(boundary []float64, dt float64) []domain.BoundaryPoint {
	var pts []domain.BoundaryPoint
	for t, price := range boundary {
		if math.IsNaN(price) {
			continue
		}
		pts = append(pts, domain.BoundaryPoint{Step: t, Time: float64(t) * dt, Price: price})
	}
	return pts
}

// ConvergencePoint compares one lattice size with the closed-form price.
type ConvergencePoint struct {
	Steps     int     `json:"steps"`
	Price     float64 `json:"price"`
	Benchmark float64 `json:"benchmark"`
	AbsError  float64 `json:"abs_error"`
}

// ConvergenceStudy prices a European option on lattices of the given sizes and
// reports the distance to the Black-Scholes-Merton value.
func ConvergenceStudy(p domain.MarketParameters, kind domain.OptionKind, steps ...int) ([]ConvergencePoint, error) {
	benchmark, err := BlackScholesPrice(p, kind)
	if err != nil {
		return nil, err
	}
	points := make([]ConvergencePoint, 0, len(steps))
	for _, m := range steps {
		price, err := PriceBinomial(p.WithSteps(m), kind, domain.European)
		if err != nil {
			return nil, fmt.Errorf("%d steps: %w", m, err)
		}
		points = append(points, ConvergencePoint{Steps: m, Price: price, Benchmark: benchmark, AbsError: math.Abs(price - benchmark)})
	}
	return points, nil
}
