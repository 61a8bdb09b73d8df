package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/rpgo/pricer/internal/calculation"
	"github.com/rpgo/pricer/internal/domain"
	"github.com/rpgo/pricer/pkg/decimal"
)

func main() {
	kindFlag := flag.String("kind", "put", "option kind")
	seed := flag.Uint64("seed", 150000, "simulation seed")
	replications := flag.Int("replications", 50, "seed study replications")
	flag.Parse()

	kind, err := domain.ParseOptionKind(*kindFlag)
	if err != nil {
		log.Fatal(err)
	}
	p := domain.MarketParameters{Spot: 36, Strike: 40, Rate: 0.06, Maturity: 1, Volatility: 0.2, Steps: 50}

	// Lattice against the closed form
	points, err := calculation.ConvergenceStudy(p, kind, 4, 10, 50, 100, 250, 500, 1000)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("European %s, Black-Scholes-Merton %s\n", kind, decimal.NewQuote(points[0].Benchmark))
	fmt.Println("M\tlattice\tabs error")
	for _, pt := range points {
		fmt.Printf("%d\t%s\t%.6f\n", pt.Steps, decimal.NewQuote(pt.Price), pt.AbsError)
	}

	// Monte Carlo error shrinking with the path count
	american, err := calculation.PriceBinomial(p.WithSteps(500), kind, domain.American)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println()
	fmt.Printf("American %s, lattice M=500 %s\n", kind, decimal.NewQuote(american))
	fmt.Println("I\tEU MC\tstd err\tLSM\tstd err")
	for _, n := range []int{1000, 5000, 25000, 100000} {
		paths, err := calculation.SimulatePaths(p, domain.SimulationSettings{Paths: n, Seed: *seed})
		if err != nil {
			log.Fatal(err)
		}
		eu, err := calculation.EuropeanEstimate(paths, p.Strike, p.Rate, p.Maturity, kind)
		if err != nil {
			log.Fatal(err)
		}
		am, err := calculation.AmericanEstimate(paths, p.Strike, kind, p.StepDiscount(), calculation.DefaultRegressionDegree)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%d\t%s\t%s\t%s\t%s\n", n,
			decimal.NewQuote(eu.Price), decimal.NewQuote(eu.StdError),
			decimal.NewQuote(am.Price), decimal.NewQuote(am.StdError))
	}

	// Spread of the LSM estimator across seeds
	study, err := calculation.NewPricingEngine().RunSeedStudy(context.Background(), calculation.SeedStudyConfig{
		Market:       p,
		Kind:         kind,
		Style:        domain.American,
		Paths:        5000,
		Replications: *replications,
		BaseSeed:     *seed,
	})
	if err != nil {
		log.Fatal(err)
	}
	pr := study.Percentiles
	fmt.Println()
	fmt.Printf("LSM over %d seeds (I=5000): mean %s, sd %s, mean std err %s, lattice %s\n", len(study.Seeds),
		decimal.NewQuote(study.Mean), decimal.NewQuote(study.StdDev), decimal.NewQuote(study.MeanStdError), decimal.NewQuote(study.Reference))
	fmt.Printf("P10 %s  P25 %s  P50 %s  P75 %s  P90 %s\n",
		decimal.NewQuote(pr.P10), decimal.NewQuote(pr.P25), decimal.NewQuote(pr.P50), decimal.NewQuote(pr.P75), decimal.NewQuote(pr.P90))
}
