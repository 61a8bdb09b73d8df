package calculation

import (
	"fmt"
	"math"

	"github.com/rpgo/pricer/internal/domain"
	"gonum.org/v1/gonum/stat"
)

// MonteCarloEstimate is a simulated price with its standard error.
type MonteCarloEstimate struct {
	Price    float64 `json:"price"`
	StdError float64 `json:"std_error"`
	Paths    int     `json:"paths"`
}

// EuropeanEstimate values a European option from the terminal row of the paths:
// the mean payoff discounted by e^{-rT}, plus the standard error of that mean.
func EuropeanEstimate(paths *PathMatrix, strike, rate, maturity float64, kind domain.OptionKind) (MonteCarloEstimate, error) {
	if paths == nil {
		return MonteCarloEstimate{}, fmt.Errorf("%w: nil path matrix", domain.ErrInvalidGridSize)
	}
	if !(strike > 0) || !(maturity > 0) || !(rate >= 0) {
		return MonteCarloEstimate{}, fmt.Errorf("%w: strike %g, rate %g, maturity %g", domain.ErrInvalidMarketParameters, strike, rate, maturity)
	}

	payoff := paths.Row(paths.Steps())
	for j, s := range payoff {
		payoff[j] = kind.Payoff(s, strike)
	}
	discount := math.Exp(-rate * maturity)
	mean, std := stat.MeanStdDev(payoff, nil)
	n := len(payoff)

	est := MonteCarloEstimate{Price: discount * mean, Paths: n}
	if n > 1 {
		est.StdError = discount * std / math.Sqrt(float64(n))
	}
	return est, nil
}

// PriceEuropeanMC returns the Monte Carlo price of a European option.
func PriceEuropeanMC(paths *PathMatrix, strike, rate, maturity float64, kind domain.OptionKind) (float64, error) {
	est, err := EuropeanEstimate(paths, strike, rate, maturity, kind)
	if err != nil {
		return 0, err
	}
	return est.Price, nil
}
