package calculation

import (
	"fmt"
	"math"

	"github.com/rpgo/pricer/internal/domain"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// AmericanEstimate values an American option with Least-Squares Monte Carlo.
//
// V starts as the terminal payoff. For t = M-1 down to 1 a polynomial of
// df*V against S_t is fitted across all paths; paths whose intrinsic value
// beats the fitted continuation value exercise (V = intrinsic), the others
// roll forward (V = df*V). The loop never visits t = 0: the result is
// mean(df*V), so exercise at time 0 is not tested against continuation.
func AmericanEstimate(paths *PathMatrix, strike float64, kind domain.OptionKind, df float64, degree int) (MonteCarloEstimate, error) {
	if paths == nil {
		return MonteCarloEstimate{}, fmt.Errorf("%w: nil path matrix", domain.ErrInvalidGridSize)
	}
	if paths.Steps() < 2 {
		return MonteCarloEstimate{}, fmt.Errorf("%w: need at least 2 time steps, got %d", domain.ErrInvalidGridSize, paths.Steps())
	}
	if !(strike > 0) {
		return MonteCarloEstimate{}, fmt.Errorf("%w: strike must be positive, got %g", domain.ErrInvalidMarketParameters, strike)
	}
	if !(df > 0 && df <= 1) {
		return MonteCarloEstimate{}, fmt.Errorf("%w: step discount factor %g outside (0, 1]", domain.ErrInvalidMarketParameters, df)
	}

	m, n := paths.Steps(), paths.Paths()

	value := paths.Row(m)
	for j, s := range value {
		value[j] = kind.Payoff(s, strike)
	}

	discounted := make([]float64, n)
	continuation := make([]float64, n)
	for t := m - 1; t > 0; t-- {
		spot := paths.Row(t)
		floats.ScaleTo(discounted, df, value)

		fit, err := FitPolynomial(spot, discounted, degree)
		if err != nil {
			return MonteCarloEstimate{}, fmt.Errorf("step %d: %w", t, err)
		}
		continuation = fit.EvalAll(continuation, spot)

		for j, s := range spot {
			if intrinsic := kind.Payoff(s, strike); intrinsic > continuation[j] {
				value[j] = intrinsic
			} else {
				value[j] = discounted[j]
			}
		}
	}

	floats.Scale(df, value)
	mean, std := stat.MeanStdDev(value, nil)
	est := MonteCarloEstimate{Price: mean, Paths: n}
	if n > 1 {
		est.StdError = std / math.Sqrt(float64(n))
	}
	return est, nil
}

// PriceAmericanLSM returns the LSM price of an American option.
func PriceAmericanLSM(paths *PathMatrix, strike float64, kind domain.OptionKind, df float64, degree int) (float64, error) {
	est, err := AmericanEstimate(paths, strike, kind, df, degree)
	if err != nil {
		return 0, err
	}
	return est.Price, nil
}
