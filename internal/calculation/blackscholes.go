package calculation

import (
	"math"

	"github.com/rpgo/pricer/internal/domain"
	"gonum.org/v1/gonum/stat/distuv"
)

// BlackScholesPrice returns the closed-form Black-Scholes-Merton value of a
// European option. Steps are ignored; only positivity of the inputs is checked.
func BlackScholesPrice(p domain.MarketParameters, kind domain.OptionKind) (float64, error) {
	if err := p.WithSteps(2).Validate(); err != nil {
		return 0, err
	}
	sqrtT := math.Sqrt(p.Maturity)
	d1 := (math.Log(p.Spot/p.Strike) + (p.Rate+0.5*p.Volatility*p.Volatility)*p.Maturity) / (p.Volatility * sqrtT)
	d2 := d1 - p.Volatility*sqrtT
	discountedStrike := p.Strike * math.Exp(-p.Rate*p.Maturity)

	n := distuv.UnitNormal
	if kind == domain.Call {
		return p.Spot*n.CDF(d1) - discountedStrike*n.CDF(d2), nil
	}
	return discountedStrike*n.CDF(-d2) - p.Spot*n.CDF(-d1), nil
}
