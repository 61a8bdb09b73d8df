// Package economy solves one-period economies with finitely many states:
// state prices, the martingale measure, replication of contingent claims and
// expected-utility maximization.
package economy

import (
	"errors"
	"fmt"
	"math"

	"github.com/rpgo/pricer/internal/domain"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// ErrIncompleteMarket reports an economy whose securities do not span the states.
var ErrIncompleteMarket = errors.New("incomplete market")

// Validate checks shapes, probabilities and prices.
func Validate(e domain.Economy) error {
	n := e.States()
	if n == 0 {
		return fmt.Errorf("%w: economy has no states", domain.ErrInvalidMarketParameters)
	}
	for s, p := range e.Probabilities {
		if p < 0 || math.IsNaN(p) {
			return fmt.Errorf("%w: probability of state %d is %g", domain.ErrInvalidMarketParameters, s, p)
		}
	}
	if sum := floats.Sum(e.Probabilities); math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("%w: probabilities sum to %g", domain.ErrInvalidMarketParameters, sum)
	}
	if len(e.Securities) == 0 {
		return fmt.Errorf("%w: economy has no securities", domain.ErrInvalidMarketParameters)
	}
	for _, sec := range e.Securities {
		if !(sec.Price > 0) {
			return fmt.Errorf("%w: security %q has price %g", domain.ErrInvalidMarketParameters, sec.Name, sec.Price)
		}
		if len(sec.Payoff) != n {
			return fmt.Errorf("%w: security %q has %d payoffs for %d states", domain.ErrInvalidMarketParameters, sec.Name, len(sec.Payoff), n)
		}
	}
	return nil
}

// payoffMatrix returns the states x securities matrix of payoffs.
func payoffMatrix(e domain.Economy) *mat.Dense {
	a := mat.NewDense(e.States(), len(e.Securities), nil)
	for k, sec := range e.Securities {
		a.SetCol(k, sec.Payoff)
	}
	return a
}

func prices(e domain.Economy) []float64 {
	p := make([]float64, len(e.Securities))
	for k, sec := range e.Securities {
		p[k] = sec.Price
	}
	return p
}

// StatePrices solves A^T psi = prices for the Arrow-Debreu state prices. The
// market must be complete with exactly one security per state, and every
// state price must be positive, otherwise the economy admits arbitrage.
func StatePrices(e domain.Economy) ([]float64, error) {
	if err := Validate(e); err != nil {
		return nil, err
	}
	if len(e.Securities) != e.States() {
		return nil, fmt.Errorf("%w: %d securities for %d states", ErrIncompleteMarket, len(e.Securities), e.States())
	}

	var psi mat.VecDense
	if err := psi.SolveVec(payoffMatrix(e).T(), mat.NewVecDense(len(e.Securities), prices(e))); err != nil {
		return nil, fmt.Errorf("%w: payoffs are linearly dependent: %v", ErrIncompleteMarket, err)
	}

	out := make([]float64, psi.Len())
	for s := range out {
		out[s] = psi.AtVec(s)
		if !(out[s] > 0) {
			return nil, fmt.Errorf("%w: state price %d is %g, the economy admits arbitrage", domain.ErrInvalidMarketParameters, s, out[s])
		}
	}
	return out, nil
}

// MartingaleMeasure returns the risk-neutral probabilities q = psi / sum(psi).
func MartingaleMeasure(e domain.Economy) ([]float64, error) {
	psi, err := StatePrices(e)
	if err != nil {
		return nil, err
	}
	floats.Scale(1/floats.Sum(psi), psi)
	return psi, nil
}

// ImpliedRate is the one-period riskless rate, 1/sum(psi) - 1.
func ImpliedRate(e domain.Economy) (float64, error) {
	psi, err := StatePrices(e)
	if err != nil {
		return 0, err
	}
	return 1/floats.Sum(psi) - 1, nil
}

// Replication is a portfolio reproducing a claim state by state.
type Replication struct {
	Holdings []float64 `json:"holdings"`
	Price    float64   `json:"price"`
}

// Replicate solves A phi = claim and prices the claim as phi . prices.
func Replicate(e domain.Economy, claim []float64) (Replication, error) {
	if err := Validate(e); err != nil {
		return Replication{}, err
	}
	if len(claim) != e.States() {
		return Replication{}, fmt.Errorf("%w: claim has %d payoffs for %d states", domain.ErrInvalidMarketParameters, len(claim), e.States())
	}
	if len(e.Securities) != e.States() {
		return Replication{}, fmt.Errorf("%w: %d securities for %d states", ErrIncompleteMarket, len(e.Securities), e.States())
	}

	var phi mat.VecDense
	if err := phi.SolveVec(payoffMatrix(e), mat.NewVecDense(len(claim), append([]float64(nil), claim...))); err != nil {
		return Replication{}, fmt.Errorf("%w: %v", ErrIncompleteMarket, err)
	}
	holdings := mat.Col(nil, 0, &phi)
	return Replication{Holdings: holdings, Price: floats.Dot(holdings, prices(e))}, nil
}

// Allocation is the result of an expected-utility maximization.
type Allocation struct {
	Holdings        []float64 `json:"holdings"`
	Wealth          []float64 `json:"wealth"`
	ExpectedUtility float64   `json:"expected_utility"`
}

// infeasible is returned by the objective for portfolios with non-positive wealth.
const infeasible = 1e12

// MaximizeExpectedUtility finds the portfolio with price equal to budget that
// maximizes expected log utility of terminal wealth. The budget constraint
// fixes the holding of the last security; the remaining holdings are searched
// with Nelder-Mead starting from the riskless portfolio.
func MaximizeExpectedUtility(e domain.Economy, budget float64) (Allocation, error) {
	if !(budget > 0) {
		return Allocation{}, fmt.Errorf("%w: budget must be positive, got %g", domain.ErrInvalidMarketParameters, budget)
	}
	psi, err := StatePrices(e)
	if err != nil {
		return Allocation{}, err
	}

	px := prices(e)
	a := payoffMatrix(e)
	k := len(px)

	holdings := func(x []float64) []float64 {
		h := make([]float64, k)
		copy(h, x)
		h[k-1] = (budget - floats.Dot(x, px[:k-1])) / px[k-1]
		return h
	}
	wealth := func(h []float64) []float64 {
		var w mat.VecDense
		w.MulVec(a, mat.NewVecDense(k, h))
		return mat.Col(nil, 0, &w)
	}
	utility := func(w []float64) float64 {
		u := 0.0
		for s, ws := range w {
			if !(ws > 0) {
				return math.Inf(-1)
			}
			u += e.Probabilities[s] * math.Log(ws)
		}
		return u
	}

	if k == 1 {
		h := []float64{budget / px[0]}
		w := wealth(h)
		return Allocation{Holdings: h, Wealth: w, ExpectedUtility: utility(w)}, nil
	}

	riskless := make([]float64, e.States())
	for s := range riskless {
		riskless[s] = budget / floats.Sum(psi)
	}
	start, err := Replicate(e, riskless)
	if err != nil {
		return Allocation{}, err
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			u := utility(wealth(holdings(x)))
			if math.IsInf(u, -1) {
				return infeasible
			}
			return -u
		},
	}
	res, err := optimize.Minimize(problem, start.Holdings[:k-1], nil, &optimize.NelderMead{})
	if err != nil {
		return Allocation{}, fmt.Errorf("utility maximization: %w", err)
	}

	h := holdings(res.X)
	w := wealth(h)
	return Allocation{Holdings: h, Wealth: w, ExpectedUtility: utility(w)}, nil
}
