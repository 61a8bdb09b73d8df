package calculation

import (
	"fmt"
	"math"

	"github.com/rpgo/pricer/internal/domain"
)

// Lattice is a recombining binomial price tree stored as jagged columns:
// column t holds the t+1 reachable prices after t steps, so node (i, t) with
// i down-moves exists only for 0 <= i <= t. Cells below the diagonal of the
// square (M+1)x(M+1) layout are never allocated.
type Lattice struct {
	steps   int
	columns [][]float64
}

// BuildLattice computes node (i, t) = S0 * u^(t-i) * d^i for the whole tree.
func BuildLattice(p domain.MarketParameters) (*Lattice, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	u, d := p.UpFactor(), p.DownFactor()

	columns := make([][]float64, p.Steps+1)
	for t := 0; t <= p.Steps; t++ {
		col := make([]float64, t+1)
		for i := 0; i <= t; i++ {
			col[i] = p.Spot * math.Pow(u, float64(t-i)) * math.Pow(d, float64(i))
		}
		columns[t] = col
	}
	return &Lattice{steps: p.Steps, columns: columns}, nil
}

// Steps returns M.
func (l *Lattice) Steps() int { return l.steps }

// At returns the underlying price at node (i, t). It panics outside the
// triangle 0 <= i <= t <= M.
func (l *Lattice) At(i, t int) float64 {
	checkNode(i, t, l.steps)
	return l.columns[t][i]
}

// Column returns a copy of the prices reachable at step t.
func (l *Lattice) Column(t int) []float64 {
	checkNode(0, t, l.steps)
	return append([]float64(nil), l.columns[t]...)
}

func checkNode(i, t, steps int) {
	if t < 0 || t > steps || i < 0 || i > t {
		panic(fmt.Sprintf("lattice: node (%d, %d) outside triangle of %d steps", i, t, steps))
	}
}

// ValueGrid holds the option value at every lattice node together with the
// exercise decision taken there.
type ValueGrid struct {
	steps    int
	values   [][]float64
	exercise [][]bool
	lattice  *Lattice
}

// ValueLattice values an option on l by backward induction under the constant
// risk-neutral probability q. European nodes take the discounted continuation
// value; American nodes take max(intrinsic, continuation), fixed once computed.
func ValueLattice(l *Lattice, p domain.MarketParameters, kind domain.OptionKind, style domain.ExerciseStyle) (*ValueGrid, error) {
	if l == nil {
		return nil, fmt.Errorf("%w: nil lattice", domain.ErrInvalidGridSize)
	}
	if l.steps != p.Steps {
		return nil, fmt.Errorf("%w: lattice has %d steps, parameters ask for %d", domain.ErrInvalidGridSize, l.steps, p.Steps)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	q, err := p.RiskNeutralProbability()
	if err != nil {
		return nil, err
	}
	df := p.StepDiscount()
	m := l.steps

	values := make([][]float64, m+1)
	exercise := make([][]bool, m+1)

	terminal := make([]float64, m+1)
	for i := range terminal {
		terminal[i] = kind.Payoff(l.columns[m][i], p.Strike)
	}
	values[m] = terminal
	exercise[m] = make([]bool, m+1)
	for i, v := range terminal {
		exercise[m][i] = v > 0
	}

	for t := m - 1; t >= 0; t-- {
		next := values[t+1]
		col := make([]float64, t+1)
		ex := make([]bool, t+1)
		for i := 0; i <= t; i++ {
			continuation := df * (q*next[i] + (1-q)*next[i+1])
			col[i] = continuation
			if style == domain.American {
				if intrinsic := kind.Payoff(l.columns[t][i], p.Strike); intrinsic > continuation {
					col[i] = intrinsic
					ex[i] = true
				}
			}
		}
		values[t] = col
		exercise[t] = ex
	}

	return &ValueGrid{steps: m, values: values, exercise: exercise, lattice: l}, nil
}

// Price returns V[0,0], the time-0 value.
func (g *ValueGrid) Price() float64 { return g.values[0][0] }

// At returns the option value at node (i, t).
func (g *ValueGrid) At(i, t int) float64 {
	checkNode(i, t, g.steps)
	return g.values[t][i]
}

// ExerciseAt reports whether exercising at node (i, t) is optimal. At maturity
// this is true for every in-the-money node.
func (g *ValueGrid) ExerciseAt(i, t int) bool {
	checkNode(i, t, g.steps)
	return g.exercise[t][i]
}

// ExerciseBoundary returns, for every step t, the underlying price of the
// exercise node closest to the money. Steps without an exercise node hold NaN.
func (g *ValueGrid) ExerciseBoundary() []float64 {
	boundary := make([]float64, g.steps+1)
	for t := 0; t <= g.steps; t++ {
		boundary[t] = math.NaN()
		// For a put the exercise region sits at high i (low prices), for a call at low i;
		// scanning all nodes and keeping the one nearest the continuation region covers both.
		best := -1
		for i := 0; i <= t; i++ {
			if !g.exercise[t][i] {
				continue
			}
			if best < 0 || adjacentToHold(g.exercise[t], i) {
				best = i
			}
		}
		if best >= 0 {
			boundary[t] = g.lattice.columns[t][best]
		}
	}
	return boundary
}

func adjacentToHold(ex []bool, i int) bool {
	return (i > 0 && !ex[i-1]) || (i+1 < len(ex) && !ex[i+1])
}

// PriceBinomial builds the lattice and returns the option's time-0 value.
func PriceBinomial(p domain.MarketParameters, kind domain.OptionKind, style domain.ExerciseStyle) (float64, error) {
	l, err := BuildLattice(p)
	if err != nil {
		return 0, err
	}
	g, err := ValueLattice(l, p, kind, style)
	if err != nil {
		return 0, err
	}
	return g.Price(), nil
}
