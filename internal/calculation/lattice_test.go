package calculation

import (
	"math"
	"testing"

	"github.com/rpgo/pricer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textbookMarket(steps int) domain.MarketParameters {
	return domain.MarketParameters{Spot: 36, Strike: 40, Rate: 0.06, Maturity: 1, Volatility: 0.2, Steps: steps}
}

func TestBuildLattice_NodePrices(t *testing.T) {
	p := textbookMarket(4)
	l, err := BuildLattice(p)
	require.NoError(t, err)

	u, d := p.UpFactor(), p.DownFactor()
	assert.Equal(t, 4, l.Steps())
	assert.Equal(t, 36.0, l.At(0, 0))
	assert.InDelta(t, 36*u, l.At(0, 1), 1e-12)
	assert.InDelta(t, 36*d, l.At(1, 1), 1e-12)
	assert.InDelta(t, 36*u*u*u*d, l.At(1, 4), 1e-12)
	assert.Len(t, l.Column(3), 4)
}

func TestBuildLattice_Recombines(t *testing.T) {
	p := textbookMarket(12)
	l, err := BuildLattice(p)
	require.NoError(t, err)
	u, d := p.UpFactor(), p.DownFactor()

	// Walk every up/down sequence of length 12 and check it lands on the node
	// selected by its down-move count alone.
	for mask := 0; mask < 1<<12; mask++ {
		price, downs := p.Spot, 0
		for step := 0; step < 12; step++ {
			if mask&(1<<step) != 0 {
				price *= d
				downs++
			} else {
				price *= u
			}
		}
		require.InDelta(t, l.At(downs, 12), price, 1e-9, "mask %b", mask)
	}

	for step := 0; step <= 12; step++ {
		distinct := map[float64]struct{}{}
		for _, v := range l.Column(step) {
			distinct[v] = struct{}{}
		}
		assert.LessOrEqual(t, len(distinct), step+1)
	}
}

func TestLattice_AtOutsideTrianglePanics(t *testing.T) {
	l, err := BuildLattice(textbookMarket(4))
	require.NoError(t, err)

	assert.Panics(t, func() { l.At(2, 1) })
	assert.Panics(t, func() { l.At(0, 5) })
	assert.Panics(t, func() { l.At(-1, 2) })
}

func TestPriceBinomial_KnownValues(t *testing.T) {
	testCases := []struct {
		desc  string
		steps int
		kind  domain.OptionKind
		style domain.ExerciseStyle
		want  float64
	}{
		{"european put, 2 steps", 2, domain.Put, domain.European, 4.064375454256073},
		{"american put, 2 steps", 2, domain.Put, domain.American, 4.555373027894822},
		{"european put, 4 steps", 4, domain.Put, domain.European, 3.977145694118793},
		{"american put, 4 steps", 4, domain.Put, domain.American, 4.539560595224301},
		{"european call, 4 steps", 4, domain.Call, domain.European, 2.3065643507488374},
		{"european put, 50 steps", 50, domain.Put, domain.European, 3.8396108634157806},
		{"american put, 50 steps", 50, domain.Put, domain.American, 4.4844980628541835},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			got, err := PriceBinomial(textbookMarket(tc.steps), tc.kind, tc.style)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestPriceBinomial_FourStepPutToFourDecimals(t *testing.T) {
	got, err := PriceBinomial(textbookMarket(4), domain.Put, domain.European)
	require.NoError(t, err)
	assert.Equal(t, 3.9771, math.Round(got*1e4)/1e4)
}

func TestValueLattice_AmericanDominates(t *testing.T) {
	p := textbookMarket(30)
	l, err := BuildLattice(p)
	require.NoError(t, err)

	for _, kind := range []domain.OptionKind{domain.Put, domain.Call} {
		eu, err := ValueLattice(l, p, kind, domain.European)
		require.NoError(t, err)
		am, err := ValueLattice(l, p, kind, domain.American)
		require.NoError(t, err)

		for step := 0; step <= p.Steps; step++ {
			for i := 0; i <= step; i++ {
				intrinsic := kind.Payoff(l.At(i, step), p.Strike)
				assert.GreaterOrEqual(t, am.At(i, step), eu.At(i, step)-1e-12, "%s node (%d,%d)", kind, i, step)
				assert.GreaterOrEqual(t, am.At(i, step), intrinsic-1e-12, "%s node (%d,%d)", kind, i, step)
				if am.ExerciseAt(i, step) {
					assert.Equal(t, intrinsic, am.At(i, step))
				}
			}
		}
	}
}

func TestValueLattice_TerminalColumnIsIntrinsic(t *testing.T) {
	p := textbookMarket(6)
	l, err := BuildLattice(p)
	require.NoError(t, err)
	g, err := ValueLattice(l, p, domain.Put, domain.European)
	require.NoError(t, err)

	for i := 0; i <= 6; i++ {
		assert.Equal(t, math.Max(40-l.At(i, 6), 0), g.At(i, 6))
	}
}

func TestValueLattice_AmericanCallWithoutDividendsMatchesEuropean(t *testing.T) {
	p := textbookMarket(40)
	eu, err := PriceBinomial(p, domain.Call, domain.European)
	require.NoError(t, err)
	am, err := PriceBinomial(p, domain.Call, domain.American)
	require.NoError(t, err)
	assert.InDelta(t, eu, am, 1e-12)
}

func TestValueLattice_StepMismatch(t *testing.T) {
	l, err := BuildLattice(textbookMarket(4))
	require.NoError(t, err)
	_, err = ValueLattice(l, textbookMarket(5), domain.Put, domain.European)
	assert.ErrorIs(t, err, domain.ErrInvalidGridSize)
}

func TestExerciseBoundary_AmericanPut(t *testing.T) {
	p := textbookMarket(50)
	l, err := BuildLattice(p)
	require.NoError(t, err)
	g, err := ValueLattice(l, p, domain.Put, domain.American)
	require.NoError(t, err)

	boundary := g.ExerciseBoundary()
	require.Len(t, boundary, 51)
	seen := 0
	for step, b := range boundary {
		if math.IsNaN(b) {
			continue
		}
		seen++
		assert.Less(t, b, p.Strike, "step %d", step)
	}
	assert.Greater(t, seen, 0)
	// At maturity every in-the-money node exercises; the boundary is the highest
	// price below the strike.
	assert.Less(t, boundary[50], p.Strike)
}

func TestPriceBinomial_Errors(t *testing.T) {
	_, err := PriceBinomial(textbookMarket(1), domain.Put, domain.European)
	assert.ErrorIs(t, err, domain.ErrInvalidGridSize)

	bad := domain.MarketParameters{Spot: 36, Strike: 40, Rate: 0.5, Maturity: 1, Volatility: 0.01, Steps: 4}
	_, err = PriceBinomial(bad, domain.Put, domain.American)
	assert.ErrorIs(t, err, domain.ErrInvalidMarketParameters)

	neg := textbookMarket(4)
	neg.Volatility = -0.2
	_, err = PriceBinomial(neg, domain.Put, domain.European)
	assert.ErrorIs(t, err, domain.ErrInvalidMarketParameters)
}

func TestConvergenceStudy(t *testing.T) {
	points, err := ConvergenceStudy(textbookMarket(2), domain.Put, 4, 50, 500)
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.InDelta(t, 3.84430779159684, points[0].Benchmark, 1e-9)
	assert.InDelta(t, 3.8435911863372136, points[2].Price, 1e-9)
	assert.Less(t, points[2].AbsError, points[0].AbsError)
	assert.InEpsilon(t, points[2].Benchmark, points[2].Price, 0.01)
}
