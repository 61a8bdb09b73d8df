package economy

import (
	"testing"

	"github.com/rpgo/pricer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoStateEconomy() domain.Economy {
	return domain.Economy{
		Probabilities: []float64{0.5, 0.5},
		Securities: []domain.Security{
			{Name: "bond", Price: 10, Payoff: []float64{11, 11}},
			{Name: "stock", Price: 10, Payoff: []float64{20, 5}},
		},
	}
}

func TestStatePricesAndMartingaleMeasure(t *testing.T) {
	e := twoStateEconomy()

	psi, err := StatePrices(e)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{4.0 / 11, 6.0 / 11}, psi, 1e-12)

	q, err := MartingaleMeasure(e)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.4, 0.6}, q, 1e-12)

	r, err := ImpliedRate(e)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, r, 1e-12)
}

func TestStatePrices_Arbitrage(t *testing.T) {
	e := twoStateEconomy()
	// The stock now dominates the bond's return in every state.
	e.Securities[1].Payoff = []float64{20, 12}

	_, err := StatePrices(e)
	assert.ErrorIs(t, err, domain.ErrInvalidMarketParameters)
}

func TestStatePrices_Incomplete(t *testing.T) {
	e := twoStateEconomy()
	e.Securities = e.Securities[:1]
	_, err := StatePrices(e)
	assert.ErrorIs(t, err, ErrIncompleteMarket)

	e = twoStateEconomy()
	e.Securities[1] = domain.Security{Name: "bond2", Price: 20, Payoff: []float64{22, 22}}
	_, err = StatePrices(e)
	assert.ErrorIs(t, err, ErrIncompleteMarket)
}

func TestReplicate_Call(t *testing.T) {
	rep, err := Replicate(twoStateEconomy(), []float64{5.5, 0})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{-1.0 / 6, 11.0 / 30}, rep.Holdings, 1e-12)
	assert.InDelta(t, 2.0, rep.Price, 1e-12)

	q, err := MartingaleMeasure(twoStateEconomy())
	require.NoError(t, err)
	assert.InDelta(t, (q[0]*5.5+q[1]*0)/1.1, rep.Price, 1e-12)
}

func TestReplicate_BadClaim(t *testing.T) {
	_, err := Replicate(twoStateEconomy(), []float64{1, 2, 3})
	assert.ErrorIs(t, err, domain.ErrInvalidMarketParameters)
}

func TestMaximizeExpectedUtility_LogInvestor(t *testing.T) {
	e := twoStateEconomy()
	alloc, err := MaximizeExpectedUtility(e, 10)
	require.NoError(t, err)

	// With log utility optimal wealth is budget * p_s / psi_s.
	assert.InDelta(t, 13.75, alloc.Wealth[0], 1e-2)
	assert.InDelta(t, 10*0.5*11/6, alloc.Wealth[1], 1e-2)

	cost := alloc.Holdings[0]*10 + alloc.Holdings[1]*10
	assert.InDelta(t, 10, cost, 1e-9)

	// Beats holding the riskless portfolio, whose utility is log(11).
	assert.Greater(t, alloc.ExpectedUtility, 2.3978952727983707)
}

func TestMaximizeExpectedUtility_Errors(t *testing.T) {
	_, err := MaximizeExpectedUtility(twoStateEconomy(), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidMarketParameters)

	e := twoStateEconomy()
	e.Probabilities = []float64{0.7, 0.7}
	_, err = MaximizeExpectedUtility(e, 10)
	assert.ErrorIs(t, err, domain.ErrInvalidMarketParameters)
}
