package calculation

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rpgo/pricer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHistory = `date,close
2025-01-03,100
2025-01-02,101
not-a-date,99
2025-01-06,101
2025-01-07,abc
2025-01-01,100
`

func TestLoadPriceHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "closes.csv")
	require.NoError(t, os.WriteFile(path, []byte(testHistory), 0o644))

	ds, err := LoadPriceHistory(path)
	require.NoError(t, err)
	assert.Equal(t, path, ds.Source)

	// malformed rows are skipped and the rest sorted by date
	require.Len(t, ds.DataPoints, 4)
	assert.Equal(t, []float64{100, 101, 100, 101}, []float64{
		ds.DataPoints[0].Close, ds.DataPoints[1].Close, ds.DataPoints[2].Close, ds.DataPoints[3].Close,
	})
	assert.Equal(t, 101.0, ds.LastClose())

	r := math.Log(1.01)
	returns := ds.LogReturns()
	require.Len(t, returns, 3)
	assert.InDeltaSlice(t, []float64{r, -r, r}, returns, 1e-15)

	// sample standard deviation of (r, -r, r) is 2r/sqrt(3)
	stats := ds.Statistics
	assert.Equal(t, 3, stats.Count)
	assert.InDelta(t, r/3, stats.Mean, 1e-15)
	assert.InDelta(t, 2*r/math.Sqrt(3), stats.StdDev, 1e-15)
	assert.InDelta(t, -r, stats.Min, 1e-15)
	assert.InDelta(t, r, stats.Max, 1e-15)
	assert.InDelta(t, 2*r/math.Sqrt(3)*math.Sqrt(TradingDaysPerYear), ds.Volatility(), 1e-12)

	assert.Empty(t, ds.ValidateDataQuality())
}

func TestLoadPriceHistory_Errors(t *testing.T) {
	_, err := LoadPriceHistory("missing.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open file")

	_, err = ReadPriceHistory(strings.NewReader("date\n2025-01-01\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected at least 2 columns")

	_, err = ReadPriceHistory(strings.NewReader("date,close\n2025-01-01,100\n2025-01-02,101\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidMarketParameters)

	_, err = ReadPriceHistory(strings.NewReader("date,close\n2025-01-01,100\n2025-01-02,0\n2025-01-03,101\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidMarketParameters)
}

func TestValidateDataQuality(t *testing.T) {
	ds, err := ReadPriceHistory(strings.NewReader(`date,close
2025-01-01,100
2025-01-01,100
2025-01-20,100
2025-01-21,200
`))
	require.NoError(t, err)

	issues := ds.ValidateDataQuality()
	require.Len(t, issues, 3)
	assert.Contains(t, issues[0], "duplicate date 2025-01-01")
	assert.Contains(t, issues[1], "gap of 19 days")
	assert.Contains(t, issues[2], "extreme move on 2025-01-21")
}
