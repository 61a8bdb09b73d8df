package calculation

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rpgo/pricer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfiguration() *domain.Configuration {
	return &domain.Configuration{
		Market:   textbookMarket(50),
		Defaults: domain.SimulationSettings{Paths: 5000, Seed: 150000, Degree: 5},
		Jobs: []domain.PricingJob{
			{Name: "lattice-eu", Method: domain.MethodLattice, Kind: domain.Put, Style: domain.European, Steps: 4},
			{Name: "lattice-am", Method: domain.MethodLattice, Kind: domain.Put, Style: domain.American, Steps: 4},
			{Name: "mc-eu", Method: domain.MethodMonteCarlo, Kind: domain.Put, Style: domain.European},
			{Name: "lsm", Method: domain.MethodMonteCarlo, Kind: domain.Put, Style: domain.American},
		},
	}
}

func TestPricingEngine_RunAll(t *testing.T) {
	engine := NewPricingEngine()
	engine.Concurrency = 2

	report, err := engine.RunAll(context.Background(), testConfiguration())
	require.NoError(t, err)
	require.Len(t, report.Results, 4)

	names := []string{}
	for _, r := range report.Results {
		names = append(names, r.Name)
		assert.InDelta(t, 3.84430779159684, r.BlackScholes, 1e-9)
	}
	assert.Equal(t, []string{"lattice-eu", "lattice-am", "mc-eu", "lsm"}, names)

	assert.InDelta(t, 3.977145694118793, report.Results[0].Price, 1e-9)
	assert.Empty(t, report.Results[0].ExerciseBoundary)
	assert.InDelta(t, 4.539560595224301, report.Results[1].Price, 1e-9)
	assert.NotEmpty(t, report.Results[1].ExerciseBoundary)

	mc := report.Results[2]
	assert.Equal(t, 5000, mc.Paths)
	assert.Equal(t, uint64(150000), mc.Seed)
	assert.Greater(t, mc.StdError, 0.0)
	assert.Greater(t, report.Results[3].Price, mc.Price)
}

func TestPricingEngine_RunAllIsDeterministic(t *testing.T) {
	engine := NewPricingEngine()
	a, err := engine.RunAll(context.Background(), testConfiguration())
	require.NoError(t, err)
	b, err := engine.RunAll(context.Background(), testConfiguration())
	require.NoError(t, err)

	for i := range a.Results {
		assert.Equal(t, a.Results[i].Price, b.Results[i].Price, a.Results[i].Name)
	}
}

func TestPricingEngine_FirstErrorInOrderWins(t *testing.T) {
	cfg := testConfiguration()
	cfg.Jobs[1].Steps = 1
	cfg.Jobs[3].Method = "fourier"

	_, err := NewPricingEngine().RunAll(context.Background(), cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidGridSize)
	assert.Contains(t, err.Error(), "lattice-am")
}

func TestPricingEngine_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPricingEngine().RunAll(ctx, testConfiguration())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPricingEngine_DefaultsAndStrikeOverride(t *testing.T) {
	strike := 44.0
	job := domain.PricingJob{Method: domain.MethodLattice, Steps: 4, Strike: &strike}

	res, err := NewPricingEngine().Price(context.Background(), textbookMarket(50), domain.SimulationSettings{}, job)
	require.NoError(t, err)
	assert.Equal(t, "lattice-european-put", res.Name)
	assert.Equal(t, 44.0, res.Strike)
	assert.Equal(t, 4, res.Steps)
}

func TestPricingEngine_Logging(t *testing.T) {
	var buf bytes.Buffer
	engine := NewPricingEngine()
	engine.SetLogger(NewSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))))

	_, err := engine.RunAll(context.Background(), &domain.Configuration{
		Market: textbookMarket(4),
		Jobs:   []domain.PricingJob{{Name: "tiny", Method: domain.MethodLattice}},
	})
	require.NoError(t, err)
	out := buf.String()
	assert.True(t, strings.Contains(out, "pricing 1 jobs"), out)
	assert.True(t, strings.Contains(out, "priced tiny"), out)

	engine.SetLogger(nil)
	assert.IsType(t, NopLogger{}, engine.Logger)
}

func TestPricingEngine_ReportTimestamp(t *testing.T) {
	fixed := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	SetNowFunc(func() time.Time { return fixed })
	defer SetNowFunc(time.Now)

	report, err := NewPricingEngine().RunAll(context.Background(), &domain.Configuration{
		Market: textbookMarket(4),
		Jobs:   []domain.PricingJob{{Method: domain.MethodLattice}},
	})
	require.NoError(t, err)
	assert.Equal(t, fixed, report.GeneratedAt)
}

func TestPricingEngine_SeedStudy(t *testing.T) {
	engine := NewPricingEngine()
	cfg := SeedStudyConfig{
		Market:         textbookMarket(10),
		Kind:           domain.Put,
		Style:          domain.European,
		Paths:          2000,
		Replications:   20,
		BaseSeed:       1000,
		ReferenceSteps: 200,
		Concurrency:    4,
	}

	res, err := engine.RunSeedStudy(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, res.Estimates, 20)
	assert.Equal(t, uint64(1000), res.Seeds[0])
	assert.Equal(t, uint64(1019), res.Seeds[19])

	// replication 3 is exactly the run with seed 1003
	paths, err := SimulatePaths(cfg.Market, domain.SimulationSettings{Paths: 2000, Seed: 1003})
	require.NoError(t, err)
	single, err := EuropeanEstimate(paths, 40, 0.06, 1, domain.Put)
	require.NoError(t, err)
	assert.Equal(t, single.Price, res.Estimates[3].Price)

	p := res.Percentiles
	assert.True(t, p.P10 <= p.P25 && p.P25 <= p.P50 && p.P50 <= p.P75 && p.P75 <= p.P90)
	// the spread across seeds is of the order of the per-run standard error
	assert.InDelta(t, res.MeanStdError, res.StdDev, res.MeanStdError)
	assert.InDelta(t, res.Reference, res.Mean, 3*res.StdDev)

	again, err := engine.RunSeedStudy(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, res.Mean, again.Mean)
}

func TestPricingEngine_SeedStudyDrawsBaseSeed(t *testing.T) {
	SetSeedFunc(func() uint64 { return 77 })
	defer SetSeedFunc(func() uint64 { return uint64(time.Now().UnixNano()) })

	res, err := NewPricingEngine().RunSeedStudy(context.Background(), SeedStudyConfig{
		Market: textbookMarket(5), Kind: domain.Put, Style: domain.American, Paths: 500, Replications: 2, ReferenceSteps: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{77, 78}, res.Seeds)
	assert.Greater(t, res.Mean, 0.0)
}

func TestPricingEngine_SeedStudyErrors(t *testing.T) {
	engine := NewPricingEngine()
	_, err := engine.RunSeedStudy(context.Background(), SeedStudyConfig{Market: textbookMarket(5), Paths: 100, Replications: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidGridSize)

	_, err = engine.RunSeedStudy(context.Background(), SeedStudyConfig{Market: textbookMarket(5), Kind: domain.Put, Style: domain.European, Paths: 0, Replications: 3, BaseSeed: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidGridSize)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = engine.RunSeedStudy(ctx, SeedStudyConfig{Market: textbookMarket(5), Kind: domain.Put, Style: domain.European, Paths: 100, Replications: 3, BaseSeed: 1})
	assert.ErrorIs(t, err, context.Canceled)
}
