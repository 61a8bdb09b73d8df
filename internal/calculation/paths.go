package calculation

import (
	"fmt"
	"math"

	"github.com/rpgo/pricer/internal/domain"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// PathMatrix holds simulated prices: row t is the cross-section of all paths at
// time step t, row 0 is the initial price.
type PathMatrix struct {
	data *mat.Dense
}

// SimulatePaths draws geometric Brownian motion paths with the Euler scheme on
// log prices. Normal variates come from a source seeded with settings.Seed and
// are consumed row by row (t = 1..M, path 0..I-1), so a seed reproduces the
// matrix bit for bit.
func SimulatePaths(p domain.MarketParameters, settings domain.SimulationSettings) (*PathMatrix, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	m, n := p.Steps, settings.Paths
	dt := p.StepLength()
	drift := (p.Rate - 0.5*p.Volatility*p.Volatility) * dt
	diffusion := p.Volatility * math.Sqrt(dt)

	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewSource(settings.Seed)}

	data := mat.NewDense(m+1, n, nil)
	prev := make([]float64, n)
	for j := range prev {
		prev[j] = p.Spot
	}
	data.SetRow(0, prev)

	row := make([]float64, n)
	for t := 1; t <= m; t++ {
		for j := 0; j < n; j++ {
			row[j] = prev[j] * math.Exp(drift+diffusion*normal.Rand())
		}
		data.SetRow(t, row)
		prev, row = row, prev
	}

	return &PathMatrix{data: data}, nil
}

// NewPathMatrix wraps externally generated paths given as rows of equal length
// (rows[t][j] = price of path j at step t).
func NewPathMatrix(rows [][]float64) (*PathMatrix, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 rows, got %d", domain.ErrInvalidGridSize, len(rows))
	}
	n := len(rows[0])
	if n == 0 {
		return nil, fmt.Errorf("%w: rows are empty", domain.ErrInvalidGridSize)
	}
	data := mat.NewDense(len(rows), n, nil)
	for t, r := range rows {
		if len(r) != n {
			return nil, fmt.Errorf("%w: row %d has %d paths, want %d", domain.ErrInvalidGridSize, t, len(r), n)
		}
		data.SetRow(t, r)
	}
	return &PathMatrix{data: data}, nil
}

// Steps returns M.
func (pm *PathMatrix) Steps() int {
	r, _ := pm.data.Dims()
	return r - 1
}

// Paths returns I.
func (pm *PathMatrix) Paths() int {
	_, c := pm.data.Dims()
	return c
}

// At returns the price of path j at step t.
func (pm *PathMatrix) At(t, j int) float64 { return pm.data.At(t, j) }

// Row returns a copy of the cross-section at step t.
func (pm *PathMatrix) Row(t int) []float64 {
	if t < 0 || t > pm.Steps() {
		panic(fmt.Sprintf("paths: step %d outside [0, %d]", t, pm.Steps()))
	}
	return mat.Row(nil, t, pm.data)
}

// Matrix exposes the underlying (M+1)xI matrix read-only.
func (pm *PathMatrix) Matrix() mat.Matrix { return pm.data }

// TerminalMean is the sample mean of S_T, which tends to S0*e^{rT}.
func (pm *PathMatrix) TerminalMean() float64 {
	return stat.Mean(pm.Row(pm.Steps()), nil)
}
