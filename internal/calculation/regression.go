package calculation

import (
	"fmt"
	"math"
	"slices"

	"github.com/rpgo/pricer/internal/domain"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DefaultRegressionDegree is the polynomial degree of the LSM continuation-value fit.
const DefaultRegressionDegree = 5

// Polynomial holds coefficients in ascending powers: p[0] + p[1]x + p[2]x^2 + ...
type Polynomial []float64

// Degree returns the polynomial degree.
func (p Polynomial) Degree() int { return len(p) - 1 }

// Eval evaluates the polynomial at x with Horner's scheme.
func (p Polynomial) Eval(x float64) float64 {
	var v float64
	for i := len(p) - 1; i >= 0; i-- {
		v = v*x + p[i]
	}
	return v
}

// EvalAll evaluates the polynomial at every x, writing into dst when it is
// long enough.
func (p Polynomial) EvalAll(dst, xs []float64) []float64 {
	if len(dst) < len(xs) {
		dst = make([]float64, len(xs))
	}
	dst = dst[:len(xs)]
	for i, x := range xs {
		dst[i] = p.Eval(x)
	}
	return dst
}

// FitPolynomial returns the ordinary least-squares polynomial of the given
// degree through (x, y). Columns of the Vandermonde design are scaled to unit
// norm before the QR solve and the scaling is undone on the coefficients.
//
// The fit fails with domain.ErrRegressionFailure when x has no more than
// degree distinct values, when gonum reports the design as ill-conditioned,
// or when the coefficients are not finite.
func FitPolynomial(x, y []float64, degree int) (Polynomial, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d x values for %d y values", domain.ErrRegressionFailure, len(x), len(y))
	}
	if degree < 0 {
		return nil, fmt.Errorf("%w: negative degree %d", domain.ErrRegressionFailure, degree)
	}
	k := degree + 1
	if !hasDistinct(x, k) {
		return nil, fmt.Errorf("%w: degree %d needs at least %d distinct x values", domain.ErrRegressionFailure, degree, k)
	}

	n := len(x)
	design := mat.NewDense(n, k, nil)
	scale := make([]float64, k)
	col := make([]float64, n)
	for i := range col {
		col[i] = 1
	}
	for j := 0; j < k; j++ {
		if j > 0 {
			floats.Mul(col, x)
		}
		norm := floats.Norm(col, 2)
		if norm == 0 || math.IsInf(norm, 0) || math.IsNaN(norm) {
			return nil, fmt.Errorf("%w: design column %d has norm %g", domain.ErrRegressionFailure, j, norm)
		}
		scale[j] = norm
		scaled := make([]float64, n)
		floats.ScaleTo(scaled, 1/norm, col)
		design.SetCol(j, scaled)
	}

	var beta mat.VecDense
	if err := beta.SolveVec(design, mat.NewVecDense(n, slices.Clone(y))); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRegressionFailure, err)
	}

	coeffs := make(Polynomial, k)
	for j := range coeffs {
		c := beta.AtVec(j) / scale[j]
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("%w: coefficient %d is %g", domain.ErrRegressionFailure, j, c)
		}
		coeffs[j] = c
	}
	return coeffs, nil
}

// hasDistinct reports whether xs contains at least k distinct values.
func hasDistinct(xs []float64, k int) bool {
	seen := make([]float64, 0, k)
	for _, v := range xs {
		if slices.Contains(seen, v) {
			continue
		}
		seen = append(seen, v)
		if len(seen) >= k {
			return true
		}
	}
	return false
}
