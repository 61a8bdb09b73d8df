package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// OptionKind selects the payoff function of an option
type OptionKind string

const (
	Put  OptionKind = "put"
	Call OptionKind = "call"
)

// ParseOptionKind accepts "put" or "call" in any case
func ParseOptionKind(s string) (OptionKind, error) {
	switch OptionKind(strings.ToLower(strings.TrimSpace(s))) {
	case Put:
		return Put, nil
	case Call:
		return Call, nil
	}
	return "", fmt.Errorf("unknown option kind %q (want put or call)", s)
}

// Payoff returns the intrinsic value of the option at the given underlying price.
func (k OptionKind) Payoff(spot, strike float64) float64 {
	if k == Call {
		return math.Max(spot-strike, 0)
	}
	return math.Max(strike-spot, 0)
}

// ExerciseStyle selects whether early exercise is allowed
type ExerciseStyle string

const (
	European ExerciseStyle = "european"
	American ExerciseStyle = "american"
)

// ParseExerciseStyle accepts "european" or "american" in any case
func ParseExerciseStyle(s string) (ExerciseStyle, error) {
	switch ExerciseStyle(strings.ToLower(strings.TrimSpace(s))) {
	case European:
		return European, nil
	case American:
		return American, nil
	}
	return "", fmt.Errorf("unknown exercise style %q (want european or american)", s)
}

// MarketParameters holds the scalar inputs of a single pricing invocation.
// Values are immutable by convention: procedures take the struct by value.
type MarketParameters struct {
	Spot       float64 `yaml:"spot" json:"spot"`
	Strike     float64 `yaml:"strike" json:"strike"`
	Rate       float64 `yaml:"rate" json:"rate"`
	Maturity   float64 `yaml:"maturity" json:"maturity"`
	Volatility float64 `yaml:"volatility" json:"volatility"`
	Steps      int     `yaml:"steps" json:"steps"`

	// Optional calendar form of the maturity, converted by the config layer.
	ValuationDate *time.Time `yaml:"valuation_date,omitempty" json:"valuation_date,omitempty"`
	ExpiryDate    *time.Time `yaml:"expiry_date,omitempty" json:"expiry_date,omitempty"`
	DayCount      string     `yaml:"day_count,omitempty" json:"day_count,omitempty"`

	// PriceHistory is a CSV of daily closes used by the config layer to
	// estimate the volatility (and the spot, when unset).
	PriceHistory string `yaml:"price_history,omitempty" json:"price_history,omitempty"`
}

// Validate checks the parameters every pricing procedure relies on.
func (p MarketParameters) Validate() error {
	switch {
	case !(p.Spot > 0):
		return fmt.Errorf("%w: spot must be positive, got %g", ErrInvalidMarketParameters, p.Spot)
	case !(p.Strike > 0):
		return fmt.Errorf("%w: strike must be positive, got %g", ErrInvalidMarketParameters, p.Strike)
	case !(p.Rate >= 0):
		return fmt.Errorf("%w: rate cannot be negative, got %g", ErrInvalidMarketParameters, p.Rate)
	case !(p.Maturity > 0):
		return fmt.Errorf("%w: maturity must be positive, got %g", ErrInvalidMarketParameters, p.Maturity)
	case !(p.Volatility > 0):
		return fmt.Errorf("%w: volatility must be positive, got %g", ErrInvalidMarketParameters, p.Volatility)
	case p.Steps <= 1:
		return fmt.Errorf("%w: need at least 2 time steps, got %d", ErrInvalidGridSize, p.Steps)
	}
	return nil
}

// WithSteps returns a copy using m time steps
func (p MarketParameters) WithSteps(m int) MarketParameters {
	p.Steps = m
	return p
}

// WithStrike returns a copy using strike k
func (p MarketParameters) WithStrike(k float64) MarketParameters {
	p.Strike = k
	return p
}

// StepLength is Δt = T/M.
func (p MarketParameters) StepLength() float64 {
	return p.Maturity / float64(p.Steps)
}

// StepDiscount is the per-step discount factor e^{-rΔt}.
func (p MarketParameters) StepDiscount() float64 {
	return math.Exp(-p.Rate * p.StepLength())
}

// UpFactor is u = e^{σ√Δt}.
func (p MarketParameters) UpFactor() float64 {
	return math.Exp(p.Volatility * math.Sqrt(p.StepLength()))
}

// DownFactor is d = 1/u, which makes the lattice recombine.
func (p MarketParameters) DownFactor() float64 {
	return 1 / p.UpFactor()
}

// RiskNeutralProbability returns q = (1/df - d)/(u - d). The lattice has no
// arbitrage only when 0 < q < 1; anything else is reported as invalid parameters.
func (p MarketParameters) RiskNeutralProbability() (float64, error) {
	u, d := p.UpFactor(), p.DownFactor()
	q := (1/p.StepDiscount() - d) / (u - d)
	if !(q > 0 && q < 1) {
		return 0, fmt.Errorf("%w: risk-neutral probability %g outside (0, 1) for rate %g, volatility %g, step %g",
			ErrInvalidMarketParameters, q, p.Rate, p.Volatility, p.StepLength())
	}
	return q, nil
}

// SimulationSettings configures the Monte Carlo engines.
type SimulationSettings struct {
	Paths  int    `yaml:"paths" json:"paths"`
	Seed   uint64 `yaml:"seed" json:"seed"`
	Degree int    `yaml:"degree" json:"degree"` // LSM regression degree
}

// Validate checks the path count.
func (s SimulationSettings) Validate() error {
	if s.Paths <= 0 {
		return fmt.Errorf("%w: need at least 1 path, got %d", ErrInvalidGridSize, s.Paths)
	}
	if s.Degree < 0 {
		return fmt.Errorf("%w: regression degree cannot be negative, got %d", ErrRegressionFailure, s.Degree)
	}
	return nil
}
