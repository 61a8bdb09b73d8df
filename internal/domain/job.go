package domain

import (
	"fmt"
	"strings"
	"time"
)

// PricingMethod selects the engine used for a job
type PricingMethod string

const (
	MethodLattice    PricingMethod = "lattice"
	MethodMonteCarlo PricingMethod = "monte_carlo"
)

// ParsePricingMethod accepts the canonical names plus a few spellings seen in configs.
func ParsePricingMethod(s string) (PricingMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lattice", "binomial", "tree":
		return MethodLattice, nil
	case "monte_carlo", "montecarlo", "mc", "lsm":
		return MethodMonteCarlo, nil
	}
	return "", fmt.Errorf("unknown pricing method %q (want lattice or monte_carlo)", s)
}

// PricingJob describes one option to value with one engine.
type PricingJob struct {
	Name   string        `yaml:"name" json:"name"`
	Method PricingMethod `yaml:"method" json:"method"`
	Kind   OptionKind    `yaml:"kind" json:"kind"`
	Style  ExerciseStyle `yaml:"style" json:"style"`
	Steps  int           `yaml:"steps" json:"steps"`
	Paths  int           `yaml:"paths,omitempty" json:"paths,omitempty"`
	Seed   uint64        `yaml:"seed,omitempty" json:"seed,omitempty"`
	Degree int           `yaml:"degree,omitempty" json:"degree,omitempty"`
	Strike *float64      `yaml:"strike,omitempty" json:"strike,omitempty"` // overrides market.strike
}

// Market returns the job's view of the shared market block.
func (j PricingJob) Market(base MarketParameters) MarketParameters {
	p := base
	if j.Steps > 0 {
		p.Steps = j.Steps
	}
	if j.Strike != nil {
		p.Strike = *j.Strike
	}
	return p
}

// Simulation returns the job's Monte Carlo settings, falling back to defaults.
func (j PricingJob) Simulation(defaults SimulationSettings) SimulationSettings {
	s := defaults
	if j.Paths > 0 {
		s.Paths = j.Paths
	}
	if j.Seed != 0 {
		s.Seed = j.Seed
	}
	if j.Degree > 0 {
		s.Degree = j.Degree
	}
	return s
}

// Configuration is the root of a pricing config file.
type Configuration struct {
	Market   MarketParameters   `yaml:"market" json:"market"`
	Defaults SimulationSettings `yaml:"defaults" json:"defaults"`
	Jobs     []PricingJob       `yaml:"jobs" json:"jobs"`
	Economy  *Economy           `yaml:"economy,omitempty" json:"economy,omitempty"`
}

// PricingResult is the outcome of a single job.
type PricingResult struct {
	Name     string        `json:"name"`
	Method   PricingMethod `json:"method"`
	Kind     OptionKind    `json:"kind"`
	Style    ExerciseStyle `json:"style"`
	Strike   float64       `json:"strike"`
	Steps    int           `json:"steps"`
	Paths    int           `json:"paths,omitempty"`
	Seed     uint64        `json:"seed,omitempty"`
	Price    float64       `json:"price"`
	StdError float64       `json:"std_error,omitempty"`
	// BlackScholes is the closed-form European price for the same inputs.
	BlackScholes float64 `json:"black_scholes"`
	// ExerciseBoundary lists the critical underlying price for early exercise at
	// each step where exercising is optimal somewhere. American lattice jobs only.
	ExerciseBoundary []BoundaryPoint `json:"exercise_boundary,omitempty"`
	Elapsed          time.Duration   `json:"elapsed"`
}

// BoundaryPoint is one step of an early-exercise boundary.
type BoundaryPoint struct {
	Step  int     `json:"step"`
	Time  float64 `json:"time"`
	Price float64 `json:"price"`
}

// PricingReport collects the results of a configuration run in job order.
type PricingReport struct {
	Market      MarketParameters `json:"market"`
	Results     []PricingResult  `json:"results"`
	GeneratedAt time.Time        `json:"generated_at"`
}
