package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rpgo/pricer/internal/calculation"
	"github.com/rpgo/pricer/internal/domain"
	"github.com/rpgo/pricer/pkg/dateutil"
	"gopkg.in/yaml.v3"
)

// InputParser handles parsing of pricing configuration files
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile loads configuration from a YAML (or JSON) file
func (ip *InputParser) LoadFromFile(filename string) (*domain.Configuration, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.parse(data, filepath.Dir(filename))
}

// Parse decodes and validates a configuration document. A relative
// market.price_history is resolved against the working directory.
func (ip *InputParser) Parse(data []byte) (*domain.Configuration, error) {
	return ip.parse(data, "")
}

func (ip *InputParser) parse(data []byte, baseDir string) (*domain.Configuration, error) {
	var config domain.Configuration
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := ip.resolveMaturity(&config.Market); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	if err := ip.resolveVolatility(&config.Market, baseDir); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	ip.applyDefaults(&config)

	if err := ip.ValidateConfiguration(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// resolveMaturity derives market.maturity from valuation/expiry dates when it is not set
func (ip *InputParser) resolveMaturity(market *domain.MarketParameters) error {
	if market.ExpiryDate == nil {
		if market.ValuationDate != nil {
			return fmt.Errorf("market.valuation_date requires market.expiry_date")
		}
		return nil
	}
	if market.Maturity != 0 {
		return fmt.Errorf("market: specify either maturity or expiry_date, not both")
	}
	dc, err := dateutil.ParseDayCount(market.DayCount)
	if err != nil {
		return fmt.Errorf("market.day_count: %w", err)
	}
	valuation := time.Now().UTC()
	if market.ValuationDate != nil {
		valuation = *market.ValuationDate
	}
	market.Maturity = dateutil.YearFraction(valuation, *market.ExpiryDate, dc)
	return nil
}

// resolveVolatility estimates market.volatility from market.price_history.
// An explicit volatility takes precedence and the file is not read.
func (ip *InputParser) resolveVolatility(market *domain.MarketParameters, baseDir string) error {
	if market.PriceHistory == "" || market.Volatility != 0 {
		return nil
	}
	path := market.PriceHistory
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}
	history, err := calculation.LoadPriceHistory(path)
	if err != nil {
		return fmt.Errorf("market.price_history: %w", err)
	}
	market.Volatility = history.Volatility()
	if market.Spot == 0 {
		market.Spot = history.LastClose()
	}
	return nil
}

func (ip *InputParser) applyDefaults(config *domain.Configuration) {
	if config.Defaults.Degree == 0 {
		config.Defaults.Degree = 5
	}
	for i := range config.Jobs {
		job := &config.Jobs[i]
		// Canonicalize spellings; unknown values are left for validation to report.
		if m, err := domain.ParsePricingMethod(string(job.Method)); err == nil {
			job.Method = m
		}
		if k, err := domain.ParseOptionKind(string(job.Kind)); err == nil {
			job.Kind = k
		}
		if s, err := domain.ParseExerciseStyle(string(job.Style)); err == nil {
			job.Style = s
		}
		if job.Kind == "" {
			job.Kind = domain.Put
		}
		if job.Style == "" {
			job.Style = domain.European
		}
		if job.Name == "" {
			job.Name = fmt.Sprintf("%s-%s-%s", job.Method, job.Style, job.Kind)
		}
	}
}

// ValidateConfiguration validates the loaded configuration
func (ip *InputParser) ValidateConfiguration(config *domain.Configuration) error {
	if err := ip.validateMarket(&config.Market); err != nil {
		return fmt.Errorf("market validation failed: %w", err)
	}

	if len(config.Jobs) == 0 && config.Economy == nil {
		return fmt.Errorf("no jobs provided")
	}

	names := make(map[string]bool, len(config.Jobs))
	for i, job := range config.Jobs {
		if err := ip.validateJob(config, &job); err != nil {
			return fmt.Errorf("job %d (%s) validation failed: %w", i, job.Name, err)
		}
		if names[job.Name] {
			return fmt.Errorf("job %d: duplicate job name %q", i, job.Name)
		}
		names[job.Name] = true
	}

	if config.Economy != nil {
		if len(config.Economy.Probabilities) == 0 {
			return fmt.Errorf("economy validation failed: no states provided")
		}
		if len(config.Economy.Securities) == 0 {
			return fmt.Errorf("economy validation failed: no securities provided")
		}
	}

	return nil
}

// validateMarket checks the shared market block; steps may be left to the jobs
func (ip *InputParser) validateMarket(market *domain.MarketParameters) error {
	m := *market
	if m.Steps == 0 {
		m.Steps = 2
	}
	return m.Validate()
}

// validateJob validates a single pricing job against the shared market block
func (ip *InputParser) validateJob(config *domain.Configuration, job *domain.PricingJob) error {
	if _, err := domain.ParsePricingMethod(string(job.Method)); err != nil {
		return err
	}
	if _, err := domain.ParseOptionKind(string(job.Kind)); err != nil {
		return err
	}
	if _, err := domain.ParseExerciseStyle(string(job.Style)); err != nil {
		return err
	}

	p := job.Market(config.Market)
	if err := p.Validate(); err != nil {
		return err
	}
	if _, err := p.RiskNeutralProbability(); err != nil && job.Method == domain.MethodLattice {
		return err
	}

	if job.Method == domain.MethodMonteCarlo {
		sim := job.Simulation(config.Defaults)
		if err := sim.Validate(); err != nil {
			return err
		}
		if job.Style == domain.American && sim.Degree >= sim.Paths {
			return fmt.Errorf("%w: degree %d needs more than %d paths", domain.ErrRegressionFailure, sim.Degree, sim.Paths)
		}
	}
	return nil
}

// CreateExampleConfiguration creates the textbook configuration: an at-the-money
// neighbourhood put (S0=36, K=40) priced on lattices and by simulation.
func (ip *InputParser) CreateExampleConfiguration() *domain.Configuration {
	strike44 := 44.0
	return &domain.Configuration{
		Market: domain.MarketParameters{
			Spot:       36,
			Strike:     40,
			Rate:       0.06,
			Maturity:   1,
			Volatility: 0.2,
			Steps:      50,
		},
		Defaults: domain.SimulationSettings{Paths: 25000, Seed: 150000, Degree: 5},
		Jobs: []domain.PricingJob{
			{Name: "lattice-european-put", Method: domain.MethodLattice, Kind: domain.Put, Style: domain.European, Steps: 500},
			{Name: "lattice-american-put", Method: domain.MethodLattice, Kind: domain.Put, Style: domain.American, Steps: 500},
			{Name: "lattice-american-put-k44", Method: domain.MethodLattice, Kind: domain.Put, Style: domain.American, Steps: 500, Strike: &strike44},
			{Name: "mc-european-put", Method: domain.MethodMonteCarlo, Kind: domain.Put, Style: domain.European},
			{Name: "lsm-american-put", Method: domain.MethodMonteCarlo, Kind: domain.Put, Style: domain.American},
		},
		Economy: &domain.Economy{
			Probabilities: []float64{0.5, 0.5},
			Securities: []domain.Security{
				{Name: "bond", Price: 10, Payoff: []float64{11, 11}},
				{Name: "stock", Price: 10, Payoff: []float64{20, 5}},
			},
			Budget: 10,
			Claim:  []float64{5.5, 0},
		},
	}
}
