package domain

// Security is a traded asset of a static economy: a price today and one payoff
// per future state.
type Security struct {
	Name   string    `yaml:"name" json:"name"`
	Price  float64   `yaml:"price" json:"price"`
	Payoff []float64 `yaml:"payoff" json:"payoff"`
}

// Economy is a one-period economy with finitely many states.
type Economy struct {
	Probabilities []float64  `yaml:"probabilities" json:"probabilities"`
	Securities    []Security `yaml:"securities" json:"securities"`
	// Budget is the initial wealth used by the utility maximization.
	Budget float64 `yaml:"budget,omitempty" json:"budget,omitempty"`
	// Claim is an optional contingent claim to replicate.
	Claim []float64 `yaml:"claim,omitempty" json:"claim,omitempty"`
}

// States returns the number of future states.
func (e Economy) States() int { return len(e.Probabilities) }
