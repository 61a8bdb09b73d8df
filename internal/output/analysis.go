package output

import (
	"github.com/rpgo/pricer/internal/domain"
	"github.com/rpgo/pricer/pkg/decimal"
	shop "github.com/shopspring/decimal"
)

// Premium is the value of the early-exercise right for one contract: the
// American price minus the European price from the same engine.
type Premium struct {
	Method domain.PricingMethod
	Kind   domain.OptionKind
	Strike float64

	// Names of the paired results.
	American string
	European string

	AmericanPrice float64
	EuropeanPrice float64
	Premium       decimal.Quote
	// Percentage is the premium relative to the European price.
	Percentage shop.Decimal
}

type contractKey struct {
	method domain.PricingMethod
	kind   domain.OptionKind
	strike float64
}

// EarlyExercisePremiums pairs each American result with the first European
// result of the same method, kind and strike. Unpaired results are skipped.
// The output follows the order of the American results.
func EarlyExercisePremiums(report *domain.PricingReport) []Premium {
	european := make(map[contractKey]domain.PricingResult)
	for _, r := range report.Results {
		if r.Style != domain.European {
			continue
		}
		k := contractKey{r.Method, r.Kind, r.Strike}
		if _, ok := european[k]; !ok {
			european[k] = r
		}
	}

	var premiums []Premium
	for _, r := range report.Results {
		if r.Style != domain.American {
			continue
		}
		eu, ok := european[contractKey{r.Method, r.Kind, r.Strike}]
		if !ok {
			continue
		}
		am, euQ := decimal.NewQuote(r.Price), decimal.NewQuote(eu.Price)
		premiums = append(premiums, Premium{
			Method:        r.Method,
			Kind:          r.Kind,
			Strike:        r.Strike,
			American:      r.Name,
			European:      eu.Name,
			AmericanPrice: r.Price,
			EuropeanPrice: eu.Price,
			Premium:       am.Sub(euQ),
			Percentage:    am.RelativeTo(euQ),
		})
	}
	return premiums
}
