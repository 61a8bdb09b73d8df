package decimal

import (
	"github.com/shopspring/decimal"
)

// QuotePlaces is the number of decimal places prices are quoted to
const QuotePlaces = 4

// Quote is a price rounded for display. Calculations stay in float64; Quote
// only exists at the reporting boundary.
type Quote struct {
	decimal.Decimal
}

// NewQuote creates a Quote from a float64
func NewQuote(value float64) Quote {
	return Quote{decimal.NewFromFloat(value)}
}

// NewQuoteFromString parses a decimal string
func NewQuoteFromString(value string) (Quote, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Quote{}, err
	}
	return Quote{d}, nil
}

// Round rounds to QuotePlaces
func (q Quote) Round() Quote {
	return Quote{q.Decimal.Round(QuotePlaces)}
}

// String renders with exactly QuotePlaces decimals
func (q Quote) String() string {
	return q.Decimal.StringFixed(QuotePlaces)
}

// Sub returns q - other
func (q Quote) Sub(other Quote) Quote {
	return Quote{q.Decimal.Sub(other.Decimal)}
}

// RelativeTo returns (q - ref) / ref as a percentage. A zero reference gives zero.
func (q Quote) RelativeTo(ref Quote) decimal.Decimal {
	if ref.IsZero() {
		return decimal.Zero
	}
	return q.Decimal.Sub(ref.Decimal).Div(ref.Decimal).Mul(decimal.NewFromInt(100))
}

// Equal compares the rounded values
func (q Quote) Equal(other Quote) bool {
	return q.Round().Decimal.Equal(other.Round().Decimal)
}
