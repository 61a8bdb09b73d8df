package output

import (
	"strconv"

	"github.com/rpgo/pricer/pkg/decimal"
	shop "github.com/shopspring/decimal"
)

// FormatPrice renders a price with the quote precision (4 dp).
func FormatPrice(price float64) string { return decimal.NewQuote(price).String() }

// FormatPercentage formats a decimal as a percentage with 2 decimals.
func FormatPercentage(amount shop.Decimal) string { return amount.StringFixed(2) + "%" }

// FormatRelativeError renders (price-ref)/ref in percent.
func FormatRelativeError(price, ref float64) string {
	return FormatPercentage(decimal.NewQuote(price).RelativeTo(decimal.NewQuote(ref)))
}

func intToString(v int) string { return strconv.Itoa(v) }
