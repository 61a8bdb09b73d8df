package output

import (
	"encoding/json"

	"github.com/rpgo/pricer/internal/domain"
)

// JSONFormatter serializes the pricing report as pretty-printed JSON.
type JSONFormatter struct{}

func (j JSONFormatter) Name() string      { return "json" }
func (j JSONFormatter) Extension() string { return "json" }

func (j JSONFormatter) Format(report *domain.PricingReport) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}
