package output

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/rpgo/pricer/internal/domain"
)

// CSVFormatter writes one row per pricing result, in job order.
type CSVFormatter struct{}

func (c CSVFormatter) Name() string      { return "csv" }
func (c CSVFormatter) Extension() string { return "csv" }

func (c CSVFormatter) Format(report *domain.PricingReport) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"Name", "Method", "Style", "Kind", "Strike", "Steps", "Paths", "Seed", "Price", "StdError", "BlackScholes", "ElapsedMs"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, r := range report.Results {
		stdErr := ""
		if r.Method == domain.MethodMonteCarlo {
			stdErr = FormatPrice(r.StdError)
		}
		row := []string{
			r.Name,
			string(r.Method),
			string(r.Style),
			string(r.Kind),
			FormatPrice(r.Strike),
			intToString(r.Steps),
			intToString(r.Paths),
			strconv.FormatUint(r.Seed, 10),
			FormatPrice(r.Price),
			stdErr,
			FormatPrice(r.BlackScholes),
			strconv.FormatInt(r.Elapsed.Milliseconds(), 10),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
