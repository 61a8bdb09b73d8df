package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/rpgo/pricer/internal/domain"
)

// ConsoleFormatter renders a human readable table of the results followed by
// the early-exercise premiums and the exercise boundaries.
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string      { return "console" }
func (c ConsoleFormatter) Extension() string { return "txt" }

func (c ConsoleFormatter) Format(report *domain.PricingReport) ([]byte, error) {
	var buf bytes.Buffer
	m := report.Market
	fmt.Fprintln(&buf, "OPTION PRICING REPORT")
	fmt.Fprintln(&buf, "================================")
	fmt.Fprintf(&buf, "Spot=%s Strike=%s Rate=%g Volatility=%g Maturity=%g\n",
		FormatPrice(m.Spot), FormatPrice(m.Strike), m.Rate, m.Volatility, m.Maturity)
	fmt.Fprintln(&buf)

	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "JOB\tMETHOD\tSTYLE\tKIND\tSTRIKE\tGRID\tPRICE\tSTD ERR\tBSM\tVS BSM")
	for _, r := range report.Results {
		grid := fmt.Sprintf("M=%d", r.Steps)
		stdErr := "-"
		if r.Method == domain.MethodMonteCarlo {
			grid = fmt.Sprintf("M=%d I=%d", r.Steps, r.Paths)
			stdErr = FormatPrice(r.StdError)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Name, r.Method, r.Style, r.Kind, FormatPrice(r.Strike), grid,
			FormatPrice(r.Price), stdErr, FormatPrice(r.BlackScholes), FormatRelativeError(r.Price, r.BlackScholes))
	}
	if err := tw.Flush(); err != nil {
		return nil, err
	}

	if premiums := EarlyExercisePremiums(report); len(premiums) > 0 {
		fmt.Fprintln(&buf)
		fmt.Fprintln(&buf, "EARLY EXERCISE PREMIUMS")
		for _, p := range premiums {
			fmt.Fprintf(&buf, "%s vs %s: %s (%s)\n", p.American, p.European, p.Premium, FormatPercentage(p.Percentage))
		}
	}

	for _, r := range report.Results {
		if len(r.ExerciseBoundary) == 0 {
			continue
		}
		fmt.Fprintln(&buf)
		fmt.Fprintf(&buf, "EXERCISE BOUNDARY (%s)\n", r.Name)
		for _, b := range r.ExerciseBoundary {
			fmt.Fprintf(&buf, "  t=%.4f step=%d S*=%s\n", b.Time, b.Step, FormatPrice(b.Price))
		}
	}
	return buf.Bytes(), nil
}
