package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/rpgo/pricer/internal/domain"
	"github.com/rpgo/pricer/internal/economy"
	"github.com/rpgo/pricer/internal/output"
)

func writeEconomy(w io.Writer, e domain.Economy) error {
	psi, err := economy.StatePrices(e)
	if err != nil {
		return err
	}
	q, err := economy.MartingaleMeasure(e)
	if err != nil {
		return err
	}
	rate, err := economy.ImpliedRate(e)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "STATIC ECONOMY")
	fmt.Fprintln(w, "================================")
	fmt.Fprintf(w, "States: %d  Securities: %d\n", e.States(), len(e.Securities))
	fmt.Fprintf(w, "State prices:       %s\n", joinPrices(psi))
	fmt.Fprintf(w, "Martingale measure: %s\n", joinPrices(q))
	fmt.Fprintf(w, "Riskless rate:      %s\n", output.FormatPrice(rate))

	if len(e.Claim) > 0 {
		rep, err := economy.Replicate(e, e.Claim)
		if err != nil {
			return err
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Claim %s\n", joinPrices(e.Claim))
		fmt.Fprintf(w, "  replicating holdings: %s\n", joinHoldings(e, rep.Holdings))
		fmt.Fprintf(w, "  arbitrage-free price: %s\n", output.FormatPrice(rep.Price))
	}

	if e.Budget > 0 {
		alloc, err := economy.MaximizeExpectedUtility(e, e.Budget)
		if err != nil {
			return err
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Log-utility investor with budget %s\n", output.FormatPrice(e.Budget))
		fmt.Fprintf(w, "  holdings:         %s\n", joinHoldings(e, alloc.Holdings))
		fmt.Fprintf(w, "  terminal wealth:  %s\n", joinPrices(alloc.Wealth))
		fmt.Fprintf(w, "  expected utility: %s\n", output.FormatPrice(alloc.ExpectedUtility))
	}
	return nil
}

func joinPrices(xs []float64) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = output.FormatPrice(x)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func joinHoldings(e domain.Economy, h []float64) string {
	parts := make([]string, len(h))
	for i, x := range h {
		parts[i] = fmt.Sprintf("%s=%s", e.Securities[i].Name, output.FormatPrice(x))
	}
	return strings.Join(parts, " ")
}
