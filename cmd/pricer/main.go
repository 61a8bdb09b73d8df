package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/rpgo/pricer/internal/calculation"
	"github.com/rpgo/pricer/internal/config"
	"github.com/rpgo/pricer/internal/domain"
	"github.com/rpgo/pricer/internal/output"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	verbose bool
	format  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "pricer",
		Short:        "Price European and American options on binomial lattices and by Monte Carlo",
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log engine progress to stderr")
	root.PersistentFlags().StringVarP(&opts.format, "format", "f", "console", "output format (console, json, csv)")

	root.AddCommand(
		newLatticeCmd(opts),
		newMonteCarloCmd(opts),
		newRunCmd(opts),
		newEconomyCmd(),
		newExampleConfigCmd(),
	)
	return root
}

// newEngine returns an engine logging through slog when --verbose is set.
func newEngine(cmd *cobra.Command, opts *rootOptions) *calculation.PricingEngine {
	engine := calculation.NewPricingEngine()
	if opts.verbose {
		handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug})
		engine.SetLogger(calculation.NewSlogLogger(slog.New(handler)))
	}
	return engine
}

// jobFlags are the per-option flags shared by the single-job commands.
type jobFlags struct {
	market domain.MarketParameters
	kind   string
	style  string
	sim    domain.SimulationSettings
}

func addMarketFlags(cmd *cobra.Command, f *jobFlags, steps int) {
	fl := cmd.Flags()
	fl.Float64Var(&f.market.Spot, "spot", 36, "spot price S0")
	fl.Float64Var(&f.market.Strike, "strike", 40, "strike K")
	fl.Float64Var(&f.market.Rate, "rate", 0.06, "continuously compounded short rate r")
	fl.Float64Var(&f.market.Maturity, "maturity", 1, "time to maturity T in years")
	fl.Float64Var(&f.market.Volatility, "volatility", 0.2, "volatility sigma")
	fl.IntVar(&f.market.Steps, "steps", steps, "number of time steps M")
	fl.StringVar(&f.market.PriceHistory, "price-history", "", "CSV of daily closes (date,close) to estimate volatility and spot from")
	fl.StringVar(&f.kind, "kind", "put", "option kind (put or call)")
	fl.StringVar(&f.style, "style", "european", "exercise style (european or american)")
}

func (f *jobFlags) job(method domain.PricingMethod) (domain.PricingJob, error) {
	kind, err := domain.ParseOptionKind(f.kind)
	if err != nil {
		return domain.PricingJob{}, err
	}
	style, err := domain.ParseExerciseStyle(f.style)
	if err != nil {
		return domain.PricingJob{}, err
	}
	return domain.PricingJob{
		Name:   fmt.Sprintf("%s-%s-%s", method, style, kind),
		Method: method,
		Kind:   kind,
		Style:  style,
	}, nil
}

func priceSingle(cmd *cobra.Command, opts *rootOptions, f *jobFlags, method domain.PricingMethod) error {
	job, err := f.job(method)
	if err != nil {
		return err
	}
	market := f.market
	if market.PriceHistory != "" && !cmd.Flags().Changed("volatility") {
		history, err := calculation.LoadPriceHistory(market.PriceHistory)
		if err != nil {
			return err
		}
		market.Volatility = history.Volatility()
		if !cmd.Flags().Changed("spot") {
			market.Spot = history.LastClose()
		}
	}
	cfg := &domain.Configuration{Market: market, Defaults: f.sim, Jobs: []domain.PricingJob{job}}
	if err := config.NewInputParser().ValidateConfiguration(cfg); err != nil {
		return err
	}
	report, err := newEngine(cmd, opts).RunAll(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	return output.WriteReport(cmd.OutOrStdout(), report, opts.format)
}

func newLatticeCmd(opts *rootOptions) *cobra.Command {
	f := &jobFlags{}
	cmd := &cobra.Command{
		Use:   "lattice",
		Short: "Price an option by backward induction on a CRR binomial lattice",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return priceSingle(cmd, opts, f, domain.MethodLattice)
		},
	}
	addMarketFlags(cmd, f, 50)
	return cmd
}

func newMonteCarloCmd(opts *rootOptions) *cobra.Command {
	f := &jobFlags{}
	cmd := &cobra.Command{
		Use:     "montecarlo",
		Aliases: []string{"mc", "lsm"},
		Short:   "Price an option by simulation (Least-Squares Monte Carlo for american style)",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return priceSingle(cmd, opts, f, domain.MethodMonteCarlo)
		},
	}
	addMarketFlags(cmd, f, 50)
	cmd.Flags().IntVar(&f.sim.Paths, "paths", 25000, "number of simulated paths I")
	cmd.Flags().Uint64Var(&f.sim.Seed, "seed", 150000, "random seed")
	cmd.Flags().IntVar(&f.sim.Degree, "degree", calculation.DefaultRegressionDegree, "LSM polynomial degree")
	return cmd
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	var configPath, outputDir string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Price every job of a YAML configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.NewInputParser().LoadFromFile(configPath)
			if err != nil {
				return err
			}
			if len(cfg.Jobs) == 0 {
				return fmt.Errorf("%s has no jobs; use the economy command for economy blocks", configPath)
			}
			report, err := newEngine(cmd, opts).RunAll(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if outputDir != "" {
				path, err := output.GenerateReport(report, opts.format, outputDir)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "report written to %s\n", path)
				return nil
			}
			return output.WriteReport(cmd.OutOrStdout(), report, opts.format)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the YAML configuration")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "write a timestamped report file to this directory instead of stdout")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func newEconomyCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "economy",
		Short: "Analyse the static economy block of a configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.NewInputParser().LoadFromFile(configPath)
			if err != nil {
				return err
			}
			if cfg.Economy == nil {
				return fmt.Errorf("%s has no economy block", configPath)
			}
			return writeEconomy(cmd.OutOrStdout(), *cfg.Economy)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the YAML configuration")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func newExampleConfigCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "example-config",
		Short: "Print (or save) an example configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.NewInputParser().CreateExampleConfiguration()
			if outPath != "" {
				return output.SaveConfiguration(cfg, outPath)
			}
			b, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write the configuration to this file")
	return cmd
}
