package main

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/Funding/internal/policy"
	"github.com/MikeSquared-Agency/Funding/internal/scenario"
	"github.com/MikeSquared-Agency/Funding/internal/stats"
)

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Evaluate one reform against the snapshots",
		Example: `  fundingctl simulate --geography US --rate 10 --repeal ctc,fedtaxac --exclude children
  fundingctl simulate --geography Ohio --level state --rate 5 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			geo, _ := cmd.Flags().GetString("geography")
			level, _ := cmd.Flags().GetString("level")
			rate, _ := cmd.Flags().GetFloat64("rate")
			repeal, _ := cmd.Flags().GetStringSlice("repeal")
			exclude, _ := cmd.Flags().GetStringSlice("exclude")
			jsonOut, _ := cmd.Flags().GetBool("json")

			params, err := buildParams(geo, level, rate, repeal, exclude)
			if err != nil {
				return err
			}

			engine, closeFn, err := newEngine(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			ev, err := engine.Evaluate(cmd.Context(), params)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), ev)
			}
			printEvaluation(cmd.OutOrStdout(), ev)
			return nil
		},
	}

	cmd.Flags().String("geography", "US", "US or a state name")
	cmd.Flags().String("level", string(policy.LevelFederal), "federal or state")
	cmd.Flags().Float64("rate", 0, "Flat tax on AGI, in percent")
	cmd.Flags().StringSlice("repeal", nil, "Programs to repeal (ctc, incssi, spmsnap, eitcred, incunemp, spmheat, fedtaxac, fica)")
	cmd.Flags().StringSlice("exclude", nil, "Groups left out of the UBI (children, non_citizens, adults)")
	return cmd
}

// buildParams sorts repealed programs into benefits and taxes and turns
// the excluded groups into the included set.
func buildParams(geo, level string, rate float64, repeal, exclude []string) (policy.Params, error) {
	p := policy.Params{Geography: geo, Level: level, TaxRate: rate}
	for _, k := range repeal {
		prog, err := policy.ParseProgram(k)
		if err != nil {
			return policy.Params{}, err
		}
		if prog.Kind() == policy.KindTax {
			p.Taxes = append(p.Taxes, k)
		} else {
			p.Benefits = append(p.Benefits, k)
		}
	}
	var excluded []policy.Group
	for _, k := range exclude {
		g, err := policy.ParseGroup(k)
		if err != nil {
			return policy.Params{}, err
		}
		excluded = append(excluded, g)
	}
	for _, g := range policy.Groups() {
		if !slices.Contains(excluded, g) {
			p.Include = append(p.Include, string(g))
		}
	}
	return p, nil
}

func newEngine(cmd *cobra.Command) (*scenario.Engine, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	s, err := openStore(cmd, cfg)
	if err != nil {
		return nil, nil, err
	}
	logger := cliLogger(cmd)
	snap, err := scenario.Load(cmd.Context(), s, logger)
	if err != nil {
		s.Close()
		return nil, nil, err
	}
	engine := scenario.NewEngine(snap, scenario.Options{
		Rules:             cfg.Rules(),
		MaxTaxRatePercent: cfg.Policy.MaxTaxRatePercent,
		Logger:            logger,
	})
	return engine, func() { s.Close() }, nil
}

func printEvaluation(w io.Writer, ev *scenario.Evaluation) {
	for _, line := range ev.Summary {
		fmt.Fprintln(w, line)
	}
	b := ev.Bundle
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-28s %14s %14s %9s\n", "Indicator", "Baseline", "Reform", "Change")
	printIndicator(w, b.PovertyRate)
	printIndicator(w, b.PovertyGap)
	printIndicator(w, b.Gini)
	for _, ind := range b.Breakdown {
		printIndicator(w, ind)
	}
}

func printIndicator(w io.Writer, ind stats.Indicator) {
	change := "n/a"
	if ind.Change != nil {
		change = fmt.Sprintf("%+.1f%%", *ind.Change*100)
	}
	fmt.Fprintf(w, "%-28s %14.4g %14.4g %9s\n", ind.Label, ind.Baseline, ind.Reformed, change)
}
