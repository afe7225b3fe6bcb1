package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/Funding/internal/stats"
)

func newBaselineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Show the pre-reform statistics of a geography",
		RunE: func(cmd *cobra.Command, args []string) error {
			geo, _ := cmd.Flags().GetString("geography")
			jsonOut, _ := cmd.Flags().GetBool("json")

			engine, closeFn, err := newEngine(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			v, err := engine.Baseline(geo)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), v)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", v.Geography)
			fmt.Fprintf(out, "  Poverty gap:     $%s\n", humanize.Commaf(stats.Round(v.PovertyGap, 0)))
			fmt.Fprintf(out, "  Gini:            %.4f\n", v.Gini)
			fmt.Fprintf(out, "  Total resources: $%s\n", humanize.Commaf(stats.Round(v.TotalResources, 0)))
			fmt.Fprintln(out)
			fmt.Fprintf(out, "  %-36s %12s %14s\n", "Demographic", "Poverty rate", "Population")
			for _, d := range v.Demographics {
				fmt.Fprintf(out, "  %-36s %11.1f%% %14s\n",
					d.Demographic.Label(), d.PovertyRate*100, humanize.Comma(int64(stats.Round(d.Population, 0))))
			}
			return nil
		},
	}

	cmd.Flags().String("geography", "US", "US or a state name")
	return cmd
}
