package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/Funding/internal/preprocess"
)

func newPreprocessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preprocess",
		Short: "Convert a raw CPS ASEC extract into snapshots",
		Long: `Reads a person-level CPS ASEC extract (CSV, optionally gzipped), zeroes
not-in-universe codes, derives demographic flags and household sizes,
pools weights over the survey years and writes the person, household
and baseline snapshots.`,
		Example: `  fundingctl preprocess --input cps_00041.csv.gz --data data --years 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, _ := cmd.Flags().GetString("input")
			years, _ := cmd.Flags().GetInt("years")
			jsonOut, _ := cmd.Flags().GetBool("json")
			logger := cliLogger(cmd)

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				if err := os.MkdirAll(cfg.Snapshots.Dir, 0o755); err != nil {
					return fmt.Errorf("create snapshot directory: %w", err)
				}
			}

			persons, err := preprocess.ReadFile(cmd.Context(), input, preprocess.Options{Years: years})
			if err != nil {
				return fmt.Errorf("read extract: %w", err)
			}
			out, err := preprocess.Build(persons)
			if err != nil {
				return err
			}

			s, err := openStore(cmd, cfg)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := out.Save(cmd.Context(), s, logger); err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string]int{
					"persons":     len(out.Persons),
					"households":  len(out.Households),
					"geographies": len(out.Geography),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d persons, %d households and baselines for %d geographies to %s\n",
				len(out.Persons), len(out.Households), len(out.Geography), cfg.Snapshots.Dir)
			return nil
		},
	}

	cmd.Flags().String("input", "", "Raw extract (.csv or .csv.gz)")
	cmd.Flags().Int("years", 0, "Pooled survey years to divide weights by (0 counts them)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
