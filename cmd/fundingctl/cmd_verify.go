package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/Funding/internal/survey"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that the household snapshot matches its persons",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			s, err := openStore(cmd, cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			persons, err := s.LoadPersons(cmd.Context())
			if err != nil {
				return fmt.Errorf("load persons: %w", err)
			}
			households, err := s.LoadHouseholds(cmd.Context())
			if err != nil {
				return fmt.Errorf("load households: %w", err)
			}
			verr := survey.Verify(households, persons)

			if jsonOut {
				res := map[string]any{
					"persons":    len(persons),
					"households": len(households),
					"ok":         verr == nil,
				}
				if verr != nil {
					res["error"] = verr.Error()
				}
				if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
					return err
				}
				return verr
			}
			if verr != nil {
				return verr
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK: %d households match %d persons\n", len(households), len(persons))
			return nil
		},
	}
}
