package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/Funding/internal/config"
	"github.com/MikeSquared-Agency/Funding/internal/store"
)

func main() {
	_ = godotenv.Load()

	rootCmd := newRootCmd()
	rootCmd.AddCommand(
		newPreprocessCmd(),
		newSimulateCmd(),
		newBaselineCmd(),
		newVerifyCmd(),
		newEventsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fundingctl",
		Short: "Build snapshots and evaluate UBI funding scenarios offline",
		Long: `fundingctl turns a CPS ASEC extract into population snapshots and
evaluates flat-tax UBI reforms against them without a running server.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("config", "", "Config file (.yaml or .toml)")
	rootCmd.PersistentFlags().String("data", "", "Snapshot directory (overrides snapshots.dir)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log progress to stderr")
	return rootCmd
}

// loadConfig reads --config and applies --data.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if dir, _ := cmd.Flags().GetString("data"); dir != "" {
		cfg.Snapshots.Dir = dir
	}
	return cfg, nil
}

func openStore(cmd *cobra.Command, cfg *config.Config) (store.ReadWriter, error) {
	return store.Open(cmd.Context(), cfg.Database.URL, cfg.Snapshots.Dir, cfg.Snapshots.Files)
}

func cliLogger(cmd *cobra.Command) *slog.Logger {
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
