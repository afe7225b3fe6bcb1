package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/Funding/internal/hermes"
)

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print scenario events published by a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			url, _ := cmd.Flags().GetString("url")
			subject, _ := cmd.Flags().GetString("subject")

			if url == "" {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				url = cfg.Hermes.URL
			}
			if url == "" {
				return errors.New("no NATS url: set --url or hermes.url")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client, err := hermes.NewNATSClient(ctx, url, cliLogger(cmd))
			if err != nil {
				return err
			}
			defer client.Close()

			out := cmd.OutOrStdout()
			if err := client.Subscribe(subject, func(subj string, data []byte) {
				fmt.Fprintf(out, "%s %s\n", subj, data)
			}); err != nil {
				return fmt.Errorf("subscribe %s: %w", subject, err)
			}

			<-ctx.Done()
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		},
	}

	cmd.Flags().String("url", "", "NATS url (defaults to hermes.url)")
	cmd.Flags().String("subject", hermes.SubjectAllScenarios, "Subject filter")
	return cmd
}
