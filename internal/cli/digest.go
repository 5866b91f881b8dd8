package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/live-events/internal/digest"
)

func newDigestCmd() *cobra.Command {
	var (
		dryRun  bool
		timeout time.Duration
		format  string
	)

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Notify recipients about today's events",
		Long: `Loads the events scheduled for today (in the configured timezone) and
sends a single summary notification to every registered recipient.
Delivery failures are logged but do not fail the run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := parseFormat(format, FormatText, FormatJSON)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			sender, err := newSender(ctx, cmd, dryRun)
			if err != nil {
				return err
			}

			report, err := digest.New(store, sender, cfg.Location).Run(ctx)
			if err != nil {
				return err
			}

			defer writeMetrics(cmd)
			return WriteDigestReport(cmd.OutOrStdout(), report, outFormat)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the notification instead of sending it")
	cmd.Flags().DurationVar(&timeout, "timeout", DefaultRunTimeout, "Deadline for the whole run")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")

	return cmd
}
