package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/live-events/internal/ingest"
)

func newScrapeCmd() *cobra.Command {
	var (
		dryRun  bool
		timeout time.Duration
		format  string
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape all sources and store new events",
		Long: `Fetches every configured source concurrently, drops past and already
stored events and inserts the rest in a single transaction. A failing source
is reported but does not fail the run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := parseFormat(format, FormatText, FormatJSON)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			sources, err := loadSources()
			if err != nil {
				return err
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			orchestrator := ingest.New(sources, newScraper(), newDeduplicator(store, sources), store, dryRun)
			result, err := orchestrator.Run(ctx)
			if err != nil {
				return err
			}

			defer writeMetrics(cmd)
			return WriteScrapeResult(cmd.OutOrStdout(), result, outFormat, flagVerbose)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report new events without storing them")
	cmd.Flags().DurationVar(&timeout, "timeout", DefaultRunTimeout, "Deadline for the whole run")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")

	return cmd
}
