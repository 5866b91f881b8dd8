package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/live-events/internal/config"
	"github.com/pfrederiksen/live-events/internal/dedup"
	"github.com/pfrederiksen/live-events/internal/event"
	"github.com/pfrederiksen/live-events/internal/logger"
	"github.com/pfrederiksen/live-events/internal/notifier"
	"github.com/pfrederiksen/live-events/internal/scraper"
	"github.com/pfrederiksen/live-events/internal/storage"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// DefaultRunTimeout bounds a whole scrape or digest run
const DefaultRunTimeout = 5 * time.Minute

var (
	flagConfig   string
	flagDBPath   string
	flagLogLevel string
	flagVerbose  bool

	// cfg is loaded once per invocation by the root PersistentPreRunE
	cfg config.Config
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "live-events",
		Short: "Scrape Milan venue listings and send a daily digest",
		Long: `A batch tool that scrapes concert and show listings for Milan venues,
stores the new ones and notifies registered recipients about today's events.

Run "live-events scrape" and "live-events digest" from an external scheduler.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}

	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default: ./live-events.yaml if present)")
	cmd.PersistentFlags().StringVar(&flagDBPath, "db-path", "", "SQLite database path (overrides LIVE_EVENTS_DB_PATH)")
	cmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose output")

	cmd.AddCommand(
		newScrapeCmd(),
		newDigestCmd(),
		newEventsCmd(),
		newRecipientsCmd(),
		newSourcesCmd(),
	)

	return cmd
}

// setup loads configuration and installs the default logger
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagDBPath != "" {
		loaded.DBPath = flagDBPath
	}
	if flagLogLevel != "" {
		loaded.LogLevel = flagLogLevel
	}
	if flagVerbose && flagLogLevel == "" {
		loaded.LogLevel = "debug"
	}

	level, err := logger.ParseLevel(loaded.LogLevel)
	if err != nil {
		return err
	}
	format := logger.Format(loaded.LogFormat)
	if format != logger.FormatJSON && format != logger.FormatText {
		return fmt.Errorf("invalid log format: %s (must be 'json' or 'text')", loaded.LogFormat)
	}
	logger.SetDefault(logger.New(level, format, cmd.ErrOrStderr()))

	cfg = loaded
	return nil
}

func openStore() (*storage.Storage, error) {
	store, err := storage.New(cfg.DBPath, cfg.Location)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	return store, nil
}

func loadSources() ([]scraper.Source, error) {
	sources, err := scraper.LoadSources(cfg.SourcesFile)
	if err != nil {
		return nil, fmt.Errorf("loading sources: %w", err)
	}
	return sources, nil
}

func newScraper() *scraper.Scraper {
	return scraper.New(
		event.NewNormalizer(cfg.Location),
		scraper.WithTimeout(cfg.HTTPTimeout),
		scraper.WithUserAgent(cfg.UserAgent),
	)
}

func newDeduplicator(store dedup.Store, sources []scraper.Source) *dedup.Deduplicator {
	identities := make(map[string]event.Identity, len(sources))
	for _, src := range sources {
		identities[src.ID] = src.Identity
	}
	return dedup.New(store, identities, dedup.WithRetries(uint64(cfg.DedupRetries), 0))
}

// newSender picks the delivery backend; dryRun always wins
func newSender(ctx context.Context, cmd *cobra.Command, dryRun bool) (notifier.Sender, error) {
	if dryRun {
		return notifier.NewDryRunSender(cmd.OutOrStdout()), nil
	}

	switch cfg.Notifier {
	case config.NotifierTelegram:
		return notifier.NewTelegramSender(cfg.TelegramBotToken)
	case config.NotifierDryRun:
		return notifier.NewDryRunSender(cmd.OutOrStdout()), nil
	default:
		return notifier.NewFCMSender(ctx, cfg.FirebaseCredentials)
	}
}

func parseFormat(value string, allowed ...OutputFormat) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(value)))
	for _, a := range allowed {
		if format == a {
			return format, nil
		}
	}
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = "'" + string(a) + "'"
	}
	return "", fmt.Errorf("invalid format: %s (must be %s)", value, strings.Join(names, " or "))
}

// writeMetrics prints the run metrics to stderr when verbose
func writeMetrics(cmd *cobra.Command) {
	if !flagVerbose {
		return
	}
	snap := logger.MetricsSnapshot()
	WriteMetrics(cmd.ErrOrStderr(), snap)
}

// Execute runs the CLI and returns the process exit code
func Execute(ctx context.Context) int {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}
	return ExitSuccess
}
