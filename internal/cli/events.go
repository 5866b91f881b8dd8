package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/live-events/internal/calendar"
	"github.com/pfrederiksen/live-events/internal/digest"
	"github.com/pfrederiksen/live-events/internal/storage"
)

const dayLayout = "2006-01-02"

func newEventsCmd() *cobra.Command {
	var (
		from     string
		to       string
		location string
		format   string
		sortBy   string
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List stored events",
		Long: `Lists stored events between --from (inclusive) and --to (exclusive),
both YYYY-MM-DD in the configured timezone. Without flags, today's events
are listed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := parseFormat(format, FormatText, FormatJSON, FormatICS)
			if err != nil {
				return err
			}
			order := SortOrder(strings.ToLower(sortBy))
			if order != SortByDate && order != SortByName && order != SortByLocation {
				return fmt.Errorf("invalid sort: %s (must be 'date', 'name' or 'location')", sortBy)
			}

			start, end, err := dateRange(from, to, time.Now())
			if err != nil {
				return err
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			events, err := store.Find(cmd.Context(), storage.Query{From: start, To: end, Location: location})
			if err != nil {
				return err
			}
			sortEvents(events, order)

			if outFormat == FormatICS {
				_, err := fmt.Fprint(cmd.OutOrStdout(), calendar.GenerateICS(events, time.Now()))
				return err
			}

			result := &EventsResult{
				From:   start,
				To:     end,
				Events: events,
				Count:  len(events),
			}
			return WriteEvents(cmd.OutOrStdout(), result, outFormat, flagVerbose)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "First day to list, YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&to, "to", "", "Day after the last one to list, YYYY-MM-DD (default: --from + 1 day)")
	cmd.Flags().StringVar(&location, "location", "", "Only list events at this location")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json or ics")
	cmd.Flags().StringVar(&sortBy, "sort", "date", "Sort order: date, name or location")

	return cmd
}

// dateRange resolves the --from/--to flags into [start, end) in the configured timezone
func dateRange(from, to string, now time.Time) (time.Time, time.Time, error) {
	start, end := digest.TodayRange(now, cfg.Location)

	if from != "" {
		t, err := time.ParseInLocation(dayLayout, from, cfg.Location)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from %q: %w", from, err)
		}
		start = t
		end = t.AddDate(0, 0, 1)
	}
	if to != "" {
		t, err := time.ParseInLocation(dayLayout, to, cfg.Location)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to %q: %w", to, err)
		}
		end = t
	}

	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to must be after --from")
	}
	return start, end, nil
}
