package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/pfrederiksen/live-events/internal/digest"
	"github.com/pfrederiksen/live-events/internal/event"
	"github.com/pfrederiksen/live-events/internal/ingest"
	"github.com/pfrederiksen/live-events/internal/logger"
	"github.com/pfrederiksen/live-events/internal/scraper"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatICS  OutputFormat = "ics"
)

const displayLayout = "Mon 02/01/2006 15:04"

// EventsResult contains the events listed by the events command
type EventsResult struct {
	From       time.Time                 `json:"from"`
	To         time.Time                 `json:"to"`
	Events     []*event.Event            `json:"events"`
	Count      int                       `json:"count"`
	ByLocation map[string][]*event.Event `json:"by_location,omitempty"`
}

// WriteEvents writes the result in the specified format
func WriteEvents(w io.Writer, result *EventsResult, format OutputFormat, verbose bool) error {
	if result.ByLocation == nil && len(result.Events) > 0 {
		result.ByLocation = groupByLocation(result.Events)
	}

	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeEventsText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func groupByLocation(events []*event.Event) map[string][]*event.Event {
	groups := make(map[string][]*event.Event)
	for _, evt := range events {
		groups[evt.Location] = append(groups[evt.Location], evt)
	}
	return groups
}

// writeEventsText outputs events grouped by location as human-readable text
func writeEventsText(w io.Writer, result *EventsResult, verbose bool) error {
	if result.Count == 0 {
		fmt.Fprintln(w, "No events found.")
		return nil
	}

	locations := make([]string, 0, len(result.ByLocation))
	for location := range result.ByLocation {
		locations = append(locations, location)
	}
	sort.Strings(locations)

	for _, location := range locations {
		events := result.ByLocation[location]
		label := location
		if label == "" {
			label = "(unknown location)"
		}

		fmt.Fprintf(w, "\n%s (%d events):\n", label, len(events))
		for _, evt := range events {
			writeEventLine(w, "  ", evt, verbose)
		}
	}
	fmt.Fprintf(w, "\nTotal: %d events across %d locations\n", result.Count, len(result.ByLocation))

	return nil
}

func writeEventLine(w io.Writer, indent string, evt *event.Event, verbose bool) {
	fmt.Fprintf(w, "%s%s  %s\n", indent, evt.Date.Format(displayLayout), evt.Name)
	if verbose {
		if evt.ID != "" {
			fmt.Fprintf(w, "%s     ID: %s\n", indent, evt.ID)
		}
		fmt.Fprintf(w, "%s     Source: %s\n", indent, evt.Source)
		if evt.RawDate != "" {
			fmt.Fprintf(w, "%s     Date: %s\n", indent, evt.RawDate)
		}
		if evt.ExternalID != "" {
			fmt.Fprintf(w, "%s     External ID: %s\n", indent, evt.ExternalID)
		}
	}
}

// WriteScrapeResult reports the outcome of a scrape run
func WriteScrapeResult(w io.Writer, result *ingest.Result, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	fmt.Fprintln(w, "Sources:")
	for _, src := range result.PerSource {
		if src.Err != nil {
			fmt.Fprintf(w, "  FAILED %-22s %s\n", src.Source, src.Error)
			continue
		}
		fmt.Fprintf(w, "  %-29s %d candidates (%s)\n", src.Source, src.Candidates, src.Duration.Round(time.Millisecond))
	}

	if len(result.Events) == 0 {
		fmt.Fprintln(w, "\nNo new events found.")
	} else {
		fmt.Fprintf(w, "\nNew events (%d):\n", len(result.Events))
		for _, evt := range result.Events {
			fmt.Fprintf(w, "  NEW: %s  %s @ %s\n", evt.Date.Format(displayLayout), evt.Name, evt.Location)
			if verbose && evt.RawDate != "" {
				fmt.Fprintf(w, "       Date: %s\n", evt.RawDate)
			}
		}
	}

	if result.DryRun {
		fmt.Fprintf(w, "\nDry run: %d events not stored (%d candidates, %d sources failed)\n", len(result.Events), result.Candidates, result.Failed)
	} else {
		fmt.Fprintf(w, "\nInserted: %d (%d candidates, %d sources failed)\n", result.Inserted, result.Candidates, result.Failed)
	}
	return nil
}

// WriteDigestReport reports the outcome of a digest run
func WriteDigestReport(w io.Writer, report *digest.Report, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, report)
	case FormatText:
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if report.Skipped != "" {
		fmt.Fprintf(w, "Digest skipped: %s (%d events today)\n", report.Skipped, len(report.Events))
		return nil
	}

	fmt.Fprintf(w, "Title: %s\n", report.Message.Title)
	fmt.Fprintf(w, "Body:  %s\n", report.Message.Body)
	fmt.Fprintf(w, "\nSent to %d of %d recipients\n", report.Sent, report.Tokens)
	for _, token := range report.FailedTokens {
		fmt.Fprintf(w, "  FAILED: %s\n", token)
	}
	return nil
}

// WriteSources prints the source table
func WriteSources(w io.Writer, sources []scraper.Source, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, sources)
	case FormatText:
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	for _, src := range sources {
		venue := src.Venue
		if venue == "" {
			venue = "(from feed)"
		}
		fmt.Fprintf(w, "%s\n", src.ID)
		fmt.Fprintf(w, "  Kind:     %s\n", src.Kind)
		fmt.Fprintf(w, "  URL:      %s\n", src.URL)
		fmt.Fprintf(w, "  Venue:    %s\n", venue)
		fmt.Fprintf(w, "  Identity: %s\n", src.Identity)
	}
	fmt.Fprintf(w, "\nTotal: %d sources\n", len(sources))
	return nil
}

// WriteMetrics prints counters and timings sorted by name
func WriteMetrics(w io.Writer, snap logger.Snapshot) {
	names := make([]string, 0, len(snap.Counters))
	for name := range snap.Counters {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "\nMetrics:")
	for _, name := range names {
		fmt.Fprintf(w, "  %-36s %d\n", name, snap.Counters[name])
	}

	names = names[:0]
	for name := range snap.Timings {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		stats := snap.Timings[name]
		fmt.Fprintf(w, "  %-36s avg %s max %s (%d)\n", name, stats.Average.Round(time.Millisecond), stats.Max.Round(time.Millisecond), stats.Count)
	}
}
