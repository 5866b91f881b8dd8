// Package cli implements the command-line interface for live-events.
//
// The cli package provides the Cobra-based CLI: scrape runs one ingestion
// cycle over the source table, digest sends today's notification, events
// lists stored events (text, JSON or iCalendar), recipients manages push
// tokens and sources prints the effective source table. It wires config,
// logger, scraper, dedup, storage and notifier together for each command.
package cli
