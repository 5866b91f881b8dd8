// Package ingest runs one scrape-dedup-persist cycle over the source table.
package ingest

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pfrederiksen/live-events/internal/event"
	"github.com/pfrederiksen/live-events/internal/logger"
	"github.com/pfrederiksen/live-events/internal/scraper"
)

// Scraper fetches candidates from a single source
type Scraper interface {
	Scrape(ctx context.Context, src scraper.Source) ([]*event.Event, error)
}

// Filter removes candidates that must not be stored
type Filter interface {
	FilterNew(ctx context.Context, candidates []*event.Event) ([]*event.Event, error)
}

// Inserter persists a batch of events atomically
type Inserter interface {
	InsertBatch(ctx context.Context, events []*event.Event) error
}

// SourceResult is the outcome of scraping one source
type SourceResult struct {
	Source     string        `json:"source"`
	Candidates int           `json:"candidates"`
	Duration   time.Duration `json:"duration"`
	Err        error         `json:"-"`
	Error      string        `json:"error,omitempty"`
}

// Result summarizes one ingestion run
type Result struct {
	Candidates int            `json:"candidates"`
	Inserted   int            `json:"inserted"`
	Failed     int            `json:"failed"`
	DryRun     bool           `json:"dry_run,omitempty"`
	Events     []*event.Event `json:"events"`
	PerSource  []SourceResult `json:"per_source"`
}

// Orchestrator wires sources, deduplication and storage together
type Orchestrator struct {
	sources []scraper.Source
	scraper Scraper
	filter  Filter
	store   Inserter
	dryRun  bool
}

// New creates an Orchestrator. With dryRun set, new events are reported but
// not inserted.
func New(sources []scraper.Source, sc Scraper, filter Filter, store Inserter, dryRun bool) *Orchestrator {
	return &Orchestrator{
		sources: sources,
		scraper: sc,
		filter:  filter,
		store:   store,
		dryRun:  dryRun,
	}
}

// Run fetches every source concurrently, keeps the new candidates and
// inserts them in one batch. A failing source contributes no candidates but
// does not fail the run; dedup and insert failures do.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	perSource := make([]SourceResult, len(o.sources))
	batches := make([][]*event.Event, len(o.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range o.sources {
		g.Go(func() error {
			start := time.Now()
			events, err := o.scraper.Scrape(gctx, src)
			perSource[i] = SourceResult{
				Source:     src.ID,
				Candidates: len(events),
				Duration:   time.Since(start),
			}
			if err != nil {
				// isolated: other sources keep going
				logger.Error("Source failed", logger.Fields{"source": src.ID, "url": src.URL}, err)
				logger.IncrCounter("ingest.source_failures")
				perSource[i].Err = err
				perSource[i].Error = err.Error()
				perSource[i].Candidates = 0
				return nil
			}
			batches[i] = events
			logger.Debug("Source scraped", logger.Fields{"source": src.ID, "candidates": len(events)})
			logger.AddCounter("scrape.candidates."+src.ID, int64(len(events)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{PerSource: perSource, DryRun: o.dryRun}
	var candidates []*event.Event
	for i, batch := range batches {
		if perSource[i].Err != nil {
			result.Failed++
		}
		candidates = append(candidates, batch...)
	}
	result.Candidates = len(candidates)

	fresh, err := o.filter.FilterNew(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("deduplicating candidates: %w", err)
	}
	result.Events = fresh

	if o.dryRun {
		logger.Info("Dry run, skipping insert", logger.Fields{"new": len(fresh)})
		return result, nil
	}

	if len(fresh) > 0 {
		if err := o.store.InsertBatch(ctx, fresh); err != nil {
			return nil, fmt.Errorf("inserting events: %w", err)
		}
	}
	result.Inserted = len(fresh)
	logger.AddCounter("ingest.inserted", int64(result.Inserted))

	logger.Info("Ingestion complete", logger.Fields{
		"sources":    len(o.sources),
		"failed":     result.Failed,
		"candidates": result.Candidates,
		"inserted":   result.Inserted,
	})
	return result, nil
}
