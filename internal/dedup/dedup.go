// Package dedup decides which freshly scraped candidates are new relative to
// the events already stored.
//
// Each source declares its own identity rule (see event.Identity). Candidates
// are grouped per source and compared against one store query per group,
// rather than one query per candidate. Candidates dated before the scrape
// time are never admitted, whether or not they are duplicates.
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/pfrederiksen/live-events/internal/event"
	"github.com/pfrederiksen/live-events/internal/logger"
	"github.com/pfrederiksen/live-events/internal/storage"
)

const (
	DefaultRetries = 3
	DefaultBackoff = 200 * time.Millisecond
)

// Store is the read side of the event store used for existence checks
type Store interface {
	Find(ctx context.Context, q storage.Query) ([]*event.Event, error)
}

// Deduplicator filters candidates down to the ones that should be inserted
type Deduplicator struct {
	store      Store
	identities map[string]event.Identity
	now        func() time.Time
	retries    uint64
	backoff    time.Duration
}

// Option configures a Deduplicator
type Option func(*Deduplicator)

// WithClock overrides the clock used for the past-event check
func WithClock(now func() time.Time) Option {
	return func(d *Deduplicator) { d.now = now }
}

// WithRetries sets how many times a failed store query is retried and the
// initial backoff between attempts.
func WithRetries(retries uint64, backoff time.Duration) Option {
	return func(d *Deduplicator) {
		d.retries = retries
		if backoff > 0 {
			d.backoff = backoff
		}
	}
}

// New creates a Deduplicator. identities maps a source id to its identity
// rule; sources missing from the map use event.IdentityNameDay.
func New(store Store, identities map[string]event.Identity, opts ...Option) *Deduplicator {
	d := &Deduplicator{
		store:      store,
		identities: identities,
		now:        time.Now,
		retries:    DefaultRetries,
		backoff:    DefaultBackoff,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// IdentityFor returns the identity rule applied to a source
func (d *Deduplicator) IdentityFor(source string) event.Identity {
	if id, ok := d.identities[source]; ok && id != "" {
		return id
	}
	return event.IdentityNameDay
}

// FilterNew returns the candidates that are valid, not in the past and not
// already stored, preserving input order. A candidate repeated within the
// same batch is admitted once.
func (d *Deduplicator) FilterNew(ctx context.Context, candidates []*event.Event) ([]*event.Event, error) {
	now := d.now()

	// group by source, keeping first-seen order
	var order []string
	groups := make(map[string][]*event.Event)
	for _, c := range candidates {
		if !c.Valid() {
			continue
		}
		if c.IsPast(now) {
			logger.Debug("Skipping past event", logger.Fields{
				"source": c.Source,
				"name":   c.Name,
				"date":   c.Date.Format(time.RFC3339),
			})
			logger.IncrCounter("dedup.past")
			continue
		}
		if _, ok := groups[c.Source]; !ok {
			order = append(order, c.Source)
		}
		groups[c.Source] = append(groups[c.Source], c)
	}

	admitted := make(map[*event.Event]bool)
	for _, source := range order {
		group := groups[source]
		identity := d.IdentityFor(source)

		existing, err := d.findExisting(ctx, storage.Query{From: earliestDay(group)})
		if err != nil {
			return nil, fmt.Errorf("checking existing events for %s: %w", source, err)
		}

		seen := make(map[string]bool, len(existing))
		for _, evt := range existing {
			seen[identity.Key(evt)] = true
		}

		for _, c := range group {
			key := identity.Key(c)
			if seen[key] {
				logger.IncrCounter("dedup.duplicate")
				continue
			}
			seen[key] = true
			admitted[c] = true
		}
	}

	fresh := make([]*event.Event, 0, len(admitted))
	for _, c := range candidates {
		if admitted[c] {
			fresh = append(fresh, c)
			delete(admitted, c)
		}
	}
	return fresh, nil
}

// findExisting queries the store, retrying transient failures with
// exponential backoff.
func (d *Deduplicator) findExisting(ctx context.Context, q storage.Query) ([]*event.Event, error) {
	var existing []*event.Event

	backoff := retry.WithMaxRetries(d.retries, retry.NewExponential(d.backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		found, err := d.store.Find(ctx, q)
		if err != nil {
			logger.Warn("Store query failed", logger.Fields{"from": q.From.Format(time.RFC3339)})
			logger.IncrCounter("dedup.query_errors")
			return retry.RetryableError(err)
		}
		existing = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return existing, nil
}

// earliestDay returns local midnight of the earliest candidate date, so that
// day-granularity matches against events stored earlier that day are found.
func earliestDay(events []*event.Event) time.Time {
	earliest := events[0].Date
	for _, evt := range events[1:] {
		if evt.Date.Before(earliest) {
			earliest = evt.Date
		}
	}
	return event.StartOfDay(earliest)
}
