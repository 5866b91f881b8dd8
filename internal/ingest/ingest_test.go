package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/pfrederiksen/live-events/internal/dedup"
	"github.com/pfrederiksen/live-events/internal/event"
	"github.com/pfrederiksen/live-events/internal/scraper"
	"github.com/pfrederiksen/live-events/internal/storage"
)

var (
	loc = time.FixedZone("CET", 3600)
	now = time.Date(2024, 3, 10, 12, 0, 0, 0, loc)
)

// fakeScraper returns canned candidates per source id
type fakeScraper struct {
	events map[string][]*event.Event
	errs   map[string]error
}

func (f *fakeScraper) Scrape(ctx context.Context, src scraper.Source) ([]*event.Event, error) {
	if err := f.errs[src.ID]; err != nil {
		return nil, err
	}
	// fresh copies so repeated runs see new candidates, like a real scrape
	var out []*event.Event
	for _, e := range f.events[src.ID] {
		c := *e
		out = append(out, &c)
	}
	return out, nil
}

type failingInserter struct{ calls int }

func (f *failingInserter) InsertBatch(ctx context.Context, events []*event.Event) error {
	f.calls++
	return errors.New("disk full")
}

func testSources() []scraper.Source {
	return []scraper.Source{
		{ID: "stadium", Kind: scraper.KindGrid, URL: "http://stadium.test", Identity: event.IdentityNameDay},
		{ID: "racecourse", Kind: scraper.KindCards, URL: "http://racecourse.test", Identity: event.IdentityNameDay},
		{ID: "parking", Kind: scraper.KindParking, URL: "http://parking.test", Identity: event.IdentityLocationTime},
	}
}

func candidate(source, name, location string, date time.Time) *event.Event {
	return &event.Event{Source: source, Name: name, Location: location, Date: date, CreatedOn: now}
}

func identities(sources []scraper.Source) map[string]event.Identity {
	m := make(map[string]event.Identity)
	for _, src := range sources {
		m[src.ID] = src.Identity
	}
	return m
}

func newStore(t *testing.T) *storage.Storage {
	t.Helper()
	store, err := storage.New(filepath.Join(t.TempDir(), "events.db"), loc)
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newOrchestrator(store *storage.Storage, sc Scraper, inserter Inserter, dryRun bool) *Orchestrator {
	sources := testSources()
	d := dedup.New(store, identities(sources), dedup.WithClock(func() time.Time { return now }), dedup.WithRetries(1, time.Millisecond))
	return New(sources, sc, d, inserter, dryRun)
}

func TestRun_SourceFailureIsIsolated(t *testing.T) {
	store := newStore(t)
	sc := &fakeScraper{
		events: map[string][]*event.Event{
			"stadium": {candidate("stadium", "Rock Show", "Stadio San Siro", now.AddDate(0, 0, 5))},
			"parking": {candidate("parking", "Rock Show", "Parcheggio A", now.AddDate(0, 0, 5))},
		},
		errs: map[string]error{"racecourse": errors.New("status 503")},
	}

	result, err := newOrchestrator(store, sc, store, false).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}

	if result.Failed != 1 {
		t.Errorf("Failed = %d, want 1", result.Failed)
	}
	if result.Inserted != 2 {
		t.Errorf("Inserted = %d, want 2", result.Inserted)
	}
	if result.PerSource[1].Error == "" || result.PerSource[1].Candidates != 0 {
		t.Errorf("racecourse result = %+v, want error and zero candidates", result.PerSource[1])
	}

	stored, err := store.Find(context.Background(), storage.Query{})
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if len(stored) != 2 {
		t.Errorf("stored %d events, want 2", len(stored))
	}
}

func TestRun_Idempotent(t *testing.T) {
	store := newStore(t)
	sc := &fakeScraper{
		events: map[string][]*event.Event{
			"stadium": {
				candidate("stadium", "Rock Show", "Stadio San Siro", now.AddDate(0, 0, 5)),
				candidate("stadium", "Pop Night", "Stadio San Siro", now.AddDate(0, 0, 6)),
			},
			"racecourse": {candidate("racecourse", "Jazz Night", "Ippodromo La Maura", now.AddDate(0, 1, 0))},
		},
	}
	o := newOrchestrator(store, sc, store, false)

	first, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if first.Inserted != 3 {
		t.Fatalf("first Inserted = %d, want 3", first.Inserted)
	}

	second, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if second.Candidates != 3 {
		t.Errorf("second Candidates = %d, want 3", second.Candidates)
	}
	if second.Inserted != 0 {
		t.Errorf("second Inserted = %d, want 0", second.Inserted)
	}
}

func TestRun_PastEventsExcluded(t *testing.T) {
	store := newStore(t)
	sc := &fakeScraper{
		events: map[string][]*event.Event{
			"stadium": {
				candidate("stadium", "Yesterday", "Stadio San Siro", now.AddDate(0, 0, -1)),
				candidate("stadium", "Tomorrow", "Stadio San Siro", now.AddDate(0, 0, 1)),
			},
		},
	}

	result, err := newOrchestrator(store, sc, store, false).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}
	if result.Inserted != 1 || result.Events[0].Name != "Tomorrow" {
		t.Errorf("Events = %v, want only Tomorrow", result.Events)
	}
}

func TestRun_InsertFailureFailsRun(t *testing.T) {
	store := newStore(t)
	inserter := &failingInserter{}
	sc := &fakeScraper{
		events: map[string][]*event.Event{
			"stadium": {candidate("stadium", "Rock Show", "Stadio San Siro", now.AddDate(0, 0, 5))},
		},
	}

	if _, err := newOrchestrator(store, sc, inserter, false).Run(context.Background()); err == nil {
		t.Fatal("Run() expected error when the batch insert fails")
	}
	if inserter.calls != 1 {
		t.Errorf("InsertBatch calls = %d, want 1", inserter.calls)
	}
}

func TestRun_DryRun(t *testing.T) {
	store := newStore(t)
	inserter := &failingInserter{}
	sc := &fakeScraper{
		events: map[string][]*event.Event{
			"stadium": {candidate("stadium", "Rock Show", "Stadio San Siro", now.AddDate(0, 0, 5))},
		},
	}

	result, err := newOrchestrator(store, sc, inserter, true).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}
	if inserter.calls != 0 {
		t.Errorf("InsertBatch called %d times in dry run", inserter.calls)
	}
	if len(result.Events) != 1 || result.Inserted != 0 {
		t.Errorf("dry run result = %+v", result)
	}
}

func TestRun_NoSourcesSucceed(t *testing.T) {
	store := newStore(t)
	sc := &fakeScraper{errs: map[string]error{
		"stadium":    errors.New("timeout"),
		"racecourse": errors.New("timeout"),
		"parking":    errors.New("timeout"),
	}}

	result, err := newOrchestrator(store, sc, store, false).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}
	if result.Failed != 3 || result.Inserted != 0 {
		t.Errorf("result = %+v, want 3 failed and nothing inserted", result)
	}
}

const leftoverCardsPage = `
<html><body>
<div class="ticket-card">
  <h3 class="ticket-card__title">Yesterday's Gala</h3>
  <div class="ticket-card__date"><span class="day">9</span><span class="month">marzo</span></div>
</div>
<div class="ticket-card">
  <h3 class="ticket-card__title">Spring Concert</h3>
  <div class="ticket-card__date"><span class="day">20</span><span class="month">marzo</span></div>
</div>
</body></html>`

func TestRun_LeftoverCardListingExcluded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(leftoverCardsPage))
	}))
	defer server.Close()

	sources := []scraper.Source{{
		ID:       "racecourse",
		Kind:     scraper.KindCards,
		URL:      server.URL,
		Venue:    scraper.VenueLaMaura,
		Identity: event.IdentityNameDay,
		Selectors: scraper.Selectors{
			Container: ".ticket-card",
			Name:      ".ticket-card__title",
			Day:       ".ticket-card__date .day",
			Month:     ".ticket-card__date .month",
		},
	}}

	normalizer := event.NewNormalizer(loc)
	normalizer.SetClock(func() time.Time { return now })

	store := newStore(t)
	d := dedup.New(store, identities(sources), dedup.WithClock(func() time.Time { return now }))
	result, err := New(sources, scraper.New(normalizer), d, store, false).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}

	if result.Candidates != 2 {
		t.Errorf("Candidates = %d, want 2", result.Candidates)
	}
	if result.Inserted != 1 || result.Events[0].Name != "Spring Concert" {
		t.Fatalf("Events = %v, want only Spring Concert", result.Events)
	}
	if result.Events[0].Date.Year() != 2024 {
		t.Errorf("Date = %v, want 2024", result.Events[0].Date)
	}
}
