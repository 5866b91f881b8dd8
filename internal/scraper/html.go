package scraper

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/live-events/internal/event"
)

// parseGrid extracts events from the stadium page: one row per event, each
// holding a title and a "<weekday> d MMMM yyyy" label.
func (s *Scraper) parseGrid(src Source, r io.Reader) ([]*event.Event, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	sel := src.Selectors
	events := make([]*event.Event, 0)

	doc.Find(sel.Container).Each(func(i int, row *goquery.Selection) {
		name := text(row, sel.Name)
		rawDate := text(row, sel.Date)

		date, err := s.normalizer.ParseLocalized(rawDate)
		evt := event.NewEvent(src.ID, name, date, rawDate, src.Venue)
		events = keep(events, src, evt, err)
	})

	return events, nil
}

// parseCards extracts events from a ticketing platform venue page: one card
// per event with the day of month and the month name in separate elements.
func (s *Scraper) parseCards(src Source, r io.Reader) ([]*event.Event, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	sel := src.Selectors
	events := make([]*event.Event, 0)

	doc.Find(sel.Container).Each(func(i int, card *goquery.Selection) {
		name := text(card, sel.Name)
		rawDate := strings.TrimSpace(text(card, sel.Day) + " " + text(card, sel.Month))

		date, err := s.normalizer.ParseDayMonth(rawDate)
		evt := event.NewEvent(src.ID, name, date, rawDate, src.Venue)
		events = keep(events, src, evt, err)
	})

	return events, nil
}

// text returns the trimmed text of the first match, or "" when nothing matches
func text(sel *goquery.Selection, selector string) string {
	return strings.Join(strings.Fields(sel.Find(selector).First().Text()), " ")
}
