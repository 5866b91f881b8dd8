package scraper

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pfrederiksen/live-events/internal/event"
	"github.com/pfrederiksen/live-events/internal/logger"
)

var errNoLocation = errors.New("no location")

// parkingItem mirrors one element of the parking feed. Values that may come
// back as numbers or strings are kept raw.
type parkingItem struct {
	ID              json.RawMessage `json:"Id"`
	Description     string          `json:"Description"`
	PlaceEventDescr string          `json:"PlaceEventDescr"`
	Time            string          `json:"Time"`
	EventDates      []struct {
		FromDate string `json:"FromDate"`
		Time     string `json:"Time"`
	} `json:"EventDates"`
}

// parseParking projects the parking feed's JSON array onto events.
// Malformed elements are skipped.
func (s *Scraper) parseParking(src Source, r io.Reader) ([]*event.Event, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	events := make([]*event.Event, 0, len(raw))
	for i, msg := range raw {
		var item parkingItem
		if err := json.Unmarshal(msg, &item); err != nil {
			logger.Debug("Skipping malformed feed item", logger.Fields{
				"source": src.ID,
				"index":  i,
				"reason": err.Error(),
			})
			logger.IncrCounter("scrape.dropped." + src.ID)
			continue
		}

		var fromDate, clock string
		if len(item.EventDates) > 0 {
			fromDate = item.EventDates[0].FromDate
			clock = item.EventDates[0].Time
		}
		if strings.TrimSpace(item.Time) != "" {
			clock = item.Time
		}

		date, err := s.normalizer.ParseISO(fromDate, clock)
		location := item.PlaceEventDescr
		if strings.TrimSpace(location) == "" {
			location = src.Venue
		}
		// location is part of the identity for this feed; an item without one
		// cannot be told apart from others at the same time
		if err == nil && strings.TrimSpace(location) == "" {
			err = errNoLocation
		}

		evt := event.NewEvent(src.ID, item.Description, date, strings.TrimSpace(fromDate+" "+clock), location)
		evt.ExternalID = rawID(item.ID)
		events = keep(events, src, evt, err)
	}

	return events, nil
}

// rawID renders a JSON number or string id as a string
func rawID(msg json.RawMessage) string {
	if len(msg) == 0 || string(msg) == "null" {
		return ""
	}
	if s, err := strconv.Unquote(string(msg)); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(msg))
}
