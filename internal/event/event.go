package event

import (
	"strings"
	"time"
)

// Event represents a single show or concert listing
type Event struct {
	ID         string    `json:"id,omitempty"`
	Name       string    `json:"name"`
	Date       time.Time `json:"date"`
	Location   string    `json:"location"`
	CreatedOn  time.Time `json:"created_on"`
	ExternalID string    `json:"external_id,omitempty"` // only set by sources exposing a stable id
	RawDate    string    `json:"raw_date,omitempty"`
	Source     string    `json:"source,omitempty"`
}

// NewEvent creates a candidate Event with CreatedOn populated
func NewEvent(source, name string, date time.Time, rawDate, location string) *Event {
	return &Event{
		Name:      strings.TrimSpace(name),
		Date:      date,
		Location:  strings.TrimSpace(location),
		CreatedOn: time.Now().UTC(),
		RawDate:   strings.TrimSpace(rawDate),
		Source:    source,
	}
}

// Valid reports whether the event has both a name and a date.
func (e *Event) Valid() bool {
	return e != nil && strings.TrimSpace(e.Name) != "" && !e.Date.IsZero()
}

// IsPast reports whether the event starts strictly before now.
func (e *Event) IsPast(now time.Time) bool {
	return e.Date.Before(now)
}

// Day returns the calendar day of the event in its own location (YYYY-MM-DD).
func (e *Event) Day() string {
	return e.Date.Format("2006-01-02")
}

// StartOfDay returns local midnight of the day containing t.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
