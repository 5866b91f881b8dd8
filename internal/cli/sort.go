package cli

import (
	"sort"
	"strings"

	"github.com/pfrederiksen/live-events/internal/event"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByDate     SortOrder = "date"
	SortByName     SortOrder = "name"
	SortByLocation SortOrder = "location"
)

// sortEvents sorts a slice of events based on the specified sort order
func sortEvents(events []*event.Event, sortOrder SortOrder) {
	switch sortOrder {
	case SortByDate:
		sort.SliceStable(events, func(i, j int) bool {
			return compareByDate(events[i], events[j])
		})
	case SortByLocation:
		sort.SliceStable(events, func(i, j int) bool {
			if events[i].Location != events[j].Location {
				return events[i].Location < events[j].Location
			}
			// If locations are equal, sort by date
			return compareByDate(events[i], events[j])
		})
	case SortByName:
		sort.SliceStable(events, func(i, j int) bool {
			ni, nj := strings.ToLower(events[i].Name), strings.ToLower(events[j].Name)
			if ni != nj {
				return ni < nj
			}
			// If names are equal, sort by date
			return compareByDate(events[i], events[j])
		})
	}
}

// compareByDate compares two events by their date
// Returns true if event i should come before event j
func compareByDate(i, j *event.Event) bool {
	if !i.Date.Equal(j.Date) {
		return i.Date.Before(j.Date)
	}
	if i.Location != j.Location {
		return i.Location < j.Location
	}
	return strings.ToLower(i.Name) < strings.ToLower(j.Name)
}
