package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/live-events/internal/event"
)

// defaultDuration is used for DTEND since sources only publish a start time
const defaultDuration = 3 * time.Hour

// GenerateICS generates an iCalendar (.ics) document containing one VEVENT per event.
// now is used for DTSTAMP.
func GenerateICS(events []*event.Event, now time.Time) string {
	var ics strings.Builder

	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString("PRODID:-//Live Events//live-events//IT\r\n")
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")

	stamp := formatICSTime(now)
	for _, evt := range events {
		writeEvent(&ics, evt, stamp)
	}

	ics.WriteString("END:VCALENDAR\r\n")
	return ics.String()
}

func writeEvent(ics *strings.Builder, evt *event.Event, stamp string) {
	ics.WriteString("BEGIN:VEVENT\r\n")

	// UID - stable for the stored record
	uid := evt.ID
	if uid == "" {
		uid = event.IdentityNameDay.Key(evt)
	}
	fmt.Fprintf(ics, "UID:%s@live-events\r\n", uid)
	fmt.Fprintf(ics, "DTSTAMP:%s\r\n", stamp)

	// date-only sources carry midnight; publish those as all-day events
	local := evt.Date
	if local.Hour() == 0 && local.Minute() == 0 {
		fmt.Fprintf(ics, "DTSTART;VALUE=DATE:%s\r\n", local.Format("20060102"))
		fmt.Fprintf(ics, "DTEND;VALUE=DATE:%s\r\n", local.AddDate(0, 0, 1).Format("20060102"))
	} else {
		fmt.Fprintf(ics, "DTSTART:%s\r\n", formatICSTime(local))
		fmt.Fprintf(ics, "DTEND:%s\r\n", formatICSTime(local.Add(defaultDuration)))
	}

	fmt.Fprintf(ics, "SUMMARY:%s\r\n", escapeICS(evt.Name))
	if evt.Location != "" {
		fmt.Fprintf(ics, "LOCATION:%s\r\n", escapeICS(evt.Location))
	}
	if evt.RawDate != "" {
		fmt.Fprintf(ics, "DESCRIPTION:%s\r\n", escapeICS("Data: "+evt.RawDate))
	}

	ics.WriteString("STATUS:CONFIRMED\r\n")
	ics.WriteString("TRANSP:OPAQUE\r\n")
	ics.WriteString("END:VEVENT\r\n")
}

// formatICSTime formats a time.Time as an iCalendar datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	// Replace special characters according to RFC 5545
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
