package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/live-events/internal/event"
)

var (
	cet   = time.FixedZone("CET", 3600)
	stamp = time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
)

func TestGenerateICS(t *testing.T) {
	events := []*event.Event{
		{
			ID:       "evt-1",
			Name:     "Rock Show",
			Date:     time.Date(2024, 6, 15, 0, 0, 0, 0, cet),
			Location: "Stadio San Siro",
			RawDate:  "Sabato 15 giugno 2024",
		},
		{
			ID:       "evt-2",
			Name:     "Parcheggio concerto",
			Date:     time.Date(2024, 6, 15, 18, 30, 0, 0, cet),
			Location: "Parcheggio Settore A",
		},
	}

	ics := GenerateICS(events, stamp)

	requiredFields := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Live Events//live-events//IT",
		"UID:evt-1@live-events",
		"UID:evt-2@live-events",
		"DTSTAMP:20240310T080000Z",
		"DTSTART;VALUE=DATE:20240615",
		"DTEND;VALUE=DATE:20240616",
		"DTSTART:20240615T173000Z",
		"DTEND:20240615T203000Z",
		"SUMMARY:Rock Show",
		"LOCATION:Stadio San Siro",
		"DESCRIPTION:Data: Sabato 15 giugno 2024",
		"END:VCALENDAR",
	}
	for _, field := range requiredFields {
		if !strings.Contains(ics, field) {
			t.Errorf("ICS missing required field: %s", field)
		}
	}

	if got := strings.Count(ics, "BEGIN:VEVENT"); got != 2 {
		t.Errorf("VEVENT count = %d, want 2", got)
	}
	if !strings.Contains(ics, "\r\n") {
		t.Error("ICS should use \\r\\n line endings")
	}
}

func TestGenerateICS_Empty(t *testing.T) {
	ics := GenerateICS(nil, stamp)

	if strings.Contains(ics, "BEGIN:VEVENT") {
		t.Error("empty calendar should contain no events")
	}
	if !strings.HasSuffix(ics, "END:VCALENDAR\r\n") {
		t.Error("calendar not terminated")
	}
}

func TestGenerateICS_UIDWithoutID(t *testing.T) {
	evt := &event.Event{Name: "Jazz Night", Date: time.Date(2024, 7, 12, 0, 0, 0, 0, cet)}

	first := GenerateICS([]*event.Event{evt}, stamp)
	second := GenerateICS([]*event.Event{evt}, stamp)
	if first != second {
		t.Error("UID should be stable for the same event")
	}
}

func TestEscapeICS(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Simple text", "Simple text"},
		{"Text, with comma", "Text\\, with comma"},
		{"Text; with semicolon", "Text\\; with semicolon"},
		{"Text\nwith newline", "Text\\nwith newline"},
		{"Text\\with backslash", "Text\\\\with backslash"},
		{"Rock, Pop; Jazz\nLive", "Rock\\, Pop\\; Jazz\\nLive"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if result := escapeICS(tt.input); result != tt.expected {
				t.Errorf("escapeICS(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
