package event

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"
)

func mustLoadRome(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		t.Fatalf("LoadLocation() error = %v", err)
	}
	return loc
}

func TestStripWeekday(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"weekday prefix", "Sabato 10 giugno 2024", "10 giugno 2024"},
		{"accented weekday", "Lunedì 3 luglio 2023", "3 luglio 2023"},
		{"abbreviated with comma", "sab, 10 marzo", "10 marzo"},
		{"no weekday", "10 giugno 2024", "10 giugno 2024"},
		{"extra whitespace", "  Domenica   2  luglio 2023 ", "2 luglio 2023"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripWeekday(tt.in); got != tt.want {
				t.Errorf("StripWeekday(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseLocalized(t *testing.T) {
	loc := mustLoadRome(t)
	n := NewNormalizer(loc)

	tests := []struct {
		name      string
		text      string
		wantYear  int
		wantMonth time.Month
		wantDay   int
		wantErr   bool
	}{
		{"weekday and long month", "Sabato 10 giugno 2024", 2024, time.June, 10, false},
		{"uppercase label", "VENERDÌ 5 LUGLIO 2024", 2024, time.July, 5, false},
		{"single digit day", "1 marzo 2025", 2025, time.March, 1, false},
		{"abbreviated month", "12 set 2024", 2024, time.September, 12, false},
		{"december", "Martedì 31 dicembre 2024", 2024, time.December, 31, false},
		{"empty", "", 0, 0, 0, true},
		{"abbreviated month with dot", "12 set. 2024", 2024, time.September, 12, false},
		{"unknown month", "10 brumaio 2024", 0, 0, 0, true},
		{"missing year", "10 giugno", 0, 0, 0, true},
		{"overflowing day", "31 febbraio 2024", 0, 0, 0, true},
		{"garbage", "Data da definire", 0, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.ParseLocalized(tt.text)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseLocalized(%q) = %v, want error", tt.text, got)
				}
				if !errors.Is(err, ErrInvalidDate) {
					t.Errorf("ParseLocalized(%q) error = %v, want ErrInvalidDate", tt.text, err)
				}
				if !got.IsZero() {
					t.Errorf("ParseLocalized(%q) returned non-zero time on error", tt.text)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLocalized(%q) unexpected error: %v", tt.text, err)
			}
			if got.Year() != tt.wantYear || got.Month() != tt.wantMonth || got.Day() != tt.wantDay {
				t.Errorf("ParseLocalized(%q) = %v, want %d-%02d-%02d", tt.text, got, tt.wantYear, tt.wantMonth, tt.wantDay)
			}
			if got.Location() != loc {
				t.Errorf("ParseLocalized(%q) location = %v, want %v", tt.text, got.Location(), loc)
			}
			if got.Hour() != 0 || got.Minute() != 0 {
				t.Errorf("ParseLocalized(%q) = %v, want local midnight", tt.text, got)
			}
		})
	}
}

func TestParseDayMonth(t *testing.T) {
	loc := mustLoadRome(t)
	n := NewNormalizer(loc)
	n.SetClock(func() time.Time {
		return time.Date(2024, time.June, 15, 12, 0, 0, 0, loc)
	})

	tests := []struct {
		name     string
		text     string
		wantYear int
		wantDay  int
		wantErr  bool
	}{
		{"later this year", "20 luglio", 2024, 20, false},
		{"today stays this year", "15 giugno", 2024, 15, false},
		{"yesterday stays this year", "14 giugno", 2024, 14, false},
		{"recently passed stays this year", "1 aprile", 2024, 1, false},
		{"just outside the window rolls over", "14 marzo", 2025, 14, false},
		{"long passed rolls over", "10 gennaio", 2025, 10, false},
		{"short month", "3 ago", 2024, 3, false},
		{"with year is rejected", "20 luglio 2024", 0, 0, true},
		{"empty", "", 0, 0, true},
		{"overflowing day", "31 giugno", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.ParseDayMonth(tt.text)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDayMonth(%q) = %v, want error", tt.text, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDayMonth(%q) unexpected error: %v", tt.text, err)
			}
			if got.Year() != tt.wantYear || got.Day() != tt.wantDay {
				t.Errorf("ParseDayMonth(%q) = %v, want day %d of %d", tt.text, got, tt.wantDay, tt.wantYear)
			}
		})
	}
}

func TestParseISO(t *testing.T) {
	loc := mustLoadRome(t)
	n := NewNormalizer(loc)

	tests := []struct {
		name    string
		date    string
		clock   string
		want    time.Time
		wantErr bool
	}{
		{"date and minutes", "2024-03-10", "20:30", time.Date(2024, 3, 10, 20, 30, 0, 0, loc), false},
		{"with seconds", "2024-03-10", "20:30:15", time.Date(2024, 3, 10, 20, 30, 15, 0, loc), false},
		{"date carrying midnight", "2024-03-10T00:00:00", "21:00", time.Date(2024, 3, 10, 21, 0, 0, 0, loc), false},
		{"missing time", "2024-03-10", "", time.Time{}, true},
		{"missing date", "", "21:00", time.Time{}, true},
		{"bad time", "2024-03-10", "sera", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.ParseISO(tt.date, tt.clock)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseISO(%q, %q) = %v, want error", tt.date, tt.clock, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseISO(%q, %q) unexpected error: %v", tt.date, tt.clock, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseISO(%q, %q) = %v, want %v", tt.date, tt.clock, got, tt.want)
			}
		})
	}
}

func TestParseDayMonth_StaleListingIsPast(t *testing.T) {
	loc := mustLoadRome(t)
	now := time.Date(2026, time.October, 18, 9, 0, 0, 0, loc)
	n := NewNormalizer(loc)
	n.SetClock(func() time.Time { return now })

	got, err := n.ParseDayMonth("17 ottobre")
	if err != nil {
		t.Fatalf("ParseDayMonth() unexpected error: %v", err)
	}
	if got.Year() != 2026 {
		t.Errorf("ParseDayMonth(\"17 ottobre\") = %v, want 2026", got)
	}

	evt := &Event{Name: "Jazz Night", Date: got}
	if !evt.IsPast(now) {
		t.Error("yesterday's listing should be in the past")
	}
}
