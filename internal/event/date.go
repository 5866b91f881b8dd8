package event

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goodsign/monday"
)

// ErrInvalidDate is returned when a date string does not match the expected pattern.
var ErrInvalidDate = errors.New("invalid date")

// leading weekday name, e.g. "Sabato 10 marzo 2024" or "sab, 10 marzo"
var weekdayPrefix = regexp.MustCompile(`^\p{L}+\.?,?\s+`)

// layouts tried for "d MMMM yyyy" text, long month names first
var localizedLayouts = []string{
	"2 January 2006",
	"2 Jan 2006",
}

// staleWindow is how far behind today a year-less date may fall and still be
// read as this year's (already past) date rather than next year's.
const staleWindow = 3 // months

var isoLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
}

// Normalizer converts source date strings into absolute timestamps in a fixed
// timezone. Month names are resolved with a fixed locale, independent of the
// host environment.
type Normalizer struct {
	loc    *time.Location
	locale monday.Locale
	now    func() time.Time
}

// NewNormalizer creates a Normalizer for the Italian locale in loc.
func NewNormalizer(loc *time.Location) *Normalizer {
	return NewNormalizerWithLocale(loc, monday.LocaleItIT)
}

// NewNormalizerWithLocale creates a Normalizer resolving month names in locale.
func NewNormalizerWithLocale(loc *time.Location, locale monday.Locale) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{
		loc:    loc,
		locale: locale,
		now:    time.Now,
	}
}

// Location returns the timezone every parsed date is placed in.
func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// SetClock overrides the clock used for year inference.
func (n *Normalizer) SetClock(now func() time.Time) {
	n.now = now
}

// StripWeekday removes a leading weekday token from a date label.
func StripWeekday(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" || (text[0] >= '0' && text[0] <= '9') {
		return text
	}
	return weekdayPrefix.ReplaceAllString(text, "")
}

// ParseLocalized parses "d MMMM yyyy" text (an optional leading weekday is
// stripped first), e.g. "Sabato 10 giugno 2024".
func (n *Normalizer) ParseLocalized(text string) (time.Time, error) {
	return n.parse(text, StripWeekday(text))
}

// ParseDayMonth parses "d MMMM" text with no year. The date is placed in the
// current year unless that puts it more than a few months behind today, in
// which case it belongs to next year. A listing left up after its day has
// passed therefore stays in the past.
func (n *Normalizer) ParseDayMonth(text string) (time.Time, error) {
	clean := StripWeekday(text)
	if len(strings.Fields(clean)) != 2 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, text)
	}

	today := StartOfDay(n.now().In(n.loc))
	t, err := n.parse(text, clean+" "+strconv.Itoa(today.Year()))
	if err != nil {
		return time.Time{}, err
	}
	if t.Before(today.AddDate(0, -staleWindow, 0)) {
		return t.AddDate(1, 0, 0), nil
	}
	return t, nil
}

// parse reads clean as "d MMMM yyyy" in the normalizer's locale and timezone.
func (n *Normalizer) parse(text, clean string) (time.Time, error) {
	clean = strings.ReplaceAll(clean, ".", "")
	if clean == "" {
		return time.Time{}, fmt.Errorf("%w: empty date", ErrInvalidDate)
	}
	for _, layout := range localizedLayouts {
		if t, err := monday.ParseInLocation(layout, clean, n.loc, n.locale); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, text)
}

// ParseISO joins a date-only string and a time of day with a literal "T" and
// parses the result. A date carrying its own time part is cut to the date.
func (n *Normalizer) ParseISO(date, clock string) (time.Time, error) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if len(date) > 10 && date[10] == 'T' {
		date = date[:10]
	}
	if date == "" || clock == "" {
		return time.Time{}, fmt.Errorf("%w: empty date or time (%q, %q)", ErrInvalidDate, date, clock)
	}

	value := date + "T" + clock
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, value, n.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
}
