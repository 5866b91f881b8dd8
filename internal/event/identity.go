package event

import (
	"crypto/sha1"
	"fmt"
	"strings"
	"time"
)

// Identity names the fields compared when deciding that two records are the
// same event. Each source picks one.
type Identity string

const (
	// IdentityNameDay matches on normalized name and calendar day. Used by
	// the HTML sources, whose dates carry no time of day.
	IdentityNameDay Identity = "name+day"

	// IdentityLocationTime matches on normalized location and start time
	// truncated to the minute. Used by the parking feed, whose descriptions
	// change wording between runs.
	IdentityLocationTime Identity = "location+time"
)

// ParseIdentity validates an identity rule name. Empty means IdentityNameDay.
func ParseIdentity(s string) (Identity, error) {
	switch Identity(strings.ToLower(strings.TrimSpace(s))) {
	case "", IdentityNameDay:
		return IdentityNameDay, nil
	case IdentityLocationTime:
		return IdentityLocationTime, nil
	default:
		return "", fmt.Errorf("unknown identity rule: %q", s)
	}
}

// Key returns a deterministic key for the event under this identity rule.
// Two events with the same key are considered duplicates.
func (i Identity) Key(e *Event) string {
	var parts string
	switch i {
	case IdentityLocationTime:
		parts = normalize(e.Location) + "|" + e.Date.Truncate(time.Minute).UTC().Format(time.RFC3339)
	default:
		parts = normalize(e.Name) + "|" + e.Day()
	}

	h := sha1.New()
	h.Write([]byte(string(i) + "|" + parts))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// normalize lowercases and collapses whitespace
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
