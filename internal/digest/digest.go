// Package digest builds and sends the daily notification summarizing the
// events scheduled for the current day.
package digest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pfrederiksen/live-events/internal/event"
	"github.com/pfrederiksen/live-events/internal/logger"
	"github.com/pfrederiksen/live-events/internal/notifier"
	"github.com/pfrederiksen/live-events/internal/storage"
)

// Store is the part of the event store the digest reads from
type Store interface {
	Find(ctx context.Context, q storage.Query) ([]*event.Event, error)
	RecipientTokens(ctx context.Context) ([]string, error)
}

// Report summarizes one digest run
type Report struct {
	Events       []*event.Event    `json:"events"`
	Message      *notifier.Message `json:"message,omitempty"`
	Tokens       int               `json:"tokens"`
	Sent         int               `json:"sent"`
	FailedTokens []string          `json:"failed_tokens,omitempty"`
	Skipped      string            `json:"skipped,omitempty"`
}

// Notifier sends the digest for today's events
type Notifier struct {
	store  Store
	sender notifier.Sender
	loc    *time.Location
	now    func() time.Time
}

// New creates a Notifier. Day boundaries are computed in loc.
func New(store Store, sender notifier.Sender, loc *time.Location) *Notifier {
	if loc == nil {
		loc = time.UTC
	}
	return &Notifier{
		store:  store,
		sender: sender,
		loc:    loc,
		now:    time.Now,
	}
}

// SetClock overrides the clock used to determine "today"
func (n *Notifier) SetClock(now func() time.Time) {
	n.now = now
}

// TodayRange returns [local midnight, next local midnight) for the day containing now.
func TodayRange(now time.Time, loc *time.Location) (time.Time, time.Time) {
	start := event.StartOfDay(now.In(loc))
	return start, start.AddDate(0, 0, 1)
}

// Compose builds the notification for a non-empty, date-ordered list of events.
func Compose(events []*event.Event) notifier.Message {
	if len(events) == 0 {
		return notifier.Message{}
	}

	first := events[0]
	if len(events) == 1 {
		return notifier.Message{Title: first.Name, Body: first.Location}
	}

	return notifier.Message{
		Title: fmt.Sprintf("%s e altri %d eventi", first.Name, len(events)-1),
		Body:  fmt.Sprintf("%s e altre locations", first.Location),
	}
}

// Today returns the stored events dated today, ordered by date
func (n *Notifier) Today(ctx context.Context) ([]*event.Event, error) {
	from, to := TodayRange(n.now(), n.loc)
	events, err := n.store.Find(ctx, storage.Query{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("querying today's events: %w", err)
	}
	return events, nil
}

// Run sends the digest. Delivery failures are logged and reported but do not
// fail the run; only store errors do.
func (n *Notifier) Run(ctx context.Context) (*Report, error) {
	events, err := n.Today(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{Events: events}
	if len(events) == 0 {
		logger.Info("No events today", nil)
		report.Skipped = "no events today"
		return report, nil
	}

	msg := Compose(events)
	report.Message = &msg

	tokens, err := n.store.RecipientTokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading recipient tokens: %w", err)
	}
	report.Tokens = len(tokens)
	if len(tokens) == 0 {
		logger.Info("No recipients registered", logger.Fields{"events": len(events)})
		report.Skipped = "no recipients"
		return report, nil
	}

	resp, err := n.sender.SendMulticast(ctx, tokens, msg)
	if resp != nil {
		report.Sent = resp.SuccessCount
		report.FailedTokens = resp.FailedTokens()
		for _, r := range resp.Responses {
			if !r.Success() {
				logger.Warn("Notification not delivered", logger.Fields{"token": r.Token, "error": r.Err.Error()})
			}
		}
		logger.AddCounter("digest.sent", int64(resp.SuccessCount))
		logger.AddCounter("digest.failed", int64(resp.FailureCount))
	}
	if err != nil && !errors.Is(err, notifier.ErrNoTokens) {
		logger.Error("Sending digest failed", logger.Fields{"tokens": len(tokens)}, err)
		return report, nil
	}

	logger.Info("Digest sent", logger.Fields{
		"events": len(events),
		"sent":   report.Sent,
		"failed": len(report.FailedTokens),
	})
	return report, nil
}
