package notifier

import (
	"context"
	"fmt"
	"io"
	"os"
)

// DryRunSender prints what would be sent without delivering anything
type DryRunSender struct {
	out io.Writer
}

// NewDryRunSender creates a new dry-run sender writing to out (stdout if nil)
func NewDryRunSender(out io.Writer) *DryRunSender {
	if out == nil {
		out = os.Stdout
	}
	return &DryRunSender{out: out}
}

// SendMulticast prints the notification and reports every token as delivered
func (s *DryRunSender) SendMulticast(ctx context.Context, tokens []string, msg Message) (*BatchResponse, error) {
	if len(tokens) == 0 {
		return nil, ErrNoTokens
	}

	fmt.Fprintf(s.out, "--- Notification to %d recipient(s) ---\n", len(tokens))
	fmt.Fprintf(s.out, "Title: %s\n", msg.Title)
	fmt.Fprintf(s.out, "Body:  %s\n", msg.Body)

	resp := &BatchResponse{}
	for _, token := range tokens {
		resp.add(Result{Token: token, MessageID: "dry-run"})
	}
	return resp, nil
}
