package notifier

import (
	"context"
	"errors"
)

// ErrNoTokens is returned when a send is attempted with no recipients.
var ErrNoTokens = errors.New("no recipient tokens")

// Message is the notification shown to recipients
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Result is the delivery outcome for one token
type Result struct {
	Token     string `json:"token"`
	MessageID string `json:"message_id,omitempty"`
	Err       error  `json:"-"`
}

// Success reports whether the token received the message
func (r Result) Success() bool {
	return r.Err == nil
}

// BatchResponse holds one Result per token, in the order the tokens were sent
type BatchResponse struct {
	SuccessCount int
	FailureCount int
	Responses    []Result
}

// FailedTokens returns the tokens whose delivery failed
func (b *BatchResponse) FailedTokens() []string {
	var failed []string
	for _, r := range b.Responses {
		if !r.Success() {
			failed = append(failed, r.Token)
		}
	}
	return failed
}

func (b *BatchResponse) add(r Result) {
	b.Responses = append(b.Responses, r)
	if r.Success() {
		b.SuccessCount++
	} else {
		b.FailureCount++
	}
}

// Sender multicasts a message to a list of tokens
type Sender interface {
	// SendMulticast delivers msg to every token. A non-nil error means the
	// send as a whole failed; per-token failures are reported in the response.
	SendMulticast(ctx context.Context, tokens []string, msg Message) (*BatchResponse, error)
}
