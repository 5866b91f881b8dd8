package notifier

import (
	"context"
	"fmt"
	"html"

	"github.com/pfrederiksen/live-events/internal/telegram"
)

// chatMessenger is the part of the Telegram client used here
type chatMessenger interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// TelegramSender delivers notifications as Telegram messages. Tokens are chat ids.
type TelegramSender struct {
	client chatMessenger
}

// NewTelegramSender creates a sender using the given bot token
func NewTelegramSender(botToken string) (*TelegramSender, error) {
	client, err := telegram.NewClient(botToken)
	if err != nil {
		return nil, err
	}
	return &TelegramSender{client: client}, nil
}

// SendMulticast sends one message per chat id and reports each outcome
func (s *TelegramSender) SendMulticast(ctx context.Context, tokens []string, msg Message) (*BatchResponse, error) {
	if len(tokens) == 0 {
		return nil, ErrNoTokens
	}

	text := formatTelegram(msg)
	resp := &BatchResponse{}
	for _, chatID := range tokens {
		if err := ctx.Err(); err != nil {
			resp.add(Result{Token: chatID, Err: err})
			continue
		}
		err := s.client.SendMessage(ctx, chatID, text)
		resp.add(Result{Token: chatID, Err: err})
	}

	if resp.SuccessCount == 0 {
		return resp, fmt.Errorf("telegram: no message delivered to %d chat(s)", len(tokens))
	}
	return resp, nil
}

func formatTelegram(msg Message) string {
	return fmt.Sprintf("🎤 <b>%s</b>\n📍 %s", html.EscapeString(msg.Title), html.EscapeString(msg.Body))
}
