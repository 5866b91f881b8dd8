package notifier

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// fcmMaxTokens is the FCM limit on tokens per multicast request
const fcmMaxTokens = 500

// multicastClient is the part of the FCM client used here
type multicastClient interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// FCMSender sends notifications through Firebase Cloud Messaging
type FCMSender struct {
	client multicastClient
}

// NewFCMSender creates a sender from a service account credentials file.
// With an empty path, Application Default Credentials are used.
func NewFCMSender(ctx context.Context, credentialsFile string) (*FCMSender, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("initializing messaging client: %w", err)
	}

	return &FCMSender{client: client}, nil
}

// SendMulticast sends msg to all tokens, in requests of at most 500 tokens.
// A failed request marks every token in it as failed.
func (s *FCMSender) SendMulticast(ctx context.Context, tokens []string, msg Message) (*BatchResponse, error) {
	if len(tokens) == 0 {
		return nil, ErrNoTokens
	}

	resp := &BatchResponse{}
	var requestErrs int
	for start := 0; start < len(tokens); start += fcmMaxTokens {
		end := start + fcmMaxTokens
		if end > len(tokens) {
			end = len(tokens)
		}
		chunk := tokens[start:end]

		br, err := s.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens: chunk,
			Notification: &messaging.Notification{
				Title: msg.Title,
				Body:  msg.Body,
			},
		})
		if err != nil {
			requestErrs++
			for _, token := range chunk {
				resp.add(Result{Token: token, Err: err})
			}
			continue
		}

		// responses are index-aligned with the tokens of the request
		for i, token := range chunk {
			if i >= len(br.Responses) || br.Responses[i] == nil {
				resp.add(Result{Token: token, Err: fmt.Errorf("no response for token")})
				continue
			}
			r := br.Responses[i]
			if r.Success {
				resp.add(Result{Token: token, MessageID: r.MessageID})
			} else {
				resp.add(Result{Token: token, Err: r.Error})
			}
		}
	}

	if requestErrs > 0 && resp.SuccessCount == 0 {
		return resp, fmt.Errorf("sending multicast: all %d request(s) failed", requestErrs)
	}
	return resp, nil
}
