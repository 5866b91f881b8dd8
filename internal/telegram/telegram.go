package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const timeout = 10 * time.Second

var apiBaseURL = "https://api.telegram.org/bot"

// sendMessageRequest is the body of a sendMessage call
type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview,omitempty"`
}

// apiResponse is the envelope every Bot API method returns
type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

// Client represents a Telegram Bot API client
type Client struct {
	botToken   string
	httpClient *http.Client
}

// NewClient creates a new Telegram client
func NewClient(botToken string) (*Client, error) {
	if botToken == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	return &Client{
		botToken: botToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// SendMessage sends an HTML formatted text message to a chat
func (c *Client) SendMessage(ctx context.Context, chatID, text string) error {
	if chatID == "" {
		return fmt.Errorf("chat ID is required")
	}
	if text == "" {
		return fmt.Errorf("message text is required")
	}

	url := fmt.Sprintf("%s%s/sendMessage", apiBaseURL, c.botToken)

	jsonData, err := json.Marshal(sendMessageRequest{
		ChatID:                chatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	// Telegram reports most failures in the JSON body, with or without a 200
	var result apiResponse
	if err := json.Unmarshal(body, &result); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("telegram API error (status %d)", resp.StatusCode)
		}
		return fmt.Errorf("parsing response: %w", err)
	}

	if !result.OK {
		code := result.ErrorCode
		if code == 0 {
			code = resp.StatusCode
		}
		return fmt.Errorf("telegram API error (code %d): %s", code, result.Description)
	}

	return nil
}
