package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func withServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	server := httptest.NewServer(handler)
	originalURL := apiBaseURL
	apiBaseURL = server.URL + "/bot"
	t.Cleanup(func() {
		apiBaseURL = originalURL
		server.Close()
	})
}

func TestNewClient(t *testing.T) {
	if _, err := NewClient(""); err == nil {
		t.Error("NewClient() expected error for empty token")
	}
	if _, err := NewClient("token"); err != nil {
		t.Errorf("NewClient() unexpected error: %v", err)
	}
}

func TestSendMessage_Success(t *testing.T) {
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST request, got %s", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/bottest-token/sendMessage") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Expected Content-Type application/json, got %s", r.Header.Get("Content-Type"))
		}

		var req sendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding payload: %v", err)
		}
		if req.ChatID != "12345" {
			t.Errorf("chat_id = %q, want 12345", req.ChatID)
		}
		if req.ParseMode != "HTML" || !req.DisableWebPagePreview {
			t.Errorf("unexpected options: %+v", req)
		}
		if req.Text != "Test message" {
			t.Errorf("text = %q", req.Text)
		}

		json.NewEncoder(w).Encode(apiResponse{OK: true})
	})

	client, _ := NewClient("test-token")
	if err := client.SendMessage(context.Background(), "12345", "Test message"); err != nil {
		t.Errorf("SendMessage() unexpected error: %v", err)
	}
}

func TestSendMessage_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		chatID  string
		text    string
		wantMsg string
	}{
		{
			name:    "api error",
			status:  http.StatusBadRequest,
			body:    `{"ok": false, "error_code": 400, "description": "Bad Request: chat not found"}`,
			chatID:  "1",
			text:    "hi",
			wantMsg: "code 400): Bad Request: chat not found",
		},
		{
			name:    "not ok with 200",
			status:  http.StatusOK,
			body:    `{"ok": false, "description": "Forbidden: bot was blocked by the user"}`,
			chatID:  "1",
			text:    "hi",
			wantMsg: "code 200): Forbidden",
		},
		{
			name:    "non-json error",
			status:  http.StatusBadGateway,
			body:    `<html>bad gateway</html>`,
			chatID:  "1",
			text:    "hi",
			wantMsg: "status 502",
		},
		{
			name:    "missing chat id",
			chatID:  "",
			text:    "hi",
			wantMsg: "chat ID is required",
		},
		{
			name:    "missing text",
			chatID:  "1",
			text:    "",
			wantMsg: "text is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			client, _ := NewClient("test-token")
			err := client.SendMessage(context.Background(), tt.chatID, tt.text)
			if err == nil {
				t.Fatal("SendMessage() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("SendMessage() error = %v, want it to contain %q", err, tt.wantMsg)
			}
		})
	}
}
