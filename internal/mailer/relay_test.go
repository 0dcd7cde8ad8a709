package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRelayMailerSendSuccess(t *testing.T) {
	t.Parallel()

	var gotBody relayRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	m, err := NewRelayMailer(server.URL, "lab@example.org")
	if err != nil {
		t.Fatalf("NewRelayMailer() error = %v", err)
	}

	msg := Message{
		To:      "alice@example.org",
		Subject: "New Meeting: Weekly Sync",
		HTML:    "<p>hello</p>",
		Text:    "hello",
	}
	if err := m.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send() unexpected error: %v", err)
	}

	if gotBody.From != "lab@example.org" {
		t.Fatalf("request.from = %q, want %q", gotBody.From, "lab@example.org")
	}
	if gotBody.To != msg.To {
		t.Fatalf("request.to = %q, want %q", gotBody.To, msg.To)
	}
	if gotBody.Subject != msg.Subject {
		t.Fatalf("request.subject = %q, want %q", gotBody.Subject, msg.Subject)
	}
}

func TestRelayMailerStatusClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		statusCode    int
		wantTransient bool
	}{
		{name: "too many requests is transient", statusCode: http.StatusTooManyRequests, wantTransient: true},
		{name: "server error is transient", statusCode: http.StatusBadGateway, wantTransient: true},
		{name: "bad request is permanent", statusCode: http.StatusBadRequest, wantTransient: false},
		{name: "unauthorized is permanent", statusCode: http.StatusUnauthorized, wantTransient: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			m, err := NewRelayMailer(server.URL, "lab@example.org")
			if err != nil {
				t.Fatalf("NewRelayMailer() error = %v", err)
			}

			sendErr := m.Send(context.Background(), Message{To: "alice@example.org", Subject: "s", HTML: "<p>x</p>"})
			if sendErr == nil {
				t.Fatal("Send() expected error, got nil")
			}

			var mailErr *MailError
			if !errors.As(sendErr, &mailErr) {
				t.Fatalf("Send() error type = %T, want *MailError", sendErr)
			}
			if mailErr.StatusCode != tt.statusCode {
				t.Fatalf("StatusCode = %d, want %d", mailErr.StatusCode, tt.statusCode)
			}
			if IsTransient(sendErr) != tt.wantTransient {
				t.Fatalf("IsTransient() = %v, want %v", IsTransient(sendErr), tt.wantTransient)
			}
		})
	}
}

func TestNewRelayMailerValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewRelayMailer("", "lab@example.org"); err == nil {
		t.Fatal("expected error for empty endpoint")
	}
	if _, err := NewRelayMailer("http://relay.local/send", ""); err == nil {
		t.Fatal("expected error for empty sender")
	}
	if _, err := NewRelayMailer("not a url", "lab@example.org"); err == nil {
		t.Fatal("expected error for malformed endpoint")
	}
}
