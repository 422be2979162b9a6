package slack

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hellforge/tradepost/internal/observability/notify"
)

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error when webhook url missing")
	}
}

func TestFormatMessageIncludesFields(t *testing.T) {
	client, err := NewClient(Config{
		WebhookURL: "https://hooks.slack.com/services/test",
		Channel:    "#server-status",
		Username:   "bot",
		Timeout:    time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg := client.formatMessage(notify.StatusChangePayload{
		Game:      "resurrected",
		State:     "offline",
		PrevState: "online",
		Message:   "maintenance window",
	})

	if msg["username"] != "bot" {
		t.Fatalf("expected username to be preserved, got %v", msg["username"])
	}
	if msg["channel"] != "#server-status" {
		t.Fatalf("expected channel to be set, got %v", msg["channel"])
	}

	text, ok := msg["text"].(string)
	if !ok {
		t.Fatalf("expected text field")
	}
	if !containsAll(
		text,
		[]string{"Game server status change", "resurrected", "online → offline", "maintenance window"},
	) {
		t.Fatalf("message text missing fields: %s", text)
	}
}

func TestFormatMessageWithoutPrevState(t *testing.T) {
	client, err := NewClient(Config{
		WebhookURL: "https://hooks.slack.com/services/test",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg := client.formatMessage(notify.StatusChangePayload{
		Game:  "classic",
		State: "online",
	})

	text, ok := msg["text"].(string)
	if !ok {
		t.Fatalf("expected text field")
	}
	if !strings.Contains(text, "State: online") {
		t.Fatalf("expected bare state, got: %s", text)
	}
	if strings.Contains(text, "→") {
		t.Fatalf("unexpected transition arrow without prev state: %s", text)
	}
}

func TestFormatMessageEscapesMessage(t *testing.T) {
	client, err := NewClient(Config{
		WebhookURL: "https://hooks.slack.com/services/test",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg := client.formatMessage(notify.StatusChangePayload{
		Game:    "classic",
		State:   "degraded",
		Message: "queue > 5000 & rising",
	})

	text, ok := msg["text"].(string)
	if !ok {
		t.Fatalf("expected text field")
	}
	if !strings.Contains(text, "queue &gt; 5000 &amp; rising") {
		t.Fatalf("expected escaped message, got: %s", text)
	}
}

func TestSendStatusChangeRetriesThenSucceeds(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient(Config{
		WebhookURL: srv.URL,
		RetryLimit: 2,
		Timeout:    time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = client.SendStatusChange(context.Background(), notify.StatusChangePayload{
		Game:  "resurrected",
		State: "online",
	})
	if err != nil {
		t.Fatalf("SendStatusChange error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
}

func TestSendStatusChangeSurfacesWebhookError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid_payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	client, err := NewClient(Config{WebhookURL: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = client.SendStatusChange(context.Background(), notify.StatusChangePayload{Game: "classic", State: "offline"})
	if err == nil || !strings.Contains(err.Error(), "invalid_payload") {
		t.Fatalf("expected webhook error with body, got %v", err)
	}
}

func containsAll(text string, substrs []string) bool {
	for _, s := range substrs {
		if !strings.Contains(text, s) {
			return false
		}
	}
	return true
}
