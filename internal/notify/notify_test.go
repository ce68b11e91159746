package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rebuttal/api/internal/config"
)

func TestNewNotifierFallsBackToLog(t *testing.T) {
	n := NewNotifier(&config.NotifyConfig{})
	if _, ok := n.(LogNotifier); !ok {
		t.Fatalf("got %T, want LogNotifier", n)
	}
	if err := n.Notify(context.Background(), "a@b.c", "https://x/y.mp4", ""); err != nil {
		t.Errorf("LogNotifier returned %v", err)
	}
}

func TestWebhookNotifierPostsMessage(t *testing.T) {
	var got Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected request %s %s", r.Method, r.Header.Get("Content-Type"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := NewNotifier(&config.NotifyConfig{WebhookURL: srv.URL, Timeout: 5})
	err := n.Notify(context.Background(), "student@example.com", "https://storage.googleapis.com/b/responses/response_abc.mp4", "round1.mp4")
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if got.To != "student@example.com" || got.FileName != "round1.mp4" || !strings.Contains(got.Message, "round1.mp4") {
		t.Errorf("message = %+v", got)
	}
	if !strings.HasSuffix(got.URL, "response_abc.mp4") {
		t.Errorf("url = %s", got.URL)
	}
}

func TestWebhookNotifierErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "mailbox unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(srv.URL, time.Second).Notify(context.Background(), "a@b.c", "u", "f")
	if err == nil || !strings.Contains(err.Error(), "status 502") || !strings.Contains(err.Error(), "mailbox unavailable") {
		t.Errorf("err = %v", err)
	}

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer slow.Close()

	if err := NewWebhookNotifier(slow.URL, 20*time.Millisecond).Notify(context.Background(), "a@b.c", "u", "f"); err == nil {
		t.Error("expected timeout error")
	}
}
