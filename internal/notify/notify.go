// Package notify delivers "your response video is ready" messages.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/rebuttal/api/internal/config"
)

const userAgent = "Rebuttal-Notifier/1.0"

// Notifier tells a requester where their finished video lives
type Notifier interface {
	Notify(ctx context.Context, email, url, fileName string) error
}

// NewNotifier returns a webhook notifier when a URL is configured and a
// logging notifier otherwise.
func NewNotifier(cfg *config.NotifyConfig) Notifier {
	endpoint := strings.TrimSpace(cfg.WebhookURL)
	if endpoint == "" {
		return LogNotifier{}
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return NewWebhookNotifier(endpoint, timeout)
}

// LogNotifier only logs the notification
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, email, url, fileName string) error {
	log.Printf("[Notify] Response video for %s is ready for %s: %s", displayName(fileName), email, url)
	return nil
}

// Message is the JSON body posted by WebhookNotifier
type Message struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Message  string `json:"message"`
	URL      string `json:"url"`
	FileName string `json:"fileName"`
}

// WebhookNotifier posts a Message to an HTTP endpoint
type WebhookNotifier struct {
	endpoint string
	client   *http.Client
}

func NewWebhookNotifier(endpoint string, timeout time.Duration) *WebhookNotifier {
	return &WebhookNotifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, email, url, fileName string) error {
	name := displayName(fileName)
	body, err := json.Marshal(Message{
		To:       email,
		Subject:  "Your AI debate response is ready",
		Message:  fmt.Sprintf("The AI response to %s is ready to watch.", name),
		URL:      url,
		FileName: fileName,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("notification webhook returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return nil
}

func displayName(fileName string) string {
	if strings.TrimSpace(fileName) == "" {
		return "your debate video"
	}
	return fileName
}
