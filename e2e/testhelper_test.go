package e2e

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/rebuttal/api/internal/client"
	"github.com/rebuttal/api/internal/handler"
	"github.com/rebuttal/api/internal/middleware"
	"github.com/rebuttal/api/internal/service"
	"github.com/rebuttal/api/internal/speech"
	"github.com/rebuttal/api/internal/transcoder"
)

const testBucket = "debate-responses"

// testApp holds all components needed for testing
type testApp struct {
	app      *fiber.App
	store    *client.MemoryStore
	fake     *transcoder.Fake
	notifier *failingNotifier
}

// failingNotifier counts calls and optionally fails them
type failingNotifier struct {
	fail  bool
	calls int
}

func (n *failingNotifier) Notify(ctx context.Context, email, url, fileName string) error {
	n.calls++
	if n.fail {
		return errors.New("notification webhook unreachable")
	}
	return nil
}

// videoFetcher stands in for the HTTP downloader
type videoFetcher struct{}

func (videoFetcher) Fetch(ctx context.Context, src, dst string) error {
	if strings.Contains(src, "missing") {
		return errors.New("failed to download video: status 404")
	}
	return client.WriteFile(dst, strings.NewReader("video"), 0)
}

// setupApp creates a Fiber app wired like main.go but with the in-memory
// transcoder, memory storage and no Redis.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	fake := transcoder.NewFake()
	store := client.NewMemoryStore(testBucket, "storage.googleapis.com")
	notifier := &failingNotifier{}

	debateService := service.NewDebateService(service.Deps{
		WorkDir:     t.TempDir(),
		Fetcher:     videoFetcher{},
		Transcoder:  fake,
		Transcriber: speech.PlaceholderTranscriber{},
		Generator: client.StaticGenerator{
			Text: "You made a strong opening. However, the evidence was thin.",
		},
		Synthesizer: speech.NewSilentSynthesizer(fake, 10*time.Second),
		Store:       store,
		Notifier:    notifier,
		Tracker:     service.NewMemoryTracker(),
	})

	validate := handler.NewValidator()
	debateHandler := handler.NewDebateHandler(debateService, validate)
	healthHandler := handler.NewHealthHandler(map[string]string{
		"generator":   "static",
		"transcriber": "placeholder",
		"synthesizer": "silent",
		"storage":     "memory",
		"redis":       "unavailable",
	})

	app := fiber.New(fiber.Config{
		BodyLimit: 50 * 1024 * 1024,
	})
	app.Use(middleware.RequestID())

	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.Health)
	app.Post("/processDebateVideo", middleware.NewRateLimiter(nil).ProcessLimit(0), debateHandler.Process)

	return &testApp{app: app, store: store, fake: fake, notifier: notifier}
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}
