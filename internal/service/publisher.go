package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/rebuttal/api/internal/client"
)

const (
	responsePrefix    = "responses/"
	responseMediaType = "video/mp4"
	responseType      = "ai-response-video"
)

// Publisher uploads finished response videos and makes them publicly readable
type Publisher struct {
	store client.ObjectStore
	now   func() time.Time
}

func NewPublisher(store client.ObjectStore) *Publisher {
	return &Publisher{store: store, now: time.Now}
}

// ObjectKey is the storage key for a job's response video
func ObjectKey(jobID string) string {
	return fmt.Sprintf("%sresponse_%s.mp4", responsePrefix, jobID)
}

// Publish uploads the file at path and returns its public URL. No retry.
func (p *Publisher) Publish(ctx context.Context, path, jobID, email string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open final video: %w", err)
	}
	defer f.Close()

	key := ObjectKey(jobID)
	opts := client.SaveOptions{
		ContentType: responseMediaType,
		Metadata: map[string]string{
			"originalFileId": jobID,
			"userEmail":      email,
			"processedAt":    p.now().UTC().Format(time.RFC3339),
			"type":           responseType,
		},
	}

	if err := p.store.Save(ctx, key, f, opts); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	if err := p.store.MakePublic(ctx, key); err != nil {
		// Private objects are unreachable; remove it.
		if derr := p.store.Delete(ctx, key); derr != nil {
			log.Printf("[Publish] failed to remove private object %s: %v", key, derr)
		}
		return "", fmt.Errorf("failed to make %s public: %w", key, err)
	}

	return p.store.PublicURL(key), nil
}
