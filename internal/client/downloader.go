package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// ObjectOpener reads an object from a bucket
type ObjectOpener interface {
	Open(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// Downloader fetches input videos referenced by URL into local files.
// Supports http(s) and, when an ObjectOpener is set, gs:// URLs.
type Downloader struct {
	httpClient *http.Client
	objects    ObjectOpener
	maxBytes   int64
}

// NewDownloader creates a downloader. objects may be nil.
func NewDownloader(objects ObjectOpener, maxBytes int64) *Downloader {
	return &Downloader{
		httpClient: &http.Client{
			Timeout: 10 * time.Minute,
		},
		objects:  objects,
		maxBytes: maxBytes,
	}
}

// Fetch copies the resource at src into dst
func (d *Downloader) Fetch(ctx context.Context, src, dst string) error {
	u, err := url.Parse(src)
	if err != nil {
		return fmt.Errorf("invalid video URL: %w", err)
	}

	var body io.ReadCloser
	switch u.Scheme {
	case "http", "https":
		body, err = d.openHTTP(ctx, src)
	case "gs":
		if d.objects == nil {
			return fmt.Errorf("gs:// URLs require GCS storage to be configured")
		}
		body, err = d.objects.Open(ctx, u.Host, strings.TrimPrefix(u.Path, "/"))
	default:
		return fmt.Errorf("unsupported video URL scheme %q", u.Scheme)
	}
	if err != nil {
		return err
	}
	defer body.Close()

	return WriteFile(dst, body, d.maxBytes)
}

func (d *Downloader) openHTTP(ctx context.Context, src string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download video: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to download video: status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// WriteFile streams r into a new file at dst, refusing more than maxBytes
// when maxBytes is positive.
func WriteFile(dst string, r io.Reader, maxBytes int64) error {
	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	if maxBytes > 0 {
		r = io.LimitReader(r, maxBytes+1)
	}
	n, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	if maxBytes > 0 && n > maxBytes {
		return fmt.Errorf("video exceeds %d byte limit", maxBytes)
	}
	return nil
}
