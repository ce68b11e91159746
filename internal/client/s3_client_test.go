package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rebuttal/api/internal/config"
)

type s3Request struct {
	method, path, query string
	meta, acl, body     string
}

func TestS3ClientAgainstFakeEndpoint(t *testing.T) {
	var (
		mu   sync.Mutex
		reqs []s3Request
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, s3Request{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			meta:   r.Header.Get("X-Amz-Meta-Originalfileid"),
			acl:    r.Header.Get("X-Amz-Acl"),
			body:   string(body),
		})
		mu.Unlock()
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx := context.Background()
	c, err := NewS3Client(ctx,
		&config.StorageConfig{Bucket: "responses-bucket", PublicHost: "cdn.example.com"},
		&config.S3Config{Endpoint: srv.URL, Region: "us-east-1", AccessKeyID: "id", SecretAccessKey: "secret"},
	)
	if err != nil {
		t.Fatalf("NewS3Client: %v", err)
	}

	key := "responses/response_abc123.mp4"
	err = c.Save(ctx, key, strings.NewReader("mp4-bytes"), SaveOptions{
		ContentType: "video/mp4",
		Metadata:    map[string]string{"originalFileId": "abc123"},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := c.MakePublic(ctx, key); err != nil {
		t.Fatalf("MakePublic: %v", err)
	}
	if err := c.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(reqs) != 3 {
		t.Fatalf("got %d requests, want 3", len(reqs))
	}
	put, acl := reqs[0], reqs[1]
	if put.method != http.MethodPut || put.path != "/responses-bucket/"+key || put.meta != "abc123" {
		t.Errorf("put = %+v", put)
	}
	if !strings.Contains(put.body, "mp4-bytes") {
		t.Errorf("put body = %q", put.body)
	}
	if !strings.Contains(acl.query, "acl") || acl.acl != "public-read" {
		t.Errorf("acl = %+v", acl)
	}
	if reqs[2].method != http.MethodDelete {
		t.Errorf("delete = %+v", reqs[2])
	}

	if got := c.PublicURL(key); got != "https://cdn.example.com/responses-bucket/"+key {
		t.Errorf("PublicURL = %s", got)
	}
}
