package client

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPublicURL(t *testing.T) {
	tests := []struct {
		host, bucket, key, want string
	}{
		{"storage.googleapis.com", "b", "responses/r.mp4", "https://storage.googleapis.com/b/responses/r.mp4"},
		{"http://localhost:9000/", "b", "/k", "http://localhost:9000/b/k"},
	}
	for _, tt := range tests {
		if got := publicURL(tt.host, tt.bucket, tt.key); got != tt.want {
			t.Errorf("publicURL(%q,%q,%q) = %q, want %q", tt.host, tt.bucket, tt.key, got, tt.want)
		}
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("bucket", "storage.googleapis.com")

	if err := s.MakePublic(ctx, "missing"); err == nil {
		t.Error("expected error making a missing object public")
	}

	err := s.Save(ctx, "responses/a.mp4", strings.NewReader("mp4"), SaveOptions{
		ContentType: "video/mp4",
		Metadata:    map[string]string{"type": "ai-response-video"},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.MakePublic(ctx, "responses/a.mp4"); err != nil {
		t.Fatalf("MakePublic: %v", err)
	}

	obj, ok := s.Object("responses/a.mp4")
	if !ok || string(obj.Data) != "mp4" || !obj.Public || obj.Metadata["type"] != "ai-response-video" {
		t.Fatalf("unexpected object: %+v", obj)
	}

	s.SaveErr = errors.New("quota exceeded")
	if err := s.Save(ctx, "x", strings.NewReader(""), SaveOptions{}); err == nil {
		t.Error("expected SaveErr")
	}
	if s.SaveCalls() != 2 {
		t.Errorf("SaveCalls = %d, want 2", s.SaveCalls())
	}

	_ = s.Delete(ctx, "responses/a.mp4")
	if _, ok := s.Object("responses/a.mp4"); ok {
		t.Error("object still present after Delete")
	}
}

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s := NewLocalStore(root, "bucket", "http://localhost:8081")

	key := "responses/response_abc.mp4"
	if err := s.Save(ctx, key, strings.NewReader("mp4"), SaveOptions{ContentType: "video/mp4"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.MakePublic(ctx, key); err != nil {
		t.Fatalf("MakePublic: %v", err)
	}

	objPath := filepath.Join(root, "bucket", "responses", "response_abc.mp4")
	data, err := os.ReadFile(objPath)
	if err != nil || string(data) != "mp4" {
		t.Fatalf("object = %q, %v", data, err)
	}
	meta, err := readMeta(objPath)
	if err != nil || meta["public"] != true {
		t.Fatalf("meta = %v, %v", meta, err)
	}

	if got := s.PublicURL(key); got != "http://localhost:8081/bucket/"+key {
		t.Errorf("PublicURL = %s", got)
	}

	if err := s.Save(ctx, "../escape", strings.NewReader(""), SaveOptions{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "bucket", "escape")); err != nil {
		t.Errorf("dot-dot key not confined to the bucket: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "escape")); !os.IsNotExist(err) {
		t.Error("dot-dot key escaped the bucket")
	}

	dotted := "responses/response_a..b.mp4"
	if err := s.Save(ctx, dotted, strings.NewReader("mp4"), SaveOptions{}); err != nil {
		t.Fatalf("Save %s: %v", dotted, err)
	}
	if err := s.MakePublic(ctx, dotted); err != nil {
		t.Fatalf("MakePublic %s: %v", dotted, err)
	}

	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(objPath); !os.IsNotExist(err) {
		t.Error("object still on disk after Delete")
	}
}

func TestStaticGenerator(t *testing.T) {
	text, err := StaticGenerator{}.Generate(context.Background(), "anything")
	if err != nil || text != DefaultStaticResponse {
		t.Errorf("Generate = %q, %v", text, err)
	}
	text, _ = StaticGenerator{Text: "Custom."}.Generate(context.Background(), "x")
	if text != "Custom." {
		t.Errorf("Generate = %q", text)
	}
}
