package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeOpener struct {
	bucket, key string
	data        string
}

func (f *fakeOpener) Open(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	f.bucket, f.key = bucket, key
	return io.NopCloser(strings.NewReader(f.data)), nil
}

func TestDownloaderHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.mp4" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "video-bytes")
	}))
	defer srv.Close()

	d := NewDownloader(nil, 0)
	dst := filepath.Join(t.TempDir(), "in.mp4")

	if err := d.Fetch(context.Background(), srv.URL+"/debate.mp4", dst); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	data, _ := os.ReadFile(dst)
	if string(data) != "video-bytes" {
		t.Errorf("data = %q", data)
	}

	err := d.Fetch(context.Background(), srv.URL+"/missing.mp4", dst)
	if err == nil || !strings.Contains(err.Error(), "status 404") {
		t.Errorf("err = %v, want status 404", err)
	}
}

func TestDownloaderGS(t *testing.T) {
	opener := &fakeOpener{data: "gs-bytes"}
	d := NewDownloader(opener, 0)
	dst := filepath.Join(t.TempDir(), "in.mp4")

	if err := d.Fetch(context.Background(), "gs://uploads/videos/abc.mp4", dst); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if opener.bucket != "uploads" || opener.key != "videos/abc.mp4" {
		t.Errorf("opened %s/%s", opener.bucket, opener.key)
	}

	if err := NewDownloader(nil, 0).Fetch(context.Background(), "gs://uploads/a.mp4", dst); err == nil {
		t.Error("expected error without object opener")
	}
}

func TestDownloaderRejectsUnknownScheme(t *testing.T) {
	d := NewDownloader(nil, 0)
	err := d.Fetch(context.Background(), "ftp://example.com/a.mp4", filepath.Join(t.TempDir(), "x"))
	if err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("err = %v", err)
	}
}

func TestWriteFileLimit(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "big")
	if err := WriteFile(dst, strings.NewReader("0123456789"), 5); err == nil {
		t.Error("expected size limit error")
	}
	if err := WriteFile(dst, strings.NewReader("01234"), 5); err != nil {
		t.Errorf("unexpected error at limit: %v", err)
	}
}
