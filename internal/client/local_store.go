package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStore implements ObjectStore on the local filesystem. Objects live under
// <root>/<bucket>/<key>; metadata is written next to each object as
// <key>.meta.json. Intended for development behind a static file server.
type LocalStore struct {
	root       string
	bucketName string
	publicHost string
}

// NewLocalStore creates a filesystem backed store
func NewLocalStore(root, bucket, publicHost string) *LocalStore {
	return &LocalStore{root: root, bucketName: bucket, publicHost: publicHost}
}

func (s *LocalStore) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("invalid object key: %q", key)
	}
	return filepath.Join(s.root, s.bucketName, clean), nil
}

// Save writes body and its metadata sidecar
func (s *LocalStore) Save(ctx context.Context, key string, body io.Reader, opts SaveOptions) error {
	dst, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create object dir: %w", err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create object: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return fmt.Errorf("failed to write object: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write object: %w", err)
	}

	meta := map[string]interface{}{
		"contentType": opts.ContentType,
		"metadata":    opts.Metadata,
		"public":      false,
	}
	return writeMeta(dst, meta)
}

// MakePublic flags the object as public in its sidecar
func (s *LocalStore) MakePublic(ctx context.Context, key string) error {
	dst, err := s.path(key)
	if err != nil {
		return err
	}

	meta, err := readMeta(dst)
	if err != nil {
		return fmt.Errorf("failed to make object public: %w", err)
	}
	meta["public"] = true
	return writeMeta(dst, meta)
}

// PublicURL returns the URL the static server exposes for key
func (s *LocalStore) PublicURL(key string) string {
	return publicURL(s.publicHost, s.bucketName, key)
}

// Delete removes an object and its sidecar
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	dst, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(dst); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	_ = os.Remove(dst + ".meta.json")
	return nil
}

func readMeta(objectPath string) (map[string]interface{}, error) {
	data, err := os.ReadFile(objectPath + ".meta.json")
	if err != nil {
		return nil, err
	}
	meta := make(map[string]interface{})
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return meta, nil
}

func writeMeta(objectPath string, meta map[string]interface{}) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return os.WriteFile(objectPath+".meta.json", data, 0644)
}
