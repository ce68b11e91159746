package client

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// StoredObject is an object held by MemoryStore
type StoredObject struct {
	Data        []byte
	ContentType string
	Metadata    map[string]string
	Public      bool
}

// MemoryStore implements ObjectStore in memory. Used when no storage backend
// is configured and in tests.
type MemoryStore struct {
	bucketName string
	publicHost string

	// SaveErr, when set, is returned by every Save call.
	SaveErr error
	// MakePublicErr, when set, is returned by every MakePublic call.
	MakePublicErr error

	mu        sync.Mutex
	objects   map[string]*StoredObject
	saveCalls int
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(bucket, publicHost string) *MemoryStore {
	return &MemoryStore{
		bucketName: bucket,
		publicHost: publicHost,
		objects:    make(map[string]*StoredObject),
	}
}

func (s *MemoryStore) Save(ctx context.Context, key string, body io.Reader, opts SaveOptions) error {
	s.mu.Lock()
	s.saveCalls++
	saveErr := s.SaveErr
	s.mu.Unlock()

	if saveErr != nil {
		return saveErr
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read object body: %w", err)
	}

	meta := make(map[string]string, len(opts.Metadata))
	for k, v := range opts.Metadata {
		meta[k] = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = &StoredObject{Data: data, ContentType: opts.ContentType, Metadata: meta}
	return nil
}

func (s *MemoryStore) MakePublic(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.MakePublicErr != nil {
		return s.MakePublicErr
	}
	obj, ok := s.objects[key]
	if !ok {
		return fmt.Errorf("object %s not found", key)
	}
	obj.Public = true
	return nil
}

func (s *MemoryStore) PublicURL(key string) string {
	return publicURL(s.publicHost, s.bucketName, key)
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// Object returns a stored object by key
func (s *MemoryStore) Object(key string) (*StoredObject, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	return obj, ok
}

// SaveCalls reports how many times Save was invoked
func (s *MemoryStore) SaveCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveCalls
}
