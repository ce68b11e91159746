package client

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/rebuttal/api/internal/config"
)

// GCSClient implements ObjectStore for Google Cloud Storage
type GCSClient struct {
	client     *storage.Client
	bucketName string
	publicHost string
}

// NewGCSClient creates a new GCS storage client. Credentials come from the
// configured file or the ambient application default credentials.
func NewGCSClient(ctx context.Context, cfg *config.StorageConfig) (*GCSClient, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("GCS bucket not configured")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSClient{
		client:     client,
		bucketName: cfg.Bucket,
		publicHost: cfg.PublicHost,
	}, nil
}

// Save streams body into the bucket with the given metadata
func (c *GCSClient) Save(ctx context.Context, key string, body io.Reader, opts SaveOptions) error {
	w := c.client.Bucket(c.bucketName).Object(key).NewWriter(ctx)
	w.ContentType = opts.ContentType
	w.Metadata = opts.Metadata

	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to upload to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize GCS upload: %w", err)
	}
	return nil
}

// MakePublic grants allUsers read access to the object
func (c *GCSClient) MakePublic(ctx context.Context, key string) error {
	acl := c.client.Bucket(c.bucketName).Object(key).ACL()
	if err := acl.Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		return fmt.Errorf("failed to make object public: %w", err)
	}
	return nil
}

// PublicURL returns the public URL for a key
func (c *GCSClient) PublicURL(key string) string {
	return publicURL(c.publicHost, c.bucketName, key)
}

// Delete removes an object
func (c *GCSClient) Delete(ctx context.Context, key string) error {
	if err := c.client.Bucket(c.bucketName).Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete from GCS: %w", err)
	}
	return nil
}

// Open reads an object from any bucket; used for gs:// ingress URLs
func (c *GCSClient) Open(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	r, err := c.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open gs://%s/%s: %w", bucket, key, err)
	}
	return r, nil
}

// Close releases the underlying client
func (c *GCSClient) Close() error {
	return c.client.Close()
}
