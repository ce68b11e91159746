package client

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// ObjectStore defines the interface for durable object storage
type ObjectStore interface {
	Save(ctx context.Context, key string, body io.Reader, opts SaveOptions) error
	MakePublic(ctx context.Context, key string) error
	PublicURL(key string) string
	Delete(ctx context.Context, key string) error
}

// SaveOptions carries object attributes set at write time
type SaveOptions struct {
	ContentType string
	Metadata    map[string]string
}

// publicURL builds https://<host>/<bucket>/<key>
func publicURL(host, bucket, key string) string {
	host = strings.TrimSuffix(host, "/")
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	return fmt.Sprintf("%s/%s/%s", host, bucket, strings.TrimPrefix(key, "/"))
}
