package client

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/rebuttal/api/internal/config"
)

// S3Client implements ObjectStore for S3 compatible storage (AWS, R2, MinIO)
type S3Client struct {
	s3Client   *s3.Client
	bucketName string
	publicHost string
}

// NewS3Client creates a new S3 storage client
func NewS3Client(ctx context.Context, storageCfg *config.StorageConfig, cfg *config.S3Config) (*S3Client, error) {
	if storageCfg.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket not configured")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Client{
		s3Client:   s3Client,
		bucketName: storageCfg.Bucket,
		publicHost: storageCfg.PublicHost,
	}, nil
}

// Save uploads body with metadata attached
func (c *S3Client) Save(ctx context.Context, key string, body io.Reader, opts SaveOptions) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(c.bucketName),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(opts.ContentType),
		Metadata:    opts.Metadata,
	}

	if _, err := c.s3Client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

// MakePublic applies the public-read canned ACL
func (c *S3Client) MakePublic(ctx context.Context, key string) error {
	input := &s3.PutObjectAclInput{
		Bucket: aws.String(c.bucketName),
		Key:    aws.String(key),
		ACL:    types.ObjectCannedACLPublicRead,
	}

	if _, err := c.s3Client.PutObjectAcl(ctx, input); err != nil {
		return fmt.Errorf("failed to make object public: %w", err)
	}
	return nil
}

// PublicURL returns the public URL for a key
func (c *S3Client) PublicURL(key string) string {
	return publicURL(c.publicHost, c.bucketName, key)
}

// Delete removes a file from S3
func (c *S3Client) Delete(ctx context.Context, key string) error {
	input := &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucketName),
		Key:    aws.String(key),
	}

	if _, err := c.s3Client.DeleteObject(ctx, input); err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}
