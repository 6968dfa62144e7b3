// Copyright (c) 2026 Learnio. All rights reserved.
// Author: quang.dang.dev@gmail.com

/*
Package storage implements object storage for user-uploaded files.

It targets any S3-compatible backend (AWS S3, MinIO, Cloudflare R2) and is
consumed by the account domain through the [account.AvatarStorage] interface.
*/
package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Settings holds the configuration for an S3-compatible object store.
type S3Settings struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	// PublicBaseURL is the URL prefix under which stored objects are
	// reachable (CDN or bucket website endpoint).
	PublicBaseURL string

	// UsePathStyle selects path-style addressing, required by MinIO and most
	// self-hosted stores.
	UsePathStyle bool
}

// S3Store uploads and deletes objects in a single bucket.
type S3Store struct {
	client   *s3.Client
	settings S3Settings
	logger   *slog.Logger
}

// NewS3Store builds an S3 client with static credentials and a custom
// endpoint, suitable for both AWS and self-hosted backends.
func NewS3Store(ctx context.Context, settings S3Settings, logger *slog.Logger) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(settings.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(settings.AccessKey, settings.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to load S3 configuration: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(options *s3.Options) {
		if settings.Endpoint != "" {
			options.BaseEndpoint = aws.String(settings.Endpoint)
		}
		options.UsePathStyle = settings.UsePathStyle
	})

	return &S3Store{client: client, settings: settings, logger: logger}, nil
}

/*
Upload stores an object and returns its public URL.

Parameters:
  - ctx: context.Context (bounds the upload)
  - key: Object key within the bucket
  - contentType: MIME type of the payload
  - payload: Raw object bytes

Returns:
  - string: Public URL of the stored object
  - error: Backend failures
*/
func (store *S3Store) Upload(ctx context.Context, key string, contentType string, payload []byte) (string, error) {
	_, err := store.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(store.settings.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("storage: failed to upload object %q: %w", key, err)
	}

	store.logger.Info("object_uploaded",
		slog.String("key", key),
		slog.Int("size_bytes", len(payload)),
	)

	return store.publicURL(key), nil
}

// Delete removes an object from the bucket. Deleting a missing key is not an
// error; S3 semantics make the operation idempotent.
func (store *S3Store) Delete(ctx context.Context, key string) error {
	_, err := store.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(store.settings.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("storage: failed to delete object %q: %w", key, err)
	}

	store.logger.Info("object_deleted", slog.String("key", key))
	return nil
}

// publicURL joins the configured public base URL with an object key.
func (store *S3Store) publicURL(key string) string {
	base := strings.TrimSuffix(store.settings.PublicBaseURL, "/")
	return base + "/" + key
}
