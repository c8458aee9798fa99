// Copyright (c) 2026 Bloomify. All rights reserved.

// Package objectstore archives exported documents in an S3-compatible bucket
// and hands out short-lived presigned download links.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config holds bucket connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Store is a single-bucket archive.
type Store struct {
	client *minio.Client
	bucket string
}

// New connects to the endpoint and creates the bucket when missing.
func New(ctx context.Context, config Config, logger *slog.Logger) (*Store, error) {
	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("objectstore: client init failed: %w", err)
	}

	exists, err := client.BucketExists(ctx, config.Bucket)
	if err != nil {
		return nil, fmt.Errorf("objectstore: bucket check failed: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, config.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("objectstore: bucket create failed: %w", err)
		}
		logger.Info("objectstore_bucket_created", slog.String("bucket", config.Bucket))
	}

	logger.Info("objectstore_connected", slog.String("endpoint", config.Endpoint), slog.String("bucket", config.Bucket))

	return &Store{client: client, bucket: config.Bucket}, nil
}

// Put uploads content under key, overwriting any previous object.
func (store *Store) Put(ctx context.Context, key, contentType string, content []byte) error {
	_, err := store.client.PutObject(ctx, store.bucket, key, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("objectstore: put %s failed: %w", key, err)
	}
	return nil
}

// PresignedURL returns a GET link for key that downloads as filename.
func (store *Store) PresignedURL(ctx context.Context, key, filename string, expiry time.Duration) (string, error) {
	params := make(url.Values)
	params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", filename))

	link, err := store.client.PresignedGetObject(ctx, store.bucket, key, expiry, params)
	if err != nil {
		return "", fmt.Errorf("objectstore: presign %s failed: %w", key, err)
	}
	return link.String(), nil
}
