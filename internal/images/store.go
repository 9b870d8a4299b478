// Package images provides S3-backed storage for recipe images.
package images

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/souschef/souschef/internal/constants"
	"github.com/souschef/souschef/internal/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Client defines the interface for S3 operations used by the store.
// This interface makes the store easier to test by allowing mock implementations.
type Client interface {
	PutObject(
		ctx context.Context,
		params *s3.PutObjectInput,
		optFns ...func(*s3.Options),
	) (*s3.PutObjectOutput, error)
	DeleteObject(
		ctx context.Context,
		params *s3.DeleteObjectInput,
		optFns ...func(*s3.Options),
	) (*s3.DeleteObjectOutput, error)
}

// ClientAdapter wraps the AWS SDK S3 client to implement the Client interface.
type ClientAdapter struct {
	client *s3.Client
}

// NewClientAdapter creates a new adapter wrapping the AWS SDK S3 client.
func NewClientAdapter(client *s3.Client) *ClientAdapter {
	return &ClientAdapter{client: client}
}

// PutObject wraps the AWS SDK PutObject operation.
func (a *ClientAdapter) PutObject(
	ctx context.Context,
	params *s3.PutObjectInput,
	optFns ...func(*s3.Options),
) (*s3.PutObjectOutput, error) {
	return a.client.PutObject(ctx, params, optFns...)
}

// DeleteObject wraps the AWS SDK DeleteObject operation.
func (a *ClientAdapter) DeleteObject(
	ctx context.Context,
	params *s3.DeleteObjectInput,
	optFns ...func(*s3.Options),
) (*s3.DeleteObjectOutput, error) {
	return a.client.DeleteObject(ctx, params, optFns...)
}

// extensions maps accepted image content types to object key extensions.
// Content types outside this map are rejected before anything is uploaded.
var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Store uploads recipe images to S3 and builds their public URLs.
type Store struct {
	client  Client
	bucket  string
	baseURL string
	logger  *slog.Logger
}

// NewStore creates a new S3-backed image store.
// baseURL is the public prefix joined with object keys by URL.
func NewStore(client Client, bucket, baseURL string, log *slog.Logger) *Store {
	return &Store{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  log,
	}
}

// Put uploads image bytes under a fresh uploads/recipe/<uuid><ext> key and
// returns the key. The extension is derived from the content type; an
// unrecognized content type is rejected.
func (s *Store) Put(ctx context.Context, data []byte, contentType string) (string, error) {
	ext, ok := extensions[contentType]
	if !ok {
		return "", fmt.Errorf("unsupported image content type: %s", contentType)
	}

	key := constants.ImageKeyPrefix + uuid.NewString() + ext

	reqLogger := logger.DeriveRequestLogger(ctx, s.logger)
	logArgs := []any{
		"operation", "S3.PutObject",
		"bucket", s.bucket,
		"key", key,
		"size_bytes", len(data),
	}
	logArgs = append(logArgs, logger.GetDeadlineInfo(ctx)...)
	reqLogger.Debug("calling external service", "context", logger.SliceToMap(logArgs))

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	return key, nil
}

// Delete removes an object by key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}

	reqLogger := logger.DeriveRequestLogger(ctx, s.logger)
	logArgs := []any{
		"operation", "S3.DeleteObject",
		"bucket", s.bucket,
		"key", key,
	}
	logArgs = append(logArgs, logger.GetDeadlineInfo(ctx)...)
	reqLogger.Debug("calling external service", "context", logger.SliceToMap(logArgs))

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}

	return nil
}

// URL returns the public URL for a stored key, or "" for an empty key.
func (s *Store) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.baseURL + "/" + key
}

// SniffContentType reports the detected content type of the data and whether
// it is an accepted image type. Detection looks at the content itself, not at
// whatever the client claimed.
func SniffContentType(data []byte) (string, bool) {
	contentType := http.DetectContentType(data)
	_, ok := extensions[contentType]
	return contentType, ok
}
