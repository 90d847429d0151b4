// Package gcs implements the evidence object store on Google Cloud
// Storage. Uploaded objects get UUID-based keys; download links are
// short-lived V4 signed URLs.
package gcs

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"

	gcsopts "github.com/timooo-thy/rag-atron-mllm/pkg/options/gcs"
)

// Store uploads evidence payloads and mints signed download URLs.
type Store struct {
	client *storage.Client
	opts   *gcsopts.Options
}

// New creates a Store using application default credentials.
func New(ctx context.Context, opts *gcsopts.Options) (*Store, error) {
	if opts == nil {
		return nil, fmt.Errorf("gcs options is nil")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &Store{
		client: client,
		opts:   opts,
	}, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Object describes one stored payload.
type Object struct {
	// Key is the object key within the bucket.
	Key string
	// URL is a signed download link for the object.
	URL string
}

// Upload writes data under a fresh UUID key, with ext appended when
// non-empty, and returns the stored object with a signed URL.
func (s *Store) Upload(ctx context.Context, data []byte, contentType, ext string) (*Object, error) {
	key := s.opts.KeyPrefix + uuid.NewString()
	if ext != "" {
		key += ext
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.UploadTimeout)
	defer cancel()

	w := s.client.Bucket(s.opts.Bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to write object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize object %s: %w", key, err)
	}

	url, err := s.SignedURL(key)
	if err != nil {
		return nil, err
	}
	return &Object{Key: key, URL: url}, nil
}

// SignedURL returns a time-limited V4 GET URL for an existing object.
func (s *Store) SignedURL(key string) (string, error) {
	url, err := s.client.Bucket(s.opts.Bucket).SignedURL(key, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(s.opts.SignedURLTTL),
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign url for %s: %w", key, err)
	}
	return url, nil
}
