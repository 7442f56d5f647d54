// Package directory reads the externally-maintained business-directory
// documents from an S3-compatible object store. The documents are opaque
// text — interpretation is delegated entirely to the model.
package directory

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/fleveque/bizmatch-service/internal/config"
)

// Store fetches the system-prompt document and the directory snapshot.
// Errors are returned to the caller — the resolver owns the fallback
// policy (canned offline prompt, empty directory) and applies it at the
// call site, so nothing here silently swallows a failure.
type Store interface {
	FetchSystemPrompt(ctx context.Context) (string, error)
	FetchDirectory(ctx context.Context) (string, error)
}

// ObjectStore is the minio-backed Store implementation.
type ObjectStore struct {
	client      *minio.Client
	bucket      string
	promptKey   string
	listingsKey string
	pagesKey    string
}

// NewObjectStore creates a Store reading from the configured bucket.
func NewObjectStore(cfg config.DirectoryConfig) (*ObjectStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating object store client: %w", err)
	}

	return &ObjectStore{
		client:      client,
		bucket:      cfg.Bucket,
		promptKey:   cfg.PromptObject,
		listingsKey: cfg.ListingsObject,
		pagesKey:    cfg.PagesObject,
	}, nil
}

// FetchSystemPrompt reads the config/system-prompt document.
func (s *ObjectStore) FetchSystemPrompt(ctx context.Context) (string, error) {
	return s.readObject(ctx, s.promptKey)
}

// FetchDirectory reads the directory snapshot: a structured listings
// document plus a free-text pages document, joined into one context
// string. At least one of the two must be readable.
func (s *ObjectStore) FetchDirectory(ctx context.Context) (string, error) {
	listings, listErr := s.readObject(ctx, s.listingsKey)
	pages, pagesErr := s.readObject(ctx, s.pagesKey)

	if listErr != nil && pagesErr != nil {
		return "", fmt.Errorf("fetching directory documents: %w", listErr)
	}

	parts := make([]string, 0, 2)
	if listErr == nil && listings != "" {
		parts = append(parts, listings)
	}
	if pagesErr == nil && pages != "" {
		parts = append(parts, pages)
	}
	return strings.Join(parts, "\n\n"), nil
}

func (s *ObjectStore) readObject(ctx context.Context, key string) (string, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("getting object %s/%s: %w", s.bucket, key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return "", fmt.Errorf("reading object %s/%s: %w", s.bucket, key, err)
	}
	return string(data), nil
}
