// Package storage implements the object store port over the Supabase
// storage API. Public URLs follow the custom-domain convention: the
// configured base joined with the object key.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	storage_go "github.com/supabase-community/storage-go"

	"morsel/internal/config"
	"morsel/internal/ports"
)

// Bucket is an object store scoped to a single bucket.
type Bucket struct {
	client    *storage_go.Client
	bucket    string
	publicURL string
}

var _ ports.ObjectStore = (*Bucket)(nil)

// NewBucket builds the store client from configuration. Returns nil when no
// bucket is configured; callers treat a nil store as "publishing disabled".
func NewBucket(cfg config.StorageConfig) *Bucket {
	if !cfg.Configured() {
		return nil
	}
	return &Bucket{
		client:    storage_go.NewClient(strings.TrimRight(cfg.URL, "/"), cfg.APIKey, nil),
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
	}
}

// Put uploads data under key, overwriting any existing object.
func (b *Bucket) Put(ctx context.Context, key string, data []byte, contentType string) error {
	upsert := true
	options := storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	}
	if _, err := b.client.UploadFile(b.bucket, key, bytes.NewReader(data), options); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Get downloads the object at key, or ports.ErrObjectNotFound.
func (b *Bucket) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := b.client.DownloadFile(b.bucket, key)
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("get %s: %w", key, ports.ErrObjectNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return data, nil
}

// List returns the keys under prefix. The storage API lists folders, so the
// prefix is treated as a folder path and rejoined onto the entry names.
func (b *Bucket) List(ctx context.Context, prefix string) ([]string, error) {
	folder := strings.TrimRight(prefix, "/")
	objects, err := b.client.ListFiles(b.bucket, folder, storage_go.FileSearchOptions{Limit: 1000})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}

	keys := make([]string, 0, len(objects))
	for _, object := range objects {
		if object.Name == "" {
			continue
		}
		if folder == "" {
			keys = append(keys, object.Name)
		} else {
			keys = append(keys, folder+"/"+object.Name)
		}
	}
	return keys, nil
}

// Delete removes the object at key. Deleting an absent key is not an error.
func (b *Bucket) Delete(ctx context.Context, key string) error {
	if _, err := b.client.RemoveFile(b.bucket, []string{key}); err != nil {
		if notFound(err) {
			return nil
		}
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// PublicURL maps a key to its public address.
func (b *Bucket) PublicURL(key string) string {
	return b.publicURL + "/" + key
}

func notFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not_found") ||
		strings.Contains(msg, "not found") ||
		strings.Contains(msg, "404")
}
