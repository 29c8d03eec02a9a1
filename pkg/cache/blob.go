package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

var blobIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// BlobStore keeps document binaries on disk, outside the quota'd gateway.
// Snapshots reference documents by ID only; the blobs let a later process
// pick the binaries up again. Archives carry document IDs, so the same ID
// can live in several projects; callers key blobs with [BlobKey].
type BlobStore struct {
	dir string
}

// NewBlobStore creates the directory if needed.
func NewBlobStore(dir string) (*BlobStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &BlobStore{dir: dir}, nil
}

// BlobKey scopes a document ID to its project.
func BlobKey(project, id string) string {
	return Hash([]byte(project))[:16] + "-" + id
}

// Put stores data under id.
func (b *BlobStore) Put(ctx context.Context, id string, data []byte) error {
	path, err := b.path(id)
	if err != nil {
		return err
	}
	if err := writeAtomic(path, data); err != nil {
		if isNoSpace(err) {
			return quotaError(id, len(data), err)
		}
		return err
	}
	return nil
}

// Get returns the blob for id, or ErrNotFound.
func (b *BlobStore) Get(ctx context.Context, id string) ([]byte, error) {
	path, err := b.path(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("blob %s: %w", id, ErrNotFound)
	}
	return data, err
}

// Delete removes the blob for id. A missing blob is not an error.
func (b *BlobStore) Delete(ctx context.Context, id string) error {
	path, err := b.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Move renames the blob from one id to another, replacing any blob at to.
// A missing source is not an error.
func (b *BlobStore) Move(ctx context.Context, from, to string) error {
	src, err := b.path(from)
	if err != nil {
		return err
	}
	dst, err := b.path(to)
	if err != nil {
		return err
	}
	if err := os.Rename(src, dst); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (b *BlobStore) path(id string) (string, error) {
	if !blobIDPattern.MatchString(id) || id == "." || id == ".." {
		return "", fmt.Errorf("invalid blob id %q", id)
	}
	return filepath.Join(b.dir, id), nil
}
