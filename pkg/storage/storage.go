// Package storage archives the outputs of converted batches so they can be
// downloaded again by batch ID.
package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a batch or file is not in the archive.
var ErrNotFound = errors.New("file not found")

// FileInfo contains metadata about an archived file
type FileInfo struct {
	BatchID     uuid.UUID `json:"batch_id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// Storage defines the archive operations
type Storage interface {
	// Put stores a file under a batch, replacing any file of the same name
	Put(ctx context.Context, batchID uuid.UUID, name string, contentType string, r io.Reader) (*FileInfo, error)

	// Open returns a reader for an archived file
	Open(ctx context.Context, batchID uuid.UUID, name string) (io.ReadCloser, *FileInfo, error)

	// List returns the files of a batch
	List(ctx context.Context, batchID uuid.UUID) ([]*FileInfo, error)

	// Prune removes batches archived before cutoff and reports how many went
	Prune(ctx context.Context, cutoff time.Time) (int, error)
}
