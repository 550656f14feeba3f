package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const metaDir = ".meta"

// LocalStorage implements Storage using the local filesystem. Each batch
// is a directory named after its ID.
type LocalStorage struct {
	basePath string
	now      func() time.Time
}

// NewLocalStorage creates a new local filesystem archive
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath, now: time.Now}, nil
}

// Put stores a file and returns its metadata
func (s *LocalStorage) Put(ctx context.Context, batchID uuid.UUID, name string, contentType string, r io.Reader) (*FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name = sanitizeFilename(name)
	batchDir := filepath.Join(s.basePath, batchID.String())
	if err := os.MkdirAll(filepath.Join(batchDir, metaDir), 0755); err != nil {
		return nil, fmt.Errorf("failed to create batch directory: %w", err)
	}

	filePath := filepath.Join(batchDir, name)
	f, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	info := &FileInfo{
		BatchID:     batchID,
		Name:        name,
		Size:        size,
		ContentType: contentType,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.saveMetadata(info); err != nil {
		os.Remove(filePath)
		return nil, err
	}
	return info, nil
}

// Open retrieves an archived file
func (s *LocalStorage) Open(ctx context.Context, batchID uuid.UUID, name string) (io.ReadCloser, *FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	name = sanitizeFilename(name)
	info, err := s.info(batchID, name)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(filepath.Join(s.basePath, batchID.String(), name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s/%s", ErrNotFound, batchID, name)
		}
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, info, nil
}

// List returns all files of a batch ordered by name
func (s *LocalStorage) List(ctx context.Context, batchID uuid.UUID) ([]*FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(filepath.Join(s.basePath, batchID.String(), metaDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: batch %s", ErrNotFound, batchID)
		}
		return nil, fmt.Errorf("failed to list metadata: %w", err)
	}

	files := make([]*FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := s.info(batchID, strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		files = append(files, info)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Prune removes every batch directory last modified before cutoff.
// Directories that are not batch IDs are left alone.
func (s *LocalStorage) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return 0, fmt.Errorf("failed to list batches: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if !entry.IsDir() {
			continue
		}
		if _, err := uuid.Parse(entry.Name()); err != nil {
			continue
		}
		fi, err := entry.Info()
		if err != nil || !fi.ModTime().Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.basePath, entry.Name())); err != nil {
			return removed, fmt.Errorf("failed to remove batch %s: %w", entry.Name(), err)
		}
		removed++
	}
	return removed, nil
}

func (s *LocalStorage) info(batchID uuid.UUID, name string) (*FileInfo, error) {
	data, err := os.ReadFile(filepath.Join(s.basePath, batchID.String(), metaDir, name+".json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, batchID, name)
		}
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var info FileInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return &info, nil
}

func (s *LocalStorage) saveMetadata(info *FileInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	metaPath := filepath.Join(s.basePath, info.BatchID.String(), metaDir, info.Name+".json")
	if err := os.WriteFile(metaPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return nil
}

// sanitizeFilename keeps archived names inside their batch directory
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		"..", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	name = replacer.Replace(name)
	if name == "" || name == metaDir {
		name = "_"
	}
	return name
}
