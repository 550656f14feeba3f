package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*LocalStorage, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)
	return s, dir
}

func TestLocalStorage_PutOpen(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	batch := uuid.New()

	info, err := s.Put(ctx, batch, "journal.csv", "text/csv", strings.NewReader("date,account\n"))
	require.NoError(t, err)
	assert.Equal(t, batch, info.BatchID)
	assert.Equal(t, int64(13), info.Size)

	rc, got, err := s.Open(ctx, batch, "journal.csv")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "date,account\n", string(data))
	assert.Equal(t, "text/csv", got.ContentType)
}

func TestLocalStorage_List(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	batch := uuid.New()

	for _, name := range []string{"journal.xlsx", "journal.csv"} {
		_, err := s.Put(ctx, batch, name, "application/octet-stream", strings.NewReader("x"))
		require.NoError(t, err)
	}

	files, err := s.List(ctx, batch)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "journal.csv", files[0].Name)
	assert.Equal(t, "journal.xlsx", files[1].Name)
}

func TestLocalStorage_NotFound(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	_, _, err := s.Open(ctx, uuid.New(), "journal.csv")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.List(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorage_SanitizesNames(t *testing.T) {
	s, dir := newStore(t)
	batch := uuid.New()

	info, err := s.Put(context.Background(), batch, "../../etc/passwd", "text/plain", strings.NewReader("x"))
	require.NoError(t, err)
	assert.NotContains(t, info.Name, "/")

	_, err = os.Stat(filepath.Join(dir, batch.String(), info.Name))
	assert.NoError(t, err)
}

func TestLocalStorage_Prune(t *testing.T) {
	s, dir := newStore(t)
	ctx := context.Background()

	old, fresh := uuid.New(), uuid.New()
	for _, b := range []uuid.UUID{old, fresh} {
		_, err := s.Put(ctx, b, "journal.csv", "text/csv", strings.NewReader("x"))
		require.NoError(t, err)
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "keep-me"), 0755))

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, old.String()), past, past))
	require.NoError(t, os.Chtimes(filepath.Join(dir, "keep-me"), past, past))

	removed, err := s.Prune(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = s.List(ctx, old)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.List(ctx, fresh)
	assert.NoError(t, err)
	assert.DirExists(t, filepath.Join(dir, "keep-me"))
}
