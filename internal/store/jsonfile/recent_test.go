package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/folio/internal/core/recent"
)

func TestRecentStore_TouchAndList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewRecentStore(filepath.Join(t.TempDir(), "state", "recent.json"))

	entries, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	opened := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, store.Touch(ctx, recent.Entry{Title: "A", Path: "/a.epub", OpenedAt: opened}, 10))
	require.NoError(t, store.Touch(ctx, recent.Entry{Title: "B", Path: "/b.md", OpenedAt: opened}, 10))
	require.NoError(t, store.Touch(ctx, recent.Entry{Title: "A", Path: "/a.epub", Chapter: 3, OpenedAt: opened}, 10))

	entries, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "/a.epub", entries[0].Path)
	assert.Equal(t, 3, entries[0].Chapter)
	assert.True(t, opened.Equal(entries[0].OpenedAt))
	assert.Equal(t, "/b.md", entries[1].Path)
}

func TestRecentStore_Prunes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewRecentStore(filepath.Join(t.TempDir(), "recent.json"))

	for _, p := range []string{"/1", "/2", "/3"} {
		require.NoError(t, store.Touch(ctx, recent.Entry{Path: p}, 2))
	}

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "/3", entries[0].Path)
	assert.Equal(t, "/2", entries[1].Path)
}

func TestRecentStore_Get(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewRecentStore(filepath.Join(t.TempDir(), "recent.json"))
	require.NoError(t, store.Touch(ctx, recent.Entry{Path: "/a", Chapter: 2}, 0))

	got, err := store.Get(ctx, "/a")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Chapter)

	_, err = store.Get(ctx, "/missing")
	assert.ErrorIs(t, err, recent.ErrNotFound)
}

func TestRecentStore_Clear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewRecentStore(filepath.Join(t.TempDir(), "recent.json"))
	require.NoError(t, store.Touch(ctx, recent.Entry{Path: "/a"}, 0))
	require.NoError(t, store.Clear(ctx))

	entries, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRecentStore_CorruptFile(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "recent.json")
	require.NoError(t, os.WriteFile(p, []byte("{not json"), 0o644))

	_, err := NewRecentStore(p).List(context.Background())
	assert.Error(t, err)
}
