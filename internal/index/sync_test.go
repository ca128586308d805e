package index

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codescout/semsearch-mcp/internal/chunker"
	"github.com/codescout/semsearch-mcp/internal/walker"
)

// countingCache records Clear invocations
type countingCache struct {
	mu     sync.Mutex
	clears int
}

func (c *countingCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clears++
}

func (c *countingCache) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clears
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newTestSyncer(t *testing.T, cache CacheClearer) (*Syncer, *Store) {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "index.json"))
	syncer := NewSyncer(store, chunker.New(), cache, walker.Options{})
	return syncer, store
}

func TestSyncTwoFunctionFile(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "mathops.go", "func foo() int {\n\treturn 1\n}\n\nfunc bar() int {\n\treturn 2\n}\n")

	syncer, store := newTestSyncer(t, nil)
	stats, err := syncer.Sync(context.Background(), dir)
	require.NoError(t, err)

	assert.False(t, stats.Skipped)
	assert.Equal(t, 2, stats.ChunksCreated)
	assert.Equal(t, 2, store.Len())
}

func TestSyncIdempotentWhenUnchanged(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "a.go", "func a() {}\n")

	syncer, store := newTestSyncer(t, nil)

	first, err := syncer.Sync(context.Background(), dir)
	require.NoError(t, err)
	require.False(t, first.Skipped)

	freshness := store.Freshness()
	count := store.Len()

	second, err := syncer.Sync(context.Background(), dir)
	require.NoError(t, err)

	assert.True(t, second.Skipped, "unchanged tree must be a no-op")
	assert.Equal(t, freshness, store.Freshness(), "freshness unchanged on skip")
	assert.Equal(t, count, store.Len(), "chunk count unchanged on skip")
}

func TestSyncPicksUpModifiedFile(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "a.go", "func a() {}\n")

	syncer, store := newTestSyncer(t, nil)
	_, err := syncer.Sync(context.Background(), dir)
	require.NoError(t, err)

	// Push the mtime past the stored freshness.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))
	require.NoError(t, os.WriteFile(path, []byte("func a() {}\n\nfunc b() {}\n\nfunc c() {}\n"), 0644))
	require.NoError(t, os.Chtimes(path, future, future))

	stats, err := syncer.Sync(context.Background(), dir)
	require.NoError(t, err)

	assert.False(t, stats.Skipped)
	assert.Equal(t, 3, store.Len())
}

func TestSyncCacheClearedOnLargeSwing(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "a.go", "func a() {}\n\nfunc b() {}\n")

	cache := &countingCache{}
	syncer, _ := newTestSyncer(t, cache)

	// First sync: old count is zero, never clears.
	_, err := syncer.Sync(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 0, cache.count())

	// Grow from 2 chunks to 6: a >50% swing.
	path := writeSource(t, dir, "b.go", "func c() {}\n\nfunc d() {}\n\nfunc e() {}\n\nfunc f() {}\n")
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	stats, err := syncer.Sync(context.Background(), dir)
	require.NoError(t, err)

	assert.True(t, stats.CacheCleared)
	assert.Equal(t, 1, cache.count(), "qualifying sync clears exactly once")
}

func TestSyncCacheKeptOnSmallSwing(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 5; i++ {
		writeSource(t, dir, filepath.Join("pkg", "f"+string(rune('a'+i))+".go"), "func x() {}\n")
	}

	cache := &countingCache{}
	syncer, store := newTestSyncer(t, cache)

	_, err := syncer.Sync(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, 5, store.Len())

	// 5 -> 6 chunks: 20% change, below the invalidation threshold.
	path := writeSource(t, dir, filepath.Join("pkg", "extra.go"), "func y() {}\n")
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	stats, err := syncer.Sync(context.Background(), dir)
	require.NoError(t, err)

	assert.False(t, stats.CacheCleared)
	assert.Equal(t, 0, cache.count(), "sub-threshold change must not clear the cache")
	assert.Equal(t, 6, store.Len())
}

func TestSyncMissingDirectory(t *testing.T) {
	syncer, _ := newTestSyncer(t, nil)

	_, err := syncer.Sync(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestSyncEmptyDirectory(t *testing.T) {
	syncer, store := newTestSyncer(t, nil)

	stats, err := syncer.Sync(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.ChunksCreated)
	assert.Equal(t, 0, store.Len())
}
