package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codescout/semsearch-mcp/pkg/types"
)

func testChunks(n int) []types.CodeChunk {
	chunks := make([]types.CodeChunk, n)
	for i := range chunks {
		chunks[i] = types.CodeChunk{
			File:      "/src/file.go",
			Content:   "func x() {}",
			StartLine: i*10 + 1,
			EndLine:   i*10 + 5,
			Language:  "go",
			Kind:      types.ChunkFunction,
		}
	}
	return chunks
}

func TestStorePersistAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")

	store := NewStore(path)
	require.NoError(t, store.Replace(testChunks(3), 1234567890))

	// Fresh store reading the same file sees the same state.
	reloaded := NewStore(path)
	require.NoError(t, reloaded.Load())

	chunks, freshness := reloaded.Snapshot()
	assert.Len(t, chunks, 3)
	assert.Equal(t, int64(1234567890), freshness)
	assert.Equal(t, types.ChunkFunction, chunks[0].Kind)
}

func TestStoreLoadMissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, store.Load())
	assert.Equal(t, 0, store.Len())
}

func TestStoreFreshnessOnlyIncreases(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "index.json"))

	require.NoError(t, store.Replace(testChunks(1), 2000))
	err := store.Replace(testChunks(2), 1000)
	require.Error(t, err, "freshness must never move backward")

	_, freshness := store.Snapshot()
	assert.Equal(t, int64(2000), freshness)
	assert.Equal(t, 1, store.Len())
}

func TestStoreReplaceAcceptsEqualTimestamp(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "index.json"))

	require.NoError(t, store.Replace(testChunks(1), 2000))
	require.NoError(t, store.Replace(testChunks(3), 2000),
		"a sync pass starting in the same millisecond must still land")

	_, freshness := store.Snapshot()
	assert.Equal(t, int64(2000), freshness)
	assert.Equal(t, 3, store.Len())
}

func TestStoreReadiness(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "index.json"))
	assert.False(t, store.Ready())

	require.NoError(t, store.Replace(testChunks(1), 1000))
	assert.True(t, store.Ready())
}

func TestStoreSnapshotIsCopy(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "index.json"))
	require.NoError(t, store.Replace(testChunks(2), 1000))

	chunks, _ := store.Snapshot()
	chunks[0].Content = "mutated"

	again, _ := store.Snapshot()
	assert.Equal(t, "func x() {}", again[0].Content)
}

func TestWaitReadyBeforeFirstSync(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "index.json"))

	start := time.Now()
	ready := store.WaitReady(context.Background(), 50*time.Millisecond)
	elapsed := time.Since(start)

	assert.False(t, ready, "store with no sync must report not ready")
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Less(t, elapsed, 500*time.Millisecond)
}

func TestWaitReadyAfterSync(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "index.json"))
	require.NoError(t, store.Replace(testChunks(1), 1000))

	ready := store.WaitReady(context.Background(), 10*time.Second)
	assert.True(t, ready, "populated store must be ready immediately")
}

func TestWaitReadyUnblocksOnSync(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "index.json"))

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = store.Replace(testChunks(1), 1000)
	}()

	ready := store.WaitReady(context.Background(), 5*time.Second)
	assert.True(t, ready)
}

func TestStoreAtomicRewrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.json")
	store := NewStore(path)

	require.NoError(t, store.Replace(testChunks(2), 1000))
	require.NoError(t, store.Replace(testChunks(5), 2000))

	// No temp files left behind after the rename.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "index.json", entries[0].Name())
}
