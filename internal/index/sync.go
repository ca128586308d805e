package index

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/codescout/semsearch-mcp/internal/chunker"
	"github.com/codescout/semsearch-mcp/internal/walker"
	"github.com/codescout/semsearch-mcp/pkg/types"
)

// swingThreshold is the chunk-count change ratio past which the embedding
// cache is invalidated wholesale.
const swingThreshold = 0.5

// CacheClearer is the slice of the embedding cache the syncer needs
type CacheClearer interface {
	Clear()
}

// Syncer drives incremental index synchronization: it re-chunks the watched
// tree only when some file's mtime is newer than the stored freshness
// timestamp, and replaces the chunk set wholesale when it does.
type Syncer struct {
	store    *Store
	chunker  *chunker.Chunker
	cache    CacheClearer
	walkOpts walker.Options
}

// Stats summarizes one sync pass
type Stats struct {
	Skipped       bool
	FilesScanned  int
	FilesChunked  int
	FilesFailed   int
	ChunksCreated int
	CacheCleared  bool
	Duration      time.Duration
}

// NewSyncer creates a syncer. The walker's extension allowlist defaults to
// the chunker registry's known languages when not set.
func NewSyncer(store *Store, ch *chunker.Chunker, cache CacheClearer, walkOpts walker.Options) *Syncer {
	if len(walkOpts.Extensions) == 0 {
		walkOpts.Extensions = ch.Registry().Extensions()
	}
	return &Syncer{
		store:    store,
		chunker:  ch,
		cache:    cache,
		walkOpts: walkOpts,
	}
}

// Sync brings the index up to date for root. Re-running it with no file
// modifications is an idempotent no-op that leaves freshness and chunk
// count untouched.
func (s *Syncer) Sync(ctx context.Context, root string) (*Stats, error) {
	start := time.Now()
	stats := &Stats{}

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a readable directory", types.ErrConfiguration, root)
	}

	files, err := walker.Walk(ctx, root, s.walkOpts)
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	stats.FilesScanned = len(files)

	// Freshness check: when nothing is newer than the last sync and the
	// index is non-empty, skip the whole pass.
	maxMtime := maxModTime(files)
	if maxMtime <= s.store.Freshness() && s.store.Len() > 0 {
		stats.Skipped = true
		stats.ChunksCreated = s.store.Len()
		stats.Duration = time.Since(start)
		return stats, nil
	}

	chunks := make([]types.CodeChunk, 0, len(files)*4)
	for _, file := range files {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		content, err := os.ReadFile(file)
		if err != nil {
			// A single unreadable file never aborts the sync.
			log.Printf("index: skipping %s: %v", file, err)
			stats.FilesFailed++
			continue
		}
		fileChunks := s.chunker.ChunkContent(file, string(content))
		if len(fileChunks) > 0 {
			stats.FilesChunked++
		}
		chunks = append(chunks, fileChunks...)
	}

	oldCount := s.store.Len()

	// Freshness becomes the sync start time, not completion time, so edits
	// racing the sync trigger a re-sync next pass.
	if err := s.store.Replace(chunks, start.UnixMilli()); err != nil {
		return nil, fmt.Errorf("replace index: %w", err)
	}

	stats.ChunksCreated = len(chunks)
	stats.CacheCleared = s.maybeClearCache(oldCount, len(chunks))
	stats.Duration = time.Since(start)
	return stats, nil
}

// maybeClearCache invalidates the embedding cache after a chunk-count swing
// of more than 50% in either direction. First syncs (old count zero) never
// clear.
func (s *Syncer) maybeClearCache(oldCount, newCount int) bool {
	if s.cache == nil || oldCount == 0 {
		return false
	}

	change := newCount - oldCount
	if change < 0 {
		change = -change
	}
	if float64(change) <= float64(oldCount)*swingThreshold {
		return false
	}

	s.cache.Clear()
	return true
}

// maxModTime returns the newest modification time across files, in epoch
// milliseconds. Stat failures are ignored; the affected file is simply not
// considered.
func maxModTime(files []string) int64 {
	var max int64
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		if mt := info.ModTime().UnixMilli(); mt > max {
			max = mt
		}
	}
	return max
}
