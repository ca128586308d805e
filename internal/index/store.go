package index

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/codescout/semsearch-mcp/pkg/types"
)

// DefaultGracePeriod bounds how long a query waits for the first sync
const DefaultGracePeriod = 10 * time.Second

// Store holds the process-wide chunk set and its freshness timestamp,
// mirrored to a JSON file. The chunk list is replaced wholesale by each
// sync pass; the freshness timestamp only increases.
type Store struct {
	path string

	mu        sync.RWMutex
	chunks    []types.CodeChunk
	freshness int64 // epoch milliseconds of the last successful sync start

	// persistMu serializes Replace end to end so snapshots reach disk in
	// freshness order even when sync passes race.
	persistMu sync.Mutex

	readyOnce sync.Once
	ready     chan struct{}
}

// snapshotFile is the on-disk representation of the index
type snapshotFile struct {
	Timestamp int64             `json:"timestamp"`
	Chunks    []types.CodeChunk `json:"chunks"`
}

// NewStore creates a store persisting to the given file path
func NewStore(path string) *Store {
	return &Store{
		path:  path,
		ready: make(chan struct{}),
	}
}

// Load restores a previously persisted snapshot. A missing file is not an
// error; the store simply starts empty.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read index file: %w", err)
	}

	var snap snapshotFile
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode index file: %w", err)
	}

	s.mu.Lock()
	s.chunks = snap.Chunks
	s.freshness = snap.Timestamp
	s.mu.Unlock()

	if len(snap.Chunks) > 0 {
		s.markReady()
	}
	return nil
}

// Snapshot returns a copy of the chunk list and the freshness timestamp
func (s *Store) Snapshot() ([]types.CodeChunk, int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunks := make([]types.CodeChunk, len(s.chunks))
	copy(chunks, s.chunks)
	return chunks, s.freshness
}

// Len returns the current chunk count
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Freshness returns the epoch-ms timestamp of the last successful sync
func (s *Store) Freshness() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.freshness
}

// Replace atomically swaps in a new chunk set and freshness timestamp, then
// persists the snapshot. A timestamp strictly older than the current
// freshness is rejected so freshness never moves backward; an equal
// timestamp is accepted, so two sync passes starting within the same
// millisecond both land.
func (s *Store) Replace(chunks []types.CodeChunk, timestamp int64) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	if timestamp < s.freshness {
		s.mu.Unlock()
		return fmt.Errorf("stale sync timestamp %d, current freshness %d", timestamp, s.freshness)
	}
	s.chunks = chunks
	s.freshness = timestamp
	s.mu.Unlock()

	s.markReady()
	return s.persist(chunks, timestamp)
}

// Ready reports whether the index has been populated by a load or a sync
func (s *Store) Ready() bool {
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}

// WaitReady blocks until the first sync has populated the index, the grace
// period elapses, or ctx is cancelled. It returns true when the index is
// ready; false means the caller should proceed with an empty result set.
func (s *Store) WaitReady(ctx context.Context, grace time.Duration) bool {
	if grace <= 0 {
		grace = DefaultGracePeriod
	}

	select {
	case <-s.ready:
		return true
	default:
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-s.ready:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}

func (s *Store) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

// persist writes the snapshot through a temp file and rename so readers
// never observe a partial index file
func (s *Store) persist(chunks []types.CodeChunk, timestamp int64) error {
	data, err := json.Marshal(snapshotFile{Timestamp: timestamp, Chunks: chunks})
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".index-*.json")
	if err != nil {
		return fmt.Errorf("create temp index file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close index file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace index file: %w", err)
	}
	return nil
}
