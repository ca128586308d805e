package embedder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codescout/semsearch-mcp/pkg/types"
)

// spyProvider counts calls so tests can verify cache behavior
type spyProvider struct {
	mu         sync.Mutex
	embedCalls int
	initCalls  int
	embedErr   error
	slow       time.Duration
	dimension  int
}

func newSpyProvider() *spyProvider {
	return &spyProvider{dimension: 4}
}

func (s *spyProvider) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initCalls++
	return nil
}

func (s *spyProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	s.mu.Lock()
	s.embedCalls++
	err := s.embedErr
	slow := s.slow
	s.mu.Unlock()

	if slow > 0 {
		select {
		case <-time.After(slow):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	vec := make([]float32, s.dimension)
	for i := range vec {
		vec[i] = float32(len(text))
	}
	return vec, nil
}

func (s *spyProvider) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.embedCalls
}

func (s *spyProvider) Dimension() int { return s.dimension }
func (s *spyProvider) Name() string   { return "spy" }
func (s *spyProvider) Close() error   { return nil }

func TestAdapterCachesEmbeddings(t *testing.T) {
	spy := newSpyProvider()
	adapter := NewAdapter(spy, AdapterConfig{})
	ctx := context.Background()

	first, err := adapter.Embed(ctx, "identical text")
	require.NoError(t, err)

	second, err := adapter.Embed(ctx, "identical text")
	require.NoError(t, err)

	assert.Equal(t, 1, spy.calls(), "second call must be served from cache")
	assert.Equal(t, first, second)
}

func TestAdapterEmptyText(t *testing.T) {
	adapter := NewAdapter(newSpyProvider(), AdapterConfig{})

	_, err := adapter.Embed(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestAdapterProviderFailure(t *testing.T) {
	spy := newSpyProvider()
	spy.embedErr = errors.New("backend down")
	adapter := NewAdapter(spy, AdapterConfig{})

	_, err := adapter.Embed(context.Background(), "text")
	assert.ErrorIs(t, err, types.ErrProviderUnavailable)
}

func TestAdapterCallTimeout(t *testing.T) {
	spy := newSpyProvider()
	spy.slow = 200 * time.Millisecond
	adapter := NewAdapter(spy, AdapterConfig{CallTimeout: 20 * time.Millisecond})

	_, err := adapter.Embed(context.Background(), "text")
	assert.ErrorIs(t, err, types.ErrTimeout)
}

func TestAdapterInitIdempotent(t *testing.T) {
	spy := newSpyProvider()
	adapter := NewAdapter(spy, AdapterConfig{})
	ctx := context.Background()

	require.NoError(t, adapter.Init(ctx))
	require.NoError(t, adapter.Init(ctx))
	require.NoError(t, adapter.Init(ctx))

	assert.Equal(t, 1, spy.initCalls, "Init must reach the provider once")
}

func TestAdapterEmbedBatchAlignment(t *testing.T) {
	spy := newSpyProvider()
	adapter := NewAdapter(spy, AdapterConfig{BatchSize: 3})

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee", "ffffff", "ggggggg"}
	vectors, err := adapter.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))

	for i, text := range texts {
		assert.Equal(t, float32(len(text)), vectors[i][0], "vector %d misaligned", i)
	}
}

func TestCacheLRUEviction(t *testing.T) {
	cache := NewCache(3)

	for i := 0; i < 3; i++ {
		cache.Set(fmt.Sprintf("key%d", i), []float32{float32(i)})
	}
	require.Equal(t, 3, cache.Len())

	// Touch key0 so key1 becomes the eviction candidate.
	_, ok := cache.Get("key0")
	require.True(t, ok)

	cache.Set("key3", []float32{3})
	assert.Equal(t, 3, cache.Len(), "cache must never exceed capacity")

	_, ok = cache.Get("key1")
	assert.False(t, ok, "least-recently-used entry must be evicted")
	_, ok = cache.Get("key0")
	assert.True(t, ok, "recently used entry must survive")
}

func TestCacheReturnsCopies(t *testing.T) {
	cache := NewCache(10)
	cache.Set("k", []float32{1, 2, 3})

	vec, ok := cache.Get("k")
	require.True(t, ok)
	vec[0] = 99

	again, _ := cache.Get("k")
	assert.Equal(t, float32(1), again[0], "cached vector must not be mutated through returned copies")
}

func TestLocalProviderDeterministic(t *testing.T) {
	p := NewLocalProvider()
	ctx := context.Background()

	a, err := p.Embed(ctx, "hello")
	require.NoError(t, err)
	b, err := p.Embed(ctx, "hello")
	require.NoError(t, err)
	c, err := p.Embed(ctx, "different")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, LocalDimension)
}
