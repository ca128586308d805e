package embedder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codescout/semsearch-mcp/pkg/types"
)

// Timeout defaults. Initialization loads the model and gets a long window;
// individual calls get a short one. The job-level timeout wraps both
// independently.
const (
	DefaultInitTimeout = 90 * time.Second
	DefaultCallTimeout = 15 * time.Second
	DefaultBatchSize   = 8
)

// AdapterConfig tunes the provider adapter
type AdapterConfig struct {
	InitTimeout time.Duration
	CallTimeout time.Duration
	BatchSize   int
	CacheSize   int
}

// Adapter wraps a Provider with memoization and timeout discipline. The
// cache is consulted before every call; provider failures surface as
// types.ErrProviderUnavailable or types.ErrTimeout instead of crashing the
// caller.
type Adapter struct {
	provider Provider
	cache    *Cache
	cfg      AdapterConfig

	mu          sync.Mutex
	initialized bool
}

// NewAdapter creates an adapter around the given provider
func NewAdapter(provider Provider, cfg AdapterConfig) *Adapter {
	if cfg.InitTimeout <= 0 {
		cfg.InitTimeout = DefaultInitTimeout
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &Adapter{
		provider: provider,
		cache:    NewCache(cfg.CacheSize),
		cfg:      cfg,
	}
}

// Init prepares the provider under the long initialization timeout. It is
// idempotent on success; a failed attempt may be retried.
func (a *Adapter) Init(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.initialized {
		return nil
	}

	initCtx, cancel := context.WithTimeout(ctx, a.cfg.InitTimeout)
	defer cancel()

	if err := a.provider.Init(initCtx); err != nil {
		return classify(err)
	}

	a.initialized = true
	return nil
}

// Embed returns the embedding for text, from cache when possible. Each
// provider call runs under the short call timeout.
func (a *Adapter) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	key := ComputeKey(text)
	if vec, ok := a.cache.Get(key); ok {
		return vec, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, a.cfg.CallTimeout)
	defer cancel()

	vec, err := a.provider.Embed(callCtx, text)
	if err != nil {
		return nil, classify(err)
	}

	a.cache.Set(key, vec)
	return vec, nil
}

// EmbedBatch embeds texts in fixed-size batches. Within a batch the calls
// run concurrently; batches are processed sequentially so peak fan-out is
// bounded by the batch size. Results are positionally aligned with texts.
func (a *Adapter) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	for i := 0; i < len(texts); i += a.cfg.BatchSize {
		end := i + a.cfg.BatchSize
		if end > len(texts) {
			end = len(texts)
		}

		g, gctx := errgroup.WithContext(ctx)
		for j := i; j < end; j++ {
			g.Go(func() error {
				vec, err := a.Embed(gctx, texts[j])
				if err != nil {
					return err
				}
				vectors[j] = vec
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	return vectors, nil
}

// Cache exposes the adapter's embedding cache. The index sync invalidates
// it wholesale after large chunk-count swings.
func (a *Adapter) Cache() *Cache {
	return a.cache
}

// Dimension returns the provider's embedding dimension
func (a *Adapter) Dimension() int {
	return a.provider.Dimension()
}

// Provider returns the wrapped provider's name
func (a *Adapter) Provider() string {
	return a.provider.Name()
}

// Close releases provider resources
func (a *Adapter) Close() error {
	return a.provider.Close()
}

// classify maps provider failures onto the shared error taxonomy
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", types.ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", types.ErrProviderUnavailable, err)
}
