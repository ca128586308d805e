// Package embedder provides the embedding provider adapter and its LRU cache.
//
// The Provider interface wraps one external call: text in, fixed-dimension
// vector out. The Adapter adds the operational discipline around it:
//
//   - memoization through a bounded LRU cache keyed by content hash
//   - idempotent initialization under a long timeout (model loading)
//   - a short per-call timeout on every embedding request
//   - failure classification onto the shared error taxonomy
//     (types.ErrProviderUnavailable, types.ErrTimeout)
//
// # Basic Usage
//
//	adapter, err := embedder.NewFromEnv(embedder.AdapterConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := adapter.Init(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	vec, err := adapter.Embed(ctx, "encode this text")
//
// # Batching
//
// EmbedBatch processes texts in fixed-size batches; calls within a batch run
// concurrently while batches are sequential, bounding peak fan-out:
//
//	vectors, err := adapter.EmbedBatch(ctx, chunkTexts)
//
// # Caching Semantics
//
// Two concurrent callers may both miss the cache for the same text and
// redundantly compute the same embedding. This double work is accepted; the
// cache guarantees bounded memory, not single-flight deduplication.
package embedder
