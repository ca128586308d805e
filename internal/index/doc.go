// Package index holds the in-memory chunk index, its JSON persistence, and
// the incremental sync that keeps it fresh.
//
// # Model
//
// The Store is a process-wide snapshot: an ordered chunk list plus a
// freshness timestamp (epoch milliseconds). Sync replaces the entire chunk
// set; there is no per-file patching. The freshness timestamp only
// increases.
//
// # Sync Algorithm
//
//  1. Compute the maximum modification time across candidate files.
//  2. If it is at or before the stored freshness and the index is
//     non-empty, skip: the index is fresh and the pass is a no-op.
//  3. Otherwise walk, chunk every file, replace the chunk list atomically,
//     set freshness to the sync start time, and persist.
//  4. If the chunk count swung by more than 50% in either direction, clear
//     the embedding cache wholesale.
//
// The whole-cache invalidation in step 4 is coarse on purpose: a swing that
// large means most cached embeddings are stale anyway, and per-chunk
// invalidation would need content hashing the store does not track.
//
// # Persistence
//
// The snapshot is a single JSON document written through a temp file and
// rename:
//
//	{ "timestamp": 1712345678901, "chunks": [ {"file": ..., "content": ...,
//	  "startLine": 1, "endLine": 14}, ... ] }
//
// # Readiness
//
// Queries arriving before the first sync completes call WaitReady with a
// bounded grace period (10s by default) rather than blocking indefinitely;
// when the grace elapses they proceed against an empty index.
package index
