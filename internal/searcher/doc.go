// Package searcher implements semantic code search over an in-memory chunk index.
//
// A search embeds the query, scores every indexed chunk by cosine similarity,
// applies small keyword and framework boosts, and returns the top matches above
// a relevance floor.
//
// # Basic Usage
//
//	s := searcher.New(store, adapter, searcher.Config{})
//
//	results, err := s.Search(ctx, "user authentication logic", 10)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, r := range results {
//	    fmt.Printf("%s:%d-%d (%.2f)\n", r.File, r.StartLine, r.EndLine, r.Similarity)
//	}
//
// # Query Expansion
//
// Before embedding, the query is lowercased and expanded with related terms so
// short queries match more code:
//
//	Expand("auth middleware")
//	// "auth middleware authentication login session token credential ..."
//
// Expansion is additive: the original words always stay at the front of the
// expanded query, and each trigger fires at most once per call.
//
// # Scoring
//
// Each chunk's score starts from the cosine similarity between the query
// embedding and the chunk embedding, then gains:
//
//   - +0.05 per significant query token found verbatim in the chunk,
//     capped at +0.15
//   - +0.10 once if the chunk mentions a known framework named in the query
//
// The total is clamped to [0, 1]. Chunks below MinRelevance (default 0.30)
// are dropped. Ties sort by index scan order, so ranking is deterministic
// for a given index snapshot.
package searcher
