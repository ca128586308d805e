package searcher

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/codescout/semsearch-mcp/internal/embedder"
	"github.com/codescout/semsearch-mcp/internal/index"
	"github.com/codescout/semsearch-mcp/pkg/types"
)

// Scoring parameters
const (
	// DefaultMinRelevance is the score floor below which chunks are dropped
	DefaultMinRelevance = 0.30

	// KeywordBoost is added per shared significant query token, up to
	// KeywordBoostCap
	KeywordBoost    = 0.05
	KeywordBoostCap = 0.15

	// FrameworkBoost is added once when query and chunk share a framework
	// name
	FrameworkBoost = 0.10

	// DefaultTopK is the result count when the caller does not specify one
	DefaultTopK = 10
	MaxTopK     = 100

	// snippetLimit caps the content carried in a result
	snippetLimit = 700

	// minTokenLen filters trivial tokens out of keyword boosting
	minTokenLen = 3
)

// frameworkNames is the fixed list used for the framework-match boost
var frameworkNames = map[string]bool{
	"react": true, "vue": true, "angular": true, "svelte": true,
	"django": true, "flask": true, "fastapi": true, "rails": true,
	"express": true, "spring": true, "gin": true, "echo": true,
	"kubernetes": true, "docker": true, "terraform": true,
	"pytorch": true, "tensorflow": true, "grpc": true, "graphql": true,
}

// stopTokens never participate in keyword boosting
var stopTokens = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true,
	"this": true, "from": true, "into": true, "how": true, "what": true,
	"where": true, "when": true, "are": true, "can": true, "does": true,
}

// Config tunes the query engine
type Config struct {
	MinRelevance float64
	TopK         int
}

// Searcher scores indexed chunks against a free-text query and returns the
// top ranked results
type Searcher struct {
	store   *index.Store
	adapter *embedder.Adapter
	cfg     Config
}

// New creates a Searcher over the given index store and embedding adapter
func New(store *index.Store, adapter *embedder.Adapter, cfg Config) *Searcher {
	if cfg.MinRelevance <= 0 {
		cfg.MinRelevance = DefaultMinRelevance
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	return &Searcher{store: store, adapter: adapter, cfg: cfg}
}

// scored pairs a chunk with its final score; order is the original scan
// position, which breaks score ties.
type scored struct {
	chunk types.CodeChunk
	score float64
	order int
}

// Search expands the query, scores every indexed chunk, and returns up to
// topK results above the relevance floor, ordered by score descending with
// ties broken by scan order.
func (s *Searcher) Search(ctx context.Context, query string, topK int) ([]types.QueryResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query cannot be empty", types.ErrConfiguration)
	}
	if topK <= 0 {
		topK = s.cfg.TopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}

	expanded := Expand(query)

	queryVec, err := s.adapter.Embed(ctx, expanded)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	chunks, _ := s.store.Snapshot()
	if len(chunks) == 0 {
		return nil, nil
	}

	// Chunk embeddings run through the adapter in fixed-size batches; repeat
	// chunks are cache hits.
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}
	chunkVecs, err := s.adapter.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}

	queryTokens := significantTokens(expanded)

	candidates := make([]scored, 0, len(chunks))
	for i, chunk := range chunks {
		base := cosineSimilarity(queryVec, chunkVecs[i])
		score := clamp01(base + boost(queryTokens, chunk.Content))
		if score < s.cfg.MinRelevance {
			continue
		}
		candidates = append(candidates, scored{chunk: chunk, score: score, order: i})
	}

	// Stable by construction: equal scores fall through to scan order.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].order < candidates[j].order
	})

	if topK > len(candidates) {
		topK = len(candidates)
	}

	results := make([]types.QueryResult, topK)
	for i := 0; i < topK; i++ {
		c := candidates[i]
		results[i] = types.QueryResult{
			File:       c.chunk.File,
			StartLine:  c.chunk.StartLine,
			EndLine:    c.chunk.EndLine,
			Snippet:    snippet(c.chunk.Content),
			Similarity: c.score,
		}
	}
	return results, nil
}

// boost computes the bounded additive score adjustments for shared keyword
// and framework tokens
func boost(queryTokens []string, content string) float64 {
	lowered := strings.ToLower(content)

	var keyword float64
	frameworkHit := false
	for _, token := range queryTokens {
		if !strings.Contains(lowered, token) {
			continue
		}
		if frameworkNames[token] {
			frameworkHit = true
			continue
		}
		keyword += KeywordBoost
	}

	if keyword > KeywordBoostCap {
		keyword = KeywordBoostCap
	}
	if frameworkHit {
		keyword += FrameworkBoost
	}
	return keyword
}

// significantTokens filters the query's tokens down to boost candidates
func significantTokens(query string) []string {
	tokens := Tokenize(query)
	out := make([]string, 0, len(tokens))
	seen := make(map[string]bool)
	for _, token := range tokens {
		if len(token) < minTokenLen || stopTokens[token] || seen[token] {
			continue
		}
		seen[token] = true
		out = append(out, token)
	}
	return out
}

// cosineSimilarity computes the normalized dot product of two vectors
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// snippet truncates chunk content for result payloads
func snippet(content string) string {
	if len(content) <= snippetLimit {
		return content
	}
	cut := content[:snippetLimit]
	if idx := strings.LastIndexByte(cut, '\n'); idx > snippetLimit/2 {
		cut = cut[:idx]
	}
	return cut
}
