package chunker

import (
	"strings"

	"github.com/codescout/semsearch-mcp/pkg/types"
)

const (
	// MaxChunkLines is the hard cap on lines per chunk
	MaxChunkLines = 80

	// MinBreakLines is the amount of non-blank content a chunk must have
	// accumulated before a blank line terminates it
	MinBreakLines = 5

	// MaxFileBytes is the size ceiling; larger files are truncated before
	// chunking
	MaxFileBytes = 256 * 1024
)

// Config tunes chunk boundary detection
type Config struct {
	MaxChunkLines int
	MinBreakLines int
	MaxFileBytes  int
}

// Chunker splits file content into logical code units using per-language
// construct-start heuristics
type Chunker struct {
	registry *Registry
	cfg      Config
}

// New creates a Chunker backed by the default language registry
func New() *Chunker {
	return NewWithRegistry(DefaultRegistry(), Config{})
}

// NewWithRegistry creates a Chunker with explicit registry and config
func NewWithRegistry(registry *Registry, cfg Config) *Chunker {
	if cfg.MaxChunkLines <= 0 {
		cfg.MaxChunkLines = MaxChunkLines
	}
	if cfg.MinBreakLines <= 0 {
		cfg.MinBreakLines = MinBreakLines
	}
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = MaxFileBytes
	}
	return &Chunker{registry: registry, cfg: cfg}
}

// Registry exposes the language registry, primarily so callers can derive
// the walker's extension allowlist from it
func (c *Chunker) Registry() *Registry {
	return c.registry
}

// ChunkContent splits content into ordered chunks. The concatenated line
// ranges of the returned chunks cover the whole (possibly truncated) file,
// and no chunk exceeds the configured line cap. Empty content yields nil.
func (c *Chunker) ChunkContent(path, content string) []types.CodeChunk {
	if content == "" {
		return nil
	}

	if len(content) > c.cfg.MaxFileBytes {
		content = truncateAtLine(content, c.cfg.MaxFileBytes)
	}

	rules := c.registry.Lookup(path)

	lines := strings.Split(content, "\n")
	// A trailing newline produces one phantom empty element; drop it so the
	// last chunk's EndLine matches the real line count.
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	var chunks []types.CodeChunk
	start := 0 // index of first line in the current chunk
	nonBlank := 0

	flush := func(end int) { // end is exclusive
		if end <= start {
			return
		}
		chunks = append(chunks, c.buildChunk(path, rules, lines, start, end))
		start = end
		nonBlank = 0
	}

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		// A top-level construct start closes the accumulated chunk.
		if i > start && startsConstruct(line, rules) {
			flush(i)
		}

		if trimmed != "" {
			nonBlank++
		}

		// Hard cap per chunk.
		if i-start+1 >= c.cfg.MaxChunkLines {
			flush(i + 1)
			continue
		}

		// A blank line ends the chunk once it holds non-trivial content.
		if trimmed == "" && nonBlank >= c.cfg.MinBreakLines {
			flush(i + 1)
		}
	}
	flush(len(lines))

	return chunks
}

// buildChunk assembles one chunk covering lines[start:end)
func (c *Chunker) buildChunk(path string, rules *LanguageRules, lines []string, start, end int) types.CodeChunk {
	content := strings.Join(lines[start:end], "\n")
	return types.CodeChunk{
		File:      path,
		Content:   content,
		StartLine: start + 1,
		EndLine:   end,
		Language:  rules.Name,
		Kind:      kindForChunk(content),
	}
}

// startsConstruct reports whether a line begins a new top-level construct:
// no leading whitespace and a construct keyword as its first token
func startsConstruct(line string, rules *LanguageRules) bool {
	if line == "" || line[0] == ' ' || line[0] == '\t' {
		return false
	}
	token := firstToken(line)
	return rules.ConstructStarts[token]
}

// modifierTokens are access/qualifier keywords skipped when deriving kind
var modifierTokens = map[string]bool{
	"export":    true,
	"pub":       true,
	"public":    true,
	"private":   true,
	"protected": true,
	"abstract":  true,
	"final":     true,
	"default":   true,
}

// kindForChunk derives the chunk kind from the leading token of its first
// non-blank line, looking past access modifiers
func kindForChunk(content string) types.ChunkKind {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		tokens := strings.Fields(trimmed)
		for _, token := range tokens {
			token = strings.TrimSuffix(token, ":")
			if modifierTokens[token] {
				continue
			}
			return kindForToken(token)
		}
		return types.ChunkOther
	}
	return types.ChunkOther
}

// firstToken returns the first whitespace-delimited token of a line
func firstToken(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// truncateAtLine cuts content at the last line boundary before limit so
// chunk line ranges stay aligned with real lines
func truncateAtLine(content string, limit int) string {
	cut := content[:limit]
	if idx := strings.LastIndexByte(cut, '\n'); idx > 0 {
		return cut[:idx]
	}
	return cut
}
