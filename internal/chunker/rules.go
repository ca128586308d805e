package chunker

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/codescout/semsearch-mcp/pkg/types"
)

// LanguageRules describes how chunk boundaries are detected for one language.
// A line with no leading whitespace whose first token is in ConstructStarts
// begins a new top-level construct.
type LanguageRules struct {
	Name            string
	Extensions      []string
	ConstructStarts map[string]bool
}

// Registry maps file extensions and language names to chunking rules
type Registry struct {
	mu     sync.RWMutex
	byExt  map[string]*LanguageRules
	byName map[string]*LanguageRules
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		byExt:  make(map[string]*LanguageRules),
		byName: make(map[string]*LanguageRules),
	}
}

// Register adds rules for a language
func (r *Registry) Register(rules *LanguageRules) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[rules.Name] = rules
	for _, ext := range rules.Extensions {
		r.byExt[strings.TrimPrefix(ext, ".")] = rules
	}
}

// Lookup returns the rules for a file path based on its extension.
// Unknown extensions get the generic fallback rules.
func (r *Registry) Lookup(path string) *LanguageRules {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	r.mu.RLock()
	defer r.mu.RUnlock()
	if rules, ok := r.byExt[ext]; ok {
		return rules
	}
	return r.byName["generic"]
}

// Extensions returns all registered file extensions (without dot)
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	return exts
}

// DefaultRegistry returns a registry with the built-in language rules
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&LanguageRules{
		Name:       "go",
		Extensions: []string{"go"},
		ConstructStarts: starts(
			"func", "type", "import", "package", "var", "const",
		),
	})
	r.Register(&LanguageRules{
		Name:       "javascript",
		Extensions: []string{"js", "jsx", "mjs", "cjs"},
		ConstructStarts: starts(
			"function", "class", "import", "export", "const", "let", "var", "async",
		),
	})
	r.Register(&LanguageRules{
		Name:       "typescript",
		Extensions: []string{"ts", "tsx"},
		ConstructStarts: starts(
			"function", "class", "import", "export", "const", "let", "var",
			"async", "interface", "type", "enum", "namespace",
		),
	})
	r.Register(&LanguageRules{
		Name:       "python",
		Extensions: []string{"py"},
		ConstructStarts: starts(
			"def", "class", "import", "from", "async",
		),
	})
	r.Register(&LanguageRules{
		Name:       "java",
		Extensions: []string{"java"},
		ConstructStarts: starts(
			"public", "private", "protected", "class", "interface", "enum",
			"import", "package", "abstract", "final",
		),
	})
	r.Register(&LanguageRules{
		Name:       "rust",
		Extensions: []string{"rs"},
		ConstructStarts: starts(
			"fn", "struct", "enum", "impl", "trait", "use", "pub", "mod",
			"const", "static",
		),
	})
	r.Register(&LanguageRules{
		Name:       "ruby",
		Extensions: []string{"rb"},
		ConstructStarts: starts(
			"def", "class", "module", "require",
		),
	})
	r.Register(&LanguageRules{
		Name:       "generic",
		Extensions: nil,
		ConstructStarts: starts(
			"function", "func", "class", "def", "import",
		),
	})
	return r
}

func starts(keywords ...string) map[string]bool {
	set := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		set[kw] = true
	}
	return set
}

// kindForToken maps a chunk's leading token to its kind classification
func kindForToken(token string) types.ChunkKind {
	switch token {
	case "func", "function", "def", "fn", "async":
		return types.ChunkFunction
	case "class", "struct", "interface", "impl", "trait", "type", "enum",
		"module", "namespace", "abstract":
		return types.ChunkClass
	case "import", "from", "use", "require", "package", "export":
		return types.ChunkImport
	case "var", "let", "const", "static", "val":
		return types.ChunkVariable
	case "if", "for", "while", "switch", "match", "try":
		return types.ChunkControl
	default:
		return types.ChunkOther
	}
}
