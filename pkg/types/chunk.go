package types

import "errors"

// ChunkKind classifies a chunk by its leading construct
type ChunkKind string

const (
	ChunkFunction ChunkKind = "function"
	ChunkClass    ChunkKind = "class"
	ChunkImport   ChunkKind = "import"
	ChunkVariable ChunkKind = "variable"
	ChunkControl  ChunkKind = "control"
	ChunkOther    ChunkKind = "other"
)

// CodeChunk is the atomic unit of indexing and search: one logical code unit
// sliced out of a source file. Chunks are created wholesale during a sync pass
// and never mutated; the next sync replaces the entire set.
type CodeChunk struct {
	File      string    `json:"file"`
	Content   string    `json:"content"`
	StartLine int       `json:"startLine"`
	EndLine   int       `json:"endLine"`
	Language  string    `json:"language,omitempty"`
	Kind      ChunkKind `json:"kind,omitempty"`
}

// Validate checks that the chunk's file path and line range are consistent
func (c *CodeChunk) Validate() error {
	if c.File == "" {
		return errors.New("chunk file path cannot be empty")
	}

	if c.StartLine <= 0 || c.EndLine <= 0 {
		return errors.New("line numbers must be positive")
	}

	if c.StartLine > c.EndLine {
		return errors.New("start line must be before or equal to end line")
	}

	return nil
}

// LineCount returns the number of source lines the chunk spans
func (c *CodeChunk) LineCount() int {
	return c.EndLine - c.StartLine + 1
}

// ValidateKind checks if the chunk kind is one of the known values
func (c *CodeChunk) ValidateKind() error {
	switch c.Kind {
	case ChunkFunction, ChunkClass, ChunkImport, ChunkVariable, ChunkControl, ChunkOther:
		return nil
	default:
		return errors.New("invalid chunk kind")
	}
}
