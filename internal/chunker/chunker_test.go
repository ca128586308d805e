package chunker

import (
	"strings"
	"testing"

	"github.com/codescout/semsearch-mcp/pkg/types"
)

func TestChunkContentEmptyFile(t *testing.T) {
	c := New()
	if chunks := c.ChunkContent("empty.go", ""); len(chunks) != 0 {
		t.Errorf("ChunkContent(\"\") = %d chunks, want 0", len(chunks))
	}
}

func TestChunkContentTwoFunctions(t *testing.T) {
	src := `func foo() int {
	return 1
}

func bar() int {
	return 2
}
`
	c := New()
	chunks := c.ChunkContent("example.go", src)

	if len(chunks) != 2 {
		t.Fatalf("ChunkContent() = %d chunks, want 2", len(chunks))
	}
	if !strings.Contains(chunks[0].Content, "foo") {
		t.Errorf("first chunk missing foo: %q", chunks[0].Content)
	}
	if !strings.Contains(chunks[1].Content, "bar") {
		t.Errorf("second chunk missing bar: %q", chunks[1].Content)
	}
	for _, chunk := range chunks {
		if chunk.Kind != types.ChunkFunction {
			t.Errorf("chunk kind = %s, want function", chunk.Kind)
		}
		if chunk.Language != "go" {
			t.Errorf("chunk language = %s, want go", chunk.Language)
		}
	}
}

// Concatenated chunk line ranges must cover every line exactly once, and no
// chunk may exceed the configured cap.
func TestChunkContentLineCoverage(t *testing.T) {
	tests := []struct {
		name string
		path string
		src  string
	}{
		{
			name: "go functions with gaps",
			path: "a.go",
			src:  "package a\n\nfunc one() {}\n\nfunc two() {\n\tx := 1\n\t_ = x\n}\n",
		},
		{
			name: "python defs",
			path: "b.py",
			src:  "import os\n\ndef main():\n    pass\n\nclass Thing:\n    pass\n",
		},
		{
			name: "long uniform body",
			path: "c.txt",
			src:  strings.Repeat("line of text\n", 300),
		},
	}

	c := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := c.ChunkContent(tt.path, tt.src)
			if len(chunks) == 0 {
				t.Fatal("no chunks produced")
			}

			lines := strings.Split(strings.TrimSuffix(tt.src, "\n"), "\n")
			next := 1
			for _, chunk := range chunks {
				if chunk.StartLine != next {
					t.Fatalf("gap in coverage: chunk starts at %d, want %d", chunk.StartLine, next)
				}
				if chunk.LineCount() > MaxChunkLines {
					t.Errorf("chunk spans %d lines, cap is %d", chunk.LineCount(), MaxChunkLines)
				}
				next = chunk.EndLine + 1
			}
			if next != len(lines)+1 {
				t.Errorf("coverage ends at line %d, file has %d lines", next-1, len(lines))
			}
		})
	}
}

func TestChunkContentBlankLineBreak(t *testing.T) {
	// Six indented non-blank lines, then a blank, then more content. The
	// blank line must close the chunk because it follows non-trivial content.
	src := "\ta\n\tb\n\tc\n\td\n\te\n\tf\n\n\tg\n\th\n"

	c := New()
	chunks := c.ChunkContent("notes.txt", src)

	if len(chunks) != 2 {
		t.Fatalf("ChunkContent() = %d chunks, want 2", len(chunks))
	}
	if chunks[0].EndLine != 7 {
		t.Errorf("first chunk ends at %d, want 7 (blank line included)", chunks[0].EndLine)
	}
}

func TestChunkContentNoBreakOnTrivialContent(t *testing.T) {
	// Two short indented stanzas: too little content for the blank-line rule,
	// so the file stays a single chunk.
	src := "\ta\n\tb\n\n\tc\n\td\n"

	c := New()
	chunks := c.ChunkContent("notes.txt", src)

	if len(chunks) != 1 {
		t.Fatalf("ChunkContent() = %d chunks, want 1", len(chunks))
	}
}

func TestChunkContentKinds(t *testing.T) {
	tests := []struct {
		name string
		path string
		src  string
		want types.ChunkKind
	}{
		{"go func", "a.go", "func run() {}\n", types.ChunkFunction},
		{"go type", "a.go", "type Server struct {\n\tAddr string\n}\n", types.ChunkClass},
		{"go import", "a.go", "import \"fmt\"\n", types.ChunkImport},
		{"js export function", "a.js", "export function render() {}\n", types.ChunkFunction},
		{"js const", "a.js", "const limit = 10\n", types.ChunkVariable},
		{"python class", "a.py", "class Worker:\n    pass\n", types.ChunkClass},
		{"rust pub fn", "a.rs", "pub fn main() {}\n", types.ChunkFunction},
		{"plain text", "a.txt", "hello world\n", types.ChunkOther},
	}

	c := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := c.ChunkContent(tt.path, tt.src)
			if len(chunks) == 0 {
				t.Fatal("no chunks produced")
			}
			if chunks[0].Kind != tt.want {
				t.Errorf("kind = %s, want %s", chunks[0].Kind, tt.want)
			}
		})
	}
}

func TestChunkContentTruncatesOversizedFiles(t *testing.T) {
	c := NewWithRegistry(DefaultRegistry(), Config{MaxFileBytes: 1024})
	src := strings.Repeat("some line of content\n", 500) // ~10 KB

	chunks := c.ChunkContent("big.txt", src)
	if len(chunks) == 0 {
		t.Fatal("no chunks produced")
	}

	last := chunks[len(chunks)-1]
	total := 0
	for _, chunk := range chunks {
		total += len(chunk.Content) + 1
	}
	if total > 1024+1 {
		t.Errorf("chunked content is %d bytes, ceiling is 1024", total)
	}
	if last.EndLine >= 500 {
		t.Errorf("truncation did not drop trailing lines, last line %d", last.EndLine)
	}
}

func TestRegistryLookupFallback(t *testing.T) {
	r := DefaultRegistry()

	if rules := r.Lookup("main.go"); rules.Name != "go" {
		t.Errorf("Lookup(main.go) = %s, want go", rules.Name)
	}
	if rules := r.Lookup("weird.xyz"); rules.Name != "generic" {
		t.Errorf("Lookup(weird.xyz) = %s, want generic", rules.Name)
	}
}
