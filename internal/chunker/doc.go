// Package chunker divides source files into line-range chunks for embedding
// and search.
//
// Chunking is language-aware but parser-free: a per-language table of
// construct-opening keywords (func, class, def, ...) marks boundaries, and a
// blank-line heuristic plus a hard line cap keep chunks embedding-sized. The
// resulting chunks tile the file: every line belongs to exactly one chunk.
//
// # Basic Usage
//
//	c := chunker.New()
//	chunks := c.ChunkContent("service.go", content)
//
//	for _, chunk := range chunks {
//	    fmt.Printf("%s lines %d-%d (%s)\n",
//	        chunk.Kind, chunk.StartLine, chunk.EndLine, chunk.Language)
//	}
//
// # Boundary Rules
//
// A new chunk starts when:
//   - a line begins a top-level construct for the file's language
//     (no leading whitespace, recognized keyword first)
//   - the current chunk reaches MaxChunkLines (default 80)
//   - a blank line follows at least MinBreakLines non-blank lines
//     (default 5); the blank line closes the chunk it follows
//
// Files larger than MaxFileBytes (default 256 KiB) are truncated at the last
// whole line under the limit before chunking.
//
// # Languages
//
// The Registry maps file extensions to language rules. Unknown extensions
// fall back to a generic rule set with common keywords, so any text file
// chunks reasonably.
package chunker
