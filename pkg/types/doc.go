// Package types provides shared type definitions for the semsearch MCP server.
//
// This package defines the domain types used across components: code chunks,
// query results, and the sentinel error taxonomy.
//
// # Core Types
//
// CodeChunk represents one logical code unit produced by the chunker:
//
//	chunk := types.CodeChunk{
//	    File:      "/src/auth/login.go",
//	    Content:   functionBody,
//	    StartLine: 42,
//	    EndLine:   67,
//	    Language:  "go",
//	    Kind:      types.ChunkFunction,
//	}
//
// QueryResult represents a ranked search hit with a similarity score
// normalized to [0, 1], higher values indicating better matches.
//
// # Error Taxonomy
//
// The sentinel errors defined here are wrapped by components and classified
// by callers using errors.Is:
//
//	if errors.Is(err, types.ErrProviderUnavailable) {
//	    // fall back or surface a degraded-mode message
//	}
package types
