package types

// QueryResult represents a single ranked search hit. Results are ephemeral:
// they are constructed per query and never stored back into the index.
type QueryResult struct {
	File       string  `json:"file"`
	StartLine  int     `json:"startLine"`
	EndLine    int     `json:"endLine"`
	Snippet    string  `json:"snippet"`
	Similarity float64 `json:"similarity"` // Final score, clamped to [0, 1]
}

// Validate checks if the query result is well formed
func (r *QueryResult) Validate() error {
	if r.File == "" {
		return ErrMissingFileInfo
	}

	if r.Similarity < 0 || r.Similarity > 1 {
		return ErrInvalidSimilarity
	}

	if r.Snippet == "" {
		return ErrEmptyContent
	}

	return nil
}
