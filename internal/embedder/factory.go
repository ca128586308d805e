package embedder

import (
	"fmt"
	"os"
	"strings"
)

// Environment variables
const (
	EnvProvider     = "SEMSEARCH_EMBEDDING_PROVIDER"
	EnvEmbeddingURL = "SEMSEARCH_EMBEDDING_URL"
	EnvModel        = "SEMSEARCH_EMBEDDING_MODEL"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

// NewFromEnv creates a provider adapter based on environment variables.
// Priority:
//  1. SEMSEARCH_EMBEDDING_PROVIDER (openai, local)
//  2. OPENAI_API_KEY present -> openai
//  3. Default to local
func NewFromEnv(cfg AdapterConfig) (*Adapter, error) {
	provider := strings.ToLower(os.Getenv(EnvProvider))
	apiKey := os.Getenv(EnvOpenAIAPIKey)
	baseURL := os.Getenv(EnvEmbeddingURL)
	model := os.Getenv(EnvModel)

	switch provider {
	case ProviderOpenAI:
		return NewAdapter(NewHTTPProvider(apiKey, baseURL, model), cfg), nil
	case ProviderLocal:
		return NewAdapter(NewLocalProvider(), cfg), nil
	case "":
		// Auto-detect below.
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedModel, provider)
	}

	if apiKey != "" || baseURL != "" {
		return NewAdapter(NewHTTPProvider(apiKey, baseURL, model), cfg), nil
	}

	return NewAdapter(NewLocalProvider(), cfg), nil
}
