package embedder

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Provider configuration
const (
	ProviderOpenAI = "openai"
	ProviderLocal  = "local"

	DefaultOpenAIModel = "text-embedding-3-small"
	DefaultOpenAIURL   = "https://api.openai.com/v1/embeddings"

	OpenAIDimension = 1536
	LocalDimension  = 384
)

// HTTPProvider calls an OpenAI-compatible /v1/embeddings endpoint. Setting
// BaseURL makes it work against local servers (ollama, llama.cpp) as well.
type HTTPProvider struct {
	apiKey     string
	model      string
	baseURL    string
	dimension  int
	httpClient *http.Client
}

// NewHTTPProvider creates an embedder backed by an OpenAI-compatible API
func NewHTTPProvider(apiKey, baseURL, model string) *HTTPProvider {
	if baseURL == "" {
		baseURL = DefaultOpenAIURL
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &HTTPProvider{
		apiKey:    apiKey,
		model:     model,
		baseURL:   baseURL,
		dimension: OpenAIDimension,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Init verifies the backend is reachable by embedding a probe text. Remote
// model loading happens on this first call, hence the long init timeout
// upstream.
func (p *HTTPProvider) Init(ctx context.Context) error {
	vec, err := p.Embed(ctx, "init")
	if err != nil {
		return err
	}
	// Trust the backend's actual dimension over the configured default.
	if len(vec) > 0 {
		p.dimension = len(vec)
	}
	return nil
}

func (p *HTTPProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	config := DefaultRetryConfig()
	vec, err := retryWithBackoff(ctx, config, func() ([]float32, error) {
		return p.callAPI(ctx, text)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderFailed, err)
	}

	return vec, nil
}

func (p *HTTPProvider) callAPI(ctx context.Context, text string) ([]float32, error) {
	reqBody := map[string]interface{}{
		"input": []string{text},
		"model": p.model,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("api error %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
		Model string `json:"model"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(apiResp.Data) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}

	return apiResp.Data[0].Embedding, nil
}

func (p *HTTPProvider) Dimension() int {
	return p.dimension
}

func (p *HTTPProvider) Name() string {
	return ProviderOpenAI
}

func (p *HTTPProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

// LocalProvider produces deterministic hash-derived vectors. It keeps the
// pipeline functional without a network backend and is the provider used in
// tests.
type LocalProvider struct {
	dimension int
}

// NewLocalProvider creates a local deterministic provider
func NewLocalProvider() *LocalProvider {
	return &LocalProvider{dimension: LocalDimension}
}

func (l *LocalProvider) Init(ctx context.Context) error {
	return nil
}

func (l *LocalProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	// Deterministic pseudo-embedding from the text hash, stretched across
	// the full dimension.
	vector := make([]float32, l.dimension)
	hash := sha256.Sum256([]byte(text))
	for i := 0; i < l.dimension; i++ {
		vector[i] = float32(hash[i%len(hash)]^byte(i)) / 255.0
	}

	return vector, nil
}

func (l *LocalProvider) Dimension() int {
	return l.dimension
}

func (l *LocalProvider) Name() string {
	return ProviderLocal
}

func (l *LocalProvider) Close() error {
	return nil
}
