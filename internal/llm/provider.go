package llm

import (
	"context"
	"fmt"
)

// Provider defines the interface for completion providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete runs a single system+user completion
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Streamer is implemented by providers that can deliver incremental output
type Streamer interface {
	// CompleteStream calls onChunk for each text delta, in order.
	// An error from onChunk aborts the stream and is returned.
	CompleteStream(ctx context.Context, req CompletionRequest, onChunk func(string) error) error
}

// CompletionRequest contains the input for a completion
type CompletionRequest struct {
	// System is the system instruction
	System string

	// Prompt is the user turn
	Prompt string

	// Model overrides the configured model
	Model string

	// MaxTokens limits the response length
	MaxTokens int

	// Temperature controls sampling (0 uses the provider default)
	Temperature float32
}

// CompletionResponse contains the provider output
type CompletionResponse struct {
	// Text is the generated text
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (OpenAI-compatible gateways, Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Model:     "",
		Timeout:   30,
		MaxTokens: 1500,
	}
}

// Stream delivers a completion through onChunk. Providers without streaming
// support produce a single chunk holding the whole completion.
func Stream(ctx context.Context, p Provider, req CompletionRequest, onChunk func(string) error) error {
	if s, ok := p.(Streamer); ok {
		return s.CompleteStream(ctx, req, onChunk)
	}

	resp, err := p.Complete(ctx, req)
	if err != nil {
		return err
	}
	if resp.Text == "" {
		return fmt.Errorf("%s: empty completion", p.Name())
	}
	return onChunk(resp.Text)
}

// resolveModel picks the request model, then the configured one, then def
func resolveModel(req CompletionRequest, config Config, def string) string {
	if req.Model != "" {
		return req.Model
	}
	if config.Model != "" {
		return config.Model
	}
	return def
}

// resolveMaxTokens picks the request limit, then the configured one, then 1000
func resolveMaxTokens(req CompletionRequest, config Config) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if config.MaxTokens > 0 {
		return config.MaxTokens
	}
	return 1000
}

// resolveTemperature returns the request temperature or the 0.3 default
func resolveTemperature(req CompletionRequest) float32 {
	if req.Temperature > 0 {
		return req.Temperature
	}
	return 0.3
}
