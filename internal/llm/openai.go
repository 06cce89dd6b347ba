package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/factlens/internal/util"
	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements the Provider interface for OpenAI-compatible APIs
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	// Some gateways send non-array annotations in stream deltas, which the
	// client cannot decode.
	clientConfig.HTTPClient = &http.Client{
		Transport: &annotationSanitizer{
			base: &http.Transport{
				Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
			},
		},
	}

	client := openai.NewClientWithConfig(clientConfig)

	return &OpenAIProvider{
		client: client,
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks if the provider is properly configured
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.ListModels(ctx)
	return err == nil
}

// Complete runs a chat completion
func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	chatReq := p.chatRequest(req)

	resp, err := p.client.CreateChatCompletion(ctxWithTimeout, chatReq)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	return &CompletionResponse{
		Text:       strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:      chatReq.Model,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

// CompleteStream runs a streaming chat completion
func (p *OpenAIProvider) CompleteStream(ctx context.Context, req CompletionRequest, onChunk func(string) error) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	chatReq := p.chatRequest(req)
	chatReq.Stream = true

	stream, err := p.client.CreateChatCompletionStream(ctxWithTimeout, chatReq)
	if err != nil {
		return fmt.Errorf("OpenAI API error: %w", err)
	}
	defer func() { _ = stream.Close() }()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("OpenAI stream: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if delta := resp.Choices[0].Delta.Content; delta != "" {
			if err := onChunk(delta); err != nil {
				return err
			}
		}
	}
}

func (p *OpenAIProvider) chatRequest(req CompletionRequest) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	return openai.ChatCompletionRequest{
		Model:       resolveModel(req, p.config, openai.GPT4oMini),
		Messages:    messages,
		MaxTokens:   resolveMaxTokens(req, p.config),
		Temperature: resolveTemperature(req),
	}
}

func (p *OpenAIProvider) timeout() time.Duration {
	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return timeout
}
