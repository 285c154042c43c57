// Package openai is the OpenAI-compatible chat provider of the AI search assistant.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/evidex/internal/domain"
	"github.com/kailas-cloud/evidex/internal/domain/assistant"
	"github.com/kailas-cloud/evidex/internal/metrics"
)

const (
	defaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 600
)

// Assistant answers research questions via the chat completions API in JSON mode.
type Assistant struct {
	client    *openai.Client
	model     string
	maxTokens int
	user      string
	provider  string
	logger    *zap.Logger
}

// Config holds the chat provider settings.
type Config struct {
	APIKey    string
	BaseURL   string // empty = api.openai.com
	Model     string
	MaxTokens int
	User      string
	Provider  string
	Logger    *zap.Logger
}

// NewAssistant creates an OpenAI-compatible chat provider.
func NewAssistant(cfg *Config) *Assistant {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	provider := cfg.Provider
	if provider == "" {
		provider = "openai"
	}
	lg := cfg.Logger
	if lg == nil {
		lg = zap.NewNop()
	}

	return &Assistant{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     model,
		maxTokens: maxTokens,
		user:      cfg.User,
		provider:  provider,
		logger:    lg,
	}
}

// Provider returns the configured provider label.
func (a *Assistant) Provider() string { return a.provider }

// Model returns the chat model name.
func (a *Assistant) Model() string { return a.model }

// Complete sends one system+user exchange and returns the raw JSON answer and usage.
func (a *Assistant) Complete(ctx context.Context, req *assistant.Request) (assistant.Completion, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: assistant.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt()},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		MaxTokens:   a.maxTokens,
		Temperature: 0.3,
		User:        a.user,
	}

	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, chatReq)
	duration := time.Since(start)

	if err != nil {
		metrics.AIRequestsTotal.WithLabelValues(a.provider, a.model, "error").Inc()
		metrics.AIErrorsTotal.WithLabelValues(a.provider, a.model, "api_error").Inc()
		return assistant.Completion{}, parseAPIError(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		metrics.AIRequestsTotal.WithLabelValues(a.provider, a.model, "error").Inc()
		metrics.AIErrorsTotal.WithLabelValues(a.provider, a.model, "empty_response").Inc()
		return assistant.Completion{}, fmt.Errorf("empty chat response: %w", domain.ErrAIProviderError)
	}

	metrics.AIRequestsTotal.WithLabelValues(a.provider, a.model, "success").Inc()
	metrics.AIRequestDuration.WithLabelValues(a.provider, a.model).Observe(duration.Seconds())
	metrics.AITokensTotal.WithLabelValues(a.provider, a.model, "prompt").Add(float64(resp.Usage.PromptTokens))
	metrics.AITokensTotal.WithLabelValues(a.provider, a.model, "completion").Add(float64(resp.Usage.CompletionTokens))

	if resp.Choices[0].FinishReason == openai.FinishReasonLength {
		a.logger.Warn("Chat answer truncated", zap.String("model", a.model), zap.Int("max_tokens", a.maxTokens))
	}

	return assistant.Completion{
		Content:          resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (a *Assistant) HealthCheck(ctx context.Context) error {
	if _, err := a.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrAIProviderError for 502 mapping.
func parseAPIError(err error) error {
	wrap := domain.ErrAIProviderError

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if detail := extractDetail(reqErr.Body); detail != "" {
			return fmt.Errorf("chat API error %d: %s: %w", reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("chat API error %d: %w", reqErr.HTTPStatusCode, wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("chat API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("chat request: %w: %w", err, wrap)
	}
	return fmt.Errorf("chat request failed: %w", wrap)
}

// extractDetail reads the "detail" field some OpenAI-compatible gateways return.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
