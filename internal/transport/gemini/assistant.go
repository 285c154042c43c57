// Package gemini is the Google Gemini chat provider of the AI search assistant.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/evidex/internal/domain"
	"github.com/kailas-cloud/evidex/internal/domain/assistant"
	"github.com/kailas-cloud/evidex/internal/metrics"
)

const (
	defaultModel     = "gemini-2.0-flash"
	defaultMaxTokens = 600
	provider         = "gemini"
)

// Config holds the Gemini provider settings.
type Config struct {
	APIKey     string
	BaseURL    string // empty = generativelanguage.googleapis.com
	Model      string
	MaxTokens  int
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Assistant answers research questions through GenerateContent with a JSON response type.
type Assistant struct {
	client    *genai.Client
	model     string
	maxTokens int32
	logger    *zap.Logger
}

// NewAssistant creates a Gemini chat provider.
func NewAssistant(ctx context.Context, cfg *Config) (*Assistant, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key: %w", domain.ErrNotConfigured)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  cfg.HTTPClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	lg := cfg.Logger
	if lg == nil {
		lg = zap.NewNop()
	}

	return &Assistant{
		client:    client,
		model:     model,
		maxTokens: int32(maxTokens), //nolint:gosec // bounded by config validation
		logger:    lg,
	}, nil
}

// Provider returns "gemini".
func (a *Assistant) Provider() string { return provider }

// Model returns the model name.
func (a *Assistant) Model() string { return a.model }

// Complete sends one system+user exchange and returns the raw JSON answer and usage.
func (a *Assistant) Complete(ctx context.Context, req *assistant.Request) (assistant.Completion, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(req.UserPrompt(), genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(assistant.SystemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr[float32](0.3),
		MaxOutputTokens:   a.maxTokens,
	}

	start := time.Now()
	resp, err := a.client.Models.GenerateContent(ctx, a.model, contents, config)
	duration := time.Since(start)

	if err != nil {
		metrics.AIRequestsTotal.WithLabelValues(provider, a.model, "error").Inc()
		metrics.AIErrorsTotal.WithLabelValues(provider, a.model, "api_error").Inc()
		return assistant.Completion{}, parseAPIError(err)
	}

	text := resp.Text()
	if text == "" {
		metrics.AIRequestsTotal.WithLabelValues(provider, a.model, "error").Inc()
		metrics.AIErrorsTotal.WithLabelValues(provider, a.model, "empty_response").Inc()
		return assistant.Completion{}, fmt.Errorf("empty gemini response: %w", domain.ErrAIProviderError)
	}

	var prompt, completion int
	if u := resp.UsageMetadata; u != nil {
		prompt = int(u.PromptTokenCount)
		completion = int(u.CandidatesTokenCount)
	}

	metrics.AIRequestsTotal.WithLabelValues(provider, a.model, "success").Inc()
	metrics.AIRequestDuration.WithLabelValues(provider, a.model).Observe(duration.Seconds())
	metrics.AITokensTotal.WithLabelValues(provider, a.model, "prompt").Add(float64(prompt))
	metrics.AITokensTotal.WithLabelValues(provider, a.model, "completion").Add(float64(completion))

	a.logger.Debug("Gemini answer",
		zap.String("model", a.model),
		zap.Int("prompt_tokens", prompt),
		zap.Int("completion_tokens", completion),
		zap.Duration("duration", duration),
	)

	return assistant.Completion{
		Content:          text,
		PromptTokens:     prompt,
		CompletionTokens: completion,
	}, nil
}

// HealthCheck lists models to verify the key and endpoint.
func (a *Assistant) HealthCheck(ctx context.Context) error {
	if _, err := a.client.Models.List(ctx, nil); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func parseAPIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("gemini API error %d: %s: %w", apiErr.Code, apiErr.Message, domain.ErrAIProviderError)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("gemini request: %w: %w", err, domain.ErrAIProviderError)
	}
	return fmt.Errorf("gemini request failed: %w", domain.ErrAIProviderError)
}
