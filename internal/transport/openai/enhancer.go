package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchmesh/internal/domain"
	"github.com/kailas-cloud/searchmesh/internal/metrics"
)

const systemPrompt = `You rewrite database search queries for better full-text recall.
Expand abbreviations, add close synonyms, drop filler words. Keep the original intent.
Respond with JSON only: {"query": "<rewritten query>", "confidence": <0.0-1.0>}`

// Enhancer rewrites search queries through an OpenAI-compatible chat API.
type Enhancer struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// Config holds the enhancement provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewEnhancer creates an OpenAI-compatible query enhancer.
func NewEnhancer(cfg *Config) *Enhancer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Enhancer{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		timeout: timeout,
		logger:  logger,
	}
}

// Enhance submits the raw query for semantic rewrite and returns the
// rewritten query with the model's confidence. The call is bounded by the
// configured timeout; any failure wraps domain.ErrEnhancerUnavailable so the
// orchestrator can fall back to the raw query.
func (e *Enhancer) Enhance(ctx context.Context, query string) (string, float64, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: query},
		},
		Temperature: 0.2,
		MaxTokens:   200,
	})
	if err != nil {
		metrics.EnhancerRequestsTotal.WithLabelValues("degraded").Inc()
		e.logger.Debug("enhancer request failed", zap.Error(err))
		return "", 0, parseAPIError(err)
	}

	if len(resp.Choices) == 0 {
		metrics.EnhancerRequestsTotal.WithLabelValues("degraded").Inc()
		return "", 0, fmt.Errorf("empty completion response: %w", domain.ErrEnhancerUnavailable)
	}

	rewritten, confidence, err := parseRewrite(resp.Choices[0].Message.Content)
	if err != nil {
		metrics.EnhancerRequestsTotal.WithLabelValues("degraded").Inc()
		return "", 0, err
	}

	metrics.EnhancerRequestsTotal.WithLabelValues("success").Inc()
	return rewritten, confidence, nil
}

// parseRewrite decodes the model reply. Models occasionally wrap JSON in a
// code fence; strip it before decoding.
func parseRewrite(content string) (string, float64, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var parsed struct {
		Query      string  `json:"query"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return "", 0, fmt.Errorf("malformed rewrite %q: %w", content, domain.ErrEnhancerUnavailable)
	}
	if strings.TrimSpace(parsed.Query) == "" {
		return "", 0, fmt.Errorf("empty rewrite: %w", domain.ErrEnhancerUnavailable)
	}
	if parsed.Confidence < 0 || parsed.Confidence > 1 {
		parsed.Confidence = 0
	}
	return strings.TrimSpace(parsed.Query), parsed.Confidence, nil
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrEnhancerUnavailable for degradation.
func parseAPIError(err error) error {
	wrap := domain.ErrEnhancerUnavailable

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("enhancer API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("enhancer API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("enhancer request failed: %w", wrap)
}
