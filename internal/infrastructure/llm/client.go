package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/lookboard/backend/internal/domain"
)

const systemPrompt = "You are a fashion product data assistant. Answer only with the requested data. " +
	"When asked for JSON, respond with a single valid JSON value and no commentary."

// Config holds AI backend settings
type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	Timeout           time.Duration
	RequestsPerMinute int
}

// Client talks to an OpenAI-compatible chat completions API
type Client struct {
	api         *openai.Client
	model       string
	rateLimiter *rate.Limiter
	logger      zerolog.Logger
	debug       bool
}

// NewClient creates a new AI backend client
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	clientConfig.HTTPClient = &http.Client{Timeout: timeout}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}
	// rate.Limit is per second; allow short bursts of a few requests
	limiter := rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 5)

	return &Client{
		api:         openai.NewClientWithConfig(clientConfig),
		model:       model,
		rateLimiter: limiter,
		logger:      logger.With().Str("component", "llm").Logger(),
	}
}

// SetDebug enables logging of prompts and raw responses
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// Model returns the configured model name
func (c *Client) Model() string {
	return c.model
}

// ChatComplete sends a single-turn prompt and returns the assistant's text.
// There are no retries: callers fall back to their next tier on any error.
func (c *Client) ChatComplete(ctx context.Context, prompt string, opts domain.ChatOptions) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: empty prompt", domain.ErrInvalidRequest)
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limiter: %v", domain.ErrBackendUnavailable, err)
	}

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	if opts.JSONMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	if c.debug {
		c.logger.Debug().Str("model", c.model).Bool("json", opts.JSONMode).Str("prompt", prompt).Msg("chat completion request")
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			c.logger.Warn().Int("status", apiErr.HTTPStatusCode).Str("type", apiErr.Type).Msg("chat completion rejected")
		}
		return "", fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", domain.ErrMalformedAIResponse)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%w: empty content", domain.ErrMalformedAIResponse)
	}

	c.logger.Debug().
		Dur("took", time.Since(start)).
		Int("promptTokens", resp.Usage.PromptTokens).
		Int("completionTokens", resp.Usage.CompletionTokens).
		Msg("chat completion done")
	if c.debug {
		c.logger.Debug().Str("content", content).Msg("chat completion response")
	}

	return content, nil
}
