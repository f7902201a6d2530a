// Package openai implements the SkillFlow model capabilities on top of any
// OpenAI-compatible chat completion endpoint (OpenAI, Groq, local proxies).
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	goopenai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"golang.org/x/time/rate"

	"github.com/aretw0/skillflow/internal/logging"
	"github.com/aretw0/skillflow/pkg/domain"
)

// ErrNoChoices is returned when the endpoint answers without any completion.
var ErrNoChoices = errors.New("model returned no choices")

// Config describes one chat completion endpoint.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	// RequestsPerMinute caps outgoing calls. Zero or less disables the limiter.
	RequestsPerMinute int
	Timeout           time.Duration
}

// Client sends structured-output chat completions and decodes the JSON answer.
// Calls wait for the rate limiter but are never retried.
type Client struct {
	api         *goopenai.Client
	model       string
	temperature float32
	limiter     *rate.Limiter
	validate    *validator.Validate
	logger      *slog.Logger
	jsonSchema  bool
	httpClient  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient replaces the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithJSONSchema requests strict JSON schema output instead of plain JSON mode.
// Only enable it for endpoints and models that support response_format json_schema.
func WithJSONSchema(enabled bool) Option {
	return func(c *Client) {
		c.jsonSchema = enabled
	}
}

// WithLimiter replaces the limiter derived from Config.RequestsPerMinute.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// New creates a client for the endpoint described by cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.Model == "" {
		return nil, errors.New("openai: model is required")
	}
	c := &Client{
		model:       cfg.Model,
		temperature: cfg.Temperature,
		limiter:     rate.NewLimiter(rate.Inf, 1),
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      logging.NewNop(),
	}
	if cfg.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	apiCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	apiCfg.HTTPClient = c.httpClient
	c.api = goopenai.NewClientWithConfig(apiCfg)
	c.logger = c.logger.With("model", c.model)
	return c, nil
}

// Model returns the model name requests are sent to.
func (c *Client) Model() string {
	return c.model
}

type message = goopenai.ChatCompletionMessage

func system(content string) message {
	return message{Role: goopenai.ChatMessageRoleSystem, Content: content}
}

func user(content string) message {
	return message{Role: goopenai.ChatMessageRoleUser, Content: content}
}

func assistant(content string) message {
	return message{Role: goopenai.ChatMessageRoleAssistant, Content: content}
}

// complete sends msgs and decodes the JSON answer into out.
// A response that is not valid JSON for out is reported as domain.ErrInvalidArtifact.
func (c *Client) complete(ctx context.Context, name string, msgs []message, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limiter: %w", name, err)
	}

	req := goopenai.ChatCompletionRequest{
		Model:          c.model,
		Messages:       msgs,
		Temperature:    c.temperature,
		ResponseFormat: c.responseFormat(name, out),
	}

	started := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		c.logger.ErrorContext(ctx, "chat completion failed", "call", name, "err", err)
		return fmt.Errorf("%s: chat completion: %w", name, err)
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("%s: %w", name, ErrNoChoices)
	}
	c.logger.DebugContext(ctx, "chat completion",
		"call", name,
		"finish_reason", string(resp.Choices[0].FinishReason),
		"total_tokens", resp.Usage.TotalTokens,
		"duration", time.Since(started),
	)

	content := stripFences(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidArtifact, name, err)
	}
	return nil
}

func (c *Client) responseFormat(name string, out any) *goopenai.ChatCompletionResponseFormat {
	if c.jsonSchema {
		schema, err := jsonschema.GenerateSchemaForType(reflect.ValueOf(out).Elem().Interface())
		if err == nil {
			return &goopenai.ChatCompletionResponseFormat{
				Type: goopenai.ChatCompletionResponseFormatTypeJSONSchema,
				JSONSchema: &goopenai.ChatCompletionResponseFormatJSONSchema{
					Name:   name,
					Schema: schema,
				},
			}
		}
		c.logger.Warn("schema generation failed, using JSON mode", "call", name, "err", err)
	}
	return &goopenai.ChatCompletionResponseFormat{Type: goopenai.ChatCompletionResponseFormatTypeJSONObject}
}

// check runs struct validation and reports failures as domain.ErrInvalidArtifact.
func (c *Client) check(name string, v any) error {
	if err := c.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidArtifact, name, err)
	}
	return nil
}

// stripFences removes a Markdown code fence some models wrap JSON answers in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
