package llm

import (
	"context"
	"fmt"
	"time"
)

// Client invokes a language model.
type Client interface {
	// Generate produces a completion for the given prompt.
	Generate(ctx context.Context, prompt string, options ...GenerateOption) (*Response, error)

	// Chat produces a completion for a message sequence.
	Chat(ctx context.Context, messages []Message, options ...GenerateOption) (*Response, error)

	// Name returns the provider name.
	Name() string
}

// Config holds LLM client settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	MaxRetries  int
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// DefaultConfig returns the default LLM configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     "https://api.openai.com/v1",
		Model:       "gpt-4o-mini",
		Timeout:     60 * time.Second,
		MaxRetries:  3,
		MaxTokens:   1024,
		Temperature: 0.0,
		TopP:        1.0,
	}
}

// Option configures the LLM client.
type Option func(*Config)

// WithAPIKey sets the API key.
func WithAPIKey(apiKey string) Option {
	return func(c *Config) {
		c.APIKey = apiKey
	}
}

// WithBaseURL sets the API endpoint.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(c *Config) {
		c.Model = model
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithMaxRetries sets the retry count for transient failures.
func WithMaxRetries(retries int) Option {
	return func(c *Config) {
		c.MaxRetries = retries
	}
}

// WithMaxTokens sets the maximum completion length.
func WithMaxTokens(tokens int) Option {
	return func(c *Config) {
		c.MaxTokens = tokens
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temp float32) Option {
	return func(c *Config) {
		c.Temperature = temp
	}
}

// WithTopP sets the nucleus sampling threshold.
func WithTopP(topP float32) Option {
	return func(c *Config) {
		c.TopP = topP
	}
}

// NewConfig builds a configuration from options.
func NewConfig(opts ...Option) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// GenerateOption overrides settings for a single request.
type GenerateOption func(*GenerateOptions)

// GenerateOptions holds per-request overrides.
type GenerateOptions struct {
	MaxTokens   *int
	Temperature *float32
	TopP        *float32
}

// WithGenerateMaxTokens overrides the maximum completion length.
func WithGenerateMaxTokens(tokens int) GenerateOption {
	return func(o *GenerateOptions) {
		o.MaxTokens = &tokens
	}
}

// WithGenerateTemperature overrides the sampling temperature.
func WithGenerateTemperature(temp float32) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = &temp
	}
}

// WithGenerateTopP overrides the nucleus sampling threshold.
func WithGenerateTopP(topP float32) GenerateOption {
	return func(o *GenerateOptions) {
		o.TopP = &topP
	}
}

type clientFactory func(config *Config) (Client, error)

var clientFactories = make(map[string]clientFactory)

// RegisterClient registers an LLM provider factory.
func RegisterClient(name string, factory clientFactory) {
	clientFactories[name] = factory
}

// NewClient creates an LLM client for the named provider.
func NewClient(name string, opts ...Option) (Client, error) {
	factory, ok := clientFactories[name]
	if !ok {
		return nil, fmt.Errorf("unknown llm provider: %s", name)
	}
	return factory(NewConfig(opts...))
}
