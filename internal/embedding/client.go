package embedding

import (
	"context"
	"fmt"
	"time"
)

// Client converts text into dense vectors for similarity search.
type Client interface {
	// Embed returns the vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Name returns the provider name.
	Name() string
}

// Config holds embedding client settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	Timeout    time.Duration
	MaxRetries int
	BatchSize  int
}

// Option configures the embedding client.
type Option func(*Config)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithBaseURL sets the API endpoint.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithModel sets the embedding model.
func WithModel(model string) Option {
	return func(c *Config) {
		c.Model = model
	}
}

// WithDimensions sets the expected vector dimension.
func WithDimensions(dim int) Option {
	return func(c *Config) {
		c.Dimensions = dim
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithMaxRetries sets the retry count for transient failures.
func WithMaxRetries(n int) Option {
	return func(c *Config) {
		c.MaxRetries = n
	}
}

// WithBatchSize sets the maximum texts per API request.
func WithBatchSize(n int) Option {
	return func(c *Config) {
		c.BatchSize = n
	}
}

// DefaultConfig returns the default embedding configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    "https://api.openai.com/v1",
		Model:      "text-embedding-3-small",
		Dimensions: 1536,
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		BatchSize:  16,
	}
}

// NewConfig builds a configuration from options.
func NewConfig(opts ...Option) *Config {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(config)
	}
	return config
}

type clientFactory func(config *Config) (Client, error)

var clientFactories = make(map[string]clientFactory)

// RegisterClient registers an embedding provider factory.
func RegisterClient(name string, factory clientFactory) {
	clientFactories[name] = factory
}

// NewClient creates an embedding client for the named provider.
func NewClient(name string, opts ...Option) (Client, error) {
	factory, ok := clientFactories[name]
	if !ok {
		return nil, fmt.Errorf("unknown embedding provider: %s", name)
	}
	return factory(NewConfig(opts...))
}
