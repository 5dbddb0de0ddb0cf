// Package ocr wraps the remote OCR capability used for image and PDF
// documents. The backend returns the recognized content as markdown.
package ocr

import (
	"context"
	"time"
)

// Client remote OCR client interface.
type Client interface {
	// Recognize runs OCR over raw document bytes and returns the content
	// as a markdown string. filename is used to pick the payload type.
	Recognize(ctx context.Context, data []byte, filename string) (string, error)

	// Name returns the backend model name.
	Name() string
}

// Config OCR client configuration.
type Config struct {
	APIKey     string        // API key
	BaseURL    string        // API base URL
	Model      string        // OCR model name
	Timeout    time.Duration // per-request timeout
	MaxRetries int           // retry attempts on transient failures
}

// Option configuration option function.
type Option func(*Config)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithModel sets the OCR model name.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) { c.Timeout = timeout }
}

// WithMaxRetries sets the retry attempts.
func WithMaxRetries(retries int) Option {
	return func(c *Config) { c.MaxRetries = retries }
}

// DefaultConfig returns the default OCR configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    "https://api.mistral.ai",
		Model:      "mistral-ocr-latest",
		Timeout:    120 * time.Second,
		MaxRetries: 1,
	}
}

// NewConfig creates a configuration and applies options.
func NewConfig(opts ...Option) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Factory OCR client factory function type.
type Factory func(opts ...Option) (Client, error)

var clientFactories = make(map[string]Factory)

// RegisterClient registers an OCR client factory.
func RegisterClient(name string, factory Factory) {
	clientFactories[name] = factory
}

// NewClient creates an OCR client by provider name.
func NewClient(name string, opts ...Option) (Client, error) {
	factory, exists := clientFactories[name]
	if !exists {
		return nil, NewOCRError(ErrCodeInvalidRequest, "ocr client type not registered: "+name)
	}
	return factory(opts...)
}
