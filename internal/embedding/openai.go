package embedding

import (
	"context"
	"errors"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient implements Client using the OpenAI embeddings API.
type OpenAIClient struct {
	api    *openai.Client
	config *Config
}

// NewOpenAIClient creates an OpenAI embedding client.
func NewOpenAIClient(config *Config) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, NewEmbeddingError(ErrCodeInvalidAPIKey, "API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIClient{
		api:    openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Embed returns the vector for a single text.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, NewEmbeddingError(ErrCodeEmptyInput, "text is empty")
	}

	vectors, err := c.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch returns one vector per input text, in input order.
func (c *OpenAIClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, NewEmbeddingError(ErrCodeEmptyInput, "texts are empty")
	}

	batchSize := c.config.BatchSize
	if batchSize <= 0 {
		batchSize = len(texts)
	}

	result := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := c.embed(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		result = append(result, vectors...)
	}
	return result, nil
}

// Name returns the provider name.
func (c *OpenAIClient) Name() string {
	return "openai"
}

func (c *OpenAIClient) embed(ctx context.Context, texts []string) ([][]float32, error) {
	req := openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.config.Model),
	}
	if c.config.Dimensions > 0 {
		req.Dimensions = c.config.Dimensions
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, NewEmbeddingError(ErrCodeTimeout, "request cancelled: %v", ctx.Err())
			case <-time.After(time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond):
			}
		}

		reqCtx := ctx
		var cancel context.CancelFunc
		if c.config.Timeout > 0 {
			reqCtx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		}
		resp, err := c.api.CreateEmbeddings(reqCtx, req)
		if cancel != nil {
			cancel()
		}
		if err != nil {
			lastErr = mapOpenAIError(err)
			if !isRetryable(lastErr) {
				return nil, lastErr
			}
			continue
		}

		if len(resp.Data) != len(texts) {
			return nil, NewEmbeddingError(ErrCodeServerError,
				"expected %d embeddings, got %d", len(texts), len(resp.Data))
		}

		vectors := make([][]float32, len(resp.Data))
		for _, item := range resp.Data {
			vectors[item.Index] = item.Embedding
		}
		return vectors, nil
	}
	return nil, lastErr
}

func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 401:
			return NewEmbeddingError(ErrCodeInvalidAPIKey, "invalid API key: %v", apiErr.Message)
		case 429:
			return NewEmbeddingError(ErrCodeRateLimited, "rate limited: %v", apiErr.Message)
		case 400:
			return NewEmbeddingError(ErrCodeInvalidRequest, "invalid request: %v", apiErr.Message)
		default:
			return NewEmbeddingError(ErrCodeServerError, "API error: %v", apiErr.Message)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewEmbeddingError(ErrCodeTimeout, "request timed out")
	}
	return NewEmbeddingError(ErrCodeNetworkError, "request failed: %v", err)
}

func isRetryable(err error) bool {
	var embErr *EmbeddingError
	if !errors.As(err, &embErr) {
		return false
	}
	switch embErr.Code {
	case ErrCodeRateLimited, ErrCodeServerError, ErrCodeNetworkError, ErrCodeTimeout:
		return true
	default:
		return false
	}
}

func init() {
	RegisterClient("openai", func(config *Config) (Client, error) {
		return NewOpenAIClient(config)
	})
}
