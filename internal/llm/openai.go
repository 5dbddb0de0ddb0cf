package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient implements Client using the OpenAI chat completions API.
type OpenAIClient struct {
	api    *openai.Client
	config *Config
}

// NewOpenAIClient creates an OpenAI chat client.
func NewOpenAIClient(config *Config) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, NewLLMError(ErrCodeInvalidAPIKey, "API key is required")
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

// Generate produces a completion for the given prompt.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, options ...GenerateOption) (*Response, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, NewLLMError(ErrCodeEmptyPrompt, "prompt is empty")
	}
	return c.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}}, options...)
}

// Chat produces a completion for a message sequence.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message, options ...GenerateOption) (*Response, error) {
	if len(messages) == 0 {
		return nil, NewLLMError(ErrCodeEmptyPrompt, "messages are empty")
	}

	opts := &GenerateOptions{}
	for _, opt := range options {
		opt(opts)
	}

	req := openai.ChatCompletionRequest{
		Model:       c.config.Model,
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
		TopP:        c.config.TopP,
	}
	if opts.MaxTokens != nil {
		req.MaxTokens = *opts.MaxTokens
	}
	if opts.Temperature != nil {
		req.Temperature = *opts.Temperature
	}
	if opts.TopP != nil {
		req.TopP = *opts.TopP
	}
	for _, msg := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, NewLLMError(ErrCodeTimeout, "request cancelled: "+ctx.Err().Error())
			case <-time.After(time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond):
			}
		}

		reqCtx := ctx
		var cancel context.CancelFunc
		if c.config.Timeout > 0 {
			reqCtx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		}
		resp, err := c.api.CreateChatCompletion(reqCtx, req)
		if cancel != nil {
			cancel()
		}
		if err != nil {
			lastErr = mapChatError(err)
			if !isRetryableChat(lastErr) {
				return nil, lastErr
			}
			continue
		}

		if len(resp.Choices) == 0 {
			return nil, NewLLMError(ErrCodeServerError, "no choices in response")
		}
		return &Response{
			Text:       resp.Choices[0].Message.Content,
			TokenCount: resp.Usage.TotalTokens,
			ModelName:  resp.Model,
			FinishTime: time.Now(),
		}, nil
	}
	return nil, lastErr
}

// Name returns the provider name.
func (c *OpenAIClient) Name() string {
	return "openai"
}

func mapChatError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 401:
			return NewLLMError(ErrCodeInvalidAPIKey, "invalid API key")
		case 429:
			return NewLLMError(ErrCodeRateLimited, "rate limit exceeded")
		case 400:
			if strings.Contains(strings.ToLower(apiErr.Message), "context length") {
				return NewLLMError(ErrCodeContextTooLong, apiErr.Message)
			}
			return NewLLMError(ErrCodeInvalidRequest, apiErr.Message)
		default:
			return NewLLMError(ErrCodeServerError, apiErr.Message)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewLLMError(ErrCodeTimeout, "request timed out")
	}
	return WrapError(err, ErrCodeNetworkError)
}

func isRetryableChat(err error) bool {
	var llmErr LLMError
	if !errors.As(err, &llmErr) {
		return false
	}
	switch llmErr.Code {
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
