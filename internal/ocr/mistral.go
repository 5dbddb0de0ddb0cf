package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

// MistralClient Mistral OCR client implementation.
// The API takes a base64 data URL and returns per-page markdown.
type MistralClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	maxRetries int
}

// mistralOCRRequest Mistral OCR API request body.
type mistralOCRRequest struct {
	Model    string          `json:"model"`
	Document mistralDocument `json:"document"`
}

// mistralDocument document payload; exactly one of the URL fields is set
// depending on Type.
type mistralDocument struct {
	Type        string `json:"type"`
	DocumentURL string `json:"document_url,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// mistralOCRResponse Mistral OCR API response body.
type mistralOCRResponse struct {
	Pages []mistralPage `json:"pages"`
}

// mistralPage one recognized page.
type mistralPage struct {
	Index    int    `json:"index"`
	Markdown string `json:"markdown"`
}

// NewMistralClient creates a Mistral OCR client.
func NewMistralClient(opts ...Option) (Client, error) {
	cfg := NewConfig(opts...)

	if cfg.APIKey == "" {
		return nil, NewOCRError(ErrCodeInvalidAPIKey, "api key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultConfig().BaseURL
	}

	return &MistralClient{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
	}, nil
}

// Name returns the backend model name.
func (c *MistralClient) Name() string {
	return c.model
}

// Recognize sends the document to the OCR endpoint and concatenates the
// returned page markdown in page order.
func (c *MistralClient) Recognize(ctx context.Context, data []byte, filename string) (string, error) {
	if len(data) == 0 {
		return "", NewOCRError(ErrCodeEmptyInput, "document payload is empty")
	}

	req := mistralOCRRequest{
		Model:    c.model,
		Document: buildDocumentPayload(data, filename),
	}

	resp, err := c.sendRequest(ctx, &req)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	for _, page := range resp.Pages {
		if out.Len() > 0 {
			out.WriteString("\n\n")
		}
		out.WriteString(page.Markdown)
	}
	return out.String(), nil
}

// buildDocumentPayload encodes the bytes as a data URL with the right
// payload type for the file extension.
func buildDocumentPayload(data []byte, filename string) mistralDocument {
	encoded := base64.StdEncoding.EncodeToString(data)

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return mistralDocument{Type: "image_url", ImageURL: "data:image/png;base64," + encoded}
	case ".jpg", ".jpeg":
		return mistralDocument{Type: "image_url", ImageURL: "data:image/jpeg;base64," + encoded}
	case ".tif", ".tiff":
		return mistralDocument{Type: "image_url", ImageURL: "data:image/tiff;base64," + encoded}
	default:
		return mistralDocument{Type: "document_url", DocumentURL: "data:application/pdf;base64," + encoded}
	}
}

// sendRequest posts the OCR request with retries on server errors.
func (c *MistralClient) sendRequest(ctx context.Context, req *mistralOCRRequest) (*mistralOCRResponse, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, NewOCRError(ErrCodeInvalidRequest, fmt.Sprintf("failed to marshal request: %v", err))
	}

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, NewOCRError(ErrCodeTimeout, ctx.Err().Error())
			case <-time.After(time.Duration(1<<attempt) * 100 * time.Millisecond):
			}
		}

		httpReq, reqErr := http.NewRequestWithContext(
			ctx,
			http.MethodPost,
			c.baseURL+"/v1/ocr",
			bytes.NewReader(jsonData),
		)
		if reqErr != nil {
			return nil, NewOCRError(ErrCodeInvalidRequest, fmt.Sprintf("failed to create request: %v", reqErr))
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		httpReq.Header.Set("Accept", "application/json")

		resp, err = c.httpClient.Do(httpReq)
		if err == nil && resp.StatusCode < 500 {
			break
		}

		if err != nil {
			lastErr = err
		} else {
			resp.Body.Close()
		}
	}

	if err != nil {
		if ctx.Err() != nil {
			return nil, NewOCRError(ErrCodeTimeout, fmt.Sprintf("request timed out: %v", lastErr))
		}
		return nil, NewOCRError(ErrCodeNetworkError, fmt.Sprintf("request failed: %v", lastErr))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewOCRError(ErrCodeServerError, fmt.Sprintf("failed to read response: %v", err))
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, NewOCRError(ErrCodeInvalidAPIKey, "unauthorized")
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewOCRError(ErrCodeRateLimited, "rate limit exceeded")
	case resp.StatusCode != http.StatusOK:
		return nil, NewOCRError(ErrCodeServerError,
			fmt.Sprintf("API error (status %d): %s", resp.StatusCode, string(body)))
	}

	var ocrResp mistralOCRResponse
	if err := json.Unmarshal(body, &ocrResp); err != nil {
		return nil, NewOCRError(ErrCodeServerError, fmt.Sprintf("failed to parse response: %v", err))
	}

	return &ocrResp, nil
}

func init() {
	RegisterClient("mistral", NewMistralClient)
}
