package embedding

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	mu      sync.Mutex
	calls   int
	failOn  int
	failErr error
}

func (f *fakeClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (f *fakeClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()

	if f.failOn > 0 && call >= f.failOn {
		return nil, f.failErr
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = []float32{float32(len(text)), 1.0}
	}
	return vectors, nil
}

func (f *fakeClient) Name() string {
	return "fake"
}

func TestNewConfig(t *testing.T) {
	config := NewConfig(
		WithAPIKey("test-key"),
		WithModel("text-embedding-3-large"),
		WithDimensions(3072),
		WithBatchSize(8),
	)

	assert.Equal(t, "test-key", config.APIKey)
	assert.Equal(t, "text-embedding-3-large", config.Model)
	assert.Equal(t, 3072, config.Dimensions)
	assert.Equal(t, 8, config.BatchSize)
	assert.Equal(t, "https://api.openai.com/v1", config.BaseURL)
}

func TestNewClient_UnknownProvider(t *testing.T) {
	_, err := NewClient("nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown embedding provider")
}

func TestNewClient_OpenAIRequiresKey(t *testing.T) {
	_, err := NewClient("openai")
	require.Error(t, err)

	var embErr *EmbeddingError
	require.ErrorAs(t, err, &embErr)
	assert.Equal(t, ErrCodeInvalidAPIKey, embErr.Code)
}

func TestBatchProcessor_PreservesOrder(t *testing.T) {
	texts := make([]string, 50)
	for i := range texts {
		texts[i] = strings.Repeat("x", i+1)
	}

	processor := NewBatchProcessor(&fakeClient{}, 7, 3)
	vectors, err := processor.Process(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))

	for i, vector := range vectors {
		assert.Equal(t, float32(len(texts[i])), vector[0], "vector %d out of order", i)
	}
}

func TestBatchProcessor_EmptyInput(t *testing.T) {
	processor := NewBatchProcessor(&fakeClient{}, 4, 2)
	vectors, err := processor.Process(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestBatchProcessor_PropagatesError(t *testing.T) {
	client := &fakeClient{
		failOn:  2,
		failErr: NewEmbeddingError(ErrCodeServerError, "backend down"),
	}

	texts := make([]string, 40)
	for i := range texts {
		texts[i] = "text"
	}

	processor := NewBatchProcessor(client, 4, 2)
	_, err := processor.Process(context.Background(), texts)
	require.Error(t, err)

	var embErr *EmbeddingError
	require.ErrorAs(t, err, &embErr)
	assert.Equal(t, ErrCodeServerError, embErr.Code)
}

func TestBatchProcessor_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	processor := NewBatchProcessor(&fakeClient{}, 4, 2)
	_, err := processor.Process(ctx, []string{"a", "b", "c"})
	require.Error(t, err)
}
