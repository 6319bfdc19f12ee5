package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockEmbeddingAPI struct {
	mock.Mock
}

func (m *MockEmbeddingAPI) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

func newTestClient(api EmbeddingAPI, dimensions int) *Client {
	return &Client{api: api, dimensions: dimensions}
}

func TestClient_EmbedText(t *testing.T) {
	api := new(MockEmbeddingAPI)
	client := newTestClient(api, 3)

	api.On("CreateEmbeddings", mock.Anything, []string{"hello"}).
		Return([][]float32{{0.1, 0.2, 0.3}}, nil)

	embedding, err := client.EmbedText(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, embedding)
	api.AssertExpectations(t)
}

func TestClient_EmbedText_Empty(t *testing.T) {
	client := newTestClient(new(MockEmbeddingAPI), 3)

	_, err := client.EmbedText(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestClient_EmbedTexts_Batch(t *testing.T) {
	api := new(MockEmbeddingAPI)
	client := newTestClient(api, 2)

	api.On("CreateEmbeddings", mock.Anything, []string{"a", "b"}).
		Return([][]float32{{1, 2}, {3, 4}}, nil)

	embeddings, err := client.EmbedTexts(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, embeddings, 2)
	assert.Equal(t, []float32{3, 4}, embeddings[1])
}

func TestClient_EmbedTexts_EmptyBatch(t *testing.T) {
	client := newTestClient(new(MockEmbeddingAPI), 3)

	_, err := client.EmbedTexts(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestClient_EmbedTexts_DimensionMismatch(t *testing.T) {
	api := new(MockEmbeddingAPI)
	client := newTestClient(api, 4)

	api.On("CreateEmbeddings", mock.Anything, mock.Anything).
		Return([][]float32{{0.1, 0.2}}, nil)

	_, err := client.EmbedTexts(context.Background(), []string{"short"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wrong dimensions")
}

func TestClient_EmbedTexts_APIError(t *testing.T) {
	api := new(MockEmbeddingAPI)
	client := newTestClient(api, 3)

	api.On("CreateEmbeddings", mock.Anything, mock.Anything).
		Return(nil, errors.New("rate limited"))

	_, err := client.EmbedTexts(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestNewClientWithConfig_Defaults(t *testing.T) {
	client := NewClientWithConfig(Config{APIKey: "sk-test"})
	assert.Equal(t, DefaultEmbeddingDimensions, client.Dimensions())

	client = NewClientWithConfig(Config{APIKey: "sk-test", EmbeddingDimensions: 768})
	assert.Equal(t, 768, client.Dimensions())
}

func TestNewClientFromEnv_MissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := NewClientFromEnv()
	assert.ErrorIs(t, err, ErrNoAPIKey)
}
