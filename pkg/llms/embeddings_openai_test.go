package llms

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dcnsakthi/intellica/config"
)

func embeddingsTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Embeddings.Service = "openai"
	cfg.Embeddings.Model = "text-embedding-ada-002"
	cfg.Embeddings.Dimensions = 1536
	cfg.Embeddings.OpenAIAPIKey = "test-key"
	return cfg
}

func TestConfigureClient(t *testing.T) {
	t.Run("APIKeyOnly", func(t *testing.T) {
		cfg := embeddingsTestConfig()
		client := &OpenAIEmbeddingsClient{}
		options := client.configureClient(cfg)
		assert.Len(t, options, 3)
	})

	t.Run("AzureOpenAIEndpoint", func(t *testing.T) {
		cfg := embeddingsTestConfig()
		cfg.Embeddings.AzureOpenAIEndpoint = "https://example.openai.azure.com"
		cfg.Embeddings.AzureOpenAIModel.EmbeddingDeployment = "ada-deployment"
		client := &OpenAIEmbeddingsClient{}
		options := client.configureClient(cfg)
		assert.Len(t, options, 6)
	})

	t.Run("OpenAIEndpoint", func(t *testing.T) {
		cfg := embeddingsTestConfig()
		cfg.Embeddings.OpenAIEndpoint = "https://proxy.example.com/v1"
		client := &OpenAIEmbeddingsClient{}
		options := client.configureClient(cfg)
		assert.Len(t, options, 4)
	})

	t.Run("OpenAIOrgID", func(t *testing.T) {
		cfg := embeddingsTestConfig()
		cfg.Embeddings.OpenAIOrgID = "org-test"
		client := &OpenAIEmbeddingsClient{}
		options := client.configureClient(cfg)
		assert.Len(t, options, 4)
	})
}

func TestEmbedTextsTokenLimit(t *testing.T) {
	cfg := embeddingsTestConfig()
	client, err := NewOpenAIEmbeddingsClient(context.Background(), cfg)
	assert.NoError(t, err)

	// cl100k_base encodes each word repetition to at least one token, so this
	// comfortably exceeds the per-input limit without calling the API.
	oversized := strings.Repeat("token ", MaxEmbeddingTokens+10)
	_, err = client.EmbedTexts(context.Background(), []string{oversized})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "token limit")
}

func TestEmbedTextsUninitializedClient(t *testing.T) {
	_, err := EmbedTextsWithOpenAIClient(context.Background(), []string{"hello"}, nil)
	assert.Error(t, err)
}
