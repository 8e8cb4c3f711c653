package llms

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dcnsakthi/intellica/config"
)

func TestNewRetryableHTTPClient(t *testing.T) {
	client := NewRetryableHTTPClient(MaxOpenAIAPIRequestAttempts, OpenAIAPITimeout)
	assert.Equal(t, MaxOpenAIAPIRequestAttempts, client.RetryMax)
	assert.Equal(t, OpenAIAPITimeout, client.HTTPClient.Timeout)
}

func TestRetryPolicy(t *testing.T) {
	t.Run("DoesNotRetry400", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusBadRequest}
		shouldRetry, err := retryPolicy(context.Background(), resp, nil)
		assert.NoError(t, err)
		assert.False(t, shouldRetry)
	})

	t.Run("Retries500", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusInternalServerError}
		shouldRetry, err := retryPolicy(context.Background(), resp, nil)
		assert.NoError(t, err)
		assert.True(t, shouldRetry)
	})

	t.Run("DoesNotRetryCancelledContext", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
		defer cancel()
		<-ctx.Done()
		shouldRetry, err := retryPolicy(ctx, nil, nil)
		assert.Error(t, err)
		assert.False(t, shouldRetry)
	})
}

func TestNewEmbeddingsClient(t *testing.T) {
	t.Run("AzureEndpointRequiresDeployment", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Embeddings.Service = "openai"
		cfg.Embeddings.OpenAIAPIKey = "test-key"
		cfg.Embeddings.AzureOpenAIEndpoint = "https://example.openai.azure.com"
		_, err := NewEmbeddingsClient(context.Background(), cfg)
		assert.Error(t, err)
	})

	t.Run("InvalidService", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Embeddings.Service = "not-a-service"
		_, err := NewEmbeddingsClient(context.Background(), cfg)
		assert.Error(t, err)
	})
}
