package llms

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/dcnsakthi/intellica/config"
	"github.com/dcnsakthi/intellica/internal"
	"github.com/dcnsakthi/intellica/pkg/models"
)

const InvalidEmbeddingsClientError = "embeddings client is not set or is invalid"

var InvalidEmbeddingsDeploymentError = func(service string) error {
	return fmt.Errorf("invalid embeddings deployment for %s, deployment name is required", service)
}

var log = internal.GetLogger()

func NewEmbeddingsClient(ctx context.Context, cfg *config.Config) (models.EmbeddingsClient, error) {
	switch cfg.Embeddings.Service {
	// For now we only support OpenAI embeddings
	case "openai":
		// EmbeddingsDeployment is required if using embeddings with AzureOpenAI
		if cfg.Embeddings.AzureOpenAIEndpoint != "" &&
			cfg.Embeddings.AzureOpenAIModel.EmbeddingDeployment == "" {
			return nil, InvalidEmbeddingsDeploymentError(cfg.Embeddings.Service)
		}
		return NewOpenAIEmbeddingsClient(ctx, cfg)
	case "":
		return NewOpenAIEmbeddingsClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("invalid embeddings service: %s", cfg.Embeddings.Service)
	}
}

type EmbeddingsClientError struct {
	message       string
	originalError error
}

func (e *EmbeddingsClientError) Error() string {
	return fmt.Sprintf("embeddings client error: %s (original error: %v)", e.message, e.originalError)
}

func NewEmbeddingsClientError(message string, originalError error) *EmbeddingsClientError {
	return &EmbeddingsClientError{message: message, originalError: originalError}
}

func NewRetryableHTTPClient(retryMax int, timeout time.Duration) *retryablehttp.Client {
	retryableHTTPClient := retryablehttp.NewClient()
	retryableHTTPClient.RetryMax = retryMax
	retryableHTTPClient.HTTPClient.Timeout = timeout
	retryableHTTPClient.Logger = internal.NewLeveledLogrus(log)
	retryableHTTPClient.Backoff = retryablehttp.DefaultBackoff
	retryableHTTPClient.CheckRetry = retryPolicy

	return retryableHTTPClient
}

// retryPolicy is a retryablehttp.CheckRetry function. It is used to determine
// whether a request should be retried or not.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	// do not retry on context.Canceled or context.DeadlineExceeded
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	// Do not retry 400 errors as they're used by OpenAI to indicate maximum
	// context length exceeded
	if resp != nil && resp.StatusCode == 400 {
		return false, err
	}

	shouldRetry, _ := retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	return shouldRetry, nil
}
