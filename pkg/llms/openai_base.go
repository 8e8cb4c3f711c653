package llms

import (
	"context"
	"time"

	"github.com/tmc/langchaingo/llms/openai"

	"github.com/dcnsakthi/intellica/config"
)

const OpenAIAPITimeout = 90 * time.Second
const MaxOpenAIAPIRequestAttempts = 5

const EmbeddingsOpenAIAPIKeyNotSetError = "INTELLICA_OPENAI_API_KEY is not set" //nolint:gosec

func NewOpenAIChatClient(options ...openai.Option) (*openai.Chat, error) {
	client, err := openai.NewChat(options...)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func GetOpenAIAPIKey(cfg *config.Config) string {
	apiKey := cfg.Embeddings.OpenAIAPIKey
	// If the key is not set, log a fatal error and exit
	if apiKey == "" {
		log.Fatal(EmbeddingsOpenAIAPIKeyNotSetError)
	}
	return apiKey
}

func validateOpenAIConfig(cfg *config.Config) {
	if cfg.Embeddings.AzureOpenAIEndpoint != "" && cfg.Embeddings.OpenAIEndpoint != "" {
		log.Fatal("only one of AzureOpenAIEndpoint or OpenAIEndpoint can be set")
	}
}

func EmbedTextsWithOpenAIClient(
	ctx context.Context,
	texts []string,
	openAIClient *openai.Chat,
) ([][]float32, error) {
	// If the Client is not initialized, return an error
	if openAIClient == nil {
		return nil, NewEmbeddingsClientError(InvalidEmbeddingsClientError, nil)
	}

	thisCtx, cancel := context.WithTimeout(ctx, OpenAIAPITimeout)
	defer cancel()

	embeddings, err := openAIClient.CreateEmbedding(thisCtx, texts)
	if err != nil {
		return nil, NewEmbeddingsClientError("error while creating embedding", err)
	}

	return embeddings, nil
}

func GetBaseOpenAIClientOptions(apiKey, validModel string) []openai.Option {
	retryableHTTPClient := NewRetryableHTTPClient(MaxOpenAIAPIRequestAttempts, OpenAIAPITimeout)

	options := make([]openai.Option, 0)
	options = append(
		options,
		openai.WithHTTPClient(retryableHTTPClient.StandardClient()),
		openai.WithModel(validModel),
		openai.WithToken(apiKey),
	)

	return options
}

func ConfigureOpenAIClientOptions(options []openai.Option, cfg *config.Config) []openai.Option {
	applyOption := func(cond bool, opts ...openai.Option) []openai.Option {
		if cond {
			return append(options, opts...)
		}
		return options
	}

	// If AzureOpenAIEndpoint is set, use the Azure API type and the configured
	// embedding deployment name.
	options = applyOption(cfg.Embeddings.AzureOpenAIEndpoint != "",
		openai.WithAPIType(openai.APITypeAzure),
		openai.WithBaseURL(cfg.Embeddings.AzureOpenAIEndpoint),
		openai.WithEmbeddingModel(cfg.Embeddings.AzureOpenAIModel.EmbeddingDeployment),
	)

	options = applyOption(cfg.Embeddings.OpenAIEndpoint != "",
		openai.WithBaseURL(cfg.Embeddings.OpenAIEndpoint),
	)

	options = applyOption(cfg.Embeddings.OpenAIOrgID != "",
		openai.WithOrganization(cfg.Embeddings.OpenAIOrgID),
	)

	return options
}
