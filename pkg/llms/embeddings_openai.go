package llms

import (
	"context"
	"fmt"

	"github.com/pkoukk/tiktoken-go"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/dcnsakthi/intellica/config"
	"github.com/dcnsakthi/intellica/pkg/models"
)

// MaxEmbeddingTokens is the per-input token limit of the OpenAI embedding models.
const MaxEmbeddingTokens = 8191

var _ models.EmbeddingsClient = &OpenAIEmbeddingsClient{}

func NewOpenAIEmbeddingsClient(ctx context.Context, cfg *config.Config) (*OpenAIEmbeddingsClient, error) {
	client := &OpenAIEmbeddingsClient{}
	err := client.Init(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return client, nil
}

type OpenAIEmbeddingsClient struct {
	client *openai.Chat
	tkm    *tiktoken.Tiktoken
}

func (c *OpenAIEmbeddingsClient) Init(_ context.Context, cfg *config.Config) error {
	// Initialize the Tiktoken client
	encoding := "cl100k_base"
	tkm, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return err
	}
	c.tkm = tkm

	options := c.configureClient(cfg)

	// Create a new client instance with options.
	// Even if it will just be used for embeddings,
	// it uses the same langchain openai chat client builder
	client, err := openai.NewChat(options...)
	if err != nil {
		return err
	}

	c.client = client

	return nil
}

func (c *OpenAIEmbeddingsClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	for i, text := range texts {
		tokenCount := len(c.tkm.Encode(text, nil, nil))
		if tokenCount > MaxEmbeddingTokens {
			return nil, NewEmbeddingsClientError(
				fmt.Sprintf("text %d exceeds embedding token limit: %d > %d",
					i, tokenCount, MaxEmbeddingTokens),
				nil,
			)
		}
	}
	return EmbedTextsWithOpenAIClient(ctx, texts, c.client)
}

func getValidOpenAIModel() string {
	return "gpt-3.5-turbo"
}

func (c *OpenAIEmbeddingsClient) configureClient(cfg *config.Config) []openai.Option {
	// Retrieve the OpenAIAPIKey from configuration
	apiKey := GetOpenAIAPIKey(cfg)

	validateOpenAIConfig(cfg)

	// Even if it will only be used for embeddings, we should pass a valid openai llm model
	// to avoid any errors
	validOpenaiLLMModel := getValidOpenAIModel()

	options := GetBaseOpenAIClientOptions(apiKey, validOpenaiLLMModel)

	options = ConfigureOpenAIClientOptions(options, cfg)

	return options
}
