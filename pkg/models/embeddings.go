package models

import "context"

type EmbeddingsClient interface {
	// EmbedTexts embeds the given texts
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
