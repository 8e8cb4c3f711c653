package apihandlers

import (
	"context"
	"fmt"

	"github.com/dcnsakthi/intellica/pkg/models"
	"github.com/dcnsakthi/intellica/pkg/search"
)

// MMRRankFactor is how many times limit candidates are similarity-ranked
// before MMR reranking diversifies them down to limit.
const MMRRankFactor = 2

// embedQuery embeds the search text with the configured embeddings service.
func embedQuery(
	ctx context.Context,
	appState *models.AppState,
	text string,
) ([]float32, error) {
	embeddings, err := appState.EmbeddingsClient.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embeddings service returned no vectors")
	}
	return embeddings[0], nil
}

// rankCandidates ranks candidates against the query vector per the search
// payload. For MMR searches a wider candidate pool is similarity-ranked first
// and then reranked for diversity.
func rankCandidates[T models.CatalogRecord](
	appState *models.AppState,
	queryVector []float32,
	candidates []T,
	payload *models.SearchPayload,
) ([]search.ScoredRecord[T], error) {
	limit := payload.Limit
	if limit <= 0 {
		limit = appState.Config.Search.DefaultLimit
	}
	minScore := appState.Config.Search.MinScore
	if payload.MinScore != nil {
		minScore = *payload.MinScore
	}

	if payload.SearchType != models.SearchTypeMMR {
		return search.RankBySimilarity(queryVector, candidates, minScore, limit)
	}

	ranked, err := search.RankBySimilarity(
		queryVector,
		candidates,
		minScore,
		limit*MMRRankFactor,
	)
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		return ranked, nil
	}

	lambda := payload.MMRLambda
	if lambda <= 0 {
		lambda = appState.Config.Search.MMRLambda
	}

	embeddings := make([][]float32, len(ranked))
	for i := range ranked {
		embeddings[i] = ranked[i].Record.RecordEmbedding()
	}
	indexes, err := search.MaximalMarginalRelevance(queryVector, embeddings, lambda, limit)
	if err != nil {
		return nil, err
	}

	reranked := make([]search.ScoredRecord[T], len(indexes))
	for i, index := range indexes {
		reranked[i] = ranked[index]
	}
	return reranked, nil
}
