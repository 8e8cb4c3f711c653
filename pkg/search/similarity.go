package search

import (
	"fmt"
	"math"
	"sort"

	"github.com/viterin/vek/vek32"

	"github.com/dcnsakthi/intellica/pkg/models"
)

// ScoredRecord pairs a catalog record with its similarity score. Scores are
// cosine similarity in [0, 1], higher is more similar.
type ScoredRecord[T models.CatalogRecord] struct {
	Record T
	Score  float64
}

// cosineSimilarity returns the cosine similarity of two vectors of the same
// width. Degenerate results from zero vectors are mapped to 0.
func cosineSimilarity(x, y []float32) (float64, error) {
	if len(x) != len(y) {
		return 0, fmt.Errorf(
			"vector widths must match. x has width %d and y has width %d",
			len(x),
			len(y),
		)
	}
	similarity := float64(vek32.CosineSimilarity(x, y))
	if math.IsNaN(similarity) || math.IsInf(similarity, 0) || similarity < 0 {
		return 0, nil
	}
	return similarity, nil
}

// RankBySimilarity ranks candidates against queryVector by cosine similarity,
// drops candidates scoring below minScore, and returns at most limit results
// ordered by descending score. Candidates without an embedding, or with an
// embedding of a different width than queryVector, are skipped. A non-positive
// limit returns an empty result.
func RankBySimilarity[T models.CatalogRecord](
	queryVector []float32,
	candidates []T,
	minScore float64,
	limit int,
) ([]ScoredRecord[T], error) {
	if len(queryVector) == 0 {
		return nil, models.NewBadRequestError("query vector is empty")
	}
	if limit <= 0 {
		return []ScoredRecord[T]{}, nil
	}

	scored := make([]ScoredRecord[T], 0, len(candidates))
	for _, candidate := range candidates {
		embedding := candidate.RecordEmbedding()
		if len(embedding) == 0 || len(embedding) != len(queryVector) {
			continue
		}
		score, err := cosineSimilarity(queryVector, embedding)
		if err != nil {
			return nil, err
		}
		if score < minScore {
			continue
		}
		scored = append(scored, ScoredRecord[T]{Record: candidate, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Record.RecordID() < scored[j].Record.RecordID()
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// FindSimilarToRecord ranks candidates against the embedding of source,
// excluding source itself from the results. Returns models.ErrNoEmbedding
// when source has no embedding; callers are expected to fall back to
// attribute matching in that case.
func FindSimilarToRecord[T models.CatalogRecord](
	source T,
	candidates []T,
	minScore float64,
	limit int,
) ([]ScoredRecord[T], error) {
	queryVector := source.RecordEmbedding()
	if len(queryVector) == 0 {
		return nil, models.ErrNoEmbedding
	}
	if limit <= 0 {
		return []ScoredRecord[T]{}, nil
	}

	// Rank with one extra slot so the source dropping out never shorts the
	// requested limit.
	scored, err := RankBySimilarity(queryVector, candidates, minScore, limit+1)
	if err != nil {
		return nil, err
	}
	results := make([]ScoredRecord[T], 0, limit)
	for _, r := range scored {
		if r.Record.RecordID() == source.RecordID() {
			continue
		}
		results = append(results, r)
		if len(results) == limit {
			break
		}
	}
	return results, nil
}

// FallbackByAttributes finds products related to source by shared category
// when no embedding is available. Only active products in the same category
// are considered, ordered by price proximity to source. Ties are broken by
// ProductID for a deterministic order.
func FallbackByAttributes(
	source *models.Product,
	candidates []models.Product,
	limit int,
) []models.Product {
	if limit <= 0 {
		return []models.Product{}
	}

	matched := make([]models.Product, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.ProductID == source.ProductID {
			continue
		}
		if !candidate.IsActive || candidate.Category != source.Category {
			continue
		}
		matched = append(matched, candidate)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		di := math.Abs(matched[i].Price - source.Price)
		dj := math.Abs(matched[j].Price - source.Price)
		if di != dj {
			return di < dj
		}
		return matched[i].ProductID < matched[j].ProductID
	})

	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}
