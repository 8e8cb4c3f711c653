package search

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dcnsakthi/intellica/pkg/models"
)

func testProduct(id string, embedding []float32) models.Product {
	return models.Product{
		ProductID: id,
		Name:      "Product " + id,
		Category:  "widgets",
		IsActive:  true,
		Embedding: embedding,
	}
}

func TestRankBySimilarity(t *testing.T) {
	t.Run("RanksByDescendingScore", func(t *testing.T) {
		candidates := []models.Product{
			testProduct("A", []float32{1, 0}),
			testProduct("B", []float32{0, 1}),
			testProduct("C", []float32{0.9, 0.1}),
		}
		results, err := RankBySimilarity([]float32{1, 0}, candidates, 0.5, 2)
		assert.NoError(t, err)
		assert.Len(t, results, 2)
		assert.Equal(t, "A", results[0].Record.ProductID)
		assert.InDelta(t, 1.0, results[0].Score, 1e-6)
		assert.Equal(t, "C", results[1].Record.ProductID)
		assert.InDelta(t, 0.993884, results[1].Score, 1e-5)
	})

	t.Run("EmptyQueryVector", func(t *testing.T) {
		candidates := []models.Product{testProduct("A", []float32{1, 0})}
		_, err := RankBySimilarity(nil, candidates, 0, 10)
		assert.ErrorIs(t, err, models.ErrBadRequest)
	})

	t.Run("EmptyCandidates", func(t *testing.T) {
		results, err := RankBySimilarity([]float32{1, 0}, []models.Product{}, 0, 10)
		assert.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("NonPositiveLimit", func(t *testing.T) {
		candidates := []models.Product{testProduct("A", []float32{1, 0})}
		results, err := RankBySimilarity([]float32{1, 0}, candidates, 0, 0)
		assert.NoError(t, err)
		assert.Empty(t, results)

		results, err = RankBySimilarity([]float32{1, 0}, candidates, 0, -3)
		assert.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("SkipsMissingAndMismatchedEmbeddings", func(t *testing.T) {
		candidates := []models.Product{
			testProduct("A", []float32{1, 0}),
			testProduct("B", nil),
			testProduct("C", []float32{1, 0, 0}),
		}
		results, err := RankBySimilarity([]float32{1, 0}, candidates, 0, 10)
		assert.NoError(t, err)
		assert.Len(t, results, 1)
		assert.Equal(t, "A", results[0].Record.ProductID)
	})

	t.Run("SelfSimilarityIsOne", func(t *testing.T) {
		embedding := make([]float32, 1536)
		r := rand.New(rand.NewSource(42))
		for i := range embedding {
			embedding[i] = r.Float32()
		}
		results, err := RankBySimilarity(
			embedding,
			[]models.Product{testProduct("A", embedding)},
			0,
			1,
		)
		assert.NoError(t, err)
		assert.Len(t, results, 1)
		assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	})

	t.Run("ThresholdFiltersAndNeverErrors", func(t *testing.T) {
		candidates := []models.Product{
			testProduct("A", []float32{1, 0}),
			testProduct("B", []float32{0, 1}),
		}
		results, err := RankBySimilarity([]float32{1, 0}, candidates, 0.99, 10)
		assert.NoError(t, err)
		assert.Len(t, results, 1)

		// A threshold nothing clears is an empty result, not an error.
		results, err = RankBySimilarity([]float32{1, 0}, candidates, 1.1, 10)
		assert.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("RaisingThresholdShrinksResults", func(t *testing.T) {
		r := rand.New(rand.NewSource(7))
		candidates := make([]models.Product, 50)
		for i := range candidates {
			embedding := make([]float32, 8)
			for j := range embedding {
				embedding[j] = r.Float32()
			}
			candidates[i] = testProduct(string(rune('A'+i%26))+string(rune('0'+i/26)), embedding)
		}
		query := make([]float32, 8)
		for j := range query {
			query[j] = r.Float32()
		}
		var prev int
		first := true
		for _, threshold := range []float64{0, 0.25, 0.5, 0.75, 0.9, 1.0} {
			results, err := RankBySimilarity(query, candidates, threshold, len(candidates))
			assert.NoError(t, err)
			if !first {
				assert.LessOrEqual(t, len(results), prev)
			}
			prev = len(results)
			first = false
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		candidates := []models.Product{
			testProduct("B", []float32{1, 0}),
			testProduct("A", []float32{1, 0}),
			testProduct("C", []float32{0.5, 0.5}),
		}
		first, err := RankBySimilarity([]float32{1, 0}, candidates, 0, 10)
		assert.NoError(t, err)
		second, err := RankBySimilarity([]float32{1, 0}, candidates, 0, 10)
		assert.NoError(t, err)
		assert.Equal(t, first, second)
		// Equal scores resolve by record ID.
		assert.Equal(t, "A", first[0].Record.ProductID)
		assert.Equal(t, "B", first[1].Record.ProductID)
	})

	t.Run("NegativeSimilarityClampsToZero", func(t *testing.T) {
		candidates := []models.Product{testProduct("A", []float32{-1, 0})}
		results, err := RankBySimilarity([]float32{1, 0}, candidates, 0, 10)
		assert.NoError(t, err)
		assert.Len(t, results, 1)
		assert.Equal(t, 0.0, results[0].Score)
	})

	t.Run("ZeroVectorScoresZero", func(t *testing.T) {
		candidates := []models.Product{testProduct("A", []float32{0, 0})}
		results, err := RankBySimilarity([]float32{1, 0}, candidates, 0, 10)
		assert.NoError(t, err)
		assert.Len(t, results, 1)
		assert.Equal(t, 0.0, results[0].Score)
	})
}

func TestFindSimilarToRecord(t *testing.T) {
	t.Run("ExcludesSource", func(t *testing.T) {
		source := testProduct("A", []float32{1, 0})
		candidates := []models.Product{
			source,
			testProduct("B", []float32{0.9, 0.1}),
			testProduct("C", []float32{0, 1}),
		}
		results, err := FindSimilarToRecord(source, candidates, 0, 10)
		assert.NoError(t, err)
		assert.Len(t, results, 2)
		for _, r := range results {
			assert.NotEqual(t, "A", r.Record.ProductID)
		}
		assert.Equal(t, "B", results[0].Record.ProductID)
	})

	t.Run("LimitNotShortedBySourceExclusion", func(t *testing.T) {
		source := testProduct("A", []float32{1, 0})
		candidates := []models.Product{
			source,
			testProduct("B", []float32{0.9, 0.1}),
			testProduct("C", []float32{0.8, 0.2}),
		}
		results, err := FindSimilarToRecord(source, candidates, 0, 2)
		assert.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("NoEmbedding", func(t *testing.T) {
		source := testProduct("A", nil)
		candidates := []models.Product{testProduct("B", []float32{1, 0})}
		_, err := FindSimilarToRecord(source, candidates, 0, 10)
		assert.ErrorIs(t, err, models.ErrNoEmbedding)
	})

	t.Run("NonPositiveLimit", func(t *testing.T) {
		source := testProduct("A", []float32{1, 0})
		results, err := FindSimilarToRecord(source, []models.Product{source}, 0, 0)
		assert.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestFallbackByAttributes(t *testing.T) {
	source := models.Product{
		ProductID: "P1",
		Category:  "audio",
		Price:     100,
		IsActive:  true,
	}
	candidates := []models.Product{
		source,
		{ProductID: "P2", Category: "audio", Price: 110, IsActive: true},
		{ProductID: "P3", Category: "audio", Price: 90, IsActive: true},
		{ProductID: "P4", Category: "audio", Price: 300, IsActive: true},
		{ProductID: "P5", Category: "audio", Price: 95, IsActive: false},
		{ProductID: "P6", Category: "video", Price: 100, IsActive: true},
	}

	t.Run("OrdersByPriceProximity", func(t *testing.T) {
		results := FallbackByAttributes(&source, candidates, 10)
		assert.Len(t, results, 3)
		// P2 ties P3 on price distance and wins on ID.
		assert.Equal(t, "P2", results[0].ProductID)
		assert.Equal(t, "P3", results[1].ProductID)
		assert.Equal(t, "P4", results[2].ProductID)
	})

	t.Run("RespectsLimit", func(t *testing.T) {
		results := FallbackByAttributes(&source, candidates, 1)
		assert.Len(t, results, 1)
	})

	t.Run("ExcludesInactiveAndOtherCategories", func(t *testing.T) {
		results := FallbackByAttributes(&source, candidates, 10)
		for _, p := range results {
			assert.True(t, p.IsActive)
			assert.Equal(t, "audio", p.Category)
			assert.NotEqual(t, "P1", p.ProductID)
		}
	})

	t.Run("NonPositiveLimit", func(t *testing.T) {
		assert.Empty(t, FallbackByAttributes(&source, candidates, 0))
	})
}
