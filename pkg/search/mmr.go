package search

import (
	"math"

	"github.com/viterin/vek/vek32"
)

// MaximalMarginalRelevance implements the Maximal Marginal Relevance algorithm.
// It takes a query embedding, a list of embeddings, a lambda multiplier, and a
// number of results to return. It returns a list of indices of the embeddings
// that are most relevant to the query while penalizing redundancy among the
// selected set.
// See https://www.cs.cmu.edu/~jgc/publication/The_Use_MMR_Diversity_Based_LTMIR_1998.pdf
func MaximalMarginalRelevance(
	queryEmbedding []float32,
	embeddingList [][]float32,
	lambdaMult float32,
	k int,
) ([]int, error) {
	if k <= 0 || len(embeddingList) == 0 {
		return []int{}, nil
	}

	similarityToQuery := make([]float64, len(embeddingList))
	for i, embedding := range embeddingList {
		similarity, err := cosineSimilarity(queryEmbedding, embedding)
		if err != nil {
			return nil, err
		}
		similarityToQuery[i] = similarity
	}

	mostSimilar := vek32.ArgMax(toFloat32(similarityToQuery))
	idxs := []int{mostSimilar}

	for len(idxs) < minInt(k, len(embeddingList)) {
		bestScore := math.Inf(-1)
		idxToAdd := -1
		for i := range embeddingList {
			if contains(idxs, i) {
				continue
			}
			redundantScore := math.Inf(-1)
			for _, j := range idxs {
				similarity, err := cosineSimilarity(embeddingList[i], embeddingList[j])
				if err != nil {
					return nil, err
				}
				if similarity > redundantScore {
					redundantScore = similarity
				}
			}
			equationScore := float64(lambdaMult)*similarityToQuery[i] -
				float64(1-lambdaMult)*redundantScore
			if equationScore > bestScore {
				bestScore = equationScore
				idxToAdd = i
			}
		}
		idxs = append(idxs, idxToAdd)
	}
	return idxs, nil
}

func toFloat32(x []float64) []float32 {
	y := make([]float32, len(x))
	for i, v := range x {
		y[i] = float32(v)
	}
	return y
}

func contains(slice []int, val int) bool {
	for _, item := range slice {
		if item == val {
			return true
		}
	}
	return false
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
