package models

type SearchType string

const (
	SearchTypeSimilarity SearchType = "similarity"
	SearchTypeMMR        SearchType = "mmr"
)

// SearchPayload is the request body for embedding-backed search endpoints.
// Text is embedded with the configured embeddings service and ranked against
// the stored catalog vectors.
type SearchPayload struct {
	Text       string     `json:"text" validate:"required"`
	Limit      int        `json:"limit,omitempty"`
	MinScore   *float64   `json:"min_score,omitempty"`
	SearchType SearchType `json:"search_type,omitempty"`
	MMRLambda  float32    `json:"mmr_lambda,omitempty"`
}

// ProductSearchResult pairs a product with its similarity score in [0, 1].
type ProductSearchResult struct {
	Product *Product `json:"product"`
	Score   float64  `json:"score"`
}

// ReviewSearchResult pairs a review with its similarity score in [0, 1].
type ReviewSearchResult struct {
	Review *Review `json:"review"`
	Score  float64 `json:"score"`
}

// SimilarProductsResult is the response for the product similarity endpoint.
// Fallback is true when the source product had no embedding and results were
// produced by attribute matching instead of vector ranking.
type SimilarProductsResult struct {
	Results  []ProductSearchResult `json:"results"`
	Fallback bool                  `json:"fallback"`
}
