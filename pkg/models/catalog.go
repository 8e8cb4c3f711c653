package models

import (
	"time"

	"github.com/google/uuid"
)

// CatalogRecord is the searchable unit of the similarity retrieval engine.
// RecordEmbedding returns nil when no embedding has been computed for the
// record; such records are excluded from vector ranking.
type CatalogRecord interface {
	RecordID() string
	RecordEmbedding() []float32
}

// Product is a catalog product. The embedding is computed from the product
// name and description by the product embedder task and is internal-only:
// it is never serialized to API responses.
type Product struct {
	UUID          uuid.UUID `json:"uuid"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	ProductID     string    `json:"product_id"`
	SKU           string    `json:"sku"`
	Name          string    `json:"name"`
	Brand         string    `json:"brand"`
	Category      string    `json:"category"`
	Subcategory   string    `json:"subcategory,omitempty"`
	Description   string    `json:"description"`
	Price         float64   `json:"price"`
	Cost          float64   `json:"cost,omitempty"`
	StockQuantity int       `json:"stock_quantity"`
	IsActive      bool      `json:"is_active"`
	Embedding     []float32 `json:"-"`
	IsEmbedded    bool      `json:"is_embedded"`
}

func (p Product) RecordID() string {
	return p.ProductID
}

func (p Product) RecordEmbedding() []float32 {
	return p.Embedding
}

// EmbeddingText returns the text the product embedding is computed from.
func (p Product) EmbeddingText() string {
	return p.Name + " - " + p.Description
}

var _ CatalogRecord = Product{}

// Review is a customer product review. As with Product, the embedding is
// internal-only.
type Review struct {
	UUID             uuid.UUID `json:"uuid"`
	CreatedAt        time.Time `json:"created_at"`
	ReviewID         string    `json:"review_id"`
	ProductID        string    `json:"product_id"`
	CustomerID       string    `json:"customer_id"`
	CustomerName     string    `json:"customer_name,omitempty"`
	Rating           int       `json:"rating"`
	Title            string    `json:"title,omitempty"`
	Content          string    `json:"content"`
	VerifiedPurchase bool      `json:"verified_purchase"`
	HelpfulCount     int       `json:"helpful_count"`
	Embedding        []float32 `json:"-"`
	IsEmbedded       bool      `json:"is_embedded"`
}

func (r Review) RecordID() string {
	return r.ReviewID
}

func (r Review) RecordEmbedding() []float32 {
	return r.Embedding
}

// EmbeddingText returns the text the review embedding is computed from.
func (r Review) EmbeddingText() string {
	if r.Title == "" {
		return r.Content
	}
	return r.Title + " - " + r.Content
}

var _ CatalogRecord = Review{}

// ReviewSummary holds per-product review aggregates.
type ReviewSummary struct {
	ProductID         string  `json:"product_id"`
	TotalReviews      int     `json:"total_reviews"`
	AverageRating     float64 `json:"average_rating"`
	FiveStarCount     int     `json:"five_star_count"`
	FourStarCount     int     `json:"four_star_count"`
	ThreeStarCount    int     `json:"three_star_count"`
	TwoStarCount      int     `json:"two_star_count"`
	OneStarCount      int     `json:"one_star_count"`
	VerifiedPurchases int     `json:"verified_purchases"`
}

// ProductCategory holds an active product count for a single category.
type ProductCategory struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// RatedProduct is a product joined with its review aggregates, as returned
// by the top-rated query.
type RatedProduct struct {
	ProductID     string  `json:"product_id"`
	TotalReviews  int     `json:"total_reviews"`
	AverageRating float64 `json:"average_rating"`
	Product       Product `json:"product"`
}
