package models

import (
	"context"

	"github.com/google/uuid"
)

// CatalogStore is the relational store for customers, orders and the
// product catalog, including product embeddings.
type CatalogStore interface {
	ProductStorer
	CustomerStorer
	// PurgeDeleted hard deletes all soft-deleted data in the CatalogStore.
	PurgeDeleted(ctx context.Context) error
	// Close is called when the application is shutting down. This is a good place to clean up any
	// resources used by the CatalogStore implementation.
	Close() error
}

type ProductStorer interface {
	// PutProducts creates or updates products and returns the saved records
	// with their UUIDs populated. Embeddings are stored when present.
	PutProducts(ctx context.Context, products []Product) ([]Product, error)
	// GetProduct retrieves a product by its ProductID.
	GetProduct(ctx context.Context, productID string) (*Product, error)
	// GetProductEmbeddings returns all active products that carry an embedding.
	GetProductEmbeddings(ctx context.Context) ([]Product, error)
	// GetProductsByCategory returns active products in a category, excluding excludeID,
	// ordered by price proximity to price.
	GetProductsByCategory(
		ctx context.Context,
		category string,
		excludeID string,
		price float64,
		limit int,
	) ([]Product, error)
	// ListProducts returns products paginated by cursor and limit.
	ListProducts(ctx context.Context, cursor int64, limit int) ([]Product, error)
	// SearchProductsText returns active products whose name, brand, or description
	// matches the query text, optionally restricted to a category.
	SearchProductsText(ctx context.Context, query string, category string, limit int) ([]Product, error)
	// GetProductCategories returns the distinct categories of active products
	// with their product counts.
	GetProductCategories(ctx context.Context) ([]ProductCategory, error)
	// GetProductsByUUID retrieves products for a UUID slice. Used by the embedder task.
	GetProductsByUUID(ctx context.Context, uuids []uuid.UUID) ([]Product, error)
	// PutProductEmbeddings updates the embedding vectors for the given products
	// and marks them embedded.
	PutProductEmbeddings(ctx context.Context, products []Product) error
}

type CustomerStorer interface {
	// PutCustomers creates or updates customers.
	PutCustomers(ctx context.Context, customers []Customer) error
	// GetCustomer retrieves a customer by its CustomerID.
	GetCustomer(ctx context.Context, customerID string) (*Customer, error)
	// ListCustomers returns customers paginated by cursor and limit.
	ListCustomers(ctx context.Context, cursor int64, limit int) ([]Customer, error)
	// GetCustomerOrders returns a customer's orders with their items, most recent first.
	GetCustomerOrders(ctx context.Context, customerID string, limit int) ([]Order, error)
	// PutOrders creates orders and their items.
	PutOrders(ctx context.Context, orders []Order) error
}
