package models

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DocStore is the document store for browsing sessions, session events and
// product reviews, including review embeddings.
type DocStore interface {
	SessionStorer
	ReviewStorer
	// PurgeDeleted hard deletes soft-deleted sessions older than maxAge.
	PurgeDeleted(ctx context.Context, maxAge time.Duration) error
	Close(ctx context.Context) error
}

type SessionStorer interface {
	// CreateSession creates a new Session for a given SessionID.
	CreateSession(ctx context.Context, session *Session) (*Session, error)
	// GetSession retrieves a Session for a given sessionID.
	GetSession(ctx context.Context, sessionID string) (*Session, error)
	// UpdateSession updates a Session. Only the metadata and EndedAt are updated.
	// Metadata keys are merged into the existing metadata.
	UpdateSession(ctx context.Context, session *Session) (*Session, error)
	// DeleteSession soft deletes a session and its events.
	DeleteSession(ctx context.Context, sessionID string) error
	// ListSessions returns sessions paginated by cursor and limit, most recent first.
	ListSessions(ctx context.Context, cursor int64, limit int) ([]Session, error)
	// GetSessionsForCustomer returns a customer's sessions, most recent first.
	GetSessionsForCustomer(ctx context.Context, customerID string, limit int) ([]Session, error)
	// PutSessionEvents appends events to a session.
	PutSessionEvents(ctx context.Context, sessionID string, events []SessionEvent) error
	// GetSessionEvents returns a session's events in insertion order.
	GetSessionEvents(ctx context.Context, sessionID string) ([]SessionEvent, error)
	// GetSessionAnalytics aggregates event activity across all sessions since the
	// given time.
	GetSessionAnalytics(ctx context.Context, since time.Time, topN int) (*SessionAnalytics, error)
}

type ReviewStorer interface {
	// PutReviews creates or updates reviews and returns the saved records
	// with their UUIDs populated. Embeddings are stored when present.
	PutReviews(ctx context.Context, reviews []Review) ([]Review, error)
	// GetReviewsForProduct returns a product's reviews, most recent first.
	GetReviewsForProduct(ctx context.Context, productID string, limit int) ([]Review, error)
	// GetReviewEmbeddings returns all reviews that carry an embedding.
	GetReviewEmbeddings(ctx context.Context) ([]Review, error)
	// GetReviewSummary aggregates review counts and ratings for a product.
	GetReviewSummary(ctx context.Context, productID string) (*ReviewSummary, error)
	// GetTopRatedProducts returns products ordered by average rating, requiring
	// at least minReviews reviews each.
	GetTopRatedProducts(ctx context.Context, minReviews int, limit int) ([]RatedProduct, error)
	// GetReviewsByUUID retrieves reviews for a UUID slice. Used by the embedder task.
	GetReviewsByUUID(ctx context.Context, uuids []uuid.UUID) ([]Review, error)
	// PutReviewEmbeddings updates the embedding vectors for the given reviews
	// and marks them embedded.
	PutReviewEmbeddings(ctx context.Context, reviews []Review) error
}
