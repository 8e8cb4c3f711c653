package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dcnsakthi/intellica/pkg/models"
	"github.com/dcnsakthi/intellica/pkg/store"
)

func reviewDocToModel(doc *reviewDoc) (*models.Review, error) {
	review := &models.Review{}
	err := copier.Copy(review, doc)
	if err != nil {
		return nil, store.NewStorageError("unable to copy review", err)
	}
	reviewUUID, err := uuid.Parse(doc.UUID)
	if err != nil {
		return nil, store.NewStorageError("unable to parse review uuid", err)
	}
	review.UUID = reviewUUID
	return review, nil
}

func decodeReviews(ctx context.Context, cursor *mongo.Cursor) ([]models.Review, error) {
	var docs []reviewDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, store.NewStorageError("failed to decode reviews", err)
	}

	reviews := make([]models.Review, len(docs))
	for i := range docs {
		review, err := reviewDocToModel(&docs[i])
		if err != nil {
			return nil, err
		}
		reviews[i] = *review
	}
	return reviews, nil
}

// putReviews upserts reviews keyed on ReviewID and returns the saved records
// with their UUIDs populated.
func putReviews(
	ctx context.Context,
	db *mongo.Database,
	reviews []models.Review,
) ([]models.Review, error) {
	if len(reviews) == 0 {
		return []models.Review{}, nil
	}

	reviewIDs := make([]string, len(reviews))

	writes := make([]mongo.WriteModel, len(reviews))
	for i, review := range reviews {
		reviewIDs[i] = review.ReviewID
		reviewUUID := review.UUID
		if reviewUUID == uuid.Nil {
			reviewUUID = uuid.New()
		}
		createdAt := review.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		set := bson.M{
			"product_id":        review.ProductID,
			"customer_id":       review.CustomerID,
			"customer_name":     review.CustomerName,
			"rating":            review.Rating,
			"title":             review.Title,
			"content":           review.Content,
			"verified_purchase": review.VerifiedPurchase,
			"helpful_count":     review.HelpfulCount,
		}
		if len(review.Embedding) > 0 {
			set["embedding"] = review.Embedding
			set["is_embedded"] = true
		}
		writes[i] = mongo.NewUpdateOneModel().
			SetFilter(bson.M{"review_id": review.ReviewID}).
			SetUpdate(bson.M{
				"$set": set,
				"$setOnInsert": bson.M{
					"uuid":       reviewUUID.String(),
					"created_at": createdAt,
					"review_id":  review.ReviewID,
				},
			}).
			SetUpsert(true)
	}

	_, err := db.Collection(ReviewCollection).BulkWrite(ctx, writes)
	if err != nil {
		return nil, store.NewStorageError("failed to put reviews", err)
	}

	cursor, err := db.Collection(ReviewCollection).Find(ctx, bson.M{
		"review_id": bson.M{"$in": reviewIDs},
	})
	if err != nil {
		return nil, store.NewStorageError("failed to get put reviews", err)
	}

	return decodeReviews(ctx, cursor)
}

func getReviewsForProduct(
	ctx context.Context,
	db *mongo.Database,
	productID string,
	limit int,
) ([]models.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}

	cursor, err := db.Collection(ReviewCollection).Find(ctx, bson.M{
		"product_id": productID,
	}, opts)
	if err != nil {
		return nil, store.NewStorageError("failed to get reviews for product", err)
	}

	return decodeReviews(ctx, cursor)
}

// getReviewEmbeddings returns all embedded reviews. This is the candidate set
// for in-memory similarity ranking.
func getReviewEmbeddings(ctx context.Context, db *mongo.Database) ([]models.Review, error) {
	cursor, err := db.Collection(ReviewCollection).Find(ctx, bson.M{
		"is_embedded": true,
	})
	if err != nil {
		return nil, store.NewStorageError("failed to get review embeddings", err)
	}

	return decodeReviews(ctx, cursor)
}

// getReviewSummary aggregates review counts and ratings for a product.
func getReviewSummary(
	ctx context.Context,
	db *mongo.Database,
	productID string,
) (*models.ReviewSummary, error) {
	starCount := func(star int) bson.M {
		return bson.M{"$sum": bson.M{"$cond": bson.A{
			bson.M{"$eq": bson.A{"$rating", star}}, 1, 0,
		}}}
	}

	cursor, err := db.Collection(ReviewCollection).Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"product_id": productID}}},
		{{Key: "$group", Value: bson.M{
			"_id":            "$product_id",
			"total_reviews":  bson.M{"$sum": 1},
			"average_rating": bson.M{"$avg": "$rating"},
			"five_star":      starCount(5),
			"four_star":      starCount(4),
			"three_star":     starCount(3),
			"two_star":       starCount(2),
			"one_star":       starCount(1),
			"verified": bson.M{"$sum": bson.M{"$cond": bson.A{
				"$verified_purchase", 1, 0,
			}}},
		}}},
	})
	if err != nil {
		return nil, store.NewStorageError("failed to aggregate review summary", err)
	}

	var results []struct {
		ProductID         string  `bson:"_id"`
		TotalReviews      int     `bson:"total_reviews"`
		AverageRating     float64 `bson:"average_rating"`
		FiveStar          int     `bson:"five_star"`
		FourStar          int     `bson:"four_star"`
		ThreeStar         int     `bson:"three_star"`
		TwoStar           int     `bson:"two_star"`
		OneStar           int     `bson:"one_star"`
		VerifiedPurchases int     `bson:"verified"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, store.NewStorageError("failed to decode review summary", err)
	}

	if len(results) == 0 {
		// no reviews is an empty summary, not an error
		return &models.ReviewSummary{ProductID: productID}, nil
	}

	r := results[0]
	return &models.ReviewSummary{
		ProductID:         r.ProductID,
		TotalReviews:      r.TotalReviews,
		AverageRating:     r.AverageRating,
		FiveStarCount:     r.FiveStar,
		FourStarCount:     r.FourStar,
		ThreeStarCount:    r.ThreeStar,
		TwoStarCount:      r.TwoStar,
		OneStarCount:      r.OneStar,
		VerifiedPurchases: r.VerifiedPurchases,
	}, nil
}

// getTopRatedProducts returns products ordered by average rating, requiring at
// least minReviews reviews each.
func getTopRatedProducts(
	ctx context.Context,
	db *mongo.Database,
	minReviews int,
	limit int,
) ([]models.RatedProduct, error) {
	if limit <= 0 {
		return []models.RatedProduct{}, nil
	}
	if minReviews < 1 {
		minReviews = 1
	}

	cursor, err := db.Collection(ReviewCollection).Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":            "$product_id",
			"total_reviews":  bson.M{"$sum": 1},
			"average_rating": bson.M{"$avg": "$rating"},
		}}},
		{{Key: "$match", Value: bson.M{
			"total_reviews": bson.M{"$gte": minReviews},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "average_rating", Value: -1},
			{Key: "total_reviews", Value: -1},
			{Key: "_id", Value: 1},
		}}},
		{{Key: "$limit", Value: limit}},
	})
	if err != nil {
		return nil, store.NewStorageError("failed to aggregate top rated products", err)
	}

	var results []struct {
		ProductID     string  `bson:"_id"`
		TotalReviews  int     `bson:"total_reviews"`
		AverageRating float64 `bson:"average_rating"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, store.NewStorageError("failed to decode top rated products", err)
	}

	rated := make([]models.RatedProduct, len(results))
	for i, r := range results {
		rated[i] = models.RatedProduct{
			ProductID:     r.ProductID,
			TotalReviews:  r.TotalReviews,
			AverageRating: r.AverageRating,
		}
	}

	return rated, nil
}

func getReviewsByUUID(
	ctx context.Context,
	db *mongo.Database,
	uuids []uuid.UUID,
) ([]models.Review, error) {
	if len(uuids) == 0 {
		return []models.Review{}, nil
	}

	ids := make([]string, len(uuids))
	for i, id := range uuids {
		ids[i] = id.String()
	}

	cursor, err := db.Collection(ReviewCollection).Find(ctx, bson.M{
		"uuid": bson.M{"$in": ids},
	})
	if err != nil {
		return nil, store.NewStorageError("failed to get reviews by uuid", err)
	}

	return decodeReviews(ctx, cursor)
}

// putReviewEmbeddings updates the embedding vectors for the given reviews and
// marks them embedded. The embedding width must match the configured width.
func putReviewEmbeddings(
	ctx context.Context,
	appState *models.AppState,
	db *mongo.Database,
	reviews []models.Review,
) error {
	if len(reviews) == 0 {
		return nil
	}

	configuredWidth := appState.Config.Embeddings.Dimensions
	writes := make([]mongo.WriteModel, len(reviews))
	for i, review := range reviews {
		if len(review.Embedding) != configuredWidth {
			return store.NewEmbeddingMismatchError(
				fmt.Errorf(
					"review %s embedding width %d, configured width %d",
					review.ReviewID,
					len(review.Embedding),
					configuredWidth,
				),
			)
		}
		writes[i] = mongo.NewUpdateOneModel().
			SetFilter(bson.M{"uuid": review.UUID.String()}).
			SetUpdate(bson.M{"$set": bson.M{
				"embedding":   review.Embedding,
				"is_embedded": true,
			}})
	}

	_, err := db.Collection(ReviewCollection).BulkWrite(ctx, writes)
	if err != nil {
		return store.NewStorageError("failed to put review embeddings", err)
	}

	return nil
}
