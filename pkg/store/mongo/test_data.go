package mongo

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	"github.com/dcnsakthi/intellica/pkg/models"
)

var eventTypes = []string{
	models.EventProductView,
	models.EventSearch,
	models.EventAddToCart,
	models.EventPurchase,
}

// GenerateTestData inserts random sessions, events and reviews. customerIDs and
// productIDs should come from the catalog fixtures so cross-store references line up.
func GenerateTestData(
	ctx context.Context,
	appState *models.AppState,
	mds *MongoDocStore,
	customerIDs []string,
	productIDs []string,
) error {
	if len(productIDs) == 0 {
		return errors.New("cannot seed the doc store against an empty product catalog")
	}

	fakerGlobal := gofakeit.NewUnlocked(0)
	gofakeit.SetGlobalFaker(fakerGlobal)

	width := appState.Config.Embeddings.Dimensions
	if width == 0 {
		width = 1536
	}

	for _, customerID := range customerIDs {
		sessionCount := gofakeit.Number(1, 3)
		for i := 0; i < sessionCount; i++ {
			session, err := mds.CreateSession(ctx, &models.Session{
				SessionID:  gofakeit.UUID(),
				CustomerID: customerID,
				Channel:    gofakeit.RandomString([]string{"web", "mobile", "kiosk"}),
				DeviceType: gofakeit.RandomString([]string{"desktop", "phone", "tablet"}),
			})
			if err != nil {
				return fmt.Errorf("failed to create test session: %w", err)
			}

			eventCount := gofakeit.Number(2, 10)
			events := make([]models.SessionEvent, eventCount)
			for j := 0; j < eventCount; j++ {
				eventType := eventTypes[gofakeit.Number(0, len(eventTypes)-1)]
				event := models.SessionEvent{EventType: eventType}
				switch eventType {
				case models.EventSearch:
					event.SearchTerm = gofakeit.NounConcrete()
				default:
					event.ProductID = productIDs[gofakeit.Number(0, len(productIDs)-1)]
				}
				events[j] = event
			}
			if err := mds.PutSessionEvents(ctx, session.SessionID, events); err != nil {
				return fmt.Errorf("failed to create test session events: %w", err)
			}
		}
	}

	var reviews []models.Review
	for _, productID := range productIDs {
		reviewCount := gofakeit.Number(0, 8)
		for i := 0; i < reviewCount; i++ {
			review := models.Review{
				UUID:             uuid.New(),
				CreatedAt:        gofakeit.DateRange(time.Now().AddDate(0, -6, 0), time.Now()),
				ReviewID:         gofakeit.UUID(),
				ProductID:        productID,
				CustomerID:       gofakeit.Username(),
				CustomerName:     gofakeit.Name(),
				Rating:           gofakeit.Number(1, 5),
				Title:            gofakeit.Sentence(4),
				Content:          gofakeit.Paragraph(1, 3, 12, "."),
				VerifiedPurchase: gofakeit.Bool(),
				HelpfulCount:     gofakeit.Number(0, 50),
			}
			// 90% of reviews get an embedding
			if rand.Float32() < 0.9 { //nolint:gosec
				embedding := make([]float32, width)
				for j := range embedding {
					embedding[j] = rand.Float32() //nolint:gosec
				}
				review.Embedding = embedding
			}
			reviews = append(reviews, review)
		}
	}

	if _, err := mds.PutReviews(ctx, reviews); err != nil {
		return fmt.Errorf("failed to create test reviews: %w", err)
	}

	return nil
}
