package mongo

import (
	"context"
	"errors"
	"time"

	"dario.cat/mergo"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dcnsakthi/intellica/pkg/models"
	"github.com/dcnsakthi/intellica/pkg/store"
)

// notDeleted filters out soft-deleted documents.
var notDeleted = bson.M{"deleted_at": nil}

func sessionDocToModel(doc *sessionDoc) (*models.Session, error) {
	session := &models.Session{}
	err := copier.Copy(session, doc)
	if err != nil {
		return nil, store.NewStorageError("unable to copy session", err)
	}
	return session, nil
}

func createSession(
	ctx context.Context,
	db *mongo.Database,
	session *models.Session,
) (*models.Session, error) {
	if session.SessionID == "" {
		return nil, store.NewStorageError("sessionID cannot be empty", nil)
	}

	now := time.Now()
	doc := sessionDoc{
		UUID:       uuid.New().String(),
		CreatedAt:  now,
		UpdatedAt:  now,
		SessionID:  session.SessionID,
		CustomerID: session.CustomerID,
		Channel:    session.Channel,
		DeviceType: session.DeviceType,
		Metadata:   session.Metadata,
	}

	// Upsert on the sessionID, undeleting the session if it exists and is deleted
	update := bson.M{
		"$set": bson.M{
			"deleted_at":  nil,
			"updated_at":  now,
			"customer_id": doc.CustomerID,
			"channel":     doc.Channel,
			"device_type": doc.DeviceType,
		},
		"$setOnInsert": bson.M{
			"uuid":       doc.UUID,
			"created_at": doc.CreatedAt,
			"session_id": doc.SessionID,
			"metadata":   doc.Metadata,
		},
	}
	_, err := db.Collection(SessionCollection).UpdateOne(
		ctx,
		bson.M{"session_id": session.SessionID},
		update,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return nil, store.NewStorageError("failed to create session", err)
	}

	return getSession(ctx, db, session.SessionID)
}

func getSession(
	ctx context.Context,
	db *mongo.Database,
	sessionID string,
) (*models.Session, error) {
	doc := &sessionDoc{}
	err := db.Collection(SessionCollection).FindOne(ctx, bson.M{
		"session_id": sessionID,
		"deleted_at": nil,
	}).Decode(doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewNotFoundError("session " + sessionID)
		}
		return nil, store.NewStorageError("failed to get session", err)
	}

	return sessionDocToModel(doc)
}

// updateSession updates a session's metadata and EndedAt. Metadata keys are
// merged into the existing metadata.
func updateSession(
	ctx context.Context,
	db *mongo.Database,
	session *models.Session,
) (*models.Session, error) {
	existing, err := getSession(ctx, db, session.SessionID)
	if err != nil {
		return nil, err
	}

	// merge the existing metadata with the new metadata
	merged := existing.Metadata
	if err := mergo.Merge(&merged, session.Metadata, mergo.WithOverride); err != nil {
		return nil, store.NewStorageError("failed to merge metadata", err)
	}

	set := bson.M{
		"updated_at": time.Now(),
		"metadata":   merged,
	}
	if session.EndedAt != nil {
		set["ended_at"] = session.EndedAt
	}

	_, err = db.Collection(SessionCollection).UpdateOne(
		ctx,
		bson.M{"session_id": session.SessionID},
		bson.M{"$set": set},
	)
	if err != nil {
		return nil, store.NewStorageError("failed to update session", err)
	}

	return getSession(ctx, db, session.SessionID)
}

// deleteSession soft deletes a session. Events are retained until purge.
func deleteSession(ctx context.Context, db *mongo.Database, sessionID string) error {
	result, err := db.Collection(SessionCollection).UpdateOne(
		ctx,
		bson.M{"session_id": sessionID, "deleted_at": nil},
		bson.M{"$set": bson.M{"deleted_at": time.Now()}},
	)
	if err != nil {
		return store.NewStorageError("failed to delete session", err)
	}
	if result.MatchedCount == 0 {
		return models.NewNotFoundError("session " + sessionID)
	}

	return nil
}

func listSessions(
	ctx context.Context,
	db *mongo.Database,
	cursor int64,
	limit int,
) ([]models.Session, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if cursor > 0 {
		opts = opts.SetSkip(cursor)
	}
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}

	mongoCursor, err := db.Collection(SessionCollection).Find(ctx, notDeleted, opts)
	if err != nil {
		return nil, store.NewStorageError("failed to list sessions", err)
	}

	return decodeSessions(ctx, mongoCursor)
}

func getSessionsForCustomer(
	ctx context.Context,
	db *mongo.Database,
	customerID string,
	limit int,
) ([]models.Session, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}

	mongoCursor, err := db.Collection(SessionCollection).Find(ctx, bson.M{
		"customer_id": customerID,
		"deleted_at":  nil,
	}, opts)
	if err != nil {
		return nil, store.NewStorageError("failed to get sessions for customer", err)
	}

	return decodeSessions(ctx, mongoCursor)
}

func decodeSessions(ctx context.Context, cursor *mongo.Cursor) ([]models.Session, error) {
	var docs []sessionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, store.NewStorageError("failed to decode sessions", err)
	}

	sessions := make([]models.Session, len(docs))
	for i := range docs {
		session, err := sessionDocToModel(&docs[i])
		if err != nil {
			return nil, err
		}
		sessions[i] = *session
	}
	return sessions, nil
}

func putSessionEvents(
	ctx context.Context,
	db *mongo.Database,
	sessionID string,
	events []models.SessionEvent,
) error {
	if len(events) == 0 {
		return nil
	}

	// the session must exist and not be deleted
	if _, err := getSession(ctx, db, sessionID); err != nil {
		return err
	}

	docs := make([]interface{}, len(events))
	for i, event := range events {
		createdAt := event.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		docs[i] = sessionEventDoc{
			UUID:       uuid.New().String(),
			CreatedAt:  createdAt,
			SessionID:  sessionID,
			EventType:  event.EventType,
			ProductID:  event.ProductID,
			SearchTerm: event.SearchTerm,
			Metadata:   event.Metadata,
		}
	}

	_, err := db.Collection(SessionEventCollection).InsertMany(ctx, docs)
	if err != nil {
		return store.NewStorageError("failed to put session events", err)
	}

	return nil
}

func getSessionEvents(
	ctx context.Context,
	db *mongo.Database,
	sessionID string,
) ([]models.SessionEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := db.Collection(SessionEventCollection).Find(ctx, bson.M{
		"session_id": sessionID,
	}, opts)
	if err != nil {
		return nil, store.NewStorageError("failed to get session events", err)
	}

	var docs []sessionEventDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, store.NewStorageError("failed to decode session events", err)
	}

	events := make([]models.SessionEvent, len(docs))
	for i := range docs {
		event := models.SessionEvent{}
		if err := copier.Copy(&event, &docs[i]); err != nil {
			return nil, store.NewStorageError("unable to copy session event", err)
		}
		events[i] = event
	}

	return events, nil
}

// getSessionAnalytics aggregates event activity across all sessions since the given time.
func getSessionAnalytics(
	ctx context.Context,
	db *mongo.Database,
	since time.Time,
	topN int,
) (*models.SessionAnalytics, error) {
	analytics := &models.SessionAnalytics{
		EventsByType: map[string]int64{},
	}

	sessionCount, err := db.Collection(SessionCollection).CountDocuments(ctx, bson.M{
		"created_at": bson.M{"$gte": since},
		"deleted_at": nil,
	})
	if err != nil {
		return nil, store.NewStorageError("failed to count sessions", err)
	}
	analytics.TotalSessions = sessionCount

	// Count distinct customers in the window
	customerIDs, err := db.Collection(SessionCollection).Distinct(ctx, "customer_id", bson.M{
		"created_at":  bson.M{"$gte": since},
		"deleted_at":  nil,
		"customer_id": bson.M{"$ne": ""},
	})
	if err != nil {
		return nil, store.NewStorageError("failed to count distinct customers", err)
	}
	analytics.UniqueCustomers = int64(len(customerIDs))

	// Group events by type
	typeCursor, err := db.Collection(SessionEventCollection).Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"created_at": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$event_type",
			"count": bson.M{"$sum": 1},
		}}},
	})
	if err != nil {
		return nil, store.NewStorageError("failed to aggregate events by type", err)
	}

	var typeCounts []struct {
		EventType string `bson:"_id"`
		Count     int64  `bson:"count"`
	}
	if err := typeCursor.All(ctx, &typeCounts); err != nil {
		return nil, store.NewStorageError("failed to decode event type counts", err)
	}
	for _, tc := range typeCounts {
		analytics.EventsByType[tc.EventType] = tc.Count
		analytics.TotalEvents += tc.Count
	}

	// Most viewed products in the window
	if topN > 0 {
		viewCursor, err := db.Collection(SessionEventCollection).Aggregate(ctx, mongo.Pipeline{
			{{Key: "$match", Value: bson.M{
				"created_at": bson.M{"$gte": since},
				"event_type": models.EventProductView,
				"product_id": bson.M{"$ne": ""},
			}}},
			{{Key: "$group", Value: bson.M{
				"_id":   "$product_id",
				"views": bson.M{"$sum": 1},
			}}},
			{{Key: "$sort", Value: bson.D{{Key: "views", Value: -1}, {Key: "_id", Value: 1}}}},
			{{Key: "$limit", Value: topN}},
		})
		if err != nil {
			return nil, store.NewStorageError("failed to aggregate product views", err)
		}

		if err := viewCursor.All(ctx, &analytics.TopViewed); err != nil {
			return nil, store.NewStorageError("failed to decode product views", err)
		}
	}

	return analytics, nil
}
