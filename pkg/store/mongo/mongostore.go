package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dcnsakthi/intellica/internal"
	"github.com/dcnsakthi/intellica/pkg/models"
	"github.com/dcnsakthi/intellica/pkg/store"
)

var log = internal.GetLogger()

// NewMongoConn creates a new mongo client using the configured URI.
func NewMongoConn(appState *models.AppState) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(appState.Config.DocStore.Mongo.URI))
	if err != nil {
		return nil, store.NewStorageError("failed to connect to mongo", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, store.NewStorageError("failed to ping mongo", err)
	}

	return client, nil
}

// NewMongoDocStore returns a new MongoDocStore. Use this to correctly initialize the store.
func NewMongoDocStore(
	appState *models.AppState,
	client *mongo.Client,
) (*MongoDocStore, error) {
	if appState == nil {
		return nil, store.NewStorageError("nil appState received", nil)
	}

	mds := &MongoDocStore{
		Client:   client,
		db:       client.Database(appState.Config.DocStore.Mongo.Database),
		appState: appState,
	}

	err := mds.OnStart(context.Background())
	if err != nil {
		return nil, store.NewStorageError("failed to run OnStart", err)
	}
	return mds, nil
}

// Force compiler to validate that MongoDocStore implements the DocStore interface.
var _ models.DocStore = &MongoDocStore{}

type MongoDocStore struct {
	Client   *mongo.Client
	db       *mongo.Database
	appState *models.AppState
}

// OnStart creates the indexes used by session and review lookups.
func (mds *MongoDocStore) OnStart(ctx context.Context) error {
	_, err := mds.db.Collection(SessionCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "session_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return store.NewStorageError("failed to create session index", err)
	}

	_, err = mds.db.Collection(SessionEventCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "created_at", Value: 1}},
	})
	if err != nil {
		return store.NewStorageError("failed to create session event index", err)
	}

	_, err = mds.db.Collection(ReviewCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "product_id", Value: 1}},
	})
	if err != nil {
		return store.NewStorageError("failed to create review index", err)
	}

	return nil
}

func (mds *MongoDocStore) CreateSession(
	ctx context.Context,
	session *models.Session,
) (*models.Session, error) {
	return createSession(ctx, mds.db, session)
}

func (mds *MongoDocStore) GetSession(
	ctx context.Context,
	sessionID string,
) (*models.Session, error) {
	return getSession(ctx, mds.db, sessionID)
}

func (mds *MongoDocStore) UpdateSession(
	ctx context.Context,
	session *models.Session,
) (*models.Session, error) {
	return updateSession(ctx, mds.db, session)
}

func (mds *MongoDocStore) DeleteSession(ctx context.Context, sessionID string) error {
	return deleteSession(ctx, mds.db, sessionID)
}

func (mds *MongoDocStore) ListSessions(
	ctx context.Context,
	cursor int64,
	limit int,
) ([]models.Session, error) {
	return listSessions(ctx, mds.db, cursor, limit)
}

func (mds *MongoDocStore) GetSessionsForCustomer(
	ctx context.Context,
	customerID string,
	limit int,
) ([]models.Session, error) {
	return getSessionsForCustomer(ctx, mds.db, customerID, limit)
}

func (mds *MongoDocStore) PutSessionEvents(
	ctx context.Context,
	sessionID string,
	events []models.SessionEvent,
) error {
	return putSessionEvents(ctx, mds.db, sessionID, events)
}

func (mds *MongoDocStore) GetSessionEvents(
	ctx context.Context,
	sessionID string,
) ([]models.SessionEvent, error) {
	return getSessionEvents(ctx, mds.db, sessionID)
}

func (mds *MongoDocStore) GetSessionAnalytics(
	ctx context.Context,
	since time.Time,
	topN int,
) (*models.SessionAnalytics, error) {
	return getSessionAnalytics(ctx, mds.db, since, topN)
}

func (mds *MongoDocStore) PutReviews(
	ctx context.Context,
	reviews []models.Review,
) ([]models.Review, error) {
	return putReviews(ctx, mds.db, reviews)
}

func (mds *MongoDocStore) GetReviewsForProduct(
	ctx context.Context,
	productID string,
	limit int,
) ([]models.Review, error) {
	return getReviewsForProduct(ctx, mds.db, productID, limit)
}

func (mds *MongoDocStore) GetReviewEmbeddings(ctx context.Context) ([]models.Review, error) {
	return getReviewEmbeddings(ctx, mds.db)
}

func (mds *MongoDocStore) GetReviewSummary(
	ctx context.Context,
	productID string,
) (*models.ReviewSummary, error) {
	return getReviewSummary(ctx, mds.db, productID)
}

func (mds *MongoDocStore) GetTopRatedProducts(
	ctx context.Context,
	minReviews int,
	limit int,
) ([]models.RatedProduct, error) {
	return getTopRatedProducts(ctx, mds.db, minReviews, limit)
}

func (mds *MongoDocStore) GetReviewsByUUID(
	ctx context.Context,
	uuids []uuid.UUID,
) ([]models.Review, error) {
	return getReviewsByUUID(ctx, mds.db, uuids)
}

func (mds *MongoDocStore) PutReviewEmbeddings(
	ctx context.Context,
	reviews []models.Review,
) error {
	return putReviewEmbeddings(ctx, mds.appState, mds.db, reviews)
}

// PurgeDeleted hard deletes soft-deleted sessions and their events older than maxAge.
func (mds *MongoDocStore) PurgeDeleted(ctx context.Context, maxAge time.Duration) error {
	threshold := time.Now().Add(-maxAge)

	cursor, err := mds.db.Collection(SessionCollection).Find(ctx, bson.M{
		"deleted_at": bson.M{"$lte": threshold},
	})
	if err != nil {
		return store.NewStorageError("failed to find deleted sessions", err)
	}

	var sessions []sessionDoc
	if err := cursor.All(ctx, &sessions); err != nil {
		return store.NewStorageError("failed to decode deleted sessions", err)
	}

	for _, session := range sessions {
		_, err = mds.db.Collection(SessionEventCollection).DeleteMany(ctx, bson.M{
			"session_id": session.SessionID,
		})
		if err != nil {
			return store.NewStorageError("failed to purge session events", err)
		}
		_, err = mds.db.Collection(SessionCollection).DeleteOne(ctx, bson.M{
			"session_id": session.SessionID,
		})
		if err != nil {
			return store.NewStorageError("failed to purge session", err)
		}
	}

	log.Debugf("purged %d deleted sessions", len(sessions))

	return nil
}

func (mds *MongoDocStore) Close(ctx context.Context) error {
	return mds.Client.Disconnect(ctx)
}
