package mongo

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// ConnectDB establishes a connection to MongoDB using the provided URI.
// It returns the mongo.Client which can be used to access databases and collections.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	// Connect succeeds lazily, so ping the primary to make sure it answers.
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}

	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// Transactor runs units of work inside a MongoDB session transaction.
// Transactions need a replica set; with enabled=false the work runs
// without one, which suits a standalone development server.
type Transactor struct {
	client  *mongo.Client
	enabled bool
}

// NewTransactor creates a Transactor for client.
func NewTransactor(client *mongo.Client, enabled bool) *Transactor {
	return &Transactor{client: client, enabled: enabled}
}

// WithinTransaction runs fn in a transaction. Repository calls made with
// the context passed to fn join the session.
func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !t.enabled {
		return fn(ctx)
	}

	session, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}

// EnsureIndexes creates the indexes of every collection. Call this once
// during application startup or from the ensure-indexes command.
func EnsureIndexes(ctx context.Context, db *mongo.Database) {
	EnsureUserIndexes(ctx, db.Collection(userCollectionName))
	EnsureWorkoutIndexes(ctx, db.Collection(workoutCollectionName))
	EnsureTaskIndexes(ctx, db.Collection(taskCollectionName))
	EnsureSubmissionIndexes(ctx, db.Collection(submissionCollectionName))
	EnsureTemplateIndexes(ctx, db.Collection(templateCollectionName))
	EnsureAssignmentIndexes(ctx, db.Collection(assignmentCollectionName))
	EnsureRecommendationIndexes(ctx, db.Collection(recommendationCollectionName))
	EnsureUploadIndexes(ctx, db.Collection(uploadCollectionName))
}

func createIndexes(ctx context.Context, collection *mongo.Collection, indexes []mongo.IndexModel) {
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
