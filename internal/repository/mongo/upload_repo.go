package mongo

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const uploadCollectionName = "uploads"

// mongoUploadRepository implements repository.UploadRepository
type mongoUploadRepository struct {
	collection *mongo.Collection
}

// NewMongoUploadRepository creates a new Upload repository backed by MongoDB.
func NewMongoUploadRepository(db *mongo.Database) repository.UploadRepository {
	return &mongoUploadRepository{
		collection: db.Collection(uploadCollectionName),
	}
}

// Create inserts new upload metadata into the database.
func (r *mongoUploadRepository) Create(ctx context.Context, upload *domain.Upload) (primitive.ObjectID, error) {
	if upload.TaskID == primitive.NilObjectID ||
		upload.TraineeID == primitive.NilObjectID ||
		upload.CoachID == primitive.NilObjectID ||
		upload.S3ObjectKey == "" {
		return primitive.NilObjectID, errors.New("upload requires taskId, traineeId, coachId, and s3ObjectKey")
	}

	upload.ID = primitive.NewObjectID()
	upload.UploadedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, upload)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves upload metadata by its ID.
func (r *mongoUploadRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Upload, error) {
	var upload domain.Upload
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&upload)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &upload, nil
}

// EnsureUploadIndexes creates necessary indexes for the uploads collection.
func EnsureUploadIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			// A task can hold several photos, one per angle
			Keys:    bson.D{{Key: "taskId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "traineeId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "s3ObjectKey", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
}
