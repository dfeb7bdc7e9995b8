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

const submissionCollectionName = "task_submissions"

// mongoSubmissionRepository implements repository.SubmissionRepository
type mongoSubmissionRepository struct {
	collection *mongo.Collection
}

// NewMongoSubmissionRepository creates a new Submission repository backed by MongoDB.
func NewMongoSubmissionRepository(db *mongo.Database) repository.SubmissionRepository {
	return &mongoSubmissionRepository{
		collection: db.Collection(submissionCollectionName),
	}
}

// Create inserts a new submission.
func (r *mongoSubmissionRepository) Create(ctx context.Context, sub *domain.TaskSubmission) (primitive.ObjectID, error) {
	if sub.TaskID == primitive.NilObjectID || sub.SubmittedByID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("submission requires taskId and submittedById")
	}

	sub.ID = primitive.NewObjectID()
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now().UTC()
	}
	sub.UpdatedAt = sub.SubmittedAt

	result, err := r.collection.InsertOne(ctx, sub)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted submission ID")
	}
	return insertedID, nil
}

// GetByID retrieves a submission by its ID.
func (r *mongoSubmissionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TaskSubmission, error) {
	var sub domain.TaskSubmission
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&sub)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

// GetByTaskID lists a task's submissions, newest attempt first.
func (r *mongoSubmissionRepository) GetByTaskID(ctx context.Context, taskID primitive.ObjectID) ([]domain.TaskSubmission, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "submissionNumber", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"taskId": taskID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	subs := []domain.TaskSubmission{}
	if err = cursor.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *mongoSubmissionRepository) CountByTask(ctx context.Context, taskID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"taskId": taskID})
}

func (r *mongoSubmissionRepository) CountByTaskAndSubmitter(ctx context.Context, taskID, submitterID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"taskId": taskID, "submittedById": submitterID})
}

// CountByTaskIDs groups submission counts by task in a single aggregation.
func (r *mongoSubmissionRepository) CountByTaskIDs(ctx context.Context, taskIDs []primitive.ObjectID) (map[primitive.ObjectID]int64, error) {
	counts := map[primitive.ObjectID]int64{}
	if len(taskIDs) == 0 {
		return counts, nil
	}

	pipeline := bson.A{
		bson.M{"$match": bson.M{"taskId": bson.M{"$in": taskIDs}}},
		bson.M{"$group": bson.M{"_id": "$taskId", "count": bson.M{"$sum": 1}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		TaskID primitive.ObjectID `bson:"_id"`
		Count  int64              `bson:"count"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.TaskID] = row.Count
	}
	return counts, nil
}

// DemoteLatest clears isLatest on the previous attempts of a trainee.
func (r *mongoSubmissionRepository) DemoteLatest(ctx context.Context, taskID, submitterID primitive.ObjectID) error {
	filter := bson.M{"taskId": taskID, "submittedById": submitterID, "isLatest": true}
	update := bson.M{"$set": bson.M{"isLatest": false, "updatedAt": time.Now().UTC()}}
	_, err := r.collection.UpdateMany(ctx, filter, update)
	return err
}

// Update replaces the stored submission document.
func (r *mongoSubmissionRepository) Update(ctx context.Context, sub *domain.TaskSubmission) error {
	if sub.ID == primitive.NilObjectID {
		return errors.New("submission ID is required for update")
	}
	sub.UpdatedAt = time.Now().UTC()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": sub.ID}, sub)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SumPointsBySubmitter totals awarded points for a trainee.
func (r *mongoSubmissionRepository) SumPointsBySubmitter(ctx context.Context, submitterID primitive.ObjectID) (int64, error) {
	pipeline := bson.A{
		bson.M{"$match": bson.M{"submittedById": submitterID}},
		bson.M{"$group": bson.M{"_id": nil, "total": bson.M{"$sum": "$pointsAwarded"}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total int64 `bson:"total"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

// EnsureSubmissionIndexes creates necessary indexes for the task_submissions collection.
func EnsureSubmissionIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "taskId", Value: 1}, {Key: "submissionNumber", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "taskId", Value: 1}, {Key: "submittedById", Value: 1}, {Key: "isLatest", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "submittedById", Value: 1}},
			Options: options.Index(),
		},
	})
}
