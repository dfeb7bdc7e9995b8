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

const assignmentCollectionName = "template_assignments"

// mongoAssignmentRepository implements repository.AssignmentRepository
type mongoAssignmentRepository struct {
	collection *mongo.Collection
}

// NewMongoAssignmentRepository creates a new template assignment repository backed by MongoDB.
func NewMongoAssignmentRepository(db *mongo.Database) repository.AssignmentRepository {
	return &mongoAssignmentRepository{
		collection: db.Collection(assignmentCollectionName),
	}
}

// Create inserts a new assignment into the database.
func (r *mongoAssignmentRepository) Create(ctx context.Context, assignment *domain.TemplateAssignment) (primitive.ObjectID, error) {
	if assignment.TemplateID == primitive.NilObjectID ||
		assignment.TraineeID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("assignment requires templateId and traineeId")
	}

	assignment.ID = primitive.NewObjectID()
	if assignment.AssignedAt.IsZero() {
		assignment.AssignedAt = time.Now().UTC()
	}
	assignment.UpdatedAt = assignment.AssignedAt
	if assignment.Status == "" {
		assignment.Status = domain.AssignmentScheduled
	}

	result, err := r.collection.InsertOne(ctx, assignment)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted assignment ID")
	}
	return insertedID, nil
}

// GetByID retrieves an assignment by its ID.
func (r *mongoAssignmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TemplateAssignment, error) {
	var assignment domain.TemplateAssignment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&assignment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &assignment, nil
}

func buildAssignmentFilter(f repository.AssignmentFilter) bson.M {
	filter := bson.M{}
	if f.TemplateID != nil {
		filter["templateId"] = *f.TemplateID
	}
	if f.TraineeID != nil {
		filter["traineeId"] = *f.TraineeID
	}
	if f.CoachID != nil {
		filter["coachId"] = *f.CoachID
	}
	if len(f.Statuses) > 0 {
		filter["status"] = bson.M{"$in": f.Statuses}
	}
	return filter
}

// Find lists assignments, latest start date first.
func (r *mongoAssignmentRepository) Find(ctx context.Context, f repository.AssignmentFilter) ([]domain.TemplateAssignment, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "startDate", Value: -1}})

	cursor, err := r.collection.Find(ctx, buildAssignmentFilter(f), findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	assignments := []domain.TemplateAssignment{}
	if err = cursor.All(ctx, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *mongoAssignmentRepository) Count(ctx context.Context, f repository.AssignmentFilter) (int64, error) {
	return r.collection.CountDocuments(ctx, buildAssignmentFilter(f))
}

// Update replaces the stored assignment document.
func (r *mongoAssignmentRepository) Update(ctx context.Context, assignment *domain.TemplateAssignment) error {
	if assignment.ID == primitive.NilObjectID {
		return errors.New("assignment ID is required for update")
	}
	assignment.UpdatedAt = time.Now().UTC()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": assignment.ID}, assignment)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureAssignmentIndexes creates necessary indexes for the template_assignments collection.
func EnsureAssignmentIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "traineeId", Value: 1}, {Key: "startDate", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "coachId", Value: 1}},
			Options: options.Index(),
		},
		{
			// Archive guard and stats roll-up
			Keys:    bson.D{{Key: "templateId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index(),
		},
	})
}
