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

const templateCollectionName = "templates"

// mongoTemplateRepository implements repository.TemplateRepository
type mongoTemplateRepository struct {
	collection *mongo.Collection
}

// NewMongoTemplateRepository creates a new Template repository backed by MongoDB.
func NewMongoTemplateRepository(db *mongo.Database) repository.TemplateRepository {
	return &mongoTemplateRepository{
		collection: db.Collection(templateCollectionName),
	}
}

// Create inserts a new template.
func (r *mongoTemplateRepository) Create(ctx context.Context, tpl *domain.Template) (primitive.ObjectID, error) {
	if tpl.Name == "" || tpl.CoachID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("template name and coach ID are required")
	}

	tpl.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	tpl.CreatedAt = now
	tpl.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, tpl)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted template ID")
	}
	return insertedID, nil
}

// GetByID retrieves a template by its ID.
func (r *mongoTemplateRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Template, error) {
	var tpl domain.Template
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&tpl)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &tpl, nil
}

// Find lists templates, newest first.
func (r *mongoTemplateRepository) Find(ctx context.Context, f repository.TemplateFilter) ([]domain.Template, error) {
	filter := bson.M{}
	if f.CoachID != nil {
		filter["coachId"] = *f.CoachID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	templates := []domain.Template{}
	if err = cursor.All(ctx, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

// Update replaces the stored template document.
func (r *mongoTemplateRepository) Update(ctx context.Context, tpl *domain.Template) error {
	if tpl.ID == primitive.NilObjectID {
		return errors.New("template ID is required for update")
	}
	tpl.UpdatedAt = time.Now().UTC()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": tpl.ID}, tpl)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a template by ID.
func (r *mongoTemplateRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// IncrementUsage bumps usageCount atomically.
func (r *mongoTemplateRepository) IncrementUsage(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{
		"$inc": bson.M{"usageCount": 1},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// UpdateStats writes the rolled-up assignment statistics.
func (r *mongoTemplateRepository) UpdateStats(ctx context.Context, id primitive.ObjectID, averageRating, successRate float64) error {
	update := bson.M{"$set": bson.M{
		"averageRating": averageRating,
		"successRate":   successRate,
		"updatedAt":     time.Now().UTC(),
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureTemplateIndexes creates necessary indexes for the templates collection.
func EnsureTemplateIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "coachId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "name", Value: "text"}, {Key: "description", Value: "text"}, {Key: "tags", Value: "text"}},
			Options: options.Index().SetName("template_text_search"),
		},
	})
}
