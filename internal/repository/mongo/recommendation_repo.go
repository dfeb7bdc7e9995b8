package mongo

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/repository"
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const recommendationCollectionName = "template_recommendations"

// mongoRecommendationRepository implements repository.RecommendationRepository
type mongoRecommendationRepository struct {
	collection *mongo.Collection
}

// NewMongoRecommendationRepository creates a new recommendation repository backed by MongoDB.
func NewMongoRecommendationRepository(db *mongo.Database) repository.RecommendationRepository {
	return &mongoRecommendationRepository{
		collection: db.Collection(recommendationCollectionName),
	}
}

// CreateMany inserts a batch of freshly scored recommendations.
func (r *mongoRecommendationRepository) CreateMany(ctx context.Context, recs []*domain.TemplateRecommendation) error {
	if len(recs) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(recs))
	for _, rec := range recs {
		rec.ID = primitive.NewObjectID()
		docs = append(docs, rec)
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

// GetByID retrieves a recommendation by its ID.
func (r *mongoRecommendationRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TemplateRecommendation, error) {
	var rec domain.TemplateRecommendation
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// Find lists recommendations by score, highest first.
func (r *mongoRecommendationRepository) Find(ctx context.Context, f repository.RecommendationFilter) ([]domain.TemplateRecommendation, error) {
	filter := bson.M{}
	if f.CoachID != nil {
		filter["coachId"] = *f.CoachID
	}
	if f.TraineeID != nil {
		filter["traineeId"] = *f.TraineeID
	}
	if !f.IncludeDismissed {
		filter["isDismissed"] = false
	}
	if f.ActiveAt != nil {
		filter["expiresAt"] = bson.M{"$gt": *f.ActiveAt}
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "score", Value: -1}, {Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	recs := []domain.TemplateRecommendation{}
	if err = cursor.All(ctx, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// DeleteByCoachAndTrainee clears every recommendation of one pair.
func (r *mongoRecommendationRepository) DeleteByCoachAndTrainee(ctx context.Context, coachID, traineeID primitive.ObjectID) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"coachId": coachID, "traineeId": traineeID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// Update replaces the stored recommendation document.
func (r *mongoRecommendationRepository) Update(ctx context.Context, rec *domain.TemplateRecommendation) error {
	if rec.ID == primitive.NilObjectID {
		return errors.New("recommendation ID is required for update")
	}
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureRecommendationIndexes creates necessary indexes for the template_recommendations collection.
func EnsureRecommendationIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "coachId", Value: 1}, {Key: "traineeId", Value: 1}, {Key: "score", Value: -1}},
			Options: options.Index(),
		},
		{
			// Let the server drop rows once they expire
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	})
}
