package memory

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/repository"
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type recommendationRepository struct{ s *Store }

// Recommendations returns the recommendation view of the store.
func (s *Store) Recommendations() repository.RecommendationRepository {
	return &recommendationRepository{s}
}

func (r *recommendationRepository) CreateMany(ctx context.Context, recs []*domain.TemplateRecommendation) error {
	defer r.s.lock(ctx)()
	for _, rec := range recs {
		rec.ID = primitive.NewObjectID()
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now()
		}
		r.s.recommendations[rec.ID] = *rec
	}
	return nil
}

func (r *recommendationRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TemplateRecommendation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.recommendations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rec, nil
}

// Find returns matching rows ordered by score, highest first.
func (r *recommendationRepository) Find(ctx context.Context, filter repository.RecommendationFilter) ([]domain.TemplateRecommendation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.TemplateRecommendation{}
	for _, rec := range r.s.recommendations {
		if filter.CoachID != nil && rec.CoachID != *filter.CoachID {
			continue
		}
		if filter.TraineeID != nil && rec.TraineeID != *filter.TraineeID {
			continue
		}
		if !filter.IncludeDismissed && rec.IsDismissed {
			continue
		}
		if filter.ActiveAt != nil && rec.IsExpired(*filter.ActiveAt) {
			continue
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Score > out[j].Score
	})
	return out, nil
}

func (r *recommendationRepository) DeleteByCoachAndTrainee(ctx context.Context, coachID, traineeID primitive.ObjectID) (int64, error) {
	defer r.s.lock(ctx)()
	var n int64
	for id, rec := range r.s.recommendations {
		if rec.CoachID == coachID && rec.TraineeID == traineeID {
			delete(r.s.recommendations, id)
			n++
		}
	}
	return n, nil
}

func (r *recommendationRepository) Update(ctx context.Context, rec *domain.TemplateRecommendation) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.recommendations[rec.ID]; !ok {
		return repository.ErrNotFound
	}
	r.s.recommendations[rec.ID] = *rec
	return nil
}
