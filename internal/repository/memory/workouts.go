package memory

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/repository"
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type workoutRepository struct{ s *Store }

// Workouts returns the workout library view of the store.
func (s *Store) Workouts() repository.WorkoutRepository { return &workoutRepository{s} }

func (r *workoutRepository) Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	defer r.s.lock(ctx)()
	workout.ID = primitive.NewObjectID()
	workout.CreatedAt = now()
	workout.UpdatedAt = workout.CreatedAt
	r.s.workouts[workout.ID] = *workout
	return workout.ID, nil
}

func (r *workoutRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	w, ok := r.s.workouts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &w, nil
}

func (r *workoutRepository) GetByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.Workout, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.Workout{}
	for _, w := range r.s.workouts {
		if w.CoachID == coachID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *workoutRepository) Update(ctx context.Context, workout *domain.Workout) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.workouts[workout.ID]; !ok {
		return repository.ErrNotFound
	}
	workout.UpdatedAt = now()
	r.s.workouts[workout.ID] = *workout
	return nil
}

func (r *workoutRepository) Delete(ctx context.Context, id primitive.ObjectID, coachID primitive.ObjectID) error {
	defer r.s.lock(ctx)()
	w, ok := r.s.workouts[id]
	if !ok || w.CoachID != coachID {
		return repository.ErrNotFound
	}
	delete(r.s.workouts, id)
	return nil
}
