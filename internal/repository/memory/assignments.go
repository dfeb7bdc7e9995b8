package memory

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/repository"
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type assignmentRepository struct{ s *Store }

// Assignments returns the template assignment view of the store.
func (s *Store) Assignments() repository.AssignmentRepository { return &assignmentRepository{s} }

func (r *assignmentRepository) Create(ctx context.Context, a *domain.TemplateAssignment) (primitive.ObjectID, error) {
	defer r.s.lock(ctx)()
	a.ID = primitive.NewObjectID()
	if a.AssignedAt.IsZero() {
		a.AssignedAt = now()
	}
	a.UpdatedAt = a.AssignedAt
	r.s.assignments[a.ID] = *a
	return a.ID, nil
}

func (r *assignmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TemplateAssignment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.assignments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func matchesAssignment(a *domain.TemplateAssignment, f repository.AssignmentFilter) bool {
	if f.TemplateID != nil && a.TemplateID != *f.TemplateID {
		return false
	}
	if f.TraineeID != nil && a.TraineeID != *f.TraineeID {
		return false
	}
	if f.CoachID != nil && a.CoachID != *f.CoachID {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, a.Status) {
		return false
	}
	return true
}

func (r *assignmentRepository) Find(ctx context.Context, filter repository.AssignmentFilter) ([]domain.TemplateAssignment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.TemplateAssignment{}
	for _, a := range r.s.assignments {
		if matchesAssignment(&a, filter) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (r *assignmentRepository) Count(ctx context.Context, filter repository.AssignmentFilter) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, a := range r.s.assignments {
		if matchesAssignment(&a, filter) {
			n++
		}
	}
	return n, nil
}

func (r *assignmentRepository) Update(ctx context.Context, a *domain.TemplateAssignment) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.assignments[a.ID]; !ok {
		return repository.ErrNotFound
	}
	a.UpdatedAt = now()
	r.s.assignments[a.ID] = *a
	return nil
}
