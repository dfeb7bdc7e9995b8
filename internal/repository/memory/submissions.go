package memory

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/repository"
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type submissionRepository struct{ s *Store }

// Submissions returns the task submission view of the store.
func (s *Store) Submissions() repository.SubmissionRepository { return &submissionRepository{s} }

func (r *submissionRepository) Create(ctx context.Context, sub *domain.TaskSubmission) (primitive.ObjectID, error) {
	defer r.s.lock(ctx)()
	sub.ID = primitive.NewObjectID()
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = now()
	}
	sub.UpdatedAt = sub.SubmittedAt
	r.s.submissions[sub.ID] = *sub
	return sub.ID, nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TaskSubmission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sub, ok := r.s.submissions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &sub, nil
}

func (r *submissionRepository) GetByTaskID(ctx context.Context, taskID primitive.ObjectID) ([]domain.TaskSubmission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.TaskSubmission{}
	for _, sub := range r.s.submissions {
		if sub.TaskID == taskID {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmissionNumber > out[j].SubmissionNumber })
	return out, nil
}

func (r *submissionRepository) CountByTask(ctx context.Context, taskID primitive.ObjectID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, sub := range r.s.submissions {
		if sub.TaskID == taskID {
			n++
		}
	}
	return n, nil
}

func (r *submissionRepository) CountByTaskAndSubmitter(ctx context.Context, taskID, submitterID primitive.ObjectID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, sub := range r.s.submissions {
		if sub.TaskID == taskID && sub.SubmittedByID == submitterID {
			n++
		}
	}
	return n, nil
}

func (r *submissionRepository) CountByTaskIDs(ctx context.Context, taskIDs []primitive.ObjectID) (map[primitive.ObjectID]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	wanted := make(map[primitive.ObjectID]bool, len(taskIDs))
	for _, id := range taskIDs {
		wanted[id] = true
	}
	counts := map[primitive.ObjectID]int64{}
	for _, sub := range r.s.submissions {
		if wanted[sub.TaskID] {
			counts[sub.TaskID]++
		}
	}
	return counts, nil
}

func (r *submissionRepository) DemoteLatest(ctx context.Context, taskID, submitterID primitive.ObjectID) error {
	defer r.s.lock(ctx)()
	for id, sub := range r.s.submissions {
		if sub.TaskID == taskID && sub.SubmittedByID == submitterID && sub.IsLatest {
			sub.IsLatest = false
			sub.UpdatedAt = now()
			r.s.submissions[id] = sub
		}
	}
	return nil
}

func (r *submissionRepository) Update(ctx context.Context, sub *domain.TaskSubmission) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.submissions[sub.ID]; !ok {
		return repository.ErrNotFound
	}
	sub.UpdatedAt = now()
	r.s.submissions[sub.ID] = *sub
	return nil
}

func (r *submissionRepository) SumPointsBySubmitter(ctx context.Context, submitterID primitive.ObjectID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var total int64
	for _, sub := range r.s.submissions {
		if sub.SubmittedByID == submitterID {
			total += int64(sub.PointsAwarded)
		}
	}
	return total, nil
}
