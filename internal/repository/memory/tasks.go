package memory

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/repository"
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type taskRepository struct{ s *Store }

// Tasks returns the task view of the store.
func (s *Store) Tasks() repository.TaskRepository { return &taskRepository{s} }

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (primitive.ObjectID, error) {
	defer r.s.lock(ctx)()
	r.insert(task)
	return task.ID, nil
}

func (r *taskRepository) CreateMany(ctx context.Context, tasks []*domain.Task) error {
	defer r.s.lock(ctx)()
	for _, t := range tasks {
		r.insert(t)
	}
	return nil
}

// insert expects r.s.mu to be held.
func (r *taskRepository) insert(task *domain.Task) {
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now()
	}
	task.UpdatedAt = task.CreatedAt
	r.s.tasks[task.ID] = *task
}

func (r *taskRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tasks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func matchesTask(t *domain.Task, f repository.TaskFilter) bool {
	if f.CoachID != nil && t.CoachID != *f.CoachID {
		return false
	}
	if f.TraineeID != nil && t.TraineeID != *f.TraineeID {
		return false
	}
	if f.ParentTaskID != nil && (t.ParentTaskID == nil || *t.ParentTaskID != *f.ParentTaskID) {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, t.Status) {
		return false
	}
	if f.TaskType != "" && t.TaskType != f.TaskType {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.DueFrom != nil && (t.DueDate == nil || t.DueDate.Before(*f.DueFrom)) {
		return false
	}
	if f.DueTo != nil && (t.DueDate == nil || t.DueDate.After(*f.DueTo)) {
		return false
	}
	if f.VisibleOnly && !t.IsVisible {
		return false
	}
	if f.OverdueAt != nil && t.Status != domain.TaskStatusOverdue && !t.IsOverdue(*f.OverdueAt) {
		return false
	}
	if f.NotOverdueAt != nil && (t.Status == domain.TaskStatusOverdue || t.IsOverdue(*f.NotOverdueAt)) {
		return false
	}
	return true
}

// lessTask orders a before b by field. Tasks without a due date sort last
// in ascending order.
func lessTask(a, b *domain.Task, field repository.TaskSortField) (less bool, equal bool) {
	switch field {
	case repository.SortByDueDate:
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			return false, true
		case a.DueDate == nil:
			return false, false
		case b.DueDate == nil:
			return true, false
		}
		return a.DueDate.Before(*b.DueDate), a.DueDate.Equal(*b.DueDate)
	case repository.SortByPriority:
		return a.Priority.Rank() < b.Priority.Rank(), a.Priority.Rank() == b.Priority.Rank()
	case repository.SortByPoints:
		return a.Points < b.Points, a.Points == b.Points
	}
	return a.CreatedAt.Before(b.CreatedAt), a.CreatedAt.Equal(b.CreatedAt)
}

func (r *taskRepository) Find(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, int64, error) {
	r.s.mu.RLock()
	out := []domain.Task{}
	for _, t := range r.s.tasks {
		if matchesTask(&t, filter) {
			out = append(out, t)
		}
	}
	r.s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		less, equal := lessTask(&out[i], &out[j], filter.SortBy)
		if equal {
			// stable tie-break on id
			return out[i].ID.Hex() < out[j].ID.Hex()
		}
		if filter.SortDesc {
			return !less
		}
		return less
	})

	total := int64(len(out))
	if filter.Skip > 0 {
		if filter.Skip >= total {
			return []domain.Task{}, total, nil
		}
		out = out[filter.Skip:]
	}
	if filter.Limit > 0 && int64(len(out)) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, total, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.tasks[task.ID]; !ok {
		return repository.ErrNotFound
	}
	task.UpdatedAt = now()
	r.s.tasks[task.ID] = *task
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.tasks[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.tasks, id)
	return nil
}

func (r *taskRepository) MarkOverdue(ctx context.Context, at time.Time) (int64, error) {
	defer r.s.lock(ctx)()
	var n int64
	for id, t := range r.s.tasks {
		if t.Status != domain.TaskStatusPending && t.Status != domain.TaskStatusInProgress {
			continue
		}
		if t.DueDate == nil || !t.DueDate.Before(at) {
			continue
		}
		t.Status = domain.TaskStatusOverdue
		t.UpdatedAt = at
		r.s.tasks[id] = t
		n++
	}
	return n, nil
}
