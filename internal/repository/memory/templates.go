package memory

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/repository"
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type templateRepository struct{ s *Store }

// Templates returns the template view of the store.
func (s *Store) Templates() repository.TemplateRepository { return &templateRepository{s} }

func (r *templateRepository) Create(ctx context.Context, tpl *domain.Template) (primitive.ObjectID, error) {
	defer r.s.lock(ctx)()
	tpl.ID = primitive.NewObjectID()
	tpl.CreatedAt = now()
	tpl.UpdatedAt = tpl.CreatedAt
	r.s.templates[tpl.ID] = *tpl
	return tpl.ID, nil
}

func (r *templateRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Template, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	tpl, ok := r.s.templates[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &tpl, nil
}

func (r *templateRepository) Find(ctx context.Context, filter repository.TemplateFilter) ([]domain.Template, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.Template{}
	for _, tpl := range r.s.templates {
		if filter.CoachID != nil && tpl.CoachID != *filter.CoachID {
			continue
		}
		if filter.Status != "" && tpl.Status != filter.Status {
			continue
		}
		out = append(out, tpl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *templateRepository) Update(ctx context.Context, tpl *domain.Template) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.templates[tpl.ID]; !ok {
		return repository.ErrNotFound
	}
	tpl.UpdatedAt = now()
	r.s.templates[tpl.ID] = *tpl
	return nil
}

func (r *templateRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.templates[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.templates, id)
	return nil
}

func (r *templateRepository) IncrementUsage(ctx context.Context, id primitive.ObjectID) error {
	defer r.s.lock(ctx)()
	tpl, ok := r.s.templates[id]
	if !ok {
		return repository.ErrNotFound
	}
	tpl.UsageCount++
	tpl.UpdatedAt = now()
	r.s.templates[id] = tpl
	return nil
}

func (r *templateRepository) UpdateStats(ctx context.Context, id primitive.ObjectID, averageRating, successRate float64) error {
	defer r.s.lock(ctx)()
	tpl, ok := r.s.templates[id]
	if !ok {
		return repository.ErrNotFound
	}
	tpl.AverageRating = averageRating
	tpl.SuccessRate = successRate
	tpl.UpdatedAt = now()
	r.s.templates[id] = tpl
	return nil
}
