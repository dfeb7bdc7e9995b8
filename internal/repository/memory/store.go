// Package memory keeps every collection in process memory. It backs the
// service tests and the "memory" database driver used for local runs.
package memory

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/repository"
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store holds all collections behind one mutex.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	users           map[primitive.ObjectID]domain.User
	workouts        map[primitive.ObjectID]domain.Workout
	tasks           map[primitive.ObjectID]domain.Task
	submissions     map[primitive.ObjectID]domain.TaskSubmission
	templates       map[primitive.ObjectID]domain.Template
	assignments     map[primitive.ObjectID]domain.TemplateAssignment
	recommendations map[primitive.ObjectID]domain.TemplateRecommendation
	uploads         map[primitive.ObjectID]domain.Upload
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		users:           map[primitive.ObjectID]domain.User{},
		workouts:        map[primitive.ObjectID]domain.Workout{},
		tasks:           map[primitive.ObjectID]domain.Task{},
		submissions:     map[primitive.ObjectID]domain.TaskSubmission{},
		templates:       map[primitive.ObjectID]domain.Template{},
		assignments:     map[primitive.ObjectID]domain.TemplateAssignment{},
		recommendations: map[primitive.ObjectID]domain.TemplateRecommendation{},
		uploads:         map[primitive.ObjectID]domain.Upload{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type txKey struct{}

// lock takes the write lock for one repository call. Writes outside a
// transaction also wait on txMu so a rollback cannot discard them.
func (s *Store) lock(ctx context.Context) func() {
	if ctx.Value(txKey{}) == nil {
		s.txMu.Lock()
		s.mu.Lock()
		return func() {
			s.mu.Unlock()
			s.txMu.Unlock()
		}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// WithinTransaction snapshots every collection, runs fn and restores the
// snapshot when fn fails. Transactions are serialized and must not nest.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	ctx = context.WithValue(ctx, txKey{}, true)

	s.mu.RLock()
	users, workouts, tasks := cloneMap(s.users), cloneMap(s.workouts), cloneMap(s.tasks)
	submissions, templates := cloneMap(s.submissions), cloneMap(s.templates)
	assignments, recommendations, uploads := cloneMap(s.assignments), cloneMap(s.recommendations), cloneMap(s.uploads)
	s.mu.RUnlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.users, s.workouts, s.tasks = users, workouts, tasks
		s.submissions, s.templates = submissions, templates
		s.assignments, s.recommendations, s.uploads = assignments, recommendations, uploads
		s.mu.Unlock()
		return err
	}
	return nil
}

var _ repository.Transactor = (*Store)(nil)

func now() time.Time {
	return time.Now().UTC()
}

func containsStatus[T comparable](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
