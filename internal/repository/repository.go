package repository

import (
	"alcyxob/fitcoach/internal/domain"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("duplicate key")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// Transactor runs fn as one unit of work. Repositories called with the ctx
// handed to fn take part in the same transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	AddTraineeIDToCoach(ctx context.Context, coachID, traineeID primitive.ObjectID) error
	GetTraineesByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.User, error)
	SetCoachForTrainee(ctx context.Context, traineeID, coachID primitive.ObjectID) error
	UpdateProfile(ctx context.Context, traineeID primitive.ObjectID, profile *domain.TraineeProfile) error
}

// WorkoutRepository defines the interface for the coach workout library.
type WorkoutRepository interface {
	Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error)
	GetByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.Workout, error)
	Update(ctx context.Context, workout *domain.Workout) error
	Delete(ctx context.Context, id primitive.ObjectID, coachID primitive.ObjectID) error // Ensure coach owns the workout
}

// TaskSortField names the columns a task list can be sorted by.
type TaskSortField string

const (
	SortByDueDate   TaskSortField = "dueDate"
	SortByCreatedAt TaskSortField = "createdAt"
	SortByPriority  TaskSortField = "priority"
	SortByPoints    TaskSortField = "points"
)

// TaskFilter narrows a task query. Nil/zero fields are ignored.
type TaskFilter struct {
	CoachID      *primitive.ObjectID
	TraineeID    *primitive.ObjectID
	ParentTaskID *primitive.ObjectID
	Statuses     []domain.TaskStatus
	TaskType     domain.TaskType
	Priority     domain.TaskPriority
	DueFrom      *time.Time
	DueTo        *time.Time
	VisibleOnly  bool

	// OverdueAt, when set, matches tasks that are effectively overdue at that
	// instant (stored pending/in_progress/overdue with dueDate before it).
	OverdueAt *time.Time
	// NotOverdueAt excludes tasks that are effectively overdue at that instant.
	NotOverdueAt *time.Time

	SortBy   TaskSortField
	SortDesc bool
	Skip     int64
	Limit    int64 // 0 means no limit
}

// TaskRepository defines the interface for interacting with task data.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) (primitive.ObjectID, error)
	CreateMany(ctx context.Context, tasks []*domain.Task) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Task, error)
	Find(ctx context.Context, filter TaskFilter) ([]domain.Task, int64, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// MarkOverdue persists status=overdue for pending/in_progress tasks due before now.
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

// SubmissionRepository defines the interface for interacting with task submissions.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *domain.TaskSubmission) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TaskSubmission, error)
	GetByTaskID(ctx context.Context, taskID primitive.ObjectID) ([]domain.TaskSubmission, error)
	CountByTask(ctx context.Context, taskID primitive.ObjectID) (int64, error)
	CountByTaskAndSubmitter(ctx context.Context, taskID, submitterID primitive.ObjectID) (int64, error)
	// CountByTaskIDs returns submission counts keyed by task ID; tasks with none are absent.
	CountByTaskIDs(ctx context.Context, taskIDs []primitive.ObjectID) (map[primitive.ObjectID]int64, error)
	// DemoteLatest clears isLatest on every submission for (task, submitter).
	DemoteLatest(ctx context.Context, taskID, submitterID primitive.ObjectID) error
	Update(ctx context.Context, submission *domain.TaskSubmission) error
	// SumPointsBySubmitter totals pointsAwarded for a trainee across all submissions.
	SumPointsBySubmitter(ctx context.Context, submitterID primitive.ObjectID) (int64, error)
}

// TemplateFilter narrows a template query.
type TemplateFilter struct {
	CoachID *primitive.ObjectID
	Status  domain.TemplateStatus
}

// TemplateRepository defines the interface for interacting with templates.
type TemplateRepository interface {
	Create(ctx context.Context, template *domain.Template) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Template, error)
	Find(ctx context.Context, filter TemplateFilter) ([]domain.Template, error)
	Update(ctx context.Context, template *domain.Template) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	IncrementUsage(ctx context.Context, id primitive.ObjectID) error
	UpdateStats(ctx context.Context, id primitive.ObjectID, averageRating, successRate float64) error
}

// AssignmentFilter narrows a template assignment query.
type AssignmentFilter struct {
	TemplateID *primitive.ObjectID
	TraineeID  *primitive.ObjectID
	CoachID    *primitive.ObjectID
	Statuses   []domain.AssignmentStatus
}

// AssignmentRepository defines the interface for template assignments.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *domain.TemplateAssignment) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TemplateAssignment, error)
	Find(ctx context.Context, filter AssignmentFilter) ([]domain.TemplateAssignment, error)
	Count(ctx context.Context, filter AssignmentFilter) (int64, error)
	Update(ctx context.Context, assignment *domain.TemplateAssignment) error
}

// RecommendationFilter narrows a recommendation query.
type RecommendationFilter struct {
	CoachID          *primitive.ObjectID
	TraineeID        *primitive.ObjectID
	IncludeDismissed bool
	ActiveAt         *time.Time // When set, rows expired at this instant are excluded
}

// RecommendationRepository defines the interface for template recommendations.
type RecommendationRepository interface {
	CreateMany(ctx context.Context, recs []*domain.TemplateRecommendation) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TemplateRecommendation, error)
	Find(ctx context.Context, filter RecommendationFilter) ([]domain.TemplateRecommendation, error)
	DeleteByCoachAndTrainee(ctx context.Context, coachID, traineeID primitive.ObjectID) (int64, error)
	Update(ctx context.Context, rec *domain.TemplateRecommendation) error
}

// UploadRepository defines the interface for interacting with upload metadata.
type UploadRepository interface {
	Create(ctx context.Context, upload *domain.Upload) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Upload, error)
}
