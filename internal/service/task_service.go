package service

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/metrics"
	"alcyxob/fitcoach/internal/repository"
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrTaskNotFound              = notFound("task not found")
	ErrTaskAccessDenied          = forbidden("access denied to this task")
	ErrSubmissionNotFound        = notFound("submission not found")
	ErrSubmissionLimitReached    = badRequest("maximum number of submissions reached")
	ErrLateSubmissionNotAllowed  = badRequest("task is past its due date and does not accept late submissions")
	ErrTaskClosed                = badRequest("task is already completed or cancelled")
	ErrTaskHasSubmissions        = badRequest("cannot delete a task that has submissions")
	ErrSubmissionAlreadyReviewed = badRequest("submission has already been reviewed")
	ErrInvalidReviewStatus       = badRequest("review status must be approved, rejected, or needs_revision")
	ErrInvalidBulkAction         = badRequest("action must be complete, cancel, extend_due_date, or change_priority")
)

const (
	DefaultTaskPageSize = 20
	MaxTaskPageSize     = 100
)

// CreateTaskInput carries everything a coach can set on a new task.
type CreateTaskInput struct {
	TraineeID           primitive.ObjectID
	Title               string
	Description         string
	TaskType            domain.TaskType
	Priority            domain.TaskPriority // defaults to medium
	Frequency           domain.TaskFrequency
	DueDate             *time.Time
	StartDate           *time.Time
	Points              *int // defaults per task type
	IsVisible           *bool
	Tags                []string
	RequiresApproval    bool
	MaxSubmissions      *int // defaults to 1
	AllowLateSubmission bool
	TaskConfig          domain.TaskConfig
	RecurrencePattern   *domain.RecurrencePattern
	ReminderSettings    *domain.ReminderSettings
}

// UpdateTaskInput is a partial update; nil fields are left alone.
type UpdateTaskInput struct {
	Title               *string
	Description         *string
	TaskType            *domain.TaskType
	Priority            *domain.TaskPriority
	Status              *domain.TaskStatus // only cancelled may be set directly
	DueDate             *time.Time
	StartDate           *time.Time
	Points              *int
	IsVisible           *bool
	Tags                []string
	RequiresApproval    *bool
	MaxSubmissions      *int
	AllowLateSubmission *bool
	TaskConfig          *domain.TaskConfig
	ReminderSettings    *domain.ReminderSettings
}

// TaskQuery is the list request. Status filters by effective status.
type TaskQuery struct {
	Status       domain.TaskStatus
	TaskType     domain.TaskType
	Priority     domain.TaskPriority
	TraineeID    *primitive.ObjectID
	ParentTaskID *primitive.ObjectID
	DueFrom      *time.Time
	DueTo        *time.Time
	Page         int
	Limit        int
	SortBy       string
	SortOrder    string // asc | desc
}

// TaskView is a task plus the fields computed at read time.
type TaskView struct {
	domain.Task
	IsOverdue       bool              `json:"isOverdue"`
	EffectiveStatus domain.TaskStatus `json:"effectiveStatus"`
	SubmissionCount int64             `json:"submissionCount"`
}

type TaskPage struct {
	Tasks      []TaskView `json:"tasks"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	TotalPages int        `json:"totalPages"`
}

// CreateTaskResult is the first row of the series plus the IDs of the
// generated siblings, if any.
type CreateTaskResult struct {
	Task       TaskView             `json:"task"`
	SiblingIDs []primitive.ObjectID `json:"siblingIds,omitempty"`
}

type SubmitTaskInput struct {
	TaskID         primitive.ObjectID
	SubmissionData domain.SubmissionData
	Notes          string
}

type ReviewInput struct {
	Status        domain.SubmissionStatus
	Feedback      string
	Rating        *int
	PointsAwarded *int
}

type BulkAction string

const (
	BulkComplete       BulkAction = "complete"
	BulkCancel         BulkAction = "cancel"
	BulkExtendDueDate  BulkAction = "extend_due_date"
	BulkChangePriority BulkAction = "change_priority"
)

type BulkActionInput struct {
	TaskIDs  []string
	Action   BulkAction
	DueDate  *time.Time
	Priority domain.TaskPriority
}

type BulkItemError struct {
	TaskID string `json:"taskId"`
	Error  string `json:"error"`
}

type BulkActionResult struct {
	Success   int             `json:"success"`
	Failed    int             `json:"failed"`
	Succeeded []string        `json:"succeeded"`
	Errors    []BulkItemError `json:"errors"`
}

type TaskStats struct {
	Total          int64                       `json:"total"`
	ByStatus       map[domain.TaskStatus]int64 `json:"byStatus"`
	ByType         map[domain.TaskType]int64   `json:"byType"`
	CompletionRate float64                     `json:"completionRate"`
	PointsAwarded  int64                       `json:"pointsAwarded"`
}

type TaskService interface {
	CreateTask(ctx context.Context, coachID primitive.ObjectID, in CreateTaskInput) (*CreateTaskResult, error)
	GetTasks(ctx context.Context, userID primitive.ObjectID, role domain.Role, q TaskQuery) (*TaskPage, error)
	GetTask(ctx context.Context, userID primitive.ObjectID, role domain.Role, taskID primitive.ObjectID) (*TaskView, error)
	UpdateTask(ctx context.Context, coachID, taskID primitive.ObjectID, in UpdateTaskInput) (*TaskView, error)
	DeleteTask(ctx context.Context, coachID, taskID primitive.ObjectID) error

	SubmitTask(ctx context.Context, traineeID primitive.ObjectID, in SubmitTaskInput) (*domain.TaskSubmission, error)
	ReviewSubmission(ctx context.Context, coachID, submissionID primitive.ObjectID, in ReviewInput) (*domain.TaskSubmission, error)
	GetSubmissions(ctx context.Context, userID primitive.ObjectID, role domain.Role, taskID primitive.ObjectID) ([]domain.TaskSubmission, error)

	UpdateOverdueTasks(ctx context.Context) (int64, error)
	BulkTaskAction(ctx context.Context, userID primitive.ObjectID, role domain.Role, in BulkActionInput) (*BulkActionResult, error)
	GetTaskStats(ctx context.Context, userID primitive.ObjectID, role domain.Role) (*TaskStats, error)
}

// taskService implements the TaskService interface.
type taskService struct {
	userRepo       repository.UserRepository
	workoutRepo    repository.WorkoutRepository
	taskRepo       repository.TaskRepository
	submissionRepo repository.SubmissionRepository
	uploadRepo     repository.UploadRepository
	tx             repository.Transactor
	metrics        *metrics.Metrics
	now            func() time.Time
}

// NewTaskService creates a new instance of taskService. m may be nil.
func NewTaskService(
	userRepo repository.UserRepository,
	workoutRepo repository.WorkoutRepository,
	taskRepo repository.TaskRepository,
	submissionRepo repository.SubmissionRepository,
	uploadRepo repository.UploadRepository,
	tx repository.Transactor,
	m *metrics.Metrics,
) TaskService {
	return &taskService{
		userRepo:       userRepo,
		workoutRepo:    workoutRepo,
		taskRepo:       taskRepo,
		submissionRepo: submissionRepo,
		uploadRepo:     uploadRepo,
		tx:             tx,
		metrics:        m,
		now:            time.Now,
	}
}

func validFrequency(f domain.TaskFrequency) bool {
	switch f {
	case domain.FrequencyOnce, domain.FrequencyDaily, domain.FrequencyWeekly, domain.FrequencyMonthly, domain.FrequencyCustom:
		return true
	}
	return false
}

func validateRecurrence(p *domain.RecurrencePattern) error {
	if p == nil {
		return nil
	}
	if p.Interval < 0 {
		return badRequest("recurrence interval cannot be negative")
	}
	if p.MaxOccurrences < 0 {
		return badRequest("maxOccurrences cannot be negative")
	}
	for _, d := range p.DaysOfWeek {
		if d < 0 || d > 6 {
			return badRequest("daysOfWeek values must be between 0 and 6")
		}
	}
	return nil
}

func validateCreateTask(in *CreateTaskInput) error {
	in.Title = strings.TrimSpace(in.Title)
	switch {
	case in.Title == "":
		return badRequest("title is required")
	case in.TraineeID.IsZero():
		return badRequest("traineeId is required")
	case !in.TaskType.IsValid():
		return badRequestf("unknown task type %q", in.TaskType)
	case in.Priority != "" && in.Priority.Rank() == 0:
		return badRequestf("unknown priority %q", in.Priority)
	case in.Frequency != "" && !validFrequency(in.Frequency):
		return badRequestf("unknown frequency %q", in.Frequency)
	case in.Points != nil && *in.Points < 0:
		return badRequest("points cannot be negative")
	case in.MaxSubmissions != nil && *in.MaxSubmissions < 1:
		return badRequest("maxSubmissions must be at least 1")
	case in.DueDate != nil && in.StartDate != nil && in.StartDate.After(*in.DueDate):
		return badRequest("startDate must not be after dueDate")
	}
	if err := in.TaskConfig.Validate(in.TaskType); err != nil {
		return invalid(err)
	}
	return validateRecurrence(in.RecurrencePattern)
}

// checkWorkoutConfig makes sure a workout task points at the coach's own workout.
func (s *taskService) checkWorkoutConfig(ctx context.Context, coachID primitive.ObjectID, cfg *domain.TaskConfig) error {
	if cfg.Workout == nil {
		return nil
	}
	w, err := s.workoutRepo.GetByID(ctx, cfg.Workout.WorkoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrWorkoutNotFound
		}
		return err
	}
	if w.CoachID != coachID {
		return ErrWorkoutAccessDenied
	}
	return nil
}

// CreateTask creates a task, and for a recurring frequency its siblings, in
// one transaction.
func (s *taskService) CreateTask(ctx context.Context, coachID primitive.ObjectID, in CreateTaskInput) (*CreateTaskResult, error) {
	// 1. Validate Input
	if err := validateCreateTask(&in); err != nil {
		return nil, err
	}

	// 2. Coach, trainee and roster
	if _, err := loadManagedTrainee(ctx, s.userRepo, coachID, in.TraineeID); err != nil {
		return nil, err
	}
	if err := s.checkWorkoutConfig(ctx, coachID, &in.TaskConfig); err != nil {
		return nil, err
	}

	// 3. Build the task with defaults
	now := s.now()
	task := &domain.Task{
		ID:                  primitive.NewObjectID(),
		Title:               in.Title,
		Description:         in.Description,
		TaskType:            in.TaskType,
		CoachID:             coachID,
		TraineeID:           in.TraineeID,
		Priority:            in.Priority,
		Status:              domain.TaskStatusPending,
		Frequency:           in.Frequency,
		DueDate:             in.DueDate,
		StartDate:           in.StartDate,
		Points:              domain.DefaultPoints(in.TaskType),
		IsVisible:           true,
		Tags:                normalizeTags(in.Tags),
		RequiresApproval:    in.RequiresApproval,
		MaxSubmissions:      1,
		AllowLateSubmission: in.AllowLateSubmission,
		TaskConfig:          in.TaskConfig,
		RecurrencePattern:   in.RecurrencePattern,
		ReminderSettings:    in.ReminderSettings,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if task.Priority == "" {
		task.Priority = domain.PriorityMedium
	}
	if task.Frequency == "" {
		task.Frequency = domain.FrequencyOnce
	}
	if in.Points != nil {
		task.Points = *in.Points
	}
	if in.IsVisible != nil {
		task.IsVisible = *in.IsVisible
	}
	if in.MaxSubmissions != nil {
		task.MaxSubmissions = *in.MaxSubmissions
	}

	// 4. Expand the series
	var siblings []*domain.Task
	if task.Frequency != domain.FrequencyOnce && task.RecurrencePattern != nil {
		task.SequenceNumber = 1
		base := recurrenceBase(task, now)
		siblings = buildSiblings(task, base, expandOccurrences(base, task.Frequency, task.RecurrencePattern))
	}

	// 5. Persist
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if len(siblings) == 0 {
			_, err := s.taskRepo.Create(ctx, task)
			return err
		}
		rows := append([]*domain.Task{task}, siblings...)
		return s.taskRepo.CreateMany(ctx, rows)
	})
	if err != nil {
		log.Printf("ERROR: Failed to create task for trainee %s: %v", in.TraineeID.Hex(), err)
		return nil, err
	}
	s.metrics.TaskCreated(string(task.TaskType), 1+len(siblings))

	result := &CreateTaskResult{Task: s.view(task, 0, now)}
	for _, sib := range siblings {
		result.SiblingIDs = append(result.SiblingIDs, sib.ID)
	}
	if len(siblings) > 0 {
		log.Printf("INFO: Task %s created with %d recurring siblings", task.ID.Hex(), len(siblings))
	}
	return result, nil
}

func (s *taskService) view(t *domain.Task, submissions int64, now time.Time) TaskView {
	return TaskView{
		Task:            *t,
		IsOverdue:       t.IsOverdue(now),
		EffectiveStatus: t.EffectiveStatus(now),
		SubmissionCount: submissions,
	}
}

// scopeFilter limits a query to what the caller may see.
func scopeFilter(f *repository.TaskFilter, userID primitive.ObjectID, role domain.Role) error {
	switch role {
	case domain.RoleCoach:
		f.CoachID = &userID
	case domain.RoleTrainee:
		f.TraineeID = &userID
		f.VisibleOnly = true
	case domain.RoleAdmin:
	default:
		return ErrTaskAccessDenied
	}
	return nil
}

// applyStatusFilter translates an effective status into stored-status conditions.
func applyStatusFilter(f *repository.TaskFilter, status domain.TaskStatus, now time.Time) error {
	switch status {
	case "":
	case domain.TaskStatusOverdue:
		f.OverdueAt = &now
	case domain.TaskStatusPending, domain.TaskStatusInProgress:
		f.Statuses = []domain.TaskStatus{status}
		f.NotOverdueAt = &now
	case domain.TaskStatusCompleted, domain.TaskStatusCancelled:
		f.Statuses = []domain.TaskStatus{status}
	default:
		return badRequestf("unknown status %q", status)
	}
	return nil
}

func sortField(name string) (repository.TaskSortField, error) {
	switch repository.TaskSortField(name) {
	case "":
		return repository.SortByCreatedAt, nil
	case repository.SortByCreatedAt, repository.SortByDueDate, repository.SortByPriority, repository.SortByPoints:
		return repository.TaskSortField(name), nil
	}
	return "", badRequestf("cannot sort by %q", name)
}

// GetTasks lists the tasks visible to the caller, one page at a time.
func (s *taskService) GetTasks(ctx context.Context, userID primitive.ObjectID, role domain.Role, q TaskQuery) (*TaskPage, error) {
	now := s.now()

	// 1. Scope and filters
	var f repository.TaskFilter
	if q.TraineeID != nil && role != domain.RoleTrainee {
		f.TraineeID = q.TraineeID
	}
	if err := scopeFilter(&f, userID, role); err != nil {
		return nil, err
	}
	if err := applyStatusFilter(&f, q.Status, now); err != nil {
		return nil, err
	}
	if q.TaskType != "" && !q.TaskType.IsValid() {
		return nil, badRequestf("unknown task type %q", q.TaskType)
	}
	if q.Priority != "" && q.Priority.Rank() == 0 {
		return nil, badRequestf("unknown priority %q", q.Priority)
	}
	f.TaskType = q.TaskType
	f.Priority = q.Priority
	f.ParentTaskID = q.ParentTaskID
	f.DueFrom, f.DueTo = q.DueFrom, q.DueTo

	// 2. Sorting
	field, err := sortField(q.SortBy)
	if err != nil {
		return nil, err
	}
	f.SortBy = field
	switch strings.ToLower(q.SortOrder) {
	case "", "desc":
		f.SortDesc = true
	case "asc":
	default:
		return nil, badRequest("sortOrder must be asc or desc")
	}

	// 3. Pagination
	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultTaskPageSize
	}
	if limit > MaxTaskPageSize {
		limit = MaxTaskPageSize
	}
	f.Skip = int64((page - 1) * limit)
	f.Limit = int64(limit)

	// 4. Query
	tasks, total, err := s.taskRepo.Find(ctx, f)
	if err != nil {
		return nil, err
	}
	counts, err := s.countSubmissions(ctx, tasks)
	if err != nil {
		return nil, err
	}

	out := &TaskPage{
		Tasks:      make([]TaskView, 0, len(tasks)),
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}
	for i := range tasks {
		out.Tasks = append(out.Tasks, s.view(&tasks[i], counts[tasks[i].ID], now))
	}
	return out, nil
}

func (s *taskService) countSubmissions(ctx context.Context, tasks []domain.Task) (map[primitive.ObjectID]int64, error) {
	if len(tasks) == 0 {
		return map[primitive.ObjectID]int64{}, nil
	}
	ids := make([]primitive.ObjectID, len(tasks))
	for i := range tasks {
		ids[i] = tasks[i].ID
	}
	return s.submissionRepo.CountByTaskIDs(ctx, ids)
}

// visibleTask loads a task the caller may read. Trainees get NotFound for
// tasks that are not theirs or are hidden; coaches get Forbidden.
func (s *taskService) visibleTask(ctx context.Context, userID primitive.ObjectID, role domain.Role, taskID primitive.ObjectID) (*domain.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	switch role {
	case domain.RoleAdmin:
	case domain.RoleCoach:
		if task.CoachID != userID {
			return nil, ErrTaskAccessDenied
		}
	case domain.RoleTrainee:
		if task.TraineeID != userID || !task.IsVisible {
			return nil, ErrTaskNotFound
		}
	default:
		return nil, ErrTaskAccessDenied
	}
	return task, nil
}

// ownedTask loads a task for a write by its coach.
func (s *taskService) ownedTask(ctx context.Context, coachID, taskID primitive.ObjectID) (*domain.Task, error) {
	return s.visibleTask(ctx, coachID, domain.RoleCoach, taskID)
}

func (s *taskService) GetTask(ctx context.Context, userID primitive.ObjectID, role domain.Role, taskID primitive.ObjectID) (*TaskView, error) {
	task, err := s.visibleTask(ctx, userID, role, taskID)
	if err != nil {
		return nil, err
	}
	n, err := s.submissionRepo.CountByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	v := s.view(task, n, s.now())
	return &v, nil
}

// reopenIfDue clears a stored overdue status once the due date is back in the future.
func reopenIfDue(t *domain.Task, now time.Time) {
	if t.Status != domain.TaskStatusOverdue || t.DueDate == nil || t.DueDate.Before(now) {
		return
	}
	if t.StartedAt != nil {
		t.Status = domain.TaskStatusInProgress
	} else {
		t.Status = domain.TaskStatusPending
	}
}

// UpdateTask applies a partial update. A closed task only accepts visibility changes.
func (s *taskService) UpdateTask(ctx context.Context, coachID, taskID primitive.ObjectID, in UpdateTaskInput) (*TaskView, error) {
	task, err := s.ownedTask(ctx, coachID, taskID)
	if err != nil {
		return nil, err
	}
	now := s.now()

	if task.Status.IsTerminal() {
		onlyVisibility := in.Title == nil && in.Description == nil && in.TaskType == nil && in.Priority == nil &&
			in.Status == nil && in.DueDate == nil && in.StartDate == nil && in.Points == nil && in.Tags == nil &&
			in.RequiresApproval == nil && in.MaxSubmissions == nil && in.AllowLateSubmission == nil &&
			in.TaskConfig == nil && in.ReminderSettings == nil
		if !onlyVisibility {
			return nil, ErrTaskClosed
		}
	}

	// 1. Scalar fields
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, badRequest("title cannot be empty")
		}
		task.Title = title
	}
	if in.Description != nil {
		task.Description = *in.Description
	}
	if in.Priority != nil {
		if in.Priority.Rank() == 0 {
			return nil, badRequestf("unknown priority %q", *in.Priority)
		}
		task.Priority = *in.Priority
	}
	if in.Points != nil {
		if *in.Points < 0 {
			return nil, badRequest("points cannot be negative")
		}
		task.Points = *in.Points
	}
	if in.MaxSubmissions != nil {
		if *in.MaxSubmissions < 1 {
			return nil, badRequest("maxSubmissions must be at least 1")
		}
		task.MaxSubmissions = *in.MaxSubmissions
	}
	if in.IsVisible != nil {
		task.IsVisible = *in.IsVisible
	}
	if in.Tags != nil {
		task.Tags = normalizeTags(in.Tags)
	}
	if in.RequiresApproval != nil {
		task.RequiresApproval = *in.RequiresApproval
	}
	if in.AllowLateSubmission != nil {
		task.AllowLateSubmission = *in.AllowLateSubmission
	}
	if in.ReminderSettings != nil {
		task.ReminderSettings = in.ReminderSettings
	}

	// 2. Dates
	if in.StartDate != nil {
		task.StartDate = in.StartDate
	}
	if in.DueDate != nil {
		task.DueDate = in.DueDate
		reopenIfDue(task, now)
	}
	if task.StartDate != nil && task.DueDate != nil && task.StartDate.After(*task.DueDate) {
		return nil, badRequest("startDate must not be after dueDate")
	}

	// 3. Type and config travel together
	if in.TaskType != nil || in.TaskConfig != nil {
		if in.TaskType != nil && *in.TaskType != task.TaskType {
			n, err := s.submissionRepo.CountByTask(ctx, taskID)
			if err != nil {
				return nil, err
			}
			if n > 0 {
				return nil, badRequest("cannot change the type of a task that has submissions")
			}
			task.TaskType = *in.TaskType
		}
		if in.TaskConfig != nil {
			task.TaskConfig = *in.TaskConfig
		}
		if err := task.TaskConfig.Validate(task.TaskType); err != nil {
			return nil, invalid(err)
		}
		if err := s.checkWorkoutConfig(ctx, coachID, &task.TaskConfig); err != nil {
			return nil, err
		}
	}

	// 4. Status
	if in.Status != nil && *in.Status != task.Status {
		if *in.Status != domain.TaskStatusCancelled {
			return nil, badRequest("status can only be changed to cancelled")
		}
		task.Status = domain.TaskStatusCancelled
	}

	// 5. Save
	if err := s.taskRepo.Update(ctx, task); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	n, err := s.submissionRepo.CountByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	v := s.view(task, n, now)
	return &v, nil
}

// DeleteTask removes a task that nobody has submitted against yet.
func (s *taskService) DeleteTask(ctx context.Context, coachID, taskID primitive.ObjectID) error {
	if _, err := s.ownedTask(ctx, coachID, taskID); err != nil {
		return err
	}
	n, err := s.submissionRepo.CountByTask(ctx, taskID)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrTaskHasSubmissions
	}
	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTaskNotFound
		}
		return err
	}
	log.Printf("INFO: Task %s deleted by coach %s", taskID.Hex(), coachID.Hex())
	return nil
}

// checkPhotoUploads makes sure every referenced upload was confirmed by
// this trainee for this task.
func (s *taskService) checkPhotoUploads(ctx context.Context, traineeID, taskID primitive.ObjectID, data *domain.SubmissionData) error {
	if data.ProgressPhoto == nil {
		return nil
	}
	for _, p := range data.ProgressPhoto.Photos {
		up, err := s.uploadRepo.GetByID(ctx, p.UploadID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return badRequestf("upload %s not found", p.UploadID.Hex())
			}
			return err
		}
		if up.TraineeID != traineeID || up.TaskID != taskID {
			return badRequestf("upload %s does not belong to this task", p.UploadID.Hex())
		}
	}
	return nil
}

// SubmitTask records a trainee's attempt at a task.
func (s *taskService) SubmitTask(ctx context.Context, traineeID primitive.ObjectID, in SubmitTaskInput) (*domain.TaskSubmission, error) {
	// 1. Task, scoped to the trainee
	task, err := s.taskRepo.GetByID(ctx, in.TaskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	if task.TraineeID != traineeID || !task.IsVisible {
		return nil, ErrTaskNotFound
	}
	if task.Status.IsTerminal() {
		return nil, ErrTaskClosed
	}

	// 2. Limits
	prior, err := s.submissionRepo.CountByTaskAndSubmitter(ctx, task.ID, traineeID)
	if err != nil {
		return nil, err
	}
	maxSubs := task.MaxSubmissions
	if maxSubs < 1 {
		maxSubs = 1
	}
	if prior >= int64(maxSubs) {
		return nil, ErrSubmissionLimitReached
	}
	now := s.now()
	isLate := task.DueDate != nil && now.After(*task.DueDate)
	if isLate && !task.AllowLateSubmission {
		return nil, ErrLateSubmissionNotAllowed
	}

	// 3. Payload
	if err := in.SubmissionData.Validate(task.TaskType); err != nil {
		return nil, invalid(err)
	}
	if err := s.checkPhotoUploads(ctx, traineeID, task.ID, &in.SubmissionData); err != nil {
		return nil, err
	}

	sub := &domain.TaskSubmission{
		TaskID:           task.ID,
		SubmittedByID:    traineeID,
		SubmissionData:   in.SubmissionData,
		Notes:            in.Notes,
		Status:           domain.SubmissionSubmitted,
		IsLatest:         true,
		SubmissionNumber: int(prior) + 1,
		IsLate:           isLate,
		SubmittedAt:      now,
		UpdatedAt:        now,
	}
	if !task.RequiresApproval {
		sub.Status = domain.SubmissionApproved
		sub.PointsAwarded = task.Points
	}

	// 4. Persist submission and task together
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.submissionRepo.DemoteLatest(ctx, task.ID, traineeID); err != nil {
			return err
		}
		id, err := s.submissionRepo.Create(ctx, sub)
		if err != nil {
			return err
		}
		sub.ID = id

		if task.Status == domain.TaskStatusPending || task.Status == domain.TaskStatusOverdue {
			task.Status = domain.TaskStatusInProgress
		}
		if task.StartedAt == nil {
			task.StartedAt = &now
		}
		if !task.RequiresApproval {
			completeTask(task, &id, traineeID, sub.PointsAwarded, now)
		}
		return s.taskRepo.Update(ctx, task)
	})
	if err != nil {
		log.Printf("ERROR: Failed to record submission for task %s: %v", task.ID.Hex(), err)
		return nil, err
	}

	s.metrics.SubmissionRecorded(string(task.TaskType), string(sub.Status))
	return sub, nil
}

func completeTask(t *domain.Task, submissionID *primitive.ObjectID, by primitive.ObjectID, points int, now time.Time) {
	t.Status = domain.TaskStatusCompleted
	t.CompletedAt = &now
	t.CompletionData = &domain.CompletionData{
		SubmissionID:  submissionID,
		CompletedAt:   now,
		PointsAwarded: points,
		CompletedBy:   by,
	}
}

// ReviewSubmission lets the owning coach approve, reject or send back a submission.
func (s *taskService) ReviewSubmission(ctx context.Context, coachID, submissionID primitive.ObjectID, in ReviewInput) (*domain.TaskSubmission, error) {
	// 1. Validate Input
	switch in.Status {
	case domain.SubmissionApproved, domain.SubmissionRejected, domain.SubmissionNeedsRevision:
	default:
		return nil, ErrInvalidReviewStatus
	}
	if in.Rating != nil && (*in.Rating < 1 || *in.Rating > 5) {
		return nil, badRequest("rating must be between 1 and 5")
	}
	if in.PointsAwarded != nil && *in.PointsAwarded < 0 {
		return nil, badRequest("pointsAwarded cannot be negative")
	}

	// 2. Load and authorize
	sub, err := s.submissionRepo.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	task, err := s.taskRepo.GetByID(ctx, sub.TaskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	if task.CoachID != coachID {
		return nil, ErrTaskAccessDenied
	}
	if sub.Status != domain.SubmissionSubmitted {
		return nil, ErrSubmissionAlreadyReviewed
	}

	// 3. Apply
	now := s.now()
	points := task.Points
	if in.PointsAwarded != nil {
		points = *in.PointsAwarded
	}
	sub.Status = in.Status
	sub.Feedback = in.Feedback
	sub.Rating = in.Rating
	sub.PointsAwarded = points
	sub.ReviewedByID = &coachID
	sub.ReviewedAt = &now
	sub.UpdatedAt = now

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.submissionRepo.Update(ctx, sub); err != nil {
			return err
		}
		if in.Status != domain.SubmissionApproved || task.Status.IsTerminal() {
			return nil
		}
		completeTask(task, &sub.ID, sub.SubmittedByID, points, now)
		return s.taskRepo.Update(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.SubmissionRecorded(string(task.TaskType), string(sub.Status))
	return sub, nil
}

// GetSubmissions lists a task's submissions, newest first. Trainees only see their own.
func (s *taskService) GetSubmissions(ctx context.Context, userID primitive.ObjectID, role domain.Role, taskID primitive.ObjectID) ([]domain.TaskSubmission, error) {
	if _, err := s.visibleTask(ctx, userID, role, taskID); err != nil {
		return nil, err
	}
	subs, err := s.submissionRepo.GetByTaskID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if role != domain.RoleTrainee {
		return subs, nil
	}
	own := subs[:0]
	for _, sub := range subs {
		if sub.SubmittedByID == userID {
			own = append(own, sub)
		}
	}
	return own, nil
}

// UpdateOverdueTasks persists the overdue status for every open task past its due date.
func (s *taskService) UpdateOverdueTasks(ctx context.Context) (int64, error) {
	n, err := s.taskRepo.MarkOverdue(ctx, s.now())
	if err != nil {
		log.Printf("ERROR: Failed to mark overdue tasks: %v", err)
		return 0, err
	}
	s.metrics.OverdueMarked(n)
	log.Printf("INFO: Marked %d tasks overdue", n)
	return n, nil
}

// BulkTaskAction applies one action to many tasks. Each task succeeds or
// fails on its own; the result lists both.
func (s *taskService) BulkTaskAction(ctx context.Context, userID primitive.ObjectID, role domain.Role, in BulkActionInput) (*BulkActionResult, error) {
	// 1. Validate Input
	if len(in.TaskIDs) == 0 {
		return nil, badRequest("taskIds cannot be empty")
	}
	switch in.Action {
	case BulkComplete, BulkCancel:
	case BulkExtendDueDate:
		if in.DueDate == nil {
			return nil, badRequest("dueDate is required for extend_due_date")
		}
	case BulkChangePriority:
		if in.Priority.Rank() == 0 {
			return nil, badRequest("a valid priority is required for change_priority")
		}
	default:
		return nil, ErrInvalidBulkAction
	}

	// 2. One task at a time
	res := &BulkActionResult{Succeeded: []string{}, Errors: []BulkItemError{}}
	for _, raw := range in.TaskIDs {
		if err := s.applyBulk(ctx, userID, role, raw, in); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, BulkItemError{TaskID: raw, Error: err.Error()})
			continue
		}
		res.Success++
		res.Succeeded = append(res.Succeeded, raw)
	}
	log.Printf("INFO: Bulk %s by %s: %d succeeded, %d failed", in.Action, userID.Hex(), res.Success, res.Failed)
	return res, nil
}

func (s *taskService) applyBulk(ctx context.Context, userID primitive.ObjectID, role domain.Role, rawID string, in BulkActionInput) error {
	id, err := primitive.ObjectIDFromHex(rawID)
	if err != nil {
		return badRequest("invalid task ID")
	}
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTaskNotFound
		}
		return err
	}
	switch role {
	case domain.RoleAdmin:
	case domain.RoleCoach:
		if task.CoachID != userID {
			return ErrTaskAccessDenied
		}
	case domain.RoleTrainee:
		if task.TraineeID != userID {
			return ErrTaskAccessDenied
		}
	default:
		return ErrTaskAccessDenied
	}

	now := s.now()
	switch in.Action {
	case BulkComplete:
		if task.Status.IsTerminal() {
			return ErrTaskClosed
		}
		completeTask(task, nil, userID, task.Points, now)
	case BulkCancel:
		if task.Status.IsTerminal() {
			return ErrTaskClosed
		}
		task.Status = domain.TaskStatusCancelled
	case BulkExtendDueDate:
		if task.Status.IsTerminal() {
			return ErrTaskClosed
		}
		due := *in.DueDate
		task.DueDate = &due
		reopenIfDue(task, now)
	case BulkChangePriority:
		task.Priority = in.Priority
	}
	return s.taskRepo.Update(ctx, task)
}

// GetTaskStats summarises the tasks visible to the caller by effective status.
func (s *taskService) GetTaskStats(ctx context.Context, userID primitive.ObjectID, role domain.Role) (*TaskStats, error) {
	var f repository.TaskFilter
	if err := scopeFilter(&f, userID, role); err != nil {
		return nil, err
	}
	tasks, total, err := s.taskRepo.Find(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("loading tasks for stats: %w", err)
	}

	now := s.now()
	stats := &TaskStats{
		Total:    total,
		ByStatus: make(map[domain.TaskStatus]int64),
		ByType:   make(map[domain.TaskType]int64),
	}
	for i := range tasks {
		t := &tasks[i]
		stats.ByStatus[t.EffectiveStatus(now)]++
		stats.ByType[t.TaskType]++
		if role != domain.RoleTrainee && t.CompletionData != nil {
			stats.PointsAwarded += int64(t.CompletionData.PointsAwarded)
		}
	}

	// Cancelled tasks do not count against completion.
	open := stats.Total - stats.ByStatus[domain.TaskStatusCancelled]
	if open > 0 {
		stats.CompletionRate = math.Round(float64(stats.ByStatus[domain.TaskStatusCompleted])/float64(open)*10000) / 100
	}

	if role == domain.RoleTrainee {
		points, err := s.submissionRepo.SumPointsBySubmitter(ctx, userID)
		if err != nil {
			return nil, err
		}
		stats.PointsAwarded = points
	}
	return stats, nil
}
