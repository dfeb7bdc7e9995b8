package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskType is the kind of work a task asks for. It also selects which branch
// of TaskConfig and SubmissionData is populated.
type TaskType string

const (
	TaskTypeWorkout       TaskType = "workout"
	TaskTypeMealLog       TaskType = "meal_log"
	TaskTypeWeightCheck   TaskType = "weight_check"
	TaskTypeProgressPhoto TaskType = "progress_photo"
	TaskTypeMeasurement   TaskType = "measurement"
	TaskTypeHabitTracking TaskType = "habit_tracking"
	TaskTypeReflection    TaskType = "reflection"
	TaskTypeEducation     TaskType = "education"
	TaskTypeGoalSetting   TaskType = "goal_setting"
	TaskTypeCustom        TaskType = "custom"
)

// TaskTypes lists every task type in declaration order.
var TaskTypes = []TaskType{
	TaskTypeWorkout, TaskTypeMealLog, TaskTypeWeightCheck, TaskTypeProgressPhoto, TaskTypeMeasurement,
	TaskTypeHabitTracking, TaskTypeReflection, TaskTypeEducation, TaskTypeGoalSetting, TaskTypeCustom,
}

// defaultTaskPoints is the point value a task gets when the coach does not set one.
var defaultTaskPoints = map[TaskType]int{
	TaskTypeWorkout:       50,
	TaskTypeMealLog:       30,
	TaskTypeWeightCheck:   20,
	TaskTypeProgressPhoto: 40,
	TaskTypeMeasurement:   25,
	TaskTypeHabitTracking: 35,
	TaskTypeReflection:    25,
	TaskTypeEducation:     30,
	TaskTypeGoalSetting:   40,
	TaskTypeCustom:        20,
}

// DefaultPoints returns the default point value for t, or 0 for an unknown type.
func DefaultPoints(t TaskType) int {
	return defaultTaskPoints[t]
}

// IsValid reports whether t is one of the known task types.
func (t TaskType) IsValid() bool {
	_, ok := defaultTaskPoints[t]
	return ok
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// Rank orders priorities for sorting, low=1 .. urgent=4.
func (p TaskPriority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityUrgent:
		return 4
	}
	return 0
}

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusOverdue    TaskStatus = "overdue"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// IsTerminal reports whether no further transition is allowed out of s.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusCancelled
}

type TaskFrequency string

const (
	FrequencyOnce    TaskFrequency = "once"
	FrequencyDaily   TaskFrequency = "daily"
	FrequencyWeekly  TaskFrequency = "weekly"
	FrequencyMonthly TaskFrequency = "monthly"
	FrequencyCustom  TaskFrequency = "custom"
)

// Task is a unit of work a coach assigns to one trainee.
type Task struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	TaskType    TaskType           `bson:"taskType" json:"taskType"`
	CoachID     primitive.ObjectID `bson:"coachId" json:"coachId"`
	TraineeID   primitive.ObjectID `bson:"traineeId" json:"traineeId"`
	Priority    TaskPriority       `bson:"priority" json:"priority"`
	Status      TaskStatus         `bson:"status" json:"status"` // Stored status; see EffectiveStatus
	Frequency   TaskFrequency      `bson:"frequency" json:"frequency"`
	DueDate     *time.Time         `bson:"dueDate,omitempty" json:"dueDate,omitempty"`
	StartDate   *time.Time         `bson:"startDate,omitempty" json:"startDate,omitempty"`
	Points      int                `bson:"points" json:"points"`
	IsVisible   bool               `bson:"isVisible" json:"isVisible"`
	Tags        []string           `bson:"tags,omitempty" json:"tags,omitempty"`

	RequiresApproval    bool `bson:"requiresApproval" json:"requiresApproval"`
	MaxSubmissions      int  `bson:"maxSubmissions" json:"maxSubmissions"`
	AllowLateSubmission bool `bson:"allowLateSubmission" json:"allowLateSubmission"`

	TaskConfig        TaskConfig         `bson:"taskConfig" json:"taskConfig"`
	RecurrencePattern *RecurrencePattern `bson:"recurrencePattern,omitempty" json:"recurrencePattern,omitempty"`
	ReminderSettings  *ReminderSettings  `bson:"reminderSettings,omitempty" json:"reminderSettings,omitempty"`

	// Recurring tasks: siblings point at the first row of the series.
	ParentTaskID   *primitive.ObjectID `bson:"parentTaskId,omitempty" json:"parentTaskId,omitempty"`
	SequenceNumber int                 `bson:"sequenceNumber,omitempty" json:"sequenceNumber,omitempty"`

	StartedAt      *time.Time      `bson:"startedAt,omitempty" json:"startedAt,omitempty"`
	CompletedAt    *time.Time      `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CompletionData *CompletionData `bson:"completionData,omitempty" json:"completionData,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// IsOverdue is computed at read time and never stored. A completed or
// cancelled task is never overdue.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Status.IsTerminal() {
		return false
	}
	return t.DueDate.Before(now)
}

// EffectiveStatus masks the stored status with overdue when IsOverdue holds.
func (t *Task) EffectiveStatus(now time.Time) TaskStatus {
	if t.IsOverdue(now) {
		return TaskStatusOverdue
	}
	return t.Status
}

// RecurrencePattern controls how sibling tasks are generated.
type RecurrencePattern struct {
	Interval       int         `bson:"interval" json:"interval"`
	DaysOfWeek     []int       `bson:"daysOfWeek,omitempty" json:"daysOfWeek,omitempty"` // 0=Sunday .. 6=Saturday
	EndDate        *time.Time  `bson:"endDate,omitempty" json:"endDate,omitempty"`
	MaxOccurrences int         `bson:"maxOccurrences,omitempty" json:"maxOccurrences,omitempty"`
	Exceptions     []time.Time `bson:"exceptions,omitempty" json:"exceptions,omitempty"`
}

type ReminderSettings struct {
	Enabled       bool     `bson:"enabled" json:"enabled"`
	HoursBefore   []int    `bson:"hoursBefore,omitempty" json:"hoursBefore,omitempty"`
	Channels      []string `bson:"channels,omitempty" json:"channels,omitempty"` // e.g. "push", "email"
	CustomMessage string   `bson:"customMessage,omitempty" json:"customMessage,omitempty"`
}

// CompletionData is the snapshot written when a task reaches completed.
type CompletionData struct {
	SubmissionID  *primitive.ObjectID `bson:"submissionId,omitempty" json:"submissionId,omitempty"`
	CompletedAt   time.Time           `bson:"completedAt" json:"completedAt"`
	PointsAwarded int                 `bson:"pointsAwarded" json:"pointsAwarded"`
	CompletedBy   primitive.ObjectID  `bson:"completedBy" json:"completedBy"`
}
