package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssignmentStatus type for the template assignment lifecycle:
// scheduled -> active -> (paused <-> active) -> completed | cancelled.
type AssignmentStatus string

const (
	AssignmentScheduled AssignmentStatus = "scheduled"
	AssignmentActive    AssignmentStatus = "active"
	AssignmentPaused    AssignmentStatus = "paused"
	AssignmentCompleted AssignmentStatus = "completed"
	AssignmentCancelled AssignmentStatus = "cancelled"
)

// LiveAssignmentStatuses are the statuses that block archiving a template.
var LiveAssignmentStatuses = []AssignmentStatus{AssignmentScheduled, AssignmentActive, AssignmentPaused}

// TemplateAssignment binds a Template to a Trainee for a date range.
type TemplateAssignment struct {
	ID             primitive.ObjectID        `bson:"_id,omitempty" json:"id"`
	TemplateID     primitive.ObjectID        `bson:"templateId" json:"templateId"`
	TraineeID      primitive.ObjectID        `bson:"traineeId" json:"traineeId"`
	CoachID        primitive.ObjectID        `bson:"coachId" json:"coachId"` // Denormalized for easier queries/auth
	StartDate      time.Time                 `bson:"startDate" json:"startDate"`
	EndDate        time.Time                 `bson:"endDate" json:"endDate"`
	Status         AssignmentStatus          `bson:"status" json:"status"`
	Customizations *AssignmentCustomizations `bson:"customizations,omitempty" json:"customizations,omitempty"`
	Progress       AssignmentProgress        `bson:"progress" json:"progress"`
	Notes          string                    `bson:"notes,omitempty" json:"notes,omitempty"`
	PausedAt       *time.Time                `bson:"pausedAt,omitempty" json:"pausedAt,omitempty"`
	CompletedAt    *time.Time                `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CancelledAt    *time.Time                `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	AssignedAt     time.Time                 `bson:"assignedAt" json:"assignedAt"`
	UpdatedAt      time.Time                 `bson:"updatedAt" json:"updatedAt"`
}

// AssignmentCustomizations are per-trainee deviations from the template.
type AssignmentCustomizations struct {
	WorkoutSwaps         []WorkoutSwap     `bson:"workoutSwaps,omitempty" json:"workoutSwaps,omitempty"`
	MealSwaps            []MealSwap        `bson:"mealSwaps,omitempty" json:"mealSwaps,omitempty"`
	NutritionAdjustments *NutritionTargets `bson:"nutritionAdjustments,omitempty" json:"nutritionAdjustments,omitempty"`
	Notes                string            `bson:"notes,omitempty" json:"notes,omitempty"`
}

type WorkoutSwap struct {
	Week              int                `bson:"week" json:"week"`
	Day               int                `bson:"day" json:"day"`
	OriginalWorkoutID primitive.ObjectID `bson:"originalWorkoutId" json:"originalWorkoutId"`
	NewWorkoutID      primitive.ObjectID `bson:"newWorkoutId" json:"newWorkoutId"`
}

type MealSwap struct {
	Week     int          `bson:"week" json:"week"`
	Day      int          `bson:"day" json:"day"`
	MealType string       `bson:"mealType" json:"mealType"`
	NewMeal  TemplateMeal `bson:"newMeal" json:"newMeal"`
}

// AssignmentProgress is the progress snapshot merged by UpdateAssignmentProgress.
type AssignmentProgress struct {
	CurrentWeek       int              `bson:"currentWeek" json:"currentWeek"`
	CurrentDay        int              `bson:"currentDay" json:"currentDay"`
	CompletedWorkouts int              `bson:"completedWorkouts" json:"completedWorkouts"`
	MissedWorkouts    int              `bson:"missedWorkouts" json:"missedWorkouts"`
	CompletedMeals    int              `bson:"completedMeals" json:"completedMeals"`
	MissedMeals       int              `bson:"missedMeals" json:"missedMeals"`
	WorkoutAdherence  float64          `bson:"workoutAdherence" json:"workoutAdherence"`
	MealAdherence     float64          `bson:"mealAdherence" json:"mealAdherence"`
	WeeklyProgress    []WeeklyProgress `bson:"weeklyProgress,omitempty" json:"weeklyProgress,omitempty"`
	Rating            *int             `bson:"rating,omitempty" json:"rating,omitempty"` // 1-5, set by the trainee
	Feedback          string           `bson:"feedback,omitempty" json:"feedback,omitempty"`
	LastUpdated       *time.Time       `bson:"lastUpdated,omitempty" json:"lastUpdated,omitempty"`
}

// WeeklyProgress holds one entry per week number.
type WeeklyProgress struct {
	Week              int      `bson:"week" json:"week"`
	WorkoutAdherence  float64  `bson:"workoutAdherence" json:"workoutAdherence"`
	MealAdherence     float64  `bson:"mealAdherence" json:"mealAdherence"`
	WeightChange      *float64 `bson:"weightChange,omitempty" json:"weightChange,omitempty"`
	EnergyLevel       *int     `bson:"energyLevel,omitempty" json:"energyLevel,omitempty"`
	SatisfactionLevel *int     `bson:"satisfactionLevel,omitempty" json:"satisfactionLevel,omitempty"`
	Notes             string   `bson:"notes,omitempty" json:"notes,omitempty"`
}
