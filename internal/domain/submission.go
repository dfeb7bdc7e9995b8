package domain

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SubmissionStatus string

const (
	SubmissionSubmitted     SubmissionStatus = "submitted"
	SubmissionApproved      SubmissionStatus = "approved"
	SubmissionRejected      SubmissionStatus = "rejected"
	SubmissionNeedsRevision SubmissionStatus = "needs_revision"
)

// TaskSubmission is one attempt by a trainee at a task. Only one submission
// per (task, trainee) pair has IsLatest set.
type TaskSubmission struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TaskID           primitive.ObjectID `bson:"taskId" json:"taskId"`
	SubmittedByID    primitive.ObjectID `bson:"submittedById" json:"submittedById"`
	SubmissionData   SubmissionData     `bson:"submissionData" json:"submissionData"`
	Notes            string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Status           SubmissionStatus   `bson:"status" json:"status"`
	IsLatest         bool               `bson:"isLatest" json:"isLatest"`
	SubmissionNumber int                `bson:"submissionNumber" json:"submissionNumber"`
	IsLate           bool               `bson:"isLate" json:"isLate"`
	PointsAwarded    int                `bson:"pointsAwarded" json:"pointsAwarded"`

	// Review
	ReviewedByID *primitive.ObjectID `bson:"reviewedById,omitempty" json:"reviewedById,omitempty"`
	ReviewedAt   *time.Time          `bson:"reviewedAt,omitempty" json:"reviewedAt,omitempty"`
	Feedback     string              `bson:"feedback,omitempty" json:"feedback,omitempty"`
	Rating       *int                `bson:"rating,omitempty" json:"rating,omitempty"` // 1-5

	SubmittedAt time.Time `bson:"submittedAt" json:"submittedAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// SubmissionData is the trainee-side counterpart of TaskConfig: one branch
// per task type, exactly the matching one populated.
type SubmissionData struct {
	Workout       *WorkoutSubmission       `bson:"workout,omitempty" json:"workout,omitempty"`
	MealLog       *MealLogSubmission       `bson:"mealLog,omitempty" json:"mealLog,omitempty"`
	WeightCheck   *WeightCheckSubmission   `bson:"weightCheck,omitempty" json:"weightCheck,omitempty"`
	ProgressPhoto *ProgressPhotoSubmission `bson:"progressPhoto,omitempty" json:"progressPhoto,omitempty"`
	Measurement   *MeasurementSubmission   `bson:"measurement,omitempty" json:"measurement,omitempty"`
	HabitTracking *HabitTrackingSubmission `bson:"habitTracking,omitempty" json:"habitTracking,omitempty"`
	Reflection    *ReflectionSubmission    `bson:"reflection,omitempty" json:"reflection,omitempty"`
	Education     *EducationSubmission     `bson:"education,omitempty" json:"education,omitempty"`
	GoalSetting   *GoalSettingSubmission   `bson:"goalSetting,omitempty" json:"goalSetting,omitempty"`
	Custom        *CustomSubmission        `bson:"custom,omitempty" json:"custom,omitempty"`
}

type WorkoutSubmission struct {
	DurationMinutes    int           `bson:"durationMinutes" json:"durationMinutes"`
	ExercisesCompleted []ExerciseLog `bson:"exercisesCompleted,omitempty" json:"exercisesCompleted,omitempty"`
	CaloriesBurned     int           `bson:"caloriesBurned,omitempty" json:"caloriesBurned,omitempty"`
	PerceivedEffort    int           `bson:"perceivedEffort,omitempty" json:"perceivedEffort,omitempty"` // 1-10
}

type ExerciseLog struct {
	Name     string  `bson:"name" json:"name"`
	Sets     int     `bson:"sets,omitempty" json:"sets,omitempty"`
	Reps     int     `bson:"reps,omitempty" json:"reps,omitempty"`
	WeightKg float64 `bson:"weightKg,omitempty" json:"weightKg,omitempty"`
}

type MealLogSubmission struct {
	Meals []MealEntry `bson:"meals" json:"meals"`
}

type MealEntry struct {
	MealType string  `bson:"mealType" json:"mealType"`
	Foods    string  `bson:"foods,omitempty" json:"foods,omitempty"`
	Calories int     `bson:"calories,omitempty" json:"calories,omitempty"`
	ProteinG float64 `bson:"proteinG,omitempty" json:"proteinG,omitempty"`
	CarbsG   float64 `bson:"carbsG,omitempty" json:"carbsG,omitempty"`
	FatG     float64 `bson:"fatG,omitempty" json:"fatG,omitempty"`
}

type WeightCheckSubmission struct {
	Weight         float64  `bson:"weight" json:"weight"`
	Unit           string   `bson:"unit,omitempty" json:"unit,omitempty"`
	BodyFatPercent *float64 `bson:"bodyFatPercent,omitempty" json:"bodyFatPercent,omitempty"`
}

type ProgressPhotoSubmission struct {
	Photos []ProgressPhoto `bson:"photos" json:"photos"`
}

type ProgressPhoto struct {
	UploadID primitive.ObjectID `bson:"uploadId" json:"uploadId"`
	Angle    string             `bson:"angle,omitempty" json:"angle,omitempty"`
}

type MeasurementSubmission struct {
	Values map[string]float64 `bson:"values" json:"values"`
	Unit   string             `bson:"unit,omitempty" json:"unit,omitempty"`
}

type HabitTrackingSubmission struct {
	Habits []HabitCheck `bson:"habits" json:"habits"`
}

type HabitCheck struct {
	Name      string  `bson:"name" json:"name"`
	Completed bool    `bson:"completed" json:"completed"`
	Value     float64 `bson:"value,omitempty" json:"value,omitempty"`
}

type ReflectionSubmission struct {
	Answers []ReflectionAnswer `bson:"answers" json:"answers"`
	Mood    int                `bson:"mood,omitempty" json:"mood,omitempty"`
}

type ReflectionAnswer struct {
	Prompt string `bson:"prompt" json:"prompt"`
	Answer string `bson:"answer" json:"answer"`
}

type EducationSubmission struct {
	Completed bool   `bson:"completed" json:"completed"`
	QuizScore *int   `bson:"quizScore,omitempty" json:"quizScore,omitempty"`
	Takeaways string `bson:"takeaways,omitempty" json:"takeaways,omitempty"`
}

type GoalSettingSubmission struct {
	Goals []GoalEntry `bson:"goals" json:"goals"`
}

type GoalEntry struct {
	Title      string     `bson:"title" json:"title"`
	Category   string     `bson:"category,omitempty" json:"category,omitempty"`
	TargetDate *time.Time `bson:"targetDate,omitempty" json:"targetDate,omitempty"`
	Measure    string     `bson:"measure,omitempty" json:"measure,omitempty"`
}

type CustomSubmission struct {
	Response string            `bson:"response,omitempty" json:"response,omitempty"`
	Fields   map[string]string `bson:"fields,omitempty" json:"fields,omitempty"`
}

func (d *SubmissionData) branches() []TaskType {
	var set []TaskType
	add := func(ok bool, t TaskType) {
		if ok {
			set = append(set, t)
		}
	}
	add(d.Workout != nil, TaskTypeWorkout)
	add(d.MealLog != nil, TaskTypeMealLog)
	add(d.WeightCheck != nil, TaskTypeWeightCheck)
	add(d.ProgressPhoto != nil, TaskTypeProgressPhoto)
	add(d.Measurement != nil, TaskTypeMeasurement)
	add(d.HabitTracking != nil, TaskTypeHabitTracking)
	add(d.Reflection != nil, TaskTypeReflection)
	add(d.Education != nil, TaskTypeEducation)
	add(d.GoalSetting != nil, TaskTypeGoalSetting)
	add(d.Custom != nil, TaskTypeCustom)
	return set
}

// Validate checks the payload against the task's type. Every type is checked.
func (d *SubmissionData) Validate(taskType TaskType) error {
	set := d.branches()
	if len(set) != 1 || set[0] != taskType {
		return fmt.Errorf("%w: %s submission requires exactly the %s data, got %v", ErrConfigBranchMismatch, taskType, taskType, set)
	}

	switch taskType {
	case TaskTypeWorkout:
		if d.Workout.DurationMinutes <= 0 {
			return errors.New("workout submission requires a positive durationMinutes")
		}
		if d.Workout.PerceivedEffort < 0 || d.Workout.PerceivedEffort > 10 {
			return errors.New("perceivedEffort must be between 1 and 10")
		}
	case TaskTypeMealLog:
		if len(d.MealLog.Meals) == 0 {
			return errors.New("meal_log submission requires at least one meal")
		}
	case TaskTypeWeightCheck:
		if d.WeightCheck.Weight <= 0 {
			return errors.New("weight_check submission requires a positive weight")
		}
	case TaskTypeProgressPhoto:
		if len(d.ProgressPhoto.Photos) == 0 {
			return errors.New("progress_photo submission requires at least one photo")
		}
		for i, p := range d.ProgressPhoto.Photos {
			if p.UploadID.IsZero() {
				return fmt.Errorf("photo %d requires an uploadId", i)
			}
		}
	case TaskTypeMeasurement:
		if len(d.Measurement.Values) == 0 {
			return errors.New("measurement submission requires at least one value")
		}
	case TaskTypeHabitTracking:
		if len(d.HabitTracking.Habits) == 0 {
			return errors.New("habit_tracking submission requires at least one habit entry")
		}
	case TaskTypeReflection:
		if len(d.Reflection.Answers) == 0 {
			return errors.New("reflection submission requires at least one answer")
		}
	case TaskTypeEducation:
		if !d.Education.Completed {
			return errors.New("education submission must mark the content as completed")
		}
	case TaskTypeGoalSetting:
		if len(d.GoalSetting.Goals) == 0 {
			return errors.New("goal_setting submission requires at least one goal")
		}
	case TaskTypeCustom:
		// free-form
	}
	return nil
}
