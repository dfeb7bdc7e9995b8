package domain

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrConfigBranchMismatch is returned when a union holds a branch that does
// not belong to the task type, or is missing the one that does.
var ErrConfigBranchMismatch = errors.New("config branch does not match task type")

// TaskConfig is a discriminated union keyed by TaskType. Exactly the branch
// matching the task's type is set; every other branch is nil.
type TaskConfig struct {
	Workout       *WorkoutTaskConfig       `bson:"workout,omitempty" json:"workout,omitempty"`
	MealLog       *MealLogTaskConfig       `bson:"mealLog,omitempty" json:"mealLog,omitempty"`
	WeightCheck   *WeightCheckTaskConfig   `bson:"weightCheck,omitempty" json:"weightCheck,omitempty"`
	ProgressPhoto *ProgressPhotoTaskConfig `bson:"progressPhoto,omitempty" json:"progressPhoto,omitempty"`
	Measurement   *MeasurementTaskConfig   `bson:"measurement,omitempty" json:"measurement,omitempty"`
	HabitTracking *HabitTrackingTaskConfig `bson:"habitTracking,omitempty" json:"habitTracking,omitempty"`
	Reflection    *ReflectionTaskConfig    `bson:"reflection,omitempty" json:"reflection,omitempty"`
	Education     *EducationTaskConfig     `bson:"education,omitempty" json:"education,omitempty"`
	GoalSetting   *GoalSettingTaskConfig   `bson:"goalSetting,omitempty" json:"goalSetting,omitempty"`
	Custom        *CustomTaskConfig        `bson:"custom,omitempty" json:"custom,omitempty"`
}

type WorkoutTaskConfig struct {
	WorkoutID            primitive.ObjectID `bson:"workoutId" json:"workoutId"`
	RequireVideo         bool               `bson:"requireVideo,omitempty" json:"requireVideo,omitempty"`
	TargetDurationMins   int                `bson:"targetDurationMins,omitempty" json:"targetDurationMins,omitempty"`
	TrackPerceivedEffort bool               `bson:"trackPerceivedEffort,omitempty" json:"trackPerceivedEffort,omitempty"`
}

type MealLogTaskConfig struct {
	RequiredMeals  []string `bson:"requiredMeals,omitempty" json:"requiredMeals,omitempty"` // breakfast, lunch, ...
	TrackCalories  bool     `bson:"trackCalories,omitempty" json:"trackCalories,omitempty"`
	TrackMacros    bool     `bson:"trackMacros,omitempty" json:"trackMacros,omitempty"`
	TargetCalories int      `bson:"targetCalories,omitempty" json:"targetCalories,omitempty"`
	RequirePhotos  bool     `bson:"requirePhotos,omitempty" json:"requirePhotos,omitempty"`
}

type WeightCheckTaskConfig struct {
	Unit         string `bson:"unit" json:"unit"` // kg | lb
	TrackBodyFat bool   `bson:"trackBodyFat,omitempty" json:"trackBodyFat,omitempty"`
	TimeOfDay    string `bson:"timeOfDay,omitempty" json:"timeOfDay,omitempty"`
}

type ProgressPhotoTaskConfig struct {
	RequiredAngles []string `bson:"requiredAngles" json:"requiredAngles"` // front, side, back
	Instructions   string   `bson:"instructions,omitempty" json:"instructions,omitempty"`
}

type MeasurementTaskConfig struct {
	MeasurementTypes []string `bson:"measurementTypes" json:"measurementTypes"` // waist, chest, hips, ...
	Unit             string   `bson:"unit,omitempty" json:"unit,omitempty"`     // cm | in
}

type HabitTrackingTaskConfig struct {
	Habits []HabitDefinition `bson:"habits" json:"habits"`
}

type HabitDefinition struct {
	Name        string  `bson:"name" json:"name"`
	TargetValue float64 `bson:"targetValue,omitempty" json:"targetValue,omitempty"`
	Unit        string  `bson:"unit,omitempty" json:"unit,omitempty"`
}

type ReflectionTaskConfig struct {
	Prompts   []string `bson:"prompts" json:"prompts"`
	MinLength int      `bson:"minLength,omitempty" json:"minLength,omitempty"`
}

type EducationTaskConfig struct {
	ContentTitle string `bson:"contentTitle" json:"contentTitle"`
	ContentURL   string `bson:"contentUrl,omitempty" json:"contentUrl,omitempty"`
	ContentType  string `bson:"contentType,omitempty" json:"contentType,omitempty"` // article, video, ...
	RequireQuiz  bool   `bson:"requireQuiz,omitempty" json:"requireQuiz,omitempty"`
}

type GoalSettingTaskConfig struct {
	Categories []string `bson:"categories,omitempty" json:"categories,omitempty"`
	MaxGoals   int      `bson:"maxGoals,omitempty" json:"maxGoals,omitempty"`
	Timeframe  string   `bson:"timeframe,omitempty" json:"timeframe,omitempty"`
}

type CustomTaskConfig struct {
	Instructions string   `bson:"instructions" json:"instructions"`
	Fields       []string `bson:"fields,omitempty" json:"fields,omitempty"`
}

// branches returns the populated branch names in declaration order.
func (c *TaskConfig) branches() []TaskType {
	var set []TaskType
	add := func(ok bool, t TaskType) {
		if ok {
			set = append(set, t)
		}
	}
	add(c.Workout != nil, TaskTypeWorkout)
	add(c.MealLog != nil, TaskTypeMealLog)
	add(c.WeightCheck != nil, TaskTypeWeightCheck)
	add(c.ProgressPhoto != nil, TaskTypeProgressPhoto)
	add(c.Measurement != nil, TaskTypeMeasurement)
	add(c.HabitTracking != nil, TaskTypeHabitTracking)
	add(c.Reflection != nil, TaskTypeReflection)
	add(c.Education != nil, TaskTypeEducation)
	add(c.GoalSetting != nil, TaskTypeGoalSetting)
	add(c.Custom != nil, TaskTypeCustom)
	return set
}

// Validate checks that exactly the branch for taskType is populated and that
// its required fields are present.
func (c *TaskConfig) Validate(taskType TaskType) error {
	if !taskType.IsValid() {
		return fmt.Errorf("unknown task type %q", taskType)
	}
	set := c.branches()
	if len(set) != 1 || set[0] != taskType {
		return fmt.Errorf("%w: %s task requires exactly the %s config, got %v", ErrConfigBranchMismatch, taskType, taskType, set)
	}

	switch taskType {
	case TaskTypeWorkout:
		if c.Workout.WorkoutID.IsZero() {
			return errors.New("workout config requires workoutId")
		}
	case TaskTypeWeightCheck:
		if c.WeightCheck.Unit != "kg" && c.WeightCheck.Unit != "lb" {
			return errors.New("weight_check config requires unit kg or lb")
		}
	case TaskTypeProgressPhoto:
		if len(c.ProgressPhoto.RequiredAngles) == 0 {
			return errors.New("progress_photo config requires at least one angle")
		}
	case TaskTypeMeasurement:
		if len(c.Measurement.MeasurementTypes) == 0 {
			return errors.New("measurement config requires at least one measurement type")
		}
	case TaskTypeHabitTracking:
		if len(c.HabitTracking.Habits) == 0 {
			return errors.New("habit_tracking config requires at least one habit")
		}
		for i, h := range c.HabitTracking.Habits {
			if h.Name == "" {
				return fmt.Errorf("habit %d requires a name", i)
			}
		}
	case TaskTypeReflection:
		if len(c.Reflection.Prompts) == 0 {
			return errors.New("reflection config requires at least one prompt")
		}
	case TaskTypeEducation:
		if c.Education.ContentTitle == "" {
			return errors.New("education config requires contentTitle")
		}
	case TaskTypeCustom:
		if c.Custom.Instructions == "" {
			return errors.New("custom config requires instructions")
		}
	case TaskTypeMealLog, TaskTypeGoalSetting:
		// branch presence is enough
	}
	return nil
}
