package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TemplateStatus string

const (
	TemplateDraft    TemplateStatus = "draft"
	TemplateActive   TemplateStatus = "active"
	TemplateArchived TemplateStatus = "archived"
)

// Template is a coach-owned multi-week program that can be assigned to
// trainees and recommended to them.
type Template struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CoachID       primitive.ObjectID `bson:"coachId" json:"coachId"`
	Name          string             `bson:"name" json:"name"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	Category      string             `bson:"category,omitempty" json:"category,omitempty"`
	DurationWeeks int                `bson:"durationWeeks" json:"durationWeeks"`
	Status        TemplateStatus     `bson:"status" json:"status"`
	Tags          []string           `bson:"tags,omitempty" json:"tags,omitempty"`

	Schedule         []TemplateWeek    `bson:"schedule" json:"schedule"`
	TargetCriteria   TargetCriteria    `bson:"targetCriteria" json:"targetCriteria"`
	NutritionTargets *NutritionTargets `bson:"nutritionTargets,omitempty" json:"nutritionTargets,omitempty"`
	FitnessTargets   *FitnessTargets   `bson:"fitnessTargets,omitempty" json:"fitnessTargets,omitempty"`

	// Aggregate stats, maintained by the assignment service.
	UsageCount    int     `bson:"usageCount" json:"usageCount"`
	AverageRating float64 `bson:"averageRating" json:"averageRating"`
	SuccessRate   float64 `bson:"successRate" json:"successRate"`

	PublishedAt *time.Time `bson:"publishedAt,omitempty" json:"publishedAt,omitempty"`
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// TemplateWeek is one week of a template's schedule.
type TemplateWeek struct {
	Week int           `bson:"week" json:"week"`
	Days []TemplateDay `bson:"days" json:"days"`
}

// TemplateDay holds the workouts and meals planned for one day (1=Monday .. 7=Sunday).
type TemplateDay struct {
	Day        int                  `bson:"day" json:"day"`
	WorkoutIDs []primitive.ObjectID `bson:"workoutIds,omitempty" json:"workoutIds,omitempty"`
	Meals      []TemplateMeal       `bson:"meals,omitempty" json:"meals,omitempty"`
	RestDay    bool                 `bson:"restDay" json:"restDay"`
	Notes      string               `bson:"notes,omitempty" json:"notes,omitempty"`
}

type TemplateMeal struct {
	MealType string `bson:"mealType" json:"mealType"`
	Name     string `bson:"name" json:"name"`
	Calories int    `bson:"calories,omitempty" json:"calories,omitempty"`
}

// TargetCriteria describes the trainees a template is built for.
type TargetCriteria struct {
	AgeMin              int          `bson:"ageMin,omitempty" json:"ageMin,omitempty"`
	AgeMax              int          `bson:"ageMax,omitempty" json:"ageMax,omitempty"`
	Gender              string       `bson:"gender,omitempty" json:"gender,omitempty"`
	FitnessLevel        FitnessLevel `bson:"fitnessLevel,omitempty" json:"fitnessLevel,omitempty"`
	Goals               []string     `bson:"goals,omitempty" json:"goals,omitempty"`
	Equipment           []string     `bson:"equipment,omitempty" json:"equipment,omitempty"`
	MinMinutesPerDay    int          `bson:"minMinutesPerDay,omitempty" json:"minMinutesPerDay,omitempty"`
	MinDaysPerWeek      int          `bson:"minDaysPerWeek,omitempty" json:"minDaysPerWeek,omitempty"`
	MedicalExclusions   []string     `bson:"medicalExclusions,omitempty" json:"medicalExclusions,omitempty"`
	DietaryRestrictions []string     `bson:"dietaryRestrictions,omitempty" json:"dietaryRestrictions,omitempty"`
}

type NutritionTargets struct {
	DailyCalories int     `bson:"dailyCalories,omitempty" json:"dailyCalories,omitempty"`
	ProteinG      float64 `bson:"proteinG,omitempty" json:"proteinG,omitempty"`
	CarbsG        float64 `bson:"carbsG,omitempty" json:"carbsG,omitempty"`
	FatG          float64 `bson:"fatG,omitempty" json:"fatG,omitempty"`
	WaterLiters   float64 `bson:"waterLiters,omitempty" json:"waterLiters,omitempty"`
}

type FitnessTargets struct {
	WorkoutsPerWeek    int      `bson:"workoutsPerWeek,omitempty" json:"workoutsPerWeek,omitempty"`
	MinutesPerWorkout  int      `bson:"minutesPerWorkout,omitempty" json:"minutesPerWorkout,omitempty"`
	TargetWeightChange float64  `bson:"targetWeightChange,omitempty" json:"targetWeightChange,omitempty"` // kg over the whole program
	FocusAreas         []string `bson:"focusAreas,omitempty" json:"focusAreas,omitempty"`
}
