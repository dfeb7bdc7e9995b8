package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Workout is a reusable session in a coach's library. Workout tasks and
// template schedule days point at it.
type Workout struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CoachID         primitive.ObjectID `bson:"coachId" json:"coachId"` // Owner
	Name            string             `bson:"name" json:"name"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"`
	Difficulty      FitnessLevel       `bson:"difficulty,omitempty" json:"difficulty,omitempty"`
	DurationMinutes int                `bson:"durationMinutes,omitempty" json:"durationMinutes,omitempty"`
	Exercises       []WorkoutExercise  `bson:"exercises,omitempty" json:"exercises,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// WorkoutExercise is one line of a workout.
type WorkoutExercise struct {
	Name        string `bson:"name" json:"name"`
	Sets        int    `bson:"sets,omitempty" json:"sets,omitempty"`
	Reps        string `bson:"reps,omitempty" json:"reps,omitempty"` // e.g. "8-12", "AMRAP"
	RestSeconds int    `bson:"restSeconds,omitempty" json:"restSeconds,omitempty"`
	Notes       string `bson:"notes,omitempty" json:"notes,omitempty"`
}
