package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RoleCoach   Role = "coach"
	RoleTrainee Role = "trainee"
	RoleAdmin   Role = "admin"
)

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	return r == RoleCoach || r == RoleTrainee || r == RoleAdmin
}

// FitnessLevel is the self-reported training experience of a trainee.
type FitnessLevel string

const (
	FitnessBeginner     FitnessLevel = "beginner"
	FitnessIntermediate FitnessLevel = "intermediate"
	FitnessAdvanced     FitnessLevel = "advanced"
)

// IsValid reports whether l is one of the known levels. The empty level is not valid.
func (l FitnessLevel) IsValid() bool {
	return l == FitnessBeginner || l == FitnessIntermediate || l == FitnessAdvanced
}

// User represents a user in the system (a Coach, a Trainee or an Admin).
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // Should be unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`

	// --- Coach-specific ---
	TraineeIDs []primitive.ObjectID `bson:"traineeIds,omitempty" json:"traineeIds,omitempty"`

	// --- Trainee-specific ---
	CoachID *primitive.ObjectID `bson:"coachId,omitempty" json:"coachId,omitempty"`
	Profile *TraineeProfile     `bson:"profile,omitempty" json:"profile,omitempty"`
}

// TraineeProfile is what the template recommender matches against.
type TraineeProfile struct {
	Age                    int          `bson:"age" json:"age"`
	Gender                 string       `bson:"gender,omitempty" json:"gender,omitempty"`
	FitnessLevel           FitnessLevel `bson:"fitnessLevel" json:"fitnessLevel"`
	Goals                  []string     `bson:"goals,omitempty" json:"goals,omitempty"`
	WeightKg               float64      `bson:"weightKg,omitempty" json:"weightKg,omitempty"`
	HeightCm               float64      `bson:"heightCm,omitempty" json:"heightCm,omitempty"`
	Equipment              []string     `bson:"equipment,omitempty" json:"equipment,omitempty"`
	DietaryRestrictions    []string     `bson:"dietaryRestrictions,omitempty" json:"dietaryRestrictions,omitempty"`
	AvailableMinutesPerDay int          `bson:"availableMinutesPerDay" json:"availableMinutesPerDay"`
	AvailableDaysPerWeek   int          `bson:"availableDaysPerWeek" json:"availableDaysPerWeek"`
}

func (u *User) IsCoach() bool {
	return u.Role == RoleCoach
}

func (u *User) IsTrainee() bool {
	return u.Role == RoleTrainee
}

// ManagesTrainee reports whether traineeID is on this coach's roster.
func (u *User) ManagesTrainee(traineeID primitive.ObjectID) bool {
	for _, id := range u.TraineeIDs {
		if id == traineeID {
			return true
		}
	}
	return false
}
