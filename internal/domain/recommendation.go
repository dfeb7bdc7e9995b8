package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RecommendationTTL is how long a generated recommendation stays visible.
const RecommendationTTL = 30 * 24 * time.Hour

// TemplateRecommendation is a scored suggestion of a template for a trainee.
type TemplateRecommendation struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CoachID     primitive.ObjectID `bson:"coachId" json:"coachId"`
	TraineeID   primitive.ObjectID `bson:"traineeId" json:"traineeId"`
	TemplateID  primitive.ObjectID `bson:"templateId" json:"templateId"`
	Score       float64            `bson:"score" json:"score"` // 0-100
	Confidence  float64            `bson:"confidence" json:"confidence"`
	Reason      string             `bson:"reason" json:"reason"`
	Breakdown   ScoreBreakdown     `bson:"breakdown" json:"breakdown"`
	IsViewed    bool               `bson:"isViewed" json:"isViewed"`
	ViewedAt    *time.Time         `bson:"viewedAt,omitempty" json:"viewedAt,omitempty"`
	IsAccepted  bool               `bson:"isAccepted" json:"isAccepted"`
	AcceptedAt  *time.Time         `bson:"acceptedAt,omitempty" json:"acceptedAt,omitempty"`
	IsDismissed bool               `bson:"isDismissed" json:"isDismissed"`
	DismissedAt *time.Time         `bson:"dismissedAt,omitempty" json:"dismissedAt,omitempty"`
	ExpiresAt   time.Time          `bson:"expiresAt" json:"expiresAt"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// ScoreBreakdown keeps every per-criterion sub-score (each 0-100).
type ScoreBreakdown struct {
	Age              float64  `bson:"age" json:"age"`
	Goals            float64  `bson:"goals" json:"goals"`
	FitnessLevel     float64  `bson:"fitnessLevel" json:"fitnessLevel"`
	Equipment        float64  `bson:"equipment" json:"equipment"`
	TimeAvailability float64  `bson:"timeAvailability" json:"timeAvailability"`
	MatchedGoals     []string `bson:"matchedGoals,omitempty" json:"matchedGoals,omitempty"`
	MissingEquipment []string `bson:"missingEquipment,omitempty" json:"missingEquipment,omitempty"`
}

// IsExpired reports whether the recommendation is past its expiry at now.
func (r *TemplateRecommendation) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
