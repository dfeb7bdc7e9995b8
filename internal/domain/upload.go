package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Upload stores metadata about a progress photo uploaded by a trainee for a
// task. The actual file resides in S3.
type Upload struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TaskID      primitive.ObjectID `bson:"taskId" json:"taskId"`
	TraineeID   primitive.ObjectID `bson:"traineeId" json:"traineeId"`
	CoachID     primitive.ObjectID `bson:"coachId" json:"coachId"` // Denormalized for access checks
	S3ObjectKey string             `bson:"s3ObjectKey" json:"-"`
	FileName    string             `bson:"fileName" json:"fileName"`
	ContentType string             `bson:"contentType" json:"contentType"` // MIME type (e.g., "image/jpeg")
	Size        int64              `bson:"size" json:"size"`
	UploadedAt  time.Time          `bson:"uploadedAt" json:"uploadedAt"`
}
