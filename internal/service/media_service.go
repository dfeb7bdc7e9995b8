package service

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/repository"
	"alcyxob/fitcoach/internal/storage"
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrUploadNotAllowed   = badRequest("photo uploads are only accepted for open progress_photo tasks")
	ErrInvalidContentType = badRequest("invalid or missing image content type")
	ErrInvalidObjectKey   = badRequest("object key does not belong to this task")
	ErrObjectNotUploaded  = badRequest("no object was uploaded under this key")
	ErrUploadNotFound     = notFound("upload not found")
	ErrUploadAccessDenied = forbidden("access denied to this upload")
	ErrUploadURLError     = errors.New("failed to generate upload URL")
	ErrDownloadURLError   = errors.New("failed to generate download URL")
)

const photoKeyPrefix = "progress-photos"

// UploadURLResponse structure for returning URL and object key
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"` // The key the client reports back on confirm
}

type MediaService interface {
	RequestPhotoUploadURL(ctx context.Context, traineeID, taskID primitive.ObjectID, contentType string) (*UploadURLResponse, error)
	ConfirmPhotoUpload(ctx context.Context, traineeID, taskID primitive.ObjectID, objectKey, fileName string, fileSize int64, contentType string) (*domain.Upload, error)
	GetPhotoDownloadURL(ctx context.Context, userID primitive.ObjectID, role domain.Role, uploadID primitive.ObjectID) (string, error)
}

// mediaService implements the MediaService interface.
type mediaService struct {
	taskRepo    repository.TaskRepository
	uploadRepo  repository.UploadRepository
	fileStorage storage.FileStorage
}

// NewMediaService creates a new instance of mediaService.
func NewMediaService(taskRepo repository.TaskRepository, uploadRepo repository.UploadRepository, fileStorage storage.FileStorage) MediaService {
	return &mediaService{
		taskRepo:    taskRepo,
		uploadRepo:  uploadRepo,
		fileStorage: fileStorage,
	}
}

func isImage(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "image/") && len(contentType) > len("image/")
}

// photoTask loads a task scoped to the trainee and checks it still takes photos.
func (s *mediaService) photoTask(ctx context.Context, traineeID, taskID primitive.ObjectID) (*domain.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	if task.TraineeID != traineeID {
		return nil, ErrTaskNotFound
	}
	if task.TaskType != domain.TaskTypeProgressPhoto || task.Status.IsTerminal() {
		return nil, ErrUploadNotAllowed
	}
	return task, nil
}

func objectKeyDir(traineeID, taskID primitive.ObjectID) string {
	return path.Join(photoKeyPrefix, traineeID.Hex(), taskID.Hex())
}

// RequestPhotoUploadURL generates a pre-signed PUT URL for one progress photo.
func (s *mediaService) RequestPhotoUploadURL(ctx context.Context, traineeID, taskID primitive.ObjectID, contentType string) (*UploadURLResponse, error) {
	// 1. Validate Inputs
	if !isImage(contentType) {
		return nil, ErrInvalidContentType
	}

	// 2. Task must be an open progress_photo task of this trainee
	if _, err := s.photoTask(ctx, traineeID, taskID); err != nil {
		return nil, err
	}

	// 3. Unique object key
	ext := strings.ToLower(strings.TrimPrefix(contentType, "image/"))
	if i := strings.IndexAny(ext, ";+"); i >= 0 {
		ext = ext[:i]
	}
	objectKey := path.Join(objectKeyDir(traineeID, taskID), fmt.Sprintf("%s.%s", uuid.NewString(), ext))

	// 4. Pre-signed URL
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, ErrUploadURLError
	}

	return &UploadURLResponse{UploadURL: uploadURL, ObjectKey: objectKey}, nil
}

// ConfirmPhotoUpload records metadata for an object the trainee has uploaded.
// Submissions reference the returned upload by ID.
func (s *mediaService) ConfirmPhotoUpload(ctx context.Context, traineeID, taskID primitive.ObjectID, objectKey, fileName string, fileSize int64, contentType string) (*domain.Upload, error) {
	// 1. Validate Inputs
	if !isImage(contentType) {
		return nil, ErrInvalidContentType
	}
	if !strings.HasPrefix(objectKey, objectKeyDir(traineeID, taskID)+"/") || strings.Contains(objectKey, "..") {
		return nil, ErrInvalidObjectKey
	}

	task, err := s.photoTask(ctx, traineeID, taskID)
	if err != nil {
		return nil, err
	}

	// 2. The object must actually exist
	meta, err := s.fileStorage.StatObject(ctx, objectKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrObjectNotUploaded
		}
		return nil, err
	}
	if meta.ContentType != "" && !isImage(meta.ContentType) {
		// Not an image after all; do not keep it around.
		if delErr := s.fileStorage.DeleteObject(ctx, objectKey); delErr != nil {
			log.Printf("WARN: Could not remove rejected object '%s': %v", objectKey, delErr)
		}
		return nil, ErrInvalidContentType
	}
	if meta.Size > 0 {
		fileSize = meta.Size
	}

	// 3. Save metadata
	upload := &domain.Upload{
		TaskID:      taskID,
		TraineeID:   traineeID,
		CoachID:     task.CoachID,
		S3ObjectKey: objectKey,
		FileName:    fileName,
		ContentType: contentType,
		Size:        fileSize,
	}
	uploadID, err := s.uploadRepo.Create(ctx, upload)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("this object has already been confirmed")
		}
		log.Printf("ERROR: Failed to save upload metadata for key '%s': %v", objectKey, err)
		return nil, err
	}
	upload.ID = uploadID
	return upload, nil
}

// GetPhotoDownloadURL returns a temporary GET URL for the owning trainee,
// the owning coach, or an admin.
func (s *mediaService) GetPhotoDownloadURL(ctx context.Context, userID primitive.ObjectID, role domain.Role, uploadID primitive.ObjectID) (string, error) {
	upload, err := s.uploadRepo.GetByID(ctx, uploadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUploadNotFound
		}
		return "", err
	}

	switch role {
	case domain.RoleAdmin:
	case domain.RoleTrainee:
		if upload.TraineeID != userID {
			return "", ErrUploadAccessDenied
		}
	case domain.RoleCoach:
		if upload.CoachID != userID {
			return "", ErrUploadAccessDenied
		}
	default:
		return "", ErrUploadAccessDenied
	}

	url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, upload.S3ObjectKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return "", ErrDownloadURLError
	}
	return url, nil
}
