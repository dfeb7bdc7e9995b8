package service

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/storage"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeStorage keeps object metadata in memory and records deletions.
type fakeStorage struct {
	objects map[string]*storage.ObjectMetadata
	deleted []string
	failURL bool
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string]*storage.ObjectMetadata{}}
}

func (s *fakeStorage) GeneratePresignedUploadURL(ctx context.Context, objectKey, contentType string, expires time.Duration) (string, error) {
	if s.failURL {
		return "", errors.New("presign failed")
	}
	return "https://bucket.example.com/" + objectKey + "?upload", nil
}

func (s *fakeStorage) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	if s.failURL {
		return "", errors.New("presign failed")
	}
	return "https://bucket.example.com/" + objectKey, nil
}

func (s *fakeStorage) StatObject(ctx context.Context, objectKey string) (*storage.ObjectMetadata, error) {
	meta, ok := s.objects[objectKey]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return meta, nil
}

func (s *fakeStorage) DeleteObject(ctx context.Context, objectKey string) error {
	delete(s.objects, objectKey)
	s.deleted = append(s.deleted, objectKey)
	return nil
}

func photoTask(traineeID primitive.ObjectID) CreateTaskInput {
	return CreateTaskInput{
		TraineeID:  traineeID,
		Title:      "Front photo",
		TaskType:   domain.TaskTypeProgressPhoto,
		TaskConfig: domain.TaskConfig{ProgressPhoto: &domain.ProgressPhotoTaskConfig{RequiredAngles: []string{"front"}}},
	}
}

func TestRequestPhotoUploadURL(t *testing.T) {
	f := newFixture(t)
	files := newFakeStorage()
	svc := NewMediaService(f.store.Tasks(), f.store.Uploads(), files)
	ctx := context.Background()

	task := f.createTask(t, f.tasks(), photoTask(f.trainee.ID))
	custom := f.createTask(t, f.tasks(), customTask(f.trainee.ID))
	_, otherTrainee := f.otherPair(t)

	resp, err := svc.RequestPhotoUploadURL(ctx, f.trainee.ID, task.ID, "image/jpeg")
	require.NoError(t, err)
	wantDir := "progress-photos/" + f.trainee.ID.Hex() + "/" + task.ID.Hex() + "/"
	assert.True(t, strings.HasPrefix(resp.ObjectKey, wantDir), resp.ObjectKey)
	assert.True(t, strings.HasSuffix(resp.ObjectKey, ".jpeg"), resp.ObjectKey)
	assert.Contains(t, resp.UploadURL, resp.ObjectKey)

	resp, err = svc.RequestPhotoUploadURL(ctx, f.trainee.ID, task.ID, "image/svg+xml")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(resp.ObjectKey, ".svg"), resp.ObjectKey)

	_, err = svc.RequestPhotoUploadURL(ctx, f.trainee.ID, task.ID, "application/pdf")
	assert.ErrorIs(t, err, ErrInvalidContentType)

	_, err = svc.RequestPhotoUploadURL(ctx, f.trainee.ID, custom.ID, "image/png")
	assert.ErrorIs(t, err, ErrUploadNotAllowed)

	_, err = svc.RequestPhotoUploadURL(ctx, otherTrainee.ID, task.ID, "image/png")
	assert.ErrorIs(t, err, ErrTaskNotFound)

	_, err = svc.RequestPhotoUploadURL(ctx, f.trainee.ID, primitive.NewObjectID(), "image/png")
	assert.ErrorIs(t, err, ErrNotFound)

	files.failURL = true
	_, err = svc.RequestPhotoUploadURL(ctx, f.trainee.ID, task.ID, "image/png")
	assert.ErrorIs(t, err, ErrUploadURLError)
	files.failURL = false

	task.Status = domain.TaskStatusCancelled
	require.NoError(t, f.store.Tasks().Update(ctx, task))
	_, err = svc.RequestPhotoUploadURL(ctx, f.trainee.ID, task.ID, "image/png")
	assert.ErrorIs(t, err, ErrUploadNotAllowed)
}

func TestConfirmPhotoUpload(t *testing.T) {
	f := newFixture(t)
	files := newFakeStorage()
	svc := NewMediaService(f.store.Tasks(), f.store.Uploads(), files)
	ctx := context.Background()

	task := f.createTask(t, f.tasks(), photoTask(f.trainee.ID))
	resp, err := svc.RequestPhotoUploadURL(ctx, f.trainee.ID, task.ID, "image/png")
	require.NoError(t, err)
	key := resp.ObjectKey

	t.Run("nothing uploaded yet", func(t *testing.T) {
		_, err := svc.ConfirmPhotoUpload(ctx, f.trainee.ID, task.ID, key, "front.png", 100, "image/png")
		assert.ErrorIs(t, err, ErrObjectNotUploaded)
	})

	t.Run("key outside the task directory", func(t *testing.T) {
		for _, bad := range []string{
			"progress-photos/" + f.trainee.ID.Hex() + "/" + primitive.NewObjectID().Hex() + "/x.png",
			"progress-photos/" + f.trainee.ID.Hex() + "/" + task.ID.Hex() + "/../x.png",
			"x.png",
		} {
			_, err := svc.ConfirmPhotoUpload(ctx, f.trainee.ID, task.ID, bad, "x.png", 100, "image/png")
			assert.ErrorIs(t, err, ErrInvalidObjectKey, bad)
		}
	})

	t.Run("stored object is not an image", func(t *testing.T) {
		evil := "progress-photos/" + f.trainee.ID.Hex() + "/" + task.ID.Hex() + "/evil.png"
		files.objects[evil] = &storage.ObjectMetadata{Size: 10, ContentType: "text/html"}
		_, err := svc.ConfirmPhotoUpload(ctx, f.trainee.ID, task.ID, evil, "evil.png", 10, "image/png")
		assert.ErrorIs(t, err, ErrInvalidContentType)
		assert.Equal(t, []string{evil}, files.deleted)
	})

	t.Run("stored size wins", func(t *testing.T) {
		files.objects[key] = &storage.ObjectMetadata{Size: 2048, ContentType: "image/png"}
		upload, err := svc.ConfirmPhotoUpload(ctx, f.trainee.ID, task.ID, key, "front.png", 1, "image/png")
		require.NoError(t, err)
		assert.False(t, upload.ID.IsZero())
		assert.Equal(t, int64(2048), upload.Size)
		assert.Equal(t, f.coach.ID, upload.CoachID)
		assert.Equal(t, task.ID, upload.TaskID)

		_, err = svc.ConfirmPhotoUpload(ctx, f.trainee.ID, task.ID, key, "front.png", 1, "image/png")
		assert.ErrorIs(t, err, ErrConflict)
	})
}

func TestGetPhotoDownloadURL_Access(t *testing.T) {
	f := newFixture(t)
	files := newFakeStorage()
	svc := NewMediaService(f.store.Tasks(), f.store.Uploads(), files)
	ctx := context.Background()
	otherCoach, otherTrainee := f.otherPair(t)
	admin := f.addUser(t, "admin@example.com", domain.RoleAdmin)

	task := f.createTask(t, f.tasks(), photoTask(f.trainee.ID))
	resp, err := svc.RequestPhotoUploadURL(ctx, f.trainee.ID, task.ID, "image/webp")
	require.NoError(t, err)
	files.objects[resp.ObjectKey] = &storage.ObjectMetadata{Size: 512, ContentType: "image/webp"}
	upload, err := svc.ConfirmPhotoUpload(ctx, f.trainee.ID, task.ID, resp.ObjectKey, "side.webp", 512, "image/webp")
	require.NoError(t, err)

	tests := []struct {
		name string
		user primitive.ObjectID
		role domain.Role
		err  error
	}{
		{"owning trainee", f.trainee.ID, domain.RoleTrainee, nil},
		{"owning coach", f.coach.ID, domain.RoleCoach, nil},
		{"admin", admin.ID, domain.RoleAdmin, nil},
		{"other coach", otherCoach.ID, domain.RoleCoach, ErrForbidden},
		{"other trainee", otherTrainee.ID, domain.RoleTrainee, ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, err := svc.GetPhotoDownloadURL(ctx, tt.user, tt.role, upload.ID)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, url, resp.ObjectKey)
		})
	}

	_, err = svc.GetPhotoDownloadURL(ctx, f.trainee.ID, domain.RoleTrainee, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrUploadNotFound)

	files.failURL = true
	_, err = svc.GetPhotoDownloadURL(ctx, f.trainee.ID, domain.RoleTrainee, upload.ID)
	assert.ErrorIs(t, err, ErrDownloadURLError)
}
