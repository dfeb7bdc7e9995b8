package memory

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/repository"
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type uploadRepository struct{ s *Store }

// Uploads returns the upload metadata view of the store.
func (s *Store) Uploads() repository.UploadRepository { return &uploadRepository{s} }

func (r *uploadRepository) Create(ctx context.Context, upload *domain.Upload) (primitive.ObjectID, error) {
	defer r.s.lock(ctx)()
	for _, u := range r.s.uploads {
		if u.S3ObjectKey == upload.S3ObjectKey {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	upload.ID = primitive.NewObjectID()
	upload.UploadedAt = now()
	r.s.uploads[upload.ID] = *upload
	return upload.ID, nil
}

func (r *uploadRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Upload, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.uploads[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}
