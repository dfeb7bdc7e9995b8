package memory

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/repository"
	"context"
	"errors"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type userRepository struct{ s *Store }

// Users returns the user repository view of the store.
func (s *Store) Users() repository.UserRepository { return &userRepository{s} }

func (r *userRepository) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	if user.Email == "" || user.PasswordHash == "" || user.Role == "" {
		return primitive.NilObjectID, errors.New("user email, password hash, and role are required")
	}
	defer r.s.lock(ctx)()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = now()
	user.UpdatedAt = user.CreatedAt
	r.s.users[user.ID] = *user
	return user.ID, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepository) AddTraineeIDToCoach(ctx context.Context, coachID, traineeID primitive.ObjectID) error {
	defer r.s.lock(ctx)()
	coach, ok := r.s.users[coachID]
	if !ok || coach.Role != domain.RoleCoach {
		return repository.ErrNotFound
	}
	if !coach.ManagesTrainee(traineeID) {
		coach.TraineeIDs = append(append([]primitive.ObjectID(nil), coach.TraineeIDs...), traineeID)
	}
	coach.UpdatedAt = now()
	r.s.users[coachID] = coach
	return nil
}

func (r *userRepository) GetTraineesByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	coach, ok := r.s.users[coachID]
	if !ok || coach.Role != domain.RoleCoach {
		return nil, repository.ErrNotFound
	}
	trainees := []domain.User{}
	for _, id := range coach.TraineeIDs {
		if u, ok := r.s.users[id]; ok {
			trainees = append(trainees, u)
		}
	}
	sort.Slice(trainees, func(i, j int) bool { return trainees[i].Name < trainees[j].Name })
	return trainees, nil
}

func (r *userRepository) SetCoachForTrainee(ctx context.Context, traineeID, coachID primitive.ObjectID) error {
	defer r.s.lock(ctx)()
	trainee, ok := r.s.users[traineeID]
	if !ok || trainee.Role != domain.RoleTrainee {
		return repository.ErrNotFound
	}
	trainee.CoachID = &coachID
	trainee.UpdatedAt = now()
	r.s.users[traineeID] = trainee
	return nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, traineeID primitive.ObjectID, profile *domain.TraineeProfile) error {
	defer r.s.lock(ctx)()
	trainee, ok := r.s.users[traineeID]
	if !ok || trainee.Role != domain.RoleTrainee {
		return repository.ErrNotFound
	}
	p := *profile
	trainee.Profile = &p
	trainee.UpdatedAt = now()
	r.s.users[traineeID] = trainee
	return nil
}
