package service

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/repository"
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrCoachNotFound          = notFound("coach not found")
	ErrTraineeNotFound        = notFound("trainee not found")
	ErrTraineeNotRole         = badRequest("user found but is not a trainee")
	ErrTraineeAlreadyAssigned = conflict("trainee is already assigned to another coach")
	ErrTraineeNotManaged      = forbidden("trainee is not managed by this coach")
	ErrProfileMissing         = badRequest("trainee has not filled in a profile yet")
)

// TraineeProfileReader is the read port the recommender scores against.
type TraineeProfileReader interface {
	GetTraineeProfile(ctx context.Context, traineeID primitive.ObjectID) (*domain.TraineeProfile, error)
}

type CoachService interface {
	TraineeProfileReader

	AddTraineeByEmail(ctx context.Context, coachID primitive.ObjectID, traineeEmail string) (*domain.User, error)
	GetManagedTrainees(ctx context.Context, coachID primitive.ObjectID) ([]domain.User, error)
	UpdateTraineeProfile(ctx context.Context, traineeID primitive.ObjectID, profile domain.TraineeProfile) (*domain.TraineeProfile, error)
}

// coachService implements the CoachService interface.
type coachService struct {
	userRepo repository.UserRepository
	tx       repository.Transactor
}

// NewCoachService creates a new instance of coachService.
func NewCoachService(userRepo repository.UserRepository, tx repository.Transactor) CoachService {
	return &coachService{userRepo: userRepo, tx: tx}
}

// AddTraineeByEmail finds a trainee by email and puts them on the coach's roster.
func (s *coachService) AddTraineeByEmail(ctx context.Context, coachID primitive.ObjectID, traineeEmail string) (*domain.User, error) {
	// 1. Validate Input
	traineeEmail = strings.ToLower(strings.TrimSpace(traineeEmail))
	if coachID == primitive.NilObjectID || traineeEmail == "" {
		return nil, badRequest("coach ID and trainee email are required")
	}

	// 2. Find the trainee
	trainee, err := s.userRepo.GetByEmail(ctx, traineeEmail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTraineeNotFound
		}
		return nil, err
	}
	if trainee.Role != domain.RoleTrainee {
		return nil, ErrTraineeNotRole
	}

	// 3. A trainee has at most one coach
	if trainee.CoachID != nil && *trainee.CoachID != primitive.NilObjectID {
		if *trainee.CoachID == coachID {
			trainee.PasswordHash = ""
			return trainee, nil
		}
		return nil, ErrTraineeAlreadyAssigned
	}

	// 4. Link both records
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.userRepo.AddTraineeIDToCoach(ctx, coachID, trainee.ID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrCoachNotFound
			}
			return err
		}
		return s.userRepo.SetCoachForTrainee(ctx, trainee.ID, coachID)
	})
	if err != nil {
		return nil, err
	}

	trainee.CoachID = &coachID
	trainee.PasswordHash = ""
	return trainee, nil
}

// GetManagedTrainees retrieves the coach's roster.
func (s *coachService) GetManagedTrainees(ctx context.Context, coachID primitive.ObjectID) ([]domain.User, error) {
	trainees, err := s.userRepo.GetTraineesByCoachID(ctx, coachID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCoachNotFound
		}
		return nil, err
	}
	for i := range trainees {
		trainees[i].PasswordHash = ""
	}
	return trainees, nil
}

// GetTraineeProfile returns the stored profile, or ErrProfileMissing.
func (s *coachService) GetTraineeProfile(ctx context.Context, traineeID primitive.ObjectID) (*domain.TraineeProfile, error) {
	trainee, err := loadTrainee(ctx, s.userRepo, traineeID)
	if err != nil {
		return nil, err
	}
	if trainee.Profile == nil {
		return nil, ErrProfileMissing
	}
	return trainee.Profile, nil
}

// UpdateTraineeProfile validates and replaces a trainee's profile.
func (s *coachService) UpdateTraineeProfile(ctx context.Context, traineeID primitive.ObjectID, profile domain.TraineeProfile) (*domain.TraineeProfile, error) {
	if err := validateProfile(&profile); err != nil {
		return nil, err
	}
	if _, err := loadTrainee(ctx, s.userRepo, traineeID); err != nil {
		return nil, err
	}
	profile.Goals = normalizeTags(profile.Goals)
	profile.Equipment = normalizeTags(profile.Equipment)

	if err := s.userRepo.UpdateProfile(ctx, traineeID, &profile); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTraineeNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func validateProfile(p *domain.TraineeProfile) error {
	switch {
	case p.Age < 0 || p.Age > 120:
		return badRequest("age must be between 0 and 120")
	case p.FitnessLevel != "" && !p.FitnessLevel.IsValid():
		return badRequest("fitnessLevel must be beginner, intermediate, or advanced")
	case p.AvailableMinutesPerDay < 0 || p.AvailableMinutesPerDay > 24*60:
		return badRequest("availableMinutesPerDay is out of range")
	case p.AvailableDaysPerWeek < 0 || p.AvailableDaysPerWeek > 7:
		return badRequest("availableDaysPerWeek must be between 0 and 7")
	case p.WeightKg < 0 || p.HeightCm < 0:
		return badRequest("weight and height cannot be negative")
	}
	return nil
}

// normalizeTags lower-cases, trims and de-duplicates free-text tags so that
// goal and equipment matching is case-insensitive.
func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return tags
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// loadCoach returns the user with id when it is a coach.
func loadCoach(ctx context.Context, users repository.UserRepository, id primitive.ObjectID) (*domain.User, error) {
	coach, err := users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCoachNotFound
		}
		return nil, err
	}
	if !coach.IsCoach() {
		return nil, ErrCoachNotFound
	}
	return coach, nil
}

// loadTrainee returns the user with id when it is a trainee.
func loadTrainee(ctx context.Context, users repository.UserRepository, id primitive.ObjectID) (*domain.User, error) {
	trainee, err := users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTraineeNotFound
		}
		return nil, err
	}
	if !trainee.IsTrainee() {
		return nil, ErrTraineeNotFound
	}
	return trainee, nil
}

// loadManagedTrainee checks that both users exist with the right roles and
// that the trainee is on the coach's roster.
func loadManagedTrainee(ctx context.Context, users repository.UserRepository, coachID, traineeID primitive.ObjectID) (*domain.User, error) {
	if _, err := loadCoach(ctx, users, coachID); err != nil {
		return nil, err
	}
	trainee, err := loadTrainee(ctx, users, traineeID)
	if err != nil {
		return nil, err
	}
	if trainee.CoachID == nil || *trainee.CoachID != coachID {
		return nil, ErrTraineeNotManaged
	}
	return trainee, nil
}
