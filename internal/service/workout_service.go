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
	ErrWorkoutNotFound     = notFound("workout not found")
	ErrWorkoutAccessDenied = forbidden("access denied to modify or delete this workout")
	ErrWorkoutValidation   = badRequest("workout name is required")
)

// WorkoutInput carries the editable fields of a library workout.
type WorkoutInput struct {
	Name            string
	Description     string
	Difficulty      domain.FitnessLevel
	DurationMinutes int
	Exercises       []domain.WorkoutExercise
}

type WorkoutService interface {
	CreateWorkout(ctx context.Context, coachID primitive.ObjectID, in WorkoutInput) (*domain.Workout, error)
	GetWorkout(ctx context.Context, coachID, workoutID primitive.ObjectID) (*domain.Workout, error)
	ListWorkouts(ctx context.Context, coachID primitive.ObjectID) ([]domain.Workout, error)
	UpdateWorkout(ctx context.Context, coachID, workoutID primitive.ObjectID, in WorkoutInput) (*domain.Workout, error)
	DeleteWorkout(ctx context.Context, coachID, workoutID primitive.ObjectID) error
}

// workoutService implements the WorkoutService interface.
type workoutService struct {
	workoutRepo repository.WorkoutRepository
}

// NewWorkoutService creates a new instance of workoutService.
func NewWorkoutService(workoutRepo repository.WorkoutRepository) WorkoutService {
	return &workoutService{workoutRepo: workoutRepo}
}

func validateWorkoutInput(in *WorkoutInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return ErrWorkoutValidation
	}
	if in.Difficulty != "" && !in.Difficulty.IsValid() {
		return badRequest("difficulty must be beginner, intermediate, or advanced")
	}
	if in.DurationMinutes < 0 {
		return badRequest("durationMinutes cannot be negative")
	}
	for i, ex := range in.Exercises {
		if strings.TrimSpace(ex.Name) == "" {
			return badRequestf("exercise %d requires a name", i+1)
		}
	}
	return nil
}

// CreateWorkout adds a workout to the coach's library.
func (s *workoutService) CreateWorkout(ctx context.Context, coachID primitive.ObjectID, in WorkoutInput) (*domain.Workout, error) {
	if err := validateWorkoutInput(&in); err != nil {
		return nil, err
	}

	workout := &domain.Workout{
		CoachID:         coachID,
		Name:            in.Name,
		Description:     in.Description,
		Difficulty:      in.Difficulty,
		DurationMinutes: in.DurationMinutes,
		Exercises:       in.Exercises,
	}
	id, err := s.workoutRepo.Create(ctx, workout)
	if err != nil {
		return nil, err
	}
	workout.ID = id
	return workout, nil
}

// getOwned loads a workout and checks that coachID owns it.
func (s *workoutService) getOwned(ctx context.Context, coachID, workoutID primitive.ObjectID) (*domain.Workout, error) {
	workout, err := s.workoutRepo.GetByID(ctx, workoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	if workout.CoachID != coachID {
		return nil, ErrWorkoutAccessDenied
	}
	return workout, nil
}

func (s *workoutService) GetWorkout(ctx context.Context, coachID, workoutID primitive.ObjectID) (*domain.Workout, error) {
	return s.getOwned(ctx, coachID, workoutID)
}

func (s *workoutService) ListWorkouts(ctx context.Context, coachID primitive.ObjectID) ([]domain.Workout, error) {
	return s.workoutRepo.GetByCoachID(ctx, coachID)
}

// UpdateWorkout replaces the editable fields, ensuring ownership.
func (s *workoutService) UpdateWorkout(ctx context.Context, coachID, workoutID primitive.ObjectID, in WorkoutInput) (*domain.Workout, error) {
	if err := validateWorkoutInput(&in); err != nil {
		return nil, err
	}
	workout, err := s.getOwned(ctx, coachID, workoutID)
	if err != nil {
		return nil, err
	}

	workout.Name = in.Name
	workout.Description = in.Description
	workout.Difficulty = in.Difficulty
	workout.DurationMinutes = in.DurationMinutes
	workout.Exercises = in.Exercises

	if err := s.workoutRepo.Update(ctx, workout); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	return workout, nil
}

// DeleteWorkout removes a workout from the library, ensuring ownership.
func (s *workoutService) DeleteWorkout(ctx context.Context, coachID, workoutID primitive.ObjectID) error {
	if _, err := s.getOwned(ctx, coachID, workoutID); err != nil {
		return err
	}
	if err := s.workoutRepo.Delete(ctx, workoutID, coachID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrWorkoutNotFound
		}
		return err
	}
	return nil
}
