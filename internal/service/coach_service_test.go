package service

import (
	"alcyxob/fitcoach/internal/domain"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAddTraineeByEmail(t *testing.T) {
	f := newFixture(t)
	svc := NewCoachService(f.store.Users(), f.store)
	ctx := context.Background()
	otherCoach, otherTrainee := f.otherPair(t)
	fresh := f.addUser(t, "fresh@example.com", domain.RoleTrainee)

	added, err := svc.AddTraineeByEmail(ctx, f.coach.ID, " FRESH@example.com")
	require.NoError(t, err)
	assert.Equal(t, fresh.ID, added.ID)
	require.NotNil(t, added.CoachID)
	assert.Equal(t, f.coach.ID, *added.CoachID)
	assert.Empty(t, added.PasswordHash)

	again, err := svc.AddTraineeByEmail(ctx, f.coach.ID, "fresh@example.com")
	require.NoError(t, err, "re-adding an own trainee is a no-op")
	assert.Equal(t, fresh.ID, again.ID)

	roster, err := svc.GetManagedTrainees(ctx, f.coach.ID)
	require.NoError(t, err)
	var ids []primitive.ObjectID
	for _, u := range roster {
		ids = append(ids, u.ID)
		assert.Empty(t, u.PasswordHash)
	}
	assert.ElementsMatch(t, []primitive.ObjectID{f.trainee.ID, fresh.ID}, ids)

	tests := []struct {
		name  string
		email string
		err   error
	}{
		{"unknown email", "ghost@example.com", ErrTraineeNotFound},
		{"coach account", otherCoach.Email, ErrTraineeNotRole},
		{"trainee of another coach", otherTrainee.Email, ErrTraineeAlreadyAssigned},
		{"empty email", "  ", ErrBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddTraineeByEmail(ctx, f.coach.ID, tt.email)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	_, err = svc.GetManagedTrainees(ctx, f.trainee.ID)
	assert.ErrorIs(t, err, ErrCoachNotFound)
}

func TestTraineeProfile(t *testing.T) {
	f := newFixture(t)
	svc := NewCoachService(f.store.Users(), f.store)
	ctx := context.Background()

	_, err := svc.GetTraineeProfile(ctx, f.trainee.ID)
	assert.ErrorIs(t, err, ErrProfileMissing)

	saved, err := svc.UpdateTraineeProfile(ctx, f.trainee.ID, domain.TraineeProfile{
		Age:                    31,
		FitnessLevel:           domain.FitnessIntermediate,
		Goals:                  []string{" Strength", "strength", "Mobility", ""},
		Equipment:              []string{"Dumbbells"},
		AvailableMinutesPerDay: 45,
		AvailableDaysPerWeek:   4,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"strength", "mobility"}, saved.Goals)
	assert.Equal(t, []string{"dumbbells"}, saved.Equipment)

	got, err := svc.GetTraineeProfile(ctx, f.trainee.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.Goals, got.Goals)
	assert.Equal(t, 4, got.AvailableDaysPerWeek)

	invalid := []domain.TraineeProfile{
		{Age: -1},
		{FitnessLevel: "elite"},
		{AvailableDaysPerWeek: 8},
		{AvailableMinutesPerDay: 24*60 + 1},
		{WeightKg: -70},
	}
	for _, p := range invalid {
		_, err := svc.UpdateTraineeProfile(ctx, f.trainee.ID, p)
		assert.ErrorIs(t, err, ErrBadRequest, "%+v", p)
	}

	_, err = svc.UpdateTraineeProfile(ctx, f.coach.ID, domain.TraineeProfile{Age: 40})
	assert.ErrorIs(t, err, ErrTraineeNotFound)
}
