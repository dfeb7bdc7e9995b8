package memory

import (
	"alcyxob/fitcoach/internal/domain"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestWithinTransaction_RollbackKeepsOutsideWrites(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	coachID := primitive.NewObjectID()

	inside := make(chan struct{})
	release := make(chan struct{})
	txErr := make(chan error, 1)
	go func() {
		txErr <- s.WithinTransaction(ctx, func(ctx context.Context) error {
			if _, err := s.Workouts().Create(ctx, &domain.Workout{CoachID: coachID, Name: "Rolled back"}); err != nil {
				return err
			}
			close(inside)
			<-release
			return errors.New("boom")
		})
	}()
	<-inside

	written := make(chan error, 1)
	go func() {
		_, err := s.Users().Create(ctx, &domain.User{Name: "Sam", Email: "sam@example.com", PasswordHash: "hash", Role: domain.RoleTrainee})
		written <- err
	}()

	select {
	case <-written:
		t.Fatal("write outside the transaction did not wait for it")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.EqualError(t, <-txErr, "boom")
	require.NoError(t, <-written)

	_, err := s.Users().GetByEmail(ctx, "sam@example.com")
	assert.NoError(t, err)
	workouts, err := s.Workouts().GetByCoachID(ctx, coachID)
	require.NoError(t, err)
	assert.Empty(t, workouts)
}

func TestWithinTransaction_Commit(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	coachID := primitive.NewObjectID()

	err := s.WithinTransaction(ctx, func(ctx context.Context) error {
		_, err := s.Workouts().Create(ctx, &domain.Workout{CoachID: coachID, Name: "Kept"})
		return err
	})
	require.NoError(t, err)

	workouts, err := s.Workouts().GetByCoachID(ctx, coachID)
	require.NoError(t, err)
	require.Len(t, workouts, 1)
	assert.Equal(t, "Kept", workouts[0].Name)
}
