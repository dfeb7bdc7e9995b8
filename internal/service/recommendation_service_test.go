package service

import (
	"alcyxob/fitcoach/internal/domain"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matchingProfile() domain.TraineeProfile {
	return domain.TraineeProfile{
		Age:                    32,
		FitnessLevel:           domain.FitnessIntermediate,
		Goals:                  []string{"strength"},
		Equipment:              []string{"barbell"},
		AvailableMinutesPerDay: 60,
		AvailableDaysPerWeek:   4,
	}
}

func TestGenerateRecommendations(t *testing.T) {
	f := newFixture(t)
	svc := f.recommendations()
	ctx := context.Background()
	f.setProfile(t, f.trainee.ID, matchingProfile())

	good := templateInput(4)
	good.TargetCriteria = domain.TargetCriteria{
		FitnessLevel: domain.FitnessIntermediate,
		Goals:        []string{"strength"},
		Equipment:    []string{"barbell"},
	}
	strong := f.publishedTemplate(t, good)

	// goals 0 and one level apart: 15 + 0 + 14 + 25 + 10 = 64
	okay := templateInput(4)
	okay.TargetCriteria = domain.TargetCriteria{FitnessLevel: domain.FitnessAdvanced, Goals: []string{"endurance"}}
	fair := f.publishedTemplate(t, okay)

	// 15 + 0 + 14 + 0 + 5 = 34
	weak := templateInput(4)
	weak.TargetCriteria = domain.TargetCriteria{
		FitnessLevel:   domain.FitnessAdvanced,
		Equipment:      []string{"kettlebell"},
		MinDaysPerWeek: 6,
	}
	f.publishedTemplate(t, weak)

	_, err := f.templates().CreateTemplate(ctx, f.coach.ID, good) // draft, ignored
	require.NoError(t, err)

	recs, err := svc.GenerateRecommendationsForTrainee(ctx, f.coach.ID, f.trainee.ID)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, strong.ID, recs[0].TemplateID)
	assert.Equal(t, 100.0, recs[0].Score)
	assert.Equal(t, 95.0, recs[0].Confidence)
	assert.Equal(t, fair.ID, recs[1].TemplateID)
	assert.InDelta(t, 64.0, recs[1].Score, 0.001)
	assert.Equal(t, f.now.Add(domain.RecommendationTTL), recs[0].ExpiresAt)

	// Regenerating replaces the previous rows.
	_, err = svc.GenerateRecommendationsForTrainee(ctx, f.coach.ID, f.trainee.ID)
	require.NoError(t, err)
	listed, err := svc.ListRecommendations(ctx, f.coach.ID, domain.RoleCoach, &f.trainee.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestGenerateRecommendations_Rejections(t *testing.T) {
	f := newFixture(t)
	svc := f.recommendations()
	ctx := context.Background()

	_, err := svc.GenerateRecommendationsForTrainee(ctx, f.coach.ID, f.trainee.ID)
	assert.ErrorIs(t, err, ErrProfileMissing)

	_, otherTrainee := f.otherPair(t)
	f.setProfile(t, otherTrainee.ID, matchingProfile())
	_, err = svc.GenerateRecommendationsForTrainee(ctx, f.coach.ID, otherTrainee.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestRecommendationLifecycle(t *testing.T) {
	f := newFixture(t)
	svc := f.recommendations()
	ctx := context.Background()
	f.setProfile(t, f.trainee.ID, matchingProfile())

	in := templateInput(2)
	in.TargetCriteria = domain.TargetCriteria{Goals: []string{"strength"}}
	tpl := f.publishedTemplate(t, in)
	other := templateInput(2)
	other.Name = "Second"
	other.TargetCriteria = domain.TargetCriteria{Goals: []string{"strength"}, FitnessLevel: domain.FitnessAdvanced}
	f.publishedTemplate(t, other)

	recs, err := svc.GenerateRecommendationsForTrainee(ctx, f.coach.ID, f.trainee.ID)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	mine, err := svc.ListRecommendations(ctx, f.trainee.ID, domain.RoleTrainee, nil)
	require.NoError(t, err)
	require.Len(t, mine, 2)

	viewed, err := svc.MarkRecommendationViewed(ctx, f.trainee.ID, domain.RoleTrainee, mine[0].ID)
	require.NoError(t, err)
	assert.True(t, viewed.IsViewed)
	assert.Equal(t, f.now, *viewed.ViewedAt)

	dismissed, err := svc.DismissRecommendation(ctx, f.trainee.ID, domain.RoleTrainee, mine[1].ID)
	require.NoError(t, err)
	assert.True(t, dismissed.IsDismissed)

	mine, err = svc.ListRecommendations(ctx, f.trainee.ID, domain.RoleTrainee, nil)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, tpl.ID, mine[0].TemplateID)

	_, err = svc.AcceptRecommendation(ctx, f.coach.ID, dismissed.ID, nil)
	assert.ErrorIs(t, err, ErrRecommendationDismissed)

	start := f.now.Add(24 * time.Hour)
	res, err := svc.AcceptRecommendation(ctx, f.coach.ID, mine[0].ID, &start)
	require.NoError(t, err)
	assert.True(t, res.Recommendation.IsAccepted)
	require.NotNil(t, res.Assignment)
	assert.Equal(t, tpl.ID, res.Assignment.TemplateID)
	assert.Equal(t, domain.AssignmentScheduled, res.Assignment.Status)

	_, otherTrainee := f.otherPair(t)
	_, err = svc.MarkRecommendationViewed(ctx, otherTrainee.ID, domain.RoleTrainee, mine[0].ID)
	assert.ErrorIs(t, err, ErrForbidden)

	f.advance(domain.RecommendationTTL + time.Hour)
	expired, err := svc.ListRecommendations(ctx, f.trainee.ID, domain.RoleTrainee, nil)
	require.NoError(t, err)
	assert.Empty(t, expired)
	_, err = svc.AcceptRecommendation(ctx, f.coach.ID, mine[0].ID, nil)
	assert.ErrorIs(t, err, ErrRecommendationExpired)
}
