package service

import (
	"alcyxob/fitcoach/internal/domain"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func templateInput(weeks int) TemplateInput {
	return TemplateInput{
		Name:          "Foundations",
		DurationWeeks: weeks,
		Schedule: []domain.TemplateWeek{{
			Week: 1,
			Days: []domain.TemplateDay{{Day: 1}, {Day: 3}, {Day: 7, RestDay: true}},
		}},
		TargetCriteria: domain.TargetCriteria{Goals: []string{"Strength", "strength "}},
	}
}

// publishedTemplate creates and publishes a template for the fixture coach.
func (f *fixture) publishedTemplate(t *testing.T, in TemplateInput) *domain.Template {
	t.Helper()
	ctx := context.Background()
	svc := f.templates()
	tpl, err := svc.CreateTemplate(ctx, f.coach.ID, in)
	require.NoError(t, err)
	tpl, err = svc.PublishTemplate(ctx, f.coach.ID, tpl.ID)
	require.NoError(t, err)
	return tpl
}

func TestCreateTemplate_Validation(t *testing.T) {
	f := newFixture(t)
	svc := f.templates()
	ctx := context.Background()

	tpl, err := svc.CreateTemplate(ctx, f.coach.ID, templateInput(4))
	require.NoError(t, err)
	assert.Equal(t, domain.TemplateDraft, tpl.Status)
	assert.Equal(t, []string{"strength"}, tpl.TargetCriteria.Goals)

	badWeek := templateInput(1)
	badWeek.Schedule = append(badWeek.Schedule, domain.TemplateWeek{Week: 2})
	badDay := templateInput(2)
	badDay.Schedule[0].Days = append(badDay.Schedule[0].Days, domain.TemplateDay{Day: 8})
	dupDay := templateInput(2)
	dupDay.Schedule[0].Days = append(dupDay.Schedule[0].Days, domain.TemplateDay{Day: 1})
	ages := templateInput(2)
	ages.TargetCriteria.AgeMin, ages.TargetCriteria.AgeMax = 40, 20
	foreignWorkout := templateInput(2)
	foreignWorkout.Schedule[0].Days[0].WorkoutIDs = []primitive.ObjectID{primitive.NewObjectID()}

	for name, in := range map[string]TemplateInput{
		"week beyond duration": badWeek,
		"day out of range":     badDay,
		"duplicate day":        dupDay,
		"inverted age range":   ages,
		"unknown workout":      foreignWorkout,
		"missing name":         {DurationWeeks: 1},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateTemplate(ctx, f.coach.ID, in)
			assert.ErrorIs(t, err, ErrBadRequest)
		})
	}
}

func TestPublishTemplate(t *testing.T) {
	f := newFixture(t)
	svc := f.templates()
	ctx := context.Background()

	empty, err := svc.CreateTemplate(ctx, f.coach.ID, TemplateInput{Name: "Empty", DurationWeeks: 2})
	require.NoError(t, err)
	_, err = svc.PublishTemplate(ctx, f.coach.ID, empty.ID)
	assert.ErrorIs(t, err, ErrTemplateEmptySchedule)

	tpl, err := svc.CreateTemplate(ctx, f.coach.ID, templateInput(2))
	require.NoError(t, err)
	otherCoach, _ := f.otherPair(t)
	_, err = svc.PublishTemplate(ctx, otherCoach.ID, tpl.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	published, err := svc.PublishTemplate(ctx, f.coach.ID, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TemplateActive, published.Status)
	assert.Equal(t, f.now, *published.PublishedAt)

	_, err = svc.PublishTemplate(ctx, f.coach.ID, tpl.ID)
	assert.ErrorIs(t, err, ErrTemplateNotDraft)

	_, err = svc.GetTemplate(ctx, f.trainee.ID, domain.RoleTrainee, empty.ID)
	assert.ErrorIs(t, err, ErrNotFound, "drafts are hidden from trainees")
	got, err := svc.GetTemplate(ctx, f.trainee.ID, domain.RoleTrainee, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, tpl.ID, got.ID)

	active, err := svc.ListTemplates(ctx, f.coach.ID, domain.TemplateActive)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestArchiveAndDeleteTemplate(t *testing.T) {
	f := newFixture(t)
	templates := f.templates()
	assignments := f.assignments()
	ctx := context.Background()

	tpl := f.publishedTemplate(t, templateInput(4))
	a, err := assignments.AssignTemplate(ctx, f.coach.ID, tpl.ID, AssignTemplateInput{TraineeID: f.trainee.ID})
	require.NoError(t, err)

	_, err = templates.ArchiveTemplate(ctx, f.coach.ID, tpl.ID)
	assert.ErrorIs(t, err, ErrTemplateInUse)

	_, err = assignments.CancelAssignment(ctx, f.coach.ID, domain.RoleCoach, a.ID)
	require.NoError(t, err)

	archived, err := templates.ArchiveTemplate(ctx, f.coach.ID, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TemplateArchived, archived.Status)

	_, err = templates.UpdateTemplate(ctx, f.coach.ID, tpl.ID, templateInput(4))
	assert.ErrorIs(t, err, ErrTemplateArchived)
	assert.ErrorIs(t, templates.DeleteTemplate(ctx, f.coach.ID, tpl.ID), ErrTemplateHasHistory)

	draft, err := templates.CreateTemplate(ctx, f.coach.ID, templateInput(1))
	require.NoError(t, err)
	require.NoError(t, templates.DeleteTemplate(ctx, f.coach.ID, draft.ID))
	_, err = templates.GetTemplate(ctx, f.coach.ID, domain.RoleCoach, draft.ID)
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestAssignTemplate(t *testing.T) {
	f := newFixture(t)
	svc := f.assignments()
	ctx := context.Background()

	draft, err := f.templates().CreateTemplate(ctx, f.coach.ID, templateInput(3))
	require.NoError(t, err)
	_, err = svc.AssignTemplate(ctx, f.coach.ID, draft.ID, AssignTemplateInput{TraineeID: f.trainee.ID})
	assert.ErrorIs(t, err, ErrTemplateNotPublished)

	tpl := f.publishedTemplate(t, templateInput(3))
	_, otherTrainee := f.otherPair(t)
	_, err = svc.AssignTemplate(ctx, f.coach.ID, tpl.ID, AssignTemplateInput{TraineeID: otherTrainee.ID})
	assert.ErrorIs(t, err, ErrForbidden)

	start := f.now.Add(48 * time.Hour)
	a, err := svc.AssignTemplate(ctx, f.coach.ID, tpl.ID, AssignTemplateInput{TraineeID: f.trainee.ID, StartDate: start})
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentScheduled, a.Status)
	assert.Equal(t, start.AddDate(0, 0, 21), a.EndDate)
	assert.Equal(t, 1, a.Progress.CurrentWeek)

	_, err = svc.AssignTemplate(ctx, f.coach.ID, tpl.ID, AssignTemplateInput{TraineeID: f.trainee.ID})
	assert.ErrorIs(t, err, ErrConflict)

	stored, err := f.store.Templates().GetByID(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.UsageCount)

	mine, err := svc.ListAssignments(ctx, f.trainee.ID, domain.RoleTrainee, nil)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestUpdateAssignmentProgress(t *testing.T) {
	f := newFixture(t)
	svc := f.assignments()
	ctx := context.Background()

	tpl := f.publishedTemplate(t, templateInput(4))
	a, err := svc.AssignTemplate(ctx, f.coach.ID, tpl.ID, AssignTemplateInput{TraineeID: f.trainee.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentActive, a.Status)

	a, err = svc.UpdateAssignmentProgress(ctx, f.trainee.ID, domain.RoleTrainee, a.ID, ProgressUpdate{
		CurrentWeek:           ptr(2),
		CompletedWorkouts:     ptr(3),
		MissedWorkouts:        ptr(1),
		WeekWorkoutsCompleted: ptr(4),
		WeekMealsCompleted:    ptr(30),
		EnergyLevel:           ptr(7),
	})
	require.NoError(t, err)
	assert.Equal(t, 75.0, a.Progress.WorkoutAdherence)
	require.Len(t, a.Progress.WeeklyProgress, 1)
	week2 := a.Progress.WeeklyProgress[0]
	assert.Equal(t, 2, week2.Week)
	assert.Equal(t, 80.0, week2.WorkoutAdherence)
	assert.Equal(t, 100.0, week2.MealAdherence, "capped at 100")

	// Same week again replaces the entry; another week appends.
	a, err = svc.UpdateAssignmentProgress(ctx, f.coach.ID, domain.RoleCoach, a.ID, ProgressUpdate{
		Week:  ptr(2),
		Notes: ptr("Felt strong"),
	})
	require.NoError(t, err)
	require.Len(t, a.Progress.WeeklyProgress, 1)
	assert.Equal(t, "Felt strong", a.Progress.WeeklyProgress[0].Notes)
	assert.Equal(t, 7, *a.Progress.WeeklyProgress[0].EnergyLevel)

	a, err = svc.UpdateAssignmentProgress(ctx, f.trainee.ID, domain.RoleTrainee, a.ID, ProgressUpdate{
		CurrentWeek:  ptr(3),
		WeightChange: ptr(-1.5),
	})
	require.NoError(t, err)
	assert.Len(t, a.Progress.WeeklyProgress, 2)
	assert.Equal(t, domain.AssignmentActive, a.Status)

	_, err = svc.UpdateAssignmentProgress(ctx, f.trainee.ID, domain.RoleTrainee, a.ID, ProgressUpdate{CurrentDay: ptr(9)})
	assert.ErrorIs(t, err, ErrBadRequest)

	a, err = svc.UpdateAssignmentProgress(ctx, f.trainee.ID, domain.RoleTrainee, a.ID, ProgressUpdate{CurrentWeek: ptr(4)})
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentCompleted, a.Status)
	assert.NotNil(t, a.CompletedAt)

	_, err = svc.UpdateAssignmentProgress(ctx, f.trainee.ID, domain.RoleTrainee, a.ID, ProgressUpdate{CurrentWeek: ptr(5)})
	assert.ErrorIs(t, err, ErrAssignmentClosed)

	stored, err := f.store.Templates().GetByID(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, stored.SuccessRate)
}

func TestAssignmentStatusMachine(t *testing.T) {
	f := newFixture(t)
	svc := f.assignments()
	ctx := context.Background()

	tpl := f.publishedTemplate(t, templateInput(2))
	a, err := svc.AssignTemplate(ctx, f.coach.ID, tpl.ID, AssignTemplateInput{TraineeID: f.trainee.ID})
	require.NoError(t, err)

	_, err = svc.ResumeAssignment(ctx, f.trainee.ID, domain.RoleTrainee, a.ID)
	assert.ErrorIs(t, err, ErrAssignmentNotPaused)

	a, err = svc.PauseAssignment(ctx, f.trainee.ID, domain.RoleTrainee, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentPaused, a.Status)
	assert.NotNil(t, a.PausedAt)

	_, err = svc.PauseAssignment(ctx, f.trainee.ID, domain.RoleTrainee, a.ID)
	assert.ErrorIs(t, err, ErrAssignmentNotActive)

	a, err = svc.ResumeAssignment(ctx, f.trainee.ID, domain.RoleTrainee, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentActive, a.Status)
	assert.Nil(t, a.PausedAt)

	_, err = svc.CancelAssignment(ctx, f.trainee.ID, domain.RoleTrainee, a.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	otherCoach, _ := f.otherPair(t)
	_, err = svc.PauseAssignment(ctx, otherCoach.ID, domain.RoleCoach, a.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestTemplateStats(t *testing.T) {
	f := newFixture(t)
	svc := f.assignments()
	ctx := context.Background()

	tpl := f.publishedTemplate(t, templateInput(1))

	first, err := svc.AssignTemplate(ctx, f.coach.ID, tpl.ID, AssignTemplateInput{TraineeID: f.trainee.ID})
	require.NoError(t, err)
	_, err = svc.UpdateAssignmentProgress(ctx, f.trainee.ID, domain.RoleTrainee, first.ID, ProgressUpdate{CurrentWeek: ptr(1)})
	require.NoError(t, err)
	_, err = svc.RateAssignment(ctx, f.trainee.ID, first.ID, 5, "Loved it")
	require.NoError(t, err)

	second, err := svc.AssignTemplate(ctx, f.coach.ID, tpl.ID, AssignTemplateInput{TraineeID: f.trainee.ID})
	require.NoError(t, err)
	_, err = svc.RateAssignment(ctx, f.trainee.ID, second.ID, 2, "")
	require.NoError(t, err)
	_, err = svc.CancelAssignment(ctx, f.coach.ID, domain.RoleCoach, second.ID)
	require.NoError(t, err)

	_, err = svc.RateAssignment(ctx, f.trainee.ID, second.ID, 0, "")
	assert.ErrorIs(t, err, ErrBadRequest)

	stored, err := f.store.Templates().GetByID(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.5, stored.AverageRating)
	assert.Equal(t, 50.0, stored.SuccessRate)
	assert.Equal(t, 2, stored.UsageCount)
}
