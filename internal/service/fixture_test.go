package service

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/repository/memory"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fixture is a memory store with one coach managing one trainee and a
// controllable clock.
type fixture struct {
	store   *memory.Store
	coach   *domain.User
	trainee *domain.User
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: memory.NewStore(),
		now:   time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC),
	}
	f.coach = f.addUser(t, "coach@example.com", domain.RoleCoach)
	f.trainee = f.addUser(t, "trainee@example.com", domain.RoleTrainee)
	f.link(t, f.coach, f.trainee)
	return f
}

func (f *fixture) clock() time.Time { return f.now }

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *fixture) addUser(t *testing.T, email string, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{Name: email, Email: email, PasswordHash: "hash", Role: role}
	_, err := f.store.Users().Create(context.Background(), u)
	require.NoError(t, err)
	return u
}

func (f *fixture) link(t *testing.T, coach, trainee *domain.User) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.store.Users().AddTraineeIDToCoach(ctx, coach.ID, trainee.ID))
	require.NoError(t, f.store.Users().SetCoachForTrainee(ctx, trainee.ID, coach.ID))
	trainee.CoachID = &coach.ID
}

// otherPair adds a second coach with a trainee of their own.
func (f *fixture) otherPair(t *testing.T) (*domain.User, *domain.User) {
	t.Helper()
	coach := f.addUser(t, "other-coach@example.com", domain.RoleCoach)
	trainee := f.addUser(t, "other-trainee@example.com", domain.RoleTrainee)
	f.link(t, coach, trainee)
	return coach, trainee
}

func (f *fixture) setProfile(t *testing.T, traineeID primitive.ObjectID, p domain.TraineeProfile) {
	t.Helper()
	require.NoError(t, f.store.Users().UpdateProfile(context.Background(), traineeID, &p))
}

func (f *fixture) tasks() *taskService {
	svc := NewTaskService(f.store.Users(), f.store.Workouts(), f.store.Tasks(), f.store.Submissions(), f.store.Uploads(), f.store, nil).(*taskService)
	svc.now = f.clock
	return svc
}

func (f *fixture) templates() *templateService {
	svc := NewTemplateService(f.store.Templates(), f.store.Assignments(), f.store.Workouts()).(*templateService)
	svc.now = f.clock
	return svc
}

func (f *fixture) assignments() *assignmentService {
	svc := NewAssignmentService(f.store.Users(), f.store.Templates(), f.store.Assignments(), f.store).(*assignmentService)
	svc.now = f.clock
	return svc
}

func (f *fixture) recommendations() *recommendationService {
	coaches := NewCoachService(f.store.Users(), f.store)
	svc := NewRecommendationService(f.store.Users(), f.store.Templates(), f.store.Recommendations(), coaches, f.assignments(), f.store, nil).(*recommendationService)
	svc.now = f.clock
	return svc
}

func customTask(traineeID primitive.ObjectID, opts ...func(*CreateTaskInput)) CreateTaskInput {
	in := CreateTaskInput{
		TraineeID:  traineeID,
		Title:      "Check in",
		TaskType:   domain.TaskTypeCustom,
		TaskConfig: domain.TaskConfig{Custom: &domain.CustomTaskConfig{Instructions: "Tell me how the week went"}},
	}
	for _, o := range opts {
		o(&in)
	}
	return in
}

func customSubmission(taskID primitive.ObjectID) SubmitTaskInput {
	return SubmitTaskInput{
		TaskID:         taskID,
		SubmissionData: domain.SubmissionData{Custom: &domain.CustomSubmission{Response: "Good week"}},
	}
}

func (f *fixture) createTask(t *testing.T, svc TaskService, in CreateTaskInput) *domain.Task {
	t.Helper()
	res, err := svc.CreateTask(context.Background(), f.coach.ID, in)
	require.NoError(t, err)
	return &res.Task.Task
}

func ptr[T any](v T) *T { return &v }
