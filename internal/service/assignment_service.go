package service

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/repository"
	"context"
	"errors"
	"log"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrAssignmentNotFound      = notFound("assignment not found")
	ErrAssignmentAccessDenied  = forbidden("access denied to this assignment")
	ErrAssignmentClosed        = badRequest("assignment is already completed or cancelled")
	ErrAssignmentNotActive     = badRequest("only active assignments can be paused")
	ErrAssignmentNotPaused     = badRequest("only paused assignments can be resumed")
	ErrTemplateAlreadyAssigned = conflict("trainee already has this template running")
)

// Weekly adherence assumes a fixed plan density.
const (
	workoutsPerWeek = 5
	mealsPerWeek    = 21
)

type AssignTemplateInput struct {
	TraineeID      primitive.ObjectID
	StartDate      time.Time // zero means now
	Customizations *domain.AssignmentCustomizations
	Notes          string
}

// ProgressUpdate is merged into the stored progress; nil fields are left alone.
// Any of the qualitative fields (or a weekly count) upserts the entry for
// Week, which defaults to the current week.
type ProgressUpdate struct {
	CurrentWeek       *int
	CurrentDay        *int
	CompletedWorkouts *int
	MissedWorkouts    *int
	CompletedMeals    *int
	MissedMeals       *int
	WorkoutAdherence  *float64
	MealAdherence     *float64

	Week                  *int
	WeekWorkoutsCompleted *int
	WeekMealsCompleted    *int
	WeightChange          *float64
	EnergyLevel           *int
	SatisfactionLevel     *int
	Notes                 *string
}

type AssignmentService interface {
	AssignTemplate(ctx context.Context, coachID, templateID primitive.ObjectID, in AssignTemplateInput) (*domain.TemplateAssignment, error)
	ListAssignments(ctx context.Context, userID primitive.ObjectID, role domain.Role, templateID *primitive.ObjectID) ([]domain.TemplateAssignment, error)
	GetAssignment(ctx context.Context, userID primitive.ObjectID, role domain.Role, assignmentID primitive.ObjectID) (*domain.TemplateAssignment, error)
	UpdateAssignmentProgress(ctx context.Context, userID primitive.ObjectID, role domain.Role, assignmentID primitive.ObjectID, in ProgressUpdate) (*domain.TemplateAssignment, error)
	PauseAssignment(ctx context.Context, userID primitive.ObjectID, role domain.Role, assignmentID primitive.ObjectID) (*domain.TemplateAssignment, error)
	ResumeAssignment(ctx context.Context, userID primitive.ObjectID, role domain.Role, assignmentID primitive.ObjectID) (*domain.TemplateAssignment, error)
	CancelAssignment(ctx context.Context, userID primitive.ObjectID, role domain.Role, assignmentID primitive.ObjectID) (*domain.TemplateAssignment, error)
	RateAssignment(ctx context.Context, traineeID, assignmentID primitive.ObjectID, rating int, feedback string) (*domain.TemplateAssignment, error)
}

// assignmentService implements the AssignmentService interface.
type assignmentService struct {
	userRepo       repository.UserRepository
	templateRepo   repository.TemplateRepository
	assignmentRepo repository.AssignmentRepository
	tx             repository.Transactor
	now            func() time.Time
}

// NewAssignmentService creates a new instance of assignmentService.
func NewAssignmentService(userRepo repository.UserRepository, templateRepo repository.TemplateRepository, assignmentRepo repository.AssignmentRepository, tx repository.Transactor) AssignmentService {
	return &assignmentService{
		userRepo:       userRepo,
		templateRepo:   templateRepo,
		assignmentRepo: assignmentRepo,
		tx:             tx,
		now:            time.Now,
	}
}

// AssignTemplate binds an active template to a trainee on the coach's roster.
func (s *assignmentService) AssignTemplate(ctx context.Context, coachID, templateID primitive.ObjectID, in AssignTemplateInput) (*domain.TemplateAssignment, error) {
	// 1. Template must be active and owned
	tpl, err := s.templateRepo.GetByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	if tpl.CoachID != coachID {
		return nil, ErrTemplateAccessDenied
	}
	if tpl.Status != domain.TemplateActive {
		return nil, ErrTemplateNotPublished
	}

	// 2. Trainee must be managed
	if _, err := loadManagedTrainee(ctx, s.userRepo, coachID, in.TraineeID); err != nil {
		return nil, err
	}
	running, err := s.assignmentRepo.Count(ctx, repository.AssignmentFilter{
		TemplateID: &templateID,
		TraineeID:  &in.TraineeID,
		Statuses:   domain.LiveAssignmentStatuses,
	})
	if err != nil {
		return nil, err
	}
	if running > 0 {
		return nil, ErrTemplateAlreadyAssigned
	}

	// 3. Dates and initial status
	now := s.now()
	start := in.StartDate
	if start.IsZero() {
		start = now
	}
	status := domain.AssignmentActive
	if start.After(now) {
		status = domain.AssignmentScheduled
	}
	a := &domain.TemplateAssignment{
		TemplateID:     templateID,
		TraineeID:      in.TraineeID,
		CoachID:        coachID,
		StartDate:      start,
		EndDate:        start.AddDate(0, 0, tpl.DurationWeeks*7),
		Status:         status,
		Customizations: in.Customizations,
		Progress:       domain.AssignmentProgress{CurrentWeek: 1, CurrentDay: 1},
		Notes:          in.Notes,
		AssignedAt:     now,
		UpdatedAt:      now,
	}

	// 4. Insert and count usage together
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		id, err := s.assignmentRepo.Create(ctx, a)
		if err != nil {
			return err
		}
		a.ID = id
		return s.templateRepo.IncrementUsage(ctx, templateID)
	})
	if err != nil {
		log.Printf("ERROR: Failed to assign template %s to trainee %s: %v", templateID.Hex(), in.TraineeID.Hex(), err)
		return nil, err
	}
	log.Printf("INFO: Template %s assigned to trainee %s (%s)", templateID.Hex(), in.TraineeID.Hex(), status)
	return a, nil
}

func (s *assignmentService) ListAssignments(ctx context.Context, userID primitive.ObjectID, role domain.Role, templateID *primitive.ObjectID) ([]domain.TemplateAssignment, error) {
	f := repository.AssignmentFilter{TemplateID: templateID}
	switch role {
	case domain.RoleCoach:
		f.CoachID = &userID
	case domain.RoleTrainee:
		f.TraineeID = &userID
	case domain.RoleAdmin:
	default:
		return nil, ErrAssignmentAccessDenied
	}
	return s.assignmentRepo.Find(ctx, f)
}

// accessible loads an assignment the caller is a party to.
func (s *assignmentService) accessible(ctx context.Context, userID primitive.ObjectID, role domain.Role, id primitive.ObjectID) (*domain.TemplateAssignment, error) {
	a, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	switch role {
	case domain.RoleAdmin:
		return a, nil
	case domain.RoleCoach:
		if a.CoachID == userID {
			return a, nil
		}
	case domain.RoleTrainee:
		if a.TraineeID == userID {
			return a, nil
		}
	}
	return nil, ErrAssignmentAccessDenied
}

func (s *assignmentService) GetAssignment(ctx context.Context, userID primitive.ObjectID, role domain.Role, assignmentID primitive.ObjectID) (*domain.TemplateAssignment, error) {
	return s.accessible(ctx, userID, role, assignmentID)
}

func isClosed(st domain.AssignmentStatus) bool {
	return st == domain.AssignmentCompleted || st == domain.AssignmentCancelled
}

func validateProgressUpdate(in *ProgressUpdate) error {
	nonNeg := func(v *int) bool { return v == nil || *v >= 0 }
	pct := func(v *float64) bool { return v == nil || (*v >= 0 && *v <= 100) }
	scale := func(v *int) bool { return v == nil || (*v >= 1 && *v <= 10) }
	switch {
	case in.CurrentWeek != nil && *in.CurrentWeek < 1:
		return badRequest("currentWeek must be at least 1")
	case in.CurrentDay != nil && (*in.CurrentDay < 1 || *in.CurrentDay > 7):
		return badRequest("currentDay must be between 1 and 7")
	case in.Week != nil && *in.Week < 1:
		return badRequest("week must be at least 1")
	case !nonNeg(in.CompletedWorkouts) || !nonNeg(in.MissedWorkouts) || !nonNeg(in.CompletedMeals) || !nonNeg(in.MissedMeals):
		return badRequest("progress counters cannot be negative")
	case !nonNeg(in.WeekWorkoutsCompleted) || !nonNeg(in.WeekMealsCompleted):
		return badRequest("weekly counts cannot be negative")
	case !pct(in.WorkoutAdherence) || !pct(in.MealAdherence):
		return badRequest("adherence must be between 0 and 100")
	case !scale(in.EnergyLevel) || !scale(in.SatisfactionLevel):
		return badRequest("energy and satisfaction levels must be between 1 and 10")
	}
	return nil
}

func weeklyAdherence(done, perWeek int) float64 {
	return round2(math.Min(100, float64(done)/float64(perWeek)*100))
}

func ratio(done, missed int) float64 {
	if done+missed == 0 {
		return 0
	}
	return round2(float64(done) / float64(done+missed) * 100)
}

// mergeProgress folds in into p.
func mergeProgress(p *domain.AssignmentProgress, in *ProgressUpdate, now time.Time) {
	setInt := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	setInt(&p.CurrentWeek, in.CurrentWeek)
	setInt(&p.CurrentDay, in.CurrentDay)
	setInt(&p.CompletedWorkouts, in.CompletedWorkouts)
	setInt(&p.MissedWorkouts, in.MissedWorkouts)
	setInt(&p.CompletedMeals, in.CompletedMeals)
	setInt(&p.MissedMeals, in.MissedMeals)

	switch {
	case in.WorkoutAdherence != nil:
		p.WorkoutAdherence = *in.WorkoutAdherence
	case in.CompletedWorkouts != nil || in.MissedWorkouts != nil:
		p.WorkoutAdherence = ratio(p.CompletedWorkouts, p.MissedWorkouts)
	}
	switch {
	case in.MealAdherence != nil:
		p.MealAdherence = *in.MealAdherence
	case in.CompletedMeals != nil || in.MissedMeals != nil:
		p.MealAdherence = ratio(p.CompletedMeals, p.MissedMeals)
	}

	if in.WeightChange != nil || in.EnergyLevel != nil || in.SatisfactionLevel != nil || in.Notes != nil ||
		in.WeekWorkoutsCompleted != nil || in.WeekMealsCompleted != nil {
		week := p.CurrentWeek
		if in.Week != nil {
			week = *in.Week
		}
		upsertWeek(p, week, in)
	}
	p.LastUpdated = &now
}

// upsertWeek replaces the entry for week, or appends one. Last writer wins.
func upsertWeek(p *domain.AssignmentProgress, week int, in *ProgressUpdate) {
	entry := domain.WeeklyProgress{Week: week}
	idx := -1
	for i := range p.WeeklyProgress {
		if p.WeeklyProgress[i].Week == week {
			idx = i
			entry = p.WeeklyProgress[i]
			break
		}
	}

	if in.WeekWorkoutsCompleted != nil {
		entry.WorkoutAdherence = weeklyAdherence(*in.WeekWorkoutsCompleted, workoutsPerWeek)
	}
	if in.WeekMealsCompleted != nil {
		entry.MealAdherence = weeklyAdherence(*in.WeekMealsCompleted, mealsPerWeek)
	}
	if in.WeightChange != nil {
		entry.WeightChange = in.WeightChange
	}
	if in.EnergyLevel != nil {
		entry.EnergyLevel = in.EnergyLevel
	}
	if in.SatisfactionLevel != nil {
		entry.SatisfactionLevel = in.SatisfactionLevel
	}
	if in.Notes != nil {
		entry.Notes = *in.Notes
	}

	if idx >= 0 {
		p.WeeklyProgress[idx] = entry
		return
	}
	p.WeeklyProgress = append(p.WeeklyProgress, entry)
}

// UpdateAssignmentProgress merges a progress report and completes the
// assignment once the current week reaches the template's duration.
func (s *assignmentService) UpdateAssignmentProgress(ctx context.Context, userID primitive.ObjectID, role domain.Role, assignmentID primitive.ObjectID, in ProgressUpdate) (*domain.TemplateAssignment, error) {
	// 1. Validate Input
	if err := validateProgressUpdate(&in); err != nil {
		return nil, err
	}
	a, err := s.accessible(ctx, userID, role, assignmentID)
	if err != nil {
		return nil, err
	}
	if isClosed(a.Status) {
		return nil, ErrAssignmentClosed
	}
	tpl, err := s.templateRepo.GetByID(ctx, a.TemplateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}

	// 2. Merge
	now := s.now()
	mergeProgress(&a.Progress, &in, now)
	if a.Status == domain.AssignmentScheduled {
		a.Status = domain.AssignmentActive
	}

	// 3. Auto-complete
	completed := false
	if tpl.DurationWeeks > 0 && a.Progress.CurrentWeek >= tpl.DurationWeeks {
		a.Status = domain.AssignmentCompleted
		a.CompletedAt = &now
		a.PausedAt = nil
		completed = true
	}
	a.UpdatedAt = now

	if err := s.assignmentRepo.Update(ctx, a); err != nil {
		return nil, err
	}
	if completed {
		log.Printf("INFO: Assignment %s completed at week %d", a.ID.Hex(), a.Progress.CurrentWeek)
		s.refreshTemplateStats(ctx, a.TemplateID)
	}
	return a, nil
}

func (s *assignmentService) PauseAssignment(ctx context.Context, userID primitive.ObjectID, role domain.Role, assignmentID primitive.ObjectID) (*domain.TemplateAssignment, error) {
	a, err := s.accessible(ctx, userID, role, assignmentID)
	if err != nil {
		return nil, err
	}
	if a.Status != domain.AssignmentActive {
		return nil, ErrAssignmentNotActive
	}
	now := s.now()
	a.Status = domain.AssignmentPaused
	a.PausedAt = &now
	a.UpdatedAt = now
	if err := s.assignmentRepo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *assignmentService) ResumeAssignment(ctx context.Context, userID primitive.ObjectID, role domain.Role, assignmentID primitive.ObjectID) (*domain.TemplateAssignment, error) {
	a, err := s.accessible(ctx, userID, role, assignmentID)
	if err != nil {
		return nil, err
	}
	if a.Status != domain.AssignmentPaused {
		return nil, ErrAssignmentNotPaused
	}
	a.Status = domain.AssignmentActive
	a.PausedAt = nil
	a.UpdatedAt = s.now()
	if err := s.assignmentRepo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// CancelAssignment stops a running assignment. Trainees cannot cancel.
func (s *assignmentService) CancelAssignment(ctx context.Context, userID primitive.ObjectID, role domain.Role, assignmentID primitive.ObjectID) (*domain.TemplateAssignment, error) {
	if role == domain.RoleTrainee {
		return nil, ErrAssignmentAccessDenied
	}
	a, err := s.accessible(ctx, userID, role, assignmentID)
	if err != nil {
		return nil, err
	}
	if isClosed(a.Status) {
		return nil, ErrAssignmentClosed
	}
	now := s.now()
	a.Status = domain.AssignmentCancelled
	a.CancelledAt = &now
	a.PausedAt = nil
	a.UpdatedAt = now
	if err := s.assignmentRepo.Update(ctx, a); err != nil {
		return nil, err
	}
	s.refreshTemplateStats(ctx, a.TemplateID)
	return a, nil
}

// RateAssignment stores the trainee's 1-5 rating and feedback.
func (s *assignmentService) RateAssignment(ctx context.Context, traineeID, assignmentID primitive.ObjectID, rating int, feedback string) (*domain.TemplateAssignment, error) {
	if rating < 1 || rating > 5 {
		return nil, badRequest("rating must be between 1 and 5")
	}
	a, err := s.accessible(ctx, traineeID, domain.RoleTrainee, assignmentID)
	if err != nil {
		return nil, err
	}
	if a.Status == domain.AssignmentCancelled {
		return nil, ErrAssignmentClosed
	}
	a.Progress.Rating = &rating
	a.Progress.Feedback = feedback
	a.UpdatedAt = s.now()
	if err := s.assignmentRepo.Update(ctx, a); err != nil {
		return nil, err
	}
	s.refreshTemplateStats(ctx, a.TemplateID)
	return a, nil
}

// templateStats computes averageRating over rated assignments and
// successRate as completed / (completed + cancelled).
func templateStats(assignments []domain.TemplateAssignment) (avgRating, successRate float64) {
	var ratingSum, rated, completed, cancelled int
	for i := range assignments {
		a := &assignments[i]
		if a.Progress.Rating != nil {
			ratingSum += *a.Progress.Rating
			rated++
		}
		switch a.Status {
		case domain.AssignmentCompleted:
			completed++
		case domain.AssignmentCancelled:
			cancelled++
		}
	}
	if rated > 0 {
		avgRating = round2(float64(ratingSum) / float64(rated))
	}
	if completed+cancelled > 0 {
		successRate = round2(float64(completed) / float64(completed+cancelled) * 100)
	}
	return avgRating, successRate
}

// refreshTemplateStats recomputes the template aggregates. Failures are
// logged; the assignment change has already been saved.
func (s *assignmentService) refreshTemplateStats(ctx context.Context, templateID primitive.ObjectID) {
	all, err := s.assignmentRepo.Find(ctx, repository.AssignmentFilter{TemplateID: &templateID})
	if err != nil {
		log.Printf("WARN: Could not load assignments for template %s stats: %v", templateID.Hex(), err)
		return
	}
	avg, success := templateStats(all)
	if err := s.templateRepo.UpdateStats(ctx, templateID, avg, success); err != nil {
		log.Printf("WARN: Could not update stats for template %s: %v", templateID.Hex(), err)
	}
}
