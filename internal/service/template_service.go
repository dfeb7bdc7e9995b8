package service

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/repository"
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrTemplateNotFound      = notFound("template not found")
	ErrTemplateAccessDenied  = forbidden("access denied to this template")
	ErrTemplateNotDraft      = badRequest("only draft templates can be published")
	ErrTemplateArchived      = badRequest("archived templates cannot be changed")
	ErrTemplateNotPublished  = badRequest("template is not active")
	ErrTemplateEmptySchedule = badRequest("template needs at least one scheduled week and a duration of one week or more")
	ErrTemplateInUse         = badRequest("template has assignments that are still running")
	ErrTemplateHasHistory    = badRequest("cannot delete a template that has been assigned")
)

// TemplateInput carries the editable fields of a template.
type TemplateInput struct {
	Name             string
	Description      string
	Category         string
	DurationWeeks    int
	Tags             []string
	Schedule         []domain.TemplateWeek
	TargetCriteria   domain.TargetCriteria
	NutritionTargets *domain.NutritionTargets
	FitnessTargets   *domain.FitnessTargets
}

type TemplateService interface {
	CreateTemplate(ctx context.Context, coachID primitive.ObjectID, in TemplateInput) (*domain.Template, error)
	GetTemplate(ctx context.Context, userID primitive.ObjectID, role domain.Role, templateID primitive.ObjectID) (*domain.Template, error)
	ListTemplates(ctx context.Context, coachID primitive.ObjectID, status domain.TemplateStatus) ([]domain.Template, error)
	UpdateTemplate(ctx context.Context, coachID, templateID primitive.ObjectID, in TemplateInput) (*domain.Template, error)
	PublishTemplate(ctx context.Context, coachID, templateID primitive.ObjectID) (*domain.Template, error)
	ArchiveTemplate(ctx context.Context, coachID, templateID primitive.ObjectID) (*domain.Template, error)
	DeleteTemplate(ctx context.Context, coachID, templateID primitive.ObjectID) error
}

// templateService implements the TemplateService interface.
type templateService struct {
	templateRepo   repository.TemplateRepository
	assignmentRepo repository.AssignmentRepository
	workoutRepo    repository.WorkoutRepository
	now            func() time.Time
}

// NewTemplateService creates a new instance of templateService.
func NewTemplateService(templateRepo repository.TemplateRepository, assignmentRepo repository.AssignmentRepository, workoutRepo repository.WorkoutRepository) TemplateService {
	return &templateService{
		templateRepo:   templateRepo,
		assignmentRepo: assignmentRepo,
		workoutRepo:    workoutRepo,
		now:            time.Now,
	}
}

func validateTemplateInput(in *TemplateInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return badRequest("template name is required")
	}
	if in.DurationWeeks < 0 || in.DurationWeeks > 104 {
		return badRequest("durationWeeks must be between 0 and 104")
	}

	c := &in.TargetCriteria
	switch {
	case c.AgeMin < 0 || c.AgeMax < 0:
		return badRequest("age bounds cannot be negative")
	case c.AgeMin > 0 && c.AgeMax > 0 && c.AgeMin > c.AgeMax:
		return badRequest("ageMin must not exceed ageMax")
	case c.FitnessLevel != "" && !c.FitnessLevel.IsValid():
		return badRequest("target fitnessLevel must be beginner, intermediate, or advanced")
	case c.MinMinutesPerDay < 0 || c.MinDaysPerWeek < 0 || c.MinDaysPerWeek > 7:
		return badRequest("time requirements are out of range")
	}
	c.Goals = normalizeTags(c.Goals)
	c.Equipment = normalizeTags(c.Equipment)
	in.Tags = normalizeTags(in.Tags)

	seenWeeks := make(map[int]bool)
	for _, w := range in.Schedule {
		if w.Week < 1 || w.Week > in.DurationWeeks {
			return badRequestf("schedule week %d is outside 1..%d", w.Week, in.DurationWeeks)
		}
		if seenWeeks[w.Week] {
			return badRequestf("schedule week %d appears twice", w.Week)
		}
		seenWeeks[w.Week] = true

		seenDays := make(map[int]bool)
		for _, d := range w.Days {
			if d.Day < 1 || d.Day > 7 {
				return badRequestf("week %d has day %d; days run 1..7", w.Week, d.Day)
			}
			if seenDays[d.Day] {
				return badRequestf("week %d lists day %d twice", w.Week, d.Day)
			}
			seenDays[d.Day] = true
		}
	}
	return nil
}

// checkScheduleWorkouts makes sure every scheduled workout is in the coach's library.
func (s *templateService) checkScheduleWorkouts(ctx context.Context, coachID primitive.ObjectID, schedule []domain.TemplateWeek) error {
	checked := make(map[primitive.ObjectID]bool)
	for _, w := range schedule {
		for _, d := range w.Days {
			for _, id := range d.WorkoutIDs {
				if checked[id] {
					continue
				}
				workout, err := s.workoutRepo.GetByID(ctx, id)
				if err != nil {
					if errors.Is(err, repository.ErrNotFound) {
						return badRequestf("workout %s not found", id.Hex())
					}
					return err
				}
				if workout.CoachID != coachID {
					return ErrWorkoutAccessDenied
				}
				checked[id] = true
			}
		}
	}
	return nil
}

func (s *templateService) CreateTemplate(ctx context.Context, coachID primitive.ObjectID, in TemplateInput) (*domain.Template, error) {
	// 1. Validate Input
	if err := validateTemplateInput(&in); err != nil {
		return nil, err
	}
	if err := s.checkScheduleWorkouts(ctx, coachID, in.Schedule); err != nil {
		return nil, err
	}

	// 2. Save as draft
	tpl := &domain.Template{CoachID: coachID, Status: domain.TemplateDraft}
	applyTemplateInput(tpl, &in)
	id, err := s.templateRepo.Create(ctx, tpl)
	if err != nil {
		log.Printf("ERROR: Failed to create template for coach %s: %v", coachID.Hex(), err)
		return nil, err
	}
	tpl.ID = id
	return tpl, nil
}

func applyTemplateInput(tpl *domain.Template, in *TemplateInput) {
	tpl.Name = in.Name
	tpl.Description = in.Description
	tpl.Category = in.Category
	tpl.DurationWeeks = in.DurationWeeks
	tpl.Tags = in.Tags
	tpl.Schedule = in.Schedule
	if tpl.Schedule == nil {
		tpl.Schedule = []domain.TemplateWeek{}
	}
	tpl.TargetCriteria = in.TargetCriteria
	tpl.NutritionTargets = in.NutritionTargets
	tpl.FitnessTargets = in.FitnessTargets
}

func (s *templateService) load(ctx context.Context, id primitive.ObjectID) (*domain.Template, error) {
	tpl, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return tpl, nil
}

func (s *templateService) owned(ctx context.Context, coachID, id primitive.ObjectID) (*domain.Template, error) {
	tpl, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if tpl.CoachID != coachID {
		return nil, ErrTemplateAccessDenied
	}
	return tpl, nil
}

// GetTemplate returns a template to its coach or an admin. Trainees may read
// templates that have been published.
func (s *templateService) GetTemplate(ctx context.Context, userID primitive.ObjectID, role domain.Role, templateID primitive.ObjectID) (*domain.Template, error) {
	tpl, err := s.load(ctx, templateID)
	if err != nil {
		return nil, err
	}
	switch role {
	case domain.RoleAdmin:
	case domain.RoleCoach:
		if tpl.CoachID != userID {
			return nil, ErrTemplateAccessDenied
		}
	case domain.RoleTrainee:
		if tpl.Status == domain.TemplateDraft {
			return nil, ErrTemplateNotFound
		}
	default:
		return nil, ErrTemplateAccessDenied
	}
	return tpl, nil
}

func (s *templateService) ListTemplates(ctx context.Context, coachID primitive.ObjectID, status domain.TemplateStatus) ([]domain.Template, error) {
	switch status {
	case "", domain.TemplateDraft, domain.TemplateActive, domain.TemplateArchived:
	default:
		return nil, badRequestf("unknown template status %q", status)
	}
	return s.templateRepo.Find(ctx, repository.TemplateFilter{CoachID: &coachID, Status: status})
}

// UpdateTemplate replaces the editable fields. Stats and status are untouched.
func (s *templateService) UpdateTemplate(ctx context.Context, coachID, templateID primitive.ObjectID, in TemplateInput) (*domain.Template, error) {
	tpl, err := s.owned(ctx, coachID, templateID)
	if err != nil {
		return nil, err
	}
	if tpl.Status == domain.TemplateArchived {
		return nil, ErrTemplateArchived
	}
	if err := validateTemplateInput(&in); err != nil {
		return nil, err
	}
	if tpl.Status == domain.TemplateActive && (len(in.Schedule) == 0 || in.DurationWeeks < 1) {
		return nil, ErrTemplateEmptySchedule
	}
	if err := s.checkScheduleWorkouts(ctx, coachID, in.Schedule); err != nil {
		return nil, err
	}

	applyTemplateInput(tpl, &in)
	if err := s.templateRepo.Update(ctx, tpl); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return tpl, nil
}

// PublishTemplate moves a draft to active.
func (s *templateService) PublishTemplate(ctx context.Context, coachID, templateID primitive.ObjectID) (*domain.Template, error) {
	tpl, err := s.owned(ctx, coachID, templateID)
	if err != nil {
		return nil, err
	}
	if tpl.Status != domain.TemplateDraft {
		return nil, ErrTemplateNotDraft
	}
	if len(tpl.Schedule) == 0 || tpl.DurationWeeks < 1 {
		return nil, ErrTemplateEmptySchedule
	}

	now := s.now()
	tpl.Status = domain.TemplateActive
	tpl.PublishedAt = &now
	if err := s.templateRepo.Update(ctx, tpl); err != nil {
		return nil, err
	}
	log.Printf("INFO: Template %s published by coach %s", tpl.ID.Hex(), coachID.Hex())
	return tpl, nil
}

// ArchiveTemplate retires a template once nobody is running it.
func (s *templateService) ArchiveTemplate(ctx context.Context, coachID, templateID primitive.ObjectID) (*domain.Template, error) {
	tpl, err := s.owned(ctx, coachID, templateID)
	if err != nil {
		return nil, err
	}
	if tpl.Status == domain.TemplateArchived {
		return tpl, nil
	}
	live, err := s.assignmentRepo.Count(ctx, repository.AssignmentFilter{
		TemplateID: &templateID,
		Statuses:   domain.LiveAssignmentStatuses,
	})
	if err != nil {
		return nil, err
	}
	if live > 0 {
		return nil, ErrTemplateInUse
	}

	tpl.Status = domain.TemplateArchived
	if err := s.templateRepo.Update(ctx, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

// DeleteTemplate removes a template that was never assigned.
func (s *templateService) DeleteTemplate(ctx context.Context, coachID, templateID primitive.ObjectID) error {
	if _, err := s.owned(ctx, coachID, templateID); err != nil {
		return err
	}
	n, err := s.assignmentRepo.Count(ctx, repository.AssignmentFilter{TemplateID: &templateID})
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrTemplateHasHistory
	}
	if err := s.templateRepo.Delete(ctx, templateID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTemplateNotFound
		}
		return err
	}
	return nil
}
