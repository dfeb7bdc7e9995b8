package service

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/metrics"
	"alcyxob/fitcoach/internal/repository"
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrRecommendationNotFound     = notFound("recommendation not found")
	ErrRecommendationAccessDenied = forbidden("access denied to this recommendation")
	ErrRecommendationExpired      = badRequest("recommendation has expired")
	ErrRecommendationDismissed    = badRequest("recommendation was dismissed")
)

// AcceptResult holds the accepted recommendation and, when a start date was
// given, the assignment created from it.
type AcceptResult struct {
	Recommendation *domain.TemplateRecommendation `json:"recommendation"`
	Assignment     *domain.TemplateAssignment     `json:"assignment,omitempty"`
}

type RecommendationService interface {
	GenerateRecommendationsForTrainee(ctx context.Context, coachID, traineeID primitive.ObjectID) ([]domain.TemplateRecommendation, error)
	ListRecommendations(ctx context.Context, userID primitive.ObjectID, role domain.Role, traineeID *primitive.ObjectID) ([]domain.TemplateRecommendation, error)
	MarkRecommendationViewed(ctx context.Context, userID primitive.ObjectID, role domain.Role, recID primitive.ObjectID) (*domain.TemplateRecommendation, error)
	DismissRecommendation(ctx context.Context, userID primitive.ObjectID, role domain.Role, recID primitive.ObjectID) (*domain.TemplateRecommendation, error)
	AcceptRecommendation(ctx context.Context, coachID, recID primitive.ObjectID, startDate *time.Time) (*AcceptResult, error)
}

// recommendationService implements the RecommendationService interface.
type recommendationService struct {
	userRepo     repository.UserRepository
	templateRepo repository.TemplateRepository
	recRepo      repository.RecommendationRepository
	profiles     TraineeProfileReader
	assignments  AssignmentService
	tx           repository.Transactor
	metrics      *metrics.Metrics
	now          func() time.Time
}

// NewRecommendationService creates a new instance of recommendationService. m may be nil.
func NewRecommendationService(
	userRepo repository.UserRepository,
	templateRepo repository.TemplateRepository,
	recRepo repository.RecommendationRepository,
	profiles TraineeProfileReader,
	assignments AssignmentService,
	tx repository.Transactor,
	m *metrics.Metrics,
) RecommendationService {
	return &recommendationService{
		userRepo:     userRepo,
		templateRepo: templateRepo,
		recRepo:      recRepo,
		profiles:     profiles,
		assignments:  assignments,
		tx:           tx,
		metrics:      m,
		now:          time.Now,
	}
}

// GenerateRecommendationsForTrainee scores every active template of the coach
// against the trainee's profile and replaces the stored recommendations with
// the ones that clear the threshold.
func (s *recommendationService) GenerateRecommendationsForTrainee(ctx context.Context, coachID, traineeID primitive.ObjectID) ([]domain.TemplateRecommendation, error) {
	// 1. Coach must manage the trainee
	if _, err := loadManagedTrainee(ctx, s.userRepo, coachID, traineeID); err != nil {
		return nil, err
	}
	profile, err := s.profiles.GetTraineeProfile(ctx, traineeID)
	if err != nil {
		return nil, err
	}

	// 2. Score active templates
	templates, err := s.templateRepo.Find(ctx, repository.TemplateFilter{CoachID: &coachID, Status: domain.TemplateActive})
	if err != nil {
		return nil, err
	}
	now := s.now()
	var recs []*domain.TemplateRecommendation
	for i := range templates {
		tpl := &templates[i]
		m := Score(profile, tpl)
		if !m.Recommended() {
			continue
		}
		score := round2(m.Score)
		recs = append(recs, &domain.TemplateRecommendation{
			CoachID:    coachID,
			TraineeID:  traineeID,
			TemplateID: tpl.ID,
			Score:      score,
			Confidence: round2(confidence(score, tpl.UsageCount)),
			Reason:     m.Reason,
			Breakdown:  m.Breakdown,
			ExpiresAt:  now.Add(domain.RecommendationTTL),
			CreatedAt:  now,
		})
	}

	// 3. Replace the previous set
	var removed int64
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		n, err := s.recRepo.DeleteByCoachAndTrainee(ctx, coachID, traineeID)
		if err != nil {
			return err
		}
		removed = n
		if len(recs) == 0 {
			return nil
		}
		return s.recRepo.CreateMany(ctx, recs)
	})
	if err != nil {
		log.Printf("ERROR: Failed to store recommendations for trainee %s: %v", traineeID.Hex(), err)
		return nil, err
	}
	s.metrics.RecommendationsGenerated(len(recs))
	log.Printf("INFO: Recommendations for trainee %s: %d templates scored, %d kept, %d replaced", traineeID.Hex(), len(templates), len(recs), removed)

	out := make([]domain.TemplateRecommendation, 0, len(recs))
	for _, r := range recs {
		out = append(out, *r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

// ListRecommendations returns live recommendations, best first. Dismissed
// and expired rows are hidden.
func (s *recommendationService) ListRecommendations(ctx context.Context, userID primitive.ObjectID, role domain.Role, traineeID *primitive.ObjectID) ([]domain.TemplateRecommendation, error) {
	now := s.now()
	f := repository.RecommendationFilter{TraineeID: traineeID, ActiveAt: &now}
	switch role {
	case domain.RoleCoach:
		f.CoachID = &userID
	case domain.RoleTrainee:
		f.TraineeID = &userID
	case domain.RoleAdmin:
	default:
		return nil, ErrRecommendationAccessDenied
	}
	return s.recRepo.Find(ctx, f)
}

func (s *recommendationService) accessible(ctx context.Context, userID primitive.ObjectID, role domain.Role, id primitive.ObjectID) (*domain.TemplateRecommendation, error) {
	rec, err := s.recRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRecommendationNotFound
		}
		return nil, err
	}
	switch {
	case role == domain.RoleAdmin,
		role == domain.RoleCoach && rec.CoachID == userID,
		role == domain.RoleTrainee && rec.TraineeID == userID:
		return rec, nil
	}
	return nil, ErrRecommendationAccessDenied
}

func (s *recommendationService) MarkRecommendationViewed(ctx context.Context, userID primitive.ObjectID, role domain.Role, recID primitive.ObjectID) (*domain.TemplateRecommendation, error) {
	rec, err := s.accessible(ctx, userID, role, recID)
	if err != nil {
		return nil, err
	}
	if rec.IsViewed {
		return rec, nil
	}
	now := s.now()
	rec.IsViewed = true
	rec.ViewedAt = &now
	if err := s.recRepo.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *recommendationService) DismissRecommendation(ctx context.Context, userID primitive.ObjectID, role domain.Role, recID primitive.ObjectID) (*domain.TemplateRecommendation, error) {
	rec, err := s.accessible(ctx, userID, role, recID)
	if err != nil {
		return nil, err
	}
	if rec.IsDismissed {
		return rec, nil
	}
	now := s.now()
	rec.IsDismissed = true
	rec.DismissedAt = &now
	if err := s.recRepo.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// AcceptRecommendation marks a recommendation accepted. With a start date the
// template is assigned to the trainee as well.
func (s *recommendationService) AcceptRecommendation(ctx context.Context, coachID, recID primitive.ObjectID, startDate *time.Time) (*AcceptResult, error) {
	rec, err := s.accessible(ctx, coachID, domain.RoleCoach, recID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if rec.IsDismissed {
		return nil, ErrRecommendationDismissed
	}
	if rec.IsExpired(now) {
		return nil, ErrRecommendationExpired
	}

	result := &AcceptResult{Recommendation: rec}
	if startDate != nil {
		a, err := s.assignments.AssignTemplate(ctx, coachID, rec.TemplateID, AssignTemplateInput{
			TraineeID: rec.TraineeID,
			StartDate: *startDate,
		})
		if err != nil {
			return nil, err
		}
		result.Assignment = a
	}

	if !rec.IsAccepted {
		rec.IsAccepted = true
		rec.AcceptedAt = &now
		if err := s.recRepo.Update(ctx, rec); err != nil {
			return nil, err
		}
	}
	return result, nil
}
