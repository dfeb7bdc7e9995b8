package api

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/service"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RecommendationHandler struct {
	recService service.RecommendationService
}

func NewRecommendationHandler(recService service.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{recService: recService}
}

type AcceptRecommendationRequest struct {
	StartDate *time.Time `json:"startDate"` // when set, the template is assigned too
}

// Generate godoc
// @Summary Score the coach's active templates against a trainee's profile
// @Description Replaces the trainee's previous recommendations with every template scoring above 60.
// @Tags Recommendations
// @Produce json
// @Security BearerAuth
// @Param traineeId path string true "Trainee's ObjectID Hex"
// @Success 200 {array} domain.TemplateRecommendation
// @Failure 400 {object} gin.H "Trainee has no profile"
// @Failure 403 {object} gin.H "Trainee is not managed by this coach"
// @Router /coach/trainees/{traineeId}/recommendations [post]
func (h *RecommendationHandler) Generate(c *gin.Context) {
	coachID, _, ok := currentUser(c)
	if !ok {
		return
	}
	traineeID, ok := pathID(c, "traineeId")
	if !ok {
		return
	}
	recs, err := h.recService.GenerateRecommendationsForTrainee(c.Request.Context(), coachID, traineeID)
	if err != nil {
		respondError(c, err, "Failed to generate recommendations.")
		return
	}
	writeRecommendations(c, recs)
}

// ListForTrainee lists a managed trainee's live recommendations for the coach.
func (h *RecommendationHandler) ListForTrainee(c *gin.Context) {
	coachID, role, ok := currentUser(c)
	if !ok {
		return
	}
	traineeID, ok := pathID(c, "traineeId")
	if !ok {
		return
	}
	recs, err := h.recService.ListRecommendations(c.Request.Context(), coachID, role, &traineeID)
	if err != nil {
		respondError(c, err, "Failed to retrieve recommendations.")
		return
	}
	writeRecommendations(c, recs)
}

// ListMine lists the calling trainee's live recommendations.
func (h *RecommendationHandler) ListMine(c *gin.Context) {
	traineeID, role, ok := currentUser(c)
	if !ok {
		return
	}
	recs, err := h.recService.ListRecommendations(c.Request.Context(), traineeID, role, nil)
	if err != nil {
		respondError(c, err, "Failed to retrieve recommendations.")
		return
	}
	writeRecommendations(c, recs)
}

func (h *RecommendationHandler) MarkViewed(c *gin.Context) {
	h.withRecommendation(c, "Failed to update recommendation.", h.recService.MarkRecommendationViewed)
}

func (h *RecommendationHandler) Dismiss(c *gin.Context) {
	h.withRecommendation(c, "Failed to dismiss recommendation.", h.recService.DismissRecommendation)
}

// Accept godoc
// @Summary Accept a recommendation, optionally assigning the template
// @Tags Recommendations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param recommendationId path string true "Recommendation's ObjectID Hex"
// @Param request body AcceptRecommendationRequest false "Start date for the assignment"
// @Success 200 {object} service.AcceptResult
// @Failure 400 {object} gin.H "Expired or dismissed"
// @Router /coach/recommendations/{recommendationId}/accept [post]
func (h *RecommendationHandler) Accept(c *gin.Context) {
	var req AcceptRecommendationRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid request: "+err.Error())
			return
		}
	}
	coachID, _, ok := currentUser(c)
	if !ok {
		return
	}
	recID, ok := pathID(c, "recommendationId")
	if !ok {
		return
	}
	res, err := h.recService.AcceptRecommendation(c.Request.Context(), coachID, recID, req.StartDate)
	if err != nil {
		respondError(c, err, "Failed to accept recommendation.")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *RecommendationHandler) withRecommendation(c *gin.Context, fallback string, op func(context.Context, primitive.ObjectID, domain.Role, primitive.ObjectID) (*domain.TemplateRecommendation, error)) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}
	recID, ok := pathID(c, "recommendationId")
	if !ok {
		return
	}
	rec, err := op(c.Request.Context(), userID, role, recID)
	if err != nil {
		respondError(c, err, fallback)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func writeRecommendations(c *gin.Context, recs []domain.TemplateRecommendation) {
	if recs == nil {
		recs = []domain.TemplateRecommendation{}
	}
	c.JSON(http.StatusOK, recs)
}
