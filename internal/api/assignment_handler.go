package api

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/service"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssignmentHandler serves template assignments for coaches and trainees.
type AssignmentHandler struct {
	assignmentService service.AssignmentService
}

func NewAssignmentHandler(assignmentService service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentService: assignmentService}
}

// ProgressRequest is a partial progress update; omitted fields are left alone.
type ProgressRequest struct {
	CurrentWeek       *int     `json:"currentWeek" binding:"omitempty,min=1"`
	CurrentDay        *int     `json:"currentDay" binding:"omitempty,min=1,max=7"`
	CompletedWorkouts *int     `json:"completedWorkouts" binding:"omitempty,min=0"`
	MissedWorkouts    *int     `json:"missedWorkouts" binding:"omitempty,min=0"`
	CompletedMeals    *int     `json:"completedMeals" binding:"omitempty,min=0"`
	MissedMeals       *int     `json:"missedMeals" binding:"omitempty,min=0"`
	WorkoutAdherence  *float64 `json:"workoutAdherence" binding:"omitempty,min=0,max=100"`
	MealAdherence     *float64 `json:"mealAdherence" binding:"omitempty,min=0,max=100"`

	Week                  *int     `json:"week" binding:"omitempty,min=1"`
	WeekWorkoutsCompleted *int     `json:"weekWorkoutsCompleted" binding:"omitempty,min=0"`
	WeekMealsCompleted    *int     `json:"weekMealsCompleted" binding:"omitempty,min=0"`
	WeightChange          *float64 `json:"weightChange"`
	EnergyLevel           *int     `json:"energyLevel" binding:"omitempty,min=1,max=10"`
	SatisfactionLevel     *int     `json:"satisfactionLevel" binding:"omitempty,min=1,max=10"`
	Notes                 *string  `json:"notes"`
}

type RateAssignmentRequest struct {
	Rating   int    `json:"rating" binding:"required,min=1,max=5"`
	Feedback string `json:"feedback"`
}

// ListAssignments godoc
// @Summary List assignments visible to the caller
// @Tags Assignments
// @Produce json
// @Security BearerAuth
// @Param templateId query string false "Only assignments of this template"
// @Success 200 {array} domain.TemplateAssignment
// @Router /assignments [get]
func (h *AssignmentHandler) ListAssignments(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}
	var templateID *primitive.ObjectID
	if v := c.Query("templateId"); v != "" {
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid templateId.")
			return
		}
		templateID = &id
	}

	list, err := h.assignmentService.ListAssignments(c.Request.Context(), userID, role, templateID)
	if err != nil {
		respondError(c, err, "Failed to retrieve assignments.")
		return
	}
	if list == nil {
		list = []domain.TemplateAssignment{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *AssignmentHandler) GetAssignment(c *gin.Context) {
	h.withAssignment(c, "Failed to retrieve assignment.", h.assignmentService.GetAssignment)
}

// UpdateProgress godoc
// @Summary Merge a progress update into an assignment
// @Tags Assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param assignmentId path string true "Assignment's ObjectID Hex"
// @Param progress body ProgressRequest true "Progress fields to change"
// @Success 200 {object} domain.TemplateAssignment
// @Router /assignments/{assignmentId}/progress [patch]
func (h *AssignmentHandler) UpdateProgress(c *gin.Context) {
	var req ProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	h.withAssignment(c, "Failed to update progress.", func(ctx context.Context, userID primitive.ObjectID, role domain.Role, id primitive.ObjectID) (*domain.TemplateAssignment, error) {
		return h.assignmentService.UpdateAssignmentProgress(ctx, userID, role, id, service.ProgressUpdate{
			CurrentWeek:           req.CurrentWeek,
			CurrentDay:            req.CurrentDay,
			CompletedWorkouts:     req.CompletedWorkouts,
			MissedWorkouts:        req.MissedWorkouts,
			CompletedMeals:        req.CompletedMeals,
			MissedMeals:           req.MissedMeals,
			WorkoutAdherence:      req.WorkoutAdherence,
			MealAdherence:         req.MealAdherence,
			Week:                  req.Week,
			WeekWorkoutsCompleted: req.WeekWorkoutsCompleted,
			WeekMealsCompleted:    req.WeekMealsCompleted,
			WeightChange:          req.WeightChange,
			EnergyLevel:           req.EnergyLevel,
			SatisfactionLevel:     req.SatisfactionLevel,
			Notes:                 req.Notes,
		})
	})
}

func (h *AssignmentHandler) Pause(c *gin.Context) {
	h.withAssignment(c, "Failed to pause assignment.", h.assignmentService.PauseAssignment)
}

func (h *AssignmentHandler) Resume(c *gin.Context) {
	h.withAssignment(c, "Failed to resume assignment.", h.assignmentService.ResumeAssignment)
}

func (h *AssignmentHandler) Cancel(c *gin.Context) {
	h.withAssignment(c, "Failed to cancel assignment.", h.assignmentService.CancelAssignment)
}

func (h *AssignmentHandler) Rate(c *gin.Context) {
	var req RateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	h.withAssignment(c, "Failed to rate assignment.", func(ctx context.Context, traineeID primitive.ObjectID, _ domain.Role, id primitive.ObjectID) (*domain.TemplateAssignment, error) {
		return h.assignmentService.RateAssignment(ctx, traineeID, id, req.Rating, req.Feedback)
	})
}

type assignmentOp func(ctx context.Context, userID primitive.ObjectID, role domain.Role, assignmentID primitive.ObjectID) (*domain.TemplateAssignment, error)

func (h *AssignmentHandler) withAssignment(c *gin.Context, fallback string, op assignmentOp) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}
	assignmentID, ok := pathID(c, "assignmentId")
	if !ok {
		return
	}
	a, err := op(c.Request.Context(), userID, role, assignmentID)
	if err != nil {
		respondError(c, err, fallback)
		return
	}
	c.JSON(http.StatusOK, a)
}
