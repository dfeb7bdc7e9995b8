package api

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

type CoachHandler struct {
	coachService service.CoachService
}

func NewCoachHandler(coachService service.CoachService) *CoachHandler {
	return &CoachHandler{coachService: coachService}
}

type AddTraineeRequest struct {
	TraineeEmail string `json:"traineeEmail" binding:"required,email"`
}

// AddTraineeByEmail godoc
// @Summary Add a trainee to the coach's roster by email
// @Tags Coach
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body AddTraineeRequest true "Trainee's email"
// @Success 200 {object} UserResponse
// @Failure 400 {object} gin.H "Validation error, or user is not a trainee"
// @Failure 404 {object} gin.H "Trainee not found"
// @Failure 409 {object} gin.H "Trainee already has a coach"
// @Router /coach/trainees [post]
func (h *CoachHandler) AddTraineeByEmail(c *gin.Context) {
	var req AddTraineeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	coachID, _, ok := currentUser(c)
	if !ok {
		return
	}

	trainee, err := h.coachService.AddTraineeByEmail(c.Request.Context(), coachID, req.TraineeEmail)
	if err != nil {
		respondError(c, err, "Failed to add trainee.")
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(trainee))
}

// GetManagedTrainees godoc
// @Summary Get the coach's managed trainees
// @Tags Coach
// @Produce json
// @Security BearerAuth
// @Success 200 {array} UserResponse
// @Router /coach/trainees [get]
func (h *CoachHandler) GetManagedTrainees(c *gin.Context) {
	coachID, _, ok := currentUser(c)
	if !ok {
		return
	}

	trainees, err := h.coachService.GetManagedTrainees(c.Request.Context(), coachID)
	if err != nil {
		respondError(c, err, "Failed to retrieve managed trainees.")
		return
	}
	c.JSON(http.StatusOK, MapUsersToResponse(trainees)) // [] rather than null
}

// GetMyProfile returns the calling trainee's profile.
func (h *CoachHandler) GetMyProfile(c *gin.Context) {
	traineeID, _, ok := currentUser(c)
	if !ok {
		return
	}
	profile, err := h.coachService.GetTraineeProfile(c.Request.Context(), traineeID)
	if err != nil {
		respondError(c, err, "Failed to retrieve profile.")
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateMyProfile replaces the calling trainee's profile.
func (h *CoachHandler) UpdateMyProfile(c *gin.Context) {
	var req domain.TraineeProfile
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	traineeID, _, ok := currentUser(c)
	if !ok {
		return
	}
	profile, err := h.coachService.UpdateTraineeProfile(c.Request.Context(), traineeID, req)
	if err != nil {
		respondError(c, err, "Failed to update profile.")
		return
	}
	c.JSON(http.StatusOK, profile)
}
