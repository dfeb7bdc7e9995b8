package api

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// WorkoutHandler serves the coach's workout library.
type WorkoutHandler struct {
	workoutService service.WorkoutService
}

func NewWorkoutHandler(workoutService service.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService}
}

// WorkoutRequest is the body for both create and full update.
type WorkoutRequest struct {
	Name            string                   `json:"name" binding:"required"`
	Description     string                   `json:"description"`
	Difficulty      domain.FitnessLevel      `json:"difficulty" binding:"omitempty,oneof=beginner intermediate advanced"`
	DurationMinutes int                      `json:"durationMinutes" binding:"omitempty,min=0"`
	Exercises       []domain.WorkoutExercise `json:"exercises"`
}

func (r WorkoutRequest) input() service.WorkoutInput {
	return service.WorkoutInput{
		Name:            r.Name,
		Description:     r.Description,
		Difficulty:      r.Difficulty,
		DurationMinutes: r.DurationMinutes,
		Exercises:       r.Exercises,
	}
}

// CreateWorkout godoc
// @Summary Create a workout in the coach's library
// @Tags Workouts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param workout body WorkoutRequest true "Workout details"
// @Success 201 {object} domain.Workout
// @Failure 400 {object} gin.H "Invalid input"
// @Router /coach/workouts [post]
func (h *WorkoutHandler) CreateWorkout(c *gin.Context) {
	var req WorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	coachID, _, ok := currentUser(c)
	if !ok {
		return
	}

	workout, err := h.workoutService.CreateWorkout(c.Request.Context(), coachID, req.input())
	if err != nil {
		respondError(c, err, "Failed to create workout.")
		return
	}
	c.JSON(http.StatusCreated, workout)
}

// ListWorkouts godoc
// @Summary List the coach's workouts
// @Tags Workouts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Workout
// @Router /coach/workouts [get]
func (h *WorkoutHandler) ListWorkouts(c *gin.Context) {
	coachID, _, ok := currentUser(c)
	if !ok {
		return
	}
	workouts, err := h.workoutService.ListWorkouts(c.Request.Context(), coachID)
	if err != nil {
		respondError(c, err, "Failed to retrieve workouts.")
		return
	}
	if workouts == nil {
		workouts = []domain.Workout{}
	}
	c.JSON(http.StatusOK, workouts)
}

func (h *WorkoutHandler) GetWorkout(c *gin.Context) {
	coachID, _, ok := currentUser(c)
	if !ok {
		return
	}
	workoutID, ok := pathID(c, "workoutId")
	if !ok {
		return
	}
	workout, err := h.workoutService.GetWorkout(c.Request.Context(), coachID, workoutID)
	if err != nil {
		respondError(c, err, "Failed to retrieve workout.")
		return
	}
	c.JSON(http.StatusOK, workout)
}

func (h *WorkoutHandler) UpdateWorkout(c *gin.Context) {
	var req WorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	coachID, _, ok := currentUser(c)
	if !ok {
		return
	}
	workoutID, ok := pathID(c, "workoutId")
	if !ok {
		return
	}
	workout, err := h.workoutService.UpdateWorkout(c.Request.Context(), coachID, workoutID, req.input())
	if err != nil {
		respondError(c, err, "Failed to update workout.")
		return
	}
	c.JSON(http.StatusOK, workout)
}

func (h *WorkoutHandler) DeleteWorkout(c *gin.Context) {
	coachID, _, ok := currentUser(c)
	if !ok {
		return
	}
	workoutID, ok := pathID(c, "workoutId")
	if !ok {
		return
	}
	if err := h.workoutService.DeleteWorkout(c.Request.Context(), coachID, workoutID); err != nil {
		respondError(c, err, "Failed to delete workout.")
		return
	}
	c.Status(http.StatusNoContent)
}
