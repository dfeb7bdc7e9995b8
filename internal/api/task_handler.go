package api

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/service"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskHandler serves tasks, submissions and reviews.
type TaskHandler struct {
	taskService service.TaskService
}

func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// --- DTOs ---

type CreateTaskRequest struct {
	TraineeID           string                    `json:"traineeId" binding:"required"`
	Title               string                    `json:"title" binding:"required"`
	Description         string                    `json:"description"`
	TaskType            domain.TaskType           `json:"taskType" binding:"required"`
	Priority            domain.TaskPriority       `json:"priority"`
	Frequency           domain.TaskFrequency      `json:"frequency"`
	DueDate             *time.Time                `json:"dueDate"`
	StartDate           *time.Time                `json:"startDate"`
	Points              *int                      `json:"points" binding:"omitempty,min=0"`
	IsVisible           *bool                     `json:"isVisible"`
	Tags                []string                  `json:"tags"`
	RequiresApproval    bool                      `json:"requiresApproval"`
	MaxSubmissions      *int                      `json:"maxSubmissions" binding:"omitempty,min=1"`
	AllowLateSubmission bool                      `json:"allowLateSubmission"`
	TaskConfig          domain.TaskConfig         `json:"taskConfig"`
	RecurrencePattern   *domain.RecurrencePattern `json:"recurrencePattern"`
	ReminderSettings    *domain.ReminderSettings  `json:"reminderSettings"`
}

type UpdateTaskRequest struct {
	Title               *string                  `json:"title"`
	Description         *string                  `json:"description"`
	TaskType            *domain.TaskType         `json:"taskType"`
	Priority            *domain.TaskPriority     `json:"priority"`
	Status              *domain.TaskStatus       `json:"status"`
	DueDate             *time.Time               `json:"dueDate"`
	StartDate           *time.Time               `json:"startDate"`
	Points              *int                     `json:"points"`
	IsVisible           *bool                    `json:"isVisible"`
	Tags                []string                 `json:"tags"`
	RequiresApproval    *bool                    `json:"requiresApproval"`
	MaxSubmissions      *int                     `json:"maxSubmissions"`
	AllowLateSubmission *bool                    `json:"allowLateSubmission"`
	TaskConfig          *domain.TaskConfig       `json:"taskConfig"`
	ReminderSettings    *domain.ReminderSettings `json:"reminderSettings"`
}

type SubmitTaskRequest struct {
	SubmissionData domain.SubmissionData `json:"submissionData"`
	Notes          string                `json:"notes"`
}

type ReviewSubmissionRequest struct {
	Status        domain.SubmissionStatus `json:"status" binding:"required"`
	Feedback      string                  `json:"feedback"`
	Rating        *int                    `json:"rating"`
	PointsAwarded *int                    `json:"pointsAwarded"`
}

type BulkTaskRequest struct {
	TaskIDs  []string            `json:"taskIds" binding:"required,min=1"`
	Action   service.BulkAction  `json:"action" binding:"required"`
	DueDate  *time.Time          `json:"dueDate"`
	Priority domain.TaskPriority `json:"priority"`
}

// parseTaskQuery reads the list filters from the query string. Dates are RFC 3339.
func parseTaskQuery(c *gin.Context) (service.TaskQuery, error) {
	q := service.TaskQuery{
		Status:    domain.TaskStatus(c.Query("status")),
		TaskType:  domain.TaskType(c.Query("taskType")),
		Priority:  domain.TaskPriority(c.Query("priority")),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}

	for name, dst := range map[string]**primitive.ObjectID{"traineeId": &q.TraineeID, "parentTaskId": &q.ParentTaskID} {
		if v := c.Query(name); v != "" {
			id, err := primitive.ObjectIDFromHex(v)
			if err != nil {
				return q, fmt.Errorf("invalid %s", name)
			}
			*dst = &id
		}
	}
	for name, dst := range map[string]**time.Time{"dueFrom": &q.DueFrom, "dueTo": &q.DueTo} {
		if v := c.Query(name); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return q, fmt.Errorf("invalid %s: expected RFC 3339", name)
			}
			*dst = &t
		}
	}
	for name, dst := range map[string]*int{"page": &q.Page, "limit": &q.Limit} {
		if v := c.Query(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return q, fmt.Errorf("invalid %s", name)
			}
			*dst = n
		}
	}
	return q, nil
}

// --- Handler Methods ---

// CreateTask godoc
// @Summary Create a task for a managed trainee
// @Description A recurrence pattern on a non-once frequency also creates the sibling tasks of the series.
// @Tags Tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param task body CreateTaskRequest true "Task details"
// @Success 201 {object} service.CreateTaskResult
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 403 {object} gin.H "Trainee is not managed by this coach"
// @Router /tasks [post]
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	traineeID, err := primitive.ObjectIDFromHex(req.TraineeID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid traineeId.")
		return
	}
	coachID, _, ok := currentUser(c)
	if !ok {
		return
	}

	res, err := h.taskService.CreateTask(c.Request.Context(), coachID, service.CreateTaskInput{
		TraineeID:           traineeID,
		Title:               req.Title,
		Description:         req.Description,
		TaskType:            req.TaskType,
		Priority:            req.Priority,
		Frequency:           req.Frequency,
		DueDate:             req.DueDate,
		StartDate:           req.StartDate,
		Points:              req.Points,
		IsVisible:           req.IsVisible,
		Tags:                req.Tags,
		RequiresApproval:    req.RequiresApproval,
		MaxSubmissions:      req.MaxSubmissions,
		AllowLateSubmission: req.AllowLateSubmission,
		TaskConfig:          req.TaskConfig,
		RecurrencePattern:   req.RecurrencePattern,
		ReminderSettings:    req.ReminderSettings,
	})
	if err != nil {
		respondError(c, err, "Failed to create task.")
		return
	}
	c.JSON(http.StatusCreated, res)
}

// GetTasks godoc
// @Summary List tasks visible to the caller
// @Tags Tasks
// @Produce json
// @Security BearerAuth
// @Param status query string false "Effective status (pending, in_progress, completed, overdue, cancelled)"
// @Param page query int false "Page, from 1"
// @Param limit query int false "Page size, at most 100"
// @Success 200 {object} service.TaskPage
// @Router /tasks [get]
func (h *TaskHandler) GetTasks(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}
	q, err := parseTaskQuery(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.taskService.GetTasks(c.Request.Context(), userID, role, q)
	if err != nil {
		respondError(c, err, "Failed to retrieve tasks.")
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *TaskHandler) GetTask(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "taskId")
	if !ok {
		return
	}
	task, err := h.taskService.GetTask(c.Request.Context(), userID, role, taskID)
	if err != nil {
		respondError(c, err, "Failed to retrieve task.")
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	coachID, _, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "taskId")
	if !ok {
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), coachID, taskID, service.UpdateTaskInput{
		Title:               req.Title,
		Description:         req.Description,
		TaskType:            req.TaskType,
		Priority:            req.Priority,
		Status:              req.Status,
		DueDate:             req.DueDate,
		StartDate:           req.StartDate,
		Points:              req.Points,
		IsVisible:           req.IsVisible,
		Tags:                req.Tags,
		RequiresApproval:    req.RequiresApproval,
		MaxSubmissions:      req.MaxSubmissions,
		AllowLateSubmission: req.AllowLateSubmission,
		TaskConfig:          req.TaskConfig,
		ReminderSettings:    req.ReminderSettings,
	})
	if err != nil {
		respondError(c, err, "Failed to update task.")
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	coachID, _, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "taskId")
	if !ok {
		return
	}
	if err := h.taskService.DeleteTask(c.Request.Context(), coachID, taskID); err != nil {
		respondError(c, err, "Failed to delete task.")
		return
	}
	c.Status(http.StatusNoContent)
}

// SubmitTask godoc
// @Summary Submit work for a task
// @Tags Tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param taskId path string true "Task's ObjectID Hex"
// @Param submission body SubmitTaskRequest true "Submission data; the branch must match the task type"
// @Success 201 {object} domain.TaskSubmission
// @Failure 400 {object} gin.H "Invalid data, limit reached, late, or task closed"
// @Failure 404 {object} gin.H "Task not found"
// @Router /tasks/{taskId}/submissions [post]
func (h *TaskHandler) SubmitTask(c *gin.Context) {
	var req SubmitTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	traineeID, _, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "taskId")
	if !ok {
		return
	}

	sub, err := h.taskService.SubmitTask(c.Request.Context(), traineeID, service.SubmitTaskInput{
		TaskID:         taskID,
		SubmissionData: req.SubmissionData,
		Notes:          req.Notes,
	})
	if err != nil {
		respondError(c, err, "Failed to submit task.")
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (h *TaskHandler) GetSubmissions(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "taskId")
	if !ok {
		return
	}
	subs, err := h.taskService.GetSubmissions(c.Request.Context(), userID, role, taskID)
	if err != nil {
		respondError(c, err, "Failed to retrieve submissions.")
		return
	}
	if subs == nil {
		subs = []domain.TaskSubmission{}
	}
	c.JSON(http.StatusOK, subs)
}

// ReviewSubmission godoc
// @Summary Approve, reject or send back a submission
// @Tags Tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param submissionId path string true "Submission's ObjectID Hex"
// @Param review body ReviewSubmissionRequest true "Review"
// @Success 200 {object} domain.TaskSubmission
// @Router /coach/submissions/{submissionId}/review [post]
func (h *TaskHandler) ReviewSubmission(c *gin.Context) {
	var req ReviewSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	coachID, _, ok := currentUser(c)
	if !ok {
		return
	}
	submissionID, ok := pathID(c, "submissionId")
	if !ok {
		return
	}

	sub, err := h.taskService.ReviewSubmission(c.Request.Context(), coachID, submissionID, service.ReviewInput{
		Status:        req.Status,
		Feedback:      req.Feedback,
		Rating:        req.Rating,
		PointsAwarded: req.PointsAwarded,
	})
	if err != nil {
		respondError(c, err, "Failed to review submission.")
		return
	}
	c.JSON(http.StatusOK, sub)
}

// BulkTaskAction godoc
// @Summary Apply one action to many tasks
// @Description Items fail independently; the response lists successes and per-item errors.
// @Tags Tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BulkTaskRequest true "Action and task IDs"
// @Success 200 {object} service.BulkActionResult
// @Router /tasks/bulk [post]
func (h *TaskHandler) BulkTaskAction(c *gin.Context) {
	var req BulkTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}

	res, err := h.taskService.BulkTaskAction(c.Request.Context(), userID, role, service.BulkActionInput{
		TaskIDs:  req.TaskIDs,
		Action:   req.Action,
		DueDate:  req.DueDate,
		Priority: req.Priority,
	})
	if err != nil {
		respondError(c, err, "Failed to apply bulk action.")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *TaskHandler) GetTaskStats(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}
	stats, err := h.taskService.GetTaskStats(c.Request.Context(), userID, role)
	if err != nil {
		respondError(c, err, "Failed to compute task stats.")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// MarkOverdue runs the overdue batch once.
func (h *TaskHandler) MarkOverdue(c *gin.Context) {
	n, err := h.taskService.UpdateOverdueTasks(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to mark overdue tasks.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}
