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

// TemplateHandler serves template authoring and assignment.
type TemplateHandler struct {
	templateService   service.TemplateService
	assignmentService service.AssignmentService
}

func NewTemplateHandler(templateService service.TemplateService, assignmentService service.AssignmentService) *TemplateHandler {
	return &TemplateHandler{
		templateService:   templateService,
		assignmentService: assignmentService,
	}
}

type TemplateRequest struct {
	Name             string                   `json:"name" binding:"required"`
	Description      string                   `json:"description"`
	Category         string                   `json:"category"`
	DurationWeeks    int                      `json:"durationWeeks" binding:"min=0,max=104"`
	Tags             []string                 `json:"tags"`
	Schedule         []domain.TemplateWeek    `json:"schedule"`
	TargetCriteria   domain.TargetCriteria    `json:"targetCriteria"`
	NutritionTargets *domain.NutritionTargets `json:"nutritionTargets"`
	FitnessTargets   *domain.FitnessTargets   `json:"fitnessTargets"`
}

func (r TemplateRequest) input() service.TemplateInput {
	return service.TemplateInput{
		Name:             r.Name,
		Description:      r.Description,
		Category:         r.Category,
		DurationWeeks:    r.DurationWeeks,
		Tags:             r.Tags,
		Schedule:         r.Schedule,
		TargetCriteria:   r.TargetCriteria,
		NutritionTargets: r.NutritionTargets,
		FitnessTargets:   r.FitnessTargets,
	}
}

type AssignTemplateRequest struct {
	TraineeID      string                           `json:"traineeId" binding:"required"`
	StartDate      *time.Time                       `json:"startDate"`
	Customizations *domain.AssignmentCustomizations `json:"customizations"`
	Notes          string                           `json:"notes"`
}

// CreateTemplate godoc
// @Summary Create a draft template
// @Tags Templates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param template body TemplateRequest true "Template"
// @Success 201 {object} domain.Template
// @Failure 400 {object} gin.H "Invalid schedule or criteria"
// @Router /coach/templates [post]
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	coachID, _, ok := currentUser(c)
	if !ok {
		return
	}
	tpl, err := h.templateService.CreateTemplate(c.Request.Context(), coachID, req.input())
	if err != nil {
		respondError(c, err, "Failed to create template.")
		return
	}
	c.JSON(http.StatusCreated, tpl)
}

// ListTemplates godoc
// @Summary List the coach's templates
// @Tags Templates
// @Produce json
// @Security BearerAuth
// @Param status query string false "draft, active or archived"
// @Success 200 {array} domain.Template
// @Router /coach/templates [get]
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	coachID, _, ok := currentUser(c)
	if !ok {
		return
	}
	tpls, err := h.templateService.ListTemplates(c.Request.Context(), coachID, domain.TemplateStatus(c.Query("status")))
	if err != nil {
		respondError(c, err, "Failed to retrieve templates.")
		return
	}
	if tpls == nil {
		tpls = []domain.Template{}
	}
	c.JSON(http.StatusOK, tpls)
}

func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}
	templateID, ok := pathID(c, "templateId")
	if !ok {
		return
	}
	tpl, err := h.templateService.GetTemplate(c.Request.Context(), userID, role, templateID)
	if err != nil {
		respondError(c, err, "Failed to retrieve template.")
		return
	}
	c.JSON(http.StatusOK, tpl)
}

func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	coachID, _, ok := currentUser(c)
	if !ok {
		return
	}
	templateID, ok := pathID(c, "templateId")
	if !ok {
		return
	}
	tpl, err := h.templateService.UpdateTemplate(c.Request.Context(), coachID, templateID, req.input())
	if err != nil {
		respondError(c, err, "Failed to update template.")
		return
	}
	c.JSON(http.StatusOK, tpl)
}

func (h *TemplateHandler) PublishTemplate(c *gin.Context) {
	h.transition(c, "Failed to publish template.", h.templateService.PublishTemplate)
}

func (h *TemplateHandler) ArchiveTemplate(c *gin.Context) {
	h.transition(c, "Failed to archive template.", h.templateService.ArchiveTemplate)
}

// transition runs one of the status changes that take only the template ID.
func (h *TemplateHandler) transition(c *gin.Context, fallback string, op func(context.Context, primitive.ObjectID, primitive.ObjectID) (*domain.Template, error)) {
	coachID, _, ok := currentUser(c)
	if !ok {
		return
	}
	templateID, ok := pathID(c, "templateId")
	if !ok {
		return
	}
	tpl, err := op(c.Request.Context(), coachID, templateID)
	if err != nil {
		respondError(c, err, fallback)
		return
	}
	c.JSON(http.StatusOK, tpl)
}

func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	coachID, _, ok := currentUser(c)
	if !ok {
		return
	}
	templateID, ok := pathID(c, "templateId")
	if !ok {
		return
	}
	if err := h.templateService.DeleteTemplate(c.Request.Context(), coachID, templateID); err != nil {
		respondError(c, err, "Failed to delete template.")
		return
	}
	c.Status(http.StatusNoContent)
}

// AssignTemplate godoc
// @Summary Assign an active template to a managed trainee
// @Tags Templates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param templateId path string true "Template's ObjectID Hex"
// @Param request body AssignTemplateRequest true "Assignment"
// @Success 201 {object} domain.TemplateAssignment
// @Failure 409 {object} gin.H "Trainee already runs this template"
// @Router /coach/templates/{templateId}/assign [post]
func (h *TemplateHandler) AssignTemplate(c *gin.Context) {
	var req AssignTemplateRequest
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
	templateID, ok := pathID(c, "templateId")
	if !ok {
		return
	}

	in := service.AssignTemplateInput{
		TraineeID:      traineeID,
		Customizations: req.Customizations,
		Notes:          req.Notes,
	}
	if req.StartDate != nil {
		in.StartDate = *req.StartDate
	}
	a, err := h.assignmentService.AssignTemplate(c.Request.Context(), coachID, templateID, in)
	if err != nil {
		respondError(c, err, "Failed to assign template.")
		return
	}
	c.JSON(http.StatusCreated, a)
}
