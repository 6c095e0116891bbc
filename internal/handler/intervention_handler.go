package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-wellbeing-api/internal/middleware"
	"github.com/noah-isme/sma-wellbeing-api/internal/models"
	"github.com/noah-isme/sma-wellbeing-api/pkg/response"
)

type interventionService interface {
	List(ctx context.Context, filter models.InterventionFilter) ([]models.Intervention, *models.Pagination, error)
	Create(ctx context.Context, req models.CreateInterventionRequest, counselorID string) (*models.Intervention, error)
	Complete(ctx context.Context, id string, req models.CloseInterventionRequest) (*models.Intervention, error)
	Cancel(ctx context.Context, id string, req models.CloseInterventionRequest) (*models.Intervention, error)
	BulkRemediate(ctx context.Context, counselorID string) (*models.RemediationResult, error)
}

type aiInterventionService interface {
	Create(ctx context.Context, req models.AIInterventionRequest, counselorID string) (*models.AIInterventionResult, error)
}

// InterventionHandler exposes intervention scheduling.
type InterventionHandler struct {
	interventions interventionService
	ai            aiInterventionService
}

// NewInterventionHandler constructs InterventionHandler.
func NewInterventionHandler(interventions interventionService, ai aiInterventionService) *InterventionHandler {
	return &InterventionHandler{interventions: interventions, ai: ai}
}

// List godoc
// @Summary List interventions
// @Tags Interventions
// @Produce json
// @Param status query string false "scheduled, completed or cancelled"
// @Param gradeLevel query int false "Grade level"
// @Param studentId query string false "Student ID"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /interventions [get]
func (h *InterventionHandler) List(c *gin.Context) {
	filter := models.InterventionFilter{StudentID: c.Query("studentId")}
	if status := c.Query("status"); status != "" {
		s := models.InterventionStatus(status)
		filter.Status = &s
	}
	grade, err := optionalInt(c, "gradeLevel")
	if err != nil {
		response.Error(c, err)
		return
	}
	filter.GradeLevel = grade
	filter.Page, filter.PageSize = pageParams(c)

	items, pagination, err := h.interventions.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Create godoc
// @Summary Schedule an intervention
// @Tags Interventions
// @Accept json
// @Produce json
// @Param payload body models.CreateInterventionRequest true "Intervention payload"
// @Success 201 {object} response.Envelope
// @Router /interventions [post]
func (h *InterventionHandler) Create(c *gin.Context) {
	var req models.CreateInterventionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	intervention, err := h.interventions.Create(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, intervention)
}

// Complete godoc
// @Summary Complete an intervention
// @Tags Interventions
// @Accept json
// @Produce json
// @Param id path string true "Intervention ID"
// @Param payload body models.CloseInterventionRequest false "Notes and outcome"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /interventions/{id}/complete [post]
func (h *InterventionHandler) Complete(c *gin.Context) {
	h.close(c, h.interventions.Complete)
}

// Cancel godoc
// @Summary Cancel an intervention
// @Tags Interventions
// @Accept json
// @Produce json
// @Param id path string true "Intervention ID"
// @Param payload body models.CloseInterventionRequest false "Notes"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /interventions/{id}/cancel [post]
func (h *InterventionHandler) Cancel(c *gin.Context) {
	h.close(c, h.interventions.Cancel)
}

func (h *InterventionHandler) close(c *gin.Context, fn func(context.Context, string, models.CloseInterventionRequest) (*models.Intervention, error)) {
	var req models.CloseInterventionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, invalidPayload(err))
		return
	}
	intervention, err := fn(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, intervention, nil)
}

// Remediate godoc
// @Summary Schedule interventions for students with unresolved high-severity alerts
// @Tags Interventions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /interventions/remediate [post]
func (h *InterventionHandler) Remediate(c *gin.Context) {
	result, err := h.interventions.BulkRemediate(c.Request.Context(), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// CreateAI godoc
// @Summary Schedule an AI-recommended intervention
// @Tags Interventions
// @Accept json
// @Produce json
// @Param payload body models.AIInterventionRequest true "Student"
// @Success 201 {object} response.Envelope
// @Router /interventions/ai [post]
func (h *InterventionHandler) CreateAI(c *gin.Context) {
	var req models.AIInterventionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	result, err := h.ai.Create(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetDegraded(c, result.Degraded)
	response.JSON(c, http.StatusCreated, result, nil, middleware.ResponseMeta(c))
}
