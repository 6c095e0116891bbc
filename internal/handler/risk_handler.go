package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-wellbeing-api/internal/models"
	appErrors "github.com/noah-isme/sma-wellbeing-api/pkg/errors"
	"github.com/noah-isme/sma-wellbeing-api/pkg/response"
)

type riskService interface {
	Assess(ctx context.Context, studentID string) (*models.AssessmentResult, error)
	RecalculateAll(ctx context.Context) (*models.BatchResult, error)
	Latest(ctx context.Context, studentID string) (*models.RiskAssessment, error)
	History(ctx context.Context, studentID string, limit int) ([]models.RiskAssessment, error)
	ListAtRisk(ctx context.Context, filter models.AtRiskFilter) ([]models.AtRiskStudent, *models.Pagination, error)
}

// RiskHandler exposes risk assessment endpoints.
type RiskHandler struct {
	risks riskService
}

// NewRiskHandler constructs RiskHandler.
func NewRiskHandler(risks riskService) *RiskHandler {
	return &RiskHandler{risks: risks}
}

// Recalculate godoc
// @Summary Recalculate risk for all active students
// @Tags Risk
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /risk/recalculate [post]
func (h *RiskHandler) Recalculate(c *gin.Context) {
	result, err := h.risks.RecalculateAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Assess godoc
// @Summary Assess one student now
// @Tags Risk
// @Produce json
// @Param id path string true "Student ID"
// @Success 201 {object} response.Envelope
// @Router /risk/students/{id}/assess [post]
func (h *RiskHandler) Assess(c *gin.Context) {
	result, err := h.risks.Assess(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Latest godoc
// @Summary Latest risk assessment
// @Tags Risk
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /risk/students/{id}/latest [get]
func (h *RiskHandler) Latest(c *gin.Context) {
	assessment, err := h.risks.Latest(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assessment, nil)
}

// History godoc
// @Summary Risk assessment history, newest first
// @Tags Risk
// @Produce json
// @Param id path string true "Student ID"
// @Param limit query int false "Maximum entries"
// @Success 200 {object} response.Envelope
// @Router /risk/students/{id}/history [get]
func (h *RiskHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	history, err := h.risks.History(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}

// AtRisk godoc
// @Summary Students by latest risk level
// @Tags Risk
// @Produce json
// @Param level query string false "Comma separated levels (low, medium, high)"
// @Param gradeLevel query int false "Grade level"
// @Param section query string false "Section"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /risk/at-risk [get]
func (h *RiskHandler) AtRisk(c *gin.Context) {
	filter, err := atRiskFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	filter.Page, filter.PageSize = pageParams(c)
	students, pagination, err := h.risks.ListAtRisk(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

func atRiskFilterFromQuery(c *gin.Context) (models.AtRiskFilter, error) {
	var filter models.AtRiskFilter
	for _, raw := range csvQuery(c, "level") {
		level := models.RiskLevel(raw)
		if !level.Valid() {
			return filter, appErrors.Clone(appErrors.ErrValidation, "invalid risk level "+raw)
		}
		filter.Levels = append(filter.Levels, level)
	}
	grade, err := optionalInt(c, "gradeLevel")
	if err != nil {
		return filter, err
	}
	filter.GradeLevel = grade
	filter.Section = c.Query("section")
	return filter, nil
}
