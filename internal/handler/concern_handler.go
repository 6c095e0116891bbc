package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-wellbeing-api/internal/models"
	"github.com/noah-isme/sma-wellbeing-api/internal/service"
	appErrors "github.com/noah-isme/sma-wellbeing-api/pkg/errors"
	"github.com/noah-isme/sma-wellbeing-api/pkg/response"
)

type concernService interface {
	Create(ctx context.Context, req models.CreateConcernRequest, reporter service.Reporter) (*models.ConcernResult, error)
	List(ctx context.Context, filter models.ConcernFilter) ([]models.TeacherConcern, *models.Pagination, error)
}

// ConcernHandler exposes teacher concern reporting.
type ConcernHandler struct {
	concerns concernService
}

// NewConcernHandler constructs ConcernHandler.
func NewConcernHandler(concerns concernService) *ConcernHandler {
	return &ConcernHandler{concerns: concerns}
}

// Create godoc
// @Summary Report a concern about a student
// @Tags Concerns
// @Accept json
// @Produce json
// @Param payload body models.CreateConcernRequest true "Concern payload"
// @Success 201 {object} response.Envelope
// @Router /concerns [post]
func (h *ConcernHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.CreateConcernRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	result, err := h.concerns.Create(c.Request.Context(), req, service.Reporter{ID: claims.UserID, Name: claims.FullName})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// List godoc
// @Summary List teacher concerns
// @Tags Concerns
// @Produce json
// @Param studentId query string false "Student ID"
// @Param teacherId query string false "Reporting teacher"
// @Param severity query string false "Severity"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /concerns [get]
func (h *ConcernHandler) List(c *gin.Context) {
	filter := models.ConcernFilter{
		StudentID: c.Query("studentId"),
		TeacherID: c.Query("teacherId"),
		Severity:  c.Query("severity"),
	}
	// teachers only see what they reported
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleTeacher {
		filter.TeacherID = claims.UserID
	}
	filter.Page, filter.PageSize = pageParams(c)
	concerns, pagination, err := h.concerns.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, concerns, pagination)
}
