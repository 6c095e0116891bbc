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

type wellnessService interface {
	Submit(ctx context.Context, req models.CreateCheckInRequest) (*models.CheckInResult, error)
	ListByStudent(ctx context.Context, studentID string, limit int) ([]models.WellnessCheckIn, error)
}

// WellnessHandler exposes wellness check-ins.
type WellnessHandler struct {
	wellness wellnessService
}

// NewWellnessHandler constructs WellnessHandler.
func NewWellnessHandler(wellness wellnessService) *WellnessHandler {
	return &WellnessHandler{wellness: wellness}
}

// Submit godoc
// @Summary Submit a wellness check-in
// @Description Students submit for themselves; counselors and admins must name the student.
// @Tags Wellness
// @Accept json
// @Produce json
// @Param payload body models.CreateCheckInRequest true "Check-in payload"
// @Success 201 {object} response.Envelope
// @Router /wellness/checkins [post]
func (h *WellnessHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.CreateCheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	if claims.Role == models.RoleStudent {
		if claims.StudentID == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "account is not linked to a student"))
			return
		}
		if req.StudentID != "" && req.StudentID != claims.StudentID {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "students may only check in for themselves"))
			return
		}
		req.StudentID = claims.StudentID
	}
	result, err := h.wellness.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// ListByStudent godoc
// @Summary Recent wellness check-ins for a student
// @Tags Wellness
// @Produce json
// @Param id path string true "Student ID"
// @Param limit query int false "Maximum entries"
// @Success 200 {object} response.Envelope
// @Router /wellness/students/{id}/checkins [get]
func (h *WellnessHandler) ListByStudent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	checkIns, err := h.wellness.ListByStudent(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, checkIns, nil)
}
