package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-wellbeing-api/internal/models"
	"github.com/noah-isme/sma-wellbeing-api/pkg/response"
)

type alertService interface {
	List(ctx context.Context, filter models.AlertFilter) ([]models.Alert, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Alert, error)
	MarkRead(ctx context.Context, id string) (*models.Alert, error)
	Resolve(ctx context.Context, id, actorID string) (*models.Alert, error)
}

// AlertHandler exposes the alert tracker.
type AlertHandler struct {
	alerts alertService
}

// NewAlertHandler constructs AlertHandler.
func NewAlertHandler(alerts alertService) *AlertHandler {
	return &AlertHandler{alerts: alerts}
}

// List godoc
// @Summary List alerts
// @Tags Alerts
// @Produce json
// @Param type query string false "Comma separated alert types"
// @Param severity query string false "Comma separated severities"
// @Param resolved query bool false "Resolved state"
// @Param read query bool false "Read state"
// @Param studentId query string false "Student ID"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /alerts [get]
func (h *AlertHandler) List(c *gin.Context) {
	filter := models.AlertFilter{StudentID: c.Query("studentId")}
	for _, t := range csvQuery(c, "type") {
		filter.Types = append(filter.Types, models.AlertType(t))
	}
	for _, s := range csvQuery(c, "severity") {
		filter.Severities = append(filter.Severities, models.Severity(s))
	}
	var err error
	if filter.Resolved, err = optionalBool(c, "resolved"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.Read, err = optionalBool(c, "read"); err != nil {
		response.Error(c, err)
		return
	}
	filter.Page, filter.PageSize = pageParams(c)

	alerts, pagination, err := h.alerts.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, alerts, pagination)
}

// Get godoc
// @Summary Get alert
// @Tags Alerts
// @Produce json
// @Param id path string true "Alert ID"
// @Success 200 {object} response.Envelope
// @Router /alerts/{id} [get]
func (h *AlertHandler) Get(c *gin.Context) {
	alert, err := h.alerts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, alert, nil)
}

// MarkRead godoc
// @Summary Mark alert as read
// @Tags Alerts
// @Produce json
// @Param id path string true "Alert ID"
// @Success 200 {object} response.Envelope
// @Router /alerts/{id}/read [post]
func (h *AlertHandler) MarkRead(c *gin.Context) {
	alert, err := h.alerts.MarkRead(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, alert, nil)
}

// Resolve godoc
// @Summary Resolve alert
// @Tags Alerts
// @Produce json
// @Param id path string true "Alert ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /alerts/{id}/resolve [post]
func (h *AlertHandler) Resolve(c *gin.Context) {
	alert, err := h.alerts.Resolve(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, alert, nil)
}
