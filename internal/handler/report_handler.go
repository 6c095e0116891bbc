package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-wellbeing-api/internal/models"
	"github.com/noah-isme/sma-wellbeing-api/internal/service"
	"github.com/noah-isme/sma-wellbeing-api/pkg/response"
)

type reportService interface {
	AtRisk(ctx context.Context, filter models.AtRiskFilter, format string) (*service.ReportFile, error)
}

// ReportHandler exposes reporting endpoints.
type ReportHandler struct {
	reports reportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// AtRisk godoc
// @Summary Export the at-risk list
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Param level query string false "Comma separated levels"
// @Param gradeLevel query int false "Grade level"
// @Param section query string false "Section"
// @Success 200 {file} file
// @Router /reports/at-risk [get]
func (h *ReportHandler) AtRisk(c *gin.Context) {
	filter, err := atRiskFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.reports.AtRisk(c.Request.Context(), filter, c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}
