package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-wellbeing-api/internal/models"
	appErrors "github.com/noah-isme/sma-wellbeing-api/pkg/errors"
	"github.com/noah-isme/sma-wellbeing-api/pkg/export"
)

const reportPageSize = maxPageSize

type atRiskLister interface {
	ListLatest(ctx context.Context, filter models.AtRiskFilter) ([]models.AtRiskStudent, int, error)
}

// ReportFile is a rendered export ready for download.
type ReportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
	Rows        int
}

// ReportService exports the at-risk list.
type ReportService struct {
	enabled   bool
	risks     atRiskLister
	renderers map[string]export.Renderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewReportService constructs the service with the CSV and PDF renderers.
func NewReportService(risks atRiskLister, logger *zap.Logger, enabled bool) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		enabled: enabled,
		risks:   risks,
		renderers: map[string]export.Renderer{
			"csv": export.NewCSVRenderer(),
			"pdf": export.NewPDFRenderer(),
		},
		logger: logger,
		now:    time.Now,
	}
}

var atRiskColumns = []export.Column{
	{Key: "student", Title: "Student", Width: 3},
	{Key: "grade", Title: "Grade", Width: 1},
	{Key: "section", Title: "Section", Width: 1},
	{Key: "level", Title: "Risk Level", Width: 1.2},
	{Key: "score", Title: "Score", Width: 1},
	{Key: "gpa", Title: "GPA", Width: 1},
	{Key: "attendance", Title: "Attendance %", Width: 1.4},
	{Key: "missing", Title: "Missing", Width: 1},
	{Key: "alerts", Title: "Open Alerts", Width: 1.2},
	{Key: "assessed", Title: "Assessed", Width: 1.5},
}

// AtRisk renders every student matching the filter in the requested format.
func (s *ReportService) AtRisk(ctx context.Context, filter models.AtRiskFilter, format string) (*ReportFile, error) {
	if !s.enabled {
		return nil, appErrors.ErrFeatureDisabled
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported report format "+format)
	}
	for _, level := range filter.Levels {
		if !level.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid risk level "+string(level))
		}
	}

	var students []models.AtRiskStudent
	filter.PageSize = reportPageSize
	for page := 1; ; page++ {
		filter.Page = page
		batch, total, err := s.risks.ListLatest(ctx, filter)
		if err != nil {
			return nil, internalError(err, "failed to load at-risk students")
		}
		students = append(students, batch...)
		if len(batch) == 0 || len(students) >= total {
			break
		}
	}

	now := s.now().UTC()
	table := export.Table{
		Title:       "At-Risk Students",
		GeneratedAt: now,
		Columns:     atRiskColumns,
		Rows:        make([]map[string]string, 0, len(students)),
	}
	for _, st := range students {
		table.Rows = append(table.Rows, map[string]string{
			"student":    st.FullName,
			"grade":      strconv.Itoa(st.GradeLevel),
			"section":    st.Section,
			"level":      string(st.RiskLevel),
			"score":      strconv.Itoa(st.RiskScore),
			"gpa":        strconv.FormatFloat(st.GPA, 'f', 2, 64),
			"attendance": strconv.FormatFloat(st.AttendanceRate, 'f', 1, 64),
			"missing":    strconv.Itoa(st.MissingAssignmentCount),
			"alerts":     strconv.Itoa(st.UnresolvedAlerts),
			"assessed":   st.Date.Format("2006-01-02"),
		})
	}

	payload, err := renderer.Render(table)
	if err != nil {
		return nil, internalError(err, "failed to render report")
	}
	s.logger.Info("at-risk report generated", zap.String("format", format), zap.Int("rows", len(students)))
	return &ReportFile{
		Filename:    fmt.Sprintf("at-risk-students-%s.%s", now.Format("20060102"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Payload:     payload,
		Rows:        len(students),
	}, nil
}
