package service

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-wellbeing-api/internal/models"
)

const (
	defaultWellnessWindow = 3
	// gpaScale converts a 0-100 grade average to the 0-4 scale.
	gpaScale = 25.0
	maxGPA   = 4.0
)

type academicSource interface {
	AttendanceSummary(ctx context.Context, studentID string, since *time.Time) (models.AttendanceSummary, error)
	GradeSummary(ctx context.Context, studentID string) (models.GradeSummary, error)
	MissingAssignmentCount(ctx context.Context, studentID string) (int, error)
}

type wellnessSignalSource interface {
	RecentSignals(ctx context.Context, studentID string, limit int) ([]models.WellnessSignal, error)
}

// AggregatorConfig tunes the lookback windows.
type AggregatorConfig struct {
	// WellnessWindow is the number of latest check-ins averaged for stress.
	WellnessWindow int
	// AttendanceLookback limits attendance to a trailing window; zero means all history.
	AttendanceLookback time.Duration
}

// MetricsAggregator derives a MetricsSnapshot from stored records. It only reads.
type MetricsAggregator struct {
	academic academicSource
	wellness wellnessSignalSource
	metrics  *MetricsService
	config   AggregatorConfig
	now      func() time.Time
}

// NewMetricsAggregator constructs the aggregator.
func NewMetricsAggregator(academic academicSource, wellness wellnessSignalSource, metrics *MetricsService, cfg AggregatorConfig) *MetricsAggregator {
	if cfg.WellnessWindow <= 0 {
		cfg.WellnessWindow = defaultWellnessWindow
	}
	return &MetricsAggregator{academic: academic, wellness: wellness, metrics: metrics, config: cfg, now: time.Now}
}

// Aggregate loads the four record groups in parallel and folds them into a snapshot.
func (a *MetricsAggregator) Aggregate(ctx context.Context, studentID string) (models.MetricsSnapshot, error) {
	start := time.Now()
	defer func() { a.metrics.ObserveDBQuery("aggregate_metrics", time.Since(start)) }()

	var (
		attendance models.AttendanceSummary
		grades     models.GradeSummary
		missing    int
		signals    []models.WellnessSignal
	)

	var since *time.Time
	if a.config.AttendanceLookback > 0 {
		cutoff := a.now().UTC().Add(-a.config.AttendanceLookback)
		since = &cutoff
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		attendance, err = a.academic.AttendanceSummary(gctx, studentID, since)
		return err
	})
	g.Go(func() error {
		var err error
		grades, err = a.academic.GradeSummary(gctx, studentID)
		return err
	})
	g.Go(func() error {
		var err error
		missing, err = a.academic.MissingAssignmentCount(gctx, studentID)
		return err
	})
	g.Go(func() error {
		var err error
		signals, err = a.wellness.RecentSignals(gctx, studentID, a.config.WellnessWindow)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.MetricsSnapshot{}, err
	}

	snapshot := models.MetricsSnapshot{
		StudentID:              studentID,
		AttendanceRate:         attendanceRate(attendance),
		AttendanceRecords:      attendance.Total,
		MissingAssignmentCount: missing,
		GPA:                    gpaFromGrades(grades),
		GradedItems:            grades.Graded,
	}
	applyWellness(&snapshot, signals)
	return snapshot, nil
}

// attendanceRate is optimistic: no records means full attendance.
func attendanceRate(summary models.AttendanceSummary) float64 {
	if summary.Total <= 0 {
		return 100
	}
	present := summary.Present
	if present > summary.Total {
		present = summary.Total
	}
	return round2(float64(present) / float64(summary.Total) * 100)
}

func gpaFromGrades(summary models.GradeSummary) float64 {
	if summary.Graded == 0 || summary.AvgScore == nil {
		return 0
	}
	gpa := round2(*summary.AvgScore / gpaScale)
	return math.Max(0, math.Min(maxGPA, gpa))
}

// applyWellness copies the newest signal and averages stress over the window.
// signals must be ordered newest first.
func applyWellness(snapshot *models.MetricsSnapshot, signals []models.WellnessSignal) {
	if len(signals) == 0 {
		return
	}
	latest := signals[0]
	snapshot.HasCheckIn = true
	snapshot.LatestStressLevel = latest.StressLevel
	snapshot.LatestMotivationLevel = latest.MotivationLevel
	snapshot.NeedsHelp = latest.NeedHelp
	snapshot.CheckInsConsidered = len(signals)

	total := 0
	for _, s := range signals {
		total += s.StressLevel
	}
	snapshot.AverageStress = round2(float64(total) / float64(len(signals)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
