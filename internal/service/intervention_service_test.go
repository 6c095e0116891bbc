package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-wellbeing-api/internal/models"
	appErrors "github.com/noah-isme/sma-wellbeing-api/pkg/errors"
)

type fakeInterventionRepo struct {
	mu    sync.Mutex
	items []*models.Intervention
	locks []string
}

func (f *fakeInterventionRepo) Create(_ context.Context, _ sqlx.ExtContext, item *models.Intervention) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	item.ID = fmt.Sprintf("int-%d", len(f.items)+1)
	item.Status = models.InterventionScheduled
	stored := *item
	f.items = append(f.items, &stored)
	return nil
}

func (f *fakeInterventionRepo) FindByID(_ context.Context, id string) (*models.Intervention, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.items {
		if item.ID == id {
			found := *item
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeInterventionRepo) List(_ context.Context, filter models.InterventionFilter) ([]models.Intervention, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Intervention
	for _, item := range f.items {
		if filter.Status != nil && item.Status != *filter.Status {
			continue
		}
		out = append(out, *item)
	}
	return out, len(out), nil
}

func (f *fakeInterventionRepo) Close(_ context.Context, _ sqlx.ExtContext, id string, status models.InterventionStatus, notes, outcome string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.items {
		if item.ID == id && item.Status == models.InterventionScheduled {
			item.Status = status
			if notes != "" {
				item.Notes = notes
			}
			if outcome != "" {
				item.Outcome = outcome
			}
			if status == models.InterventionCompleted {
				item.CompletedAt = &at
			}
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeInterventionRepo) HasScheduled(_ context.Context, _ sqlx.ExtContext, studentID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.items {
		if item.StudentID == studentID && item.Status == models.InterventionScheduled {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeInterventionRepo) LockStudent(_ context.Context, _ sqlx.ExtContext, studentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locks = append(f.locks, studentID)
	return nil
}

func (f *fakeInterventionRepo) scheduledFor(studentID string) []models.Intervention {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Intervention
	for _, item := range f.items {
		if item.StudentID == studentID && item.Status == models.InterventionScheduled {
			out = append(out, *item)
		}
	}
	return out
}

type interventionFixture struct {
	svc    *InterventionService
	repo   *fakeInterventionRepo
	alerts *fakeAlertStore
	risks  *fakeRiskRepo
	now    time.Time
}

func newInterventionFixture(students ...models.Student) *interventionFixture {
	f := &interventionFixture{
		repo:   &fakeInterventionRepo{},
		alerts: &fakeAlertStore{},
		risks:  &fakeRiskRepo{},
		now:    time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC),
	}
	f.svc = NewInterventionService(f.repo, f.alerts, f.risks, newFakeStudents(students...), &fakeTx{}, nil, nil, nil, nil, InterventionConfig{})
	f.svc.now = func() time.Time { return f.now }
	return f
}

func TestBulkRemediateSchedulesAndMarksRead(t *testing.T) {
	f := newInterventionFixture()
	critical := f.alerts.seed(models.Alert{StudentID: "stu-1", AlertType: models.AlertHighRisk, Severity: models.SeverityCritical})
	medium := f.alerts.seed(models.Alert{StudentID: "stu-1", AlertType: models.AlertLowAttendance, Severity: models.SeverityMedium})

	result, err := f.svc.BulkRemediate(context.Background(), "counselor-1")
	require.NoError(t, err)
	require.Len(t, result.Scheduled, 1)
	assert.Equal(t, 1, result.AlertsMarked)

	item := result.Scheduled[0]
	assert.Equal(t, models.InterventionScheduled, item.Status)
	assert.Equal(t, models.InterventionTypeCounseling, item.InterventionType)
	assert.Equal(t, f.now.Add(24*time.Hour), item.ScheduledDate)
	require.NotNil(t, item.CounselorID)
	assert.Equal(t, "counselor-1", *item.CounselorID)

	got, err := f.alerts.FindByID(context.Background(), critical.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRead)
	assert.False(t, got.Resolved)

	untouched, err := f.alerts.FindByID(context.Background(), medium.ID)
	require.NoError(t, err)
	assert.False(t, untouched.IsRead)
	assert.Equal(t, []string{"stu-1"}, f.repo.locks)
}

func TestBulkRemediateIsIdempotent(t *testing.T) {
	f := newInterventionFixture()
	f.alerts.seed(models.Alert{StudentID: "stu-1", AlertType: models.AlertWellnessConcern, Severity: models.SeverityHigh})

	_, err := f.svc.BulkRemediate(context.Background(), "")
	require.NoError(t, err)
	second, err := f.svc.BulkRemediate(context.Background(), "")
	require.NoError(t, err)

	assert.Empty(t, second.Scheduled)
	assert.Equal(t, 1, second.Skipped)
	assert.Len(t, f.repo.scheduledFor("stu-1"), 1)
}

func TestBulkRemediatePicksTutoringForMissingWork(t *testing.T) {
	f := newInterventionFixture()
	f.alerts.seed(models.Alert{StudentID: "stu-1", AlertType: models.AlertMissingAssignments, Severity: models.SeverityHigh})
	f.risks.assessments = []models.RiskAssessment{{StudentID: "stu-1", MissingAssignmentCount: 3}}

	result, err := f.svc.BulkRemediate(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, result.Scheduled, 1)
	assert.Equal(t, models.InterventionTypeTutoring, result.Scheduled[0].InterventionType)
	assert.Nil(t, result.Scheduled[0].CounselorID)
}

func TestBulkRemediateSkipsResolvedAndScheduledStudents(t *testing.T) {
	f := newInterventionFixture()
	f.alerts.seed(models.Alert{StudentID: "stu-1", AlertType: models.AlertHighRisk, Severity: models.SeverityCritical, Resolved: true, IsRead: true})
	f.alerts.seed(models.Alert{StudentID: "stu-2", AlertType: models.AlertHighRisk, Severity: models.SeverityCritical})
	require.NoError(t, f.repo.Create(context.Background(), nil, &models.Intervention{StudentID: "stu-2"}))

	result, err := f.svc.BulkRemediate(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Candidates)
	assert.Empty(t, result.Scheduled)
	assert.Equal(t, 1, result.Skipped)
}

func TestInterventionLifecycle(t *testing.T) {
	f := newInterventionFixture(models.Student{ID: "stu-1", FullName: "Ana", Active: true})
	ctx := context.Background()

	created, err := f.svc.Create(ctx, models.CreateInterventionRequest{
		StudentID:        "stu-1",
		InterventionType: "mentoring",
		ScheduledDate:    f.now.Add(48 * time.Hour),
	}, "counselor-1")
	require.NoError(t, err)
	assert.Equal(t, models.InterventionScheduled, created.Status)

	done, err := f.svc.Complete(ctx, created.ID, models.CloseInterventionRequest{Outcome: "improved"})
	require.NoError(t, err)
	assert.Equal(t, models.InterventionCompleted, done.Status)
	assert.Equal(t, "improved", done.Outcome)
	require.NotNil(t, done.CompletedAt)

	_, err = f.svc.Cancel(ctx, created.ID, models.CloseInterventionRequest{})
	assert.ErrorIs(t, err, appErrors.ErrInterventionClosed)
	_, err = f.svc.Complete(ctx, created.ID, models.CloseInterventionRequest{})
	assert.ErrorIs(t, err, appErrors.ErrInterventionClosed)

	_, err = f.svc.Cancel(ctx, "missing", models.CloseInterventionRequest{})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestInterventionCreateValidation(t *testing.T) {
	f := newInterventionFixture(models.Student{ID: "stu-1", FullName: "Ana", Active: true})

	_, err := f.svc.Create(context.Background(), models.CreateInterventionRequest{StudentID: "stu-1", InterventionType: "magic", ScheduledDate: f.now}, "")
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = f.svc.Create(context.Background(), models.CreateInterventionRequest{StudentID: "ghost", InterventionType: "counseling", ScheduledDate: f.now}, "")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	bad := models.InterventionStatus("paused")
	_, _, err = f.svc.List(context.Background(), models.InterventionFilter{Status: &bad})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
