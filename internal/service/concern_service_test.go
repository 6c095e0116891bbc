package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-wellbeing-api/internal/models"
	appErrors "github.com/noah-isme/sma-wellbeing-api/pkg/errors"
)

type fakeConcernRepo struct {
	mu       sync.Mutex
	concerns []models.TeacherConcern
	filter   models.ConcernFilter
}

func (f *fakeConcernRepo) Create(_ context.Context, _ sqlx.ExtContext, c *models.TeacherConcern) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = "concern-1"
	f.concerns = append(f.concerns, *c)
	return nil
}

func (f *fakeConcernRepo) List(_ context.Context, filter models.ConcernFilter) ([]models.TeacherConcern, int, error) {
	f.filter = filter
	return f.concerns, len(f.concerns), nil
}

func newConcernFixture() (*ConcernService, *fakeConcernRepo, *fakeAlertStore) {
	repo := &fakeConcernRepo{}
	alerts := &fakeAlertStore{}
	engine := NewAlertEngine(alerts, DefaultAlertRules(DefaultAlertPolicy()), nil, nil)
	svc := NewConcernService(repo, newFakeStudents(models.Student{ID: "stu-1", FullName: "Ana", Active: true}), engine, &fakeTx{}, nil, nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC) }
	return svc, repo, alerts
}

func TestConcernCreateRaisesEscalatedAlert(t *testing.T) {
	svc, repo, alerts := newConcernFixture()
	req := models.CreateConcernRequest{StudentID: "stu-1", ConcernType: "behavioral", Severity: "high", Description: "Withdrawn in class", DateObserved: "2024-03-01"}

	result, err := svc.Create(context.Background(), req, Reporter{ID: "t-1", Name: "Mr. Budi"})
	require.NoError(t, err)
	require.Len(t, result.Alerts, 1)
	assert.Equal(t, models.SeverityCritical, result.Alerts[0].Severity)
	assert.Equal(t, "Teacher Mr. Budi reported a high severity behavioral concern about Ana.", result.Alerts[0].Message)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), result.Concern.DateObserved)
	assert.Len(t, repo.concerns, 1)

	_, err = svc.Create(context.Background(), req, Reporter{ID: "t-1", Name: "Mr. Budi"})
	require.NoError(t, err)
	assert.Equal(t, 2, alerts.countByType("stu-1", models.AlertTeacherConcern, true))
}

func TestConcernCreateValidation(t *testing.T) {
	svc, _, _ := newConcernFixture()
	valid := models.CreateConcernRequest{StudentID: "stu-1", ConcernType: "academic", Severity: "low", Description: "Falling behind"}

	bad := valid
	bad.Severity = "critical"
	_, err := svc.Create(context.Background(), bad, Reporter{ID: "t-1"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	future := valid
	future.DateObserved = "2024-03-05"
	_, err = svc.Create(context.Background(), future, Reporter{ID: "t-1"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	ghost := valid
	ghost.StudentID = "ghost"
	_, err = svc.Create(context.Background(), ghost, Reporter{ID: "t-1"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	result, err := svc.Create(context.Background(), valid, Reporter{ID: "t-1"})
	require.NoError(t, err)
	assert.Equal(t, "t-1", result.Concern.TeacherName)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), result.Concern.DateObserved)

	_, _, err = svc.List(context.Background(), models.ConcernFilter{Severity: "extreme"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
