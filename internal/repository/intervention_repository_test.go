package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-wellbeing-api/internal/models"
)

func TestInterventionRepositoryCreateForcesScheduled(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewInterventionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO interventions")).WillReturnResult(sqlmock.NewResult(0, 1))
	intervention := &models.Intervention{StudentID: "stu-1", InterventionType: "counseling", Status: models.InterventionCompleted, ScheduledDate: time.Now()}
	require.NoError(t, repo.Create(context.Background(), db, intervention))
	assert.Equal(t, models.InterventionScheduled, intervention.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInterventionRepositoryCloseGuardsStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewInterventionRepository(db)
	now := time.Now()

	mock.ExpectExec(`UPDATE interventions SET status = \$2[\s\S]+WHERE id = \$1 AND status = 'scheduled'`).
		WithArgs("int-1", "completed", "went well", "", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Close(context.Background(), db, "int-1", models.InterventionCompleted, "went well", "", now))

	mock.ExpectExec(`UPDATE interventions SET status = \$2`).
		WithArgs("int-1", "cancelled", "", "", now).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Close(context.Background(), db, "int-1", models.InterventionCancelled, "", "", now)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInterventionRepositoryHasScheduledAndLock(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewInterventionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).WithArgs("stu-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, repo.LockStudent(context.Background(), db, "stu-1"))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM interventions WHERE student_id = $1 AND status = 'scheduled')")).
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	exists, err := repo.HasScheduled(context.Background(), db, "stu-1")
	require.NoError(t, err)
	assert.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}
