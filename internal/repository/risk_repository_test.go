package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-wellbeing-api/internal/models"
)

var riskColumns = []string{"id", "student_id", "date", "risk_score", "risk_level", "gpa", "attendance_rate", "missing_assignment_count", "wellness_flagged", "created_at"}

func TestRiskRepositoryCreateAppends(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRiskRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO risk_assessments")).WillReturnResult(sqlmock.NewResult(0, 1))
	assessment := &models.RiskAssessment{StudentID: "stu-1", RiskScore: 60, RiskLevel: models.RiskHigh}
	require.NoError(t, repo.Create(context.Background(), db, assessment))
	assert.NotEmpty(t, assessment.ID)
	assert.False(t, assessment.Date.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRiskRepositoryLatest(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRiskRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY date DESC, created_at DESC LIMIT 1")).WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows(riskColumns).AddRow("ra-2", "stu-1", now, 35, "medium", 2.4, 85.0, 1, false, now))
	latest, err := repo.Latest(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "ra-2", latest.ID)
	assert.Equal(t, models.RiskMedium, latest.RiskLevel)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRiskRepositoryListLatest(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRiskRepository(db)

	grade := 10
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM students s[\s\S]+JOIN LATERAL[\s\S]+ra.risk_level IN \(\$1\) AND s.grade_level = \$2`).
		WithArgs("high", 10).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`ORDER BY ra.risk_score DESC`).
		WithArgs("high", 10).
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "full_name", "grade_level", "section", "assessment_id", "date", "risk_score", "risk_level", "gpa", "attendance_rate", "missing_assignment_count", "unresolved_alerts"}).
			AddRow("stu-1", "Ana", 10, "A", "ra-1", time.Now(), 60, "high", 2.2, 68.0, 4, 3))

	list, total, err := repo.ListLatest(context.Background(), models.AtRiskFilter{Levels: []models.RiskLevel{models.RiskHigh}, GradeLevel: &grade})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, 3, list[0].UnresolvedAlerts)
	require.NoError(t, mock.ExpectationsWereMet())
}
