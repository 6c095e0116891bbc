package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-wellbeing-api/internal/models"
)

// fakeTx runs the callback without a real transaction and counts commits.
type fakeTx struct {
	mu      sync.Mutex
	commits int
	err     error
}

func (f *fakeTx) WithTx(ctx context.Context, fn func(q sqlx.ExtContext) error) error {
	if f.err != nil {
		return f.err
	}
	if err := fn(nil); err != nil {
		return err
	}
	f.mu.Lock()
	f.commits++
	f.mu.Unlock()
	return nil
}

// fakeAlertStore mimics the partial unique index on unresolved deduplicated alerts.
type fakeAlertStore struct {
	mu        sync.Mutex
	alerts    []*models.Alert
	insertErr error
	seq       int
}

func (f *fakeAlertStore) Insert(_ context.Context, _ sqlx.ExtContext, alert *models.Alert) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return false, f.insertErr
	}
	if alert.AlertType.Deduplicated() {
		for _, existing := range f.alerts {
			if existing.StudentID == alert.StudentID && existing.AlertType == alert.AlertType && !existing.Resolved {
				return false, nil
			}
		}
	}
	f.seq++
	if alert.ID == "" {
		alert.ID = fmt.Sprintf("alert-%d", f.seq)
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
	stored := *alert
	f.alerts = append(f.alerts, &stored)
	return true, nil
}

func (f *fakeAlertStore) FindByID(_ context.Context, id string) (*models.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.alerts {
		if a.ID == id {
			found := *a
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAlertStore) List(_ context.Context, filter models.AlertFilter) ([]models.Alert, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Alert
	for _, a := range f.alerts {
		if filter.StudentID != "" && a.StudentID != filter.StudentID {
			continue
		}
		if filter.Resolved != nil && a.Resolved != *filter.Resolved {
			continue
		}
		out = append(out, *a)
	}
	return out, len(out), nil
}

func (f *fakeAlertStore) MarkRead(_ context.Context, _ sqlx.ExtContext, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.alerts {
		if a.ID == id && !a.IsRead {
			a.IsRead = true
			a.ReadAt = &at
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeAlertStore) Resolve(_ context.Context, _ sqlx.ExtContext, id, by string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.alerts {
		if a.ID == id && !a.Resolved {
			a.Resolved = true
			a.ResolvedAt = &at
			a.ResolvedBy = &by
			if !a.IsRead {
				a.IsRead = true
				a.ReadAt = &at
			}
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeAlertStore) MarkStudentAlertsRead(_ context.Context, _ sqlx.ExtContext, studentID string, severities []models.Severity, at time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, a := range f.alerts {
		if a.StudentID == studentID && !a.Resolved && !a.IsRead && severityIn(a.Severity, severities) {
			a.IsRead = true
			a.ReadAt = &at
			count++
		}
	}
	return count, nil
}

func (f *fakeAlertStore) StudentsNeedingRemediation(_ context.Context, severities []models.Severity) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[string]bool{}
	var ids []string
	for _, a := range f.alerts {
		if !a.Resolved && severityIn(a.Severity, severities) && !seen[a.StudentID] {
			seen[a.StudentID] = true
			ids = append(ids, a.StudentID)
		}
	}
	return ids, nil
}

func (f *fakeAlertStore) HasUnresolved(_ context.Context, _ sqlx.ExtContext, studentID string, severities []models.Severity) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.alerts {
		if a.StudentID == studentID && !a.Resolved && severityIn(a.Severity, severities) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAlertStore) countByType(studentID string, alertType models.AlertType, unresolvedOnly bool) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, a := range f.alerts {
		if a.StudentID == studentID && a.AlertType == alertType && (!unresolvedOnly || !a.Resolved) {
			count++
		}
	}
	return count
}

func (f *fakeAlertStore) seed(alert models.Alert) *models.Alert {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	if alert.ID == "" {
		alert.ID = fmt.Sprintf("alert-%d", f.seq)
	}
	stored := alert
	f.alerts = append(f.alerts, &stored)
	return &stored
}

func severityIn(s models.Severity, list []models.Severity) bool {
	for _, candidate := range list {
		if candidate == s {
			return true
		}
	}
	return false
}

type fakeStudents struct {
	students map[string]models.Student
	err      error
}

func newFakeStudents(students ...models.Student) *fakeStudents {
	m := make(map[string]models.Student, len(students))
	for _, s := range students {
		m[s.ID] = s
	}
	return &fakeStudents{students: m}
}

func (f *fakeStudents) FindByID(_ context.Context, id string) (*models.Student, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (f *fakeStudents) ListActiveIDs(context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	ids := make([]string, 0, len(f.students))
	for id, s := range f.students {
		if s.Active {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
