package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-wellbeing-api/internal/models"
	appErrors "github.com/noah-isme/sma-wellbeing-api/pkg/errors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(q sqlx.ExtContext) error) error
}

type alertDispatcher interface {
	Dispatch(ctx context.Context, q sqlx.ExtContext, event models.Event) ([]models.Alert, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// alertNotifier receives alerts after the write that created them has committed.
type alertNotifier interface {
	NotifyAlerts(ctx context.Context, alerts []models.Alert)
}

func normalizePage(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > maxPageSize {
		size = defaultPageSize
	}
	return page, size
}

func loadStudent(ctx context.Context, students studentReader, id string) (*models.Student, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	student, err := students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

func internalError(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func notify(ctx context.Context, notifier alertNotifier, alerts []models.Alert) {
	if notifier == nil || len(alerts) == 0 {
		return
	}
	notifier.NotifyAlerts(ctx, alerts)
}
