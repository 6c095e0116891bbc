package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Transactor runs a function inside a database transaction.
type Transactor struct {
	db *sqlx.DB
}

// NewTransactor constructs a transactor.
func NewTransactor(db *sqlx.DB) *Transactor {
	return &Transactor{db: db}
}

// WithTx begins a transaction, hands it to fn and commits when fn returns nil.
// Any error or panic rolls the transaction back.
func (t *Transactor) WithTx(ctx context.Context, fn func(q sqlx.ExtContext) error) (err error) {
	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func pageBounds(page, size int) (limit, offset int) {
	if size <= 0 || size > 200 {
		size = 20
	}
	if page <= 0 {
		page = 1
	}
	return size, (page - 1) * size
}

// expectOne turns a guarded UPDATE that matched nothing into sql.ErrNoRows.
func expectOne(op string, result sql.Result, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
