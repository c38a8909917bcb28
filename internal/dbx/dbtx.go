// Package dbx holds the database plumbing shared by the AsthmaGuard
// repositories and services: the DBTX handle every repository is built on,
// transaction and connection scoping, and Postgres error classification.
package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// DBTX is what a repository needs to run its queries. *sql.DB, *sql.Conn
// and *sql.Tx all satisfy it, so the same users, asthmaforms and sensors
// repositories work on the pool, on one request connection or inside a
// form-submission transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn in one transaction: committed when fn returns nil, rolled
// back when it returns an error or panics (the panic is re-raised). The error
// from fn is returned as is, joined with a rollback failure if there was one.
//
// The form submission path uses it so the report lock and the upsert commit
// together:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    repo := manager.AsthmaForms(tx)
//	    if _, err := repo.LockReport(ctx, userID); err != nil && !errors.Is(err, common.ErrorNotFound) {
//	        return err
//	    }
//	    _, err := repo.Upsert(ctx, form)
//	    return err
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, fmt.Errorf("rollback tx: %w", rbErr))
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("commit tx: %w", cErr)
		}
	}()

	return fn(ctx, tx)
}
