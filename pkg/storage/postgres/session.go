package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Session is a unit of work bound to a single pooled connection. It is only
// valid inside the WithSession callback that received it and must not be
// shared between goroutines.
type Session interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// WithSession runs fn inside a transaction. A nil return commits, an error or
// a panic rolls back; the connection goes back to the pool either way. The
// error from fn is returned as is so callers can match on it.
func (db *DB) WithSession(ctx context.Context, fn func(ctx context.Context, s Session) error) (err error) {
	if db.closed.Load() {
		return ErrClosed
	}

	tx, err := db.begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
		if err == nil && ctx.Err() != nil {
			err = ctx.Err()
		}
		if err != nil {
			if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
			}
			return
		}
		if cErr := tx.Commit(ctx); cErr != nil {
			err = fmt.Errorf("commit: %w", cErr)
		}
	}()

	return fn(ctx, tx)
}

func (db *DB) begin(ctx context.Context) (pgx.Tx, error) {
	if db.acquireTimeout <= 0 {
		tx, err := db.pool.Begin(ctx)
		if err != nil {
			return nil, fmt.Errorf("begin session: %w", err)
		}
		return tx, nil
	}

	acquireCtx, cancel := context.WithTimeout(ctx, db.acquireTimeout)
	defer cancel()
	tx, err := db.pool.Begin(acquireCtx)
	if err != nil {
		// only our own deadline counts as exhaustion, not the caller's
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w after %s: %w", ErrPoolTimeout, db.acquireTimeout, err)
		}
		return nil, fmt.Errorf("begin session: %w", err)
	}
	return tx, nil
}
