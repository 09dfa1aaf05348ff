package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/xlog"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/docstore"
)

type txKey struct{}

type sqlRunner interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type txState struct {
	tx      *sql.Tx
	changed []docstore.DocumentRef
}

func (s *Store) runner(ctx context.Context) sqlRunner {
	if st, ok := ctx.Value(txKey{}).(*txState); ok {
		return st.tx
	}
	return s.db
}

// RunAtomic runs fn in one SQL transaction. Nested calls join the outer
// transaction.
func (s *Store) RunAtomic(ctx context.Context, fn func(ctx context.Context, ops docstore.Operations) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(*txState); ok {
		return fn(ctx, s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	st := &txState{tx: tx}

	xlog.Debug(ctx, "[DATABASE.TRANSACTION.BEGIN]")
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			err = fmt.Errorf("panic happened because: %v", p)
			xlog.Error(ctx, "[DATABASE.TRANSACTION.PANIC]", xlog.Err(err))
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("tx err: %w, rb err: %v", err, rbErr)
			}
			xlog.Warn(ctx, "[DATABASE.TRANSACTION.ROLLBACK]", xlog.Err(err))
		} else {
			if err = tx.Commit(); err != nil {
				if errors.Is(err, sql.ErrTxDone) {
					xlog.Warn(ctx, "[DATABASE.TRANSACTION.ALREADY_COMMITTED_OR_ROLLEDBACK]", xlog.Err(err))
					err = nil
				} else {
					err = mutationError(err)
					return
				}
			}
			xlog.Debug(ctx, "[DATABASE.TRANSACTION.COMMIT]")
			if s.listener == nil {
				s.hub.Publish(st.changed...)
			}
		}
	}()

	err = fn(context.WithValue(ctx, txKey{}, st), s)
	return
}
