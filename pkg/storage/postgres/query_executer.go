package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QueryExecuter is satisfied by the pool and by TxQueryExecuter, so
// repositories run the same SQL inside or outside a transaction.
type QueryExecuter interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var (
	_ QueryExecuter = (*TxQueryExecuter)(nil)
	_ QueryExecuter = (*pgxpool.Pool)(nil)
)

// Executer returns q, or the pool when q is nil.
func (p *Postgres) Executer(q QueryExecuter) QueryExecuter {
	if q != nil {
		return q
	}
	return p.Pool
}

// TxQueryExecuter binds a QueryExecuter to an open transaction.
type TxQueryExecuter struct {
	Tx pgx.Tx
}

func (t *TxQueryExecuter) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	const op = "storage.postgres.TxQueryExecuter.Query"

	rows, err := t.Tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rows, nil
}

func (t *TxQueryExecuter) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return t.Tx.QueryRow(ctx, sql, args...)
}

func (t *TxQueryExecuter) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	const op = "storage.postgres.TxQueryExecuter.Exec"

	tag, err := t.Tx.Exec(ctx, sql, args...)
	if err != nil {
		return pgconn.CommandTag{}, fmt.Errorf("%s: %w", op, err)
	}
	return tag, nil
}
