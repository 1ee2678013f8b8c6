package repository

import (
	"context"
	"errors"
	"fmt"

	"portfolio-tracker/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type scanner interface {
	Scan(dest ...any) error
}

// storeError wraps err with op. Anything that is not a server-side error
// reply is treated as the store being unreachable.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) || errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}

// decimalColumns parses NUMERIC columns selected as text, in order.
func decimalColumns(raw []string, dst ...*decimal.Decimal) error {
	for i, r := range raw {
		v, err := decimal.NewFromString(r)
		if err != nil {
			return fmt.Errorf("parse numeric column %d: %w", i, err)
		}
		*dst[i] = v
	}
	return nil
}
