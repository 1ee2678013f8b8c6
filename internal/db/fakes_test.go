package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeMigrator records transactional statements against an in-memory ledger.
type fakeMigrator struct {
	applied   []int64
	execErr   error
	txSQL     []string
	commits   int
	rollbacks int
}

func (f *fakeMigrator) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (f *fakeMigrator) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return &versionRows{versions: f.applied, pos: -1}, nil
}

func (f *fakeMigrator) QueryRow(context.Context, string, ...any) pgx.Row {
	return errRow{pgx.ErrNoRows}
}

func (f *fakeMigrator) Begin(context.Context) (pgx.Tx, error) {
	return &fakeTx{db: f}, nil
}

type fakeTx struct {
	pgx.Tx
	db     *fakeMigrator
	closed bool
}

func (t *fakeTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	if t.db.execErr != nil {
		return pgconn.CommandTag{}, t.db.execErr
	}
	t.db.txSQL = append(t.db.txSQL, sql)
	return pgconn.CommandTag{}, nil
}

func (t *fakeTx) Commit(context.Context) error {
	t.closed = true
	t.db.commits++
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true
	t.db.rollbacks++
	return nil
}

type versionRows struct {
	pgx.Rows
	versions []int64
	pos      int
}

func (r *versionRows) Next() bool {
	r.pos++
	return r.pos < len(r.versions)
}

func (r *versionRows) Scan(dest ...any) error {
	if r.pos < 0 || r.pos >= len(r.versions) {
		return errors.New("scan out of range")
	}
	*dest[0].(*int64) = r.versions[r.pos]
	return nil
}

func (r *versionRows) Close()     {}
func (r *versionRows) Err() error { return nil }

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }
