package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrInvalidMigration marks a malformed or incomplete migration set.
var ErrInvalidMigration = errors.New("invalid migration")

// Migrator is the subset of a pgx pool that schema migrations need.
type Migrator interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

type Migration struct {
	Version int64
	Name    string
	UpSQL   string
	DownSQL string
}

func (m *Migration) script(dir Direction) *string {
	if dir == Down {
		return &m.DownSQL
	}
	return &m.UpSQL
}

const (
	createLedgerSQL = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version     BIGINT PRIMARY KEY,
    name        TEXT NOT NULL,
    applied_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
	listLedgerSQL   = `SELECT version FROM schema_migrations ORDER BY version`
	latestLedgerSQL = `SELECT version, name FROM schema_migrations ORDER BY version DESC LIMIT 1`
	recordSQL       = `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`
	forgetSQL       = `DELETE FROM schema_migrations WHERE version = $1`
)

// Migrations returns the embedded schema migrations in version order.
func Migrations() ([]Migration, error) {
	return loadMigrations(migrationsFS)
}

// parseMigrationName splits "000002_create_valuations.up.sql" into its parts.
func parseMigrationName(file string) (int64, string, Direction, error) {
	base := strings.TrimSuffix(path.Base(file), ".sql")
	stem, dir := base, Direction("")
	switch {
	case strings.HasSuffix(base, ".up"):
		stem, dir = strings.TrimSuffix(base, ".up"), Up
	case strings.HasSuffix(base, ".down"):
		stem, dir = strings.TrimSuffix(base, ".down"), Down
	default:
		return 0, "", "", fmt.Errorf("%w: %s has no up/down suffix", ErrInvalidMigration, file)
	}

	digits, name, ok := strings.Cut(stem, "_")
	if !ok || name == "" {
		return 0, "", "", fmt.Errorf("%w: %s is not <version>_<name>", ErrInvalidMigration, file)
	}
	version, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || version <= 0 {
		return 0, "", "", fmt.Errorf("%w: %s has a bad version", ErrInvalidMigration, file)
	}
	return version, name, dir, nil
}

func loadMigrations(fsys fs.FS) ([]Migration, error) {
	files, err := fs.Glob(fsys, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no .sql files embedded", ErrInvalidMigration)
	}

	byVersion := make(map[int64]*Migration, len(files)/2)
	for _, file := range files {
		version, name, dir, err := parseMigrationName(file)
		if err != nil {
			return nil, err
		}
		body, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		text := strings.TrimSpace(string(body))
		if text == "" {
			return nil, fmt.Errorf("%w: %s is empty", ErrInvalidMigration, file)
		}

		m := byVersion[version]
		if m == nil {
			m = &Migration{Version: version, Name: name}
			byVersion[version] = m
		}
		if m.Name != name {
			return nil, fmt.Errorf("%w: version %d is both %q and %q", ErrInvalidMigration, version, m.Name, name)
		}
		slot := m.script(dir)
		if *slot != "" {
			return nil, fmt.Errorf("%w: version %d has two %s scripts", ErrInvalidMigration, version, dir)
		}
		*slot = text
	}

	set := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.UpSQL == "" || m.DownSQL == "" {
			return nil, fmt.Errorf("%w: version %d needs both up and down scripts", ErrInvalidMigration, m.Version)
		}
		set = append(set, *m)
	}
	sort.Slice(set, func(i, j int) bool { return set[i].Version < set[j].Version })
	return set, nil
}

// appliedVersions creates the ledger if needed and lists applied versions ascending.
func appliedVersions(ctx context.Context, db Migrator) ([]int64, error) {
	if _, err := db.Exec(ctx, createLedgerSQL); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}
	rows, err := db.Query(ctx, listLedgerSQL)
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	defer rows.Close()

	var versions []int64
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan schema_migrations: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// apply runs one script and updates the ledger in the same transaction.
func apply(ctx context.Context, db Migrator, m Migration, dir Direction) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin %06d_%s %s: %w", m.Version, m.Name, dir, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, *m.script(dir)); err != nil {
		return fmt.Errorf("run %06d_%s %s: %w", m.Version, m.Name, dir, err)
	}
	if dir == Up {
		_, err = tx.Exec(ctx, recordSQL, m.Version, m.Name)
	} else {
		_, err = tx.Exec(ctx, forgetSQL, m.Version)
	}
	if err != nil {
		return fmt.Errorf("update ledger for %06d_%s: %w", m.Version, m.Name, err)
	}
	return tx.Commit(ctx)
}

// plan picks the migrations to run in the order they must run.
func plan(set []Migration, applied []int64, dir Direction, steps int) ([]Migration, error) {
	done := make(map[int64]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}

	if dir == Up {
		var pending []Migration
		for _, m := range set {
			if !done[m.Version] {
				pending = append(pending, m)
			}
		}
		return pending, nil
	}

	known := make(map[int64]Migration, len(set))
	for _, m := range set {
		known[m.Version] = m
	}
	var rollback []Migration
	for i := len(applied) - 1; i >= 0 && len(rollback) < steps; i-- {
		m, ok := known[applied[i]]
		if !ok {
			return nil, fmt.Errorf("%w: applied version %d has no embedded script", ErrInvalidMigration, applied[i])
		}
		rollback = append(rollback, m)
	}
	return rollback, nil
}

func migrate(ctx context.Context, db Migrator, dir Direction, steps int) (int, error) {
	set, err := Migrations()
	if err != nil {
		return 0, err
	}
	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return 0, err
	}
	todo, err := plan(set, applied, dir, steps)
	if err != nil {
		return 0, err
	}
	for i, m := range todo {
		if err := apply(ctx, db, m, dir); err != nil {
			return i, err
		}
	}
	return len(todo), nil
}

// MigrateUp applies every pending migration, one transaction each, and
// reports how many ran.
func MigrateUp(ctx context.Context, db Migrator) (int, error) {
	return migrate(ctx, db, Up, 0)
}

// MigrateDown rolls back the latest steps migrations.
func MigrateDown(ctx context.Context, db Migrator, steps int) (int, error) {
	if steps <= 0 {
		return 0, fmt.Errorf("rollback needs a positive step count, got %d", steps)
	}
	return migrate(ctx, db, Down, steps)
}

// CurrentVersion returns the latest applied migration, or 0 when none is.
func CurrentVersion(ctx context.Context, db Migrator) (int64, string, error) {
	if _, err := db.Exec(ctx, createLedgerSQL); err != nil {
		return 0, "", fmt.Errorf("create schema_migrations: %w", err)
	}
	var (
		version int64
		name    string
	)
	err := db.QueryRow(ctx, latestLedgerSQL).Scan(&version, &name)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, "", nil
	}
	if err != nil {
		return 0, "", fmt.Errorf("read current version: %w", err)
	}
	return version, name, nil
}
