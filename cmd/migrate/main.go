package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"portfolio-tracker/internal/db"
	"portfolio-tracker/pkg/logging"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const (
	cmdUp      = "up"
	cmdDown    = "down"
	cmdVersion = "version"
	cmdStatus  = "status"

	usage = "usage: go run ./cmd/migrate [up|down|version|status] [steps]"
)

type pool interface {
	db.Migrator
	Close()
}

var (
	loadEnvFunc = godotenv.Load
	openPool    = func(ctx context.Context, dsn string) (pool, error) {
		p, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	exitFunc = os.Exit
)

func main() {
	_ = loadEnvFunc()
	logger := logging.New(os.Getenv("LOG_LEVEL"), "console")
	if err := run(context.Background(), os.Args[1:], os.Getenv("DATABASE_URL"), os.Stdout, logger); err != nil {
		logger.Error().Err(err).Msg("migrate failed")
		exitFunc(1)
	}
}

func run(ctx context.Context, args []string, dsn string, out io.Writer, logger zerolog.Logger) error {
	if len(args) < 1 {
		return errors.New(usage)
	}
	if strings.TrimSpace(dsn) == "" {
		return errors.New("DATABASE_URL is required")
	}

	cmd := args[0]
	steps := 1
	switch cmd {
	case cmdUp, cmdVersion, cmdStatus:
	case cmdDown:
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid down steps: %q", args[1])
			}
			steps = n
		}
	default:
		return fmt.Errorf("unknown command %q. %s", cmd, usage)
	}

	p, err := openPool(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer p.Close()

	switch cmd {
	case cmdUp:
		applied, err := db.MigrateUp(ctx, p)
		if err != nil {
			return fmt.Errorf("apply migrations up: %w", err)
		}
		logger.Info().Int("applied", applied).Msg("migrations up complete")
	case cmdDown:
		rolledBack, err := db.MigrateDown(ctx, p, steps)
		if err != nil {
			return fmt.Errorf("apply migrations down: %w", err)
		}
		logger.Info().Int("rolled_back", rolledBack).Msg("migrations down complete")
	case cmdVersion:
		version, name, err := db.CurrentVersion(ctx, p)
		if err != nil {
			return fmt.Errorf("read current version: %w", err)
		}
		if version == 0 {
			fmt.Fprintln(out, "no migrations applied")
			return nil
		}
		fmt.Fprintf(out, "current version: %d (%s)\n", version, name)
	case cmdStatus:
		return printStatus(ctx, p, out)
	}
	return nil
}

// printStatus lists every embedded migration and whether it is applied.
func printStatus(ctx context.Context, p pool, out io.Writer) error {
	migrations, err := db.Migrations()
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	version, _, err := db.CurrentVersion(ctx, p)
	if err != nil {
		return fmt.Errorf("read current version: %w", err)
	}
	for _, m := range migrations {
		state := "pending"
		if m.Version <= version {
			state = "applied"
		}
		fmt.Fprintf(out, "%06d_%s\t%s\n", m.Version, m.Name, state)
	}
	return nil
}
