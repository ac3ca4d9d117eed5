package migration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elifred2022/bokadillo/db/migrations"
	"github.com/elifred2022/bokadillo/internal/config"
	"github.com/elifred2022/bokadillo/internal/database"
)

// Module provides the Migrator to Fx.
var Module = fx.Provide(New)

// ErrNoDatabase is returned when migrations run without the sql backend.
var ErrNoDatabase = errors.New("migrations require BACKEND_DRIVER=sql")

// Migrator applies the embedded sheet_rows schema with goose.
type Migrator struct {
	db     *bun.DB
	logger *zap.Logger
}

// New constructs a goose-backed migrator for the sql backend.
func New(cfg config.Config, conns *database.Connections, logger *zap.Logger) (*Migrator, error) {
	if !conns.Enabled() {
		return nil, ErrNoDatabase
	}

	dialect, err := gooseDialect(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}
	if err := goose.SetDialect(dialect); err != nil {
		return nil, err
	}
	goose.SetBaseFS(migrations.FS)

	return &Migrator{db: conns.Writer, logger: logger}, nil
}

// Up applies all pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	if err := goose.UpContext(ctx, m.db.DB, migrations.Dir); err != nil {
		if isNoMigrationErr(err) {
			m.logger.Info("no migrations to apply")
			return nil
		}
		return fmt.Errorf("migrate up: %w", err)
	}
	return m.logVersion(ctx, "migrations applied")
}

// Down rolls back migrations. Steps <=0 defaults to 1; all=true rolls everything back.
func (m *Migrator) Down(ctx context.Context, steps int, all bool) error {
	var err error
	switch {
	case all:
		err = goose.DownToContext(ctx, m.db.DB, migrations.Dir, 0)
	default:
		if steps <= 0 {
			steps = 1
		}
		for i := 0; i < steps && err == nil; i++ {
			err = goose.DownContext(ctx, m.db.DB, migrations.Dir)
		}
	}
	if err != nil {
		if isNoMigrationErr(err) {
			m.logger.Info("no migrations to rollback")
			return nil
		}
		return fmt.Errorf("migrate down: %w", err)
	}
	return m.logVersion(ctx, "migrations rolled back")
}

// Version reports the current schema version.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	return goose.GetDBVersionContext(ctx, m.db.DB)
}

func (m *Migrator) logVersion(ctx context.Context, msg string) error {
	v, err := m.Version(ctx)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	m.logger.Info(msg, zap.Int64("version", v))
	return nil
}

func gooseDialect(driver string) (string, error) {
	switch driver {
	case "postgres", "pg":
		return "postgres", nil
	case "mysql":
		return "mysql", nil
	case "sqlite", "sqlite3":
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("unsupported goose dialect for driver %s", driver)
	}
}

func isNoMigrationErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, goose.ErrNoNextVersion) || errors.Is(err, goose.ErrNoMigrationFiles) {
		return true
	}
	return strings.Contains(err.Error(), "no migrations")
}
