package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/schema"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elifred2022/bokadillo/internal/config"
)

// Connections bundles writer and reader bun instances. Both are nil when
// the entity store is not backed by SQL.
type Connections struct {
	Writer *bun.DB
	Reader *bun.DB
}

// Enabled reports whether a database was opened.
func (c *Connections) Enabled() bool {
	return c != nil && c.Writer != nil
}

// Module registers the database connections with Fx.
var Module = fx.Provide(New)

// New opens the writer and, when it has its own DSN, the reader pool. No
// connection is opened unless the sql backend driver is selected.
func New(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*Connections, error) {
	if cfg.Backend.Driver != "sql" {
		logger.Debug("database not required", zap.String("backend", cfg.Backend.Driver))
		return &Connections{}, nil
	}

	dial, err := selectDialect(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}
	hook := &slowQueryHook{threshold: cfg.Database.SlowQuery, logger: logger}

	writer, err := open(cfg.Database, cfg.Database.WriterDSN, dial, hook)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}
	reader := writer
	if dsn := cfg.Database.ReaderDSN; dsn != "" && dsn != cfg.Database.WriterDSN {
		if reader, err = open(cfg.Database, dsn, dial, hook); err != nil {
			_ = writer.Close()
			return nil, fmt.Errorf("open reader: %w", err)
		}
	}

	conns := &Connections{Writer: writer, Reader: reader}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := conns.Ping(ctx); err != nil {
				return err
			}
			logger.Info("database connected",
				zap.String("driver", cfg.Database.Driver),
				zap.Bool("separate_reader", reader != writer),
			)
			return nil
		},
		OnStop: func(context.Context) error {
			return conns.Close()
		},
	})
	return conns, nil
}

// Ping checks both pools with a short deadline.
func (c *Connections) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Writer.PingContext(ctx); err != nil {
		return fmt.Errorf("ping writer: %w", err)
	}
	if c.Reader != c.Writer {
		if err := c.Reader.PingContext(ctx); err != nil {
			return fmt.Errorf("ping reader: %w", err)
		}
	}
	return nil
}

// Close releases both pools.
func (c *Connections) Close() error {
	if !c.Enabled() {
		return nil
	}
	err := c.Writer.Close()
	if c.Reader != c.Writer {
		err = errors.Join(err, c.Reader.Close())
	}
	return err
}

func open(cfg config.Database, dsn string, dial schema.Dialect, hook bun.QueryHook) (*bun.DB, error) {
	sqldb, err := openSQLDB(cfg.Driver, dsn)
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxConnLifetime > 0 {
		sqldb.SetConnMaxLifetime(cfg.MaxConnLifetime)
	}
	db := bun.NewDB(sqldb, dial)
	db.AddQueryHook(hook)
	return db, nil
}

func selectDialect(driver string) (schema.Dialect, error) {
	switch driver {
	case "postgres":
		return pgdialect.New(), nil
	case "mysql":
		return mysqldialect.New(), nil
	case "sqlite":
		return sqlitedialect.New(), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// openSQLDB opens the pool. sqlite needs a database/sql driver registered
// as "sqlite3" by the binary that selects it.
func openSQLDB(driver, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("empty DSN")
	}

	switch driver {
	case "postgres":
		return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn))), nil
	case "mysql":
		return sql.Open("mysql", dsn)
	case "sqlite":
		return sql.Open("sqlite3", dsn)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}
}

// slowQueryHook logs row-table queries that exceed threshold.
type slowQueryHook struct {
	threshold time.Duration
	logger    *zap.Logger
}

func (h *slowQueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *slowQueryHook) AfterQuery(_ context.Context, ev *bun.QueryEvent) {
	elapsed := time.Since(ev.StartTime)
	switch {
	case ev.Err != nil && !errors.Is(ev.Err, sql.ErrNoRows):
		h.logger.Warn("query failed", zap.String("operation", ev.Operation()), zap.Duration("elapsed", elapsed), zap.Error(ev.Err))
	case h.threshold > 0 && elapsed >= h.threshold:
		h.logger.Warn("slow query", zap.String("operation", ev.Operation()), zap.Duration("elapsed", elapsed), zap.String("query", ev.Query))
	}
}
