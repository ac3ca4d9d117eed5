package migration

import (
	"fmt"
	"io/fs"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/elifred2022/bokadillo/db/migrations"
	"github.com/elifred2022/bokadillo/internal/config"
	"github.com/elifred2022/bokadillo/internal/database"
)

func TestNewRequiresSQLBackend(t *testing.T) {
	_, err := New(config.Config{}, &database.Connections{}, zap.NewNop())
	assert.ErrorIs(t, err, ErrNoDatabase)
}

func TestGooseDialect(t *testing.T) {
	for driver, want := range map[string]string{"pg": "postgres", "postgres": "postgres", "mysql": "mysql", "sqlite": "sqlite3"} {
		got, err := gooseDialect(driver)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := gooseDialect("oracle")
	assert.Error(t, err)
}

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(migrations.FS, migrations.Dir+"/*.sql")
	require.NoError(t, err)
	assert.Contains(t, files, "sql/00001_create_sheet_rows.sql")
}

func TestNoMigrationErrors(t *testing.T) {
	assert.True(t, isNoMigrationErr(goose.ErrNoNextVersion))
	assert.True(t, isNoMigrationErr(fmt.Errorf("wrapped: %w", goose.ErrNoMigrationFiles)))
	assert.False(t, isNoMigrationErr(nil))
	assert.False(t, isNoMigrationErr(fmt.Errorf("syntax error")))
}
