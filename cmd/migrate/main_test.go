package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pizzeria-be/internal/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeMigration(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExtractMigrationPart(t *testing.T) {
	content := `
-- +migrate Up
CREATE TABLE items (id int);
ALTER TABLE items ADD COLUMN name text;

-- +migrate Down
DROP TABLE items;
`
	t.Run("Up", func(t *testing.T) {
		up := extractMigrationPart(content, "Up")
		assert.Contains(t, up, "CREATE TABLE items")
		assert.Contains(t, up, "ALTER TABLE items")
		assert.NotContains(t, up, "DROP TABLE items")
		assert.NotContains(t, up, "-- +migrate")
	})

	t.Run("Down", func(t *testing.T) {
		down := extractMigrationPart(content, "Down")
		assert.Contains(t, down, "DROP TABLE items")
		assert.NotContains(t, down, "CREATE TABLE items")
	})

	t.Run("DownBeforeUp", func(t *testing.T) {
		reversed := "-- +migrate Down\nDROP TABLE x;\n-- +migrate Up\nCREATE TABLE x (id int);\n"
		assert.Equal(t, "CREATE TABLE x (id int);\n\n", extractMigrationPart(reversed, "Up"))
	})
}

func TestDSNFromEnv(t *testing.T) {
	t.Run("URL", func(t *testing.T) {
		t.Setenv("DB_URL", "postgres://u:p@localhost/pizzeria")
		dsn, err := dsnFromEnv()
		require.NoError(t, err)
		assert.Equal(t, "postgres://u:p@localhost/pizzeria", dsn)
	})

	t.Run("Parts", func(t *testing.T) {
		t.Setenv("DB_URL", "")
		t.Setenv("DB_HOST", "db")
		t.Setenv("DB_PORT", "")
		t.Setenv("DB_NAME", "pizzeria")
		dsn, err := dsnFromEnv()
		require.NoError(t, err)
		assert.Contains(t, dsn, "host=db")
		assert.Contains(t, dsn, "port=5432")
		assert.Contains(t, dsn, "dbname=pizzeria")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("Missing", func(t *testing.T) {
		t.Setenv("DB_URL", "")
		t.Setenv("DB_HOST", "")
		_, err := dsnFromEnv()
		assert.Error(t, err)
	})
}

func TestMigrateUp(t *testing.T) {
	logger.Set(zap.NewNop())
	ctx := context.Background()

	t.Run("AppliesPendingInTransaction", func(t *testing.T) {
		conn, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer conn.Close()

		dir := t.TempDir()
		done := writeMigration(t, dir, "0001_init.sql", "-- +migrate Up\nCREATE TABLE a (id int);\n-- +migrate Down\nDROP TABLE a;\n")
		pending := writeMigration(t, dir, "0002_items.sql", "-- +migrate Up\nCREATE TABLE b (id int);\n-- +migrate Down\nDROP TABLE b;\n")

		mock.ExpectQuery("SELECT EXISTS.*schema_migrations").
			WithArgs("0001_init.sql").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectQuery("SELECT EXISTS.*schema_migrations").
			WithArgs("0002_items.sql").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectBegin()
		mock.ExpectExec("CREATE TABLE b").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT INTO schema_migrations").
			WithArgs("0002_items.sql").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		require.NoError(t, migrateUp(ctx, conn, []string{done, pending}))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("FailureRollsBack", func(t *testing.T) {
		conn, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer conn.Close()

		file := writeMigration(t, t.TempDir(), "0001_init.sql", "-- +migrate Up\nCREATE TABLE a (id int);\n")

		mock.ExpectQuery("SELECT EXISTS.*schema_migrations").
			WithArgs("0001_init.sql").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectBegin()
		mock.ExpectExec("CREATE TABLE a").WillReturnError(errors.New("syntax error"))
		mock.ExpectRollback()

		err = migrateUp(ctx, conn, []string{file})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "0001_init.sql")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("MissingUpSection", func(t *testing.T) {
		conn, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer conn.Close()

		file := writeMigration(t, t.TempDir(), "0001_init.sql", "-- +migrate Down\nDROP TABLE a;\n")
		mock.ExpectQuery("SELECT EXISTS.*schema_migrations").
			WithArgs("0001_init.sql").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		err = migrateUp(ctx, conn, []string{file})
		assert.ErrorContains(t, err, "no -- +migrate Up section")
	})
}

func TestMigrateDown(t *testing.T) {
	logger.Set(zap.NewNop())
	ctx := context.Background()

	t.Run("RollsBackLatest", func(t *testing.T) {
		conn, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer conn.Close()

		file := writeMigration(t, t.TempDir(), "0001_init.sql", "-- +migrate Up\nCREATE TABLE a (id int);\n-- +migrate Down\nDROP TABLE a;\n")

		mock.ExpectQuery("SELECT version FROM schema_migrations").
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("0001_init.sql"))
		mock.ExpectBegin()
		mock.ExpectExec("DROP TABLE a").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("DELETE FROM schema_migrations").
			WithArgs("0001_init.sql").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, migrateDown(ctx, conn, []string{file}))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NothingApplied", func(t *testing.T) {
		conn, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer conn.Close()

		mock.ExpectQuery("SELECT version FROM schema_migrations").WillReturnError(sql.ErrNoRows)

		assert.NoError(t, migrateDown(ctx, conn, nil))
	})

	t.Run("UnknownVersion", func(t *testing.T) {
		conn, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer conn.Close()

		mock.ExpectQuery("SELECT version FROM schema_migrations").
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("0009_gone.sql"))

		assert.ErrorContains(t, migrateDown(ctx, conn, nil), "0009_gone.sql")
	})
}

func TestRun(t *testing.T) {
	logger.Set(zap.NewNop())

	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))

	err = run(context.Background(), conn, "sideways", t.TempDir())
	assert.ErrorContains(t, err, "unknown mode")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShippedMigrationsHaveBothSections(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("..", "..", "migrations", "*.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		_, err := readSection(f, sectionUp)
		assert.NoError(t, err, f)
		_, err = readSection(f, sectionDown)
		assert.NoError(t, err, f)
	}
}

func TestLineObservationsAreUnbounded(t *testing.T) {
	up, err := readSection(filepath.Join("..", "..", "migrations", "0001_init.sql"), sectionUp)
	require.NoError(t, err)

	start := strings.Index(up, "CREATE TABLE order_items")
	require.GreaterOrEqual(t, start, 0)
	table := up[start:]
	table = table[:strings.Index(table, ");")]

	assert.Regexp(t, `(?m)^\s*observations\s+TEXT,`, table)
}
