//go:build integration

package database_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/saturnino-fabrica-de-software/reentry/internal/database"
)

const testDBName = "reentry_test"

func startPostgres(t *testing.T) string {
	t.Helper()

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "pgvector/pgvector:pg16",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       testDBName,
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://test:test@%s:%s/%s?sslmode=disable", host, port.Port(), testDBName)
}

func TestMigratorIntegration(t *testing.T) {
	ctx := context.Background()
	dsn := startPostgres(t)

	db, err := database.OpenSQL(ctx, dsn)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	t.Run("fresh database has no version", func(t *testing.T) {
		migrator, err := database.NewMigrator(db, testDBName)
		require.NoError(t, err)
		defer func() { _ = migrator.Close() }()

		version, dirty, err := migrator.Version()
		require.NoError(t, err)
		assert.Equal(t, uint(0), version)
		assert.False(t, dirty)
	})

	t.Run("Up creates face_entries", func(t *testing.T) {
		require.NoError(t, database.MigrateUp(ctx, dsn, testDBName))

		assertTableExists(t, db, "face_entries")
		assert.ElementsMatch(t,
			[]string{"position", "identity", "embedding", "updated_at"},
			getTableColumns(t, db, "face_entries"))
		assert.Contains(t, getTableIndexes(t, db, "face_entries"), "idx_face_entries_identity")
	})

	t.Run("Up is idempotent", func(t *testing.T) {
		migrator, err := database.NewMigrator(db, testDBName)
		require.NoError(t, err)
		defer func() { _ = migrator.Close() }()

		require.NoError(t, migrator.Up())

		version, dirty, err := migrator.Version()
		require.NoError(t, err)
		assert.Equal(t, uint(1), version)
		assert.False(t, dirty)
	})

	t.Run("identity must be unique and non-empty", func(t *testing.T) {
		_, err := db.ExecContext(ctx,
			`INSERT INTO face_entries (position, identity, embedding) VALUES (0, 'alice', '[1,0]')`)
		require.NoError(t, err)

		_, err = db.ExecContext(ctx,
			`INSERT INTO face_entries (position, identity, embedding) VALUES (1, 'alice', '[0,1]')`)
		assert.Error(t, err)

		_, err = db.ExecContext(ctx,
			`INSERT INTO face_entries (position, identity, embedding) VALUES (2, '', '[0,1]')`)
		assert.Error(t, err)

		_, err = db.ExecContext(ctx, `DELETE FROM face_entries`)
		require.NoError(t, err)
	})

	t.Run("Down drops face_entries", func(t *testing.T) {
		migrator, err := database.NewMigrator(db, testDBName)
		require.NoError(t, err)
		defer func() { _ = migrator.Close() }()

		require.NoError(t, migrator.Down())

		var exists bool
		err = db.QueryRowContext(ctx, `
			SELECT EXISTS (
				SELECT FROM information_schema.tables
				WHERE table_schema = 'public' AND table_name = 'face_entries'
			)`).Scan(&exists)
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func assertTableExists(t *testing.T, db *sql.DB, tableName string) {
	t.Helper()

	var exists bool
	err := db.QueryRow(`
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = $1
		)`, tableName).Scan(&exists)
	require.NoError(t, err)
	assert.True(t, exists, "table %s should exist", tableName)
}

func getTableColumns(t *testing.T, db *sql.DB, tableName string) []string {
	t.Helper()

	rows, err := db.Query(`
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position`, tableName)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var columns []string
	for rows.Next() {
		var col string
		require.NoError(t, rows.Scan(&col))
		columns = append(columns, col)
	}
	require.NoError(t, rows.Err())
	return columns
}

func getTableIndexes(t *testing.T, db *sql.DB, tableName string) []string {
	t.Helper()

	rows, err := db.Query(`
		SELECT indexname
		FROM pg_indexes
		WHERE schemaname = 'public' AND tablename = $1`, tableName)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var indexes []string
	for rows.Next() {
		var idx string
		require.NoError(t, rows.Scan(&idx))
		indexes = append(indexes, idx)
	}
	require.NoError(t, rows.Err())
	return indexes
}
