package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alem-hub/student-records/internal/domain/record"
	"github.com/alem-hub/student-records/internal/infrastructure/persistence/repotest"
	"github.com/alem-hub/student-records/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Conformance(t *testing.T) {
	repotest.Run(t, func(t *testing.T) (record.Repository, func() record.Repository) {
		path := filepath.Join(t.TempDir(), "records.db")
		store, err := Open(context.Background(), path, logger.Nop())
		require.NoError(t, err)
		return store, func() record.Repository {
			next, err := Open(context.Background(), path, logger.Nop())
			require.NoError(t, err)
			return next
		}
	})
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "  ", logger.Nop())
	assert.Error(t, err)
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "records.db")

	store, err := Open(ctx, path, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, store.AddStudent(ctx, record.Student{ID: 1, Name: "Ana"}))
	require.NoError(t, store.Close())

	store, err = Open(ctx, path, logger.Nop())
	require.NoError(t, err)
	defer store.Close()

	var applied int
	require.NoError(t, store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+migrationTable).Scan(&applied))
	assert.Equal(t, 1, applied)

	students, err := store.ListStudents(ctx)
	require.NoError(t, err)
	assert.Equal(t, []record.Student{{ID: 1, Name: "Ana"}}, students)
}

func TestExtractUpMigration(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a (x INT);\n-- +migrate Down\nDROP TABLE a;\n"
	assert.Equal(t, "\nCREATE TABLE a (x INT);\n", extractUpMigration(content))
	assert.Equal(t, "SELECT 1;", extractUpMigration("SELECT 1;"))
}
