package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alem-hub/student-records/config"
	"github.com/alem-hub/student-records/internal/domain/record"
	"github.com/alem-hub/student-records/internal/infrastructure/persistence/memory"
	"github.com/alem-hub/student-records/internal/infrastructure/persistence/snapshot"
	"github.com/alem-hub/student-records/internal/infrastructure/persistence/sqlite"
	"github.com/alem-hub/student-records/internal/infrastructure/persistence/textfile"
	"github.com/alem-hub/student-records/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileConfig(t *testing.T, repository, ext string) *config.Config {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Repository = repository
	cfg.Files = config.FilesConfig{
		Students:    filepath.Join(dir, "students"+ext),
		Disciplines: filepath.Join(dir, "disciplines"+ext),
		Grades:      filepath.Join(dir, "grades"+ext),
	}
	cfg.SQLite.Path = filepath.Join(dir, "records.db")
	return cfg
}

func TestOpen_SelectsBackend(t *testing.T) {
	tests := []struct {
		repository string
		ext        string
		check      func(t *testing.T, repo record.Repository)
	}{
		{"memory", ".txt", func(t *testing.T, repo record.Repository) { assert.IsType(t, &memory.Repository{}, repo) }},
		{"MemoryRepository", ".txt", func(t *testing.T, repo record.Repository) { assert.IsType(t, &memory.Repository{}, repo) }},
		{"TextFileRepository", ".txt", func(t *testing.T, repo record.Repository) { assert.IsType(t, &textfile.Repository{}, repo) }},
		{"BinaryFileRepository", ".bin", func(t *testing.T, repo record.Repository) { assert.IsType(t, &snapshot.Repository{}, repo) }},
		{"sqlite", ".txt", func(t *testing.T, repo record.Repository) { assert.IsType(t, &sqlite.Store{}, repo) }},
	}

	for _, tt := range tests {
		t.Run(tt.repository, func(t *testing.T) {
			repo, err := Open(context.Background(), fileConfig(t, tt.repository, tt.ext), logger.Nop())
			require.NoError(t, err)
			t.Cleanup(func() { _ = repo.Close() })
			tt.check(t, repo)
		})
	}
}

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	cfg := fileConfig(t, "text", ".txt")

	repo, err := Open(ctx, cfg, nil)
	require.NoError(t, err)
	require.NoError(t, repo.AddStudent(ctx, record.Student{ID: 1, Name: "Costin Joldes"}))
	require.NoError(t, repo.Close())

	repo, err = Open(ctx, cfg, nil)
	require.NoError(t, err)
	students, err := repo.ListStudents(ctx)
	require.NoError(t, err)
	assert.Equal(t, []record.Student{{ID: 1, Name: "Costin Joldes"}}, students)
}

func TestOpen_UnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Repository = "cassandra"

	_, err := Open(context.Background(), cfg, logger.Nop())
	assert.ErrorContains(t, err, `unknown repository "cassandra"`)
}
