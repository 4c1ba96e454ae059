package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing.yaml")} {
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, BackendMemory, cfg.Repository)
		assert.Equal(t, "students.txt", cfg.Files.Students)
		assert.True(t, cfg.Seed.Enabled)
		assert.Equal(t, 20, cfg.Seed.Grades)
	}
}

func TestLoad_LegacyProperties(t *testing.T) {
	path := writeSettings(t, "settings.properties", `repository = BinaryFileRepository
students = data/students.pickle
disciplines = data/disciplines.pickle
grades = data/grades.pickle
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendSnapshot, cfg.Repository)
	assert.Equal(t, FilesConfig{
		Students:    "data/students.pickle",
		Disciplines: "data/disciplines.pickle",
		Grades:      "data/grades.pickle",
	}, cfg.Files)
}

func TestLoad_PropertiesErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"missing separator", "repository MemoryRepository\n", "line 1"},
		{"unknown key", "# comment\n\ncolour = blue\n", `line 3: unknown key "colour"`},
		{"bad bool", "atomic_writes = maybe\n", "atomic_writes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeSettings(t, "settings.properties", tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeSettings(t, "records.yaml", `
repository: postgres
postgres:
  url: postgres://localhost/records
  schema: school
history:
  max_depth: 50
seed:
  enabled: false
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendPostgres, cfg.Repository)
	assert.Equal(t, "postgres://localhost/records", cfg.Postgres.URL)
	assert.Equal(t, "school", cfg.Postgres.Schema)
	assert.Equal(t, 5, cfg.Postgres.ConnectAttempts, "unset keys keep defaults")
	assert.Equal(t, 50, cfg.History.MaxDepth)
	assert.False(t, cfg.Seed.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeSettings(t, "records.yaml", "repository: text\n")
	t.Setenv("RECORDS_REPOSITORY", "snapshot")
	t.Setenv("RECORDS_GRADES_FILE", "/var/lib/records/grades.bin")
	t.Setenv("RECORDS_ATOMIC_WRITES", "true")
	t.Setenv("RECORDS_SEED", "false")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendSnapshot, cfg.Repository)
	assert.True(t, cfg.AtomicWrites)
	assert.False(t, cfg.Seed.Enabled)
	assert.Equal(t, "/var/lib/records/grades.bin", cfg.Files.Grades)
	assert.Equal(t, "students.bin", cfg.Files.Students)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeSettings(t, "records.yaml", "repository: [memory\n"))
	assert.ErrorContains(t, err, "parse settings")
}

func TestConfig_Backend(t *testing.T) {
	tests := map[string]string{
		"":                     BackendMemory,
		"MemoryRepository":     BackendMemory,
		"TextFileRepository":   BackendText,
		"BinaryFileRepository": BackendSnapshot,
		" Redis ":              BackendRedis,
		"sqlite":               BackendSQLite,
		"cassandra":            "cassandra",
	}
	for in, want := range tests {
		assert.Equal(t, want, (&Config{Repository: in}).Backend(), in)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Repository = "postgres"
	cfg.History.MaxDepth = -1
	cfg.Log.Level = "loud"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RECORDS_POSTGRES_URL")
	assert.Contains(t, err.Error(), "max_depth")
	assert.Contains(t, err.Error(), `"loud"`)

	cfg = Default()
	cfg.Repository = "cassandra"
	assert.ErrorContains(t, cfg.Validate(), `unknown repository "cassandra"`)

	cfg = Default()
	cfg.Repository = BackendRedis
	cfg.Redis.Addr = ""
	assert.ErrorContains(t, cfg.Validate(), "RECORDS_REDIS_ADDR")
}
