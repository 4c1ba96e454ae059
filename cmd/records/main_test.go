package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	content := strings.Join([]string{
		"repository: text",
		"files:",
		"  students: " + filepath.Join(dir, "students.txt"),
		"  disciplines: " + filepath.Join(dir, "disciplines.txt"),
		"  grades: " + filepath.Join(dir, "grades.txt"),
		"seed:",
		"  enabled: true",
		"  students: 3",
		"  disciplines: 2",
		"  grades: 4",
	}, "\n")
	path := filepath.Join(dir, "records.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runCmd(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCLI_SeedThenList(t *testing.T) {
	cfg := writeConfig(t)

	_, err := runCmd(t, "", "--config", cfg, "seed")
	require.NoError(t, err)

	out, err := runCmd(t, "", "--config", cfg, "students", "list")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, "Student id:"))

	out, err = runCmd(t, "", "--config", cfg, "grades", "list")
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(out, "Grade:"))
}

func TestCLI_ShellPersistsChanges(t *testing.T) {
	cfg := writeConfig(t)

	_, err := runCmd(t, "add student 100 Late Comer\nexit\n", "--config", cfg, "shell")
	require.NoError(t, err)

	out, err := runCmd(t, "", "--config", cfg, "students", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Student id: 100, Name: Late Comer")
	assert.Equal(t, 4, strings.Count(out, "Student id:"), "seeded students plus one")
}

func TestCLI_Report(t *testing.T) {
	cfg := writeConfig(t)

	_, err := runCmd(t, "", "--config", cfg, "report", "worst")
	assert.Error(t, err)

	_, err = runCmd(t, "", "--config", cfg, "report", "best-disciplines")
	assert.Error(t, err, "no disciplines before seeding")

	_, err = runCmd(t, "", "--config", cfg, "seed")
	require.NoError(t, err)
	out, err := runCmd(t, "", "--config", cfg, "report", "grades")
	require.NoError(t, err)
	assert.Contains(t, out, "Student name:")
}

func TestCLI_BadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.yaml")
	require.NoError(t, os.WriteFile(path, []byte("repository: cassandra\n"), 0o644))

	_, err := runCmd(t, "", "--config", path, "students", "list")
	assert.ErrorContains(t, err, `unknown repository "cassandra"`)
}
