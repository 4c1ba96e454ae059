package snapshot

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alem-hub/student-records/internal/domain/record"
	"github.com/alem-hub/student-records/internal/domain/shared"
	"github.com/alem-hub/student-records/internal/infrastructure/persistence/collection"
	"github.com/alem-hub/student-records/internal/infrastructure/persistence/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempPaths(t *testing.T) collection.Paths {
	dir := t.TempDir()
	return collection.Paths{
		Students:    filepath.Join(dir, "students.bin"),
		Disciplines: filepath.Join(dir, "disciplines.bin"),
		Grades:      filepath.Join(dir, "grades.bin"),
	}
}

func TestRepository_Conformance(t *testing.T) {
	repotest.Run(t, func(t *testing.T) (record.Repository, func() record.Repository) {
		opts := Options{Paths: tempPaths(t)}
		repo, err := Open(opts)
		require.NoError(t, err)
		return repo, func() record.Repository {
			next, err := Open(opts)
			require.NoError(t, err)
			return next
		}
	})
}

func TestEncodeDecode_PreservesOrder(t *testing.T) {
	in := []record.Grade{
		{StudentID: 2, DisciplineID: 1, Value: 3},
		{StudentID: 1, DisciplineID: 1, Value: 10},
		{StudentID: 2, DisciplineID: 1, Value: 3},
	}

	data, err := Encode(collection.KindGrades, in)
	require.NoError(t, err)

	out, err := Decode[record.Grade](collection.KindGrades, data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestEncode_Deterministic(t *testing.T) {
	in := []record.Student{{ID: 1, Name: "Ana"}, {ID: 2, Name: "Bob"}}

	a, err := Encode(collection.KindStudents, in)
	require.NoError(t, err)
	b, err := Encode(collection.KindStudents, in)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDecode_EmptyInput(t *testing.T) {
	out, err := Decode[record.Student](collection.KindStudents, nil)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestDecode_KindMismatch(t *testing.T) {
	data, err := Encode(collection.KindStudents, []record.Student{{ID: 1, Name: "Ana"}})
	require.NoError(t, err)

	_, err = Decode[record.Discipline](collection.KindDisciplines, data)
	assert.ErrorIs(t, err, shared.ErrCorruptSnapshot)
}

func TestDecode_ChecksumMismatch(t *testing.T) {
	data, err := Encode(collection.KindStudents, []record.Student{{ID: 1, Name: "Ana"}})
	require.NoError(t, err)

	// The name bytes sit inside the checksummed payload.
	i := bytes.Index(data, []byte("Ana"))
	require.GreaterOrEqual(t, i, 0)
	data[i] = 'E'

	_, err = Decode[record.Student](collection.KindStudents, data)
	assert.ErrorIs(t, err, shared.ErrCorruptSnapshot)
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode[record.Student](collection.KindStudents, []byte("not cbor at all"))
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidFormat)
}

func TestOpen_CorruptFileFailsLoading(t *testing.T) {
	paths := tempPaths(t)
	repo, err := Open(Options{Paths: paths})
	require.NoError(t, err)
	require.NoError(t, repo.AddDiscipline(context.Background(), record.Discipline{ID: 1, Name: "Math"}))

	data, err := os.ReadFile(paths.Disciplines)
	require.NoError(t, err)
	i := bytes.Index(data, []byte("Math"))
	require.GreaterOrEqual(t, i, 0)
	data[i] = 'B'
	require.NoError(t, os.WriteFile(paths.Disciplines, data, 0o644))

	_, err = Open(Options{Paths: paths})
	assert.ErrorIs(t, err, shared.ErrCorruptSnapshot)
}

func TestOpen_ZeroLengthFileLoadsEmpty(t *testing.T) {
	paths := tempPaths(t)
	require.NoError(t, os.WriteFile(paths.Students, nil, 0o644))

	repo, err := Open(Options{Paths: paths})
	require.NoError(t, err)
	students, err := repo.ListStudents(context.Background())
	require.NoError(t, err)
	assert.Empty(t, students)
}
