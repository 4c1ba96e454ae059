package records

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alem-hub/student-records/internal/application/undo"
	"github.com/alem-hub/student-records/internal/domain/record"
	"github.com/alem-hub/student-records/internal/domain/shared"
	"github.com/alem-hub/student-records/internal/infrastructure/persistence/collection"
	"github.com/alem-hub/student-records/internal/infrastructure/persistence/memory"
	"github.com/alem-hub/student-records/internal/infrastructure/persistence/repotest"
	"github.com/alem-hub/student-records/internal/infrastructure/persistence/snapshot"
	"github.com/alem-hub/student-records/internal/infrastructure/persistence/sqlite"
	"github.com/alem-hub/student-records/internal/infrastructure/persistence/textfile"
	"github.com/alem-hub/student-records/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, record.Repository) {
	t.Helper()
	repo := memory.NewRepository()
	return NewService(repo, undo.NewService(), logger.Nop()), repo
}

// backends opens one fresh repository per backend that keeps insertion order
// on disk or in memory.
func backends(t *testing.T) map[string]func(t *testing.T) record.Repository {
	return map[string]func(t *testing.T) record.Repository{
		"memory": func(t *testing.T) record.Repository { return memory.NewRepository() },
		"text": func(t *testing.T) record.Repository {
			dir := t.TempDir()
			repo, err := textfile.Open(textfile.Options{Paths: collection.Paths{
				Students:    filepath.Join(dir, "students.txt"),
				Disciplines: filepath.Join(dir, "disciplines.txt"),
				Grades:      filepath.Join(dir, "grades.txt"),
			}})
			require.NoError(t, err)
			return repo
		},
		"snapshot": func(t *testing.T) record.Repository {
			dir := t.TempDir()
			repo, err := snapshot.Open(snapshot.Options{Paths: collection.Paths{
				Students:    filepath.Join(dir, "students.bin"),
				Disciplines: filepath.Join(dir, "disciplines.bin"),
				Grades:      filepath.Join(dir, "grades.bin"),
			}})
			require.NoError(t, err)
			return repo
		},
		"sqlite": func(t *testing.T) record.Repository {
			repo, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "records.db"), logger.Nop())
			require.NoError(t, err)
			t.Cleanup(func() { _ = repo.Close() })
			return repo
		},
	}
}

// seedBase builds a state where every operation below has something to act on,
// including a duplicate grade and grades of the student being removed spread
// through the list.
func seedBase(t *testing.T, svc *Service) {
	t.Helper()
	ctx := context.Background()

	for _, st := range []record.Student{{ID: 1, Name: "Costin Joldes"}, {ID: 2, Name: "Cristian Onet"}, {ID: 3, Name: "Ionut Burz"}} {
		_, err := svc.AddStudent(ctx, st.ID, st.Name)
		require.NoError(t, err)
	}
	for _, d := range []record.Discipline{{ID: 1, Name: "Math"}, {ID: 2, Name: "English"}, {ID: 3, Name: "Physics"}} {
		_, err := svc.AddDiscipline(ctx, d.ID, d.Name)
		require.NoError(t, err)
	}
	for _, g := range []record.Grade{
		{StudentID: 2, DisciplineID: 1, Value: 7},
		{StudentID: 1, DisciplineID: 1, Value: 4},
		{StudentID: 2, DisciplineID: 2, Value: 9},
		{StudentID: 3, DisciplineID: 1, Value: 6},
		{StudentID: 2, DisciplineID: 3, Value: 5},
		{StudentID: 1, DisciplineID: 2, Value: 8},
	} {
		_, err := svc.GradeStudent(ctx, g.StudentID, g.DisciplineID, g.Value)
		require.NoError(t, err)
	}
	svc.ResetHistory()
}

func TestService_UndoRedoInverseLaw(t *testing.T) {
	ops := []struct {
		name string
		run  func(ctx context.Context, svc *Service) error
	}{
		{"add student", func(ctx context.Context, svc *Service) error {
			_, err := svc.AddStudent(ctx, 4, "Alexia Goia")
			return err
		}},
		{"remove first student", func(ctx context.Context, svc *Service) error {
			_, err := svc.RemoveStudent(ctx, 1)
			return err
		}},
		{"remove middle student with spread grades", func(ctx context.Context, svc *Service) error {
			_, err := svc.RemoveStudent(ctx, 2)
			return err
		}},
		{"update student", func(ctx context.Context, svc *Service) error {
			_, err := svc.UpdateStudent(ctx, 2, "Andra Balea")
			return err
		}},
		{"add discipline", func(ctx context.Context, svc *Service) error {
			_, err := svc.AddDiscipline(ctx, 4, "Latin")
			return err
		}},
		{"remove middle discipline", func(ctx context.Context, svc *Service) error {
			_, err := svc.RemoveDiscipline(ctx, 2)
			return err
		}},
		{"update discipline", func(ctx context.Context, svc *Service) error {
			_, err := svc.UpdateDiscipline(ctx, 3, "Chemistry")
			return err
		}},
		{"grade student", func(ctx context.Context, svc *Service) error {
			_, err := svc.GradeStudent(ctx, 3, 2, 10)
			return err
		}},
		{"grade student duplicating an earlier grade", func(ctx context.Context, svc *Service) error {
			_, err := svc.GradeStudent(ctx, 2, 1, 7)
			return err
		}},
	}

	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, op := range ops {
				t.Run(op.name, func(t *testing.T) {
					ctx := context.Background()
					repo := open(t)
					svc := NewService(repo, nil, logger.Nop())
					seedBase(t, svc)

					before := repotest.Snapshot(t, repo)
					require.NoError(t, op.run(ctx, svc))
					after := repotest.Snapshot(t, repo)
					require.NotEqual(t, before, after)

					_, err := svc.Undo(ctx)
					require.NoError(t, err)
					assert.Equal(t, before, repotest.Snapshot(t, repo), "undo must restore the prior state")

					_, err = svc.Redo(ctx)
					require.NoError(t, err)
					assert.Equal(t, after, repotest.Snapshot(t, repo), "redo must restore the post state")
				})
			}
		})
	}
}

func TestService_GradeUndoRedoScenario(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.AddStudent(ctx, 1, "A")
	require.NoError(t, err)
	_, err = svc.AddDiscipline(ctx, 1, "Math")
	require.NoError(t, err)
	_, err = svc.GradeStudent(ctx, 1, 1, 10)
	require.NoError(t, err)

	want := []record.StudentGrade{{
		Student:    record.Student{ID: 1, Name: "A"},
		Discipline: record.Discipline{ID: 1, Name: "Math"},
		Value:      10,
	}}
	got, err := svc.StudentsWithGrades(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	op, err := svc.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, OpGradeStudent, op.Name)
	grades, err := svc.ListGrades(ctx)
	require.NoError(t, err)
	assert.Empty(t, grades)

	_, err = svc.Redo(ctx)
	require.NoError(t, err)
	got, err = svc.StudentsWithGrades(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestService_FailingStudentsInInsertionOrder(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.AddDiscipline(ctx, 1, "Math")
	require.NoError(t, err)
	grades := map[int][]int{
		1: {8, 9},
		2: {2, 4},
		3: {5},
		4: {10, 1, 3},
		5: {7, 6},
	}
	for id := 1; id <= 5; id++ {
		_, err := svc.AddStudent(ctx, id, "Student")
		require.NoError(t, err)
	}
	// Grades interleaved so list order differs from student order.
	for round := 0; round < 3; round++ {
		for id := 5; id >= 1; id-- {
			if round < len(grades[id]) {
				_, err := svc.GradeStudent(ctx, id, 1, grades[id][round])
				require.NoError(t, err)
			}
		}
	}

	failing, err := svc.FailingStudents(ctx)
	require.NoError(t, err)
	assert.Equal(t, []record.Student{{ID: 2, Name: "Student"}, {ID: 4, Name: "Student"}}, failing)
}

func TestService_HistoryInvalidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.AddStudent(ctx, 1, "A")
	require.NoError(t, err)
	_, err = svc.Undo(ctx)
	require.NoError(t, err)
	assert.True(t, svc.History().CanRedo())

	_, err = svc.AddStudent(ctx, 2, "B")
	require.NoError(t, err)

	_, err = svc.Redo(ctx)
	assert.ErrorIs(t, err, shared.ErrNothingToRedo)
	assert.True(t, shared.IsHistoryEmpty(err))
}

func TestService_Uniqueness(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)

	_, err := svc.AddStudent(ctx, 1, "A")
	require.NoError(t, err)
	_, err = svc.AddDiscipline(ctx, 1, "Math")
	require.NoError(t, err)
	before := repotest.Snapshot(t, repo)

	_, err = svc.AddStudent(ctx, 1, "Other")
	assert.ErrorIs(t, err, shared.ErrStudentAlreadyExists)
	assert.True(t, shared.IsAlreadyExists(err))

	_, err = svc.AddDiscipline(ctx, 1, "Other")
	assert.ErrorIs(t, err, shared.ErrDisciplineAlreadyExists)

	assert.Equal(t, before, repotest.Snapshot(t, repo))
	assert.Equal(t, 2, svc.History().UndoLen())
}

func TestService_CascadeOnlyForStudents(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	seedBase(t, svc)

	_, err := svc.RemoveStudent(ctx, 2)
	require.NoError(t, err)
	grades, err := repo.ListGrades(ctx)
	require.NoError(t, err)
	assert.Equal(t, []record.Grade{
		{StudentID: 1, DisciplineID: 1, Value: 4},
		{StudentID: 3, DisciplineID: 1, Value: 6},
		{StudentID: 1, DisciplineID: 2, Value: 8},
	}, grades)

	_, err = svc.RemoveDiscipline(ctx, 1)
	require.NoError(t, err)
	after, err := repo.ListGrades(ctx)
	require.NoError(t, err)
	assert.Equal(t, grades, after)
}

func TestService_Validation(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	_, err := svc.AddStudent(ctx, 1, "A")
	require.NoError(t, err)
	_, err = svc.AddDiscipline(ctx, 1, "Math")
	require.NoError(t, err)
	before := repotest.Snapshot(t, repo)
	depth := svc.History().UndoLen()

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{"blank student name", func() error { _, err := svc.AddStudent(ctx, 2, "   "); return err }, shared.ErrInvalidName},
		{"comma in name", func() error { _, err := svc.AddStudent(ctx, 2, "Doe, Jane"); return err }, shared.ErrInvalidName},
		{"newline in discipline", func() error { _, err := svc.AddDiscipline(ctx, 2, "Ma\nth"); return err }, shared.ErrInvalidName},
		{"remove missing student", func() error { _, err := svc.RemoveStudent(ctx, 9); return err }, shared.ErrStudentNotFound},
		{"remove missing discipline", func() error { _, err := svc.RemoveDiscipline(ctx, 9); return err }, shared.ErrDisciplineNotFound},
		{"update missing student", func() error { _, err := svc.UpdateStudent(ctx, 9, "X"); return err }, shared.ErrStudentNotFound},
		{"update missing discipline", func() error { _, err := svc.UpdateDiscipline(ctx, 9, "X"); return err }, shared.ErrDisciplineNotFound},
		{"grade missing student", func() error { _, err := svc.GradeStudent(ctx, 9, 1, 5); return err }, shared.ErrStudentNotFound},
		{"grade missing discipline", func() error { _, err := svc.GradeStudent(ctx, 1, 9, 5); return err }, shared.ErrDisciplineNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.run(), tt.want)
		})
	}

	assert.Equal(t, before, repotest.Snapshot(t, repo))
	assert.Equal(t, depth, svc.History().UndoLen())
}

func TestService_NamesAreTrimmed(t *testing.T) {
	svc, _ := newTestService(t)
	st, err := svc.AddStudent(context.Background(), 1, "  Ana  ")
	require.NoError(t, err)
	assert.Equal(t, "Ana", st.Name)
}

func TestService_GradeValueIsNotRangeChecked(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	_, err := svc.AddStudent(ctx, 1, "A")
	require.NoError(t, err)
	_, err = svc.AddDiscipline(ctx, 1, "Math")
	require.NoError(t, err)

	g, err := svc.GradeStudent(ctx, 1, 1, 42)
	require.NoError(t, err)
	assert.Equal(t, 42, g.Value)
}

func TestService_UndoPropagatesStorageFailure(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)

	st, err := svc.AddStudent(ctx, 1, "A")
	require.NoError(t, err)
	// Out-of-band removal behind the service's back.
	require.NoError(t, repo.RemoveStudent(ctx, st))

	op, err := svc.Undo(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrRecordNotFound)
	assert.Contains(t, err.Error(), OpAddStudent)
	assert.Equal(t, OpAddStudent, op.Name)
	assert.True(t, svc.History().CanRedo())
}

func TestService_ResetHistory(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	_, err := svc.AddStudent(ctx, 1, "A")
	require.NoError(t, err)

	svc.ResetHistory()
	_, err = svc.Undo(ctx)
	assert.ErrorIs(t, err, shared.ErrNothingToUndo)
}

func TestParseID(t *testing.T) {
	id, err := ParseID(" 42 ")
	require.NoError(t, err)
	assert.Equal(t, 42, id)

	_, err = ParseID("4a")
	assert.ErrorIs(t, err, shared.ErrInvalidID)
	assert.True(t, shared.IsValidation(err))
}

func TestParseGradeValue(t *testing.T) {
	v, err := ParseGradeValue("-3")
	require.NoError(t, err)
	assert.Equal(t, -3, v)

	_, err = ParseGradeValue("ten")
	assert.ErrorIs(t, err, shared.ErrInvalidGrade)
	assert.True(t, shared.IsValidation(err))
}
