// Package repotest is the conformance suite every record.Repository backend
// runs. Identical expectations for every backend are what make the backends
// interchangeable.
package repotest

import (
	"context"
	"testing"

	"github.com/alem-hub/student-records/internal/domain/record"
	"github.com/alem-hub/student-records/internal/domain/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory opens a fresh, empty backend for one subtest. Reopen must return a
// repository reading the same persisted state (the same instance for
// volatile backends). The suite closes every instance it replaces and the
// last one at cleanup.
type Factory func(t *testing.T) (repo record.Repository, reopen func() record.Repository)

// Fixed sample records.
var (
	Ana   = record.Student{ID: 1, Name: "Costin Joldes"}
	Bob   = record.Student{ID: 2, Name: "Cristian Onet"}
	Cleo  = record.Student{ID: 3, Name: "Ionut Burz"}
	Math  = record.Discipline{ID: 1, Name: "Math"}
	Eng   = record.Discipline{ID: 2, Name: "English"}
	Frnch = record.Discipline{ID: 3, Name: "French"}
)

// Run executes the whole suite against backends produced by factory.
func Run(t *testing.T, factory Factory) {
	t.Run("EmptyLists", func(t *testing.T) { testEmptyLists(t, factory) })
	t.Run("InsertionOrder", func(t *testing.T) { testInsertionOrder(t, factory) })
	t.Run("RemoveStudentExactMatch", func(t *testing.T) { testRemoveStudentExactMatch(t, factory) })
	t.Run("RemoveStudentCascades", func(t *testing.T) { testRemoveStudentCascades(t, factory) })
	t.Run("RemoveDisciplineKeepsGrades", func(t *testing.T) { testRemoveDisciplineKeepsGrades(t, factory) })
	t.Run("UpdateInPlace", func(t *testing.T) { testUpdateInPlace(t, factory) })
	t.Run("GetStudent", func(t *testing.T) { testGetStudent(t, factory) })
	t.Run("InsertAtIndex", func(t *testing.T) { testInsertAtIndex(t, factory) })
	t.Run("RemoveGrade", func(t *testing.T) { testRemoveGrade(t, factory) })
	t.Run("DuplicateKeysAccepted", func(t *testing.T) { testDuplicateKeysAccepted(t, factory) })
	t.Run("ReplayAndReload", func(t *testing.T) { testReplayAndReload(t, factory) })
}

// State is everything a backend exposes through its list operations.
type State struct {
	Students    []record.Student
	Disciplines []record.Discipline
	Grades      []record.Grade
}

// Snapshot reads the full list state of repo.
func Snapshot(t *testing.T, repo record.Repository) State {
	t.Helper()
	ctx := context.Background()

	students, err := repo.ListStudents(ctx)
	require.NoError(t, err)
	disciplines, err := repo.ListDisciplines(ctx)
	require.NoError(t, err)
	grades, err := repo.ListGrades(ctx)
	require.NoError(t, err)

	return State{Students: students, Disciplines: disciplines, Grades: grades}
}

func open(t *testing.T, factory Factory) (record.Repository, func() record.Repository) {
	t.Helper()
	repo, reopen := factory(t)
	t.Cleanup(func() { _ = repo.Close() })
	return repo, func() record.Repository {
		t.Helper()
		next := reopen()
		if next != repo {
			require.NoError(t, repo.Close())
		}
		repo = next
		return next
	}
}

func testEmptyLists(t *testing.T, factory Factory) {
	repo, _ := open(t, factory)
	state := Snapshot(t, repo)

	assert.NotNil(t, state.Students)
	assert.Empty(t, state.Students)
	assert.NotNil(t, state.Disciplines)
	assert.Empty(t, state.Disciplines)
	assert.NotNil(t, state.Grades)
	assert.Empty(t, state.Grades)
}

func testInsertionOrder(t *testing.T, factory Factory) {
	ctx := context.Background()
	repo, _ := open(t, factory)

	require.NoError(t, repo.AddStudent(ctx, Bob))
	require.NoError(t, repo.AddStudent(ctx, Ana))
	require.NoError(t, repo.AddStudent(ctx, Cleo))
	require.NoError(t, repo.AddDiscipline(ctx, Eng))
	require.NoError(t, repo.AddDiscipline(ctx, Math))
	require.NoError(t, repo.GradeStudent(ctx, record.Grade{StudentID: 2, DisciplineID: 2, Value: 8}))
	require.NoError(t, repo.GradeStudent(ctx, record.Grade{StudentID: 1, DisciplineID: 1, Value: 3}))

	state := Snapshot(t, repo)
	assert.Equal(t, []record.Student{Bob, Ana, Cleo}, state.Students)
	assert.Equal(t, []record.Discipline{Eng, Math}, state.Disciplines)
	assert.Equal(t, []record.Grade{
		{StudentID: 2, DisciplineID: 2, Value: 8},
		{StudentID: 1, DisciplineID: 1, Value: 3},
	}, state.Grades)
}

func testRemoveStudentExactMatch(t *testing.T, factory Factory) {
	ctx := context.Background()
	repo, _ := open(t, factory)
	require.NoError(t, repo.AddStudent(ctx, Ana))

	err := repo.RemoveStudent(ctx, record.Student{ID: Ana.ID, Name: "Not Ana"})
	assert.ErrorIs(t, err, shared.ErrRecordNotFound)
	assert.Equal(t, []record.Student{Ana}, Snapshot(t, repo).Students)

	err = repo.RemoveStudent(ctx, Bob)
	assert.ErrorIs(t, err, shared.ErrRecordNotFound)

	require.NoError(t, repo.RemoveStudent(ctx, Ana))
	assert.Empty(t, Snapshot(t, repo).Students)
}

func testRemoveStudentCascades(t *testing.T, factory Factory) {
	ctx := context.Background()
	repo, reopen := open(t, factory)

	require.NoError(t, repo.AddStudent(ctx, Ana))
	require.NoError(t, repo.AddStudent(ctx, Bob))
	require.NoError(t, repo.GradeStudent(ctx, record.Grade{StudentID: 1, DisciplineID: 1, Value: 4}))
	require.NoError(t, repo.GradeStudent(ctx, record.Grade{StudentID: 2, DisciplineID: 1, Value: 9}))
	require.NoError(t, repo.GradeStudent(ctx, record.Grade{StudentID: 1, DisciplineID: 2, Value: 6}))

	require.NoError(t, repo.RemoveStudent(ctx, Ana))

	want := State{
		Students:    []record.Student{Bob},
		Disciplines: []record.Discipline{},
		Grades:      []record.Grade{{StudentID: 2, DisciplineID: 1, Value: 9}},
	}
	assert.Equal(t, want, Snapshot(t, repo))
	assert.Equal(t, want, Snapshot(t, reopen()))
}

func testRemoveDisciplineKeepsGrades(t *testing.T, factory Factory) {
	ctx := context.Background()
	repo, reopen := open(t, factory)

	require.NoError(t, repo.AddDiscipline(ctx, Math))
	require.NoError(t, repo.AddDiscipline(ctx, Eng))
	require.NoError(t, repo.GradeStudent(ctx, record.Grade{StudentID: 1, DisciplineID: 1, Value: 10}))

	assert.ErrorIs(t, repo.RemoveDiscipline(ctx, record.Discipline{ID: 1, Name: "Maths"}), shared.ErrRecordNotFound)
	require.NoError(t, repo.RemoveDiscipline(ctx, Math))

	want := State{
		Students:    []record.Student{},
		Disciplines: []record.Discipline{Eng},
		Grades:      []record.Grade{{StudentID: 1, DisciplineID: 1, Value: 10}},
	}
	assert.Equal(t, want, Snapshot(t, repo))
	assert.Equal(t, want, Snapshot(t, reopen()))
}

func testUpdateInPlace(t *testing.T, factory Factory) {
	ctx := context.Background()
	repo, reopen := open(t, factory)

	require.NoError(t, repo.AddStudent(ctx, Ana))
	require.NoError(t, repo.AddStudent(ctx, Bob))
	require.NoError(t, repo.AddDiscipline(ctx, Math))

	require.NoError(t, repo.UpdateStudent(ctx, record.Student{ID: 1, Name: "Alexia Goia"}))
	require.NoError(t, repo.UpdateStudent(ctx, record.Student{ID: 42, Name: "Nobody"}))
	require.NoError(t, repo.UpdateDiscipline(ctx, record.Discipline{ID: 1, Name: "Algebra"}))
	require.NoError(t, repo.UpdateDiscipline(ctx, record.Discipline{ID: 42, Name: "Nothing"}))

	want := State{
		Students:    []record.Student{{ID: 1, Name: "Alexia Goia"}, Bob},
		Disciplines: []record.Discipline{{ID: 1, Name: "Algebra"}},
		Grades:      []record.Grade{},
	}
	assert.Equal(t, want, Snapshot(t, repo))
	assert.Equal(t, want, Snapshot(t, reopen()))
}

func testGetStudent(t *testing.T, factory Factory) {
	ctx := context.Background()
	repo, _ := open(t, factory)
	require.NoError(t, repo.AddStudent(ctx, Ana))
	require.NoError(t, repo.AddStudent(ctx, Bob))

	got, ok, err := repo.GetStudent(ctx, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Bob, got)

	_, ok, err = repo.GetStudent(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)
}

func testInsertAtIndex(t *testing.T, factory Factory) {
	ctx := context.Background()
	repo, reopen := open(t, factory)

	require.NoError(t, repo.AddStudent(ctx, Ana))
	require.NoError(t, repo.AddStudent(ctx, Cleo))
	require.NoError(t, repo.InsertStudent(ctx, 1, Bob))
	require.NoError(t, repo.InsertDiscipline(ctx, 0, Eng))
	require.NoError(t, repo.InsertDiscipline(ctx, 0, Math))
	require.NoError(t, repo.InsertDiscipline(ctx, 99, Frnch))
	require.NoError(t, repo.GradeStudent(ctx, record.Grade{StudentID: 1, DisciplineID: 1, Value: 5}))
	require.NoError(t, repo.InsertGrade(ctx, 0, record.Grade{StudentID: 2, DisciplineID: 1, Value: 6}))
	require.NoError(t, repo.InsertGrade(ctx, -1, record.Grade{StudentID: 3, DisciplineID: 1, Value: 7}))
	require.NoError(t, repo.InsertGrade(ctx, 3, record.Grade{StudentID: 3, DisciplineID: 2, Value: 8}))

	want := State{
		Students:    []record.Student{Ana, Bob, Cleo},
		Disciplines: []record.Discipline{Math, Eng, Frnch},
		Grades: []record.Grade{
			{StudentID: 3, DisciplineID: 1, Value: 7},
			{StudentID: 2, DisciplineID: 1, Value: 6},
			{StudentID: 1, DisciplineID: 1, Value: 5},
			{StudentID: 3, DisciplineID: 2, Value: 8},
		},
	}
	assert.Equal(t, want, Snapshot(t, repo))
	assert.Equal(t, want, Snapshot(t, reopen()))
}

func testRemoveGrade(t *testing.T, factory Factory) {
	ctx := context.Background()
	repo, reopen := open(t, factory)

	ten := record.Grade{StudentID: 1, DisciplineID: 1, Value: 10}
	nine := record.Grade{StudentID: 1, DisciplineID: 1, Value: 9}
	require.NoError(t, repo.GradeStudent(ctx, ten))
	require.NoError(t, repo.GradeStudent(ctx, nine))
	require.NoError(t, repo.GradeStudent(ctx, ten))

	require.NoError(t, repo.RemoveGrade(ctx, ten))
	assert.ErrorIs(t, repo.RemoveGrade(ctx, record.Grade{StudentID: 1, DisciplineID: 1, Value: 1}), shared.ErrRecordNotFound)

	assert.Equal(t, []record.Grade{nine, ten}, Snapshot(t, repo).Grades)
	assert.Equal(t, []record.Grade{nine, ten}, Snapshot(t, reopen()).Grades)
}

func testDuplicateKeysAccepted(t *testing.T, factory Factory) {
	ctx := context.Background()
	repo, _ := open(t, factory)

	require.NoError(t, repo.AddStudent(ctx, Ana))
	require.NoError(t, repo.AddStudent(ctx, record.Student{ID: Ana.ID, Name: "Twin"}))

	assert.Len(t, Snapshot(t, repo).Students, 2)
	got, ok, err := repo.GetStudent(ctx, Ana.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Ana, got)
}

// ReplayScript applies a fixed mixed sequence of operations.
func ReplayScript(t *testing.T, repo record.Repository) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, repo.AddStudent(ctx, Ana))
	require.NoError(t, repo.AddStudent(ctx, Bob))
	require.NoError(t, repo.AddStudent(ctx, Cleo))
	require.NoError(t, repo.AddDiscipline(ctx, Math))
	require.NoError(t, repo.AddDiscipline(ctx, Eng))
	require.NoError(t, repo.AddDiscipline(ctx, Frnch))
	require.NoError(t, repo.GradeStudent(ctx, record.Grade{StudentID: 1, DisciplineID: 1, Value: 7}))
	require.NoError(t, repo.GradeStudent(ctx, record.Grade{StudentID: 2, DisciplineID: 2, Value: 4}))
	require.NoError(t, repo.GradeStudent(ctx, record.Grade{StudentID: 3, DisciplineID: 3, Value: 9}))
	require.NoError(t, repo.GradeStudent(ctx, record.Grade{StudentID: 2, DisciplineID: 1, Value: 6}))
	require.NoError(t, repo.UpdateStudent(ctx, record.Student{ID: 3, Name: "Andra Balea"}))
	require.NoError(t, repo.RemoveStudent(ctx, Bob))
	require.NoError(t, repo.RemoveDiscipline(ctx, Eng))
	require.NoError(t, repo.UpdateDiscipline(ctx, record.Discipline{ID: 3, Name: "German"}))
	require.NoError(t, repo.RemoveGrade(ctx, record.Grade{StudentID: 1, DisciplineID: 1, Value: 7}))
	require.NoError(t, repo.GradeStudent(ctx, record.Grade{StudentID: 1, DisciplineID: 3, Value: 2}))
}

// ReplayScriptResult is the state every backend must expose after ReplayScript.
var ReplayScriptResult = State{
	Students:    []record.Student{Ana, {ID: 3, Name: "Andra Balea"}},
	Disciplines: []record.Discipline{Math, {ID: 3, Name: "German"}},
	Grades: []record.Grade{
		{StudentID: 3, DisciplineID: 3, Value: 9},
		{StudentID: 1, DisciplineID: 3, Value: 2},
	},
}

func testReplayAndReload(t *testing.T, factory Factory) {
	repo, reopen := open(t, factory)
	ReplayScript(t, repo)

	assert.Equal(t, ReplayScriptResult, Snapshot(t, repo))
	assert.Equal(t, ReplayScriptResult, Snapshot(t, reopen()))
}
