package records

import (
	"context"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_IDsFollowCurrentMaximum(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	_, err := svc.AddStudent(ctx, 7, "Existing")
	require.NoError(t, err)

	gen := NewGenerator(svc, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, gen.GenerateStudents(ctx, 3))
	require.NoError(t, gen.GenerateDisciplines(ctx, 2))

	students, err := svc.ListStudents(ctx)
	require.NoError(t, err)
	ids := make([]int, len(students))
	for i, st := range students {
		ids[i] = st.ID
	}
	assert.Equal(t, []int{7, 8, 9, 10}, ids)

	disciplines, err := svc.ListDisciplines(ctx)
	require.NoError(t, err)
	require.Len(t, disciplines, 2)
	assert.Equal(t, 1, disciplines[0].ID)
	assert.True(t, slices.Contains(disciplineNames, disciplines[1].Name))
}

func TestGenerator_GradesInRange(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	gen := NewGenerator(svc, rand.New(rand.NewPCG(3, 4)))

	require.NoError(t, gen.GenerateGrades(ctx, 5))
	grades, err := svc.ListGrades(ctx)
	require.NoError(t, err)
	assert.Empty(t, grades, "no students or disciplines to grade")

	require.NoError(t, gen.GenerateStudents(ctx, 4))
	require.NoError(t, gen.GenerateDisciplines(ctx, 4))
	require.NoError(t, gen.GenerateGrades(ctx, 50))

	grades, err = svc.ListGrades(ctx)
	require.NoError(t, err)
	require.Len(t, grades, 50)
	for _, g := range grades {
		assert.GreaterOrEqual(t, g.Value, 1)
		assert.LessOrEqual(t, g.Value, 10)
		assert.LessOrEqual(t, g.StudentID, 4)
		assert.LessOrEqual(t, g.DisciplineID, 4)
	}
}

func TestGenerator_Deterministic(t *testing.T) {
	ctx := context.Background()
	run := func() []string {
		svc, _ := newTestService(t)
		gen := NewGenerator(svc, rand.New(rand.NewPCG(42, 42)))
		require.NoError(t, gen.GenerateStudents(ctx, 5))
		students, err := svc.ListStudents(ctx)
		require.NoError(t, err)
		names := make([]string, len(students))
		for i, st := range students {
			names[i] = st.Name
		}
		return names
	}
	assert.Equal(t, run(), run())
}

func TestGenerator_SeedFillsEmptyAndClearsHistory(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	gen := NewGenerator(svc, rand.New(rand.NewPCG(5, 6)))

	require.NoError(t, gen.Seed(ctx, SeedCounts{Students: 20, Disciplines: 20, Grades: 20}))

	students, err := svc.ListStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, students, 20)
	grades, err := svc.ListGrades(ctx)
	require.NoError(t, err)
	assert.Len(t, grades, 20)
	assert.False(t, svc.History().CanUndo())

	// A second seed leaves populated collections alone.
	require.NoError(t, gen.Seed(ctx, SeedCounts{Students: 20, Disciplines: 20, Grades: 20}))
	students, err = svc.ListStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, students, 20)
}
