package records

import (
	"context"
	"fmt"
	"math/rand/v2"
)

var (
	familyNames = []string{"Joldes", "Onet", "Burz", "Goia", "Balea", "Pasca", "Vasiu"}
	givenNames  = []string{"Costin", "Cristian", "Ionut", "Alexia", "Andra", "Rares", "Andrei"}

	disciplineNames = []string{
		"Math", "English", "French", "German", "Spanish", "History", "Geography",
		"Physics", "Chemistry", "Biology", "Computer Science", "Economics",
		"Philosophy", "Psychology", "Sociology", "Physical Education", "Music",
		"Art", "Religion", "Civic Education", "Latin", "Greek", "Romanian",
	}
)

// Generator fills the records with random sample data through the Service,
// so every generated record passes the same validation as console input.
type Generator struct {
	svc *Service
	rnd *rand.Rand
}

// NewGenerator creates a Generator. A nil rnd uses a randomly seeded source.
func NewGenerator(svc *Service, rnd *rand.Rand) *Generator {
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Generator{svc: svc, rnd: rnd}
}

func pick[T any](rnd *rand.Rand, items []T) T {
	return items[rnd.IntN(len(items))]
}

// GenerateStudents adds n students with IDs following the current maximum.
func (g *Generator) GenerateStudents(ctx context.Context, n int) error {
	students, err := g.svc.ListStudents(ctx)
	if err != nil {
		return err
	}
	next := 1
	for _, st := range students {
		next = max(next, st.ID+1)
	}

	for i := range n {
		name := pick(g.rnd, familyNames) + " " + pick(g.rnd, givenNames)
		if _, err := g.svc.AddStudent(ctx, next+i, name); err != nil {
			return fmt.Errorf("generate student %d: %w", next+i, err)
		}
	}
	return nil
}

// GenerateDisciplines adds n disciplines with IDs following the current maximum.
func (g *Generator) GenerateDisciplines(ctx context.Context, n int) error {
	disciplines, err := g.svc.ListDisciplines(ctx)
	if err != nil {
		return err
	}
	next := 1
	for _, d := range disciplines {
		next = max(next, d.ID+1)
	}

	for i := range n {
		if _, err := g.svc.AddDiscipline(ctx, next+i, pick(g.rnd, disciplineNames)); err != nil {
			return fmt.Errorf("generate discipline %d: %w", next+i, err)
		}
	}
	return nil
}

// GenerateGrades adds n grades from 1 to 10 for random existing students and
// disciplines. It does nothing when either collection is empty.
func (g *Generator) GenerateGrades(ctx context.Context, n int) error {
	students, err := g.svc.ListStudents(ctx)
	if err != nil {
		return err
	}
	disciplines, err := g.svc.ListDisciplines(ctx)
	if err != nil {
		return err
	}
	if len(students) == 0 || len(disciplines) == 0 {
		return nil
	}

	for range n {
		st := pick(g.rnd, students)
		d := pick(g.rnd, disciplines)
		if _, err := g.svc.GradeStudent(ctx, st.ID, d.ID, 1+g.rnd.IntN(10)); err != nil {
			return fmt.Errorf("generate grade: %w", err)
		}
	}
	return nil
}

// SeedCounts is how much sample data Seed generates per collection.
type SeedCounts struct {
	Students    int
	Disciplines int
	Grades      int
}

// Seed fills each empty collection and then clears history, so seeded data
// cannot be undone. Grades are generated when no grade resolves to an
// existing student and discipline.
func (g *Generator) Seed(ctx context.Context, counts SeedCounts) error {
	students, err := g.svc.ListStudents(ctx)
	if err != nil {
		return err
	}
	if len(students) == 0 {
		if err := g.GenerateStudents(ctx, counts.Students); err != nil {
			return err
		}
	}

	disciplines, err := g.svc.ListDisciplines(ctx)
	if err != nil {
		return err
	}
	if len(disciplines) == 0 {
		if err := g.GenerateDisciplines(ctx, counts.Disciplines); err != nil {
			return err
		}
	}

	resolved, err := g.svc.StudentsWithGrades(ctx)
	if err != nil {
		return err
	}
	if len(resolved) == 0 {
		if err := g.GenerateGrades(ctx, counts.Grades); err != nil {
			return err
		}
	}

	g.svc.ResetHistory()
	return nil
}
