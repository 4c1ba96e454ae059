package records

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/alem-hub/student-records/internal/domain/record"
	"github.com/alem-hub/student-records/internal/domain/shared"
)

// passMark is the lowest passing mean grade.
const passMark = 5.0

// ══════════════════════════════════════════════════════════════════════════════
// LISTS
// ══════════════════════════════════════════════════════════════════════════════

// ListStudents returns every student in insertion order.
func (s *Service) ListStudents(ctx context.Context) ([]record.Student, error) {
	return s.repo.ListStudents(ctx)
}

// ListDisciplines returns every discipline in insertion order.
func (s *Service) ListDisciplines(ctx context.Context) ([]record.Discipline, error) {
	return s.repo.ListDisciplines(ctx)
}

// ListGrades returns every grade in insertion order.
func (s *Service) ListGrades(ctx context.Context) ([]record.Grade, error) {
	return s.repo.ListGrades(ctx)
}

// ══════════════════════════════════════════════════════════════════════════════
// SEARCH
// ══════════════════════════════════════════════════════════════════════════════

func matches(query string, id int, name string) bool {
	return strings.Contains(strconv.Itoa(id), query) ||
		strings.Contains(strings.ToLower(name), query)
}

func normalizeQuery(q string) (string, error) {
	if !utf8.ValidString(q) {
		return "", shared.ErrInvalidSearch
	}
	return strings.ToLower(q), nil
}

// SearchStudents matches q case-insensitively against the ID text or name.
func (s *Service) SearchStudents(ctx context.Context, q string) ([]record.Student, error) {
	q, err := normalizeQuery(q)
	if err != nil {
		return nil, err
	}
	students, err := s.repo.ListStudents(ctx)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(students, func(st record.Student) bool {
		return !matches(q, st.ID, st.Name)
	}), nil
}

// SearchDisciplines matches q case-insensitively against the ID text or name.
func (s *Service) SearchDisciplines(ctx context.Context, q string) ([]record.Discipline, error) {
	q, err := normalizeQuery(q)
	if err != nil {
		return nil, err
	}
	disciplines, err := s.repo.ListDisciplines(ctx)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(disciplines, func(d record.Discipline) bool {
		return !matches(q, d.ID, d.Name)
	}), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REPORTS
// ══════════════════════════════════════════════════════════════════════════════

// StudentsWithGrades resolves every grade to its student and discipline.
// Grades whose student or discipline is missing are skipped.
func (s *Service) StudentsWithGrades(ctx context.Context) ([]record.StudentGrade, error) {
	students, err := s.repo.ListStudents(ctx)
	if err != nil {
		return nil, err
	}
	disciplines, err := s.repo.ListDisciplines(ctx)
	if err != nil {
		return nil, err
	}
	grades, err := s.repo.ListGrades(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]record.StudentGrade, 0, len(grades))
	for _, g := range grades {
		si := slices.IndexFunc(students, func(x record.Student) bool { return x.ID == g.StudentID })
		di := slices.IndexFunc(disciplines, func(x record.Discipline) bool { return x.ID == g.DisciplineID })
		if si < 0 || di < 0 {
			continue
		}
		out = append(out, record.StudentGrade{Student: students[si], Discipline: disciplines[di], Value: g.Value})
	}
	return out, nil
}

// StudentAverages returns the mean grade of every graded student, in
// student insertion order. Grades are unbounded ints, so sums are float64.
func (s *Service) StudentAverages(ctx context.Context) ([]record.StudentAverage, error) {
	students, err := s.repo.ListStudents(ctx)
	if err != nil {
		return nil, err
	}
	grades, err := s.repo.ListGrades(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]record.StudentAverage, 0, len(students))
	for _, st := range students {
		var sum float64
		n := 0
		for _, g := range grades {
			if g.StudentID == st.ID {
				sum += float64(g.Value)
				n++
			}
		}
		if n > 0 {
			out = append(out, record.StudentAverage{Student: st, Average: sum / float64(n), Count: n})
		}
	}
	return out, nil
}

// DisciplineAverages returns the mean grade of every graded discipline, in
// discipline insertion order.
func (s *Service) DisciplineAverages(ctx context.Context) ([]record.DisciplineAverage, error) {
	disciplines, err := s.repo.ListDisciplines(ctx)
	if err != nil {
		return nil, err
	}
	grades, err := s.repo.ListGrades(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]record.DisciplineAverage, 0, len(disciplines))
	for _, d := range disciplines {
		var sum float64
		n := 0
		for _, g := range grades {
			if g.DisciplineID == d.ID {
				sum += float64(g.Value)
				n++
			}
		}
		if n > 0 {
			out = append(out, record.DisciplineAverage{Discipline: d, Average: sum / float64(n), Count: n})
		}
	}
	return out, nil
}

// FailingStudents returns students whose mean grade is below the pass mark,
// in insertion order.
func (s *Service) FailingStudents(ctx context.Context) ([]record.Student, error) {
	averages, err := s.StudentAverages(ctx)
	if err != nil {
		return nil, err
	}
	var out []record.Student
	for _, a := range averages {
		if a.Average < passMark {
			out = append(out, a.Student)
		}
	}
	if len(out) == 0 {
		return nil, shared.ErrStudentListEmpty
	}
	return out, nil
}

// BestStudents returns passing students by descending mean grade. Equal
// means keep insertion order.
func (s *Service) BestStudents(ctx context.Context) ([]record.Student, error) {
	averages, err := s.StudentAverages(ctx)
	if err != nil {
		return nil, err
	}
	averages = slices.DeleteFunc(averages, func(a record.StudentAverage) bool { return a.Average < passMark })
	if len(averages) == 0 {
		return nil, shared.ErrStudentListEmpty
	}
	slices.SortStableFunc(averages, func(a, b record.StudentAverage) int {
		return cmp.Compare(b.Average, a.Average)
	})

	out := make([]record.Student, len(averages))
	for i, a := range averages {
		out[i] = a.Student
	}
	return out, nil
}

// BestDisciplines returns disciplines with a passing mean by descending mean.
func (s *Service) BestDisciplines(ctx context.Context) ([]record.Discipline, error) {
	averages, err := s.DisciplineAverages(ctx)
	if err != nil {
		return nil, err
	}
	averages = slices.DeleteFunc(averages, func(a record.DisciplineAverage) bool { return a.Average < passMark })
	if len(averages) == 0 {
		return nil, shared.ErrDisciplineListEmpty
	}
	slices.SortStableFunc(averages, func(a, b record.DisciplineAverage) int {
		return cmp.Compare(b.Average, a.Average)
	})

	out := make([]record.Discipline, len(averages))
	for i, a := range averages {
		out[i] = a.Discipline
	}
	return out, nil
}
