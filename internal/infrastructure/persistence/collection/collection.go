// Package collection holds the ordered in-memory collections shared by the
// memory, text file and snapshot backends. Every scan has the storage
// contract's semantics, so backends built on it behave identically.
package collection

import (
	"slices"

	"github.com/alem-hub/student-records/internal/domain/record"
	"github.com/alem-hub/student-records/internal/domain/shared"
)

// Kind names one of the three collections.
type Kind string

const (
	KindStudents    Kind = "students"
	KindDisciplines Kind = "disciplines"
	KindGrades      Kind = "grades"
)

// Set is the three ordered collections. The zero value is empty and usable.
type Set struct {
	Students    []record.Student
	Disciplines []record.Discipline
	Grades      []record.Grade
}

// ─────────────────────────────────────────────────────────────────────────────
// Students
// ─────────────────────────────────────────────────────────────────────────────

// AddStudent appends s.
func (c *Set) AddStudent(s record.Student) {
	c.Students = append(c.Students, s)
}

// InsertStudent inserts s at the clamped index.
func (c *Set) InsertStudent(index int, s record.Student) {
	c.Students = slices.Insert(c.Students, record.ClampIndex(index, len(c.Students)), s)
}

// RemoveStudent removes the first record equal to s and every grade of that
// student. It reports how many grades were dropped.
func (c *Set) RemoveStudent(s record.Student) (int, error) {
	i := slices.Index(c.Students, s)
	if i < 0 {
		return 0, shared.ErrRecordNotFound
	}
	c.Students = slices.Delete(c.Students, i, i+1)

	before := len(c.Grades)
	c.Grades = slices.DeleteFunc(c.Grades, func(g record.Grade) bool {
		return g.StudentID == s.ID
	})
	return before - len(c.Grades), nil
}

// UpdateStudent replaces the first record with the same ID in place.
// It reports whether anything changed.
func (c *Set) UpdateStudent(s record.Student) bool {
	i := slices.IndexFunc(c.Students, func(x record.Student) bool { return x.ID == s.ID })
	if i < 0 {
		return false
	}
	c.Students[i] = s
	return true
}

// GetStudent returns the first student with the given ID.
func (c *Set) GetStudent(id int) (record.Student, bool) {
	i := slices.IndexFunc(c.Students, func(x record.Student) bool { return x.ID == id })
	if i < 0 {
		return record.Student{}, false
	}
	return c.Students[i], true
}

// ListStudents returns a copy in insertion order.
func (c *Set) ListStudents() []record.Student {
	return clone(c.Students)
}

// ─────────────────────────────────────────────────────────────────────────────
// Disciplines
// ─────────────────────────────────────────────────────────────────────────────

// AddDiscipline appends d.
func (c *Set) AddDiscipline(d record.Discipline) {
	c.Disciplines = append(c.Disciplines, d)
}

// InsertDiscipline inserts d at the clamped index.
func (c *Set) InsertDiscipline(index int, d record.Discipline) {
	c.Disciplines = slices.Insert(c.Disciplines, record.ClampIndex(index, len(c.Disciplines)), d)
}

// RemoveDiscipline removes the first record equal to d. Grades are kept.
func (c *Set) RemoveDiscipline(d record.Discipline) error {
	i := slices.Index(c.Disciplines, d)
	if i < 0 {
		return shared.ErrRecordNotFound
	}
	c.Disciplines = slices.Delete(c.Disciplines, i, i+1)
	return nil
}

// UpdateDiscipline replaces the first record with the same ID in place.
func (c *Set) UpdateDiscipline(d record.Discipline) bool {
	i := slices.IndexFunc(c.Disciplines, func(x record.Discipline) bool { return x.ID == d.ID })
	if i < 0 {
		return false
	}
	c.Disciplines[i] = d
	return true
}

// ListDisciplines returns a copy in insertion order.
func (c *Set) ListDisciplines() []record.Discipline {
	return clone(c.Disciplines)
}

// ─────────────────────────────────────────────────────────────────────────────
// Grades
// ─────────────────────────────────────────────────────────────────────────────

// AddGrade appends g.
func (c *Set) AddGrade(g record.Grade) {
	c.Grades = append(c.Grades, g)
}

// InsertGrade inserts g at the clamped index.
func (c *Set) InsertGrade(index int, g record.Grade) {
	c.Grades = slices.Insert(c.Grades, record.ClampIndex(index, len(c.Grades)), g)
}

// RemoveGrade removes the first grade equal to g in all three fields.
func (c *Set) RemoveGrade(g record.Grade) error {
	i := slices.Index(c.Grades, g)
	if i < 0 {
		return shared.ErrRecordNotFound
	}
	c.Grades = slices.Delete(c.Grades, i, i+1)
	return nil
}

// ListGrades returns a copy in insertion order.
func (c *Set) ListGrades() []record.Grade {
	return clone(c.Grades)
}

// Clone returns a deep copy of the three collections.
func (c *Set) Clone() Set {
	return Set{
		Students:    clone(c.Students),
		Disciplines: clone(c.Disciplines),
		Grades:      clone(c.Grades),
	}
}

// clone never returns nil so empty lists compare equal across backends.
func clone[T any](src []T) []T {
	out := make([]T, len(src))
	copy(out, src)
	return out
}
