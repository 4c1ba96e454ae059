package collection

import (
	"context"
	"fmt"

	"github.com/alem-hub/student-records/internal/domain/record"
)

// Persister writes one collection of a Set to durable storage.
// It is called after every successful mutation with the kinds that changed.
type Persister interface {
	Save(kind Kind, set *Set) error
	Close() error
}

// Store implements record.Repository over a Set. With a nil Persister it is
// purely in-memory; otherwise every mutation rewrites the affected kinds.
type Store struct {
	set       Set
	persister Persister
}

// NewStore creates a Store over an already loaded Set.
func NewStore(set Set, persister Persister) *Store {
	return &Store{set: set, persister: persister}
}

var _ record.Repository = (*Store)(nil)

func (s *Store) save(kinds ...Kind) error {
	for _, kind := range kinds {
		if err := s.persister.Save(kind, &s.set); err != nil {
			return fmt.Errorf("persist %s: %w", kind, err)
		}
	}
	return nil
}

// apply runs mutate and persists the kinds it reports. When persisting fails
// the Set is restored, so memory never holds state the files do not.
func (s *Store) apply(mutate func(set *Set) ([]Kind, error)) error {
	if s.persister == nil {
		_, err := mutate(&s.set)
		return err
	}

	prev := s.set.Clone()
	kinds, err := mutate(&s.set)
	if err != nil {
		return err
	}
	if err := s.save(kinds...); err != nil {
		s.set = prev
		return err
	}
	return nil
}

func only(kinds ...Kind) ([]Kind, error) { return kinds, nil }

// AddStudent appends a student.
func (s *Store) AddStudent(_ context.Context, st record.Student) error {
	return s.apply(func(set *Set) ([]Kind, error) {
		set.AddStudent(st)
		return only(KindStudents)
	})
}

// InsertStudent inserts a student at index.
func (s *Store) InsertStudent(_ context.Context, index int, st record.Student) error {
	return s.apply(func(set *Set) ([]Kind, error) {
		set.InsertStudent(index, st)
		return only(KindStudents)
	})
}

// RemoveStudent removes the exact record and cascades to grades.
func (s *Store) RemoveStudent(_ context.Context, st record.Student) error {
	return s.apply(func(set *Set) ([]Kind, error) {
		dropped, err := set.RemoveStudent(st)
		if err != nil {
			return nil, err
		}
		if dropped > 0 {
			return only(KindStudents, KindGrades)
		}
		return only(KindStudents)
	})
}

// UpdateStudent replaces the first student with the same ID.
func (s *Store) UpdateStudent(_ context.Context, st record.Student) error {
	return s.apply(func(set *Set) ([]Kind, error) {
		if !set.UpdateStudent(st) {
			return nil, nil
		}
		return only(KindStudents)
	})
}

// ListStudents returns students in insertion order.
func (s *Store) ListStudents(_ context.Context) ([]record.Student, error) {
	return s.set.ListStudents(), nil
}

// GetStudent looks a student up by ID.
func (s *Store) GetStudent(_ context.Context, id int) (record.Student, bool, error) {
	st, ok := s.set.GetStudent(id)
	return st, ok, nil
}

// AddDiscipline appends a discipline.
func (s *Store) AddDiscipline(_ context.Context, d record.Discipline) error {
	return s.apply(func(set *Set) ([]Kind, error) {
		set.AddDiscipline(d)
		return only(KindDisciplines)
	})
}

// InsertDiscipline inserts a discipline at index.
func (s *Store) InsertDiscipline(_ context.Context, index int, d record.Discipline) error {
	return s.apply(func(set *Set) ([]Kind, error) {
		set.InsertDiscipline(index, d)
		return only(KindDisciplines)
	})
}

// RemoveDiscipline removes the exact record.
func (s *Store) RemoveDiscipline(_ context.Context, d record.Discipline) error {
	return s.apply(func(set *Set) ([]Kind, error) {
		if err := set.RemoveDiscipline(d); err != nil {
			return nil, err
		}
		return only(KindDisciplines)
	})
}

// UpdateDiscipline replaces the first discipline with the same ID.
func (s *Store) UpdateDiscipline(_ context.Context, d record.Discipline) error {
	return s.apply(func(set *Set) ([]Kind, error) {
		if !set.UpdateDiscipline(d) {
			return nil, nil
		}
		return only(KindDisciplines)
	})
}

// ListDisciplines returns disciplines in insertion order.
func (s *Store) ListDisciplines(_ context.Context) ([]record.Discipline, error) {
	return s.set.ListDisciplines(), nil
}

// GradeStudent appends a grade.
func (s *Store) GradeStudent(_ context.Context, g record.Grade) error {
	return s.apply(func(set *Set) ([]Kind, error) {
		set.AddGrade(g)
		return only(KindGrades)
	})
}

// InsertGrade inserts a grade at index.
func (s *Store) InsertGrade(_ context.Context, index int, g record.Grade) error {
	return s.apply(func(set *Set) ([]Kind, error) {
		set.InsertGrade(index, g)
		return only(KindGrades)
	})
}

// RemoveGrade removes the first exact match.
func (s *Store) RemoveGrade(_ context.Context, g record.Grade) error {
	return s.apply(func(set *Set) ([]Kind, error) {
		if err := set.RemoveGrade(g); err != nil {
			return nil, err
		}
		return only(KindGrades)
	})
}

// ListGrades returns grades in insertion order.
func (s *Store) ListGrades(_ context.Context) ([]record.Grade, error) {
	return s.set.ListGrades(), nil
}

// Close closes the persister, if any.
func (s *Store) Close() error {
	if s.persister == nil {
		return nil
	}
	return s.persister.Close()
}
