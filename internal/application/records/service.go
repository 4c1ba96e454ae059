// Package records is the business layer over a record.Repository. Every
// successful mutation registers exactly one undo.Operation whose actions call
// storage directly with the exact values involved.
package records

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/alem-hub/student-records/internal/application/undo"
	"github.com/alem-hub/student-records/internal/domain/record"
	"github.com/alem-hub/student-records/internal/domain/shared"
	"github.com/alem-hub/student-records/pkg/logger"
)

// Operation names registered in the command log.
const (
	OpAddStudent       = "add_student"
	OpRemoveStudent    = "remove_student"
	OpUpdateStudent    = "update_student"
	OpAddDiscipline    = "add_discipline"
	OpRemoveDiscipline = "remove_discipline"
	OpUpdateDiscipline = "update_discipline"
	OpGradeStudent     = "grade_student"
)

// Service validates input, mutates storage and records history.
type Service struct {
	repo    record.Repository
	history *undo.Service
	log     *logger.Logger
}

// NewService creates a Service. A nil history gets a fresh unbounded log.
func NewService(repo record.Repository, history *undo.Service, log *logger.Logger) *Service {
	if history == nil {
		history = undo.NewService()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:    repo,
		history: history,
		log:     log.With(logger.Component("records")),
	}
}

// History exposes the command log.
func (s *Service) History() *undo.Service {
	return s.history
}

func (s *Service) register(op undo.Operation, fields ...logger.Field) {
	s.history.Register(op)
	fields = append(fields, logger.Operation(op.Name), logger.OperationID(op.ID.String()))
	s.log.Debug("operation applied", fields...)
}

// ══════════════════════════════════════════════════════════════════════════════
// INPUT
// ══════════════════════════════════════════════════════════════════════════════

// ParseID parses a console key. Non-integer text is rejected.
func ParseID(raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, shared.WrapError("record", "ParseID", shared.ErrInvalidID,
			fmt.Sprintf("%q is not an integer", raw), err)
	}
	return id, nil
}

// ParseGradeValue parses a console grade value.
func ParseGradeValue(raw string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, shared.WrapError("grade", "Parse", shared.ErrInvalidInput,
			fmt.Sprintf("%q is not an integer", raw), shared.ErrInvalidGrade)
	}
	return v, nil
}

// normalizeName trims name and rejects what the text format cannot store.
func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, ",\r\n") {
		return "", shared.ErrInvalidName
	}
	return name, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENTS
// ══════════════════════════════════════════════════════════════════════════════

// AddStudent adds a student with a new ID.
func (s *Service) AddStudent(ctx context.Context, id int, name string) (record.Student, error) {
	name, err := normalizeName(name)
	if err != nil {
		return record.Student{}, err
	}
	_, exists, err := s.repo.GetStudent(ctx, id)
	if err != nil {
		return record.Student{}, err
	}
	if exists {
		return record.Student{}, shared.ErrStudentAlreadyExists
	}

	st := record.Student{ID: id, Name: name}
	if err := s.repo.AddStudent(ctx, st); err != nil {
		return record.Student{}, err
	}

	s.register(undo.NewOperation(OpAddStudent,
		func(ctx context.Context) error { return s.repo.RemoveStudent(ctx, st) },
		func(ctx context.Context) error { return s.repo.AddStudent(ctx, st) },
	), logger.StudentID(id))
	return st, nil
}

// indexedGrade is a grade together with its position in the grade list.
type indexedGrade struct {
	index int
	grade record.Grade
}

// RemoveStudent removes a student and, through storage, all of their grades.
// Undo puts the student and every dropped grade back at their old positions.
func (s *Service) RemoveStudent(ctx context.Context, id int) (record.Student, error) {
	students, err := s.repo.ListStudents(ctx)
	if err != nil {
		return record.Student{}, err
	}
	at := slices.IndexFunc(students, func(x record.Student) bool { return x.ID == id })
	if at < 0 {
		return record.Student{}, shared.ErrStudentNotFound
	}
	st := students[at]

	grades, err := s.repo.ListGrades(ctx)
	if err != nil {
		return record.Student{}, err
	}
	var dropped []indexedGrade
	for i, g := range grades {
		if g.StudentID == id {
			dropped = append(dropped, indexedGrade{index: i, grade: g})
		}
	}

	if err := s.repo.RemoveStudent(ctx, st); err != nil {
		return record.Student{}, err
	}

	s.register(undo.NewOperation(OpRemoveStudent,
		func(ctx context.Context) error {
			if err := s.repo.InsertStudent(ctx, at, st); err != nil {
				return err
			}
			// Ascending order: each grade lands where it was once the
			// earlier ones are back.
			for _, ig := range dropped {
				if err := s.repo.InsertGrade(ctx, ig.index, ig.grade); err != nil {
					return err
				}
			}
			return nil
		},
		func(ctx context.Context) error { return s.repo.RemoveStudent(ctx, st) },
	), logger.StudentID(id), logger.Int("grades_dropped", len(dropped)))
	return st, nil
}

// UpdateStudent renames an existing student.
func (s *Service) UpdateStudent(ctx context.Context, id int, name string) (record.Student, error) {
	name, err := normalizeName(name)
	if err != nil {
		return record.Student{}, err
	}
	old, ok, err := s.repo.GetStudent(ctx, id)
	if err != nil {
		return record.Student{}, err
	}
	if !ok {
		return record.Student{}, shared.ErrStudentNotFound
	}

	updated := record.Student{ID: id, Name: name}
	if err := s.repo.UpdateStudent(ctx, updated); err != nil {
		return record.Student{}, err
	}

	s.register(undo.NewOperation(OpUpdateStudent,
		func(ctx context.Context) error { return s.repo.UpdateStudent(ctx, old) },
		func(ctx context.Context) error { return s.repo.UpdateStudent(ctx, updated) },
	), logger.StudentID(id))
	return updated, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DISCIPLINES
// ══════════════════════════════════════════════════════════════════════════════

func (s *Service) findDiscipline(ctx context.Context, id int) (record.Discipline, int, error) {
	disciplines, err := s.repo.ListDisciplines(ctx)
	if err != nil {
		return record.Discipline{}, -1, err
	}
	at := slices.IndexFunc(disciplines, func(x record.Discipline) bool { return x.ID == id })
	if at < 0 {
		return record.Discipline{}, -1, nil
	}
	return disciplines[at], at, nil
}

// AddDiscipline adds a discipline with a new ID.
func (s *Service) AddDiscipline(ctx context.Context, id int, name string) (record.Discipline, error) {
	name, err := normalizeName(name)
	if err != nil {
		return record.Discipline{}, err
	}
	_, at, err := s.findDiscipline(ctx, id)
	if err != nil {
		return record.Discipline{}, err
	}
	if at >= 0 {
		return record.Discipline{}, shared.ErrDisciplineAlreadyExists
	}

	d := record.Discipline{ID: id, Name: name}
	if err := s.repo.AddDiscipline(ctx, d); err != nil {
		return record.Discipline{}, err
	}

	s.register(undo.NewOperation(OpAddDiscipline,
		func(ctx context.Context) error { return s.repo.RemoveDiscipline(ctx, d) },
		func(ctx context.Context) error { return s.repo.AddDiscipline(ctx, d) },
	), logger.DisciplineID(id))
	return d, nil
}

// RemoveDiscipline removes a discipline. Its grades stay.
func (s *Service) RemoveDiscipline(ctx context.Context, id int) (record.Discipline, error) {
	d, at, err := s.findDiscipline(ctx, id)
	if err != nil {
		return record.Discipline{}, err
	}
	if at < 0 {
		return record.Discipline{}, shared.ErrDisciplineNotFound
	}

	if err := s.repo.RemoveDiscipline(ctx, d); err != nil {
		return record.Discipline{}, err
	}

	s.register(undo.NewOperation(OpRemoveDiscipline,
		func(ctx context.Context) error { return s.repo.InsertDiscipline(ctx, at, d) },
		func(ctx context.Context) error { return s.repo.RemoveDiscipline(ctx, d) },
	), logger.DisciplineID(id))
	return d, nil
}

// UpdateDiscipline renames an existing discipline.
func (s *Service) UpdateDiscipline(ctx context.Context, id int, name string) (record.Discipline, error) {
	name, err := normalizeName(name)
	if err != nil {
		return record.Discipline{}, err
	}
	old, at, err := s.findDiscipline(ctx, id)
	if err != nil {
		return record.Discipline{}, err
	}
	if at < 0 {
		return record.Discipline{}, shared.ErrDisciplineNotFound
	}

	updated := record.Discipline{ID: id, Name: name}
	if err := s.repo.UpdateDiscipline(ctx, updated); err != nil {
		return record.Discipline{}, err
	}

	s.register(undo.NewOperation(OpUpdateDiscipline,
		func(ctx context.Context) error { return s.repo.UpdateDiscipline(ctx, old) },
		func(ctx context.Context) error { return s.repo.UpdateDiscipline(ctx, updated) },
	), logger.DisciplineID(id))
	return updated, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GRADES
// ══════════════════════════════════════════════════════════════════════════════

// GradeStudent appends a grade for an existing student and discipline.
// Any integer value is accepted.
func (s *Service) GradeStudent(ctx context.Context, studentID, disciplineID, value int) (record.Grade, error) {
	_, ok, err := s.repo.GetStudent(ctx, studentID)
	if err != nil {
		return record.Grade{}, err
	}
	if !ok {
		return record.Grade{}, shared.ErrStudentNotFound
	}
	_, at, err := s.findDiscipline(ctx, disciplineID)
	if err != nil {
		return record.Grade{}, err
	}
	if at < 0 {
		return record.Grade{}, shared.ErrDisciplineNotFound
	}

	g := record.Grade{StudentID: studentID, DisciplineID: disciplineID, Value: value}
	if err := s.repo.GradeStudent(ctx, g); err != nil {
		return record.Grade{}, err
	}

	s.register(undo.NewOperation(OpGradeStudent,
		func(ctx context.Context) error { return s.removeLastGrade(ctx, g) },
		func(ctx context.Context) error { return s.repo.GradeStudent(ctx, g) },
	), logger.StudentID(studentID), logger.DisciplineID(disciplineID), logger.GradeValue(value))
	return g, nil
}

// removeLastGrade removes the last grade equal to g. Storage only removes the
// first match, so earlier equal grades are removed too and put back at their
// positions.
func (s *Service) removeLastGrade(ctx context.Context, g record.Grade) error {
	grades, err := s.repo.ListGrades(ctx)
	if err != nil {
		return err
	}
	var positions []int
	for i, x := range grades {
		if x == g {
			positions = append(positions, i)
		}
	}
	if len(positions) == 0 {
		return s.repo.RemoveGrade(ctx, g)
	}

	for range positions {
		if err := s.repo.RemoveGrade(ctx, g); err != nil {
			return err
		}
	}
	for _, i := range positions[:len(positions)-1] {
		if err := s.repo.InsertGrade(ctx, i, g); err != nil {
			return err
		}
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HISTORY
// ══════════════════════════════════════════════════════════════════════════════

// Undo reverts the most recent operation.
func (s *Service) Undo(ctx context.Context) (undo.Operation, error) {
	op, err := s.history.Undo(ctx)
	if err != nil {
		return op, err
	}
	s.log.Info("operation undone", logger.Operation(op.Name), logger.OperationID(op.ID.String()))
	return op, nil
}

// Redo re-applies the most recently undone operation.
func (s *Service) Redo(ctx context.Context) (undo.Operation, error) {
	op, err := s.history.Redo(ctx)
	if err != nil {
		return op, err
	}
	s.log.Info("operation redone", logger.Operation(op.Name), logger.OperationID(op.ID.String()))
	return op, nil
}

// ResetHistory drops both stacks.
func (s *Service) ResetHistory() {
	s.history.Clear()
	s.log.Debug("history cleared")
}
