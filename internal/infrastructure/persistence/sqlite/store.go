// Package sqlite is the single-file SQL backend. It uses the same ordered
// table layout as the PostgreSQL backend.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alem-hub/student-records/internal/domain/record"
	"github.com/alem-hub/student-records/internal/domain/shared"
	"github.com/alem-hub/student-records/pkg/logger"

	_ "modernc.org/sqlite"
)

// table describes one ordered collection table.
type table struct {
	name string
	cols []string
}

var (
	studentsTable    = table{name: "students", cols: []string{"student_id", "name"}}
	disciplinesTable = table{name: "disciplines", cols: []string{"discipline_id", "name"}}
	gradesTable      = table{name: "grades", cols: []string{"student_id", "discipline_id", "value"}}
)

func (t table) columns() string { return strings.Join(t.cols, ", ") }

func (t table) placeholders() string {
	return strings.TrimSuffix(strings.Repeat("?, ", len(t.cols)), ", ")
}

func (t table) matchAll() string {
	conds := make([]string, len(t.cols))
	for i, c := range t.cols {
		conds[i] = c + " = ?"
	}
	return strings.Join(conds, " AND ")
}

// execer is implemented by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements record.Repository on SQLite.
type Store struct {
	db  *sql.DB
	log *logger.Logger
}

var _ record.Repository = (*Store)(nil)

// Open opens or creates the database file and applies embedded migrations.
func Open(ctx context.Context, path string, log *logger.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(logger.Backend("sqlite"))

	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection serializes the read-modify-write transactions.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	log.Debug("sqlite ready", logger.Path(path))
	return &Store{db: db, log: log}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Generic row operations
// ─────────────────────────────────────────────────────────────────────────────

func appendRow(ctx context.Context, q execer, t table, args ...any) error {
	query := fmt.Sprintf(
		"INSERT INTO %s (seq, %s) VALUES ((SELECT COALESCE(MAX(seq), 0) + 1 FROM %s), %s)",
		t.name, t.columns(), t.name, t.placeholders(),
	)
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("append %s: %w", t.name, err)
	}
	return nil
}

func (s *Store) insertRow(ctx context.Context, t table, index int, args ...any) error {
	if index < 0 {
		index = 0
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var seq int64
		err := tx.QueryRowContext(ctx,
			fmt.Sprintf("SELECT seq FROM %s ORDER BY seq LIMIT 1 OFFSET ?", t.name), index,
		).Scan(&seq)
		if errors.Is(err, sql.ErrNoRows) {
			return appendRow(ctx, tx, t, args...)
		}
		if err != nil {
			return fmt.Errorf("locate %s position: %w", t.name, err)
		}

		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("UPDATE %s SET seq = seq + 1 WHERE seq >= ?", t.name), seq,
		); err != nil {
			return fmt.Errorf("shift %s: %w", t.name, err)
		}

		query := fmt.Sprintf("INSERT INTO %s (seq, %s) VALUES (?, %s)", t.name, t.columns(), t.placeholders())
		if _, err := tx.ExecContext(ctx, query, append([]any{seq}, args...)...); err != nil {
			return fmt.Errorf("insert %s: %w", t.name, err)
		}
		return nil
	})
}

func removeFirst(ctx context.Context, q execer, t table, args ...any) error {
	query := fmt.Sprintf(
		"DELETE FROM %s WHERE seq = (SELECT seq FROM %s WHERE %s ORDER BY seq LIMIT 1)",
		t.name, t.name, t.matchAll(),
	)
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("remove %s: %w", t.name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove %s: %w", t.name, err)
	}
	if n == 0 {
		return shared.ErrRecordNotFound
	}
	return nil
}

func (s *Store) updateName(ctx context.Context, t table, id int, name string) error {
	query := fmt.Sprintf(
		"UPDATE %s SET name = ? WHERE seq = (SELECT seq FROM %s WHERE %s = ? ORDER BY seq LIMIT 1)",
		t.name, t.name, t.cols[0],
	)
	if _, err := s.db.ExecContext(ctx, query, name, id); err != nil {
		return fmt.Errorf("update %s: %w", t.name, err)
	}
	return nil
}

func listRows[T any](ctx context.Context, db *sql.DB, t table, scan func(*sql.Rows) (T, error)) ([]T, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s ORDER BY seq", t.columns(), t.name))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.name, err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.name, err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Students
// ─────────────────────────────────────────────────────────────────────────────

// AddStudent appends a student.
func (s *Store) AddStudent(ctx context.Context, st record.Student) error {
	return appendRow(ctx, s.db, studentsTable, st.ID, st.Name)
}

// InsertStudent inserts a student at index.
func (s *Store) InsertStudent(ctx context.Context, index int, st record.Student) error {
	return s.insertRow(ctx, studentsTable, index, st.ID, st.Name)
}

// RemoveStudent removes the exact record and the student's grades in one
// transaction.
func (s *Store) RemoveStudent(ctx context.Context, st record.Student) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := removeFirst(ctx, tx, studentsTable, st.ID, st.Name); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM grades WHERE student_id = ?", st.ID); err != nil {
			return fmt.Errorf("cascade grades: %w", err)
		}
		return nil
	})
}

// UpdateStudent renames the first student with the same ID.
func (s *Store) UpdateStudent(ctx context.Context, st record.Student) error {
	return s.updateName(ctx, studentsTable, st.ID, st.Name)
}

// ListStudents returns students in insertion order.
func (s *Store) ListStudents(ctx context.Context) ([]record.Student, error) {
	return listRows(ctx, s.db, studentsTable, func(rows *sql.Rows) (record.Student, error) {
		var st record.Student
		err := rows.Scan(&st.ID, &st.Name)
		return st, err
	})
}

// GetStudent looks a student up by ID.
func (s *Store) GetStudent(ctx context.Context, id int) (record.Student, bool, error) {
	var st record.Student
	err := s.db.QueryRowContext(ctx,
		"SELECT student_id, name FROM students WHERE student_id = ? ORDER BY seq LIMIT 1", id,
	).Scan(&st.ID, &st.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return record.Student{}, false, nil
	}
	if err != nil {
		return record.Student{}, false, fmt.Errorf("get student: %w", err)
	}
	return st, true, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Disciplines
// ─────────────────────────────────────────────────────────────────────────────

// AddDiscipline appends a discipline.
func (s *Store) AddDiscipline(ctx context.Context, d record.Discipline) error {
	return appendRow(ctx, s.db, disciplinesTable, d.ID, d.Name)
}

// InsertDiscipline inserts a discipline at index.
func (s *Store) InsertDiscipline(ctx context.Context, index int, d record.Discipline) error {
	return s.insertRow(ctx, disciplinesTable, index, d.ID, d.Name)
}

// RemoveDiscipline removes the exact record. Grades are kept.
func (s *Store) RemoveDiscipline(ctx context.Context, d record.Discipline) error {
	return removeFirst(ctx, s.db, disciplinesTable, d.ID, d.Name)
}

// UpdateDiscipline renames the first discipline with the same ID.
func (s *Store) UpdateDiscipline(ctx context.Context, d record.Discipline) error {
	return s.updateName(ctx, disciplinesTable, d.ID, d.Name)
}

// ListDisciplines returns disciplines in insertion order.
func (s *Store) ListDisciplines(ctx context.Context) ([]record.Discipline, error) {
	return listRows(ctx, s.db, disciplinesTable, func(rows *sql.Rows) (record.Discipline, error) {
		var d record.Discipline
		err := rows.Scan(&d.ID, &d.Name)
		return d, err
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Grades
// ─────────────────────────────────────────────────────────────────────────────

// GradeStudent appends a grade.
func (s *Store) GradeStudent(ctx context.Context, g record.Grade) error {
	return appendRow(ctx, s.db, gradesTable, g.StudentID, g.DisciplineID, g.Value)
}

// InsertGrade inserts a grade at index.
func (s *Store) InsertGrade(ctx context.Context, index int, g record.Grade) error {
	return s.insertRow(ctx, gradesTable, index, g.StudentID, g.DisciplineID, g.Value)
}

// RemoveGrade removes the first exact match.
func (s *Store) RemoveGrade(ctx context.Context, g record.Grade) error {
	return removeFirst(ctx, s.db, gradesTable, g.StudentID, g.DisciplineID, g.Value)
}

// ListGrades returns grades in insertion order.
func (s *Store) ListGrades(ctx context.Context) ([]record.Grade, error) {
	return listRows(ctx, s.db, gradesTable, func(rows *sql.Rows) (record.Grade, error) {
		var g record.Grade
		err := rows.Scan(&g.StudentID, &g.DisciplineID, &g.Value)
		return g, err
	})
}
