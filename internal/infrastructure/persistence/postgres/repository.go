package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/alem-hub/student-records/internal/domain/record"
	"github.com/alem-hub/student-records/internal/domain/shared"
	"github.com/alem-hub/student-records/pkg/logger"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// TABLES
// ══════════════════════════════════════════════════════════════════════════════

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

func (t table) columns() string {
	return strings.Join(t.cols, ", ")
}

// placeholders returns one "$n" per record column starting at $start.
func (t table) placeholders(start int) string {
	ph := make([]string, len(t.cols))
	for i := range t.cols {
		ph[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(ph, ", ")
}

// matchAll returns "c1 = $1 AND c2 = $2 ..." over every record column.
func (t table) matchAll() string {
	conds := make([]string, len(t.cols))
	for i, c := range t.cols {
		conds[i] = fmt.Sprintf("%s = $%d", c, i+1)
	}
	return strings.Join(conds, " AND ")
}

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// Repository implements record.Repository on PostgreSQL.
type Repository struct {
	conn *Connection
	log  *logger.Logger
}

var _ record.Repository = (*Repository)(nil)

// Open connects, applies migrations and returns the repository.
func Open(ctx context.Context, cfg Config, log *logger.Logger) (*Repository, error) {
	if log == nil {
		log = logger.Nop()
	}

	conn, err := NewConnection(ctx, cfg, log.With(logger.Backend("postgres")))
	if err != nil {
		return nil, err
	}
	if err := NewMigrator(conn).Migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	repo := NewRepository(conn, log)
	repo.log.Debug("postgres ready")
	return repo, nil
}

// NewRepository wraps an already migrated connection.
func NewRepository(conn *Connection, log *logger.Logger) *Repository {
	if log == nil {
		log = logger.Nop()
	}
	return &Repository{conn: conn, log: log.With(logger.Backend("postgres"))}
}

// Close closes the pool.
func (r *Repository) Close() error {
	r.conn.Close()
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Generic row operations
// ─────────────────────────────────────────────────────────────────────────────

func (r *Repository) appendRow(ctx context.Context, q Querier, t table, args ...any) error {
	query := fmt.Sprintf(
		"INSERT INTO %s (seq, %s) VALUES ((SELECT COALESCE(MAX(seq), 0) + 1 FROM %s), %s)",
		t.name, t.columns(), t.name, t.placeholders(1),
	)
	if _, err := q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("postgres: append %s: %w", t.name, err)
	}
	return nil
}

// insertRow places a row at the index-th position, shifting later rows.
// An index past the end appends.
func (r *Repository) insertRow(ctx context.Context, t table, index int, args ...any) error {
	if index < 0 {
		index = 0
	}
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		var seq int64
		err := tx.QueryRow(ctx,
			fmt.Sprintf("SELECT seq FROM %s ORDER BY seq OFFSET $1 LIMIT 1", t.name),
			index,
		).Scan(&seq)
		if IsNoRows(err) {
			return r.appendRow(ctx, tx, t, args...)
		}
		if err != nil {
			return fmt.Errorf("postgres: locate %s position: %w", t.name, err)
		}

		if _, err := tx.Exec(ctx,
			fmt.Sprintf("UPDATE %s SET seq = seq + 1 WHERE seq >= $1", t.name), seq,
		); err != nil {
			return fmt.Errorf("postgres: shift %s: %w", t.name, err)
		}

		query := fmt.Sprintf("INSERT INTO %s (seq, %s) VALUES ($1, %s)", t.name, t.columns(), t.placeholders(2))
		if _, err := tx.Exec(ctx, query, append([]any{seq}, args...)...); err != nil {
			return fmt.Errorf("postgres: insert %s: %w", t.name, err)
		}
		return nil
	})
}

// removeFirst deletes the first row equal to args in every record column.
func (r *Repository) removeFirst(ctx context.Context, q Querier, t table, args ...any) error {
	query := fmt.Sprintf(
		"DELETE FROM %s WHERE seq = (SELECT seq FROM %s WHERE %s ORDER BY seq LIMIT 1)",
		t.name, t.name, t.matchAll(),
	)
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("postgres: remove %s: %w", t.name, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrRecordNotFound
	}
	return nil
}

// updateName renames the first row whose key column matches id.
func (r *Repository) updateName(ctx context.Context, t table, id int, name string) error {
	query := fmt.Sprintf(
		"UPDATE %s SET name = $2 WHERE seq = (SELECT seq FROM %s WHERE %s = $1 ORDER BY seq LIMIT 1)",
		t.name, t.name, t.cols[0],
	)
	if _, err := r.conn.Exec(ctx, query, id, name); err != nil {
		return fmt.Errorf("postgres: update %s: %w", t.name, err)
	}
	return nil
}

func listRows[T any](ctx context.Context, q Querier, t table, scan func(pgx.Rows) (T, error)) ([]T, error) {
	rows, err := q.Query(ctx, fmt.Sprintf("SELECT %s FROM %s ORDER BY seq", t.columns(), t.name))
	if err != nil {
		return nil, fmt.Errorf("postgres: list %s: %w", t.name, err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan %s: %w", t.name, err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Students
// ─────────────────────────────────────────────────────────────────────────────

// AddStudent appends a student.
func (r *Repository) AddStudent(ctx context.Context, s record.Student) error {
	return r.appendRow(ctx, r.conn, studentsTable, s.ID, s.Name)
}

// InsertStudent inserts a student at index.
func (r *Repository) InsertStudent(ctx context.Context, index int, s record.Student) error {
	return r.insertRow(ctx, studentsTable, index, s.ID, s.Name)
}

// RemoveStudent removes the exact record and the student's grades in one
// transaction.
func (r *Repository) RemoveStudent(ctx context.Context, s record.Student) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if err := r.removeFirst(ctx, tx, studentsTable, s.ID, s.Name); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, "DELETE FROM grades WHERE student_id = $1", s.ID)
		if err != nil {
			return fmt.Errorf("postgres: cascade grades: %w", err)
		}
		r.log.Debug("student removed", logger.StudentID(s.ID), logger.Int("grades_dropped", int(tag.RowsAffected())))
		return nil
	})
}

// UpdateStudent renames the first student with the same ID.
func (r *Repository) UpdateStudent(ctx context.Context, s record.Student) error {
	return r.updateName(ctx, studentsTable, s.ID, s.Name)
}

// ListStudents returns students in insertion order.
func (r *Repository) ListStudents(ctx context.Context) ([]record.Student, error) {
	return listRows(ctx, r.conn, studentsTable, func(rows pgx.Rows) (record.Student, error) {
		var s record.Student
		err := rows.Scan(&s.ID, &s.Name)
		return s, err
	})
}

// GetStudent looks a student up by ID.
func (r *Repository) GetStudent(ctx context.Context, id int) (record.Student, bool, error) {
	var s record.Student
	err := r.conn.QueryRow(ctx,
		"SELECT student_id, name FROM students WHERE student_id = $1 ORDER BY seq LIMIT 1", id,
	).Scan(&s.ID, &s.Name)
	if IsNoRows(err) {
		return record.Student{}, false, nil
	}
	if err != nil {
		return record.Student{}, false, fmt.Errorf("postgres: get student: %w", err)
	}
	return s, true, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Disciplines
// ─────────────────────────────────────────────────────────────────────────────

// AddDiscipline appends a discipline.
func (r *Repository) AddDiscipline(ctx context.Context, d record.Discipline) error {
	return r.appendRow(ctx, r.conn, disciplinesTable, d.ID, d.Name)
}

// InsertDiscipline inserts a discipline at index.
func (r *Repository) InsertDiscipline(ctx context.Context, index int, d record.Discipline) error {
	return r.insertRow(ctx, disciplinesTable, index, d.ID, d.Name)
}

// RemoveDiscipline removes the exact record. Grades are kept.
func (r *Repository) RemoveDiscipline(ctx context.Context, d record.Discipline) error {
	return r.removeFirst(ctx, r.conn, disciplinesTable, d.ID, d.Name)
}

// UpdateDiscipline renames the first discipline with the same ID.
func (r *Repository) UpdateDiscipline(ctx context.Context, d record.Discipline) error {
	return r.updateName(ctx, disciplinesTable, d.ID, d.Name)
}

// ListDisciplines returns disciplines in insertion order.
func (r *Repository) ListDisciplines(ctx context.Context) ([]record.Discipline, error) {
	return listRows(ctx, r.conn, disciplinesTable, func(rows pgx.Rows) (record.Discipline, error) {
		var d record.Discipline
		err := rows.Scan(&d.ID, &d.Name)
		return d, err
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Grades
// ─────────────────────────────────────────────────────────────────────────────

// GradeStudent appends a grade.
func (r *Repository) GradeStudent(ctx context.Context, g record.Grade) error {
	return r.appendRow(ctx, r.conn, gradesTable, g.StudentID, g.DisciplineID, g.Value)
}

// InsertGrade inserts a grade at index.
func (r *Repository) InsertGrade(ctx context.Context, index int, g record.Grade) error {
	return r.insertRow(ctx, gradesTable, index, g.StudentID, g.DisciplineID, g.Value)
}

// RemoveGrade removes the first exact match.
func (r *Repository) RemoveGrade(ctx context.Context, g record.Grade) error {
	return r.removeFirst(ctx, r.conn, gradesTable, g.StudentID, g.DisciplineID, g.Value)
}

// ListGrades returns grades in insertion order.
func (r *Repository) ListGrades(ctx context.Context) ([]record.Grade, error) {
	return listRows(ctx, r.conn, gradesTable, func(rows pgx.Rows) (record.Grade, error) {
		var g record.Grade
		err := rows.Scan(&g.StudentID, &g.DisciplineID, &g.Value)
		return g, err
	})
}
