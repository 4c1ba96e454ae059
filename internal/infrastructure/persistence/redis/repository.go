package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/alem-hub/student-records/internal/domain/record"
	"github.com/alem-hub/student-records/internal/domain/shared"
	"github.com/alem-hub/student-records/pkg/logger"
	"github.com/alem-hub/student-records/pkg/retry"

	"github.com/redis/go-redis/v9"
)

// watchAttempts bounds optimistic transaction retries.
const watchAttempts = 5

// Repository implements record.Repository on Redis lists.
//
// Append is RPUSH and exact removal is LREM with count 1, both atomic.
// Positional insert, update and the grade cascade read the list and write it
// back inside WATCH/MULTI.
type Repository struct {
	client *redis.Client
	keys   keys
	log    *logger.Logger
}

var _ record.Repository = (*Repository)(nil)

// Open connects to Redis and returns the repository.
func Open(ctx context.Context, cfg Config, log *logger.Logger) (*Repository, error) {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(logger.Backend("redis"))

	client, err := newClient(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	log.Debug("redis ready", logger.String("prefix", cfg.Prefix))
	return &Repository{client: client, keys: newKeys(cfg.Prefix), log: log}, nil
}

// Close closes the client.
func (r *Repository) Close() error {
	return r.client.Close()
}

// Drop deletes the three collection keys.
func (r *Repository) Drop(ctx context.Context) error {
	return r.client.Del(ctx, r.keys.students, r.keys.disciplines, r.keys.grades).Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Encoding
// ─────────────────────────────────────────────────────────────────────────────

func encode(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return string(data), nil
}

func decodeAll[T any](raw []string) ([]T, error) {
	out := make([]T, 0, len(raw))
	for i, item := range raw {
		var v T
		if err := json.Unmarshal([]byte(item), &v); err != nil {
			return nil, fmt.Errorf("%w: element %d: %v", ErrSerialization, i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func readList[T any](ctx context.Context, c redis.Cmdable, key string) ([]T, error) {
	raw, err := c.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: read %s: %w", key, err)
	}
	return decodeAll[T](raw)
}

// ─────────────────────────────────────────────────────────────────────────────
// Generic list operations
// ─────────────────────────────────────────────────────────────────────────────

// watch runs fn as an optimistic transaction over keys, retrying when a
// watched key changes underneath it.
func (r *Repository) watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error {
	err := retry.Do(ctx, func(ctx context.Context) error {
		err := r.client.Watch(ctx, fn, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			return err
		}
		return retry.Permanent(err)
	}, retry.WithMaxAttempts(watchAttempts), retry.WithInitialDelay(5*time.Millisecond))

	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

func (r *Repository) push(ctx context.Context, key string, v any) error {
	enc, err := encode(v)
	if err != nil {
		return err
	}
	if err := r.client.RPush(ctx, key, enc).Err(); err != nil {
		return fmt.Errorf("redis: append %s: %w", key, err)
	}
	return nil
}

func (r *Repository) remove(ctx context.Context, key string, v any) error {
	enc, err := encode(v)
	if err != nil {
		return err
	}
	n, err := r.client.LRem(ctx, key, 1, enc).Result()
	if err != nil {
		return fmt.Errorf("redis: remove from %s: %w", key, err)
	}
	if n == 0 {
		return shared.ErrRecordNotFound
	}
	return nil
}

// rewrite replaces the list at key with items inside the MULTI of tx.
func rewrite(ctx context.Context, tx *redis.Tx, key string, items []string) error {
	_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(items) > 0 {
			pipe.RPush(ctx, key, toArgs(items)...)
		}
		return nil
	})
	return err
}

func (r *Repository) insert(ctx context.Context, key string, index int, v any) error {
	enc, err := encode(v)
	if err != nil {
		return err
	}
	return r.watch(ctx, func(tx *redis.Tx) error {
		items, err := tx.LRange(ctx, key, 0, -1).Result()
		if err != nil {
			return err
		}
		items = slices.Insert(items, record.ClampIndex(index, len(items)), enc)
		return rewrite(ctx, tx, key, items)
	}, key)
}

// updateFirst overwrites the first element matching same with v.
func updateFirst[T any](ctx context.Context, r *Repository, key string, v T, same func(T) bool) error {
	enc, err := encode(v)
	if err != nil {
		return err
	}
	return r.watch(ctx, func(tx *redis.Tx) error {
		items, err := readList[T](ctx, tx, key)
		if err != nil {
			return err
		}
		i := slices.IndexFunc(items, same)
		if i < 0 {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.LSet(ctx, key, int64(i), enc)
			return nil
		})
		return err
	}, key)
}

func toArgs(items []string) []any {
	args := make([]any, len(items))
	for i, s := range items {
		args[i] = s
	}
	return args
}

// ─────────────────────────────────────────────────────────────────────────────
// Students
// ─────────────────────────────────────────────────────────────────────────────

// AddStudent appends a student.
func (r *Repository) AddStudent(ctx context.Context, s record.Student) error {
	return r.push(ctx, r.keys.students, s)
}

// InsertStudent inserts a student at index.
func (r *Repository) InsertStudent(ctx context.Context, index int, s record.Student) error {
	return r.insert(ctx, r.keys.students, index, s)
}

// RemoveStudent removes the exact record and the student's grades atomically.
func (r *Repository) RemoveStudent(ctx context.Context, s record.Student) error {
	enc, err := encode(s)
	if err != nil {
		return err
	}
	return r.watch(ctx, func(tx *redis.Tx) error {
		err := tx.LPos(ctx, r.keys.students, enc, redis.LPosArgs{}).Err()
		if errors.Is(err, redis.Nil) {
			return shared.ErrRecordNotFound
		}
		if err != nil {
			return err
		}

		raw, err := tx.LRange(ctx, r.keys.grades, 0, -1).Result()
		if err != nil {
			return err
		}
		grades, err := decodeAll[record.Grade](raw)
		if err != nil {
			return err
		}
		kept := make([]string, 0, len(raw))
		for i, g := range grades {
			if g.StudentID != s.ID {
				kept = append(kept, raw[i])
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.LRem(ctx, r.keys.students, 1, enc)
			if len(kept) != len(raw) {
				pipe.Del(ctx, r.keys.grades)
				if len(kept) > 0 {
					pipe.RPush(ctx, r.keys.grades, toArgs(kept)...)
				}
			}
			return nil
		})
		if err == nil {
			r.log.Debug("student removed", logger.StudentID(s.ID), logger.Int("grades_dropped", len(raw)-len(kept)))
		}
		return err
	}, r.keys.students, r.keys.grades)
}

// UpdateStudent replaces the first student with the same ID.
func (r *Repository) UpdateStudent(ctx context.Context, s record.Student) error {
	return updateFirst(ctx, r, r.keys.students, s, func(x record.Student) bool { return x.ID == s.ID })
}

// ListStudents returns students in insertion order.
func (r *Repository) ListStudents(ctx context.Context) ([]record.Student, error) {
	return readList[record.Student](ctx, r.client, r.keys.students)
}

// GetStudent looks a student up by ID.
func (r *Repository) GetStudent(ctx context.Context, id int) (record.Student, bool, error) {
	students, err := r.ListStudents(ctx)
	if err != nil {
		return record.Student{}, false, err
	}
	i := slices.IndexFunc(students, func(s record.Student) bool { return s.ID == id })
	if i < 0 {
		return record.Student{}, false, nil
	}
	return students[i], true, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Disciplines
// ─────────────────────────────────────────────────────────────────────────────

// AddDiscipline appends a discipline.
func (r *Repository) AddDiscipline(ctx context.Context, d record.Discipline) error {
	return r.push(ctx, r.keys.disciplines, d)
}

// InsertDiscipline inserts a discipline at index.
func (r *Repository) InsertDiscipline(ctx context.Context, index int, d record.Discipline) error {
	return r.insert(ctx, r.keys.disciplines, index, d)
}

// RemoveDiscipline removes the exact record. Grades are kept.
func (r *Repository) RemoveDiscipline(ctx context.Context, d record.Discipline) error {
	return r.remove(ctx, r.keys.disciplines, d)
}

// UpdateDiscipline replaces the first discipline with the same ID.
func (r *Repository) UpdateDiscipline(ctx context.Context, d record.Discipline) error {
	return updateFirst(ctx, r, r.keys.disciplines, d, func(x record.Discipline) bool { return x.ID == d.ID })
}

// ListDisciplines returns disciplines in insertion order.
func (r *Repository) ListDisciplines(ctx context.Context) ([]record.Discipline, error) {
	return readList[record.Discipline](ctx, r.client, r.keys.disciplines)
}

// ─────────────────────────────────────────────────────────────────────────────
// Grades
// ─────────────────────────────────────────────────────────────────────────────

// GradeStudent appends a grade.
func (r *Repository) GradeStudent(ctx context.Context, g record.Grade) error {
	return r.push(ctx, r.keys.grades, g)
}

// InsertGrade inserts a grade at index.
func (r *Repository) InsertGrade(ctx context.Context, index int, g record.Grade) error {
	return r.insert(ctx, r.keys.grades, index, g)
}

// RemoveGrade removes the first exact match.
func (r *Repository) RemoveGrade(ctx context.Context, g record.Grade) error {
	return r.remove(ctx, r.keys.grades, g)
}

// ListGrades returns grades in insertion order.
func (r *Repository) ListGrades(ctx context.Context) ([]record.Grade, error) {
	return readList[record.Grade](ctx, r.client, r.keys.grades)
}
