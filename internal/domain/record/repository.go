package record

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Контракт хранилища. Реализации находятся в infrastructure/persistence.
// Все реализации обязаны давать одинаковые результаты list-запросов
// для одинаковой последовательности операций.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции хранилища для студентов, дисциплин и оценок.
type Repository interface {
	// ─────────────────────────────────────────────────────────────────────────
	// Students
	// ─────────────────────────────────────────────────────────────────────────

	// AddStudent добавляет студента в конец коллекции.
	// Дубликаты ключей не проверяются.
	AddStudent(ctx context.Context, s Student) error

	// InsertStudent вставляет студента на позицию index.
	// index ограничивается диапазоном [0, len].
	InsertStudent(ctx context.Context, index int, s Student) error

	// RemoveStudent удаляет первую запись, равную s (ID и имя),
	// и все оценки этого студента.
	// Возвращает shared.ErrRecordNotFound, если такой записи нет.
	RemoveStudent(ctx context.Context, s Student) error

	// UpdateStudent заменяет первую запись с тем же ID, позиция сохраняется.
	// Если записи нет, коллекция не меняется и ошибки нет.
	UpdateStudent(ctx context.Context, s Student) error

	// ListStudents возвращает копию коллекции в порядке вставки.
	ListStudents(ctx context.Context) ([]Student, error)

	// GetStudent возвращает студента по ID; ok=false, если не найден.
	GetStudent(ctx context.Context, id int) (s Student, ok bool, err error)

	// ─────────────────────────────────────────────────────────────────────────
	// Disciplines
	// ─────────────────────────────────────────────────────────────────────────

	// AddDiscipline добавляет дисциплину в конец коллекции.
	AddDiscipline(ctx context.Context, d Discipline) error

	// InsertDiscipline вставляет дисциплину на позицию index.
	InsertDiscipline(ctx context.Context, index int, d Discipline) error

	// RemoveDiscipline удаляет первую запись, равную d. Оценки не удаляются.
	// Возвращает shared.ErrRecordNotFound, если такой записи нет.
	RemoveDiscipline(ctx context.Context, d Discipline) error

	// UpdateDiscipline заменяет первую запись с тем же ID.
	UpdateDiscipline(ctx context.Context, d Discipline) error

	// ListDisciplines возвращает копию коллекции в порядке вставки.
	ListDisciplines(ctx context.Context) ([]Discipline, error)

	// ─────────────────────────────────────────────────────────────────────────
	// Grades
	// ─────────────────────────────────────────────────────────────────────────

	// GradeStudent добавляет оценку в конец коллекции.
	GradeStudent(ctx context.Context, g Grade) error

	// InsertGrade вставляет оценку на позицию index.
	InsertGrade(ctx context.Context, index int, g Grade) error

	// RemoveGrade удаляет первую оценку, совпадающую по всем полям.
	// Возвращает shared.ErrRecordNotFound, если такой оценки нет.
	RemoveGrade(ctx context.Context, g Grade) error

	// ListGrades возвращает копию коллекции в порядке вставки.
	ListGrades(ctx context.Context) ([]Grade, error)

	// ─────────────────────────────────────────────────────────────────────────
	// Lifecycle
	// ─────────────────────────────────────────────────────────────────────────

	// Close освобождает файлы и соединения.
	Close() error
}

// ClampIndex ограничивает позицию вставки диапазоном [0, n].
func ClampIndex(index, n int) int {
	if index < 0 {
		return 0
	}
	if index > n {
		return n
	}
	return index
}
