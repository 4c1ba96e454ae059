// Package record содержит доменную модель учёта успеваемости.
//
// Пакет определяет:
//
//   - Сущности: Student, Discipline, Grade
//   - Проекцию StudentGrade (студент, дисциплина, оценка)
//   - Интерфейс хранилища Repository, который реализуется в infrastructure/persistence
//
// # Архитектурные принципы
//
//  1. Нулевые внешние зависимости - только стандартная библиотека Go
//  2. Dependency Inversion - хранилище описано интерфейсом, сервисный слой
//     работает с любой реализацией (memory, text, snapshot, postgres, redis, sqlite)
//  3. Сущности - значения: обновление заменяет запись целиком
//
// # Инварианты
//
// Уникальность ID студентов и дисциплин, а также существование студента и
// дисциплины при выставлении оценки проверяет сервисный слой, а не хранилище.
// Хранилище гарантирует только порядок вставки.
package record
