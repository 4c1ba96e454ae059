package record

import "fmt"

// ══════════════════════════════════════════════════════════════════════════════
// ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// Student - студент. Ключ - ID.
type Student struct {
	ID   int    `json:"student_id" cbor:"1,keyasint"`
	Name string `json:"name" cbor:"2,keyasint"`
}

// Key возвращает ключ студента.
func (s Student) Key() int {
	return s.ID
}

// String возвращает представление для консоли.
func (s Student) String() string {
	return fmt.Sprintf("Student id: %d, Name: %s", s.ID, s.Name)
}

// Discipline - учебная дисциплина. Ключ - ID.
type Discipline struct {
	ID   int    `json:"discipline_id" cbor:"1,keyasint"`
	Name string `json:"name" cbor:"2,keyasint"`
}

// Key возвращает ключ дисциплины.
func (d Discipline) Key() int {
	return d.ID
}

// String возвращает представление для консоли.
func (d Discipline) String() string {
	return fmt.Sprintf("Discipline id: %d, Name: %s", d.ID, d.Name)
}

// Grade - оценка студента по дисциплине.
// Оценки не уникальны: несколько одинаковых записей допустимы.
// Удаление оценки сравнивает все три поля.
type Grade struct {
	StudentID    int `json:"student_id" cbor:"1,keyasint"`
	DisciplineID int `json:"discipline_id" cbor:"2,keyasint"`
	Value        int `json:"grade" cbor:"3,keyasint"`
}

// String возвращает представление для консоли.
func (g Grade) String() string {
	return fmt.Sprintf("Student id: %d, Discipline id: %d, Grade: %d", g.StudentID, g.DisciplineID, g.Value)
}

// ══════════════════════════════════════════════════════════════════════════════
// PROJECTIONS
// ══════════════════════════════════════════════════════════════════════════════

// StudentGrade - развёрнутая оценка: студент, дисциплина и значение.
type StudentGrade struct {
	Student    Student
	Discipline Discipline
	Value      int
}

// String возвращает представление для консоли.
func (sg StudentGrade) String() string {
	return fmt.Sprintf("Student name: %s, Discipline name: %s, Grade: %d",
		sg.Student.Name, sg.Discipline.Name, sg.Value)
}

// StudentAverage - средний балл студента.
type StudentAverage struct {
	Student Student
	Average float64
	Count   int
}

// DisciplineAverage - средний балл по дисциплине.
type DisciplineAverage struct {
	Discipline Discipline
	Average    float64
	Count      int
}
