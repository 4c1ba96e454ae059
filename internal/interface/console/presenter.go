package console

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alem-hub/student-records/internal/domain/record"
	"github.com/alem-hub/student-records/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LISTS
// ══════════════════════════════════════════════════════════════════════════════

// writeLines prints one item per line, or empty when there is nothing.
func writeLines[T fmt.Stringer](w io.Writer, items []T, empty string) {
	if len(items) == 0 {
		fmt.Fprintln(w, empty)
		return
	}
	for _, it := range items {
		fmt.Fprintln(w, it.String())
	}
}

// gradeGroup - все оценки студента по одной дисциплине.
type gradeGroup struct {
	student    string
	discipline string
	values     []int
}

// writeGradeReport groups resolved grades by student and discipline name.
// Groups keep the order of their first grade.
func writeGradeReport(w io.Writer, grades []record.StudentGrade) {
	if len(grades) == 0 {
		fmt.Fprintln(w, "No grades.")
		return
	}

	var groups []*gradeGroup
	index := make(map[[2]string]*gradeGroup)
	for _, sg := range grades {
		key := [2]string{sg.Student.Name, sg.Discipline.Name}
		g, ok := index[key]
		if !ok {
			g = &gradeGroup{student: sg.Student.Name, discipline: sg.Discipline.Name}
			index[key] = g
			groups = append(groups, g)
		}
		g.values = append(g.values, sg.Value)
	}

	for _, g := range groups {
		values := make([]string, len(g.values))
		for i, v := range g.values {
			values[i] = strconv.Itoa(v)
		}
		fmt.Fprintf(w, "Student name: %s, Discipline name: %s, grades: %s\n",
			g.student, g.discipline, strings.Join(values, ", "))
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

// describe turns an error into the line shown to the user. Domain errors show
// their message, anything else is reported as is.
func describe(err error) string {
	if errors.Is(err, ErrUsage) || errors.Is(err, ErrUnknownCommand) {
		return err.Error()
	}
	var de *shared.DomainError
	if errors.As(err, &de) && de == err {
		return de.Message
	}
	return "error: " + err.Error()
}
