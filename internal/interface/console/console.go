package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alem-hub/student-records/internal/application/records"
	"github.com/alem-hub/student-records/internal/domain/shared"
	"github.com/alem-hub/student-records/pkg/logger"
)

const prompt = "> "

const helpText = `Commands:
  add student <id> <name>          add discipline <id> <name>
  remove student <id>              remove discipline <id>
  update student <id> <name>       update discipline <id> <name>
  list students|disciplines|grades
  search students|disciplines <text>
  grade <student id> <discipline id> <grade>
  report failing|best|best-disciplines|grades
  undo                             redo
  help                             exit`

// Console reads commands from in and writes results to out until exit or EOF.
type Console struct {
	svc    *records.Service
	router *Router
	in     io.Reader
	out    io.Writer
	log    *logger.Logger
}

// New creates a Console with every shell command registered.
func New(svc *records.Service, in io.Reader, out io.Writer, log *logger.Logger) *Console {
	if log == nil {
		log = logger.Nop()
	}
	c := &Console{
		svc:    svc,
		router: NewRouter(log),
		in:     in,
		out:    out,
		log:    log.With(logger.Component("console")),
	}
	c.registerHandlers()
	return c
}

// errExit stops the read loop.
var errExit = errors.New("exit")

// Run processes lines until exit, EOF or ctx cancellation. Command errors are
// printed and the loop continues; storage failures are printed and logged.
func (c *Console) Run(ctx context.Context) error {
	sc := bufio.NewScanner(c.in)
	fmt.Fprint(c.out, prompt)

	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := c.router.Dispatch(ctx, sc.Text(), c.out)
		switch {
		case errors.Is(err, errExit):
			return nil
		case err != nil:
			c.report(err)
		}
		fmt.Fprint(c.out, prompt)
	}
	return sc.Err()
}

// Exec runs a single command line, as the shell would.
func (c *Console) Exec(ctx context.Context, line string) error {
	err := c.router.Dispatch(ctx, line, c.out)
	if errors.Is(err, errExit) {
		return nil
	}
	return err
}

func (c *Console) report(err error) {
	fmt.Fprintln(c.out, describe(err))

	if shared.IsValidation(err) || shared.IsNotFound(err) || shared.IsAlreadyExists(err) ||
		shared.IsEmptyResult(err) || shared.IsHistoryEmpty(err) ||
		errors.Is(err, ErrUnknownCommand) || errors.Is(err, ErrUsage) {
		return
	}
	c.log.Error("command failed", logger.Err(err))
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (c *Console) registerHandlers() {
	c.router.Register(c.handleAdd, "add")
	c.router.Register(c.handleRemove, "remove", "rm")
	c.router.Register(c.handleUpdate, "update")
	c.router.Register(c.handleList, "list", "ls")
	c.router.Register(c.handleSearch, "search")
	c.router.Register(c.handleGrade, "grade")
	c.router.Register(c.handleReport, "report")
	c.router.Register(c.handleUndo, "undo")
	c.router.Register(c.handleRedo, "redo")
	c.router.Register(c.handleHelp, "help", "?")
	c.router.Register(func(context.Context, Request) error { return errExit }, "exit", "quit")
}

// target reads the collection word of commands like "add student".
func target(req Request) string {
	if len(req.Args) == 0 {
		return ""
	}
	return strings.TrimSuffix(strings.ToLower(req.Args[0]), "s")
}

func usage(format string) error {
	return fmt.Errorf("%w: usage: %s", ErrUsage, format)
}

func (c *Console) handleAdd(ctx context.Context, req Request) error {
	if len(req.Args) < 3 {
		return usage("add student|discipline <id> <name>")
	}
	id, err := records.ParseID(req.Args[1])
	if err != nil {
		return err
	}

	switch target(req) {
	case "student":
		st, err := c.svc.AddStudent(ctx, id, req.Rest(2))
		if err != nil {
			return err
		}
		fmt.Fprintln(req.Out, "Added", st)
	case "discipline":
		d, err := c.svc.AddDiscipline(ctx, id, req.Rest(2))
		if err != nil {
			return err
		}
		fmt.Fprintln(req.Out, "Added", d)
	default:
		return usage("add student|discipline <id> <name>")
	}
	return nil
}

func (c *Console) handleRemove(ctx context.Context, req Request) error {
	if len(req.Args) != 2 {
		return usage("remove student|discipline <id>")
	}
	id, err := records.ParseID(req.Args[1])
	if err != nil {
		return err
	}

	switch target(req) {
	case "student":
		st, err := c.svc.RemoveStudent(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintln(req.Out, "Removed", st)
	case "discipline":
		d, err := c.svc.RemoveDiscipline(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintln(req.Out, "Removed", d)
	default:
		return usage("remove student|discipline <id>")
	}
	return nil
}

func (c *Console) handleUpdate(ctx context.Context, req Request) error {
	if len(req.Args) < 3 {
		return usage("update student|discipline <id> <name>")
	}
	id, err := records.ParseID(req.Args[1])
	if err != nil {
		return err
	}

	switch target(req) {
	case "student":
		st, err := c.svc.UpdateStudent(ctx, id, req.Rest(2))
		if err != nil {
			return err
		}
		fmt.Fprintln(req.Out, "Updated", st)
	case "discipline":
		d, err := c.svc.UpdateDiscipline(ctx, id, req.Rest(2))
		if err != nil {
			return err
		}
		fmt.Fprintln(req.Out, "Updated", d)
	default:
		return usage("update student|discipline <id> <name>")
	}
	return nil
}

func (c *Console) handleList(ctx context.Context, req Request) error {
	switch target(req) {
	case "student":
		students, err := c.svc.ListStudents(ctx)
		if err != nil {
			return err
		}
		writeLines(req.Out, students, "No students.")
	case "discipline":
		disciplines, err := c.svc.ListDisciplines(ctx)
		if err != nil {
			return err
		}
		writeLines(req.Out, disciplines, "No disciplines.")
	case "grade":
		grades, err := c.svc.ListGrades(ctx)
		if err != nil {
			return err
		}
		writeLines(req.Out, grades, "No grades.")
	default:
		return usage("list students|disciplines|grades")
	}
	return nil
}

func (c *Console) handleSearch(ctx context.Context, req Request) error {
	if len(req.Args) < 2 {
		return usage("search students|disciplines <text>")
	}

	switch target(req) {
	case "student":
		students, err := c.svc.SearchStudents(ctx, req.Rest(1))
		if err != nil {
			return err
		}
		writeLines(req.Out, students, "No matching students.")
	case "discipline":
		disciplines, err := c.svc.SearchDisciplines(ctx, req.Rest(1))
		if err != nil {
			return err
		}
		writeLines(req.Out, disciplines, "No matching disciplines.")
	default:
		return usage("search students|disciplines <text>")
	}
	return nil
}

func (c *Console) handleGrade(ctx context.Context, req Request) error {
	if len(req.Args) != 3 {
		return usage("grade <student id> <discipline id> <grade>")
	}
	studentID, err := records.ParseID(req.Args[0])
	if err != nil {
		return err
	}
	disciplineID, err := records.ParseID(req.Args[1])
	if err != nil {
		return err
	}
	value, err := records.ParseGradeValue(req.Args[2])
	if err != nil {
		return err
	}

	g, err := c.svc.GradeStudent(ctx, studentID, disciplineID, value)
	if err != nil {
		return err
	}
	fmt.Fprintln(req.Out, "Graded", g)
	return nil
}

func (c *Console) handleReport(ctx context.Context, req Request) error {
	if len(req.Args) != 1 {
		return usage("report failing|best|best-disciplines|grades")
	}

	switch strings.ToLower(req.Args[0]) {
	case "failing":
		students, err := c.svc.FailingStudents(ctx)
		if err != nil {
			return err
		}
		writeLines(req.Out, students, "No students.")
	case "best":
		students, err := c.svc.BestStudents(ctx)
		if err != nil {
			return err
		}
		writeLines(req.Out, students, "No students.")
	case "best-disciplines":
		disciplines, err := c.svc.BestDisciplines(ctx)
		if err != nil {
			return err
		}
		writeLines(req.Out, disciplines, "No disciplines.")
	case "grades":
		grades, err := c.svc.StudentsWithGrades(ctx)
		if err != nil {
			return err
		}
		writeGradeReport(req.Out, grades)
	default:
		return usage("report failing|best|best-disciplines|grades")
	}
	return nil
}

func (c *Console) handleUndo(ctx context.Context, req Request) error {
	op, err := c.svc.Undo(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(req.Out, "Undone:", op.Name)
	return nil
}

func (c *Console) handleRedo(ctx context.Context, req Request) error {
	op, err := c.svc.Redo(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(req.Out, "Redone:", op.Name)
	return nil
}

func (c *Console) handleHelp(_ context.Context, req Request) error {
	fmt.Fprintln(req.Out, helpText)
	return nil
}
