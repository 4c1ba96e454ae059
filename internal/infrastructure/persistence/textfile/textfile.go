// Package textfile is the delimited text backend: one file per collection,
// one comma separated record per line, whole file rewritten on every change.
//
// Field values are not escaped. A name containing a comma or a line break
// cannot round-trip; the service layer rejects such names.
package textfile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alem-hub/student-records/internal/domain/record"
	"github.com/alem-hub/student-records/internal/domain/shared"
	"github.com/alem-hub/student-records/internal/infrastructure/persistence/collection"
	"github.com/alem-hub/student-records/pkg/logger"
)

const delimiter = ","

// Options configures the text backend.
type Options struct {
	Paths        collection.Paths
	AtomicWrites bool
	Logger       *logger.Logger
}

// Repository is the text file record.Repository.
type Repository struct {
	*collection.Store
}

// Open loads the three files and returns a repository that rewrites them.
// Missing files load as empty collections.
func Open(opts Options) (*Repository, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(logger.Backend("text"))

	var set collection.Set
	var err error

	if set.Students, err = load(opts.Paths.Students, parseStudent); err != nil {
		return nil, err
	}
	if set.Disciplines, err = load(opts.Paths.Disciplines, parseDiscipline); err != nil {
		return nil, err
	}
	if set.Grades, err = load(opts.Paths.Grades, parseGrade); err != nil {
		return nil, err
	}

	log.Debug("collections loaded",
		logger.Count(len(set.Students)+len(set.Disciplines)+len(set.Grades)),
		logger.Int("students", len(set.Students)),
		logger.Int("disciplines", len(set.Disciplines)),
		logger.Int("grades", len(set.Grades)),
		logger.Bool("atomic_writes", opts.AtomicWrites),
	)

	p := &persister{paths: opts.Paths, atomic: opts.AtomicWrites, log: log}
	return &Repository{Store: collection.NewStore(set, p)}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PERSISTER
// ══════════════════════════════════════════════════════════════════════════════

type persister struct {
	paths  collection.Paths
	atomic bool
	log    *logger.Logger
}

func (p *persister) Save(kind collection.Kind, set *collection.Set) error {
	var buf bytes.Buffer
	switch kind {
	case collection.KindStudents:
		for _, s := range set.Students {
			fmt.Fprintf(&buf, "%d%s%s\n", s.ID, delimiter, s.Name)
		}
	case collection.KindDisciplines:
		for _, d := range set.Disciplines {
			fmt.Fprintf(&buf, "%d%s%s\n", d.ID, delimiter, d.Name)
		}
	case collection.KindGrades:
		for _, g := range set.Grades {
			fmt.Fprintf(&buf, "%d%s%d%s%d\n", g.StudentID, delimiter, g.DisciplineID, delimiter, g.Value)
		}
	}

	path := p.paths.For(kind)
	if err := collection.WriteFile(path, buf.Bytes(), p.atomic); err != nil {
		return fmt.Errorf("textfile: write %s: %w", path, err)
	}
	p.log.Debug("file rewritten", logger.Path(path), logger.Int("bytes", buf.Len()))
	return nil
}

func (p *persister) Close() error { return nil }

// ══════════════════════════════════════════════════════════════════════════════
// PARSING
// ══════════════════════════════════════════════════════════════════════════════

func load[T any](path string, parse func(line string) (T, error)) ([]T, error) {
	data, err := collection.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("textfile: read %s: %w", path, err)
	}

	// Lines have no length limit: names are unbounded.
	out := make([]T, 0)
	r := bufio.NewReader(bytes.NewReader(data))
	for n := 1; ; n++ {
		raw, readErr := r.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return nil, fmt.Errorf("textfile: read %s: %w", path, readErr)
		}

		line := strings.TrimRight(raw, "\r\n")
		if strings.TrimSpace(line) != "" {
			item, err := parse(line)
			if err != nil {
				return nil, shared.WrapError("storage", "Load", shared.ErrInvalidFormat,
					fmt.Sprintf("%s line %d", path, n), err)
			}
			out = append(out, item)
		}

		if readErr != nil {
			return out, nil
		}
	}
}

func parseStudent(line string) (record.Student, error) {
	id, name, err := parseKeyed(line)
	return record.Student{ID: id, Name: name}, err
}

func parseDiscipline(line string) (record.Discipline, error) {
	id, name, err := parseKeyed(line)
	return record.Discipline{ID: id, Name: name}, err
}

// parseKeyed splits "<id>,<name>" on the first delimiter.
func parseKeyed(line string) (int, string, error) {
	raw, name, ok := strings.Cut(line, delimiter)
	if !ok {
		return 0, "", fmt.Errorf("expected <id>%s<name>", delimiter)
	}
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, "", fmt.Errorf("id: %w", err)
	}
	return id, name, nil
}

func parseGrade(line string) (record.Grade, error) {
	fields := strings.Split(line, delimiter)
	if len(fields) != 3 {
		return record.Grade{}, fmt.Errorf("expected 3 fields, got %d", len(fields))
	}
	var nums [3]int
	for i, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return record.Grade{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		nums[i] = v
	}
	return record.Grade{StudentID: nums[0], DisciplineID: nums[1], Value: nums[2]}, nil
}
