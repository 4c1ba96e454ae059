// Package snapshot is the binary backend: each collection is stored as one
// CBOR envelope holding the whole ordered collection and a BLAKE2b checksum.
// Every change rewrites the affected envelope in full.
package snapshot

import (
	"bytes"
	"fmt"

	"github.com/alem-hub/student-records/internal/domain/record"
	"github.com/alem-hub/student-records/internal/domain/shared"
	"github.com/alem-hub/student-records/internal/infrastructure/persistence/collection"
	"github.com/alem-hub/student-records/pkg/logger"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"
)

// formatVersion is written into every envelope.
const formatVersion = 1

// envelope is the on-disk layout of one collection file.
type envelope struct {
	Version int             `cbor:"1,keyasint"`
	Kind    collection.Kind `cbor:"2,keyasint"`
	Records cbor.RawMessage `cbor:"3,keyasint"`
	Sum     []byte          `cbor:"4,keyasint"`
}

// Options configures the snapshot backend.
type Options struct {
	Paths        collection.Paths
	AtomicWrites bool
	Logger       *logger.Logger
}

// Repository is the snapshot record.Repository.
type Repository struct {
	*collection.Store
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	// Core deterministic encoding keeps identical collections byte-identical.
	if encMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(err)
	}
	if decMode, err = (cbor.DecOptions{}).DecMode(); err != nil {
		panic(err)
	}
}

// Open loads the three snapshot files. Missing or empty files load as empty
// collections.
func Open(opts Options) (*Repository, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(logger.Backend("snapshot"))

	var set collection.Set
	var err error

	if set.Students, err = load[record.Student](opts.Paths.Students, collection.KindStudents); err != nil {
		return nil, err
	}
	if set.Disciplines, err = load[record.Discipline](opts.Paths.Disciplines, collection.KindDisciplines); err != nil {
		return nil, err
	}
	if set.Grades, err = load[record.Grade](opts.Paths.Grades, collection.KindGrades); err != nil {
		return nil, err
	}

	log.Debug("snapshots loaded",
		logger.Count(len(set.Students)+len(set.Disciplines)+len(set.Grades)),
		logger.Int("students", len(set.Students)),
		logger.Int("disciplines", len(set.Disciplines)),
		logger.Int("grades", len(set.Grades)),
		logger.Bool("atomic_writes", opts.AtomicWrites),
	)

	p := &persister{paths: opts.Paths, atomic: opts.AtomicWrites, log: log}
	return &Repository{Store: collection.NewStore(set, p)}, nil
}

// Encode serializes one ordered collection into an envelope.
func Encode[T any](kind collection.Kind, records []T) ([]byte, error) {
	if records == nil {
		records = []T{}
	}
	payload, err := encMode.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("snapshot: encode %s: %w", kind, err)
	}
	sum := blake2b.Sum256(payload)
	return encMode.Marshal(envelope{
		Version: formatVersion,
		Kind:    kind,
		Records: payload,
		Sum:     sum[:],
	})
}

// Decode is the inverse of Encode. Empty input decodes as an empty collection.
func Decode[T any](kind collection.Kind, data []byte) ([]T, error) {
	out := make([]T, 0)
	if len(data) == 0 {
		return out, nil
	}

	var env envelope
	if err := decMode.Unmarshal(data, &env); err != nil {
		return nil, shared.WrapError("storage", "Load", shared.ErrInvalidFormat, string(kind), err)
	}
	if env.Kind != kind {
		return nil, shared.WrapError("storage", "Load", shared.ErrInvalidFormat,
			fmt.Sprintf("expected %s snapshot", kind),
			fmt.Errorf("%w: found %q", shared.ErrCorruptSnapshot, env.Kind))
	}
	sum := blake2b.Sum256(env.Records)
	if !bytes.Equal(sum[:], env.Sum) {
		return nil, shared.WrapError("storage", "Load", shared.ErrInvalidFormat,
			fmt.Sprintf("%s checksum mismatch", kind), shared.ErrCorruptSnapshot)
	}
	if err := decMode.Unmarshal(env.Records, &out); err != nil {
		return nil, shared.WrapError("storage", "Load", shared.ErrInvalidFormat, string(kind), err)
	}
	return out, nil
}

func load[T any](path string, kind collection.Kind) ([]T, error) {
	data, err := collection.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s: %w", path, err)
	}
	out, err := Decode[T](kind, data)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %s: %w", path, err)
	}
	return out, nil
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
	var (
		data []byte
		err  error
	)
	switch kind {
	case collection.KindStudents:
		data, err = Encode(kind, set.Students)
	case collection.KindDisciplines:
		data, err = Encode(kind, set.Disciplines)
	default:
		data, err = Encode(kind, set.Grades)
	}
	if err != nil {
		return err
	}

	path := p.paths.For(kind)
	if err := collection.WriteFile(path, data, p.atomic); err != nil {
		return fmt.Errorf("snapshot: write %s: %w", path, err)
	}
	p.log.Debug("snapshot rewritten", logger.Path(path), logger.Int("bytes", len(data)))
	return nil
}

func (p *persister) Close() error { return nil }
