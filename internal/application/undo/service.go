// Package undo implements the command log that makes every mutating
// records operation reversible.
package undo

import (
	"context"
	"fmt"

	"github.com/alem-hub/student-records/internal/domain/shared"

	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// OPERATION
// ══════════════════════════════════════════════════════════════════════════════

// Action is a storage call bound to the exact values it acts on.
type Action func(ctx context.Context) error

// Operation pairs an undo action with the redo action that repeats it.
type Operation struct {
	// ID correlates log lines for one logged operation.
	ID uuid.UUID

	// Name describes the operation, e.g. "add_student".
	Name string

	undo Action
	redo Action
}

// NewOperation creates an operation with a fresh ID.
func NewOperation(name string, undo, redo Action) Operation {
	return Operation{
		ID:   uuid.New(),
		Name: name,
		undo: undo,
		redo: redo,
	}
}

// Undo runs the undo action.
func (o Operation) Undo(ctx context.Context) error {
	return o.undo(ctx)
}

// Redo runs the redo action.
func (o Operation) Redo(ctx context.Context) error {
	return o.redo(ctx)
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVICE
// ══════════════════════════════════════════════════════════════════════════════

// Service keeps two stacks: operations currently applied (undo) and
// operations undone since the last registration (redo).
type Service struct {
	undo     []Operation
	redo     []Operation
	maxDepth int
}

// Option configures a Service.
type Option func(*Service)

// WithMaxDepth bounds the undo stack; the oldest entry is dropped first.
// Zero means unbounded.
func WithMaxDepth(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxDepth = n
		}
	}
}

// NewService creates an empty command log.
func NewService(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register records an applied operation and invalidates redo history.
func (s *Service) Register(op Operation) {
	s.undo = append(s.undo, op)
	if s.maxDepth > 0 && len(s.undo) > s.maxDepth {
		s.undo = s.undo[len(s.undo)-s.maxDepth:]
	}
	s.redo = nil
}

// Undo reverts the most recent applied operation.
// The operation moves to the redo stack before its action runs; an action
// error is returned as is and the stacks are not rolled back.
func (s *Service) Undo(ctx context.Context) (Operation, error) {
	if len(s.undo) == 0 {
		return Operation{}, shared.ErrNothingToUndo
	}

	op := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, op)

	if err := op.Undo(ctx); err != nil {
		return op, fmt.Errorf("undo %s: %w", op.Name, err)
	}
	return op, nil
}

// Redo re-applies the most recently undone operation.
func (s *Service) Redo(ctx context.Context) (Operation, error) {
	if len(s.redo) == 0 {
		return Operation{}, shared.ErrNothingToRedo
	}

	op := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = append(s.undo, op)

	if err := op.Redo(ctx); err != nil {
		return op, fmt.Errorf("redo %s: %w", op.Name, err)
	}
	return op, nil
}

// Clear drops both stacks without running any action.
func (s *Service) Clear() {
	s.undo = nil
	s.redo = nil
}

// CanUndo reports whether Undo has an operation to revert.
func (s *Service) CanUndo() bool { return len(s.undo) > 0 }

// CanRedo reports whether Redo has an operation to re-apply.
func (s *Service) CanRedo() bool { return len(s.redo) > 0 }

// UndoLen returns the number of applied operations.
func (s *Service) UndoLen() int { return len(s.undo) }

// RedoLen returns the number of undone operations.
func (s *Service) RedoLen() int { return len(s.redo) }

// Peek returns the operation Undo would revert next.
func (s *Service) Peek() (Operation, bool) {
	if len(s.undo) == 0 {
		return Operation{}, false
	}
	return s.undo[len(s.undo)-1], true
}
