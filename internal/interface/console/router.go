// Package console implements the interactive records shell.
package console

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"unicode"

	"github.com/alem-hub/student-records/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST
// ══════════════════════════════════════════════════════════════════════════════

// Request carries one parsed console line to a handler.
type Request struct {
	// Command is the first word of the line, lower-cased.
	Command string

	// Args are the remaining words.
	Args []string

	// Raw is the line after the command word, as typed.
	Raw string

	// Out receives the handler's output.
	Out io.Writer
}

// Rest returns the raw text from argument i on, trimmed at both ends.
// Names may contain spaces, including repeated ones.
func (r Request) Rest(i int) string {
	if i >= len(r.Args) {
		return ""
	}
	return strings.TrimSpace(skipFields(r.Raw, i))
}

// skipFields drops the first n whitespace separated words of s.
func skipFields(s string, n int) string {
	for ; n > 0; n-- {
		s = strings.TrimLeftFunc(s, unicode.IsSpace)
		end := strings.IndexFunc(s, unicode.IsSpace)
		if end < 0 {
			return ""
		}
		s = s[end:]
	}
	return s
}

// HandlerFunc processes a console command.
type HandlerFunc func(ctx context.Context, req Request) error

// ErrUnknownCommand is returned for commands nobody registered.
var ErrUnknownCommand = errors.New("unknown command, type help for the list")

// ErrUsage is returned when a command is missing arguments.
var ErrUsage = errors.New("wrong arguments")

// ══════════════════════════════════════════════════════════════════════════════
// ROUTER
// ══════════════════════════════════════════════════════════════════════════════

// Router routes console lines to handlers by their first word.
type Router struct {
	handlers map[string]HandlerFunc
	log      *logger.Logger
}

// NewRouter creates an empty router.
func NewRouter(log *logger.Logger) *Router {
	if log == nil {
		log = logger.Nop()
	}
	return &Router{handlers: make(map[string]HandlerFunc), log: log}
}

// Register binds a handler to a command word. Aliases share the handler.
func (r *Router) Register(h HandlerFunc, names ...string) {
	for _, name := range names {
		r.handlers[strings.ToLower(name)] = h
	}
}

// Commands lists the registered command words in order.
func (r *Router) Commands() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch parses line and runs the matching handler. Blank lines are ignored.
func (r *Router) Dispatch(ctx context.Context, line string, out io.Writer) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	raw := skipFields(line, 1)
	req := Request{Command: strings.ToLower(fields[0]), Args: fields[1:], Raw: raw, Out: out}
	h, ok := r.handlers[req.Command]
	if !ok {
		r.log.Debug("no handler for command", logger.String("command", req.Command))
		return ErrUnknownCommand
	}
	return h(ctx, req)
}
