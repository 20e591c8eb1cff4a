// Package diagnostics implements the compiler's error-handling design
// (spec.md §7): diagnostic kinds, severities, and the bag that
// accumulates them across a fail-soft lowering pass or aborts a
// fail-fast verify/optimize pass.
//
// Grounded on the teacher's internal/errors/errors.go SentraError
// shape, generalized from a single-error-return model to an
// accumulating bag (lowering reports multiple errors per pass) and
// enriched with github.com/pkg/errors for causal wrapping.
package diagnostics

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind enumerates the diagnostic kinds from §7.
type Kind string

const (
	MalformedAST        Kind = "MalformedAST"
	UndefinedSymbol     Kind = "UndefinedSymbol"
	TypeMismatch        Kind = "TypeMismatch"
	UnboundedCapability Kind = "UnboundedCapability"
	UnterminatedBlock   Kind = "UnterminatedBlock"
	MissingTerminator   Kind = "MissingTerminator"
	ArityMismatch       Kind = "ArityMismatch"
	AllocationFailure   Kind = "AllocationFailure"

	// UnprotectedRecover is a lowering-time warning (§9's resolved open
	// question on recover semantics), not one of §7's Kinds above —
	// those are all error-severity categories, and this never sets the
	// fail-soft error flag.
	UnprotectedRecover Kind = "UnprotectedRecover"
)

// Severity distinguishes user-visible diagnostics from informational
// ones (the "compile-time warning" the recover/persist note in §9
// asks for).
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// SourceLocation is (file_id, line, column, length) per §6.1.
type SourceLocation struct {
	File   string
	Line   int
	Column int
	Length int
}

func (l SourceLocation) String() string {
	if l.File == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Diagnostic is one (severity, source_loc, message) record per §7,
// with an optional Kind for programmatic matching and an optional
// wrapped cause.
type Diagnostic struct {
	Kind     Kind
	Severity Severity
	Loc      SourceLocation
	Message  string
	Cause    error
}

func (d *Diagnostic) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", d.Loc, d.Severity, d.Message)
	if d.Cause != nil {
		return msg + ": " + d.Cause.Error()
	}
	return msg
}

// Bag accumulates diagnostics across a fail-soft pass (§7:
// "diagnostics are appended with source location").
type Bag struct {
	items []*Diagnostic
}

func (b *Bag) Add(kind Kind, sev Severity, loc SourceLocation, format string, args ...interface{}) *Diagnostic {
	d := &Diagnostic{Kind: kind, Severity: sev, Loc: loc, Message: fmt.Sprintf(format, args...)}
	b.items = append(b.items, d)
	return d
}

// Wrap records a diagnostic whose message is built by wrapping an
// underlying error with pkg/errors, preserving its causal chain for
// the CLI's verbose output.
func (b *Bag) Wrap(kind Kind, sev Severity, loc SourceLocation, cause error, context string) *Diagnostic {
	wrapped := pkgerrors.Wrap(cause, context)
	d := &Diagnostic{Kind: kind, Severity: sev, Loc: loc, Message: context, Cause: wrapped}
	b.items = append(b.items, d)
	return d
}

// HasErrors reports whether any accumulated diagnostic is of Error
// severity — "the process exits non-zero iff any diagnostic is of
// error severity" (§7).
func (b *Bag) HasErrors() bool {
	for _, d := range b.items {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

func (b *Bag) Items() []*Diagnostic { return b.items }

func (b *Bag) Len() int { return len(b.items) }
