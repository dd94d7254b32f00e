// Package diag implements a diagnostic channel: severity-tagged records
// with source-token spans, a message, and zero or more notes, routed to a
// front-end-provided sink rather than printed directly.
//
// Source locations are represented as an opaque SourceSpan handle (the
// front end owns token tables this subsystem never parses) instead of a
// resolved file/line/col, since diagnostics here originate inside the
// executor and code generator, far from any lexer.
package diag

import (
	"fmt"

	"github.com/pkg/errors"
)

// Severity classifies a diagnostic's importance.
type Severity uint8

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// WarningKind enumerates the individual warning categories the executor and
// code generator can emit, so a front end can selectively silence them via
// WarningSet's is_enabled(warning_kind) query.
type WarningKind uint8

const (
	WarnIntOverflow WarningKind = iota
	WarnFloatOverflow
	WarnUnusedResult
	warningKindCount
)

var warningNames = [warningKindCount]string{
	WarnIntOverflow:   "int-overflow",
	WarnFloatOverflow: "float-overflow",
	WarnUnusedResult:  "unused-result",
}

func (k WarningKind) String() string {
	if int(k) < len(warningNames) {
		return warningNames[k]
	}
	return "unknown-warning"
}

// WarningSet is a compact config bitset answering "is this warning kind
// enabled", the one ambient config surface this subsystem owns. The zero
// value enables every warning.
type WarningSet uint32

// Disable turns off kind in the set and returns the updated set.
func (s WarningSet) Disable(kind WarningKind) WarningSet { return s | (1 << kind) }

// Enable turns kind back on.
func (s WarningSet) Enable(kind WarningKind) WarningSet { return s &^ (1 << kind) }

// Enabled reports whether kind currently fires (bit clear means enabled, so
// the zero value enables everything).
func (s WarningSet) Enabled(kind WarningKind) bool { return s&(1<<kind) == 0 }

// SourceSpan is an opaque front-end source-location handle. This subsystem
// never interprets it; it only threads it from IR instructions through to
// emitted diagnostics for the front end to render.
type SourceSpan int32

// Note is a secondary annotation attached to a Diagnostic, e.g. "value came
// from here".
type Note struct {
	Span    SourceSpan
	Message string
}

// Diagnostic is one emitted record: severity, an optional source span,
// the message, and zero or more notes. Mirrors SentraError's
// type/message/location shape, trimmed to what the executor and code
// generator can actually produce without a resolved file position.
type Diagnostic struct {
	Severity Severity
	Span     SourceSpan
	Message  string
	Notes    []Note
}

func (d *Diagnostic) String() string {
	s := fmt.Sprintf("%s: %s", d.Severity, d.Message)
	for _, n := range d.Notes {
		s += fmt.Sprintf("\n  note: %s", n.Message)
	}
	return s
}

// Sink receives diagnostics as they are produced. A front end implements
// this to route diagnostics into its own reporting pipeline; internal/diag
// never prints on its own.
type Sink interface {
	Emit(d Diagnostic)
}

// Collector is the default Sink: it buffers every diagnostic in emission
// order and tracks whether any error-severity diagnostic was seen, the
// signal the executor and code generator use to decide whether evaluation
// still succeeded.
type Collector struct {
	diagnostics []Diagnostic
	warnings    WarningSet
	hadError    bool
}

// NewCollector creates a Collector honoring the given warning configuration.
func NewCollector(warnings WarningSet) *Collector {
	return &Collector{warnings: warnings}
}

func (c *Collector) Emit(d Diagnostic) {
	c.diagnostics = append(c.diagnostics, d)
	if d.Severity == SeverityError {
		c.hadError = true
	}
}

// Error emits an error-severity diagnostic with no notes.
func (c *Collector) Error(span SourceSpan, message string) {
	c.Emit(Diagnostic{Severity: SeverityError, Span: span, Message: message})
}

// Errorf is Error with fmt.Sprintf-style formatting.
func (c *Collector) Errorf(span SourceSpan, format string, args ...interface{}) {
	c.Error(span, fmt.Sprintf(format, args...))
}

// Warning emits a warning-severity diagnostic, suppressed if kind is
// disabled in this collector's WarningSet.
func (c *Collector) Warning(kind WarningKind, span SourceSpan, message string) {
	if !c.warnings.Enabled(kind) {
		return
	}
	c.Emit(Diagnostic{Severity: SeverityWarning, Span: span, Message: message})
}

// WithNote attaches a note to the most recently emitted diagnostic. Callers
// use this right after Error/Warning to add context without threading notes
// through every emit call.
func (c *Collector) WithNote(span SourceSpan, message string) {
	if len(c.diagnostics) == 0 {
		return
	}
	last := &c.diagnostics[len(c.diagnostics)-1]
	last.Notes = append(last.Notes, Note{Span: span, Message: message})
}

// Diagnostics returns every diagnostic emitted so far, in emission order.
func (c *Collector) Diagnostics() []Diagnostic { return c.diagnostics }

// HadError reports whether any error-severity diagnostic has been emitted.
func (c *Collector) HadError() bool { return c.hadError }

// FatalViolation panics with a stack-trace-wrapped error for invariant
// violations that indicate a bug in the executor or code generator itself
// (a malformed instruction stream, an out-of-range check-info index) rather
// than a problem with the program being evaluated. These never become
// Diagnostics: they are bugs in this subsystem, not in evaluated code.
func FatalViolation(format string, args ...interface{}) {
	panic(errors.Errorf(format, args...))
}

// Wrap stack-traces err for callers that need to propagate an unexpected
// internal error up through a normal Go error return instead of panicking
// (e.g. a malformed check-info table passed in from an untrusted caller of
// internal/codegen).
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}
