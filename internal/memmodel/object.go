package memmodel

import (
	"constexec/internal/diag"
	"constexec/internal/types"
)

// object is one live (or formerly live) allocation: a base address, an
// object type, an optional source location, a lifetime flag, and — for
// arrays — a logical element count.
type object struct {
	id          uint32
	segment     Segment
	typ         *types.Type
	count       uint64 // element count; 1 for a scalar alloca/malloc of a single T
	bytes       []byte
	alive       bool
	hasLifetime bool
	src         diag.SourceSpan
}

func (o *object) byteSize() uint64 { return o.typ.Size() * max64(o.count, 1) }

func max64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

// Fault is a structured error reason: a message plus source location(s) the
// executor turns into a Diagnostic. Memory operations return *Fault instead
// of a plain error so callers can forward span/notes verbatim into
// diag.Collector.
type Fault struct {
	Message string
	Span    diag.SourceSpan
	Notes   []diag.Note
}

func (f *Fault) Error() string { return f.Message }

func fault(span diag.SourceSpan, message string) *Fault {
	return &Fault{Message: message, Span: span}
}
