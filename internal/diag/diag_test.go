package diag

import (
	"strings"
	"testing"
)

func TestWarningSetDefaultsToAllEnabled(t *testing.T) {
	var s WarningSet
	for _, k := range []WarningKind{WarnIntOverflow, WarnFloatOverflow, WarnUnusedResult} {
		if !s.Enabled(k) {
			t.Errorf("zero-value WarningSet has %s disabled, want enabled", k)
		}
	}
}

func TestWarningSetDisableEnableRoundTrip(t *testing.T) {
	var s WarningSet
	s = s.Disable(WarnIntOverflow)
	if s.Enabled(WarnIntOverflow) {
		t.Errorf("WarnIntOverflow still enabled after Disable")
	}
	if !s.Enabled(WarnFloatOverflow) {
		t.Errorf("Disable(WarnIntOverflow) unexpectedly disabled WarnFloatOverflow")
	}
	s = s.Enable(WarnIntOverflow)
	if !s.Enabled(WarnIntOverflow) {
		t.Errorf("WarnIntOverflow still disabled after Enable")
	}
}

func TestCollectorTracksHadError(t *testing.T) {
	c := NewCollector(0)
	if c.HadError() {
		t.Fatalf("fresh Collector reports HadError()")
	}
	c.Warning(WarnIntOverflow, 0, "overflowed")
	if c.HadError() {
		t.Errorf("a warning alone set HadError()")
	}
	c.Error(0, "division by zero")
	if !c.HadError() {
		t.Errorf("Error() did not set HadError()")
	}
	if len(c.Diagnostics()) != 2 {
		t.Fatalf("Diagnostics() has %d entries, want 2", len(c.Diagnostics()))
	}
}

func TestCollectorSuppressesDisabledWarnings(t *testing.T) {
	warnings := WarningSet(0).Disable(WarnUnusedResult)
	c := NewCollector(warnings)
	c.Warning(WarnUnusedResult, 0, "result discarded")
	c.Warning(WarnIntOverflow, 0, "overflowed")
	if len(c.Diagnostics()) != 1 {
		t.Fatalf("Diagnostics() has %d entries, want 1 (the suppressed warning must not appear)", len(c.Diagnostics()))
	}
	if c.Diagnostics()[0].Message != "overflowed" {
		t.Errorf("wrong diagnostic survived suppression: %q", c.Diagnostics()[0].Message)
	}
}

func TestWithNoteAttachesToMostRecentDiagnostic(t *testing.T) {
	c := NewCollector(0)
	c.Error(1, "first error")
	c.Error(2, "second error")
	c.WithNote(3, "came from here")

	diags := c.Diagnostics()
	if len(diags[0].Notes) != 0 {
		t.Errorf("WithNote attached a note to the wrong diagnostic")
	}
	if len(diags[1].Notes) != 1 || diags[1].Notes[0].Message != "came from here" {
		t.Errorf("note not attached to the most recent diagnostic: %+v", diags[1])
	}
}

func TestWithNoteOnEmptyCollectorIsNoop(t *testing.T) {
	c := NewCollector(0)
	c.WithNote(0, "orphan note")
	if len(c.Diagnostics()) != 0 {
		t.Errorf("WithNote on an empty collector created a diagnostic")
	}
}

func TestDiagnosticStringIncludesNotes(t *testing.T) {
	d := Diagnostic{Severity: SeverityError, Message: "bad thing", Notes: []Note{{Message: "context"}}}
	s := d.String()
	if !strings.Contains(s, "error") || !strings.Contains(s, "bad thing") || !strings.Contains(s, "context") {
		t.Errorf("String() = %q, missing expected content", s)
	}
}

func TestFatalViolationPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("FatalViolation did not panic")
		}
	}()
	FatalViolation("invariant broken: %d", 42)
}
