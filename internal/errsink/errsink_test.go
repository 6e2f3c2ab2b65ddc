package errsink

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogAndSummary(t *testing.T) {
	s := New(nil)
	s.Log(Syntax, "illegal label", "foo.am", 3)
	s.Log(Symbol, "duplicate symbol definition", "foo.am", 7)

	if !s.HasErrors() || s.Count() != 2 {
		t.Fatalf("unexpected state: hasErrors=%v count=%d", s.HasErrors(), s.Count())
	}

	var buf bytes.Buffer
	s.WriteSummary(&buf)
	out := buf.String()
	if !strings.Contains(out, "1. [Syntax] illegal label (File: foo.am, Line: 3)") {
		t.Fatalf("summary missing first entry: %q", out)
	}
	if !strings.Contains(out, "2. [Symbol] duplicate symbol definition (File: foo.am, Line: 7)") {
		t.Fatalf("summary missing second entry: %q", out)
	}
}

func TestEmptySummaryPrintsNothing(t *testing.T) {
	s := New(nil)
	var buf bytes.Buffer
	s.WriteSummary(&buf)
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestCapacityDrop(t *testing.T) {
	s := New(nil)
	for i := 0; i < maxEntries+10; i++ {
		s.Log(Overflow, "x", "f", -1)
	}
	if s.Count() != maxEntries {
		t.Fatalf("count = %d, want %d", s.Count(), maxEntries)
	}
	if s.dropped != 10 {
		t.Fatalf("dropped = %d, want 10", s.dropped)
	}
}
