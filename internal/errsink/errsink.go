// Package errsink implements the fixed-capacity diagnostic sink:
// categorized, append-only within a run, with a silent drop past
// capacity. It is process-wide — one Sink is shared across every input
// file in a run.
package errsink

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Category tags a diagnostic entry.
type Category string

const (
	Memory     Category = "Memory"
	FileInput  Category = "FileInput"
	FileOutput Category = "FileOutput"
	Syntax     Category = "Syntax"
	Semantic   Category = "Semantic"
	Macro      Category = "Macro"
	Overflow   Category = "Overflow"
	Symbol     Category = "Symbol"
)

// maxEntries is the sink's capacity; entries logged past this are
// dropped silently.
const maxEntries = 100

// Entry is one logged diagnostic.
type Entry struct {
	Category Category
	Message  string
	File     string
	Line     int // -1 if unknown
}

// Sink accumulates diagnostics for the lifetime of a run.
type Sink struct {
	entries []Entry
	dropped int
	log     *logrus.Logger
}

// New creates a Sink that narrates each logged entry through logger at
// Debug level. A nil logger disables narration but not accumulation.
func New(logger *logrus.Logger) *Sink {
	return &Sink{log: logger}
}

// Log records a diagnostic. Past capacity, the entry is dropped silently
// (the drop count is still tracked internally and each drop is narrated;
// the user-facing summary never mentions dropped entries).
func (s *Sink) Log(category Category, message, file string, line int) {
	if len(s.entries) >= maxEntries {
		s.dropped++
		if s.log != nil {
			s.log.WithFields(logrus.Fields{"category": category, "file": file}).
				Debug("error sink at capacity, dropping entry")
		}
		return
	}
	s.entries = append(s.entries, Entry{Category: category, Message: message, File: file, Line: line})
	if s.log != nil {
		s.log.WithFields(logrus.Fields{"category": category, "file": file, "line": line}).
			Debug(message)
	}
}

// Count returns the number of retained entries.
func (s *Sink) Count() int {
	return len(s.entries)
}

// HasErrors reports whether any diagnostics have been logged.
func (s *Sink) HasErrors() bool {
	return len(s.entries) > 0
}

// Entries returns the retained diagnostics in insertion order.
func (s *Sink) Entries() []Entry {
	return s.entries
}

// WriteSummary prints each retained diagnostic, numbered, in insertion
// order. It writes nothing if there are no entries.
func (s *Sink) WriteSummary(w io.Writer) {
	if len(s.entries) == 0 {
		return
	}
	fmt.Fprintln(w, "Error Summary:")
	for i, e := range s.entries {
		if e.Line >= 0 {
			fmt.Fprintf(w, "%d. [%s] %s (File: %s, Line: %d)\n", i+1, e.Category, e.Message, e.File, e.Line)
		} else {
			fmt.Fprintf(w, "%d. [%s] %s (File: %s)\n", i+1, e.Category, e.Message, e.File)
		}
	}
}
