// Package output implements the three object/index file emitters. Their
// layouts are fixed by the format, so each emitter is a thin, direct
// formatting loop rather than a serialization library.
package output

import (
	"fmt"
	"io"

	"isaasm/internal/symtab"
)

// Word is one encoded object-file line: an address and its 15-bit value.
type Word struct {
	Address int
	Value   int
}

// WriteObject writes the ".ob" file: a header line "<icDelta> <dc>"
// followed by one "<ADDR> <WORD>" line per word, ADDR as 4-digit decimal
// and WORD as 5-digit octal.
func WriteObject(w io.Writer, icDelta, dc int, words []Word) error {
	if _, err := fmt.Fprintf(w, "%d %d\n", icDelta, dc); err != nil {
		return err
	}
	for _, word := range words {
		if _, err := fmt.Fprintf(w, "%04d %05o\n", word.Address, word.Value&0x7FFF); err != nil {
			return err
		}
	}
	return nil
}

// WriteEntries writes the ".ent" file: one "<NAME> <4-digit address>"
// line per Entry symbol.
func WriteEntries(w io.Writer, entries []*symtab.Symbol) error {
	for _, s := range entries {
		if _, err := fmt.Fprintf(w, "%s %04d\n", s.Name, s.Address); err != nil {
			return err
		}
	}
	return nil
}

// WriteExternals writes the ".ext" file: one "<NAME> <4-digit address>"
// line per recorded external reference (not per symbol).
func WriteExternals(w io.Writer, refs []symtab.ExternalReference) error {
	for _, r := range refs {
		if _, err := fmt.Fprintf(w, "%s %04d\n", r.Name, r.Address); err != nil {
			return err
		}
	}
	return nil
}
