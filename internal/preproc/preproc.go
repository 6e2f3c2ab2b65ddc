// Package preproc implements the macro pre-processor: it expands
// macr/endmacr blocks from a ".as" source into an ".am" file consumed by
// both passes. The macro table it builds is returned to the caller so the
// first pass can consult it for name collisions, then is expected to be
// dropped (set to nil) before the second pass runs.
package preproc

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"

	"isaasm/internal/errsink"
	"isaasm/internal/lexutil"
	"isaasm/internal/opcodes"
)

// macro is a named, ordered sequence of raw (untrimmed) source lines.
type macro struct {
	name  string
	lines []string
}

var reservedWords = map[string]bool{
	"macr":    true,
	"endmacr": true,
	"data":    true,
	"string":  true,
	"entry":   true,
	"extern":  true,
}

func isReserved(word string) bool {
	if opcodes.IsMnemonic(word) || lexutil.IsRegister(word) {
		return true
	}
	return reservedWords[word]
}

func isValidMacroName(name string) bool {
	if name == "" {
		return false
	}
	if !(name[0] >= 'a' && name[0] <= 'z' || name[0] >= 'A' && name[0] <= 'Z') {
		return false
	}
	for i := 1; i < len(name); i++ {
		c := name[i]
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
			return false
		}
	}
	return !isReserved(name)
}

// Result is what a successful (or partially successful) expansion
// produces.
type Result struct {
	OutputPath string
	// MacroNames is the set of names declared via macr in this file.
	// Consult it for symbol-table collision checks, then discard — do
	// not retain a reference past the first pass.
	MacroNames map[string]struct{}
}

// Expand reads inputPath (a ".as" file) and writes the macro-expanded
// ".am" file alongside it. It returns an error if any macro syntax error
// was logged during expansion; the ".am" file may still have been
// produced but must not be consumed by the caller in that case.
func Expand(inputPath string, sink *errsink.Sink) (*Result, error) {
	outputPath := strings.TrimSuffix(inputPath, ".as") + ".am"

	in, err := os.Open(inputPath)
	if err != nil {
		sink.Log(errsink.FileInput, "failed to open file for reading", inputPath, -1)
		return nil, errors.Wrap(err, "preproc: open input")
	}
	defer in.Close()

	out, err := os.Create(outputPath)
	if err != nil {
		sink.Log(errsink.FileOutput, "failed to create expanded output file", outputPath, -1)
		return nil, errors.Wrap(err, "preproc: create output")
	}
	defer out.Close()

	writer := bufio.NewWriter(out)
	defer writer.Flush()

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 4096), 1<<16)

	macros := make(map[string]*macro)
	macroNames := make(map[string]struct{})
	lineNo := 0
	hadError := false

	next := func() (string, bool) {
		if scanner.Scan() {
			lineNo++
			return scanner.Text(), true
		}
		return "", false
	}

	for {
		raw, ok := next()
		if !ok {
			break
		}
		trimmed := lexutil.Trim(raw)

		if len(trimmed) > lexutil.MaxLineLength {
			sink.Log(errsink.Syntax, "line exceeds maximum length", inputPath, lineNo)
			hadError = true
			continue
		}

		if firstField(trimmed) == "macr" {
			name := firstField(strings.TrimSpace(trimmed[len("macr"):]))
			if isValidMacroName(name) {
				var body []string
				for {
					bodyRaw, ok2 := next()
					if !ok2 {
						break
					}
					if lexutil.Trim(bodyRaw) == "endmacr" {
						break
					}
					body = append(body, bodyRaw)
				}
				macros[name] = &macro{name: name, lines: body}
				macroNames[name] = struct{}{}
			} else {
				sink.Log(errsink.Macro, "invalid macro name", inputPath, lineNo)
				hadError = true
				// The body is not consumed on an invalid name — the
				// lines that follow fall through to ordinary
				// line-by-line handling, including the "endmacr" that
				// closes them (dropped silently by the rule below).
			}
			continue
		}

		if trimmed == "endmacr" {
			continue
		}

		if m, found := macros[trimmed]; found {
			for _, l := range m.lines {
				fmt.Fprintln(writer, l)
			}
			continue
		}

		fmt.Fprintln(writer, raw)
	}

	if err := scanner.Err(); err != nil {
		sink.Log(errsink.FileInput, "error reading input file", inputPath, -1)
		return nil, errors.Wrap(err, "preproc: scan input")
	}

	result := &Result{OutputPath: outputPath, MacroNames: macroNames}
	if hadError {
		return result, errors.New("preproc: syntax errors during macro expansion")
	}
	return result, nil
}

func firstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
