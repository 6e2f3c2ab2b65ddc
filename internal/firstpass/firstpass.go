// Package firstpass implements the first pass: per-line dispatch on
// label, directive, or mnemonic; instruction/data sizing; symbol
// population; and the post-loop data-address rebase.
package firstpass

import (
	"bufio"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"isaasm/internal/encoder"
	"isaasm/internal/errsink"
	"isaasm/internal/lexutil"
	"isaasm/internal/opcodes"
	"isaasm/internal/symtab"
)

// FirstAddress is the architectural starting instruction address.
const FirstAddress = 100

// Result carries the final counters a successful first pass hands to
// the driver, which decides whether to invoke the second pass at all.
type Result struct {
	IC int
	DC int
	OK bool
}

// Run executes the first pass over the expanded source at path,
// populating st. The macro names installed on st via SetMacroNames are
// consulted for symbol/macro name collisions; the caller releases them
// afterward.
func Run(path string, st *symtab.Table, sink *errsink.Sink, logger *logrus.Logger) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		sink.Log(errsink.FileInput, "failed to open file for reading", path, -1)
		return Result{}, errors.Wrap(err, "firstpass: open")
	}
	defer f.Close()

	if logger != nil {
		logger.WithField("file", path).Info("first pass starting")
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 4096), 1<<16)

	ic := FirstAddress
	dc := 0
	lineNo := 0
	errorFound := false

	for scanner.Scan() {
		lineNo++
		line := lexutil.StripComment(scanner.Text())
		line = lexutil.NormalizeWhitespace(line)
		line = lexutil.Trim(line)
		if line == "" {
			continue
		}
		if len(line) > lexutil.MaxLineLength {
			sink.Log(errsink.Syntax, "line exceeds maximum length", path, lineNo)
			errorFound = true
			continue
		}

		label, rest, labelErr := extractLabel(line)
		if labelErr != nil {
			sink.Log(errsink.Syntax, "illegal label", path, lineNo)
			errorFound = true
			continue
		}
		operation, operands := splitFirstToken(rest)

		switch {
		case lexutil.IsDirective(operation):
			if !handleDirective(operation, label, operands, &dc, st, sink, path, lineNo) {
				errorFound = true
			}

		case opcodes.IsMnemonic(operation):
			length, lerr := encoder.InstructionLength(operation, operands)
			if lerr != nil {
				sink.Log(errsink.Syntax, "invalid instruction format", path, lineNo)
				errorFound = true
				continue
			}
			if label != "" {
				if err := st.Add(label, ic, symtab.Code); err != nil {
					sink.Log(errsink.Symbol, "duplicate symbol definition", path, lineNo)
					errorFound = true
				}
			}
			ic += length

		default:
			sink.Log(errsink.Syntax, "unknown operation", path, lineNo)
			errorFound = true
		}
	}

	if err := scanner.Err(); err != nil {
		sink.Log(errsink.FileInput, "error reading input file", path, -1)
		return Result{}, errors.Wrap(err, "firstpass: scan")
	}

	st.RebaseData(ic)

	if logger != nil {
		logger.WithFields(logrus.Fields{"file": path, "ic": ic, "dc": dc, "ok": !errorFound}).
			Info("first pass complete")
	}

	return Result{IC: ic, DC: dc, OK: !errorFound}, nil
}

func handleDirective(operation, label, operands string, dc *int, st *symtab.Table, sink *errsink.Sink, path string, lineNo int) bool {
	ok := true
	switch operation {
	case ".data":
		if label != "" {
			if err := st.Add(label, *dc, symtab.Data); err != nil {
				sink.Log(errsink.Symbol, "duplicate symbol definition", path, lineNo)
				ok = false
			}
		}
		count, err := countDataValues(operands)
		if err != nil {
			sink.Log(errsink.Syntax, "invalid .data directive", path, lineNo)
			return false
		}
		*dc += count

	case ".string":
		if label != "" {
			if err := st.Add(label, *dc, symtab.Data); err != nil {
				sink.Log(errsink.Symbol, "duplicate symbol definition", path, lineNo)
				ok = false
			}
		}
		if !validateStringLiteral(operands) {
			sink.Log(errsink.Syntax, "invalid .string directive", path, lineNo)
			return false
		}
		*dc += len(lexutil.Trim(operands)) - 2 + 1

	case ".entry":
		st.MarkHasEntries()

	case ".extern":
		names := splitIdentifierList(operands)
		if len(names) == 0 {
			sink.Log(errsink.Syntax, "missing operand for .extern directive", path, lineNo)
			return false
		}
		for _, name := range names {
			if err := st.Add(name, 0, symtab.External); err != nil {
				sink.Log(errsink.Symbol, "duplicate external symbol definition", path, lineNo)
				ok = false
			}
		}
	}
	return ok
}

// extractLabel splits an optional "NAME:" prefix from line. A leading
// token ending in ':' that fails label validation is an error.
func extractLabel(line string) (label, rest string, err error) {
	idx := strings.IndexByte(line, ' ')
	first := line
	if idx >= 0 {
		first = line[:idx]
	}
	if !strings.HasSuffix(first, ":") {
		return "", line, nil
	}
	name := strings.TrimSuffix(first, ":")
	if !lexutil.IsLabel(name) {
		return "", "", errInvalidLabel
	}
	if idx < 0 {
		return name, "", nil
	}
	return name, lexutil.Trim(line[idx+1:]), nil
}

var errInvalidLabel = errors.New("illegal label")

func splitFirstToken(rest string) (operation, operands string) {
	idx := strings.IndexByte(rest, ' ')
	if idx < 0 {
		return rest, ""
	}
	return rest[:idx], lexutil.Trim(rest[idx+1:])
}

func countDataValues(operands string) (int, error) {
	operands = lexutil.Trim(operands)
	if operands == "" {
		return 0, errors.New("no data values")
	}
	parts := strings.Split(operands, ",")
	count := 0
	for _, p := range parts {
		p = lexutil.Trim(p)
		if !lexutil.IsNumber(p) {
			return 0, errors.Errorf("invalid data value %q", p)
		}
		count++
	}
	return count, nil
}

func validateStringLiteral(operands string) bool {
	operands = lexutil.Trim(operands)
	if len(operands) < 2 || operands[0] != '"' || operands[len(operands)-1] != '"' {
		return false
	}
	return !strings.Contains(operands[1:len(operands)-1], `"`)
}

func splitIdentifierList(operands string) []string {
	operands = lexutil.Trim(operands)
	if operands == "" {
		return nil
	}
	parts := strings.Split(operands, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = lexutil.Trim(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
