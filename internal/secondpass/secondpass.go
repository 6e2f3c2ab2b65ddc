// Package secondpass implements the second pass: re-scan the expanded
// source, resolve symbols, encode each instruction, and build the
// in-memory code/data word stream handed to the output emitters.
package secondpass

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"isaasm/internal/encoder"
	"isaasm/internal/errsink"
	"isaasm/internal/lexutil"
	"isaasm/internal/opcodes"
	"isaasm/internal/output"
	"isaasm/internal/symtab"
)

const firstAddress = 100

// Run re-scans the expanded source at path, resolving symbols through
// st and encoding instructions via the encoder package. It returns the
// assembled word stream and whether the pass completed without errors.
func Run(path string, st *symtab.Table, sink *errsink.Sink, logger *logrus.Logger) ([]output.Word, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		sink.Log(errsink.FileInput, "failed to open input file", path, -1)
		return nil, false, errors.Wrap(err, "secondpass: open")
	}
	defer f.Close()

	if logger != nil {
		logger.WithField("file", path).Info("second pass starting")
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 4096), 1<<16)

	var words []output.Word
	// Data values are collected separately and placed after the code
	// words, matching the rebased Data symbol addresses.
	var dataValues []int
	address := firstAddress
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

		rest := stripLabel(line)
		operation, operands := splitFirstToken(rest)

		switch {
		case operation == ".data":
			values, derr := parseDataValues(operands)
			if derr != nil {
				sink.Log(errsink.Syntax, "invalid .data directive", path, lineNo)
				errorFound = true
				continue
			}
			dataValues = append(dataValues, values...)

		case operation == ".string":
			dataValues = append(dataValues, stringValues(operands)...)

		case operation == ".entry":
			name := lexutil.Trim(operands)
			if name == "" {
				sink.Log(errsink.Syntax, "missing operand for .entry directive", path, lineNo)
				errorFound = true
				continue
			}
			sym, found := st.Find(name)
			if !found {
				sink.Log(errsink.Symbol, "entry symbol not found in symbol table", path, lineNo)
				errorFound = true
				continue
			}
			if sym.Kind == symtab.External {
				sink.Log(errsink.Symbol, "symbol declared as both .extern and .entry", path, lineNo)
				errorFound = true
				continue
			}
			_ = st.Promote(name)

		case operation == ".extern":
			// Handled in the first pass; nothing to do here.

		case opcodes.IsMnemonic(operation):
			wordVals, eerr := encoder.Encode(operation, operands, address, st)
			if eerr != nil {
				sink.Log(errsink.Syntax, "failed to encode instruction", path, lineNo)
				errorFound = true
				continue
			}
			for i, v := range wordVals {
				words = append(words, output.Word{Address: address + i, Value: v})
			}
			length, lerr := encoder.InstructionLength(operation, operands)
			if lerr != nil {
				// First pass already validated this; unreachable in
				// practice, but keep the cursor consistent with the
				// words actually emitted if it ever happens.
				length = len(wordVals)
			}
			address += length
		}
	}

	if err := scanner.Err(); err != nil {
		sink.Log(errsink.FileInput, "error reading input file", path, -1)
		return nil, false, errors.Wrap(err, "secondpass: scan")
	}

	for _, v := range dataValues {
		words = append(words, output.Word{Address: address, Value: v})
		address++
	}

	if logger != nil {
		logger.WithFields(logrus.Fields{"file": path, "words": len(words), "ok": !errorFound}).
			Info("second pass complete")
	}

	return words, !errorFound, nil
}

func stripLabel(line string) string {
	idx := strings.IndexByte(line, ' ')
	first := line
	if idx >= 0 {
		first = line[:idx]
	}
	if !strings.HasSuffix(first, ":") {
		return line
	}
	if idx < 0 {
		return ""
	}
	return lexutil.Trim(line[idx+1:])
}

func splitFirstToken(rest string) (operation, operands string) {
	idx := strings.IndexByte(rest, ' ')
	if idx < 0 {
		return rest, ""
	}
	return rest[:idx], lexutil.Trim(rest[idx+1:])
}

func parseDataValues(operands string) ([]int, error) {
	operands = lexutil.Trim(operands)
	if operands == "" {
		return nil, errors.New("no data values")
	}
	parts := strings.Split(operands, ",")
	values := make([]int, 0, len(parts))
	for _, p := range parts {
		p = lexutil.Trim(p)
		v, err := strconv.Atoi(strings.TrimPrefix(p, "#"))
		if err != nil {
			return nil, errors.Errorf("invalid data value %q", p)
		}
		values = append(values, v)
	}
	return values, nil
}

func stringValues(operands string) []int {
	lit := lexutil.Trim(operands)
	if len(lit) < 2 {
		return []int{0}
	}
	inner := lit[1 : len(lit)-1]
	values := make([]int, 0, len(inner)+1)
	for _, r := range inner {
		values = append(values, int(r))
	}
	values = append(values, 0)
	return values
}
