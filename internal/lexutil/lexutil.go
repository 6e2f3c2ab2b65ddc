// Package lexutil implements the line-level lexical operations shared by
// the pre-processor and both assembly passes: comment stripping,
// whitespace normalization, trimming, and token classification. Every
// function here is pure — it returns a fresh value rather than mutating
// its argument.
package lexutil

import (
	"regexp"
	"strings"

	"isaasm/internal/opcodes"
)

// MaxLineLength is the architectural limit on source line length,
// excluding the trailing newline.
const MaxLineLength = 80

// MaxLabelLength is the architectural limit on symbol/macro name length.
const MaxLabelLength = 31

var whitespaceRun = regexp.MustCompile(`\s+`)
var spaceAroundComma = regexp.MustCompile(`\s*,\s*`)

var directives = map[string]bool{
	".data":   true,
	".string": true,
	".entry":  true,
	".extern": true,
}

// StripComment truncates line at the first ';', if any.
func StripComment(line string) string {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		return line[:i]
	}
	return line
}

// NormalizeWhitespace collapses runs of whitespace to a single space and
// removes any space adjacent to a comma.
func NormalizeWhitespace(line string) string {
	line = whitespaceRun.ReplaceAllString(line, " ")
	line = spaceAroundComma.ReplaceAllString(line, ",")
	return line
}

// Trim removes leading and trailing whitespace.
func Trim(line string) string {
	return strings.TrimSpace(line)
}

// IsRegister reports whether token is exactly r0..r7.
func IsRegister(token string) bool {
	return len(token) == 2 && token[0] == 'r' && token[1] >= '0' && token[1] <= '7'
}

// RegisterNumber returns the register number for a validated r0..r7
// token, or -1 if the token is not a register.
func RegisterNumber(token string) int {
	if !IsRegister(token) {
		return -1
	}
	return int(token[1] - '0')
}

// IsNumber reports whether token is an optional '#', optional sign, then
// one or more decimal digits.
func IsNumber(token string) bool {
	if token == "" {
		return false
	}
	if token[0] == '#' {
		token = token[1:]
	}
	if token == "" {
		return false
	}
	if token[0] == '+' || token[0] == '-' {
		token = token[1:]
	}
	if token == "" {
		return false
	}
	for i := 0; i < len(token); i++ {
		if token[i] < '0' || token[i] > '9' {
			return false
		}
	}
	return true
}

// IsDirective reports whether token is exactly one of the four directives.
func IsDirective(token string) bool {
	return directives[token]
}

// IsLabel reports whether token is a legal label: non-empty, at most
// MaxLabelLength characters, starts with a letter, continues with
// alphanumerics, and is neither a register nor a catalog mnemonic.
func IsLabel(token string) bool {
	if token == "" || len(token) > MaxLabelLength {
		return false
	}
	if !isAlpha(token[0]) {
		return false
	}
	if IsRegister(token) || opcodes.IsMnemonic(token) {
		return false
	}
	for i := 1; i < len(token); i++ {
		if !isAlnum(token[i]) {
			return false
		}
	}
	return true
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isAlnum(b byte) bool {
	return isAlpha(b) || isDigit(b)
}
