// Package encoder implements the addressing-mode decoder and instruction
// encoder: four addressing modes, the register-pair packing optimization,
// and A.R.E. relocation tagging. InstructionLength is shared by both
// passes so their notion of instruction size never drifts.
package encoder

import (
	"fmt"
	"strconv"
	"strings"

	"isaasm/internal/lexutil"
	"isaasm/internal/opcodes"
	"isaasm/internal/symtab"
)

// Mode is an operand addressing mode; ModeAbsent marks "no operand".
type Mode int

const (
	ModeImmediate   Mode = 0
	ModeDirect      Mode = 1
	ModeRegIndirect Mode = 2
	ModeRegDirect   Mode = 3
	ModeAbsent      Mode = 4
)

// A.R.E. tag values, carried in the low three bits of every emitted word.
const (
	AREExternal    = 1
	ARERelocatable = 2
	AREAbsolute    = 4
)

// AddressingMode classifies a single operand token. An empty token is
// ModeAbsent.
func AddressingMode(operand string) Mode {
	if operand == "" {
		return ModeAbsent
	}
	if operand[0] == '#' && lexutil.IsNumber(operand) {
		return ModeImmediate
	}
	if lexutil.IsRegister(operand) {
		return ModeRegDirect
	}
	if len(operand) >= 2 && operand[0] == '*' && lexutil.IsRegister(operand[1:]) {
		return ModeRegIndirect
	}
	return ModeDirect
}

// splitOperands splits a raw operand string on the first comma,
// returning trimmed source and target substrings. A single operand with
// no comma is returned as source, with an empty target — matching the
// original's sscanf("%[^,], %s", ...) behavior.
func splitOperands(raw string) (source, target string) {
	raw = lexutil.Trim(raw)
	if raw == "" {
		return "", ""
	}
	idx := strings.IndexByte(raw, ',')
	if idx < 0 {
		return raw, ""
	}
	return lexutil.Trim(raw[:idx]), lexutil.Trim(raw[idx+1:])
}

func isRegisterMode(m Mode) bool {
	return m == ModeRegIndirect || m == ModeRegDirect
}

// InstructionLength computes the word length of an instruction: the
// opcode word plus one word per present operand, except that two
// register-addressed operands pack into a single shared word. It
// returns an error if the operand count does not match the catalog's
// expectation for mnemonic.
func InstructionLength(mnemonic, operandsRaw string) (int, error) {
	entry, ok := opcodes.Lookup(mnemonic)
	if !ok {
		return -1, fmt.Errorf("unknown mnemonic %q", mnemonic)
	}

	source, target := splitOperands(operandsRaw)
	count := 0
	if source != "" {
		count++
	}
	if target != "" {
		count++
	}
	if count != entry.Operands {
		return -1, fmt.Errorf("%s expects %d operand(s), got %d", mnemonic, entry.Operands, count)
	}

	length := 1 + count
	sourceMode := AddressingMode(source)
	targetMode := AddressingMode(target)
	if isRegisterMode(sourceMode) && isRegisterMode(targetMode) {
		length = 2
	}
	return length, nil
}

func registerNumber(operand string, mode Mode) int {
	switch mode {
	case ModeRegIndirect:
		return lexutil.RegisterNumber(operand[1:])
	case ModeRegDirect:
		return lexutil.RegisterNumber(operand)
	default:
		return -1
	}
}

func parseImmediate(operand string) (int, error) {
	digits := strings.TrimPrefix(operand, "#")
	return strconv.Atoi(digits)
}

// Encode produces the 1-3 output words for one instruction, recording
// any external-symbol reference into st as it goes. address is the
// address of the instruction's first (opcode) word.
func Encode(mnemonic, operandsRaw string, address int, st *symtab.Table) ([]int, error) {
	entry, ok := opcodes.Lookup(mnemonic)
	if !ok {
		return nil, fmt.Errorf("unknown mnemonic %q", mnemonic)
	}

	source, target := splitOperands(operandsRaw)
	// A single operand is parsed into the source slot textually but
	// behaves as the target during encoding (unary instructions address
	// their only operand as the target).
	if target == "" && source != "" {
		source, target = "", source
	}

	sourceMode := AddressingMode(source)
	targetMode := AddressingMode(target)

	firstWord := (entry.Opcode & 0xF) << 11
	if sourceMode != ModeAbsent {
		firstWord |= 1 << (7 + int(sourceMode))
	}
	if targetMode != ModeAbsent {
		firstWord |= 1 << (3 + int(targetMode))
	}
	firstWord |= AREAbsolute

	words := []int{firstWord & 0x7FFF}

	if isRegisterMode(sourceMode) && isRegisterMode(targetMode) {
		sReg := registerNumber(source, sourceMode)
		tReg := registerNumber(target, targetMode)
		words = append(words, (sReg&7)<<6|(tReg&7)<<3|AREAbsolute)
		return words, nil
	}

	if sourceMode != ModeAbsent {
		w, err := encodeOperand(source, sourceMode, true, address+len(words), st)
		if err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	if targetMode != ModeAbsent {
		w, err := encodeOperand(target, targetMode, false, address+len(words), st)
		if err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	return words, nil
}

func encodeOperand(operand string, mode Mode, isSource bool, wordAddress int, st *symtab.Table) (int, error) {
	switch mode {
	case ModeImmediate:
		v, err := parseImmediate(operand)
		if err != nil {
			return 0, fmt.Errorf("invalid immediate %q: %w", operand, err)
		}
		return (v&0xFFF)<<3 | AREAbsolute, nil

	case ModeDirect:
		sym, ok := st.Find(operand)
		if !ok {
			return 0, fmt.Errorf("undefined symbol %q", operand)
		}
		if sym.Kind == symtab.External {
			st.AddExternalReference(operand, wordAddress)
			return AREExternal, nil
		}
		return (sym.Address&0xFFF)<<3 | ARERelocatable, nil

	case ModeRegIndirect, ModeRegDirect:
		reg := registerNumber(operand, mode)
		shift := 3
		if isSource {
			shift = 6
		}
		return (reg&7)<<shift | AREAbsolute, nil

	default:
		return 0, fmt.Errorf("no addressing mode for operand %q", operand)
	}
}
