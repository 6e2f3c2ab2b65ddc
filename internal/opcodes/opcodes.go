// Package opcodes holds the fixed mnemonic-to-opcode catalog for the
// instruction set. The table is ordered the way the ISA defines it; the
// index into that definition doubles as the opcode value.
package opcodes

// Entry describes one catalog row: the numeric opcode and the number of
// operands the mnemonic expects.
type Entry struct {
	Opcode   int
	Operands int
}

var table = map[string]Entry{
	"mov":  {Opcode: 0, Operands: 2},
	"cmp":  {Opcode: 1, Operands: 2},
	"add":  {Opcode: 2, Operands: 2},
	"sub":  {Opcode: 3, Operands: 2},
	"lea":  {Opcode: 4, Operands: 2},
	"clr":  {Opcode: 5, Operands: 1},
	"not":  {Opcode: 6, Operands: 1},
	"inc":  {Opcode: 7, Operands: 1},
	"dec":  {Opcode: 8, Operands: 1},
	"jmp":  {Opcode: 9, Operands: 1},
	"bne":  {Opcode: 10, Operands: 1},
	"red":  {Opcode: 11, Operands: 1},
	"prn":  {Opcode: 12, Operands: 1},
	"jsr":  {Opcode: 13, Operands: 1},
	"rts":  {Opcode: 14, Operands: 0},
	"stop": {Opcode: 15, Operands: 0},
}

// Lookup returns the catalog entry for mnemonic, and whether it exists.
func Lookup(mnemonic string) (Entry, bool) {
	e, ok := table[mnemonic]
	return e, ok
}

// IsMnemonic reports whether mnemonic names a known instruction.
func IsMnemonic(mnemonic string) bool {
	_, ok := table[mnemonic]
	return ok
}
