// Package symtab implements the symbol table: a unique-name keyed
// store for Code/Data/Entry/External symbols, plus the external-reference
// index consulted by the .ext emitter.
package symtab

import "errors"

// Kind tags what a symbol denotes.
type Kind int

const (
	Code Kind = iota
	Data
	Entry
	External
)

func (k Kind) String() string {
	switch k {
	case Code:
		return "Code"
	case Data:
		return "Data"
	case Entry:
		return "Entry"
	case External:
		return "External"
	default:
		return "Unknown"
	}
}

// Symbol is one entry in the table.
type Symbol struct {
	Name    string
	Address int
	Kind    Kind
}

// ErrDuplicateSymbol is returned by Add when name already exists.
var ErrDuplicateSymbol = errors.New("duplicate symbol definition")

// ErrMacroCollision is returned by Add when name collides with a macro name.
var ErrMacroCollision = errors.New("symbol name conflicts with macro name")

// maxExternalRefs caps the number of references recorded per external
// symbol.
const maxExternalRefs = 100

// Table is the per-file symbol table.
type Table struct {
	symbols    map[string]*Symbol
	order      []string
	macroNames map[string]struct{}

	externalRefs  map[string][]int
	externalOrder []string

	hasEntries bool
	hasExterns bool
}

// New returns an empty symbol table.
func New() *Table {
	return &Table{
		symbols:      make(map[string]*Symbol),
		externalRefs: make(map[string][]int),
	}
}

// SetMacroNames installs the macro name set consulted by Add for
// collision checks. Pass nil to release it once the first pass is done
// consulting it — the macro table is freed before the second pass runs.
func (t *Table) SetMacroNames(names map[string]struct{}) {
	t.macroNames = names
}

// Add inserts a new symbol. It fails if name already exists in the table
// or collides with a known macro name.
func (t *Table) Add(name string, address int, kind Kind) error {
	if _, exists := t.symbols[name]; exists {
		return ErrDuplicateSymbol
	}
	if _, isMacro := t.macroNames[name]; isMacro {
		return ErrMacroCollision
	}
	t.symbols[name] = &Symbol{Name: name, Address: address, Kind: kind}
	t.order = append(t.order, name)
	switch kind {
	case Entry:
		t.hasEntries = true
	case External:
		t.hasExterns = true
	}
	return nil
}

// Find looks up a symbol by name.
func (t *Table) Find(name string) (*Symbol, bool) {
	s, ok := t.symbols[name]
	return s, ok
}

// Promote changes an existing symbol's kind to Entry. Returns an error if
// the symbol is External (an External symbol may never become an Entry).
func (t *Table) Promote(name string) error {
	s, ok := t.symbols[name]
	if !ok {
		return errors.New("symbol not found")
	}
	if s.Kind == External {
		return errors.New("symbol declared as both .extern and .entry")
	}
	s.Kind = Entry
	t.hasEntries = true
	return nil
}

// AddExternalReference appends address to the reference list for the
// named external symbol, creating the list if absent. References past
// maxExternalRefs per name are dropped silently.
func (t *Table) AddExternalReference(name string, address int) {
	refs, exists := t.externalRefs[name]
	if !exists {
		t.externalOrder = append(t.externalOrder, name)
	}
	if len(refs) >= maxExternalRefs {
		return
	}
	t.externalRefs[name] = append(refs, address)
}

// ExternalReference names an address where an external symbol was
// referenced, in the order references were recorded.
type ExternalReference struct {
	Name    string
	Address int
}

// ExternalReferences returns every recorded external reference, ordered
// by symbol first-reference order and then by reference order within a
// symbol — the order the .ext emitter writes.
func (t *Table) ExternalReferences() []ExternalReference {
	var out []ExternalReference
	for _, name := range t.externalOrder {
		for _, addr := range t.externalRefs[name] {
			out = append(out, ExternalReference{Name: name, Address: addr})
		}
	}
	return out
}

// Entries returns every symbol of the given kind, in insertion order.
func (t *Table) Entries(kind Kind) []*Symbol {
	var out []*Symbol
	for _, name := range t.order {
		if s := t.symbols[name]; s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

// RebaseData adds icFinal to every Data symbol's address, the step that
// places data after code in the combined address space once code sizing
// is known.
func (t *Table) RebaseData(icFinal int) {
	for _, name := range t.order {
		s := t.symbols[name]
		if s.Kind == Data {
			s.Address += icFinal
		}
	}
}

// HasEntries reports whether any symbol has been marked Entry.
func (t *Table) HasEntries() bool {
	return t.hasEntries
}

// HasExterns reports whether any symbol has been declared External.
func (t *Table) HasExterns() bool {
	return t.hasExterns
}

// MarkHasEntries sets the has_entries flag directly — used when a
// .entry directive is seen in the first pass, before the symbol it names
// is necessarily known.
func (t *Table) MarkHasEntries() {
	t.hasEntries = true
}
