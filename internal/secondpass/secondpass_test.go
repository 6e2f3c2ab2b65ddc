package secondpass

import (
	"os"
	"path/filepath"
	"testing"

	"isaasm/internal/errsink"
	"isaasm/internal/symtab"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "x.am")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp: %v", err)
	}
	return path
}

// buildTable replays the symbol placements a first pass over src would
// have produced, so secondpass tests can exercise resolution without
// depending on the firstpass package.
func buildTable(t *testing.T, adds ...func(*symtab.Table)) *symtab.Table {
	t.Helper()
	st := symtab.New()
	for _, add := range adds {
		add(st)
	}
	return st
}

func TestSecondPassDataAndString(t *testing.T) {
	src := "DATA: .data 5, 7, 9\nMSG: .string \"hi\"\n"
	path := writeTemp(t, src)

	st := buildTable(t, func(st *symtab.Table) {
		st.Add("DATA", 100, symtab.Data)
		st.Add("MSG", 103, symtab.Data)
	})
	sink := errsink.New(nil)

	words, ok, err := Run(path, st, sink, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok, sink has %d errors", sink.Count())
	}
	if len(words) != 6 {
		t.Fatalf("got %d words, want 6", len(words))
	}
	wantAddrs := []int{100, 101, 102, 103, 104, 105}
	wantVals := []int{5, 7, 9, 'h', 'i', 0}
	for i, w := range words {
		if w.Address != wantAddrs[i] || w.Value != wantVals[i] {
			t.Fatalf("word %d = %+v, want {%d %d}", i, w, wantAddrs[i], wantVals[i])
		}
	}
}

func TestSecondPassInstructionAndEntry(t *testing.T) {
	src := "MAIN: mov r1, r2\n.entry MAIN\n"
	path := writeTemp(t, src)

	st := buildTable(t, func(st *symtab.Table) {
		st.Add("MAIN", 100, symtab.Code)
	})
	sink := errsink.New(nil)

	words, ok, err := Run(path, st, sink, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok, sink has %d errors", sink.Count())
	}
	if len(words) != 2 {
		t.Fatalf("got %d words, want 2 (opcode + packed register word)", len(words))
	}
	if words[0].Address != 100 || words[1].Address != 101 {
		t.Fatalf("addresses = %+v", words)
	}
	main, _ := st.Find("MAIN")
	if main.Kind != symtab.Entry {
		t.Fatalf("MAIN kind = %v, want Entry", main.Kind)
	}
}

func TestSecondPassExternalReference(t *testing.T) {
	src := "jmp FOO\n"
	path := writeTemp(t, src)

	st := buildTable(t, func(st *symtab.Table) {
		st.Add("FOO", 0, symtab.External)
	})
	sink := errsink.New(nil)

	words, ok, err := Run(path, st, sink, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok, sink has %d errors", sink.Count())
	}
	if len(words) != 2 {
		t.Fatalf("got %d words, want 2", len(words))
	}

	refs := st.ExternalReferences()
	if len(refs) != 1 || refs[0].Name != "FOO" || refs[0].Address != 101 {
		t.Fatalf("external refs = %+v, want [{FOO 101}]", refs)
	}
}

func TestSecondPassEntryOnExternalFails(t *testing.T) {
	src := ".entry FOO\n"
	path := writeTemp(t, src)

	st := buildTable(t, func(st *symtab.Table) {
		st.Add("FOO", 0, symtab.External)
	})
	sink := errsink.New(nil)

	_, ok, err := Run(path, st, sink, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected failure when .entry names an external symbol")
	}
	if sink.Count() != 1 {
		t.Fatalf("expected 1 error, got %d", sink.Count())
	}
}

func TestSecondPassEntryUnknownSymbolFails(t *testing.T) {
	src := ".entry GHOST\n"
	path := writeTemp(t, src)

	st := symtab.New()
	sink := errsink.New(nil)

	_, ok, err := Run(path, st, sink, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected failure for unresolved entry symbol")
	}
}

func TestSecondPassEncodingFailureIsReported(t *testing.T) {
	src := "mov UNDEF, r2\n"
	path := writeTemp(t, src)

	st := symtab.New()
	sink := errsink.New(nil)

	_, ok, err := Run(path, st, sink, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected failure for undefined symbol operand")
	}
	if sink.Count() != 1 {
		t.Fatalf("expected 1 error, got %d", sink.Count())
	}
}
