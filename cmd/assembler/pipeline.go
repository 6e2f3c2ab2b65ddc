// Package main is the assembler's command-line driver: it wires the
// pre-processor, the two passes, and the output emitters together for
// each file named on the command line and implements the exit-code
// policy.
package main

import (
	"os"
	"path/filepath"

	"github.com/davecgh/go-spew/spew"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"isaasm/internal/errsink"
	"isaasm/internal/firstpass"
	"isaasm/internal/output"
	"isaasm/internal/preproc"
	"isaasm/internal/secondpass"
	"isaasm/internal/symtab"
)

// fileResult summarizes what happened to a single named argument, for
// the driver's exit-code decision.
type fileResult struct {
	inputted bool
	ok       bool
}

// processFile runs one file through the full pipeline: macro expansion,
// first pass, second pass, and (on success) the three output emitters.
// keepAM suppresses deletion of the intermediate ".am" file; debugDump
// enables a go-spew dump of the populated symbol table.
func processFile(base string, keepAM, debugDump bool, sink *errsink.Sink, logger *logrus.Logger) fileResult {
	sourcePath := base + ".as"

	pre, err := preproc.Expand(sourcePath, sink)
	if pre == nil {
		// Could not even open the source; nothing was inputted.
		return fileResult{inputted: false, ok: false}
	}
	// The ".am" file was produced (possibly with macro errors already
	// logged); the file counts as inputted from here on regardless of
	// what the passes find.
	if !keepAM {
		defer os.Remove(pre.OutputPath)
	}
	if err != nil {
		return fileResult{inputted: true, ok: false}
	}

	st := symtab.New()
	st.SetMacroNames(pre.MacroNames)

	fpRes, err := firstpass.Run(pre.OutputPath, st, sink, logger)
	// The macro table is only relevant to the first pass's collision
	// checks; drop it before the second pass runs.
	st.SetMacroNames(nil)
	if err != nil || !fpRes.OK {
		return fileResult{inputted: true, ok: false}
	}

	words, ok, err := secondpass.Run(pre.OutputPath, st, sink, logger)
	if err != nil || !ok {
		return fileResult{inputted: true, ok: false}
	}

	if debugDump && logger != nil {
		logger.Debug(spew.Sdump(st))
	}

	if err := writeOutputs(base, fpRes, words, st); err != nil {
		sink.Log(errsink.FileOutput, "failed to write output files", base, -1)
		return fileResult{inputted: true, ok: false}
	}

	return fileResult{inputted: true, ok: true}
}

func writeOutputs(base string, fpRes firstpass.Result, words []output.Word, st *symtab.Table) error {
	obFile, err := os.Create(base + ".ob")
	if err != nil {
		return err
	}
	defer obFile.Close()
	if err := output.WriteObject(obFile, fpRes.IC-firstpass.FirstAddress, fpRes.DC, words); err != nil {
		return err
	}

	if entries := st.Entries(symtab.Entry); len(entries) > 0 {
		entFile, err := os.Create(base + ".ent")
		if err != nil {
			return err
		}
		defer entFile.Close()
		if err := output.WriteEntries(entFile, entries); err != nil {
			return err
		}
	}

	if refs := st.ExternalReferences(); len(refs) > 0 {
		extFile, err := os.Create(base + ".ext")
		if err != nil {
			return err
		}
		defer extFile.Close()
		if err := output.WriteExternals(extFile, refs); err != nil {
			return err
		}
	}

	return nil
}

// run processes every named argument, accumulating a multierror entry
// per failed or unresolved file, and returns the process exit code:
// 0 if at least one file was inputted, 1 otherwise.
func run(args []string, keepAM, debugDump bool, sink *errsink.Sink, logger *logrus.Logger) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}

	var merr *multierror.Error
	anyInputted := false

	for _, arg := range args {
		base := filepath.Clean(arg)
		res := processFile(base, keepAM, debugDump, sink, logger)
		if res.inputted {
			anyInputted = true
		}
		if !res.ok {
			merr = multierror.Append(merr, errFor(base, res))
		}
	}

	sink.WriteSummary(os.Stdout)

	if !anyInputted {
		return 1, merr.ErrorOrNil()
	}
	return 0, merr.ErrorOrNil()
}

func errFor(base string, res fileResult) error {
	if !res.inputted {
		return &fileError{base: base, reason: "could not be read"}
	}
	return &fileError{base: base, reason: "failed to assemble"}
}

type fileError struct {
	base   string
	reason string
}

func (e *fileError) Error() string {
	return e.base + ": " + e.reason
}
