package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isaasm/internal/errsink"
)

func writeSource(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	base := filepath.Join(dir, "prog")
	require.NoError(t, os.WriteFile(base+".as", []byte(content), 0o644))
	return base
}

func TestProcessFileEmptyDataAfterCode(t *testing.T) {
	base := writeSource(t, "MAIN: mov r1, r2\nEND: stop\n")
	sink := errsink.New(nil)

	res := processFile(base, false, false, sink, nil)
	require.True(t, res.inputted)
	assert.True(t, res.ok, "sink: %+v", sink.Entries())

	ob, err := os.ReadFile(base + ".ob")
	require.NoError(t, err)
	// mov r1,r2 packs into 2 words (opcode + shared register word);
	// stop takes one opcode-only word: 3 words total, no data.
	assert.Equal(t, "3 0\n", string(ob[:4]))

	_, entErr := os.Stat(base + ".ent")
	assert.True(t, os.IsNotExist(entErr))
	_, extErr := os.Stat(base + ".ext")
	assert.True(t, os.IsNotExist(extErr))
}

func TestProcessFileExternalReference(t *testing.T) {
	base := writeSource(t, ".extern FOO\njmp FOO\n")
	sink := errsink.New(nil)

	res := processFile(base, false, false, sink, nil)
	require.True(t, res.inputted)
	assert.True(t, res.ok, "sink: %+v", sink.Entries())

	ext, err := os.ReadFile(base + ".ext")
	require.NoError(t, err)
	assert.Equal(t, "FOO 0101\n", string(ext))
}

func TestProcessFileEntryPromotion(t *testing.T) {
	base := writeSource(t, "LOOP: inc r3\n.entry LOOP\nstop\n")
	sink := errsink.New(nil)

	res := processFile(base, false, false, sink, nil)
	require.True(t, res.inputted)
	assert.True(t, res.ok, "sink: %+v", sink.Entries())

	ent, err := os.ReadFile(base + ".ent")
	require.NoError(t, err)
	assert.Equal(t, "LOOP 0100\n", string(ent))
}

func TestProcessFileMissingSourceNotInputted(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "missing")
	sink := errsink.New(nil)

	res := processFile(base, false, false, sink, nil)
	assert.False(t, res.inputted)
	assert.False(t, res.ok)
}

func TestProcessFileKeepAMRetainsIntermediate(t *testing.T) {
	base := writeSource(t, "stop\n")
	sink := errsink.New(nil)

	res := processFile(base, true, false, sink, nil)
	require.True(t, res.ok)

	_, err := os.Stat(base + ".am")
	assert.NoError(t, err, "expected .am to survive with keep-am set")
}

func TestRunExitCodes(t *testing.T) {
	sink := errsink.New(nil)

	code, err := run(nil, false, false, sink, nil)
	assert.Equal(t, 1, code)
	assert.NoError(t, err)

	base := writeSource(t, "stop\n")
	sink = errsink.New(nil)
	code, err = run([]string{base}, false, false, sink, nil)
	assert.Equal(t, 0, code)
	assert.NoError(t, err)

	dir := t.TempDir()
	missing := filepath.Join(dir, "nope")
	sink = errsink.New(nil)
	code, err = run([]string{missing}, false, false, sink, nil)
	assert.Equal(t, 1, code)
	assert.Error(t, err)
}
