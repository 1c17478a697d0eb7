package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func TestCommands_HistoryRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	assert.Equal(t, "Recorded smooth (1 applied)\n", execute(t, "--dir", dir, "history", "record", "s1", "smooth"))
	assert.Equal(t, "Recorded boolean (2 applied)\n", execute(t, "--dir", dir, "history", "record", "s1", "boolean", "--mode", "union"))
	assert.Equal(t, "Undid boolean (1 applied, 1 undone)\n", execute(t, "--dir", dir, "history", "undo", "s1"))
	assert.Equal(t, "Redid boolean (2 applied, 0 undone)\n", execute(t, "--dir", dir, "history", "redo", "s1"))
	assert.Equal(t, "Nothing to redo\n", execute(t, "--dir", dir, "history", "redo", "s1"))

	out := execute(t, "--dir", dir, "history", "show", "s1", "--json")
	assert.Contains(t, out, `"kind": "boolean"`)
	assert.Contains(t, out, `"mode": "union"`)

	assert.Contains(t, execute(t, "--dir", dir, "session", "ls"), "- s1")
	assert.Equal(t, "Removed session 's1'\n", execute(t, "--dir", dir, "session", "rm", "s1"))
	assert.Contains(t, execute(t, "--dir", dir, "session", "ls"), "No sessions found.")
}

func TestCommands_Version(t *testing.T) {
	assert.Contains(t, execute(t, "version"), "atelier version ")
}
