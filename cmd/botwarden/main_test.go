package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootListsSubcommands(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "bots", "bot", "groups", "me", "edit", "avatar", "token", "history"} {
		assert.Contains(t, names, want)
	}
}

func TestEditRequiresAField(t *testing.T) {
	t.Parallel()

	_, err := run(t, "edit", "b1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to change")
}

func TestArgumentValidation(t *testing.T) {
	t.Parallel()

	_, err := run(t, "bot")
	assert.Error(t, err)
	_, err = run(t, "avatar", "b1")
	assert.Error(t, err)
}

func TestLocalPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		source string
		path   string
		local  bool
	}{
		{"/tmp/a.png", "/tmp/a.png", true},
		{"avatar.png", "avatar.png", true},
		{"file:///tmp/a.png", "/tmp/a.png", true},
		{`C:\images\a.png`, `C:\images\a.png`, true},
		{"https://example.com/a.png", "", false},
		{"HTTP://example.com/a.png", "", false},
		{"ftp://example.com/a.png", "", false},
	}
	for _, tt := range tests {
		path, local := localPath(tt.source)
		assert.Equal(t, tt.local, local, tt.source)
		assert.Equal(t, tt.path, path, tt.source)
	}
}

func TestTokenSetAndHistoryAgainstFreshDatabase(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BOTWARDEN_DATABASE_PATH", filepath.Join(dir, "cli.db"))
	cfgPath := filepath.Join(dir, "missing.yaml")

	out, err := run(t, "--config", cfgPath, "token", "set", "abc123")
	require.NoError(t, err)
	assert.Contains(t, out, "Access token saved.")

	out, err = run(t, "--config", cfgPath, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "FINISHED")
}
