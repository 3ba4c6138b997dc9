package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandHelp(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "interview")
	assert.Contains(t, out.String(), "serve")
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	cmd := newRootCommand()

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"serve", "interview", "session", "cache"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestSessionListEmpty(t *testing.T) {
	t.Chdir(t.TempDir())

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"session", "list"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "No sessions")
}

func TestCacheStatsEmpty(t *testing.T) {
	t.Chdir(t.TempDir())

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"cache", "stats"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Durable cache entries: 0")
}
