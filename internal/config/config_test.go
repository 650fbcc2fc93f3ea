package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBoardID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  ", ""},
		{"abc123DEF", "abc123DEF"},
		{"https://trello.com/b/abc123/my-board", "abc123"},
		{"http://trello.com/b/Zz9", "Zz9"},
		{"https://example.com/b/abc123", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseBoardID(tt.in), "input %q", tt.in)
	}
}

func TestInitializeMissingFile(t *testing.T) {
	require.NoError(t, Initialize(t.TempDir()))

	cfg := GetTrello()
	assert.False(t, cfg.Enabled)
	assert.True(t, cfg.AssignedOnly)
	assert.Equal(t, 0, cfg.SyncIntervalMinutes)
}

func TestInitializeReadsYaml(t *testing.T) {
	dir := t.TempDir()
	raw := `
trello:
  enabled: true
  board: https://trello.com/b/abc123/board
  assigned_username: alice
  assigned_only: false
  sync_interval_minutes: 5
  sync_local_todos: true
  list_mapping:
    "To Do": backlog
    "Doing": in-progress
  label_mapping:
    Bug: "type:bug"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(raw), 0o600))
	require.NoError(t, Initialize(dir))

	cfg := GetTrello()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "abc123", ParseBoardID(cfg.Board))
	assert.Equal(t, "alice", cfg.AssignedUsername)
	assert.False(t, cfg.AssignedOnly)
	assert.Equal(t, 5, cfg.SyncIntervalMinutes)
	assert.True(t, cfg.SyncLocalTodos)
	// viper lowercases map keys
	assert.Equal(t, "in-progress", cfg.ListMapping["doing"])
	assert.Equal(t, "type:bug", cfg.LabelMapping["bug"])
}

func TestWriteDefaultRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteDefault(dir)
	require.NoError(t, err)
	assert.FileExists(t, path)

	_, err = WriteDefault(dir)
	require.Error(t, err)
}

func TestSet(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, Set(dir, "trello.board", "abc123"))
	require.NoError(t, Set(dir, "trello.enabled", "true"))
	require.NoError(t, Set(dir, "trello.list_mapping.To Do", "backlog"))

	require.NoError(t, Initialize(dir))
	cfg := GetTrello()
	assert.Equal(t, "abc123", cfg.Board)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "backlog", cfg.ListMapping["to do"])

	assert.Error(t, Set(dir, "bogus.key", "x"))
	assert.Error(t, Set(dir, "trello.enabled", "bananas"))
}
