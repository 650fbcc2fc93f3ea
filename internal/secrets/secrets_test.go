package secrets

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return OpenAt(filepath.Join(t.TempDir(), "secrets.json"))
}

func TestWorkspaceScopedWinsOverGlobal(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Set("", Credentials{APIKey: "gkey", Token: "gtok"}))
	require.NoError(t, s.Set("/proj", Credentials{APIKey: "wkey", Token: "wtok"}))

	creds, err := s.Get("/proj")
	require.NoError(t, err)
	assert.Equal(t, "wkey", creds.APIKey)
	assert.Equal(t, "wtok", creds.Token)

	other, err := s.Get("/other")
	require.NoError(t, err)
	assert.Equal(t, "gkey", other.APIKey)
	assert.Equal(t, "gtok", other.Token)
}

func TestEnvFallback(t *testing.T) {
	s := newTestStore(t)
	t.Setenv("TRELLO_API_KEY", "envkey")
	t.Setenv("TRELLO_TOKEN", "envtok")

	creds, err := s.Get("/proj")
	require.NoError(t, err)
	assert.Equal(t, "envkey", creds.APIKey)
	assert.Equal(t, "envtok", creds.Token)
	assert.True(t, creds.Present())
}

func TestClear(t *testing.T) {
	s := newTestStore(t)
	t.Setenv("TRELLO_API_KEY", "")
	t.Setenv("TRELLO_TOKEN", "")

	require.NoError(t, s.Set("/proj", Credentials{APIKey: "k", Token: "t"}))
	require.NoError(t, s.Clear("/proj"))

	creds, err := s.Get("/proj")
	require.NoError(t, err)
	assert.False(t, creds.Present())
}

func TestMissingFileIsEmpty(t *testing.T) {
	s := newTestStore(t)
	t.Setenv("TRELLO_API_KEY", "")
	t.Setenv("TRELLO_TOKEN", "")

	creds, err := s.Get("/proj")
	require.NoError(t, err)
	assert.False(t, creds.Present())
}
