// Package secrets stores Trello credentials outside the workspace, in a
// 0600 JSON file under the user config directory. Keys are workspace-scoped
// ("<name>:<base64 workspace path>") with a global fallback, so one machine
// can hold per-project and shared credentials side by side.
package secrets

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	keyAPIKey = "trello.apiKey"
	keyToken  = "trello.token"
)

// Credentials is the api key + token pair every Trello request carries.
type Credentials struct {
	APIKey string
	Token  string
}

// Present reports whether both halves of the pair are set.
func (c Credentials) Present() bool {
	return c.APIKey != "" && c.Token != ""
}

// Store is a file-backed secret store.
type Store struct {
	path string
}

// Open returns the default store under os.UserConfigDir()/todosync.
func Open() (*Store, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("locating user config dir: %w", err)
	}
	return &Store{path: filepath.Join(base, "todosync", "secrets.json")}, nil
}

// OpenAt returns a store backed by an explicit file, for tests.
func OpenAt(path string) *Store {
	return &Store{path: path}
}

// workspaceSuffix derives the per-workspace key suffix from the workspace
// absolute path, matching the scheme credentials were saved under.
func workspaceSuffix(workspace string) string {
	if workspace == "" {
		return "global"
	}
	abs, err := filepath.Abs(workspace)
	if err != nil {
		abs = workspace
	}
	return base64.StdEncoding.EncodeToString([]byte(abs))
}

func scopedKey(base, workspace string) string {
	return base + ":" + workspaceSuffix(workspace)
}

// Get returns the credentials for a workspace: workspace-scoped entries win,
// then global entries, then the TRELLO_API_KEY / TRELLO_TOKEN environment.
// Missing credentials come back empty, not as an error.
func (s *Store) Get(workspace string) (Credentials, error) {
	m, err := s.read()
	if err != nil {
		return Credentials{}, err
	}

	creds := Credentials{
		APIKey: m[scopedKey(keyAPIKey, workspace)],
		Token:  m[scopedKey(keyToken, workspace)],
	}
	if creds.APIKey == "" && creds.Token == "" {
		creds = Credentials{APIKey: m[keyAPIKey], Token: m[keyToken]}
	}
	if creds.APIKey == "" {
		creds.APIKey = os.Getenv("TRELLO_API_KEY")
	}
	if creds.Token == "" {
		creds.Token = os.Getenv("TRELLO_TOKEN")
	}
	return creds, nil
}

// Set saves credentials. An empty workspace stores them globally.
func (s *Store) Set(workspace string, creds Credentials) error {
	m, err := s.read()
	if err != nil {
		return err
	}

	if workspace == "" {
		m[keyAPIKey] = creds.APIKey
		m[keyToken] = creds.Token
	} else {
		m[scopedKey(keyAPIKey, workspace)] = creds.APIKey
		m[scopedKey(keyToken, workspace)] = creds.Token
	}
	return s.write(m)
}

// Clear removes the credentials for a workspace (or the global pair).
func (s *Store) Clear(workspace string) error {
	m, err := s.read()
	if err != nil {
		return err
	}

	if workspace == "" {
		delete(m, keyAPIKey)
		delete(m, keyToken)
	} else {
		delete(m, scopedKey(keyAPIKey, workspace))
		delete(m, scopedKey(keyToken, workspace))
	}
	return s.write(m)
}

func (s *Store) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading secrets: %w", err)
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing secrets: %w", err)
	}
	return m, nil
}

func (s *Store) write(m map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating secrets directory: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling secrets: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing secrets: %w", err)
	}
	return nil
}
