// Package config loads todosync settings from the workspace config file
// (.todos/config.yaml) via viper, with TODOSYNC_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultTodosDir is the workspace-relative directory holding todos.json and
// config.yaml.
const DefaultTodosDir = ".todos"

// ConfigFileName is the settings file inside the todos directory.
const ConfigFileName = "config.yaml"

var v *viper.Viper

// Initialize sets up the viper instance for the given todos directory.
// A missing config file is not an error; defaults and env vars still apply.
func Initialize(todosDir string) error {
	nv := viper.New()
	nv.SetConfigName("config")
	nv.SetConfigType("yaml")
	nv.AddConfigPath(todosDir)

	nv.SetEnvPrefix("TODOSYNC")
	nv.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	nv.AutomaticEnv()

	nv.SetDefault("todos_dir", DefaultTodosDir)
	nv.SetDefault("export_dir", DefaultTodosDir)
	nv.SetDefault("trello.enabled", false)
	nv.SetDefault("trello.assigned_only", true)
	nv.SetDefault("trello.sync_interval_minutes", 0)
	nv.SetDefault("trello.sync_local_todos", false)

	if err := nv.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading %s: %w", filepath.Join(todosDir, ConfigFileName), err)
		}
	}

	v = nv
	return nil
}

// GetString returns a raw config value, empty when uninitialized.
func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

// Trello holds the board-sync settings consumed by the sync engine.
type Trello struct {
	Enabled             bool              `yaml:"enabled"`
	Board               string            `yaml:"board"`
	ListMapping         map[string]string `yaml:"list_mapping"`
	LabelMapping        map[string]string `yaml:"label_mapping"`
	AssignedUsername    string            `yaml:"assigned_username"`
	AssignedOnly        bool              `yaml:"assigned_only"`
	SyncIntervalMinutes int               `yaml:"sync_interval_minutes"`
	SyncLocalTodos      bool              `yaml:"sync_local_todos"`
}

// GetTrello reads the trello.* section.
func GetTrello() Trello {
	if v == nil {
		return Trello{AssignedOnly: true}
	}
	return Trello{
		Enabled:             v.GetBool("trello.enabled"),
		Board:               v.GetString("trello.board"),
		ListMapping:         v.GetStringMapString("trello.list_mapping"),
		LabelMapping:        v.GetStringMapString("trello.label_mapping"),
		AssignedUsername:    v.GetString("trello.assigned_username"),
		AssignedOnly:        v.GetBool("trello.assigned_only"),
		SyncIntervalMinutes: v.GetInt("trello.sync_interval_minutes"),
		SyncLocalTodos:      v.GetBool("trello.sync_local_todos"),
	}
}

// ExportDir returns the markdown export directory, workspace-relative.
func ExportDir() string {
	if dir := GetString("export_dir"); dir != "" {
		return normalizeDir(dir)
	}
	return DefaultTodosDir
}

var boardURLPattern = regexp.MustCompile(`trello\.com/b/([a-zA-Z0-9]+)`)

// ParseBoardID extracts a board id from a Trello board URL, or passes a raw
// id through. Empty when nothing is configured or the URL doesn't match.
func ParseBoardID(board string) string {
	trimmed := strings.TrimSpace(board)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "http") {
		m := boardURLPattern.FindStringSubmatch(trimmed)
		if m == nil {
			return ""
		}
		return m[1]
	}
	return trimmed
}

// File is the full config.yaml shape, used by `todosync init` to scaffold a
// commented starting point.
type File struct {
	TodosDir  string `yaml:"todos_dir"`
	ExportDir string `yaml:"export_dir"`
	Trello    Trello `yaml:"trello"`
}

// WriteDefault writes a default config.yaml into todosDir. Refuses to
// overwrite an existing file.
func WriteDefault(todosDir string) (string, error) {
	path := filepath.Join(todosDir, ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		return path, fmt.Errorf("%s already exists", path)
	}

	if err := os.MkdirAll(todosDir, 0o755); err != nil {
		return "", fmt.Errorf("creating todos directory: %w", err)
	}

	cfg := File{
		TodosDir:  DefaultTodosDir,
		ExportDir: DefaultTodosDir,
		Trello: Trello{
			AssignedOnly: true,
			ListMapping:  map[string]string{},
			LabelMapping: map[string]string{},
		},
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return "", fmt.Errorf("marshaling default config: %w", err)
	}

	header := "# todosync configuration. trello.board takes a board URL or raw id.\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0o600); err != nil {
		return "", fmt.Errorf("writing config: %w", err)
	}
	return path, nil
}

func normalizeDir(dir string) string {
	dir = strings.Trim(strings.TrimSpace(dir), "/\\")
	dir = strings.ReplaceAll(dir, "\\", "/")
	if dir == "" {
		return DefaultTodosDir
	}
	return dir
}
