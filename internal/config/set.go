package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Set updates a single key in config.yaml, creating the file if needed.
// Supported keys are the flat set the engine consumes; mapping tables
// (trello.list_mapping.<name>, trello.label_mapping.<name>) take the tail of
// the key as the map entry.
func Set(todosDir, key, value string) error {
	path := filepath.Join(todosDir, ConfigFileName)

	cfg := File{TodosDir: DefaultTodosDir, ExportDir: DefaultTodosDir, Trello: Trello{AssignedOnly: true}}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if err := applyKey(&cfg, key, value); err != nil {
		return err
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.MkdirAll(todosDir, 0o755); err != nil {
		return fmt.Errorf("creating todos directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Keep the live viper instance in step with the file.
	return Initialize(todosDir)
}

func applyKey(cfg *File, key, value string) error {
	switch key {
	case "todos_dir":
		cfg.TodosDir = value
	case "export_dir":
		cfg.ExportDir = value
	case "trello.enabled":
		return parseBool(value, &cfg.Trello.Enabled)
	case "trello.board":
		cfg.Trello.Board = value
	case "trello.assigned_username":
		cfg.Trello.AssignedUsername = value
	case "trello.assigned_only":
		return parseBool(value, &cfg.Trello.AssignedOnly)
	case "trello.sync_local_todos":
		return parseBool(value, &cfg.Trello.SyncLocalTodos)
	case "trello.sync_interval_minutes":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s wants an integer, got %q", key, value)
		}
		cfg.Trello.SyncIntervalMinutes = n
	default:
		if name, ok := strings.CutPrefix(key, "trello.list_mapping."); ok {
			if cfg.Trello.ListMapping == nil {
				cfg.Trello.ListMapping = map[string]string{}
			}
			cfg.Trello.ListMapping[name] = value
			return nil
		}
		if name, ok := strings.CutPrefix(key, "trello.label_mapping."); ok {
			if cfg.Trello.LabelMapping == nil {
				cfg.Trello.LabelMapping = map[string]string{}
			}
			cfg.Trello.LabelMapping[name] = value
			return nil
		}
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

func parseBool(value string, dst *bool) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("want true/false, got %q", value)
	}
	*dst = b
	return nil
}
