// Package store implements the workspace task store: a single JSON file
// holding an ordered list of tasks. Callers assume single-writer semantics;
// the sync orchestrator serializes its own writes behind an in-progress guard.
package store

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/todosync/todosync/internal/types"
)

// FileName is the fixed name of the store file inside the todos directory.
const FileName = "todos.json"

var (
	ErrNotFound = errors.New("task not found")

	timeNow = func() time.Time { return time.Now().UTC() }
)

type randReader struct{}

func (randReader) Read(p []byte) (int, error) { return rand.Read(p) }

// File is the on-disk shape of the store: {"todos": [...]}.
type File struct {
	Todos []*types.Task `json:"todos"`
}

// Store reads and writes the todos file under a workspace directory.
type Store struct {
	path string
}

// New creates a store for the given todos directory (e.g. "<workspace>/.todos").
func New(dir string) *Store {
	return &Store{path: filepath.Join(dir, FileName)}
}

// Path returns the absolute-or-relative path of the backing file.
func (s *Store) Path() string {
	return s.path
}

// Load reads the store file. A missing file yields an empty store. Tasks
// without an order value get one assigned per section (migration from older
// files), which is persisted immediately.
func (s *Store) Load() (*File, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &File{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading todos file: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing todos file: %w", err)
	}

	if s.migrateOrder(&f) {
		if err := s.Save(&f); err != nil {
			return nil, err
		}
	}

	return &f, nil
}

// Save writes the store file, creating the todos directory on demand.
func (s *Store) Save(f *File) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating todos directory: %w", err)
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling todos: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing todos file: %w", err)
	}
	return nil
}

// migrateOrder assigns order values to tasks that lack one, keyed off a zero
// order on a task that is not first in its section. Returns true when
// anything changed.
func (s *Store) migrateOrder(f *File) bool {
	bySection := map[string][]*types.Task{}
	var sections []string
	for _, task := range f.Todos {
		sec := task.SectionType()
		if _, seen := bySection[sec]; !seen {
			sections = append(sections, sec)
		}
		bySection[sec] = append(bySection[sec], task)
	}

	changed := false
	for si, sec := range sections {
		for i, task := range bySection[sec] {
			if task.Order == 0 && i > 0 {
				task.Order = si*10000 + i
				changed = true
			}
		}
	}
	return changed
}

// NewID generates a workspace-unique task id.
func NewID() string {
	return ulid.MustNew(ulid.Timestamp(timeNow()), ulid.Monotonic(randReader{}, 0)).String()
}

// CreateParams holds the caller-supplied fields for a new task.
type CreateParams struct {
	Title    string
	Notes    string
	Files    []string
	Subtasks []types.Subtask
	Labels   []string
}

// Create appends a new task at the end of its section and persists the store.
func (s *Store) Create(p CreateParams) (*types.Task, error) {
	f, err := s.Load()
	if err != nil {
		return nil, err
	}

	now := types.FormatTime(timeNow())
	task := &types.Task{
		ID:        NewID(),
		Title:     p.Title,
		Notes:     p.Notes,
		Files:     p.Files,
		Subtasks:  p.Subtasks,
		Labels:    p.Labels,
		CreatedAt: now,
		UpdatedAt: now,
	}
	task.Order = NextOrder(f.Todos, task.SectionType())

	f.Todos = append(f.Todos, task)
	if err := s.Save(f); err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateFields describes a partial task update. Nil fields are left untouched.
type UpdateFields struct {
	Title    *string
	Notes    *string
	Files    []string
	Subtasks []types.Subtask
	Labels   []string
	Order    *int
}

// Update applies a partial update, bumps updatedAt, and persists the store.
func (s *Store) Update(id string, fields UpdateFields) (*types.Task, error) {
	f, err := s.Load()
	if err != nil {
		return nil, err
	}

	task := findTask(f.Todos, id)
	if task == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if fields.Title != nil {
		task.Title = *fields.Title
	}
	if fields.Notes != nil {
		task.Notes = *fields.Notes
	}
	if fields.Files != nil {
		task.Files = fields.Files
	}
	if fields.Subtasks != nil {
		task.Subtasks = fields.Subtasks
	}
	if fields.Labels != nil {
		task.Labels = fields.Labels
	}
	if fields.Order != nil {
		task.Order = *fields.Order
	}
	task.UpdatedAt = types.FormatTime(timeNow())

	if err := s.Save(f); err != nil {
		return nil, err
	}
	return task, nil
}

// Delete removes a task by id and persists the store.
func (s *Store) Delete(id string) error {
	f, err := s.Load()
	if err != nil {
		return err
	}

	kept := f.Todos[:0]
	for _, task := range f.Todos {
		if task.ID != id {
			kept = append(kept, task)
		}
	}
	if len(kept) == len(f.Todos) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	f.Todos = kept
	return s.Save(f)
}

// ToggleComplete flips completion. Completing a task replaces its status
// label with status:done; uncompleting removes all status labels.
func (s *Store) ToggleComplete(id string) (*types.Task, error) {
	f, err := s.Load()
	if err != nil {
		return nil, err
	}

	task := findTask(f.Todos, id)
	if task == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	task.Completed = !task.Completed
	if task.Completed {
		task.SetStatus(types.StatusDone)
	} else {
		task.SetStatus("")
	}
	task.UpdatedAt = types.FormatTime(timeNow())

	if err := s.Save(f); err != nil {
		return nil, err
	}
	return task, nil
}

// BySection returns the tasks in one section, sorted by order.
func (s *Store) BySection(section string) ([]*types.Task, error) {
	f, err := s.Load()
	if err != nil {
		return nil, err
	}
	var out []*types.Task
	for _, task := range f.Todos {
		if task.SectionType() == section {
			out = append(out, task)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

// NextOrder returns an order value one past the section's current maximum.
func NextOrder(todos []*types.Task, section string) int {
	max := 0
	found := false
	for _, task := range todos {
		if task.SectionType() == section {
			found = true
			if task.Order > max {
				max = task.Order
			}
		}
	}
	if !found {
		if base := sectionBase(section); base >= 0 {
			return base
		}
		return 1
	}
	return max + 1
}

func sectionBase(section string) int {
	for i, s := range types.KnownSections {
		if s == section {
			return i * 10000
		}
	}
	return -1
}

func findTask(todos []*types.Task, id string) *types.Task {
	for _, task := range todos {
		if task.ID == id {
			return task
		}
	}
	return nil
}
