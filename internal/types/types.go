// Package types defines core data structures for the todosync task store.
package types

import (
	"strings"
	"time"
)

// StatusPrefix is the label category that encodes a task's workflow status.
const StatusPrefix = "status:"

// StatusDone is the terminal status value. A task carrying status:done is
// equivalent to completed.
const StatusDone = "done"

// SectionNoStatus groups tasks that carry no status label.
const SectionNoStatus = "no-status"

// KnownSections lists the built-in board sections in display order. Unknown
// status values render after these.
var KnownSections = []string{"backlog", "planned", "in-progress", "blocked", "review", "no-status", "done"}

// Task is a local to-do record, optionally bound to a remote Trello card.
type Task struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Notes     string      `json:"notes,omitempty"`
	Files     []string    `json:"files,omitempty"`
	Subtasks  []Subtask   `json:"subtasks,omitempty"`
	Labels    []string    `json:"labels,omitempty"`
	Completed bool        `json:"completed"`
	Order     int         `json:"order"`
	CreatedAt string      `json:"createdAt"`
	UpdatedAt string      `json:"updatedAt"`
	Trello    *RemoteLink `json:"trello,omitempty"`
}

// Subtask is a checklist item under a task. Payload only; sync ignores it.
type Subtask struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// RemoteLink binds a task to a Trello card. Absence means local-only.
type RemoteLink struct {
	CardID       string   `json:"cardId"`
	ListID       string   `json:"listId,omitempty"`
	BoardID      string   `json:"boardId,omitempty"`
	CardURL      string   `json:"cardUrl,omitempty"`
	Assignees    []string `json:"assignees,omitempty"`
	LastSyncedAt string   `json:"lastSyncedAt,omitempty"`
}

// Status returns the task's status value (the part after "status:") and
// whether a status label is present. Status is stored as a plain label so the
// JSON file stays compatible with other consumers; everything above the store
// boundary should go through this accessor instead of re-parsing labels.
func (t *Task) Status() (string, bool) {
	return StatusFromLabels(t.Labels)
}

// SetStatus replaces any existing status label with status:<value>.
// An empty value just removes the status label.
func (t *Task) SetStatus(value string) {
	t.Labels = EnsureStatusLabel(t.Labels, value)
}

// SectionType returns the board section a task belongs to: "done" for
// completed tasks, the status value otherwise, or "no-status".
func (t *Task) SectionType() string {
	if t.Completed {
		return StatusDone
	}
	if v, ok := t.Status(); ok {
		return v
	}
	return SectionNoStatus
}

// StatusFromLabels extracts the status value from a label set.
func StatusFromLabels(labels []string) (string, bool) {
	for _, l := range labels {
		if strings.HasPrefix(l, StatusPrefix) {
			return strings.TrimPrefix(l, StatusPrefix), true
		}
	}
	return "", false
}

// NonStatusLabels returns the labels that are not status labels.
func NonStatusLabels(labels []string) []string {
	var out []string
	for _, l := range labels {
		if !strings.HasPrefix(l, StatusPrefix) {
			out = append(out, l)
		}
	}
	return out
}

// EnsureStatusLabel returns the label set with exactly one status label
// (status:<value>), or none when value is empty.
func EnsureStatusLabel(labels []string, value string) []string {
	out := NonStatusLabels(labels)
	if value != "" {
		out = append(out, StatusPrefix+value)
	}
	return out
}

// ParseTime parses an ISO-8601 timestamp as stored in the todos file.
// Returns the zero time on empty or malformed input, matching the reference
// behavior of treating missing timestamps as epoch.
func ParseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// FormatTime renders a timestamp the way the store file expects.
func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
