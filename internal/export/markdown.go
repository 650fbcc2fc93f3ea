// Package export renders the task store as a markdown checklist.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/todosync/todosync/internal/store"
	"github.com/todosync/todosync/internal/types"
)

// FileName is the markdown file written into the export directory.
const FileName = "todos.md"

// ErrEmpty is returned when there is nothing to export.
var ErrEmpty = errors.New("no todos found to export")

// Summary reports what an export produced.
type Summary struct {
	Path        string
	Total       int
	Completed   int
	Uncompleted int
}

// WriteFile renders the store to <dir>/todos.md.
func WriteFile(f *store.File, dir string) (*Summary, error) {
	if len(f.Todos) == 0 {
		return nil, ErrEmpty
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}

	md, summary := Render(f, time.Now())
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}
	summary.Path = path
	return summary, nil
}

// Render produces the markdown document: active tasks grouped by status
// (In Progress first), a No Status group, then completed tasks. Tasks keep
// their drag-and-drop order within each group.
func Render(f *store.File, generatedAt time.Time) (string, *Summary) {
	todos := make([]*types.Task, len(f.Todos))
	copy(todos, f.Todos)
	sort.SliceStable(todos, func(i, j int) bool { return todos[i].Order < todos[j].Order })

	var active, completed []*types.Task
	for _, t := range todos {
		if t.SectionType() == types.StatusDone {
			completed = append(completed, t)
		} else {
			active = append(active, t)
		}
	}

	var b strings.Builder
	b.WriteString("# To-Do List\n\n")
	fmt.Fprintf(&b, "*Generated on %s*\n\n", generatedAt.Format("2006-01-02 15:04"))

	if len(active) > 0 {
		b.WriteString("## Active Tasks\n\n")

		byStatus := map[string][]*types.Task{}
		var noStatus []*types.Task
		for _, t := range active {
			if status, ok := t.Status(); ok {
				byStatus[status] = append(byStatus[status], t)
			} else {
				noStatus = append(noStatus, t)
			}
		}

		for _, status := range statusOrder(byStatus) {
			fmt.Fprintf(&b, "### %s\n\n", sectionTitle(status))
			for _, t := range byStatus[status] {
				renderTask(&b, t, false)
			}
		}
		if len(noStatus) > 0 {
			b.WriteString("### No Status\n\n")
			for _, t := range noStatus {
				renderTask(&b, t, false)
			}
		}
	}

	if len(completed) > 0 {
		b.WriteString("## Completed Tasks\n\n")
		for _, t := range completed {
			renderTask(&b, t, true)
		}
	}

	return b.String(), &Summary{
		Total:       len(todos),
		Completed:   len(completed),
		Uncompleted: len(active),
	}
}

// statusOrder yields the statuses present, In Progress first, then the other
// built-in sections in display order, then anything else alphabetically.
func statusOrder(byStatus map[string][]*types.Task) []string {
	var out []string
	seen := map[string]bool{}

	if _, ok := byStatus["in-progress"]; ok {
		out = append(out, "in-progress")
		seen["in-progress"] = true
	}
	for _, s := range types.KnownSections {
		if s == types.StatusDone || s == types.SectionNoStatus || seen[s] {
			continue
		}
		if _, ok := byStatus[s]; ok {
			out = append(out, s)
			seen[s] = true
		}
	}

	var rest []string
	for s := range byStatus {
		if !seen[s] {
			rest = append(rest, s)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func sectionTitle(status string) string {
	words := strings.Split(status, "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func renderTask(b *strings.Builder, t *types.Task, done bool) {
	box := " "
	if done {
		box = "x"
	}

	title := t.Title
	if title == "" {
		title = t.Notes
	}
	if title == "" {
		title = "Untitled"
	}
	fmt.Fprintf(b, "- [%s] %s\n", box, escapeTitle(title))

	if t.Notes != "" && t.Title != "" && t.Notes != t.Title {
		lines := strings.Split(t.Notes, "\n")
		fmt.Fprintf(b, "  - %s", lines[0])
		for _, line := range lines[1:] {
			fmt.Fprintf(b, "\n    %s", line)
		}
		b.WriteString("\n")
	}

	for _, st := range t.Subtasks {
		subBox := " "
		if st.Completed {
			subBox = "x"
		}
		text := st.Text
		if text == "" {
			text = "Untitled subtask"
		}
		fmt.Fprintf(b, "  - [%s] %s\n", subBox, escapeTitle(text))
	}

	var labels []string
	if done {
		for _, l := range t.Labels {
			if l != types.StatusPrefix+types.StatusDone {
				labels = append(labels, l)
			}
		}
	} else {
		labels = types.NonStatusLabels(t.Labels)
	}
	if len(labels) > 0 {
		fmt.Fprintf(b, "  - *Labels*: %s\n", formatLabels(labels))
	}

	if len(t.Files) > 0 {
		b.WriteString("  *Related Files*:\n")
		for _, f := range t.Files {
			fmt.Fprintf(b, "  %s\n", f)
		}
	}

	b.WriteString("\n")
}

// formatLabels renders "category:value" labels with the value in backticks.
func formatLabels(labels []string) string {
	parts := make([]string, len(labels))
	for i, l := range labels {
		key, value, found := strings.Cut(l, ":")
		if !found {
			parts[i] = l
			continue
		}
		parts[i] = fmt.Sprintf("%s:`%s`", key, value)
	}
	return strings.Join(parts, ", ")
}

// escapeTitle keeps a title on one checkbox line: newlines become spaces and
// brackets are escaped so they cannot break the checkbox format.
func escapeTitle(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "[", `\[`)
	return strings.ReplaceAll(s, "]", `\]`)
}
