package store

import (
	"sort"

	"github.com/todosync/todosync/internal/types"
)

// Reorder moves the given tasks to targetIndex within targetSection,
// rewriting status labels and completion when the move crosses sections, and
// reassigns order values for the whole target section. sourceSection may be
// empty when reordering within one section.
func (s *Store) Reorder(ids []string, targetIndex int, targetSection, sourceSection string) error {
	f, err := s.Load()
	if err != nil {
		return err
	}

	moving := make([]*types.Task, 0, len(ids))
	idSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		if task := findTask(f.Todos, id); task != nil {
			moving = append(moving, task)
			idSet[id] = true
		}
	}
	if len(moving) == 0 {
		return nil
	}

	var rest []*types.Task
	for _, task := range f.Todos {
		if !idSet[task.ID] {
			rest = append(rest, task)
		}
	}

	if sourceSection != "" && sourceSection != targetSection {
		now := types.FormatTime(timeNow())
		for _, task := range moving {
			switch {
			case targetSection == types.StatusDone:
				task.Completed = true
				task.SetStatus(types.StatusDone)
			case targetSection == types.SectionNoStatus:
				task.SetStatus("")
			default:
				task.SetStatus(targetSection)
			}
			if sourceSection == types.StatusDone && targetSection != types.StatusDone {
				task.Completed = false
			}
			task.UpdatedAt = now
		}
	}

	var inTarget, other []*types.Task
	for _, task := range rest {
		if task.SectionType() == targetSection {
			inTarget = append(inTarget, task)
		} else {
			other = append(other, task)
		}
	}
	sortByOrder(inTarget)

	if targetIndex < 0 {
		targetIndex = 0
	}
	if targetIndex > len(inTarget) {
		targetIndex = len(inTarget)
	}
	before := inTarget[:targetIndex]
	after := inTarget[targetIndex:]

	base := sectionBase(targetSection)
	if base < 0 {
		base = 100000
	}
	idx := 0
	for _, group := range [][]*types.Task{before, moving, after} {
		for _, task := range group {
			task.Order = base + idx
			idx++
		}
	}

	merged := make([]*types.Task, 0, len(f.Todos))
	merged = append(merged, other...)
	merged = append(merged, before...)
	merged = append(merged, moving...)
	merged = append(merged, after...)
	sortByOrder(merged)
	f.Todos = merged

	return s.Save(f)
}

func sortByOrder(todos []*types.Task) {
	sort.SliceStable(todos, func(i, j int) bool { return todos[i].Order < todos[j].Order })
}
