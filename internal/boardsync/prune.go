package boardsync

import (
	"context"
	"fmt"
)

// Prune removes bound tasks whose card no longer exists on the active board.
// Tasks bound to other boards and local-only tasks are left alone. Returns
// the number of tasks removed.
func (e *Engine) Prune(ctx context.Context) (int, error) {
	cards, err := e.Client.GetBoardCards(ctx, e.BoardID)
	if err != nil {
		return 0, fmt.Errorf("fetching board %s: %w", e.BoardID, err)
	}

	cardIDs := make(map[string]bool, len(cards))
	for _, c := range cards {
		cardIDs[c.ID] = true
	}

	f, err := e.Store.Load()
	if err != nil {
		return 0, fmt.Errorf("loading task store: %w", err)
	}

	kept := f.Todos[:0]
	for _, task := range f.Todos {
		switch {
		case task.Trello == nil || task.Trello.CardID == "":
			kept = append(kept, task)
		case task.Trello.BoardID != "" && task.Trello.BoardID != e.BoardID:
			kept = append(kept, task)
		case cardIDs[task.Trello.CardID]:
			kept = append(kept, task)
		}
	}

	removed := len(f.Todos) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	f.Todos = kept
	if err := e.Store.Save(f); err != nil {
		return 0, fmt.Errorf("saving task store: %w", err)
	}
	if e.OnRefresh != nil {
		e.OnRefresh()
	}
	return removed, nil
}
