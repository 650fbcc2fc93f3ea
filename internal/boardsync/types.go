// Package boardsync reconciles the workspace task store against a Trello
// board and owns the scheduling around it: debounced file-change triggers,
// interval syncs, manual passes, and suppression of the engine's own writes.
package boardsync

import (
	"context"

	"github.com/todosync/todosync/internal/store"
	"github.com/todosync/todosync/internal/trello"
)

// BoardAPI is the slice of the Trello client the sync engine calls. Tests
// substitute a mock board.
type BoardAPI interface {
	GetBoardLists(ctx context.Context, boardID string) ([]trello.List, error)
	GetBoardCards(ctx context.Context, boardID string) ([]trello.Card, error)
	GetBoardMembers(ctx context.Context, boardID string) ([]trello.Member, error)
	GetBoardLabels(ctx context.Context, boardID string) ([]trello.Label, error)
	CreateCard(ctx context.Context, p trello.CreateCardParams) (*trello.Card, error)
	UpdateCard(ctx context.Context, cardID string, p trello.UpdateCardParams) (*trello.Card, error)
}

// TaskStore is the task-store surface the engine consumes.
type TaskStore interface {
	Load() (*store.File, error)
	Save(f *store.File) error
	Path() string
}

// Stats accumulates what one pass did.
type Stats struct {
	Created   int `json:"created"`   // tasks synthesized from remote cards
	Updated   int `json:"updated"`   // tasks overwritten by pull
	Pushed    int `json:"pushed"`    // cards updated or created from tasks
	Removed   int `json:"removed"`   // tasks dropped by the assigned-only filter
	Excluded  int `json:"excluded"`  // cards hidden by the assigned-only filter
	Conflicts int `json:"conflicts"` // both sides changed; timestamp decided
}

// Result is the outcome of one reconciliation pass.
type Result struct {
	Stats   Stats `json:"stats"`
	Changed bool  `json:"changed"` // whether the store was persisted
}
