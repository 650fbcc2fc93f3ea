package boardsync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/todosync/todosync/internal/config"
	"github.com/todosync/todosync/internal/store"
	"github.com/todosync/todosync/internal/trello"
	"github.com/todosync/todosync/internal/types"
)

// mockBoard implements BoardAPI for testing.
type mockBoard struct {
	lists   []trello.List
	cards   []trello.Card
	members []trello.Member
	labels  []trello.Label

	updates   map[string]trello.UpdateCardParams
	created   []trello.CreateCardParams
	fetchErr  error
	updateErr error
	createErr error
}

func newMockBoard() *mockBoard {
	return &mockBoard{updates: map[string]trello.UpdateCardParams{}}
}

func (m *mockBoard) GetBoardLists(_ context.Context, _ string) ([]trello.List, error) {
	return m.lists, m.fetchErr
}

func (m *mockBoard) GetBoardCards(_ context.Context, _ string) ([]trello.Card, error) {
	return m.cards, m.fetchErr
}

func (m *mockBoard) GetBoardMembers(_ context.Context, _ string) ([]trello.Member, error) {
	return m.members, m.fetchErr
}

func (m *mockBoard) GetBoardLabels(_ context.Context, _ string) ([]trello.Label, error) {
	return m.labels, m.fetchErr
}

func (m *mockBoard) CreateCard(_ context.Context, p trello.CreateCardParams) (*trello.Card, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created = append(m.created, p)
	return &trello.Card{
		ID:     "card-new",
		Name:   p.Name,
		Desc:   p.Desc,
		ListID: p.ListID,
		URL:    "https://trello.com/c/card-new",
	}, nil
}

func (m *mockBoard) UpdateCard(_ context.Context, cardID string, p trello.UpdateCardParams) (*trello.Card, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	m.updates[cardID] = p
	return &trello.Card{ID: cardID}, nil
}

// memStore implements TaskStore in memory.
type memStore struct {
	file      store.File
	saveCount int
	loadErr   error
	saveErr   error
}

func (s *memStore) Load() (*store.File, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	cp := store.File{Todos: append([]*types.Task(nil), s.file.Todos...)}
	return &cp, nil
}

func (s *memStore) Save(f *store.File) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.file = *f
	s.saveCount++
	return nil
}

func (s *memStore) Path() string { return "mem/todos.json" }

var passTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(board *mockBoard, st *memStore, cfg config.Trello) *Engine {
	return &Engine{
		Client:  board,
		Store:   st,
		Config:  cfg,
		BoardID: "board1",
		Now:     func() time.Time { return passTime },
	}
}

func boundTask(id, cardID, updatedAt, lastSyncedAt string) *types.Task {
	return &types.Task{
		ID:        id,
		Title:     "Fix bug",
		Labels:    []string{"status:in-progress"},
		CreatedAt: "2024-01-01T00:00:00.000Z",
		UpdatedAt: updatedAt,
		Trello: &types.RemoteLink{
			CardID:       cardID,
			ListID:       "l1",
			BoardID:      "board1",
			LastSyncedAt: lastSyncedAt,
		},
	}
}

func TestPullCreatesTaskFromCard(t *testing.T) {
	board := newMockBoard()
	board.lists = []trello.List{{ID: "l1", Name: "In Progress"}}
	board.members = []trello.Member{{ID: "m1", Username: "alice"}}
	board.cards = []trello.Card{{
		ID:               "c1",
		Name:             "New card",
		Desc:             "details",
		ListID:           "l1",
		MemberIDs:        []string{"m1"},
		Labels:           []trello.Label{{ID: "lb1", Name: "Bug"}},
		DateLastActivity: "2024-02-01T00:00:00.000Z",
		URL:              "https://trello.com/c/c1",
	}}
	st := &memStore{}

	eng := newTestEngine(board, st, config.Trello{
		Enabled:      true,
		LabelMapping: map[string]string{"Bug": "type:bug"},
	})

	res, err := eng.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res.Stats.Created != 1 || !res.Changed {
		t.Fatalf("expected one created task, got %+v", res)
	}
	if st.saveCount != 1 {
		t.Fatalf("expected one save, got %d", st.saveCount)
	}

	task := st.file.Todos[0]
	if task.Title != "New card" || task.Notes != "details" {
		t.Errorf("task fields not copied: %+v", task)
	}
	if status, _ := task.Status(); status != "in-progress" {
		t.Errorf("status = %q, want in-progress (slug of list name)", status)
	}
	if !contains(task.Labels, "type:bug") {
		t.Errorf("mapped label missing: %v", task.Labels)
	}
	if task.Trello == nil || task.Trello.CardID != "c1" || task.Trello.BoardID != "board1" {
		t.Errorf("remote link not bound: %+v", task.Trello)
	}
	if task.Trello.LastSyncedAt != types.FormatTime(passTime) {
		t.Errorf("lastSyncedAt = %q, want pass time", task.Trello.LastSyncedAt)
	}
	if !contains(task.Trello.Assignees, "alice") {
		t.Errorf("assignees = %v", task.Trello.Assignees)
	}
}

func TestPullOverwritesWhenRemoteNewer(t *testing.T) {
	// The walkthrough scenario: task and card both synced at T0, card
	// touched at T0+1d. Pull wins, title comes over, lastSyncedAt advances.
	board := newMockBoard()
	board.lists = []trello.List{{ID: "l1", Name: "In Progress"}}
	board.cards = []trello.Card{{
		ID:               "c1",
		Name:             "Fix bug NOW",
		ListID:           "l1",
		DateLastActivity: "2024-01-02T00:00:00.000Z",
	}}
	st := &memStore{file: store.File{Todos: []*types.Task{
		boundTask("t1", "c1", "2024-01-01T00:00:00.000Z", "2024-01-01T00:00:00.000Z"),
	}}}

	eng := newTestEngine(board, st, config.Trello{Enabled: true})
	res, err := eng.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res.Stats.Updated != 1 {
		t.Fatalf("expected pull update, got %+v", res.Stats)
	}

	task := st.file.Todos[0]
	if task.Title != "Fix bug NOW" {
		t.Errorf("title = %q, want Fix bug NOW", task.Title)
	}
	if task.Trello.LastSyncedAt != types.FormatTime(passTime) {
		t.Errorf("lastSyncedAt = %q, want pass time", task.Trello.LastSyncedAt)
	}
	if len(board.updates) != 0 {
		t.Errorf("pull must not push: %v", board.updates)
	}
}

func TestTieBreakEqualTimestampsPulls(t *testing.T) {
	// Local and card changed at exactly the same instant: the card wins.
	board := newMockBoard()
	board.lists = []trello.List{{ID: "l1", Name: "In Progress"}}
	board.cards = []trello.Card{{
		ID:               "c1",
		Name:             "remote title",
		ListID:           "l1",
		DateLastActivity: "2024-01-02T00:00:00.000Z",
	}}
	st := &memStore{file: store.File{Todos: []*types.Task{
		boundTask("t1", "c1", "2024-01-02T00:00:00.000Z", "2024-01-01T00:00:00.000Z"),
	}}}

	eng := newTestEngine(board, st, config.Trello{Enabled: true})
	if _, err := eng.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	if st.file.Todos[0].Title != "remote title" {
		t.Errorf("equal timestamps should pull; title = %q", st.file.Todos[0].Title)
	}
	if len(board.updates) != 0 {
		t.Errorf("equal timestamps must not push: %v", board.updates)
	}
}

func TestTieBreakStrictlyNewerLocalPushes(t *testing.T) {
	// Local is 1ms newer than the card: the local edit is pushed and the
	// local copy is not overwritten.
	board := newMockBoard()
	board.lists = []trello.List{{ID: "l1", Name: "In Progress"}}
	board.cards = []trello.Card{{
		ID:               "c1",
		Name:             "remote title",
		ListID:           "l1",
		DateLastActivity: "2024-01-02T00:00:00.000Z",
	}}
	local := boundTask("t1", "c1", "2024-01-02T00:00:00.001Z", "2024-01-01T00:00:00.000Z")
	local.Title = "local title"
	st := &memStore{file: store.File{Todos: []*types.Task{local}}}

	eng := newTestEngine(board, st, config.Trello{Enabled: true})
	res, err := eng.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}

	if st.file.Todos[0].Title != "local title" {
		t.Errorf("local title overwritten to %q", st.file.Todos[0].Title)
	}
	update, ok := board.updates["c1"]
	if !ok {
		t.Fatal("expected updateCard for c1")
	}
	if update.Name == nil || *update.Name != "local title" {
		t.Errorf("pushed name = %v", update.Name)
	}
	if res.Stats.Conflicts != 1 {
		t.Errorf("both sides changed; conflicts = %d, want 1", res.Stats.Conflicts)
	}
	if st.file.Todos[0].Trello.LastSyncedAt != types.FormatTime(passTime) {
		t.Errorf("push should refresh lastSyncedAt")
	}
}

func TestIdempotentSecondPass(t *testing.T) {
	board := newMockBoard()
	board.lists = []trello.List{{ID: "l1", Name: "Backlog"}}
	board.cards = []trello.Card{{
		ID:               "c1",
		Name:             "card",
		ListID:           "l1",
		DateLastActivity: "2024-01-01T00:00:00.000Z",
	}}
	st := &memStore{}

	eng := newTestEngine(board, st, config.Trello{Enabled: true})
	first, err := eng.Sync(context.Background())
	if err != nil {
		t.Fatalf("first Sync: %v", err)
	}
	if !first.Changed {
		t.Fatal("first pass should synthesize a task")
	}

	second, err := eng.Sync(context.Background())
	if err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	if second.Changed {
		t.Errorf("second pass should be a no-op diff, got %+v", second.Stats)
	}
	if st.saveCount != 1 {
		t.Errorf("second pass must not persist; saves = %d", st.saveCount)
	}
	if len(board.updates) != 0 || len(board.created) != 0 {
		t.Errorf("second pass issued remote mutations: %v %v", board.updates, board.created)
	}
}

func TestAssignedOnlyFilter(t *testing.T) {
	board := newMockBoard()
	board.lists = []trello.List{{ID: "l1", Name: "Doing"}}
	board.members = []trello.Member{{ID: "m-bob", Username: "bob"}}
	board.cards = []trello.Card{{
		ID:               "c1",
		Name:             "bob's card",
		ListID:           "l1",
		MemberIDs:        []string{"m-bob"},
		DateLastActivity: "2024-01-01T00:00:00.000Z",
	}}

	otherBoard := boundTask("t2", "c-other", "2024-01-01T00:00:00.000Z", "2024-01-01T00:00:00.000Z")
	otherBoard.Trello.BoardID = "board2"
	st := &memStore{file: store.File{Todos: []*types.Task{
		boundTask("t1", "c1", "2024-01-01T00:00:00.000Z", "2024-01-01T00:00:00.000Z"),
		otherBoard,
	}}}

	eng := newTestEngine(board, st, config.Trello{
		Enabled:          true,
		AssignedOnly:     true,
		AssignedUsername: "alice",
	})
	res, err := eng.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}

	if res.Stats.Excluded != 1 || res.Stats.Removed != 1 {
		t.Fatalf("stats = %+v, want 1 excluded / 1 removed", res.Stats)
	}
	if len(st.file.Todos) != 1 {
		t.Fatalf("todos = %d, want only the other-board task kept", len(st.file.Todos))
	}
	if st.file.Todos[0].ID != "t2" {
		t.Errorf("kept task = %s, want t2 (different board, never touched)", st.file.Todos[0].ID)
	}
	if res.Stats.Created != 0 {
		t.Errorf("excluded card must not produce a local task")
	}
}

func TestPushLocalOnlyTaskCreatesCard(t *testing.T) {
	board := newMockBoard()
	board.lists = []trello.List{{ID: "l1", Name: "Backlog"}, {ID: "l2", Name: "Review"}}
	board.members = []trello.Member{{ID: "m1", Username: "alice"}}
	board.labels = []trello.Label{{ID: "lb1", Name: "Bug"}}

	local := &types.Task{
		ID:        "t1",
		Title:     "local task",
		Notes:     "notes",
		Labels:    []string{"status:review", "type:bug"},
		UpdatedAt: "2024-01-01T00:00:00.000Z",
	}
	st := &memStore{file: store.File{Todos: []*types.Task{local}}}

	eng := newTestEngine(board, st, config.Trello{
		Enabled:          true,
		SyncLocalTodos:   true,
		AssignedUsername: "alice",
		LabelMapping:     map[string]string{"Bug": "type:bug"},
	})
	res, err := eng.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}

	if len(board.created) != 1 {
		t.Fatalf("expected one createCard, got %d", len(board.created))
	}
	created := board.created[0]
	if created.ListID != "l2" {
		t.Errorf("list = %s, want l2 (slug of Review)", created.ListID)
	}
	if len(created.MemberIDs) != 1 || created.MemberIDs[0] != "m1" {
		t.Errorf("memberIDs = %v", created.MemberIDs)
	}
	if len(created.LabelIDs) != 1 || created.LabelIDs[0] != "lb1" {
		t.Errorf("labelIDs = %v", created.LabelIDs)
	}

	task := st.file.Todos[0]
	if task.Trello == nil || task.Trello.CardID != "card-new" || task.Trello.BoardID != "board1" {
		t.Errorf("task not bound after create: %+v", task.Trello)
	}
	if !contains(task.Trello.Assignees, "alice") {
		t.Errorf("assignees = %v", task.Trello.Assignees)
	}
	if res.Stats.Pushed != 1 {
		t.Errorf("pushed = %d", res.Stats.Pushed)
	}
}

func TestPushOmitsListWhenUnresolvable(t *testing.T) {
	// Every list on the board is archived: the push still goes out, but
	// without an idList so the card stays where it is.
	board := newMockBoard()
	board.cards = []trello.Card{{
		ID:               "c1",
		Name:             "remote title",
		ListID:           "l-archived",
		DateLastActivity: "2024-01-01T00:00:00.000Z",
	}}
	local := boundTask("t1", "c1", "2024-01-03T00:00:00.000Z", "2024-01-02T00:00:00.000Z")
	st := &memStore{file: store.File{Todos: []*types.Task{local}}}

	eng := newTestEngine(board, st, config.Trello{Enabled: true})
	if _, err := eng.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	update, ok := board.updates["c1"]
	if !ok {
		t.Fatal("expected updateCard for c1")
	}
	if update.ListID != nil {
		t.Errorf("idList should be omitted when no list resolves, got %q", *update.ListID)
	}
	if st.file.Todos[0].Trello.ListID != "l-archived" {
		t.Errorf("task list binding should keep the card's list, got %q", st.file.Todos[0].Trello.ListID)
	}
}

func TestPushLocalOnlySkippedWithoutList(t *testing.T) {
	board := newMockBoard() // no open lists at all
	st := &memStore{file: store.File{Todos: []*types.Task{{
		ID: "t1", Title: "local", UpdatedAt: "2024-01-01T00:00:00.000Z",
	}}}}

	eng := newTestEngine(board, st, config.Trello{Enabled: true, SyncLocalTodos: true})
	res, err := eng.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if len(board.created) != 0 || res.Changed {
		t.Errorf("no list resolvable: nothing should happen, got %+v", res)
	}
}

func TestAssigneeOnlyChangeDoesNotBumpSyncTime(t *testing.T) {
	board := newMockBoard()
	board.lists = []trello.List{{ID: "l1", Name: "In Progress"}}
	board.members = []trello.Member{{ID: "m1", Username: "alice"}}
	board.cards = []trello.Card{{
		ID:               "c1",
		Name:             "Fix bug",
		ListID:           "l1",
		MemberIDs:        []string{"m1"},
		DateLastActivity: "2024-01-01T00:00:00.000Z", // not newer than lastSyncedAt
	}}
	st := &memStore{file: store.File{Todos: []*types.Task{
		boundTask("t1", "c1", "2024-01-01T00:00:00.000Z", "2024-01-01T00:00:00.000Z"),
	}}}

	eng := newTestEngine(board, st, config.Trello{Enabled: true})
	res, err := eng.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}

	task := st.file.Todos[0]
	if !contains(task.Trello.Assignees, "alice") {
		t.Fatalf("assignees not refreshed: %v", task.Trello.Assignees)
	}
	if task.Trello.LastSyncedAt != "2024-01-01T00:00:00.000Z" {
		t.Errorf("assignee-only refresh must not bump lastSyncedAt, got %q", task.Trello.LastSyncedAt)
	}
	if !res.Changed {
		t.Error("assignee refresh should persist")
	}
}

func TestFailedFetchAbortsBeforeWrite(t *testing.T) {
	board := newMockBoard()
	board.fetchErr = errors.New("boom")
	st := &memStore{}

	eng := newTestEngine(board, st, config.Trello{Enabled: true})
	if _, err := eng.Sync(context.Background()); err == nil {
		t.Fatal("expected fetch error")
	}
	if st.saveCount != 0 {
		t.Errorf("failed pass must not persist")
	}
}

func TestFailedUpdateAbortsPass(t *testing.T) {
	board := newMockBoard()
	board.lists = []trello.List{{ID: "l1", Name: "In Progress"}}
	board.cards = []trello.Card{{
		ID:               "c1",
		ListID:           "l1",
		DateLastActivity: "2024-01-01T00:00:00.000Z",
	}}
	board.updateErr = errors.New("503")

	local := boundTask("t1", "c1", "2024-01-03T00:00:00.000Z", "2024-01-02T00:00:00.000Z")
	st := &memStore{file: store.File{Todos: []*types.Task{local}}}

	eng := newTestEngine(board, st, config.Trello{Enabled: true})
	if _, err := eng.Sync(context.Background()); err == nil {
		t.Fatal("expected update error to abort the pass")
	}
	if st.saveCount != 0 {
		t.Errorf("aborted pass must not persist")
	}
}

func TestClosedCardMapsToDone(t *testing.T) {
	board := newMockBoard()
	board.lists = []trello.List{{ID: "l1", Name: "Doing"}}
	board.cards = []trello.Card{{
		ID:               "c1",
		Name:             "finished",
		ListID:           "l-archived", // not an open list, no status mapping
		Closed:           true,
		DateLastActivity: "2024-01-01T00:00:00.000Z",
	}}
	st := &memStore{}

	eng := newTestEngine(board, st, config.Trello{Enabled: true})
	if _, err := eng.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	task := st.file.Todos[0]
	if !task.Completed {
		t.Error("closed card should synthesize a completed task")
	}
	if status, _ := task.Status(); status != types.StatusDone {
		t.Errorf("status = %q, want done", status)
	}
}

func TestNoDuplicateBindingAcrossPasses(t *testing.T) {
	board := newMockBoard()
	board.lists = []trello.List{{ID: "l1", Name: "Backlog"}}
	board.cards = []trello.Card{{
		ID:               "c1",
		Name:             "card",
		ListID:           "l1",
		DateLastActivity: "2024-01-01T00:00:00.000Z",
	}}
	st := &memStore{}

	eng := newTestEngine(board, st, config.Trello{Enabled: true})
	for i := 0; i < 3; i++ {
		if _, err := eng.Sync(context.Background()); err != nil {
			t.Fatalf("Sync %d: %v", i, err)
		}
	}

	seen := map[string]int{}
	for _, task := range st.file.Todos {
		if task.Trello != nil && task.Trello.CardID != "" {
			seen[task.Trello.CardID]++
		}
	}
	if seen["c1"] != 1 {
		t.Errorf("card c1 bound to %d tasks, want exactly 1", seen["c1"])
	}
}

func TestListMappingByNameAndID(t *testing.T) {
	lists := []trello.List{
		{ID: "l1", Name: "To Do"},
		{ID: "l2", Name: "Weird Name"},
		{ID: "l3", Name: "QA Review"},
	}
	m := buildListToStatus(lists, map[string]string{
		"to do": "backlog", // by name, case-insensitive
		"l2":    "blocked", // by id
	})

	if m["l1"] != "backlog" {
		t.Errorf("l1 -> %q, want backlog", m["l1"])
	}
	if m["l2"] != "blocked" {
		t.Errorf("l2 -> %q, want blocked", m["l2"])
	}
	if m["l3"] != "qa-review" {
		t.Errorf("l3 -> %q, want slug qa-review", m["l3"])
	}
}

func TestListIDForStatusFallbacks(t *testing.T) {
	lists := []trello.List{{ID: "l1", Name: "Backlog"}, {ID: "l2", Name: "In Review"}}
	m := buildListToStatus(lists, nil)

	if got := listIDForStatus(lists, m, ""); got != "l1" {
		t.Errorf("empty status -> %q, want first list", got)
	}
	if got := listIDForStatus(lists, m, "in-review"); got != "l2" {
		t.Errorf("in-review -> %q, want l2", got)
	}
	if got := listIDForStatus(lists, m, "nonexistent"); got != "l1" {
		t.Errorf("unknown status -> %q, want first list fallback", got)
	}
	if got := listIDForStatus(nil, nil, "anything"); got != "" {
		t.Errorf("no lists -> %q, want empty", got)
	}
}

func TestReverseLabelMappingFirstWriterWins(t *testing.T) {
	rev := reverseLabelMapping(map[string]string{
		"Bug":    "type:bug",
		"Defect": "type:bug",
	})
	if rev["type:bug"] != "Bug" {
		t.Errorf("reverse = %q, want Bug (sorted-first writer)", rev["type:bug"])
	}
}

func TestPrune(t *testing.T) {
	board := newMockBoard()
	board.cards = []trello.Card{{ID: "c-alive"}}

	orphan := boundTask("t1", "c-gone", "2024-01-01T00:00:00.000Z", "2024-01-01T00:00:00.000Z")
	alive := boundTask("t2", "c-alive", "2024-01-01T00:00:00.000Z", "2024-01-01T00:00:00.000Z")
	otherBoard := boundTask("t3", "c-gone-elsewhere", "2024-01-01T00:00:00.000Z", "2024-01-01T00:00:00.000Z")
	otherBoard.Trello.BoardID = "board2"
	localOnly := &types.Task{ID: "t4", Title: "local"}

	st := &memStore{file: store.File{Todos: []*types.Task{orphan, alive, otherBoard, localOnly}}}

	eng := newTestEngine(board, st, config.Trello{Enabled: true})
	removed, err := eng.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	for _, task := range st.file.Todos {
		if task.ID == "t1" {
			t.Error("orphan t1 should be pruned")
		}
	}
	if len(st.file.Todos) != 3 {
		t.Errorf("todos = %d, want 3 survivors", len(st.file.Todos))
	}
}

func TestPruneNoopDoesNotPersist(t *testing.T) {
	board := newMockBoard()
	board.cards = []trello.Card{{ID: "c1"}}
	st := &memStore{file: store.File{Todos: []*types.Task{
		boundTask("t1", "c1", "2024-01-01T00:00:00.000Z", "2024-01-01T00:00:00.000Z"),
	}}}

	eng := newTestEngine(board, st, config.Trello{Enabled: true})
	removed, err := eng.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 0 || st.saveCount != 0 {
		t.Errorf("nothing to prune: removed=%d saves=%d", removed, st.saveCount)
	}
}
