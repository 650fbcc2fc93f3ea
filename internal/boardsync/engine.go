package boardsync

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/todosync/todosync/internal/config"
	"github.com/todosync/todosync/internal/store"
	"github.com/todosync/todosync/internal/trello"
	"github.com/todosync/todosync/internal/types"
)

// Engine runs one reconciliation pass: fetch the board, pull remote changes
// into the task store, drop cards hidden by the assigned-only filter, push
// local changes back, then persist everything in a single write.
//
// Nothing is persisted until a pass reaches its end cleanly; a failed remote
// call aborts the pass and leaves the store file untouched.
type Engine struct {
	Client  BoardAPI
	Store   TaskStore
	Config  config.Trello
	BoardID string

	// Callbacks for CLI/log feedback (optional).
	OnMessage func(msg string)
	OnWarning func(msg string)
	// OnRefresh signals the UI collaborator after a persisted change.
	OnRefresh func()

	// Now is the pass clock; tests pin it.
	Now func() time.Time
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now().UTC()
}

func (e *Engine) msg(format string, args ...interface{}) {
	if e.OnMessage != nil {
		e.OnMessage(fmt.Sprintf(format, args...))
	}
}

// boardSnapshot is the remote state fetched at the start of a pass.
type boardSnapshot struct {
	openLists []trello.List
	cards     []trello.Card
	members   []trello.Member
	labels    []trello.Label
}

// fetchBoard pulls lists, cards, members, and labels concurrently. Closed
// lists are filtered out here; closed cards stay, the pull phase maps them to
// status:done.
func (e *Engine) fetchBoard(ctx context.Context) (*boardSnapshot, error) {
	var snap boardSnapshot
	var lists []trello.List

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lists, err = e.Client.GetBoardLists(gctx, e.BoardID)
		return err
	})
	g.Go(func() error {
		var err error
		snap.cards, err = e.Client.GetBoardCards(gctx, e.BoardID)
		return err
	})
	g.Go(func() error {
		var err error
		snap.members, err = e.Client.GetBoardMembers(gctx, e.BoardID)
		return err
	})
	g.Go(func() error {
		var err error
		snap.labels, err = e.Client.GetBoardLabels(gctx, e.BoardID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching board %s: %w", e.BoardID, err)
	}

	for _, l := range lists {
		if !l.Closed {
			snap.openLists = append(snap.openLists, l)
		}
	}
	return &snap, nil
}

// Sync executes one full pass. The returned Result reports what changed;
// a non-nil error means the pass aborted and the store was not written.
func (e *Engine) Sync(ctx context.Context) (*Result, error) {
	snap, err := e.fetchBoard(ctx)
	if err != nil {
		return nil, err
	}

	listToStatus := buildListToStatus(snap.openLists, e.Config.ListMapping)
	idToUsername, usernameToID := memberTables(snap.members)
	labelIDs := labelNameToID(snap.labels)
	reverseLabels := reverseLabelMapping(e.Config.LabelMapping)

	f, err := e.Store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading task store: %w", err)
	}

	byCardID := make(map[string]*types.Task)
	for _, task := range f.Todos {
		if task.Trello != nil && task.Trello.CardID != "" {
			byCardID[task.Trello.CardID] = task
		}
	}

	cardsByID := make(map[string]*trello.Card, len(snap.cards))
	for i := range snap.cards {
		cardsByID[snap.cards[i].ID] = &snap.cards[i]
	}

	result := &Result{}
	nowIso := types.FormatTime(e.now())
	changed := false
	excluded := map[string]bool{}

	// Pull phase: fold every remote card into the local view.
	for i := range snap.cards {
		card := &snap.cards[i]

		statusValue := listToStatus[card.ListID]
		assignees := resolveUsernames(card.MemberIDs, idToUsername)

		desiredStatus := statusValue
		if desiredStatus == "" && card.Closed {
			desiredStatus = types.StatusDone
		}
		desiredLabels := types.EnsureStatusLabel(mapCardLabels(card.Labels, e.Config.LabelMapping), desiredStatus)
		completed := card.Closed || desiredStatus == types.StatusDone

		if e.filterActive() && !contains(assignees, e.Config.AssignedUsername) {
			excluded[card.ID] = true
			result.Stats.Excluded++
			continue
		}

		existing := byCardID[card.ID]
		if existing == nil {
			task := &types.Task{
				ID:        store.NewID(),
				Title:     card.Name,
				Notes:     card.Desc,
				Files:     []string{},
				Subtasks:  []types.Subtask{},
				Labels:    desiredLabels,
				Completed: completed,
				CreatedAt: nowIso,
				UpdatedAt: nowIso,
				Trello: &types.RemoteLink{
					CardID:       card.ID,
					ListID:       card.ListID,
					BoardID:      e.BoardID,
					CardURL:      card.URL,
					Assignees:    assignees,
					LastSyncedAt: nowIso,
				},
			}
			task.Order = store.NextOrder(f.Todos, task.SectionType())
			f.Todos = append(f.Todos, task)
			byCardID[card.ID] = task
			result.Stats.Created++
			changed = true
			continue
		}

		lastSynced := types.ParseTime(existing.Trello.LastSyncedAt)
		localUpdated := types.ParseTime(existing.UpdatedAt)
		cardActivity := types.ParseTime(card.DateLastActivity)

		localChanged := changedSince(localUpdated, lastSynced)
		cardChanged := changedSince(cardActivity, lastSynced)

		if cardChanged && (!localChanged || remoteWins(cardActivity, localUpdated)) {
			existing.Title = card.Name
			existing.Notes = card.Desc
			existing.Labels = desiredLabels
			existing.Completed = completed
			existing.UpdatedAt = nowIso
			existing.Trello.CardID = card.ID
			existing.Trello.ListID = card.ListID
			existing.Trello.BoardID = e.BoardID
			existing.Trello.CardURL = card.URL
			existing.Trello.Assignees = assignees
			existing.Trello.LastSyncedAt = nowIso
			result.Stats.Updated++
			changed = true
		} else if !equalStrings(existing.Trello.Assignees, assignees) {
			// Assignments changed but content did not: refresh the
			// denormalized list without touching the sync pivot.
			existing.Trello.Assignees = assignees
			changed = true
		}
	}

	for _, task := range f.Todos {
		if task.Trello != nil && task.Trello.CardID != "" {
			if _, ok := cardsByID[task.Trello.CardID]; !ok {
				e.msg("card not found for task %s", task.ID)
			}
		}
	}

	// Visibility filter: drop tasks bound to cards the assigned-only policy
	// excluded. Tasks bound to a different board are never touched.
	filtered := f.Todos
	if e.filterActive() {
		kept := make([]*types.Task, 0, len(f.Todos))
		for _, task := range f.Todos {
			if task.Trello == nil || task.Trello.CardID == "" {
				kept = append(kept, task)
				continue
			}
			if task.Trello.BoardID != "" && task.Trello.BoardID != e.BoardID {
				kept = append(kept, task)
				continue
			}
			if !excluded[task.Trello.CardID] {
				kept = append(kept, task)
			}
		}
		if len(kept) != len(f.Todos) {
			result.Stats.Removed = len(f.Todos) - len(kept)
			changed = true
		}
		filtered = kept
	}
	f.Todos = filtered

	// Push phase: send local edits to the board and adopt local-only tasks.
	for _, task := range filtered {
		bound := task.Trello != nil && task.Trello.CardID != ""
		var card *trello.Card
		if bound {
			card = cardsByID[task.Trello.CardID]
		}

		if bound && card != nil {
			lastSynced := types.ParseTime(task.Trello.LastSyncedAt)
			localUpdated := types.ParseTime(task.UpdatedAt)
			cardActivity := types.ParseTime(card.DateLastActivity)

			localChanged := changedSince(localUpdated, lastSynced)
			cardChanged := changedSince(cardActivity, lastSynced)

			if localChanged && cardChanged {
				result.Stats.Conflicts++
				e.msg("conflict on task %s; using most recent update", task.ID)
			}

			if localChanged && (!cardChanged || localWins(localUpdated, cardActivity)) {
				if err := e.pushCard(ctx, task, card, snap.openLists, listToStatus, reverseLabels, labelIDs, usernameToID, nowIso); err != nil {
					return nil, err
				}
				result.Stats.Pushed++
				changed = true
			}
			continue
		}

		if !bound && e.Config.SyncLocalTodos {
			created, err := e.createCard(ctx, task, snap.openLists, listToStatus, reverseLabels, labelIDs, usernameToID, nowIso)
			if err != nil {
				return nil, err
			}
			if created {
				result.Stats.Pushed++
				changed = true
			}
		}
	}

	if changed {
		if err := e.Store.Save(f); err != nil {
			return nil, fmt.Errorf("saving task store: %w", err)
		}
		result.Changed = true
		if e.OnRefresh != nil {
			e.OnRefresh()
		}
	}

	return result, nil
}

// pushCard issues an updateCard for a locally-edited bound task and refreshes
// its sync bookkeeping.
func (e *Engine) pushCard(ctx context.Context, task *types.Task, card *trello.Card, openLists []trello.List, listToStatus, reverseLabels, labelIDs, usernameToID map[string]string, nowIso string) error {
	status, _ := task.Status()
	listID := listIDForStatus(openLists, listToStatus, status)

	name := task.Title
	if name == "" {
		name = "Untitled"
	}
	desc := task.Notes

	params := trello.UpdateCardParams{
		Name: &name,
		Desc: &desc,
	}
	if listID != "" {
		params.ListID = &listID
	}
	if len(task.Trello.Assignees) > 0 {
		params.MemberIDs = resolveMemberIDs(task.Trello.Assignees, usernameToID)
	}
	if ids := mapLabelIDs(task.Labels, reverseLabels, labelIDs); len(ids) > 0 {
		params.LabelIDs = ids
	}

	if _, err := e.Client.UpdateCard(ctx, card.ID, params); err != nil {
		return fmt.Errorf("updating card %s: %w", card.ID, err)
	}

	if listID != "" {
		task.Trello.ListID = listID
	} else {
		task.Trello.ListID = card.ListID
	}
	task.Trello.LastSyncedAt = nowIso
	return nil
}

// createCard adopts a local-only task onto the board. Returns false when no
// target list could be resolved (nothing to do, not an error).
func (e *Engine) createCard(ctx context.Context, task *types.Task, openLists []trello.List, listToStatus, reverseLabels, labelIDs, usernameToID map[string]string, nowIso string) (bool, error) {
	status, _ := task.Status()
	listID := listIDForStatus(openLists, listToStatus, status)
	if listID == "" {
		return false, nil
	}

	name := task.Title
	if name == "" {
		name = "Untitled"
	}

	var memberIDs []string
	var assignees []string
	if e.Config.AssignedUsername != "" {
		assignees = []string{e.Config.AssignedUsername}
		memberIDs = resolveMemberIDs(assignees, usernameToID)
	}

	created, err := e.Client.CreateCard(ctx, trello.CreateCardParams{
		ListID:    listID,
		Name:      name,
		Desc:      task.Notes,
		MemberIDs: memberIDs,
		LabelIDs:  mapLabelIDs(task.Labels, reverseLabels, labelIDs),
	})
	if err != nil {
		return false, fmt.Errorf("creating card for task %s: %w", task.ID, err)
	}

	task.Trello = &types.RemoteLink{
		CardID:       created.ID,
		ListID:       created.ListID,
		BoardID:      e.BoardID,
		CardURL:      created.URL,
		Assignees:    assignees,
		LastSyncedAt: nowIso,
	}
	return true, nil
}

func (e *Engine) filterActive() bool {
	return e.Config.AssignedOnly && e.Config.AssignedUsername != ""
}

// mapLabelIDs maps a task's non-status labels to board label ids via the
// inverted label table. Labels without a mapping or without a board label are
// dropped.
func mapLabelIDs(labels []string, reverseLabels, labelIDs map[string]string) []string {
	var out []string
	for _, l := range types.NonStatusLabels(labels) {
		trelloName := reverseLabels[l]
		if trelloName == "" {
			continue
		}
		if id := labelIDs[trelloName]; id != "" {
			out = append(out, id)
		}
	}
	return out
}

func resolveUsernames(memberIDs []string, idToUsername map[string]string) []string {
	var out []string
	for _, id := range memberIDs {
		if name := idToUsername[id]; name != "" {
			out = append(out, name)
		}
	}
	return out
}

func resolveMemberIDs(usernames []string, usernameToID map[string]string) []string {
	var out []string
	for _, name := range usernames {
		if id := usernameToID[name]; id != "" {
			out = append(out, id)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
