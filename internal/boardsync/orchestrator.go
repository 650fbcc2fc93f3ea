package boardsync

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/todosync/todosync/internal/config"
	"github.com/todosync/todosync/internal/debug"
	"github.com/todosync/todosync/internal/secrets"
	"github.com/todosync/todosync/internal/store"
	"github.com/todosync/todosync/internal/trello"
)

// DebounceDelay is the quiet period after a local file change before a sync
// pass runs. Each new change within the window restarts the timer.
const DebounceDelay = 800 * time.Millisecond

// ErrBusy is returned when a trigger arrives while a pass is in flight.
// Triggers are not queued; the next timer or file event tries again.
var ErrBusy = errors.New("sync already in progress")

// CredentialSource yields the api key/token pair for a workspace.
type CredentialSource interface {
	Get(workspace string) (secrets.Credentials, error)
}

// Orchestrator decides when reconciliation passes run and guarantees
// at-most-one pass in flight. Construct one per workspace session; multiple
// instances tolerate each other because all state lives on the instance.
type Orchestrator struct {
	Store     TaskStore
	Workspace string
	Creds     CredentialSource

	// GetConfig is read at the start of every pass so config edits take
	// effect without restarting the watcher.
	GetConfig func() config.Trello

	// NewClient builds the board client for a pass; tests swap in a mock.
	NewClient func(apiKey, token string) BoardAPI

	OnMessage func(msg string)
	OnWarning func(msg string)
	OnRefresh func()
	Now       func() time.Time

	running  atomic.Bool // at-most-one pass guard
	suppress atomic.Bool // engine writes must not re-trigger the debounce

	mu       sync.Mutex // guards timers/watcher below
	debounce *time.Timer
	ticker   *time.Ticker
	tickDone chan struct{}
	watcher  *fsnotify.Watcher
	closed   bool
}

func (o *Orchestrator) msg(format string, args ...interface{}) {
	if o.OnMessage != nil {
		o.OnMessage(fmt.Sprintf(format, args...))
	}
}

func (o *Orchestrator) warn(format string, args ...interface{}) {
	if o.OnWarning != nil {
		o.OnWarning(fmt.Sprintf(format, args...))
	}
}

// SyncNow runs one reconciliation pass immediately, bypassing the debounce.
// Returns ErrBusy when a pass is already in flight; configuration problems
// are surfaced as warnings and return nil (nothing to retry).
func (o *Orchestrator) SyncNow(ctx context.Context, reason string) (*Result, error) {
	if !o.running.CompareAndSwap(false, true) {
		o.msg("sync skipped (%s): already in progress", reason)
		return nil, ErrBusy
	}
	defer o.running.Store(false)

	engine, ok := o.buildEngine()
	if !ok {
		return nil, nil
	}

	o.msg("sync started (%s)", reason)
	result, err := engine.Sync(ctx)
	if err != nil {
		o.warn("sync failed: %v", err)
		return nil, err
	}
	o.msg("sync complete")
	return result, nil
}

// Prune runs the orphan-removal pass. Shares the in-progress guard with
// reconciliation; the two never interleave.
func (o *Orchestrator) Prune(ctx context.Context, reason string) (int, error) {
	if !o.running.CompareAndSwap(false, true) {
		o.msg("prune skipped (%s): sync in progress", reason)
		return 0, ErrBusy
	}
	defer o.running.Store(false)

	engine, ok := o.buildEngine()
	if !ok {
		return 0, nil
	}

	o.msg("prune started (%s)", reason)
	removed, err := engine.Prune(ctx)
	if err != nil {
		o.warn("prune failed: %v", err)
		return 0, err
	}
	o.msg("prune complete, removed %d items", removed)
	return removed, nil
}

// buildEngine resolves config and credentials for one pass. A disabled board
// is a silent no-op; missing board or credentials warn and skip.
func (o *Orchestrator) buildEngine() (*Engine, bool) {
	cfg := o.GetConfig()
	if !cfg.Enabled {
		return nil, false
	}

	boardID := config.ParseBoardID(cfg.Board)
	if boardID == "" {
		o.warn("trello board is not configured")
		return nil, false
	}

	creds, err := o.Creds.Get(o.Workspace)
	if err != nil {
		o.warn("reading credentials: %v", err)
		return nil, false
	}
	if !creds.Present() {
		o.warn("trello credentials are missing; run: todosync auth set")
		return nil, false
	}

	return &Engine{
		Client:    o.NewClient(creds.APIKey, creds.Token),
		Store:     &suppressedStore{o: o},
		Config:    cfg,
		BoardID:   boardID,
		OnMessage: o.OnMessage,
		OnWarning: o.OnWarning,
		OnRefresh: o.OnRefresh,
		Now:       o.Now,
	}, true
}

// suppressedStore wraps the orchestrator's task store so that the engine's
// own write does not re-enter the debounce path via the file watcher.
// The flag clears synchronously when Save returns; an event the watcher
// delivers after that lands outside the window and arms the debounce, and
// the resulting pass finds nothing changed. Best effort, not a guarantee.
type suppressedStore struct {
	o *Orchestrator
}

func (s *suppressedStore) Load() (*store.File, error) { return s.o.Store.Load() }
func (s *suppressedStore) Path() string               { return s.o.Store.Path() }

func (s *suppressedStore) Save(f *store.File) error {
	s.o.suppress.Store(true)
	defer s.o.suppress.Store(false)
	return s.o.Store.Save(f)
}

// ScheduleSync arms (or re-arms) the debounced trigger.
func (o *Orchestrator) ScheduleSync(ctx context.Context, reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	if o.debounce != nil {
		o.debounce.Stop()
	}
	o.debounce = time.AfterFunc(DebounceDelay, func() {
		_, _ = o.SyncNow(ctx, reason)
	})
}

// Start attaches the file watcher and, when a sync interval is configured,
// the periodic timer. Callers pair it with Close.
func (o *Orchestrator) Start(ctx context.Context) error {
	if err := o.startWatcher(ctx); err != nil {
		return err
	}
	o.startInterval(ctx)
	return nil
}

func (o *Orchestrator) startWatcher(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}

	// Watch the directory, not the file: editors replace todos.json by
	// rename, which would silently detach a file-level watch.
	dir := filepath.Dir(o.Store.Path())
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	o.mu.Lock()
	o.watcher = watcher
	o.mu.Unlock()

	go func() {
		base := filepath.Base(o.Store.Path())
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != base {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) {
					continue
				}
				if o.suppress.Load() {
					debug.Logf("suppressed self-triggered event: %s\n", event)
					continue
				}
				if o.GetConfig().Enabled {
					o.ScheduleSync(ctx, "local-change")
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				o.warn("watcher error: %v", err)
			}
		}
	}()
	return nil
}

func (o *Orchestrator) startInterval(ctx context.Context) {
	minutes := o.GetConfig().SyncIntervalMinutes
	if minutes <= 0 {
		return
	}

	o.mu.Lock()
	o.ticker = time.NewTicker(time.Duration(minutes) * time.Minute)
	o.tickDone = make(chan struct{})
	ticker, done := o.ticker, o.tickDone
	o.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				_, _ = o.SyncNow(ctx, "interval")
			}
		}
	}()
}

// Close cancels pending timers and detaches the file watcher. Safe to call
// more than once.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.closed = true

	if o.debounce != nil {
		o.debounce.Stop()
	}
	if o.ticker != nil {
		o.ticker.Stop()
		close(o.tickDone)
	}
	if o.watcher != nil {
		return o.watcher.Close()
	}
	return nil
}

// NewOrchestrator wires an orchestrator against the real Trello client and
// on-disk stores.
func NewOrchestrator(taskStore *store.Store, workspace string, creds CredentialSource) *Orchestrator {
	return &Orchestrator{
		Store:     taskStore,
		Workspace: workspace,
		Creds:     creds,
		GetConfig: config.GetTrello,
		NewClient: func(apiKey, token string) BoardAPI {
			return trello.NewClient(apiKey, token)
		},
	}
}
