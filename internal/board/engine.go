// Package board implements the synchronization engine that bridges the
// in-memory note collection and the note repository: initial load with
// default seeding, debounced persistence, and graceful degradation when
// durable storage is unavailable.
package board

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/edwardcox/sticky-idea-pad/internal/errs"
	"github.com/edwardcox/sticky-idea-pad/internal/identity"
	"github.com/edwardcox/sticky-idea-pad/internal/notes"
	"github.com/edwardcox/sticky-idea-pad/internal/obs"
	"github.com/edwardcox/sticky-idea-pad/internal/spatial"
)

// State is the engine lifecycle state for the current namespace.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

// DefaultDebounce is the quiet period after the last change before the
// collection is persisted.
const DefaultDebounce = time.Second

// Repository is the persistence surface the engine drives. Implemented by
// notes.Repository.
type Repository interface {
	LoadAll(ctx context.Context, namespace string) (all []notes.Note, healed bool, err error)
	SaveAll(ctx context.Context, namespace string, all []notes.Note) error
	Insert(ctx context.Context, namespace string, n notes.Note) error
	Remove(ctx context.Context, namespace, id string) error
}

// Options configures an Engine.
type Options struct {
	// Debounce overrides the save quiet period. Zero means DefaultDebounce.
	Debounce time.Duration

	// Notice, when set, receives the single user-visible message emitted
	// on storage failures. Presentation of the notice is the caller's
	// concern.
	Notice func(msg string)
}

// Engine owns the in-memory note collection for one session and reconciles
// it with the repository. All methods are safe for concurrent use, but the
// engine models a single logical actor: storage never blocks a mutation,
// and storage errors never propagate to callers.
type Engine struct {
	repo     Repository
	debounce time.Duration
	notice   func(string)
	log      *slog.Logger

	mu          sync.Mutex
	state       State
	namespace   string
	notes       []notes.Note
	timer       *time.Timer
	unavailable bool
	noticed     bool
	closed      bool
}

// NewEngine creates an engine over repo. A nil repo is allowed only for a
// session already known to run without durable storage; pair it with
// MarkUnavailable.
func NewEngine(repo Repository, opts Options) *Engine {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	notice := opts.Notice
	if notice == nil {
		notice = func(string) {}
	}
	return &Engine{
		repo:     repo,
		debounce: debounce,
		notice:   notice,
		log:      obs.Pkg("board"),
	}
}

// MarkUnavailable puts the engine into memory-only mode before any load.
// Used when the environment reports the storage engine cannot be opened at
// all.
func (e *Engine) MarkUnavailable() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.markUnavailableLocked()
}

// Load resolves the namespace for id and loads its notes. It does nothing
// while the identity is still unresolved. An empty namespace is seeded
// with the default note set and persisted once; records healed during
// deserialization are written back once; a failed load falls back to the
// defaults in memory so the engine never sticks in the loading state.
// Calling Load again (user switch) cancels any pending save for the
// previous namespace before reloading.
func (e *Engine) Load(ctx context.Context, id identity.Identity, devMode bool) {
	ns := identity.Namespace(id, devMode)
	if ns == "" {
		return
	}
	ctx = obs.WithCorrelation(ctx, obs.Correlation{Namespace: ns})

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.stopTimerLocked()
	e.state = StateLoading
	e.namespace = ns
	unavailable := e.unavailable || e.repo == nil
	e.mu.Unlock()

	if unavailable {
		e.finishLoad(ns, notes.DefaultNotes(time.Now()))
		return
	}

	loaded, healed, err := e.repo.LoadAll(ctx, ns)
	if err != nil {
		if !e.onStorageError(ctx, "load notes", err) {
			e.notice("Failed to load your notes. Using defaults instead.")
		}
		e.finishLoad(ns, notes.DefaultNotes(time.Now()))
		return
	}

	if len(loaded) == 0 {
		seeded := notes.DefaultNotes(time.Now())
		if err := e.repo.SaveAll(ctx, ns, seeded); err != nil {
			e.onStorageError(ctx, "persist default notes", err)
		}
		e.finishLoad(ns, seeded)
		return
	}

	if healed {
		obs.From(ctx).Info("writing back healed note positions", "count", len(loaded))
		if err := e.repo.SaveAll(ctx, ns, loaded); err != nil {
			e.onStorageError(ctx, "persist healed notes", err)
		}
	}
	e.finishLoad(ns, loaded)
}

func (e *Engine) finishLoad(ns string, all []notes.Note) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.namespace != ns {
		return
	}
	e.notes = all
	e.state = StateReady
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// IsLoading reports whether the collection is not yet usable.
func (e *Engine) IsLoading() bool {
	return e.State() != StateReady
}

// Notes returns a snapshot of the in-memory collection, newest first.
func (e *Engine) Notes() []notes.Note {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]notes.Note, len(e.notes))
	copy(out, e.notes)
	return out
}

// Note returns the note with the given id from the in-memory collection.
func (e *Engine) Note(id string) (notes.Note, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, n := range e.notes {
		if n.ID == id {
			return n, true
		}
	}
	return notes.Note{}, false
}

// AddNote creates a note from params, prepends it to the collection and
// persists it. The in-memory mutation always succeeds; persistence
// failures are logged and the note stays, to be retried by the next
// debounced save.
func (e *Engine) AddNote(params notes.CreateParams) notes.Note {
	n := notes.NewNote(params, time.Now())

	e.mu.Lock()
	e.notes = append([]notes.Note{n}, e.notes...)
	ns, persist := e.persistTargetLocked()
	e.mu.Unlock()

	if persist {
		ctx := obs.WithCorrelation(context.Background(), obs.Correlation{Namespace: ns})
		if err := e.repo.Insert(ctx, ns, n); err != nil {
			if !e.onStorageError(ctx, "add note", err) {
				e.notice("Failed to save the note.")
			}
		}
	}
	return n
}

// UpdateNote merges a partial update into the note and schedules a
// debounced save. Updating an id that is not in the collection is a no-op.
// Returns the updated note.
func (e *Engine) UpdateNote(id string, params notes.UpdateParams) (notes.Note, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, n := range e.notes {
		if n.ID != id {
			continue
		}
		updated := notes.ApplyUpdate(n, params, time.Now())
		e.notes[i] = updated
		e.scheduleSaveLocked()
		return updated, true
	}
	return notes.Note{}, false
}

// CyclePriority advances the note's priority through the fixed order
// normal, action, urgent.
func (e *Engine) CyclePriority(id string) (notes.Note, bool) {
	current, ok := e.Note(id)
	if !ok {
		return notes.Note{}, false
	}
	next := current.Priority.Next()
	return e.UpdateNote(id, notes.UpdateParams{Priority: &next})
}

// CommitGesture applies the position and size committed at the end of a
// drag or resize gesture. Intermediate gesture frames must never reach
// this method; it persists just like any other update.
func (e *Engine) CommitGesture(id string, pos *spatial.Position, width, height *float64) (notes.Note, bool) {
	return e.UpdateNote(id, notes.UpdateParams{
		Position: pos,
		Width:    width,
		Height:   height,
	})
}

// DeleteNote removes the note from the collection and the durable store.
// Deleting an unknown id is a no-op.
func (e *Engine) DeleteNote(id string) {
	e.mu.Lock()
	found := false
	for i, n := range e.notes {
		if n.ID == id {
			e.notes = append(e.notes[:i], e.notes[i+1:]...)
			found = true
			break
		}
	}
	ns, persist := e.persistTargetLocked()
	e.mu.Unlock()

	if !found || !persist {
		return
	}
	ctx := obs.WithCorrelation(context.Background(), obs.Correlation{Namespace: ns})
	if err := e.repo.Remove(ctx, ns, id); err != nil {
		if errs.IsNotFound(err) {
			return
		}
		if !e.onStorageError(ctx, "delete note", err) {
			e.notice("Failed to delete the note.")
		}
	}
}

// Flush persists any pending debounced save immediately. Intended for
// graceful shutdown.
func (e *Engine) Flush() {
	e.mu.Lock()
	pending := e.timer != nil && e.timer.Stop()
	e.mu.Unlock()
	if pending {
		e.flush()
	}
}

// Close cancels any pending save and stops the engine. The collection
// remains readable but no further persistence happens.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopTimerLocked()
	e.closed = true
}

// scheduleSaveLocked arms the trailing debounce timer. A change arriving
// before the quiet period elapses restarts it. The save callback re-reads
// the collection at fire time, never a snapshot captured here. Saves are
// skipped while the initial load is in flight and once storage has been
// marked unavailable.
func (e *Engine) scheduleSaveLocked() {
	if e.closed || e.state != StateReady || e.unavailable || e.repo == nil {
		return
	}
	if e.timer == nil {
		e.timer = time.AfterFunc(e.debounce, e.flush)
		return
	}
	e.timer.Reset(e.debounce)
}

// flush runs on the debounce timer: it snapshots the collection as it is
// right now and saves it.
func (e *Engine) flush() {
	e.mu.Lock()
	if e.closed || e.state != StateReady || e.unavailable || e.repo == nil {
		e.mu.Unlock()
		return
	}
	ns := e.namespace
	snapshot := make([]notes.Note, len(e.notes))
	copy(snapshot, e.notes)
	e.mu.Unlock()

	ctx := obs.WithCorrelation(context.Background(), obs.Correlation{Namespace: ns})
	if err := e.repo.SaveAll(ctx, ns, snapshot); err != nil {
		if !e.onStorageError(ctx, "save notes", err) {
			e.notice("Failed to save your notes.")
		}
	}
}

// persistTargetLocked reports whether a durable write may run right now
// and for which namespace.
func (e *Engine) persistTargetLocked() (string, bool) {
	if e.closed || e.state != StateReady || e.unavailable || e.repo == nil {
		return "", false
	}
	return e.namespace, true
}

func (e *Engine) stopTimerLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// onStorageError is the engine boundary for storage failures: an
// unavailable engine latches memory-only mode with a single notice, and
// everything else is logged as a transient failure that the next debounced
// save retries. Nothing is ever rethrown toward the interaction path.
// Returns true when the error latched memory-only mode, so callers skip
// their own transient-failure notice.
func (e *Engine) onStorageError(ctx context.Context, op string, err error) bool {
	if err == nil {
		return false
	}
	if errs.IsUnavailable(err) {
		e.mu.Lock()
		e.markUnavailableLocked()
		e.mu.Unlock()
		return true
	}
	obs.From(ctx).Warn("transient storage failure", "op", op, "err", err)
	return false
}

func (e *Engine) markUnavailableLocked() {
	e.stopTimerLocked()
	e.unavailable = true
	if !e.noticed {
		e.noticed = true
		e.log.Warn("durable storage unavailable, continuing in memory only")
		go e.notice("Storage is unavailable. Your notes will not be saved.")
	}
}
