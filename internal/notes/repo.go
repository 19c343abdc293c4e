// Package notes defines the note entity and the typed CRUD repository over
// the durable board store.
package notes

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/edwardcox/sticky-idea-pad/internal/obs"
	"github.com/edwardcox/sticky-idea-pad/internal/spatial"
	"github.com/edwardcox/sticky-idea-pad/internal/store"
)

func newNoteID() string {
	return uuid.New().String()
}

// NewNote builds a complete note from caller-supplied params: fresh id,
// timestamps, normalized spatial fields, palette defaults for missing
// color and priority. A params without a valid position gets a random spot
// in the virtual workspace.
func NewNote(params CreateParams, now time.Time) Note {
	now = now.UTC()

	pos := spatial.RandomPosition()
	if params.Position != nil && params.Position.Valid() {
		pos = *params.Position
	}
	size := spatial.NormalizeSize(&params.Width, &params.Height)

	color := params.Color
	if !color.Valid() {
		color = ColorYellow
	}
	priority := params.Priority
	if !priority.Valid() {
		priority = PriorityNormal
	}

	return Note{
		ID:        newNoteID(),
		Title:     params.Title,
		Content:   params.Content,
		Color:     color,
		Priority:  priority,
		Position:  pos,
		Width:     size.Width,
		Height:    size.Height,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Repository is the typed CRUD façade over the durable store. It owns
// serialization and deserialization, including timestamp formatting and
// spatial-field normalization on both sides of the storage boundary.
// Storage failures are propagated unwrapped so callers can distinguish an
// unavailable engine from a transient write failure.
type Repository struct {
	store *store.Store
	log   *slog.Logger
}

// NewRepository creates a repository over the given store.
func NewRepository(st *store.Store) *Repository {
	return &Repository{store: st, log: obs.Pkg("notes")}
}

// LoadAll returns every note in the namespace, healed to valid spatial
// data. The fallback position for a record without one is derived from its
// index in the loaded set, so distinct defaulted notes land on distinct
// staggered positions. healed reports whether any record needed repair and
// should be written back.
func (r *Repository) LoadAll(ctx context.Context, namespace string) (all []Note, healed bool, err error) {
	records, err := r.store.GetAll(ctx, namespace)
	if err != nil {
		return nil, false, err
	}
	all = make([]Note, 0, len(records))
	for i, rec := range records {
		n, repaired := deserializeRecord(rec, i)
		if repaired {
			healed = true
			r.log.Debug("healed malformed note record", "id", rec.ID)
		}
		all = append(all, n)
	}
	return all, healed, nil
}

// SaveAll replaces the namespace contents with the given notes.
func (r *Repository) SaveAll(ctx context.Context, namespace string, all []Note) error {
	records := make([]store.Record, 0, len(all))
	for _, n := range all {
		records = append(records, serializeNote(n))
	}
	return r.store.PutAll(ctx, namespace, records)
}

// Create builds a note from params via NewNote, persists it and returns
// it.
func (r *Repository) Create(ctx context.Context, namespace string, params CreateParams) (Note, error) {
	n := NewNote(params, time.Now())
	if err := r.Insert(ctx, namespace, n); err != nil {
		return Note{}, err
	}
	return n, nil
}

// Insert persists an already-built note as a single upsert.
func (r *Repository) Insert(ctx context.Context, namespace string, n Note) error {
	return r.store.Put(ctx, namespace, serializeNote(n))
}

// Update fetches the existing record, shallow-merges the partial update,
// refreshes UpdatedAt, re-validates the position when one is included, and
// persists the result. An omitted position keeps the stored one. Returns a
// not_found error when the id does not exist; callers treat that as a
// no-op.
func (r *Repository) Update(ctx context.Context, namespace, id string, params UpdateParams) (Note, error) {
	rec, err := r.store.Get(ctx, namespace, id)
	if err != nil {
		return Note{}, err
	}
	existing, _ := deserializeRecord(rec, 0)
	merged := ApplyUpdate(existing, params, time.Now())
	if err := r.store.Put(ctx, namespace, serializeNote(merged)); err != nil {
		return Note{}, err
	}
	return merged, nil
}

// Remove deletes the note. A missing id is a no-op.
func (r *Repository) Remove(ctx context.Context, namespace, id string) error {
	return r.store.Delete(ctx, namespace, id)
}
