package notes

import (
	"time"

	"github.com/edwardcox/sticky-idea-pad/internal/spatial"
	"github.com/edwardcox/sticky-idea-pad/internal/store"
)

// timeFormat is the canonical on-disk timestamp form.
const timeFormat = time.RFC3339Nano

// serializeNote converts a note to its on-disk record form. Spatial fields
// are coerced through the validator so a corrupted in-memory value can
// never reach storage: an invalid position gets a random spot in the
// virtual workspace, an invalid size gets the defaults.
func serializeNote(n Note) store.Record {
	pos := n.Position
	if !pos.Valid() {
		pos = spatial.RandomPosition()
	}
	size := spatial.NormalizeSize(&n.Width, &n.Height)

	r := store.Record{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		Color:     string(n.Color),
		Priority:  string(n.Priority),
		CreatedAt: n.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt: n.UpdatedAt.UTC().Format(timeFormat),
		PosX:      &pos.X,
		PosY:      &pos.Y,
		Width:     &size.Width,
	}
	if !size.Auto() {
		r.Height = &size.Height
	}
	return r
}

// deserializeRecord converts an on-disk record back to a note, healing
// legacy and malformed data in the process: missing or invalid positions
// fall back to the deterministic staggered position for fallbackIndex,
// sizes are normalized, and unknown color or priority tags become the
// defaults. healed reports whether anything had to change, so callers can
// write the corrected record back once. Healing is deterministic, so
// loading, saving and reloading yields an identical set.
func deserializeRecord(r store.Record, fallbackIndex int) (n Note, healed bool) {
	var candidate *spatial.Position
	if r.PosX != nil && r.PosY != nil {
		candidate = &spatial.Position{X: *r.PosX, Y: *r.PosY}
	}
	pos := spatial.NormalizePosition(candidate, fallbackIndex)
	if candidate == nil || *candidate != pos {
		healed = true
	}

	size := spatial.NormalizeSize(r.Width, r.Height)
	if r.Width == nil || *r.Width != size.Width {
		healed = true
	}
	if (r.Height == nil) != size.Auto() || (r.Height != nil && !size.Auto() && *r.Height != size.Height) {
		healed = true
	}

	createdAt, okCreated := parseTime(r.CreatedAt)
	updatedAt, okUpdated := parseTime(r.UpdatedAt)
	if !okCreated || !okUpdated {
		healed = true
	}
	if updatedAt.Before(createdAt) {
		updatedAt = createdAt
		healed = true
	}

	color := Color(r.Color)
	if !color.Valid() {
		color = ColorYellow
		healed = true
	}
	priority := Priority(r.Priority)
	if !priority.Valid() {
		priority = PriorityNormal
		healed = true
	}

	return Note{
		ID:        r.ID,
		Title:     r.Title,
		Content:   r.Content,
		Color:     color,
		Priority:  priority,
		Position:  pos,
		Width:     size.Width,
		Height:    size.Height,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, healed
}

// parseTime parses a canonical timestamp, tolerating plain RFC 3339 from
// older records. Unparsable values collapse to the Unix epoch rather than
// failing the whole load.
func parseTime(s string) (time.Time, bool) {
	if t, err := time.Parse(timeFormat, s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	return time.Unix(0, 0).UTC(), false
}
