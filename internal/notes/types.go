package notes

import (
	"time"

	"github.com/edwardcox/sticky-idea-pad/internal/spatial"
)

// Priority is a note's urgency level. Cycling order is
// normal -> action -> urgent -> normal.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityAction Priority = "action"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityNormal, PriorityAction, PriorityUrgent:
		return true
	}
	return false
}

// Next returns the priority that follows p in the fixed cycling order.
func (p Priority) Next() Priority {
	switch p {
	case PriorityNormal:
		return PriorityAction
	case PriorityAction:
		return PriorityUrgent
	default:
		return PriorityNormal
	}
}

// Color is a presentational palette tag.
type Color string

const (
	ColorYellow Color = "yellow"
	ColorBlue   Color = "blue"
	ColorGreen  Color = "green"
	ColorPink   Color = "pink"
	ColorOrange Color = "orange"
)

// Colors is the fixed palette in display order.
var Colors = []Color{ColorYellow, ColorBlue, ColorGreen, ColorPink, ColorOrange}

// Valid reports whether c is one of the palette colors.
func (c Color) Valid() bool {
	for _, known := range Colors {
		if c == known {
			return true
		}
	}
	return false
}

// Note is a freeform sticky note positioned on the virtual board.
// Position and Width are always populated after normalization; Height 0
// means auto-sized to content. Content may embed inline markup (bold,
// italic, underline, line breaks) that is interpreted only at render time;
// storage preserves the raw text unchanged.
type Note struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Content   string           `json:"content"`
	Color     Color            `json:"color"`
	Priority  Priority         `json:"priority"`
	Position  spatial.Position `json:"position"`
	Width     float64          `json:"width"`
	Height    float64          `json:"height,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Size returns the note's dimensions.
func (n Note) Size() spatial.Size {
	return spatial.Size{Width: n.Width, Height: n.Height}
}

// CreateParams contains caller-supplied fields for a new note. ID and
// timestamps are assigned by the repository. A nil Position gets a random
// spot in the virtual workspace; a zero Width gets the default.
type CreateParams struct {
	Title    string            `json:"title"`
	Content  string            `json:"content"`
	Color    Color             `json:"color"`
	Priority Priority          `json:"priority"`
	Position *spatial.Position `json:"position,omitempty"`
	Width    float64           `json:"width,omitempty"`
	Height   float64           `json:"height,omitempty"`
}

// UpdateParams is a partial note update. Nil fields are left unchanged;
// in particular an omitted Position can never null out the stored one.
type UpdateParams struct {
	Title    *string           `json:"title,omitempty"`
	Content  *string           `json:"content,omitempty"`
	Color    *Color            `json:"color,omitempty"`
	Priority *Priority         `json:"priority,omitempty"`
	Position *spatial.Position `json:"position,omitempty"`
	Width    *float64          `json:"width,omitempty"`
	Height   *float64          `json:"height,omitempty"`
}

// Empty reports whether the update changes nothing.
func (p UpdateParams) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Color == nil &&
		p.Priority == nil && p.Position == nil && p.Width == nil && p.Height == nil
}

// ApplyUpdate merges the partial update into n and refreshes UpdatedAt.
// Position updates are re-validated; an invalid candidate keeps the
// existing position rather than corrupting it.
func ApplyUpdate(n Note, p UpdateParams, now time.Time) Note {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.Color != nil && p.Color.Valid() {
		n.Color = *p.Color
	}
	if p.Priority != nil && p.Priority.Valid() {
		n.Priority = *p.Priority
	}
	if p.Position != nil && p.Position.Valid() {
		n.Position = *p.Position
	}
	if p.Width != nil || p.Height != nil {
		width := n.Width
		height := n.Height
		if p.Width != nil {
			width = *p.Width
		}
		if p.Height != nil {
			height = *p.Height
		}
		size := spatial.NormalizeSize(&width, &height)
		n.Width = size.Width
		n.Height = size.Height
	}
	n.UpdatedAt = now.UTC()
	if n.UpdatedAt.Before(n.CreatedAt) {
		n.UpdatedAt = n.CreatedAt
	}
	return n
}
