package notes

import (
	"time"

	"github.com/edwardcox/sticky-idea-pad/internal/spatial"
)

// DefaultNotes returns the seed set for a brand-new namespace: three
// welcome notes with staggered positions so they do not overlap. Fresh IDs
// and timestamps are assigned on every call.
func DefaultNotes(now time.Time) []Note {
	now = now.UTC()
	seeds := []struct {
		title    string
		content  string
		color    Color
		priority Priority
	}{
		{
			title:    "Welcome to Sticky Notes",
			content:  "This is your new notes app! Click the + button to add a new note.",
			color:    ColorYellow,
			priority: PriorityNormal,
		},
		{
			title:    "Format Your Notes",
			content:  "You can make text **bold**, *italic*, or __underlined__. Try the formatting options!",
			color:    ColorBlue,
			priority: PriorityAction,
		},
		{
			title:    "Set Priority Levels",
			content:  "Notes can be set to Urgent, Action Required, or Normal priority. Click the priority icon to change it.",
			color:    ColorPink,
			priority: PriorityUrgent,
		},
	}

	out := make([]Note, 0, len(seeds))
	for i, s := range seeds {
		out = append(out, Note{
			ID:        newNoteID(),
			Title:     s.title,
			Content:   s.content,
			Color:     s.color,
			Priority:  s.priority,
			Position:  spatial.FallbackPosition(i),
			Width:     spatial.DefaultWidth,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return out
}
