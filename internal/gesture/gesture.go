// Package gesture implements the pointer-driven drag and resize state
// machine for a single note. A controller is Idle until a qualifying
// pointer-down starts a gesture session; the session owns its global
// move/up listener registration and tears it down exactly once when the
// gesture ends. Live values during a gesture are local to the controller;
// only the value current at the moment of release is committed.
package gesture

import (
	"github.com/edwardcox/sticky-idea-pad/internal/spatial"
)

// State is the controller's gesture state.
type State int

const (
	StateIdle State = iota
	StateDragging
	StateResizing
)

func (s State) String() string {
	switch s {
	case StateDragging:
		return "dragging"
	case StateResizing:
		return "resizing"
	default:
		return "idle"
	}
}

// Target identifies what part of the note a pointer-down landed on.
// Pointer-downs on nested interactive controls never start a drag.
type Target int

const (
	TargetSurface Target = iota
	TargetControl
	TargetResizeHandle
)

// PointerEvent is a single pointer sample in workspace coordinates.
type PointerEvent struct {
	X, Y    float64
	Primary bool
}

// Position returns the event location as a position.
func (e PointerEvent) Position() spatial.Position {
	return spatial.Position{X: e.X, Y: e.Y}
}

// Listener receives global pointer events while a gesture is active.
type Listener interface {
	PointerMove(PointerEvent)
	PointerUp(PointerEvent)
	PointerCancel(PointerEvent)
}

// EventSource delivers global pointer move/up/cancel events. Subscribe
// registers a listener for the duration of one gesture and returns its
// deregistration func. Events are delivered on the caller's single event
// goroutine.
type EventSource interface {
	Subscribe(l Listener) (cancel func())
}

// Update is the committed result of a finished gesture. A drag sets
// Position; a resize sets Width and Height.
type Update struct {
	Position *spatial.Position
	Width    *float64
	Height   *float64
}

// session owns the listener registration for one active gesture. end runs
// the deregistration exactly once, even when a pointer-up races a
// teardown.
type session struct {
	cancel func()
	ended  bool
}

func (s *session) end() {
	if s == nil || s.ended {
		return
	}
	s.ended = true
	if s.cancel != nil {
		s.cancel()
	}
}

// Controller is the per-note gesture state machine. It is driven by a
// single event goroutine and is not safe for concurrent use; the engine
// and the controller communicate only through the commit callback.
type Controller struct {
	source EventSource
	commit func(Update)

	state    State
	position spatial.Position
	size     spatial.Size

	grabOffset   spatial.Position
	startPointer spatial.Position
	startSize    spatial.Size

	active *session
}

// NewController creates a controller at the note's current position and
// size. commit is invoked once per finished gesture with the final value.
func NewController(source EventSource, pos spatial.Position, size spatial.Size, commit func(Update)) *Controller {
	if commit == nil {
		commit = func(Update) {}
	}
	return &Controller{
		source:   source,
		commit:   commit,
		position: pos,
		size:     size,
	}
}

// State returns the current gesture state.
func (c *Controller) State() State { return c.state }

// Position returns the live position: the rest position when idle, the
// tracked pointer position during a drag.
func (c *Controller) Position() spatial.Position { return c.position }

// Size returns the live size.
func (c *Controller) Size() spatial.Size { return c.size }

// SetRest updates the controller's rest position and size from the owning
// collection, e.g. after a load. Ignored while a gesture is active so a
// late prop echo cannot yank the note out from under the pointer.
func (c *Controller) SetRest(pos spatial.Position, size spatial.Size) {
	if c.state != StateIdle {
		return
	}
	c.position = pos
	c.size = size
}

// PointerDown feeds a pointer-down on the note into the state machine.
// A primary-button press on the note surface starts a drag; a press on
// the resize affordance starts a resize; presses on nested controls are
// ignored. Only one gesture may be active at a time.
func (c *Controller) PointerDown(ev PointerEvent, target Target) {
	if c.state != StateIdle || !ev.Primary {
		return
	}

	switch target {
	case TargetControl:
		return
	case TargetResizeHandle:
		c.state = StateResizing
		c.startPointer = ev.Position()
		c.startSize = c.size
		if c.startSize.Auto() {
			c.startSize.Height = spatial.ResizeBaseHeight
		}
	default:
		c.state = StateDragging
		c.grabOffset = spatial.Position{X: ev.X - c.position.X, Y: ev.Y - c.position.Y}
	}

	c.active = &session{}
	if c.source != nil {
		c.active.cancel = c.source.Subscribe(c)
	}
}

// PointerMove tracks the pointer during an active gesture. Intermediate
// values stay local; nothing is committed here.
func (c *Controller) PointerMove(ev PointerEvent) {
	switch c.state {
	case StateDragging:
		c.position = spatial.ClampPosition(spatial.Position{
			X: ev.X - c.grabOffset.X,
			Y: ev.Y - c.grabOffset.Y,
		})
	case StateResizing:
		c.size = spatial.ClampSize(
			c.startSize.Width+(ev.X-c.startPointer.X),
			c.startSize.Height+(ev.Y-c.startPointer.Y),
		)
	}
}

// PointerUp ends the active gesture and commits the value current at the
// moment of release.
func (c *Controller) PointerUp(ev PointerEvent) {
	c.PointerMove(ev)
	c.finish()
}

// PointerCancel ends the active gesture, committing the last tracked
// value.
func (c *Controller) PointerCancel(PointerEvent) {
	c.finish()
}

// Teardown ends any active gesture without committing and deregisters its
// listeners. Used when the owning note is removed mid-gesture.
func (c *Controller) Teardown() {
	if c.state == StateIdle {
		return
	}
	c.state = StateIdle
	c.active.end()
	c.active = nil
}

func (c *Controller) finish() {
	var upd Update
	switch c.state {
	case StateDragging:
		pos := c.position
		upd.Position = &pos
	case StateResizing:
		width, height := c.size.Width, c.size.Height
		upd.Width = &width
		upd.Height = &height
	default:
		return
	}

	c.state = StateIdle
	c.active.end()
	c.active = nil
	c.commit(upd)
}
