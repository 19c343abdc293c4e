// Package spatial defines the position and size model for notes on the
// board, plus the normalization applied at every storage boundary. Records
// created before the spatial fields existed, or corrupted on disk, are
// coerced into valid values here so the rest of the system can assume
// fully-populated spatial data. All functions in this package are total:
// they always return a usable value and never report an error.
package spatial

import (
	"math"
	"math/rand/v2"
)

const (
	// DefaultWidth is the width assigned to notes without an explicit width.
	DefaultWidth = 280

	// MinWidth and MinHeight are the smallest usable note dimensions.
	// Resize results and stored sizes are clamped to these.
	MinWidth  = 200
	MinHeight = 150

	// ResizeBaseHeight is the numeric starting height for a resize gesture
	// on an auto-sized note.
	ResizeBaseHeight = 200

	// Staggered fallback offsets, so consecutive defaulted notes do not
	// stack exactly on top of each other.
	fallbackBaseX = 100
	fallbackBaseY = 100
	fallbackStepX = 50
	fallbackStepY = 150

	// Virtual workspace bounds for randomly placed notes. The workspace is
	// deliberately larger than any viewport.
	randomMargin = 50
	randomSpanX  = 1800
	randomSpanY  = 3500
)

// Position is a location in the virtual 2-D workspace. Coordinates are not
// bounded to any viewport but are always finite and non-negative once
// normalized.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Valid reports whether both coordinates are finite and non-negative.
func (p Position) Valid() bool {
	return finite(p.X) && finite(p.Y) && p.X >= 0 && p.Y >= 0
}

// Size is a note's rendered dimensions. Height 0 means auto-sized to
// content; a numeric height is always at least MinHeight.
type Size struct {
	Width  float64
	Height float64
}

// Auto reports whether the height is auto-sized.
func (s Size) Auto() bool {
	return s.Height == 0
}

// FallbackPosition returns the deterministic staggered position for the
// note at the given collection index.
func FallbackPosition(index int) Position {
	if index < 0 {
		index = 0
	}
	return Position{
		X: fallbackBaseX + float64(index)*fallbackStepX,
		Y: fallbackBaseY + float64(index)*fallbackStepY,
	}
}

// RandomPosition returns a pseudo-random position within the virtual
// workspace, used when no fallback index context is available.
func RandomPosition() Position {
	return Position{
		X: randomMargin + math.Floor(rand.Float64()*randomSpanX),
		Y: randomMargin + math.Floor(rand.Float64()*randomSpanY),
	}
}

// NormalizePosition returns candidate unchanged when it is valid, otherwise
// the deterministic fallback for fallbackIndex.
func NormalizePosition(candidate *Position, fallbackIndex int) Position {
	if candidate != nil && candidate.Valid() {
		return *candidate
	}
	return FallbackPosition(fallbackIndex)
}

// NormalizeSize coerces possibly-missing width and height into a valid
// Size. A nil or non-finite width falls back to DefaultWidth; a nil or
// non-positive height means auto. Explicit values are clamped to the
// minimum dimensions.
func NormalizeSize(width, height *float64) Size {
	s := Size{Width: DefaultWidth}
	if width != nil && finite(*width) && *width > 0 {
		s.Width = math.Max(*width, MinWidth)
	}
	if height != nil && finite(*height) && *height > 0 {
		s.Height = math.Max(*height, MinHeight)
	}
	return s
}

// ClampPosition restricts a live drag position to non-negative workspace
// coordinates.
func ClampPosition(p Position) Position {
	if !finite(p.X) {
		p.X = 0
	}
	if !finite(p.Y) {
		p.Y = 0
	}
	return Position{X: math.Max(p.X, 0), Y: math.Max(p.Y, 0)}
}

// ClampSize restricts a live resize result to the minimum dimensions.
func ClampSize(width, height float64) Size {
	if !finite(width) {
		width = MinWidth
	}
	if !finite(height) {
		height = MinHeight
	}
	return Size{
		Width:  math.Max(width, MinWidth),
		Height: math.Max(height, MinHeight),
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
