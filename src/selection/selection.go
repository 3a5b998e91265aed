// Package selection tracks a rectangle selection driven by pointer and key
// input. States are immutable values; Reduce returns the next one.
package selection

import (
	"errors"
	"fmt"
	"image"

	"screen-snip/src/geometry"
)

// DefaultMinSize is the smallest accepted width and height, in device pixels.
const DefaultMinSize = 10

// ErrSelectionTooSmall is returned when a confirm is rejected. The state is
// left unchanged so the user can drag again.
var ErrSelectionTooSmall = errors.New("selection too small")

type Kind int

const (
	Idle Kind = iota
	Dragging
	Pending
	Confirmed
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Pending:
		return "pending"
	case Confirmed:
		return "confirmed"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// State is one step of a selection session. The zero value is Idle.
type State struct {
	kind    Kind
	anchor  image.Point
	current image.Point
	rect    geometry.Rect
}

func (s State) Kind() Kind { return s.kind }

// Terminal reports whether the session is over.
func (s State) Terminal() bool { return s.kind == Confirmed || s.kind == Cancelled }

// Rect returns the candidate rectangle: the live drag rectangle while
// dragging, the released one when pending or confirmed, zero otherwise.
func (s State) Rect() geometry.Rect {
	switch s.kind {
	case Dragging:
		return geometry.Normalize(s.anchor, s.current)
	case Pending, Confirmed:
		return s.rect
	default:
		return geometry.Rect{}
	}
}

// Anchor returns the point where the current drag started.
func (s State) Anchor() image.Point { return s.anchor }

func (s State) String() string {
	switch s.kind {
	case Dragging:
		return fmt.Sprintf("dragging(%v -> %v)", s.anchor, s.current)
	case Pending, Confirmed:
		return fmt.Sprintf("%s%v", s.kind, s.rect)
	default:
		return s.kind.String()
	}
}

// Event is an input accepted by Reduce.
type Event interface {
	event()
}

type (
	PointerDown struct{ At image.Point }
	PointerMove struct{ At image.Point }
	PointerUp   struct{ At image.Point }
	Confirm     struct{}
	Cancel      struct{}
)

func (PointerDown) event() {}
func (PointerMove) event() {}
func (PointerUp) event()   {}
func (Confirm) event()     {}
func (Cancel) event()      {}

// Reduce applies ev to s. minSize <= 0 selects DefaultMinSize. The only
// error is ErrSelectionTooSmall, returned together with the unchanged state.
// Events that have no meaning in the current state leave it unchanged.
func Reduce(s State, ev Event, minSize int) (State, error) {
	if s.Terminal() {
		return s, nil
	}
	if minSize <= 0 {
		minSize = DefaultMinSize
	}

	switch e := ev.(type) {
	case Cancel:
		return State{kind: Cancelled}, nil

	case PointerDown:
		if s.kind == Idle || s.kind == Pending {
			return State{kind: Dragging, anchor: e.At, current: e.At}, nil
		}

	case PointerMove:
		if s.kind == Dragging {
			return State{kind: Dragging, anchor: s.anchor, current: e.At}, nil
		}

	case PointerUp:
		if s.kind == Dragging {
			return State{kind: Pending, anchor: s.anchor, current: e.At, rect: geometry.Normalize(s.anchor, e.At)}, nil
		}

	case Confirm:
		switch s.kind {
		case Idle:
			return s, ErrSelectionTooSmall
		case Pending:
			if s.rect.Width() < minSize || s.rect.Height() < minSize {
				return s, fmt.Errorf("%w: %dx%d, need at least %dx%d", ErrSelectionTooSmall, s.rect.Width(), s.rect.Height(), minSize, minSize)
			}
			return State{kind: Confirmed, anchor: s.anchor, current: s.current, rect: s.rect}, nil
		}
	}
	return s, nil
}
