package overlay

import (
	"context"
	"image"

	"screen-snip/src/geometry"
	"screen-snip/src/screenshot"
)

// Selector defines a synchronous region-selection API. The call is blocking
// and owns the snapshot for its duration.
// Returns (rect, cancelled, error). If cancelled is true, rect is undefined and err is nil.
type Selector interface {
	Select(ctx context.Context, snap *screenshot.Snapshot) (geometry.Rect, bool, error)
}

// SelectorFunc adapts a function to Selector.
type SelectorFunc func(ctx context.Context, snap *screenshot.Snapshot) (geometry.Rect, bool, error)

func (f SelectorFunc) Select(ctx context.Context, snap *screenshot.Snapshot) (geometry.Rect, bool, error) {
	return f(ctx, snap)
}

// Handler is the input surface a windowing backend drives. Positions are in
// canvas (device pixel) coordinates. Implementations must be safe to call
// from the backend's UI goroutine.
type Handler interface {
	OnPointerDown(p image.Point)
	OnPointerMove(p image.Point)
	OnPointerUp(p image.Point)
	OnConfirmKey()
	OnCancelKey()
}

// Presenter shows a finished frame. Every frame is a fresh buffer, so a
// presenter may keep showing it until the next call.
type Presenter interface {
	Present(frame image.Image) error
}
