package overlay

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"sync"
	"sync/atomic"

	"screen-snip/src/compositor"
	"screen-snip/src/geometry"
	"screen-snip/src/screenshot"
	"screen-snip/src/selection"
)

// DefaultHint is drawn at the top of every frame.
const DefaultHint = "Drag to select | Enter to confirm | Esc to cancel"

const eventBuffer = 64

var ErrSessionUsed = errors.New("overlay session already ran")

type Options struct {
	// Opacity is the fraction of intensity kept outside the selection.
	// Zero selects compositor.DefaultOpacity.
	Opacity float64
	// MinSize is the minimum confirmed width and height. Zero selects
	// selection.DefaultMinSize.
	MinSize int
	// Hint replaces DefaultHint. Use "-" to draw no hint.
	Hint string
	// OnRejected is called on the session goroutine when a confirm is
	// refused because the selection is too small.
	OnRejected func(err error)
}

// Outcome is the terminal result of a session. Confirmed is false when the
// user cancelled; Rect is then empty.
type Outcome struct {
	Rect      geometry.Rect
	Confirmed bool
}

// Session runs one interactive selection over a snapshot. Input arrives
// through the Handler methods; Run processes it one event at a time and
// presents a freshly composited frame after every state change.
type Session struct {
	snap      *screenshot.Snapshot
	presenter Presenter
	opts      Options

	state  selection.State
	events chan selection.Event
	done   chan struct{}
	stop   sync.Once
	used   atomic.Bool
}

func NewSession(snap *screenshot.Snapshot, presenter Presenter, opts Options) (*Session, error) {
	if snap == nil {
		return nil, errors.New("snapshot is required")
	}
	if presenter == nil {
		return nil, errors.New("presenter is required")
	}
	if opts.Opacity == 0 {
		opts.Opacity = compositor.DefaultOpacity
	}
	if err := compositor.ValidateOpacity(opts.Opacity); err != nil {
		return nil, err
	}
	if opts.MinSize <= 0 {
		opts.MinSize = selection.DefaultMinSize
	}
	switch opts.Hint {
	case "":
		opts.Hint = DefaultHint
	case "-":
		opts.Hint = ""
	}

	return &Session{
		snap:      snap,
		presenter: presenter,
		opts:      opts,
		events:    make(chan selection.Event, eventBuffer),
		done:      make(chan struct{}),
	}, nil
}

func (s *Session) OnPointerDown(p image.Point) { s.post(selection.PointerDown{At: p}) }
func (s *Session) OnPointerMove(p image.Point) { s.post(selection.PointerMove{At: p}) }
func (s *Session) OnPointerUp(p image.Point)   { s.post(selection.PointerUp{At: p}) }
func (s *Session) OnConfirmKey()               { s.post(selection.Confirm{}) }
func (s *Session) OnCancelKey()                { s.post(selection.Cancel{}) }

// Done is closed once Run has returned. Input posted afterwards is dropped.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) post(ev selection.Event) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

// Run presents the fully masked first frame and then processes input until
// the selection is confirmed or cancelled, or ctx ends. There is no timeout.
func (s *Session) Run(ctx context.Context) (Outcome, error) {
	if !s.used.CompareAndSwap(false, true) {
		return Outcome{}, ErrSessionUsed
	}
	defer s.stop.Do(func() { close(s.done) })

	log.Printf("OVERLAY: session started on %dx%d canvas, opacity=%.2f minSize=%d",
		s.snap.Width(), s.snap.Height(), s.opts.Opacity, s.opts.MinSize)
	if err := s.render(); err != nil {
		return Outcome{}, err
	}

	for {
		select {
		case <-ctx.Done():
			log.Printf("OVERLAY: session aborted: %v", ctx.Err())
			return Outcome{}, ctx.Err()
		case ev := <-s.events:
			next, err := selection.Reduce(s.state, s.clamp(ev), s.opts.MinSize)
			if err != nil {
				if !errors.Is(err, selection.ErrSelectionTooSmall) {
					return Outcome{}, err
				}
				log.Printf("OVERLAY: confirm rejected: %v", err)
				if s.opts.OnRejected != nil {
					s.opts.OnRejected(err)
				}
				continue
			}
			if next == s.state {
				continue
			}
			if next.Kind() != s.state.Kind() {
				log.Printf("OVERLAY: %s -> %s", s.state.Kind(), next)
			}
			s.state = next

			switch next.Kind() {
			case selection.Confirmed:
				return Outcome{Rect: next.Rect(), Confirmed: true}, nil
			case selection.Cancelled:
				return Outcome{}, nil
			}
			if err := s.render(); err != nil {
				return Outcome{}, err
			}
		}
	}
}

// clamp keeps pointer positions on the canvas so every rectangle the state
// machine produces can be cropped from the snapshot.
func (s *Session) clamp(ev selection.Event) selection.Event {
	w, h := s.snap.Width(), s.snap.Height()
	switch e := ev.(type) {
	case selection.PointerDown:
		return selection.PointerDown{At: geometry.ClampPoint(e.At, w, h)}
	case selection.PointerMove:
		return selection.PointerMove{At: geometry.ClampPoint(e.At, w, h)}
	case selection.PointerUp:
		return selection.PointerUp{At: geometry.ClampPoint(e.At, w, h)}
	}
	return ev
}

func (s *Session) render() error {
	frame, err := Frame(s.snap, s.state, s.opts.Opacity, s.opts.Hint)
	if err != nil {
		return err
	}
	if err := s.presenter.Present(frame); err != nil {
		return fmt.Errorf("present frame: %w", err)
	}
	return nil
}

// Frame composites the snapshot for state and draws the selection outline
// and label while a rectangle is being dragged or awaits confirmation.
func Frame(snap *screenshot.Snapshot, state selection.State, opacity float64, hint string) (*image.RGBA, error) {
	rect := state.Rect()
	masks := geometry.MaskRegions(snap.Width(), snap.Height(), rect)
	frame, err := compositor.Composite(snap, masks, opacity)
	if err != nil {
		return nil, fmt.Errorf("composite frame: %w", err)
	}
	switch state.Kind() {
	case selection.Dragging, selection.Pending:
		compositor.Decorate(frame, rect, hint)
	default:
		compositor.Decorate(frame, geometry.Rect{}, hint)
	}
	return frame, nil
}
