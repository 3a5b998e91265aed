// Package gui shows overlay frames in a borderless full-screen fyne window
// and forwards mouse and keyboard input to an overlay.Handler.
package gui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"math"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"screen-snip/src/geometry"
	"screen-snip/src/overlay"
	"screen-snip/src/screenshot"
)

const appID = "io.github.screen-snip"

var ErrWindowClosed = errors.New("overlay window closed")

// Selector runs one interactive selection in a fyne window. The fyne app owns
// the calling goroutine until the session ends, so Select must be called from
// main and at most once per process.
type Selector struct {
	Options overlay.Options
}

func NewSelector(opts overlay.Options) *Selector {
	return &Selector{Options: opts}
}

func (s *Selector) Select(ctx context.Context, snap *screenshot.Snapshot) (geometry.Rect, bool, error) {
	a := app.NewWithID(appID)
	win := newOverlayWindow(a)

	surf := newSurface(snap.Width(), snap.Height())
	pres := &presenter{img: surf.img}
	sess, err := overlay.NewSession(snap, pres, s.Options)
	if err != nil {
		return geometry.Rect{}, false, err
	}
	surf.handler = sess

	win.SetContent(surf)
	win.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		dispatchKey(sess, ev.Name)
	})
	win.SetOnClosed(func() {
		pres.closed.Store(true)
		sess.OnCancelKey()
	})

	results := runSession(ctx, sess, func() {
		pres.closed.Store(true)
		fyne.Do(a.Quit)
	})

	log.Printf("OVERLAY: showing window for %dx%d snapshot", snap.Width(), snap.Height())
	win.ShowAndRun()
	return collect(<-results)
}

type sessionResult struct {
	out overlay.Outcome
	err error
}

// runSession runs sess on its own goroutine. The result is delivered on the
// returned channel before onExit is called.
func runSession(ctx context.Context, sess *overlay.Session, onExit func()) <-chan sessionResult {
	results := make(chan sessionResult, 1)
	go func() {
		out, err := sess.Run(ctx)
		results <- sessionResult{out: out, err: err}
		onExit()
	}()
	return results
}

// collect maps a finished session onto the Select contract. A frame that
// could not be shown because the window closed counts as a cancel.
func collect(res sessionResult) (geometry.Rect, bool, error) {
	if errors.Is(res.err, ErrWindowClosed) {
		log.Printf("OVERLAY: window closed, selection cancelled")
		return geometry.Rect{}, true, nil
	}
	if res.err != nil {
		return geometry.Rect{}, false, fmt.Errorf("overlay session: %w", res.err)
	}
	if !res.out.Confirmed {
		log.Printf("OVERLAY: selection cancelled")
		return geometry.Rect{}, true, nil
	}
	log.Printf("OVERLAY: selection confirmed: %s", res.out.Rect)
	return res.out.Rect, false, nil
}

func newOverlayWindow(a fyne.App) fyne.Window {
	var win fyne.Window
	if drv, ok := a.Driver().(desktop.Driver); ok {
		win = drv.CreateSplashWindow()
	} else {
		win = a.NewWindow("screen-snip")
	}
	win.SetPadded(false)
	win.SetFullScreen(true)
	return win
}

// presenter swaps the displayed frame on the fyne main goroutine.
type presenter struct {
	img    *canvas.Image
	closed atomic.Bool
}

func (p *presenter) Present(frame image.Image) error {
	if p.closed.Load() {
		return ErrWindowClosed
	}
	fyne.Do(func() {
		p.img.Image = frame
		p.img.Refresh()
	})
	return nil
}

// surface is the full-window widget that receives pointer input.
type surface struct {
	widget.BaseWidget

	img     *canvas.Image
	handler overlay.Handler
	width   int
	height  int
	pressed bool
}

var (
	_ desktop.Mouseable  = (*surface)(nil)
	_ desktop.Hoverable  = (*surface)(nil)
	_ desktop.Cursorable = (*surface)(nil)
	_ fyne.Draggable     = (*surface)(nil)
)

func newSurface(width, height int) *surface {
	img := canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, width, height)))
	img.FillMode = canvas.ImageFillStretch
	img.ScaleMode = canvas.ImageScalePixels

	s := &surface{img: img, width: width, height: height}
	s.ExtendBaseWidget(s)
	return s
}

func (s *surface) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(s.img)
}

func (s *surface) Cursor() desktop.Cursor { return desktop.CrosshairCursor }

func (s *surface) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary || s.handler == nil {
		return
	}
	s.pressed = true
	s.handler.OnPointerDown(s.pixel(ev.Position))
}

func (s *surface) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary || !s.pressed || s.handler == nil {
		return
	}
	s.pressed = false
	s.handler.OnPointerUp(s.pixel(ev.Position))
}

func (s *surface) MouseIn(*desktop.MouseEvent) {}
func (s *surface) MouseOut()                   {}

func (s *surface) MouseMoved(ev *desktop.MouseEvent) {
	if s.pressed && s.handler != nil {
		s.handler.OnPointerMove(s.pixel(ev.Position))
	}
}

func (s *surface) Dragged(ev *fyne.DragEvent) {
	if s.pressed && s.handler != nil {
		s.handler.OnPointerMove(s.pixel(ev.Position))
	}
}

func (s *surface) DragEnd() {}

func (s *surface) pixel(pos fyne.Position) image.Point {
	size := s.Size()
	var scale float32 = 1
	if size.Width <= 0 || size.Height <= 0 {
		if a := fyne.CurrentApp(); a != nil {
			if cv := a.Driver().CanvasForObject(s); cv != nil {
				scale = cv.Scale()
			}
		}
	}
	return toPixel(pos, size, s.width, s.height, scale)
}

// toPixel converts a widget-relative logical position to snapshot pixels.
// When the widget has been laid out its size maps onto the snapshot;
// otherwise the canvas scale is used.
func toPixel(pos fyne.Position, size fyne.Size, width, height int, scale float32) image.Point {
	sx, sy := float64(scale), float64(scale)
	if size.Width > 0 && size.Height > 0 {
		sx = float64(width) / float64(size.Width)
		sy = float64(height) / float64(size.Height)
	}
	return image.Pt(
		int(math.Round(float64(pos.X)*sx)),
		int(math.Round(float64(pos.Y)*sy)),
	)
}

// dispatchKey maps a typed key to the handler. It reports whether the key
// was consumed.
func dispatchKey(h overlay.Handler, name fyne.KeyName) bool {
	switch name {
	case fyne.KeyReturn, fyne.KeyEnter:
		h.OnConfirmKey()
	case fyne.KeyEscape:
		h.OnCancelKey()
	default:
		return false
	}
	return true
}
