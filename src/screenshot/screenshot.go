package screenshot

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"log"

	"github.com/disintegration/imaging"
	"github.com/kbinani/screenshot"
)

var (
	ErrNoDisplay    = errors.New("no active displays found")
	ErrDisplayIndex = errors.New("display index out of range")
	ErrOutOfBounds  = errors.New("rectangle outside snapshot bounds")
)

// CaptureError reports that the screen could not be read, either because no
// display is available or because the platform refused the capture.
type CaptureError struct {
	Display int
	Err     error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture display %d: %v", e.Display, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// Snapshot is a full-screen image taken once per session. Its pixels are
// never modified after construction; callers receive copies.
type Snapshot struct {
	img *image.RGBA
}

// NewSnapshot copies img into a zero-origin RGBA buffer.
func NewSnapshot(img image.Image) *Snapshot {
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return &Snapshot{img: rgba}
}

func (s *Snapshot) Bounds() image.Rectangle { return s.img.Bounds() }
func (s *Snapshot) Width() int              { return s.img.Bounds().Dx() }
func (s *Snapshot) Height() int             { return s.img.Bounds().Dy() }

// Clone returns a private copy of the pixel buffer.
func (s *Snapshot) Clone() *image.RGBA {
	out := &image.RGBA{
		Pix:    make([]uint8, len(s.img.Pix)),
		Stride: s.img.Stride,
		Rect:   s.img.Rect,
	}
	copy(out.Pix, s.img.Pix)
	return out
}

// Crop returns a new image holding exactly the pixels of r.
func (s *Snapshot) Crop(r image.Rectangle) (image.Image, error) {
	if r.Empty() || !r.In(s.img.Bounds()) {
		return nil, fmt.Errorf("crop %v from %v: %w", r, s.img.Bounds(), ErrOutOfBounds)
	}
	return imaging.Crop(s.img, r), nil
}

// Capture takes a snapshot of a single display. It must run before any
// overlay window is shown so the overlay never appears in the result.
func Capture(display int) (*Snapshot, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, &CaptureError{Display: display, Err: ErrNoDisplay}
	}
	if display < 0 || display >= n {
		return nil, &CaptureError{Display: display, Err: fmt.Errorf("%w: %d of %d", ErrDisplayIndex, display, n)}
	}

	bounds := screenshot.GetDisplayBounds(display)
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, &CaptureError{Display: display, Err: err}
	}
	log.Printf("Captured display %d: %dx%d at (%d,%d)", display, bounds.Dx(), bounds.Dy(), bounds.Min.X, bounds.Min.Y)

	// CaptureRect already returns a zero-origin buffer; wrap it without a copy.
	if img.Bounds().Min == (image.Point{}) {
		return &Snapshot{img: img}, nil
	}
	return NewSnapshot(img), nil
}

// GetDisplayBounds returns the bounds of the given display.
func GetDisplayBounds(display int) (image.Rectangle, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return image.Rectangle{}, ErrNoDisplay
	}
	if display < 0 || display >= n {
		return image.Rectangle{}, ErrDisplayIndex
	}
	return screenshot.GetDisplayBounds(display), nil
}
