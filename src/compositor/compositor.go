// Package compositor renders overlay frames: the snapshot with every mask
// region darkened toward black.
package compositor

import (
	"errors"
	"fmt"
	"image"
	"math"

	"screen-snip/src/geometry"
	"screen-snip/src/screenshot"
)

// DefaultOpacity keeps 10% of a masked pixel's intensity.
const DefaultOpacity = 0.1

var (
	ErrInvalidOpacity  = errors.New("opacity must be in (0,1)")
	ErrMaskOutOfBounds = errors.New("mask region outside canvas")
)

// ValidateOpacity rejects values outside the open interval (0,1).
func ValidateOpacity(opacity float64) error {
	if math.IsNaN(opacity) || opacity <= 0 || opacity >= 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidOpacity, opacity)
	}
	return nil
}

// Composite returns a new frame built from base with each mask region
// darkened so that only opacity of the original intensity remains. Pixels
// outside every mask are copied unchanged. The frame is always derived from
// base, so identical inputs produce byte-identical output.
func Composite(base *screenshot.Snapshot, masks []geometry.Rect, opacity float64) (*image.RGBA, error) {
	if err := ValidateOpacity(opacity); err != nil {
		return nil, err
	}
	w, h := base.Width(), base.Height()
	for _, m := range masks {
		if !m.Within(w, h) {
			return nil, fmt.Errorf("%w: %v on %dx%d", ErrMaskOutOfBounds, m, w, h)
		}
	}

	frame := base.Clone()
	lut := darkenTable(opacity)
	for _, m := range masks {
		darken(frame, m, &lut)
	}
	return frame, nil
}

func darkenTable(opacity float64) [256]uint8 {
	var lut [256]uint8
	for i := range lut {
		lut[i] = uint8(math.Round(float64(i) * opacity))
	}
	return lut
}

// darken blends the colour channels of r toward black. Alpha is kept.
func darken(img *image.RGBA, r geometry.Rect, lut *[256]uint8) {
	if r.Empty() {
		return
	}
	for y := r.Y1; y < r.Y2; y++ {
		row := img.Pix[img.PixOffset(r.X1, y):img.PixOffset(r.X2, y)]
		for i := 0; i < len(row); i += 4 {
			row[i] = lut[row[i]]
			row[i+1] = lut[row[i+1]]
			row[i+2] = lut[row[i+2]]
		}
	}
}
