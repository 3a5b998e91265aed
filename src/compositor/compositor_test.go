package compositor

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screen-snip/src/geometry"
	"screen-snip/src/screenshot"
)

func testSnapshot(w, h int) *screenshot.Snapshot {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(10 * x), G: uint8(10 * y), B: 200, A: 255})
		}
	}
	return screenshot.NewSnapshot(img)
}

func TestCompositeRejectsInvalidOpacity(t *testing.T) {
	snap := testSnapshot(4, 4)
	for _, op := range []float64{0, 1, -0.5, 1.5} {
		_, err := Composite(snap, nil, op)
		assert.ErrorIs(t, err, ErrInvalidOpacity, "opacity %v", op)
	}
}

func TestCompositeRejectsMaskOutsideCanvas(t *testing.T) {
	snap := testSnapshot(4, 4)
	_, err := Composite(snap, []geometry.Rect{{X1: 0, Y1: 0, X2: 5, Y2: 4}}, 0.5)
	assert.ErrorIs(t, err, ErrMaskOutOfBounds)
}

func TestCompositeDarkensOnlyMasks(t *testing.T) {
	snap := testSnapshot(20, 10)
	sel := geometry.Rect{X1: 5, Y1: 2, X2: 15, Y2: 8}
	frame, err := Composite(snap, geometry.MaskRegions(20, 10, sel), 0.1)
	require.NoError(t, err)
	base := snap.Clone()

	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			orig := base.RGBAAt(x, y)
			got := frame.RGBAAt(x, y)
			if sel.Contains(image.Pt(x, y)) {
				require.Equal(t, orig, got, "selected pixel (%d,%d) changed", x, y)
				continue
			}
			want := color.RGBA{
				R: uint8(float64(orig.R)*0.1 + 0.5),
				G: uint8(float64(orig.G)*0.1 + 0.5),
				B: uint8(float64(orig.B)*0.1 + 0.5),
				A: 255,
			}
			require.Equal(t, want, got, "masked pixel (%d,%d)", x, y)
		}
	}
}

func TestCompositeIsIdempotent(t *testing.T) {
	snap := testSnapshot(32, 24)
	masks := geometry.MaskRegions(32, 24, geometry.Rect{X1: 3, Y1: 4, X2: 20, Y2: 21})

	a, err := Composite(snap, masks, 0.37)
	require.NoError(t, err)
	b, err := Composite(snap, masks, 0.37)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(a.Pix, b.Pix), "composites differ")

	// Frames are independent of each other and of the snapshot.
	a.Pix[0] = 255
	c, err := Composite(snap, masks, 0.37)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(b.Pix, c.Pix), "snapshot was modified through a frame")
}

func TestCompositeFullMaskForEmptySelection(t *testing.T) {
	snap := testSnapshot(6, 6)
	frame, err := Composite(snap, geometry.MaskRegions(6, 6, geometry.Rect{}), 0.5)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 25, G: 25, B: 100, A: 255}, frame.RGBAAt(5, 5))
}

func TestDecorateDrawsOutlineOutsideLabelArea(t *testing.T) {
	snap := testSnapshot(200, 120)
	sel := geometry.Rect{X1: 40, Y1: 40, X2: 120, Y2: 100}
	frame, err := Composite(snap, geometry.MaskRegions(200, 120, sel), 0.1)
	require.NoError(t, err)

	Decorate(frame, sel, "")
	assert.Equal(t, outlineColor, frame.RGBAAt(80, 40))
	assert.Equal(t, outlineColor, frame.RGBAAt(40, 70))
	assert.Equal(t, outlineColor, frame.RGBAAt(119, 99))
	// Interior keeps the snapshot pixel.
	assert.Equal(t, snap.Clone().RGBAAt(80, 70), frame.RGBAAt(80, 70))
}

func TestDecorateLabelTopSitsAboveSelection(t *testing.T) {
	snap := testSnapshot(200, 160)
	sel := geometry.Rect{X1: 40, Y1: 100, X2: 120, Y2: 150}
	frame, err := Composite(snap, geometry.MaskRegions(200, 160, sel), 0.1)
	require.NoError(t, err)
	before := image.NewRGBA(frame.Bounds())
	copy(before.Pix, frame.Pix)

	Decorate(frame, sel, "")

	labelRows := func(from, to int) int {
		changed := 0
		for y := from; y < to; y++ {
			for x := sel.X1; x < sel.X1+80; x++ {
				if frame.RGBAAt(x, y) != before.RGBAAt(x, y) {
					changed++
				}
			}
		}
		return changed
	}
	// Top-left anchored 20px above the selection: the glyphs fill the 13px
	// cell starting at row 80 and nothing is drawn above it.
	assert.Zero(t, labelRows(0, sel.Y1-labelGap))
	assert.NotZero(t, labelRows(sel.Y1-labelGap, sel.Y1-labelGap+14))
}

func TestDecorateSkipsTinySelection(t *testing.T) {
	snap := testSnapshot(50, 50)
	frame := snap.Clone()
	Decorate(frame, geometry.Rect{X1: 10, Y1: 10, X2: 15, Y2: 30}, "")
	assert.Equal(t, snap.Clone().Pix, frame.Pix)
}

func TestSizeLabel(t *testing.T) {
	assert.Equal(t, "400 × 300", SizeLabel(geometry.Rect{X1: 100, Y1: 100, X2: 500, Y2: 400}))
}
