package geometry

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskRegionsExample(t *testing.T) {
	sel := Normalize(image.Pt(100, 100), image.Pt(500, 400))
	require.Equal(t, Rect{100, 100, 500, 400}, sel)

	masks := MaskRegions(1920, 1080, sel)
	assert.Equal(t, []Rect{
		{0, 0, 1920, 100},
		{0, 400, 1920, 1080},
		{0, 100, 100, 400},
		{500, 100, 1920, 400},
	}, masks)
}

func TestMaskRegionsEmptySelectionMasksCanvas(t *testing.T) {
	for _, sel := range []Rect{{}, {50, 50, 50, 50}, {10, 10, 40, 10}} {
		assert.Equal(t, []Rect{{0, 0, 64, 48}}, MaskRegions(64, 48, sel), "selection %v", sel)
	}
}

func TestMaskRegionsOmitsZeroAreaPieces(t *testing.T) {
	tests := []struct {
		name string
		sel  Rect
		want []Rect
	}{
		{"full canvas", Rect{0, 0, 20, 10}, []Rect{}},
		{"touches top-left", Rect{0, 0, 5, 5}, []Rect{{0, 5, 20, 10}, {5, 0, 20, 5}}},
		{"touches bottom-right", Rect{15, 5, 20, 10}, []Rect{{0, 0, 20, 5}, {0, 5, 15, 10}}},
		{"full-height column", Rect{5, 0, 10, 10}, []Rect{{0, 0, 5, 10}, {10, 0, 20, 10}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskRegions(20, 10, tt.sel))
		})
	}
}

func TestMaskRegionsClipsSelectionToCanvas(t *testing.T) {
	masks := MaskRegions(20, 10, Rect{-5, -5, 10, 5})
	assert.Equal(t, []Rect{{0, 5, 20, 10}, {10, 0, 20, 5}}, masks)
}

// Every selection on a small canvas must leave the masks and the selection
// covering each pixel exactly once.
func TestMaskRegionsTileCanvas(t *testing.T) {
	const w, h = 7, 5
	for x1 := 0; x1 <= w; x1++ {
		for x2 := x1; x2 <= w; x2++ {
			for y1 := 0; y1 <= h; y1++ {
				for y2 := y1; y2 <= h; y2++ {
					sel := Rect{x1, y1, x2, y2}
					masks := MaskRegions(w, h, sel)
					require.LessOrEqual(t, len(masks), 4)
					assertTiling(t, w, h, sel, masks)
				}
			}
		}
	}
}

func assertTiling(t *testing.T, w, h int, sel Rect, masks []Rect) {
	t.Helper()
	for i, m := range masks {
		require.False(t, m.Empty(), "selection %v produced empty mask %v", sel, m)
		require.True(t, m.Within(w, h), "mask %v escapes canvas", m)
		require.False(t, m.Overlaps(sel), "mask %v covers selection %v", m, sel)
		for _, o := range masks[i+1:] {
			require.False(t, m.Overlaps(o), "masks %v and %v overlap", m, o)
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := image.Pt(x, y)
			covered := 0
			if !sel.Empty() && sel.Contains(p) {
				covered++
			}
			for _, m := range masks {
				if m.Contains(p) {
					covered++
				}
			}
			require.Equal(t, 1, covered, "pixel %v covered %d times for selection %v", p, covered, sel)
		}
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, Rect{1, 2, 8, 9}, Normalize(image.Pt(8, 9), image.Pt(1, 2)))
	assert.Equal(t, Rect{1, 2, 8, 9}, Normalize(image.Pt(1, 9), image.Pt(8, 2)))
	r := Normalize(image.Pt(3, 3), image.Pt(3, 3))
	assert.True(t, r.Empty())
	assert.Equal(t, 0, r.Width())
}

func TestClampPoint(t *testing.T) {
	assert.Equal(t, image.Pt(0, 10), ClampPoint(image.Pt(-4, 12), 20, 10))
	assert.Equal(t, image.Pt(20, 3), ClampPoint(image.Pt(25, 3), 20, 10))
}
