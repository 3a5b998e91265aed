package compositor

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"screen-snip/src/geometry"
)

const (
	// minDecoratedSpan matches the outline threshold of the selection: tiny
	// rectangles are not outlined so a click does not flash a red dot.
	minDecoratedSpan = 5
	outlineWidth     = 2
	labelGap         = 20
)

var (
	outlineColor = color.RGBA{R: 255, A: 255}
	labelColor   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	labelShadow  = color.RGBA{A: 255}
)

// SizeLabel formats the selection size shown next to the outline.
func SizeLabel(r geometry.Rect) string {
	return fmt.Sprintf("%d × %d", r.Width(), r.Height())
}

// Decorate draws the cosmetic layer over a composited frame: the hint line
// at the top of the canvas and, for a visible selection, a red outline with
// its size label. It is not part of the compositing contract.
func Decorate(frame *image.RGBA, sel geometry.Rect, hint string) {
	b := frame.Bounds()
	if hint != "" {
		face := basicfont.Face7x13
		width := font.MeasureString(face, hint).Ceil()
		drawText(frame, hint, image.Pt((b.Dx()-width)/2, 50))
	}

	if sel.Width() <= minDecoratedSpan || sel.Height() <= minDecoratedSpan {
		return
	}
	drawOutline(frame, sel.Image().Intersect(b))

	// The label's top edge sits labelGap above the selection, or below its
	// top edge when there is no room.
	y := sel.Y1 - labelGap
	if sel.Y1 <= labelGap {
		y = sel.Y1 + labelGap
	}
	drawText(frame, SizeLabel(sel), image.Pt(sel.X1+2, y+basicfont.Face7x13.Ascent))
}

func drawOutline(dst *image.RGBA, r image.Rectangle) {
	src := image.NewUniform(outlineColor)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+outlineWidth),
		image.Rect(r.Min.X, r.Max.Y-outlineWidth, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+outlineWidth, r.Max.Y),
		image.Rect(r.Max.X-outlineWidth, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(r), src, image.Point{}, draw.Src)
	}
}

// drawText renders s with its baseline at dot, with a 1px shadow so the
// label stays readable on light content.
func drawText(dst *image.RGBA, s string, dot image.Point) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(labelShadow),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(dot.X+1, dot.Y+1),
	}
	d.DrawString(s)
	d.Src = image.NewUniform(labelColor)
	d.Dot = fixed.P(dot.X, dot.Y)
	d.DrawString(s)
}
