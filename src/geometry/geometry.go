package geometry

import (
	"fmt"
	"image"
)

// Rect is an axis-aligned rectangle in canvas coordinates covering
// [X1,X2) x [Y1,Y2). A normalized Rect has X1 <= X2 and Y1 <= Y2.
type Rect struct {
	X1, Y1, X2, Y2 int
}

// Normalize builds the rectangle spanned by two corner points in any order.
func Normalize(a, b image.Point) Rect {
	r := Rect{X1: a.X, Y1: a.Y, X2: b.X, Y2: b.Y}
	if r.X1 > r.X2 {
		r.X1, r.X2 = r.X2, r.X1
	}
	if r.Y1 > r.Y2 {
		r.Y1, r.Y2 = r.Y2, r.Y1
	}
	return r
}

func (r Rect) Width() int  { return r.X2 - r.X1 }
func (r Rect) Height() int { return r.Y2 - r.Y1 }

// Empty reports whether the rectangle has zero area.
func (r Rect) Empty() bool { return r.X1 >= r.X2 || r.Y1 >= r.Y2 }

func (r Rect) Image() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

// Clip returns r restricted to the canvas [0,w) x [0,h).
func (r Rect) Clip(w, h int) Rect {
	return Rect{
		X1: clamp(r.X1, 0, w),
		Y1: clamp(r.Y1, 0, h),
		X2: clamp(r.X2, 0, w),
		Y2: clamp(r.Y2, 0, h),
	}
}

// Within reports whether r lies entirely inside the canvas [0,w) x [0,h).
func (r Rect) Within(w, h int) bool {
	return r.X1 >= 0 && r.Y1 >= 0 && r.X2 <= w && r.Y2 <= h && r.X1 <= r.X2 && r.Y1 <= r.Y2
}

func (r Rect) Contains(p image.Point) bool {
	return p.X >= r.X1 && p.X < r.X2 && p.Y >= r.Y1 && p.Y < r.Y2
}

// Overlaps reports whether the two rectangles share at least one pixel.
func (r Rect) Overlaps(o Rect) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	return r.X1 < o.X2 && o.X1 < r.X2 && r.Y1 < o.Y2 && o.Y1 < r.Y2
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", r.X1, r.Y1, r.X2, r.Y2)
}

// ClampPoint pulls p onto the canvas [0,w] x [0,h]. Pointer positions use
// the closed range so a drag can reach the right and bottom edges.
func ClampPoint(p image.Point, w, h int) image.Point {
	return image.Point{X: clamp(p.X, 0, w), Y: clamp(p.Y, 0, h)}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
