package geometry

// MaskRegions returns the rectangles that must be darkened on a w x h canvas
// when sel is the current selection. The result tiles the canvas minus sel
// without overlap: a full-width band above and below the selection, and
// left/right pieces limited to the selection's rows. Zero-area pieces are
// omitted. An empty selection masks the whole canvas.
func MaskRegions(w, h int, sel Rect) []Rect {
	if w <= 0 || h <= 0 {
		return nil
	}
	full := Rect{X1: 0, Y1: 0, X2: w, Y2: h}
	sel = sel.Clip(w, h)
	if sel.Empty() {
		return []Rect{full}
	}

	masks := make([]Rect, 0, 4)
	if sel.Y1 > 0 {
		masks = append(masks, Rect{X1: 0, Y1: 0, X2: w, Y2: sel.Y1})
	}
	if sel.Y2 < h {
		masks = append(masks, Rect{X1: 0, Y1: sel.Y2, X2: w, Y2: h})
	}
	if sel.X1 > 0 {
		masks = append(masks, Rect{X1: 0, Y1: sel.Y1, X2: sel.X1, Y2: sel.Y2})
	}
	if sel.X2 < w {
		masks = append(masks, Rect{X1: sel.X2, Y1: sel.Y1, X2: w, Y2: sel.Y2})
	}
	return masks
}
