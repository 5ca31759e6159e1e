package page

import "math"

// Rect is a floating point rectangle in output pixels (or page fractions for
// Cell.Rect).
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// ResolveUnit converts a position or size component to output pixels.
// Values <= 1 are fractions of extent; larger values are absolute page
// pixels multiplied by scale. An absolute offset of exactly 1px cannot be
// expressed and reads as 100%.
func ResolveUnit(v, extent, scale float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v <= 1 {
		return v * extent
	}
	return v * scale
}

// ResolveRect places an element inside cell. A zero width or height means
// the element spans the full cell in that axis.
func ResolveRect(pos Point, size Size, cell Rect, scale float64) Rect {
	w, h := size.Width, size.Height
	if w == 0 {
		w = 1
	}
	if h == 0 {
		h = 1
	}
	return Rect{
		X:      cell.X + ResolveUnit(pos.X, cell.Width, scale),
		Y:      cell.Y + ResolveUnit(pos.Y, cell.Height, scale),
		Width:  ResolveUnit(w, cell.Width, scale),
		Height: ResolveUnit(h, cell.Height, scale),
	}
}

// GridCells computes near-square grid bounds for n cells inside a
// width x height surface.
func GridCells(n int, width, height float64) []Rect {
	if n <= 0 {
		return nil
	}
	if n > MaxRenderedCells {
		n = MaxRenderedCells
	}
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	rows := int(math.Ceil(float64(n) / float64(cols)))
	cw := width / float64(cols)
	ch := height / float64(rows)

	rects := make([]Rect, n)
	for i := range rects {
		rects[i] = Rect{
			X:      float64(i%cols) * cw,
			Y:      float64(i/cols) * ch,
			Width:  cw,
			Height: ch,
		}
	}
	return rects
}

// CellBounds returns the output-pixel bounds of every rendered cell. Cells
// with an explicit Rect use it as fractions of the surface; the rest take
// their grid slot.
func CellBounds(p *Page, width, height float64) []Rect {
	cells := p.RenderedCells()
	grid := GridCells(len(cells), width, height)
	for i, c := range cells {
		if c.Rect == nil || c.Rect.Empty() {
			continue
		}
		grid[i] = Rect{
			X:      c.Rect.X * width,
			Y:      c.Rect.Y * height,
			Width:  c.Rect.Width * width,
			Height: c.Rect.Height * height,
		}
	}
	return grid
}
