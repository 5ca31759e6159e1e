package render

import (
	"image"
	"image/color"
	"strings"

	"bananalab/internal/canvas"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const ellipsis = "…"

// truncate shortens s so it fits maxWidth, marking the cut with an
// ellipsis. It returns "" when not even the ellipsis fits.
func truncate(face font.Face, s string, maxWidth int) string {
	limit := fixed.I(maxWidth)
	if font.MeasureString(face, s) <= limit {
		return s
	}
	runes := []rune(s)
	for n := len(runes) - 1; n >= 0; n-- {
		candidate := strings.TrimRight(string(runes[:n]), " ") + ellipsis
		if font.MeasureString(face, candidate) <= limit {
			return candidate
		}
	}
	return ""
}

// firstLine returns the first line of s with surrounding space removed.
func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimSpace(line)
}

// drawText paints one truncated line of s at the top-left of dst.
func drawText(c *canvas.Context, s string, dst image.Rectangle, size float64, bold bool, col color.Color) error {
	face, err := fonts.face(size, bold)
	if err != nil {
		return err
	}
	fonts.drawMu.Lock()
	defer fonts.drawMu.Unlock()
	line := truncate(face, firstLine(s), dst.Dx())
	if line == "" {
		return nil
	}
	m := face.Metrics()
	dot := fixed.Point26_6{X: fixed.I(dst.Min.X), Y: fixed.I(dst.Min.Y) + m.Ascent}
	c.DrawString(face, dot, line, col)
	return nil
}

// DrawLabel paints s centered in r, truncated to fit its width.
func DrawLabel(c *canvas.Context, s string, r image.Rectangle, size float64, col color.Color) error {
	face, err := fonts.face(size, true)
	if err != nil {
		return err
	}
	fonts.drawMu.Lock()
	defer fonts.drawMu.Unlock()
	line := truncate(face, firstLine(s), r.Dx())
	if line == "" {
		return nil
	}
	m := face.Metrics()
	width := font.MeasureString(face, line)
	height := m.Ascent + m.Descent
	x := fixed.I(r.Min.X) + (fixed.I(r.Dx())-width)/2
	y := fixed.I(r.Min.Y) + (fixed.I(r.Dy())-height)/2 + m.Ascent
	c.DrawString(face, fixed.Point26_6{X: x, Y: y}, line, col)
	return nil
}
