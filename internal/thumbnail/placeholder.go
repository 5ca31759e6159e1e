package thumbnail

import (
	"image"
	"image/color"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"bananalab/internal/canvas"
	"bananalab/internal/page"
	"bananalab/internal/render"
)

var (
	placeholderColors = map[string]color.NRGBA{
		"cover":   {R: 0xf5, G: 0xc5, B: 0x42, A: 0xff},
		"content": {R: 0x8e, G: 0xca, B: 0xe6, A: 0xff},
		"photo":   {R: 0x8e, G: 0xca, B: 0xe6, A: 0xff},
		"text":    {R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff},
		"back":    {R: 0xb5, G: 0xe4, B: 0x8c, A: 0xff},
	}
	defaultPlaceholderColor = color.NRGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff}
	placeholderLabelColor   = color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}
)

// PlaceholderColor returns the fill used for a page type.
func PlaceholderColor(pageType string) color.NRGBA {
	if c, ok := placeholderColors[strings.ToLower(pageType)]; ok {
		return c
	}
	return defaultPlaceholderColor
}

func placeholderLabel(p *page.Page) string {
	switch {
	case p == nil:
		return "Page"
	case p.Title != "":
		return p.Title
	case p.Type != "":
		first, n := utf8.DecodeRuneInString(p.Type)
		return string(unicode.ToUpper(first)) + p.Type[n:]
	case p.ID != "":
		return p.ID
	default:
		return "Page"
	}
}

// Placeholder draws the fallback raster for p at size.
func Placeholder(p *page.Page, size image.Point) *image.RGBA {
	c := canvas.New(size.X, size.Y)
	pageType := ""
	if p != nil {
		pageType = p.Type
	}
	c.Fill(PlaceholderColor(pageType))

	fontSize := math.Max(render.MinFontSize, float64(min(size.X, size.Y))/8)
	if err := render.DrawLabel(c, placeholderLabel(p), c.Bounds(), fontSize, placeholderLabelColor); err != nil {
		log.Warn("placeholder label: %v", err)
	}
	return c.Image()
}
