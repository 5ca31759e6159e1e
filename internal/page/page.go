package page

import (
	"encoding/json"
	"fmt"
	"strings"

	"bananalab/internal/filters"

	"github.com/cespare/xxhash/v2"
)

// Render bounds. These keep generation latency acceptable for interactive
// use; they are not limits of the page model itself.
const (
	MaxRenderedCells   = 9
	MaxElementsPerCell = 3
)

// ElementType tags the Element union.
type ElementType string

const (
	ElementImage ElementType = "image"
	ElementText  ElementType = "text"
)

// Page is a finished page description produced by the editor. The renderer
// only reads it.
type Page struct {
	ID              string `json:"id"`
	Type            string `json:"type,omitempty"`
	Title           string `json:"title,omitempty"`
	Width           int    `json:"width,omitempty"`
	Height          int    `json:"height,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	BackgroundImage string `json:"backgroundImage,omitempty"`
	Cells           []Cell `json:"cells"`
}

// Cell holds an ordered list of elements. Rect optionally overrides the
// grid-derived bounds with fractions of the page.
type Cell struct {
	ID       string    `json:"id"`
	Rect     *Rect     `json:"rect,omitempty"`
	Elements []Element `json:"elements"`
}

// Point is an element position; each coordinate is either a fraction of the
// cell (<= 1) or absolute page pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size follows the same unit convention as Point. Zero means the full cell.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Style is the text styling of a text element.
type Style struct {
	FontSize   float64 `json:"fontSize,omitempty"`
	Color      string  `json:"color,omitempty"`
	FontWeight string  `json:"fontWeight,omitempty"`
}

// Bold reports whether the style asks for a bold face.
func (s *Style) Bold() bool {
	if s == nil {
		return false
	}
	w := strings.ToLower(s.FontWeight)
	return w == "bold" || w == "700" || w == "800" || w == "900"
}

// Mask names a geometric clip region. It decodes from either "circle" or
// {"type": "circle"}.
type Mask struct {
	Type string `json:"type"`
}

// UnmarshalJSON accepts both the string and object forms.
func (m *Mask) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		m.Type = name
		return nil
	}
	type plain Mask
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("mask: %w", err)
	}
	*m = Mask(p)
	return nil
}

// Element is one paintable item of a cell. Content is the image reference
// for image elements and the text for text elements.
type Element struct {
	ID       string           `json:"id"`
	Type     ElementType      `json:"type"`
	Position Point            `json:"position"`
	Size     Size             `json:"size"`
	Content  string           `json:"content"`
	Filters  *filters.Filters `json:"filters,omitempty"`
	Mask     *Mask            `json:"mask,omitempty"`
	Style    *Style           `json:"style,omitempty"`
}

// Visible reports whether the element is of a type the renderer paints.
func (e Element) Visible() bool {
	return e.Type == ElementImage || e.Type == ElementText
}

// RenderedCells returns the cells that are laid out, in list order.
func (p *Page) RenderedCells() []Cell {
	if len(p.Cells) > MaxRenderedCells {
		return p.Cells[:MaxRenderedCells]
	}
	return p.Cells
}

// VisibleElements returns at most MaxElementsPerCell paintable elements of
// the cell, in list order.
func (c Cell) VisibleElements() []Element {
	out := make([]Element, 0, MaxElementsPerCell)
	for _, el := range c.Elements {
		if !el.Visible() {
			continue
		}
		out = append(out, el)
		if len(out) == MaxElementsPerCell {
			break
		}
	}
	return out
}

// AssetRefs lists every image reference a render of the page touches, in
// paint order, without duplicates.
func AssetRefs(p *Page) []string {
	seen := make(map[string]bool)
	var refs []string
	add := func(ref string) {
		ref = strings.TrimSpace(ref)
		if ref == "" || seen[ref] {
			return
		}
		seen[ref] = true
		refs = append(refs, ref)
	}

	add(p.BackgroundImage)
	for _, cell := range p.RenderedCells() {
		for _, el := range cell.VisibleElements() {
			if el.Type == ElementImage {
				add(el.Content)
			}
		}
	}
	return refs
}

// Fingerprint hashes the page description so cached output can be checked
// against later edits of the same page id.
func Fingerprint(p *Page) uint64 {
	data, err := json.Marshal(p)
	if err != nil {
		return 0
	}
	return xxhash.Sum64(data)
}
