package page

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"bananalab/internal/filesystem"
)

// ErrNoPages is returned when a document contains no page.
var ErrNoPages = errors.New("no pages in document")

type document struct {
	Pages []*Page `json:"pages"`
}

// Decode reads a single page object, an array of pages, or a
// {"pages": [...]} document.
func Decode(r io.Reader) ([]*Page, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read page document: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrNoPages
	}

	var pages []*Page
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &pages); err != nil {
			return nil, fmt.Errorf("decode page list: %w", err)
		}
	case '{':
		var doc document
		if err := json.Unmarshal(data, &doc); err == nil && len(doc.Pages) > 0 {
			pages = doc.Pages
			break
		}
		var p Page
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode page: %w", err)
		}
		pages = []*Page{&p}
	default:
		return nil, fmt.Errorf("decode page document: unexpected %q", data[0])
	}

	out := pages[:0]
	for _, p := range pages {
		if p != nil {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoPages
	}
	return out, nil
}

// Load decodes the page document at path.
func Load(path string) ([]*Page, error) {
	f, err := filesystem.Open(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pages, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pages, nil
}

// Validate returns human readable warnings about parts of the page the
// renderer will skip or reinterpret. An empty result means the page renders
// as authored.
func Validate(p *Page) []string {
	var warnings []string
	if p.ID == "" {
		warnings = append(warnings, "page has no id; thumbnails cannot be cached")
	}
	if len(p.Cells) > MaxRenderedCells {
		warnings = append(warnings, fmt.Sprintf("page has %d cells; only the first %d are rendered",
			len(p.Cells), MaxRenderedCells))
	}
	for ci, c := range p.Cells {
		visible := 0
		for ei, el := range c.Elements {
			if !el.Visible() {
				warnings = append(warnings, fmt.Sprintf("cell %d element %d: type %q is not rendered", ci, ei, el.Type))
				continue
			}
			visible++
			if el.Type == ElementImage && el.Content == "" {
				warnings = append(warnings, fmt.Sprintf("cell %d element %d: image has no content reference", ci, ei))
			}
			if el.Position.X == 1 || el.Position.Y == 1 {
				warnings = append(warnings, fmt.Sprintf("cell %d element %d: position 1 reads as 100%% of the cell", ci, ei))
			}
		}
		if visible > MaxElementsPerCell {
			warnings = append(warnings, fmt.Sprintf("cell %d has %d visible elements; only the first %d are rendered",
				ci, visible, MaxElementsPerCell))
		}
	}
	return warnings
}
