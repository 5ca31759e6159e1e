package render

import (
	"fmt"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// MinFontSize is the smallest text size painted, in output pixels.
const MinFontSize = 8

type faceKey struct {
	bold bool
	size float64
}

type fontCache struct {
	once    sync.Once
	err     error
	regular *opentype.Font
	bold    *opentype.Font

	mu    sync.Mutex
	faces map[faceKey]font.Face

	// opentype faces keep scratch buffers, so glyph work is serialized
	drawMu sync.Mutex
}

var fonts = &fontCache{faces: make(map[faceKey]font.Face)}

func (fc *fontCache) load() error {
	fc.once.Do(func() {
		if fc.regular, fc.err = opentype.Parse(goregular.TTF); fc.err != nil {
			fc.err = fmt.Errorf("parse regular font: %w", fc.err)
			return
		}
		if fc.bold, fc.err = opentype.Parse(gobold.TTF); fc.err != nil {
			fc.err = fmt.Errorf("parse bold font: %w", fc.err)
		}
	})
	return fc.err
}

// face returns a cached face. Sizes are rounded to half pixels so that
// scaled pages do not create a face per fractional size.
func (fc *fontCache) face(size float64, bold bool) (font.Face, error) {
	if err := fc.load(); err != nil {
		return nil, err
	}
	size = math.Max(MinFontSize, math.Round(size*2)/2)
	key := faceKey{bold: bold, size: size}

	fc.mu.Lock()
	defer fc.mu.Unlock()
	if f, ok := fc.faces[key]; ok {
		return f, nil
	}

	src := fc.regular
	if bold {
		src = fc.bold
	}
	f, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create %.1fpx face: %w", size, err)
	}
	fc.faces[key] = f
	return f, nil
}
