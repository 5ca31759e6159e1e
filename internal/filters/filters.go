package filters

import (
	"encoding/json"
	"math"

	"bananalab/internal/logging"
)

var log = logging.Component("filters")

// Filters is the per-image filter record as authored in the editor.
// Percentages are around 100, hue and rotate are degrees, blur is pixels.
type Filters struct {
	Brightness     float64 `json:"brightness"`
	Contrast       float64 `json:"contrast"`
	Saturation     float64 `json:"saturation"`
	Hue            float64 `json:"hue"`
	Tint           float64 `json:"tint"`
	Blur           float64 `json:"blur"`
	GaussianBlur   float64 `json:"gaussianBlur"`
	Opacity        float64 `json:"opacity"`
	Scale          float64 `json:"scale"`
	Rotate         float64 `json:"rotate"`
	FlipHorizontal bool    `json:"flipHorizontal"`
	FlipVertical   bool    `json:"flipVertical"`
}

// Identity returns the record that leaves an image unchanged.
func Identity() Filters {
	return Filters{
		Brightness: 100,
		Contrast:   100,
		Saturation: 100,
		Opacity:    100,
		Scale:      1,
	}
}

// UnmarshalJSON fills omitted fields with identity values rather than zero.
func (f *Filters) UnmarshalJSON(data []byte) error {
	type plain Filters
	p := plain(Identity())
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*f = Filters(p)
	return nil
}

// Params are normalized filter values: percentages divided by 100, blur
// reduced to a single radius. Hue stays in degrees.
type Params struct {
	Brightness float64
	Contrast   float64
	Saturation float64
	Hue        float64
	Tint       float64
	Blur       float64
	Opacity    float64
	Scale      float64
	Rotate     float64
	FlipH      bool
	FlipV      bool
}

const epsilon = 1e-9

func near(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

// Normalize converts the record to Params. Malformed values are replaced
// with the nearest safe value and logged.
func (f Filters) Normalize() Params {
	p := Params{
		Brightness: sanitize("brightness", f.Brightness/100, 0, math.Inf(1), 1),
		Contrast:   sanitize("contrast", f.Contrast/100, 0, math.Inf(1), 1),
		Saturation: sanitize("saturation", f.Saturation/100, 0, math.Inf(1), 1),
		Hue:        sanitize("hue", f.Hue, math.Inf(-1), math.Inf(1), 0),
		Tint:       sanitize("tint", f.Tint/100, 0, 1, 0),
		Blur: math.Max(
			sanitize("blur", f.Blur, 0, math.Inf(1), 0),
			sanitize("gaussianBlur", f.GaussianBlur, 0, math.Inf(1), 0),
		),
		Opacity: sanitize("opacity", f.Opacity/100, 0, 1, 1),
		Scale:   sanitize("scale", f.Scale, epsilon, math.Inf(1), 1),
		Rotate:  sanitize("rotate", f.Rotate, math.Inf(-1), math.Inf(1), 0),
		FlipH:   f.FlipHorizontal,
		FlipV:   f.FlipVertical,
	}
	return p
}

func sanitize(name string, v, lo, hi, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		log.Warn("%s is not a finite number, using %g", name, def)
		return def
	}
	if v < lo {
		if lo == epsilon {
			log.Warn("%s %g must be positive, using %g", name, v, def)
			return def
		}
		log.Warn("%s %g below %g, clamping", name, v, lo)
		return lo
	}
	if v > hi {
		log.Warn("%s %g above %g, clamping", name, v, hi)
		return hi
	}
	return v
}

// HasPixelFilters reports whether any color or blur adjustment is active.
func (p Params) HasPixelFilters() bool {
	return !near(p.Brightness, 1) ||
		!near(p.Contrast, 1) ||
		!near(p.Saturation, 1) ||
		!near(math.Mod(p.Hue, 360), 0) ||
		p.Tint > epsilon ||
		p.Blur > epsilon ||
		!near(p.Opacity, 1)
}

// HasTransform reports whether scale, rotation or a flip is active.
func (p Params) HasTransform() bool {
	return !near(p.Scale, 1) || !near(math.Mod(p.Rotate, 360), 0) || p.FlipH || p.FlipV
}

// HasRealFilters reports whether the parameters change the image at all.
func (p Params) HasRealFilters() bool {
	return p.HasPixelFilters() || p.HasTransform()
}

// HasRealFilters reports whether the record differs from Identity. A nil
// record has no filters.
func (f *Filters) HasRealFilters() bool {
	if f == nil {
		return false
	}
	return f.Normalize().HasRealFilters()
}
