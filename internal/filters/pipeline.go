package filters

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"
	"time"

	"bananalab/internal/metrics"

	"github.com/disintegration/imaging"
)

// ErrApplication reports that a filter run failed. Callers fall back to the
// unfiltered draw of the same element.
var ErrApplication = errors.New("filter application failed")

// Strategy selects how color filters are applied. It is passed per call.
type Strategy int

const (
	// StrategyAuto uses the composed chain when it is known to match the
	// pixel strategy for the requested values.
	StrategyAuto Strategy = iota
	// StrategyFast always uses the composed gift chain.
	StrategyFast
	// StrategyPixel always uses direct per-pixel manipulation.
	StrategyPixel
)

func (s Strategy) String() string {
	switch s {
	case StrategyAuto:
		return "auto"
	case StrategyFast:
		return "fast"
	case StrategyPixel:
		return "pixel"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// ParseStrategy converts a configuration value to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return StrategyAuto, nil
	case "fast":
		return StrategyFast, nil
	case "pixel":
		return StrategyPixel, nil
	default:
		return StrategyAuto, fmt.Errorf("unknown filter strategy %q", s)
	}
}

// agreeTolerance is the largest per-channel difference the composed chain
// may show against the pixel strategy and still be trusted.
const agreeTolerance = 6

// Pipeline produces filtered bitmaps. It never mutates its input.
type Pipeline struct {
	parallel bool

	checkOnce sync.Once
	fastOK    bool
}

// NewPipeline returns a pipeline. workers > 1 enables parallel filter
// execution inside the composed chain.
func NewPipeline(workers int) *Pipeline {
	return &Pipeline{parallel: workers > 1}
}

// FastAvailable runs the capability check once and reports whether the
// composed chain reproduces the pixel strategy.
func (p *Pipeline) FastAvailable() bool {
	p.checkOnce.Do(func() {
		p.fastOK = checkFast(p.parallel)
		if p.fastOK {
			metrics.FilterFastAvailable.Set(1)
			log.Debug("composed filter chain passed capability check")
		} else {
			metrics.FilterFastAvailable.Set(0)
			log.Info("composed filter chain disagrees with pixel filters, using pixel strategy")
		}
	})
	return p.fastOK
}

// choose resolves StrategyAuto for the given parameters.
func (p *Pipeline) choose(s Strategy, params Params) Strategy {
	switch s {
	case StrategyFast:
		if !fastSupports(params) {
			return StrategyPixel
		}
		return StrategyFast
	case StrategyPixel:
		return StrategyPixel
	default:
		if fastSupports(params) && p.FastAvailable() {
			return StrategyFast
		}
		return StrategyPixel
	}
}

// Resize returns a copy of src scaled to width x height.
func Resize(src image.Image, width, height int) *image.NRGBA {
	b := src.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return imaging.Clone(src)
	}
	return imaging.Resize(src, width, height, imaging.Lanczos)
}

// Apply resizes src to width x height and applies f. A nil or identity
// record returns the plain resized copy.
func (p *Pipeline) Apply(src image.Image, f *Filters, width, height int, strategy Strategy) (out *image.NRGBA, err error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid size %dx%d", ErrApplication, width, height)
	}

	start := time.Now()
	resized := Resize(src, width, height)
	if f == nil {
		metrics.FilterApplicationsTotal.WithLabelValues("none", "success").Inc()
		return resized, nil
	}
	params := f.Normalize()
	if !params.HasRealFilters() {
		metrics.FilterApplicationsTotal.WithLabelValues("none", "success").Inc()
		return resized, nil
	}

	chosen := p.choose(strategy, params)
	label := chosen.String()
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("%w: %v", ErrApplication, r)
		}
		status := "success"
		if err != nil {
			status = "error"
			log.Warn("%s strategy failed: %v", label, err)
		}
		metrics.FilterApplicationsTotal.WithLabelValues(label, status).Inc()
		metrics.FilterDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	}()

	out = resized
	if params.HasPixelFilters() {
		if chosen == StrategyFast {
			out = applyFast(out, params, p.parallel)
		} else {
			out = applyPixels(out, params)
		}
	}
	if params.HasTransform() {
		out = applyTransform(out, params)
	}
	return out, nil
}

// checkFast filters a small gradient with both strategies and compares.
func checkFast(parallel bool) bool {
	src := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			src.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 32),
				G: uint8(y * 32),
				B: uint8((x + y) * 16),
				A: 255,
			})
		}
	}
	params := Params{
		Brightness: 1.2,
		Contrast:   1.1,
		Saturation: 1.3,
		Hue:        20,
		Tint:       0.3,
		Opacity:    0.9,
		Scale:      1,
	}

	fast := func() (img *image.NRGBA) {
		defer func() {
			if r := recover(); r != nil {
				img = nil
			}
		}()
		return applyFast(src, params, parallel)
	}()
	if fast == nil {
		return false
	}
	ref := applyPixels(src, params)
	return maxChannelDiff(fast, ref) <= agreeTolerance
}

func maxChannelDiff(a, b *image.NRGBA) int {
	if a.Rect.Size() != b.Rect.Size() {
		return 255
	}
	worst := 0
	for i := range a.Pix {
		d := int(a.Pix[i]) - int(b.Pix[i])
		if d < 0 {
			d = -d
		}
		if d > worst {
			worst = d
		}
	}
	return worst
}
