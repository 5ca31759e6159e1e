package filters

import (
	"encoding/json"
	"image"
	"image/color"
	"math"
	"testing"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestUnmarshalUsesIdentityDefaults(t *testing.T) {
	var f Filters
	if err := json.Unmarshal([]byte(`{"brightness":150,"flipHorizontal":true}`), &f); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	want := Identity()
	want.Brightness = 150
	want.FlipHorizontal = true
	if f != want {
		t.Errorf("decoded %+v, want %+v", f, want)
	}
}

func TestHasRealFilters(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Filters)
		want   bool
	}{
		{"identity", func(f *Filters) {}, false},
		{"brightness", func(f *Filters) { f.Brightness = 150 }, true},
		{"contrast", func(f *Filters) { f.Contrast = 90 }, true},
		{"saturation", func(f *Filters) { f.Saturation = 0 }, true},
		{"hue", func(f *Filters) { f.Hue = 30 }, true},
		{"full hue turn", func(f *Filters) { f.Hue = 360 }, false},
		{"tint", func(f *Filters) { f.Tint = 10 }, true},
		{"blur", func(f *Filters) { f.Blur = 2 }, true},
		{"gaussian blur", func(f *Filters) { f.GaussianBlur = 1 }, true},
		{"opacity", func(f *Filters) { f.Opacity = 50 }, true},
		{"scale", func(f *Filters) { f.Scale = 1.5 }, true},
		{"rotate", func(f *Filters) { f.Rotate = 45 }, true},
		{"flip h", func(f *Filters) { f.FlipHorizontal = true }, true},
		{"flip v", func(f *Filters) { f.FlipVertical = true }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Identity()
			tt.mutate(&f)
			if got := f.HasRealFilters(); got != tt.want {
				t.Errorf("HasRealFilters() = %v, want %v", got, tt.want)
			}
		})
	}

	var nilFilters *Filters
	if nilFilters.HasRealFilters() {
		t.Error("nil record reported real filters")
	}
}

func TestNormalize(t *testing.T) {
	f := Filters{
		Brightness:   150,
		Contrast:     80,
		Saturation:   120,
		Hue:          45,
		Tint:         250,
		Blur:         2,
		GaussianBlur: 3,
		Opacity:      -10,
		Scale:        0,
		Rotate:       90,
	}
	p := f.Normalize()

	checks := []struct {
		name      string
		got, want float64
	}{
		{"brightness", p.Brightness, 1.5},
		{"contrast", p.Contrast, 0.8},
		{"saturation", p.Saturation, 1.2},
		{"hue stays degrees", p.Hue, 45},
		{"tint clamped", p.Tint, 1},
		{"blur is max", p.Blur, 3},
		{"opacity clamped", p.Opacity, 0},
		{"zero scale replaced", p.Scale, 1},
		{"rotate", p.Rotate, 90},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > 1e-12 {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}

	nan := Identity()
	nan.Brightness = math.NaN()
	if got := nan.Normalize().Brightness; got != 1 {
		t.Errorf("NaN brightness normalized to %v, want 1", got)
	}
}

func TestBrightnessOnlyPixelScenario(t *testing.T) {
	src := solid(10, 10, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
	f := Identity()
	f.Brightness = 150

	p := NewPipeline(1)
	out, err := p.Apply(src, &f, 10, 10, StrategyPixel)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	want := uint8(math.Min(255, math.Round(128*1.5)))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			c := out.NRGBAAt(x, y)
			if c.R != want || c.G != want || c.B != want || c.A != 255 {
				t.Fatalf("pixel (%d,%d) = %v, want RGB %d", x, y, c, want)
			}
		}
	}
}

func TestBrightnessOnlyFastScenario(t *testing.T) {
	src := solid(10, 10, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
	f := Identity()
	f.Brightness = 150

	p := NewPipeline(1)
	out, err := p.Apply(src, &f, 10, 10, StrategyFast)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	c := out.NRGBAAt(5, 5)
	for _, v := range []uint8{c.R, c.G, c.B} {
		if v < 191 || v > 193 {
			t.Fatalf("fast strategy pixel = %v, want about 192", c)
		}
	}
}

func TestPixelOrderBrightnessBeforeContrast(t *testing.T) {
	src := solid(1, 1, color.NRGBA{R: 100, G: 100, B: 100, A: 255})
	out := applyPixels(src, Params{Brightness: 2, Contrast: 2, Saturation: 1, Opacity: 1, Scale: 1})

	// brightness first: 200, then contrast pushes past white.
	// The reverse order would give 145.
	if got := out.NRGBAAt(0, 0).R; got != 255 {
		t.Errorf("R = %d, want 255 (brightness applied before contrast)", got)
	}
}

func TestPixelAdjustments(t *testing.T) {
	tests := []struct {
		name   string
		src    color.NRGBA
		params Params
		want   color.NRGBA
	}{
		{
			name:   "hue rotates red to green",
			src:    color.NRGBA{R: 255, A: 255},
			params: Params{Brightness: 1, Contrast: 1, Saturation: 1, Hue: 120, Opacity: 1, Scale: 1},
			want:   color.NRGBA{G: 255, A: 255},
		},
		{
			name:   "zero saturation is gray",
			src:    color.NRGBA{R: 255, A: 255},
			params: Params{Brightness: 1, Contrast: 1, Saturation: 0, Opacity: 1, Scale: 1},
			want:   color.NRGBA{R: 128, G: 128, B: 128, A: 255},
		},
		{
			name:   "full tint is sepia",
			src:    color.NRGBA{R: 100, G: 100, B: 100, A: 255},
			params: Params{Brightness: 1, Contrast: 1, Saturation: 1, Tint: 1, Opacity: 1, Scale: 1},
			want:   color.NRGBA{R: 135, G: 120, B: 94, A: 255},
		},
		{
			name:   "opacity scales alpha",
			src:    color.NRGBA{R: 10, G: 20, B: 30, A: 255},
			params: Params{Brightness: 1, Contrast: 1, Saturation: 1, Opacity: 0.5, Scale: 1},
			want:   color.NRGBA{R: 10, G: 20, B: 30, A: 128},
		},
		{
			name:   "zero contrast is mid gray",
			src:    color.NRGBA{R: 0, G: 255, B: 40, A: 255},
			params: Params{Brightness: 1, Contrast: 0, Saturation: 1, Opacity: 1, Scale: 1},
			want:   color.NRGBA{R: 128, G: 128, B: 128, A: 255},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := applyPixels(solid(1, 1, tt.src), tt.params)
			if got := out.NRGBAAt(0, 0); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIdentityMatchesNoFilters(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 16, 12))
	for i := range src.Pix {
		src.Pix[i] = uint8(i * 7)
	}
	p := NewPipeline(1)

	plain, err := p.Apply(src, nil, 8, 6, StrategyAuto)
	if err != nil {
		t.Fatalf("Apply(nil): %v", err)
	}
	for _, s := range []Strategy{StrategyAuto, StrategyFast, StrategyPixel} {
		id := Identity()
		got, err := p.Apply(src, &id, 8, 6, s)
		if err != nil {
			t.Fatalf("Apply(identity, %s): %v", s, err)
		}
		if string(got.Pix) != string(plain.Pix) {
			t.Errorf("%s: identity filters changed pixels", s)
		}
	}
}

func TestApplyDoesNotMutateSource(t *testing.T) {
	src := solid(4, 4, color.NRGBA{R: 50, G: 60, B: 70, A: 255})
	before := append([]byte(nil), src.Pix...)

	f := Identity()
	f.Brightness = 200
	f.Tint = 50
	f.Rotate = 30
	if _, err := NewPipeline(1).Apply(src, &f, 4, 4, StrategyPixel); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if string(src.Pix) != string(before) {
		t.Error("source pixels were modified")
	}
}

func TestFlipHorizontal(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	src.SetNRGBA(1, 0, color.NRGBA{B: 255, A: 255})

	f := Identity()
	f.FlipHorizontal = true
	out, err := NewPipeline(1).Apply(src, &f, 2, 1, StrategyPixel)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := out.NRGBAAt(0, 0); got != (color.NRGBA{B: 255, A: 255}) {
		t.Errorf("left pixel = %v, want blue", got)
	}
	if got := out.NRGBAAt(1, 0); got != (color.NRGBA{R: 255, A: 255}) {
		t.Errorf("right pixel = %v, want red", got)
	}
}

func TestScaleDownLeavesTransparentCorners(t *testing.T) {
	src := solid(4, 4, color.NRGBA{R: 200, A: 255})
	f := Identity()
	f.Scale = 0.5

	out, err := NewPipeline(1).Apply(src, &f, 4, 4, StrategyPixel)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if a := out.NRGBAAt(0, 0).A; a != 0 {
		t.Errorf("corner alpha = %d, want 0", a)
	}
	if a := out.NRGBAAt(2, 2).A; a == 0 {
		t.Error("center pixel is transparent")
	}
}

func TestApplyRejectsEmptySize(t *testing.T) {
	_, err := NewPipeline(1).Apply(solid(2, 2, color.NRGBA{A: 255}), nil, 0, 2, StrategyAuto)
	if err == nil {
		t.Fatal("expected error for zero width")
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"", StrategyAuto, false},
		{"auto", StrategyAuto, false},
		{"FAST", StrategyFast, false},
		{"pixel", StrategyPixel, false},
		{"ultra", StrategyAuto, true},
	}
	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		if got != tt.want || (err != nil) != tt.wantErr {
			t.Errorf("ParseStrategy(%q) = (%v, %v), want (%v, err=%v)", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestChooseFallsBackOutsideFastRange(t *testing.T) {
	p := NewPipeline(1)
	params := Params{Brightness: 1, Contrast: 1, Saturation: 8, Opacity: 1, Scale: 1}
	if got := p.choose(StrategyFast, params); got != StrategyPixel {
		t.Errorf("choose(fast, saturation 800%%) = %v, want pixel", got)
	}
	if got := p.choose(StrategyPixel, params); got != StrategyPixel {
		t.Errorf("choose(pixel) = %v", got)
	}
}

func TestHSLRoundTrip(t *testing.T) {
	colors := [][3]float64{{1, 0, 0}, {0.2, 0.4, 0.6}, {0.5, 0.5, 0.5}, {0.9, 0.1, 0.7}}
	for _, c := range colors {
		h, s, l := rgbToHSL(c[0], c[1], c[2])
		r, g, b := hslToRGB(h, s, l)
		if math.Abs(r-c[0]) > 1e-9 || math.Abs(g-c[1]) > 1e-9 || math.Abs(b-c[2]) > 1e-9 {
			t.Errorf("round trip %v -> (%v,%v,%v)", c, r, g, b)
		}
	}
}

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: uint8((x + y) * 127 / (w + h)), A: 255})
		}
	}
	return img
}

func TestFastMatchesPixelPerAdjustment(t *testing.T) {
	base := Params{Brightness: 1, Contrast: 1, Saturation: 1, Opacity: 1, Scale: 1}
	tests := []struct {
		name   string
		modify func(*Params)
	}{
		{"brightness", func(p *Params) { p.Brightness = 1.3 }},
		{"contrast", func(p *Params) { p.Contrast = 0.7 }},
		{"saturation", func(p *Params) { p.Saturation = 1.5 }},
		{"hue", func(p *Params) { p.Hue = 45 }},
		{"tint", func(p *Params) { p.Tint = 0.6 }},
		{"full tint", func(p *Params) { p.Tint = 1 }},
		{"opacity", func(p *Params) { p.Opacity = 0.4 }},
	}
	src := gradient(16, 16)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := base
			tt.modify(&params)
			fast := applyFast(src, params, false)
			ref := applyPixels(src, params)
			if d := maxChannelDiff(fast, ref); d > agreeTolerance {
				t.Errorf("max channel difference = %d, want <= %d", d, agreeTolerance)
			}
		})
	}
}

func TestFastAvailableByDefault(t *testing.T) {
	if !NewPipeline(1).FastAvailable() {
		t.Error("composed chain rejected by its capability check")
	}
	p := NewPipeline(1)
	f := Identity()
	f.Tint = 40
	if got := p.choose(StrategyAuto, f.Normalize()); got != StrategyFast {
		t.Errorf("auto strategy with tint = %s, want fast", got)
	}
}
