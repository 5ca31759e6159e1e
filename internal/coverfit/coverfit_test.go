package coverfit

import (
	"image"
	"math"
	"testing"
)

func TestResolveCrop(t *testing.T) {
	tests := []struct {
		name           string
		sw, sh, dw, dh float64
		want           Crop
	}{
		{"same aspect", 200, 100, 100, 50, Crop{0, 0, 200, 100}},
		{"wide source", 400, 100, 100, 100, Crop{150, 0, 100, 100}},
		{"tall source", 100, 400, 100, 100, Crop{0, 150, 100, 100}},
		{"wide destination", 100, 100, 200, 50, Crop{0, 37.5, 100, 25}},
		{"zero destination", 100, 80, 0, 10, Crop{0, 0, 100, 80}},
		{"zero source", 0, 80, 10, 10, Crop{0, 0, 0, 80}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveCrop(tt.sw, tt.sh, tt.dw, tt.dh)
			if math.Abs(got.SX-tt.want.SX) > 1e-9 || math.Abs(got.SY-tt.want.SY) > 1e-9 ||
				math.Abs(got.SW-tt.want.SW) > 1e-9 || math.Abs(got.SH-tt.want.SH) > 1e-9 {
				t.Errorf("ResolveCrop = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResolveCropInvariants(t *testing.T) {
	sizes := []float64{1, 3, 10, 17, 64, 99.5, 480, 1024, 3000}
	for _, sw := range sizes {
		for _, sh := range sizes {
			for _, dw := range sizes {
				for _, dh := range sizes {
					c := ResolveCrop(sw, sh, dw, dh)

					if got, want := c.SW/c.SH, dw/dh; math.Abs(got-want) > 1e-9*want {
						t.Fatalf("(%v,%v)->(%v,%v): aspect %v, want %v", sw, sh, dw, dh, got, want)
					}
					if c.SW*c.SH > sw*sh*(1+1e-12) {
						t.Fatalf("(%v,%v)->(%v,%v): crop area exceeds source", sw, sh, dw, dh)
					}
					if c.SX < -1e-9 || c.SY < -1e-9 || c.SX+c.SW > sw+1e-9 || c.SY+c.SH > sh+1e-9 {
						t.Fatalf("(%v,%v)->(%v,%v): crop %+v outside source", sw, sh, dw, dh, c)
					}
				}
			}
		}
	}
}

func TestCropRect(t *testing.T) {
	b := image.Rect(10, 10, 110, 60)
	r := ResolveCrop(100, 50, 1, 1).Rect(b)
	if want := image.Rect(35, 10, 85, 60); r != want {
		t.Errorf("Rect = %v, want %v", r, want)
	}

	thin := Crop{SX: 0, SY: 0, SW: 0.2, SH: 0.2}.Rect(image.Rect(0, 0, 5, 5))
	if thin.Empty() {
		t.Error("rounded crop is empty")
	}
}

func TestApply(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 40, 10))
	out := Apply(src, 10, 10)
	if got := out.Bounds().Size(); got != image.Pt(10, 10) {
		t.Errorf("size = %v, want 10x10", got)
	}

	same := Apply(src, 80, 20)
	if same != image.Image(src) {
		t.Error("matching aspect should return the source unchanged")
	}
}

func TestCropWindow(t *testing.T) {
	full := image.Rect(-80, -80, 240, 240)
	crop := Crop{SX: 0, SY: 0, SW: 40, SH: 40}
	tests := []struct {
		name   string
		window image.Rectangle
		want   Crop
	}{
		{"whole element", full, crop},
		{"top left quarter", image.Rect(-80, -80, 80, 80), Crop{SW: 20, SH: 20}},
		{"visible surface", image.Rect(0, 0, 100, 100), Crop{SX: 10, SY: 10, SW: 12.5, SH: 12.5}},
		{"outside", image.Rect(400, 400, 500, 500), crop},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := crop.Window(full, tt.window); got != tt.want {
				t.Errorf("Window(%v) = %+v, want %+v", tt.window, got, tt.want)
			}
		})
	}
}
