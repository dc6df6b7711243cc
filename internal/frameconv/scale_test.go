package frameconv

import (
	"image"
	"image/color"
	"testing"
)

func TestDisplayWidth(t *testing.T) {
	tests := []struct {
		height int
		aspect float64
		want   int
	}{
		{480, 4.0 / 3.0, 640},
		{480, 720.0 * 10 / (480 * 11), 655},
		{576, 16.0 / 9.0, 1024},
		{480, 0, 0},
		{480, -1, 0},
	}
	for _, tt := range tests {
		if got := DisplayWidth(tt.height, tt.aspect); got != tt.want {
			t.Errorf("DisplayWidth(%d, %v) = %d, want %d", tt.height, tt.aspect, got, tt.want)
		}
	}
}

func TestResizeSolidColor(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 4))
	fill := color.RGBA{R: 200, G: 100, B: 50, A: 255}
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			src.SetRGBA(x, y, fill)
		}
	}

	dst := Resize(src, 3, 5)
	if b := dst.Bounds(); b.Dx() != 3 || b.Dy() != 5 {
		t.Fatalf("bounds = %v", b)
	}
	for y := 0; y < 5; y++ {
		for x := 0; x < 3; x++ {
			if got := dst.RGBAAt(x, y); got != fill {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, fill)
			}
		}
	}
}

func TestFitWidth(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 720, 480))

	if b := FitWidth(src, 360).Bounds(); b.Dx() != 360 || b.Dy() != 240 {
		t.Errorf("FitWidth(360) bounds = %v", b)
	}
	if b := FitWidth(image.NewRGBA(image.Rect(0, 0, 1000, 1)), 10).Bounds(); b.Dy() != 1 {
		t.Errorf("height should clamp to 1, got %v", b)
	}
}
