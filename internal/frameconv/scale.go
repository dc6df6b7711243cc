package frameconv

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// Resize scales src to width x height with bilinear filtering.
func Resize(src image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// DisplayWidth is the width that shows a frame of the given height at the
// display aspect ratio. Non-positive aspects return 0.
func DisplayWidth(height int, aspect float64) int {
	if aspect <= 0 || math.IsNaN(aspect) || math.IsInf(aspect, 0) {
		return 0
	}
	return int(math.Round(float64(height) * aspect))
}

// FitWidth scales src to width, keeping its proportions. A result height
// below one pixel is clamped to one.
func FitWidth(src image.Image, width int) *image.RGBA {
	b := src.Bounds()
	height := max(1, int(math.Round(float64(b.Dy())*float64(width)/float64(b.Dx()))))
	return Resize(src, width, height)
}
