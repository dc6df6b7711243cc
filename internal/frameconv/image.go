package frameconv

import "image"

// ToImage expands RGB565 pixels into an RGBA image. Missing pixels stay
// transparent black.
func ToImage(pix []uint16, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	n := min(len(pix), width*height)

	for i := 0; i < n; i++ {
		r, g, b := Unpack565(pix[i])
		o := i * 4
		img.Pix[o] = r
		img.Pix[o+1] = g
		img.Pix[o+2] = b
		img.Pix[o+3] = 0xff
	}
	return img
}

// Unpack565 expands an RGB565 pixel to 8-bit channels, replicating the high
// bits into the low ones so full intensity maps to 255.
func Unpack565(p uint16) (r, g, b uint8) {
	r5 := uint8(p >> 11 & 0x1f)
	g6 := uint8(p >> 5 & 0x3f)
	b5 := uint8(p & 0x1f)
	return r5<<3 | r5>>2, g6<<2 | g6>>4, b5<<3 | b5>>2
}
