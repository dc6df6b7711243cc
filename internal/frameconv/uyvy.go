package frameconv

import "github.com/smazurov/framesource/internal/types"

// BT.601 coefficients in 16.16 fixed point: int(float32(k) * 65536).
const (
	k1 = 91881  // 1.402
	k2 = 46792  // 0.714
	k3 = 21889  // 0.334
	k4 = 116129 // 1.772
)

// UYVY converts 4:2:2 macro-pixels [U Y1 V Y2] into two RGB565 pixels each.
// A trailing pixel without a partner (odd pixel count) is written black.
type UYVY struct{}

func (UYVY) Encoding() types.Encoding { return types.EncodingUYVY }

func (UYVY) Convert(src []byte, dst []uint16) {
	n := min(len(src)/2, len(dst))
	pairs := n / 2

	for i := 0; i < pairs; i++ {
		m := src[i*4 : i*4+4 : i*4+4]
		uf := int(m[0]) - 128
		vf := int(m[2]) - 128

		// Chroma terms are shared by both pixels of the pair.
		dr := (k1 * vf) >> 16
		dg := (k2*vf)>>16 + (k3*uf)>>16
		db := (k4 * uf) >> 16

		dst[i*2] = yuvPixel(int(m[1]), dr, dg, db)
		dst[i*2+1] = yuvPixel(int(m[3]), dr, dg, db)
	}

	if n%2 == 1 {
		dst[n-1] = 0
	}
}

func yuvPixel(y, dr, dg, db int) uint16 {
	return Pack565(clamp(y+dr), clamp(y-dg), clamp(y+db))
}

func clamp(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
