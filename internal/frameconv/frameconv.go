// Package frameconv converts captured frames into RGB565 display pixels.
//
// Conversion is total: any byte content produces output, and the number of
// converted pixels is min(len(src)/bytesPerPixel, len(dst)). Pixels beyond
// that are left untouched.
package frameconv

import (
	"fmt"

	"github.com/smazurov/framesource/internal/types"
)

// Converter turns one raw frame into RGB565 pixels.
type Converter interface {
	Encoding() types.Encoding
	Convert(src []byte, dst []uint16)
}

// ForEncoding returns the converter for enc.
func ForEncoding(enc types.Encoding) (Converter, error) {
	switch enc {
	case types.EncodingUYVY:
		return UYVY{}, nil
	case types.EncodingRGB24:
		return RGB24{}, nil
	default:
		return nil, fmt.Errorf("no converter for %v", enc)
	}
}

// Pack565 packs 8-bit channels into RGB565, truncating the low bits.
func Pack565(r, g, b uint8) uint16 {
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}

// RGB24 converts packed R,G,B byte triples.
type RGB24 struct{}

func (RGB24) Encoding() types.Encoding { return types.EncodingRGB24 }

func (RGB24) Convert(src []byte, dst []uint16) {
	n := min(len(src)/3, len(dst))
	for i := 0; i < n; i++ {
		p := src[i*3 : i*3+3 : i*3+3]
		dst[i] = Pack565(p[0], p[1], p[2])
	}
}
