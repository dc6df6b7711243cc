//go:build !linux

package audio

import "github.com/smazurov/framesource/internal/types"

// Open returns ErrUnsupported on platforms without ALSA.
func Open(string, int) (types.AudioSource, error) {
	return nil, ErrUnsupported
}

// List returns ErrUnsupported on platforms without ALSA.
func List() ([]Device, error) {
	return nil, ErrUnsupported
}
