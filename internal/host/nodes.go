package host

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// DeviceNodes are the /dev nodes the configured devices occupy.
type DeviceNodes struct {
	Video string // resolved capture node, e.g. /dev/video0
	Audio string // PCM capture node, e.g. /dev/snd/pcmC1D0c
}

// NewDeviceNodes resolves the capture path through symlinks and maps an
// ALSA "hw:CARD,DEVICE" string to its capture node. Unresolvable inputs
// leave the field as given or empty.
func NewDeviceNodes(videoPath, alsaDevice string) DeviceNodes {
	nodes := DeviceNodes{Video: videoPath}
	if resolved, err := filepath.EvalSymlinks(videoPath); err == nil {
		nodes.Video = resolved
	}
	if card, dev, ok := parseHW(alsaDevice); ok {
		nodes.Audio = fmt.Sprintf("/dev/snd/pcmC%dD%dc", card, dev)
	}
	return nodes
}

// Contains reports whether node is one of the configured device nodes.
func (n DeviceNodes) Contains(node string) bool {
	if node == "" {
		return false
	}
	return node == n.Video || node == n.Audio
}

func parseHW(s string) (card, dev int, ok bool) {
	rest, found := strings.CutPrefix(s, "hw:")
	if !found {
		rest, found = strings.CutPrefix(s, "plughw:")
	}
	if !found {
		return 0, 0, false
	}
	cardStr, devStr, _ := strings.Cut(rest, ",")
	if devStr == "" {
		devStr = "0"
	}
	card, err1 := strconv.Atoi(cardStr)
	dev, err2 := strconv.Atoi(devStr)
	if err1 != nil || err2 != nil || card < 0 || dev < 0 {
		return 0, 0, false
	}
	return card, dev, true
}
