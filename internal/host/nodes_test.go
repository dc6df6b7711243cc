package host

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseHW(t *testing.T) {
	tests := []struct {
		in        string
		card, dev int
		ok        bool
	}{
		{"hw:1,0", 1, 0, true},
		{"hw:2", 2, 0, true},
		{"plughw:0,3", 0, 3, true},
		{"default", 0, 0, false},
		{"hw:x,0", 0, 0, false},
		{"hw:-1,0", 0, 0, false},
	}
	for _, tt := range tests {
		card, dev, ok := parseHW(tt.in)
		if ok != tt.ok || card != tt.card || dev != tt.dev {
			t.Errorf("parseHW(%q) = %d,%d,%v want %d,%d,%v", tt.in, card, dev, ok, tt.card, tt.dev, tt.ok)
		}
	}
}

func TestDeviceNodes(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "video7")
	if err := os.WriteFile(target, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "usb-capture-video-index0")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	nodes := NewDeviceNodes(link, "hw:1,0")
	if nodes.Video != target {
		t.Errorf("Video = %q, want %q", nodes.Video, target)
	}
	if nodes.Audio != "/dev/snd/pcmC1D0c" {
		t.Errorf("Audio = %q", nodes.Audio)
	}

	if !nodes.Contains(target) || !nodes.Contains("/dev/snd/pcmC1D0c") {
		t.Error("configured nodes should be contained")
	}
	if nodes.Contains("/dev/video1") || nodes.Contains("") {
		t.Error("unrelated nodes should not be contained")
	}
}

func TestDeviceNodesUnresolved(t *testing.T) {
	nodes := NewDeviceNodes("/dev/video-framesource-missing", "default")
	if nodes.Video != "/dev/video-framesource-missing" || nodes.Audio != "" {
		t.Errorf("nodes = %+v", nodes)
	}
	if nodes.Contains("") {
		t.Error("empty node must never match")
	}
}
