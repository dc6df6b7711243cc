package led

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNoopController(t *testing.T) {
	ctrl := newNoop(testLogger())

	if err := ctrl.Set("user", true, PatternSolid); err != nil {
		t.Errorf("Set() returned error: %v", err)
	}
	if types := ctrl.Available(); len(types) != 0 {
		t.Errorf("Available() = %v, want empty slice", types)
	}
	if patterns := ctrl.Patterns(); len(patterns) != 0 {
		t.Errorf("Patterns() = %v, want empty slice", patterns)
	}
}

func TestSysfsController_Available(t *testing.T) {
	tests := []struct {
		name string
		leds map[string]string
		want []string
	}{
		{
			name: "NanoPC-T6 LEDs",
			leds: map[string]string{"user": "usr_led", "system": "sys_led"},
			want: []string{"system", "user"},
		},
		{
			name: "Orange Pi LEDs",
			leds: map[string]string{"green": "green_led", "blue": "blue_led"},
			want: []string{"blue", "green"},
		},
		{
			name: "No LEDs",
			leds: map[string]string{},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newSysfs(tt.leds).Available()
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("Available() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSysfsController_Set_InvalidType(t *testing.T) {
	ctrl := newSysfs(map[string]string{"user": "usr_led"})
	if err := ctrl.Set("nonexistent", true, ""); err == nil {
		t.Error("Set() with invalid LED type should return error")
	}
}

func TestSysfsController_Set_MissingNode(t *testing.T) {
	ctrl := newSysfs(map[string]string{"user": "usr_led"})
	ctrl.root = t.TempDir()
	if err := ctrl.Set("user", true, PatternSolid); err == nil {
		t.Error("Set() on a missing sysfs node should return error")
	}
}

func TestSysfsController_Set(t *testing.T) {
	tests := []struct {
		name           string
		enabled        bool
		pattern        string
		wantTrigger    string
		wantBrightness string
	}{
		{"solid", true, PatternSolid, "none", "1"},
		{"blink", true, PatternBlink, "timer", ""},
		{"heartbeat", true, PatternHeartbeat, "heartbeat", ""},
		{"off while blinking", false, PatternBlink, "none", "0"},
		{"raw trigger", true, "mmc0", "mmc0", ""},
		{"brightness only", true, "", "", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			node := filepath.Join(root, "sys_led")
			if err := os.Mkdir(node, 0o755); err != nil {
				t.Fatal(err)
			}

			ctrl := newSysfs(map[string]string{"system": "sys_led"})
			ctrl.root = root
			if err := ctrl.Set("system", tt.enabled, tt.pattern); err != nil {
				t.Fatalf("Set() error: %v", err)
			}

			if got := readNode(t, filepath.Join(node, "trigger")); got != tt.wantTrigger {
				t.Errorf("trigger = %q, want %q", got, tt.wantTrigger)
			}
			if got := readNode(t, filepath.Join(node, "brightness")); got != tt.wantBrightness {
				t.Errorf("brightness = %q, want %q", got, tt.wantBrightness)
			}
		})
	}
}

func readNode(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ""
	}
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}
