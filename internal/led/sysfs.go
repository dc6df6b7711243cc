package led

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const sysfsLEDPath = "/sys/class/leds"

// sysfs implements Controller on the Linux LED class interface.
type sysfs struct {
	root string
	leds map[string]string // LED type -> sysfs name
}

func newSysfs(leds map[string]string) *sysfs {
	return &sysfs{root: sysfsLEDPath, leds: leds}
}

func trigger(pattern string) string {
	switch pattern {
	case PatternSolid:
		return "none"
	case PatternBlink:
		return "timer"
	case PatternHeartbeat:
		return "heartbeat"
	default:
		return pattern
	}
}

// Set writes the trigger, then the brightness.
func (s *sysfs) Set(ledType string, enabled bool, pattern string) error {
	sysfsName, ok := s.leds[ledType]
	if !ok {
		return fmt.Errorf("LED type %q not supported on this board", ledType)
	}

	ledPath := filepath.Join(s.root, sysfsName)
	if _, err := os.Stat(ledPath); err != nil {
		return fmt.Errorf("LED %q not found at %s: %w", ledType, ledPath, err)
	}

	// a disabled LED must not keep blinking from its old trigger
	if !enabled {
		pattern = PatternSolid
	}
	if pattern != "" {
		if err := os.WriteFile(filepath.Join(ledPath, "trigger"), []byte(trigger(pattern)), 0o644); err != nil {
			return fmt.Errorf("failed to set LED trigger: %w", err)
		}
	}

	// blinking triggers drive brightness themselves
	if pattern != "" && pattern != PatternSolid {
		return nil
	}
	brightness := "0"
	if enabled {
		brightness = "1"
	}
	if err := os.WriteFile(filepath.Join(ledPath, "brightness"), []byte(brightness), 0o644); err != nil {
		return fmt.Errorf("failed to set LED brightness: %w", err)
	}
	return nil
}

func (s *sysfs) Available() []string {
	types := make([]string, 0, len(s.leds))
	for ledType := range s.leds {
		types = append(types, ledType)
	}
	sort.Strings(types)
	return types
}

func (s *sysfs) Patterns() []string {
	return []string{PatternSolid, PatternBlink, PatternHeartbeat}
}
