// Package led drives a board status LED from capture session state.
package led

// Patterns understood by every Controller.
const (
	PatternSolid     = "solid"
	PatternBlink     = "blink"
	PatternHeartbeat = "heartbeat"
)

// Controller abstracts LED hardware control across different SBC boards.
type Controller interface {
	// Set switches ledType on or off. pattern is one of the Pattern
	// constants, a raw trigger name, or empty to keep the current trigger.
	Set(ledType string, enabled bool, pattern string) error

	// Available returns the LED types this controller can drive.
	Available() []string

	// Patterns returns the patterns this controller supports.
	Patterns() []string
}
