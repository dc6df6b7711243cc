package led

import (
	"log/slog"
	"os"
	"strings"
)

const deviceTreeModelPath = "/proc/device-tree/model"

type board struct {
	match  string
	leds   map[string]string
	status string
}

var boards = []board{
	{match: "NanoPC-T6", leds: map[string]string{"user": "usr_led", "system": "sys_led"}, status: "system"},
	{match: "Orange Pi", leds: map[string]string{"blue": "blue_led", "green": "green_led"}, status: "green"},
	{match: "Raspberry Pi", leds: map[string]string{"act": "ACT"}, status: "act"},
}

// New picks a controller for the running board and returns it with the
// board's status LED. Boards without known LEDs get a no-op controller.
func New(logger *slog.Logger) (Controller, string) {
	return forModel(detectBoard(), logger)
}

func forModel(model string, logger *slog.Logger) (Controller, string) {
	for _, b := range boards {
		if strings.Contains(model, b.match) {
			logger.Info("Using sysfs LED controller", "board_model", model, "status_led", b.status)
			return newSysfs(b.leds), b.status
		}
	}
	logger.Info("No LED support detected, using no-op controller", "board_model", model)
	return newNoop(logger), ""
}

// detectBoard reads the device tree model to identify the board.
func detectBoard() string {
	data, err := os.ReadFile(deviceTreeModelPath)
	if err != nil {
		return "unknown"
	}
	return strings.TrimRight(string(data), "\x00")
}
