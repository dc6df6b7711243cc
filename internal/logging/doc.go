// Package logging hands out per-module slog loggers whose levels can be
// changed at runtime.
//
// Output goes to stdout when something is attached to it and to the
// systemd journal when journald is reachable; with both present a
// [MultiHandler] writes to each. Journal entries carry
// SYSLOG_IDENTIFIER=framesource and one upper-case field per attribute:
//
//	journalctl -t framesource MODULE=session
//	journalctl -t framesource -p warning DEVICE_PATH=/dev/video0
//
// Call [Initialize] once at startup, then take a logger per module:
//
//	logging.Initialize(logging.Config{
//		Level:   "info",
//		Format:  "text",
//		Modules: map[string]string{"session": "debug"},
//	})
//	logger := logging.GetLogger("session")
//
// Loggers obtained before Initialize keep working; they read their level
// from a shared [slog.LevelVar]. [SetLevels] moves every level at once and
// is what the config watcher calls when the [logging] table changes. The
// output format is fixed at startup.
//
// The matching TOML looks like:
//
//	[logging]
//	level = "info"
//	format = "text"
//	session = "debug"
//	api = "warn"
package logging
