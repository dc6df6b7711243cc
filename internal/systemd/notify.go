// Package systemd reports service state to the systemd manager over the
// notify socket. Every call is a no-op when the process was not started by
// systemd.
package systemd

import (
	"context"
	"log/slog"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/smazurov/framesource/internal/logging"
)

// Notifier sends sd_notify messages.
type Notifier struct {
	logger *slog.Logger
}

// NewNotifier creates a notifier.
func NewNotifier() *Notifier {
	return &Notifier{logger: logging.GetLogger("systemd")}
}

// Ready reports that startup finished.
func (n *Notifier) Ready() {
	n.send(daemon.SdNotifyReady)
}

// Stopping reports that shutdown began.
func (n *Notifier) Stopping() {
	n.send(daemon.SdNotifyStopping)
}

// Status sets the free-form status line shown by systemctl status.
func (n *Notifier) Status(status string) {
	n.send("STATUS=" + status)
}

func (n *Notifier) send(state string) bool {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		n.logger.Warn("sd_notify failed", "state", state, "error", err)
		return false
	}
	return sent
}

// RunWatchdog pings the systemd watchdog at half the configured interval
// for as long as alive reports progress. A stalled loop stops the pings so
// systemd restarts the service. Returns immediately when the watchdog is
// not enabled for this unit.
func (n *Notifier) RunWatchdog(ctx context.Context, alive func() bool) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		n.logger.Warn("Invalid watchdog configuration", "error", err)
		return
	}
	if interval == 0 {
		return
	}
	n.runWatchdog(ctx, interval/2, alive)
}

func (n *Notifier) runWatchdog(ctx context.Context, period time.Duration, alive func() bool) {
	n.logger.Info("Watchdog enabled", "period", period)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	stalled := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !alive() {
				if !stalled {
					n.logger.Error("Host loop stalled, withholding watchdog ping")
					stalled = true
				}
				continue
			}
			stalled = false
			n.send(daemon.SdNotifyWatchdog)
		}
	}
}

// Progress returns an alive func that reports whether counter advanced
// since the previous call.
func Progress(counter func() uint64) func() bool {
	last := counter()
	return func() bool {
		cur := counter()
		moved := cur != last
		last = cur
		return moved
	}
}
