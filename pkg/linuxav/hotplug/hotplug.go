//go:build linux

// Package hotplug watches kernel uevents over netlink without cgo.
//
// It is used to notice when an open capture or audio device disappears
// from the system so the loss can be reported; it never reopens devices.
package hotplug

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"golang.org/x/sys/unix"
)

// Actions reported by the kernel.
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
	ActionChange = "change"
)

// Subsystems of interest.
const (
	SubsystemVideo4Linux = "video4linux"
	SubsystemSound       = "sound"
)

// netlinkKobjectUEvent is the netlink protocol for kernel object events.
const netlinkKobjectUEvent = 15

// Event is one kernel device event.
type Event struct {
	Action    string
	KObj      string
	Subsystem string
	DevName   string // e.g. "video0" or "snd/pcmC1D0c"
	Env       map[string]string
}

// DeviceNode returns the /dev path of the event's device, or "" when the
// event carries no DEVNAME.
func (e Event) DeviceNode() string {
	if e.DevName == "" {
		return ""
	}
	if strings.HasPrefix(e.DevName, "/dev/") {
		return e.DevName
	}
	return "/dev/" + e.DevName
}

// Monitor receives uevents for a fixed set of subsystems.
type Monitor struct {
	fd         int
	subsystems map[string]struct{}
}

// NewMonitor opens a netlink socket bound to the kernel broadcast group.
// With no subsystems every event is delivered.
func NewMonitor(subsystems ...string) (*Monitor, error) {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, netlinkKobjectUEvent)
	if err != nil {
		return nil, err
	}

	if err := unix.Bind(fd, &unix.SockaddrNetlink{Family: unix.AF_NETLINK, Groups: 1}); err != nil {
		unix.Close(fd)
		return nil, err
	}

	tv := unix.Timeval{Sec: 1}
	if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		unix.Close(fd)
		return nil, err
	}

	m := &Monitor{fd: fd, subsystems: make(map[string]struct{}, len(subsystems))}
	for _, s := range subsystems {
		m.subsystems[s] = struct{}{}
	}
	return m, nil
}

// Close releases the socket.
func (m *Monitor) Close() error {
	return unix.Close(m.fd)
}

// Run delivers matching events to fn until ctx is cancelled or the socket
// fails. fn runs on the monitor goroutine.
func (m *Monitor) Run(ctx context.Context, fn func(Event)) error {
	buf := make([]byte, 8192)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, _, err := unix.Recvfrom(m.fd, buf, 0)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
				continue // receive timeout; re-check ctx
			}
			return err
		}

		event := ParseUEvent(buf[:n])
		if event == nil || !m.accepts(event) {
			continue
		}
		fn(*event)
	}
}

func (m *Monitor) accepts(e *Event) bool {
	if len(m.subsystems) == 0 {
		return true
	}
	_, ok := m.subsystems[e.Subsystem]
	return ok
}

// ParseUEvent parses a kernel uevent message of the form
// "ACTION@KOBJ\0KEY=VALUE\0...". Messages rebroadcast by libudev are skipped.
func ParseUEvent(data []byte) *Event {
	if len(data) == 0 || bytes.HasPrefix(data, []byte("libudev")) {
		return nil
	}

	parts := bytes.Split(data, []byte{0})
	header := string(parts[0])
	atIdx := strings.IndexByte(header, '@')
	if atIdx < 1 {
		return nil
	}

	event := &Event{
		Action: header[:atIdx],
		KObj:   header[atIdx+1:],
		Env:    make(map[string]string),
	}

	for _, part := range parts[1:] {
		key, value, ok := strings.Cut(string(part), "=")
		if !ok || key == "" {
			continue
		}
		event.Env[key] = value

		switch key {
		case "SUBSYSTEM":
			event.Subsystem = value
		case "DEVNAME":
			event.DevName = value
		}
	}

	return event
}
