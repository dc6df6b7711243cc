//go:build linux

package v4l2

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// ErrReadTimeout is returned by ReadFrame when no frame arrived in time.
var ErrReadTimeout = errors.New("timed out waiting for frame")

// ReadFrame reads one frame into buf. Devices without read() support are
// switched to mmap streaming on the first call and the dequeued buffer is
// copied into buf.
//
// The descriptor is polled first so that a stalled device cannot block the
// caller forever; timeout <= 0 waits indefinitely. A short read returns the
// number of bytes written with a nil error.
func (d *Device) ReadFrame(buf []byte, timeout time.Duration) (int, error) {
	if d.fd < 0 {
		return 0, unix.EBADF
	}
	if d.streaming && d.stream == nil {
		s, err := d.startStream()
		if err != nil {
			return 0, err
		}
		d.stream = s
	}

	ms := -1
	if timeout > 0 {
		ms = int(timeout / time.Millisecond)
	}

	fds := []unix.PollFd{{Fd: int32(d.fd), Events: unix.POLLIN}}
	for {
		n, err := unix.Poll(fds, ms)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("poll failed: %w", err)
		}
		if n == 0 {
			return 0, ErrReadTimeout
		}
		break
	}

	if fds[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 && fds[0].Revents&unix.POLLIN == 0 {
		return 0, fmt.Errorf("device %s not readable (revents 0x%x)", d.path, fds[0].Revents)
	}

	if d.stream != nil {
		return d.stream.read(buf)
	}

	n, err := unix.Read(d.fd, buf)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) {
			return 0, ErrReadTimeout
		}
		return 0, fmt.Errorf("read failed: %w", err)
	}
	return n, nil
}
