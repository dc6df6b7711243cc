//go:build linux

package v4l2

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// streamBuffers is the number of mmap buffers requested from the driver.
const streamBuffers = 4

// bufferQueue is the driver side of an mmap stream.
type bufferQueue interface {
	dequeue() (index, bytesused uint32, err error)
	enqueue(index uint32) error
	release(bufs [][]byte) error
}

// stream holds the mapped buffers of a running capture stream.
type stream struct {
	queue bufferQueue
	bufs  [][]byte
}

type mmapQueue struct {
	fd int
}

func (q mmapQueue) dequeue() (uint32, uint32, error) {
	b := v4l2Buffer{typ: v4l2BufTypeVideoCapture, memory: v4l2MemoryMmap}
	if err := ioctl(q.fd, vidiocDqbuf, unsafe.Pointer(&b)); err != nil {
		return 0, 0, err
	}
	return b.index, b.bytesused, nil
}

func (q mmapQueue) enqueue(index uint32) error {
	b := v4l2Buffer{index: index, typ: v4l2BufTypeVideoCapture, memory: v4l2MemoryMmap}
	return ioctl(q.fd, vidiocQbuf, unsafe.Pointer(&b))
}

// release stops streaming, unmaps bufs and frees the driver's buffers.
func (q mmapQueue) release(bufs [][]byte) error {
	var errs []error
	typ := uint32(v4l2BufTypeVideoCapture)
	if err := ioctl(q.fd, vidiocStreamoff, unsafe.Pointer(&typ)); err != nil {
		errs = append(errs, fmt.Errorf("VIDIOC_STREAMOFF failed: %w", err))
	}
	for _, b := range bufs {
		if err := unix.Munmap(b); err != nil {
			errs = append(errs, fmt.Errorf("munmap failed: %w", err))
		}
	}
	req := v4l2Requestbuffers{typ: v4l2BufTypeVideoCapture, memory: v4l2MemoryMmap}
	if err := ioctl(q.fd, vidiocReqbufs, unsafe.Pointer(&req)); err != nil {
		errs = append(errs, fmt.Errorf("VIDIOC_REQBUFS release failed: %w", err))
	}
	return errors.Join(errs...)
}

// startStream maps the driver's buffers, queues them all and turns
// streaming on. The format must be final: drivers refuse S_FMT once
// buffers are allocated.
func (d *Device) startStream() (*stream, error) {
	req := v4l2Requestbuffers{
		count:  streamBuffers,
		typ:    v4l2BufTypeVideoCapture,
		memory: v4l2MemoryMmap,
	}
	if err := ioctl(d.fd, vidiocReqbufs, unsafe.Pointer(&req)); err != nil {
		return nil, fmt.Errorf("VIDIOC_REQBUFS failed on %s: %w", d.path, err)
	}

	q := mmapQueue{fd: d.fd}
	s := &stream{queue: q}
	fail := func(err error) (*stream, error) {
		_ = q.release(s.bufs)
		return nil, err
	}

	if req.count < 2 {
		return fail(fmt.Errorf("%s granted %d stream buffers, need at least 2", d.path, req.count))
	}

	for i := range req.count {
		b := v4l2Buffer{index: i, typ: v4l2BufTypeVideoCapture, memory: v4l2MemoryMmap}
		if err := ioctl(d.fd, vidiocQuerybuf, unsafe.Pointer(&b)); err != nil {
			return fail(fmt.Errorf("VIDIOC_QUERYBUF %d failed: %w", i, err))
		}
		mem, err := unix.Mmap(d.fd, int64(b.offset), int(b.length), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
		if err != nil {
			return fail(fmt.Errorf("mmap of buffer %d failed: %w", i, err))
		}
		s.bufs = append(s.bufs, mem)
	}

	for i := range s.bufs {
		if err := q.enqueue(uint32(i)); err != nil {
			return fail(fmt.Errorf("VIDIOC_QBUF %d failed: %w", i, err))
		}
	}

	typ := uint32(v4l2BufTypeVideoCapture)
	if err := ioctl(d.fd, vidiocStreamon, unsafe.Pointer(&typ)); err != nil {
		return fail(fmt.Errorf("VIDIOC_STREAMON failed on %s: %w", d.path, err))
	}
	return s, nil
}

// read copies the next filled buffer into buf and hands the buffer
// back to the driver.
func (s *stream) read(buf []byte) (int, error) {
	index, used, err := s.queue.dequeue()
	if errors.Is(err, unix.EAGAIN) {
		return 0, ErrReadTimeout
	}
	if err != nil {
		return 0, fmt.Errorf("VIDIOC_DQBUF failed: %w", err)
	}
	if int(index) >= len(s.bufs) {
		return 0, fmt.Errorf("driver returned buffer %d of %d", index, len(s.bufs))
	}

	src := s.bufs[index]
	n := copy(buf, src[:min(int(used), len(src))])

	if err := s.queue.enqueue(index); err != nil {
		return n, fmt.Errorf("VIDIOC_QBUF %d failed: %w", index, err)
	}
	return n, nil
}
