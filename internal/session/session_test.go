package session

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/smazurov/framesource/internal/events"
	"github.com/smazurov/framesource/internal/frameconv"
	"github.com/smazurov/framesource/internal/negotiate"
	"github.com/smazurov/framesource/internal/types"
)

const stdNTSC types.StandardID = 0xb000

// Mock capture device serving a queue of frames
type mockDevice struct {
	pix       types.PixFormat
	standard  types.StandardID
	standards []types.Standard

	frames  [][]byte
	readErr error
	reads   int
}

func newMockDevice(width, height uint32) *mockDevice {
	return &mockDevice{
		pix: types.PixFormat{
			Width:        width,
			Height:       height,
			PixelFormat:  types.FourCCUYVY,
			BytesPerLine: width * 2,
			SizeImage:    width * height * 2,
		},
		standard:  stdNTSC,
		standards: []types.Standard{{Index: 0, Name: "NTSC", ID: stdNTSC}},
	}
}

func (m *mockDevice) Info() types.DeviceInfo           { return types.DeviceInfo{Path: "/dev/video9"} }
func (m *mockDevice) Format() (types.PixFormat, error) { return m.pix, nil }
func (m *mockDevice) SetFormat(f types.PixFormat) error {
	m.pix.PixelFormat = f.PixelFormat
	return nil
}
func (m *mockDevice) Standard() (types.StandardID, error)  { return m.standard, nil }
func (m *mockDevice) Standards() ([]types.Standard, error) { return m.standards, nil }
func (m *mockDevice) PixelAspect() (types.Rational, error) { return types.Square, nil }
func (m *mockDevice) Close() error                         { return nil }

func (m *mockDevice) ReadFrame(buf []byte) (int, error) {
	m.reads++
	if m.readErr != nil {
		return 0, m.readErr
	}
	if len(m.frames) == 0 {
		return 0, errors.New("no frame queued")
	}
	f := m.frames[0]
	m.frames = m.frames[1:]
	return copy(buf, f), nil
}

// Mock host recording everything handed to it
type mockHost struct {
	acceptFormat bool
	formatCalls  []types.PixelFormat
	presented    [][]uint16
	geometry     [][3]int
}

func (h *mockHost) PollInput() {}

func (h *mockHost) SetPixelFormat(f types.PixelFormat) bool {
	h.formatCalls = append(h.formatCalls, f)
	return h.acceptFormat
}

func (h *mockHost) PresentFrame(buf []uint16, width, height, pitch int) {
	// The buffer is only lent for this call
	h.presented = append(h.presented, append([]uint16(nil), buf...))
	h.geometry = append(h.geometry, [3]int{width, height, pitch})
}

func (h *mockHost) EmitAudioFrame(int16, int16) {}

func testOptions() Options {
	return Options{
		Encoding:  types.EncodingUYVY,
		SetFormat: true,
		Logger:    slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})),
	}
}

// uyvyFrame builds a frame of neutral chroma with constant luma.
func uyvyFrame(width, height int, y byte) []byte {
	f := make([]byte, width*height*2)
	for i := 0; i < len(f); i += 4 {
		f[i], f[i+1], f[i+2], f[i+3] = 128, y, 128, y
	}
	return f
}

func TestLoad720x480UYVY(t *testing.T) {
	dev := newMockDevice(720, 480)
	host := &mockHost{acceptFormat: true}

	s, err := Load(dev, host, testOptions())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defer s.Unload()

	if got := s.Format().FrameSize; got != 691200 {
		t.Errorf("FrameSize = %d, want 691200", got)
	}
	if len(s.raw) != 691200 {
		t.Errorf("raw buffer = %d bytes, want 691200", len(s.raw))
	}
	if got := len(s.display) * 2; got != 691200 {
		t.Errorf("display buffer = %d bytes, want 691200", got)
	}
	if len(host.formatCalls) != 1 || host.formatCalls[0] != types.PixelFormatRGB565 {
		t.Errorf("SetPixelFormat calls = %v, want exactly one RGB565", host.formatCalls)
	}

	for i, b := range s.raw {
		if b != 0 {
			t.Fatalf("raw buffer not zeroed at %d", i)
		}
	}
}

func TestLoadFailures(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*mockDevice, *mockHost, *Options)
		wantErr    error
		wantFormat int
	}{
		{
			name:       "standard not enumerated",
			setup:      func(d *mockDevice, _ *mockHost, _ *Options) { d.standard = 0x1 },
			wantErr:    negotiate.ErrStandardNotFound,
			wantFormat: 0,
		},
		{
			name:       "negotiation wraps",
			setup:      func(d *mockDevice, _ *mockHost, _ *Options) { d.standard = 0x1 },
			wantErr:    ErrNegotiationFailed,
			wantFormat: 0,
		},
		{
			name:       "frame exceeds limit",
			setup:      func(_ *mockDevice, _ *mockHost, o *Options) { o.MaxFrameBytes = 1024 },
			wantErr:    ErrAllocationFailed,
			wantFormat: 0,
		},
		{
			name:       "host rejects RGB565",
			setup:      func(_ *mockDevice, h *mockHost, _ *Options) { h.acceptFormat = false },
			wantErr:    ErrPixelFormatRejected,
			wantFormat: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newMockDevice(720, 480)
			host := &mockHost{acceptFormat: true}
			opts := testOptions()
			tt.setup(dev, host, &opts)

			s, err := Load(dev, host, opts)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Load() error = %v, want %v", err, tt.wantErr)
			}
			if s != nil {
				t.Error("failed load must not return a session")
			}
			if len(host.formatCalls) != tt.wantFormat {
				t.Errorf("SetPixelFormat called %d times, want %d", len(host.formatCalls), tt.wantFormat)
			}
		})
	}
}

func TestLoadPublishesEvents(t *testing.T) {
	bus := events.New()
	loaded := make(chan events.SessionLoadedEvent, 1)
	unloaded := make(chan events.SessionUnloadedEvent, 1)
	failed := make(chan events.SessionLoadFailedEvent, 1)
	defer bus.Subscribe(func(e events.SessionLoadedEvent) { loaded <- e })()
	defer bus.Subscribe(func(e events.SessionUnloadedEvent) { unloaded <- e })()
	defer bus.Subscribe(func(e events.SessionLoadFailedEvent) { failed <- e })()

	opts := testOptions()
	opts.Events = bus

	s, err := Load(newMockDevice(720, 480), &mockHost{acceptFormat: true}, opts)
	if err != nil {
		t.Fatal(err)
	}
	select {
	case e := <-loaded:
		if e.Width != 720 || e.Height != 480 || e.Encoding != "uyvy" || e.DevicePath != "/dev/video9" {
			t.Errorf("loaded event = %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("no SessionLoadedEvent")
	}

	s.Unload()
	select {
	case <-unloaded:
	case <-time.After(time.Second):
		t.Fatal("no SessionUnloadedEvent")
	}

	bad := newMockDevice(720, 480)
	bad.standard = 0x1
	if _, err := Load(bad, &mockHost{acceptFormat: true}, opts); err == nil {
		t.Fatal("expected failure")
	}
	select {
	case e := <-failed:
		if e.Reason != "negotiation" {
			t.Errorf("reason = %q, want negotiation", e.Reason)
		}
	case <-time.After(time.Second):
		t.Fatal("no SessionLoadFailedEvent")
	}
}

func TestLoadUnloadCycles(t *testing.T) {
	dev := newMockDevice(64, 32)
	host := &mockHost{acceptFormat: true}

	for i := 0; i < 5; i++ {
		s, err := Load(dev, host, testOptions())
		if err != nil {
			t.Fatalf("cycle %d: %v", i, err)
		}
		s.Unload()
		if s.Loaded() || s.raw != nil || s.display != nil {
			t.Fatalf("cycle %d: buffers retained after unload", i)
		}
		// Second unload must be harmless
		s.Unload()
	}

	var nilSession *Session
	nilSession.Unload()
	nilSession.Tick()
}

func TestTickPresentsConvertedFrame(t *testing.T) {
	dev := newMockDevice(4, 2)
	host := &mockHost{acceptFormat: true}
	s, err := Load(dev, host, testOptions())
	if err != nil {
		t.Fatal(err)
	}

	dev.frames = [][]byte{uyvyFrame(4, 2, 200)}
	s.Tick()

	if len(host.presented) != 1 {
		t.Fatalf("presented %d frames, want 1", len(host.presented))
	}
	if host.geometry[0] != [3]int{4, 2, 8} {
		t.Errorf("geometry = %v, want [4 2 8]", host.geometry[0])
	}
	want := frameconv.Pack565(200, 200, 200)
	for i, p := range host.presented[0] {
		if p != want {
			t.Fatalf("pixel %d = %#04x, want %#04x", i, p, want)
		}
	}
	if s.Frames() != 1 {
		t.Errorf("Frames() = %d", s.Frames())
	}
}

func TestTickHoldsPreviousFrameOnReadError(t *testing.T) {
	dev := newMockDevice(4, 2)
	host := &mockHost{acceptFormat: true}
	s, err := Load(dev, host, testOptions())
	if err != nil {
		t.Fatal(err)
	}

	dev.frames = [][]byte{uyvyFrame(4, 2, 90)}
	s.Tick()

	dev.readErr = fmt.Errorf("poll: %w", types.ErrReadTimeout)
	s.Tick()
	s.Tick()

	if len(host.presented) != 3 {
		t.Fatalf("presented %d frames, want 3", len(host.presented))
	}
	for tick := 1; tick < 3; tick++ {
		for i := range host.presented[0] {
			if host.presented[tick][i] != host.presented[0][i] {
				t.Fatalf("tick %d pixel %d changed after read error", tick, i)
			}
		}
	}
	if s.failures != 2 {
		t.Errorf("consecutive failures = %d, want 2", s.failures)
	}

	dev.readErr = nil
	dev.frames = [][]byte{uyvyFrame(4, 2, 10)}
	s.Tick()
	if s.failures != 0 {
		t.Error("failure counter should reset after a good read")
	}
	if host.presented[3][0] != frameconv.Pack565(10, 10, 10) {
		t.Error("fresh frame not presented after recovery")
	}
}

func TestTickShortReadConvertsBuffer(t *testing.T) {
	dev := newMockDevice(4, 2)
	host := &mockHost{acceptFormat: true}
	s, err := Load(dev, host, testOptions())
	if err != nil {
		t.Fatal(err)
	}

	dev.frames = [][]byte{uyvyFrame(4, 2, 100), uyvyFrame(4, 1, 50)}
	s.Tick()
	s.Tick()

	got := host.presented[1]
	if got[0] != frameconv.Pack565(50, 50, 50) {
		t.Errorf("first row = %#04x, want new data", got[0])
	}
	if got[7] != frameconv.Pack565(100, 100, 100) {
		t.Errorf("second row = %#04x, want previous data", got[7])
	}
}

func TestTickShortReadWarnings(t *testing.T) {
	var logs bytes.Buffer
	opts := testOptions()
	opts.Logger = slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))

	dev := newMockDevice(4, 2)
	s, err := Load(dev, &mockHost{acceptFormat: true}, opts)
	if err != nil {
		t.Fatal(err)
	}

	for range warnEvery {
		dev.frames = append(dev.frames, uyvyFrame(4, 1, 50))
	}
	for range warnEvery {
		s.Tick()
	}
	// first short read and every warnEvery-th one after it
	if got := strings.Count(logs.String(), "Short frame read"); got != 2 {
		t.Errorf("short read warnings = %d, want 2\n%s", got, logs.String())
	}

	dev.frames = [][]byte{uyvyFrame(4, 2, 100), uyvyFrame(4, 1, 50)}
	s.Tick()
	if s.short != 0 {
		t.Errorf("short counter = %d after a full read, want 0", s.short)
	}
	logs.Reset()
	s.Tick()
	if got := strings.Count(logs.String(), "Short frame read"); got != 1 {
		t.Errorf("warnings after recovery = %d, want 1", got)
	}
}

func TestTickPublishesReadFailures(t *testing.T) {
	bus := events.New()
	failures := make(chan events.FrameReadFailedEvent, 4)
	defer bus.Subscribe(func(e events.FrameReadFailedEvent) { failures <- e })()

	opts := testOptions()
	opts.Events = bus
	dev := newMockDevice(4, 2)
	dev.readErr = types.ErrReadTimeout

	s, err := Load(dev, &mockHost{acceptFormat: true}, opts)
	if err != nil {
		t.Fatal(err)
	}
	s.Tick()

	select {
	case e := <-failures:
		if !e.Timeout || e.Consecutive != 1 {
			t.Errorf("event = %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("no FrameReadFailedEvent")
	}
}

func TestTickAfterUnloadIsNoop(t *testing.T) {
	dev := newMockDevice(4, 2)
	host := &mockHost{acceptFormat: true}
	s, err := Load(dev, host, testOptions())
	if err != nil {
		t.Fatal(err)
	}
	s.Unload()
	s.Tick()

	if dev.reads != 0 || len(host.presented) != 0 {
		t.Errorf("unloaded tick read %d frames and presented %d", dev.reads, len(host.presented))
	}
}

func TestAllocate(t *testing.T) {
	tests := []struct {
		name    string
		format  types.CaptureFormat
		limit   int
		wantErr bool
	}{
		{"default limit", types.NewCaptureFormat(1920, 1080, types.EncodingUYVY, types.Square), 0, false},
		{"zero size", types.CaptureFormat{Encoding: types.EncodingUYVY}, 0, true},
		{"inconsistent frame size", types.CaptureFormat{Width: 4, Height: 4, Encoding: types.EncodingUYVY, FrameSize: 7}, 0, true},
		{"over limit", types.NewCaptureFormat(8192, 8192, types.EncodingRGB24, types.Square), 0, true},
		{"exactly at limit", types.NewCaptureFormat(16, 16, types.EncodingUYVY, types.Square), 512, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, display, err := allocate(tt.format, tt.limit)
			if (err != nil) != tt.wantErr {
				t.Fatalf("allocate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrAllocationFailed) {
					t.Errorf("error %v is not ErrAllocationFailed", err)
				}
				if raw != nil || display != nil {
					t.Error("buffers returned on failure")
				}
				return
			}
			if len(raw) != int(tt.format.FrameSize) || len(display) != tt.format.Pixels() {
				t.Errorf("sizes raw=%d display=%d", len(raw), len(display))
			}
		})
	}
}
