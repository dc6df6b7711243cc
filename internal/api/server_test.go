package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/smazurov/framesource/internal/api/models"
	"github.com/smazurov/framesource/internal/audio"
	"github.com/smazurov/framesource/internal/core"
	"github.com/smazurov/framesource/internal/devices"
	"github.com/smazurov/framesource/internal/events"
	"github.com/smazurov/framesource/internal/host"
	"github.com/smazurov/framesource/internal/types"
)

type mockFrames struct {
	frame host.Frame
	ok    bool
	stats host.Stats
}

func (m *mockFrames) Snapshot() (host.Frame, bool) { return m.frame, m.ok }
func (m *mockFrames) Stats() host.Stats            { return m.stats }

func newTestServer(t *testing.T, opts Options) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	api.UseMiddleware(NewCORSMiddleware(DefaultCORSConfig()))
	api.UseMiddleware(HTTPLoggingMiddleware)
	s := newServer(api, opts)
	t.Cleanup(s.session.close)
	return api
}

func decode[T any](t *testing.T, body *bytes.Buffer) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(body.Bytes(), &v); err != nil {
		t.Fatalf("decode %T: %v (body %s)", v, err, body.String())
	}
	return v
}

func waitStatus(t *testing.T, api humatest.TestAPI, cond func(models.StatusData) bool) models.StatusData {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp := api.Get("/api/status")
		if resp.Code != http.StatusOK {
			t.Fatalf("status code = %d", resp.Code)
		}
		data := decode[models.StatusData](t, resp.Body)
		if cond(data) {
			return data
		}
		if time.Now().After(deadline) {
			t.Fatalf("status never matched: %+v", data)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHealth(t *testing.T) {
	api := newTestServer(t, Options{})

	resp := api.Get("/api/health")
	if resp.Code != http.StatusOK {
		t.Fatalf("code = %d", resp.Code)
	}
	data := decode[models.HealthData](t, resp.Body)
	if data.Status != "ok" {
		t.Errorf("Status = %q", data.Status)
	}
	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("CORS origin = %q", got)
	}
}

func TestVersion(t *testing.T) {
	api := newTestServer(t, Options{})
	resp := api.Get("/api/version")
	if resp.Code != http.StatusOK {
		t.Fatalf("code = %d", resp.Code)
	}
	if info := decode[map[string]any](t, resp.Body); info["version"] == "" {
		t.Errorf("missing version: %v", info)
	}
}

func TestStatusReflectsLoadedSession(t *testing.T) {
	bus := events.New()
	defer bus.Close()

	api := newTestServer(t, Options{
		Device:   types.DeviceInfo{Path: "/dev/video0", Driver: "em28xx", Card: "USB Capture"},
		System:   core.SystemInfo{LibraryName: core.LibraryName, LibraryVersion: "dev", NeedFullpath: true},
		Timing:   core.Timing{FPS: 59.94, SampleRate: 48000},
		Frames:   &mockFrames{stats: host.Stats{Ticks: 10, Frames: 9, PixelFormat: "RGB565"}},
		EventBus: bus,
	})

	initial := waitStatus(t, api, func(models.StatusData) bool { return true })
	if initial.Session.Loaded {
		t.Fatal("no session should be loaded yet")
	}
	if initial.Device.Driver != "em28xx" || initial.System.LibraryName != "V4L2" || initial.Timing.FPS != 59.94 {
		t.Errorf("static fields = %+v", initial)
	}
	if initial.Host.Frames != 9 || initial.Host.PixelFormat != "RGB565" {
		t.Errorf("Host = %+v", initial.Host)
	}
	if initial.Logging.Level == "" {
		t.Error("logging level missing")
	}

	bus.Publish(events.SessionLoadedEvent{
		DevicePath:  "/dev/video0",
		Width:       720,
		Height:      480,
		Encoding:    "uyvy",
		FrameSize:   691200,
		AspectRatio: 1.3636,
	})

	loaded := waitStatus(t, api, func(d models.StatusData) bool { return d.Session.Loaded })
	s := loaded.Session
	if s.Width != 720 || s.Height != 480 || s.Encoding != "uyvy" || s.FrameSize != 691200 {
		t.Errorf("Session = %+v", s)
	}

	bus.Publish(events.SessionUnloadedEvent{DevicePath: "/dev/video0", Frames: 100})
	waitStatus(t, api, func(d models.StatusData) bool { return !d.Session.Loaded })
}

func TestStatusRecordsLoadFailure(t *testing.T) {
	bus := events.New()
	defer bus.Close()
	api := newTestServer(t, Options{EventBus: bus})

	bus.Publish(events.SessionLoadFailedEvent{Reason: "negotiation", Error: "active video standard not enumerated"})

	data := waitStatus(t, api, func(d models.StatusData) bool { return d.Session.LastError != "" })
	if !strings.HasPrefix(data.Session.LastError, "negotiation: ") {
		t.Errorf("LastError = %q", data.Session.LastError)
	}
}

func TestFrameNotAvailable(t *testing.T) {
	tests := []struct {
		name   string
		frames FrameSource
	}{
		{"no source", nil},
		{"no frame yet", &mockFrames{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestServer(t, Options{Frames: tt.frames})
			if resp := api.Get("/api/frame.png"); resp.Code != http.StatusNotFound {
				t.Errorf("code = %d, want 404", resp.Code)
			}
		})
	}
}

func TestFramePNG(t *testing.T) {
	frames := &mockFrames{
		ok: true,
		frame: host.Frame{
			Pixels: []uint16{0xF800, 0x07E0, 0x001F, 0xFFFF},
			Width:  2,
			Height: 2,
			Seq:    7,
		},
	}
	api := newTestServer(t, Options{Frames: frames})

	resp := api.Get("/api/frame.png")
	if resp.Code != http.StatusOK {
		t.Fatalf("code = %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	if seq := resp.Header().Get("X-Frame-Seq"); seq != "7" {
		t.Errorf("X-Frame-Seq = %q", seq)
	}

	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 2 || b.Dy() != 2 {
		t.Fatalf("bounds = %v", b)
	}

	want := [][3]uint32{{0xFF, 0, 0}, {0, 0xFF, 0}, {0, 0, 0xFF}, {0xFF, 0xFF, 0xFF}}
	for i, w := range want {
		r, g, b, _ := img.At(i%2, i/2).RGBA()
		if r>>8 != w[0] || g>>8 != w[1] || b>>8 != w[2] {
			t.Errorf("pixel %d = %d,%d,%d want %v", i, r>>8, g>>8, b>>8, w)
		}
	}
}

func TestFrameScaling(t *testing.T) {
	bus := events.New()
	defer bus.Close()

	frames := &mockFrames{
		ok:    true,
		frame: host.Frame{Pixels: make([]uint16, 720*480), Width: 720, Height: 480, Seq: 1},
	}
	api := newTestServer(t, Options{Frames: frames, EventBus: bus})

	bus.Publish(events.SessionLoadedEvent{Width: 720, Height: 480, AspectRatio: 4.0 / 3.0})
	waitStatus(t, api, func(d models.StatusData) bool { return d.Session.Loaded })

	tests := []struct {
		query         string
		width, height int
	}{
		{"", 720, 480},
		{"?width=360", 360, 240},
		{"?display=true", 640, 480},
		{"?display=true&width=320", 320, 240},
	}
	for _, tt := range tests {
		resp := api.Get("/api/frame.png" + tt.query)
		if resp.Code != http.StatusOK {
			t.Fatalf("%q: code = %d", tt.query, resp.Code)
		}
		img, err := png.Decode(resp.Body)
		if err != nil {
			t.Fatalf("%q: %v", tt.query, err)
		}
		if b := img.Bounds(); b.Dx() != tt.width || b.Dy() != tt.height {
			t.Errorf("%q: size = %dx%d, want %dx%d", tt.query, b.Dx(), b.Dy(), tt.width, tt.height)
		}
	}

	if resp := api.Get("/api/frame.png?width=9000"); resp.Code != http.StatusUnprocessableEntity {
		t.Errorf("oversized width code = %d, want 422", resp.Code)
	}
}

func TestDevices(t *testing.T) {
	api := newTestServer(t, Options{
		ListVideo: func() ([]devices.DeviceInfo, error) {
			return []devices.DeviceInfo{{DevicePath: "/dev/video0", DeviceName: "USB Video"}}, nil
		},
		ListAudio: func() ([]audio.Device, error) {
			return nil, errors.New("no sound cards")
		},
	})

	resp := api.Get("/api/devices")
	if resp.Code != http.StatusOK {
		t.Fatalf("code = %d", resp.Code)
	}
	data := decode[models.DevicesData](t, resp.Body)
	if len(data.Video) != 1 || data.Video[0].DevicePath != "/dev/video0" {
		t.Errorf("Video = %+v", data.Video)
	}
	if data.AudioError != "no sound cards" || data.VideoError != "" {
		t.Errorf("errors = %q / %q", data.VideoError, data.AudioError)
	}
}

func TestLoggingLevels(t *testing.T) {
	api := newTestServer(t, Options{})

	resp := api.Put("/api/logging", map[string]any{
		"level":   "warn",
		"modules": map[string]string{"api": "debug"},
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("PUT code = %d: %s", resp.Code, resp.Body.String())
	}

	got := decode[models.LoggingLevels](t, api.Get("/api/logging").Body)
	if got.Level != "warn" {
		t.Errorf("Level = %q, want warn", got.Level)
	}
	if got.Modules["api"] != "debug" {
		t.Errorf("api module = %q, want debug", got.Modules["api"])
	}

	// restore
	api.Put("/api/logging", map[string]any{"level": "info"})
}

func TestLoggingRejectsUnknownLevel(t *testing.T) {
	api := newTestServer(t, Options{})
	resp := api.Put("/api/logging", map[string]any{"level": "loud"})
	if resp.Code != http.StatusUnprocessableEntity {
		t.Errorf("code = %d, want 422", resp.Code)
	}
}

func TestEventsStream(t *testing.T) {
	bus := events.New()
	defer bus.Close()
	api := newTestServer(t, Options{EventBus: bus})

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	go func() {
		time.Sleep(100 * time.Millisecond)
		bus.Publish(events.DeviceHotplugEvent{Action: "remove", Subsystem: "video4linux", DevicePath: "/dev/video0", InUse: true})
	}()

	resp := api.GetCtx(ctx, "/api/events")
	body := resp.Body.String()
	if !strings.Contains(body, "event: device-hotplug") {
		t.Errorf("stream missing hotplug event: %q", body)
	}
	if !strings.Contains(body, `"device_path":"/dev/video0"`) {
		t.Errorf("stream missing payload: %q", body)
	}
}

func TestNewServerMountsMetricsAndPreflight(t *testing.T) {
	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("framesource_frames_presented_total 1\n"))
	})
	s := NewServer(Options{MetricsHandler: metricsHandler})
	t.Cleanup(s.session.close)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "frames_presented_total") {
		t.Errorf("/metrics = %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/status", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight code = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "GET, PUT, OPTIONS" {
		t.Errorf("Allow-Methods = %q", got)
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/api/health via mux = %d", rec.Code)
	}
}

func TestRequestLevel(t *testing.T) {
	tests := []struct {
		method string
		path   string
		status int
		want   slog.Level
	}{
		{"GET", "/api/status", 200, slog.LevelDebug},
		{"GET", "/api/frame.png", 404, slog.LevelWarn},
		{"OPTIONS", "/api/logging", 204, slog.LevelDebug},
		{"PUT", "/api/logging", 200, slog.LevelInfo},
		{"PUT", "/api/logging", 422, slog.LevelWarn},
		{"GET", "/api/frame.png", 500, slog.LevelError},
	}
	for _, tt := range tests {
		if got := requestLevel(tt.method, tt.path, tt.status); got != tt.want {
			t.Errorf("requestLevel(%s %s %d) = %v, want %v", tt.method, tt.path, tt.status, got, tt.want)
		}
	}
}
