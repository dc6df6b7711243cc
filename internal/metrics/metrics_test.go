package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/smazurov/framesource/internal/events"
)

// waitFor polls until cond holds; bus delivery is asynchronous.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func newBus(t *testing.T) *events.Bus {
	t.Helper()
	bus := events.New()
	unsubscribe := Subscribe(bus)
	t.Cleanup(func() {
		unsubscribe()
		bus.Close()
	})
	return bus
}

func TestFrameCounters(t *testing.T) {
	bus := newBus(t)

	presented := testutil.ToFloat64(framesPresented)
	held := testutil.ToFloat64(framesHeld)
	failures := testutil.ToFloat64(frameReadFailures)
	before := Get()

	bus.Publish(events.FramePresentedEvent{Fresh: true})
	bus.Publish(events.FramePresentedEvent{Fresh: true})
	bus.Publish(events.FrameReadFailedEvent{DevicePath: "/dev/video0", Timeout: true, Consecutive: 1})
	bus.Publish(events.FramePresentedEvent{Fresh: false})

	waitFor(t, "presented frames", func() bool { return testutil.ToFloat64(framesPresented) == presented+3 })
	waitFor(t, "held frames", func() bool { return testutil.ToFloat64(framesHeld) == held+1 })
	waitFor(t, "read failures", func() bool { return testutil.ToFloat64(frameReadFailures) == failures+1 })

	after := Get()
	if after.FramesPresented-before.FramesPresented != 3 {
		t.Errorf("snapshot frames delta = %d, want 3", after.FramesPresented-before.FramesPresented)
	}
	if after.FrameReadFailures-before.FrameReadFailures != 1 {
		t.Errorf("snapshot failures delta = %d, want 1", after.FrameReadFailures-before.FrameReadFailures)
	}
}

func TestAudioFrames(t *testing.T) {
	bus := newBus(t)
	start := testutil.ToFloat64(audioFrames)

	for range 10 {
		bus.Publish(events.AudioBatchEvent{Frames: 32})
	}
	bus.Publish(events.AudioBatchEvent{Frames: 7})

	waitFor(t, "audio frames", func() bool { return testutil.ToFloat64(audioFrames) == start+327 })
}

func TestSessionGauge(t *testing.T) {
	bus := newBus(t)

	bus.Publish(events.SessionLoadedEvent{DevicePath: "/dev/video0", Width: 720, Height: 480})
	waitFor(t, "session loaded", func() bool { return testutil.ToFloat64(sessionLoaded) == 1 })
	if !Get().SessionLoaded {
		t.Error("snapshot should report a loaded session")
	}

	bus.Publish(events.SessionUnloadedEvent{DevicePath: "/dev/video0", Frames: 10})
	waitFor(t, "session unloaded", func() bool { return testutil.ToFloat64(sessionLoaded) == 0 })
	if Get().SessionLoaded {
		t.Error("snapshot should report no session")
	}
}

func TestLoadFailuresByReason(t *testing.T) {
	bus := newBus(t)

	reasons := []string{"negotiation", "allocation", "pixel_format"}
	start := make(map[string]float64)
	for _, r := range reasons {
		start[r] = testutil.ToFloat64(sessionLoadFailures.WithLabelValues(r))
	}

	bus.Publish(events.SessionLoadFailedEvent{Reason: "negotiation"})
	bus.Publish(events.SessionLoadFailedEvent{Reason: "negotiation"})
	bus.Publish(events.SessionLoadFailedEvent{Reason: "pixel_format"})

	want := map[string]float64{"negotiation": 2, "allocation": 0, "pixel_format": 1}
	for _, r := range reasons {
		waitFor(t, r, func() bool {
			return testutil.ToFloat64(sessionLoadFailures.WithLabelValues(r)) == start[r]+want[r]
		})
	}
}

func TestHotplugEvents(t *testing.T) {
	bus := newBus(t)
	c := hotplugEvents.WithLabelValues("video4linux", "remove")
	start := testutil.ToFloat64(c)

	bus.Publish(events.DeviceHotplugEvent{Action: "remove", Subsystem: "video4linux", DevicePath: "/dev/video0"})

	waitFor(t, "hotplug counter", func() bool { return testutil.ToFloat64(c) == start+1 })
}

func TestUnsubscribeStopsUpdates(t *testing.T) {
	bus := events.New()
	defer bus.Close()
	unsubscribe := Subscribe(bus)
	unsubscribe()

	start := testutil.ToFloat64(audioFrames)
	bus.Publish(events.AudioBatchEvent{Frames: 1000})
	time.Sleep(50 * time.Millisecond)

	if got := testutil.ToFloat64(audioFrames); got != start {
		t.Errorf("audio frames changed after unsubscribe: %v -> %v", start, got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	framesPresented.Add(0)
	sessionLoadFailures.WithLabelValues("allocation").Add(0)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, name := range []string{
		"framesource_frames_presented_total",
		"framesource_frame_read_failures_total",
		"framesource_audio_frames_total",
		"framesource_session_loaded",
		`framesource_session_load_failures_total{reason="allocation"}`,
	} {
		if !strings.Contains(string(body), name) {
			t.Errorf("scrape output missing %s", name)
		}
	}
}

func TestMetricsLint(t *testing.T) {
	for _, c := range []prometheus.Collector{framesPresented, frameReadFailures, audioFrames, sessionLoaded} {
		problems, err := testutil.CollectAndLint(c)
		if err != nil {
			t.Fatal(err)
		}
		for _, p := range problems {
			t.Errorf("%s: %s", p.Metric, p.Text)
		}
	}
}
