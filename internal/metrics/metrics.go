// Package metrics provides Prometheus metrics for the capture pipeline,
// fed from the event bus.
package metrics

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smazurov/framesource/internal/events"
)

const namespace = "framesource"

var (
	framesPresented = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "frames_presented_total",
		Help:      "Frames handed to the host, including held frames",
	})

	framesHeld = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "frames_held_total",
		Help:      "Frames re-presented after a read failure",
	})

	frameReadFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "frame_read_failures_total",
		Help:      "Capture reads that returned an error",
	})

	audioFrames = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audio_frames_total",
		Help:      "Stereo audio frames forwarded to the host",
	})

	sessionLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "session_loaded",
		Help:      "1 while a capture session holds its buffers",
	})

	sessionLoadFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_load_failures_total",
		Help:      "Aborted session loads by failure class",
	}, []string{"reason"})

	hotplugEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "hotplug_events_total",
		Help:      "Kernel device events for capture and sound nodes",
	}, []string{"subsystem", "action"})

	// Local mirror for the status API.
	totals struct {
		framesPresented   atomic.Uint64
		frameReadFailures atomic.Uint64
		audioFrames       atomic.Uint64
		sessionLoaded     atomic.Bool
	}
)

// Snapshot holds current totals since process start.
type Snapshot struct {
	FramesPresented   uint64 `json:"frames_presented" example:"36000" doc:"Frames handed to the host"`
	FrameReadFailures uint64 `json:"frame_read_failures" example:"2" doc:"Failed capture reads"`
	AudioFrames       uint64 `json:"audio_frames" example:"28800000" doc:"Stereo frames forwarded"`
	SessionLoaded     bool   `json:"session_loaded" doc:"Whether a capture session is active"`
}

// Get returns the current totals.
func Get() Snapshot {
	return Snapshot{
		FramesPresented:   totals.framesPresented.Load(),
		FrameReadFailures: totals.frameReadFailures.Load(),
		AudioFrames:       totals.audioFrames.Load(),
		SessionLoaded:     totals.sessionLoaded.Load(),
	}
}

// Subscribe feeds the metrics from bus. The returned function detaches
// every handler.
func Subscribe(bus *events.Bus) func() {
	unsubs := []func(){
		bus.Subscribe(func(e events.FramePresentedEvent) {
			framesPresented.Inc()
			totals.framesPresented.Add(1)
			if !e.Fresh {
				framesHeld.Inc()
			}
		}),
		bus.Subscribe(func(events.FrameReadFailedEvent) {
			frameReadFailures.Inc()
			totals.frameReadFailures.Add(1)
		}),
		bus.Subscribe(func(e events.AudioBatchEvent) {
			audioFrames.Add(float64(e.Frames))
			totals.audioFrames.Add(uint64(e.Frames))
		}),
		bus.Subscribe(func(events.SessionLoadedEvent) {
			sessionLoaded.Set(1)
			totals.sessionLoaded.Store(true)
		}),
		bus.Subscribe(func(events.SessionUnloadedEvent) {
			sessionLoaded.Set(0)
			totals.sessionLoaded.Store(false)
		}),
		bus.Subscribe(func(e events.SessionLoadFailedEvent) {
			sessionLoadFailures.WithLabelValues(e.Reason).Inc()
		}),
		bus.Subscribe(func(e events.DeviceHotplugEvent) {
			hotplugEvents.WithLabelValues(e.Subsystem, e.Action).Inc()
		}),
	}

	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

// Handler returns the Prometheus scrape handler for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
