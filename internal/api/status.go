package api

import (
	"context"
	"net/http"
	"sync"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/framesource/internal/api/models"
	"github.com/smazurov/framesource/internal/events"
	"github.com/smazurov/framesource/internal/logging"
	"github.com/smazurov/framesource/internal/metrics"
)

// sessionTracker mirrors session lifecycle events so status requests never
// reach into the core from an HTTP goroutine.
type sessionTracker struct {
	mu     sync.RWMutex
	status models.SessionStatus
	unsubs []func()
}

func newSessionTracker(bus *events.Bus) *sessionTracker {
	t := &sessionTracker{}
	if bus == nil {
		return t
	}
	t.unsubs = []func(){
		bus.Subscribe(func(e events.SessionLoadedEvent) {
			t.mu.Lock()
			t.status = models.SessionStatus{
				Loaded:      true,
				DevicePath:  e.DevicePath,
				Width:       e.Width,
				Height:      e.Height,
				Encoding:    e.Encoding,
				FrameSize:   e.FrameSize,
				AspectRatio: e.AspectRatio,
				Since:       e.Timestamp,
			}
			t.mu.Unlock()
		}),
		bus.Subscribe(func(e events.SessionUnloadedEvent) {
			t.mu.Lock()
			t.status = models.SessionStatus{
				DevicePath: e.DevicePath,
				Since:      e.Timestamp,
				LastError:  t.status.LastError,
			}
			t.mu.Unlock()
		}),
		bus.Subscribe(func(e events.SessionLoadFailedEvent) {
			t.mu.Lock()
			t.status.LastError = e.Reason + ": " + e.Error
			t.mu.Unlock()
		}),
	}
	return t
}

func (t *sessionTracker) get() models.SessionStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

func (t *sessionTracker) close() {
	for _, unsub := range t.unsubs {
		unsub()
	}
	t.unsubs = nil
}

func currentLevels() models.LoggingLevels {
	return models.LoggingLevels{
		Level:   logging.GlobalLevel(),
		Modules: logging.Levels(),
	}
}

func (s *Server) registerStatusRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "Status",
		Description: "Capture device, session format, host counters and log levels",
		Tags:        []string{"status"},
	}, func(_ context.Context, _ *struct{}) (*models.StatusResponse, error) {
		data := models.StatusData{
			Device:  s.opts.Device,
			System:  s.opts.System,
			Timing:  s.opts.Timing,
			Session: s.session.get(),
			Totals:  metrics.Get(),
			Logging: currentLevels(),
		}
		if s.opts.Frames != nil {
			data.Host = s.opts.Frames.Stats()
		}
		return &models.StatusResponse{Body: data}, nil
	})
}
