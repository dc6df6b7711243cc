package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/smazurov/framesource/internal/api/models"
	"github.com/smazurov/framesource/internal/audio"
	"github.com/smazurov/framesource/internal/core"
	"github.com/smazurov/framesource/internal/devices"
	"github.com/smazurov/framesource/internal/events"
	"github.com/smazurov/framesource/internal/host"
	"github.com/smazurov/framesource/internal/logging"
	"github.com/smazurov/framesource/internal/types"
	"github.com/smazurov/framesource/internal/version"
)

// FrameSource is the part of the host the API reads. Both methods must be
// safe to call from HTTP handlers while the host loop runs.
type FrameSource interface {
	Snapshot() (host.Frame, bool)
	Stats() host.Stats
}

// Options wires the API to the running process. Device, System and Timing
// are captured once at startup so handlers never touch the core.
type Options struct {
	Device   types.DeviceInfo
	System   core.SystemInfo
	Timing   core.Timing
	Frames   FrameSource
	EventBus *events.Bus

	// MetricsHandler is mounted at /metrics when set.
	MetricsHandler http.Handler

	// Device listers; nil uses the platform implementations.
	ListVideo func() ([]devices.DeviceInfo, error)
	ListAudio func() ([]audio.Device, error)
}

// Server is the huma HTTP API.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	opts       Options
	session    *sessionTracker
	logger     *slog.Logger
}

// NewServer creates the API on a standard library mux.
func NewServer(opts Options) *Server {
	mux := http.NewServeMux()

	corsConfig := DefaultCORSConfig()
	AddCORSHandler(mux, corsConfig)

	config := huma.DefaultConfig("framesource API", version.String())
	config.Info.Description = "Status and preview for a V4L2/ALSA frame source"
	config.Servers = []*huma.Server{}

	api := humago.New(mux, config)
	api.UseMiddleware(NewCORSMiddleware(corsConfig))
	api.UseMiddleware(HTTPLoggingMiddleware)

	if opts.MetricsHandler != nil {
		mux.Handle("GET /metrics", opts.MetricsHandler)
	}

	s := newServer(api, opts)
	s.mux = mux
	return s
}

func newServer(api huma.API, opts Options) *Server {
	if opts.ListVideo == nil {
		opts.ListVideo = devices.List
	}
	if opts.ListAudio == nil {
		opts.ListAudio = audio.List
	}
	s := &Server{
		api:     api,
		opts:    opts,
		session: newSessionTracker(opts.EventBus),
		logger:  logging.GetLogger("api"),
	}
	s.registerRoutes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves on addr until Stop is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting API server", "addr", addr)
	s.logger.Info("OpenAPI documentation available", "url", "http://"+addr+"/docs")

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}
	return s.httpServer.ListenAndServe()
}

// Stop shuts the listener down and detaches from the event bus.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server")
	s.session.close()
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Check API health status",
		Tags:        []string{"system"},
	}, func(_ context.Context, _ *struct{}) (*models.HealthResponse, error) {
		return &models.HealthResponse{
			Body: models.HealthData{
				Status:  "ok",
				Message: "API is healthy",
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Get build information",
		Tags:        []string{"system"},
	}, func(_ context.Context, _ *struct{}) (*models.VersionResponse, error) {
		return &models.VersionResponse{Body: version.Get()}, nil
	})

	s.registerStatusRoutes()
	s.registerFrameRoutes()
	s.registerDeviceRoutes()
	s.registerLoggingRoutes()
	s.registerSSERoutes()
}
