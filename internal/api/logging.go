package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/framesource/internal/api/models"
	"github.com/smazurov/framesource/internal/logging"
)

func (s *Server) registerLoggingRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-logging",
		Method:      http.MethodGet,
		Path:        "/api/logging",
		Summary:     "Log levels",
		Description: "Effective global and per-module log levels",
		Tags:        []string{"logging"},
	}, func(_ context.Context, _ *struct{}) (*models.LoggingResponse, error) {
		return &models.LoggingResponse{Body: currentLevels()}, nil
	})

	// Replaces the runtime levels the same way a config file reload does.
	huma.Register(s.api, huma.Operation{
		OperationID: "set-logging",
		Method:      http.MethodPut,
		Path:        "/api/logging",
		Summary:     "Set log levels",
		Description: "Replace the global level and module overrides until the next config reload",
		Tags:        []string{"logging"},
	}, func(_ context.Context, input *models.LoggingRequest) (*models.LoggingResponse, error) {
		logging.SetLevels(logging.Config{
			Level:   input.Body.Level,
			Modules: input.Body.Modules,
		})
		s.logger.Info("Log levels changed via API", "level", input.Body.Level, "modules", input.Body.Modules)
		return &models.LoggingResponse{Body: currentLevels()}, nil
	})
}
