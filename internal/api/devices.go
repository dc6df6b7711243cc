package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/framesource/internal/api/models"
)

func (s *Server) registerDeviceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-devices",
		Method:      http.MethodGet,
		Path:        "/api/devices",
		Summary:     "List devices",
		Description: "Video and audio capture devices present on the system",
		Tags:        []string{"devices"},
	}, func(_ context.Context, _ *struct{}) (*models.DevicesResponse, error) {
		var data models.DevicesData

		video, err := s.opts.ListVideo()
		if err != nil {
			s.logger.Warn("Failed to list video devices", "error", err)
			data.VideoError = err.Error()
		}
		data.Video = video

		audioDevices, err := s.opts.ListAudio()
		if err != nil {
			s.logger.Warn("Failed to list audio devices", "error", err)
			data.AudioError = err.Error()
		}
		data.Audio = audioDevices

		return &models.DevicesResponse{Body: data}, nil
	})
}
