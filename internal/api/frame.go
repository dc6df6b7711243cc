package api

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/framesource/internal/api/models"
	"github.com/smazurov/framesource/internal/frameconv"
)

func (s *Server) registerFrameRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-frame",
		Method:      http.MethodGet,
		Path:        "/api/frame.png",
		Summary:     "Latest frame",
		Description: "The last frame presented to the host, encoded as PNG",
		Tags:        []string{"status"},
		Errors:      []int{404, 500},
	}, func(_ context.Context, input *models.FrameRequest) (*models.FrameResponse, error) {
		if s.opts.Frames == nil {
			return nil, huma.Error404NotFound("no frame source")
		}
		frame, ok := s.opts.Frames.Snapshot()
		if !ok {
			return nil, huma.Error404NotFound("no frame presented yet")
		}

		var img image.Image = frameconv.ToImage(frame.Pixels, frame.Width, frame.Height)
		if input.Display {
			aspect := s.session.get().AspectRatio
			if w := frameconv.DisplayWidth(frame.Height, aspect); w > 0 && w != frame.Width {
				img = frameconv.Resize(img, w, frame.Height)
			}
		}
		if input.Width > 0 && input.Width != img.Bounds().Dx() {
			img = frameconv.FitWidth(img, input.Width)
		}

		var buf bytes.Buffer
		enc := png.Encoder{CompressionLevel: png.BestSpeed}
		if err := enc.Encode(&buf, img); err != nil {
			s.logger.Error("Failed to encode frame", "error", err)
			return nil, huma.Error500InternalServerError("failed to encode frame", err)
		}

		return &models.FrameResponse{
			ContentType:  "image/png",
			CacheControl: "no-store",
			FrameSeq:     strconv.FormatUint(frame.Seq, 10),
			Body:         buf.Bytes(),
		}, nil
	})
}
