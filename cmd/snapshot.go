package cmd

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"time"

	"github.com/smazurov/framesource/internal/audio"
	"github.com/smazurov/framesource/internal/core"
	"github.com/smazurov/framesource/internal/devices"
	"github.com/smazurov/framesource/internal/frameconv"
	"github.com/smazurov/framesource/internal/host"
	"github.com/smazurov/framesource/internal/logging"
	"github.com/smazurov/framesource/internal/types"
	"github.com/spf13/cobra"
)

// ErrNoFrame means no frame was presented during the warmup ticks.
var ErrNoFrame = errors.New("no frame captured")

// takeSnapshot runs warmup ticks of a fresh core against a headless host and
// returns the last presented frame with the session's display aspect.
func takeSnapshot(cfg core.Config, open core.Openers, warmup int) (host.Frame, float64, error) {
	cfg.AudioEnabled = false
	h := host.New(host.Options{FPS: cfg.FPS})
	c := core.New(cfg, h, open, nil)
	if err := c.Init(); err != nil {
		return host.Frame{}, 0, err
	}
	defer c.Deinit()

	if err := c.LoadSession(); err != nil {
		return host.Frame{}, 0, err
	}
	aspect := c.AVInfo().Geometry.AspectRatio

	for range max(warmup, 1) {
		c.Run()
	}

	frame, ok := h.Snapshot()
	if !ok {
		return host.Frame{}, aspect, ErrNoFrame
	}
	return frame, aspect, nil
}

func encodeSnapshot(w io.Writer, frame host.Frame, aspect float64, display bool) error {
	var img image.Image = frameconv.ToImage(frame.Pixels, frame.Width, frame.Height)
	if display {
		if dw := frameconv.DisplayWidth(frame.Height, aspect); dw > 0 && dw != frame.Width {
			img = frameconv.Resize(img, dw, frame.Height)
		}
	}
	return png.Encode(w, img)
}

// CreateSnapshotCmd creates the snapshot command.
func CreateSnapshotCmd() *cobra.Command {
	var encoding string
	var setFormat bool
	var warmup int
	var output string
	var display bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "snapshot [device]",
		Short: "Capture one frame to a PNG file",
		Long: `Loads a capture session, drives a few ticks so the device settles and writes the ` +
			`last RGB565 frame the host received as PNG. Use --output - to write to stdout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/dev/video0"
			if len(args) == 1 {
				path = args[0]
			}

			enc, err := types.ParseEncoding(encoding)
			if err != nil {
				return err
			}

			logging.Initialize(logging.Config{Level: "warn", Format: "text"})

			cfg := core.Config{
				DevicePath: path,
				Encoding:   enc,
				SetFormat:  setFormat,
			}
			open := core.Openers{
				Video: func(p string) (types.CaptureDevice, error) {
					return devices.Open(p, devices.Options{ReadTimeout: timeout})
				},
				Audio: audio.Open,
			}

			frame, aspect, err := takeSnapshot(cfg, open, warmup)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := encodeSnapshot(w, frame, aspect, display); err != nil {
				return fmt.Errorf("encode %s: %w", output, err)
			}
			if output != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %dx%d frame %d to %s\n", frame.Width, frame.Height, frame.Seq, output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&encoding, "encoding", "e", "uyvy", "Capture encoding (uyvy, rgb24)")
	cmd.Flags().BoolVar(&setFormat, "set-format", true, "Request the encoding from the device")
	cmd.Flags().IntVarP(&warmup, "warmup", "w", 10, "Ticks to run before keeping the frame")
	cmd.Flags().StringVarP(&output, "output", "o", "frame.png", "Output file, - for stdout")
	cmd.Flags().BoolVar(&display, "display", false, "Rescale to the display aspect ratio")
	cmd.Flags().DurationVar(&timeout, "read-timeout", devices.DefaultReadTimeout, "Per-frame read timeout")

	return cmd
}
