package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/smazurov/framesource/internal/devices"
	"github.com/smazurov/framesource/internal/logging"
	"github.com/smazurov/framesource/internal/negotiate"
	"github.com/smazurov/framesource/internal/types"
	"github.com/spf13/cobra"
)

// ProbeResult is what probe learned about a device.
type ProbeResult struct {
	Device        types.DeviceInfo     `json:"device"`
	Width         uint32               `json:"width,omitempty"`
	Height        uint32               `json:"height,omitempty"`
	Encoding      string               `json:"encoding,omitempty"`
	FrameSize     uint32               `json:"frame_size,omitempty"`
	PixelAspect   string               `json:"pixel_aspect,omitempty"`
	DisplayAspect float64              `json:"display_aspect,omitempty"`
	Standards     []string             `json:"standards,omitempty"`
	Formats       []devices.FormatInfo `json:"formats,omitempty"`
	Error         string               `json:"error,omitempty"`
}

// probe negotiates against dev and collects what a session would use.
func probe(dev types.CaptureDevice, opts negotiate.Options) (ProbeResult, error) {
	result := ProbeResult{Device: dev.Info()}

	stds, err := dev.Standards()
	switch {
	case err == nil:
		for _, s := range stds {
			result.Standards = append(result.Standards, s.Name)
		}
	case !errors.Is(err, types.ErrStandardsUnsupported):
		opts.Logger.Warn("Failed to enumerate standards", "error", err)
	}

	format, err := negotiate.Negotiate(dev, opts)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}
	result.Width = format.Width
	result.Height = format.Height
	result.Encoding = format.Encoding.String()
	result.FrameSize = format.FrameSize
	result.PixelAspect = format.PixelAspect.String()
	result.DisplayAspect = format.DisplayAspect()
	return result, nil
}

func printProbe(w io.Writer, r ProbeResult) {
	fmt.Fprintf(w, "Device:    %s\n", r.Device.Path)
	fmt.Fprintf(w, "Driver:    %s %s\n", r.Device.Driver, r.Device.Version)
	fmt.Fprintf(w, "Card:      %s (%s)\n", r.Device.Card, r.Device.BusInfo)
	if len(r.Standards) > 0 {
		fmt.Fprintf(w, "Standards: %v\n", r.Standards)
	}
	for _, f := range r.Formats {
		emulated := ""
		if f.Emulated {
			emulated = " (emulated)"
		}
		fmt.Fprintf(w, "Format:    %s %s%s\n", f.FourCC, f.Description, emulated)
	}
	if r.Error != "" {
		fmt.Fprintf(w, "Error:     %s\n", r.Error)
		return
	}
	fmt.Fprintf(w, "Capture:   %dx%d %s, %d bytes/frame\n", r.Width, r.Height, r.Encoding, r.FrameSize)
	fmt.Fprintf(w, "Aspect:    pixel %s, display %.4f\n", r.PixelAspect, r.DisplayAspect)
}

// CreateProbeCmd creates the probe command.
func CreateProbeCmd() *cobra.Command {
	var encoding string
	var setFormat bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "probe [device]",
		Short: "Negotiate a capture format and report it",
		Long: `Opens the capture device, runs the same format negotiation a session performs ` +
			`and prints the resulting geometry, aspect ratio and the device's standards and formats.`,
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
			logger := logging.GetLogger("negotiate")

			dev, err := devices.Open(path, devices.Options{})
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			defer dev.Close()

			result, probeErr := probe(dev, negotiate.Options{Encoding: enc, SetFormat: setFormat, Logger: logger})
			if formats, err := devices.Formats(path); err == nil {
				result.Formats = formats
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(result); err != nil {
					return err
				}
			} else {
				printProbe(out, result)
			}
			return probeErr
		},
	}

	cmd.Flags().StringVarP(&encoding, "encoding", "e", "uyvy", "Capture encoding (uyvy, rgb24)")
	cmd.Flags().BoolVar(&setFormat, "set-format", true, "Request the encoding from the device")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")

	return cmd
}
