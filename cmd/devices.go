package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/smazurov/framesource/internal/audio"
	"github.com/smazurov/framesource/internal/devices"
	"github.com/spf13/cobra"
)

// VideoDevice is a capture device with its formats.
type VideoDevice struct {
	devices.DeviceInfo
	Formats []devices.FormatInfo `json:"formats,omitempty"`
}

// DeviceListing is everything the devices command found.
type DeviceListing struct {
	Video      []VideoDevice  `json:"video"`
	Audio      []audio.Device `json:"audio"`
	VideoError string         `json:"video_error,omitempty"`
	AudioError string         `json:"audio_error,omitempty"`
}

// Listers enumerate devices.
type Listers struct {
	Video   func() ([]devices.DeviceInfo, error)
	Formats func(path string) ([]devices.FormatInfo, error)
	Audio   func() ([]audio.Device, error)
}

var systemListers = Listers{
	Video:   devices.List,
	Formats: devices.Formats,
	Audio:   audio.List,
}

func listDevices(l Listers, withFormats bool) DeviceListing {
	var out DeviceListing

	video, err := l.Video()
	if err != nil {
		out.VideoError = err.Error()
	}
	for _, d := range video {
		vd := VideoDevice{DeviceInfo: d}
		if withFormats && l.Formats != nil {
			if formats, err := l.Formats(d.DevicePath); err == nil {
				vd.Formats = formats
			}
		}
		out.Video = append(out.Video, vd)
	}

	cards, err := l.Audio()
	if err != nil {
		out.AudioError = err.Error()
	}
	out.Audio = cards
	return out
}

func printDevices(w io.Writer, d DeviceListing) {
	fmt.Fprintln(w, "Video capture devices:")
	if d.VideoError != "" {
		fmt.Fprintf(w, "  error: %s\n", d.VideoError)
	} else if len(d.Video) == 0 {
		fmt.Fprintln(w, "  none")
	}
	for _, v := range d.Video {
		fmt.Fprintf(w, "  %-14s %s [%s]\n", v.DevicePath, v.DeviceName, v.DeviceID)
		for _, f := range v.Formats {
			fmt.Fprintf(w, "    %-6s %s\n", f.FourCC, f.Description)
		}
	}

	fmt.Fprintln(w, "Audio capture devices:")
	if d.AudioError != "" {
		fmt.Fprintf(w, "  error: %s\n", d.AudioError)
	} else if len(d.Audio) == 0 {
		fmt.Fprintln(w, "  none")
	}
	for _, a := range d.Audio {
		fmt.Fprintf(w, "  %-14s %s / %s", a.ALSADevice, a.CardName, a.DeviceName)
		if len(a.SupportedRates) > 0 {
			fmt.Fprintf(w, " rates %v", a.SupportedRates)
		}
		fmt.Fprintln(w)
	}
}

// CreateDevicesCmd creates the devices command.
func CreateDevicesCmd() *cobra.Command {
	var withFormats bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List video and audio capture devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			listing := listDevices(systemListers, withFormats)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(listing)
			}
			printDevices(out, listing)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&withFormats, "formats", "f", false, "Include the pixel formats of each video device")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")

	return cmd
}
