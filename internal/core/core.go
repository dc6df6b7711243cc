// Package core exposes the frame source to a tick-driven host runtime.
//
// Core owns the open devices and at most one capture session. The host
// binds itself at construction and then drives Init, LoadSession, Run,
// AudioCallback and Deinit from a single goroutine.
package core

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/smazurov/framesource/internal/events"
	"github.com/smazurov/framesource/internal/logging"
	"github.com/smazurov/framesource/internal/session"
	"github.com/smazurov/framesource/internal/types"
	"github.com/smazurov/framesource/internal/version"
)

// ErrDeviceUnavailable means the capture device could not be opened or
// queried. Nothing is retried.
var ErrDeviceUnavailable = errors.New("capture device unavailable")

// AudioBatchFrames is the most stereo frames forwarded per audio callback.
const AudioBatchFrames = 32

// Defaults applied by New for zero Config fields.
const (
	DefaultFPS        = 60 / 1.001
	DefaultSampleRate = 48000
)

// audioWarnEvery is how many consecutive audio failures pass between warnings.
const audioWarnEvery = 100

// Config is the static configuration of a Core.
type Config struct {
	DevicePath    string
	Encoding      types.Encoding
	SetFormat     bool
	FPS           float64
	MaxFrameBytes int

	AudioEnabled bool
	AudioDevice  string
	SampleRate   int
}

// Openers create the devices Core drives.
type Openers struct {
	Video func(path string) (types.CaptureDevice, error)
	// Audio may be nil when the build has no audio support.
	Audio func(device string, sampleRate int) (types.AudioSource, error)
}

// Core adapts a capture device and an audio source to a host.
type Core struct {
	cfg    Config
	open   Openers
	host   types.Host
	bus    *events.Bus
	logger *slog.Logger

	dev     types.CaptureDevice
	audio   types.AudioSource
	session *session.Session

	audioBuf      []int16
	audioFailures int
}

// New binds cfg, the host and the device openers. bus may be nil.
func New(cfg Config, host types.Host, open Openers, bus *events.Bus) *Core {
	if cfg.FPS <= 0 {
		cfg.FPS = DefaultFPS
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	return &Core{
		cfg:      cfg,
		open:     open,
		host:     host,
		bus:      bus,
		logger:   logging.GetLogger("core"),
		audioBuf: make([]int16, AudioBatchFrames*2),
	}
}

// Init opens the capture device and, if enabled, the audio source. Only
// the capture device is required; without audio, AudioCallback does nothing.
func (c *Core) Init() error {
	if c.dev != nil {
		return nil
	}

	dev, err := c.open.Video(c.cfg.DevicePath)
	if err != nil {
		c.logger.Error("Couldn't open capture device", "device", c.cfg.DevicePath, "error", err)
		return fmt.Errorf("%w: %s: %w", ErrDeviceUnavailable, c.cfg.DevicePath, err)
	}
	c.dev = dev

	info := dev.Info()
	c.logger.Info("Capture device opened",
		"device", info.Path,
		"driver", info.Driver,
		"card", info.Card,
		"bus_info", info.BusInfo,
		"version", info.Version)

	c.initAudio()
	return nil
}

func (c *Core) initAudio() {
	if !c.cfg.AudioEnabled {
		c.logger.Info("Audio capture disabled")
		return
	}
	if c.open.Audio == nil {
		c.logger.Warn("Audio capture not supported on this platform")
		return
	}

	src, err := c.open.Audio(c.cfg.AudioDevice, c.cfg.SampleRate)
	if err != nil {
		c.logger.Warn("Couldn't open audio device, continuing without audio",
			"device", c.cfg.AudioDevice, "error", err)
		return
	}
	c.audio = src
	c.logger.Info("Using ALSA for audio input", "device", c.cfg.AudioDevice, "sample_rate", c.cfg.SampleRate)
}

// Deinit unloads any session and closes both devices.
func (c *Core) Deinit() {
	c.UnloadSession()

	if c.audio != nil {
		if err := c.audio.Close(); err != nil {
			c.logger.Warn("Error closing audio device", "error", err)
		}
		c.audio = nil
	}
	if c.dev != nil {
		if err := c.dev.Close(); err != nil {
			c.logger.Warn("Error closing capture device", "error", err)
		}
		c.dev = nil
	}
}

// LoadSession negotiates and allocates a new session, replacing any
// active one.
func (c *Core) LoadSession() error {
	if c.dev == nil {
		return fmt.Errorf("%w: device not opened", ErrDeviceUnavailable)
	}
	c.UnloadSession()

	s, err := session.Load(c.dev, c.host, session.Options{
		Encoding:      c.cfg.Encoding,
		SetFormat:     c.cfg.SetFormat,
		MaxFrameBytes: c.cfg.MaxFrameBytes,
		Logger:        logging.GetLogger("session"),
		Events:        c.bus,
	})
	if err != nil {
		return err
	}
	c.session = s
	return nil
}

// UnloadSession releases the active session, if any.
func (c *Core) UnloadSession() {
	if c.session == nil {
		return
	}
	c.session.Unload()
	c.session = nil
}

// Session returns the active session or nil.
func (c *Core) Session() *session.Session {
	return c.session
}

// Device returns the open capture device or nil.
func (c *Core) Device() types.CaptureDevice {
	return c.dev
}

// AudioAvailable reports whether an audio source is open.
func (c *Core) AudioAvailable() bool {
	return c.audio != nil
}

// Run performs one host tick: poll input, then capture and present a frame
// when a session is loaded.
func (c *Core) Run() {
	c.host.PollInput()
	if c.session == nil || c.dev == nil {
		return
	}
	c.session.Tick()
}

// AudioCallback forwards up to AudioBatchFrames stereo frames to the host.
func (c *Core) AudioCallback() {
	if c.audio == nil {
		return
	}

	n, err := c.audio.ReadFrames(c.audioBuf)
	if err != nil {
		c.audioFailures++
		if c.audioFailures == 1 || c.audioFailures%audioWarnEvery == 0 {
			c.logger.Warn("Audio read failed, dropping batch", "error", err, "consecutive", c.audioFailures)
		}
		return
	}
	c.audioFailures = 0
	if n <= 0 {
		return
	}

	samples := c.audioBuf[:min(n, AudioBatchFrames)*2]
	if sink, ok := c.host.(types.AudioBatchSink); ok {
		sink.EmitAudioBatch(samples)
	} else {
		for i := 0; i < len(samples); i += 2 {
			c.host.EmitAudioFrame(samples[i], samples[i+1])
		}
	}
	c.bus.Publish(events.AudioBatchEvent{Frames: len(samples) / 2})
}

// Geometry describes the frames the host will receive.
type Geometry struct {
	BaseWidth   uint32  `json:"base_width"`
	BaseHeight  uint32  `json:"base_height"`
	MaxWidth    uint32  `json:"max_width"`
	MaxHeight   uint32  `json:"max_height"`
	AspectRatio float64 `json:"aspect_ratio"`
}

// Timing describes the frame and sample rates.
type Timing struct {
	FPS        float64 `json:"fps"`
	SampleRate float64 `json:"sample_rate"`
}

// AVInfo combines geometry and timing.
type AVInfo struct {
	Geometry Geometry `json:"geometry"`
	Timing   Timing   `json:"timing"`
}

// AVInfo reports geometry from the active session and the configured
// timing. Geometry is zero while no session is loaded.
func (c *Core) AVInfo() AVInfo {
	info := AVInfo{
		Timing: Timing{FPS: c.cfg.FPS, SampleRate: float64(c.cfg.SampleRate)},
	}
	if c.session != nil {
		f := c.session.Format()
		info.Geometry = Geometry{
			BaseWidth:   f.Width,
			BaseHeight:  f.Height,
			MaxWidth:    f.Width,
			MaxHeight:   f.Height,
			AspectRatio: f.DisplayAspect(),
		}
	}
	return info
}

// LibraryName identifies the core to hosts.
const LibraryName = "V4L2"

// SystemInfo describes the core to a host.
type SystemInfo struct {
	LibraryName     string `json:"library_name"`
	LibraryVersion  string `json:"library_version"`
	ValidExtensions string `json:"valid_extensions"`
	NeedFullpath    bool   `json:"need_fullpath"`
	BlockExtract    bool   `json:"block_extract"`
}

// SystemInfo returns static core metadata.
func (c *Core) SystemInfo() SystemInfo {
	return SystemInfo{
		LibraryName:    LibraryName,
		LibraryVersion: version.String(),
		NeedFullpath:   true,
		BlockExtract:   true,
	}
}

// Region is the video region reported to hosts.
type Region int

const RegionNTSC Region = 0

// Region always reports NTSC.
func (c *Core) Region() Region {
	return RegionNTSC
}

// SerializeSize is zero: there is no state to save.
func (c *Core) SerializeSize() int { return 0 }

// Serialize always fails.
func (c *Core) Serialize([]byte) bool { return false }

// Unserialize always fails.
func (c *Core) Unserialize([]byte) bool { return false }
