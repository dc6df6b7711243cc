// Package host is a headless runtime for core.Core. It drives ticks at the
// configured frame rate, keeps a copy of the last presented frame for the
// HTTP API, and forwards PCM to an optional writer.
package host

import (
	"context"
	"encoding/binary"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/framesource/internal/logging"
	"github.com/smazurov/framesource/internal/types"
)

// samplesPerCallback matches core.AudioBatchFrames.
const samplesPerCallback = 32

// Driver is the part of core.Core the host calls each tick.
type Driver interface {
	Run()
	AudioCallback()
}

// Options configure a Host.
type Options struct {
	FPS        float64
	SampleRate int
	// PCM receives interleaved S16LE stereo when set.
	PCM io.Writer
}

// Frame is a copy of a presented RGB565 frame.
type Frame struct {
	Pixels []uint16
	Width  int
	Height int
	Seq    uint64
	At     time.Time
}

// Stats counts what the host has received.
type Stats struct {
	Ticks        uint64 `json:"ticks" example:"3600" doc:"Ticks driven"`
	Frames       uint64 `json:"frames" example:"3600" doc:"Frames presented to the host"`
	AudioFrames  uint64 `json:"audio_frames" example:"2880000" doc:"Stereo frames received"`
	PCMErrors    uint64 `json:"pcm_errors" doc:"Failed writes to the PCM output"`
	PixelFormat  string `json:"pixel_format" example:"RGB565" doc:"Negotiated output pixel format"`
	InputPolls   uint64 `json:"input_polls" doc:"Input polls requested by the core"`
	LastFrameAge string `json:"last_frame_age,omitempty" example:"16ms" doc:"Time since the last frame"`
}

// Host implements types.Host and types.AudioBatchSink.
type Host struct {
	opts   Options
	logger *slog.Logger

	mu          sync.RWMutex
	frame       Frame
	pixelFormat types.PixelFormat
	formatSet   bool
	stats       Stats

	pcmMu  sync.Mutex
	pcmBuf []byte
}

// New creates a host. Zero FPS or SampleRate fall back to 60/1.001 and 48000.
func New(opts Options) *Host {
	if opts.FPS <= 0 {
		opts.FPS = 60 / 1.001
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = 48000
	}
	return &Host{
		opts:   opts,
		logger: logging.GetLogger("host"),
	}
}

// PollInput is a no-op; the headless host has no input devices.
func (h *Host) PollInput() {
	h.mu.Lock()
	h.stats.InputPolls++
	h.mu.Unlock()
}

// SetPixelFormat accepts RGB565 only.
func (h *Host) SetPixelFormat(f types.PixelFormat) bool {
	if f != types.PixelFormatRGB565 {
		h.logger.Warn("Rejecting pixel format", "format", f.String())
		return false
	}
	h.mu.Lock()
	h.pixelFormat = f
	h.formatSet = true
	h.mu.Unlock()
	return true
}

// PresentFrame copies buf; the caller keeps ownership of buf.
// pitch is in bytes.
func (h *Host) PresentFrame(buf []uint16, width, height, pitch int) {
	stride := pitch / 2
	if width <= 0 || height <= 0 || stride < width || len(buf) < stride*(height-1)+width {
		h.logger.Warn("Ignoring malformed frame", "width", width, "height", height, "pitch", pitch, "len", len(buf))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	n := width * height
	if cap(h.frame.Pixels) < n {
		h.frame.Pixels = make([]uint16, n)
	}
	h.frame.Pixels = h.frame.Pixels[:n]
	for y := 0; y < height; y++ {
		copy(h.frame.Pixels[y*width:(y+1)*width], buf[y*stride:y*stride+width])
	}
	h.frame.Width = width
	h.frame.Height = height
	h.frame.Seq++
	h.frame.At = time.Now()
	h.stats.Frames++
}

// EmitAudioFrame forwards one stereo frame.
func (h *Host) EmitAudioFrame(left, right int16) {
	h.EmitAudioBatch([]int16{left, right})
}

// EmitAudioBatch forwards interleaved stereo samples.
func (h *Host) EmitAudioBatch(samples []int16) {
	h.mu.Lock()
	h.stats.AudioFrames += uint64(len(samples) / 2)
	h.mu.Unlock()

	if h.opts.PCM == nil {
		return
	}

	h.pcmMu.Lock()
	defer h.pcmMu.Unlock()
	h.pcmBuf = h.pcmBuf[:0]
	for _, s := range samples {
		h.pcmBuf = binary.LittleEndian.AppendUint16(h.pcmBuf, uint16(s))
	}
	if _, err := h.opts.PCM.Write(h.pcmBuf); err != nil {
		h.mu.Lock()
		h.stats.PCMErrors++
		failures := h.stats.PCMErrors
		h.mu.Unlock()
		if failures == 1 {
			h.logger.Warn("PCM output write failed", "error", err)
		}
	}
}

// Snapshot returns a copy of the last presented frame. ok is false until
// the first frame arrives.
func (h *Host) Snapshot() (Frame, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.frame.Seq == 0 {
		return Frame{}, false
	}
	f := h.frame
	f.Pixels = append([]uint16(nil), h.frame.Pixels...)
	return f, true
}

// Stats returns current counters.
func (h *Host) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s := h.stats
	if h.formatSet {
		s.PixelFormat = h.pixelFormat.String()
	}
	if h.frame.Seq > 0 {
		s.LastFrameAge = time.Since(h.frame.At).Round(time.Millisecond).String()
	}
	return s
}

// AudioFramesPerTick is the number of stereo frames one tick consumes on
// average.
func (h *Host) AudioFramesPerTick() float64 {
	return float64(h.opts.SampleRate) / h.opts.FPS
}

// audioPacer spreads audio callbacks over ticks so the average number of
// frames pulled per tick equals sampleRate/fps. The fractional remainder
// carries into the next tick.
type audioPacer struct {
	perTick float64
	pending float64
}

func newAudioPacer(sampleRate int, fps float64) *audioPacer {
	return &audioPacer{perTick: float64(sampleRate) / fps}
}

// next returns the callbacks due this tick.
func (p *audioPacer) next() int {
	p.pending += p.perTick
	n := int(p.pending / samplesPerCallback)
	p.pending -= float64(n * samplesPerCallback)
	return n
}

// Interval is the tick period.
func (h *Host) Interval() time.Duration {
	return time.Duration(float64(time.Second) / h.opts.FPS)
}

// Run ticks d until ctx is cancelled. Each tick runs d.Run once followed by
// enough audio callbacks to keep pace with the sample rate.
func (h *Host) Run(ctx context.Context, d Driver) error {
	interval := h.Interval()
	pacer := newAudioPacer(h.opts.SampleRate, h.opts.FPS)
	h.logger.Info("Host loop started", "interval", interval, "audio_frames_per_tick", pacer.perTick)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Host loop stopped", "ticks", h.Stats().Ticks)
			return ctx.Err()
		case <-ticker.C:
			h.tick(d, pacer.next())
		}
	}
}

func (h *Host) tick(d Driver, callbacks int) {
	d.Run()
	for range callbacks {
		d.AudioCallback()
	}
	h.mu.Lock()
	h.stats.Ticks++
	h.mu.Unlock()
}
