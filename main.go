package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/framesource/cmd"
	"github.com/smazurov/framesource/internal/api"
	"github.com/smazurov/framesource/internal/audio"
	"github.com/smazurov/framesource/internal/config"
	"github.com/smazurov/framesource/internal/core"
	"github.com/smazurov/framesource/internal/devices"
	"github.com/smazurov/framesource/internal/events"
	"github.com/smazurov/framesource/internal/host"
	"github.com/smazurov/framesource/internal/led"
	"github.com/smazurov/framesource/internal/logging"
	"github.com/smazurov/framesource/internal/metrics"
	"github.com/smazurov/framesource/internal/systemd"
	"github.com/smazurov/framesource/internal/types"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Capture settings
	CaptureDevice        string `help:"V4L2 capture device" short:"d" default:"/dev/video0" toml:"capture.device" env:"CAPTURE_DEVICE"`
	CaptureEncoding      string `help:"Capture encoding (uyvy, rgb24)" default:"uyvy" toml:"capture.encoding" env:"CAPTURE_ENCODING"`
	CaptureSetFormat     bool   `help:"Request the encoding from the device" default:"true" toml:"capture.set_format" env:"CAPTURE_SET_FORMAT"`
	CaptureFPS           string `help:"Host tick rate" default:"59.94" toml:"capture.fps" env:"CAPTURE_FPS"`
	CaptureReadTimeout   string `help:"Per-frame read timeout" default:"1s" toml:"capture.read_timeout" env:"CAPTURE_READ_TIMEOUT"`
	CaptureMaxFrameBytes int    `help:"Largest raw frame a session may allocate (0 for the default)" default:"0" toml:"capture.max_frame_bytes" env:"CAPTURE_MAX_FRAME_BYTES"`

	// Audio settings
	AudioEnabled    bool   `help:"Capture audio" default:"true" toml:"audio.enabled" env:"AUDIO_ENABLED"`
	AudioDevice     string `help:"ALSA capture device" default:"hw:1,0" toml:"audio.device" env:"AUDIO_DEVICE"`
	AudioSampleRate int    `help:"Audio sample rate" default:"48000" toml:"audio.sample_rate" env:"AUDIO_SAMPLE_RATE"`
	AudioPCMOutput  string `help:"File receiving raw S16LE stereo from the host" default:"" toml:"audio.pcm_output" env:"AUDIO_PCM_OUTPUT"`

	// Server settings
	ServerEnabled bool   `help:"Serve the status API" default:"true" toml:"server.enabled" env:"SERVER_ENABLED"`
	ServerPort    string `help:"Port to listen on" short:"p" default:":8091" toml:"server.port" env:"SERVER_PORT"`

	// Hotplug settings
	HotplugEnabled bool `help:"Watch for device add and remove" default:"true" toml:"hotplug.enabled" env:"HOTPLUG_ENABLED"`

	// Status LED settings
	LedEnabled bool   `help:"Show capture state on a board LED" default:"false" toml:"led.enabled" env:"LED_ENABLED"`
	LedName    string `help:"LED to drive, empty for the board's status LED" default:"" toml:"led.name" env:"LED_NAME"`

	// Logging settings
	LoggingLevel     string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat    string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingCore      string `help:"Core logging level" default:"info" toml:"logging.core" env:"LOGGING_CORE"`
	LoggingSession   string `help:"Session logging level" default:"info" toml:"logging.session" env:"LOGGING_SESSION"`
	LoggingNegotiate string `help:"Format negotiation logging level" default:"info" toml:"logging.negotiate" env:"LOGGING_NEGOTIATE"`
	LoggingCapture   string `help:"V4L2 capture logging level" default:"info" toml:"logging.capture" env:"LOGGING_CAPTURE"`
	LoggingAudio     string `help:"Audio logging level" default:"info" toml:"logging.audio" env:"LOGGING_AUDIO"`
	LoggingHost      string `help:"Host loop logging level" default:"info" toml:"logging.host" env:"LOGGING_HOST"`
	LoggingAPI       string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingConfig    string `help:"Config watcher logging level" default:"info" toml:"logging.config" env:"LOGGING_CONFIG"`
	LoggingHotplug   string `help:"Hotplug logging level" default:"info" toml:"logging.hotplug" env:"LOGGING_HOTPLUG"`
	LoggingSystemd   string `help:"Systemd notify logging level" default:"info" toml:"logging.systemd" env:"LOGGING_SYSTEMD"`
	LoggingLed       string `help:"Status LED logging level" default:"info" toml:"logging.led" env:"LOGGING_LED"`
}

func (o *Options) loggingConfig() logging.Config {
	return logging.Config{
		Level:  o.LoggingLevel,
		Format: o.LoggingFormat,
		Modules: map[string]string{
			"core":      o.LoggingCore,
			"session":   o.LoggingSession,
			"negotiate": o.LoggingNegotiate,
			"capture":   o.LoggingCapture,
			"audio":     o.LoggingAudio,
			"host":      o.LoggingHost,
			"api":       o.LoggingAPI,
			"config":    o.LoggingConfig,
			"hotplug":   o.LoggingHotplug,
			"systemd":   o.LoggingSystemd,
			"led":       o.LoggingLed,
		},
	}
}

func (o *Options) coreConfig() (core.Config, time.Duration, error) {
	enc, err := types.ParseEncoding(o.CaptureEncoding)
	if err != nil {
		return core.Config{}, 0, err
	}
	fps, err := strconv.ParseFloat(o.CaptureFPS, 64)
	if err != nil || fps <= 0 {
		return core.Config{}, 0, fmt.Errorf("invalid capture fps %q", o.CaptureFPS)
	}
	timeout, err := time.ParseDuration(o.CaptureReadTimeout)
	if err != nil {
		return core.Config{}, 0, fmt.Errorf("invalid capture read timeout %q: %w", o.CaptureReadTimeout, err)
	}
	return core.Config{
		DevicePath:    o.CaptureDevice,
		Encoding:      enc,
		SetFormat:     o.CaptureSetFormat,
		FPS:           fps,
		MaxFrameBytes: o.CaptureMaxFrameBytes,
		AudioEnabled:  o.AudioEnabled,
		AudioDevice:   o.AudioDevice,
		SampleRate:    o.AudioSampleRate,
	}, timeout, nil
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(opts.loggingConfig())
		logger := logging.GetLogger("main")

		cfg, readTimeout, err := opts.coreConfig()
		if err != nil {
			logger.Error("Invalid configuration", "error", err)
			os.Exit(1)
		}

		eventBus := events.New()
		unsubscribeMetrics := metrics.Subscribe(eventBus)

		notifier := systemd.NewNotifier()
		watcher := config.NewWatcher(opts.Config, config.LoadLoggingConfig, logging.GetLogger("config"))
		watcher.OnReload(func(lc logging.Config) {
			logging.SetLevels(lc)
			logger.Info("Logging levels reloaded", "level", logging.GlobalLevel())
		})

		ctx, cancel := context.WithCancel(context.Background())
		var (
			pcm        io.WriteCloser
			c          *core.Core
			server     *api.Server
			ledManager *led.Manager
			loopDone   sync.WaitGroup
		)
		loopDone.Add(1)

		hooks.OnStart(func() {
			defer loopDone.Done()

			if opts.AudioPCMOutput != "" {
				f, createErr := os.Create(opts.AudioPCMOutput)
				if createErr != nil {
					logger.Error("Failed to open PCM output", "path", opts.AudioPCMOutput, "error", createErr)
					os.Exit(1)
				}
				pcm = f
			}

			hostOpts := host.Options{FPS: cfg.FPS, SampleRate: cfg.SampleRate}
			if pcm != nil {
				hostOpts.PCM = pcm
			}
			h := host.New(hostOpts)

			c = core.New(cfg, h, core.Openers{
				Video: func(path string) (types.CaptureDevice, error) {
					return devices.Open(path, devices.Options{ReadTimeout: readTimeout})
				},
				Audio: audio.Open,
			}, eventBus)

			if opts.LedEnabled {
				ledLogger := logging.GetLogger("led")
				ctrl, statusLED := led.New(ledLogger)
				if opts.LedName != "" {
					statusLED = opts.LedName
				}
				ledManager = led.NewManager(ctrl, statusLED, eventBus, ledLogger)
				ledManager.Start()
			}

			if initErr := c.Init(); initErr != nil {
				logger.Error("Failed to initialize core", "error", initErr)
				os.Exit(1)
			}

			if opts.ServerEnabled {
				server = api.NewServer(api.Options{
					Device:         c.Device().Info(),
					System:         c.SystemInfo(),
					Timing:         c.AVInfo().Timing,
					Frames:         h,
					EventBus:       eventBus,
					MetricsHandler: metrics.Handler(),
				})
			}

			if loadErr := c.LoadSession(); loadErr != nil {
				logger.Error("Failed to load capture session", "error", loadErr)
				notifier.Status("no capture session: " + loadErr.Error())
			} else {
				f := c.Session().Format()
				notifier.Status(fmt.Sprintf("capturing %dx%d %s", f.Width, f.Height, f.Encoding))
			}

			if server != nil {
				go func() {
					if startErr := server.Start(opts.ServerPort); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
						logger.Error("Failed to start HTTP server", "error", startErr)
					}
				}()
			}

			if opts.HotplugEnabled {
				nodes := host.NewDeviceNodes(opts.CaptureDevice, opts.AudioDevice)
				go func() {
					if hpErr := host.WatchHotplug(ctx, eventBus, nodes); hpErr != nil {
						logger.Warn("Hotplug monitoring unavailable", "error", hpErr)
					}
				}()
			}

			if watchErr := watcher.Start(ctx); watchErr != nil {
				logger.Warn("Config watching unavailable", "path", opts.Config, "error", watchErr)
			}

			notifier.Ready()
			go notifier.RunWatchdog(ctx, systemd.Progress(func() uint64 { return h.Stats().Ticks }))

			logger.Info("Starting host loop",
				"fps", cfg.FPS,
				"interval", h.Interval(),
				"audio_frames_per_tick", h.AudioFramesPerTick())
			if runErr := h.Run(ctx, c); runErr != nil && !errors.Is(runErr, context.Canceled) {
				logger.Error("Host loop stopped", "error", runErr)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			notifier.Stopping()

			cancel()
			loopDone.Wait()
			if c != nil {
				c.Deinit()
			}
			if ledManager != nil {
				ledManager.Stop()
			}

			if server != nil {
				stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
				if stopErr := server.Stop(stopCtx); stopErr != nil {
					logger.Error("Error stopping HTTP server", "error", stopErr)
				}
				stopCancel()
			}
			if stopErr := watcher.Stop(); stopErr != nil {
				logger.Warn("Error stopping config watcher", "error", stopErr)
			}

			unsubscribeMetrics()
			if closeErr := eventBus.Close(); closeErr != nil {
				logger.Warn("Error closing event bus", "error", closeErr)
			}
			if pcm != nil {
				if closeErr := pcm.Close(); closeErr != nil {
					logger.Warn("Error closing PCM output", "error", closeErr)
				}
			}
		})
	})

	cli.Root().Use = "framesource"
	cli.Root().Short = "V4L2/ALSA frame source for tick-driven hosts"

	cli.Root().AddCommand(cmd.CreateProbeCmd())
	cli.Root().AddCommand(cmd.CreateDevicesCmd())
	cli.Root().AddCommand(cmd.CreateSnapshotCmd())
	cli.Root().AddCommand(cmd.CreateVersionCmd())

	cli.Run()
}
