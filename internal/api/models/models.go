// Package models holds the request and response bodies of the HTTP API.
package models

import (
	"github.com/smazurov/framesource/internal/audio"
	"github.com/smazurov/framesource/internal/core"
	"github.com/smazurov/framesource/internal/devices"
	"github.com/smazurov/framesource/internal/host"
	"github.com/smazurov/framesource/internal/metrics"
	"github.com/smazurov/framesource/internal/types"
	"github.com/smazurov/framesource/internal/version"
)

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

type VersionResponse struct {
	Body version.Info
}

// SessionStatus describes the capture session as last reported on the bus.
type SessionStatus struct {
	Loaded      bool    `json:"loaded" doc:"Whether buffers are allocated"`
	DevicePath  string  `json:"device_path,omitempty" example:"/dev/video0"`
	Width       uint32  `json:"width,omitempty" example:"720"`
	Height      uint32  `json:"height,omitempty" example:"480"`
	Encoding    string  `json:"encoding,omitempty" example:"uyvy"`
	FrameSize   uint32  `json:"frame_size,omitempty" example:"691200" doc:"Raw frame size in bytes"`
	AspectRatio float64 `json:"aspect_ratio,omitempty" example:"1.3636" doc:"Display aspect ratio"`
	Since       string  `json:"since,omitempty" example:"2026-01-27T10:30:00Z" doc:"Time of the last load or unload"`
	LastError   string  `json:"last_error,omitempty" doc:"Error of the last failed load"`
}

// LoggingLevels is the runtime level configuration.
type LoggingLevels struct {
	Level   string            `json:"level" example:"info" enum:"debug,info,warn,error" doc:"Global level"`
	Modules map[string]string `json:"modules,omitempty" doc:"Per-module levels"`
}

type StatusData struct {
	Device  types.DeviceInfo `json:"device" doc:"Capture device identity"`
	System  core.SystemInfo  `json:"system"`
	Timing  core.Timing      `json:"timing"`
	Session SessionStatus    `json:"session"`
	Host    host.Stats       `json:"host"`
	Totals  metrics.Snapshot `json:"totals"`
	Logging LoggingLevels    `json:"logging"`
}

type StatusResponse struct {
	Body StatusData
}

type FrameRequest struct {
	Width   int  `query:"width" minimum:"0" maximum:"4096" example:"360" doc:"Scale to this width keeping proportions; 0 keeps the capture size"`
	Display bool `query:"display" doc:"Stretch to the session display aspect ratio before scaling"`
}

// FrameResponse carries the last presented frame as PNG.
type FrameResponse struct {
	ContentType  string `header:"Content-Type"`
	CacheControl string `header:"Cache-Control"`
	FrameSeq     string `header:"X-Frame-Seq" doc:"Sequence number of the frame"`
	Body         []byte
}

type DevicesData struct {
	Video      []devices.DeviceInfo `json:"video" doc:"V4L2 capture devices"`
	Audio      []audio.Device       `json:"audio" doc:"ALSA capture devices"`
	VideoError string               `json:"video_error,omitempty"`
	AudioError string               `json:"audio_error,omitempty"`
}

type DevicesResponse struct {
	Body DevicesData
}

type LoggingResponse struct {
	Body LoggingLevels
}

type LoggingRequest struct {
	Body LoggingLevels
}
