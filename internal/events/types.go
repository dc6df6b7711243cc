package events

// Event type constants for kelindar/event.
const (
	TypeSessionLoaded uint32 = iota + 1
	TypeSessionUnloaded
	TypeSessionLoadFailed
	TypeFramePresented
	TypeFrameReadFailed
	TypeAudioBatch
	TypeDeviceHotplug
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// SessionLoadedEvent is published once a capture session holds its buffers.
type SessionLoadedEvent struct {
	DevicePath  string  `json:"device_path" example:"/dev/video0" doc:"Path to the video device"`
	Width       uint32  `json:"width" example:"720" doc:"Frame width in pixels"`
	Height      uint32  `json:"height" example:"480" doc:"Frame height in pixels"`
	Encoding    string  `json:"encoding" example:"uyvy" doc:"Capture pixel encoding"`
	FrameSize   uint32  `json:"frame_size" example:"691200" doc:"Raw frame size in bytes"`
	AspectRatio float64 `json:"aspect_ratio" example:"1.3636" doc:"Display aspect ratio"`
	Timestamp   string  `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SessionLoadedEvent.
func (e SessionLoadedEvent) Type() uint32 { return TypeSessionLoaded }

// SessionUnloadedEvent is published when a session releases its buffers.
type SessionUnloadedEvent struct {
	DevicePath string `json:"device_path" example:"/dev/video0" doc:"Path to the video device"`
	Frames     uint64 `json:"frames" example:"3600" doc:"Frames presented during the session"`
	Timestamp  string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SessionUnloadedEvent.
func (e SessionUnloadedEvent) Type() uint32 { return TypeSessionUnloaded }

// SessionLoadFailedEvent is published when a load is aborted.
type SessionLoadFailedEvent struct {
	DevicePath string `json:"device_path" example:"/dev/video0" doc:"Path to the video device"`
	Reason     string `json:"reason" example:"negotiation" doc:"Failure class: negotiation, allocation, pixel_format"`
	Error      string `json:"error" example:"active video standard not enumerated" doc:"Detailed error"`
	Timestamp  string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SessionLoadFailedEvent.
func (e SessionLoadFailedEvent) Type() uint32 { return TypeSessionLoadFailed }

// FramePresentedEvent is published after each frame handed to the host.
type FramePresentedEvent struct {
	Fresh bool `json:"fresh" doc:"False when the previous frame was held after a read failure"`
}

// Type returns the event type identifier for FramePresentedEvent.
func (e FramePresentedEvent) Type() uint32 { return TypeFramePresented }

// FrameReadFailedEvent reports a transient capture read failure.
type FrameReadFailedEvent struct {
	DevicePath  string `json:"device_path" example:"/dev/video0" doc:"Path to the video device"`
	Error       string `json:"error" example:"read timeout" doc:"Read error"`
	Consecutive int    `json:"consecutive" example:"3" doc:"Failures in a row including this one"`
	Timeout     bool   `json:"timeout" doc:"Whether the read hit the guard timeout"`
}

// Type returns the event type identifier for FrameReadFailedEvent.
func (e FrameReadFailedEvent) Type() uint32 { return TypeFrameReadFailed }

// AudioBatchEvent reports stereo frames forwarded to the host.
type AudioBatchEvent struct {
	Frames int `json:"frames" example:"32" doc:"Stereo frames in the batch"`
}

// Type returns the event type identifier for AudioBatchEvent.
func (e AudioBatchEvent) Type() uint32 { return TypeAudioBatch }

// DeviceHotplugEvent mirrors a kernel uevent for a video or sound node.
type DeviceHotplugEvent struct {
	Action     string `json:"action" example:"remove" doc:"Kernel action: add, remove, change"`
	Subsystem  string `json:"subsystem" example:"video4linux" doc:"Kernel subsystem"`
	DevicePath string `json:"device_path" example:"/dev/video0" doc:"Device node"`
	InUse      bool   `json:"in_use" doc:"Whether the node is the configured capture or audio device"`
	Timestamp  string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for DeviceHotplugEvent.
func (e DeviceHotplugEvent) Type() uint32 { return TypeDeviceHotplug }
