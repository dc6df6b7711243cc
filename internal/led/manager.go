package led

import (
	"log/slog"
	"sync"

	"github.com/smazurov/framesource/internal/events"
)

// State is what the status LED shows.
type State int

const (
	// StateIdle means no session is loaded. The LED is off.
	StateIdle State = iota
	// StateCapturing means frames are arriving. The LED is solid.
	StateCapturing
	// StateDegraded means reads are failing and frames are held. The LED blinks.
	StateDegraded
	// StateFailed means the session could not load or the capture device
	// went away. The LED shows a heartbeat.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateDegraded:
		return "degraded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s State) pattern() (bool, string) {
	switch s {
	case StateCapturing:
		return true, PatternSolid
	case StateDegraded:
		return true, PatternBlink
	case StateFailed:
		return true, PatternHeartbeat
	default:
		return false, PatternSolid
	}
}

// Manager subscribes to session events and mirrors capture state on one LED.
type Manager struct {
	controller Controller
	ledType    string
	eventBus   *events.Bus
	logger     *slog.Logger

	mu     sync.Mutex
	state  State
	unsubs []func()
}

// NewManager creates a manager driving ledType through controller.
func NewManager(controller Controller, ledType string, eventBus *events.Bus, logger *slog.Logger) *Manager {
	return &Manager{
		controller: controller,
		ledType:    ledType,
		eventBus:   eventBus,
		logger:     logger,
		state:      -1,
	}
}

// Start turns the LED off and begins listening for session events.
func (m *Manager) Start() {
	m.set(StateIdle)

	m.unsubs = []func(){
		m.eventBus.Subscribe(func(events.SessionLoadedEvent) {
			m.set(StateCapturing)
		}),
		m.eventBus.Subscribe(func(events.SessionUnloadedEvent) {
			m.set(StateIdle)
		}),
		m.eventBus.Subscribe(func(events.SessionLoadFailedEvent) {
			m.set(StateFailed)
		}),
		m.eventBus.Subscribe(func(events.FrameReadFailedEvent) {
			m.transition(StateCapturing, StateDegraded)
		}),
		m.eventBus.Subscribe(func(e events.FramePresentedEvent) {
			if e.Fresh {
				m.transition(StateDegraded, StateCapturing)
			}
		}),
		m.eventBus.Subscribe(func(e events.DeviceHotplugEvent) {
			if e.InUse && e.Action == "remove" {
				m.set(StateFailed)
			}
		}),
	}
	m.logger.Info("LED manager started", "led", m.ledType)
}

// Stop unsubscribes from events and turns the LED off.
func (m *Manager) Stop() {
	for _, unsub := range m.unsubs {
		unsub()
	}
	m.unsubs = nil
	m.set(StateIdle)
	m.logger.Info("LED manager stopped")
}

// State returns what the LED currently shows.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) transition(from, to State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == from {
		m.apply(to)
	}
}

func (m *Manager) set(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apply(s)
}

func (m *Manager) apply(s State) {
	if m.state == s {
		return
	}
	m.state = s
	enabled, pattern := s.pattern()
	if err := m.controller.Set(m.ledType, enabled, pattern); err != nil {
		m.logger.Warn("Failed to set LED", "led", m.ledType, "state", s.String(), "error", err)
		return
	}
	m.logger.Debug("LED state changed", "led", m.ledType, "state", s.String())
}
