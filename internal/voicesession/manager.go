package voicesession

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/eleven-am/knock-line/internal/metrics"
	"github.com/eleven-am/knock-line/internal/synthesis"
	"github.com/eleven-am/knock-line/internal/transcription"
	"github.com/eleven-am/knock-line/internal/transport"
)

var ErrMissingDependency = errors.New("voicesession: synthesizer, transcriber and rater are required")

type Manager struct {
	synthesizers synthesis.Factory
	transcriber  transcription.Transcriber
	rater        Finalizer
	calls        CallStore
	events       Publisher
	metrics      *metrics.Metrics
	cfg          Config

	sessions map[string]*VoiceSession
	mu       sync.RWMutex
	log      *slog.Logger
}

type ManagerConfig struct {
	Synthesizers synthesis.Factory
	Transcriber  transcription.Transcriber
	Rater        Finalizer
	Calls        CallStore
	Events       Publisher
	Metrics      *metrics.Metrics
	Session      Config
	Log          *slog.Logger
}

func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}

	return &Manager{
		synthesizers: cfg.Synthesizers,
		transcriber:  cfg.Transcriber,
		rater:        cfg.Rater,
		calls:        cfg.Calls,
		events:       cfg.Events,
		metrics:      cfg.Metrics,
		cfg:          cfg.Session.normalize(),
		sessions:     make(map[string]*VoiceSession),
		log:          cfg.Log.With("component", "voicesession_manager"),
	}
}

// CreateSession starts a call session on conn. Each session gets its own
// synthesizer, released when the session tears down.
func (m *Manager) CreateSession(conn transport.Connection) (*VoiceSession, error) {
	if m.synthesizers == nil || m.transcriber == nil || m.rater == nil {
		return nil, ErrMissingDependency
	}

	session := newSession(conn, sessionDeps{
		tts:     m.synthesizers(),
		stt:     m.transcriber,
		rater:   m.rater,
		calls:   m.calls,
		pub:     m.events,
		metrics: m.metrics,
		onClose: m.forget,
	}, m.cfg, m.log)

	m.mu.Lock()
	m.sessions[session.ID()] = session
	m.mu.Unlock()

	session.Start()

	m.log.Info("voice session created", "session_id", session.ID())
	return session, nil
}

func (m *Manager) GetSession(sessionID string) (*VoiceSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[sessionID]
	return session, ok
}

func (m *Manager) RemoveSession(sessionID string) {
	m.mu.Lock()
	session, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
	}
	m.mu.Unlock()

	if session != nil {
		session.Close()
		m.log.Info("voice session removed", "session_id", sessionID)
	}
}

func (m *Manager) forget(sessionID string) {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
}

type SessionInfo struct {
	SessionID  string    `json:"session_id"`
	StreamSID  string    `json:"stream_sid"`
	CallSID    string    `json:"call_sid"`
	State      string    `json:"state"`
	Processing bool      `json:"processing"`
	StartedAt  time.Time `json:"started_at"`
}

func (m *Manager) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) ListSessions() []SessionInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]SessionInfo, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s.Info())
	}
	return sessions
}

func (m *Manager) Close() error {
	m.mu.Lock()
	sessions := make([]*VoiceSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*VoiceSession)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	return nil
}
