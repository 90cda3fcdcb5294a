package voicesession

import (
	"errors"
	"testing"
)

func TestNewManager_Defaults(t *testing.T) {
	m := NewManager(ManagerConfig{})
	if m.log == nil {
		t.Error("expected default logger")
	}
	if m.cfg.TickInterval != DefaultTickInterval || m.cfg.TeardownDelay != DefaultTeardownDelay {
		t.Errorf("config not normalized: %+v", m.cfg)
	}
	if m.SessionCount() != 0 {
		t.Error("new manager should be empty")
	}
}

func TestManager_CreateSessionRequiresDependencies(t *testing.T) {
	m := NewManager(ManagerConfig{Log: testLogger()})
	if _, err := m.CreateSession(newMockConnection()); !errors.Is(err, ErrMissingDependency) {
		t.Errorf("expected ErrMissingDependency, got %v", err)
	}
}

func TestManager_Lifecycle(t *testing.T) {
	h := newHarness(t)

	first, err := h.mgr.CreateSession(h.conn)
	if err != nil {
		t.Fatal(err)
	}
	second, err := h.mgr.CreateSession(newMockConnection())
	if err != nil {
		t.Fatal(err)
	}
	if first.ID() == second.ID() {
		t.Fatal("session ids should be unique")
	}
	if h.mgr.SessionCount() != 2 {
		t.Fatalf("count = %d", h.mgr.SessionCount())
	}

	got, ok := h.mgr.GetSession(first.ID())
	if !ok || got != first {
		t.Error("GetSession should find the first session")
	}

	h.conn.start("MZ9")
	waitFor(t, "stream sid", func() bool { return first.StreamSID() == "MZ9" })

	infos := h.mgr.ListSessions()
	if len(infos) != 2 {
		t.Fatalf("ListSessions = %d entries", len(infos))
	}
	for _, info := range infos {
		if info.SessionID == first.ID() && (info.StreamSID != "MZ9" || info.CallSID != "CAMZ9") {
			t.Errorf("info = %+v", info)
		}
	}

	h.mgr.RemoveSession(first.ID())
	if _, ok := h.mgr.GetSession(first.ID()); ok {
		t.Error("removed session still listed")
	}
	select {
	case <-first.Done():
	default:
		t.Error("RemoveSession should close the session")
	}

	if err := h.mgr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if h.mgr.SessionCount() != 0 {
		t.Error("Close should drop every session")
	}
	select {
	case <-second.Done():
	default:
		t.Error("Close should tear down every session")
	}
}

func TestConfig_Normalize(t *testing.T) {
	cfg := Config{TickInterval: 100}.normalize()
	if cfg.TickInterval != 100 {
		t.Error("explicit values should be kept")
	}
	if cfg.FrameInterval != DefaultFrameInterval || cfg.AudioTimeout != DefaultAudioTimeout || cfg.TeardownRecheck != DefaultTeardownRecheck {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}
