package segmenter

import (
	"bytes"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func frame(b byte) []byte {
	return bytes.Repeat([]byte{b}, 160)
}

func TestNew_Defaults(t *testing.T) {
	s := New(Config{}, nil)
	if s.cfg.Silence != DefaultSilence {
		t.Errorf("Silence = %v, want %v", s.cfg.Silence, DefaultSilence)
	}
	if s.cfg.MaxWait != DefaultMaxWait {
		t.Errorf("MaxWait = %v, want %v", s.cfg.MaxWait, DefaultMaxWait)
	}
	if s.cfg.MinBytes != DefaultMinBytes {
		t.Errorf("MinBytes = %d, want %d", s.cfg.MinBytes, DefaultMinBytes)
	}
}

func TestTick_EmptyBufferNeverFires(t *testing.T) {
	clock := newFakeClock()
	s := New(Config{}, clock.Now)

	clock.Advance(10 * time.Second)
	if _, ok := s.Tick(); ok {
		t.Error("empty buffer should not fire")
	}
}

func TestTick_SilenceThreshold(t *testing.T) {
	tests := []struct {
		name  string
		after time.Duration
		want  bool
	}{
		{"shortly after speech", 100 * time.Millisecond, false},
		{"at threshold", 800 * time.Millisecond, false},
		{"past threshold", 900 * time.Millisecond, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			s := New(Config{MaxWait: time.Hour}, clock.Now)
			s.Add(frame(0x10))
			s.Add(frame(0x20))

			clock.Advance(tt.after)
			buf, ok := s.Tick()
			if ok != tt.want {
				t.Fatalf("Tick() fired = %v, want %v", ok, tt.want)
			}
			if ok && len(buf) != 320 {
				t.Errorf("expected 320 buffered bytes, got %d", len(buf))
			}
		})
	}
}

func TestTick_DefaultsScenario(t *testing.T) {
	clock := newFakeClock()
	s := New(Config{}, clock.Now)
	s.Add(frame(0x10))

	clock.Advance(100 * time.Millisecond)
	if _, ok := s.Tick(); ok {
		t.Error("tick at T+100ms should not fire")
	}

	clock.Advance(800 * time.Millisecond)
	if _, ok := s.Tick(); !ok {
		t.Error("tick at T+900ms should fire on silence")
	}
}

func TestTick_MaxWaitWhileSpeaking(t *testing.T) {
	clock := newFakeClock()
	s := New(Config{}, clock.Now)

	fired := 0
	for i := 0; i < 100; i++ {
		s.Add(frame(0x30))
		clock.Advance(20 * time.Millisecond)
		if i%25 == 24 {
			if _, ok := s.Tick(); ok {
				fired++
			}
		}
	}

	// 2s of continuous speech, ticks every 500ms: only the max wait can trigger.
	if fired != 1 {
		t.Errorf("expected exactly one max-wait trigger, got %d", fired)
	}
}

func TestTick_DoesNotClearBuffer(t *testing.T) {
	clock := newFakeClock()
	s := New(Config{}, clock.Now)
	s.Add(frame(0x40))
	clock.Advance(time.Second)

	first, ok := s.Tick()
	if !ok {
		t.Fatal("expected fire")
	}
	if s.Len() != len(first) {
		t.Errorf("firing must not clear the buffer: len %d", s.Len())
	}

	first[0] = 0x00
	if s.Buffered()[0] != 0x40 {
		t.Error("returned buffer must be a copy")
	}
}

func TestReset(t *testing.T) {
	clock := newFakeClock()
	s := New(Config{}, clock.Now)
	s.Add(frame(0x50))
	clock.Advance(5 * time.Second)

	s.Reset()
	if s.Len() != 0 {
		t.Errorf("expected empty buffer after reset, got %d", s.Len())
	}
	if s.SilenceFor() != 0 {
		t.Errorf("reset should re-stamp activity, silence %v", s.SilenceFor())
	}

	s.Add(frame(0x50))
	clock.Advance(100 * time.Millisecond)
	if _, ok := s.Tick(); ok {
		t.Error("fresh buffer after reset should not fire on stale silence")
	}
}

func TestTranscribable(t *testing.T) {
	s := New(Config{MinBytes: 100}, nil)
	if s.Transcribable(make([]byte, 99)) {
		t.Error("99 bytes should be below minimum")
	}
	if !s.Transcribable(make([]byte, 100)) {
		t.Error("100 bytes should be transcribable")
	}
}

func TestAdd_IgnoresEmptyChunks(t *testing.T) {
	clock := newFakeClock()
	s := New(Config{}, clock.Now)
	clock.Advance(time.Second)
	s.Add(nil)
	if s.SilenceFor() != time.Second {
		t.Error("empty chunk should not count as activity")
	}
}
