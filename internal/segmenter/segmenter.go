package segmenter

import (
	"sync"
	"time"
)

const (
	DefaultSilence  = 800 * time.Millisecond
	DefaultMaxWait  = 1500 * time.Millisecond
	DefaultTick     = 500 * time.Millisecond
	DefaultMinBytes = 100
)

type Config struct {
	Silence  time.Duration
	MaxWait  time.Duration
	MinBytes int
}

// Segmenter buffers inbound mu-law audio and decides, per tick, whether the buffer
// holds a complete utterance.
type Segmenter struct {
	cfg Config
	now func() time.Time

	mu           sync.Mutex
	chunks       [][]byte
	size         int
	lastActivity time.Time
	lastTrigger  time.Time
}

func New(cfg Config, now func() time.Time) *Segmenter {
	if now == nil {
		now = time.Now
	}
	cfg = normalize(cfg)
	t := now()
	return &Segmenter{
		cfg:          cfg,
		now:          now,
		lastActivity: t,
		lastTrigger:  t,
	}
}

func normalize(cfg Config) Config {
	if cfg.Silence <= 0 {
		cfg.Silence = DefaultSilence
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = DefaultMaxWait
	}
	if cfg.MinBytes <= 0 {
		cfg.MinBytes = DefaultMinBytes
	}
	return cfg
}

func (s *Segmenter) Add(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	s.mu.Lock()
	s.chunks = append(s.chunks, chunk)
	s.size += len(chunk)
	s.lastActivity = s.now()
	s.mu.Unlock()
}

// Tick reports whether the buffer should be transcribed now. When it fires it
// returns a copy of the buffered bytes; the buffer itself is left intact.
func (s *Segmenter) Tick() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.size == 0 {
		return nil, false
	}

	now := s.now()
	silent := now.Sub(s.lastActivity) > s.cfg.Silence
	overdue := now.Sub(s.lastTrigger) >= s.cfg.MaxWait
	if !silent && !overdue {
		return nil, false
	}

	s.lastTrigger = now
	return s.bufferLocked(), true
}

func (s *Segmenter) Buffered() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bufferLocked()
}

func (s *Segmenter) bufferLocked() []byte {
	buf := make([]byte, 0, s.size)
	for _, c := range s.chunks {
		buf = append(buf, c...)
	}
	return buf
}

func (s *Segmenter) Reset() {
	s.mu.Lock()
	t := s.now()
	s.chunks = nil
	s.size = 0
	s.lastActivity = t
	s.lastTrigger = t
	s.mu.Unlock()
}

func (s *Segmenter) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

func (s *Segmenter) SilenceFor() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now().Sub(s.lastActivity)
}

// Transcribable is false for buffers too short to be anything but line noise.
func (s *Segmenter) Transcribable(buf []byte) bool {
	return len(buf) >= s.cfg.MinBytes
}
