package voicesession

import (
	"context"
	"fmt"
	"time"

	"github.com/eleven-am/knock-line/internal/audio"
	"github.com/eleven-am/knock-line/internal/conversation"
	"github.com/eleven-am/knock-line/internal/elo"
	"github.com/eleven-am/knock-line/internal/events"
	"github.com/eleven-am/knock-line/internal/segmenter"
	"github.com/eleven-am/knock-line/internal/session"
)

const (
	DefaultTickInterval    = segmenter.DefaultTick
	DefaultFrameInterval   = audio.FrameDuration
	DefaultAudioTimeout    = 2 * time.Second
	DefaultTeardownDelay   = 2 * time.Second
	DefaultTeardownRecheck = time.Second

	eventBuffer = 32
)

type Config struct {
	TickInterval    time.Duration
	FrameInterval   time.Duration
	AudioTimeout    time.Duration
	TeardownDelay   time.Duration
	TeardownRecheck time.Duration
	Segmenter       segmenter.Config
}

func (c Config) normalize() Config {
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.FrameInterval <= 0 {
		c.FrameInterval = DefaultFrameInterval
	}
	if c.AudioTimeout <= 0 {
		c.AudioTimeout = DefaultAudioTimeout
	}
	if c.TeardownDelay <= 0 {
		c.TeardownDelay = DefaultTeardownDelay
	}
	if c.TeardownRecheck <= 0 {
		c.TeardownRecheck = DefaultTeardownRecheck
	}
	return c
}

// Finalizer stores a completed joke and rates it against the existing pool.
type Finalizer interface {
	Finalize(ctx context.Context, text string) (*elo.Result, error)
}

type CallStore interface {
	CreateCall(ctx context.Context, call *session.Call) error
	UpdateCall(ctx context.Context, call *session.Call) error
	EndCall(ctx context.Context, id string, status session.Status) error
	Increment(ctx context.Context, field string) error
}

type Publisher interface {
	Publish(ctx context.Context, key string, evt events.Event) error
}

// IncompleteJokeError is raised when finalization runs without both halves of the joke.
type IncompleteJokeError struct {
	HasName      bool
	HasPunchline bool
}

func (e *IncompleteJokeError) Error() string {
	return fmt.Sprintf("incomplete joke (name: %t, punchline: %t)", e.HasName, e.HasPunchline)
}

func (e *IncompleteJokeError) Unwrap() error {
	return conversation.ErrIncomplete
}
