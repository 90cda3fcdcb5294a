package synthesis

import (
	"context"
	"time"
)

// Synthesizer is one session's streaming text-to-speech connection.
type Synthesizer interface {
	Connect(ctx context.Context) error
	StreamText(ctx context.Context, text string, continueContext bool) error
	WaitForAudio(ctx context.Context, timeout time.Duration) bool
	AudioChunks() [][]byte
	Disconnect()
	IsConnected() bool
}

type Factory func() Synthesizer

func NewFactory(cfg Config) Factory {
	return func() Synthesizer {
		return New(cfg)
	}
}
