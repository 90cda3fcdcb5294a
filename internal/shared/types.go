package shared

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

func NewID(prefix string) string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return prefix + hex.EncodeToString(b)
}

type BackoffConfig struct {
	Initial     time.Duration
	MaxAttempts int
	MaxDelay    time.Duration
}

// Linear returns the wait after the given 1-based attempt, capped at MaxDelay.
func (b BackoffConfig) Linear(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := b.Initial * time.Duration(attempt)
	if b.MaxDelay > 0 && d > b.MaxDelay {
		return b.MaxDelay
	}
	return d
}
