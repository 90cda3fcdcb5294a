package synthesis

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/eleven-am/knock-line/internal/shared"
	"github.com/gorilla/websocket"
)

const (
	DefaultURL           = "wss://api.cartesia.ai/tts/websocket"
	DefaultVersion       = "2024-11-13"
	DefaultModelID       = "sonic-3"
	DefaultVoiceID       = "a0e99841-438c-4a64-b679-ae501e7d6091"
	DefaultSampleRate    = 8000
	DefaultQuietInterval = 300 * time.Millisecond
	DefaultPollInterval  = 50 * time.Millisecond
)

type Config struct {
	URL           string
	APIKey        string
	Version       string
	ModelID       string
	VoiceID       string
	SampleRate    int
	QuietInterval time.Duration
	PollInterval  time.Duration
	Backoff       shared.BackoffConfig
	Dialer        *websocket.Dialer
	Log           *slog.Logger
}

func (c Config) normalize() Config {
	if c.URL == "" {
		c.URL = DefaultURL
	}
	if c.Version == "" {
		c.Version = DefaultVersion
	}
	if c.ModelID == "" {
		c.ModelID = DefaultModelID
	}
	if c.VoiceID == "" {
		c.VoiceID = DefaultVoiceID
	}
	if c.SampleRate <= 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.QuietInterval <= 0 {
		c.QuietInterval = DefaultQuietInterval
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.Dialer == nil {
		c.Dialer = &websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	}
	if c.Log == nil {
		c.Log = slog.Default()
	}
	c.Backoff = normalizeBackoff(c.Backoff)
	return c
}

type voiceSpec struct {
	Mode string `json:"mode"`
	ID   string `json:"id"`
}

type outputFormat struct {
	Container  string `json:"container"`
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sample_rate"`
}

type request struct {
	ModelID      string       `json:"model_id"`
	Transcript   string       `json:"transcript"`
	Voice        voiceSpec    `json:"voice"`
	ContextID    string       `json:"context_id,omitempty"`
	Continue     *bool        `json:"continue,omitempty"`
	OutputFormat outputFormat `json:"output_format"`
}

type MessageKind int

const (
	KindUnknown MessageKind = iota
	KindChunk
	KindDone
	KindError
	KindTimestamps
)

func (k MessageKind) String() string {
	switch k {
	case KindChunk:
		return "chunk"
	case KindDone:
		return "done"
	case KindError:
		return "error"
	case KindTimestamps:
		return "timestamps"
	default:
		return "unknown"
	}
}

type Message struct {
	Kind      MessageKind
	ContextID string
	Data      []byte
	Error     string
}

type rawMessage struct {
	Type           string          `json:"type"`
	Data           string          `json:"data"`
	Done           bool            `json:"done"`
	Error          string          `json:"error"`
	ContextID      string          `json:"context_id"`
	WordTimestamps json.RawMessage `json:"word_timestamps"`
}

// ParseMessage classifies one backend frame. Frames it cannot make sense of
// come back as KindUnknown rather than an error.
func ParseMessage(data []byte) Message {
	var raw rawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Message{Kind: KindUnknown, Error: err.Error()}
	}

	msg := Message{ContextID: raw.ContextID}
	switch {
	case raw.Type == "error" || raw.Error != "":
		msg.Kind = KindError
		msg.Error = raw.Error
		if msg.Error == "" {
			msg.Error = "backend error"
		}
	case raw.Data != "":
		audio, err := base64.StdEncoding.DecodeString(raw.Data)
		if err != nil {
			msg.Kind = KindUnknown
			msg.Error = fmt.Sprintf("decode audio: %v", err)
			return msg
		}
		msg.Kind = KindChunk
		msg.Data = audio
	case raw.Type == "timestamps" || len(raw.WordTimestamps) > 0:
		msg.Kind = KindTimestamps
	case raw.Done || raw.Type == "done":
		msg.Kind = KindDone
	default:
		msg.Kind = KindUnknown
	}
	return msg
}
