package transcription

import (
	"context"
	"time"
)

// Transcriber turns one buffered 8 kHz mu-law utterance into text.
type Transcriber interface {
	Transcribe(ctx context.Context, mulaw []byte) (string, error)
}

// FileTranscriber transcribes an already-encoded audio file such as a call recording.
type FileTranscriber interface {
	TranscribeFile(ctx context.Context, filename string, data []byte) (string, error)
}

type Recorder interface {
	ObserveTranscription(backend, result string, elapsed time.Duration)
}

type instrumented struct {
	next     Transcriber
	backend  string
	recorder Recorder
}

// WithRecorder reports the outcome and latency of every call on next.
func WithRecorder(next Transcriber, backend string, recorder Recorder) Transcriber {
	if recorder == nil {
		return next
	}
	return &instrumented{next: next, backend: backend, recorder: recorder}
}

func (i *instrumented) Transcribe(ctx context.Context, mulaw []byte) (string, error) {
	start := time.Now()
	text, err := i.next.Transcribe(ctx, mulaw)
	result := "ok"
	switch {
	case err != nil:
		result = "error"
	case text == "":
		result = "empty"
	}
	i.recorder.ObserveTranscription(i.backend, result, time.Since(start))
	return text, err
}
