package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/eleven-am/knock-line/internal/conversation"
	"github.com/eleven-am/knock-line/internal/elo"
	"github.com/eleven-am/knock-line/internal/shared"
	"github.com/eleven-am/knock-line/internal/transcription"
)

const maxRecordingBytes = 25 << 20

var ErrNoJoke = errors.New("no knock-knock joke found in recording")

type Finalizer interface {
	Finalize(ctx context.Context, text string) (*elo.Result, error)
}

type RecordingConfig struct {
	AccountSID  string
	AuthToken   string
	HTTPClient  *http.Client
	Transcriber transcription.FileTranscriber
	Rater       Finalizer
	Log         *slog.Logger
}

// RecordingProcessor rates a joke from a whole call recording instead of a
// live stream.
type RecordingProcessor struct {
	client      *http.Client
	accountSID  string
	authToken   string
	transcriber transcription.FileTranscriber
	rater       Finalizer
	log         *slog.Logger
}

func NewRecordingProcessor(cfg RecordingConfig) *RecordingProcessor {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	return &RecordingProcessor{
		client:      cfg.HTTPClient,
		accountSID:  cfg.AccountSID,
		authToken:   cfg.AuthToken,
		transcriber: cfg.Transcriber,
		rater:       cfg.Rater,
		log:         cfg.Log.With("component", "recording"),
	}
}

func (p *RecordingProcessor) Process(ctx context.Context, recordingURL string) (*elo.Result, error) {
	data, err := p.download(ctx, recordingURL)
	if err != nil {
		return nil, err
	}
	return p.ProcessAudio(ctx, "recording.wav", data)
}

func (p *RecordingProcessor) ProcessAudio(ctx context.Context, filename string, data []byte) (*elo.Result, error) {
	transcript, err := p.transcriber.TranscribeFile(ctx, filename, data)
	if err != nil {
		return nil, err
	}
	p.log.Info("recording transcribed", "chars", len(transcript))

	text, ok := conversation.ExtractJoke(transcript)
	if !ok {
		return nil, ErrNoJoke
	}
	return p.rater.Finalize(ctx, text)
}

func (p *RecordingProcessor) download(ctx context.Context, recordingURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, recordingURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build recording request: %w", err)
	}
	if p.accountSID != "" {
		req.SetBasicAuth(p.accountSID, p.authToken)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download recording: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("download recording: status %d: %w", resp.StatusCode, shared.ErrUnauthorized)
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("download recording: %w", shared.ErrNotFound)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("download recording: status %d: %w", resp.StatusCode, shared.ErrUnavailable)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("download recording: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRecordingBytes))
	if err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}
	return data, nil
}
