package transcription

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/eleven-am/knock-line/internal/audio"
	"github.com/sashabaranov/go-openai"
)

const (
	BackendWhisper  = "whisper"
	DefaultLanguage = "en"
)

type WhisperConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Language   string
	SampleRate int
	Log        *slog.Logger
}

type WhisperClient struct {
	client     *openai.Client
	model      string
	language   string
	sampleRate int
	log        *slog.Logger
}

func NewWhisperClient(cfg WhisperConfig) *WhisperClient {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = openai.Whisper1
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = audio.SampleRate
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &WhisperClient{
		client:     openai.NewClientWithConfig(oc),
		model:      cfg.Model,
		language:   cfg.Language,
		sampleRate: cfg.SampleRate,
		log:        log.With("component", "transcription", "backend", BackendWhisper),
	}
}

func (w *WhisperClient) Transcribe(ctx context.Context, mulaw []byte) (string, error) {
	return w.TranscribeFile(ctx, "audio.wav", audio.MulawToWAV(mulaw, w.sampleRate))
}

func (w *WhisperClient) TranscribeFile(ctx context.Context, filename string, data []byte) (string, error) {
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: filename,
		Reader:   bytes.NewReader(data),
		Language: w.language,
	})
	if err != nil {
		return "", &TranscriptionError{Backend: BackendWhisper, StatusCode: statusCode(err), Err: err}
	}

	text := strings.TrimSpace(resp.Text)
	w.log.Debug("transcribed", "bytes", len(data), "chars", len(text))
	return text, nil
}

func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
