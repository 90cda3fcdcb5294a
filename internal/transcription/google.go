package transcription

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/eleven-am/knock-line/internal/audio"
)

const (
	BackendGoogle         = "google"
	DefaultGoogleLanguage = "en-US"
)

type GoogleConfig struct {
	LanguageCode string
	SampleRate   int
	Log          *slog.Logger
}

// GoogleClient uses Cloud Speech synchronous recognition. Credentials come
// from GOOGLE_APPLICATION_CREDENTIALS.
type GoogleClient struct {
	client *speech.Client
	cfg    GoogleConfig
	log    *slog.Logger
}

func NewGoogleClient(ctx context.Context, cfg GoogleConfig) (*GoogleClient, error) {
	cfg = normalizeGoogle(cfg)
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create speech client: %w", err)
	}
	return &GoogleClient{
		client: c,
		cfg:    cfg,
		log:    cfg.Log.With("component", "transcription", "backend", BackendGoogle),
	}, nil
}

func normalizeGoogle(cfg GoogleConfig) GoogleConfig {
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = DefaultGoogleLanguage
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = audio.SampleRate
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	return cfg
}

func recognizeRequest(cfg GoogleConfig, mulaw []byte) *speechpb.RecognizeRequest {
	return &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_MULAW,
			SampleRateHertz: int32(cfg.SampleRate),
			LanguageCode:    cfg.LanguageCode,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: mulaw},
		},
	}
}

func joinResults(results []*speechpb.SpeechRecognitionResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		if len(r.GetAlternatives()) == 0 {
			continue
		}
		if t := strings.TrimSpace(r.GetAlternatives()[0].GetTranscript()); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

func (g *GoogleClient) Transcribe(ctx context.Context, mulaw []byte) (string, error) {
	resp, err := g.client.Recognize(ctx, recognizeRequest(g.cfg, mulaw))
	if err != nil {
		return "", &TranscriptionError{Backend: BackendGoogle, Err: err}
	}
	text := joinResults(resp.GetResults())
	g.log.Debug("transcribed", "bytes", len(mulaw), "chars", len(text))
	return text, nil
}

func (g *GoogleClient) Close() error {
	return g.client.Close()
}
