package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/eleven-am/knock-line/internal/audio"
	"github.com/eleven-am/knock-line/internal/elo"
	"github.com/eleven-am/knock-line/internal/events"
	"github.com/eleven-am/knock-line/internal/gateway"
	"github.com/eleven-am/knock-line/internal/joke"
	"github.com/eleven-am/knock-line/internal/judge"
	"github.com/eleven-am/knock-line/internal/metrics"
	"github.com/eleven-am/knock-line/internal/segmenter"
	"github.com/eleven-am/knock-line/internal/session"
	"github.com/eleven-am/knock-line/internal/synthesis"
	"github.com/eleven-am/knock-line/internal/transcription"
	"github.com/eleven-am/knock-line/internal/voicesession"
	"go.uber.org/fx"
)

func ProvideSynthesisConfig(cfg *Config, logger *slog.Logger) synthesis.Config {
	return synthesis.Config{
		URL:           cfg.CartesiaURL,
		APIKey:        cfg.CartesiaAPIKey,
		Version:       cfg.CartesiaVersion,
		ModelID:       cfg.CartesiaModelID,
		VoiceID:       cfg.CartesiaVoiceID,
		SampleRate:    audio.SampleRate,
		QuietInterval: cfg.TTSQuietInterval,
		Log:           logger,
	}
}

func ProvideSynthesizerFactory(scfg synthesis.Config) synthesis.Factory {
	return synthesis.NewFactory(scfg)
}

func ProvideWhisperClient(cfg *Config, logger *slog.Logger) *transcription.WhisperClient {
	return transcription.NewWhisperClient(transcription.WhisperConfig{
		APIKey:     cfg.OpenAIAPIKey,
		BaseURL:    cfg.OpenAIBaseURL,
		Model:      cfg.WhisperModel,
		Language:   cfg.STTLanguage,
		SampleRate: audio.SampleRate,
		Log:        logger,
	})
}

// ProvideTranscriber picks the live-call backend from STT_BACKEND. Recordings
// always go through whisper.
func ProvideTranscriber(
	lc fx.Lifecycle,
	cfg *Config,
	whisper *transcription.WhisperClient,
	m *metrics.Metrics,
	logger *slog.Logger,
) (transcription.Transcriber, error) {
	switch cfg.STTBackend {
	case transcription.BackendGoogle:
		client, err := transcription.NewGoogleClient(context.Background(), transcription.GoogleConfig{
			LanguageCode: cfg.STTLanguage,
			SampleRate:   audio.SampleRate,
			Log:          logger,
		})
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return client.Close()
			},
		})
		return transcription.WithRecorder(client, transcription.BackendGoogle, m), nil
	case transcription.BackendWhisper, "":
		return transcription.WithRecorder(whisper, transcription.BackendWhisper, m), nil
	default:
		return nil, fmt.Errorf("unknown STT_BACKEND %q", cfg.STTBackend)
	}
}

func ProvideJudge(cfg *Config, logger *slog.Logger) (judge.Judge, error) {
	switch cfg.JudgeBackend {
	case "gemini":
		return judge.NewGeminiJudge(context.Background(), judge.GeminiConfig{
			APIKey:      cfg.GeminiAPIKey,
			Model:       cfg.GeminiModel,
			Temperature: float32(cfg.JudgeTemperature),
			Log:         logger,
		})
	case "openai", "":
		return judge.NewOpenAIJudge(judge.OpenAIConfig{
			APIKey:      cfg.OpenAIAPIKey,
			BaseURL:     cfg.OpenAIBaseURL,
			Model:       cfg.OpenAIModel,
			Temperature: float32(cfg.JudgeTemperature),
			Log:         logger,
		}), nil
	default:
		return nil, fmt.Errorf("unknown JUDGE_BACKEND %q", cfg.JudgeBackend)
	}
}

func ProvideRater(store *joke.Store, j judge.Judge, cfg *Config, m *metrics.Metrics, logger *slog.Logger) *elo.Rater {
	return elo.NewRater(store, j, elo.Config{
		K:             cfg.EloKFactor,
		InitialRating: cfg.EloInitialRating,
		SampleSize:    cfg.EloSampleSize,
	}, m, logger)
}

func ProvideRecordingProcessor(cfg *Config, whisper *transcription.WhisperClient, rater *elo.Rater, logger *slog.Logger) *gateway.RecordingProcessor {
	return gateway.NewRecordingProcessor(gateway.RecordingConfig{
		AccountSID:  cfg.TwilioAccountSID,
		AuthToken:   cfg.TwilioAuthToken,
		Transcriber: whisper,
		Rater:       rater,
		Log:         logger,
	})
}

func ProvideSessionConfig(cfg *Config) voicesession.Config {
	return voicesession.Config{
		TickInterval:    cfg.SegmentTick,
		FrameInterval:   cfg.FrameInterval,
		AudioTimeout:    cfg.TTSAudioTimeout,
		TeardownDelay:   cfg.TeardownDelay,
		TeardownRecheck: cfg.TeardownRecheck,
		Segmenter: segmenter.Config{
			Silence:  cfg.SegmentSilence,
			MaxWait:  cfg.SegmentMaxWait,
			MinBytes: cfg.SegmentMinBytes,
		},
	}
}

func ProvideVoiceSessionManager(
	lc fx.Lifecycle,
	factory synthesis.Factory,
	transcriber transcription.Transcriber,
	rater *elo.Rater,
	calls *session.Store,
	pub *events.Publisher,
	m *metrics.Metrics,
	scfg voicesession.Config,
	logger *slog.Logger,
) *voicesession.Manager {
	mgr := voicesession.NewManager(voicesession.ManagerConfig{
		Synthesizers: factory,
		Transcriber:  transcriber,
		Rater:        rater,
		Calls:        calls,
		Events:       pub,
		Metrics:      m,
		Session:      scfg,
		Log:          logger,
	})
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return mgr.Close()
		},
	})
	return mgr
}

func ProvideGatewayHandler(cfg *Config, mgr *voicesession.Manager, recordings *gateway.RecordingProcessor, logger *slog.Logger) *gateway.Handler {
	return gateway.NewHandler(gateway.HandlerConfig{
		Sessions:   mgr,
		Recordings: recordings,
		PublicURL:  cfg.PublicURL,
		Log:        logger,
	})
}

var CallsModule = fx.Options(
	fx.Provide(
		ProvideSynthesisConfig,
		ProvideSynthesizerFactory,
		ProvideWhisperClient,
		ProvideTranscriber,
		ProvideJudge,
		ProvideRater,
		ProvideRecordingProcessor,
		ProvideSessionConfig,
		ProvideVoiceSessionManager,
		ProvideGatewayHandler,
	),
)
