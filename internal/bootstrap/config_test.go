package bootstrap

import (
	"log/slog"
	"reflect"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "SERVER_ADDR", "STT_BACKEND", "JUDGE_BACKEND", "SEGMENT_SILENCE_MS", "KAFKA_BROKERS", "ELO_SAMPLE_SIZE"} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()
	if cfg.ServerAddr != ":3000" {
		t.Errorf("ServerAddr = %q", cfg.ServerAddr)
	}
	if cfg.STTBackend != "whisper" || cfg.JudgeBackend != "openai" {
		t.Errorf("backends = %q/%q", cfg.STTBackend, cfg.JudgeBackend)
	}
	if cfg.SegmentSilence != 800*time.Millisecond || cfg.SegmentMaxWait != 1500*time.Millisecond {
		t.Errorf("segment timing = %v/%v", cfg.SegmentSilence, cfg.SegmentMaxWait)
	}
	if cfg.EloSampleSize != 5 || cfg.EloKFactor != 32 || cfg.EloInitialRating != 1500 {
		t.Errorf("elo = %v/%v/%v", cfg.EloSampleSize, cfg.EloKFactor, cfg.EloInitialRating)
	}
	if cfg.KafkaBrokers != nil {
		t.Errorf("KafkaBrokers = %v", cfg.KafkaBrokers)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", "")
	t.Setenv("PORT", "8080")
	t.Setenv("STT_BACKEND", "Google")
	t.Setenv("SEGMENT_SILENCE_MS", "600")
	t.Setenv("TTS_QUIET_INTERVAL_MS", "not-a-number")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("JUDGE_TEMPERATURE", "0.2")

	cfg := LoadConfig()
	if cfg.ServerAddr != ":8080" {
		t.Errorf("ServerAddr = %q", cfg.ServerAddr)
	}
	if cfg.STTBackend != "google" {
		t.Errorf("STTBackend = %q", cfg.STTBackend)
	}
	if cfg.SegmentSilence != 600*time.Millisecond {
		t.Errorf("SegmentSilence = %v", cfg.SegmentSilence)
	}
	if cfg.TTSQuietInterval != 300*time.Millisecond {
		t.Errorf("TTSQuietInterval = %v", cfg.TTSQuietInterval)
	}
	if !cfg.KafkaEnabled || !reflect.DeepEqual(cfg.KafkaBrokers, []string{"kafka-1:9092", "kafka-2:9092"}) {
		t.Errorf("kafka = %v %v", cfg.KafkaEnabled, cfg.KafkaBrokers)
	}
	if cfg.JudgeTemperature != 0.2 {
		t.Errorf("JudgeTemperature = %v", cfg.JudgeTemperature)
	}
}

func TestConfig_Warnings(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want int
	}{
		{
			name: "fully configured",
			cfg: Config{
				TwilioAccountSID: "AC1", TwilioAuthToken: "tok", CartesiaAPIKey: "ck",
				OpenAIAPIKey: "sk", JudgeBackend: "openai", STTBackend: "whisper", PublicURL: "https://x",
			},
			want: 0,
		},
		{
			name: "nothing set",
			cfg:  Config{JudgeBackend: "openai", STTBackend: "whisper"},
			want: 4,
		},
		{
			name: "gemini without key",
			cfg: Config{
				TwilioAccountSID: "AC1", TwilioAuthToken: "tok", CartesiaAPIKey: "ck",
				OpenAIAPIKey: "sk", JudgeBackend: "gemini", STTBackend: "whisper", PublicURL: "https://x",
			},
			want: 1,
		},
		{
			name: "kafka without brokers",
			cfg: Config{
				TwilioAccountSID: "AC1", TwilioAuthToken: "tok", CartesiaAPIKey: "ck",
				OpenAIAPIKey: "sk", JudgeBackend: "openai", STTBackend: "whisper", PublicURL: "https://x",
				KafkaEnabled: true,
			},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Warnings(); len(got) != tt.want {
				t.Errorf("Warnings() = %q, want %d entries", got, tt.want)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestProvideSessionConfig(t *testing.T) {
	cfg := &Config{
		SegmentSilence:  time.Second,
		SegmentMaxWait:  2 * time.Second,
		SegmentTick:     250 * time.Millisecond,
		SegmentMinBytes: 200,
		FrameInterval:   20 * time.Millisecond,
	}
	sc := ProvideSessionConfig(cfg)
	if sc.TickInterval != 250*time.Millisecond || sc.Segmenter.MinBytes != 200 || sc.Segmenter.Silence != time.Second {
		t.Errorf("session config = %+v", sc)
	}
}
