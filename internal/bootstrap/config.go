package bootstrap

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddr string
	PublicURL  string
	LogLevel   string

	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string

	CartesiaAPIKey   string
	CartesiaURL      string
	CartesiaVersion  string
	CartesiaModelID  string
	CartesiaVoiceID  string
	TTSQuietInterval time.Duration
	TTSAudioTimeout  time.Duration

	STTBackend    string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	WhisperModel  string
	STTLanguage   string

	JudgeBackend     string
	OpenAIModel      string
	GeminiAPIKey     string
	GeminiModel      string
	JudgeTemperature float64

	EloInitialRating float64
	EloKFactor       float64
	EloSampleSize    int

	SegmentSilence  time.Duration
	SegmentMaxWait  time.Duration
	SegmentTick     time.Duration
	SegmentMinBytes int

	TeardownDelay   time.Duration
	TeardownRecheck time.Duration
	FrameInterval   time.Duration

	DatabaseDSN  string
	DatabasePath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":"+getEnv("PORT", "3000")),
		PublicURL:  getEnv("PUBLIC_URL", os.Getenv("NGROK_URL")),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		TwilioAccountSID:  getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:   getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioPhoneNumber: getEnv("TWILIO_PHONE_NUMBER", ""),

		CartesiaAPIKey:   getEnv("CARTESIA_API_KEY", ""),
		CartesiaURL:      getEnv("CARTESIA_URL", "wss://api.cartesia.ai/tts/websocket"),
		CartesiaVersion:  getEnv("CARTESIA_VERSION", "2024-11-13"),
		CartesiaModelID:  getEnv("CARTESIA_MODEL_ID", "sonic-3"),
		CartesiaVoiceID:  getEnv("CARTESIA_VOICE_ID", "a0e99841-438c-4a64-b679-ae501e7d6091"),
		TTSQuietInterval: getEnvDuration("TTS_QUIET_INTERVAL_MS", 300*time.Millisecond),
		TTSAudioTimeout:  getEnvDuration("TTS_AUDIO_TIMEOUT_MS", 2*time.Second),

		STTBackend:    strings.ToLower(getEnv("STT_BACKEND", "whisper")),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		WhisperModel:  getEnv("WHISPER_MODEL", "whisper-1"),
		STTLanguage:   getEnv("STT_LANGUAGE", "en"),

		JudgeBackend:     strings.ToLower(getEnv("JUDGE_BACKEND", "openai")),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		JudgeTemperature: getEnvFloat("JUDGE_TEMPERATURE", 0.7),

		EloInitialRating: getEnvFloat("ELO_INITIAL_RATING", 1500),
		EloKFactor:       getEnvFloat("ELO_K_FACTOR", 32),
		EloSampleSize:    getEnvInt("ELO_SAMPLE_SIZE", 5),

		SegmentSilence:  getEnvDuration("SEGMENT_SILENCE_MS", 800*time.Millisecond),
		SegmentMaxWait:  getEnvDuration("SEGMENT_MAX_WAIT_MS", 1500*time.Millisecond),
		SegmentTick:     getEnvDuration("SEGMENT_TICK_MS", 500*time.Millisecond),
		SegmentMinBytes: getEnvInt("SEGMENT_MIN_BYTES", 100),

		TeardownDelay:   getEnvDuration("TEARDOWN_DELAY_MS", 2*time.Second),
		TeardownRecheck: getEnvDuration("TEARDOWN_RECHECK_MS", time.Second),
		FrameInterval:   getEnvDuration("FRAME_INTERVAL_MS", 20*time.Millisecond),

		DatabaseDSN:  getEnv("DATABASE_DSN", ""),
		DatabasePath: getEnv("DATABASE_PATH", "./data/jokes.db"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		KafkaEnabled: getEnvBool("KAFKA_ENABLED", false),
		KafkaBrokers: getEnvList("KAFKA_BROKERS"),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "knockline.events"),
	}
}

// Warnings lists missing credentials. None of them stop the server; the
// affected calls fail at runtime instead.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.TwilioAccountSID == "" || c.TwilioAuthToken == "" {
		warnings = append(warnings, "TWILIO_ACCOUNT_SID/TWILIO_AUTH_TOKEN not set; recording downloads will fail")
	}
	if c.CartesiaAPIKey == "" {
		warnings = append(warnings, "CARTESIA_API_KEY not set; calls will have no audio")
	}
	if c.OpenAIAPIKey == "" {
		warnings = append(warnings, "OPENAI_API_KEY not set; whisper transcription and the openai judge will fail")
	}
	if c.JudgeBackend == "gemini" && c.GeminiAPIKey == "" {
		warnings = append(warnings, "GEMINI_API_KEY not set; joke judging will fail")
	}
	if c.STTBackend == "google" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
		warnings = append(warnings, "GOOGLE_APPLICATION_CREDENTIALS not set; relying on ambient google credentials")
	}
	if c.PublicURL == "" {
		warnings = append(warnings, "PUBLIC_URL not set; media stream URL will use the request host")
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		warnings = append(warnings, "KAFKA_ENABLED is true but KAFKA_BROKERS is empty; events will only be logged")
	}
	return warnings
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration reads a value in milliseconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.Atoi(value); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
