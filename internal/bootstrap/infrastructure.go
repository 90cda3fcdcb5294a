package bootstrap

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/eleven-am/knock-line/internal/events"
	"github.com/eleven-am/knock-line/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func ProvideRedisClient(lc fx.Lifecycle, cfg *Config) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client
}

// ProvideDatabase opens postgres when DATABASE_DSN is set and a local sqlite
// file otherwise.
func ProvideDatabase(cfg *Config, log *slog.Logger) (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	if cfg.DatabaseDSN != "" {
		log.Info("using postgres joke store")
		return gorm.Open(postgres.Open(cfg.DatabaseDSN), gcfg)
	}

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	log.Info("using sqlite joke store", "path", cfg.DatabasePath)
	return gorm.Open(sqlite.Open(cfg.DatabasePath), gcfg)
}

func ProvideMetrics() *metrics.Metrics {
	return metrics.New(prometheus.DefaultRegisterer)
}

func ProvideEventPublisher(lc fx.Lifecycle, cfg *Config, m *metrics.Metrics, log *slog.Logger) *events.Publisher {
	pub := events.New(events.Config{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaTopic,
		Enabled:  cfg.KafkaEnabled,
		Recorder: m,
		Log:      log,
	})
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return pub.Close()
		},
	})
	return pub
}

var InfrastructureModule = fx.Options(
	fx.Provide(
		ProvideLogger,
		ProvideRedisClient,
		ProvideDatabase,
		ProvideMetrics,
		ProvideEventPublisher,
	),
)
