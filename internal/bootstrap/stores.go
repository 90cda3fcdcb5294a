package bootstrap

import (
	"github.com/eleven-am/knock-line/internal/joke"
	"github.com/eleven-am/knock-line/internal/session"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideJokeStore(db *gorm.DB, cfg *Config) *joke.Store {
	return joke.NewStore(db, cfg.EloInitialRating)
}

func ProvideSessionStore(redisClient *redis.Client) *session.Store {
	return session.NewStore(redisClient)
}

func RunMigrations(jokeStore *joke.Store) error {
	return jokeStore.Migrate()
}

var StoresModule = fx.Options(
	fx.Provide(
		ProvideJokeStore,
		ProvideSessionStore,
	),
	fx.Invoke(RunMigrations),
)
