package bootstrap

import (
	"log/slog"
	"os"

	"github.com/eleven-am/knock-line/internal/gateway"
	"github.com/eleven-am/knock-line/internal/joke"
	"github.com/eleven-am/knock-line/internal/metrics"
	"github.com/eleven-am/knock-line/internal/session"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

type HandlerParams struct {
	fx.In

	JokeHandler    *joke.Handler
	SessionHandler *session.Handler
	GatewayHandler *gateway.Handler
	MetricsHandler *metrics.Handler
}

func RegisterRoutes(e *echo.Echo, params HandlerParams) {
	root := e.Group("")
	params.GatewayHandler.RegisterRoutes(root)
	params.JokeHandler.RegisterRoutes(root)
	params.SessionHandler.RegisterRoutes(root)
	params.MetricsHandler.RegisterRoutes(e)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func ProvideLogger(cfg *Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
}

func ProvideJokeHandler(store *joke.Store, logger *slog.Logger) *joke.Handler {
	return joke.NewHandler(store, logger.With("handler", "joke"))
}

func ProvideSessionHandler(store *session.Store, logger *slog.Logger) *session.Handler {
	return session.NewHandler(store, logger.With("handler", "session"))
}

func ProvideMetricsHandler() *metrics.Handler {
	return metrics.NewHandler(prometheus.DefaultGatherer)
}

var HandlersModule = fx.Options(
	fx.Provide(
		ProvideJokeHandler,
		ProvideSessionHandler,
		ProvideMetricsHandler,
	),
	fx.Invoke(RegisterRoutes),
)
