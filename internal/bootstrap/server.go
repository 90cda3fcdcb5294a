package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"
)

// Webhooks and the media stream come from the telephony provider; the JSON
// endpoints are read-only, so CORS only needs GET and POST.
var corsConfig = middleware.CORSConfig{
	AllowOrigins: []string{"*"},
	AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions},
	AllowHeaders: []string{echo.HeaderAccept, echo.HeaderContentType, "X-Twilio-Signature"},
	MaxAge:       int((24 * time.Hour).Seconds()),
}

func NewEchoServer() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(corsConfig))
	return e
}

func StartServer(lc fx.Lifecycle, shutdowner fx.Shutdowner, e *echo.Echo, cfg *Config, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.Info("knock line listening", "addr", cfg.ServerAddr, "public_url", cfg.PublicURL)
			go func() {
				if err := e.Start(cfg.ServerAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("http server failed", "error", err)
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})
}

func LogConfigWarnings(cfg *Config, logger *slog.Logger) {
	for _, w := range cfg.Warnings() {
		logger.Warn("configuration", "warning", w)
	}
}

var ServerModule = fx.Options(
	fx.Provide(NewEchoServer),
	fx.Invoke(StartServer),
)

func Run() {
	fx.New(
		fx.Provide(LoadConfig),
		InfrastructureModule,
		fx.Invoke(LogConfigWarnings),
		StoresModule,
		ServerModule,
		CallsModule,
		HandlersModule,
		HealthModule,
	).Run()
}
