package bootstrap

import (
	"github.com/eleven-am/knock-line/internal/events"
	"github.com/eleven-am/knock-line/internal/health"
	"github.com/eleven-am/knock-line/internal/voicesession"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

const version = "1.0.0"

func ProvideHealthHandler(
	db *gorm.DB,
	redis *redis.Client,
	voiceSessionMgr *voicesession.Manager,
	publisher *events.Publisher,
) *health.Handler {
	return health.NewHandler(db, redis, voiceSessionMgr, publisher, version)
}

func requestCounter(h *health.Handler) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer h.TrackRequest()()
			return next(c)
		}
	}
}

func RegisterHealthRoutes(e *echo.Echo, h *health.Handler) {
	e.Use(requestCounter(h))
	h.RegisterRoutes(e)
}

var HealthModule = fx.Options(
	fx.Provide(ProvideHealthHandler),
	fx.Invoke(RegisterHealthRoutes),
)
