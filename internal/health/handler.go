package health

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/eleven-am/knock-line/internal/voicesession"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const checkTimeout = 5 * time.Second

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Component is the outcome of one dependency probe.
type Component struct {
	Status    Status `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
	Mode      string `json:"mode,omitempty"`
	Error     string `json:"error,omitempty"`
}

type Check func(ctx context.Context) Component

type Runtime struct {
	Goroutines int    `json:"goroutines"`
	HeapMB     uint64 `json:"heap_mb"`
	SysMB      uint64 `json:"sys_mb"`
	GCCycles   uint32 `json:"gc_cycles"`
}

type Requests struct {
	Total    uint64 `json:"total"`
	InFlight int64  `json:"in_flight"`
}

type Report struct {
	Status      Status               `json:"status"`
	Version     string               `json:"version"`
	CheckedAt   time.Time            `json:"checked_at"`
	Uptime      string               `json:"uptime"`
	ActiveCalls int                  `json:"active_calls"`
	Requests    Requests             `json:"requests"`
	Runtime     Runtime              `json:"runtime"`
	Components  map[string]Component `json:"components"`
}

type CallsResponse struct {
	Total int                        `json:"total"`
	Calls []voicesession.SessionInfo `json:"calls"`
}

type SessionLister interface {
	SessionCount() int
	ListSessions() []voicesession.SessionInfo
}

type PublisherMode interface {
	Mode() string
}

type Handler struct {
	db        *gorm.DB
	redis     *redis.Client
	sessions  SessionLister
	publisher PublisherMode
	version   string
	started   time.Time
	checks    map[string]Check

	requests atomic.Uint64
	inFlight atomic.Int64
}

func NewHandler(db *gorm.DB, redis *redis.Client, sessions SessionLister, publisher PublisherMode, version string) *Handler {
	h := &Handler{
		db:        db,
		redis:     redis,
		sessions:  sessions,
		publisher: publisher,
		version:   version,
		started:   time.Now(),
	}
	h.checks = map[string]Check{
		"database": h.checkDatabase,
		"redis":    h.checkRedis,
		"events":   h.checkEvents,
	}
	return h
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Readiness)
	e.GET("/health/live", h.Liveness)
	e.GET("/health/calls", h.Calls)
}

// TrackRequest counts one HTTP request; call the returned func when it
// finishes.
func (h *Handler) TrackRequest() func() {
	h.requests.Add(1)
	h.inFlight.Add(1)
	return func() { h.inFlight.Add(-1) }
}

func (h *Handler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), checkTimeout)
	defer cancel()

	components := h.runChecks(ctx)
	report := Report{
		Status:    computeOverallStatus(components),
		Version:   h.version,
		CheckedAt: time.Now().UTC(),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Requests: Requests{
			Total:    h.requests.Load(),
			InFlight: h.inFlight.Load(),
		},
		Runtime:    readRuntime(),
		Components: components,
	}
	if h.sessions != nil {
		report.ActiveCalls = h.sessions.SessionCount()
	}

	code := http.StatusOK
	if report.Status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, report)
}

func (h *Handler) Calls(c echo.Context) error {
	calls := []voicesession.SessionInfo{}
	if h.sessions != nil {
		calls = append(calls, h.sessions.ListSessions()...)
	}
	return c.JSON(http.StatusOK, CallsResponse{Total: len(calls), Calls: calls})
}

func (h *Handler) runChecks(ctx context.Context) map[string]Component {
	type result struct {
		name string
		comp Component
	}

	results := make(chan result, len(h.checks))
	for name, check := range h.checks {
		go func() {
			results <- result{name: name, comp: check(ctx)}
		}()
	}

	components := make(map[string]Component, len(h.checks))
	for range h.checks {
		r := <-results
		components[r.name] = r.comp
	}
	return components
}

func readRuntime() Runtime {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return Runtime{
		Goroutines: runtime.NumGoroutine(),
		HeapMB:     m.HeapAlloc >> 20,
		SysMB:      m.Sys >> 20,
		GCCycles:   m.NumGC,
	}
}

func (h *Handler) checkDatabase(ctx context.Context) Component {
	start := time.Now()
	if h.db == nil {
		return failed(start, "database not configured")
	}
	sqlDB, err := h.db.DB()
	if err != nil {
		return failed(start, "failed to get underlying db")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return failed(start, "ping failed")
	}
	return Component{Status: poolStatus(sqlDB.Stats()), LatencyMs: time.Since(start).Milliseconds()}
}

// poolStatus reports a saturated connection pool as degraded.
func poolStatus(stats sql.DBStats) Status {
	if stats.MaxOpenConnections > 0 && stats.OpenConnections >= stats.MaxOpenConnections {
		return StatusDegraded
	}
	return StatusHealthy
}

func (h *Handler) checkRedis(ctx context.Context) Component {
	start := time.Now()
	if h.redis == nil {
		return failed(start, "redis not configured")
	}
	if err := h.redis.Ping(ctx).Err(); err != nil {
		return failed(start, "ping failed")
	}
	return Component{Status: StatusHealthy, LatencyMs: time.Since(start).Milliseconds()}
}

func (h *Handler) checkEvents(context.Context) Component {
	mode := "log"
	if h.publisher != nil {
		mode = h.publisher.Mode()
	}
	return Component{Status: StatusHealthy, Mode: mode}
}

func failed(start time.Time, msg string) Component {
	return Component{
		Status:    StatusUnhealthy,
		LatencyMs: time.Since(start).Milliseconds(),
		Error:     msg,
	}
}

// computeOverallStatus treats the joke database as critical; every other
// failure only degrades the service.
func computeOverallStatus(components map[string]Component) Status {
	if c, ok := components["database"]; ok && c.Status == StatusUnhealthy {
		return StatusUnhealthy
	}
	for _, c := range components {
		if c.Status != StatusHealthy {
			return StatusDegraded
		}
	}
	return StatusHealthy
}
