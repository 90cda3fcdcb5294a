package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/eleven-am/knock-line/internal/dto"
	"github.com/eleven-am/knock-line/internal/shared"
	"github.com/labstack/echo/v4"
)

const (
	defaultStatsDays = 7
	maxStatsDays     = 90
)

type Reader interface {
	GetCall(ctx context.Context, id string) (*Call, error)
	ListActive(ctx context.Context) ([]*Call, error)
	GetStats(ctx context.Context, days int) ([]*DailyStats, error)
}

type Handler struct {
	store  Reader
	logger *slog.Logger
}

func NewHandler(store Reader, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: store, logger: logger}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/calls", h.ListActive)
	g.GET("/calls/stats", h.GetStats)
	g.GET("/calls/:id", h.GetCall)
}

func (h *Handler) ListActive(c echo.Context) error {
	calls, err := h.store.ListActive(c.Request().Context())
	if err != nil {
		h.logger.Error("list calls failed", "error", err)
		return shared.InternalError("list_failed", "failed to list calls")
	}

	resp := dto.CallListResponse{Total: len(calls), Calls: make([]dto.CallResponse, 0, len(calls))}
	for _, call := range calls {
		resp.Calls = append(resp.Calls, toResponse(call))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetCall(c echo.Context) error {
	call, err := h.store.GetCall(c.Request().Context(), c.Param("id"))
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			h.logger.Error("get call failed", "call_id", c.Param("id"), "error", err)
		}
		return shared.FromError(err, "call_not_found", "call not found")
	}
	return c.JSON(http.StatusOK, toResponse(call))
}

func (h *Handler) GetStats(c echo.Context) error {
	days := defaultStatsDays
	if raw := c.QueryParam("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxStatsDays {
			return shared.BadRequest("invalid_days", "days must be between 1 and 90")
		}
		days = n
	}

	stats, err := h.store.GetStats(c.Request().Context(), days)
	if err != nil {
		h.logger.Error("get stats failed", "error", err)
		return shared.InternalError("stats_failed", "failed to load call stats")
	}

	resp := dto.StatsResponse{Days: days, Stats: make([]dto.DailyStatsResponse, 0, len(stats))}
	for _, d := range stats {
		resp.Stats = append(resp.Stats, dto.DailyStatsResponse{
			Date:       d.Date,
			Calls:      d.Calls,
			JokesRated: d.JokesRated,
			Apologies:  d.Apologies,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

func toResponse(call *Call) dto.CallResponse {
	return dto.CallResponse{
		ID:           call.ID,
		StreamSID:    call.StreamSID,
		CallSID:      call.CallSID,
		Status:       string(call.Status),
		State:        call.State,
		JokeID:       call.JokeID,
		Rating:       call.Rating,
		StartedAt:    call.StartedAt,
		LastActiveAt: call.LastActiveAt,
		EndedAt:      call.EndedAt,
	}
}
