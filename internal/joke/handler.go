package joke

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
	defaultListLimit = 10
	maxListLimit     = 100
)

type Reader interface {
	FindByID(ctx context.Context, id uint) (*Joke, error)
	Best(ctx context.Context) (*Joke, error)
	Top(ctx context.Context, limit int) ([]Joke, error)
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
	g.GET("/best-joke", h.GetBest)
	g.GET("/jokes", h.List)
	g.GET("/jokes/:id", h.Get)
}

func (h *Handler) GetBest(c echo.Context) error {
	j, err := h.store.Best(c.Request().Context())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("no_jokes", "No jokes found")
		}
		h.logger.Error("best joke lookup failed", "error", err)
		return shared.InternalError("lookup_failed", "failed to load best joke")
	}

	return c.JSON(http.StatusOK, dto.BestJokeResponse{
		Joke:   j.Content,
		Rating: j.Rating,
		ID:     j.ID,
	})
}

func (h *Handler) List(c echo.Context) error {
	limit := defaultListLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxListLimit {
			return shared.BadRequest("invalid_limit", "limit must be between 1 and 100")
		}
		limit = n
	}

	jokes, err := h.store.Top(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("list jokes failed", "error", err)
		return shared.InternalError("list_failed", "failed to list jokes")
	}

	resp := make([]dto.JokeResponse, 0, len(jokes))
	for i := range jokes {
		resp = append(resp, toResponse(&jokes[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return shared.BadRequest("invalid_id", "joke id must be numeric")
	}

	j, err := h.store.FindByID(c.Request().Context(), uint(id))
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			h.logger.Error("get joke failed", "joke_id", id, "error", err)
		}
		return shared.FromError(err, "joke_not_found", "joke not found")
	}
	return c.JSON(http.StatusOK, toResponse(j))
}

func toResponse(j *Joke) dto.JokeResponse {
	return dto.JokeResponse{
		ID:        j.ID,
		Content:   j.Content,
		Rating:    j.Rating,
		CreatedAt: j.CreatedAt,
	}
}
