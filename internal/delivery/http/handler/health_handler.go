package handler

import (
	"context"
	"time"

	"raid-recruit/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db    Pinger
	cache Pinger
}

func NewHealthHandler(db, cache Pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

func (h *HealthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/health", h.Health)
}

// Health fails only when the database is down; Redis is optional.
func (h *HealthHandler) Health(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	data := map[string]string{"database": "up", "cache": "disabled"}
	status := fiber.StatusOK

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			data["database"] = "down"
			status = fiber.StatusServiceUnavailable
		}
	}
	if h.cache != nil {
		data["cache"] = "up"
		if err := h.cache.Ping(ctx); err != nil {
			data["cache"] = "down"
		}
	}

	if status != fiber.StatusOK {
		return response.Error(c, status, response.MessageServiceUnavailable, data)
	}
	return response.Success(c, status, response.MessageOK, data)
}
