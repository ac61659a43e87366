package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

const Version = "0.1.0"

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store    Pinger
	provider string
}

func NewHealthHandler(store Pinger, provider string) *HealthHandler {
	return &HealthHandler{store: store, provider: provider}
}

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// Root GET / - liveness banner
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.SendString("Hello!")
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:   "ok",
		Version:  Version,
		Provider: h.provider,
	})
}

// Ready pings the gallery store. It answers 503 regardless of the status mode.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		if err := h.store.Ping(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unavailable",
				"error":  err.Error(),
			})
		}
	}

	return c.JSON(HealthResponse{
		Status: "ready",
	})
}
