package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

const readyTimeout = 3 * time.Second

// Check is a named readiness probe
type Check func(ctx context.Context) error

type HealthHandler struct {
	version string
	checks  map[string]Check
	logger  *slog.Logger
}

func NewHealthHandler(version string, checks map[string]Check, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		version: version,
		checks:  checks,
		logger:  logger,
	}
}

type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:  "ok",
		Version: h.version,
	})
}

// Ready runs every check; any failure answers 503.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readyTimeout)
	defer cancel()

	resp := HealthResponse{Status: "ready", Checks: make(map[string]string, len(h.checks))}
	status := fiber.StatusOK

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Warn("readiness check failed", slog.String("check", name), slog.Any("error", err))
			resp.Checks[name] = err.Error()
			resp.Status = "not_ready"
			status = fiber.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	return c.Status(status).JSON(resp)
}
