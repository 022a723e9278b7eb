package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger reports storage health
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	store   Pinger
	appMode string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store Pinger, appMode string) *HealthHandler {
	return &HealthHandler{store: store, appMode: appMode}
}

// Root handles root endpoint
// @Summary Root endpoint
// @Description Returns API status
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "running",
		"message": "microloan API v1.0 is running",
		"mode":    h.appMode,
		"docs":    "/swagger/index.html",
	})
}

// HealthCheck handles health check
// @Summary Health check
// @Description Check API and storage health
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status, code := "healthy", fiber.StatusOK
	if err := h.store.Ping(ctx); err != nil {
		status, code = "unhealthy", fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status": "ok",
		"checks": fiber.Map{
			"api":      "healthy",
			"database": status,
		},
	})
}

// APIInfo handles API v1 info
// @Summary API v1 Info
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *HealthHandler) APIInfo(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "microloan API v1.0",
		"version": "1.0.0",
	})
}
