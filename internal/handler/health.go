package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/rebuttal/api/internal/model"
	"github.com/rebuttal/api/pkg/response"
)

// HealthHandler serves liveness and dependency status
type HealthHandler struct {
	services map[string]string
}

// NewHealthHandler takes a snapshot of which backend serves each capability
func NewHealthHandler(services map[string]string) *HealthHandler {
	return &HealthHandler{services: services}
}

// Root handles GET /
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return response.OK(c, model.HealthResponse{
		Status:    "healthy",
		Message:   "Debate response service is running",
		Timestamp: time.Now().UTC(),
	})
}

// Health handles GET /health
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return response.OK(c, model.ServicesHealthResponse{
		Status:   "ok",
		Services: h.services,
	})
}
