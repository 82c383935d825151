package handler

import (
	"context"
	"net/http"
	"time"

	"storefront-service/internal/repository"
	"storefront-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// HealthHandler reports service liveness and, on request, dependency health
type HealthHandler struct {
	serviceName string
	checks      map[string]repository.Pinger
}

// NewHealthHandler takes the named dependencies probed by ?check=db
func NewHealthHandler(serviceName string, checks map[string]repository.Pinger) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, checks: checks}
}

// Root answers the storefront's connectivity probe
func (h *HealthHandler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Backend server is running",
	})
}

// HealthCheck handles the health check endpoint
func (h *HealthHandler) HealthCheck(c echo.Context) error {
	resp := echo.Map{
		"status":  "healthy",
		"service": h.serviceName,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}
	if c.QueryParam("check") != "db" {
		return c.JSON(http.StatusOK, resp)
	}

	log := logger.FromEcho(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := echo.Map{}
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			log.Error("Health check failed", zap.String("dependency", name), zap.Error(err))
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			resp["status"] = "unhealthy"
			continue
		}
		deps[name] = "ok"
	}
	resp["dependencies"] = deps
	return c.JSON(status, resp)
}
