package handlers

import (
	"context"
	"net/http"
	"time"

	"portal/internal/caching"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const healthCheckTimeout = 2 * time.Second

// Pinger is satisfied by *pgxpool.Pool
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlers handles health check and monitoring endpoints
type HealthHandlers struct {
	db       Pinger
	cacheSvc caching.CacheService
	logger   *zap.Logger
	started  time.Time
}

// NewHealthHandlers creates a new health handlers instance
func NewHealthHandlers(db Pinger, cacheSvc caching.CacheService, logger *zap.Logger) *HealthHandlers {
	return &HealthHandlers{
		db:       db,
		cacheSvc: cacheSvc,
		logger:   logger,
		started:  time.Now(),
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	OK        bool   `json:"ok"`
	Timestamp string `json:"timestamp"`
	Database  string `json:"database"`
	Uptime    string `json:"uptime"`
}

// HealthCheck godoc
// @Summary Database liveness
// @Tags health
// @Produce json
// @Success 200 {object} HealthStatus
// @Failure 503 {object} HealthStatus
// @Router /health [get]
func (h *HealthHandlers) HealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	status := &HealthStatus{
		OK:        true,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Database:  "connected",
		Uptime:    time.Since(h.started).Round(time.Second).String(),
	}
	if err := h.db.Ping(ctx); err != nil {
		h.logger.Error("health check failed", zap.Error(err))
		status.OK = false
		status.Database = "disconnected"
		return c.JSON(http.StatusServiceUnavailable, status)
	}
	return c.JSON(http.StatusOK, status)
}

// ReadinessCheck determines if the application is ready to serve traffic
func (h *HealthHandlers) ReadinessCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	checks := map[string]string{"database": "healthy", "redis": "healthy"}
	ready := true
	if err := h.db.Ping(ctx); err != nil {
		checks["database"] = "unhealthy"
		ready = false
	}
	if err := h.cacheSvc.Ping(ctx); err != nil {
		checks["redis"] = "unhealthy"
		ready = false
	}

	if !ready {
		return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
			"status":   "not_ready",
			"services": checks,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":   "ready",
		"services": checks,
	})
}
