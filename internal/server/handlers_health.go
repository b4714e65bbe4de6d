package server

import (
	"context"
	"net/http"
	"time"

	"github.com/keystreak/xpboard/internal/version"
	"github.com/labstack/echo/v4"
)

func (s *Server) handleLiveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "alive",
		"version": version.Get(),
	})
}

func (s *Server) handleReadiness(c echo.Context) error {
	// No store configured: the service is serving its degraded contract
	// on purpose, so it is ready.
	if s.store == nil {
		return c.JSON(http.StatusOK, map[string]string{"status": "ready", "store": "none"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}
