// Package server exposes the leaderboard engine over HTTP. It is a thin
// boundary: entitlement and identity are headers filled in by the
// upstream gateway, and every domain decision stays in the engine.
package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/keystreak/xpboard/internal/config"
	"github.com/keystreak/xpboard/internal/domain"
	"github.com/keystreak/xpboard/internal/errors"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// LeaderboardService is the engine surface the handlers consume.
type LeaderboardService interface {
	AddResult(ctx context.Context, cfg domain.WeeklyXpConfig, entry domain.Entry, xpGained int64, timeTypedSeconds float64) (int64, error)
	GetResults(ctx context.Context, page, pageSize int, cfg domain.WeeklyXpConfig, premiumEntitled bool) ([]domain.Entry, error)
	GetRank(ctx context.Context, uid string, cfg domain.WeeklyXpConfig) (*domain.Entry, error)
	GetCount(ctx context.Context) (int64, error)
	PurgeUser(ctx context.Context, uid string, cfg domain.WeeklyXpConfig) error
}

// storePinger reports store reachability for the readiness probe.
type storePinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	echo   *echo.Echo
	config *config.Config
	board  LeaderboardService
	store  storePinger // nil when no store is configured
}

// NewServer wires the HTTP boundary. store may be nil.
func NewServer(cfg *config.Config, board LeaderboardService, store storePinger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(errors.Middleware())

	s := &Server{
		echo:   e,
		config: cfg,
		board:  board,
		store:  store,
	}
	s.registerRoutes()
	return s
}

// Start begins serving on the configured port. Blocks until shutdown.
func (s *Server) Start() error {
	err := s.echo.Start(":" + s.config.Port)
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
