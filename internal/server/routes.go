package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Weekly XP leaderboard
	s.echo.GET("/leaderboards/xp/weekly", s.handleGetResults)
	s.echo.GET("/leaderboards/xp/weekly/rank", s.handleGetRank)
	s.echo.GET("/leaderboards/xp/weekly/count", s.handleGetCount)
	s.echo.POST("/leaderboards/xp/weekly/results", s.handleAddResult)
	s.echo.DELETE("/leaderboards/xp/weekly/users/:uid", s.handlePurgeUser)
}
