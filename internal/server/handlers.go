package server

import (
	"net/http"
	"strconv"

	"github.com/keystreak/xpboard/internal/domain"
	"github.com/keystreak/xpboard/internal/errors"
	"github.com/keystreak/xpboard/internal/leaderboard"
	"github.com/labstack/echo/v4"
)

// premiumHeader carries the caller's premium entitlement, asserted by
// the upstream gateway. Rows lose their premium flag without it.
const premiumHeader = "X-Premium-Entitled"

type addResultRequest struct {
	UID                   string  `json:"uid"`
	Name                  string  `json:"name"`
	DiscordID             string  `json:"discordId"`
	DiscordAvatar         string  `json:"discordAvatar"`
	BadgeID               int64   `json:"badgeId"`
	LastActivityTimestamp int64   `json:"lastActivityTimestamp"`
	IsPremium             *bool   `json:"isPremium"`
	XpGained              int64   `json:"xpGained"`
	TimeTypedSeconds      float64 `json:"timeTypedSeconds"`
}

type addResultResponse struct {
	Rank int64 `json:"rank"`
}

type resultsResponse struct {
	Entries []domain.Entry `json:"entries"`
}

type countResponse struct {
	Count int64 `json:"count"`
}

func (s *Server) handleAddResult(c echo.Context) error {
	var req addResultRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError("invalid request body")
	}
	if req.UID == "" {
		return errors.ValidationError("uid is required")
	}

	entry := domain.Entry{
		UID:                   req.UID,
		Name:                  req.Name,
		DiscordID:             req.DiscordID,
		DiscordAvatar:         req.DiscordAvatar,
		BadgeID:               req.BadgeID,
		LastActivityTimestamp: req.LastActivityTimestamp,
		IsPremium:             req.IsPremium,
	}

	rank, err := s.board.AddResult(c.Request().Context(), s.config.WeeklyXp(), entry, req.XpGained, req.TimeTypedSeconds)
	if err != nil {
		return err
	}

	// RankDisabled means the feature is off: not an error, no rank.
	return c.JSON(http.StatusOK, addResultResponse{Rank: rank})
}

func (s *Server) handleGetResults(c echo.Context) error {
	page, err := intQueryParam(c, "page", 0)
	if err != nil {
		return err
	}
	pageSize, err := intQueryParam(c, "pageSize", 50)
	if err != nil {
		return err
	}

	premiumEntitled := c.Request().Header.Get(premiumHeader) == "true"

	entries, err := s.board.GetResults(c.Request().Context(), page, pageSize, s.config.WeeklyXp(), premiumEntitled)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resultsResponse{Entries: entries})
}

func (s *Server) handleGetRank(c echo.Context) error {
	uid := c.QueryParam("uid")
	if uid == "" {
		return errors.ValidationError("uid is required")
	}

	entry, err := s.board.GetRank(c.Request().Context(), uid, s.config.WeeklyXp())
	if err != nil {
		return err
	}
	if entry == nil {
		return errors.NotFoundError("user is not ranked this week").WithContext("uid", uid)
	}

	if c.Request().Header.Get(premiumHeader) != "true" {
		stripped := entry.StripPremium()
		entry = &stripped
	}
	return c.JSON(http.StatusOK, entry)
}

func (s *Server) handleGetCount(c echo.Context) error {
	count, err := s.board.GetCount(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, countResponse{Count: count})
}

func (s *Server) handlePurgeUser(c echo.Context) error {
	uid := c.Param("uid")
	if uid == "" {
		return errors.ValidationError("uid is required")
	}

	if err := s.board.PurgeUser(c.Request().Context(), uid, s.config.WeeklyXp()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func intQueryParam(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.ValidationError(name + " must be an integer").WithContext(name, raw)
	}
	return value, nil
}

// compile-time check that the engine satisfies the handler contract
var _ LeaderboardService = (*leaderboard.Engine)(nil)
