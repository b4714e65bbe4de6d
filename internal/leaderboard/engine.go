package leaderboard

import (
	"context"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"github.com/keystreak/xpboard/internal/domain"
	"github.com/keystreak/xpboard/internal/errors"
	"github.com/keystreak/xpboard/internal/metrics"
	"github.com/keystreak/xpboard/internal/week"
)

const (
	// RankDisabled is the sentinel AddResult returns when the leaderboard
	// is disabled or no store is wired. It is not an error: callers treat
	// it as "no-op, no rank".
	RankDisabled int64 = -1

	rotationTaskName = "weekly-xp-leaderboard-results"
	rotationTaskTag  = "weekly-xp"

	millisPerDay int64 = 24 * 60 * 60 * 1000
)

// Engine is the weekly XP leaderboard. Safe for concurrent use: window
// keys are derived from the clock on every call and all shared state
// lives in the store.
type Engine struct {
	store        domain.LeaderboardStore // nil when no store is configured
	scheduler    domain.Scheduler        // nil disables rotation scheduling
	clock        clockwork.Clock
	weekOverride int64
}

// Option configures an Engine.
type Option func(*Engine)

// WithFixedWeek pins every operation to an explicit window start instead
// of the calendar week of the clock. Used by tests and backfills.
func WithFixedWeek(weekStart int64) Option {
	return func(e *Engine) {
		e.weekOverride = weekStart
	}
}

// NewEngine creates the leaderboard engine. A nil store puts every
// operation into its documented unavailable behavior.
func NewEngine(store domain.LeaderboardStore, scheduler domain.Scheduler, clock clockwork.Clock, opts ...Option) *Engine {
	e := &Engine{
		store:        store,
		scheduler:    scheduler,
		clock:        clock,
		weekOverride: week.NoOverride,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) keys() week.Keys {
	return week.Resolve(e.clock.Now(), e.weekOverride)
}

func (e *Engine) available(cfg domain.WeeklyXpConfig) bool {
	return e.store != nil && cfg.Enabled
}

// AddResult submits xpGained for entry.UID in the current window and
// returns the user's new 1-based descending rank, or RankDisabled when
// the leaderboard is off. Score increment, metadata overwrite, and
// expiry refresh are applied as one atomic store operation.
//
// The timeTypedSeconds merge is read-then-write: two concurrent submits
// for the same uid can both read the same prior value and one
// accumulation can be lost. The score increment itself is atomic and
// never miscounts. This mirrors the upstream behavior on purpose; see
// DESIGN.md.
func (e *Engine) AddResult(ctx context.Context, cfg domain.WeeklyXpConfig, entry domain.Entry, xpGained int64, timeTypedSeconds float64) (int64, error) {
	if xpGained < 0 {
		return 0, errors.ValidationError("xpGained must be non-negative").WithContext("xpGained", xpGained)
	}
	if timeTypedSeconds < 0 {
		return 0, errors.ValidationError("timeTypedSeconds must be non-negative")
	}

	if !e.available(cfg) {
		metrics.SubmitsTotal.WithLabelValues("disabled").Inc()
		return RankDisabled, nil
	}

	keys := e.keys()
	expireAt := (keys.WeekStart + int64(cfg.ExpirationTimeInDays)*millisPerDay) / 1000

	prior, err := e.store.GetEntryData(ctx, keys.ResultsKey, entry.UID)
	if err != nil {
		metrics.SubmitsTotal.WithLabelValues("error").Inc()
		return 0, errors.UnavailableError("failed to read prior leaderboard entry", err)
	}
	if prior != nil {
		previous, err := domain.DecodeEntry(prior)
		if err != nil {
			metrics.SubmitsTotal.WithLabelValues("error").Inc()
			return 0, errors.InternalError("corrupt leaderboard entry", err).WithContext("uid", entry.UID)
		}
		timeTypedSeconds += previous.TimeTypedSeconds
	}
	entry.TimeTypedSeconds = timeTypedSeconds

	data, err := domain.EncodeEntry(entry)
	if err != nil {
		metrics.SubmitsTotal.WithLabelValues("error").Inc()
		return 0, errors.InternalError("failed to encode leaderboard entry", err)
	}

	rank, err := e.store.AddResult(ctx, keys.ScoresKey, keys.ResultsKey, expireAt, entry.UID, xpGained, data)
	if err != nil {
		metrics.SubmitsTotal.WithLabelValues("error").Inc()
		return 0, errors.UnavailableError("failed to submit leaderboard result", err)
	}

	// The schedule is retried on every submit and deduplicated by the
	// scheduler, so a single failure here only delays the notification
	// until the next submit. The submit itself already succeeded.
	if e.scheduler != nil {
		if err := e.scheduler.ScheduleForNextWeek(ctx, rotationTaskName, rotationTaskTag); err != nil {
			slog.Warn("Failed to schedule rotation notification", "error", err, "week_start", keys.WeekStart)
		}
	}

	metrics.SubmitsTotal.WithLabelValues("ok").Inc()
	return rank + 1, nil
}

// GetResults returns one page of the current window in descending score
// order, ranks attached. Disabled or storeless engines return an empty
// page.
func (e *Engine) GetResults(ctx context.Context, page, pageSize int, cfg domain.WeeklyXpConfig, premiumEntitled bool) ([]domain.Entry, error) {
	if !e.available(cfg) {
		metrics.QueriesTotal.WithLabelValues("results", "disabled").Inc()
		return []domain.Entry{}, nil
	}

	if page < 0 || pageSize < 0 {
		return nil, errors.ValidationError("invalid page or pageSize").
			WithContext("page", page).
			WithContext("pageSize", pageSize)
	}

	// A zero-size page stops here: maxRank of -1 would read to the end of
	// the range in the store's reverse-range semantics.
	if pageSize == 0 {
		metrics.QueriesTotal.WithLabelValues("results", "ok").Inc()
		return []domain.Entry{}, nil
	}

	minRank := int64(page) * int64(pageSize)
	maxRank := minRank + int64(pageSize) - 1

	keys := e.keys()
	blobs, scores, err := e.store.GetResults(ctx, keys.ScoresKey, keys.ResultsKey, minRank, maxRank)
	if err != nil {
		metrics.QueriesTotal.WithLabelValues("results", "error").Inc()
		return nil, errors.UnavailableError("failed to read leaderboard results", err)
	}

	if blobs == nil || scores == nil {
		metrics.QueriesTotal.WithLabelValues("results", "error").Inc()
		return nil, errors.InternalError("store returned no results or scores", nil)
	}
	if len(blobs) != len(scores) {
		metrics.QueriesTotal.WithLabelValues("results", "error").Inc()
		return nil, errors.InternalError("results and scores are out of step", nil).
			WithContext("results", len(blobs)).
			WithContext("scores", len(scores))
	}

	entries := make([]domain.Entry, 0, len(blobs))
	for i, blob := range blobs {
		if blob == nil {
			metrics.QueriesTotal.WithLabelValues("results", "error").Inc()
			return nil, errors.InternalError("ranked entry has no metadata record", nil).WithContext("rank", minRank+int64(i)+1)
		}

		entry, err := domain.DecodeEntry(blob)
		if err != nil {
			metrics.QueriesTotal.WithLabelValues("results", "error").Inc()
			return nil, errors.InternalError("corrupt leaderboard entry", err)
		}

		entry.Rank = minRank + int64(i) + 1
		entry.TotalXp = scores[i]
		if !premiumEntitled {
			entry = entry.StripPremium()
		}
		entries = append(entries, entry)
	}

	metrics.QueriesTotal.WithLabelValues("results", "ok").Inc()
	return entries, nil
}

// GetRank returns the entry of uid in the current window, or nil when
// the user is not ranked. Unlike GetResults, a disabled or storeless
// engine is a hard error here: rank lookup callers must be able to tell
// "feature off" from "not ranked".
func (e *Engine) GetRank(ctx context.Context, uid string, cfg domain.WeeklyXpConfig) (*domain.Entry, error) {
	if !e.available(cfg) {
		metrics.QueriesTotal.WithLabelValues("rank", "disabled").Inc()
		return nil, errors.UnavailableError("weekly xp leaderboard is unavailable", nil)
	}

	keys := e.keys()
	ranked, found, err := e.store.GetRank(ctx, keys.ScoresKey, keys.ResultsKey, uid)
	if err != nil {
		metrics.QueriesTotal.WithLabelValues("rank", "error").Inc()
		return nil, errors.UnavailableError("failed to read leaderboard rank", err)
	}
	if !found {
		metrics.QueriesTotal.WithLabelValues("rank", "ok").Inc()
		return nil, nil
	}

	if ranked.Data == nil {
		metrics.QueriesTotal.WithLabelValues("rank", "error").Inc()
		return nil, errors.InternalError("ranked entry has no metadata record", nil).WithContext("uid", uid)
	}

	entry, err := domain.DecodeEntry(ranked.Data)
	if err != nil {
		metrics.QueriesTotal.WithLabelValues("rank", "error").Inc()
		return nil, errors.InternalError("corrupt leaderboard entry", err).WithContext("uid", uid)
	}

	entry.Rank = ranked.Rank + 1
	entry.TotalXp = ranked.Score

	metrics.QueriesTotal.WithLabelValues("rank", "ok").Inc()
	return &entry, nil
}

// GetCount returns the number of ranked users in the current window.
// Zero always means a genuinely empty window: an unreachable store is a
// hard error, never a silent zero.
func (e *Engine) GetCount(ctx context.Context) (int64, error) {
	if e.store == nil {
		metrics.QueriesTotal.WithLabelValues("count", "disabled").Inc()
		return 0, errors.UnavailableError("weekly xp leaderboard store is unavailable", nil)
	}

	keys := e.keys()
	count, err := e.store.Count(ctx, keys.ScoresKey)
	if err != nil {
		metrics.QueriesTotal.WithLabelValues("count", "error").Inc()
		return 0, errors.UnavailableError("failed to count leaderboard entries", err)
	}

	metrics.QueriesTotal.WithLabelValues("count", "ok").Inc()
	return count, nil
}

// PurgeUser removes every trace of uid from all windows, past and
// future. A disabled or storeless engine is a no-op.
func (e *Engine) PurgeUser(ctx context.Context, uid string, cfg domain.WeeklyXpConfig) error {
	if !e.available(cfg) {
		metrics.PurgesTotal.WithLabelValues("disabled").Inc()
		return nil
	}

	if err := e.store.PurgeUser(ctx, week.Namespace, uid); err != nil {
		metrics.PurgesTotal.WithLabelValues("error").Inc()
		return errors.UnavailableError("failed to purge user from leaderboard", err)
	}

	metrics.PurgesTotal.WithLabelValues("ok").Inc()
	return nil
}
