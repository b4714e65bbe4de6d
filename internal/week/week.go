// Package week derives the storage identifiers of the active weekly
// scoring window from wall-clock time. Pure functions, no I/O: resolving
// on every call is what makes window rollover safe without any cached
// "current window" state.
package week

import (
	"strconv"
	"time"
)

const (
	// Namespace prefixes every key the leaderboard owns in the store.
	Namespace = "xpboard:weekly-xp-leaderboard"

	scoresNamespace  = Namespace + ":scores"
	resultsNamespace = Namespace + ":results"

	// NoOverride selects the calendar week containing "now".
	NoOverride int64 = -1

	millisPerWeek int64 = 7 * 24 * 60 * 60 * 1000
)

// Keys identifies one window's pair of structures. The two keys share a
// lifecycle: they are always written and expired together.
type Keys struct {
	WeekStart  int64 // unix milliseconds, Monday 00:00 UTC
	ScoresKey  string
	ResultsKey string
}

// Start returns the unix-millisecond timestamp of Monday 00:00 UTC of
// the calendar week containing t.
func Start(t time.Time) int64 {
	t = t.UTC()
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.AddDate(0, 0, -daysSinceMonday).UnixMilli()
}

// Next returns the start of the week following weekStart.
func Next(weekStart int64) int64 {
	return weekStart + millisPerWeek
}

// For builds the window keys for an explicit week start.
func For(weekStart int64) Keys {
	return Keys{
		WeekStart:  weekStart,
		ScoresKey:  scoresKey(weekStart),
		ResultsKey: resultsKey(weekStart),
	}
}

// Resolve maps an instant to the active window's keys. An override other
// than NoOverride pins the window, used for deterministic tests and for
// addressing a past window explicitly.
func Resolve(now time.Time, override int64) Keys {
	if override != NoOverride {
		return For(override)
	}
	return For(Start(now))
}

func scoresKey(weekStart int64) string {
	return scoresNamespace + ":" + strconv.FormatInt(weekStart, 10)
}

func resultsKey(weekStart int64) string {
	return resultsNamespace + ":" + strconv.FormatInt(weekStart, 10)
}
