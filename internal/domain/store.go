package domain

import "context"

// RankedEntry is the raw result of a single-user rank lookup, read in
// one store transaction so the fields are mutually consistent.
type RankedEntry struct {
	Rank  int64 // 0-based descending rank
	Score int64
	Count int64  // window cardinality, read for future use
	Data  []byte // metadata blob, nil when the invariant is broken
}

// LeaderboardStore is the contract over the ranked key-value engine.
// Every method marked atomic guarantees that no caller anywhere can
// observe a partially-applied effect of that operation.
type LeaderboardStore interface {
	// AddResult atomically increments uid's score in the sorted structure,
	// overwrites its metadata blob in the keyed structure, and sets the
	// expiry of both structures to expireAt (unix seconds). Returns the
	// 0-based descending rank of uid after the update.
	AddResult(ctx context.Context, scoresKey, resultsKey string, expireAt int64, uid string, xpGained int64, data []byte) (int64, error)

	// GetEntryData reads uid's metadata blob. Returns (nil, nil) when the
	// uid has no entry this window.
	GetEntryData(ctx context.Context, resultsKey, uid string) ([]byte, error)

	// GetResults reads the descending rank range [minRank, maxRank] and
	// returns the metadata blobs and scores as parallel slices produced in
	// a single atomic pass. A blob slot is nil when the sorted structure
	// holds a uid with no metadata record (invariant violation, the caller
	// decides how to surface it).
	GetResults(ctx context.Context, scoresKey, resultsKey string, minRank, maxRank int64) ([][]byte, []int64, error)

	// GetRank reads rank, score, cardinality, and metadata of uid in one
	// transaction. Returns found=false when uid is not ranked this window.
	GetRank(ctx context.Context, scoresKey, resultsKey, uid string) (RankedEntry, bool, error)

	// Count returns the cardinality of the window's sorted structure.
	Count(ctx context.Context, scoresKey string) (int64, error)

	// PurgeUser removes every trace of uid under the namespace, across all
	// windows past and future.
	PurgeUser(ctx context.Context, namespace, uid string) error
}

// Scheduler arranges deferred one-shot actions that fire no earlier than
// the start of the next week. Delivery is at-least-once, deduplicated by
// (name, tag) within a week. The engine never observes the action itself.
type Scheduler interface {
	ScheduleForNextWeek(ctx context.Context, name, tag string) error
}
