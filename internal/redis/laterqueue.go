package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/keystreak/xpboard/internal/domain"
	"github.com/keystreak/xpboard/internal/metrics"
	"github.com/keystreak/xpboard/internal/week"
	goredis "github.com/redis/go-redis/v9"
)

const (
	laterQueueScheduledKey = "xpboard:later-queue:scheduled"
	laterQueueDedupPrefix  = "xpboard:later-queue:pending:"

	// dedup markers outlive the fire time so a consumer crash cannot
	// produce a second schedule for an already-fired week
	dedupGrace = 24 * time.Hour
)

// scheduleScript writes the dedup marker and the scheduled member in one
// script, so a marker can never exist without its member. Returns 1 when
// the schedule was created, 0 when it already existed this week.
// KEYS: [1]=dedup marker, [2]=scheduled zset
// ARGV: [1]=member, [2]=marker TTL ms, [3]=fire time (unix ms)
var scheduleScript = goredis.NewScript(`
if redis.call('SET', KEYS[1], '1', 'NX', 'PX', ARGV[2]) == false then
	return 0
end
redis.call('ZADD', KEYS[2], ARGV[3], ARGV[1])
return 1
`)

// LaterQueue is the Redis-backed deferred scheduler. An entry scheduled
// for next week is a member of a fire-time-ordered sorted set; a marker
// key collapses repeated schedules of the same (name, tag) within a
// week. Consumers poll the sorted set out of band, so delivery is
// at-least-once.
type LaterQueue struct {
	rdb   *goredis.Client
	clock clockwork.Clock
}

var _ domain.Scheduler = (*LaterQueue)(nil)

// NewLaterQueue creates a scheduler backed by the given client.
func NewLaterQueue(client *Client, clock clockwork.Clock) *LaterQueue {
	return &LaterQueue{rdb: client.rdb, clock: clock}
}

// ScheduleForNextWeek enqueues a one-shot action keyed by (name, tag)
// that fires no earlier than the start of next week. Duplicate schedules
// within the same week are collapsed.
func (q *LaterQueue) ScheduleForNextWeek(ctx context.Context, name, tag string) error {
	now := q.clock.Now()
	fireAt := week.Next(week.Start(now))
	member := name + ":" + tag + ":" + strconv.FormatInt(fireAt, 10)
	markerTTL := fireAt - now.UnixMilli() + dedupGrace.Milliseconds()

	created, err := scheduleScript.Run(ctx, q.rdb,
		[]string{laterQueueDedupPrefix + member, laterQueueScheduledKey},
		member,
		strconv.FormatInt(markerTTL, 10),
		strconv.FormatInt(fireAt, 10),
	).Int64()
	if err != nil {
		return fmt.Errorf("failed to schedule for next week: %w", err)
	}

	if created == 0 {
		metrics.RotationsScheduled.WithLabelValues("duplicate").Inc()
		return nil
	}

	metrics.RotationsScheduled.WithLabelValues("scheduled").Inc()
	return nil
}
