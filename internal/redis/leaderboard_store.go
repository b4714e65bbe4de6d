package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/keystreak/xpboard/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

// Lua scripts for the weekly leaderboard. Each script touches the sorted
// score structure and the metadata hash of one window together, so no
// reader can observe a score without its metadata or a window without an
// expiry.

// addResultScript increments the member's score, overwrites its metadata
// blob, refreshes the expiry of both keys, and reports the member's new
// descending rank.
// KEYS: [1]=scores zset, [2]=results hash
// ARGV: [1]=expire_at (unix seconds), [2]=uid, [3]=xp_gained, [4]=blob
var addResultScript = goredis.NewScript(`
redis.call('ZINCRBY', KEYS[1], ARGV[3], ARGV[2])
redis.call('HSET', KEYS[2], ARGV[2], ARGV[4])
redis.call('EXPIREAT', KEYS[1], ARGV[1])
redis.call('EXPIREAT', KEYS[2], ARGV[1])
return redis.call('ZREVRANK', KEYS[1], ARGV[2])
`)

// getResultsScript reads a descending rank range and the matching
// metadata blobs in one pass, returning two parallel arrays. A missing
// hash field yields a nil blob slot.
// KEYS: [1]=scores zset, [2]=results hash
// ARGV: [1]=min_rank, [2]=max_rank
var getResultsScript = goredis.NewScript(`
local range = redis.call('ZREVRANGE', KEYS[1], ARGV[1], ARGV[2], 'WITHSCORES')
local blobs = {}
local scores = {}
for i = 1, #range, 2 do
	blobs[#blobs + 1] = redis.call('HGET', KEYS[2], range[i])
	scores[#scores + 1] = range[i + 1]
end
return {blobs, scores}
`)

// purgeUserScript removes a uid from every window under the namespace,
// scores and results alike. KEYS against a pattern is acceptable here:
// the design assumes a single logical Redis per window namespace and the
// key population is one pair per retained week.
// ARGV: [1]=uid, [2]=namespace
var purgeUserScript = goredis.NewScript(`
local keys = redis.call('KEYS', ARGV[2] .. ':*')
for _, key in ipairs(keys) do
	if string.find(key, ':scores:', 1, true) then
		redis.call('ZREM', key, ARGV[1])
	else
		redis.call('HDEL', key, ARGV[1])
	end
end
return redis.status_reply('OK')
`)

// LeaderboardStore implements domain.LeaderboardStore on Redis.
type LeaderboardStore struct {
	rdb *goredis.Client
}

var _ domain.LeaderboardStore = (*LeaderboardStore)(nil)

// NewLeaderboardStore creates a store backed by the given client.
func NewLeaderboardStore(client *Client) *LeaderboardStore {
	return &LeaderboardStore{rdb: client.rdb}
}

// AddResult runs the atomic submit script and returns the 0-based
// descending rank of uid after the increment.
func (s *LeaderboardStore) AddResult(ctx context.Context, scoresKey, resultsKey string, expireAt int64, uid string, xpGained int64, data []byte) (int64, error) {
	rank, err := addResultScript.Run(ctx, s.rdb, []string{scoresKey, resultsKey},
		strconv.FormatInt(expireAt, 10),
		uid,
		strconv.FormatInt(xpGained, 10),
		string(data),
	).Int64()
	if err != nil {
		return 0, fmt.Errorf("add result script failed: %w", err)
	}
	return rank, nil
}

// GetEntryData reads the metadata blob of uid, (nil, nil) when absent.
func (s *LeaderboardStore) GetEntryData(ctx context.Context, resultsKey, uid string) ([]byte, error) {
	data, err := s.rdb.HGet(ctx, resultsKey, uid).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read entry data: %w", err)
	}
	return data, nil
}

// GetResults runs the range script and splits its reply into parallel
// blob and score slices.
func (s *LeaderboardStore) GetResults(ctx context.Context, scoresKey, resultsKey string, minRank, maxRank int64) ([][]byte, []int64, error) {
	reply, err := getResultsScript.Run(ctx, s.rdb, []string{scoresKey, resultsKey},
		strconv.FormatInt(minRank, 10),
		strconv.FormatInt(maxRank, 10),
	).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("get results script failed: %w", err)
	}

	pair, ok := reply.([]interface{})
	if !ok || len(pair) != 2 {
		return nil, nil, fmt.Errorf("get results script returned unexpected shape %T", reply)
	}

	rawBlobs, ok := pair[0].([]interface{})
	if !ok {
		return nil, nil, fmt.Errorf("get results script returned unexpected blobs shape %T", pair[0])
	}
	rawScores, ok := pair[1].([]interface{})
	if !ok {
		return nil, nil, fmt.Errorf("get results script returned unexpected scores shape %T", pair[1])
	}

	blobs := make([][]byte, len(rawBlobs))
	for i, raw := range rawBlobs {
		if raw == nil {
			continue
		}
		str, ok := raw.(string)
		if !ok {
			return nil, nil, fmt.Errorf("get results script returned non-string blob %T", raw)
		}
		blobs[i] = []byte(str)
	}

	scores := make([]int64, len(rawScores))
	for i, raw := range rawScores {
		str, ok := raw.(string)
		if !ok {
			return nil, nil, fmt.Errorf("get results script returned non-string score %T", raw)
		}
		score, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("get results script returned invalid score %q: %w", str, err)
		}
		scores[i] = int64(score)
	}

	return blobs, scores, nil
}

// GetRank reads rank, score, cardinality, and metadata of uid in one
// MULTI/EXEC transaction.
func (s *LeaderboardStore) GetRank(ctx context.Context, scoresKey, resultsKey, uid string) (domain.RankedEntry, bool, error) {
	pipe := s.rdb.TxPipeline()
	rankCmd := pipe.ZRevRank(ctx, scoresKey, uid)
	scoreCmd := pipe.ZScore(ctx, scoresKey, uid)
	cardCmd := pipe.ZCard(ctx, scoresKey)
	dataCmd := pipe.HGet(ctx, resultsKey, uid)

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, goredis.Nil) {
		return domain.RankedEntry{}, false, fmt.Errorf("rank transaction failed: %w", err)
	}

	if errors.Is(rankCmd.Err(), goredis.Nil) {
		return domain.RankedEntry{}, false, nil
	}
	if err := rankCmd.Err(); err != nil {
		return domain.RankedEntry{}, false, fmt.Errorf("failed to read rank: %w", err)
	}

	entry := domain.RankedEntry{
		Rank:  rankCmd.Val(),
		Count: cardCmd.Val(),
	}

	if err := scoreCmd.Err(); err == nil {
		entry.Score = int64(scoreCmd.Val())
	} else if !errors.Is(err, goredis.Nil) {
		return domain.RankedEntry{}, false, fmt.Errorf("failed to read score: %w", err)
	}

	if err := dataCmd.Err(); err == nil {
		entry.Data = []byte(dataCmd.Val())
	} else if !errors.Is(err, goredis.Nil) {
		return domain.RankedEntry{}, false, fmt.Errorf("failed to read entry data: %w", err)
	}

	return entry, true, nil
}

// Count returns the cardinality of the window's sorted structure.
func (s *LeaderboardStore) Count(ctx context.Context, scoresKey string) (int64, error) {
	count, err := s.rdb.ZCard(ctx, scoresKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count leaderboard entries: %w", err)
	}
	return count, nil
}

// PurgeUser removes uid from both structures of every retained window.
func (s *LeaderboardStore) PurgeUser(ctx context.Context, namespace, uid string) error {
	if err := purgeUserScript.Run(ctx, s.rdb, []string{}, uid, namespace).Err(); err != nil {
		return fmt.Errorf("purge user script failed: %w", err)
	}
	return nil
}
