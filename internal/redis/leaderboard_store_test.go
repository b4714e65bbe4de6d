package redis

import (
	"context"
	"testing"
	"time"

	"github.com/keystreak/xpboard/internal/domain"
	"github.com/keystreak/xpboard/internal/week"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// weekStart is Monday 2025-06-09 00:00 UTC.
var weekStart = time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC).UnixMilli()

func testKeys() week.Keys {
	return week.For(weekStart)
}

func testExpireAt() int64 {
	return (weekStart + 15*24*60*60*1000) / 1000
}

func encodeEntry(t *testing.T, uid string, timeTyped float64) []byte {
	t.Helper()
	data, err := domain.EncodeEntry(domain.Entry{
		UID:              uid,
		Name:             "user-" + uid,
		TimeTypedSeconds: timeTyped,
	})
	require.NoError(t, err)
	return data
}

func TestAddResult_ReturnsDescendingRank(t *testing.T) {
	client := setupTestClient(t)
	store := NewLeaderboardStore(client)
	ctx := context.Background()
	keys := testKeys()

	rank, err := store.AddResult(ctx, keys.ScoresKey, keys.ResultsKey, testExpireAt(), "u1", 10, encodeEntry(t, "u1", 5))
	require.NoError(t, err)
	assert.Equal(t, int64(0), rank)

	rank, err = store.AddResult(ctx, keys.ScoresKey, keys.ResultsKey, testExpireAt(), "u2", 20, encodeEntry(t, "u2", 5))
	require.NoError(t, err)
	assert.Equal(t, int64(0), rank)

	// u1 was pushed down by u2.
	ranked, found, err := store.GetRank(ctx, keys.ScoresKey, keys.ResultsKey, "u1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(1), ranked.Rank)
	assert.Equal(t, int64(10), ranked.Score)
	assert.Equal(t, int64(2), ranked.Count)
}

func TestAddResult_IncrementsExistingScore(t *testing.T) {
	client := setupTestClient(t)
	store := NewLeaderboardStore(client)
	ctx := context.Background()
	keys := testKeys()

	_, err := store.AddResult(ctx, keys.ScoresKey, keys.ResultsKey, testExpireAt(), "u1", 100, encodeEntry(t, "u1", 30))
	require.NoError(t, err)
	_, err = store.AddResult(ctx, keys.ScoresKey, keys.ResultsKey, testExpireAt(), "u1", 50, encodeEntry(t, "u1", 50))
	require.NoError(t, err)

	ranked, found, err := store.GetRank(ctx, keys.ScoresKey, keys.ResultsKey, "u1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(150), ranked.Score)

	entry, err := domain.DecodeEntry(ranked.Data)
	require.NoError(t, err)
	assert.Equal(t, 50.0, entry.TimeTypedSeconds)
}

func TestAddResult_SetsEqualExpiryOnBothStructures(t *testing.T) {
	client := setupTestClient(t)
	store := NewLeaderboardStore(client)
	ctx := context.Background()
	keys := testKeys()

	_, err := store.AddResult(ctx, keys.ScoresKey, keys.ResultsKey, testExpireAt(), "u1", 10, encodeEntry(t, "u1", 5))
	require.NoError(t, err)

	scoresTTL, err := client.rdb.TTL(ctx, keys.ScoresKey).Result()
	require.NoError(t, err)
	resultsTTL, err := client.rdb.TTL(ctx, keys.ResultsKey).Result()
	require.NoError(t, err)

	assert.Greater(t, scoresTTL, time.Duration(0))
	assert.Greater(t, resultsTTL, time.Duration(0))

	// EXPIREAT is absolute: both structures expire at the same second.
	scoresAt, err := client.rdb.ExpireTime(ctx, keys.ScoresKey).Result()
	require.NoError(t, err)
	resultsAt, err := client.rdb.ExpireTime(ctx, keys.ResultsKey).Result()
	require.NoError(t, err)
	assert.Equal(t, scoresAt, resultsAt)
	assert.Equal(t, time.Duration(testExpireAt())*time.Second, scoresAt)
}

func TestGetResults_ParallelBlobsAndScores(t *testing.T) {
	client := setupTestClient(t)
	store := NewLeaderboardStore(client)
	ctx := context.Background()
	keys := testKeys()

	for i, uid := range []string{"u1", "u2", "u3"} {
		_, err := store.AddResult(ctx, keys.ScoresKey, keys.ResultsKey, testExpireAt(), uid, int64(30-i*10), encodeEntry(t, uid, 5))
		require.NoError(t, err)
	}

	blobs, scores, err := store.GetResults(ctx, keys.ScoresKey, keys.ResultsKey, 0, 1)
	require.NoError(t, err)
	require.Len(t, blobs, 2)
	require.Len(t, scores, 2)

	first, err := domain.DecodeEntry(blobs[0])
	require.NoError(t, err)
	assert.Equal(t, "u1", first.UID)
	assert.Equal(t, int64(30), scores[0])

	second, err := domain.DecodeEntry(blobs[1])
	require.NoError(t, err)
	assert.Equal(t, "u2", second.UID)
	assert.Equal(t, int64(20), scores[1])
}

func TestGetResults_EmptyWindow(t *testing.T) {
	client := setupTestClient(t)
	store := NewLeaderboardStore(client)
	ctx := context.Background()
	keys := testKeys()

	blobs, scores, err := store.GetResults(ctx, keys.ScoresKey, keys.ResultsKey, 0, 9)
	require.NoError(t, err)
	assert.NotNil(t, blobs)
	assert.NotNil(t, scores)
	assert.Empty(t, blobs)
	assert.Empty(t, scores)
}

func TestGetResults_MissingMetadataYieldsNilSlot(t *testing.T) {
	client := setupTestClient(t)
	store := NewLeaderboardStore(client)
	ctx := context.Background()
	keys := testKeys()

	// A uid in the sorted structure without a metadata record violates
	// the pairing invariant; the store reports it as a nil blob slot.
	require.NoError(t, client.rdb.ZAdd(ctx, keys.ScoresKey, goredis.Z{Score: 10, Member: "orphan"}).Err())

	blobs, scores, err := store.GetResults(ctx, keys.ScoresKey, keys.ResultsKey, 0, 0)
	require.NoError(t, err)
	require.Len(t, blobs, 1)
	require.Len(t, scores, 1)
	assert.Nil(t, blobs[0])
	assert.Equal(t, int64(10), scores[0])
}

func TestGetRank_AbsentUser(t *testing.T) {
	client := setupTestClient(t)
	store := NewLeaderboardStore(client)
	ctx := context.Background()
	keys := testKeys()

	_, found, err := store.GetRank(ctx, keys.ScoresKey, keys.ResultsKey, "ghost")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCount(t *testing.T) {
	client := setupTestClient(t)
	store := NewLeaderboardStore(client)
	ctx := context.Background()
	keys := testKeys()

	count, err := store.Count(ctx, keys.ScoresKey)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	_, err = store.AddResult(ctx, keys.ScoresKey, keys.ResultsKey, testExpireAt(), "u1", 10, encodeEntry(t, "u1", 5))
	require.NoError(t, err)

	count, err = store.Count(ctx, keys.ScoresKey)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestPurgeUser_RemovesAllWindows(t *testing.T) {
	client := setupTestClient(t)
	store := NewLeaderboardStore(client)
	ctx := context.Background()

	thisWeek := week.For(weekStart)
	lastWeek := week.For(weekStart - 7*24*60*60*1000)

	for _, keys := range []week.Keys{thisWeek, lastWeek} {
		_, err := store.AddResult(ctx, keys.ScoresKey, keys.ResultsKey, testExpireAt(), "u1", 10, encodeEntry(t, "u1", 5))
		require.NoError(t, err)
		_, err = store.AddResult(ctx, keys.ScoresKey, keys.ResultsKey, testExpireAt(), "u2", 20, encodeEntry(t, "u2", 5))
		require.NoError(t, err)
	}

	require.NoError(t, store.PurgeUser(ctx, week.Namespace, "u1"))

	for _, keys := range []week.Keys{thisWeek, lastWeek} {
		_, found, err := store.GetRank(ctx, keys.ScoresKey, keys.ResultsKey, "u1")
		require.NoError(t, err)
		assert.False(t, found)

		data, err := store.GetEntryData(ctx, keys.ResultsKey, "u1")
		require.NoError(t, err)
		assert.Nil(t, data)

		// Other users are untouched.
		_, found, err = store.GetRank(ctx, keys.ScoresKey, keys.ResultsKey, "u2")
		require.NoError(t, err)
		assert.True(t, found)
	}
}

func TestGetEntryData(t *testing.T) {
	client := setupTestClient(t)
	store := NewLeaderboardStore(client)
	ctx := context.Background()
	keys := testKeys()

	data, err := store.GetEntryData(ctx, keys.ResultsKey, "u1")
	require.NoError(t, err)
	assert.Nil(t, data)

	blob := encodeEntry(t, "u1", 5)
	_, err = store.AddResult(ctx, keys.ScoresKey, keys.ResultsKey, testExpireAt(), "u1", 10, blob)
	require.NoError(t, err)

	data, err = store.GetEntryData(ctx, keys.ResultsKey, "u1")
	require.NoError(t, err)
	assert.Equal(t, blob, data)
}
