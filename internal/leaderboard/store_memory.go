package leaderboard

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/keystreak/xpboard/internal/domain"
	"github.com/keystreak/xpboard/internal/week"
)

type memoryWindow struct {
	scoresKey  string
	resultsKey string
	scores     map[string]int64
	blobs      map[string][]byte
	expireAt   int64
}

// InMemoryStore implements the store contract in process, for
// development mode and unit tests. A single mutex stands in for the
// store's atomicity guarantee.
type InMemoryStore struct {
	mu        sync.Mutex
	windows   map[string]*memoryWindow // keyed by scores key
	byResults map[string]string        // results key -> scores key
}

var _ domain.LeaderboardStore = (*InMemoryStore)(nil)

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		windows:   make(map[string]*memoryWindow),
		byResults: make(map[string]string),
	}
}

func (s *InMemoryStore) window(scoresKey, resultsKey string) *memoryWindow {
	w, ok := s.windows[scoresKey]
	if !ok {
		w = &memoryWindow{
			scoresKey:  scoresKey,
			resultsKey: resultsKey,
			scores:     make(map[string]int64),
			blobs:      make(map[string][]byte),
		}
		s.windows[scoresKey] = w
		s.byResults[resultsKey] = scoresKey
	}
	return w
}

// rankedUIDs orders members by descending score, ties by descending uid,
// matching the store's reverse-range ordering.
func (w *memoryWindow) rankedUIDs() []string {
	uids := make([]string, 0, len(w.scores))
	for uid := range w.scores {
		uids = append(uids, uid)
	}
	sort.Slice(uids, func(i, j int) bool {
		if w.scores[uids[i]] != w.scores[uids[j]] {
			return w.scores[uids[i]] > w.scores[uids[j]]
		}
		return uids[i] > uids[j]
	})
	return uids
}

func (s *InMemoryStore) AddResult(_ context.Context, scoresKey, resultsKey string, expireAt int64, uid string, xpGained int64, data []byte) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.window(scoresKey, resultsKey)
	w.scores[uid] += xpGained
	w.blobs[uid] = data
	w.expireAt = expireAt

	for rank, member := range w.rankedUIDs() {
		if member == uid {
			return int64(rank), nil
		}
	}
	return 0, nil
}

func (s *InMemoryStore) GetEntryData(_ context.Context, resultsKey, uid string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	scoresKey, ok := s.byResults[resultsKey]
	if !ok {
		return nil, nil
	}
	data, ok := s.windows[scoresKey].blobs[uid]
	if !ok {
		return nil, nil
	}
	return data, nil
}

func (s *InMemoryStore) GetResults(_ context.Context, scoresKey, _ string, minRank, maxRank int64) ([][]byte, []int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blobs := [][]byte{}
	scores := []int64{}

	w, ok := s.windows[scoresKey]
	if !ok {
		return blobs, scores, nil
	}

	ranked := w.rankedUIDs()
	for rank := minRank; rank <= maxRank && rank < int64(len(ranked)); rank++ {
		if rank < 0 {
			continue
		}
		uid := ranked[rank]
		blobs = append(blobs, w.blobs[uid])
		scores = append(scores, w.scores[uid])
	}
	return blobs, scores, nil
}

func (s *InMemoryStore) GetRank(_ context.Context, scoresKey, _, uid string) (domain.RankedEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[scoresKey]
	if !ok {
		return domain.RankedEntry{}, false, nil
	}
	if _, ok := w.scores[uid]; !ok {
		return domain.RankedEntry{}, false, nil
	}

	for rank, member := range w.rankedUIDs() {
		if member == uid {
			return domain.RankedEntry{
				Rank:  int64(rank),
				Score: w.scores[uid],
				Count: int64(len(w.scores)),
				Data:  w.blobs[uid],
			}, true, nil
		}
	}
	return domain.RankedEntry{}, false, nil
}

func (s *InMemoryStore) Count(_ context.Context, scoresKey string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[scoresKey]
	if !ok {
		return 0, nil
	}
	return int64(len(w.scores)), nil
}

func (s *InMemoryStore) PurgeUser(_ context.Context, namespace, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for scoresKey, w := range s.windows {
		if !strings.HasPrefix(scoresKey, namespace+":") {
			continue
		}
		delete(w.scores, uid)
		delete(w.blobs, uid)
	}
	return nil
}

// WindowExpiry reports the expiry recorded for a window, for tests.
func (s *InMemoryStore) WindowExpiry(scoresKey string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[scoresKey]
	if !ok {
		return 0, false
	}
	return w.expireAt, true
}

// InMemoryScheduler collapses deferred notifications by (name, tag,
// week) like the Redis-backed queue, without persistence.
type InMemoryScheduler struct {
	clock clockwork.Clock

	mu        sync.Mutex
	scheduled map[string]int
}

var _ domain.Scheduler = (*InMemoryScheduler)(nil)

func NewInMemoryScheduler(clock clockwork.Clock) *InMemoryScheduler {
	return &InMemoryScheduler{
		clock:     clock,
		scheduled: make(map[string]int),
	}
}

func (s *InMemoryScheduler) ScheduleForNextWeek(_ context.Context, name, tag string) error {
	fireAt := week.Next(week.Start(s.clock.Now()))
	member := name + ":" + tag + ":" + strconv.FormatInt(fireAt, 10)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduled[member]++
	return nil
}

// Pending returns the distinct scheduled members, for tests.
func (s *InMemoryScheduler) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := make([]string, 0, len(s.scheduled))
	for member := range s.scheduled {
		members = append(members, member)
	}
	sort.Strings(members)
	return members
}
