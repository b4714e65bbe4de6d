// Package leaderboard owns the read/write protocol of the weekly XP
// leaderboard: atomic submits, paginated and single-user rank reads,
// cardinality, and compliance purges. All cross-call coordination is
// delegated to the store's atomic operations; the engine holds no
// mutable state of its own.
package leaderboard
