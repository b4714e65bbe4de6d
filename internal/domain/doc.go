// Package domain contains the core leaderboard types and the contracts
// the engine consumes: the ranked store and the deferred scheduler.
// It has no dependencies on transport or storage packages.
package domain
