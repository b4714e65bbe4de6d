// Package redis implements the ranked store contract and the deferred
// scheduler on top of a Redis instance. Multi-structure writes go
// through Lua scripts so score, metadata, and expiry can never be
// observed partially applied.
package redis
