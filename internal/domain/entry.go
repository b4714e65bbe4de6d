package domain

import (
	"encoding/json"
	"fmt"
)

// Entry is one row of the weekly XP leaderboard.
//
// The metadata fields (everything except Rank and TotalXp) round-trip
// through the store as a JSON blob keyed by UID. Rank and TotalXp are
// computed from the sorted structure on every read and are never part
// of the stored blob.
type Entry struct {
	UID                   string  `json:"uid"`
	Name                  string  `json:"name"`
	DiscordID             string  `json:"discordId,omitempty"`
	DiscordAvatar         string  `json:"discordAvatar,omitempty"`
	BadgeID               int64   `json:"badgeId,omitempty"`
	LastActivityTimestamp int64   `json:"lastActivityTimestamp"`
	IsPremium             *bool   `json:"isPremium,omitempty"`
	TimeTypedSeconds      float64 `json:"timeTypedSeconds"`

	// Computed on read: always serialized, a zero-XP entry still carries
	// its totalXp.
	Rank    int64 `json:"rank"`
	TotalXp int64 `json:"totalXp"`
}

// StripPremium removes the premium flag from the entry. Applied to every
// row returned to callers without premium entitlement.
func (e Entry) StripPremium() Entry {
	e.IsPremium = nil
	return e
}

// EncodeEntry serializes the metadata snapshot for storage. Rank and
// TotalXp are zeroed so they never leak into the blob.
func EncodeEntry(e Entry) ([]byte, error) {
	e.Rank = 0
	e.TotalXp = 0
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode leaderboard entry: %w", err)
	}
	return data, nil
}

// DecodeEntry parses a stored metadata blob. A blob that does not parse
// or lacks a uid violates the store invariant and is rejected here
// rather than coerced.
func DecodeEntry(data []byte) (Entry, error) {
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, fmt.Errorf("failed to decode leaderboard entry: %w", err)
	}
	if e.UID == "" {
		return Entry{}, fmt.Errorf("leaderboard entry blob has no uid")
	}
	return e, nil
}
