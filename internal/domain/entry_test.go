package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryJSON_ZeroComputedFieldsAreSerialized(t *testing.T) {
	entry := Entry{UID: "u1", Name: "user-u1", Rank: 1}

	data, err := json.Marshal(entry)
	require.NoError(t, err)

	// A zero-XP entry still reports its score and rank.
	assert.Contains(t, string(data), `"totalXp":0`)
	assert.Contains(t, string(data), `"rank":1`)
}

func TestEncodeEntry_ZeroesComputedFields(t *testing.T) {
	data, err := EncodeEntry(Entry{UID: "u1", Rank: 3, TotalXp: 150})
	require.NoError(t, err)

	entry, err := DecodeEntry(data)
	require.NoError(t, err)
	assert.Equal(t, int64(0), entry.Rank)
	assert.Equal(t, int64(0), entry.TotalXp)
}

func TestDecodeEntry_RejectsInvalidBlobs(t *testing.T) {
	_, err := DecodeEntry([]byte("not json"))
	assert.Error(t, err)

	_, err = DecodeEntry([]byte(`{"name":"no-uid"}`))
	assert.Error(t, err)
}
