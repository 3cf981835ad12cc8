package util

import (
	"sort"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewULID(t *testing.T) {
	ids := make([]string, 50)
	for i := range ids {
		ids[i] = NewULID()
		_, err := ulid.ParseStrict(ids[i])
		require.NoError(t, err)
	}
	assert.True(t, sort.StringsAreSorted(ids), "ids are monotonic")
}

func TestHashString(t *testing.T) {
	assert.Len(t, HashString("x"), 64)
	assert.Equal(t, HashString("a", "b"), HashString("a", "b"))
	assert.NotEqual(t, HashString("ab", "c"), HashString("a", "bc"))
	assert.NotEqual(t, HashString("a"), HashString("a", ""))
}
