package photoid

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPrefixes(t *testing.T) {
	assert.True(t, strings.HasPrefix(New(), "pv_"))
	assert.True(t, strings.HasPrefix(NewBackupID(), "bak_"))
}

func TestNewIsUnique(t *testing.T) {
	seen := make(map[string]struct{})
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				id := New()
				mu.Lock()
				_, dup := seen[id]
				seen[id] = struct{}{}
				mu.Unlock()
				assert.False(t, dup, "duplicate id %s", id)
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 8*200)
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid(New()))
	assert.False(t, IsValid(NewBackupID()), "backup ids are not photo ids")
	assert.False(t, IsValid(""))
	assert.False(t, IsValid("pv_"))
	assert.False(t, IsValid("nope_01ARZ3NDEKTSV4RRFFQ69G5FAV"))
	assert.False(t, IsValid("pv_not-a-ulid"))
}

func TestParseRoundTrip(t *testing.T) {
	id := New()
	parsed, err := Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, "pv_"+strings.ToLower(parsed.String()))

	_, err = Parse("garbage")
	assert.Error(t, err)
}

func TestSuffixLength(t *testing.T) {
	assert.Len(t, Suffix(), 8)
	assert.NotEqual(t, Suffix(), Suffix())
}
