package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetGet(t *testing.T) {
	c := New(10, time.Minute)

	c.Set("k", "v")
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", got)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCache_TTLExpiry(t *testing.T) {
	c := New(10, 20*time.Millisecond)

	c.Set("k", "v")
	_, ok := c.Get("k")
	require.True(t, ok)

	time.Sleep(50 * time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestCache_Delete(t *testing.T) {
	c := New(10, time.Minute)

	c.Set("k", 1)
	c.Delete("k")
	assert.False(t, c.Exists("k"))
}

func TestCache_Eviction(t *testing.T) {
	c := New(2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)
	assert.Equal(t, 2, c.Len())
	// Oldest entry goes first.
	assert.False(t, c.Exists("a"))
}

func TestCache_ClearPattern(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		want    int
		removed []string
		kept    []string
	}{
		{
			name:    "prefix",
			pattern: "characters:*",
			want:    2,
			removed: []string{"characters:all::1:20", "characters:tabiin::1:20"},
			kept:    []string{"character:7", "progress:user:7:lessons"},
		},
		{
			name:    "suffix",
			pattern: "*:lessons",
			want:    1,
			removed: []string{"progress:user:7:lessons"},
			kept:    []string{"character:7"},
		},
		{
			name:    "exact",
			pattern: "character:7",
			want:    1,
			removed: []string{"character:7"},
			kept:    []string{"characters:all::1:20"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(10, time.Minute)
			c.Set("characters:all::1:20", 1)
			c.Set("characters:tabiin::1:20", 2)
			c.Set("character:7", 3)
			c.Set("progress:user:7:lessons", 4)

			got := c.ClearPattern(tt.pattern)
			assert.Equal(t, tt.want, got)
			for _, key := range tt.removed {
				assert.False(t, c.Exists(key), "expected %q removed", key)
			}
			for _, key := range tt.kept {
				assert.True(t, c.Exists(key), "expected %q kept", key)
			}
		})
	}
}

func TestCache_Stats(t *testing.T) {
	c := New(10, time.Minute)

	c.Set("k", "v")
	c.Get("k")
	c.Get("k")
	c.Get("missing")

	hits, misses := c.Stats()
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, int64(1), misses)
}

func TestCache_InvalidateUserProgress(t *testing.T) {
	c := New(10, time.Minute)

	c.Set(UserProgressKey(7), 1)
	c.Set(UserProgressKey(8), 2)

	c.InvalidateUserProgress(7)
	assert.False(t, c.Exists(UserProgressKey(7)))
	assert.True(t, c.Exists(UserProgressKey(8)))
}

func TestCache_InvalidateCharacters(t *testing.T) {
	c := New(10, time.Minute)

	c.Set(CharacterListKey("sahaba", "", 1, 20), 1)
	c.Set(CharacterDetailKey(42), 2)
	c.Set(UserProgressKey(7), 3)

	c.InvalidateCharacters()
	assert.False(t, c.Exists(CharacterListKey("sahaba", "", 1, 20)))
	assert.False(t, c.Exists(CharacterDetailKey(42)))
	assert.True(t, c.Exists(UserProgressKey(7)))
}

func TestCache_KeyBuilders(t *testing.T) {
	assert.Equal(t, "a:b:c", Key("a", "b", "c"))
	assert.Equal(t, "character:detail:42", CharacterDetailKey(42))
	assert.Equal(t, "progress:user:7:lessons", UserProgressKey(7))
	assert.Equal(t, "characters:list:cat:sahaba:page:1:limit:20", CharacterListKey("sahaba", "", 1, 20))
	assert.Equal(t, "characters:list:page:2:limit:10", CharacterListKey("", "", 2, 10))
}
