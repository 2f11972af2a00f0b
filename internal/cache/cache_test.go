package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetGetRoundTrip(t *testing.T) {
	c := NewCache(Config{TTL: time.Minute, MaxSize: 10})
	key := Key([]string{"munin_street_fr"}, map[string]any{"q": "rivoli"})
	c.Set(key, "cached-response")

	got, ok := c.Get(key)
	assert.True(t, ok)
	assert.Equal(t, "cached-response", got)
}

func TestGetExpiresAfterTTL(t *testing.T) {
	c := NewCache(Config{TTL: time.Millisecond, MaxSize: 10})
	key := Key([]string{"munin"}, "x")
	c.Set(key, 1)
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get(key)
	assert.False(t, ok)
}

func TestKeyDependsOnIndexScope(t *testing.T) {
	a := Key([]string{"munin_street_fr"}, map[string]any{"q": "x"})
	b := Key([]string{"munin_street_be"}, map[string]any{"q": "x"})
	assert.NotEqual(t, a, b)
}

func TestClearRemovesEverything(t *testing.T) {
	c := NewCache(DefaultConfig())
	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()
	assert.Equal(t, 0, c.Stats()["entries"])
}
