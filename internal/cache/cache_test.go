package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestCache(ttl time.Duration, max int) (*Cache, *time.Time) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := New(ttl, max)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestCache_SetGetExpire(t *testing.T) {
	c, now := newTestCache(5*time.Second, 0)

	c.Set("k", 42)
	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	*now = now.Add(5 * time.Second)

	_, ok = c.Get("k")
	assert.False(t, ok, "entry should expire after ttl")
	assert.Equal(t, 0, c.Len())
}

func TestCache_Clear(t *testing.T) {
	c, _ := newTestCache(time.Minute, 0)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Clear()

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.False(t, ok)
}

func TestCache_EvictsWhenFull(t *testing.T) {
	c, now := newTestCache(time.Minute, 2)

	c.Set("first", 1)
	*now = now.Add(time.Second)
	c.Set("second", 2)
	*now = now.Add(time.Second)
	c.Set("third", 3)

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("first")
	assert.False(t, ok, "entry closest to expiry goes first")
	_, ok = c.Get("third")
	assert.True(t, ok)

	// overwriting an existing key never evicts
	c.Set("third", 33)
	assert.Equal(t, 2, c.Len())
}

func TestCache_EvictionPrefersExpired(t *testing.T) {
	c, now := newTestCache(10*time.Second, 2)

	c.Set("old", 1)
	*now = now.Add(6 * time.Second)
	c.Set("fresh", 2)
	*now = now.Add(5 * time.Second) // "old" is expired now

	c.Set("new", 3)

	_, ok := c.Get("fresh")
	assert.True(t, ok)
	_, ok = c.Get("new")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestProductListKey(t *testing.T) {
	electronics := "Electronics"
	laptop := " Laptop "
	lower := "laptop"

	assert.Equal(t, ProductListKey(1, 10, nil, nil), ProductListKey(1, 10, nil, nil))
	assert.NotEqual(t, ProductListKey(1, 10, nil, nil), ProductListKey(2, 10, nil, nil))
	assert.NotEqual(t, ProductListKey(1, 10, &electronics, nil), ProductListKey(1, 10, nil, &electronics))
	assert.Equal(t, ProductListKey(1, 10, nil, &laptop), ProductListKey(1, 10, nil, &lower), "search is case-insensitive")
}
