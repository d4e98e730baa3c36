package services

import (
	"sync"
	"time"
)

// DefaultListingTTL bounds how long a fetched listing is reused for filtering.
const DefaultListingTTL = 5 * time.Minute

type listingEntry[T any] struct {
	value     T
	fetchedAt time.Time
}

// ListingCache keeps the last fetched listing per query so that filtering
// works on the data loaded when the view was opened. A zero ttl keeps entries
// until they are refreshed.
type ListingCache[T any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]listingEntry[T]
	now     func() time.Time
}

func NewListingCache[T any](ttl time.Duration) *ListingCache[T] {
	return &ListingCache[T]{
		ttl:     ttl,
		entries: make(map[string]listingEntry[T]),
		now:     time.Now,
	}
}

// Get returns the stored listing for key, calling fetch only when there is
// none, it expired, or refresh is set.
func (c *ListingCache[T]) Get(key string, refresh bool, fetch func() T) (T, time.Time) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	if ok && !refresh && (c.ttl <= 0 || c.now().Sub(entry.fetchedAt) < c.ttl) {
		c.mu.Unlock()
		return entry.value, entry.fetchedAt
	}
	c.mu.Unlock()

	// fetch runs unlocked; a concurrent refresh simply stores last
	value := fetch()
	entry = listingEntry[T]{value: value, fetchedAt: c.now()}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	return entry.value, entry.fetchedAt
}
