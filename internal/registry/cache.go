package registry

import (
	"errors"
	"time"

	"github.com/patrickmn/go-cache"

	"adsbtrack/internal/adsb"
)

type cachedEntry struct {
	info  AircraftInfo
	found bool
}

// Cached remembers the answers of another registry, including ErrNotFound, for ttl
type Cached struct {
	next  Registry
	cache *cache.Cache
}

// NewCached wraps next with a cache whose entries expire after ttl
func NewCached(next Registry, ttl time.Duration) *Cached {
	return &Cached{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Lookup returns the cached answer for addr or asks the wrapped registry. Errors other
// than ErrNotFound are not cached.
func (c *Cached) Lookup(addr adsb.IcaoAddress) (AircraftInfo, error) {
	if v, ok := c.cache.Get(addr.String()); ok {
		entry := v.(cachedEntry)
		if !entry.found {
			return AircraftInfo{}, ErrNotFound
		}
		return entry.info, nil
	}

	info, err := c.next.Lookup(addr)
	switch {
	case err == nil:
		c.cache.SetDefault(addr.String(), cachedEntry{info: info, found: true})
	case errors.Is(err, ErrNotFound):
		c.cache.SetDefault(addr.String(), cachedEntry{})
	}
	return info, err
}

// Len returns the number of cached answers
func (c *Cached) Len() int {
	return c.cache.ItemCount()
}
