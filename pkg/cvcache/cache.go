// Package cvcache remembers recently scraped CVs so scrapers can skip
// candidates they already sent.
package cvcache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/JakeFAU/rtcv-scraper-bridge/pkg/cv"
	"github.com/JakeFAU/rtcv-scraper-bridge/pkg/stats"
)

const (
	// DefaultTTL is how long a stored CV is kept.
	DefaultTTL = 16 * time.Hour
	// DefaultCleanupInterval is how often expired CVs are swept.
	DefaultCleanupInterval = 30 * time.Minute

	sizeGaugeName = "csv_cache_size"
)

// Cache is a TTL cache of CVs keyed by reference number.
type Cache struct {
	items *gocache.Cache
	size  prometheus.Gauge
}

// New returns a cache with the default TTL and sweep interval. When s is not
// nil the cache size is reported as the csv_cache_size gauge.
func New(s *stats.Stats) *Cache {
	return NewWithTTL(DefaultTTL, DefaultCleanupInterval, s)
}

// NewWithTTL returns a cache with a custom TTL and sweep interval.
func NewWithTTL(ttl, cleanup time.Duration, s *stats.Stats) *Cache {
	c := &Cache{items: gocache.New(ttl, cleanup)}
	if s != nil {
		c.size = s.Gauge(sizeGaugeName)
	}
	c.items.OnEvicted(func(string, any) { c.report() })
	return c
}

// Store keeps c under its reference number. CVs without one are ignored.
func (c *Cache) Store(entry cv.CV) {
	if entry.ReferenceNumber == "" {
		return
	}
	c.items.SetDefault(entry.ReferenceNumber, entry)
	c.report()
}

// Get returns the cached CV for referenceNumber. Expired entries are dropped.
func (c *Cache) Get(referenceNumber string) (cv.CV, bool) {
	v, ok := c.items.Get(referenceNumber)
	if !ok {
		// Expired items linger until the next sweep.
		c.items.Delete(referenceNumber)
		return cv.CV{}, false
	}
	entry, ok := v.(cv.CV)
	return entry, ok
}

// Has reports whether a non-expired CV is cached for referenceNumber.
func (c *Cache) Has(referenceNumber string) bool {
	_, ok := c.Get(referenceNumber)
	return ok
}

// Len returns the number of cached CVs, expired ones included until swept.
func (c *Cache) Len() int {
	return c.items.ItemCount()
}

// Sweep drops all expired CVs now.
func (c *Cache) Sweep() {
	c.items.DeleteExpired()
	c.report()
}

func (c *Cache) report() {
	if c.size != nil {
		c.size.Set(float64(c.items.ItemCount()))
	}
}
