package cache

import (
	"errors"
	"time"
)

var (
	// ErrItemTooLarge is returned when an item exceeds the cache capacity
	ErrItemTooLarge = errors.New("item too large for cache")

	// ErrEmptyKey is returned for a blank cache key
	ErrEmptyKey = errors.New("cache key cannot be empty")
)

// Stats holds cache usage figures.
type Stats struct {
	Capacity  int64 // Maximum size on disk in bytes
	Size      int64 // Current size on disk in bytes
	Original  int64 // Uncompressed size of all entries
	ItemCount int64

	Hits      int64
	Misses    int64
	Evictions int64

	LastAccess time.Time
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	if s.Hits+s.Misses == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Hits+s.Misses)
}

// CompressionRatio returns original / stored size, or 1 for an empty cache.
func (s Stats) CompressionRatio() float64 {
	if s.Size == 0 {
		return 1
	}
	return float64(s.Original) / float64(s.Size)
}
