package cache

import (
	"errors"
	"time"
)

// Common errors for cache operations
var (
	// ErrItemTooLarge is returned when an item exceeds the cache capacity
	ErrItemTooLarge = errors.New("item too large for cache")

	// ErrClosed is returned by Put after Close
	ErrClosed = errors.New("cache closed")
)

// Level identifies a cache tier
type Level int

const (
	// LevelMemory is the in-process LRU
	LevelMemory Level = iota

	// LevelDisk is the compressed on-disk store
	LevelDisk
)

// String returns the string representation of the cache level
func (l Level) String() string {
	switch l {
	case LevelMemory:
		return "memory"
	case LevelDisk:
		return "disk"
	default:
		return "unknown"
	}
}

// Stats holds cache performance metrics
type Stats struct {
	Capacity  int64 // Maximum capacity in bytes
	Size      int64 // Current size in bytes
	ItemCount int64 // Number of items in cache
	Hits      int64
	Misses    int64
	Evictions int64
	LastEvict time.Time
}

// HitRate returns hits / (hits + misses)
func (s Stats) HitRate() float64 {
	if s.Hits+s.Misses == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Hits+s.Misses)
}

// Config holds configuration for a render cache
type Config struct {
	// MemoryCapacity bounds the in-memory tier, in bytes
	MemoryCapacity int64

	// DiskCapacity bounds the on-disk tier, in bytes. Zero disables it.
	DiskCapacity int64

	// DiskPath is the directory for cache files
	DiskPath string

	// CompressionLevel is the zstd level (1-22); zero stores raw bytes
	CompressionLevel int

	// TTL expires entries older than this during Prune
	TTL time.Duration
}

// DefaultConfig returns the default cache configuration
func DefaultConfig() Config {
	return Config{
		MemoryCapacity:   64 * 1024 * 1024,
		DiskCapacity:     512 * 1024 * 1024,
		CompressionLevel: 3,
		TTL:              7 * 24 * time.Hour,
	}
}
