package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"
)

// RenderCache coordinates the memory and disk tiers. Disk hits are promoted
// to memory. It is safe for concurrent use.
type RenderCache struct {
	memory *MemoryCache
	disk   *DiskCache
	ttl    time.Duration

	mu     sync.Mutex
	closed bool
}

// New creates a render cache. A zero DiskCapacity keeps it memory-only.
func New(cfg Config) (*RenderCache, error) {
	rc := &RenderCache{
		memory: NewMemoryCache(cfg.MemoryCapacity),
		ttl:    cfg.TTL,
	}
	if cfg.DiskCapacity > 0 {
		if cfg.DiskPath == "" {
			return nil, fmt.Errorf("disk cache enabled without a path")
		}
		disk, err := NewDiskCache(cfg.DiskPath, cfg.DiskCapacity, cfg.CompressionLevel)
		if err != nil {
			return nil, err
		}
		rc.disk = disk
	}
	return rc, nil
}

// Key derives a cache key from the parts that determine a render
func Key(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(h[:])
}

// Get looks up key in memory, then on disk
func (rc *RenderCache) Get(key string) ([]byte, bool) {
	if data, ok := rc.memory.Get(key); ok {
		return data, true
	}
	if rc.disk == nil {
		return nil, false
	}
	data, ok := rc.disk.Get(key)
	if ok {
		_ = rc.memory.Put(key, data)
	}
	return data, ok
}

// Put stores value in both tiers. Items too large for memory still go to disk.
func (rc *RenderCache) Put(key string, value []byte) error {
	rc.mu.Lock()
	closed := rc.closed
	rc.mu.Unlock()
	if closed {
		return ErrClosed
	}

	if err := rc.memory.Put(key, value); err != nil && err != ErrItemTooLarge {
		return err
	}
	if rc.disk != nil {
		if err := rc.disk.Put(key, value); err != nil && err != ErrItemTooLarge {
			return err
		}
	}
	return nil
}

// Prune drops entries older than the configured TTL from both tiers
func (rc *RenderCache) Prune() (int, error) {
	if rc.ttl <= 0 {
		return 0, nil
	}
	removed := rc.memory.Prune(rc.ttl)
	if rc.disk != nil {
		n, err := rc.disk.RemoveOlderThan(time.Now().Add(-rc.ttl))
		removed += n
		if err != nil {
			return removed, fmt.Errorf("save cache index: %w", err)
		}
	}
	return removed, nil
}

// Stats returns statistics per tier
func (rc *RenderCache) Stats() map[Level]Stats {
	out := map[Level]Stats{LevelMemory: rc.memory.Stats()}
	if rc.disk != nil {
		out[LevelDisk] = rc.disk.Stats()
	}
	return out
}

// Close persists the disk index
func (rc *RenderCache) Close() error {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.closed {
		return nil
	}
	rc.closed = true
	if rc.disk != nil {
		return rc.disk.Close()
	}
	return nil
}
