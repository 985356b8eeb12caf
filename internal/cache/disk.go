package cache

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

const (
	indexFile = "cache.index"
	entryExt  = ".cache"
)

// zstdMagic starts every zstd frame
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// DiskCache is a persistent cache with optional zstd compression. An index
// of entries is kept in memory and written to disk on Close and after pruning.
// Several processes may share a directory: saving merges entries other
// processes indexed, and opening adopts entry files no index knows about.
type DiskCache struct {
	basePath string
	capacity int64
	size     int64

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	index map[string]*diskEntry

	mu    sync.Mutex
	stats Stats
}

type diskEntry struct {
	Key          string
	File         string
	Size         int64 // bytes on disk
	OriginalSize int64
	Created      time.Time
	LastAccess   time.Time
	Compressed   bool
}

// NewDiskCache opens or creates a disk cache rooted at basePath
func NewDiskCache(basePath string, capacity int64, compressionLevel int) (*DiskCache, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	dc := &DiskCache{
		basePath: basePath,
		capacity: capacity,
		index:    make(map[string]*diskEntry),
		stats:    Stats{Capacity: capacity},
	}

	if compressionLevel > 0 {
		var err error
		dc.encoder, err = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(compressionLevel)))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		dc.decoder, err = zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
	}

	if err := dc.loadIndex(); err != nil {
		// a corrupt index only costs the cached entries
		dc.index = make(map[string]*diskEntry)
	}
	dc.dropMissing()
	dc.adoptUnindexed()
	for dc.size > dc.capacity && len(dc.index) > 0 {
		dc.evictOldest()
	}

	return dc, nil
}

// Get returns the decompressed value for key
func (dc *DiskCache) Get(key string) ([]byte, bool) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	entry, ok := dc.index[key]
	if !ok {
		dc.stats.Misses++
		return nil, false
	}

	data, err := os.ReadFile(dc.path(entry))
	if err == nil && entry.Compressed {
		if dc.decoder == nil {
			err = fmt.Errorf("compressed entry without decoder")
		} else {
			data, err = dc.decoder.DecodeAll(data, nil)
		}
	}
	if err != nil {
		dc.removeEntry(entry)
		dc.stats.Misses++
		return nil, false
	}

	entry.LastAccess = time.Now()
	dc.stats.Hits++
	return data, true
}

// Put compresses and stores value under key
func (dc *DiskCache) Put(key string, value []byte) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	data := value
	compressed := false
	if dc.encoder != nil && len(value) > 1024 {
		if c := dc.encoder.EncodeAll(value, nil); len(c) < len(value) {
			data = c
			compressed = true
		}
	}

	n := int64(len(data))
	if n > dc.capacity {
		return ErrItemTooLarge
	}

	if existing, ok := dc.index[key]; ok {
		dc.removeEntry(existing)
	}
	for dc.size+n > dc.capacity && len(dc.index) > 0 {
		dc.evictOldest()
	}

	entry := &diskEntry{
		Key:          key,
		File:         key + entryExt,
		Size:         n,
		OriginalSize: int64(len(value)),
		Created:      time.Now(),
		LastAccess:   time.Now(),
		Compressed:   compressed,
	}
	if err := writeFileAtomic(dc.path(entry), data); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	dc.index[key] = entry
	dc.size += n
	return nil
}

// RemoveOlderThan removes entries created before cutoff and persists the index
func (dc *DiskCache) RemoveOlderThan(cutoff time.Time) (int, error) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	removed := 0
	for _, entry := range dc.index {
		if entry.Created.Before(cutoff) {
			dc.removeEntry(entry)
			removed++
		}
	}
	return removed, dc.saveIndex()
}

// Stats returns cache statistics
func (dc *DiskCache) Stats() Stats {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	s := dc.stats
	s.Size = dc.size
	s.ItemCount = int64(len(dc.index))
	return s
}

// Close persists the index and releases the codecs
func (dc *DiskCache) Close() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	err := dc.saveIndex()
	if dc.encoder != nil {
		_ = dc.encoder.Close()
	}
	if dc.decoder != nil {
		dc.decoder.Close()
	}
	return err
}

func (dc *DiskCache) path(e *diskEntry) string {
	return filepath.Join(dc.basePath, e.File)
}

func (dc *DiskCache) removeEntry(e *diskEntry) {
	_ = os.Remove(dc.path(e))
	delete(dc.index, e.Key)
	dc.size -= e.Size
}

func (dc *DiskCache) evictOldest() {
	var oldest *diskEntry
	for _, e := range dc.index {
		if oldest == nil || e.LastAccess.Before(oldest.LastAccess) {
			oldest = e
		}
	}
	if oldest != nil {
		dc.removeEntry(oldest)
		dc.stats.Evictions++
		dc.stats.LastEvict = time.Now()
	}
}

// dropMissing forgets index entries whose files are gone and recomputes size
func (dc *DiskCache) dropMissing() {
	dc.size = 0
	for key, e := range dc.index {
		if _, err := os.Stat(dc.path(e)); err != nil {
			delete(dc.index, key)
			continue
		}
		dc.size += e.Size
	}
}

// adoptUnindexed indexes entry files written by another process whose index
// was lost, so pruning and eviction still reach them
func (dc *DiskCache) adoptUnindexed() {
	files, err := os.ReadDir(dc.basePath)
	if err != nil {
		return
	}
	known := make(map[string]bool, len(dc.index))
	for _, e := range dc.index {
		known[e.File] = true
	}

	for _, f := range files {
		name := f.Name()
		if !f.Type().IsRegular() || !strings.HasSuffix(name, entryExt) || known[name] {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		entry := &diskEntry{
			Key:          strings.TrimSuffix(name, entryExt),
			File:         name,
			Size:         info.Size(),
			OriginalSize: info.Size(),
			Created:      info.ModTime(),
			LastAccess:   info.ModTime(),
			Compressed:   isZstd(filepath.Join(dc.basePath, name)),
		}
		dc.index[entry.Key] = entry
		dc.size += entry.Size
	}
}

// mergeSaved adds entries from the index on disk that this cache does not
// hold and whose files still exist
func (dc *DiskCache) mergeSaved() {
	saved := make(map[string]*diskEntry)
	f, err := os.Open(filepath.Join(dc.basePath, indexFile))
	if err != nil {
		return
	}
	err = gob.NewDecoder(f).Decode(&saved)
	f.Close()
	if err != nil {
		return
	}

	for key, e := range saved {
		if _, ok := dc.index[key]; ok {
			continue
		}
		if _, err := os.Stat(dc.path(e)); err != nil {
			continue
		}
		dc.index[key] = e
		dc.size += e.Size
	}
	for dc.size > dc.capacity && len(dc.index) > 0 {
		dc.evictOldest()
	}
}

func isZstd(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, len(zstdMagic))
	if _, err := io.ReadFull(f, head); err != nil {
		return false
	}
	return bytes.Equal(head, zstdMagic)
}

func (dc *DiskCache) loadIndex() error {
	f, err := os.Open(filepath.Join(dc.basePath, indexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	return gob.NewDecoder(f).Decode(&dc.index)
}

func (dc *DiskCache) saveIndex() error {
	dc.mergeSaved()

	path := filepath.Join(dc.basePath, indexFile)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	err = gob.NewEncoder(f).Encode(dc.index)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// writeFileAtomic writes to a temp file first, then renames it into place
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
