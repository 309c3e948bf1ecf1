package cache

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/text/unicode/norm"
)

const (
	indexFile = "cache.index"

	// compressThreshold is the smallest payload worth compressing.
	compressThreshold = 1024
)

// DiskCache stores audio blobs in a directory with a gob encoded index.
type DiskCache struct {
	basePath string
	capacity int64 // Maximum size on disk in bytes
	size     int64 // Current size on disk in bytes

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	index map[string]*entry

	mu    sync.Mutex
	stats Stats
}

// entry is persisted in the index file, so its fields stay exported.
type entry struct {
	Key          string
	File         string // Name relative to basePath
	Size         int64  // Size on disk
	OriginalSize int64
	Created      time.Time
	LastAccess   time.Time
	Hits         int64
	Compressed   bool
}

// Key builds a cache key from the text and the parameters that change the
// synthesized audio. Text is NFC normalised so visually identical input
// shares an entry.
func Key(text string, params ...string) string {
	h := sha256.New()
	h.Write([]byte(norm.NFC.String(strings.TrimSpace(text))))
	for _, p := range params {
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// NewDiskCache opens (or creates) a cache rooted at basePath. A
// compressionLevel of 0 stores entries uncompressed.
func NewDiskCache(basePath string, capacity int64, compressionLevel int) (*DiskCache, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("cache capacity must be positive, got %d", capacity)
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	dc := &DiskCache{
		basePath: basePath,
		capacity: capacity,
		index:    make(map[string]*entry),
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
		log.Warn("Discarding unreadable cache index", "path", basePath, "error", err)
		dc.index = make(map[string]*entry)
	}
	dc.calculateSize()

	return dc, nil
}

// Get returns the cached value for key.
func (dc *DiskCache) Get(key string) ([]byte, bool) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	e, ok := dc.index[key]
	if !ok {
		dc.stats.Misses++
		return nil, false
	}

	data, err := os.ReadFile(dc.path(e))
	if err == nil && e.Compressed {
		if dc.decoder == nil {
			err = errors.New("entry is compressed but compression is disabled")
		} else {
			data, err = dc.decoder.DecodeAll(data, nil)
		}
	}
	if err != nil {
		log.Debug("Dropping unreadable cache entry", "key", key, "error", err)
		dc.remove(key, e)
		dc.stats.Misses++
		return nil, false
	}

	e.LastAccess = time.Now()
	e.Hits++
	dc.stats.Hits++
	dc.stats.LastAccess = e.LastAccess
	if err := dc.saveIndex(); err != nil {
		log.Debug("Could not persist cache index", "error", err)
	}

	return data, true
}

// Put stores value under key, evicting least recently used entries until it
// fits.
func (dc *DiskCache) Put(key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}

	dc.mu.Lock()
	defer dc.mu.Unlock()

	data := value
	compressed := false
	if dc.encoder != nil && len(value) > compressThreshold {
		// Only keep the compressed form when it actually shrinks
		if c := dc.encoder.EncodeAll(value, nil); len(c) < len(value) {
			data = c
			compressed = true
		}
	}

	diskSize := int64(len(data))
	if diskSize > dc.capacity {
		return ErrItemTooLarge
	}

	if existing, ok := dc.index[key]; ok {
		dc.remove(key, existing)
	}
	for dc.size+diskSize > dc.capacity && len(dc.index) > 0 {
		dc.evictOldest()
	}

	name := fileName(key)
	if err := writeAtomic(filepath.Join(dc.basePath, name), data); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	now := time.Now()
	dc.index[key] = &entry{
		Key:          key,
		File:         name,
		Size:         diskSize,
		OriginalSize: int64(len(value)),
		Created:      now,
		LastAccess:   now,
		Compressed:   compressed,
	}
	dc.size += diskSize

	return dc.saveIndex()
}

// Delete removes key from the cache.
func (dc *DiskCache) Delete(key string) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if e, ok := dc.index[key]; ok {
		dc.remove(key, e)
		return dc.saveIndex()
	}
	return nil
}

// Clear removes every entry.
func (dc *DiskCache) Clear() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	for key, e := range dc.index {
		dc.remove(key, e)
	}
	dc.size = 0
	return dc.saveIndex()
}

// Stats returns a snapshot of cache statistics.
func (dc *DiskCache) Stats() Stats {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	stats := dc.stats
	stats.Size = dc.size
	stats.ItemCount = int64(len(dc.index))
	stats.Original = 0
	for _, e := range dc.index {
		stats.Original += e.OriginalSize
		if e.LastAccess.After(stats.LastAccess) {
			stats.LastAccess = e.LastAccess
		}
	}
	return stats
}

// Dir returns the cache directory.
func (dc *DiskCache) Dir() string {
	return dc.basePath
}

// Close persists the index and releases the codecs.
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

func (dc *DiskCache) path(e *entry) string {
	return filepath.Join(dc.basePath, e.File)
}

// remove must be called with mu held.
func (dc *DiskCache) remove(key string, e *entry) {
	_ = os.Remove(dc.path(e))
	dc.size -= e.Size
	delete(dc.index, key)
}

// evictOldest must be called with mu held.
func (dc *DiskCache) evictOldest() {
	var oldestKey string
	var oldest *entry
	for key, e := range dc.index {
		if oldest == nil || e.LastAccess.Before(oldest.LastAccess) {
			oldestKey, oldest = key, e
		}
	}
	if oldest != nil {
		dc.remove(oldestKey, oldest)
		dc.stats.Evictions++
	}
}

func (dc *DiskCache) loadIndex() error {
	f, err := os.Open(filepath.Join(dc.basePath, indexFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck

	return gob.NewDecoder(f).Decode(&dc.index)
}

func (dc *DiskCache) saveIndex() error {
	path := filepath.Join(dc.basePath, indexFile)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	err = gob.NewEncoder(f).Encode(dc.index)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func (dc *DiskCache) calculateSize() {
	dc.size = 0
	for key, e := range dc.index {
		// Forget entries whose file disappeared behind our back
		if _, err := os.Stat(dc.path(e)); err != nil {
			delete(dc.index, key)
			continue
		}
		dc.size += e.Size
	}
}

// fileName derives an entry's file from its whole key, so distinct keys never
// share a file.
func fileName(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:]) + ".audio"
}

// writeAtomic writes to a temp file first, then renames it into place.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil { //nolint:gosec
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
