package cache

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDiskCache_BasicOperations(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), 1<<20, 3)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer dc.Close()

	key := Key("Dinner is ready", "voice", "opus_48000_192")
	value := []byte("audio-bytes")

	if _, ok := dc.Get(key); ok {
		t.Fatal("Expected miss on empty cache")
	}
	if err := dc.Put(key, value); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok := dc.Get(key)
	if !ok {
		t.Fatal("Get failed: key not found")
	}
	if !bytes.Equal(got, value) {
		t.Errorf("Retrieved value mismatch: got %s, want %s", got, value)
	}

	if err := dc.Delete(key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok := dc.Get(key); ok {
		t.Error("Key still exists after delete")
	}

	stats := dc.Stats()
	if stats.Hits != 1 || stats.Misses != 2 {
		t.Errorf("Expected 1 hit and 2 misses, got %d/%d", stats.Hits, stats.Misses)
	}
}

func TestDiskCache_SharedKeyPrefix(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), 1<<20, 0)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer dc.Close()

	prefix := "0123456789abcdef0123456789abcdef"
	first, second := prefix+"-first", prefix+"-second"
	if err := dc.Put(first, []byte("one")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := dc.Put(second, []byte("two")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	for key, want := range map[string]string{first: "one", second: "two"} {
		got, ok := dc.Get(key)
		if !ok || string(got) != want {
			t.Errorf("Expected %q for %s, got %q (found %v)", want, key, got, ok)
		}
	}

	if err := dc.Delete(first); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if got, ok := dc.Get(second); !ok || string(got) != "two" {
		t.Errorf("Expected second entry to survive deleting the first, got %q (found %v)", got, ok)
	}
}

func TestDiskCache_Compression(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), 1<<20, 3)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer dc.Close()

	// Highly repetitive data compresses well
	value := bytes.Repeat([]byte("silence "), 4096)
	if err := dc.Put("k", value); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	stats := dc.Stats()
	if stats.Size >= int64(len(value)) {
		t.Errorf("Expected compressed size below %d, got %d", len(value), stats.Size)
	}
	if stats.CompressionRatio() <= 1 {
		t.Errorf("Expected compression ratio above 1, got %.2f", stats.CompressionRatio())
	}

	got, ok := dc.Get("k")
	if !ok || !bytes.Equal(got, value) {
		t.Error("Compressed round trip failed")
	}
}

func TestDiskCache_Eviction(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), 100, 0)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer dc.Close()

	chunk := bytes.Repeat([]byte{1}, 40)
	for _, k := range []string{"a", "b"} {
		if err := dc.Put(k, chunk); err != nil {
			t.Fatalf("Put %s failed: %v", k, err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	// Touch "a" so "b" becomes the least recently used
	if _, ok := dc.Get("a"); !ok {
		t.Fatal("Expected a to be cached")
	}
	time.Sleep(2 * time.Millisecond)

	if err := dc.Put("c", chunk); err != nil {
		t.Fatalf("Put c failed: %v", err)
	}

	if _, ok := dc.Get("b"); ok {
		t.Error("Expected b to be evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := dc.Get(k); !ok {
			t.Errorf("Expected %s to survive eviction", k)
		}
	}
	if dc.Stats().Evictions != 1 {
		t.Errorf("Expected 1 eviction, got %d", dc.Stats().Evictions)
	}
}

func TestDiskCache_ItemTooLarge(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), 10, 0)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer dc.Close()

	if err := dc.Put("big", make([]byte, 11)); !errors.Is(err, ErrItemTooLarge) {
		t.Errorf("Expected ErrItemTooLarge, got %v", err)
	}
	if err := dc.Put("", []byte("x")); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("Expected ErrEmptyKey, got %v", err)
	}
}

func TestDiskCache_Persistence(t *testing.T) {
	dir := t.TempDir()

	dc, err := NewDiskCache(dir, 1<<20, 3)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	if err := dc.Put("persist", []byte("still here")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := dc.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewDiskCache(dir, 1<<20, 3)
	if err != nil {
		t.Fatalf("Failed to reopen cache: %v", err)
	}
	defer reopened.Close()

	if stats := reopened.Stats(); stats.ItemCount != 1 || stats.LastAccess.IsZero() {
		t.Errorf("Expected persisted entry in stats, got %+v", stats)
	}

	got, ok := reopened.Get("persist")
	if !ok || string(got) != "still here" {
		t.Errorf("Expected persisted entry, got %q (found=%v)", got, ok)
	}
}

func TestDiskCache_MissingFileIsMiss(t *testing.T) {
	dir := t.TempDir()
	dc, err := NewDiskCache(dir, 1<<20, 0)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer dc.Close()

	if err := dc.Put("gone", []byte("data")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "*.audio"))
	for _, m := range matches {
		_ = os.Remove(m)
	}

	if _, ok := dc.Get("gone"); ok {
		t.Error("Expected miss after file removal")
	}
	if dc.Stats().ItemCount != 0 {
		t.Error("Expected entry dropped from index")
	}
}

func TestDiskCache_Clear(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), 1<<20, 0)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer dc.Close()

	for _, k := range []string{"x", "y", "z"} {
		_ = dc.Put(k, []byte(k))
	}
	if err := dc.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	stats := dc.Stats()
	if stats.ItemCount != 0 || stats.Size != 0 {
		t.Errorf("Expected empty cache, got %d items / %d bytes", stats.ItemCount, stats.Size)
	}
}

func TestKey(t *testing.T) {
	base := Key("Hello", "voice", "mp3_44100_128")

	if Key("  Hello ", "voice", "mp3_44100_128") != base {
		t.Error("Surrounding whitespace should not change the key")
	}
	if Key("Hello", "other", "mp3_44100_128") == base {
		t.Error("Voice should change the key")
	}
	if Key("Hello", "voice", "pcm_24000") == base {
		t.Error("Format should change the key")
	}
	// Parameter boundaries matter
	if Key("a", "bc") == Key("a", "b", "c") {
		t.Error("Parameter boundaries should change the key")
	}
	// "é" precomposed vs decomposed
	if Key("caf\u00e9") != Key("cafe\u0301") {
		t.Error("NFC equivalent text should share a key")
	}
}
