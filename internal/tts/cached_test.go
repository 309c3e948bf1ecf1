package tts

import (
	"context"
	"errors"
	"testing"

	"github.com/dgnsrekt/announce/internal/cache"
)

type countingSynthesizer struct {
	calls int
	err   error
}

func (s *countingSynthesizer) Name() string { return "counting" }

func (s *countingSynthesizer) Synthesize(_ context.Context, req Request) (*Audio, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &Audio{Data: []byte("audio:" + req.Text), Format: req.Format}, nil
}

type failingStore struct{}

func (failingStore) Get(string) ([]byte, bool) { return nil, false }
func (failingStore) Put(string, []byte) error  { return errors.New("disk full") }

func TestCachedSynthesizer_HitAndMiss(t *testing.T) {
	store, err := cache.NewDiskCache(t.TempDir(), 1<<20, 3)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer store.Close()

	engine := &countingSynthesizer{}
	synth := NewCachedSynthesizer(engine, store)
	req := Request{Text: "Dinner is ready", VoiceID: "v", Format: "opus_48000_192"}

	first, err := synth.Synthesize(context.Background(), req)
	if err != nil {
		t.Fatalf("First synthesis failed: %v", err)
	}
	if first.Cached {
		t.Error("First synthesis should not be cached")
	}

	second, err := synth.Synthesize(context.Background(), req)
	if err != nil {
		t.Fatalf("Second synthesis failed: %v", err)
	}
	if !second.Cached {
		t.Error("Second synthesis should come from cache")
	}
	if string(second.Data) != string(first.Data) {
		t.Errorf("Cached audio mismatch: %q vs %q", second.Data, first.Data)
	}
	if second.Format != req.Format {
		t.Errorf("Expected format %s, got %s", req.Format, second.Format)
	}
	if engine.calls != 1 {
		t.Errorf("Expected engine called once, got %d", engine.calls)
	}

	// A different voice is a different entry
	req.VoiceID = "other"
	if _, err := synth.Synthesize(context.Background(), req); err != nil {
		t.Fatalf("Synthesis failed: %v", err)
	}
	if engine.calls != 2 {
		t.Errorf("Expected engine called twice, got %d", engine.calls)
	}
}

func TestCachedSynthesizer_ErrorsNotCached(t *testing.T) {
	store, _ := cache.NewDiskCache(t.TempDir(), 1<<20, 0)
	defer store.Close()

	engine := &countingSynthesizer{err: errors.New("boom")}
	synth := NewCachedSynthesizer(engine, store)
	req := Request{Text: "hello", VoiceID: "v", Format: "mp3_44100_128"}

	for i := 0; i < 2; i++ {
		if _, err := synth.Synthesize(context.Background(), req); err == nil {
			t.Fatal("Expected error")
		}
	}
	if engine.calls != 2 {
		t.Errorf("Expected failures to reach the engine every time, got %d calls", engine.calls)
	}
	if store.Stats().ItemCount != 0 {
		t.Error("Expected nothing cached after failures")
	}
}

func TestCachedSynthesizer_StoreFailureIgnored(t *testing.T) {
	synth := NewCachedSynthesizer(&countingSynthesizer{}, failingStore{})

	audio, err := synth.Synthesize(context.Background(), Request{Text: "hello", Format: "mp3_44100_128"})
	if err != nil {
		t.Fatalf("Cache write failure should not fail synthesis: %v", err)
	}
	if len(audio.Data) == 0 {
		t.Error("Expected audio")
	}
}

func TestCachedSynthesizer_NoStore(t *testing.T) {
	engine := &countingSynthesizer{}
	synth := NewCachedSynthesizer(engine, nil)

	for i := 0; i < 2; i++ {
		if _, err := synth.Synthesize(context.Background(), Request{Text: "x"}); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}
	if engine.calls != 2 {
		t.Errorf("Expected pass-through without store, got %d calls", engine.calls)
	}
	if synth.Name() != "counting" {
		t.Errorf("Expected wrapped name, got %s", synth.Name())
	}

	if _, err := synth.Synthesize(context.Background(), Request{}); !errors.Is(err, ErrEmptyText) {
		t.Errorf("Expected ErrEmptyText, got %v", err)
	}
}

func TestDescribe(t *testing.T) {
	req := Request{Text: "hi", Format: "mp3_44100_128"}

	if got := Describe(&countingSynthesizer{}, req); got != "counting" {
		t.Errorf("Expected name fallback, got %s", got)
	}
	if got := Describe(NewCachedSynthesizer(&countingSynthesizer{}, failingStore{}), req); got != "counting (unless cached)" {
		t.Errorf("Expected cache note, got %s", got)
	}
	if got := Describe(NewCachedSynthesizer(&countingSynthesizer{}, nil), req); got != "counting" {
		t.Errorf("Expected no cache note without a store, got %s", got)
	}
}
