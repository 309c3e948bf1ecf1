package announce

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgnsrekt/announce/internal/config"
	"github.com/dgnsrekt/announce/internal/mock"
	"github.com/dgnsrekt/announce/internal/progress"
	"github.com/dgnsrekt/announce/internal/tts"
	"github.com/spf13/viper"
)

type fakeSynthesizer struct {
	err  error
	reqs []tts.Request
}

func (f *fakeSynthesizer) Name() string { return "fake" }

func (f *fakeSynthesizer) Synthesize(_ context.Context, req tts.Request) (*tts.Audio, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &tts.Audio{Data: []byte("speech"), Format: req.Format}, nil
}

// fakeAirfoil answers osascript calls by inspecting the script.
type fakeAirfoil struct {
	status    string
	list      string
	setupExit int
}

func scriptKind(args []string) string {
	if len(args) < 2 {
		return "other"
	}
	s := args[1]
	switch {
	case strings.Contains(s, "set current audio source"):
		return "setup"
	case strings.Contains(s, "statusList") && strings.Contains(s, "targetSpeakers"):
		return "status"
	case strings.Contains(s, "statusList"):
		return "list"
	case strings.Contains(s, "disconnect from s"):
		return "disconnect"
	}
	return "other"
}

func (f *fakeAirfoil) handle(args []string) mock.Response {
	switch scriptKind(args) {
	case "setup":
		if f.setupExit != 0 {
			return mock.Response{Stderr: "Airfoil got an error", ExitCode: f.setupExit}
		}
		return mock.Response{Stdout: "ok"}
	case "status":
		return mock.Response{Stdout: f.status}
	case "list":
		return mock.Response{Stdout: f.list}
	}
	return mock.Response{}
}

// writeOutput makes ffmpeg produce its output file.
func writeOutput(args []string) mock.Response {
	_ = os.WriteFile(args[len(args)-1], []byte("mp3"), 0o600)
	return mock.Response{}
}

// sequence renders the recorded calls as "ffmpeg", "osascript:setup",
// "afplay:tts.mp3" and so on.
func sequence(r *mock.Runner) []string {
	var out []string
	for _, c := range r.Calls() {
		switch c.Name {
		case "osascript":
			out = append(out, "osascript:"+scriptKind(c.Args))
		case "afplay":
			out = append(out, "afplay:"+filepath.Base(c.Args[0]))
		default:
			out = append(out, c.Name)
		}
	}
	return out
}

type sleepRecorder struct {
	mu    sync.Mutex
	slept []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slept = append(s.slept, d)
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	cfg, err := config.Load(v)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	cfg.Speakers = []string{"Kitchen", "Office"}
	cfg.Audio.ChimeFile = ""
	cfg.Airfoil.ConnectTimeout = 50 * time.Millisecond
	cfg.Airfoil.PollInterval = time.Millisecond
	return cfg
}

type harness struct {
	cfg      *config.Config
	synth    *fakeSynthesizer
	airfoil  *fakeAirfoil
	runner   *mock.Runner
	reporter *progress.Recorder
	sleeper  *sleepRecorder
	tempDir  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		cfg:      testConfig(t),
		synth:    &fakeSynthesizer{},
		airfoil:  &fakeAirfoil{status: "Kitchen|true, Office|true"},
		runner:   mock.New(),
		reporter: &progress.Recorder{},
		sleeper:  &sleepRecorder{},
		tempDir:  t.TempDir(),
	}
	h.runner.OnFunc("osascript", func(args []string) mock.Response { return h.airfoil.handle(args) })
	h.runner.OnFunc("ffmpeg", writeOutput)
	return h
}

func (h *harness) announcer() *Announcer {
	return New(h.cfg, h.synth, h.runner,
		WithReporter(h.reporter),
		WithSleep(h.sleeper.sleep),
		WithTempDir(h.tempDir),
	)
}

func (h *harness) withChime(t *testing.T) string {
	t.Helper()
	chime := filepath.Join(t.TempDir(), "gong_stereo.mp3")
	if err := os.WriteFile(chime, []byte("gong"), 0o600); err != nil {
		t.Fatal(err)
	}
	h.cfg.Audio.ChimeFile = chime
	return chime
}

func TestSay(t *testing.T) {
	h := newHarness(t)
	h.withChime(t)

	res, err := h.announcer().Say(context.Background(), Options{Text: "Dinner is ready"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expect := []string{
		"ffmpeg",
		"osascript:setup",
		"osascript:status",
		"afplay:gong_stereo.mp3",
		"afplay:tts.mp3",
		"osascript:disconnect",
	}
	if got := sequence(h.runner); !reflect.DeepEqual(got, expect) {
		t.Errorf("Expected calls:\n  %v\ngot:\n  %v", expect, got)
	}

	steps := []string{
		"Generating TTS...",
		"Converting to stereo MP3...",
		"Setting up Airfoil (2 speakers)...",
		"Waiting for connections...",
		"Playing gong...",
		"Playing announcement...",
	}
	if got := h.reporter.Texts("step"); !reflect.DeepEqual(got, steps) {
		t.Errorf("Expected steps %v, got %v", steps, got)
	}
	if len(h.reporter.Texts("done")) != 1 {
		t.Error("Expected Done to be reported")
	}
	if len(h.reporter.Texts("warn")) != 0 {
		t.Errorf("Expected no warnings, got %v", h.reporter.Texts("warn"))
	}

	if !reflect.DeepEqual(h.sleeper.slept, []time.Duration{config.DefaultChimeGap, config.DefaultDisconnectDelay}) {
		t.Errorf("Expected chime gap then disconnect delay, got %v", h.sleeper.slept)
	}

	req := h.synth.reqs[0]
	if req.Text != "Dinner is ready" || req.VoiceID != config.DefaultVoiceID || req.Format != config.DefaultFormat {
		t.Errorf("Unexpected synthesis request: %+v", req)
	}

	ffmpeg := h.runner.CallsTo("ffmpeg")[0].Args
	if !strings.HasSuffix(ffmpeg[slicesIndex(ffmpeg, "-i")+1], "tts.opus") {
		t.Errorf("Expected transcoder input tts.opus, got %v", ffmpeg)
	}

	if !res.Wait.AllConnected || res.RunID == "" {
		t.Errorf("Unexpected result: %+v", res)
	}

	entries, _ := os.ReadDir(h.tempDir)
	if len(entries) != 0 {
		t.Errorf("Expected working directory removed, found %d entries", len(entries))
	}
}

func slicesIndex(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

func TestSayPartialConnection(t *testing.T) {
	h := newHarness(t)
	h.airfoil.status = "Kitchen|true, Office|false"

	res, err := h.announcer().Say(context.Background(), Options{Text: "hello", Speakers: []string{"Kitchen", "Office", "Garage"}})
	if err != nil {
		t.Fatalf("Partial connection should not fail the run: %v", err)
	}
	if res.Wait.AllConnected {
		t.Error("Expected partial connection")
	}

	warns := h.reporter.Texts("warn")
	if len(warns) != 1 || warns[0] != "Only 1/3 speakers connected after 50ms" {
		t.Errorf("Unexpected warnings: %v", warns)
	}
	details := h.reporter.Texts("detail")
	expect := []string{"✓ Connected: Kitchen", "✗ Failed: Office, Garage"}
	if !reflect.DeepEqual(details, expect) {
		t.Errorf("Expected details %v, got %v", expect, details)
	}
	if got := sequence(h.runner); got[len(got)-2] != "afplay:tts.mp3" {
		t.Errorf("Expected the announcement to play anyway, got %v", got)
	}
}

func TestSayAborts(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(h *harness)
		expect     []string
		disconnect bool
	}{
		{
			name:   "synthesis failure",
			setup:  func(h *harness) { h.synth.err = errors.New("quota exceeded") },
			expect: nil,
		},
		{
			name: "conversion failure",
			setup: func(h *harness) {
				h.runner.OnFunc("ffmpeg", func([]string) mock.Response {
					return mock.Response{Stderr: "Invalid data", ExitCode: 1}
				})
			},
			expect: []string{"ffmpeg"},
		},
		{
			name:   "airfoil setup failure",
			setup:  func(h *harness) { h.airfoil.setupExit = 1 },
			expect: []string{"ffmpeg", "osascript:setup"},
		},
		{
			name: "playback failure",
			setup: func(h *harness) {
				h.runner.On("afplay", mock.Response{Stderr: "AudioFileOpen failed", ExitCode: 1})
			},
			expect:     []string{"ffmpeg", "osascript:setup", "osascript:status", "afplay:tts.mp3", "osascript:disconnect"},
			disconnect: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			tt.setup(h)

			_, err := h.announcer().Say(context.Background(), Options{Text: "hello"})
			if err == nil {
				t.Fatal("Expected an error")
			}
			if got := sequence(h.runner); !reflect.DeepEqual(got, tt.expect) {
				t.Errorf("Expected calls %v, got %v", tt.expect, got)
			}
			if len(h.reporter.Texts("done")) != 0 {
				t.Error("Done should not be reported on failure")
			}
			if tt.disconnect && len(h.sleeper.slept) != 0 {
				t.Errorf("Failed runs should disconnect without delay, slept %v", h.sleeper.slept)
			}
			entries, _ := os.ReadDir(h.tempDir)
			if len(entries) != 0 {
				t.Errorf("Expected working directory removed, found %d entries", len(entries))
			}
		})
	}
}

func TestSayKeepConnectedAndNoChime(t *testing.T) {
	h := newHarness(t)
	h.withChime(t)

	_, err := h.announcer().Say(context.Background(), Options{Text: "hello", KeepConnected: true, NoChime: true})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expect := []string{"ffmpeg", "osascript:setup", "osascript:status", "afplay:tts.mp3"}
	if got := sequence(h.runner); !reflect.DeepEqual(got, expect) {
		t.Errorf("Expected calls %v, got %v", expect, got)
	}
	if len(h.sleeper.slept) != 0 {
		t.Errorf("Expected no pauses, got %v", h.sleeper.slept)
	}
}

func TestSayMissingChimeSkipped(t *testing.T) {
	h := newHarness(t)
	h.cfg.Audio.ChimeFile = filepath.Join(t.TempDir(), "missing.mp3")

	if _, err := h.announcer().Say(context.Background(), Options{Text: "hello"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for _, c := range sequence(h.runner) {
		if c == "afplay:missing.mp3" {
			t.Error("Missing chime should not be played")
		}
	}
}

func TestSayChimeFailureWarns(t *testing.T) {
	h := newHarness(t)
	h.withChime(t)
	h.runner.OnFunc("afplay", func(args []string) mock.Response {
		if filepath.Base(args[0]) == "gong_stereo.mp3" {
			return mock.Response{ExitCode: 1}
		}
		return mock.Response{}
	})

	if _, err := h.announcer().Say(context.Background(), Options{Text: "hello"}); err != nil {
		t.Fatalf("Chime failure should not fail the run: %v", err)
	}
	if warns := h.reporter.Texts("warn"); len(warns) != 1 || !strings.Contains(warns[0], "chime") {
		t.Errorf("Expected a chime warning, got %v", warns)
	}
}

func TestSayErrors(t *testing.T) {
	h := newHarness(t)
	h.cfg.Speakers = nil

	if _, err := h.announcer().Say(context.Background(), Options{Text: "hello"}); !errors.Is(err, ErrNoSpeakers) {
		t.Errorf("Expected ErrNoSpeakers, got %v", err)
	}
	if _, err := h.announcer().Say(context.Background(), Options{Text: "  ", Speakers: []string{"A"}}); !errors.Is(err, tts.ErrEmptyText) {
		t.Errorf("Expected ErrEmptyText, got %v", err)
	}
	if len(h.runner.Calls()) != 0 {
		t.Errorf("Expected no commands, got %v", sequence(h.runner))
	}
}

func TestSayCancelledStillDisconnects(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	h.runner.OnFunc("afplay", func([]string) mock.Response {
		cancel()
		return mock.Response{}
	})

	_, err := h.announcer().Say(ctx, Options{Text: "hello"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	got := sequence(h.runner)
	if got[len(got)-1] != "osascript:disconnect" {
		t.Errorf("Expected a final disconnect, got %v", got)
	}
}
