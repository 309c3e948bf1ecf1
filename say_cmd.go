package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/announce/internal/announce"
	"github.com/dgnsrekt/announce/internal/config"
	"github.com/dgnsrekt/announce/internal/progress"
	"github.com/dgnsrekt/announce/internal/proc"
	"github.com/dgnsrekt/announce/internal/textsrc"
	"github.com/spf13/cobra"
)

// commandTimeout bounds external programs that run without their own
// deadline, playback included.
const commandTimeout = 10 * time.Minute

var (
	speakerList   string
	keepConnected bool
	noChime       bool
	textFile      string
	markdown      bool
	fromClipboard bool
	matchSpeakers bool
	dryRun        bool
	voiceID       string
	outputFormat  string
	volume        float64
	connectWait   time.Duration
	plain         bool

	sayCmd = &cobra.Command{
		Use:   "say [TEXT...]",
		Short: "Speak text on AirPlay speakers",
		Long: paragraph(fmt.Sprintf("\n%s the text, route Airfoil to the speakers, play a chime and the announcement, then disconnect.",
			keyword("Synthesize"))),
		Example: paragraph(`announce say "Dinner is ready"
announce say --speakers "Kitchen, Office" --no-chime "Stand-up in five"
announce say --file notes.md
announce say --dry-run "Testing"`),
		Args: cobra.ArbitraryArgs,
		RunE: runSay,
	}
)

// applyOverrides copies the flags that override configuration values.
func applyOverrides(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("voice") {
		cfg.ElevenLabs.VoiceID = voiceID
	}
	if flags.Changed("format") {
		cfg.ElevenLabs.Format = outputFormat
	}
	if flags.Changed("volume") {
		cfg.Airfoil.Volume = volume
	}
	if flags.Changed("timeout") {
		cfg.Airfoil.ConnectTimeout = connectWait
	}
	return cfg.Validate()
}

func runSay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyOverrides(cmd, cfg); err != nil {
		return err
	}

	text, err := textsrc.Resolve(textsrc.Options{
		Args:        args,
		File:        textFile,
		Clipboard:   fromClipboard,
		Markdown:    markdown,
		StdinIsPipe: stdinIsPipe,
	})
	if err != nil {
		return err
	}
	log.Debug("Resolved text", "origin", text.Origin, "chars", len(text.Content))

	runner := proc.NewSubprocessManager(commandTimeout)
	synth, closeSynth, err := newSynthesizer(cfg, runner)
	if err != nil {
		return err
	}
	defer closeSynth() //nolint:errcheck

	opts := announce.Options{
		Text:          text.Content,
		Speakers:      announce.SplitSpeakers(speakerList),
		Match:         matchSpeakers,
		KeepConnected: keepConnected,
		NoChime:       noChime,
	}

	if dryRun {
		plan, err := announce.New(cfg, synth, runner).Plan(cmd.Context(), opts)
		if err != nil {
			return err
		}
		out, err := plan.Render(glamourStyle(), outputWidth())
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	}

	reporter := progress.New(os.Stderr, plain || debug)
	defer reporter.Close()

	res, err := announce.New(cfg, synth, runner, announce.WithReporter(reporter)).Say(cmd.Context(), opts)
	if err != nil {
		return err
	}
	log.Debug("Announced", "run", res.RunID, "speakers", len(res.Speakers), "cached", res.Cached, "elapsed", res.Elapsed)
	return nil
}

func init() {
	sayCmd.Flags().StringVarP(&speakerList, "speakers", "s", "", `comma separated speakers, e.g. "Kitchen, Office" (default from config)`)
	sayCmd.Flags().BoolVarP(&keepConnected, "keep-connected", "k", false, "leave speakers connected afterwards")
	sayCmd.Flags().BoolVar(&noChime, "no-chime", false, "skip the chime")
	sayCmd.Flags().BoolVar(&noChime, "no-gong", false, "skip the chime")
	_ = sayCmd.Flags().MarkHidden("no-gong")
	sayCmd.Flags().StringVarP(&textFile, "file", "f", "", "read the text from a file (- for stdin)")
	sayCmd.Flags().BoolVarP(&markdown, "markdown", "m", false, "treat the text as markdown")
	sayCmd.Flags().BoolVar(&fromClipboard, "clipboard", false, "read the text from the clipboard")
	sayCmd.Flags().BoolVar(&matchSpeakers, "match", false, "fuzzy match speaker names against Airfoil")
	sayCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "show what would run without running it")
	sayCmd.Flags().StringVar(&voiceID, "voice", config.DefaultVoiceID, "voice ID")
	sayCmd.Flags().StringVar(&outputFormat, "format", config.DefaultFormat, "TTS output format")
	sayCmd.Flags().Float64Var(&volume, "volume", config.DefaultVolume, "speaker volume (0.0-1.0)")
	sayCmd.Flags().DurationVar(&connectWait, "timeout", config.DefaultConnectTimeout, "how long to wait for speakers to connect")
	sayCmd.Flags().BoolVar(&plain, "plain", false, "plain progress output, no spinner")
}
