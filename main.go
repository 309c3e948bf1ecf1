// Package main provides the entry point for the announce CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/announce/internal/config"
	"github.com/dgnsrekt/announce/internal/textsrc"
	gap "github.com/muesli/go-app-paths"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	debug      bool
	env        config.Env
	logCloser  = func() error { return nil }

	errNoText = errors.New("no text given")

	// stdinIsPipe is replaced in tests.
	stdinIsPipe = textsrc.StdinIsPipe

	rootCmd = &cobra.Command{
		Use:   "announce [TEXT...]",
		Short: "Speak announcements on AirPlay speakers",
		Long: paragraph(
			fmt.Sprintf("\nSpeak text on your %s through Airfoil.", keyword("AirPlay speakers")),
		),
		Example: paragraph(`announce "Dinner is ready"
announce say --speakers "Kitchen, Office" "Meeting in five minutes"
echo "Build finished" | announce`),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.ArbitraryArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

func validateOptions(*cobra.Command) error {
	var err error
	if env, err = config.LoadEnv(); err != nil {
		return err
	}

	if logCloser, err = setupLog(debug || env.Debug, env.LogFile); err != nil {
		return err
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file %s: %w", configFile, err)
		}
		log.Debug("Using configuration file", "path", configFile)
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) || termenv.EnvNoColor() { //nolint:gosec
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	return nil
}

// loadConfig decodes and validates the configuration found at startup.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		if used := viper.ConfigFileUsed(); used != "" {
			return nil, fmt.Errorf("%s: %w", used, err)
		}
		return nil, err
	}
	return cfg, nil
}

// execute implements the bare "announce TEXT..." form.
func execute(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		if yes, err := stdinIsPipe(); err != nil {
			return err
		} else if !yes {
			_ = cmd.Help()
			return errNoText
		}
	}
	return runSay(cmd, args)
}

// outputWidth is the terminal width for rendered output, capped at 120.
func outputWidth() int {
	if !term.IsTerminal(int(os.Stdout.Fd())) { //nolint:gosec
		return 80
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd())) //nolint:gosec
	if err != nil || w == 0 {
		return 80
	}
	return min(w, 120)
}

// glamourStyle picks a plain style when stdout is not a terminal.
func glamourStyle() string {
	if !term.IsTerminal(int(os.Stdout.Fd())) { //nolint:gosec
		return "notty"
	}
	return "auto"
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = logCloser()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log debug output to stderr and the log file")

	rootCmd.AddCommand(sayCmd, speakersCmd, doctorCmd, cacheCmd, configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "announce")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "announce")}, dirs...)
	}

	if c := os.Getenv("ANNOUNCE_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	config.SetDefaults(viper.GetViper())
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.SetEnvPrefix("announce")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "config.json")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
		configFile = ""
	}
}
