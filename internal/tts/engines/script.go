package engines

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgnsrekt/announce/internal/proc"
	"github.com/dgnsrekt/announce/internal/tts"
)

// ScriptEngine runs an external TTS script:
//
//	SCRIPT TEXT -v VOICE -o OUTPUT --format FORMAT
//
// Python scripts are started through the interpreter.
type ScriptEngine struct {
	script      string
	interpreter string
	runner      proc.Runner
	tempDir     string
}

// ScriptConfig holds configuration for the script engine.
type ScriptConfig struct {
	// Script is the path of the TTS program.
	Script string

	// Interpreter overrides the program used to start .py scripts
	// (defaults to python3).
	Interpreter string

	// TempDir for the script's output file - defaults to system temp
	TempDir string
}

// NewScriptEngine creates a script engine that runs through runner.
func NewScriptEngine(config ScriptConfig, runner proc.Runner) (*ScriptEngine, error) {
	if config.Script == "" {
		return nil, errors.New("TTS script path is required")
	}
	if runner == nil {
		return nil, errors.New("runner is required")
	}
	if config.Interpreter == "" && strings.EqualFold(filepath.Ext(config.Script), ".py") {
		config.Interpreter = "python3"
	}
	return &ScriptEngine{
		script:      config.Script,
		interpreter: config.Interpreter,
		runner:      runner,
		tempDir:     config.TempDir,
	}, nil
}

// Name returns the engine identifier.
func (e *ScriptEngine) Name() string {
	return "script"
}

// Command returns the program and arguments used to synthesize req into
// output.
func (e *ScriptEngine) Command(req tts.Request, output string) (string, []string) {
	args := []string{req.Text, "-v", req.VoiceID, "-o", output, "--format", req.Format}
	if e.interpreter != "" {
		return e.interpreter, append([]string{e.script}, args...)
	}
	return e.script, args
}

// Describe renders the command line for req.
func (e *ScriptEngine) Describe(req tts.Request) string {
	name, args := e.Command(req, "tts."+tts.Codec(req.Format))
	parts := []string{name}
	for _, a := range args {
		if strings.ContainsAny(a, " \t\"'") {
			a = strconv.Quote(a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// Synthesize runs the script and reads back the file it wrote.
func (e *ScriptEngine) Synthesize(ctx context.Context, req tts.Request) (*tts.Audio, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, tts.ErrEmptyText
	}

	dir, err := os.MkdirTemp(e.tempDir, "announce-tts-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	output := filepath.Join(dir, "tts."+tts.Codec(req.Format))
	name, args := e.Command(req, output)

	if _, err := e.runner.Run(ctx, name, args...); err != nil {
		return nil, &tts.SynthesisError{Engine: e.Name(), Message: "TTS error", Cause: err}
	}

	data, err := os.ReadFile(output)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tts.ErrNoAudio, err)
	}
	if len(data) == 0 {
		return nil, tts.ErrNoAudio
	}
	return &tts.Audio{Data: data, Format: req.Format}, nil
}
