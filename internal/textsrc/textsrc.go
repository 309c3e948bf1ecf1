// Package textsrc resolves the text to announce from command line
// arguments, files, standard input or the clipboard.
package textsrc

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
)

// MaxInputSize bounds what is read from files and pipes.
const MaxInputSize = 1 << 20

var (
	// ErrEmptyText is returned when the resolved text is blank.
	ErrEmptyText = errors.New("nothing to announce")

	// ErrNoInput is returned when no source provided any text.
	ErrNoInput = errors.New("no text given: pass it as arguments, with --file, --clipboard or on stdin")
)

// Origin names where text came from.
type Origin string

// Origins, in precedence order.
const (
	FromArgs      Origin = "args"
	FromFile      Origin = "file"
	FromClipboard Origin = "clipboard"
	FromStdin     Origin = "stdin"
)

// Options select the text source.
type Options struct {
	Args      []string
	File      string // "-" reads stdin
	Clipboard bool
	Markdown  bool

	// Hooks for tests; nil selects the real implementation.
	Stdin         io.Reader
	StdinIsPipe   func() (bool, error)
	ReadClipboard func() (string, error)
}

// Text is the resolved announcement.
type Text struct {
	Content string
	Origin  Origin
}

// Resolve picks the first available source: arguments, --file,
// --clipboard, then piped stdin. Markdown is converted to speakable text
// when requested or when the file has a markdown extension.
func Resolve(opts Options) (*Text, error) {
	stdin := opts.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}

	var (
		raw      string
		origin   Origin
		markdown = opts.Markdown
		err      error
	)

	switch {
	case len(opts.Args) > 0:
		raw, origin = strings.Join(opts.Args, " "), FromArgs

	case opts.File != "":
		origin = FromFile
		if opts.File == "-" {
			raw, err = readAll(stdin)
		} else {
			raw, err = readFile(opts.File)
			markdown = markdown || IsMarkdownFile(opts.File)
		}

	case opts.Clipboard:
		origin = FromClipboard
		read := opts.ReadClipboard
		if read == nil {
			read = clipboard.ReadAll
		}
		raw, err = read()
		if err != nil {
			err = fmt.Errorf("unable to read clipboard: %w", err)
		}

	default:
		isPipe := opts.StdinIsPipe
		if isPipe == nil {
			isPipe = StdinIsPipe
		}
		yes, pipeErr := isPipe()
		if pipeErr != nil {
			return nil, pipeErr
		}
		if !yes {
			return nil, ErrNoInput
		}
		origin = FromStdin
		raw, err = readAll(stdin)
	}
	if err != nil {
		return nil, err
	}

	if markdown {
		if raw, err = Speakable(raw); err != nil {
			return nil, err
		}
	}

	content := Normalize(raw)
	if content == "" {
		return nil, ErrEmptyText
	}
	return &Text{Content: content, Origin: origin}, nil
}

// Normalize collapses runs of whitespace into single spaces.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// IsMarkdownFile reports whether path has a markdown extension.
func IsMarkdownFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".mdown", ".mkd":
		return true
	}
	return false
}

// StdinIsPipe reports whether stdin is redirected rather than a terminal.
func StdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

func readFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("unable to open file: %w", err)
	}
	defer f.Close() //nolint:errcheck
	return readAll(f)
}

func readAll(r io.Reader) (string, error) {
	b, err := io.ReadAll(io.LimitReader(r, MaxInputSize+1))
	if err != nil {
		return "", fmt.Errorf("unable to read input: %w", err)
	}
	if len(b) > MaxInputSize {
		return "", fmt.Errorf("input larger than %d bytes", MaxInputSize)
	}
	return string(b), nil
}
