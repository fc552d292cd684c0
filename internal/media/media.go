// Package media wraps ffmpeg and ffprobe for resizing, converting, creating
// and editing short videos.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ivlev/shortsreel/internal/logging"
)

var (
	ErrFFmpegMissing   = errors.New("ffmpeg not found in PATH")
	ErrUnsupported     = errors.New("unsupported media option")
	ErrOutputExists    = errors.New("output file already exists")
	ErrInvalidRange    = errors.New("start time must be less than end time")
	ErrNotEnoughInputs = errors.New("not enough inputs")
	ErrAudioMismatch   = errors.New("number of audio files must match number of slides")
)

// Runner executes an external command and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args []string, stdin io.Reader) ([]byte, error)
}

// CommandError carries the stderr tail of a failed command.
type CommandError struct {
	Name   string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Name, e.Err, e.Stderr)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args []string, stdin io.Reader) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != nil {
		cmd.Stdin = stdin
	}
	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), &CommandError{Name: name, Stderr: tail(stderr.String(), 2048), Err: err}
	}
	return stdout.Bytes(), nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}

// Tools locates ffmpeg and ffprobe and runs them through a Runner.
type Tools struct {
	FFmpeg  string
	FFprobe string
	runner  Runner
	logger  *zap.Logger
}

type ToolsOption func(*Tools)

func WithRunner(r Runner) ToolsOption {
	return func(t *Tools) {
		if r != nil {
			t.runner = r
		}
	}
}

func WithLogger(l *zap.Logger) ToolsOption {
	return func(t *Tools) { t.logger = logging.OrNop(l) }
}

// WithBinaries overrides the ffmpeg and ffprobe executables.
func WithBinaries(ffmpeg, ffprobe string) ToolsOption {
	return func(t *Tools) {
		if ffmpeg != "" {
			t.FFmpeg = ffmpeg
		}
		if ffprobe != "" {
			t.FFprobe = ffprobe
		}
	}
}

func NewTools(opts ...ToolsOption) *Tools {
	t := &Tools{
		FFmpeg:  "ffmpeg",
		FFprobe: "ffprobe",
		runner:  ExecRunner{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Check reports ErrFFmpegMissing when the ffmpeg binary cannot be found.
func (t *Tools) Check() error {
	if _, err := exec.LookPath(t.FFmpeg); err != nil {
		return fmt.Errorf("%w: %v", ErrFFmpegMissing, err)
	}
	return nil
}

func (t *Tools) ffmpeg(ctx context.Context, args []string, stdin io.Reader) error {
	t.logger.Debug("ffmpeg", zap.Strings("args", args))
	if _, err := t.runner.Run(ctx, t.FFmpeg, args, stdin); err != nil {
		return fmt.Errorf("ffmpeg: %w", err)
	}
	return nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func ensureExt(name, ext string) string {
	if strings.EqualFold(filepath.Ext(name), ext) {
		return name
	}
	return name + ext
}

func requireFile(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

func ffloat(v float64) string {
	return fmt.Sprintf("%.3f", v)
}
