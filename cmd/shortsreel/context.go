package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ivlev/shortsreel/internal/config"
	"github.com/ivlev/shortsreel/internal/logging"
	"github.com/ivlev/shortsreel/internal/media"
	"github.com/ivlev/shortsreel/internal/system"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	logger     *zap.Logger
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Log.Level = strings.TrimSpace(*c.logLevelFlag)
		}
		logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
		if err != nil {
			c.configErr = fmt.Errorf("init logger: %w", err)
			return
		}
		system.InitResourceLimits(logger)
		c.config = cfg
		c.logger = logger
	})
	return c.config, c.configErr
}

func (c *commandContext) log() *zap.Logger {
	return logging.OrNop(c.logger)
}

func (c *commandContext) sync() {
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}

// outputDir returns name under the configured output directory.
func (c *commandContext) outputDir(name string) string {
	root := "output"
	if c.config != nil && c.config.OutputDir != "" {
		root = c.config.OutputDir
	}
	return filepath.Join(root, name)
}

func (c *commandContext) tools() *media.Tools {
	m := c.config.Media
	return media.NewTools(
		media.WithBinaries(m.FFmpegPath, m.FFprobePath),
		media.WithLogger(c.log()),
	)
}

// readInput returns the contents of path, or stdin when path is "-" or empty.
func readInput(path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// writeOutput writes text to path, or to stdout when path is empty.
func writeOutput(w io.Writer, path, text string) error {
	if path == "" {
		_, err := fmt.Fprintln(w, strings.TrimRight(text, "\n"))
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(text), 0644)
}
