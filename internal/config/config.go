package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no --config flag is given; a missing file there
// is not an error.
const DefaultPath = "shortsreel.yaml"

type Config struct {
	OutputDir string          `yaml:"output_dir"`
	Log       LogConfig       `yaml:"log"`
	Media     MediaConfig     `yaml:"media"`
	Speech    SpeechConfig    `yaml:"speech"`
	Translate TranslateConfig `yaml:"translate"`
	LLM       LLMConfig       `yaml:"llm"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MediaConfig holds the defaults for resize, create, convert and edit.
type MediaConfig struct {
	AspectRatio      string  `yaml:"aspect_ratio"`
	MaxDimension     int     `yaml:"max_dimension"`
	Width            int     `yaml:"width"`
	Height           int     `yaml:"height"`
	FPS              int     `yaml:"fps"`
	DefaultDuration  float64 `yaml:"default_duration"`
	FadeDuration     float64 `yaml:"fade_duration"`
	BackgroundVolume float64 `yaml:"background_volume"`
	Motion           string  `yaml:"motion"`
	ZoomSpeed        float64 `yaml:"zoom_speed"`
	DPI              int     `yaml:"dpi"`
	Quality          int     `yaml:"quality"`
	Workers          int     `yaml:"workers"`
	FillColor        string  `yaml:"fill_color"`
	FFmpegPath       string  `yaml:"ffmpeg_path"`
	FFprobePath      string  `yaml:"ffprobe_path"`
}

type SpeechConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Voice   string        `yaml:"voice"`
	Speed   float64       `yaml:"speed"`
	Volume  float64       `yaml:"volume"`
	Timeout time.Duration `yaml:"timeout"`
}

type TranslateConfig struct {
	URL         string        `yaml:"url"`
	APIKey      string        `yaml:"api_key"`
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`
}

type LLMConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		OutputDir: "output",
		Log:       LogConfig{Level: "info", Format: "console"},
		Media: MediaConfig{
			AspectRatio:      "9:16",
			MaxDimension:     1920,
			Width:            1080,
			Height:           1920,
			FPS:              24,
			DefaultDuration:  5.0,
			FadeDuration:     1.0,
			BackgroundVolume: 0.3,
			Motion:           "none",
			ZoomSpeed:        0.001,
			DPI:              150,
			FillColor:        "#000000",
			FFmpegPath:       "ffmpeg",
			FFprobePath:      "ffprobe",
		},
		Speech: SpeechConfig{
			BaseURL: "https://api.ttsmaker.com/v1",
			Voice:   "en-US-1",
			Speed:   1.0,
			Volume:  1.0,
			Timeout: 60 * time.Second,
		},
		Translate: TranslateConfig{
			URL:         "https://libretranslate.com/translate",
			Concurrency: 4,
			Timeout:     30 * time.Second,
		},
		LLM: LLMConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
		},
	}
}

// Load reads path over the defaults, then applies .env and environment
// overrides. An empty path means DefaultPath.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Speech.APIKey, "TTSMAKER_API_KEY")
	setString(&c.Speech.BaseURL, "TTSMAKER_BASE_URL")
	setString(&c.Translate.URL, "LIBRETRANSLATE_URL")
	setString(&c.Translate.APIKey, "LIBRETRANSLATE_API_KEY")
	setString(&c.LLM.APIKey, "OPENAI_API_KEY")
	setString(&c.LLM.BaseURL, "OPENAI_BASE_URL")
	setString(&c.LLM.Model, "OPENAI_MODEL")
	setString(&c.OutputDir, "SHORTSREEL_OUTPUT_DIR")
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// Validate rejects values no command can work with.
func (c *Config) Validate() error {
	var problems []string
	m := c.Media
	if m.MaxDimension <= 0 {
		problems = append(problems, "media.max_dimension must be positive")
	}
	if m.Width <= 0 || m.Height <= 0 {
		problems = append(problems, "media.width and media.height must be positive")
	}
	if m.FPS <= 0 {
		problems = append(problems, "media.fps must be positive")
	}
	if m.DefaultDuration <= 0 {
		problems = append(problems, "media.default_duration must be positive")
	}
	if m.FadeDuration < 0 {
		problems = append(problems, "media.fade_duration must not be negative")
	}
	if m.BackgroundVolume < 0 || m.BackgroundVolume > 1 {
		problems = append(problems, "media.background_volume must be within [0, 1]")
	}
	if c.Speech.Speed < 0.5 || c.Speech.Speed > 2.0 {
		problems = append(problems, "speech.speed must be within [0.5, 2.0]")
	}
	if c.Speech.Volume < 0.1 || c.Speech.Volume > 5.0 {
		problems = append(problems, "speech.volume must be within [0.1, 5.0]")
	}
	if c.Translate.Concurrency <= 0 {
		problems = append(problems, "translate.concurrency must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
