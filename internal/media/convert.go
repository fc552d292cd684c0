package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FormatSettings are the codecs and fixed arguments for one output format.
type FormatSettings struct {
	Container  string
	VideoCodec string
	AudioCodec string
	ExtraArgs  []string
}

var formats = map[string]FormatSettings{
	"mp4": {
		Container:  "mp4",
		VideoCodec: "libx264",
		AudioCodec: "aac",
		ExtraArgs:  []string{"-preset", "medium", "-crf", "23"},
	},
	"avi": {
		Container:  "avi",
		VideoCodec: "mpeg4",
		AudioCodec: "mp3",
		ExtraArgs:  []string{"-q:v", "6"},
	},
	"mov": {
		Container:  "mov",
		VideoCodec: "libx264",
		AudioCodec: "aac",
		ExtraArgs:  []string{"-preset", "medium", "-crf", "23"},
	},
	"mkv": {
		Container:  "matroska",
		VideoCodec: "libx264",
		AudioCodec: "aac",
		ExtraArgs:  []string{"-preset", "medium", "-crf", "23"},
	},
	"webm": {
		Container:  "webm",
		VideoCodec: "libvpx-vp9",
		AudioCodec: "libopus",
		ExtraArgs:  []string{"-b:v", "0", "-crf", "30", "-row-mt", "1"},
	},
}

var x264Quality = map[string][]string{
	"low":    {"-preset", "ultrafast", "-crf", "28"},
	"medium": {"-preset", "medium", "-crf", "23"},
	"high":   {"-preset", "slow", "-crf", "18"},
}

var qualityTable = map[string]map[string][]string{
	"mp4": x264Quality,
	"mov": x264Quality,
	"mkv": x264Quality,
	"webm": {
		"low":    {"-crf", "35"},
		"medium": {"-crf", "30"},
		"high":   {"-crf", "25"},
	},
}

// Formats lists the supported output formats.
func Formats() []string {
	out := make([]string, 0, len(formats))
	for f := range formats {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// LookupFormat returns the settings for format.
func LookupFormat(format string) (FormatSettings, error) {
	s, ok := formats[strings.ToLower(format)]
	if !ok {
		return FormatSettings{}, fmt.Errorf("%w: format %q (supported: %s)", ErrUnsupported, format, strings.Join(Formats(), ", "))
	}
	return s, nil
}

// QualitySettings returns the arguments for quality in format. Unknown
// qualities and formats without a quality table get no extra arguments.
func QualitySettings(quality, format string) []string {
	return qualityTable[strings.ToLower(format)][strings.ToLower(quality)]
}

type ConvertOptions struct {
	Filename  string
	Quality   string
	Overwrite bool
}

type Converter struct {
	tools     *Tools
	outputDir string
	newID     func() string
}

func NewConverter(tools *Tools, outputDir string) *Converter {
	if outputDir == "" {
		outputDir = "converted_videos"
	}
	return &Converter{
		tools:     tools,
		outputDir: outputDir,
		newID:     func() string { return uuid.NewString()[:8] },
	}
}

// Convert transcodes input into format and returns the output path. The
// default name is <stem>_<id>.<format> with a short random id.
func (c *Converter) Convert(ctx context.Context, input, format string, opts ConvertOptions) (string, error) {
	if err := requireFile(input); err != nil {
		return "", fmt.Errorf("input: %w", err)
	}
	format = strings.ToLower(format)
	settings, err := LookupFormat(format)
	if err != nil {
		return "", err
	}

	name := opts.Filename
	if name == "" {
		name = fmt.Sprintf("%s_%s.%s", stem(input), c.newID(), format)
	} else {
		name = ensureExt(name, "."+format)
	}
	out := filepath.Join(c.outputDir, name)

	if _, err := os.Stat(out); err == nil && !opts.Overwrite {
		return "", fmt.Errorf("%w: %s", ErrOutputExists, out)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	if err := os.MkdirAll(c.outputDir, 0755); err != nil {
		return "", err
	}

	args := []string{
		"-i", input,
		"-c:v", settings.VideoCodec,
		"-c:a", settings.AudioCodec,
	}
	args = append(args, settings.ExtraArgs...)
	args = append(args, QualitySettings(opts.Quality, format)...)
	args = append(args, "-f", settings.Container)
	if opts.Overwrite {
		args = append(args, "-y")
	} else {
		args = append(args, "-n")
	}
	args = append(args, out)

	if err := c.tools.ffmpeg(ctx, args, nil); err != nil {
		return "", fmt.Errorf("convert to %s: %w", format, err)
	}
	c.tools.logger.Info("converted", zap.String("input", input), zap.String("output", out), zap.String("quality", opts.Quality))
	return out, nil
}

// ConvertMany converts input into each format in turn with generated names.
func (c *Converter) ConvertMany(ctx context.Context, input string, formats []string, quality string, overwrite bool) ([]string, error) {
	outputs := make([]string, 0, len(formats))
	for _, f := range formats {
		out, err := c.Convert(ctx, input, f, ConvertOptions{Quality: quality, Overwrite: overwrite})
		if err != nil {
			return outputs, err
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}
