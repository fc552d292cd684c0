package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	DefaultFontSize  = 50
	DefaultFontColor = "white"
	DefaultFont      = "DejaVu-Sans"
)

// Editor trims, captions and joins existing videos.
type Editor struct {
	tools     *Tools
	outputDir string
}

func NewEditor(tools *Tools, outputDir string) *Editor {
	if outputDir == "" {
		outputDir = "edited_videos"
	}
	return &Editor{tools: tools, outputDir: outputDir}
}

func (e *Editor) output(name string) (string, error) {
	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return "", err
	}
	return filepath.Join(e.outputDir, name), nil
}

// Trim cuts input to [start, end] seconds. Start is clamped to zero and end
// to the video length.
func (e *Editor) Trim(ctx context.Context, input string, start, end float64, filename string) (string, error) {
	info, err := e.tools.Probe(ctx, input)
	if err != nil {
		return "", err
	}
	start = max(start, 0)
	if info.Duration > 0 && end > info.Duration {
		end = info.Duration
	}
	if start >= end {
		return "", fmt.Errorf("%w: %.3f >= %.3f", ErrInvalidRange, start, end)
	}

	if filename == "" {
		filename = stem(input) + "_trimmed.mp4"
	}
	out, err := e.output(filename)
	if err != nil {
		return "", err
	}

	args := []string{
		"-y",
		"-ss", ffloat(start),
		"-i", input,
		"-t", ffloat(end - start),
		"-c:v", "libx264", "-pix_fmt", "yuv420p",
		"-c:a", "aac",
		out,
	}
	if err := e.tools.ffmpeg(ctx, args, nil); err != nil {
		return "", fmt.Errorf("trim: %w", err)
	}
	e.tools.logger.Info("trimmed", zap.String("output", out), zap.Float64("start", start), zap.Float64("end", end))
	return out, nil
}

// TextOptions places a caption. X is left, center or right; Y is top,
// center or bottom. A zero End means the end of the video.
type TextOptions struct {
	Text     string
	X, Y     string
	Start    float64
	End      float64
	FontSize int
	Color    string
	Font     string
	Filename string
}

var (
	textX = map[string]string{"left": "0", "center": "(w-text_w)/2", "right": "w-text_w"}
	textY = map[string]string{"top": "0", "center": "(h-text_h)/2", "bottom": "h-text_h"}
)

// escapeDrawtext escapes characters that are special inside a drawtext
// option value.
func escapeDrawtext(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`, `%`, `\%`, ",", `\,`)
	return r.Replace(s)
}

func textFilter(o TextOptions, duration float64) (string, error) {
	x, ok := textX[strings.ToLower(o.X)]
	if !ok {
		return "", fmt.Errorf("%w: horizontal position %q", ErrUnsupported, o.X)
	}
	y, ok := textY[strings.ToLower(o.Y)]
	if !ok {
		return "", fmt.Errorf("%w: vertical position %q", ErrUnsupported, o.Y)
	}
	end := o.End
	if end <= 0 {
		end = duration
	}
	return fmt.Sprintf("drawtext=text='%s':font='%s':fontsize=%d:fontcolor=%s:x=%s:y=%s:enable='between(t,%s,%s)'",
		escapeDrawtext(o.Text), escapeDrawtext(o.Font), o.FontSize, o.Color, x, y, ffloat(o.Start), ffloat(end)), nil
}

// AddText burns a caption into input.
func (e *Editor) AddText(ctx context.Context, input string, opts TextOptions) (string, error) {
	if strings.TrimSpace(opts.Text) == "" {
		return "", fmt.Errorf("%w: empty caption", ErrUnsupported)
	}
	if opts.X == "" {
		opts.X = "center"
	}
	if opts.Y == "" {
		opts.Y = "center"
	}
	if opts.FontSize <= 0 {
		opts.FontSize = DefaultFontSize
	}
	if opts.Color == "" {
		opts.Color = DefaultFontColor
	}
	if opts.Font == "" {
		opts.Font = DefaultFont
	}

	info, err := e.tools.Probe(ctx, input)
	if err != nil {
		return "", err
	}
	filter, err := textFilter(opts, info.Duration)
	if err != nil {
		return "", err
	}

	name := opts.Filename
	if name == "" {
		name = stem(input) + "_with_text.mp4"
	}
	out, err := e.output(name)
	if err != nil {
		return "", err
	}

	args := []string{"-y", "-i", input, "-vf", filter, "-c:v", "libx264", "-pix_fmt", "yuv420p"}
	if info.HasAudio {
		args = append(args, "-c:a", "copy")
	}
	args = append(args, out)
	if err := e.tools.ffmpeg(ctx, args, nil); err != nil {
		return "", fmt.Errorf("add text: %w", err)
	}
	e.tools.logger.Info("caption added", zap.String("output", out))
	return out, nil
}

// Join concatenates inputs with a transition of the given length between
// each pair.
func (e *Editor) Join(ctx context.Context, inputs []string, transition string, duration float64, filename string) (string, error) {
	if len(inputs) < 2 {
		return "", fmt.Errorf("%w: need at least 2 videos to add transitions", ErrNotEnoughInputs)
	}
	xfade, err := xfadeName(transition)
	if err != nil {
		return "", err
	}
	if duration <= 0 {
		duration = DefaultFadeDuration
	}

	durations := make([]float64, len(inputs))
	withAudio := true
	var width, height int
	fps := 30.0
	for i, in := range inputs {
		info, err := e.tools.Probe(ctx, in)
		if err != nil {
			return "", err
		}
		durations[i] = info.Duration
		withAudio = withAudio && info.HasAudio
		if i == 0 {
			width, height = info.Width, info.Height
			if info.FPS > 0 {
				fps = info.FPS
			}
		}
	}
	fade := clampFade(durations, duration)

	if filename == "" {
		filename = "combined_with_transitions.mp4"
	}
	out, err := e.output(filename)
	if err != nil {
		return "", err
	}

	args := []string{"-y"}
	for _, in := range inputs {
		args = append(args, "-i", in)
	}

	// xfade needs every input at the same size and frame rate as the first
	var parts []string
	for i := range inputs {
		parts = append(parts, fmt.Sprintf("[%d:v]scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1,fps=%s,format=yuv420p[n%d]",
			i, width, height, width, height, strconv.FormatFloat(fps, 'f', -1, 64), i))
	}
	graph, vOut, aOut := joinGraph(durations, xfade, fade, withAudio)
	for i := range inputs {
		graph = strings.ReplaceAll(graph, fmt.Sprintf("[%d:v]", i), fmt.Sprintf("[n%d]", i))
	}
	parts = append(parts, graph)

	args = append(args, "-filter_complex", strings.Join(parts, ";"), "-map", vOut)
	if withAudio {
		args = append(args, "-map", aOut, "-c:a", "aac")
	}
	args = append(args, "-c:v", "libx264", "-pix_fmt", "yuv420p", out)

	if err := e.tools.ffmpeg(ctx, args, nil); err != nil {
		return "", fmt.Errorf("join: %w", err)
	}
	e.tools.logger.Info("videos joined", zap.Int("inputs", len(inputs)), zap.String("transition", transition), zap.String("output", out))
	return out, nil
}
