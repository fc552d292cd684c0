package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/shortsreel/internal/analyzer"
	"github.com/ivlev/shortsreel/internal/effects"
	"github.com/ivlev/shortsreel/internal/source"
	"github.com/ivlev/shortsreel/internal/system"
)

const (
	DefaultFPS              = 24
	DefaultSlideDuration    = 5.0
	DefaultFadeDuration     = 1.0
	DefaultBackgroundVolume = 0.3
	DefaultQRDuration       = 3.0

	silentAudio = "anullsrc=r=44100:cl=stereo"
)

// CreateOptions describes a slideshow video. Images may name image files,
// directories of images, or a single PDF whose pages become slides.
type CreateOptions struct {
	Images           []string
	Audio            []string // one per slide, "" for none
	BackgroundMusic  string
	BackgroundVolume float64
	Filename         string

	Width, Height   int
	FPS             int
	DefaultDuration float64
	FadeDuration    float64 // negative disables crossfades
	OutroDuration   float64 // zoom back to 1:1 before the crossfade; 0 uses the fade, negative disables
	DPI             int

	Motion    string
	ZoomSpeed float64
	Seed      int64
	Fill      color.RGBA

	Encoder string
	Quality int

	QRContent  string
	QRDuration float64
}

func (o *CreateOptions) normalize() error {
	if len(o.Images) == 0 {
		return fmt.Errorf("%w: at least one image is required", ErrNotEnoughInputs)
	}
	if o.Width <= 0 || o.Height <= 0 {
		o.Width, o.Height = 1080, 1920
	}
	o.Width += o.Width % 2
	o.Height += o.Height % 2
	if o.FPS <= 0 {
		o.FPS = DefaultFPS
	}
	if o.DefaultDuration <= 0 {
		o.DefaultDuration = DefaultSlideDuration
	}
	if o.FadeDuration == 0 {
		o.FadeDuration = DefaultFadeDuration
	}
	if o.FadeDuration < 0 {
		o.FadeDuration = 0
	}
	if o.BackgroundVolume <= 0 {
		o.BackgroundVolume = DefaultBackgroundVolume
	}
	if o.QRDuration <= 0 {
		o.QRDuration = DefaultQRDuration
	}
	if o.DPI <= 0 {
		o.DPI = 150
	}
	if o.Fill.A == 0 {
		o.Fill.A = 255
	}
	if o.Encoder == "" {
		o.Encoder = EncoderX264
	}
	if o.Filename == "" {
		o.Filename = "output.mp4"
	}
	o.Filename = ensureExt(o.Filename, ".mp4")

	for _, p := range o.Audio {
		if p == "" {
			continue
		}
		if err := requireFile(p); err != nil {
			return fmt.Errorf("audio: %w", err)
		}
	}
	if o.BackgroundMusic != "" {
		if err := requireFile(o.BackgroundMusic); err != nil {
			return fmt.Errorf("background music: %w", err)
		}
	}
	return nil
}

type slide struct {
	index    int
	audio    string
	duration float64
	image    image.Image // set for generated slides such as the QR card
}

// Creator renders slideshows: each slide becomes a segment encoded from a
// raw RGBA frame, then the segments are crossfaded into one video.
type Creator struct {
	tools     *Tools
	outputDir string
	workers   int
}

func NewCreator(tools *Tools, outputDir string, workers int) *Creator {
	if outputDir == "" {
		outputDir = "generated_videos"
	}
	if workers <= 0 {
		workers = system.Workers()
	}
	return &Creator{tools: tools, outputDir: outputDir, workers: workers}
}

func (c *Creator) Create(ctx context.Context, opts CreateOptions) (string, error) {
	startTime := time.Now()
	if err := opts.normalize(); err != nil {
		return "", err
	}

	src, err := source.Open(opts.Images...)
	if err != nil {
		return "", err
	}
	defer src.Close()

	count := src.PageCount()
	if count == 0 {
		return "", fmt.Errorf("%w: no slides in %s", ErrNotEnoughInputs, strings.Join(opts.Images, ", "))
	}
	if len(opts.Audio) > 0 && len(opts.Audio) != count {
		return "", fmt.Errorf("%w: %d audio files for %d slides", ErrAudioMismatch, len(opts.Audio), count)
	}

	slides := make([]slide, count)
	for i := range slides {
		slides[i] = slide{index: i, duration: opts.DefaultDuration}
		if i < len(opts.Audio) && opts.Audio[i] != "" {
			info, err := c.tools.Probe(ctx, opts.Audio[i])
			if err != nil {
				return "", fmt.Errorf("slide %d audio: %w", i+1, err)
			}
			if info.Duration > 0 {
				slides[i].duration = info.Duration
			}
			slides[i].audio = opts.Audio[i]
		}
	}
	if opts.QRContent != "" {
		card, err := qrCard(opts.QRContent, opts.Width, opts.Height, opts.Fill)
		if err != nil {
			return "", err
		}
		slides = append(slides, slide{index: len(slides), duration: opts.QRDuration, image: card})
	}

	durations := make([]float64, len(slides))
	for i := range slides {
		slides[i].duration = alignToFrames(slides[i].duration, opts.FPS)
		durations[i] = slides[i].duration
	}
	fade := clampFade(durations, opts.FadeDuration)
	if fade != opts.FadeDuration {
		c.tools.logger.Warn("fade shortened to fit the shortest slide", zap.Float64("fade", fade))
	}
	outro := opts.OutroDuration
	if outro == 0 {
		outro = fade
	}
	outro = max(outro, 0)

	effect, err := effects.ForMotion(opts.Motion, opts.Seed)
	if err != nil {
		return "", err
	}
	var detector analyzer.Detector
	if strings.EqualFold(strings.TrimSpace(opts.Motion), "focus") {
		detector = analyzer.NewContrastDetector()
	}

	tmpDir, err := os.MkdirTemp("", "shortsreel_")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmpDir)

	c.tools.logger.Info("creating video",
		zap.Int("slides", len(slides)),
		zap.String("size", fmt.Sprintf("%dx%d", opts.Width, opts.Height)),
		zap.Int("fps", opts.FPS),
		zap.String("encoder", opts.Encoder),
	)

	segments := make([]string, len(slides))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(c.workers, len(slides)))
	for i, s := range slides {
		g.Go(func() error {
			img := s.image
			if img == nil {
				var err error
				if img, err = src.RenderPage(s.index, opts.DPI); err != nil {
					return fmt.Errorf("render slide %d: %w", i+1, err)
				}
			}
			params := effects.SegmentParams{
				Width:         opts.Width,
				Height:        opts.Height,
				FPS:           opts.FPS,
				Duration:      s.duration,
				FadeDuration:  fade,
				OutroDuration: outro,
				ZoomSpeed:     opts.ZoomSpeed,
				Fill:          ffmpegColor(opts.Fill),
				Index:         i,
			}
			if detector != nil && s.image == nil {
				if b, ok, err := analyzer.Subject(detector, img); err == nil && ok {
					f := effects.FocusOn(img.Bounds(), b.Rect, opts.Width, opts.Height)
					params.Focus = &f
				}
			}
			path := filepath.Join(tmpDir, fmt.Sprintf("s%03d.mp4", i))
			if err := c.encodeSegment(gctx, img, s.audio, effect.Filter(params), s.duration, path, opts); err != nil {
				return fmt.Errorf("encode slide %d: %w", i+1, err)
			}
			segments[i] = path
			c.tools.logger.Debug("segment ready", zap.Int("slide", i+1), zap.Int("total", len(slides)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(c.outputDir, 0755); err != nil {
		return "", err
	}
	out := filepath.Join(c.outputDir, opts.Filename)
	if err := c.concatenate(ctx, segments, durations, fade, out, opts); err != nil {
		return "", err
	}

	c.tools.logger.Info("video created", zap.String("output", out), zap.Duration("elapsed", time.Since(startTime)))
	return out, nil
}

// encodeSegment pipes one raw RGBA frame to ffmpeg, which repeats it
// through the effect filter for the segment duration.
func (c *Creator) encodeSegment(ctx context.Context, img image.Image, audio, filter string, duration float64, path string, opts CreateOptions) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min != (image.Point{}) {
		rgba = system.GetImage(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		defer system.PutImage(rgba)
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}

	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", bounds.Dx(), bounds.Dy()),
		"-framerate", fmt.Sprintf("%d", opts.FPS),
		"-i", "-",
	}
	if audio != "" {
		args = append(args, "-i", audio)
	} else {
		args = append(args, "-f", "lavfi", "-i", silentAudio)
	}
	args = append(args,
		"-vf", filter,
		"-map", "0:v", "-map", "1:a",
		"-t", ffloat(duration),
		"-r", fmt.Sprintf("%d", opts.FPS),
		"-pix_fmt", "yuv420p",
		"-c:v", opts.Encoder,
	)
	args = append(args, QualityArgs(opts.Encoder, opts.Quality)...)
	args = append(args, "-c:a", "aac", "-ar", "44100", "-ac", "2", path)

	return c.tools.ffmpeg(ctx, args, bytes.NewReader(rgba.Pix))
}

// concatenate joins the segments with crossfades, fades the whole video in
// and out, and mixes in looping background music.
func (c *Creator) concatenate(ctx context.Context, segments []string, durations []float64, fade float64, out string, opts CreateOptions) error {
	args := []string{"-y"}
	for _, s := range segments {
		args = append(args, "-i", s)
	}

	graph, vOut, aOut := joinGraph(durations, "fade", fade, true)
	parts := []string{}
	if graph != "" {
		parts = append(parts, graph)
	}

	_, total := Timeline(durations, fade)
	edge := min(opts.FadeDuration, total/2)
	if edge > 0 {
		parts = append(parts, fmt.Sprintf("%sfade=t=in:st=0:d=%s,fade=t=out:st=%s:d=%s[vout]",
			vOut, ffloat(edge), ffloat(total-edge), ffloat(edge)))
	} else {
		parts = append(parts, vOut+"null[vout]")
	}

	if opts.BackgroundMusic != "" {
		bgIndex := len(segments)
		args = append(args, "-stream_loop", "-1", "-i", opts.BackgroundMusic)
		parts = append(parts, fmt.Sprintf("[%d:a]volume=%s[bg];%s[bg]amix=inputs=2:duration=first:dropout_transition=0[aout]",
			bgIndex, ffloat(opts.BackgroundVolume), aOut))
	} else {
		parts = append(parts, aOut+"anull[aout]")
	}

	args = append(args,
		"-filter_complex", strings.Join(parts, ";"),
		"-map", "[vout]", "-map", "[aout]",
		"-t", ffloat(total),
		"-c:v", opts.Encoder, "-pix_fmt", "yuv420p",
	)
	args = append(args, QualityArgs(opts.Encoder, opts.Quality)...)
	args = append(args, "-c:a", "aac", "-movflags", "+faststart", out)

	if err := c.tools.ffmpeg(ctx, args, nil); err != nil {
		return fmt.Errorf("join segments: %w", err)
	}
	return nil
}

// qrCard renders content as a QR code centred on a width x height card.
func qrCard(content string, width, height int, fill color.RGBA) (image.Image, error) {
	side := min(width, height) * 2 / 3
	png, err := qrcode.Encode(content, qrcode.Medium, side)
	if err != nil {
		return nil, fmt.Errorf("qr code: %w", err)
	}
	code, _, err := image.Decode(bytes.NewReader(png))
	if err != nil {
		return nil, fmt.Errorf("qr code: %w", err)
	}

	card := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(card, card.Bounds(), image.NewUniform(fill), image.Point{}, draw.Src)
	b := code.Bounds()
	at := image.Pt((width-b.Dx())/2, (height-b.Dy())/2)
	draw.Draw(card, b.Sub(b.Min).Add(at), code, b.Min, draw.Src)
	return card, nil
}
