package media

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"

	"github.com/ivlev/shortsreel/internal/geometry"
	"github.com/ivlev/shortsreel/internal/source"
	"github.com/ivlev/shortsreel/internal/system"
)

const jpegQuality = 95

type ResizeOptions struct {
	Ratio        geometry.Ratio
	MaxDimension int
	Filename     string
	Fill         color.RGBA
}

func (o *ResizeOptions) normalize() error {
	if o.Ratio == (geometry.Ratio{}) {
		o.Ratio = geometry.Landscape
	}
	if err := o.Ratio.Validate(); err != nil {
		return err
	}
	if o.MaxDimension == 0 {
		o.MaxDimension = geometry.DefaultMaxDimension
	}
	if o.Fill.A == 0 {
		o.Fill.A = 255
	}
	return nil
}

// Resizer fits images and videos into a target aspect ratio, padding the
// rest of the canvas with a fill colour.
type Resizer struct {
	tools     *Tools
	outputDir string
}

func NewResizer(tools *Tools, outputDir string) *Resizer {
	if outputDir == "" {
		outputDir = "resized_media"
	}
	return &Resizer{tools: tools, outputDir: outputDir}
}

// Image writes a resized copy of input and returns its path. The output is
// PNG when the file name ends in .png and JPEG otherwise.
func (r *Resizer) Image(ctx context.Context, input string, opts ResizeOptions) (string, error) {
	if err := opts.normalize(); err != nil {
		return "", err
	}
	src, err := source.DecodeFile(input)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	b := src.Bounds()
	scaled, canvasSize, err := geometry.Fit(geometry.Size{W: b.Dx(), H: b.Dy()}, opts.Ratio, opts.MaxDimension)
	if err != nil {
		return "", err
	}

	canvas := system.GetImage(image.Rect(0, 0, canvasSize.W, canvasSize.H))
	defer system.PutImage(canvas)
	xdraw.Draw(canvas, canvas.Bounds(), image.NewUniform(opts.Fill), image.Point{}, xdraw.Src)

	off := geometry.Offset(scaled, canvasSize)
	dst := image.Rect(off.X, off.Y, off.X+scaled.W, off.Y+scaled.H)
	xdraw.CatmullRom.Scale(canvas, dst, src, b, xdraw.Over, nil)

	name := opts.Filename
	if name == "" {
		name = fmt.Sprintf("%s_%s.jpg", stem(input), opts.Ratio.Slug())
	}
	out := filepath.Join(r.outputDir, name)
	if err := writeImage(out, canvas); err != nil {
		return "", err
	}

	r.tools.logger.Info("image resized",
		zap.String("input", input),
		zap.Stringer("scaled", scaled),
		zap.Stringer("canvas", canvasSize),
		zap.String("output", out),
	)
	return out, nil
}

func writeImage(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".png") {
		err = png.Encode(f, img)
	} else {
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// Video resizes input with ffmpeg scale and pad filters. The canvas is
// rounded up to even dimensions for yuv420p output.
func (r *Resizer) Video(ctx context.Context, input string, opts ResizeOptions) (string, error) {
	if err := opts.normalize(); err != nil {
		return "", err
	}
	info, err := r.tools.Probe(ctx, input)
	if err != nil {
		return "", err
	}
	if !info.HasVideo {
		return "", fmt.Errorf("%w: %s has no video stream", ErrUnsupported, input)
	}

	scaled, canvas, err := geometry.Fit(geometry.Size{W: info.Width, H: info.Height}, opts.Ratio, opts.MaxDimension)
	if err != nil {
		return "", err
	}
	canvas.W += canvas.W % 2
	canvas.H += canvas.H % 2
	off := geometry.Offset(scaled, canvas)

	name := opts.Filename
	if name == "" {
		name = fmt.Sprintf("%s_%s.mp4", stem(input), opts.Ratio.Slug())
	}
	out := filepath.Join(r.outputDir, name)
	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return "", err
	}

	filter := fmt.Sprintf("scale=%d:%d,pad=%d:%d:%d:%d:color=%s",
		scaled.W, scaled.H, canvas.W, canvas.H, off.X, off.Y, ffmpegColor(opts.Fill))
	args := []string{
		"-y",
		"-i", input,
		"-vf", filter,
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
	}
	if info.HasAudio {
		args = append(args, "-c:a", "aac")
	}
	if info.FPS > 0 {
		args = append(args, "-r", strconv.FormatFloat(info.FPS, 'f', -1, 64))
	}
	args = append(args, out)

	if err := r.tools.ffmpeg(ctx, args, nil); err != nil {
		return "", fmt.Errorf("resize video: %w", err)
	}
	r.tools.logger.Info("video resized",
		zap.String("input", input),
		zap.Stringer("scaled", scaled),
		zap.Stringer("canvas", canvas),
		zap.String("output", out),
	)
	return out, nil
}
