package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ivlev/shortsreel/internal/geometry"
	"github.com/ivlev/shortsreel/internal/media"
	"github.com/ivlev/shortsreel/internal/storyboard"
	"github.com/ivlev/shortsreel/internal/system"
)

func newMediaCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newResizeCommand(ctx),
		newConvertCommand(ctx),
		newCreateCommand(ctx),
		newTrimCommand(ctx),
		newOverlayCommand(ctx),
		newJoinCommand(ctx),
		newProbeCommand(ctx),
	}
}

func newResizeCommand(ctx *commandContext) *cobra.Command {
	var ratio, fill, name string
	var maxDim int

	cmd := &cobra.Command{
		Use:   "resize <file>...",
		Short: "Fit images or videos into an aspect ratio, padding with a fill colour",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.config.Media
			if ratio == "" {
				ratio = cfg.AspectRatio
			}
			r, err := geometry.ParseRatio(ratio)
			if err != nil {
				return err
			}
			if fill == "" {
				fill = cfg.FillColor
			}
			c, err := media.ParseColor(fill)
			if err != nil {
				return err
			}
			if maxDim == 0 {
				maxDim = cfg.MaxDimension
			}
			if name != "" && len(args) > 1 {
				return errors.New("--name only works with a single input")
			}

			resizer := media.NewResizer(ctx.tools(), ctx.outputDir("resized_media"))
			opts := media.ResizeOptions{Ratio: r, MaxDimension: maxDim, Filename: name, Fill: c}
			for _, in := range args {
				var out string
				switch {
				case system.HasExt(in, system.ImageExts):
					out, err = resizer.Image(cmd.Context(), in, opts)
				case system.HasExt(in, system.VideoExts):
					out, err = resizer.Video(cmd.Context(), in, opts)
				default:
					err = fmt.Errorf("%w: %s is neither an image nor a video", media.ErrUnsupported, in)
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&ratio, "ratio", "r", "", "Target aspect ratio: "+strings.Join(geometry.Presets(), ", ")+" or any W:H")
	cmd.Flags().IntVar(&maxDim, "max", 0, "Longest side in pixels (default from config)")
	cmd.Flags().StringVar(&fill, "fill", "", "Padding colour: name, #rrggbb or r,g,b")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Output file name")
	return cmd
}

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var formats []string
	var quality, name string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "convert <video>",
		Short: "Convert a video to other container formats",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conv := media.NewConverter(ctx.tools(), ctx.outputDir("converted_videos"))
			if name != "" {
				if len(formats) != 1 {
					return errors.New("--name needs exactly one --format")
				}
				out, err := conv.Convert(cmd.Context(), args[0], formats[0], media.ConvertOptions{Filename: name, Quality: quality, Overwrite: overwrite})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			}
			outs, err := conv.ConvertMany(cmd.Context(), args[0], formats, quality, overwrite)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(outs, "\n"))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&formats, "format", "f", []string{"mp4"}, "Output formats: "+strings.Join(media.Formats(), ", "))
	cmd.Flags().StringVarP(&quality, "quality", "q", "medium", "Quality preset: low, medium, high")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Output file name (single format only)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace existing output files")
	return cmd
}

// frameSize returns the largest frame at ratio whose longer side is
// maxDimension.
func frameSize(r geometry.Ratio, maxDimension int) (int, int, error) {
	scaled, _, err := geometry.Fit(geometry.Size{W: maxDimension, H: maxDimension}, r, maxDimension)
	if err != nil {
		return 0, 0, err
	}
	return scaled.W, scaled.H, nil
}

func newCreateCommand(ctx *commandContext) *cobra.Command {
	var board, bgMusic, name, ratio, motion, fill, encoder, qr string
	var audio []string
	var width, height, fps, quality, dpi int
	var duration, fade, outro, bgVolume, zoomSpeed, qrDuration float64
	var seed int64

	cmd := &cobra.Command{
		Use:   "create [image|pdf|dir]...",
		Short: "Build a slideshow video from images or a storyboard",
		Long: "Build a slideshow video. Slides come from the arguments (images, a directory or one PDF), " +
			"or from a storyboard manifest. Without either, the newest storyboard is used.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.config.Media
			log := ctx.log()

			images := args
			if len(images) == 0 {
				if board == "" {
					latest, err := storyboard.FindLatest(ctx.outputDir(storyboard.DefaultDir))
					if err != nil {
						return fmt.Errorf("no slides given and no storyboard found: %w", err)
					}
					board = latest
					log.Info("using latest storyboard", zap.String("path", board))
				}
				sb, err := storyboard.Read(board)
				if err != nil {
					return err
				}
				if images, err = sb.Images(); err != nil {
					return err
				}
				if len(audio) == 0 {
					audio = sb.Audio()
				}
				if ratio == "" {
					ratio = sb.AspectRatio
				}
			}

			for i, a := range audio {
				if a == "none" {
					audio[i] = ""
				}
			}

			if width == 0 || height == 0 {
				width, height = cfg.Width, cfg.Height
				if ratio != "" {
					r, err := geometry.ParseRatio(ratio)
					if err != nil {
						return err
					}
					if width, height, err = frameSize(r, max(cfg.Width, cfg.Height)); err != nil {
						return err
					}
				}
			}
			if fill == "" {
				fill = cfg.FillColor
			}
			fillColor, err := media.ParseColor(fill)
			if err != nil {
				return err
			}

			tools := ctx.tools()
			if err := tools.Check(); err != nil {
				return err
			}
			if encoder == "auto" {
				encoder = tools.BestH264Encoder(cmd.Context())
				log.Info("encoder selected", zap.String("encoder", encoder))
			}
			if quality == 0 {
				quality = cfg.Quality
			}

			workers := cfg.Workers
			if workers <= 0 {
				workers = system.Workers()
			}

			creator := media.NewCreator(tools, ctx.outputDir("generated_videos"), workers)
			out, err := creator.Create(cmd.Context(), media.CreateOptions{
				Images:           images,
				Audio:            audio,
				BackgroundMusic:  bgMusic,
				BackgroundVolume: pick(bgVolume, cfg.BackgroundVolume),
				Filename:         name,
				Width:            width,
				Height:           height,
				FPS:              pickInt(fps, cfg.FPS),
				DefaultDuration:  pick(duration, cfg.DefaultDuration),
				FadeDuration:     pick(fade, cfg.FadeDuration),
				OutroDuration:    outro,
				DPI:              pickInt(dpi, cfg.DPI),
				Motion:           pickString(motion, cfg.Motion),
				ZoomSpeed:        pick(zoomSpeed, cfg.ZoomSpeed),
				Seed:             seed,
				Fill:             fillColor,
				Encoder:          encoder,
				Quality:          quality,
				QRContent:        qr,
				QRDuration:       qrDuration,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&board, "storyboard", "", "Storyboard manifest supplying slides and narration")
	f.StringArrayVarP(&audio, "audio", "a", nil, "Narration per slide in order, \"none\" for a silent slide (repeatable)")
	f.StringVar(&bgMusic, "bg-music", "", "Background music looped under the video")
	f.Float64Var(&bgVolume, "bg-volume", 0, "Background music volume 0-1 (default from config)")
	f.StringVarP(&name, "name", "n", "", "Output file name")
	f.StringVarP(&ratio, "ratio", "r", "", "Frame aspect ratio, e.g. 9:16")
	f.IntVar(&width, "width", 0, "Frame width (with --height, overrides --ratio)")
	f.IntVar(&height, "height", 0, "Frame height")
	f.IntVar(&fps, "fps", 0, "Frames per second")
	f.Float64Var(&duration, "duration", 0, "Seconds per slide without narration")
	f.Float64Var(&fade, "fade", 0, "Crossfade seconds, negative disables")
	f.Float64Var(&outro, "outro", 0, "Seconds to zoom back out before each crossfade, 0 uses --fade, negative disables")
	f.IntVar(&dpi, "dpi", 0, "PDF render resolution")
	f.StringVar(&motion, "motion", "", "Slide motion: none, center, top-left, top-right, bottom-left, bottom-right, random, focus")
	f.Float64Var(&zoomSpeed, "zoom-speed", 0, "Zoom increment per frame")
	f.Int64Var(&seed, "seed", 0, "Seed for random motion")
	f.StringVar(&fill, "fill", "", "Letterbox colour")
	f.StringVar(&encoder, "encoder", "auto", "H.264 encoder, auto picks the best available")
	f.IntVar(&quality, "quality", 0, "Encoder quality (0 uses the encoder default)")
	f.StringVar(&qr, "qr", "", "Append an end card with a QR code for this text or URL")
	f.Float64Var(&qrDuration, "qr-duration", 0, "End card seconds")
	return cmd
}

func pick(v, def float64) float64 {
	if v != 0 {
		return v
	}
	return def
}

func pickInt(v, def int) int {
	if v != 0 {
		return v
	}
	return def
}

func pickString(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func newTrimCommand(ctx *commandContext) *cobra.Command {
	var start, end float64
	var name string

	cmd := &cobra.Command{
		Use:   "trim <video>",
		Short: "Cut a video to the given start and end seconds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := media.NewEditor(ctx.tools(), ctx.outputDir("edited_videos")).Trim(cmd.Context(), args[0], start, end, name)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().Float64Var(&start, "start", 0, "Start second")
	cmd.Flags().Float64Var(&end, "end", 0, "End second")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Output file name")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newOverlayCommand(ctx *commandContext) *cobra.Command {
	var opts media.TextOptions

	cmd := &cobra.Command{
		Use:   "overlay <video>",
		Short: "Burn a text caption into a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := media.NewEditor(ctx.tools(), ctx.outputDir("edited_videos")).AddText(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.Text, "text", "t", "", "Caption text")
	f.StringVar(&opts.X, "x", "center", "Horizontal position: left, center, right")
	f.StringVar(&opts.Y, "y", "bottom", "Vertical position: top, center, bottom")
	f.Float64Var(&opts.Start, "start", 0, "Show from this second")
	f.Float64Var(&opts.End, "end", 0, "Hide after this second (default end of video)")
	f.IntVar(&opts.FontSize, "size", media.DefaultFontSize, "Font size")
	f.StringVar(&opts.Color, "color", media.DefaultFontColor, "Font colour")
	f.StringVar(&opts.Font, "font", media.DefaultFont, "Font name")
	f.StringVarP(&opts.Filename, "name", "n", "", "Output file name")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

func newJoinCommand(ctx *commandContext) *cobra.Command {
	var transition, name string
	var duration float64

	cmd := &cobra.Command{
		Use:   "join <video> <video>...",
		Short: "Join videos with a transition between each pair",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := media.NewEditor(ctx.tools(), ctx.outputDir("edited_videos")).Join(cmd.Context(), args, transition, duration, name)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&transition, "transition", "fade", "Transition: "+strings.Join(media.Transitions(), ", "))
	cmd.Flags().Float64VarP(&duration, "duration", "d", media.DefaultFadeDuration, "Transition seconds")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Output file name")
	return cmd
}

func newProbeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <file>...",
		Short: "Show duration, size and streams of media files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tools := ctx.tools()
			rows := make([][]string, 0, len(args))
			for _, in := range args {
				info, err := tools.Probe(cmd.Context(), in)
				if err != nil {
					return err
				}
				size, fps := "-", "-"
				if info.HasVideo {
					size = geometry.Size{W: info.Width, H: info.Height}.String()
					fps = strconv.FormatFloat(info.FPS, 'f', 2, 64)
				}
				rows = append(rows, []string{
					filepath.Base(in),
					strconv.FormatFloat(info.Duration, 'f', 2, 64),
					size,
					fps,
					info.Codec,
					strconv.FormatBool(info.HasAudio),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"File", "Seconds", "Size", "FPS", "Codec", "Audio"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
}
