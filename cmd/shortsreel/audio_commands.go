package main

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ivlev/shortsreel/internal/speech"
	"github.com/ivlev/shortsreel/internal/translate"
)

func newAudioCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newSpeakCommand(ctx),
		newVoicesCommand(ctx),
		newTranslateCommand(ctx),
	}
}

// speechClient returns a text-to-speech client writing under dir.
func (c *commandContext) speechClient(dir string) (*speech.Client, error) {
	cfg := c.config.Speech
	if cfg.APIKey == "" {
		return nil, errors.New("speech needs an API key (speech.api_key or TTSMAKER_API_KEY)")
	}
	return speech.NewClient(
		speech.Config{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, OutputDir: dir},
		speech.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		speech.WithLogger(c.log()),
	), nil
}

func newSpeakCommand(ctx *commandContext) *cobra.Command {
	var file, voice, name string
	var speed, volume float64

	cmd := &cobra.Command{
		Use:   "speak [text]",
		Short: "Synthesize narration with the text-to-speech service",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if file != "" {
				var err error
				if text, err = readInput(file); err != nil {
					return err
				}
			}
			client, err := ctx.speechClient(ctx.outputDir("generated_audio"))
			if err != nil {
				return err
			}
			cfg := ctx.config.Speech
			out, err := client.Generate(cmd.Context(), speech.Request{
				Text:     text,
				VoiceID:  pickString(voice, cfg.Voice),
				Filename: name,
				Speed:    pick(speed, cfg.Speed),
				Volume:   pick(volume, cfg.Volume),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the text from a file (- for stdin)")
	cmd.Flags().StringVar(&voice, "voice", "", "Voice id (default from config)")
	cmd.Flags().Float64Var(&speed, "speed", 0, "Speech rate 0.5-2.0")
	cmd.Flags().Float64Var(&volume, "volume", 0, "Volume 0.1-5.0")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Output file name")
	return cmd
}

func newVoicesCommand(ctx *commandContext) *cobra.Command {
	var lang string

	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List the voices offered by the text-to-speech service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.speechClient(ctx.outputDir("generated_audio"))
			if err != nil {
				return err
			}
			voices, err := client.Voices(cmd.Context())
			if err != nil {
				return err
			}
			var rows [][]string
			for _, v := range voices {
				if lang != "" && !strings.HasPrefix(strings.ToLower(v.Language), strings.ToLower(lang)) {
					continue
				}
				rows = append(rows, []string{v.ID, v.Name, v.Language, v.Gender})
			}
			sort.Slice(rows, func(i, j int) bool { return rows[i][0] < rows[j][0] })
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Name", "Language", "Gender"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().StringVarP(&lang, "lang", "l", "", "Only voices whose language starts with this prefix")
	return cmd
}

func newTranslateCommand(ctx *commandContext) *cobra.Command {
	var from string
	var targets []string
	var withAudio, list bool

	cmd := &cobra.Command{
		Use:   "translate <subtitles.srt>",
		Short: "Translate an SRT file and optionally voice the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				var rows [][]string
				for _, l := range translate.Supported() {
					rows = append(rows, []string{l.Code, l.Locale, l.Voice})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Code", "Locale", "Voice"}, rows, nil))
				return nil
			}
			if len(args) != 1 {
				return errors.New("provide the subtitle file to translate")
			}
			if len(targets) == 0 {
				return errors.New("at least one --to language is required")
			}

			cfg := ctx.config.Translate
			outDir := ctx.outputDir(translate.DefaultOutputDir)
			opts := []translate.Option{
				translate.WithOutputDir(outDir),
				translate.WithConcurrency(cfg.Concurrency),
				translate.WithLogger(ctx.log()),
			}
			if withAudio {
				client, err := ctx.speechClient(outDir)
				if err != nil {
					return err
				}
				opts = append(opts, translate.WithSpeech(client))
			}
			tr := translate.New(translate.NewClient(translate.Config{URL: cfg.URL, APIKey: cfg.APIKey, Timeout: cfg.Timeout}, nil), opts...)

			for _, dst := range targets {
				res, err := tr.Process(cmd.Context(), args[0], from, dst, withAudio)
				if err != nil {
					return fmt.Errorf("%s: %w", dst, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), res.Subtitles)
				if res.Audio != "" {
					fmt.Fprintln(cmd.OutOrStdout(), res.Audio)
				}
				ctx.log().Debug("target done", zap.String("language", dst))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "en", "Source language")
	cmd.Flags().StringSliceVar(&targets, "to", nil, "Target languages (repeatable or comma separated)")
	cmd.Flags().BoolVar(&withAudio, "audio", false, "Also generate a voiceover per target language")
	cmd.Flags().BoolVar(&list, "list", false, "List languages with voiceover support")
	return cmd
}
