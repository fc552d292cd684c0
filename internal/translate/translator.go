package translate

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/shortsreel/internal/logging"
	"github.com/ivlev/shortsreel/internal/speech"
	"github.com/ivlev/shortsreel/internal/subtitle"
)

const (
	DefaultOutputDir   = "translated_content"
	DefaultConcurrency = 4

	voiceoverBreak = "<break time='500ms'/>"
)

var ErrVoiceoverDisabled = errors.New("voiceover requires a speech client")

// TextTranslator translates a single string.
type TextTranslator interface {
	Text(ctx context.Context, text, src, dst string) (string, error)
}

// Synthesizer turns text into an audio file.
type Synthesizer interface {
	Generate(ctx context.Context, req speech.Request) (string, error)
}

type Translator struct {
	client      TextTranslator
	speech      Synthesizer
	outputDir   string
	concurrency int
	logger      *zap.Logger
}

type Option func(*Translator)

// WithSpeech enables voiceover generation.
func WithSpeech(s Synthesizer) Option {
	return func(t *Translator) { t.speech = s }
}

func WithOutputDir(dir string) Option {
	return func(t *Translator) {
		if dir != "" {
			t.outputDir = dir
		}
	}
}

// WithConcurrency bounds the number of in-flight translation requests.
func WithConcurrency(n int) Option {
	return func(t *Translator) {
		if n > 0 {
			t.concurrency = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(t *Translator) { t.logger = logging.OrNop(l) }
}

func New(client TextTranslator, opts ...Option) *Translator {
	t := &Translator{
		client:      client,
		outputDir:   DefaultOutputDir,
		concurrency: DefaultConcurrency,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Entries translates every cue. Indices and timings are preserved and the
// result has the same order as the input. A cue that translates to nothing
// keeps its source text.
func (t *Translator) Entries(ctx context.Context, entries []subtitle.Entry, src, dst string) ([]subtitle.Entry, error) {
	out := make([]subtitle.Entry, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.concurrency)

	for i, e := range entries {
		g.Go(func() error {
			text, err := t.client.Text(gctx, e.Text, src, dst)
			if err != nil {
				return fmt.Errorf("entry %d: %w", e.Index, err)
			}
			if strings.TrimSpace(text) == "" {
				// an empty cue would be dropped when the file is read back
				t.logger.Warn("empty translation, keeping source text", zap.Int("index", e.Index))
				text = e.Text
			}
			out[i] = subtitle.Entry{Index: e.Index, Start: e.Start, End: e.End, Text: text}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Voiceover reads the entries aloud in the voice mapped to lang, with a
// short pause between cues.
func (t *Translator) Voiceover(ctx context.Context, entries []subtitle.Entry, lang, filename string) (string, error) {
	if t.speech == nil {
		return "", ErrVoiceoverDisabled
	}
	l, err := VoiceFor(lang)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.Text)
		b.WriteString("\n")
		b.WriteString(voiceoverBreak)
		b.WriteString("\n")
	}
	return t.speech.Generate(ctx, speech.Request{
		Text:     b.String(),
		VoiceID:  l.Voice,
		Filename: filename,
	})
}

// Result holds the files produced by Process. Audio is empty when no
// voiceover was requested.
type Result struct {
	Subtitles string `json:"subtitles"`
	Audio     string `json:"audio,omitempty"`
}

// Process translates the track at srtPath into dst and writes
// <stem>_<dst>.srt to the output directory, plus <stem>_<dst>.mp3 when
// withAudio is set.
func (t *Translator) Process(ctx context.Context, srtPath, src, dst string, withAudio bool) (Result, error) {
	entries, err := subtitle.ReadFile(srtPath)
	if err != nil {
		return Result{}, err
	}
	if withAudio {
		if t.speech == nil {
			return Result{}, ErrVoiceoverDisabled
		}
		if _, err := VoiceFor(dst); err != nil {
			return Result{}, err
		}
	}

	t.logger.Info("translating subtitles",
		zap.String("input", srtPath),
		zap.String("source", src),
		zap.String("target", dst),
		zap.Int("entries", len(entries)),
	)
	translated, err := t.Entries(ctx, entries, src, dst)
	if err != nil {
		return Result{}, err
	}

	stem := strings.TrimSuffix(filepath.Base(srtPath), filepath.Ext(srtPath))
	base := fmt.Sprintf("%s_%s", stem, dst)

	var res Result
	if res.Subtitles, err = subtitle.WriteFile(filepath.Join(t.outputDir, base+".srt"), translated); err != nil {
		return Result{}, err
	}
	if withAudio {
		if res.Audio, err = t.Voiceover(ctx, translated, dst, base+".mp3"); err != nil {
			return res, fmt.Errorf("voiceover: %w", err)
		}
	}
	t.logger.Info("translation complete", zap.String("subtitles", res.Subtitles), zap.String("audio", res.Audio))
	return res, nil
}
