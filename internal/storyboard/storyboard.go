// Package storyboard ties a parsed story to the assets produced for it.
//
// A storyboard is a YAML manifest listing every scene with its image
// prompt and, once generated, the image and narration files that belong to
// it. The create command reads it back to assemble the final video.
package storyboard

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ivlev/shortsreel/internal/character"
	"github.com/ivlev/shortsreel/internal/prompt"
	"github.com/ivlev/shortsreel/internal/script"
)

const Version = "1.0"

var ErrNoScenes = errors.New("storyboard has no scenes")

// Storyboard represents the plan for a complete video.
type Storyboard struct {
	Version     string   `yaml:"version"`
	Title       string   `yaml:"title,omitempty"`
	AspectRatio string   `yaml:"aspect_ratio,omitempty"`
	Characters  []string `yaml:"characters,omitempty"`
	Scenes      []Scene  `yaml:"scenes"`
}

// Scene is one slide of the video.
type Scene struct {
	Number   int     `yaml:"number"`
	Text     string  `yaml:"text"`
	Prompt   string  `yaml:"prompt"`
	Image    string  `yaml:"image,omitempty"`
	Audio    string  `yaml:"audio,omitempty"`
	Duration float64 `yaml:"duration"` // seconds
}

// Builder turns parsed scenes into a storyboard.
type Builder struct {
	Generator  *prompt.Generator
	Characters []*character.Character
	Prompt     prompt.Options

	MinDuration    float64 // seconds per scene
	MaxDuration    float64
	WordsPerSecond float64 // narration pace used to estimate scene length
}

// NewBuilder creates a Builder with default pacing.
func NewBuilder(gen *prompt.Generator, characters ...*character.Character) *Builder {
	if gen == nil {
		gen = prompt.New(nil)
	}
	return &Builder{
		Generator:      gen,
		Characters:     characters,
		MinDuration:    3.0,
		MaxDuration:    10.0,
		WordsPerSecond: 2.5,
	}
}

// Build is shorthand for NewBuilder(gen, characters...).Build.
func Build(scenes []script.Scene, gen *prompt.Generator, characters []*character.Character) (*Storyboard, error) {
	return NewBuilder(gen, characters...).Build(scenes)
}

// Build creates a storyboard with one entry per scene, in order. Characters
// named in a scene's text are described in that scene's prompt context.
func (b *Builder) Build(scenes []script.Scene) (*Storyboard, error) {
	if len(scenes) == 0 {
		return nil, ErrNoScenes
	}

	sb := &Storyboard{Version: Version}
	for _, c := range b.Characters {
		sb.Characters = append(sb.Characters, c.Name)
	}

	for _, s := range scenes {
		opts := b.Prompt
		opts.Context = joinContext(opts.Context, b.castContext(s))
		p, err := b.Generator.Generate(s.Text, opts)
		if errors.Is(err, prompt.ErrEmptyScene) {
			// placeholder scenes keep their slot without a prompt
			p, err = "", nil
		}
		if err != nil {
			return nil, fmt.Errorf("scene %d: %w", s.Number, err)
		}
		sb.Scenes = append(sb.Scenes, Scene{
			Number:   s.Number,
			Text:     s.Text,
			Prompt:   p,
			Duration: b.duration(s.Text),
		})
	}
	return sb, nil
}

// SceneID is the key under which per-scene character state is stored.
func SceneID(number int) string {
	return "scene_" + strconv.Itoa(number)
}

func (b *Builder) castContext(s script.Scene) string {
	var parts []string
	for _, c := range b.Characters {
		if mentions(s.Text, c.Name) {
			parts = append(parts, c.Describe(SceneID(s.Number)))
		}
	}
	return strings.Join(parts, " ")
}

// mentions reports whether name appears in text as a whole word, ignoring
// case.
func mentions(text, name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)
	return re.MatchString(text)
}

// duration estimates how long a scene stays on screen from its word count.
func (b *Builder) duration(text string) float64 {
	words := len(strings.Fields(text))
	if b.WordsPerSecond <= 0 {
		return b.MinDuration
	}
	d := float64(words) / b.WordsPerSecond

	// Clamp to min/max
	d = math.Max(d, b.MinDuration)
	if b.MaxDuration > 0 {
		d = math.Min(d, b.MaxDuration)
	}
	return math.Round(d*10) / 10
}

func joinContext(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

// Images returns the image of every scene, in order, and an error naming
// the first scene without one.
func (sb *Storyboard) Images() ([]string, error) {
	if len(sb.Scenes) == 0 {
		return nil, ErrNoScenes
	}
	out := make([]string, len(sb.Scenes))
	for i, s := range sb.Scenes {
		if s.Image == "" {
			return nil, fmt.Errorf("scene %d has no image", s.Number)
		}
		out[i] = s.Image
	}
	return out, nil
}

// Audio returns the narration file of every scene, with empty entries for
// silent scenes. It returns nil when no scene has narration.
func (sb *Storyboard) Audio() []string {
	out := make([]string, len(sb.Scenes))
	voiced := false
	for i, s := range sb.Scenes {
		out[i] = s.Audio
		voiced = voiced || s.Audio != ""
	}
	if !voiced {
		return nil
	}
	return out
}
