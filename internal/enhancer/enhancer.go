// Package enhancer layers emotional beats and a plot twist onto a story
// script, and can optionally hand the result to a language model for a
// polishing pass.
package enhancer

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/ivlev/shortsreel/internal/script"
)

const twistCoda = "This revelation changes everything that came before..."

type Enhancer struct {
	rng      *rand.Rand
	emotions []EmotionalElement
	twists   []PlotTwist
}

// New returns an Enhancer over the built-in catalogues. A nil rng is
// replaced by a time-seeded source.
func New(rng *rand.Rand) *Enhancer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Enhancer{rng: rng, emotions: EmotionalElements, twists: PlotTwists}
}

// AnalyzeEmotion returns the elements whose trigger words occur in the
// scene text, compared case-insensitively.
func (e *Enhancer) AnalyzeEmotion(s script.Scene) []EmotionalElement {
	text := strings.ToLower(s.Text)
	var out []EmotionalElement
	for _, el := range e.emotions {
		if containsAny(text, el.TriggerWords) {
			out = append(out, el)
		}
	}
	return out
}

// TwistOpportunities returns the twists whose setup elements appear in at
// least two scenes.
func (e *Enhancer) TwistOpportunities(scenes []script.Scene) []PlotTwist {
	var out []PlotTwist
	for _, tw := range e.twists {
		count := 0
		for _, s := range scenes {
			if containsAny(strings.ToLower(s.Text), tw.SetupElements) {
				count++
			}
		}
		if count >= 2 {
			out = append(out, tw)
		}
	}
	return out
}

// EnhanceScene appends one randomly chosen element to the scene. With no
// elements the scene is returned unchanged.
func (e *Enhancer) EnhanceScene(s script.Scene, elements []EmotionalElement) script.Scene {
	if len(elements) == 0 {
		return s
	}
	el := elements[e.rng.Intn(len(elements))]
	return script.Scene{
		Number: s.Number,
		Text:   fmt.Sprintf("%s\n\n[Emotional Enhancement - %s]:\n%s", s.Text, el.Name, el.Description),
	}
}

// AddPlotTwist places a twist on a scene in the latter half of the story and
// returns a new slice. A nil twist picks one of the fitting twists, falling
// back to the whole catalogue.
func (e *Enhancer) AddPlotTwist(scenes []script.Scene, twist *PlotTwist) []script.Scene {
	if len(scenes) == 0 {
		return scenes
	}
	if twist == nil {
		pool := e.TwistOpportunities(scenes)
		if len(pool) == 0 {
			pool = e.twists
		}
		twist = &pool[e.rng.Intn(len(pool))]
	}

	half := len(scenes) / 2
	idx := half
	if half > 1 {
		idx += e.rng.Intn(half)
	}

	out := make([]script.Scene, len(scenes))
	copy(out, scenes)
	out[idx].Text = fmt.Sprintf("%s\n\n[Plot Twist - %s]:\n%s\n%s", out[idx].Text, twist.Name, twist.Description, twistCoda)
	return out
}

// Enhance parses a story script, enhances every scene, adds a twist and
// renders the script back.
func (e *Enhancer) Enhance(text string) (string, error) {
	scenes, err := script.Parse(text)
	if err != nil {
		return "", err
	}
	enhanced := make([]script.Scene, len(scenes))
	for i, s := range scenes {
		enhanced[i] = e.EnhanceScene(s, e.AnalyzeEmotion(s))
	}
	enhanced = e.AddPlotTwist(enhanced, nil)
	return script.Render(enhanced), nil
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
