// Package prompt turns scene descriptions into prompts for AI image models.
package prompt

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

var (
	ErrEmptyScene    = errors.New("scene description cannot be empty")
	ErrModifierCount = errors.New("invalid modifier count")
)

// DefaultPerCategory is how many modifiers are drawn from each category.
const DefaultPerCategory = 2

var (
	StyleModifiers = []string{
		"highly detailed",
		"ultra realistic",
		"8k resolution",
		"cinematic lighting",
		"professional photography",
	}
	ArtisticStyles = []string{
		"dramatic composition",
		"vibrant colors",
		"dynamic lighting",
		"photorealistic",
		"masterful technique",
	}
	AtmosphereEnhancers = []string{
		"atmospheric",
		"immersive",
		"stunning",
		"epic",
		"beautiful",
	}
)

type Options struct {
	// PerCategory defaults to DefaultPerCategory when zero.
	PerCategory int
	// Context is appended as the final prompt part when set.
	Context string
}

// Generator is not safe for concurrent use; it owns its random source.
type Generator struct {
	rng *rand.Rand
}

// New returns a Generator drawing from rng, or from a time-seeded source
// when rng is nil.
func New(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{rng: rng}
}

// Modifiers draws n distinct entries from each category, in category order.
func (g *Generator) Modifiers(n int) ([]string, error) {
	limit := min(len(StyleModifiers), len(ArtisticStyles), len(AtmosphereEnhancers))
	if n < 1 || n > limit {
		return nil, fmt.Errorf("%w: %d (want 1..%d)", ErrModifierCount, n, limit)
	}
	out := make([]string, 0, 3*n)
	out = append(out, g.sample(StyleModifiers, n)...)
	out = append(out, g.sample(ArtisticStyles, n)...)
	out = append(out, g.sample(AtmosphereEnhancers, n)...)
	return out, nil
}

// Generate builds a prompt of the form
// "A <style> scene of, <scene>, with <artistic>, <atmosphere>[, <context>]".
func (g *Generator) Generate(scene string, opts Options) (string, error) {
	scene = strings.Join(strings.Fields(scene), " ")
	if scene == "" {
		return "", ErrEmptyScene
	}

	n := opts.PerCategory
	if n == 0 {
		n = DefaultPerCategory
	}
	mods, err := g.Modifiers(n)
	if err != nil {
		return "", err
	}

	parts := []string{
		fmt.Sprintf("A %s scene of", strings.Join(mods[:n], ", ")),
		scene,
		"with " + strings.Join(mods[n:2*n], " and "),
		strings.Join(mods[2*n:], ", "),
	}
	if ctx := strings.TrimSpace(opts.Context); ctx != "" {
		parts = append(parts, ctx)
	}
	return strings.Join(parts, ", "), nil
}

func (g *Generator) sample(pool []string, n int) []string {
	idx := g.rng.Perm(len(pool))[:n]
	out := make([]string, n)
	for i, j := range idx {
		out[i] = pool[j]
	}
	return out
}
