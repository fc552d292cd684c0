package enhancer

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/ivlev/shortsreel/internal/script"
)

const sampleScript = `
Scene 1: The Beginning
Sarah sits alone in her apartment, scrolling through old photos.

Scene 2: The Letter
A mysterious letter arrives, hinting at a shared history.

Scene 3: The Decision
She must discover the truth about their shared history.
`

func TestAnalyzeEmotion(t *testing.T) {
	e := New(rand.New(rand.NewSource(1)))

	got := e.AnalyzeEmotion(script.Scene{Number: 1, Text: "She felt ALONE and needed HELP"})
	if len(got) != 1 || got[0].Name != "unexpected_kindness" {
		t.Errorf("AnalyzeEmotion() = %v", names(got))
	}

	got = e.AnalyzeEmotion(script.Scene{Number: 1, Text: "He had to discover the truth and save the others"})
	if len(got) != 2 {
		t.Fatalf("expected 2 elements, got %v", names(got))
	}
	if got[0].Name != "sacrifice" || got[1].Name != "revelation" {
		t.Errorf("elements out of catalogue order: %v", names(got))
	}

	if got := e.AnalyzeEmotion(script.Scene{Text: "A quiet morning."}); len(got) != 0 {
		t.Errorf("expected no elements, got %v", names(got))
	}
}

func TestTwistOpportunities(t *testing.T) {
	e := New(rand.New(rand.NewSource(1)))
	scenes, err := script.Parse(sampleScript)
	if err != nil {
		t.Fatal(err)
	}
	got := e.TwistOpportunities(scenes)
	if len(got) != 1 || got[0].Name != "hidden_connection" {
		t.Errorf("TwistOpportunities() = %v", got)
	}

	if got := e.TwistOpportunities(scenes[:2]); len(got) != 0 {
		t.Errorf("single setup scene should not qualify, got %v", got)
	}
}

func TestEnhanceScene(t *testing.T) {
	e := New(rand.New(rand.NewSource(1)))
	s := script.Scene{Number: 4, Text: "Original."}

	if got := e.EnhanceScene(s, nil); got != s {
		t.Errorf("scene changed without elements: %v", got)
	}

	got := e.EnhanceScene(s, EmotionalElements[1:2])
	want := "Original.\n\n[Emotional Enhancement - redemption]:\nA character overcomes their past mistakes"
	if got.Text != want || got.Number != 4 {
		t.Errorf("EnhanceScene() = %q", got.Text)
	}
}

func TestAddPlotTwist(t *testing.T) {
	e := New(rand.New(rand.NewSource(5)))
	scenes := []script.Scene{{Number: 1, Text: "a"}, {Number: 2, Text: "b"}, {Number: 3, Text: "c"}, {Number: 4, Text: "d"}, {Number: 5, Text: "e"}, {Number: 6, Text: "f"}}

	for i := 0; i < 20; i++ {
		out := e.AddPlotTwist(scenes, &PlotTwists[3])
		twisted := -1
		for j, s := range out {
			if strings.Contains(s.Text, "[Plot Twist - identity_subversion]:") {
				twisted = j
			}
		}
		if twisted < 3 || twisted > 5 {
			t.Fatalf("twist placed at %d, want latter half", twisted)
		}
		if !strings.HasSuffix(out[twisted].Text, twistCoda) {
			t.Errorf("twist text missing coda: %q", out[twisted].Text)
		}
	}
	for _, s := range scenes {
		if strings.Contains(s.Text, "Plot Twist") {
			t.Fatal("input slice was modified")
		}
	}

	single := e.AddPlotTwist([]script.Scene{{Number: 1, Text: "only"}}, nil)
	if !strings.Contains(single[0].Text, "[Plot Twist - ") {
		t.Errorf("single scene story not twisted: %q", single[0].Text)
	}
	if got := e.AddPlotTwist(nil, nil); len(got) != 0 {
		t.Errorf("empty story changed: %v", got)
	}
}

func TestEnhance(t *testing.T) {
	e := New(rand.New(rand.NewSource(2)))
	out, err := e.Enhance(sampleScript)
	if err != nil {
		t.Fatalf("Enhance failed: %v", err)
	}
	if !strings.HasPrefix(out, "Scene 1:\nThe Beginning") {
		t.Errorf("unexpected start: %q", out)
	}
	if !strings.Contains(out, "[Emotional Enhancement - unexpected_kindness]:") {
		t.Errorf("scene 1 not enhanced: %s", out)
	}
	if !strings.Contains(out, "[Plot Twist - hidden_connection]:") {
		t.Errorf("expected fitting twist: %s", out)
	}

	scenes, err := script.Parse(out)
	if err != nil {
		t.Fatalf("enhanced script does not parse: %v", err)
	}
	if len(scenes) != 3 {
		t.Errorf("enhanced script has %d scenes", len(scenes))
	}

	if _, err := e.Enhance("no markers here"); err == nil {
		t.Error("expected error for script without scenes")
	}
}

func names(els []EmotionalElement) []string {
	var out []string
	for _, el := range els {
		out = append(out, el.Name)
	}
	return out
}
