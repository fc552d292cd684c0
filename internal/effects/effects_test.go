package effects

import (
	"errors"
	"image"
	"math"
	"strings"
	"testing"
)

func TestForMotion(t *testing.T) {
	tests := []struct {
		motion   string
		kenBurns bool
	}{
		{"", false},
		{"none", false},
		{"center", true},
		{"Random", true},
	}
	for _, tt := range tests {
		e, err := ForMotion(tt.motion, 1)
		if err != nil {
			t.Fatalf("ForMotion(%q): %v", tt.motion, err)
		}
		if _, ok := e.(KenBurns); ok != tt.kenBurns {
			t.Errorf("ForMotion(%q) = %T", tt.motion, e)
		}
	}
	if _, err := ForMotion("spin", 1); !errors.Is(err, ErrUnknownMotion) {
		t.Errorf("err = %v, want ErrUnknownMotion", err)
	}
}

func TestStaticFilter(t *testing.T) {
	got := Static{}.Filter(SegmentParams{Width: 1080, Height: 1920, FPS: 24, Duration: 5, Fill: "0x112233"})
	want := "scale=1080:1920:force_original_aspect_ratio=decrease,pad=1080:1920:(ow-iw)/2:(oh-ih)/2:color=0x112233,setsar=1,loop=loop=119:size=1:start=0"
	if got != want {
		t.Errorf("Filter() =\n%s\nwant\n%s", got, want)
	}
}

func TestKenBurnsFilter(t *testing.T) {
	p := SegmentParams{Width: 640, Height: 360, FPS: 25, Duration: 4, FadeDuration: 1, ZoomSpeed: 0.002}
	got := KenBurns{Mode: "top-left"}.Filter(p)

	for _, part := range []string{
		"scale=1280:720:force_original_aspect_ratio=decrease",
		"zoompan=z=",
		":d=100:s=640x360:x='0':y='0':fps=25",
		"color=black",
	} {
		if !strings.Contains(got, part) {
			t.Errorf("filter missing %q:\n%s", part, got)
		}
	}
}

func TestKenBurnsRandomIsSeeded(t *testing.T) {
	p := SegmentParams{Width: 100, Height: 100, FPS: 10, Duration: 2, Index: 3}
	a := KenBurns{Mode: "random", Seed: 42}.Filter(p)
	b := KenBurns{Mode: "random", Seed: 42}.Filter(p)
	if a != b {
		t.Error("same seed and index should give the same filter")
	}
}

func TestFocusOn(t *testing.T) {
	// 400x200 slide letterboxed into a 200x200 frame: scale 0.5, 50px bars
	f := FocusOn(image.Rect(0, 0, 400, 200), image.Rect(300, 0, 400, 100), 200, 200)
	if math.Abs(f.X-0.875) > 1e-9 || math.Abs(f.Y-0.375) > 1e-9 {
		t.Errorf("focus point = %.4f,%.4f, want 0.875,0.375", f.X, f.Y)
	}
	if f.Zoom != 3 {
		t.Errorf("zoom = %v, want clamp at 3", f.Zoom)
	}

	whole := FocusOn(image.Rect(0, 0, 100, 100), image.Rect(0, 0, 100, 100), 100, 100)
	if whole.Zoom != 1 || whole.X != 0.5 || whole.Y != 0.5 {
		t.Errorf("full-frame subject = %+v", whole)
	}
}

func TestKenBurnsFocus(t *testing.T) {
	p := SegmentParams{Width: 200, Height: 200, FPS: 10, Duration: 4, ZoomSpeed: 0.01, Focus: &Focus{X: 0.875, Y: 0.375, Zoom: 1.2}}
	got := KenBurns{Mode: "focus"}.Filter(p)
	if !strings.Contains(got, "x='max(0,min(iw-iw/zoom,0.8750*iw-iw/zoom/2))'") {
		t.Errorf("focus x missing:\n%s", got)
	}
	if !strings.Contains(got, "1.200000") || strings.Contains(got, "1.500000") {
		t.Errorf("peak zoom should be limited by the subject zoom:\n%s", got)
	}

	p.Focus = nil
	if got := (KenBurns{Mode: "focus"}).Filter(p); !strings.Contains(got, "x='iw/2-(iw/zoom/2)'") {
		t.Errorf("focus without subject should centre:\n%s", got)
	}
}
