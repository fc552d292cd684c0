package media

import (
	"fmt"
	"math"
	"strings"
)

// Transition names accepted by Join, mapped to ffmpeg xfade transitions.
var transitions = map[string]string{
	"fade":        "fade",
	"slide_left":  "slideleft",
	"slide_right": "slideright",
	"slide_up":    "slideup",
	"slide_down":  "slidedown",
}

// Transitions lists the accepted transition names.
func Transitions() []string {
	return []string{"fade", "slide_left", "slide_right", "slide_up", "slide_down"}
}

func xfadeName(transition string) (string, error) {
	if transition == "" {
		return "fade", nil
	}
	name, ok := transitions[strings.ToLower(transition)]
	if !ok {
		return "", fmt.Errorf("%w: transition %q (one of %s)", ErrUnsupported, transition, strings.Join(Transitions(), ", "))
	}
	return name, nil
}

// alignToFrames rounds d to a whole number of frames.
func alignToFrames(d float64, fps int) float64 {
	if fps <= 0 {
		return d
	}
	return math.Round(d*float64(fps)) / float64(fps)
}

// Timeline returns the xfade offset of every clip after the first and the
// total length when consecutive clips overlap by fade seconds.
func Timeline(durations []float64, fade float64) (offsets []float64, total float64) {
	if len(durations) == 0 {
		return nil, 0
	}
	elapsed := durations[0]
	for i := 1; i < len(durations); i++ {
		offsets = append(offsets, elapsed-fade)
		elapsed += durations[i] - fade
	}
	return offsets, elapsed
}

// clampFade limits fade to half the shortest clip so every clip keeps a
// moment on its own between the transitions on either side.
func clampFade(durations []float64, fade float64) float64 {
	if len(durations) < 2 || fade <= 0 {
		return max(fade, 0)
	}
	shortest := durations[0]
	for _, d := range durations[1:] {
		shortest = min(shortest, d)
	}
	if fade > shortest/2 {
		return shortest / 2
	}
	return fade
}

// joinGraph chains n inputs with xfade (and acrossfade when withAudio),
// or concatenates them when fade is zero. It returns the filter graph and
// the bracketed labels of the joined streams, which callers feed into
// further filters.
func joinGraph(durations []float64, transition string, fade float64, withAudio bool) (graph, vOut, aOut string) {
	n := len(durations)
	if n == 1 {
		if withAudio {
			return "", "[0:v]", "[0:a]"
		}
		return "", "[0:v]", ""
	}

	var parts []string
	if fade <= 0 {
		var in strings.Builder
		for i := 0; i < n; i++ {
			fmt.Fprintf(&in, "[%d:v]", i)
			if withAudio {
				fmt.Fprintf(&in, "[%d:a]", i)
			}
		}
		if withAudio {
			parts = append(parts, fmt.Sprintf("%sconcat=n=%d:v=1:a=1[vj][aj]", in.String(), n))
			return strings.Join(parts, ";"), "[vj]", "[aj]"
		}
		parts = append(parts, fmt.Sprintf("%sconcat=n=%d:v=1:a=0[vj]", in.String(), n))
		return strings.Join(parts, ";"), "[vj]", ""
	}

	offsets, _ := Timeline(durations, fade)
	lastV, lastA := "[0:v]", "[0:a]"
	for i := 1; i < n; i++ {
		outV := fmt.Sprintf("[v%d]", i)
		parts = append(parts, fmt.Sprintf("%s[%d:v]xfade=transition=%s:duration=%s:offset=%s%s",
			lastV, i, transition, ffloat(fade), ffloat(offsets[i-1]), outV))
		lastV = outV
		if withAudio {
			outA := fmt.Sprintf("[a%d]", i)
			parts = append(parts, fmt.Sprintf("%s[%d:a]acrossfade=d=%s%s", lastA, i, ffloat(fade), outA))
			lastA = outA
		}
	}
	if !withAudio {
		lastA = ""
	}
	return strings.Join(parts, ";"), lastV, lastA
}
