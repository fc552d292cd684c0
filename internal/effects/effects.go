// Package effects builds the ffmpeg filter that turns a single still frame
// into a slide segment.
package effects

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"strings"
)

var ErrUnknownMotion = errors.New("unknown motion")

// Motions lists the accepted motion names. "none" keeps the frame still;
// "focus" zooms towards the subject found in each slide.
var Motions = []string{"none", "center", "top-left", "top-right", "bottom-left", "bottom-right", "random", "focus"}

// SegmentParams describes one slide segment.
type SegmentParams struct {
	Width, Height int
	FPS           int
	Duration      float64
	FadeDuration  float64
	OutroDuration float64
	ZoomSpeed     float64
	Fill          string // ffmpeg colour, e.g. 0x000000
	Index         int
	Focus         *Focus // used by the focus motion
}

func (p SegmentParams) frames() int {
	return max(int(p.Duration*float64(p.FPS)), 1)
}

func (p SegmentParams) fill() string {
	if p.Fill == "" {
		return "black"
	}
	return p.Fill
}

type Effect interface {
	Filter(p SegmentParams) string
}

// ForMotion returns the effect for a motion name. seed drives the corner
// choice of "random".
func ForMotion(motion string, seed int64) (Effect, error) {
	motion = strings.ToLower(strings.TrimSpace(motion))
	switch {
	case motion == "" || motion == "none":
		return Static{}, nil
	case slices.Contains(Motions, motion):
		return KenBurns{Mode: motion, Seed: seed}, nil
	default:
		return nil, fmt.Errorf("%w %q (one of %s)", ErrUnknownMotion, motion, strings.Join(Motions, ", "))
	}
}

// Static letterboxes the frame and repeats it for the segment duration.
type Static struct{}

func (Static) Filter(p SegmentParams) string {
	return fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:color=%s,setsar=1,loop=loop=%d:size=1:start=0",
		p.Width, p.Height, p.Width, p.Height, p.fill(), p.frames()-1,
	)
}

// KenBurns zooms towards an anchor and eases back out before the segment
// ends.
type KenBurns struct {
	Mode string
	Seed int64
}

var corners = []string{"center", "top-left", "top-right", "bottom-left", "bottom-right"}

func (e KenBurns) anchor(index int, focus *Focus) (string, string) {
	mode := strings.ToLower(e.Mode)
	if mode == "focus" {
		if focus == nil {
			mode = "center"
		} else {
			return focus.expr("iw", focus.X), focus.expr("ih", focus.Y)
		}
	}
	if mode == "random" {
		r := rand.New(rand.NewSource(e.Seed + int64(index*99)))
		mode = corners[r.Intn(len(corners))]
	}
	switch mode {
	case "top-left":
		return "0", "0"
	case "top-right":
		return "iw-(iw/zoom)", "0"
	case "bottom-left":
		return "0", "ih-(ih/zoom)"
	case "bottom-right":
		return "iw-(iw/zoom)", "ih-(ih/zoom)"
	default:
		return "iw/2-(iw/zoom/2)", "ih/2-(ih/zoom/2)"
	}
}

func (e KenBurns) Filter(p SegmentParams) string {
	zoomX, zoomY := e.anchor(p.Index, p.Focus)

	fFPS := float64(p.FPS)
	fTotal := float64(p.frames())
	fFade := p.FadeDuration * fFPS
	fActive := fTotal - fFade
	if fActive <= 0 {
		fActive = fTotal
	}
	fOutro := p.OutroDuration * fFPS

	zSpeed := p.ZoomSpeed
	if zSpeed <= 0 {
		zSpeed = 0.001
	}

	onPeak := 0.5 / zSpeed
	if avail := fActive - fOutro; avail > 0 && onPeak > avail/2 {
		onPeak = avail / 2
	}

	peakLimit := 1.5
	if strings.EqualFold(e.Mode, "focus") && p.Focus != nil && p.Focus.Zoom > 1 {
		peakLimit = min(peakLimit, p.Focus.Zoom)
	}
	actualPeak := 1.0 + zSpeed*onPeak
	if actualPeak > peakLimit {
		actualPeak = peakLimit
		onPeak = (peakLimit - 1) / zSpeed
	}

	// zoom returns to 1:1 between outroStart and the end of the active part
	outroStart := fActive - fOutro
	if outroStart < onPeak {
		outroStart = onPeak
	}

	zFormula := fmt.Sprintf("if(lte(on,%f), 1.0+(%f*on), if(lte(on,%f), %f, if(lte(on,%f), %f-(%f-1.0)*(on-%f)/(%f-%f), 1.0)))",
		onPeak, zSpeed, outroStart, actualPeak, fActive, actualPeak, actualPeak, outroStart, fActive, outroStart)

	// render at 2x so the zoom does not shimmer
	aspectFilter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:color=%s",
		p.Width*2, p.Height*2, p.Width*2, p.Height*2, p.fill(),
	)
	zoomFilter := fmt.Sprintf(
		"zoompan=z='%s':d=%d:s=%dx%d:x='%s':y='%s':fps=%d",
		zFormula, int(fTotal), p.Width, p.Height, zoomX, zoomY, p.FPS,
	)
	return fmt.Sprintf("%s,%s,setsar=1", aspectFilter, zoomFilter)
}
