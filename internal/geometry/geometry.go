// Package geometry computes the scale-and-pad layout used to fit media into
// a target aspect ratio.
package geometry

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"
)

var (
	ErrInvalidRatio = errors.New("invalid aspect ratio")
	ErrInvalidSize  = errors.New("invalid dimensions")
)

// DefaultMaxDimension caps the longer side of the fitted media.
const DefaultMaxDimension = 1920

type Size struct {
	W, H int
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.W, s.H)
}

// Ratio is a width:height aspect ratio.
type Ratio struct {
	Num, Den int
}

var (
	Landscape = Ratio{16, 9}
	Portrait  = Ratio{9, 16}
	Square    = Ratio{1, 1}
	Classic   = Ratio{4, 3}
	Tall      = Ratio{3, 4}
	Feed      = Ratio{4, 5}
)

var presets = map[string]Ratio{
	"16:9": Landscape,
	"9:16": Portrait,
	"1:1":  Square,
	"4:3":  Classic,
	"3:4":  Tall,
	"4:5":  Feed,
}

// Presets returns the names of the built-in ratios in display order.
func Presets() []string {
	return []string{"16:9", "9:16", "1:1", "4:3", "3:4", "4:5"}
}

// LookupRatio resolves one of the built-in preset names.
func LookupRatio(name string) (Ratio, error) {
	r, ok := presets[strings.TrimSpace(name)]
	if !ok {
		return Ratio{}, fmt.Errorf("%w: unsupported preset %q", ErrInvalidRatio, name)
	}
	return r, nil
}

// ParseRatio accepts any positive "W:H" pair, presets included.
func ParseRatio(s string) (Ratio, error) {
	if r, err := LookupRatio(s); err == nil {
		return r, nil
	}
	w, h, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Ratio{}, fmt.Errorf("%w: %q is not W:H", ErrInvalidRatio, s)
	}
	num, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil {
		return Ratio{}, fmt.Errorf("%w: %q", ErrInvalidRatio, s)
	}
	den, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return Ratio{}, fmt.Errorf("%w: %q", ErrInvalidRatio, s)
	}
	r := Ratio{Num: num, Den: den}
	if err := r.Validate(); err != nil {
		return Ratio{}, err
	}
	return r, nil
}

func (r Ratio) Validate() error {
	if r.Num <= 0 || r.Den <= 0 {
		return fmt.Errorf("%w: %d:%d", ErrInvalidRatio, r.Num, r.Den)
	}
	return nil
}

func (r Ratio) Aspect() float64 {
	return float64(r.Num) / float64(r.Den)
}

func (r Ratio) String() string {
	return fmt.Sprintf("%d:%d", r.Num, r.Den)
}

// Slug is the file-name friendly form, e.g. "16x9".
func (r Ratio) Slug() string {
	return fmt.Sprintf("%dx%d", r.Num, r.Den)
}

// Fit computes the scaled media size and the padded canvas size for placing
// media of the current size into the target ratio.
//
// The media is first brought to the target aspect by holding one side, then
// downscaled so neither side exceeds maxDimension (each side rounded on its
// own, so the aspect may drift by a pixel), and finally a canvas at the
// target aspect is derived from the scaled size.
func Fit(current Size, target Ratio, maxDimension int) (scaled, canvas Size, err error) {
	if err := target.Validate(); err != nil {
		return Size{}, Size{}, err
	}
	if current.W <= 0 || current.H <= 0 {
		return Size{}, Size{}, fmt.Errorf("%w: source %s", ErrInvalidSize, current)
	}
	if maxDimension <= 0 {
		return Size{}, Size{}, fmt.Errorf("%w: max dimension %d", ErrInvalidSize, maxDimension)
	}

	aspect := target.Aspect()
	currentAspect := float64(current.W) / float64(current.H)

	if currentAspect > aspect {
		scaled.H = current.H
		scaled.W = round(float64(current.H) * aspect)
	} else {
		scaled.W = current.W
		scaled.H = round(float64(current.W) / aspect)
	}

	if scaled.W > maxDimension || scaled.H > maxDimension {
		scale := float64(maxDimension) / float64(max(scaled.W, scaled.H))
		scaled.W = round(float64(scaled.W) * scale)
		scaled.H = round(float64(scaled.H) * scale)
	}

	if float64(scaled.W)/float64(scaled.H) > aspect {
		canvas.H = scaled.H
		canvas.W = round(float64(canvas.H) * aspect)
	} else {
		canvas.W = scaled.W
		canvas.H = round(float64(canvas.W) / aspect)
	}

	// Rounding can leave the canvas a pixel short of the scaled media.
	canvas.W = max(canvas.W, scaled.W)
	canvas.H = max(canvas.H, scaled.H)

	return scaled, canvas, nil
}

// Offset returns the top-left position that centres scaled on canvas.
func Offset(scaled, canvas Size) image.Point {
	return image.Point{
		X: (canvas.W - scaled.W) / 2,
		Y: (canvas.H - scaled.H) / 2,
	}
}

func round(v float64) int {
	return max(int(math.Round(v)), 1)
}
