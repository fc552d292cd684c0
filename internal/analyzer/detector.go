// Package analyzer finds the visually busiest region of a slide so the
// focus motion can zoom towards it.
package analyzer

import (
	"errors"
	"fmt"
	"image"
)

var ErrUnknownDetector = errors.New("unknown detector")

// Block is a detected region of interest. Score grows with the amount of
// detail inside the region.
type Block struct {
	Rect  image.Rectangle
	Score float64
}

// Detector returns the regions of interest of an image, best first.
type Detector interface {
	Detect(img image.Image) ([]Block, error)
}

// NewDetector creates a detector based on the specified variant.
func NewDetector(variant string) (Detector, error) {
	switch variant {
	case "contrast", "":
		return NewContrastDetector(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDetector, variant)
	}
}

// Subject returns the highest scoring block of img. ok is false when the
// image has no region of interest, e.g. a flat colour.
func Subject(d Detector, img image.Image) (b Block, ok bool, err error) {
	blocks, err := d.Detect(img)
	if err != nil || len(blocks) == 0 {
		return Block{}, false, err
	}
	return blocks[0], true, nil
}
