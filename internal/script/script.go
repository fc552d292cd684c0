// Package script splits a narrative story script into numbered scenes.
//
// A script is free text containing markers of the form "Scene <N>:". Each
// marker opens a scene whose text runs until the next marker or the end of
// the input.
package script

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrInvalidInput  = errors.New("invalid story script")
	ErrNoScenesFound = errors.New("no scenes found in story script")
)

var markerRe = regexp.MustCompile(`Scene\s+(\d+):`)

// Scene is one numbered block of a story script.
type Scene struct {
	Number int    `yaml:"number" json:"scene_number"`
	Text   string `yaml:"text" json:"description"`
}

// Parse extracts the scenes of text in source order. Scene numbers are
// taken verbatim, so gaps, duplicates and reordering pass through.
func Parse(text string) ([]Scene, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: script is empty", ErrInvalidInput)
	}

	matches := markerRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil, ErrNoScenesFound
	}

	scenes := make([]Scene, 0, len(matches))
	for i, m := range matches {
		digits := text[m[2]:m[3]]
		number, err := strconv.Atoi(digits)
		if err != nil {
			return nil, fmt.Errorf("%w: scene number %s: %v", ErrInvalidInput, digits, err)
		}

		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}

		scenes = append(scenes, Scene{
			Number: number,
			Text:   strings.TrimSpace(text[m[1]:end]),
		})
	}
	return scenes, nil
}

// ParseReader reads the whole script from r and parses it.
func ParseReader(r io.Reader) ([]Scene, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: no script provided", ErrInvalidInput)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return Parse(string(data))
}

// Render writes scenes back in script form, one "Scene N:" block per scene
// separated by a blank line.
func Render(scenes []Scene) string {
	var b strings.Builder
	for i, s := range scenes {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Scene %d:\n%s", s.Number, s.Text)
	}
	return b.String()
}
