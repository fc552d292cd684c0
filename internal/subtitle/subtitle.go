// Package subtitle reads and writes SubRip (.srt) subtitle files.
package subtitle

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrInvalidInput    = errors.New("invalid subtitle content")
	ErrMalformedFormat = errors.New("malformed subtitle format")
	ErrMalformedTiming = errors.New("malformed subtitle timing")
)

var (
	blockSepRe = regexp.MustCompile(`\n(?:[ \t]*\n)+`)
	indexRe    = regexp.MustCompile(`^\d+\s*$`)
	timingRe   = regexp.MustCompile(`^(\d{2}:\d{2}:\d{2},\d{3}) --> (\d{2}:\d{2}:\d{2},\d{3})$`)
)

// Entry is one cue of a subtitle track. Start and End keep the wire form
// HH:MM:SS,mmm.
type Entry struct {
	Index int    `json:"index"`
	Start string `json:"start_time"`
	End   string `json:"end_time"`
	Text  string `json:"text"`
}

// TimingError reports a cue whose timing line is not a valid range.
type TimingError struct {
	Index int
	Line  string
}

func (e *TimingError) Error() string {
	return fmt.Sprintf("%s in block %d: %q", ErrMalformedTiming, e.Index, e.Line)
}

func (e *TimingError) Unwrap() error {
	return ErrMalformedTiming
}

// Parse decodes SubRip content. Blocks with fewer than three lines are
// skipped; any other malformed block fails the whole parse.
func Parse(content string) ([]Entry, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is empty", ErrInvalidInput)
	}

	blocks := blockSepRe.Split(content, -1)

	numbered := false
	for _, block := range blocks {
		first, _, _ := strings.Cut(block, "\n")
		if indexRe.MatchString(strings.TrimSpace(first)) {
			numbered = true
			break
		}
	}
	if !numbered {
		return nil, fmt.Errorf("%w: missing subtitle numbers", ErrMalformedFormat)
	}

	var entries []Entry
	for _, block := range blocks {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) < 3 {
			continue
		}

		index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			return nil, fmt.Errorf("%w: bad index line %q", ErrMalformedFormat, lines[0])
		}

		m := timingRe.FindStringSubmatch(strings.TrimSpace(lines[1]))
		if m == nil {
			return nil, &TimingError{Index: index, Line: lines[1]}
		}

		entries = append(entries, Entry{
			Index: index,
			Start: m[1],
			End:   m[2],
			Text:  strings.TrimSpace(strings.Join(lines[2:], " ")),
		})
	}
	return entries, nil
}

// Render encodes entries in SubRip form. Text is written on one line;
// blank lines inside it would end the cue early.
func Render(entries []Entry) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", e.Index, e.Start, e.End, cueText(e.Text))
	}
	return b.String()
}

// cueText joins the non-blank lines of text with single spaces, the way
// Parse joins a cue's text lines.
func cueText(text string) string {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, " ")
}

func ReadFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read subtitles: %w", err)
	}
	return Parse(string(data))
}

// WriteFile saves entries to path, adding the .srt extension when missing,
// and returns the path written.
func WriteFile(path string, entries []Entry) (string, error) {
	if !strings.HasSuffix(path, ".srt") {
		path += ".srt"
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", err
		}
	}
	if err := os.WriteFile(path, []byte(Render(entries)), 0644); err != nil {
		return "", fmt.Errorf("write subtitles: %w", err)
	}
	return path, nil
}
