package media

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

var namedColors = map[string]color.RGBA{
	"black": {0, 0, 0, 255},
	"white": {255, 255, 255, 255},
	"gray":  {128, 128, 128, 255},
	"red":   {255, 0, 0, 255},
	"green": {0, 128, 0, 255},
	"blue":  {0, 0, 255, 255},
}

// ParseColor accepts a name from a small palette, "#rrggbb" or "r,g,b".
func ParseColor(s string) (color.RGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return namedColors["black"], nil
	}
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	if hex, ok := strings.CutPrefix(s, "#"); ok && len(hex) == 6 {
		v, err := strconv.ParseUint(hex, 16, 32)
		if err == nil {
			return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
		}
	}
	if parts := strings.Split(s, ","); len(parts) == 3 {
		var rgb [3]uint8
		ok := true
		for i, p := range parts {
			v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
			if err != nil {
				ok = false
				break
			}
			rgb[i] = uint8(v)
		}
		if ok {
			return color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}, nil
		}
	}
	return color.RGBA{}, fmt.Errorf("%w: colour %q", ErrUnsupported, s)
}

// ffmpegColor formats c for ffmpeg filter arguments.
func ffmpegColor(c color.RGBA) string {
	return fmt.Sprintf("0x%02X%02X%02X", c.R, c.G, c.B)
}
