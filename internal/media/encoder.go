package media

import (
	"context"
	"fmt"
	"strings"
)

const (
	EncoderVideoToolbox = "h264_videotoolbox"
	EncoderNVENC        = "h264_nvenc"
	EncoderX264         = "libx264"
)

// BestH264Encoder picks a hardware H.264 encoder when ffmpeg lists one,
// falling back to libx264.
func (t *Tools) BestH264Encoder(ctx context.Context) string {
	out, err := t.runner.Run(ctx, t.FFmpeg, []string{"-hide_banner", "-encoders"}, nil)
	if err != nil {
		return EncoderX264
	}
	listing := string(out)
	for _, enc := range []string{EncoderVideoToolbox, EncoderNVENC} {
		if strings.Contains(listing, enc) {
			return enc
		}
	}
	return EncoderX264
}

// DefaultQuality is the quality used when none is configured: a bitrate
// factor for VideoToolbox, a CQ value for NVENC and a CRF for x264.
func DefaultQuality(encoder string) int {
	switch encoder {
	case EncoderVideoToolbox:
		return 75
	case EncoderNVENC:
		return 28
	default:
		return 23
	}
}

// QualityArgs maps a quality value to encoder specific rate control flags.
func QualityArgs(encoder string, quality int) []string {
	if quality <= 0 {
		quality = DefaultQuality(encoder)
	}
	switch encoder {
	case EncoderVideoToolbox:
		// kbit/s, 75 -> 7.5 Mbit/s
		return []string{"-b:v", fmt.Sprintf("%dk", quality*100)}
	case EncoderNVENC:
		return []string{"-cq", fmt.Sprintf("%d", quality)}
	default:
		return []string{"-crf", fmt.Sprintf("%d", quality), "-preset", "medium"}
	}
}
