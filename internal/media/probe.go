package media

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Info describes a media file as reported by ffprobe.
type Info struct {
	Duration float64 `json:"duration"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	FPS      float64 `json:"fps"`
	Codec    string  `json:"codec,omitempty"`
	HasVideo bool    `json:"has_video"`
	HasAudio bool    `json:"has_audio"`
}

func (t *Tools) Probe(ctx context.Context, path string) (Info, error) {
	if err := requireFile(path); err != nil {
		return Info{}, err
	}
	out, err := t.runner.Run(ctx, t.FFprobe, []string{
		"-v", "error",
		"-show_format",
		"-show_streams",
		"-of", "json",
		path,
	}, nil)
	if err != nil {
		return Info{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return parseProbe(out)
}

func parseProbe(data []byte) (Info, error) {
	if !gjson.ValidBytes(data) {
		return Info{}, fmt.Errorf("ffprobe returned invalid json")
	}
	root := gjson.ParseBytes(data)

	var info Info
	info.Duration = root.Get("format.duration").Float()

	video := root.Get(`streams.#(codec_type=="video")`)
	if video.Exists() {
		info.HasVideo = true
		info.Width = int(video.Get("width").Int())
		info.Height = int(video.Get("height").Int())
		info.Codec = video.Get("codec_name").String()
		info.FPS = parseRate(video.Get("avg_frame_rate").String())
		if info.FPS == 0 {
			info.FPS = parseRate(video.Get("r_frame_rate").String())
		}
		if info.Duration == 0 {
			info.Duration = video.Get("duration").Float()
		}
	}
	info.HasAudio = root.Get(`streams.#(codec_type=="audio")`).Exists()
	return info, nil
}

// parseRate converts an ffprobe rational such as "30000/1001".
func parseRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !ok {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}
