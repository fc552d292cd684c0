package media

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type call struct {
	name  string
	args  []string
	stdin int
}

// fakeRunner answers ffprobe from a table keyed by file name and records
// every ffmpeg invocation.
type fakeRunner struct {
	mu       sync.Mutex
	calls    []call
	probes   map[string]string
	encoders string
	fail     error
}

func (f *fakeRunner) Run(_ context.Context, name string, args []string, stdin io.Reader) ([]byte, error) {
	n := 0
	if stdin != nil {
		data, _ := io.ReadAll(stdin)
		n = len(data)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{name: name, args: append([]string(nil), args...), stdin: n})

	if name == "ffprobe" {
		if out, ok := f.probes[filepath.Base(args[len(args)-1])]; ok {
			return []byte(out), nil
		}
		return nil, errors.New("no probe data")
	}
	if slices.Contains(args, "-encoders") {
		return []byte(f.encoders), nil
	}
	return nil, f.fail
}

func (f *fakeRunner) ffmpegCalls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		if c.name == "ffmpeg" {
			out = append(out, c)
		}
	}
	return out
}

func argAfter(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func touchFile(t *testing.T, path string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

const probeVideo = `{
  "streams": [
    {"codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080, "r_frame_rate": "30000/1001", "avg_frame_rate": "0/0"},
    {"codec_type": "audio", "codec_name": "aac"}
  ],
  "format": {"duration": "12.500000"}
}`

const probeSilentVideo = `{
  "streams": [{"codec_type": "video", "width": 640, "height": 480, "avg_frame_rate": "25/1"}],
  "format": {"duration": "4.0"}
}`

const probeAudio = `{"streams": [{"codec_type": "audio"}], "format": {"duration": "2.96"}}`

func TestParseProbe(t *testing.T) {
	info, err := parseProbe([]byte(probeVideo))
	if err != nil {
		t.Fatal(err)
	}
	if info.Duration != 12.5 || info.Width != 1920 || info.Height != 1080 || !info.HasAudio || !info.HasVideo {
		t.Errorf("parseProbe() = %+v", info)
	}
	if info.FPS < 29.96 || info.FPS > 29.98 {
		t.Errorf("FPS = %f, want ~29.97", info.FPS)
	}
	if _, err := parseProbe([]byte("not json")); err == nil {
		t.Error("expected error for invalid json")
	}

	audio, _ := parseProbe([]byte(probeAudio))
	if audio.HasVideo || !audio.HasAudio || audio.Duration != 2.96 {
		t.Errorf("audio probe = %+v", audio)
	}
}

func TestBestH264Encoder(t *testing.T) {
	tests := []struct {
		listing string
		want    string
	}{
		{" V....D h264_nvenc  NVIDIA NVENC H.264 encoder", EncoderNVENC},
		{" V....D h264_videotoolbox VideoToolbox\n V....D h264_nvenc", EncoderVideoToolbox},
		{" V....D libx264", EncoderX264},
	}
	for _, tt := range tests {
		tools := NewTools(WithRunner(&fakeRunner{encoders: tt.listing}))
		if got := tools.BestH264Encoder(context.Background()); got != tt.want {
			t.Errorf("BestH264Encoder(%q) = %s, want %s", tt.listing, got, tt.want)
		}
	}
}

func TestQualityArgs(t *testing.T) {
	tests := []struct {
		encoder string
		quality int
		want    []string
	}{
		{EncoderVideoToolbox, 0, []string{"-b:v", "7500k"}},
		{EncoderNVENC, 0, []string{"-cq", "28"}},
		{EncoderX264, 0, []string{"-crf", "23", "-preset", "medium"}},
		{EncoderX264, 18, []string{"-crf", "18", "-preset", "medium"}},
	}
	for _, tt := range tests {
		if got := QualityArgs(tt.encoder, tt.quality); !slices.Equal(got, tt.want) {
			t.Errorf("QualityArgs(%s, %d) = %v, want %v", tt.encoder, tt.quality, got, tt.want)
		}
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "0x000000"},
		{"white", "0xFFFFFF"},
		{"#1a2B3c", "0x1A2B3C"},
		{"10, 20, 30", "0x0A141E"},
	}
	for _, tt := range tests {
		c, err := ParseColor(tt.in)
		if err != nil {
			t.Fatalf("ParseColor(%q): %v", tt.in, err)
		}
		if got := ffmpegColor(c); got != tt.want {
			t.Errorf("ParseColor(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
	for _, bad := range []string{"#12345", "mauve", "1,2,300"} {
		if _, err := ParseColor(bad); !errors.Is(err, ErrUnsupported) {
			t.Errorf("ParseColor(%q) err = %v", bad, err)
		}
	}
}

func TestCommandErrorUnwraps(t *testing.T) {
	inner := errors.New("exit status 1")
	err := &CommandError{Name: "ffmpeg", Stderr: "boom", Err: inner}
	if !errors.Is(err, inner) || !strings.Contains(err.Error(), "boom") {
		t.Errorf("CommandError = %v", err)
	}
}

func TestToolsLogsCommands(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	tools := NewTools(WithRunner(&fakeRunner{}), WithLogger(zap.New(core)))
	if err := tools.ffmpeg(context.Background(), []string{"-version"}, nil); err != nil {
		t.Fatal(err)
	}
	if logs.FilterMessage("ffmpeg").Len() != 1 {
		t.Errorf("expected one ffmpeg debug entry, got %v", logs.All())
	}
}
