package translate

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/ivlev/shortsreel/internal/speech"
	"github.com/ivlev/shortsreel/internal/subtitle"
)

const sampleSRT = `1
00:00:01,000 --> 00:00:04,000
Hello, welcome to our video.

2
00:00:04,500 --> 00:00:08,000
Today we'll learn something interesting.
`

// libreServer answers with the target code prepended to the query.
func libreServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		body, _ := io.ReadAll(r.Body)
		p := gjson.ParseBytes(body)
		if p.Get("format").String() != "text" || p.Get("source").String() != "en" {
			t.Errorf("unexpected payload %s", body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"translatedText":"[` + p.Get("target").String() + `] ` + p.Get("q").String() + `"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

type fakeSpeech struct {
	mu   sync.Mutex
	reqs []speech.Request
	dir  string
}

func (f *fakeSpeech) Generate(_ context.Context, req speech.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return filepath.Join(f.dir, req.Filename), nil
}

func TestClientText(t *testing.T) {
	var calls atomic.Int32
	srv := libreServer(t, &calls)
	c := NewClient(Config{URL: srv.URL}, nil)

	got, err := c.Text(context.Background(), "Hello", "en", "es")
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	if got != "[es] Hello" {
		t.Errorf("Text() = %q", got)
	}

	got, err = c.Text(context.Background(), "   ", "en", "es")
	if err != nil || got != "   " {
		t.Errorf("blank text = %q, %v", got, err)
	}
	if calls.Load() != 1 {
		t.Errorf("blank text should not call the API, calls = %d", calls.Load())
	}
}

func TestClientPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		p := gjson.ParseBytes(body)
		for key, want := range map[string]string{"q": `Say "hi"`, "source": "en", "target": "de", "format": "text", "api_key": "secret"} {
			if got := p.Get(key).String(); got != want {
				t.Errorf("%s = %q, want %q in %s", key, got, want, body)
			}
		}
		w.Write([]byte(`{"translatedText":"Sag \"hallo\""}`))
	}))
	defer srv.Close()

	got, err := NewClient(Config{URL: srv.URL, APIKey: "secret"}, nil).Text(context.Background(), `Say "hi"`, "en", "de")
	if err != nil || got != `Sag "hallo"` {
		t.Errorf("Text() = %q, %v", got, err)
	}
}

func TestClientTextErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"missing field", http.StatusOK, `{"error":"language not supported"}`},
		{"http error", http.StatusBadRequest, `{"error":"bad request"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(Config{URL: srv.URL}, nil).Text(context.Background(), "Hi", "en", "xx")
			if !errors.Is(err, ErrTranslation) {
				t.Fatalf("err = %v, want ErrTranslation", err)
			}
		})
	}
}

func TestEntriesPreservesOrderAndTiming(t *testing.T) {
	srv := libreServer(t, nil)
	entries, err := subtitle.Parse(sampleSRT)
	if err != nil {
		t.Fatal(err)
	}
	tr := New(NewClient(Config{URL: srv.URL}, nil), WithConcurrency(2))

	got, err := tr.Entries(context.Background(), entries, "en", "fr")
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("len = %d, want %d", len(got), len(entries))
	}
	for i := range got {
		if got[i].Index != entries[i].Index || got[i].Start != entries[i].Start || got[i].End != entries[i].End {
			t.Errorf("entry %d timing changed: %+v", i, got[i])
		}
		if got[i].Text != "[fr] "+entries[i].Text {
			t.Errorf("entry %d text = %q", i, got[i].Text)
		}
	}
}

type blankTranslator struct{}

func (blankTranslator) Text(_ context.Context, text, _, _ string) (string, error) {
	if text == "Hello, welcome to our video." {
		return "  ", nil
	}
	return "[fr] " + text, nil
}

func TestEntriesKeepsSourceForEmptyTranslation(t *testing.T) {
	entries, err := subtitle.Parse(sampleSRT)
	if err != nil {
		t.Fatal(err)
	}
	got, err := New(blankTranslator{}).Entries(context.Background(), entries, "en", "fr")
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if got[0].Text != entries[0].Text {
		t.Errorf("entry 1 text = %q, want source text", got[0].Text)
	}

	back, err := subtitle.Parse(subtitle.Render(got))
	if err != nil {
		t.Fatal(err)
	}
	if len(back) != len(entries) {
		t.Errorf("rendered track has %d cues, want %d", len(back), len(entries))
	}
}

func TestVoiceFor(t *testing.T) {
	tests := []struct {
		in    string
		voice string
	}{
		{"es", "es-ES-1"},
		{"pt-PT", "pt-BR-1"},
		{"zh-Hans", "zh-CN-1"},
		{"EN", "en-US-1"},
	}
	for _, tt := range tests {
		l, err := VoiceFor(tt.in)
		if err != nil || l.Voice != tt.voice {
			t.Errorf("VoiceFor(%q) = %+v, %v", tt.in, l, err)
		}
	}
	for _, bad := range []string{"sv", "", "not a tag"} {
		if _, err := VoiceFor(bad); !errors.Is(err, ErrUnsupportedLanguage) {
			t.Errorf("VoiceFor(%q) err = %v", bad, err)
		}
	}
	if n := len(Supported()); n != 12 {
		t.Errorf("Supported() has %d languages, want 12", n)
	}
}

func TestVoiceover(t *testing.T) {
	entries := []subtitle.Entry{{Index: 1, Text: "Hola"}, {Index: 2, Text: "Adios"}}

	if _, err := New(nil).Voiceover(context.Background(), entries, "es", "x.mp3"); !errors.Is(err, ErrVoiceoverDisabled) {
		t.Errorf("err = %v, want ErrVoiceoverDisabled", err)
	}

	fs := &fakeSpeech{dir: t.TempDir()}
	tr := New(nil, WithSpeech(fs))
	if _, err := tr.Voiceover(context.Background(), entries, "sv", "x.mp3"); !errors.Is(err, ErrUnsupportedLanguage) {
		t.Errorf("err = %v, want ErrUnsupportedLanguage", err)
	}
	if _, err := tr.Voiceover(context.Background(), entries, "es", "x.mp3"); err != nil {
		t.Fatalf("Voiceover failed: %v", err)
	}
	req := fs.reqs[0]
	want := "Hola\n<break time='500ms'/>\nAdios\n<break time='500ms'/>\n"
	if req.Text != want || req.VoiceID != "es-ES-1" {
		t.Errorf("request = %+v", req)
	}
}

func TestProcess(t *testing.T) {
	srv := libreServer(t, nil)
	dir := t.TempDir()
	in := filepath.Join(dir, "sample.srt")
	if err := os.WriteFile(in, []byte(sampleSRT), 0644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out")
	fs := &fakeSpeech{dir: out}
	tr := New(NewClient(Config{URL: srv.URL}, nil), WithOutputDir(out), WithSpeech(fs))

	res, err := tr.Process(context.Background(), in, "en", "es", true)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if res.Subtitles != filepath.Join(out, "sample_es.srt") {
		t.Errorf("subtitles = %s", res.Subtitles)
	}
	if res.Audio != filepath.Join(out, "sample_es.mp3") {
		t.Errorf("audio = %s", res.Audio)
	}
	written, err := subtitle.ReadFile(res.Subtitles)
	if err != nil {
		t.Fatal(err)
	}
	if len(written) != 2 || !strings.HasPrefix(written[1].Text, "[es] ") || written[1].Start != "00:00:04,500" {
		t.Errorf("written entries = %+v", written)
	}

	noAudio, err := New(NewClient(Config{URL: srv.URL}, nil), WithOutputDir(out)).Process(context.Background(), in, "en", "de", false)
	if err != nil || noAudio.Audio != "" {
		t.Errorf("Process without audio = %+v, %v", noAudio, err)
	}
}
