package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/ivlev/shortsreel/internal/geometry"
)

func TestParseAssignments(t *testing.T) {
	got, err := parseAssignments([]string{"height=tall", "accessories=watch", "accessories= ring "})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string][]string{"height": {"tall"}, "accessories": {"watch", "ring"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseAssignments() = %v", got)
	}
	if _, err := parseAssignments([]string{"height"}); err == nil {
		t.Error("expected error without =")
	}
}

func TestFrameSize(t *testing.T) {
	tests := []struct {
		ratio geometry.Ratio
		w, h  int
	}{
		{geometry.Portrait, 1080, 1920},
		{geometry.Landscape, 1920, 1080},
		{geometry.Square, 1920, 1920},
		{geometry.Feed, 1536, 1920},
	}
	for _, tt := range tests {
		w, h, err := frameSize(tt.ratio, 1920)
		if err != nil {
			t.Fatal(err)
		}
		if w != tt.w || h != tt.h {
			t.Errorf("frameSize(%s) = %dx%d, want %dx%d", tt.ratio, w, h, tt.w, tt.h)
		}
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"Scene", "Text"}, [][]string{{"1", "Rain"}, {"2"}}, []columnAlignment{alignRight})
	for _, want := range []string{"SCENE", "Rain", "╭"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if renderTable(nil, nil, nil) != "" {
		t.Error("empty headers should render nothing")
	}
}

func TestScenesCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "story.txt")
	if err := os.WriteFile(path, []byte("Scene 1: A dark night.\nScene 2: The door opens."), 0644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"scenes", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("scenes: %v", err)
	}
	if !strings.Contains(out.String(), "A dark night.") || !strings.Contains(out.String(), "The door opens.") {
		t.Errorf("output:\n%s", out.String())
	}
}

func TestPromptCommandIsSeeded(t *testing.T) {
	t.Chdir(t.TempDir())
	run := func() string {
		cmd := newRootCommand()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"prompt", "--seed", "7", "a", "quiet", "harbour"})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("prompt: %v", err)
		}
		return out.String()
	}
	first := run()
	if !strings.Contains(first, "a quiet harbour") {
		t.Errorf("prompt = %q", first)
	}
	if second := run(); second != first {
		t.Errorf("seeded prompts differ:\n%s\n%s", first, second)
	}
}

func TestTranslateVoiceoverLandsWithSubtitles(t *testing.T) {
	libre := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Write([]byte(`{"translatedText":"[fr] ` + gjson.GetBytes(body, "q").String() + `"}`))
	}))
	defer libre.Close()

	mux := http.NewServeMux()
	tts := httptest.NewServer(mux)
	defer tts.Close()
	mux.HandleFunc("/create", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","audio_url":"` + tts.URL + `/audio.mp3"}`))
	})
	mux.HandleFunc("/audio.mp3", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ID3"))
	})

	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("LIBRETRANSLATE_URL", libre.URL)
	t.Setenv("TTSMAKER_BASE_URL", tts.URL)
	t.Setenv("TTSMAKER_API_KEY", "key")
	t.Setenv("SHORTSREEL_OUTPUT_DIR", "out")
	srt := "1\n00:00:01,000 --> 00:00:02,000\nHello\n"
	if err := os.WriteFile("talk.srt", []byte(srt), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"translate", "--to", "fr", "--audio", "talk.srt"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("translate: %v", err)
	}

	want := filepath.Join("out", "translated_content")
	for _, name := range []string{"talk_fr.srt", "talk_fr.mp3"} {
		if _, err := os.Stat(filepath.Join(want, name)); err != nil {
			t.Errorf("%s not in %s: %v\n%s", name, want, err, out.String())
		}
	}
}
