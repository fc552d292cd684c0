package speech

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tidwall/gjson"
)

func newServer(t *testing.T, create http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	mux.HandleFunc("/create", create)
	mux.HandleFunc("/audio.mp3", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ID3fake-mp3"))
	})
	mux.HandleFunc("/voices", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") != "key" {
			t.Errorf("voices api_key = %q", r.URL.Query().Get("api_key"))
		}
		w.Write([]byte(`{"voices":[{"voice_id":"en-US-1","name":"Ava","language":"en-US","gender":"female"},{"voice_id":"fr-FR-1","name":"Leo","language":"fr-FR"}]}`))
	})
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerate(t *testing.T) {
	var srv *httptest.Server
	srv = newServer(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		p := gjson.ParseBytes(body)
		if p.Get("api_key").String() != "key" || p.Get("voice_id").String() != "fr-FR-1" {
			t.Errorf("unexpected payload %s", body)
		}
		if p.Get("speed").Float() != 1.5 || p.Get("volume").Float() != 1.0 || p.Get("format").String() != "mp3" {
			t.Errorf("unexpected payload %s", body)
		}
		w.Write([]byte(`{"status":"success","audio_url":"` + srv.URL + `/audio.mp3"}`))
	})

	dir := t.TempDir()
	c := NewClient(Config{APIKey: "key", BaseURL: srv.URL, OutputDir: dir})
	path, err := c.Generate(context.Background(), Request{Text: "Bonjour", VoiceID: "fr-FR-1", Filename: "hello", Speed: 1.5})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if path != filepath.Join(dir, "hello.mp3") {
		t.Errorf("path = %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "ID3fake-mp3" {
		t.Errorf("audio content = %q, %v", data, err)
	}
}

func TestGenerateDefaultFilename(t *testing.T) {
	var srv *httptest.Server
	srv = newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","audio_url":"` + srv.URL + `/audio.mp3"}`))
	})
	dir := t.TempDir()
	fixed := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	c := NewClient(Config{BaseURL: srv.URL, OutputDir: dir}, WithClock(func() time.Time { return fixed }))

	path, err := c.Generate(context.Background(), Request{Text: "hi"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if filepath.Base(path) != "tts_20240309-140507.mp3" {
		t.Errorf("default name = %s", filepath.Base(path))
	}
}

func TestGenerateValidation(t *testing.T) {
	c := NewClient(Config{OutputDir: t.TempDir()})
	cases := []Request{
		{Text: "  "},
		{Text: "x", Speed: 2.5},
		{Text: "x", Speed: 0.4},
		{Text: "x", Volume: 6},
		{Text: "x", Volume: 0.05},
	}
	for _, req := range cases {
		if _, err := c.Generate(context.Background(), req); !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("Generate(%+v) err = %v, want ErrInvalidRequest", req, err)
		}
	}
}

func TestGenerateAPIError(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","message":"quota exceeded"}`))
	})
	c := NewClient(Config{BaseURL: srv.URL, OutputDir: t.TempDir()})
	_, err := c.Generate(context.Background(), Request{Text: "hi"})
	if !errors.Is(err, ErrAPI) {
		t.Fatalf("err = %v, want ErrAPI", err)
	}
}

func TestGenerateRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	var srv *httptest.Server
	srv = newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"status":"success","audio_url":"` + srv.URL + `/audio.mp3"}`))
	})
	c := NewClient(Config{BaseURL: srv.URL, OutputDir: t.TempDir()}, WithRetry(3, time.Millisecond, 2*time.Millisecond))
	if _, err := c.Generate(context.Background(), Request{Text: "hi"}); err != nil {
		t.Fatalf("Generate failed after retries: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestGenerateDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	})
	c := NewClient(Config{BaseURL: srv.URL, OutputDir: t.TempDir()}, WithRetry(3, time.Millisecond, time.Millisecond))
	if _, err := c.Generate(context.Background(), Request{Text: "hi"}); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestBackoff(t *testing.T) {
	c := NewClient(Config{APIKey: "key"}, WithRetry(5, time.Second, 8*time.Second))
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 8 * time.Second}
	for i, w := range want {
		if got := c.backoff(i + 1); got != w {
			t.Errorf("backoff(%d) = %v, want %v", i+1, got, w)
		}
	}
}

func TestVoices(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected create call")
	})
	c := NewClient(Config{APIKey: "key", BaseURL: srv.URL})
	voices, err := c.Voices(context.Background())
	if err != nil {
		t.Fatalf("Voices failed: %v", err)
	}
	if len(voices) != 2 || voices[0].ID != "en-US-1" || voices[1].Language != "fr-FR" {
		t.Errorf("Voices() = %+v", voices)
	}
}
