package enhancer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go/option"
)

func chatServer(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body.Model != "test-model" {
			t.Errorf("model = %q", body.Model)
		}
		if len(body.Messages) != 2 || body.Messages[0].Role != "system" {
			t.Errorf("unexpected messages: %+v", body.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": reply},
			}},
		})
	}))
}

func newTestRewriter(url string) *Rewriter {
	return NewRewriter(RewriterConfig{
		APIKey:  "test",
		BaseURL: url,
		Model:   "test-model",
	}, nil, option.WithMaxRetries(0))
}

func TestRewrite(t *testing.T) {
	srv := chatServer(t, "```text\nScene 1:\nA lonely flat.\n\nScene 2:\nThe letter.\n```")
	defer srv.Close()

	out, err := newTestRewriter(srv.URL).Rewrite(context.Background(), "Scene 1: alone\nScene 2: letter")
	if err != nil {
		t.Fatalf("Rewrite failed: %v", err)
	}
	want := "Scene 1:\nA lonely flat.\n\nScene 2:\nThe letter."
	if out != want {
		t.Errorf("Rewrite() = %q, want %q", out, want)
	}
}

func TestRewriteRejectsSceneMismatch(t *testing.T) {
	srv := chatServer(t, "Scene 1: merged into one")
	defer srv.Close()

	_, err := newTestRewriter(srv.URL).Rewrite(context.Background(), "Scene 1: a\nScene 2: b")
	if !errors.Is(err, ErrRewriteMismatch) {
		t.Fatalf("err = %v, want ErrRewriteMismatch", err)
	}
}

func TestRewriteRejectsRenumbering(t *testing.T) {
	srv := chatServer(t, "Scene 2: b\nScene 1: a")
	defer srv.Close()

	_, err := newTestRewriter(srv.URL).Rewrite(context.Background(), "Scene 1: a\nScene 2: b")
	if !errors.Is(err, ErrRewriteMismatch) {
		t.Fatalf("err = %v, want ErrRewriteMismatch", err)
	}
}
