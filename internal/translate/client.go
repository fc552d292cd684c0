// Package translate translates subtitle tracks through LibreTranslate and
// can voice the result with the speech client.
package translate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const DefaultURL = "https://libretranslate.com/translate"

var ErrTranslation = errors.New("translation failed")

type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Client calls a LibreTranslate /translate endpoint.
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

func NewClient(cfg Config, hc *http.Client) *Client {
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		url = DefaultURL
	}
	return &Client{url: url, apiKey: cfg.APIKey, httpClient: hc}
}

// Text translates text from src to dst. Blank text is returned unchanged
// without a request.
func (c *Client) Text(ctx context.Context, text, src, dst string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	payload := "{}"
	for _, kv := range []struct {
		key   string
		value string
	}{
		{"q", text},
		{"source", src},
		{"target", dst},
		{"format", "text"},
		{"api_key", c.apiKey},
	} {
		var err error
		if payload, err = sjson.Set(payload, kv.key, kv.value); err != nil {
			return "", fmt.Errorf("build translate payload: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranslation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrTranslation, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := gjson.GetBytes(body, "error").String()
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return "", fmt.Errorf("%w: http %d: %s", ErrTranslation, resp.StatusCode, msg)
	}

	translated := gjson.GetBytes(body, "translatedText")
	if !translated.Exists() {
		msg := gjson.GetBytes(body, "error").String()
		if msg == "" {
			msg = "unknown error"
		}
		return "", fmt.Errorf("%w: %s", ErrTranslation, msg)
	}
	return translated.String(), nil
}
