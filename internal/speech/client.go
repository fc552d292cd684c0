// Package speech is a client for the TTSMaker text-to-speech API.
package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/ivlev/shortsreel/internal/logging"
)

const (
	DefaultBaseURL = "https://api.ttsmaker.com/v1"
	DefaultVoice   = "en-US-1"

	defaultHTTPTimeout    = 60 * time.Second
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryMaxDelay  = 8 * time.Second
)

var (
	ErrInvalidRequest = errors.New("invalid speech request")
	ErrAPI            = errors.New("tts api error")
)

type Config struct {
	APIKey    string
	BaseURL   string
	OutputDir string
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time

	retryAttempts  int
	retryBaseDelay time.Duration
	retryMaxDelay  time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRetry sets how many attempts a request gets and the backoff bounds.
func WithRetry(attempts int, baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryAttempts = attempts
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logging.OrNop(l)
	}
}

// WithClock overrides the time source used for default file names.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg: Config{
			APIKey:    strings.TrimSpace(cfg.APIKey),
			BaseURL:   strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			OutputDir: cfg.OutputDir,
		},
		httpClient:     &http.Client{Timeout: defaultHTTPTimeout},
		logger:         zap.NewNop(),
		now:            time.Now,
		retryAttempts:  defaultRetryAttempts,
		retryBaseDelay: defaultRetryBaseDelay,
		retryMaxDelay:  defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cfg.BaseURL == "" {
		c.cfg.BaseURL = DefaultBaseURL
	}
	if c.cfg.OutputDir == "" {
		c.cfg.OutputDir = "generated_audio"
	}
	return c
}

// Request describes one synthesis job.
type Request struct {
	Text     string
	VoiceID  string
	Filename string
	Speed    float64 // 0.5-2.0, zero means 1.0
	Volume   float64 // 0.1-5.0, zero means 1.0
}

func (r *Request) normalize() error {
	if strings.TrimSpace(r.Text) == "" {
		return fmt.Errorf("%w: text cannot be empty", ErrInvalidRequest)
	}
	if r.VoiceID == "" {
		r.VoiceID = DefaultVoice
	}
	if r.Speed == 0 {
		r.Speed = 1.0
	}
	if r.Volume == 0 {
		r.Volume = 1.0
	}
	if r.Speed < 0.5 || r.Speed > 2.0 {
		return fmt.Errorf("%w: speed must be between 0.5 and 2.0", ErrInvalidRequest)
	}
	if r.Volume < 0.1 || r.Volume > 5.0 {
		return fmt.Errorf("%w: volume must be between 0.1 and 5.0", ErrInvalidRequest)
	}
	return nil
}

// Generate synthesises req.Text to an mp3 in the output directory and
// returns its path.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	if err := req.normalize(); err != nil {
		return "", err
	}

	filename := req.Filename
	if filename == "" {
		filename = fmt.Sprintf("tts_%s.mp3", c.now().Format("20060102-150405"))
	} else if !strings.HasSuffix(filename, ".mp3") {
		filename += ".mp3"
	}
	outPath := filepath.Join(c.cfg.OutputDir, filename)

	payload := "{}"
	for _, kv := range []struct {
		key   string
		value any
	}{
		{"api_key", c.cfg.APIKey},
		{"text", req.Text},
		{"voice_id", req.VoiceID},
		{"speed", req.Speed},
		{"volume", req.Volume},
		{"format", "mp3"},
	} {
		var err error
		if payload, err = sjson.Set(payload, kv.key, kv.value); err != nil {
			return "", fmt.Errorf("build tts payload: %w", err)
		}
	}

	body, err := c.do(ctx, func() (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/create", strings.NewReader(payload))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", "application/json")
		return r, nil
	})
	if err != nil {
		return "", fmt.Errorf("tts create: %w", err)
	}

	result := gjson.ParseBytes(body)
	if result.Get("status").String() != "success" {
		msg := result.Get("message").String()
		if msg == "" {
			msg = "unknown error"
		}
		return "", fmt.Errorf("%w: %s", ErrAPI, msg)
	}
	audioURL := result.Get("audio_url").String()
	if audioURL == "" {
		return "", fmt.Errorf("%w: response has no audio_url", ErrAPI)
	}

	audio, err := c.do(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	})
	if err != nil {
		return "", fmt.Errorf("tts download: %w", err)
	}

	if err := os.MkdirAll(c.cfg.OutputDir, 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(outPath, audio, 0644); err != nil {
		return "", fmt.Errorf("write audio: %w", err)
	}
	c.logger.Info("speech generated",
		zap.String("voice", req.VoiceID),
		zap.Int("chars", len(req.Text)),
		zap.String("path", outPath),
	)
	return outPath, nil
}

type Voice struct {
	ID       string
	Name     string
	Language string
	Gender   string
}

// Voices lists the voices offered by the API.
func (c *Client) Voices(ctx context.Context) ([]Voice, error) {
	body, err := c.do(ctx, func() (*http.Request, error) {
		u := c.cfg.BaseURL + "/voices?" + url.Values{"api_key": {c.cfg.APIKey}}.Encode()
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("list voices: %w", err)
	}
	var voices []Voice
	gjson.GetBytes(body, "voices").ForEach(func(_, v gjson.Result) bool {
		voices = append(voices, Voice{
			ID:       v.Get("voice_id").String(),
			Name:     v.Get("name").String(),
			Language: v.Get("language").String(),
			Gender:   v.Get("gender").String(),
		})
		return true
	})
	return voices, nil
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

func (e *httpStatusError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// do sends the request built by newReq, retrying transport failures and
// retryable status codes with exponential backoff.
func (c *Client) do(ctx context.Context, newReq func() (*http.Request, error)) ([]byte, error) {
	attempts := max(c.retryAttempts, 1)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		req, err := newReq()
		if err != nil {
			return nil, err
		}
		body, err := c.once(req)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var se *httpStatusError
		if errors.As(err, &se) && !se.retryable() {
			return nil, err
		}
		if ctx.Err() != nil || attempt == attempts {
			break
		}
		delay := c.backoff(attempt)
		c.logger.Debug("retrying tts request", zap.Int("attempt", attempt), zap.Duration("delay", delay), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, lastErr
}

func (c *Client) once(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &httpStatusError{StatusCode: resp.StatusCode, Body: buf.String()}
	}
	return buf.Bytes(), nil
}

func (c *Client) backoff(attempt int) time.Duration {
	delay := c.retryBaseDelay
	for i := 1; i < attempt; i++ {
		if delay > c.retryMaxDelay/2 {
			return c.retryMaxDelay
		}
		delay *= 2
	}
	if c.retryMaxDelay > 0 && delay > c.retryMaxDelay {
		return c.retryMaxDelay
	}
	return delay
}
