package enhancer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/ivlev/shortsreel/internal/logging"
	"github.com/ivlev/shortsreel/internal/script"
)

var ErrRewriteMismatch = errors.New("rewritten script does not match the original scenes")

const rewriteSystemPrompt = "You are a script editor for short-form vertical videos. " +
	"Polish the story script you are given: tighten the prose, keep it visual and keep the emotional beats. " +
	"Keep every \"Scene N:\" marker with its original number and order, do not add or remove scenes, " +
	"and drop bracketed annotation headers while keeping their meaning in the prose. " +
	"Reply with the script only."

type RewriterConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// Rewriter polishes an enhanced script through an OpenAI-compatible chat
// completion endpoint.
type Rewriter struct {
	client      openai.Client
	model       string
	temperature float64
	timeout     time.Duration
	logger      *zap.Logger
}

func NewRewriter(cfg RewriterConfig, logger *zap.Logger, opts ...option.RequestOption) *Rewriter {
	clientOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.BaseURL))
	}
	clientOpts = append(clientOpts, opts...)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Rewriter{
		client:      openai.NewClient(clientOpts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     timeout,
		logger:      logging.OrNop(logger),
	}
}

// Rewrite returns the polished script. The reply must parse as a script with
// the same scene numbers in the same order.
func (r *Rewriter) Rewrite(ctx context.Context, text string) (string, error) {
	original, err := script.Parse(text)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	resp, err := r.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(rewriteSystemPrompt),
			openai.UserMessage(text),
		},
		Model:       openai.ChatModel(r.model),
		Temperature: openai.Float(r.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("rewrite request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("rewrite: model returned no choices")
	}
	raw := stripFence(resp.Choices[0].Message.Content)
	r.logger.Debug("script rewritten",
		zap.String("model", r.model),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("chars", len(raw)),
	)

	rewritten, err := script.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRewriteMismatch, err)
	}
	if len(rewritten) != len(original) {
		return "", fmt.Errorf("%w: got %d scenes, want %d", ErrRewriteMismatch, len(rewritten), len(original))
	}
	for i := range original {
		if rewritten[i].Number != original[i].Number {
			return "", fmt.Errorf("%w: scene %d became %d", ErrRewriteMismatch, original[i].Number, rewritten[i].Number)
		}
	}
	return script.Render(rewritten), nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
