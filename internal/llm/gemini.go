package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/imrishuroy/shopify-support-api/internal/config"
	"github.com/imrishuroy/shopify-support-api/internal/logger"
)

// ErrEmptyCompletion is returned when the model answered with no text.
var ErrEmptyCompletion = errors.New("empty completion")

// ContentGenerator is the part of *genai.Models used here.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini completes prompts with a Gemini model.
type Gemini struct {
	models  ContentGenerator
	model   string
	timeout time.Duration
}

// NewGemini creates a Gemini API client from cfg.
func NewGemini(ctx context.Context, cfg config.LLMConfig) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return NewGeminiWith(client.Models, cfg.Model, cfg.Timeout), nil
}

// NewGeminiWith wraps an existing generator; tests pass a fake.
func NewGeminiWith(models ContentGenerator, model string, timeout time.Duration) *Gemini {
	return &Gemini{models: models, model: model, timeout: timeout}
}

// Complete sends one system instruction and one user prompt and returns the model's text unchanged.
func (g *Gemini) Complete(ctx context.Context, system, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyCompletion
	}

	logger.FromContext(ctx).Info("completion generated",
		zap.String("model", g.model), zap.Duration("latency", time.Since(start)))
	return text, nil
}
