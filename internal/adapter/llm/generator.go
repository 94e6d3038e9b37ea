package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"notesnap/internal/config"
	"notesnap/internal/logger"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"go.uber.org/zap"
)

// Generator implements domain.TextGenerator on top of a langchaingo model.
// The model named on each call overrides the client's default model.
type Generator struct {
	client      llms.Model
	temperature float64
	timeout     time.Duration
}

// NewGenerator wraps an existing langchaingo client.
func NewGenerator(client llms.Model, temperature float64, timeout time.Duration) *Generator {
	return &Generator{
		client:      client,
		temperature: temperature,
		timeout:     timeout,
	}
}

// NewFromConfig builds the client for the configured provider.
func NewFromConfig(ctx context.Context, cfg config.LLMConfig) (*Generator, error) {
	if len(cfg.Candidates) == 0 {
		return nil, errors.New("llm: at least one candidate model is required")
	}
	defaultModel := cfg.Candidates[0]

	var client llms.Model
	var err error
	switch cfg.Provider {
	case config.LLMProviderGoogleAI:
		client, err = googleai.New(ctx,
			googleai.WithAPIKey(cfg.APIKey),
			googleai.WithDefaultModel(defaultModel),
		)
	case config.LLMProviderOllama:
		client, err = ollama.New(
			ollama.WithServerURL(cfg.ServerURL),
			ollama.WithModel(defaultModel),
			ollama.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		)
	default:
		return nil, fmt.Errorf("llm: unsupported provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("llm: failed to create %s client: %w", cfg.Provider, err)
	}

	return NewGenerator(client, cfg.Temperature, cfg.Timeout), nil
}

// Generate implements domain.TextGenerator.
func (g *Generator) Generate(ctx context.Context, model, prompt string) (string, error) {
	l := logger.Get()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	response, err := llms.GenerateFromSinglePrompt(ctx, g.client, prompt,
		llms.WithModel(model),
		llms.WithTemperature(g.temperature),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			l.Warn("LLM request timed out", zap.String("model", model), zap.Error(err))
			return "", fmt.Errorf("LLM request timed out: %w", err)
		}
		return "", classify(err)
	}

	return stripThinking(response), nil
}

// stripThinking removes a <think> block some local models prepend to the answer.
func stripThinking(response string) string {
	cleaned := strings.TrimSpace(response)
	thinkStart := strings.Index(cleaned, "<think>")
	if thinkStart == -1 {
		return cleaned
	}
	thinkEnd := strings.Index(cleaned, "</think>")
	if thinkEnd == -1 || thinkEnd < thinkStart {
		return cleaned
	}
	return strings.TrimSpace(cleaned[:thinkStart] + cleaned[thinkEnd+len("</think>"):])
}
