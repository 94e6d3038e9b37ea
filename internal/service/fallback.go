package service

import (
	"context"
	"errors"
	"strings"

	"notesnap/internal/domain"
	"notesnap/internal/logger"

	"go.uber.org/zap"
)

// BusyMessage is returned in place of generated text when every candidate model failed.
const BusyMessage = "The AI service is busy right now. Please wait a moment and try again."

type AttemptState string

const (
	AttemptSucceeded      AttemptState = "succeeded"
	AttemptQuotaExhausted AttemptState = "quota-exhausted"
	AttemptFailed         AttemptState = "failed"
)

// Attempt records one call to one candidate model.
type Attempt struct {
	Model string
	State AttemptState
	Err   error
}

type OutcomeState string

const (
	OutcomeSucceeded OutcomeState = "succeeded"
	OutcomeExhausted OutcomeState = "exhausted"
)

// Outcome is the result of running the candidate list once. Text is the
// generated text on success and BusyMessage otherwise.
type Outcome struct {
	State    OutcomeState
	Model    string
	Text     string
	Attempts []Attempt
}

// CandidatePolicy tries a fixed, ordered list of models and stops at the
// first that answers. Each model is tried at most once per call.
type CandidatePolicy struct {
	generator  domain.TextGenerator
	candidates []string
}

// NewCandidatePolicy copies candidates; later changes to the slice have no effect.
func NewCandidatePolicy(generator domain.TextGenerator, candidates []string) *CandidatePolicy {
	return &CandidatePolicy{
		generator:  generator,
		candidates: append([]string(nil), candidates...),
	}
}

// Candidates returns a copy of the model order.
func (p *CandidatePolicy) Candidates() []string {
	return append([]string(nil), p.candidates...)
}

// Generate returns the first successful generation or BusyMessage. It never fails.
func (p *CandidatePolicy) Generate(ctx context.Context, prompt string) string {
	return p.Run(ctx, prompt).Text
}

// Run is Generate with the attempt log.
func (p *CandidatePolicy) Run(ctx context.Context, prompt string) Outcome {
	l := logger.Get()
	attempts := make([]Attempt, 0, len(p.candidates))

	for _, model := range p.candidates {
		if err := ctx.Err(); err != nil {
			l.Warn("Stopping model fallback, request is done", zap.Error(err))
			break
		}

		text, err := p.generator.Generate(ctx, model, prompt)
		if err == nil {
			attempts = append(attempts, Attempt{Model: model, State: AttemptSucceeded})
			return Outcome{
				State:    OutcomeSucceeded,
				Model:    model,
				Text:     strings.ReplaceAll(text, "•", "  *"),
				Attempts: attempts,
			}
		}

		state := AttemptFailed
		if errors.Is(err, domain.ErrQuotaExhausted) {
			state = AttemptQuotaExhausted
		}
		attempts = append(attempts, Attempt{Model: model, State: state, Err: err})
		l.Warn("Model attempt failed, trying next candidate",
			zap.String("model", model),
			zap.String("state", string(state)),
			zap.Error(err))
	}

	l.Error("All candidate models failed", zap.Int("attempts", len(attempts)))
	return Outcome{State: OutcomeExhausted, Text: BusyMessage, Attempts: attempts}
}
