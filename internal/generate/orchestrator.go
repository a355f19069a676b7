package generate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/papermint/papermint/internal/config"
	"github.com/papermint/papermint/internal/llm"
	"github.com/papermint/papermint/internal/observability/logger"
	"github.com/papermint/papermint/internal/observability/metrics"
	"go.uber.org/zap"
)

// ErrExhausted is returned when every attempt failed.
var ErrExhausted = errors.New("generation attempts exhausted")

const (
	baseSystemInstruction = "You write fictional novelty documents for entertainment use. " +
		"Follow the requested output format exactly."
	strictJSONDirective = "STRICT JSON ONLY. Output a single JSON object with no commentary, " +
		"no markdown, no code fences."
	strictTextDirective = "Output plain text only. No commentary, no markdown, no code fences."

	// temperatureStep is subtracted on each retry, floored at zero.
	temperatureStep = 0.15

	defaultMaxTokens = 2048
)

// Input describes one generation run.
type Input struct {
	ServiceSlug string
	Prompt      string
	Temperature float64
	MaxTokens   int
	Validator   Validator
	StrictJSON  bool
}

// Outcome is the result of a completed run, successful or not. On failure
// RawResponse preserves the last provider output for diagnostics.
type Outcome struct {
	Content     Content
	Retries     int
	Repaired    bool
	RawResponse string
}

// Orchestrator drives the generate-validate-repair-retry loop.
type Orchestrator struct {
	client  llm.Client
	budget  config.BudgetConfig
	metrics *metrics.Metrics
	log     *zap.Logger
}

// NewOrchestrator constructs an Orchestrator.
func NewOrchestrator(client llm.Client, cfg config.Config, m *metrics.Metrics, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		client:  client,
		budget:  cfg.Budget,
		metrics: m,
		log:     log,
	}
}

// Run performs up to maxRetries+1 attempts. Temperature decreases
// monotonically across attempts and the system instruction is tightened on
// every retry. The error wraps ErrExhausted when all attempts fail; the
// returned Outcome still carries the last raw response and retry count.
func (o *Orchestrator) Run(ctx context.Context, in Input) (Outcome, error) {
	maxAttempts := o.budget.MaxRetries + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	log := logger.WithContext(ctx, o.log).With(zap.String("service", in.ServiceSlug))

	var lastRaw string
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			break
		}

		temperature := in.Temperature - temperatureStep*float64(attempt-1)
		if temperature < 0 {
			temperature = 0
		}

		maxTokens := in.MaxTokens
		if maxTokens <= 0 {
			maxTokens = defaultMaxTokens
		}

		raw, err := o.attempt(ctx, in, attempt, temperature, maxTokens)
		if err != nil {
			lastErr = err
			o.metrics.RecordGenerationAttempt(ctx, in.ServiceSlug, "transport_error")
			log.Warn("generation call failed",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			if attempt < maxAttempts {
				o.backoff(ctx, attempt)
			}
			continue
		}
		lastRaw = raw

		content, err := in.Validator.Validate(raw)
		if err == nil {
			o.metrics.RecordGenerationAttempt(ctx, in.ServiceSlug, "success")
			return Outcome{Content: content, Retries: attempt - 1, RawResponse: raw}, nil
		}

		repaired, repairedRaw, usedRepair, repairErr := RunRepairs(raw, in.Validator)
		if repairErr == nil && usedRepair {
			o.metrics.RecordGenerationAttempt(ctx, in.ServiceSlug, "success")
			o.metrics.RecordGenerationRepair(ctx, in.ServiceSlug)
			log.Info("generation output repaired",
				zap.Int("attempt", attempt),
			)
			return Outcome{Content: repaired, Retries: attempt - 1, Repaired: true, RawResponse: repairedRaw}, nil
		}

		lastErr = err
		o.metrics.RecordGenerationAttempt(ctx, in.ServiceSlug, "validation_error")
		log.Warn("generation output failed validation",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt < maxAttempts {
			o.backoff(ctx, attempt)
		}
	}

	if lastErr == nil {
		lastErr = ctx.Err()
	}
	return Outcome{Retries: maxAttempts - 1, RawResponse: lastRaw},
		fmt.Errorf("%w after %d attempts: %v", ErrExhausted, maxAttempts, lastErr)
}

func (o *Orchestrator) attempt(ctx context.Context, in Input, attempt int, temperature float64, maxTokens int) (string, error) {
	system := baseSystemInstruction
	if attempt > 1 {
		if in.StrictJSON {
			system += " " + strictJSONDirective
		} else {
			system += " " + strictTextDirective
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, o.budget.CallTimeout)
	defer cancel()

	return o.client.Generate(callCtx, llm.Request{
		SystemInstruction: system,
		Prompt:            in.Prompt,
		Temperature:       temperature,
		MaxTokens:         maxTokens,
	})
}

func (o *Orchestrator) backoff(ctx context.Context, attempt int) {
	delay := o.budget.RetryBackoff * time.Duration(attempt)
	if delay <= 0 {
		return
	}
	select {
	case <-time.After(delay):
	case <-ctx.Done():
	}
}
