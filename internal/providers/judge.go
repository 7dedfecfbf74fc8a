package providers

import (
	"context"
	"sync"
	"time"

	"github.com/chainguard-dev/clog"

	"github.com/chatlens/chatlens/internal/config"
	"github.com/chatlens/chatlens/internal/models"
	"github.com/chatlens/chatlens/internal/prompt"
	"github.com/chatlens/chatlens/internal/rubric"
	"github.com/chatlens/chatlens/internal/validation"
)

// completer is the vendor-specific slice of a judge: send one prompt, get
// raw text and token usage back. Everything above this line is shared.
type completer interface {
	complete(ctx context.Context, system, user string) (string, models.TokenUsage, error)
}

// completion pairs the raw text with its usage so the retry helper can carry
// both through a single type parameter.
type completion struct {
	text  string
	usage models.TokenUsage
}

// judge wraps a vendor completer with the shared evaluation pipeline:
// prompt, per-attempt timeout, retry, schema validation, score rollup, and
// cost accounting.
type judge struct {
	cfg  config.ProviderConfig
	kind Kind
	c    completer

	// Schema compilation is memoized per rubric: requests in a run share
	// one rubric, so each judge compiles at most once.
	mu        sync.Mutex
	rubricRef *rubric.Rubric
	validator *validation.Validator
}

func (j *judge) validatorFor(r *rubric.Rubric) (*validation.Validator, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.validator != nil && j.rubricRef == r {
		return j.validator, nil
	}
	v, err := validation.NewValidator(r)
	if err != nil {
		return nil, err
	}
	j.rubricRef, j.validator = r, v
	return v, nil
}

func (j *judge) Name() string { return j.cfg.Name }
func (j *judge) Kind() Kind   { return j.kind }

func (j *judge) Evaluate(ctx context.Context, req *models.EvaluationRequest) (*models.JudgeResult, error) {
	start := time.Now()
	log := clog.FromContext(ctx).With("provider", j.cfg.Name).With("model", j.cfg.Model)

	validator, err := j.validatorFor(req.Rubric)
	if err != nil {
		return nil, j.fail(start, 0, 0, err)
	}

	system := prompt.System()
	user := prompt.Build(req.Rubric, req.Transcript)

	comp, attempts, err := withRetry(ctx, j.cfg.Retry, j.cfg.Name, func(ctx context.Context) (completion, error) {
		callCtx, cancel := context.WithTimeout(ctx, j.cfg.Timeout())
		defer cancel()

		text, usage, err := j.c.complete(callCtx, system, user)
		return completion{text: text, usage: usage}, err
	})
	if err != nil {
		log.With("attempts", attempts).Warn("judge call failed", "error", err)
		return nil, j.fail(start, attempts, statusCode(err), err)
	}

	out, err := validator.Parse(comp.text)
	if err != nil {
		log.Warn("judge response rejected", "error", err)
		return nil, j.fail(start, attempts, 0, err)
	}

	scores, err := req.Rubric.Rollup(out.Scores)
	if err != nil {
		return nil, j.fail(start, attempts, 0, err)
	}

	latency := time.Since(start).Milliseconds()
	log.With("latency_ms", latency).With("total_tokens", comp.usage.Total).Info("judge succeeded")

	return &models.JudgeResult{
		Provider:  j.cfg.Name,
		Model:     j.cfg.Model,
		Succeeded: true,
		Scores:    scores,
		Evidence: models.Evidence{
			Supporting:    out.Supporting,
			Contradicting: out.Contradicting,
			Improvements:  out.Improvements,
		},
		LatencyMs: latency,
		Usage:     comp.usage,
		CostUSD:   j.cost(comp.usage),
	}, nil
}

// fail wraps any pipeline error as a ProviderError so callers see one
// uniform failure shape regardless of where the judge broke down.
func (j *judge) fail(start time.Time, attempts, status int, err error) *models.ProviderError {
	if attempts == 0 {
		attempts = 1
	}
	return &models.ProviderError{
		Provider:   j.cfg.Name,
		Attempts:   attempts,
		StatusCode: status,
		Retryable:  IsRetryable(err),
		Message:    err.Error(),
	}
}

func (j *judge) cost(u models.TokenUsage) float64 {
	return float64(u.Prompt)/1e6*j.cfg.CostPerMTokIn + float64(u.Completion)/1e6*j.cfg.CostPerMTokOut
}
