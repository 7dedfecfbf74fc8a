// Package models holds the shared data types that flow through an
// evaluation: the request, each judge's raw outcome, and the consolidated
// result handed back across the engine boundary.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chatlens/chatlens/internal/confidence"
	"github.com/chatlens/chatlens/internal/consistency"
	"github.com/chatlens/chatlens/internal/rubric"
	"github.com/chatlens/chatlens/internal/statistics"
	"github.com/chatlens/chatlens/internal/transcript"
)

// EvaluationRequest carries one transcript and the rubric to score it
// against. Created once per evaluation and never mutated afterwards.
type EvaluationRequest struct {
	ID         string                `json:"id"`
	Transcript transcript.Transcript `json:"transcript"`
	Rubric     *rubric.Rubric        `json:"rubric"`

	// Timeout bounds the whole orchestration. Zero means the configured
	// default applies.
	Timeout time.Duration `json:"-"`

	// Providers optionally restricts the evaluation to the named judges.
	// Empty means the registry's selection policy decides.
	Providers []string `json:"providers,omitempty"`
}

// NewEvaluationRequest builds a request with a fresh ID.
func NewEvaluationRequest(tr transcript.Transcript, r *rubric.Rubric) *EvaluationRequest {
	return &EvaluationRequest{
		ID:         uuid.NewString(),
		Transcript: tr,
		Rubric:     r,
	}
}

// Validate rejects requests before any dispatch happens: the transcript must
// be non-empty and the rubric's weight invariants must hold.
func (r *EvaluationRequest) Validate() error {
	if r.Rubric == nil {
		return fmt.Errorf("request: no rubric")
	}
	if err := r.Rubric.Validate(); err != nil {
		return fmt.Errorf("request: %w", err)
	}
	if err := r.Transcript.Validate(); err != nil {
		return fmt.Errorf("request: %w", err)
	}
	return nil
}

// TokenUsage is one judge call's token accounting.
type TokenUsage struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
	Total      int `json:"total"`
}

// Evidence is the free-text justification a judge attaches to its scores.
type Evidence struct {
	Supporting    []string `json:"supporting,omitempty"`
	Contradicting []string `json:"contradicting,omitempty"`
	Improvements  []string `json:"improvements,omitempty"`
}

// ProviderError describes why one judge failed, with enough detail to decide
// whether the failure was configuration, the vendor, or the response shape.
type ProviderError struct {
	Provider   string `json:"provider"`
	Attempts   int    `json:"attempts"`
	StatusCode int    `json:"status_code,omitempty"`
	Retryable  bool   `json:"retryable"`
	Message    string `json:"message"`
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s failed after %d attempt(s): %s", e.Provider, e.Attempts, e.Message)
}

// JudgeResult is one provider's raw outcome for a single evaluation request.
// Failures are represented uniformly: Succeeded is false and Err is set.
type JudgeResult struct {
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	Succeeded bool   `json:"succeeded"`

	// Scores maps dimension key to score, including total_score. Empty when
	// the call failed.
	Scores   map[string]float64 `json:"scores,omitempty"`
	Evidence Evidence           `json:"evidence,omitempty"`

	LatencyMs int64          `json:"latency_ms"`
	Usage     TokenUsage     `json:"usage"`
	CostUSD   float64        `json:"cost_usd"`
	Err       *ProviderError `json:"error,omitempty"`
}

// ConsolidatedResult is the final answer for one evaluation request: merged
// rubric scores plus the agreement and confidence verdicts, with the full
// per-provider audit trail. The only artifact handed back across the
// engine's boundary.
type ConsolidatedResult struct {
	RequestID     string    `json:"request_id"`
	TranscriptID  string    `json:"transcript_id"`
	RubricVersion string    `json:"rubric_version"`
	Timestamp     time.Time `json:"timestamp"`
	DurationMs    int64     `json:"duration_ms"`

	// Scores maps dimension key to the consolidated (outlier-discounted)
	// score, including total_score.
	Scores map[string]float64 `json:"scores"`

	Consistency consistency.Report `json:"consistency"`
	Confidence  confidence.Report  `json:"confidence"`
	Evidence    Evidence           `json:"evidence"`

	// JudgeResults lists every dispatched provider's outcome, success or
	// failure, in dispatch order.
	JudgeResults    []JudgeResult `json:"judge_results"`
	FailedProviders []string      `json:"failed_providers,omitempty"`

	// DissentingProviders names judges whose scores were flagged as
	// outliers in at least half of the rubric dimensions. Diagnostics
	// only: their inlier dimensions still count toward the merge.
	DissentingProviders []string `json:"dissenting_providers,omitempty"`

	// TotalScoreCI is a bootstrap confidence interval over the successful
	// judges' total scores, populated with 2 or more successes.
	TotalScoreCI *statistics.ConfidenceInterval `json:"total_score_ci,omitempty"`

	TotalCostUSD float64 `json:"total_cost_usd"`
	TotalTokens  int     `json:"total_tokens"`
}

// Successes returns only the successful judge results, in dispatch order.
func Successes(results []JudgeResult) []JudgeResult {
	var out []JudgeResult
	for _, r := range results {
		if r.Succeeded {
			out = append(out, r)
		}
	}
	return out
}
