package consolidation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatlens/chatlens/internal/confidence"
	"github.com/chatlens/chatlens/internal/config"
	"github.com/chatlens/chatlens/internal/consistency"
	"github.com/chatlens/chatlens/internal/models"
	"github.com/chatlens/chatlens/internal/providers"
	"github.com/chatlens/chatlens/internal/rubric"
	"github.com/chatlens/chatlens/internal/statistics"
	"github.com/chatlens/chatlens/internal/transcript"
)

// fakeJudge returns a canned result or error.
type fakeJudge struct {
	name   string
	result *models.JudgeResult
	err    error
}

func (f *fakeJudge) Name() string         { return f.name }
func (f *fakeJudge) Kind() providers.Kind { return providers.KindOpenAI }

func (f *fakeJudge) Evaluate(ctx context.Context, req *models.EvaluationRequest) (*models.JudgeResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// fixedPanel satisfies PanelSelector with a static panel.
type fixedPanel struct {
	panel []providers.Provider
	err   error
}

func (p *fixedPanel) SelectForEvaluation(requested []string) ([]providers.Provider, error) {
	return p.panel, p.err
}

func uniformScores(r *rubric.Rubric, v float64) map[string]float64 {
	scores := make(map[string]float64)
	for _, key := range r.DimensionKeys() {
		scores[key] = v
	}
	return scores
}

func succeedingJudge(name string, r *rubric.Rubric, score float64) *fakeJudge {
	return &fakeJudge{
		name: name,
		result: &models.JudgeResult{
			Provider:  name,
			Model:     "fake-model",
			Succeeded: true,
			Scores:    uniformScores(r, score),
			Evidence:  models.Evidence{Supporting: []string{"polite greeting"}},
			LatencyMs: 2000,
			Usage:     models.TokenUsage{Prompt: 800, Completion: 400, Total: 1200},
			CostUSD:   0.01,
		},
	}
}

func failingJudge(name, reason string) *fakeJudge {
	return &fakeJudge{
		name: name,
		err:  &models.ProviderError{Provider: name, Attempts: 3, StatusCode: 503, Retryable: true, Message: reason},
	}
}

func testRequest() *models.EvaluationRequest {
	return models.NewEvaluationRequest(transcript.Transcript{
		ID: "conv-1",
		Messages: []transcript.Message{
			{Role: transcript.RoleCustomer, Content: "I was double charged."},
			{Role: transcript.RoleAgent, Content: "I see the duplicate and will refund it now."},
		},
	}, rubric.Default())
}

func newOrchestrator(panel ...providers.Provider) *Orchestrator {
	return New(config.Default(), &fixedPanel{panel: panel})
}

func TestEvaluateDiscountsDissentingJudge(t *testing.T) {
	req := testRequest()
	r := req.Rubric
	o := newOrchestrator(
		succeedingJudge("judge-a", r, 4.6),
		succeedingJudge("judge-b", r, 4.5),
		succeedingJudge("judge-c", r, 1.2),
	)

	result, err := o.Evaluate(context.Background(), req)
	require.NoError(t, err)

	// The 1.2 vote falls outside the IQR fence; the consolidated total is
	// the mean of the remaining two votes.
	assert.InDelta(t, 4.55, result.Scores[rubric.TotalScoreKey], 1e-9)
	assert.InDelta(t, 4.55, result.Scores["communication"], 1e-9)

	assert.Equal(t, consistency.StatusOK, result.Consistency.Status)
	assert.InDelta(t, 0.21, result.Consistency.Overall, 0.01)
	assert.False(t, result.Consistency.IsConsistent)

	assert.Equal(t, confidence.ReliabilityLow, result.Confidence.Reliability)
	assert.NotEmpty(t, result.Confidence.Recommendations)

	require.Len(t, result.JudgeResults, 3)
	assert.Empty(t, result.FailedProviders)
	assert.Equal(t, []string{"judge-c"}, result.DissentingProviders)
	require.NotNil(t, result.TotalScoreCI)
	assert.LessOrEqual(t, result.TotalScoreCI.Lower, result.TotalScoreCI.Upper)

	assert.InDelta(t, 0.03, result.TotalCostUSD, 1e-9)
	assert.Equal(t, 3600, result.TotalTokens)
}

func TestEvaluateAgreeingPanelIsConsistent(t *testing.T) {
	req := testRequest()
	r := req.Rubric
	o := newOrchestrator(
		succeedingJudge("judge-a", r, 4.0),
		succeedingJudge("judge-b", r, 4.2),
		succeedingJudge("judge-c", r, 4.1),
	)

	result, err := o.Evaluate(context.Background(), req)
	require.NoError(t, err)

	assert.InDelta(t, 4.1, result.Scores[rubric.TotalScoreKey], 1e-9)
	assert.True(t, result.Consistency.IsConsistent)
	assert.Greater(t, result.Confidence.Score, 0.7)
	assert.Empty(t, result.DissentingProviders)
}

func TestEvaluateToleratesPartialFailure(t *testing.T) {
	req := testRequest()
	r := req.Rubric
	o := newOrchestrator(
		succeedingJudge("judge-a", r, 4.0),
		failingJudge("judge-b", "overloaded"),
		succeedingJudge("judge-c", r, 4.4),
	)

	result, err := o.Evaluate(context.Background(), req)
	require.NoError(t, err)

	assert.InDelta(t, 4.2, result.Scores[rubric.TotalScoreKey], 1e-9)
	assert.Equal(t, []string{"judge-b"}, result.FailedProviders)
	require.Len(t, result.JudgeResults, 3)
	assert.False(t, result.JudgeResults[1].Succeeded)
	require.NotNil(t, result.JudgeResults[1].Err)
	assert.Equal(t, "overloaded", result.JudgeResults[1].Err.Message)
}

func TestEvaluateSingleJudgeDegradesGracefully(t *testing.T) {
	req := testRequest()
	o := newOrchestrator(succeedingJudge("judge-a", req.Rubric, 3.8))

	result, err := o.Evaluate(context.Background(), req)
	require.NoError(t, err)

	assert.InDelta(t, 3.8, result.Scores[rubric.TotalScoreKey], 1e-9)
	assert.Equal(t, consistency.StatusSingleProvider, result.Consistency.Status)
	assert.Nil(t, result.TotalScoreCI)
}

func TestEvaluateFailsWhenEveryJudgeFails(t *testing.T) {
	req := testRequest()
	o := newOrchestrator(
		failingJudge("judge-a", "invalid key"),
		failingJudge("judge-b", "overloaded"),
	)

	_, err := o.Evaluate(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 judge(s) failed")
	assert.Contains(t, err.Error(), "judge-a: invalid key")
	assert.Contains(t, err.Error(), "judge-b: overloaded")
}

func TestEvaluateRejectsInvalidRequest(t *testing.T) {
	req := testRequest()
	req.Transcript.Messages = nil
	o := newOrchestrator(succeedingJudge("judge-a", req.Rubric, 4.0))

	_, err := o.Evaluate(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no messages")
}

func TestEvaluatePropagatesSelectionError(t *testing.T) {
	o := New(config.Default(), &fixedPanel{err: errors.New("no judges available")})

	_, err := o.Evaluate(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no judges available")
}

func TestConsolidateScoresMedianFallback(t *testing.T) {
	samples := map[string][]float64{"total_score": {1.0, 3.0, 5.0}}
	reports := map[string]statistics.OutlierReport{
		"total_score": {Outliers: []statistics.Outlier{{Value: 1.0, Index: 0}, {Value: 3.0, Index: 1}, {Value: 5.0, Index: 2}}},
	}

	scores := consolidateScores(samples, reports)
	assert.InDelta(t, 3.0, scores["total_score"], 1e-9)
}

func TestMergeEvidenceDeduplicates(t *testing.T) {
	successes := []models.JudgeResult{
		{Succeeded: true, Evidence: models.Evidence{
			Supporting:   []string{"confirmed refund", "polite tone"},
			Improvements: []string{"offer a goodwill credit"},
		}},
		{Succeeded: true, Evidence: models.Evidence{
			Supporting:    []string{"polite tone", "  confirmed refund  "},
			Contradicting: []string{"missed the billing question"},
		}},
	}

	merged := mergeEvidence(successes)
	assert.Equal(t, []string{"confirmed refund", "polite tone"}, merged.Supporting)
	assert.Equal(t, []string{"missed the billing question"}, merged.Contradicting)
	assert.Equal(t, []string{"offer a goodwill credit"}, merged.Improvements)
}

func TestBuildSignals(t *testing.T) {
	results := []models.JudgeResult{
		{Succeeded: true, LatencyMs: 1000, Usage: models.TokenUsage{Total: 500}},
		{Succeeded: true, LatencyMs: 3000, Usage: models.TokenUsage{Total: 1500}},
		{Succeeded: false},
	}

	signals := buildSignals(results)
	require.NotNil(t, signals)
	assert.Equal(t, int64(2000), signals.AvgLatencyMs)
	assert.Equal(t, 1000, signals.AvgTotalTokens)
	assert.InDelta(t, 1.0/3.0, signals.ErrorRate, 1e-9)

	assert.Nil(t, buildSignals([]models.JudgeResult{{Succeeded: false}}))
}
