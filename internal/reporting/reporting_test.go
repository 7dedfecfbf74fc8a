package reporting

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatlens/chatlens/internal/confidence"
	"github.com/chatlens/chatlens/internal/consistency"
	"github.com/chatlens/chatlens/internal/models"
	"github.com/chatlens/chatlens/internal/statistics"
)

func sampleResult() *models.ConsolidatedResult {
	return &models.ConsolidatedResult{
		RequestID:    "req-1",
		TranscriptID: "conv-42",
		Scores:       map[string]float64{"total_score": 4.55, "communication": 4.6},
		Consistency: consistency.Report{
			Status:          consistency.StatusOK,
			Overall:         0.21,
			Recommendations: []string{"Judges disagree on communication."},
		},
		Confidence: confidence.Report{
			Score:       0.49,
			Reliability: confidence.ReliabilityLow,
		},
		Evidence: models.Evidence{Improvements: []string{"confirm the refund timeline"}},
		JudgeResults: []models.JudgeResult{
			{Provider: "openai-primary", Model: "gpt-4o-mini", Succeeded: true, Scores: map[string]float64{"total_score": 4.6}, LatencyMs: 1800},
			{Provider: "gemini-primary", Succeeded: false, Err: &models.ProviderError{Provider: "gemini-primary", Attempts: 3, Message: "quota exceeded"}},
		},
		FailedProviders:     []string{"gemini-primary"},
		DissentingProviders: []string{"openai-primary"},
		TotalScoreCI:        &statistics.ConfidenceInterval{Lower: 4.45, Upper: 4.65, Mean: 4.55, ConfidenceLevel: 0.95},
		TotalCostUSD:        0.0123,
		TotalTokens:         2400,
	}
}

func TestInterpretScore(t *testing.T) {
	assert.Equal(t, "Excellent", InterpretScore(4.7))
	assert.Equal(t, "Good", InterpretScore(3.8))
	assert.Equal(t, "Needs Work", InterpretScore(2.9))
	assert.Equal(t, "Poor", InterpretScore(1.5))
}

func TestFormatSummary(t *testing.T) {
	out := FormatSummary(sampleResult())

	assert.Contains(t, out, "conv-42")
	assert.Contains(t, out, "4.55")
	assert.Contains(t, out, "Excellent")
	assert.Contains(t, out, "[4.45, 4.65]")
	assert.Contains(t, out, "✓ openai-primary")
	assert.Contains(t, out, "✗ gemini-primary: quota exceeded")
	assert.Contains(t, out, "Dissenting judges (outlier in at least half of dimensions): openai-primary")
	assert.Contains(t, out, "Judges disagree on communication.")
	assert.Contains(t, out, "confirm the refund timeline")
}

func TestFormatBatchSummary(t *testing.T) {
	out := FormatBatchSummary([]*models.ConsolidatedResult{sampleResult(), sampleResult()})

	assert.Contains(t, out, "2 transcripts")
	assert.Contains(t, out, "conv-42")
	assert.Contains(t, out, "$0.0246")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, []*models.ConsolidatedResult{sampleResult()}))

	var decoded []models.ConsolidatedResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "conv-42", decoded[0].TranscriptID)
}
