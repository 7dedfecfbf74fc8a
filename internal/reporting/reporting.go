// Package reporting renders consolidated evaluation results for humans and
// for machine consumers.
package reporting

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chatlens/chatlens/internal/confidence"
	"github.com/chatlens/chatlens/internal/models"
	"github.com/chatlens/chatlens/internal/rubric"
)

// InterpretScore returns a plain-language label for a rubric score (1-5).
func InterpretScore(score float64) string {
	switch {
	case score >= 4.5:
		return "Excellent"
	case score >= 3.5:
		return "Good"
	case score >= 2.5:
		return "Needs Work"
	default:
		return "Poor"
	}
}

// InterpretConfidence explains a confidence report in one sentence.
func InterpretConfidence(r confidence.Report) string {
	switch r.Reliability {
	case confidence.ReliabilityHigh:
		return fmt.Sprintf("High confidence (%.2f): the judges agree and the panel was large enough to trust.", r.Score)
	case confidence.ReliabilityMedium:
		return fmt.Sprintf("Medium confidence (%.2f): the result is usable but would benefit from more judges or better agreement.", r.Score)
	default:
		return fmt.Sprintf("Low confidence (%.2f): treat this score as indicative only.", r.Score)
	}
}

// FormatSummary produces a plain-language report for one consolidated result.
func FormatSummary(result *models.ConsolidatedResult) string {
	var b strings.Builder

	total := result.Scores[rubric.TotalScoreKey]
	duration := time.Duration(result.DurationMs) * time.Millisecond

	b.WriteString(fmt.Sprintf("=== Evaluation %s ===\n\n", result.TranscriptID))
	b.WriteString(fmt.Sprintf("Total Score:  %.2f / %.1f — %s\n", total, rubric.MaxScore, InterpretScore(total)))
	if result.TotalScoreCI != nil {
		b.WriteString(fmt.Sprintf("95%% CI:       [%.2f, %.2f]\n", result.TotalScoreCI.Lower, result.TotalScoreCI.Upper))
	}
	b.WriteString(fmt.Sprintf("Consistency:  %.2f (%s)\n", result.Consistency.Overall, result.Consistency.Status))
	b.WriteString(fmt.Sprintf("Confidence:   %s\n", InterpretConfidence(result.Confidence)))
	b.WriteString(fmt.Sprintf("Duration:     %v\n", duration))
	b.WriteString(fmt.Sprintf("Cost:         $%.4f (%d tokens)\n", result.TotalCostUSD, result.TotalTokens))

	b.WriteString("\nJudges:\n")
	for _, jr := range result.JudgeResults {
		if jr.Succeeded {
			b.WriteString(fmt.Sprintf("  ✓ %s (%s): %.2f in %dms\n",
				jr.Provider, jr.Model, jr.Scores[rubric.TotalScoreKey], jr.LatencyMs))
			continue
		}
		reason := "unknown failure"
		if jr.Err != nil {
			reason = jr.Err.Message
		}
		b.WriteString(fmt.Sprintf("  ✗ %s: %s\n", jr.Provider, reason))
	}

	if len(result.DissentingProviders) > 0 {
		b.WriteString(fmt.Sprintf("\nDissenting judges (outlier in at least half of dimensions): %s\n",
			strings.Join(result.DissentingProviders, ", ")))
	}

	if len(result.Consistency.Recommendations) > 0 || len(result.Confidence.Recommendations) > 0 {
		b.WriteString("\nRecommendations:\n")
		for _, rec := range result.Consistency.Recommendations {
			b.WriteString(fmt.Sprintf("  - %s\n", rec))
		}
		for _, rec := range result.Confidence.Recommendations {
			b.WriteString(fmt.Sprintf("  - %s\n", rec))
		}
	}

	if len(result.Evidence.Improvements) > 0 {
		b.WriteString("\nSuggested Improvements:\n")
		for _, item := range result.Evidence.Improvements {
			b.WriteString(fmt.Sprintf("  - %s\n", item))
		}
	}

	return b.String()
}

// FormatBatchSummary produces a one-line-per-transcript overview plus totals.
func FormatBatchSummary(results []*models.ConsolidatedResult) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("=== Batch Summary (%d transcripts) ===\n\n", len(results)))

	var totalCost float64
	var totalTokens int
	for _, r := range results {
		total := r.Scores[rubric.TotalScoreKey]
		b.WriteString(fmt.Sprintf("  %-24s %.2f  %-10s confidence %.2f\n",
			r.TranscriptID, total, InterpretScore(total), r.Confidence.Score))
		totalCost += r.TotalCostUSD
		totalTokens += r.TotalTokens
	}

	b.WriteString(fmt.Sprintf("\nTotal cost: $%.4f (%d tokens)\n", totalCost, totalTokens))
	return b.String()
}

// WriteJSON writes results as indented JSON, one document.
func WriteJSON(w io.Writer, results []*models.ConsolidatedResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("reporting: encode results: %w", err)
	}
	return nil
}
