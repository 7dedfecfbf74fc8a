package consolidation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"

	"github.com/chatlens/chatlens/internal/confidence"
	"github.com/chatlens/chatlens/internal/config"
	"github.com/chatlens/chatlens/internal/consistency"
	"github.com/chatlens/chatlens/internal/models"
	"github.com/chatlens/chatlens/internal/providers"
	"github.com/chatlens/chatlens/internal/rubric"
	"github.com/chatlens/chatlens/internal/statistics"
)

// ciConfidenceLevel is the confidence level of the bootstrap interval
// reported over the judges' total scores.
const ciConfidenceLevel = 0.95

// PanelSelector yields the judge panel for one request. Satisfied by
// *providers.Registry.
type PanelSelector interface {
	SelectForEvaluation(requested []string) ([]providers.Provider, error)
}

// Orchestrator drives one evaluation end to end: panel selection, concurrent
// dispatch, outlier-aware score merging, and the agreement and confidence
// verdicts.
type Orchestrator struct {
	cfg      *config.Config
	registry PanelSelector
}

// New returns an Orchestrator over the given configuration and registry.
func New(cfg *config.Config, registry PanelSelector) *Orchestrator {
	return &Orchestrator{cfg: cfg, registry: registry}
}

// Evaluate scores one transcript. It fails only when the request itself is
// invalid, no panel can be formed, or every judge failed; any partial panel
// consolidates normally with the failures recorded in the audit trail.
func (o *Orchestrator) Evaluate(ctx context.Context, req *models.EvaluationRequest) (*models.ConsolidatedResult, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	panel, err := o.registry.SelectForEvaluation(req.Providers)
	if err != nil {
		return nil, err
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = o.cfg.RequestTimeout()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log := clog.FromContext(ctx).With("request_id", req.ID).With("transcript_id", req.Transcript.ID)
	log.With("panel_size", len(panel)).Info("dispatching judge panel")

	results := Dispatch(ctx, panel, req)
	successes := models.Successes(results)
	if len(successes) == 0 {
		return nil, allFailedError(results)
	}

	samples := collectSamples(req.Rubric, successes)

	detector := statistics.NewDetector(o.cfg.Thresholds.OutlierMultiplier, o.cfg.Thresholds.MinSampleSize)
	outlierReports := detector.DetectAcross(samples)
	scores := consolidateScores(samples, outlierReports)

	agreement := consistency.NewValidator(
		o.cfg.Thresholds.ConsistencyMinimum,
		o.cfg.Thresholds.ConsistencyTarget,
	).Validate(samples)

	calc := confidence.NewCalculator(o.cfg.Thresholds.ConfidenceWeights, o.cfg.Thresholds.OptimalProviders)
	conf := calc.Calculate(
		agreement.Overall,
		len(outlierReports[rubric.TotalScoreKey].Outliers),
		len(successes),
		buildSignals(results),
	)

	result := &models.ConsolidatedResult{
		RequestID:           req.ID,
		TranscriptID:        req.Transcript.ID,
		RubricVersion:       req.Rubric.Version,
		Timestamp:           start.UTC(),
		DurationMs:          time.Since(start).Milliseconds(),
		Scores:              scores,
		Consistency:         agreement,
		Confidence:          conf,
		Evidence:            mergeEvidence(successes),
		JudgeResults:        results,
		FailedProviders:     failedNames(results),
		DissentingProviders: dissentingProviders(outlierReports, successes),
	}

	if totals := samples[rubric.TotalScoreKey]; len(totals) >= 2 {
		ci := statistics.BootstrapCI(totals, ciConfidenceLevel)
		result.TotalScoreCI = &ci
	}

	for _, r := range results {
		result.TotalCostUSD += r.CostUSD
		result.TotalTokens += r.Usage.Total
	}

	log.With("total_score", fmt.Sprintf("%.2f", scores[rubric.TotalScoreKey])).
		With("consistency", fmt.Sprintf("%.2f", agreement.Overall)).
		With("confidence", fmt.Sprintf("%.2f", conf.Score)).
		With("failed_providers", len(result.FailedProviders)).
		Info("evaluation consolidated")

	return result, nil
}

// collectSamples aligns the successful judges' scores per dimension: entry i
// of every sample belongs to the same judge.
func collectSamples(r *rubric.Rubric, successes []models.JudgeResult) map[string][]float64 {
	samples := make(map[string][]float64)
	for _, dim := range r.DimensionKeys() {
		for _, s := range successes {
			if v, ok := s.Scores[dim]; ok {
				samples[dim] = append(samples[dim], v)
			}
		}
	}
	return samples
}

// consolidateScores merges each dimension's samples into one score: the mean
// of the IQR inliers, or the median of the full sample when the fence
// rejected everything.
func consolidateScores(samples map[string][]float64, reports map[string]statistics.OutlierReport) map[string]float64 {
	scores := make(map[string]float64, len(samples))
	for dim, values := range samples {
		if len(values) == 0 {
			continue
		}
		report := reports[dim]
		if len(report.Inliers) == 0 {
			scores[dim] = statistics.Median(values)
			continue
		}
		scores[dim] = statistics.Mean(report.Inliers)
	}
	return scores
}

// buildSignals derives the secondary confidence signals from the full
// dispatch outcome, successes and failures both.
func buildSignals(results []models.JudgeResult) *confidence.Signals {
	var latencySum, tokenSum int64
	successes := 0
	for _, r := range results {
		if !r.Succeeded {
			continue
		}
		successes++
		latencySum += r.LatencyMs
		tokenSum += int64(r.Usage.Total)
	}
	if successes == 0 {
		return nil
	}
	return &confidence.Signals{
		AvgLatencyMs:   latencySum / int64(successes),
		AvgTotalTokens: int(tokenSum / int64(successes)),
		ErrorRate:      float64(len(results)-successes) / float64(len(results)),
	}
}

// mergeEvidence unions the judges' evidence lists, deduplicated, in dispatch
// order.
func mergeEvidence(successes []models.JudgeResult) models.Evidence {
	var merged models.Evidence
	merged.Supporting = dedupe(successes, func(e models.Evidence) []string { return e.Supporting })
	merged.Contradicting = dedupe(successes, func(e models.Evidence) []string { return e.Contradicting })
	merged.Improvements = dedupe(successes, func(e models.Evidence) []string { return e.Improvements })
	return merged
}

func dedupe(successes []models.JudgeResult, pick func(models.Evidence) []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range successes {
		for _, item := range pick(s.Evidence) {
			trimmed := strings.TrimSpace(item)
			if trimmed == "" || seen[trimmed] {
				continue
			}
			seen[trimmed] = true
			out = append(out, trimmed)
		}
	}
	return out
}

// dissentingProviders names the judges flagged as an outlier in at least
// half of the dimensions. The outlier reports are aligned with the successes
// slice: index i in every report is judge i.
func dissentingProviders(reports map[string]statistics.OutlierReport, successes []models.JudgeResult) []string {
	var out []string
	for _, idx := range statistics.ConsistentOutliers(reports) {
		if idx < len(successes) {
			out = append(out, successes[idx].Provider)
		}
	}
	return out
}

func failedNames(results []models.JudgeResult) []string {
	var out []string
	for _, r := range results {
		if !r.Succeeded {
			out = append(out, r.Provider)
		}
	}
	return out
}

func allFailedError(results []models.JudgeResult) error {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		reason := "unknown failure"
		if r.Err != nil {
			reason = r.Err.Message
		}
		parts = append(parts, fmt.Sprintf("%s: %s", r.Provider, reason))
	}
	return fmt.Errorf("consolidation: all %d judge(s) failed: %s", len(results), strings.Join(parts, "; "))
}
