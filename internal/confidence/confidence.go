// Package confidence turns agreement, outlier ratio, and sample size into a
// single calibrated confidence figure and a coarse reliability class.
package confidence

import (
	"fmt"
	"math"
)

// Reliability buckets confidence and consistency for human consumption.
type Reliability string

const (
	ReliabilityHigh   Reliability = "high"
	ReliabilityMedium Reliability = "medium"
	ReliabilityLow    Reliability = "low"
)

// DefaultOptimalSampleSize is the judge count beyond which additional
// providers add little extra confidence.
const DefaultOptimalSampleSize = 5

// maxSecondaryAdjustment caps the total influence of secondary signals on the
// final confidence figure.
const maxSecondaryAdjustment = 0.10

// Weights are the relative weights of the three mandatory confidence
// components. They must sum to 1.0.
type Weights struct {
	Consistency float64 `json:"consistency" yaml:"consistency"`
	Outlier     float64 `json:"outlier" yaml:"outlier"`
	SampleSize  float64 `json:"sample_size" yaml:"sample_size"`
}

// DefaultWeights returns the standard component weighting.
func DefaultWeights() Weights {
	return Weights{Consistency: 0.5, Outlier: 0.3, SampleSize: 0.2}
}

// Validate checks that the weights are non-negative and sum to 1.0.
func (w Weights) Validate() error {
	if w.Consistency < 0 || w.Outlier < 0 || w.SampleSize < 0 {
		return fmt.Errorf("confidence: negative component weight")
	}
	sum := w.Consistency + w.Outlier + w.SampleSize
	if math.Abs(sum-1.0) > 0.01 {
		return fmt.Errorf("confidence: component weights sum to %.4f, expected 1.0", sum)
	}
	return nil
}

// Signals are optional secondary quality indicators. They adjust the
// confidence figure by at most [maxSecondaryAdjustment] in either direction
// and never replace the mandatory components.
type Signals struct {
	// AvgLatencyMs is the mean judge response time. Suspiciously instant and
	// excessively slow responses both reduce confidence.
	AvgLatencyMs int64 `json:"avg_latency_ms"`
	// AvgTotalTokens is the mean judge token usage. Too-short and too-long
	// outputs both reduce confidence.
	AvgTotalTokens int `json:"avg_total_tokens"`
	// ErrorRate is the fraction of dispatched judges that failed, in [0,1].
	ErrorRate float64 `json:"error_rate"`
}

// Breakdown itemizes the weighted contribution of each component.
type Breakdown struct {
	Consistency         float64 `json:"consistency"`
	Outlier             float64 `json:"outlier"`
	SampleSize          float64 `json:"sample_size"`
	SecondaryAdjustment float64 `json:"secondary_adjustment"`
}

// Report is the calibrated confidence verdict for one evaluation.
type Report struct {
	Score           float64     `json:"score"`
	Reliability     Reliability `json:"reliability"`
	Breakdown       Breakdown   `json:"breakdown"`
	Recommendations []string    `json:"recommendations,omitempty"`
}

// Calculator combines the mandatory components under configurable weights.
type Calculator struct {
	Weights           Weights
	OptimalSampleSize int
}

// NewCalculator returns a Calculator, substituting defaults for zero-value
// arguments.
func NewCalculator(weights Weights, optimalSampleSize int) Calculator {
	if weights == (Weights{}) {
		weights = DefaultWeights()
	}
	if optimalSampleSize <= 0 {
		optimalSampleSize = DefaultOptimalSampleSize
	}
	return Calculator{Weights: weights, OptimalSampleSize: optimalSampleSize}
}

// Calculate combines the inputs into a confidence score in [0,1] and a
// reliability class. signals may be nil when no secondary data is available.
//
// Holding consistency and sample size fixed, a higher outlier ratio never
// increases the result.
func (c Calculator) Calculate(consistency float64, outlierCount, totalResults int, signals *Signals) Report {
	var report Report

	consistency = clamp01(consistency)
	report.Breakdown.Consistency = consistency * c.Weights.Consistency

	outlierComponent := 1.0
	if totalResults > 0 {
		outlierComponent = math.Max(0, 1.0-float64(outlierCount)/float64(totalResults))
	}
	report.Breakdown.Outlier = outlierComponent * c.Weights.Outlier

	sampleComponent := 0.0
	if totalResults > 0 {
		ratio := math.Min(1.0, float64(totalResults)/float64(c.OptimalSampleSize))
		sampleComponent = math.Log(1.0+ratio) / math.Log(2.0)
	}
	report.Breakdown.SampleSize = sampleComponent * c.Weights.SampleSize

	score := report.Breakdown.Consistency + report.Breakdown.Outlier + report.Breakdown.SampleSize

	if signals != nil {
		report.Breakdown.SecondaryAdjustment = secondaryAdjustment(signals)
		score += report.Breakdown.SecondaryAdjustment
	}

	report.Score = clamp01(score)
	report.Reliability = classify(report.Score, consistency)
	report.Recommendations = recommend(consistency, outlierComponent, totalResults, c.OptimalSampleSize)

	return report
}

// secondaryAdjustment averages the secondary signal scores and maps them onto
// [-maxSecondaryAdjustment/2, +maxSecondaryAdjustment/2]: a neutral signal
// set (all ~0.5) leaves the score untouched.
func secondaryAdjustment(s *Signals) float64 {
	scores := []float64{
		latencySanity(s.AvgLatencyMs),
		tokenSanity(s.AvgTotalTokens),
		clamp01(1.0 - s.ErrorRate),
	}

	sum := 0.0
	for _, v := range scores {
		sum += v
	}
	avg := sum / float64(len(scores))

	return (avg - 0.5) * maxSecondaryAdjustment
}

// latencySanity scores the plausibility of a judge's response time. Full
// marks inside the 1s-30s band; instant and minute-plus responses score 0.
func latencySanity(ms int64) float64 {
	switch {
	case ms <= 0:
		return 0.5 // not measured; neutral
	case ms < 500:
		return 0.0
	case ms < 1000:
		return 0.5
	case ms <= 30_000:
		return 1.0
	case ms <= 60_000:
		return 0.5
	default:
		return 0.0
	}
}

// tokenSanity scores the plausibility of a judge's output volume.
func tokenSanity(tokens int) float64 {
	switch {
	case tokens <= 0:
		return 0.5 // not measured; neutral
	case tokens < 200:
		return 0.25
	case tokens <= 8000:
		return 1.0
	case tokens <= 16000:
		return 0.5
	default:
		return 0.0
	}
}

func classify(score, consistency float64) Reliability {
	switch {
	case score >= 0.8 && consistency >= 0.8:
		return ReliabilityHigh
	case score >= 0.6 && consistency >= 0.6:
		return ReliabilityMedium
	default:
		return ReliabilityLow
	}
}

func recommend(consistency, outlierComponent float64, totalResults, optimal int) []string {
	var recs []string
	if consistency < 0.6 {
		recs = append(recs, "Judges disagree substantially; tighten rubric wording or review judge prompts.")
	}
	if outlierComponent < 0.7 {
		recs = append(recs, "A large share of judge scores were statistical outliers; inspect the audit trail for a misbehaving provider.")
	}
	if totalResults < optimal {
		recs = append(recs, fmt.Sprintf("Only %d judge(s) contributed; enabling more providers (up to %d) would raise confidence.",
			totalResults, optimal))
	}
	return recs
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
