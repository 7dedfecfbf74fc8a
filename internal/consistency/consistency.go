// Package consistency measures how much independent judges agree with each
// other, per rubric dimension and overall.
package consistency

import (
	"fmt"
	"sort"

	"github.com/chatlens/chatlens/internal/rubric"
	"github.com/chatlens/chatlens/internal/statistics"
)

// Status distinguishes a genuine agreement measurement from degraded reports
// where too few judges responded to measure anything.
type Status string

const (
	StatusOK Status = "OK"
	// StatusSingleProvider marks the trivial report produced when only one
	// judge responded. Consistency is reported as 1.0 but is not a true
	// agreement measurement.
	StatusSingleProvider Status = "SINGLE_PROVIDER"
	// StatusInsufficientData marks a report produced from no samples at all.
	StatusInsufficientData Status = "INSUFFICIENT_DATA"
)

// Default agreement thresholds.
const (
	DefaultMinimumThreshold = 0.6
	DefaultTargetThreshold  = 0.75
)

// totalScoreWeight gives the total_score dimension roughly twice the pull of
// any single subcriterion in the overall agreement figure.
const totalScoreWeight = 2.0

// DimensionAgreement is the per-dimension spread measurement.
type DimensionAgreement struct {
	Dimension  string  `json:"dimension"`
	SampleSize int     `json:"sample_size"`
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"std_dev"`
	// Score is the bounded agreement score max(0, 1 - stddev/(range/2)).
	Score float64 `json:"score"`
}

// Report summarizes inter-judge agreement for one evaluation.
type Report struct {
	Status          Status               `json:"status"`
	Dimensions      []DimensionAgreement `json:"dimensions,omitempty"`
	Overall         float64              `json:"overall"`
	IsConsistent    bool                 `json:"is_consistent"`
	Recommendations []string             `json:"recommendations,omitempty"`
}

// Validator converts per-dimension score spread into bounded agreement
// figures.
type Validator struct {
	// MinimumThreshold is the overall agreement below which the report is
	// declared inconsistent. Defaults to [DefaultMinimumThreshold].
	MinimumThreshold float64
	// TargetThreshold is the aspirational agreement level; falling below it
	// produces a recommendation without failing the report. Defaults to
	// [DefaultTargetThreshold].
	TargetThreshold float64
}

// NewValidator returns a Validator, substituting defaults for non-positive
// thresholds.
func NewValidator(minimum, target float64) Validator {
	if minimum <= 0 {
		minimum = DefaultMinimumThreshold
	}
	if target <= 0 {
		target = DefaultTargetThreshold
	}
	return Validator{MinimumThreshold: minimum, TargetThreshold: target}
}

// Validate measures agreement across the given per-dimension samples. Each
// sample holds one judge's score per entry, in dispatch order. Dimensions
// with fewer than 2 values carry no agreement information and are skipped;
// if no dimension has 2 or more values the report is degraded rather than
// fabricated.
func (v Validator) Validate(samples map[string][]float64) Report {
	dims := make([]string, 0, len(samples))
	maxSample := 0
	for dim, values := range samples {
		dims = append(dims, dim)
		if len(values) > maxSample {
			maxSample = len(values)
		}
	}
	sort.Strings(dims)

	if maxSample == 0 {
		return Report{
			Status:          StatusInsufficientData,
			Overall:         0.0,
			IsConsistent:    false,
			Recommendations: []string{"No judge scores were available; agreement could not be measured."},
		}
	}

	if maxSample < 2 {
		return Report{
			Status:       StatusSingleProvider,
			Overall:      1.0,
			IsConsistent: true,
			Recommendations: []string{
				"Only one judge responded; the reported consistency is not a true agreement measurement. Enable more providers for genuine multi-judge validation.",
			},
		}
	}

	// Agreement score divisor: half the rubric's score range.
	halfRange := rubric.ScoreRange / 2.0

	report := Report{Status: StatusOK}
	weightedSum := 0.0
	weightTotal := 0.0
	var noisyDims []string

	for _, dim := range dims {
		values := samples[dim]
		if len(values) < 2 {
			continue
		}

		stddev := statistics.StdDev(values)
		score := 1.0 - stddev/halfRange
		if score < 0 {
			score = 0
		}

		report.Dimensions = append(report.Dimensions, DimensionAgreement{
			Dimension:  dim,
			SampleSize: len(values),
			Mean:       statistics.Mean(values),
			StdDev:     stddev,
			Score:      score,
		})

		weight := 1.0
		if dim == rubric.TotalScoreKey {
			weight = totalScoreWeight
		}
		weightedSum += score * weight
		weightTotal += weight

		if stddev > 1.0 {
			noisyDims = append(noisyDims, dim)
		}
	}

	if weightTotal == 0 {
		return Report{
			Status:          StatusSingleProvider,
			Overall:         1.0,
			IsConsistent:    true,
			Recommendations: []string{"Only one judge responded; the reported consistency is not a true agreement measurement."},
		}
	}

	report.Overall = weightedSum / weightTotal
	report.IsConsistent = report.Overall >= v.MinimumThreshold

	if report.Overall < v.MinimumThreshold {
		report.Recommendations = append(report.Recommendations, fmt.Sprintf(
			"Overall agreement %.2f is below the minimum threshold %.2f; treat the consolidated score with caution.",
			report.Overall, v.MinimumThreshold))
	} else if report.Overall < v.TargetThreshold {
		report.Recommendations = append(report.Recommendations, fmt.Sprintf(
			"Overall agreement %.2f is below the target %.2f; consider tightening rubric wording.",
			report.Overall, v.TargetThreshold))
	}
	if len(noisyDims) > 0 {
		report.Recommendations = append(report.Recommendations, fmt.Sprintf(
			"High score spread (stddev > 1.0) on: %v. Review judge prompts for these dimensions.", noisyDims))
	}

	return report
}
