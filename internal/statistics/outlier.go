package statistics

import "sort"

// Default tuning for the IQR outlier fence.
const (
	DefaultIQRMultiplier = 1.5
	DefaultMinSampleSize = 3
)

// Outlier is a single flagged value together with its position in the
// original (unsorted) sample.
type Outlier struct {
	Value float64 `json:"value"`
	Index int     `json:"index"`
}

// OutlierReport holds the result of one IQR outlier detection pass.
type OutlierReport struct {
	Q1         float64   `json:"q1"`
	Q3         float64   `json:"q3"`
	IQR        float64   `json:"iqr"`
	LowerBound float64   `json:"lower_bound"`
	UpperBound float64   `json:"upper_bound"`
	Outliers   []Outlier `json:"outliers,omitempty"`
	Inliers    []float64 `json:"inliers"`
}

// Detector flags statistically extreme values using the interquartile-range
// fence [Q1 - k*IQR, Q3 + k*IQR]. Detection is deterministic: the same sample
// always produces the same bounds and classification.
type Detector struct {
	// Multiplier is the fence width k. Defaults to [DefaultIQRMultiplier].
	Multiplier float64
	// MinSampleSize is the smallest sample worth analyzing. Below it Detect
	// returns an empty report with every value an inlier. Defaults to
	// [DefaultMinSampleSize].
	MinSampleSize int
}

// NewDetector returns a Detector, substituting defaults for non-positive
// arguments.
func NewDetector(multiplier float64, minSampleSize int) Detector {
	if multiplier <= 0 {
		multiplier = DefaultIQRMultiplier
	}
	if minSampleSize <= 0 {
		minSampleSize = DefaultMinSampleSize
	}
	return Detector{Multiplier: multiplier, MinSampleSize: minSampleSize}
}

// Detect classifies each value in the sample as an inlier or outlier.
// Samples smaller than MinSampleSize have no statistical basis for fences,
// so every value is reported as an inlier.
func (d Detector) Detect(values []float64) OutlierReport {
	if len(values) < d.MinSampleSize {
		inliers := make([]float64, len(values))
		copy(inliers, values)
		return OutlierReport{Inliers: inliers}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	q1 := Quantile(sorted, 0.25)
	q3 := Quantile(sorted, 0.75)
	iqr := q3 - q1

	report := OutlierReport{
		Q1:         q1,
		Q3:         q3,
		IQR:        iqr,
		LowerBound: q1 - d.Multiplier*iqr,
		UpperBound: q3 + d.Multiplier*iqr,
	}

	for i, v := range values {
		if v < report.LowerBound || v > report.UpperBound {
			report.Outliers = append(report.Outliers, Outlier{Value: v, Index: i})
		} else {
			report.Inliers = append(report.Inliers, v)
		}
	}

	return report
}

// DetectAcross runs Detect independently on each named sample.
func (d Detector) DetectAcross(samples map[string][]float64) map[string]OutlierReport {
	reports := make(map[string]OutlierReport, len(samples))
	for name, values := range samples {
		reports[name] = d.Detect(values)
	}
	return reports
}

// ConsistentOutliers returns the positions that were flagged as an outlier in
// at least half of the given samples. Every sample must be aligned: index i
// refers to the same source in each. Used for diagnostics only, never for
// score exclusion.
func ConsistentOutliers(reports map[string]OutlierReport) []int {
	if len(reports) == 0 {
		return nil
	}

	counts := make(map[int]int)
	for _, report := range reports {
		for _, o := range report.Outliers {
			counts[o.Index]++
		}
	}

	threshold := (len(reports) + 1) / 2
	var flagged []int
	for idx, c := range counts {
		if c >= threshold {
			flagged = append(flagged, idx)
		}
	}
	sort.Ints(flagged)
	return flagged
}
