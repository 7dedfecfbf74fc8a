package rubric

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRubricIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestDefaultRubricWeightInvariants(t *testing.T) {
	r := Default()

	categorySum := 0.0
	for _, cat := range r.Categories {
		categorySum += cat.Weight

		subSum := 0.0
		for _, sub := range cat.Subcriteria {
			subSum += sub.Weight
		}
		assert.InDelta(t, cat.Weight, subSum, WeightTolerance,
			"subcriterion weights for %q must sum to the category weight", cat.Key)
	}

	assert.InDelta(t, 1.0, categorySum, WeightTolerance)
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Rubric)
	}{
		{"no categories", func(r *Rubric) { r.Categories = nil }},
		{"category weights off", func(r *Rubric) { r.Categories[0].Weight = 0.6 }},
		{"subcriterion weights off", func(r *Rubric) { r.Categories[0].Subcriteria[0].Weight = 0.3 }},
		{"empty category key", func(r *Rubric) { r.Categories[0].Key = "" }},
		{"duplicate key", func(r *Rubric) { r.Categories[1].Key = r.Categories[0].Key }},
		{"reserved total_score key", func(r *Rubric) { r.Categories[0].Subcriteria[0].Key = TotalScoreKey }},
		{"negative weight", func(r *Rubric) { r.Categories[0].Subcriteria[0].Weight = -0.15 }},
		{"no subcriteria", func(r *Rubric) { r.Categories[0].Subcriteria = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Default()
			tt.mutate(r)
			assert.Error(t, r.Validate())
		})
	}
}

func TestDimensionKeys(t *testing.T) {
	keys := Default().DimensionKeys()

	require.NotEmpty(t, keys)
	assert.Equal(t, TotalScoreKey, keys[0], "total_score leads the dimension ordering")
	// 1 total + 3 categories + 8 subcriteria
	assert.Len(t, keys, 12)

	seen := map[string]bool{}
	for _, k := range keys {
		assert.False(t, seen[k], "duplicate dimension key %q", k)
		seen[k] = true
	}
}

func TestRollup(t *testing.T) {
	r := Default()

	scores := map[string]float64{}
	for _, key := range r.SubcriterionKeys() {
		scores[key] = 4.0
	}

	out, err := r.Rollup(scores)
	require.NoError(t, err)

	// Uniform subcriterion scores roll up to the same value at every level.
	assert.InDelta(t, 4.0, out[TotalScoreKey], 1e-9)
	for _, cat := range r.Categories {
		assert.InDelta(t, 4.0, out[cat.Key], 1e-9)
	}
}

func TestRollup_WeightedMix(t *testing.T) {
	r := &Rubric{
		Version: "test",
		Categories: []Category{
			{Key: "a", Weight: 0.5, Subcriteria: []Subcriterion{
				{Key: "a1", Weight: 0.25},
				{Key: "a2", Weight: 0.25},
			}},
			{Key: "b", Weight: 0.5, Subcriteria: []Subcriterion{
				{Key: "b1", Weight: 0.5},
			}},
		},
	}
	require.NoError(t, r.Validate())

	out, err := r.Rollup(map[string]float64{"a1": 2.0, "a2": 4.0, "b1": 5.0})
	require.NoError(t, err)

	assert.InDelta(t, 3.0, out["a"], 1e-9)
	assert.InDelta(t, 5.0, out["b"], 1e-9)
	assert.InDelta(t, 4.0, out[TotalScoreKey], 1e-9)
	assert.True(t, InRange(out[TotalScoreKey]))
}

func TestRollup_MissingAndOutOfRange(t *testing.T) {
	r := Default()

	_, err := r.Rollup(map[string]float64{"clarity": 4.0})
	assert.Error(t, err, "missing subcriterion scores must be rejected")

	scores := map[string]float64{}
	for _, key := range r.SubcriterionKeys() {
		scores[key] = 4.0
	}
	scores["clarity"] = 5.5

	_, err = r.Rollup(scores)
	assert.Error(t, err, "out-of-range scores must be rejected")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rubric.yaml")

	content := `version: test-v1
categories:
  - key: quality
    weight: 1.0
    subcriteria:
      - key: accuracy
        weight: 0.6
      - key: tone
        weight: 0.4
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "test-v1", r.Version)
	assert.Len(t, r.Categories, 1)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestInRange(t *testing.T) {
	assert.True(t, InRange(MinScore))
	assert.True(t, InRange(MaxScore))
	assert.True(t, InRange(3.3))
	assert.False(t, InRange(MinScore-1e-9))
	assert.False(t, InRange(MaxScore+1e-9))
	assert.False(t, InRange(math.NaN()))
}
