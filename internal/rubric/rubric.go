// Package rubric defines the weighted scoring schema applied to a chat
// transcript: categories, subcriteria, and the arithmetic that rolls
// subcriterion scores up into category subtotals and a total score.
package rubric

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Score bounds shared by every dimension.
const (
	MinScore   = 1.0
	MaxScore   = 5.0
	ScoreRange = MaxScore - MinScore
)

// WeightTolerance is the floating tolerance applied when checking that
// weights sum correctly.
const WeightTolerance = 0.01

// TotalScoreKey is the dimension key of the rolled-up total score.
const TotalScoreKey = "total_score"

// Subcriterion is one named, weighted scoring dimension within a category.
type Subcriterion struct {
	Key    string  `yaml:"key" json:"key"`
	Label  string  `yaml:"label,omitempty" json:"label,omitempty"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// Category groups subcriteria. Subcriterion weights sum to the category
// weight; category weights sum to 1.0.
type Category struct {
	Key         string         `yaml:"key" json:"key"`
	Label       string         `yaml:"label,omitempty" json:"label,omitempty"`
	Weight      float64        `yaml:"weight" json:"weight"`
	Subcriteria []Subcriterion `yaml:"subcriteria" json:"subcriteria"`
}

// Rubric is the complete scoring schema for one evaluation.
type Rubric struct {
	Version    string     `yaml:"version" json:"version"`
	Categories []Category `yaml:"categories" json:"categories"`
}

// Load reads a rubric from a YAML file and validates it.
func Load(path string) (*Rubric, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rubric: read %s: %w", path, err)
	}

	var r Rubric
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("rubric: parse %s: %w", path, err)
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}

	return &r, nil
}

// Validate checks the weight invariants: category weights sum to 1.0 and each
// category's subcriterion weights sum to that category's weight, both within
// [WeightTolerance]. Keys must be non-empty and unique across the rubric.
func (r *Rubric) Validate() error {
	if len(r.Categories) == 0 {
		return fmt.Errorf("rubric: no categories defined")
	}

	seen := map[string]bool{TotalScoreKey: true}
	categorySum := 0.0

	for _, cat := range r.Categories {
		if cat.Key == "" {
			return fmt.Errorf("rubric: category with empty key")
		}
		if seen[cat.Key] {
			return fmt.Errorf("rubric: duplicate dimension key %q", cat.Key)
		}
		seen[cat.Key] = true

		if cat.Weight <= 0 {
			return fmt.Errorf("rubric: category %q has non-positive weight %g", cat.Key, cat.Weight)
		}
		categorySum += cat.Weight

		if len(cat.Subcriteria) == 0 {
			return fmt.Errorf("rubric: category %q has no subcriteria", cat.Key)
		}

		subSum := 0.0
		for _, sub := range cat.Subcriteria {
			if sub.Key == "" {
				return fmt.Errorf("rubric: category %q has a subcriterion with empty key", cat.Key)
			}
			if seen[sub.Key] {
				return fmt.Errorf("rubric: duplicate dimension key %q", sub.Key)
			}
			seen[sub.Key] = true

			if sub.Weight <= 0 {
				return fmt.Errorf("rubric: subcriterion %q has non-positive weight %g", sub.Key, sub.Weight)
			}
			subSum += sub.Weight
		}

		if math.Abs(subSum-cat.Weight) > WeightTolerance {
			return fmt.Errorf("rubric: category %q subcriterion weights sum to %.4f, expected %.4f",
				cat.Key, subSum, cat.Weight)
		}
	}

	if math.Abs(categorySum-1.0) > WeightTolerance {
		return fmt.Errorf("rubric: category weights sum to %.4f, expected 1.0", categorySum)
	}

	return nil
}

// DimensionKeys returns every scoring dimension in deterministic order:
// total_score first, then each category followed by its subcriteria.
func (r *Rubric) DimensionKeys() []string {
	keys := []string{TotalScoreKey}
	for _, cat := range r.Categories {
		keys = append(keys, cat.Key)
		for _, sub := range cat.Subcriteria {
			keys = append(keys, sub.Key)
		}
	}
	return keys
}

// SubcriterionKeys returns only the leaf dimension keys, in rubric order.
func (r *Rubric) SubcriterionKeys() []string {
	var keys []string
	for _, cat := range r.Categories {
		for _, sub := range cat.Subcriteria {
			keys = append(keys, sub.Key)
		}
	}
	return keys
}

// InRange reports whether a score lies within the rubric's score bounds.
func InRange(score float64) bool {
	return score >= MinScore && score <= MaxScore
}

// Rollup computes category subtotals and the total score from per-subcriterion
// scores. Missing subcriterion scores are an error: partial scoring would
// silently skew the weighted rollup.
//
// The returned map contains every subcriterion score, every category subtotal,
// and the total under [TotalScoreKey]:
//
//	subtotal(cat) = sum(sub.score * sub.weight) / cat.weight
//	total         = sum(subtotal(cat) * cat.weight)
func (r *Rubric) Rollup(subScores map[string]float64) (map[string]float64, error) {
	out := make(map[string]float64, len(subScores)+len(r.Categories)+1)
	total := 0.0

	for _, cat := range r.Categories {
		weighted := 0.0
		for _, sub := range cat.Subcriteria {
			score, ok := subScores[sub.Key]
			if !ok {
				return nil, fmt.Errorf("rubric: missing score for subcriterion %q", sub.Key)
			}
			if !InRange(score) {
				return nil, fmt.Errorf("rubric: score %g for %q outside [%g, %g]",
					score, sub.Key, MinScore, MaxScore)
			}
			out[sub.Key] = score
			weighted += score * sub.Weight
		}
		subtotal := weighted / cat.Weight
		out[cat.Key] = subtotal
		total += subtotal * cat.Weight
	}

	out[TotalScoreKey] = total
	return out, nil
}

// Default returns the built-in customer-service rubric: three weighted
// categories covering communication quality, problem resolution, and policy
// compliance.
func Default() *Rubric {
	return &Rubric{
		Version: "cs-chat-v1",
		Categories: []Category{
			{
				Key:    "communication",
				Label:  "Communication Quality",
				Weight: 0.4,
				Subcriteria: []Subcriterion{
					{Key: "clarity", Label: "Clarity and structure", Weight: 0.15},
					{Key: "empathy", Label: "Empathy and tone", Weight: 0.10},
					{Key: "professionalism", Label: "Professionalism", Weight: 0.15},
				},
			},
			{
				Key:    "problem_resolution",
				Label:  "Problem Resolution",
				Weight: 0.4,
				Subcriteria: []Subcriterion{
					{Key: "diagnosis", Label: "Issue diagnosis", Weight: 0.15},
					{Key: "solution_accuracy", Label: "Solution accuracy", Weight: 0.15},
					{Key: "followup", Label: "Follow-up and closure", Weight: 0.10},
				},
			},
			{
				Key:    "compliance",
				Label:  "Policy Compliance",
				Weight: 0.2,
				Subcriteria: []Subcriterion{
					{Key: "policy_adherence", Label: "Policy adherence", Weight: 0.10},
					{Key: "data_handling", Label: "Customer data handling", Weight: 0.10},
				},
			},
		},
	}
}
