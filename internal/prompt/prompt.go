// Package prompt builds the judge prompt shared by every provider from a
// rubric and a transcript.
package prompt

import (
	"fmt"
	"strings"

	"github.com/chatlens/chatlens/internal/rubric"
	"github.com/chatlens/chatlens/internal/transcript"
)

// System returns the system instructions given to every judge.
func System() string {
	return "You are an impartial quality evaluator for customer-service chat transcripts. " +
		"Score strictly against the rubric you are given, cite concrete quotes as evidence, " +
		"and respond with a single JSON object and nothing else."
}

// Build renders the user prompt: the rubric, the conversation, and the exact
// JSON shape the judge must return.
func Build(r *rubric.Rubric, tr transcript.Transcript) string {
	var sb strings.Builder

	sb.WriteString("Evaluate the customer-service conversation below against this rubric.\n\n")

	sb.WriteString("## Rubric\n")
	for _, cat := range r.Categories {
		sb.WriteString(fmt.Sprintf("- %s (weight %.2f)\n", label(cat.Key, cat.Label), cat.Weight))
		for _, sub := range cat.Subcriteria {
			sb.WriteString(fmt.Sprintf("  - %s: %s (weight %.2f)\n", sub.Key, label(sub.Key, sub.Label), sub.Weight))
		}
	}
	sb.WriteString(fmt.Sprintf("\nEvery score must be a number between %.1f and %.1f.\n\n", rubric.MinScore, rubric.MaxScore))

	sb.WriteString("## Conversation\n")
	for _, msg := range tr.Messages {
		sb.WriteString(fmt.Sprintf("[%s] %s\n", msg.Role, msg.Content))
	}

	sb.WriteString("\n## Response format\n")
	sb.WriteString("Return exactly one JSON object of this shape:\n")
	sb.WriteString("{\n  \"scores\": {")
	keys := r.SubcriterionKeys()
	for i, key := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%q: <number>", key))
	}
	sb.WriteString("},\n")
	sb.WriteString("  \"supporting\": [\"<quotes that justify high scores>\"],\n")
	sb.WriteString("  \"contradicting\": [\"<quotes that justify low scores>\"],\n")
	sb.WriteString("  \"improvements\": [\"<concrete suggestions for the agent>\"]\n}\n")

	return sb.String()
}

func label(key, l string) string {
	if l == "" {
		return key
	}
	return l
}
