// Package providers contains the judge clients: one per LLM vendor, all
// presenting the same Evaluate surface and the same retry, validation, and
// cost-accounting behavior underneath.
package providers

import (
	"context"
	"fmt"

	"github.com/chatlens/chatlens/internal/models"
)

// Kind identifies a supported judge vendor. The set is closed: adding a
// vendor means adding a client here, not registering one at runtime.
type Kind string

const (
	KindOpenAI    Kind = "openai"
	KindAnthropic Kind = "anthropic"
	KindGemini    Kind = "gemini"
)

// ParseKind validates a configured provider kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindOpenAI, KindAnthropic, KindGemini:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("providers: unknown kind %q (supported: openai, anthropic, gemini)", s)
	}
}

// Provider is one judge. Evaluate scores a single transcript and returns
// either a successful JudgeResult or a *models.ProviderError describing why
// every attempt failed.
type Provider interface {
	Name() string
	Kind() Kind
	Evaluate(ctx context.Context, req *models.EvaluationRequest) (*models.JudgeResult, error)
}
