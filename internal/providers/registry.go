package providers

import (
	"context"
	"fmt"
	"sort"

	"github.com/chainguard-dev/clog"

	"github.com/chatlens/chatlens/internal/config"
)

// Registry holds the constructed judges and applies the panel selection
// policy. Construction validates everything up front: a provider that is
// enabled but unbuildable (unknown kind, missing credential) fails the whole
// registry rather than surfacing mid-evaluation.
type Registry struct {
	providers map[string]Provider
	order     []Provider
	multi     config.MultiJudge
}

// NewRegistry builds every enabled provider from the configuration.
func NewRegistry(ctx context.Context, cfg *config.Config, creds *config.Credentials) (*Registry, error) {
	r := &Registry{
		providers: make(map[string]Provider),
		multi:     cfg.MultiJudge,
	}

	for _, pc := range cfg.Providers {
		if !pc.Enabled {
			continue
		}

		kind, err := ParseKind(pc.Kind)
		if err != nil {
			return nil, &ConfigError{Provider: pc.Name, Reason: err.Error()}
		}

		apiKey, err := creds.ForKind(pc.Kind)
		if err != nil {
			return nil, &ConfigError{Provider: pc.Name, Reason: err.Error()}
		}

		var p Provider
		switch kind {
		case KindOpenAI:
			p, err = newOpenAI(pc, apiKey)
		case KindAnthropic:
			p, err = newAnthropic(pc, apiKey)
		case KindGemini:
			p, err = newGemini(ctx, pc, apiKey)
		}
		if err != nil {
			return nil, err
		}

		r.providers[pc.Name] = p
		r.order = append(r.order, p)
	}

	if len(r.order) == 0 {
		return nil, fmt.Errorf("providers: no enabled providers")
	}

	priorities := make(map[string]int, len(cfg.Providers))
	for _, pc := range cfg.Providers {
		priorities[pc.Name] = pc.Priority
	}
	sort.SliceStable(r.order, func(i, j int) bool {
		pi, pj := priorities[r.order[i].Name()], priorities[r.order[j].Name()]
		if pi != pj {
			return pi < pj
		}
		return r.order[i].Name() < r.order[j].Name()
	})

	clog.FromContext(ctx).With("providers", len(r.order)).Info("provider registry ready")
	return r, nil
}

// ActiveProviders returns the enabled judges in priority order.
func (r *Registry) ActiveProviders() []Provider {
	out := make([]Provider, len(r.order))
	copy(out, r.order)
	return out
}

// Get looks up a judge by name.
func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// SelectForEvaluation picks the judge panel for one request. With no
// requested subset every active judge participates. When multi-judge is
// enabled and the candidates fall short of the minimum, the single-judge
// fallback decides between a degraded panel and an error.
func (r *Registry) SelectForEvaluation(requested []string) ([]Provider, error) {
	candidates := r.order
	if len(requested) > 0 {
		candidates = nil
		seen := make(map[string]bool, len(requested))
		for _, name := range requested {
			if seen[name] {
				continue
			}
			seen[name] = true
			p, ok := r.providers[name]
			if !ok {
				return nil, fmt.Errorf("providers: requested provider %q is not enabled", name)
			}
			candidates = append(candidates, p)
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			return r.indexOf(candidates[i]) < r.indexOf(candidates[j])
		})
	}

	if !r.multi.Enabled {
		return candidates[:1], nil
	}
	if len(candidates) >= r.multi.MinProviders {
		return candidates, nil
	}
	if r.multi.AllowSingleJudge {
		// Below the minimum the panel degrades to exactly one judge, so the
		// result is reported as SINGLE_PROVIDER rather than dressed up as a
		// small panel.
		return candidates[:1], nil
	}
	return nil, fmt.Errorf("providers: %d judge(s) available but %d required and single-judge fallback is disabled",
		len(candidates), r.multi.MinProviders)
}

func (r *Registry) indexOf(p Provider) int {
	for i, q := range r.order {
		if q == p {
			return i
		}
	}
	return len(r.order)
}
