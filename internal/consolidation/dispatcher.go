// Package consolidation fans an evaluation request out to a judge panel and
// merges the returned scores into one statistically defensible result.
package consolidation

import (
	"context"
	"errors"
	"time"

	"github.com/chainguard-dev/clog"
	"golang.org/x/sync/errgroup"

	"github.com/chatlens/chatlens/internal/models"
	"github.com/chatlens/chatlens/internal/providers"
)

// Dispatch runs every judge in the panel concurrently and collects one
// JudgeResult per judge, in panel order. A judge failure never cancels its
// siblings: partial panels are consolidated, not discarded.
func Dispatch(ctx context.Context, panel []providers.Provider, req *models.EvaluationRequest) []models.JudgeResult {
	results := make([]models.JudgeResult, len(panel))

	var g errgroup.Group
	for i, p := range panel {
		g.Go(func() error {
			start := time.Now()
			res, err := p.Evaluate(ctx, req)
			if err != nil {
				var perr *models.ProviderError
				if !errors.As(err, &perr) {
					perr = &models.ProviderError{Provider: p.Name(), Attempts: 1, Message: err.Error()}
				}
				clog.FromContext(ctx).With("provider", p.Name()).Warn("judge failed", "error", err)
				results[i] = models.JudgeResult{
					Provider:  p.Name(),
					Succeeded: false,
					LatencyMs: time.Since(start).Milliseconds(),
					Err:       perr,
				}
				return nil
			}
			results[i] = *res
			return nil
		})
	}

	// Goroutines always return nil; Wait is purely a join.
	_ = g.Wait()
	return results
}
