package application

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/deploywatch/internal/domain/model"
)

// BatchResult pairs a target with its query outcome. Exactly one of Verdict
// and Err is meaningful: Err is set when the query could not determine a
// status at all.
type BatchResult struct {
	Target  model.Target
	Verdict model.ReconciledVerdict
	Err     error
}

// CheckAll runs one query per target concurrently. Each query owns its own
// run sequence and verdict; failures are captured per result so one target's
// provider error never cancels its siblings. Provider pressure is bounded by
// the gate the service was built with, not here.
//
// Results are returned in target order. The error is non-nil only when the
// parent context was canceled.
func (s *CheckService) CheckAll(ctx context.Context, targets []model.Target) ([]BatchResult, error) {
	results := make([]BatchResult, len(targets))

	g, ctx := errgroup.WithContext(ctx)
	for i, target := range targets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = BatchResult{Target: target, Err: err}
				return err
			}

			verdict, err := s.Check(ctx, target)
			results[i] = BatchResult{Target: target, Verdict: verdict, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
