package eligibility

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/atlas/backoffice-engine/domain"
)

// BulkResult pairs one application with its router outcome.
type BulkResult struct {
	ApplicationID domain.ApplicationID
	Outcome       Outcome
	Err           error
}

// RunAll checks many applications concurrently. Applications share no
// mutable state, so the only bound is the collaborator's tolerance,
// expressed here as the concurrency limit. Per-application failures are
// collected, never fatal to the batch.
func (r *Router) RunAll(ctx context.Context, ids []domain.ApplicationID, concurrency int) []BulkResult {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]BulkResult, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			app, err := r.Applications.Application(gctx, id)
			var outcome Outcome
			if err == nil {
				outcome, err = r.Run(gctx, app)
			}

			// Each worker owns its slot; no shared state.
			results[i] = BulkResult{ApplicationID: id, Outcome: outcome, Err: err}
			return nil
		})
	}

	_ = g.Wait()
	return results
}
