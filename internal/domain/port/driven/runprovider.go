package driven

import (
	"context"
	"time"

	"github.com/ericfisherdev/deploywatch/internal/domain/model"
)

// RunProvider defines the driven port for querying a CI provider's run
// history. One implementation exists per provider (GitHub Actions today);
// the correlator and reconciler depend only on this interface.
//
// Implementations perform no retries. Errors are classified into the domain
// taxonomy (model.ErrRateLimited, model.ErrProviderTimeout, ...) so callers
// can decide whether to back off.
type RunProvider interface {
	// FetchRuns returns workflow runs created within the lookback window,
	// ordered by start time descending. The result is finite and safe to
	// re-fetch; each call hits the provider.
	FetchRuns(ctx context.Context, repo string, window time.Duration) ([]model.WorkflowRun, error)

	// FetchCommitEvents returns recent commits on the repository's default
	// branch within the lookback window, newest first.
	FetchCommitEvents(ctx context.Context, repo string, window time.Duration) ([]model.CommitEvent, error)

	// ResolveMergeSHA resolves a pull request number to its merge commit SHA.
	// Resolution is idempotent. It returns an empty SHA when the PR exists
	// but has not been merged, and fails if the PR cannot be looked up.
	ResolveMergeSHA(ctx context.Context, repo string, prNumber int) (string, error)
}
