package application

import (
	"context"
	"time"

	"github.com/ericfisherdev/deploywatch/internal/domain/model"
	"github.com/ericfisherdev/deploywatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RunProvider = (*GatedProvider)(nil)

// GatedProvider bounds concurrent access to a shared RunProvider. The
// provider connection and credentials are the only resource shared between
// otherwise independent queries, so in-flight calls are capped by a token
// semaphore to respect provider rate limits.
type GatedProvider struct {
	inner  driven.RunProvider
	tokens chan struct{}
}

// NewGatedProvider wraps inner with a cap of maxInFlight concurrent calls.
// maxInFlight values below 1 are treated as 1.
func NewGatedProvider(inner driven.RunProvider, maxInFlight int) *GatedProvider {
	if maxInFlight < 1 {
		maxInFlight = 1
	}
	return &GatedProvider{
		inner:  inner,
		tokens: make(chan struct{}, maxInFlight),
	}
}

// acquire takes a token, or fails when the context is canceled while waiting.
func (g *GatedProvider) acquire(ctx context.Context) error {
	select {
	case g.tokens <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *GatedProvider) release() {
	<-g.tokens
}

// FetchRuns implements driven.RunProvider.
func (g *GatedProvider) FetchRuns(ctx context.Context, repo string, window time.Duration) ([]model.WorkflowRun, error) {
	if err := g.acquire(ctx); err != nil {
		return nil, err
	}
	defer g.release()
	return g.inner.FetchRuns(ctx, repo, window)
}

// FetchCommitEvents implements driven.RunProvider.
func (g *GatedProvider) FetchCommitEvents(ctx context.Context, repo string, window time.Duration) ([]model.CommitEvent, error) {
	if err := g.acquire(ctx); err != nil {
		return nil, err
	}
	defer g.release()
	return g.inner.FetchCommitEvents(ctx, repo, window)
}

// ResolveMergeSHA implements driven.RunProvider.
func (g *GatedProvider) ResolveMergeSHA(ctx context.Context, repo string, prNumber int) (string, error) {
	if err := g.acquire(ctx); err != nil {
		return "", err
	}
	defer g.release()
	return g.inner.ResolveMergeSHA(ctx, repo, prNumber)
}
