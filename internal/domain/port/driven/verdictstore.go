package driven

import (
	"context"

	"github.com/ericfisherdev/deploywatch/internal/domain/model"
)

// VerdictStore defines the driven port for persisting query outcomes.
// Persistence is an optimization over the query path, never a semantic
// dependency: a query produces the same verdict whether or not a store is
// configured.
type VerdictStore interface {
	// Record appends a completed query's verdict to the history.
	Record(ctx context.Context, v model.ReconciledVerdict) error

	// ListByRepo returns the most recent verdicts recorded for a repository,
	// newest first, up to limit.
	ListByRepo(ctx context.Context, repo string, limit int) ([]model.ReconciledVerdict, error)

	// Latest returns the most recent verdict recorded for the exact target
	// commit, or nil if none exists.
	Latest(ctx context.Context, repo, commitSHA string) (*model.ReconciledVerdict, error)
}
