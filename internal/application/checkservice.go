package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/ericfisherdev/deploywatch/internal/domain/model"
	"github.com/ericfisherdev/deploywatch/internal/domain/port/driven"
)

// CheckService runs deployment-status queries: fetch runs, correlate against
// the target, reconcile the authoritative outcome. A query is fully
// sequential; independent queries share nothing but the (gated) provider.
type CheckService struct {
	provider driven.RunProvider
	store    driven.VerdictStore // nil disables history recording
	lookback time.Duration
	timeout  time.Duration // per provider call; 0 disables the deadline
}

// NewCheckService creates a CheckService. store may be nil, in which case
// verdicts are not recorded.
func NewCheckService(provider driven.RunProvider, store driven.VerdictStore, lookback, timeout time.Duration) *CheckService {
	return &CheckService{
		provider: provider,
		store:    store,
		lookback: lookback,
		timeout:  timeout,
	}
}

// Check answers "did this target deploy?" for a single target. Typed provider
// and correlation errors propagate to the caller, which renders them as an
// unknown verdict; partial results are never returned.
func (s *CheckService) Check(ctx context.Context, target model.Target) (model.ReconciledVerdict, error) {
	if err := target.Validate(); err != nil {
		return model.ReconciledVerdict{}, err
	}

	start := time.Now()

	var mergeSHA string
	if target.PRNumber != 0 {
		sha, err := s.resolveMergeSHA(ctx, target)
		if err != nil {
			return model.ReconciledVerdict{}, err
		}
		mergeSHA = sha
	}

	// Commit events only refine the query (abbreviated SHA expansion, author
	// attribution); their failure must not take down an answerable query.
	var events []model.CommitEvent
	if target.CommitSHA != "" {
		evs, err := s.fetchCommitEvents(ctx, target)
		if err != nil {
			slog.Warn("commit event fetch failed, continuing without",
				"repo", target.Repo, "error", err)
		} else {
			events = evs
		}
	}

	runs, err := s.fetchRuns(ctx, target)
	if err != nil {
		return model.ReconciledVerdict{}, err
	}

	corr, err := Correlate(target, mergeSHA, events, runs)
	if err != nil {
		return model.ReconciledVerdict{}, err
	}

	verdict := Reconcile(target, corr)

	slog.Info("query reconciled",
		"target", target.String(),
		"verdict", string(verdict.Verdict),
		"fetched", len(runs),
		"matching", len(verdict.Evidence),
		"duration", time.Since(start).Round(time.Millisecond),
	)

	if s.store != nil {
		if err := s.store.Record(ctx, verdict); err != nil {
			slog.Error("verdict history record failed", "target", target.String(), "error", err)
		}
	}

	return verdict, nil
}

// callCtx derives the per-call deadline mandated for every provider call.
func (s *CheckService) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *CheckService) resolveMergeSHA(ctx context.Context, target model.Target) (string, error) {
	callCtx, cancel := s.callCtx(ctx)
	defer cancel()
	return s.provider.ResolveMergeSHA(callCtx, target.Repo, target.PRNumber)
}

func (s *CheckService) fetchCommitEvents(ctx context.Context, target model.Target) ([]model.CommitEvent, error) {
	callCtx, cancel := s.callCtx(ctx)
	defer cancel()
	return s.provider.FetchCommitEvents(callCtx, target.Repo, s.lookback)
}

func (s *CheckService) fetchRuns(ctx context.Context, target model.Target) ([]model.WorkflowRun, error) {
	callCtx, cancel := s.callCtx(ctx)
	defer cancel()
	return s.provider.FetchRuns(callCtx, target.Repo, s.lookback)
}
