package application

import (
	"sort"
	"time"

	"github.com/ericfisherdev/deploywatch/internal/domain/model"
)

// Reconcile selects the authoritative run from the correlated candidates and
// classifies the target's deployment state.
//
// The authoritative run is the most recently started one, ties broken by
// highest run ID. Recency always wins regardless of outcome: a later failed
// attempt overrides an earlier success for the same commit, and vice versa.
// Verdicts: no candidates yields not_found; an in-flight authoritative run
// yields pending; success yields deployed; failure and cancelled yield failed.
//
// The returned verdict owns a fresh copy of the matched run, and its evidence
// lists every candidate, most recent first.
func Reconcile(target model.Target, corr Correlation) model.ReconciledVerdict {
	evidence := make([]model.WorkflowRun, len(corr.Runs))
	copy(evidence, corr.Runs)

	sort.SliceStable(evidence, func(i, j int) bool {
		if !evidence[i].StartedAt.Equal(evidence[j].StartedAt) {
			return evidence[i].StartedAt.After(evidence[j].StartedAt)
		}
		return evidence[i].ID > evidence[j].ID
	})

	v := model.ReconciledVerdict{
		Target:       target,
		TargetCommit: corr.TargetSHA,
		Author:       corr.Author,
		Evidence:     evidence,
		CheckedAt:    time.Now().UTC(),
	}

	if len(evidence) == 0 {
		v.Verdict = model.VerdictNotFound
		return v
	}

	authoritative := evidence[0]
	v.Matched = &authoritative

	switch authoritative.Status {
	case model.RunStatusSuccess:
		v.Verdict = model.VerdictDeployed
	case model.RunStatusInProgress:
		v.Verdict = model.VerdictPending
	default:
		// failure and cancelled: the most recent attempt did not deploy.
		v.Verdict = model.VerdictFailed
	}

	return v
}
