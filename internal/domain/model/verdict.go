package model

import (
	"fmt"
	"strings"
	"time"
)

// Verdict is the final classification of a target commit's deployment state.
type Verdict string

const (
	VerdictDeployed Verdict = "deployed"
	VerdictFailed   Verdict = "failed"
	VerdictPending  Verdict = "pending"
	VerdictNotFound Verdict = "not_found"
	VerdictUnknown  Verdict = "unknown"
)

// ExitCode maps a verdict to the process exit code contract:
// deployed=0, failed=1, pending=2, not_found=3, unknown=4.
func (v Verdict) ExitCode() int {
	switch v {
	case VerdictDeployed:
		return 0
	case VerdictFailed:
		return 1
	case VerdictPending:
		return 2
	case VerdictNotFound:
		return 3
	default:
		return 4
	}
}

// Target identifies what a query asks about: a repository plus a commit SHA,
// a PR number, or both (in which case they must agree).
type Target struct {
	Repo      string // "owner/name"
	CommitSHA string // Full or abbreviated (>= 7 hex chars) commit SHA.
	PRNumber  int    // 0 means no PR was specified.
}

// Validate checks that the target names a repository and at least one of
// commit SHA or PR number.
func (t Target) Validate() error {
	parts := strings.SplitN(t.Repo, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("invalid repo name %q: expected owner/name", t.Repo)
	}
	if t.CommitSHA == "" && t.PRNumber == 0 {
		return fmt.Errorf("target for %s needs a commit SHA or a PR number", t.Repo)
	}
	if t.CommitSHA != "" && len(t.CommitSHA) < 7 {
		return fmt.Errorf("commit SHA %q too short: need at least 7 characters", t.CommitSHA)
	}
	return nil
}

// String renders the target for logs and reports.
func (t Target) String() string {
	switch {
	case t.CommitSHA != "" && t.PRNumber != 0:
		return fmt.Sprintf("%s@%s (PR #%d)", t.Repo, t.CommitSHA, t.PRNumber)
	case t.PRNumber != 0:
		return fmt.Sprintf("%s PR #%d", t.Repo, t.PRNumber)
	default:
		return fmt.Sprintf("%s@%s", t.Repo, t.CommitSHA)
	}
}

// ReconciledVerdict is the outcome of one query. The matched run, if present,
// is a copy owned exclusively by the verdict; evidence is ordered most
// recently started first.
type ReconciledVerdict struct {
	Target       Target
	TargetCommit string       // Resolved full SHA the verdict is about.
	Author       string       // Commit author, when resolvable from commit events.
	Matched      *WorkflowRun // Authoritative run; nil for not_found/unknown.
	Verdict      Verdict
	Evidence     []WorkflowRun // All matching runs, most recent first.
	CheckedAt    time.Time     // When the query completed.
}
