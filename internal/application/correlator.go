// Package application contains use-case orchestration: correlating runs to
// commits, reconciling verdicts, and gating provider access.
package application

import (
	"fmt"
	"strings"

	"github.com/ericfisherdev/deploywatch/internal/domain/model"
)

// Correlation is the output of matching a target against a run history:
// the resolved target commit, its author when known, and the candidate runs
// ordered most recently started first.
type Correlation struct {
	TargetSHA string
	Author    string
	Runs      []model.WorkflowRun
}

// Correlate filters runs down to those attributable to the target.
//
// mergeSHA is the target PR's merge commit SHA ("" when no PR was given, or
// the PR is unmerged). A run matches when its head SHA is the target commit,
// or when it was triggered by a PR event referencing the target PR number.
// Abbreviated target SHAs are expanded against the commit events before
// filtering; unexpanded abbreviations still match runs by prefix.
//
// It fails with model.ErrAmbiguousTarget when both a PR and a commit SHA were
// supplied and the PR's merge commit is a different commit.
func Correlate(target model.Target, mergeSHA string, events []model.CommitEvent, runs []model.WorkflowRun) (Correlation, error) {
	resolved := strings.ToLower(target.CommitSHA)

	if target.PRNumber != 0 && mergeSHA != "" {
		if resolved != "" && !shaMatches(mergeSHA, resolved) {
			return Correlation{}, fmt.Errorf("PR #%d merged as %s, not %s: %w",
				target.PRNumber, abbreviate(mergeSHA), abbreviate(resolved), model.ErrAmbiguousTarget)
		}
		resolved = strings.ToLower(mergeSHA)
	}

	var author string
	for _, ev := range events {
		if resolved != "" && shaMatches(ev.SHA, resolved) {
			resolved = strings.ToLower(ev.SHA)
			author = ev.Author
			break
		}
	}

	var matching []model.WorkflowRun
	for _, run := range runs {
		byCommit := resolved != "" && shaMatches(run.HeadSHA, resolved)
		byPR := target.PRNumber != 0 &&
			run.TriggerEvent == model.TriggerPullRequest &&
			run.ReferencesPR(target.PRNumber)

		if byCommit || byPR {
			matching = append(matching, run)
		}
	}

	// A PR-only target with no resolvable merge commit inherits the commit
	// of whatever runs the PR produced.
	if resolved == "" && len(matching) > 0 {
		resolved = strings.ToLower(matching[0].HeadSHA)
	}

	return Correlation{
		TargetSHA: resolved,
		Author:    author,
		Runs:      matching,
	}, nil
}

// shaMatches reports whether candidate equals or is abbreviated by target.
// Abbreviations shorter than 7 characters never match (enforced upstream by
// Target.Validate).
func shaMatches(full, target string) bool {
	return strings.HasPrefix(strings.ToLower(full), strings.ToLower(target))
}

// abbreviate shortens a SHA to the conventional 7 characters for messages.
func abbreviate(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
