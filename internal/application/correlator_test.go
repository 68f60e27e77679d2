package application_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/deploywatch/internal/application"
	"github.com/ericfisherdev/deploywatch/internal/domain/model"
)

const (
	shaDeploy = "be0f1ce9a4b7d2e8f1c3a5b7d9e1f3a5b7c9d1e3"
	shaOther  = "0123456789abcdef0123456789abcdef01234567"
)

func run(id int64, sha string, trigger model.TriggerEvent, status model.RunStatus, started time.Time, prs ...int) model.WorkflowRun {
	return model.WorkflowRun{
		ID:           id,
		HeadSHA:      sha,
		TriggerEvent: trigger,
		Status:       status,
		StartedAt:    started,
		PullRequests: prs,
	}
}

func TestCorrelate_MatchByFullCommit(t *testing.T) {
	now := time.Now()
	runs := []model.WorkflowRun{
		run(74, shaDeploy, model.TriggerPush, model.RunStatusSuccess, now),
		run(75, shaOther, model.TriggerPush, model.RunStatusSuccess, now.Add(time.Minute)),
	}

	corr, err := application.Correlate(
		model.Target{Repo: "acme/webapp", CommitSHA: shaDeploy},
		"", nil, runs,
	)

	require.NoError(t, err)
	assert.Equal(t, shaDeploy, corr.TargetSHA)
	require.Len(t, corr.Runs, 1)
	assert.Equal(t, int64(74), corr.Runs[0].ID)
}

func TestCorrelate_AbbreviatedSHAExpandsAgainstEvents(t *testing.T) {
	now := time.Now()
	events := []model.CommitEvent{
		{SHA: shaOther, Author: "bob"},
		{SHA: shaDeploy, Author: "alice"},
	}
	runs := []model.WorkflowRun{
		run(74, shaDeploy, model.TriggerPush, model.RunStatusSuccess, now),
	}

	corr, err := application.Correlate(
		model.Target{Repo: "acme/webapp", CommitSHA: "be0f1ce"},
		"", events, runs,
	)

	require.NoError(t, err)
	assert.Equal(t, shaDeploy, corr.TargetSHA)
	assert.Equal(t, "alice", corr.Author)
	require.Len(t, corr.Runs, 1)
}

func TestCorrelate_AbbreviatedSHAMatchesRunsWithoutEvents(t *testing.T) {
	now := time.Now()
	runs := []model.WorkflowRun{
		run(74, shaDeploy, model.TriggerPush, model.RunStatusSuccess, now),
		run(75, shaOther, model.TriggerPush, model.RunStatusFailure, now),
	}

	corr, err := application.Correlate(
		model.Target{Repo: "acme/webapp", CommitSHA: "BE0F1CE"},
		"", nil, runs,
	)

	require.NoError(t, err)
	require.Len(t, corr.Runs, 1)
	assert.Equal(t, int64(74), corr.Runs[0].ID)
}

func TestCorrelate_PRResolvesToMergeCommit(t *testing.T) {
	now := time.Now()
	runs := []model.WorkflowRun{
		run(74, shaDeploy, model.TriggerPush, model.RunStatusSuccess, now),
		run(73, shaOther, model.TriggerPullRequest, model.RunStatusSuccess, now.Add(-time.Hour), 12),
	}

	corr, err := application.Correlate(
		model.Target{Repo: "acme/webapp", PRNumber: 12},
		shaDeploy, nil, runs,
	)

	require.NoError(t, err)
	assert.Equal(t, shaDeploy, corr.TargetSHA)
	// Both the merge-commit push run and the PR-event run are candidates.
	assert.Len(t, corr.Runs, 2)
}

func TestCorrelate_UnmergedPRMatchesPREventsOnly(t *testing.T) {
	now := time.Now()
	runs := []model.WorkflowRun{
		run(74, shaDeploy, model.TriggerPush, model.RunStatusSuccess, now),
		run(73, shaOther, model.TriggerPullRequest, model.RunStatusInProgress, now, 12),
	}

	corr, err := application.Correlate(
		model.Target{Repo: "acme/webapp", PRNumber: 12},
		"", nil, runs,
	)

	require.NoError(t, err)
	require.Len(t, corr.Runs, 1)
	assert.Equal(t, int64(73), corr.Runs[0].ID)
	// The target commit is inherited from the matching run.
	assert.Equal(t, shaOther, corr.TargetSHA)
}

func TestCorrelate_AgreeingPRAndCommit(t *testing.T) {
	runs := []model.WorkflowRun{
		run(74, shaDeploy, model.TriggerPush, model.RunStatusSuccess, time.Now()),
	}

	corr, err := application.Correlate(
		model.Target{Repo: "acme/webapp", CommitSHA: "be0f1ce", PRNumber: 12},
		shaDeploy, nil, runs,
	)

	require.NoError(t, err)
	assert.Equal(t, shaDeploy, corr.TargetSHA)
	assert.Len(t, corr.Runs, 1)
}

func TestCorrelate_AmbiguousTarget(t *testing.T) {
	_, err := application.Correlate(
		model.Target{Repo: "acme/webapp", CommitSHA: shaOther, PRNumber: 12},
		shaDeploy, nil, nil,
	)

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrAmbiguousTarget)
}

func TestCorrelate_NoMatches(t *testing.T) {
	runs := []model.WorkflowRun{
		run(74, shaOther, model.TriggerPush, model.RunStatusSuccess, time.Now()),
	}

	corr, err := application.Correlate(
		model.Target{Repo: "acme/webapp", CommitSHA: shaDeploy},
		"", nil, runs,
	)

	require.NoError(t, err)
	assert.Empty(t, corr.Runs)
	assert.Equal(t, shaDeploy, corr.TargetSHA)
}
