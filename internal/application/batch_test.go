package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/deploywatch/internal/application"
	"github.com/ericfisherdev/deploywatch/internal/domain/model"
)

func TestCheckAll_ResultsInTargetOrder(t *testing.T) {
	provider := &fakeProvider{
		runs: []model.WorkflowRun{
			run(74, shaDeploy, model.TriggerPush, model.RunStatusSuccess, time.Now()),
		},
	}
	svc := application.NewCheckService(provider, nil, 24*time.Hour, time.Second)

	targets := []model.Target{
		{Repo: "acme/webapp", CommitSHA: shaDeploy},
		{Repo: "acme/webapp", CommitSHA: shaOther},
		{Repo: "acme/webapp", CommitSHA: shaDeploy},
	}

	results, err := svc.CheckAll(context.Background(), targets)

	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, res := range results {
		assert.Equal(t, targets[i], res.Target)
		require.NoError(t, res.Err)
	}
	assert.Equal(t, model.VerdictDeployed, results[0].Verdict.Verdict)
	assert.Equal(t, model.VerdictNotFound, results[1].Verdict.Verdict)
	assert.Equal(t, model.VerdictDeployed, results[2].Verdict.Verdict)
}

func TestCheckAll_FailureIsIsolatedPerTarget(t *testing.T) {
	provider := &fakeProvider{
		runs: []model.WorkflowRun{
			run(74, shaDeploy, model.TriggerPush, model.RunStatusSuccess, time.Now()),
		},
	}
	svc := application.NewCheckService(provider, nil, 24*time.Hour, time.Second)

	targets := []model.Target{
		{Repo: "acme/webapp", CommitSHA: shaDeploy},
		{Repo: "bad repo name", CommitSHA: shaDeploy},
		{Repo: "acme/webapp", CommitSHA: shaDeploy},
	}

	results, err := svc.CheckAll(context.Background(), targets)

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.NoError(t, results[2].Err)
	assert.Equal(t, model.VerdictDeployed, results[2].Verdict.Verdict)
}

func TestCheckAll_CanceledContext(t *testing.T) {
	provider := &fakeProvider{}
	svc := application.NewCheckService(provider, nil, 24*time.Hour, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.CheckAll(ctx, []model.Target{
		{Repo: "acme/webapp", CommitSHA: shaDeploy},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCheckAll_Empty(t *testing.T) {
	svc := application.NewCheckService(&fakeProvider{}, nil, 24*time.Hour, time.Second)

	results, err := svc.CheckAll(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, results)
}
