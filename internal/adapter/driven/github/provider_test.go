package github_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ghAdapter "github.com/ericfisherdev/deploywatch/internal/adapter/driven/github"
	"github.com/ericfisherdev/deploywatch/internal/domain/model"
)

// newTestProvider creates a Provider backed by the given httptest handler.
func newTestProvider(t *testing.T, handler http.Handler) *ghAdapter.Provider {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	provider, err := ghAdapter.NewProviderWithHTTPClient(server.Client(), server.URL+"/")
	require.NoError(t, err)

	return provider
}

// runJSON is a helper struct for building GitHub API workflow run responses.
type runJSON struct {
	ID           int64       `json:"id"`
	Name         string      `json:"name"`
	Event        string      `json:"event"`
	HeadSHA      string      `json:"head_sha"`
	Status       string      `json:"status"`
	Conclusion   string      `json:"conclusion,omitempty"`
	HTMLURL      string      `json:"html_url"`
	CreatedAt    string      `json:"created_at,omitempty"`
	UpdatedAt    string      `json:"updated_at,omitempty"`
	RunStartedAt string      `json:"run_started_at,omitempty"`
	Actor        userJSON    `json:"actor"`
	PullRequests []prRefJSON `json:"pull_requests"`
}

type runListJSON struct {
	TotalCount   int       `json:"total_count"`
	WorkflowRuns []runJSON `json:"workflow_runs"`
}

type userJSON struct {
	Login string `json:"login"`
}

type prRefJSON struct {
	Number int `json:"number"`
}

type commitJSON struct {
	SHA    string          `json:"sha"`
	Author *userJSON       `json:"author,omitempty"`
	Commit commitInnerJSON `json:"commit"`
}

type commitInnerJSON struct {
	Message string        `json:"message"`
	Author  gitAuthorJSON `json:"author"`
}

type gitAuthorJSON struct {
	Name string `json:"name"`
	Date string `json:"date"`
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestFetchRuns_MapsRuns(t *testing.T) {
	created := time.Now().Add(-10 * time.Minute).UTC().Format(time.RFC3339)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/webapp/actions/runs", r.URL.Path)
		assert.Contains(t, r.URL.Query().Get("created"), ">=")

		writeJSON(t, w, runListJSON{
			TotalCount: 3,
			WorkflowRuns: []runJSON{
				{
					ID:           74,
					Name:         "Deploy",
					Event:        "push",
					HeadSHA:      "be0f1ce9a4b7d2e8f1c3a5b7d9e1f3a5b7c9d1e3",
					Status:       "completed",
					Conclusion:   "success",
					HTMLURL:      "https://github.com/acme/webapp/actions/runs/74",
					CreatedAt:    "2025-10-27T19:02:50Z",
					UpdatedAt:    "2025-10-27T19:06:24Z",
					RunStartedAt: "2025-10-27T19:02:55Z",
					Actor:        userJSON{Login: "octocat"},
				},
				{
					ID:           75,
					Name:         "Deploy",
					Event:        "pull_request",
					HeadSHA:      "1111111111111111111111111111111111111111",
					Status:       "in_progress",
					CreatedAt:    created,
					RunStartedAt: created,
					PullRequests: []prRefJSON{{Number: 12}},
				},
				{
					ID:         76,
					Name:       "Deploy",
					Event:      "workflow_dispatch",
					HeadSHA:    "2222222222222222222222222222222222222222",
					Status:     "completed",
					Conclusion: "cancelled",
					CreatedAt:  created,
					UpdatedAt:  created,
				},
			},
		})
	})

	provider := newTestProvider(t, handler)

	// The fixed created_at of run 74 sits far in the past, so the window must
	// be wide enough to keep it.
	runs, err := provider.FetchRuns(context.Background(), "acme/webapp", 100000*time.Hour)
	require.NoError(t, err)
	require.Len(t, runs, 3)

	deploy := runs[0]
	assert.Equal(t, int64(74), deploy.ID)
	assert.Equal(t, model.TriggerPush, deploy.TriggerEvent)
	assert.Equal(t, model.RunStatusSuccess, deploy.Status)
	assert.Equal(t, "octocat", deploy.Actor)
	assert.Equal(t, "2025-10-27T19:02:55Z", deploy.StartedAt.UTC().Format(time.RFC3339))
	assert.Equal(t, "2025-10-27T19:06:24Z", deploy.CompletedAt.UTC().Format(time.RFC3339))
	assert.Equal(t, 209*time.Second, deploy.Duration())

	pending := runs[1]
	assert.Equal(t, model.TriggerPullRequest, pending.TriggerEvent)
	assert.Equal(t, model.RunStatusInProgress, pending.Status)
	assert.True(t, pending.CompletedAt.IsZero())
	assert.Equal(t, []int{12}, pending.PullRequests)

	cancelled := runs[2]
	assert.Equal(t, model.TriggerOther, cancelled.TriggerEvent)
	assert.Equal(t, model.RunStatusCancelled, cancelled.Status)
}

func TestFetchRuns_SkipsRunsOutsideWindow(t *testing.T) {
	recent := time.Now().Add(-10 * time.Minute).UTC().Format(time.RFC3339)
	stale := time.Now().Add(-48 * time.Hour).UTC().Format(time.RFC3339)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, runListJSON{
			TotalCount: 2,
			WorkflowRuns: []runJSON{
				{ID: 80, Status: "completed", Conclusion: "success", CreatedAt: recent, UpdatedAt: recent},
				{ID: 79, Status: "completed", Conclusion: "success", CreatedAt: stale, UpdatedAt: stale},
			},
		})
	})

	provider := newTestProvider(t, handler)

	runs, err := provider.FetchRuns(context.Background(), "acme/webapp", 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, int64(80), runs[0].ID)
}

func TestFetchRuns_Pagination(t *testing.T) {
	created := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "", "1":
			w.Header().Set("Link", fmt.Sprintf(`<https://api.github.com%s?page=2>; rel="next"`, r.URL.Path))
			writeJSON(t, w, runListJSON{
				TotalCount:   2,
				WorkflowRuns: []runJSON{{ID: 1, Status: "completed", Conclusion: "success", CreatedAt: created, UpdatedAt: created}},
			})
		case "2":
			writeJSON(t, w, runListJSON{
				TotalCount:   2,
				WorkflowRuns: []runJSON{{ID: 2, Status: "completed", Conclusion: "failure", CreatedAt: created, UpdatedAt: created}},
			})
		default:
			t.Fatalf("unexpected page %q", r.URL.Query().Get("page"))
		}
	})

	provider := newTestProvider(t, handler)

	runs, err := provider.FetchRuns(context.Background(), "acme/webapp", 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, int64(1), runs[0].ID)
	assert.Equal(t, int64(2), runs[1].ID)
}

func TestFetchRuns_EmptyResult(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, runListJSON{TotalCount: 0, WorkflowRuns: []runJSON{}})
	})

	provider := newTestProvider(t, handler)

	runs, err := provider.FetchRuns(context.Background(), "acme/webapp", 24*time.Hour)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestFetchRuns_InvalidRepoName(t *testing.T) {
	provider := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no API call expected")
	}))

	_, err := provider.FetchRuns(context.Background(), "nonsense", 24*time.Hour)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "owner/name")
}

func TestFetchCommitEvents_ExtractsAssociatedPR(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/webapp/commits", r.URL.Path)

		writeJSON(t, w, []commitJSON{
			{
				SHA:    "be0f1ce9a4b7d2e8f1c3a5b7d9e1f3a5b7c9d1e3",
				Author: &userJSON{Login: "octocat"},
				Commit: commitInnerJSON{
					Message: "Merge pull request #12 from acme/feature-x",
					Author:  gitAuthorJSON{Name: "Octo Cat", Date: "2025-10-27T19:00:00Z"},
				},
			},
			{
				SHA: "3333333333333333333333333333333333333333",
				Commit: commitInnerJSON{
					Message: "Fix login redirect (#13)",
					Author:  gitAuthorJSON{Name: "Jamie Doe", Date: "2025-10-27T18:00:00Z"},
				},
			},
			{
				SHA: "4444444444444444444444444444444444444444",
				Commit: commitInnerJSON{
					Message: "Bump dependencies",
					Author:  gitAuthorJSON{Name: "Jamie Doe", Date: "2025-10-27T17:00:00Z"},
				},
			},
		})
	})

	provider := newTestProvider(t, handler)

	events, err := provider.FetchCommitEvents(context.Background(), "acme/webapp", 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, "octocat", events[0].Author)
	assert.Equal(t, 12, events[0].AssociatedPR)

	// No GitHub account on the second commit: falls back to the git author name.
	assert.Equal(t, "Jamie Doe", events[1].Author)
	assert.Equal(t, 13, events[1].AssociatedPR)

	assert.Zero(t, events[2].AssociatedPR)
}

func TestResolveMergeSHA_Merged(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/webapp/pulls/12", r.URL.Path)
		writeJSON(t, w, map[string]any{
			"number":           12,
			"merged":           true,
			"merge_commit_sha": "be0f1ce9a4b7d2e8f1c3a5b7d9e1f3a5b7c9d1e3",
		})
	})

	provider := newTestProvider(t, handler)

	sha, err := provider.ResolveMergeSHA(context.Background(), "acme/webapp", 12)
	require.NoError(t, err)
	assert.Equal(t, "be0f1ce9a4b7d2e8f1c3a5b7d9e1f3a5b7c9d1e3", sha)
}

func TestResolveMergeSHA_Unmerged(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"number": 12,
			"merged": false,
		})
	})

	provider := newTestProvider(t, handler)

	sha, err := provider.ResolveMergeSHA(context.Background(), "acme/webapp", 12)
	require.NoError(t, err)
	assert.Empty(t, sha)
}

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		headers  map[string]string
		sentinel error
	}{
		{
			name:     "unauthorized",
			status:   http.StatusUnauthorized,
			sentinel: model.ErrAuthenticationFailed,
		},
		{
			name:   "rate limited",
			status: http.StatusForbidden,
			headers: map[string]string{
				"X-Ratelimit-Limit":     "5000",
				"X-Ratelimit-Remaining": "0",
				"X-Ratelimit-Reset":     fmt.Sprintf("%d", time.Now().Add(time.Hour).Unix()),
			},
			sentinel: model.ErrRateLimited,
		},
		{
			name:     "server error",
			status:   http.StatusInternalServerError,
			sentinel: model.ErrProviderUnavailable,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tc.headers {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tc.status)
				fmt.Fprint(w, `{"message":"nope"}`)
			})

			provider := newTestProvider(t, handler)

			_, err := provider.FetchRuns(context.Background(), "acme/webapp", 24*time.Hour)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.sentinel)
		})
	}
}
