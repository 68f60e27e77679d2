// Package github implements the RunProvider port using the go-github library.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/ericfisherdev/deploywatch/internal/domain/model"
	"github.com/ericfisherdev/deploywatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RunProvider = (*Provider)(nil)

// Provider implements the driven.RunProvider port against the GitHub Actions
// and Repositories APIs.
type Provider struct {
	gh *gh.Client
}

// NewProvider creates a GitHub API provider with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with PAT auth)
func NewProvider(token string) *Provider {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient).WithAuthToken(token)

	return &Provider{gh: client}
}

// NewProviderWithHTTPClient creates a Provider with a custom http.Client and
// base URL. This constructor is intended for testing, allowing injection of
// an httptest server.
func NewProviderWithHTTPClient(httpClient *http.Client, baseURL string) (*Provider, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Provider{gh: client}, nil
}

// FetchRuns retrieves workflow runs created within the lookback window,
// ordered by start time descending (the API's natural order). It paginates
// automatically and stops once runs fall outside the window.
func (p *Provider) FetchRuns(ctx context.Context, repo string, window time.Duration) ([]model.WorkflowRun, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-window).UTC()
	opts := &gh.ListWorkflowRunsOptions{
		Created: fmt.Sprintf(">=%s", cutoff.Format(time.RFC3339)),
		ListOptions: gh.ListOptions{
			PerPage: 100,
		},
	}

	var runs []model.WorkflowRun

	for {
		result, resp, err := p.gh.Actions.ListRepositoryWorkflowRuns(ctx, owner, name, opts)
		if err != nil {
			return nil, fmt.Errorf("listing workflow runs for %s (page %d): %w", repo, opts.Page, classify(err))
		}

		logRateLimit(resp, repo+"/runs", opts.Page, len(result.WorkflowRuns))

		for _, run := range result.WorkflowRuns {
			if run.GetCreatedAt().Time.Before(cutoff) {
				continue
			}
			runs = append(runs, mapRun(run))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	if runs == nil {
		runs = []model.WorkflowRun{}
	}

	return runs, nil
}

// FetchCommitEvents lists commits on the default branch within the lookback
// window, newest first, mapped to domain commit events.
func (p *Provider) FetchCommitEvents(ctx context.Context, repo string, window time.Duration) ([]model.CommitEvent, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	opts := &gh.CommitsListOptions{
		Since:       time.Now().Add(-window).UTC(),
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	var events []model.CommitEvent

	for {
		commits, resp, err := p.gh.Repositories.ListCommits(ctx, owner, name, opts)
		if err != nil {
			return nil, fmt.Errorf("listing commits for %s (page %d): %w", repo, opts.Page, classify(err))
		}

		logRateLimit(resp, repo+"/commits", opts.Page, len(commits))

		for _, c := range commits {
			events = append(events, mapCommitEvent(c))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	if events == nil {
		events = []model.CommitEvent{}
	}

	return events, nil
}

// ResolveMergeSHA resolves a PR number to its merge commit SHA. It returns
// an empty SHA with no error when the PR exists but has not been merged;
// runs triggered by the PR's own events can still be correlated in that case.
func (p *Provider) ResolveMergeSHA(ctx context.Context, repo string, prNumber int) (string, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return "", err
	}

	pr, resp, err := p.gh.PullRequests.Get(ctx, owner, name, prNumber)
	if err != nil {
		return "", fmt.Errorf("resolving PR %s#%d: %w", repo, prNumber, classify(err))
	}

	logRateLimit(resp, repo+"/pr", 0, 1)

	if !pr.GetMerged() {
		return "", nil
	}
	return pr.GetMergeCommitSHA(), nil
}

// classify maps a go-github error into the domain error taxonomy. The
// original error stays in the chain for logging; callers branch on the
// sentinel via errors.Is.
func classify(err error) error {
	var rateErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError
	var ghErr *gh.ErrorResponse
	var netErr net.Error

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", model.ErrProviderTimeout, err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %w", model.ErrProviderTimeout, err)
	case errors.As(err, &rateErr) || errors.As(err, &abuseErr):
		return fmt.Errorf("%w: %w", model.ErrRateLimited, err)
	case errors.As(err, &ghErr) && ghErr.Response != nil:
		switch ghErr.Response.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %w", model.ErrAuthenticationFailed, err)
		}
	}

	return fmt.Errorf("%w: %w", model.ErrProviderUnavailable, err)
}

// mapRun converts a go-github WorkflowRun to the domain model. go-github does
// not expose a completion timestamp; UpdatedAt stands in for completed runs.
func mapRun(run *gh.WorkflowRun) model.WorkflowRun {
	var completedAt time.Time
	if run.GetStatus() == "completed" {
		completedAt = run.GetUpdatedAt().Time
	}

	startedAt := run.GetRunStartedAt().Time
	if startedAt.IsZero() {
		startedAt = run.GetCreatedAt().Time
	}

	prs := make([]int, 0, len(run.PullRequests))
	for _, pr := range run.PullRequests {
		prs = append(prs, pr.GetNumber())
	}

	return model.WorkflowRun{
		ID:           run.GetID(),
		Name:         run.GetName(),
		TriggerEvent: mapTrigger(run.GetEvent()),
		HeadSHA:      run.GetHeadSHA(),
		Actor:        run.GetActor().GetLogin(),
		Status:       mapStatus(run.GetStatus(), run.GetConclusion()),
		URL:          run.GetHTMLURL(),
		PullRequests: prs,
		StartedAt:    startedAt,
		CompletedAt:  completedAt,
	}
}

// mapStatus normalizes the GitHub status/conclusion pair into a RunStatus.
func mapStatus(status, conclusion string) model.RunStatus {
	if status != "completed" {
		// queued, in_progress, waiting, requested, pending
		return model.RunStatusInProgress
	}

	switch conclusion {
	case "success", "neutral":
		return model.RunStatusSuccess
	case "cancelled", "canceled", "skipped", "stale": //nolint:misspell // GitHub API uses British "cancelled"
		return model.RunStatusCancelled
	default:
		// failure, timed_out, action_required, startup_failure
		return model.RunStatusFailure
	}
}

// mapTrigger normalizes the GitHub event name into a TriggerEvent.
func mapTrigger(event string) model.TriggerEvent {
	switch {
	case strings.HasPrefix(event, "pull_request"):
		return model.TriggerPullRequest
	case event == "push":
		return model.TriggerPush
	default:
		return model.TriggerOther
	}
}

// mergedPRPattern matches the PR number GitHub embeds in merge and squash
// commit headlines ("Merge pull request #12 from ..." or "Fix thing (#12)").
var mergedPRPattern = regexp.MustCompile(`(?:Merge pull request #|\(#)(\d+)\)?`)

// mapCommitEvent converts a go-github RepositoryCommit to a domain CommitEvent.
func mapCommitEvent(c *gh.RepositoryCommit) model.CommitEvent {
	author := c.GetAuthor().GetLogin()
	if author == "" {
		author = c.GetCommit().GetAuthor().GetName()
	}

	var associatedPR int
	if m := mergedPRPattern.FindStringSubmatch(c.GetCommit().GetMessage()); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			associatedPR = n
		}
	}

	return model.CommitEvent{
		SHA:          c.GetSHA(),
		Author:       author,
		AssociatedPR: associatedPR,
		Timestamp:    c.GetCommit().GetAuthor().GetDate().Time,
	}
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string, page, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"page", page,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

// splitRepo splits a "owner/name" string into its two components.
func splitRepo(fullName string) (string, string, error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo name %q: expected owner/name", fullName)
	}
	return parts[0], parts[1], nil
}
