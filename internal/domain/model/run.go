package model

import "time"

// RunStatus is the normalized terminal (or in-flight) state of a workflow run.
type RunStatus string

const (
	RunStatusSuccess    RunStatus = "success"
	RunStatusFailure    RunStatus = "failure"
	RunStatusInProgress RunStatus = "in_progress"
	RunStatusCancelled  RunStatus = "cancelled"
)

// Completed reports whether the run has reached a terminal state.
func (s RunStatus) Completed() bool {
	return s != RunStatusInProgress
}

// TriggerEvent identifies what caused a workflow run.
type TriggerEvent string

const (
	TriggerPullRequest TriggerEvent = "pull_request"
	TriggerPush        TriggerEvent = "push"
	TriggerOther       TriggerEvent = "other"
)

// WorkflowRun represents one execution of a build/deploy workflow as reported
// by the CI provider. Runs are externally sourced and never mutated locally;
// a completed run is immutable.
type WorkflowRun struct {
	ID            int64        // Provider run ID, unique per repository.
	Name          string       // Workflow name (e.g., "Deploy to Cloud Run").
	TriggerEvent  TriggerEvent // What started the run.
	HeadSHA       string       // Commit the run executed against.
	Actor         string       // Login that triggered the run.
	Status        RunStatus    // Normalized status/conclusion.
	URL           string       // HTML URL of the run.
	DeploymentURL string       // Publicly reported deploy target, when the provider exposes one.
	PullRequests  []int        // PR numbers the provider associates with the run.
	StartedAt     time.Time    // When the run started.
	CompletedAt   time.Time    // When the run completed (zero if still in flight).
}

// Duration returns the wall-clock duration of a completed run, or zero for a
// run that has not completed.
func (r WorkflowRun) Duration() time.Duration {
	if r.CompletedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// ReferencesPR reports whether the run is associated with the given PR number.
func (r WorkflowRun) ReferencesPR(number int) bool {
	for _, n := range r.PullRequests {
		if n == number {
			return true
		}
	}
	return false
}

// CommitEvent is a commit observed on the repository's event stream.
// Read-only input; used to expand abbreviated target SHAs and to attribute
// verdicts to an author.
type CommitEvent struct {
	SHA          string    // Full commit SHA.
	Ref          string    // Branch name the commit landed on.
	Author       string    // Commit author login.
	AssociatedPR int       // PR whose merge produced the commit (0 if none known).
	Timestamp    time.Time // Commit timestamp.
}
