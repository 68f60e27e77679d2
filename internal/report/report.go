// Package report renders reconciled verdicts for humans and machines.
// Everything here is pure: no I/O, no clock reads, no provider access.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/ericfisherdev/deploywatch/internal/domain/model"
)

// Report is the machine-readable rendering of a query outcome.
type Report struct {
	Repo      string      `json:"repo"`
	Commit    string      `json:"commit,omitempty"`
	PR        int         `json:"pr,omitempty"`
	Verdict   string      `json:"verdict"`
	Author    string      `json:"author,omitempty"`
	Error     string      `json:"error,omitempty"`
	Run       *RunDetail  `json:"run,omitempty"`
	Evidence  []RunDetail `json:"evidence"`
	CheckedAt string      `json:"checked_at,omitempty"`
}

// RunDetail is the JSON representation of one workflow run.
type RunDetail struct {
	ID              int64  `json:"id"`
	Name            string `json:"name,omitempty"`
	Trigger         string `json:"trigger"`
	Commit          string `json:"commit"`
	Actor           string `json:"actor,omitempty"`
	Status          string `json:"status"`
	StartedAt       string `json:"started_at,omitempty"`
	CompletedAt     string `json:"completed_at,omitempty"`
	DurationSeconds int64  `json:"duration_seconds,omitempty"`
	URL             string `json:"url,omitempty"`
	DeploymentURL   string `json:"deployment_url,omitempty"`
}

// Build renders a reconciled verdict.
func Build(v model.ReconciledVerdict) Report {
	evidence := make([]RunDetail, 0, len(v.Evidence))
	for _, run := range v.Evidence {
		evidence = append(evidence, mapRun(run))
	}

	r := Report{
		Repo:     v.Target.Repo,
		Commit:   v.TargetCommit,
		PR:       v.Target.PRNumber,
		Verdict:  string(v.Verdict),
		Author:   v.Author,
		Evidence: evidence,
	}
	if !v.CheckedAt.IsZero() {
		r.CheckedAt = v.CheckedAt.UTC().Format(time.RFC3339)
	}
	if v.Matched != nil {
		run := mapRun(*v.Matched)
		r.Run = &run
	}
	return r
}

// BuildError renders a query that failed before producing a verdict. The
// verdict is unknown, never not_found: "no deployment found" and "could not
// determine status" are different answers.
func BuildError(target model.Target, err error) Report {
	return Report{
		Repo:     target.Repo,
		Commit:   target.CommitSHA,
		PR:       target.PRNumber,
		Verdict:  string(model.VerdictUnknown),
		Error:    err.Error(),
		Evidence: []RunDetail{},
	}
}

// ExitCode maps the report's verdict to the process exit code contract.
func (r Report) ExitCode() int {
	return model.Verdict(r.Verdict).ExitCode()
}

// Text renders the report for terminals.
func (r Report) Text() string {
	var b strings.Builder

	target := r.Repo
	if r.Commit != "" {
		target += "@" + abbreviate(r.Commit)
	}
	if r.PR != 0 {
		target += fmt.Sprintf(" (PR #%d)", r.PR)
	}

	fmt.Fprintf(&b, "target:   %s\n", target)
	fmt.Fprintf(&b, "verdict:  %s\n", r.Verdict)

	if r.Error != "" {
		fmt.Fprintf(&b, "error:    %s\n", r.Error)
	}
	if r.Author != "" {
		fmt.Fprintf(&b, "author:   %s\n", r.Author)
	}

	if r.Run != nil {
		fmt.Fprintf(&b, "run:      #%d %s (%s)\n", r.Run.ID, r.Run.Name, r.Run.Status)
		if r.Run.StartedAt != "" {
			fmt.Fprintf(&b, "started:  %s\n", r.Run.StartedAt)
		}
		if r.Run.CompletedAt != "" {
			fmt.Fprintf(&b, "finished: %s (%ds)\n", r.Run.CompletedAt, r.Run.DurationSeconds)
		}
		if r.Run.URL != "" {
			fmt.Fprintf(&b, "url:      %s\n", r.Run.URL)
		}
		if r.Run.DeploymentURL != "" {
			fmt.Fprintf(&b, "deployed: %s\n", r.Run.DeploymentURL)
		}
	}

	fmt.Fprintf(&b, "evidence: %d run(s)\n", len(r.Evidence))
	for _, run := range r.Evidence {
		fmt.Fprintf(&b, "  - #%d %s %s %s\n", run.ID, run.Status, abbreviate(run.Commit), run.StartedAt)
	}

	return b.String()
}

func mapRun(run model.WorkflowRun) RunDetail {
	d := RunDetail{
		ID:            run.ID,
		Name:          run.Name,
		Trigger:       string(run.TriggerEvent),
		Commit:        run.HeadSHA,
		Actor:         run.Actor,
		Status:        string(run.Status),
		URL:           run.URL,
		DeploymentURL: run.DeploymentURL,
	}
	if !run.StartedAt.IsZero() {
		d.StartedAt = run.StartedAt.UTC().Format(time.RFC3339)
	}
	if !run.CompletedAt.IsZero() {
		d.CompletedAt = run.CompletedAt.UTC().Format(time.RFC3339)
		d.DurationSeconds = int64(run.Duration().Seconds())
	}
	return d
}

func abbreviate(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
