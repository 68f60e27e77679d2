package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ericfisherdev/deploywatch/internal/domain/model"
	"github.com/ericfisherdev/deploywatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.VerdictStore = (*VerdictRepo)(nil)

// VerdictRepo is the SQLite implementation of the VerdictStore port.
// It flattens the authoritative run into the verdict row; the evidence list
// is query-scoped and not persisted, so verdicts read back carry an empty
// evidence slice.
type VerdictRepo struct {
	db *DB
}

// NewVerdictRepo creates a new VerdictRepo backed by the given DB.
func NewVerdictRepo(db *DB) *VerdictRepo {
	return &VerdictRepo{db: db}
}

// Record appends a completed query's verdict to the history.
func (r *VerdictRepo) Record(ctx context.Context, v model.ReconciledVerdict) error {
	const query = `
		INSERT INTO verdicts
		(repo, target_commit, pr_number, verdict, author,
		 run_id, run_name, run_status, run_url, deployment_url,
		 started_at, completed_at, checked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var runID, runName, runStatus, runURL, deployURL, startedAt, completedAt any
	if v.Matched != nil {
		runID = v.Matched.ID
		runName = v.Matched.Name
		runStatus = string(v.Matched.Status)
		runURL = v.Matched.URL
		deployURL = v.Matched.DeploymentURL
		if !v.Matched.StartedAt.IsZero() {
			startedAt = v.Matched.StartedAt.UTC().Format(time.RFC3339)
		}
		if !v.Matched.CompletedAt.IsZero() {
			completedAt = v.Matched.CompletedAt.UTC().Format(time.RFC3339)
		}
	}

	checkedAt := v.CheckedAt
	if checkedAt.IsZero() {
		checkedAt = time.Now()
	}

	if _, err := r.db.Writer.ExecContext(ctx, query,
		v.Target.Repo, v.TargetCommit, v.Target.PRNumber, string(v.Verdict), v.Author,
		runID, runName, runStatus, runURL, deployURL,
		startedAt, completedAt, checkedAt.UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("insert verdict for %s: %w", v.Target.String(), err)
	}

	return nil
}

// ListByRepo returns the most recent verdicts for a repository, newest first.
func (r *VerdictRepo) ListByRepo(ctx context.Context, repo string, limit int) ([]model.ReconciledVerdict, error) {
	if limit <= 0 {
		limit = 20
	}

	const query = `
		SELECT repo, target_commit, pr_number, verdict, author,
		       run_id, run_name, run_status, run_url, deployment_url,
		       started_at, completed_at, checked_at
		FROM verdicts
		WHERE repo = ?
		ORDER BY checked_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, repo, limit)
	if err != nil {
		return nil, fmt.Errorf("query verdicts for %s: %w", repo, err)
	}
	defer rows.Close()

	var verdicts []model.ReconciledVerdict
	for rows.Next() {
		v, err := scanVerdict(rows)
		if err != nil {
			return nil, fmt.Errorf("scan verdict: %w", err)
		}
		verdicts = append(verdicts, *v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verdicts: %w", err)
	}

	return verdicts, nil
}

// Latest returns the most recent verdict for the exact target commit, or nil.
func (r *VerdictRepo) Latest(ctx context.Context, repo, commitSHA string) (*model.ReconciledVerdict, error) {
	const query = `
		SELECT repo, target_commit, pr_number, verdict, author,
		       run_id, run_name, run_status, run_url, deployment_url,
		       started_at, completed_at, checked_at
		FROM verdicts
		WHERE repo = ? AND target_commit = ?
		ORDER BY checked_at DESC, id DESC
		LIMIT 1
	`

	row := r.db.Reader.QueryRowContext(ctx, query, repo, commitSHA)
	v, err := scanVerdict(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("query latest verdict for %s@%s: %w", repo, commitSHA, err)
	}

	return v, nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanVerdict.
type scanner interface {
	Scan(dest ...any) error
}

func scanVerdict(s scanner) (*model.ReconciledVerdict, error) {
	var (
		v          model.ReconciledVerdict
		verdictStr string
		runID      sql.NullInt64
		runName    sql.NullString
		runStatus  sql.NullString
		runURL     sql.NullString
		deployURL  sql.NullString
		startedAt  sql.NullString
		completed  sql.NullString
		checkedAt  string
	)

	if err := s.Scan(
		&v.Target.Repo, &v.TargetCommit, &v.Target.PRNumber, &verdictStr, &v.Author,
		&runID, &runName, &runStatus, &runURL, &deployURL,
		&startedAt, &completed, &checkedAt,
	); err != nil {
		return nil, err
	}

	v.Target.CommitSHA = v.TargetCommit
	v.Verdict = model.Verdict(verdictStr)

	if t, err := time.Parse(time.RFC3339, checkedAt); err == nil {
		v.CheckedAt = t
	}

	if runID.Valid {
		run := model.WorkflowRun{
			ID:            runID.Int64,
			Name:          runName.String,
			HeadSHA:       v.TargetCommit,
			Status:        model.RunStatus(runStatus.String),
			URL:           runURL.String,
			DeploymentURL: deployURL.String,
		}
		if startedAt.Valid {
			if t, err := time.Parse(time.RFC3339, startedAt.String); err == nil {
				run.StartedAt = t
			}
		}
		if completed.Valid {
			if t, err := time.Parse(time.RFC3339, completed.String); err == nil {
				run.CompletedAt = t
			}
		}
		v.Matched = &run
	}

	return &v, nil
}
