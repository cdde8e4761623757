/*
jobs.go - Durable processing jobs

PURPOSE:
  Every claim accepted at intake gets a durable job row recording which
  pipeline stage it has reached. The worker consumes jobs from an
  in-process queue, but the job row is the source of truth: on restart,
  pending jobs are reloaded from the store and resume from their
  recorded stage instead of being lost with the process.

RESUMABILITY:
  Each stage persists its output onto the claim record before the job
  advances, so a job resumed at "match" finds the digitized payloads it
  needs already on the claim.

SEE ALSO:
  - controller.go: The worker consuming these jobs
  - store/sqlite: The durable job store implementation
*/
package pipeline

import (
	"context"
	"time"
)

// Stage identifies the next pipeline stage a job has to run.
type Stage string

const (
	StageDigitize   Stage = "digitize"
	StageMatch      Stage = "match"
	StageAdjudicate Stage = "adjudicate"
)

// JobState tracks a job through its lifetime.
type JobState string

const (
	JobPending JobState = "pending"
	JobDone    JobState = "done"
	JobFailed  JobState = "failed"
)

// Job is one durable unit of claim processing.
type Job struct {
	ID        string
	ClaimID   string
	Stage     Stage
	State     JobState
	Attempts  int
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// JobStore persists processing jobs.
type JobStore interface {
	// Enqueue persists a new pending job.
	Enqueue(ctx context.Context, job *Job) error

	// Pending returns all pending jobs, oldest first.
	Pending(ctx context.Context) ([]*Job, error)

	// SetStage records stage progress and bumps the attempt counter.
	SetStage(ctx context.Context, id string, stage Stage) error

	// Complete marks the job done.
	Complete(ctx context.Context, id string) error

	// Fail marks the job failed with its cause.
	Fail(ctx context.Context, id string, cause string) error
}
