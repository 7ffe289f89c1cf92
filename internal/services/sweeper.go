package services

import (
	"context"
	"log/slog"
	"time"
)

// JobExpirer marks submitted jobs older than a cutoff as timed out.
type JobExpirer interface {
	ExpireBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// Sweeper closes out transcription jobs whose completion event never
// arrived. It only touches job records, never storage objects.
type Sweeper struct {
	jobs     JobExpirer
	deadline time.Duration
	now      func() time.Time
}

// NewSweeper returns a Sweeper that expires jobs older than deadline.
func NewSweeper(jobs JobExpirer, deadline time.Duration) *Sweeper {
	return &Sweeper{jobs: jobs, deadline: deadline, now: time.Now}
}

// Sweep expires stale jobs and returns how many it marked.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.deadline)
	logCtx := slog.With("cutoff", cutoff.UTC().Format(time.RFC3339))
	logCtx.Info("Sweeping stale transcription jobs.")

	swept, err := s.jobs.ExpireBefore(ctx, cutoff)
	if err != nil {
		logCtx.Error("Job sweep failed.", "error", err, "sweptBeforeFailure", swept)
		return swept, err
	}
	if swept > 0 {
		logCtx.Warn("Transcription jobs timed out.", "sweptCount", swept)
	} else {
		logCtx.Info("No stale transcription jobs.")
	}
	return swept, nil
}
