package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Lllllllleong/mediaingestflow/internal/models"
)

// StatusCompleted is the only job status that produces a transcript.
const StatusCompleted = "COMPLETED"

var (
	// ErrJobNotCompleted means the job result reported a status other than COMPLETED.
	ErrJobNotCompleted = errors.New("transcription job not completed")
	// ErrMalformedJobResult means the job result has no transcript to extract.
	ErrMalformedJobResult = errors.New("malformed transcription job result")
)

// processTranscription handles the job result object. On success it writes
// <original-key>.txt and deletes the job's working directory. On a
// non-success status nothing is written or deleted, so the result stays
// available for inspection.
func (p *Pipeline) processTranscription(ctx context.Context, logCtx *slog.Logger, rec models.StorageRecord) error {
	body, err := p.store.Get(ctx, rec.Bucket, rec.Key)
	if err != nil {
		return err
	}

	var result models.TranscriptionResult
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse job result %s: %w", rec.Key, err)
	}
	logCtx = logCtx.With("jobName", result.JobName, "jobStatus", result.Status)

	if result.Status != StatusCompleted {
		err := fmt.Errorf("%w: status %q", ErrJobNotCompleted, result.Status)
		p.finishJob(ctx, logCtx, rec, models.JobStatusFailed, err.Error())
		return err
	}
	if len(result.Results.Transcripts) == 0 {
		return fmt.Errorf("%w: no transcripts in %s", ErrMalformedJobResult, rec.Key)
	}
	transcript := result.Results.Transcripts[0].Transcript

	transcriptKey, err := TranscriptKey(rec.Key)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedJobResult, err)
	}
	cleanupPrefix, err := CleanupPrefix(rec.Key)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedJobResult, err)
	}

	logCtx.Info("Writing transcript.", "destObject", transcriptKey)
	if err := p.store.Put(ctx, rec.Bucket, transcriptKey, []byte(transcript)); err != nil {
		return err
	}

	logCtx.Info("Deleting job artifacts.", "prefix", cleanupPrefix)
	deleted, err := p.Cleanup(ctx, rec.Bucket, cleanupPrefix)
	if err != nil {
		return err
	}

	p.finishJob(ctx, logCtx, rec, models.JobStatusCompleted, "")
	logCtx.Info("Transcription processed.", "deletedCount", deleted)
	return nil
}

func (p *Pipeline) finishJob(ctx context.Context, logCtx *slog.Logger, rec models.StorageRecord, status, details string) {
	if p.jobs == nil {
		return
	}
	if err := p.jobs.MarkFinished(ctx, rec.Bucket, rec.Key, status, details); err != nil {
		logCtx.Warn("Failed to update transcription job record.", "status", status, "error", err)
	}
}
