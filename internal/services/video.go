package services

import (
	"context"
	"log/slog"

	"github.com/Lllllllleong/mediaingestflow/internal/models"
)

// processVideo submits one transcription job for the video and returns
// without waiting. Completion arrives later as a separate storage event on
// the job's output key.
func (p *Pipeline) processVideo(ctx context.Context, logCtx *slog.Logger, rec models.StorageRecord) error {
	submittedAt := p.now()
	req := models.TranscriptionJobRequest{
		JobName:      JobName(submittedAt, rec.Key),
		LanguageCode: p.config.LanguageCode,
		MediaFormat:  MediaFormat(rec.Key),
		MediaURI:     MediaURI(rec.Bucket, rec.Key),
		OutputBucket: rec.Bucket,
		OutputKey:    OutputKey(rec.Key),
	}
	logCtx = logCtx.With("jobName", req.JobName, "outputKey", req.OutputKey)

	logCtx.Info("Submitting transcription job.", "mediaUri", req.MediaURI, "mediaFormat", req.MediaFormat)
	if err := p.transcriber.Submit(ctx, req); err != nil {
		return err
	}

	if p.jobs != nil {
		job := models.TranscriptionJob{
			JobName:     req.JobName,
			Bucket:      rec.Bucket,
			SourceKey:   rec.Key,
			OutputKey:   req.OutputKey,
			KeyEncoding: KeyEncodingV1,
			Status:      models.JobStatusSubmitted,
			SubmittedAt: submittedAt,
			UpdatedAt:   submittedAt,
		}
		// The job is already running; failing here would only resubmit it on redelivery.
		if err := p.jobs.Create(ctx, job); err != nil {
			logCtx.Warn("Failed to record transcription job.", "error", err)
		}
	}

	logCtx.Info("Transcription job submitted.")
	return nil
}
