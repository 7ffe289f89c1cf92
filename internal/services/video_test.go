package services

import (
	"context"
	"testing"
	"time"

	"github.com/Lllllllleong/mediaingestflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideoSubmitsOneJob(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.pipeline.Process(context.Background(), event("media", "clip.mp4")))

	require.Len(t, h.transcriber.submitted, 1)
	req := h.transcriber.submitted[0]
	assert.Equal(t, "mp4", req.MediaFormat)
	assert.Equal(t, "en-US", req.LanguageCode)
	assert.Equal(t, "gs://media/clip.mp4", req.MediaURI)
	assert.Equal(t, "media", req.OutputBucket)
	assert.Equal(t, "clip.mp4/transcribe.out", req.OutputKey)
	assert.Equal(t, "2024-03-05-14-07-09-clip.mp4", req.JobName)

	assert.Empty(t, h.store.puts)
	assert.Empty(t, h.store.deleted)
}

func TestVideoKeyWithSpaces(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.pipeline.Process(context.Background(), event("media", "My Video.mp4")))

	req := h.transcriber.submitted[0]
	assert.Equal(t, "gs://media/My Video.mp4", req.MediaURI)
	assert.Equal(t, "2024-03-05-14-07-09-My_Video.mp4", req.JobName)
	assert.Equal(t, "My~20Video.mp4/transcribe.out", req.OutputKey)

	transcript, err := TranscriptKey(req.OutputKey)
	require.NoError(t, err)
	assert.Equal(t, "My Video.mp4.txt", transcript)
}

func TestVideoRecordsJob(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.pipeline.Process(context.Background(), event("media", "My Video.mp4")))

	require.Len(t, h.jobs.created, 1)
	job := h.jobs.created[0]
	assert.Equal(t, models.JobStatusSubmitted, job.Status)
	assert.Equal(t, "My Video.mp4", job.SourceKey)
	assert.Equal(t, "My~20Video.mp4/transcribe.out", job.OutputKey)
	assert.Equal(t, KeyEncodingV1, job.KeyEncoding)
	assert.Equal(t, time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC), job.SubmittedAt)
}

func TestVideoJobRecordFailureIsNotFatal(t *testing.T) {
	h := newHarness(t)
	h.jobs.createErr = errBoom

	require.NoError(t, h.pipeline.Process(context.Background(), event("media", "clip.mp4")))
	assert.Len(t, h.transcriber.submitted, 1)
}

func TestVideoSubmitFailurePropagates(t *testing.T) {
	h := newHarness(t)
	h.transcriber.err = errBoom

	err := h.pipeline.Process(context.Background(), event("media", "clip.mp4"))

	assert.ErrorIs(t, err, errBoom)
	assert.Empty(t, h.jobs.created)
}

func TestVideoWithoutJobRecorder(t *testing.T) {
	h := newHarness(t)
	h.pipeline.jobs = nil

	require.NoError(t, h.pipeline.Process(context.Background(), event("media", "clip.mp4")))
	assert.Len(t, h.transcriber.submitted, 1)
}

func TestVideoUsesConfiguredLanguage(t *testing.T) {
	h := newHarness(t)
	h.pipeline.config.LanguageCode = "de-DE"

	require.NoError(t, h.pipeline.Process(context.Background(), event("media", "clip.mp4")))
	assert.Equal(t, "de-DE", h.transcriber.submitted[0].LanguageCode)
}
