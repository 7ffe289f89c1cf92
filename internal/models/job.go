package models

import "time"

// Job statuses stored on a TranscriptionJob side-record.
const (
	JobStatusSubmitted = "SUBMITTED"
	JobStatusCompleted = "COMPLETED"
	JobStatusFailed    = "FAILED"
	JobStatusTimedOut  = "TIMED_OUT"
)

// TranscriptionJob is the Firestore side-record for one asynchronous
// transcription job. It correlates a submission with its later completion
// event and is what the sweeper inspects for jobs that never finished.
type TranscriptionJob struct {
	JobName      string    `firestore:"jobName,omitempty"`
	Bucket       string    `firestore:"bucket,omitempty"`
	SourceKey    string    `firestore:"sourceKey,omitempty"`
	OutputKey    string    `firestore:"outputKey,omitempty"`
	KeyEncoding  string    `firestore:"keyEncoding,omitempty"`
	Status       string    `firestore:"status,omitempty"`
	ErrorDetails string    `firestore:"errorDetails,omitempty"`
	SubmittedAt  time.Time `firestore:"submittedAt,omitempty"`
	UpdatedAt    time.Time `firestore:"updatedAt,omitempty"`
}
