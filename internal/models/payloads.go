package models

// StorageRecord identifies one created object. Keys are already decoded.
type StorageRecord struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// StorageEvent is one invocation's batch of storage-creation records.
type StorageEvent struct {
	ID      string          `json:"id"`
	Records []StorageRecord `json:"records"`
}

// TranscriptionJobRequest is the argument passed to the transcription
// workflow. The workflow writes its result to OutputBucket/OutputKey.
type TranscriptionJobRequest struct {
	JobName      string `json:"jobName"`
	LanguageCode string `json:"languageCode"`
	MediaFormat  string `json:"mediaFormat"`
	MediaURI     string `json:"mediaUri"`
	OutputBucket string `json:"outputBucket"`
	OutputKey    string `json:"outputKey"`
}

// TranscriptionResult is the job result object deposited at the output key.
type TranscriptionResult struct {
	JobName string `json:"jobName"`
	Status  string `json:"status"`
	Results struct {
		Transcripts []struct {
			Transcript string `json:"transcript"`
		} `json:"transcripts"`
	} `json:"results"`
}

// SweepJobsResponse is returned by the job-sweeper function.
type SweepJobsResponse struct {
	Status string `json:"status"`
	Swept  int    `json:"swept"`
}
