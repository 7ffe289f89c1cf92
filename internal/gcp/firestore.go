package gcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/mediaingestflow/internal/models"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

// ErrJobNotFound is returned when no side-record matches an output key.
var ErrJobNotFound = errors.New("transcription job record not found")

// NewFirestoreClient creates and returns a new Firestore client for the given project ID.
// It centralizes client creation for all services.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// JobStore keeps TranscriptionJob side-records in a Firestore collection.
type JobStore struct {
	client     *firestore.Client
	collection string
}

// NewJobStore returns a JobStore over the named collection.
func NewJobStore(client *firestore.Client, collection string) *JobStore {
	return &JobStore{client: client, collection: collection}
}

// Create stores a new job record under a random document ID. Job names can
// contain '/', which Firestore does not allow in IDs.
func (s *JobStore) Create(ctx context.Context, job models.TranscriptionJob) error {
	if _, err := s.client.Collection(s.collection).Doc(uuid.NewString()).Create(ctx, job); err != nil {
		return fmt.Errorf("failed to create job record %s: %w", job.JobName, err)
	}
	return nil
}

// MarkFinished sets the status of the most recent job writing to outputKey.
func (s *JobStore) MarkFinished(ctx context.Context, bucket, outputKey, status, errDetails string) error {
	docs, err := s.client.Collection(s.collection).
		Where("bucket", "==", bucket).
		Where("outputKey", "==", outputKey).
		Where("status", "==", models.JobStatusSubmitted).
		Limit(1).
		Documents(ctx).GetAll()
	if err != nil {
		return fmt.Errorf("failed to query job record for %s: %w", outputKey, err)
	}
	if len(docs) == 0 {
		return ErrJobNotFound
	}
	return s.update(ctx, docs[0].Ref, status, errDetails)
}

// ExpireBefore marks every SUBMITTED job submitted before cutoff as
// TIMED_OUT and returns how many it changed.
func (s *JobStore) ExpireBefore(ctx context.Context, cutoff time.Time) (int, error) {
	it := s.client.Collection(s.collection).
		Where("status", "==", models.JobStatusSubmitted).
		Where("submittedAt", "<", cutoff).
		Documents(ctx)
	defer it.Stop()

	var expired int
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return expired, fmt.Errorf("failed to list stale jobs: %w", err)
		}
		details := fmt.Sprintf("no completion event before %s", cutoff.UTC().Format(time.RFC3339))
		if err := s.update(ctx, doc.Ref, models.JobStatusTimedOut, details); err != nil {
			return expired, err
		}
		expired++
	}
	return expired, nil
}

func (s *JobStore) update(ctx context.Context, docRef *firestore.DocumentRef, status, errDetails string) error {
	updates := []firestore.Update{
		{Path: "status", Value: status},
		{Path: "updatedAt", Value: time.Now()},
	}
	if errDetails != "" {
		updates = append(updates, firestore.Update{Path: "errorDetails", Value: errDetails})
	}
	if _, err := docRef.Update(ctx, updates); err != nil {
		return fmt.Errorf("failed to update job record %s: %w", docRef.ID, err)
	}
	return nil
}
