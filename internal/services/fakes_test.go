package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Lllllllleong/mediaingestflow/internal/models"
)

type memStore struct {
	mu         sync.Mutex
	objects    map[string][]byte
	puts       []string
	deleted    []string
	deleteCall int
	failUpload map[string]error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, failUpload: map[string]error{}}
}

func objectID(bucket, key string) string { return bucket + "/" + key }

func (s *memStore) seed(bucket, key, body string) {
	s.objects[objectID(bucket, key)] = []byte(body)
}

func (s *memStore) body(bucket, key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[objectID(bucket, key)]
	return string(b), ok
}

func (s *memStore) Get(_ context.Context, bucket, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[objectID(bucket, key)]
	if !ok {
		return nil, fmt.Errorf("gs://%s/%s: object not found", bucket, key)
	}
	return b, nil
}

func (s *memStore) Put(_ context.Context, bucket, key string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objectID(bucket, key)] = append([]byte(nil), body...)
	s.puts = append(s.puts, key)
	return nil
}

func (s *memStore) Download(ctx context.Context, bucket, key, localPath string) error {
	b, err := s.Get(ctx, bucket, key)
	if err != nil {
		return err
	}
	return os.WriteFile(localPath, b, 0o600)
}

func (s *memStore) Upload(ctx context.Context, localPath, bucket, key string) error {
	if err, ok := s.failUpload[key]; ok {
		return err
	}
	b, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	return s.Put(ctx, bucket, key, b)
}

func (s *memStore) List(_ context.Context, bucket, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for id := range s.objects {
		key, ok := strings.CutPrefix(id, bucket+"/")
		if ok && strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *memStore) DeleteObjects(_ context.Context, bucket string, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCall++
	for _, key := range keys {
		delete(s.objects, objectID(bucket, key))
		s.deleted = append(s.deleted, key)
	}
	return nil
}

// fakeExtractor writes one file per named image with the given contents.
type fakeExtractor struct {
	images []models.ExtractedImage
	data   map[string]string
	err    error
}

func (f *fakeExtractor) Extract(_ string, outDir string) ([]models.ExtractedImage, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.ExtractedImage, 0, len(f.images))
	for _, img := range f.images {
		img.Path = filepath.Join(outDir, img.Name)
		if err := os.WriteFile(img.Path, []byte(f.data[img.Name]), 0o600); err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, nil
}

// fakeOCR returns the blocks registered for the exact image bytes.
type fakeOCR struct {
	blocks   map[string][]models.OCRBlock
	requests []models.OCRRequest
	err      error
}

func (f *fakeOCR) Analyze(_ context.Context, req models.OCRRequest) ([]models.OCRBlock, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.blocks[string(req.Image)], nil
}

type fakeTranscriber struct {
	submitted []models.TranscriptionJobRequest
	err       error
}

func (f *fakeTranscriber) Submit(_ context.Context, req models.TranscriptionJobRequest) error {
	if f.err != nil {
		return f.err
	}
	f.submitted = append(f.submitted, req)
	return nil
}

type finishedJob struct {
	bucket, outputKey, status, details string
}

type fakeJobs struct {
	created   []models.TranscriptionJob
	finished  []finishedJob
	createErr error
	cutoffs   []time.Time
	expired   int
}

func (f *fakeJobs) Create(_ context.Context, job models.TranscriptionJob) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, job)
	return nil
}

func (f *fakeJobs) MarkFinished(_ context.Context, bucket, outputKey, status, details string) error {
	f.finished = append(f.finished, finishedJob{bucket, outputKey, status, details})
	return nil
}

func (f *fakeJobs) ExpireBefore(_ context.Context, cutoff time.Time) (int, error) {
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.expired, nil
}

var errBoom = errors.New("boom")

type harness struct {
	store       *memStore
	extractor   *fakeExtractor
	ocr         *fakeOCR
	transcriber *fakeTranscriber
	jobs        *fakeJobs
	pipeline    *Pipeline
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:       newMemStore(),
		extractor:   &fakeExtractor{data: map[string]string{}},
		ocr:         &fakeOCR{blocks: map[string][]models.OCRBlock{}},
		transcriber: &fakeTranscriber{},
		jobs:        &fakeJobs{},
	}
	h.pipeline = NewPipeline(h.store, h.extractor, h.ocr, h.transcriber, h.jobs, PipelineConfig{ScratchDir: t.TempDir()})
	h.pipeline.now = func() time.Time { return time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC) }
	return h
}

func event(bucket string, keys ...string) models.StorageEvent {
	e := models.StorageEvent{ID: "evt-1"}
	for _, k := range keys {
		e.Records = append(e.Records, models.StorageRecord{Bucket: bucket, Key: k})
	}
	return e
}
