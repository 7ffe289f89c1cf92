package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/Lllllllleong/mediaingestflow/internal/models"
	"github.com/google/uuid"
)

// ObjectStore is the object storage the pipeline reads from and writes to.
type ObjectStore interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, body []byte) error
	Download(ctx context.Context, bucket, key, localPath string) error
	Upload(ctx context.Context, localPath, bucket, key string) error
	List(ctx context.Context, bucket, prefix string) ([]string, error)
	DeleteObjects(ctx context.Context, bucket string, keys []string) error
}

// ImageExtractor writes the raster images embedded in a PDF to outDir.
type ImageExtractor interface {
	Extract(pdfPath, outDir string) ([]models.ExtractedImage, error)
}

// OCREngine recognizes typed text blocks in image bytes.
type OCREngine interface {
	Analyze(ctx context.Context, req models.OCRRequest) ([]models.OCRBlock, error)
}

// Transcriber submits an asynchronous transcription job.
type Transcriber interface {
	Submit(ctx context.Context, req models.TranscriptionJobRequest) error
}

// JobRecorder keeps the side-record of submitted transcription jobs.
type JobRecorder interface {
	Create(ctx context.Context, job models.TranscriptionJob) error
	MarkFinished(ctx context.Context, bucket, outputKey, status, errDetails string) error
}

// Route is the pipeline branch selected for a created object.
type Route int

const (
	RouteNone Route = iota
	RouteDocument
	RouteVideo
	RouteTranscription
)

func (r Route) String() string {
	switch r {
	case RouteDocument:
		return "document"
	case RouteVideo:
		return "video"
	case RouteTranscription:
		return "transcription"
	default:
		return "none"
	}
}

// Classify picks the branch for key by case-sensitive suffix. The order
// matters and the first match wins.
func Classify(key string) Route {
	switch {
	case strings.HasSuffix(key, ".pdf"):
		return RouteDocument
	case strings.HasSuffix(key, ".mp4"):
		return RouteVideo
	case strings.HasSuffix(key, CompletionMarker):
		return RouteTranscription
	default:
		return RouteNone
	}
}

// PipelineConfig holds the settings the branches need at run time.
type PipelineConfig struct {
	LanguageCode string
	ScratchDir   string
}

// Pipeline routes storage-creation events through the document, video and
// transcription-completion branches.
type Pipeline struct {
	store       ObjectStore
	extractor   ImageExtractor
	ocr         OCREngine
	transcriber Transcriber
	jobs        JobRecorder
	config      PipelineConfig
	now         func() time.Time
}

// NewPipeline wires the pipeline. jobs may be nil, in which case no job
// side-records are kept.
func NewPipeline(store ObjectStore, extractor ImageExtractor, ocr OCREngine, transcriber Transcriber, jobs JobRecorder, config PipelineConfig) *Pipeline {
	if config.LanguageCode == "" {
		config.LanguageCode = defaultLanguageCode
	}
	return &Pipeline{
		store:       store,
		extractor:   extractor,
		ocr:         ocr,
		transcriber: transcriber,
		jobs:        jobs,
		config:      config,
		now:         time.Now,
	}
}

// Process handles the event's records one at a time, in order. The first
// failing record stops the batch and its error is returned.
func (p *Pipeline) Process(ctx context.Context, e models.StorageEvent) error {
	logCtx := slog.With("eventId", e.ID)
	logCtx.Info("Processing storage event.", "recordCount", len(e.Records))

	for _, rec := range e.Records {
		if err := p.processRecord(ctx, e.ID, rec); err != nil {
			return err
		}
	}

	logCtx.Info("Storage event processed.")
	return nil
}

func (p *Pipeline) processRecord(ctx context.Context, eventID string, rec models.StorageRecord) error {
	route := Classify(rec.Key)
	logCtx := slog.With("eventId", eventID, "gcsBucket", rec.Bucket, "gcsObject", rec.Key, "route", route.String())

	var err error
	switch route {
	case RouteDocument:
		err = p.withScratch(eventID, func(scratch string) error {
			return p.processDocument(ctx, logCtx, scratch, rec)
		})
	case RouteVideo:
		err = p.processVideo(ctx, logCtx, rec)
	case RouteTranscription:
		err = p.processTranscription(ctx, logCtx, rec)
	default:
		logCtx.Debug("No branch for object. Skipping.")
		return nil
	}
	if err != nil {
		logCtx.Error("Record processing failed.", "error", err)
		return err
	}
	return nil
}

var unsafeScratchChars = regexp.MustCompile(`[^A-Za-z0-9-]+`)

// withScratch runs fn with a fresh scratch directory owned by this request
// and removes it afterwards, whatever fn returns.
func (p *Pipeline) withScratch(eventID string, fn func(scratch string) error) error {
	id := unsafeScratchChars.ReplaceAllString(eventID, "-")
	if id == "" {
		id = uuid.NewString()
	}
	scratch, err := os.MkdirTemp(p.config.ScratchDir, "ingest-"+id+"-*")
	if err != nil {
		return fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)
	return fn(scratch)
}
