package services

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Lllllllleong/mediaingestflow/internal/models"
)

// FailedUpload records one upload the OCR fan-out could not complete.
type FailedUpload struct {
	Key string
	Err error
}

// FanoutResult is the outcome of OCR over a document's images. Upload
// failures are collected here instead of aborting the document.
type FanoutResult struct {
	Uploaded []string
	Failed   []FailedUpload
	Lines    int
}

// Err joins every failed upload, or returns nil.
func (r FanoutResult) Err() error {
	errs := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		errs = append(errs, fmt.Errorf("%s: %w", f.Key, f.Err))
	}
	return errors.Join(errs...)
}

func (r *FanoutResult) upload(ctx context.Context, store ObjectStore, logCtx *slog.Logger, localPath, bucket, key string) bool {
	if err := store.Upload(ctx, localPath, bucket, key); err != nil {
		logCtx.Warn("Upload failed. Continuing with remaining artifacts.", "localPath", localPath, "destObject", key, "error", err)
		r.Failed = append(r.Failed, FailedUpload{Key: key, Err: err})
		return false
	}
	r.Uploaded = append(r.Uploaded, key)
	return true
}

// processDocument downloads a PDF, extracts its embedded images and runs
// them through OCR. Images and OCR text stay in the bucket; documents get
// no cleanup pass.
func (p *Pipeline) processDocument(ctx context.Context, logCtx *slog.Logger, scratch string, rec models.StorageRecord) error {
	sourcePdfPath := filepath.Join(scratch, "source.pdf")
	logCtx.Info("Downloading document.", "localPath", sourcePdfPath)
	if err := p.store.Download(ctx, rec.Bucket, rec.Key, sourcePdfPath); err != nil {
		return err
	}

	imagesDir := filepath.Join(scratch, "images")
	if err := os.Mkdir(imagesDir, 0o700); err != nil {
		return fmt.Errorf("failed to create image dir: %w", err)
	}
	images, err := p.extractor.Extract(sourcePdfPath, imagesDir)
	if err != nil {
		return fmt.Errorf("failed to extract images: %w", err)
	}
	if len(images) == 0 {
		logCtx.Warn("Document has no embedded images. Nothing to OCR.")
		return nil
	}
	logCtx.Info("Extracted images from document.", "imageCount", len(images))

	result, err := p.fanOut(ctx, logCtx, images, scratch, rec.Bucket, rec.Key)
	if err != nil {
		return err
	}
	if len(result.Failed) > 0 {
		logCtx.Warn("Document processed with upload failures.", "failedCount", len(result.Failed), "error", result.Err())
	}
	logCtx.Info("Document processed.", "uploadedCount", len(result.Uploaded), "lineCount", result.Lines)
	return nil
}

// fanOut uploads each image under prefix, OCRs it, and appends its LINE
// text to one aggregate file. The aggregate is then uploaded to
// prefix/textract.txt and duplicated under every image key as
// <image-key>/textract.txt for every image whose upload succeeded. Upload
// failures are collected; OCR failures abort.
func (p *Pipeline) fanOut(ctx context.Context, logCtx *slog.Logger, images []models.ExtractedImage, workDir, bucket, prefix string) (FanoutResult, error) {
	var result FanoutResult

	aggregatePath := filepath.Join(workDir, OCRArtifactName)
	aggregateFile, err := os.Create(aggregatePath)
	if err != nil {
		return result, fmt.Errorf("failed to create OCR aggregate: %w", err)
	}
	defer aggregateFile.Close()
	aggregate := bufio.NewWriter(aggregateFile)

	imageKeys := make([]string, 0, len(images))
	for _, img := range images {
		imageKey := ChildKey(prefix, img.Name)
		logCtx.Info("Uploading image.", "localPath", img.Path, "destObject", imageKey)
		if result.upload(ctx, p.store, logCtx, img.Path, bucket, imageKey) {
			imageKeys = append(imageKeys, imageKey)
		}

		data, err := os.ReadFile(img.Path)
		if err != nil {
			return result, fmt.Errorf("failed to read image %s: %w", img.Path, err)
		}
		blocks, err := p.ocr.Analyze(ctx, models.OCRRequest{
			Image:    data,
			MIMEType: img.MIMEType,
			Features: []string{models.FeatureForms, models.FeatureTables},
		})
		if err != nil {
			return result, fmt.Errorf("OCR failed for %s: %w", imageKey, err)
		}
		for _, line := range LineTexts(blocks) {
			if _, err := fmt.Fprintln(aggregate, line); err != nil {
				return result, fmt.Errorf("failed to write OCR aggregate: %w", err)
			}
			result.Lines++
		}
	}

	if err := aggregate.Flush(); err != nil {
		return result, fmt.Errorf("failed to flush OCR aggregate: %w", err)
	}
	if err := aggregateFile.Close(); err != nil {
		return result, fmt.Errorf("failed to close OCR aggregate: %w", err)
	}

	result.upload(ctx, p.store, logCtx, aggregatePath, bucket, ChildKey(prefix, OCRArtifactName))
	for _, imageKey := range imageKeys {
		result.upload(ctx, p.store, logCtx, aggregatePath, bucket, ChildKey(imageKey, OCRArtifactName))
	}
	return result, nil
}

// LineTexts returns the text of LINE blocks in the order given. Every other
// block type is ignored.
func LineTexts(blocks []models.OCRBlock) []string {
	var lines []string
	for _, b := range blocks {
		if b.Type == models.BlockLine {
			lines = append(lines, b.Text)
		}
	}
	return lines
}
