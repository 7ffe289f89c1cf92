package services

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/Lllllllleong/mediaingestflow/internal/gcp"
	"github.com/joho/godotenv"
)

const (
	defaultLanguageCode = "en-US"

	OCRBackendTesseract = "tesseract"
	OCRBackendVertex    = "vertex"
)

// Config holds all configuration for the ingest functions.
type Config struct {
	ProjectID        string
	LanguageCode     string
	WorkflowID       string
	WorkflowLocation string
	JobsCollection   string
	OCRBackend       string
	OCRLanguages     []string
	VertexAIRegion   string
	ScratchDir       string
	JobDeadline      time.Duration
}

// LoadConfig loads and validates all necessary environment variables. A
// .env file in the working directory is read first when one exists.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}

	deadline, err := time.ParseDuration(gcp.GetEnv("JOB_DEADLINE", "6h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JOB_DEADLINE: %w", err)
	}
	if deadline <= 0 {
		return nil, fmt.Errorf("JOB_DEADLINE must be positive, got %s", deadline)
	}

	config := &Config{
		ProjectID:        projectID,
		LanguageCode:     gcp.GetEnv("TRANSCRIBE_LANGUAGE", defaultLanguageCode),
		WorkflowID:       gcp.GetEnv("TRANSCRIBE_WORKFLOW_ID", "transcription-job"),
		WorkflowLocation: gcp.GetEnv("WORKFLOW_LOCATION", "us-central1"),
		JobsCollection:   gcp.GetEnv("JOBS_COLLECTION", "transcription-jobs"),
		OCRBackend:       gcp.GetEnv("OCR_BACKEND", OCRBackendTesseract),
		OCRLanguages:     strings.Split(gcp.GetEnv("OCR_LANGUAGES", "eng"), "+"),
		VertexAIRegion:   gcp.GetEnv("VERTEX_AI_REGION", "us-central1"),
		ScratchDir:       gcp.GetEnv("SCRATCH_DIR", ""),
		JobDeadline:      deadline,
	}
	switch config.OCRBackend {
	case OCRBackendTesseract, OCRBackendVertex:
	default:
		return nil, fmt.Errorf("OCR_BACKEND must be %q or %q, got %q", OCRBackendTesseract, OCRBackendVertex, config.OCRBackend)
	}
	return config, nil
}

// PipelineConfig extracts the run-time settings for NewPipeline.
func (c *Config) PipelineConfig() PipelineConfig {
	return PipelineConfig{
		LanguageCode: c.LanguageCode,
		ScratchDir:   c.ScratchDir,
	}
}
