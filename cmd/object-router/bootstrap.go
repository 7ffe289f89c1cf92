package main

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/storage"
	executions "cloud.google.com/go/workflows/executions/apiv1"
	"github.com/Lllllllleong/mediaingestflow/internal/gcp"
	"github.com/Lllllllleong/mediaingestflow/internal/ocr"
	"github.com/Lllllllleong/mediaingestflow/internal/pdfimages"
	"github.com/Lllllllleong/mediaingestflow/internal/services"
)

// newPipeline builds the pipeline and its cloud clients from the environment.
func newPipeline(ctx context.Context) (*services.Pipeline, error) {
	config, err := services.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	executionsClient, err := executions.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
	}

	var engine services.OCREngine
	switch config.OCRBackend {
	case services.OCRBackendVertex:
		engine, err = gcp.NewVertexOCR(ctx, config.ProjectID, config.VertexAIRegion)
		if err != nil {
			return nil, fmt.Errorf("failed to create vertex OCR client: %w", err)
		}
	default:
		engine = ocr.NewTesseract(config.OCRLanguages...)
	}

	pipeline := services.NewPipeline(
		gcp.NewObjectStore(storageClient),
		pdfimages.NewExtractor(),
		engine,
		gcp.NewWorkflowTranscriber(executionsClient, config.ProjectID, config.WorkflowLocation, config.WorkflowID),
		gcp.NewJobStore(firestoreClient, config.JobsCollection),
		config.PipelineConfig(),
	)
	slog.Info("Object router initialized.", "ocrBackend", config.OCRBackend, "workflowId", config.WorkflowID)
	return pipeline, nil
}
