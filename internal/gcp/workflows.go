package gcp

import (
	"context"
	"encoding/json"
	"fmt"

	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"
	"github.com/Lllllllleong/mediaingestflow/internal/models"
)

// WorkflowTranscriber submits transcription jobs as Cloud Workflows
// executions. The workflow runs speech-to-text and writes the job result
// object to the requested output location; nothing here waits for it.
type WorkflowTranscriber struct {
	client *executions.Client
	parent string
}

// NewWorkflowTranscriber targets projects/<project>/locations/<location>/workflows/<workflowID>.
func NewWorkflowTranscriber(client *executions.Client, projectID, location, workflowID string) *WorkflowTranscriber {
	return &WorkflowTranscriber{
		client: client,
		parent: fmt.Sprintf("projects/%s/locations/%s/workflows/%s", projectID, location, workflowID),
	}
}

// Submit starts one workflow execution for req and returns once it is accepted.
func (t *WorkflowTranscriber) Submit(ctx context.Context, req models.TranscriptionJobRequest) error {
	payloadBytes, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal transcription job payload: %w", err)
	}
	execReq := &executionspb.CreateExecutionRequest{
		Parent: t.parent,
		Execution: &executionspb.Execution{
			Argument: string(payloadBytes),
		},
	}
	if _, err := t.client.CreateExecution(ctx, execReq); err != nil {
		return fmt.Errorf("failed to start transcription job %s: %w", req.JobName, err)
	}
	return nil
}
