package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/mediaingestflow/internal/models"
	"github.com/Lllllllleong/mediaingestflow/internal/services"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

var (
	pipelineInstance *services.Pipeline
	once             sync.Once
	initErr          error
)

// gcsObjectData is the subset of the Cloud Storage object payload we route on.
type gcsObjectData struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.CloudEvent("RouteStorageObject", routeStorageObject)
}

// main is required by the Go Functions Framework.
func main() {}

// routeStorageObject is the Cloud Function entry point for object
// finalize events.
func routeStorageObject(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		pipelineInstance, initErr = newPipeline(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	event, err := decodeStorageEvent(e)
	if err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return err
	}

	// Errors are already logged with context within Process. Returning one
	// marks the invocation as failed so the trigger's retry policy applies.
	return pipelineInstance.Process(ctx, event)
}

func decodeStorageEvent(e cloudevents.Event) (models.StorageEvent, error) {
	var data gcsObjectData
	if err := json.Unmarshal(e.Data(), &data); err != nil {
		return models.StorageEvent{}, fmt.Errorf("json.Unmarshal: %w", err)
	}
	if data.Bucket == "" || data.Name == "" {
		return models.StorageEvent{}, fmt.Errorf("event %s is missing bucket or object name", e.ID())
	}
	return models.StorageEvent{
		ID:      e.ID(),
		Records: []models.StorageRecord{{Bucket: data.Bucket, Key: data.Name}},
	}, nil
}
