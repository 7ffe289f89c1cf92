package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/mediaingestflow/internal/gcp"
	"github.com/Lllllllleong/mediaingestflow/internal/models"
	"github.com/Lllllllleong/mediaingestflow/internal/services"
)

var (
	sweeperInstance *services.Sweeper
	once            sync.Once
	initErr         error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("HandleSweepJobs", handleSweepJobs)
}

func main() {}

func newSweeper(ctx context.Context) (*services.Sweeper, error) {
	config, err := services.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return services.NewSweeper(gcp.NewJobStore(firestoreClient, config.JobsCollection), config.JobDeadline), nil
}

// handleSweepJobs is the HTTP handler invoked on a schedule.
func handleSweepJobs(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		sweeperInstance, initErr = newSweeper(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical: Sweeper initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	swept, err := sweeperInstance.Sweep(r.Context())
	if err != nil {
		// Error is already logged with context in the Sweep method.
		http.Error(w, "Internal Server Error: sweep failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(models.SweepJobsResponse{Status: "success", Swept: swept}); err != nil {
		slog.Error("Failed to write response", "error", err, "swept", swept)
		http.Error(w, "Internal Server Error: failed to encode response", http.StatusInternalServerError)
	}
}
