package services

import (
	"context"
	"errors"
	"log/slog"
)

// deleteBatchSize caps the keys handed to one DeleteObjects call.
const deleteBatchSize = 1000

var errEmptyPrefix = errors.New("refusing to clean up an empty prefix")

// Cleanup deletes every object in bucket whose key starts with prefix and
// returns how many were deleted. No matching objects is not an error.
func (p *Pipeline) Cleanup(ctx context.Context, bucket, prefix string) (int, error) {
	if prefix == "" {
		return 0, errEmptyPrefix
	}
	logCtx := slog.With("gcsBucket", bucket, "prefix", prefix)

	keys, err := p.store.List(ctx, bucket, prefix)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		logCtx.Info("No objects found under prefix.")
		return 0, nil
	}

	deleted := 0
	for start := 0; start < len(keys); start += deleteBatchSize {
		batch := keys[start:min(start+deleteBatchSize, len(keys))]
		if err := p.store.DeleteObjects(ctx, bucket, batch); err != nil {
			return deleted, err
		}
		deleted += len(batch)
	}
	logCtx.Info("Deleted objects under prefix.", "deletedCount", deleted)
	return deleted, nil
}
