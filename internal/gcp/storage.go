package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

const (
	deleteConcurrency = 10
	writeTimeout      = 50 * time.Second
)

// ObjectStore implements get/put/list/delete over Cloud Storage buckets.
type ObjectStore struct {
	client *storage.Client
}

// NewObjectStore wraps an existing storage client.
func NewObjectStore(client *storage.Client) *ObjectStore {
	return &ObjectStore{client: client}
}

// Get reads a whole object into memory.
func (s *ObjectStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	r, err := s.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get GCS object reader for gs://%s/%s: %w", bucket, key, err)
	}
	defer r.Close()
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", bucket, key, err)
	}
	return body, nil
}

// Put writes body to bucket/key, replacing any existing object.
func (s *ObjectStore) Put(ctx context.Context, bucket, key string, body []byte) error {
	return s.write(ctx, bucket, key, bytes.NewReader(body))
}

// Download streams an object into a local file.
func (s *ObjectStore) Download(ctx context.Context, bucket, key, localPath string) error {
	gcsReader, err := s.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return fmt.Errorf("failed to get GCS object reader for gs://%s/%s: %w", bucket, key, err)
	}
	defer gcsReader.Close()
	localFile, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create local file at %s: %w", localPath, err)
	}
	return copyAndClose(localFile, gcsReader, localPath)
}

// copyAndClose drains src into dst and closes dst. A failed close means the
// local copy may be incomplete, so it is reported like a failed copy.
func copyAndClose(dst io.WriteCloser, src io.Reader, localPath string) error {
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("failed to copy GCS object to local file %s: %w", localPath, err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("failed to close local file %s: %w", localPath, err)
	}
	return nil
}

// Upload streams a local file into bucket/key.
func (s *ObjectStore) Upload(ctx context.Context, localPath, bucket, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("could not open local file %s: %w", localPath, err)
	}
	defer f.Close()
	return s.write(ctx, bucket, key, f)
}

func (s *ObjectStore) write(ctx context.Context, bucket, key string, src io.Reader) error {
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	gcsWriter := s.client.Bucket(bucket).Object(key).NewWriter(writeCtx)
	if _, err := io.Copy(gcsWriter, src); err != nil {
		_ = gcsWriter.Close()
		return fmt.Errorf("io.Copy to gs://%s/%s failed: %w", bucket, key, err)
	}
	if err := gcsWriter.Close(); err != nil {
		return fmt.Errorf("failed to finalize GCS write for gs://%s/%s: %w", bucket, key, err)
	}
	return nil
}

// List returns every key under prefix. The iterator follows page tokens,
// so prefixes larger than one listing page are returned in full.
func (s *ObjectStore) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	query := &storage.Query{Prefix: prefix}
	if err := query.SetAttrSelection([]string{"Name"}); err != nil {
		return nil, fmt.Errorf("failed to build list query: %w", err)
	}
	it := s.client.Bucket(bucket).Objects(ctx, query)

	var keys []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list gs://%s/%s: %w", bucket, prefix, err)
		}
		keys = append(keys, attrs.Name)
	}
	return keys, nil
}

// DeleteObjects removes keys from bucket. Cloud Storage has no multi-object
// delete call, so the batch is issued as bounded concurrent deletes. Objects
// that are already gone are not an error.
func (s *ObjectStore) DeleteObjects(ctx context.Context, bucket string, keys []string) error {
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(deleteConcurrency)

	handle := s.client.Bucket(bucket)
	for _, key := range keys {
		eg.Go(func() error {
			err := handle.Object(key).Delete(gctx)
			if err == nil || errors.Is(err, storage.ErrObjectNotExist) {
				return nil
			}
			var gerr *googleapi.Error
			if errors.As(err, &gerr) && gerr.Code == 404 {
				slog.Warn("Object vanished before delete.", "gcsBucket", bucket, "gcsObject", key)
				return nil
			}
			return fmt.Errorf("failed to delete gs://%s/%s: %w", bucket, key, err)
		})
	}
	return eg.Wait()
}
