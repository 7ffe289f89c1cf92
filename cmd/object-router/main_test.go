package main

import (
	"testing"

	"github.com/Lllllllleong/mediaingestflow/internal/models"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStorageEvent(t *testing.T, data any) cloudevents.Event {
	t.Helper()
	e := cloudevents.NewEvent()
	e.SetID("1234567890")
	e.SetSource("//storage.googleapis.com/projects/_/buckets/media")
	e.SetType("google.cloud.storage.object.v1.finalized")
	require.NoError(t, e.SetData(cloudevents.ApplicationJSON, data))
	return e
}

func TestDecodeStorageEvent(t *testing.T) {
	e := newStorageEvent(t, map[string]any{
		"bucket":      "media",
		"name":        "My Video.mp4",
		"contentType": "video/mp4",
	})

	got, err := decodeStorageEvent(e)

	require.NoError(t, err)
	assert.Equal(t, models.StorageEvent{
		ID:      "1234567890",
		Records: []models.StorageRecord{{Bucket: "media", Key: "My Video.mp4"}},
	}, got)
}

func TestDecodeStorageEventRejectsIncompletePayload(t *testing.T) {
	_, err := decodeStorageEvent(newStorageEvent(t, map[string]any{"bucket": "media"}))
	assert.Error(t, err)
}
