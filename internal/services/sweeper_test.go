package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweeperUsesDeadline(t *testing.T) {
	jobs := &fakeJobs{expired: 3}
	s := NewSweeper(jobs, 6*time.Hour)
	s.now = func() time.Time { return time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC) }

	swept, err := s.Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, swept)
	require.Len(t, jobs.cutoffs, 1)
	assert.Equal(t, time.Date(2024, 3, 5, 6, 0, 0, 0, time.UTC), jobs.cutoffs[0])
}

type failingExpirer struct{}

func (failingExpirer) ExpireBefore(context.Context, time.Time) (int, error) { return 1, errBoom }

func TestSweeperPropagatesErrors(t *testing.T) {
	swept, err := NewSweeper(failingExpirer{}, time.Hour).Sweep(context.Background())

	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, swept)
}
