package main

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/therapistdirectory/internal/adapters/memory"
	"github.com/zatekoja/therapistdirectory/internal/domain/entities"
)

type recordingIndex struct {
	ids    []string
	failOn string
}

func (r *recordingIndex) Index(_ context.Context, t *entities.Therapist) error {
	if t.ID == r.failOn {
		return errors.New("rejected")
	}
	r.ids = append(r.ids, t.ID)
	return nil
}

func TestReindex_WalksAllPublishedInBatches(t *testing.T) {
	var seed []*entities.Therapist
	for i := 1; i <= 7; i++ {
		seed = append(seed, &entities.Therapist{
			ID:        fmt.Sprintf("t-%d", i),
			Name:      fmt.Sprintf("Therapist %d", i),
			Slug:      fmt.Sprintf("therapist-%d", i),
			Published: i != 4,
		})
	}
	index := &recordingIndex{failOn: "t-6"}

	indexed, failed, err := reindex(context.Background(), memory.NewTherapistStore(seed...), index, 3)
	require.NoError(t, err)

	assert.Equal(t, 5, indexed)
	assert.Equal(t, 1, failed)
	assert.Equal(t, []string{"t-1", "t-2", "t-3", "t-5", "t-7"}, index.ids)
}

func TestReindex_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := reindex(ctx, memory.NewTherapistStore(), &recordingIndex{}, 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseInterval(t *testing.T) {
	interval, err := parseInterval("")
	require.NoError(t, err)
	assert.Zero(t, interval)

	interval, err = parseInterval("30m")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, interval)

	_, err = parseInterval("soon")
	assert.Error(t, err)

	_, err = parseInterval("-1h")
	assert.Error(t, err)
}

func TestResetRequested(t *testing.T) {
	assert.True(t, resetRequested(true, ""))
	assert.True(t, resetRequested(false, "true"))
	assert.True(t, resetRequested(false, " TRUE "))
	assert.False(t, resetRequested(false, ""))
	assert.False(t, resetRequested(false, "1"))
}
