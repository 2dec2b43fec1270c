package pacing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/sitecheck/pacing"
)

func TestBetweenStaysInBounds(t *testing.T) {
	min := 10 * time.Millisecond
	max := 50 * time.Millisecond
	for i := 0; i < 1000; i++ {
		d := pacing.Between(min, max)
		assert.GreaterOrEqual(t, d, min)
		assert.Less(t, d, max)
	}
}

func TestBetweenDegenerateRangeReturnsMin(t *testing.T) {
	assert.Equal(t, 5*time.Millisecond, pacing.Between(5*time.Millisecond, 5*time.Millisecond))
	assert.Equal(t, 5*time.Millisecond, pacing.Between(5*time.Millisecond, time.Millisecond))
}

func TestSleepHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := pacing.Sleep(ctx, time.Second, 2*time.Second)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestSleepCompletes(t *testing.T) {
	err := pacing.Sleep(context.Background(), time.Millisecond, 2*time.Millisecond)
	assert.NoError(t, err)
}
