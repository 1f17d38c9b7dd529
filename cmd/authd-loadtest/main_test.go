package main

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentile(t *testing.T) {
	samples := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	assert.Equal(t, time.Duration(1), percentile(samples, 0))
	assert.Equal(t, time.Duration(5), percentile(samples, 50))
	assert.Equal(t, time.Duration(10), percentile(samples, 100))
	assert.Equal(t, time.Duration(0), percentile(nil, 50))
}

func TestComputeStatsEmpty(t *testing.T) {
	s := computeStats(time.Second, nil, 3)
	assert.Equal(t, 0, s.ops)
	assert.Equal(t, int64(3), s.failures)
}

func TestRunPhaseCountsFailures(t *testing.T) {
	var calls int
	s := runPhase(10, 1, 1, func(*rand.Rand) error {
		calls++
		if calls%2 == 0 {
			return errors.New("boom")
		}
		return nil
	})
	assert.Equal(t, 10, s.ops)
	assert.Equal(t, int64(5), s.failures)
}

func TestSeedAndExercise(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	client, cleanup, err := openRedis("")
	require.NoError(t, err)
	t.Cleanup(cleanup)

	engine, err := newEngine(newStore(client, "lt"), 4)
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	ctx := context.Background()
	accounts, err := seed(ctx, engine, 3, "t")
	require.NoError(t, err)
	require.Len(t, accounts, 3)

	s := runPhase(20, 4, 1, func(r *rand.Rand) error {
		_, err := engine.Refresh(ctx, accounts[r.Intn(len(accounts))].refresh)
		return err
	})
	assert.Equal(t, int64(0), s.failures)
}
