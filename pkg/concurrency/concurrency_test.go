package concurrency

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGate(limit int32, serial bool) *Gate {
	g := NewGate(limit, serial)
	g.period = time.Millisecond
	return g
}

func timeoutCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	t.Cleanup(cancel)
	return ctx
}

func TestColdLimit(t *testing.T) {
	g := newTestGate(1, false)
	cold, err := g.Acquire(context.Background(), "cyclegan")
	require.NoError(t, err)
	assert.True(t, cold)
	assert.Equal(t, int32(1), g.ColdStarts())

	_, err = g.Acquire(timeoutCtx(t), "cyclegan")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), g.ColdStarts())

	g.Warm("cyclegan")
	g.Release("cyclegan")
	assert.Equal(t, int32(0), g.ColdStarts())

	// one instance stayed warm
	cold, err = g.Acquire(context.Background(), "cyclegan")
	require.NoError(t, err)
	assert.False(t, cold)

	// a second concurrent job needs another instance
	cold, err = g.Acquire(context.Background(), "cyclegan")
	require.NoError(t, err)
	assert.True(t, cold)
}

func TestSerialPerModel(t *testing.T) {
	g := newTestGate(10, true)
	cold, err := g.Acquire(context.Background(), "cyclegan")
	require.NoError(t, err)
	assert.True(t, cold)

	_, err = g.Acquire(timeoutCtx(t), "cyclegan")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	cold, err = g.Acquire(context.Background(), "stable-diffusion")
	require.NoError(t, err)
	assert.True(t, cold)

	g.Warm("cyclegan")
	cold, err = g.Acquire(context.Background(), "cyclegan")
	require.NoError(t, err)
	assert.True(t, cold)
}

func TestWindowSearch(t *testing.T) {
	m := newMetric()
	m.window = []*point{{time: 10, val: 5}, {time: 20, val: 3}, {time: 30, val: 1}}
	assert.Equal(t, 1, m.findLeftNearestTime(15))
	assert.Equal(t, 0, m.findLeftNearestTime(5))
	assert.Equal(t, 1, m.findLeftNearestConcurrency(3))
	assert.Equal(t, 3, m.findLeftNearestConcurrency(0))
}
