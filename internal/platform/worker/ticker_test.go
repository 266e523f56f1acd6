package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickerLoop_RunsUntilCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var ticks atomic.Int32

	stopped := false

	err := TickerLoop(ctx, TickerConfig{
		Name:       "test",
		Interval:   5 * time.Millisecond,
		RunOnStart: true,
		OnTick: func(context.Context) {
			if ticks.Add(1) == 3 {
				cancel()
			}
		},
		OnStop: func() { stopped = true },
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, ticks.Load(), int32(3))
	assert.True(t, stopped)
}

func TestTickerLoop_RecoversPanics(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var ticks atomic.Int32

	err := TickerLoop(ctx, TickerConfig{
		Name:       "panicky",
		Interval:   5 * time.Millisecond,
		RunOnStart: true,
		OnTick: func(context.Context) {
			if ticks.Add(1) >= 2 {
				cancel()
			}

			panic("bad pass")
		},
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, ticks.Load(), int32(2))
}

func TestTickerLoop_InvalidInterval(t *testing.T) {
	err := TickerLoop(context.Background(), TickerConfig{Name: "zero"})
	require.ErrorIs(t, err, errNonPositiveInterval)
}

func TestWait(t *testing.T) {
	require.NoError(t, Wait(context.Background(), 0))
	require.NoError(t, Wait(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, Wait(ctx, time.Hour), context.Canceled)
}

func TestRunWithTimeout(t *testing.T) {
	err := RunWithTimeout(context.Background(), time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	var hadDeadline bool

	require.NoError(t, RunWithTimeout(context.Background(), 0, func(ctx context.Context) error {
		_, hadDeadline = ctx.Deadline()
		return nil
	}))
	assert.False(t, hadDeadline)
}
