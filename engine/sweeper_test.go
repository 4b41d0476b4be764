package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/atomic"

	"github.com/hupe1980/routemesh/logging"
)

func TestSweeper_RunsPeriodically(t *testing.T) {
	runs := atomic.NewInt64(0)
	s := NewSweeper(10*time.Millisecond, func() (int, int) {
		runs.Inc()
		return 0, 0
	}, logging.NoOpLogger{})

	s.Start(context.Background())
	s.Start(context.Background())

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, 5*time.Millisecond)

	s.Stop()
	stopped := runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, runs.Load())
}

func TestSweeper_StopsWithContext(t *testing.T) {
	runs := atomic.NewInt64(0)
	s := NewSweeper(5*time.Millisecond, func() (int, int) {
		runs.Inc()
		return 1, 1
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, time.Second, time.Millisecond)
	cancel()

	s.Stop()
}

func TestSweeper_RunOnce(t *testing.T) {
	s := NewSweeper(time.Hour, func() (int, int) { return 2, 3 }, nil)
	c, e := s.RunOnce()
	assert.Equal(t, 2, c)
	assert.Equal(t, 3, e)
}

func TestEngine_SweepEvictsExpiredCache(t *testing.T) {
	clock := newFakeClock()
	eng := newTestEngine(t, func(o *Options) { o.Now = clock.Now })

	eng.Coordinator().Cache().Set("k", 1, time.Second)
	clock.Advance(2 * time.Second)

	_, evicted := eng.Sweep()
	assert.Equal(t, 1, evicted)
	assert.Equal(t, int64(1), eng.Stats().Evicted)
}
